package db

import (
	log "github.com/sirupsen/logrus"
	nix "github.com/t7a/nixbase"
)

// Group gathers data arrays, tags and multitags of its block under one
// name.  Members are referenced by id, never owned, so deleting a
// group leaves them alone and deleting a member leaves a dangling
// reference.
type Group struct {
	EntityWithSources
}

var _ nix.IGroup = (*Group)(nil)

func openGroup(b *Block, dir *Directory) *Group {
	g := &Group{}
	g.file = b.file
	g.dir = dir
	g.block = b
	return g
}

func (g *Group) members(sub string, target func(string) (*Directory, error)) *refList {
	return &refList{
		owner:  &g.Entity,
		coll:   g.dir.Sub(sub),
		target: target,
	}
}

func (g *Group) dataArrays() *refList {
	return g.members("data_arrays", g.block.dataArrays().find)
}

func (g *Group) tags() *refList {
	return g.members("tags", g.block.tags().find)
}

func (g *Group) multiTags() *refList {
	return g.members("multi_tags", g.block.multiTags().find)
}

func (g *Group) DataArrayCount() (int, error) {
	return g.dataArrays().Count()
}

func (g *Group) HasDataArray(nameOrID string) bool {
	return g.dataArrays().Has(nameOrID)
}

func (g *Group) GetDataArray(nameOrID string) (da nix.IDataArray, err error) {
	dir, err := g.dataArrays().Get(nameOrID)
	if err != nil {
		return
	}
	return openDataArray(g.block, dir), nil
}

func (g *Group) GetDataArrayAt(index int) (da nix.IDataArray, err error) {
	dir, err := g.dataArrays().At(index)
	if err != nil {
		return
	}
	return openDataArray(g.block, dir), nil
}

func (g *Group) DataArrayIDs() ([]string, error) {
	return g.dataArrays().IDs()
}

func (g *Group) AddDataArray(nameOrID string) error {
	return g.dataArrays().Add(nameOrID)
}

func (g *Group) RemoveDataArray(nameOrID string) (bool, error) {
	return g.dataArrays().Remove(nameOrID)
}

func (g *Group) SetDataArrays(ids []string) error {
	return g.dataArrays().Set(ids)
}

func (g *Group) TagCount() (int, error) {
	return g.tags().Count()
}

func (g *Group) HasTag(nameOrID string) bool {
	return g.tags().Has(nameOrID)
}

func (g *Group) GetTag(nameOrID string) (tag nix.ITag, err error) {
	dir, err := g.tags().Get(nameOrID)
	if err != nil {
		return
	}
	return openTag(g.block, dir), nil
}

func (g *Group) GetTagAt(index int) (tag nix.ITag, err error) {
	dir, err := g.tags().At(index)
	if err != nil {
		return
	}
	return openTag(g.block, dir), nil
}

func (g *Group) TagIDs() ([]string, error) {
	return g.tags().IDs()
}

func (g *Group) AddTag(nameOrID string) error {
	return g.tags().Add(nameOrID)
}

func (g *Group) RemoveTag(nameOrID string) (bool, error) {
	return g.tags().Remove(nameOrID)
}

func (g *Group) SetTags(ids []string) error {
	return g.tags().Set(ids)
}

func (g *Group) MultiTagCount() (int, error) {
	return g.multiTags().Count()
}

func (g *Group) HasMultiTag(nameOrID string) bool {
	return g.multiTags().Has(nameOrID)
}

func (g *Group) GetMultiTag(nameOrID string) (mt nix.IMultiTag, err error) {
	dir, err := g.multiTags().Get(nameOrID)
	if err != nil {
		return
	}
	return openMultiTag(g.block, dir), nil
}

func (g *Group) GetMultiTagAt(index int) (mt nix.IMultiTag, err error) {
	dir, err := g.multiTags().At(index)
	if err != nil {
		return
	}
	return openMultiTag(g.block, dir), nil
}

func (g *Group) MultiTagIDs() ([]string, error) {
	return g.multiTags().IDs()
}

func (g *Group) AddMultiTag(nameOrID string) error {
	return g.multiTags().Add(nameOrID)
}

func (g *Group) RemoveMultiTag(nameOrID string) (bool, error) {
	return g.multiTags().Remove(nameOrID)
}

func (g *Group) SetMultiTags(ids []string) error {
	return g.multiTags().Set(ids)
}

func (b *Block) groups() collection {
	return collection{b.dir.Sub("groups"), &b.Entity}
}

func (b *Block) GroupCount() (int, error) {
	return b.groups().count()
}

func (b *Block) HasGroup(nameOrID string) bool {
	return b.groups().has(nameOrID)
}

func (b *Block) GetGroup(nameOrID string) (g nix.IGroup, err error) {
	dir, err := b.groups().find(nameOrID)
	if err != nil {
		return
	}
	return openGroup(b, dir), nil
}

func (b *Block) GetGroupAt(index int) (g nix.IGroup, err error) {
	dir, err := b.groups().at(index)
	if err != nil {
		return
	}
	return openGroup(b, dir), nil
}

// CreateGroup adds an empty group.  Group names are unique within the
// block.
func (b *Block) CreateGroup(name, typ string) (g nix.IGroup, err error) {
	attrs, err := namedAttrs(name, typ)
	if err != nil {
		return
	}
	dir, err := b.groups().create(name, attrs)
	if err != nil {
		return
	}
	log.Debugf("created group %s", dir.Path)
	return openGroup(b, dir), nil
}

func (b *Block) DeleteGroup(nameOrID string) (bool, error) {
	return b.groups().remove(nameOrID)
}
