package db

import (
	"path/filepath"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	nix "github.com/t7a/nixbase"
)

// Source is a node of a block's provenance tree.  It owns its child
// sources; other entities only reference it.
type Source struct {
	EntityWithMetadata
}

var _ nix.ISource = (*Source)(nil)

func openSource(file *File, dir *Directory) *Source {
	s := &Source{}
	s.file = file
	s.dir = dir
	return s
}

func (s *Source) children() collection {
	return collection{s.dir.Sub("sources"), &s.Entity}
}

func (s *Source) SourceCount() (int, error) {
	return s.children().count()
}

func (s *Source) HasSource(nameOrID string) bool {
	return s.children().has(nameOrID)
}

func (s *Source) GetSource(nameOrID string) (nix.ISource, error) {
	return getSource(s.file, s.children(), nameOrID)
}

func (s *Source) GetSourceAt(index int) (nix.ISource, error) {
	return getSourceAt(s.file, s.children(), index)
}

func (s *Source) CreateSource(name, typ string) (nix.ISource, error) {
	return createSource(s.file, s.children(), &s.Entity, name, typ)
}

func (s *Source) DeleteSource(nameOrID string) (bool, error) {
	return deleteSource(s.children(), &s.Entity, nameOrID)
}

// The helpers below are shared by blocks and sources, the two owners
// of source collections.

func getSource(file *File, coll collection, nameOrID string) (src nix.ISource, err error) {
	dir, err := coll.find(nameOrID)
	if err != nil {
		return
	}
	return openSource(file, dir), nil
}

func getSourceAt(file *File, coll collection, index int) (src nix.ISource, err error) {
	dir, err := coll.at(index)
	if err != nil {
		return
	}
	return openSource(file, dir), nil
}

func createSource(file *File, coll collection, owner *Entity, name, typ string) (src nix.ISource, err error) {
	attrs, err := namedAttrs(name, typ)
	if err != nil {
		return
	}
	dir, err := coll.create(name, attrs)
	if err != nil {
		return
	}
	log.Debugf("created source %s in %s", name, owner.dir.Path)
	return openSource(file, dir), nil
}

// deleteSource removes a source after first removing, depth first,
// every source below it.
func deleteSource(coll collection, owner *Entity, nameOrID string) (ok bool, err error) {
	err = coll.dir.writable()
	if err != nil {
		return
	}
	dir, err := coll.find(nameOrID)
	if errors.Is(err, nix.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return
	}
	err = removeTree(coll.dir, filepath.Base(dir.Path), "sources")
	if err != nil {
		return
	}
	return true, owner.ForceUpdatedAt()
}
