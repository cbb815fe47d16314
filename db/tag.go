package db

import (
	"path/filepath"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	nix "github.com/t7a/nixbase"
)

// BaseTag holds what tags and multitags share: references to data
// arrays of the same block, and features.
type BaseTag struct {
	EntityWithSources
	multi bool
}

func (t *BaseTag) references() *refList {
	return &refList{
		owner:  &t.Entity,
		coll:   t.dir.Sub("references"),
		target: t.block.dataArrays().find,
	}
}

func (t *BaseTag) ReferenceCount() (int, error) {
	return t.references().Count()
}

func (t *BaseTag) HasReference(nameOrID string) bool {
	return t.references().Has(nameOrID)
}

func (t *BaseTag) GetReference(nameOrID string) (da nix.IDataArray, err error) {
	dir, err := t.references().Get(nameOrID)
	if err != nil {
		return
	}
	return openDataArray(t.block, dir), nil
}

func (t *BaseTag) GetReferenceAt(index int) (da nix.IDataArray, err error) {
	dir, err := t.references().At(index)
	if err != nil {
		return
	}
	return openDataArray(t.block, dir), nil
}

func (t *BaseTag) ReferenceIDs() ([]string, error) {
	return t.references().IDs()
}

func (t *BaseTag) AddReference(nameOrID string) error {
	return t.references().Add(nameOrID)
}

func (t *BaseTag) RemoveReference(nameOrID string) (bool, error) {
	return t.references().Remove(nameOrID)
}

func (t *BaseTag) SetReferences(ids []string) error {
	return t.references().Set(ids)
}

// features are keyed by their own id rather than a name.
func (t *BaseTag) features() collection {
	return collection{t.dir.Sub("features"), &t.Entity}
}

func (t *BaseTag) FeatureCount() (int, error) {
	return t.features().count()
}

func (t *BaseTag) HasFeature(nameOrID string) bool {
	_, err := t.findFeature(nameOrID)
	return err == nil
}

// findFeature tries the feature id first and falls back to the id or
// name of the linked data array.
func (t *BaseTag) findFeature(nameOrID string) (dir *Directory, err error) {
	err = nix.CheckEmpty(nameOrID, "name or id")
	if err != nil {
		return
	}
	coll := t.features().dir
	if nix.LooksLikeID(nameOrID) && coll.HasObject(nameOrID) {
		return coll.Sub(nameOrID), nil
	}
	target, err := t.block.dataArrays().find(nameOrID)
	if err != nil {
		return
	}
	names, err := coll.ObjectNames()
	if err != nil {
		return
	}
	for _, name := range names {
		linked, err := coll.Sub(name).FollowEntity(featureDataLink)
		if err != nil {
			continue
		}
		if linked.Path == target.Path {
			return coll.Sub(name), nil
		}
	}
	return nil, errors.Wrapf(nix.ErrNotFound, "feature %q in %s", nameOrID, t.dir.Path)
}

func (t *BaseTag) GetFeature(nameOrID string) (f nix.IFeature, err error) {
	dir, err := t.findFeature(nameOrID)
	if err != nil {
		return
	}
	return openFeature(t, dir), nil
}

func (t *BaseTag) GetFeatureAt(index int) (f nix.IFeature, err error) {
	dir, err := t.features().at(index)
	if err != nil {
		return
	}
	return openFeature(t, dir), nil
}

func (t *BaseTag) checkLinkType(lt nix.LinkType) error {
	switch lt {
	case nix.Tagged, nix.Untagged:
		return nil
	case nix.Indexed:
		if t.multi {
			return nil
		}
		return errors.Wrap(nix.ErrInvalidArgument, "indexed link type on a tag")
	}
	return errors.Wrapf(nix.ErrInvalidArgument, "link type %d", int(lt))
}

// CreateFeature links dataArray, which must belong to the tag's block,
// as a feature of the tag.
func (t *BaseTag) CreateFeature(dataArray string, lt nix.LinkType) (f nix.IFeature, err error) {
	err = t.dir.writable()
	if err != nil {
		return
	}
	err = t.checkLinkType(lt)
	if err != nil {
		return
	}
	target, err := t.block.dataArrays().find(dataArray)
	if err != nil {
		return
	}
	id := nix.CreateID()
	coll := t.features()
	dir, err := coll.create(id, map[string]interface{}{
		"entity_id": id,
		"link_type": lt.String(),
	})
	if err != nil {
		return
	}
	err = dir.LinkEntity(featureDataLink, target)
	if err != nil {
		coll.discard(dir, err)
		return nil, err
	}
	log.Debugf("created %v feature %s -> %s", lt, dir.Path, target.Path)
	return openFeature(t, dir), nil
}

func (t *BaseTag) DeleteFeature(nameOrID string) (ok bool, err error) {
	err = t.dir.writable()
	if err != nil {
		return
	}
	dir, err := t.findFeature(nameOrID)
	if errors.Is(err, nix.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return
	}
	return t.features().remove(filepath.Base(dir.Path))
}

func (t *BaseTag) units() ([]string, error) {
	return t.optStrings("units")
}

func (t *BaseTag) setUnits(units []string) error {
	if len(units) == 0 {
		return t.remove("units")
	}
	for _, u := range units {
		err := nix.CheckEmpty(u, "unit")
		if err != nil {
			return err
		}
	}
	return t.write(map[string]interface{}{"units": units})
}

// Tag marks a single point or region in the data arrays it
// references.
type Tag struct {
	BaseTag
}

var _ nix.ITag = (*Tag)(nil)

func openTag(b *Block, dir *Directory) *Tag {
	t := &Tag{}
	t.file = b.file
	t.dir = dir
	t.block = b
	return t
}

func (t *Tag) Position() (pos []float64, err error) {
	pos, ok, err := t.dir.Attrs.GetDoubles("position")
	if err == nil && !ok {
		err = t.missing("position")
	}
	return
}

// SetPosition keeps an existing extent valid: both must have the same
// length.
func (t *Tag) SetPosition(position []float64) (err error) {
	if len(position) == 0 {
		return errors.Wrap(nix.ErrInvalidArgument, "empty position")
	}
	extent, err := t.Extent()
	if err != nil {
		return
	}
	if extent != nil && len(extent) != len(position) {
		return errors.Wrapf(nix.ErrIncompatibleDimensions, "position %v, extent %v", position, extent)
	}
	return t.write(map[string]interface{}{"position": position})
}

// Extent returns nil for a point tag.
func (t *Tag) Extent() ([]float64, error) {
	return t.optDoubles("extent")
}

func (t *Tag) SetExtent(extent []float64) (err error) {
	if len(extent) == 0 {
		return errors.Wrap(nix.ErrInvalidArgument, "empty extent")
	}
	pos, err := t.Position()
	if err != nil {
		return
	}
	if len(pos) != len(extent) {
		return errors.Wrapf(nix.ErrIncompatibleDimensions, "position %v, extent %v", pos, extent)
	}
	return t.write(map[string]interface{}{"extent": extent})
}

func (t *Tag) RemoveExtent() error {
	return t.remove("extent")
}

func (t *Tag) Units() ([]string, error) {
	return t.units()
}

func (t *Tag) SetUnits(units []string) error {
	return t.setUnits(units)
}

func (t *Tag) RemoveUnits() error {
	return t.remove("units")
}
