package db

import (
	"path/filepath"

	"github.com/pkg/errors"
	nix "github.com/t7a/nixbase"
)

const featureDataLink = "data"

// Feature attaches a data array to a tag, saying how the array's
// contents relate to the tagged region.
type Feature struct {
	Entity
	tag *BaseTag
}

var _ nix.IFeature = (*Feature)(nil)

func openFeature(t *BaseTag, dir *Directory) *Feature {
	return &Feature{Entity: Entity{file: t.file, dir: dir}, tag: t}
}

func (f *Feature) LinkType() (lt nix.LinkType, err error) {
	s, err := f.requireString("link_type")
	if err != nil {
		return
	}
	return nix.ParseLinkType(s)
}

func (f *Feature) SetLinkType(lt nix.LinkType) (err error) {
	err = f.tag.checkLinkType(lt)
	if err != nil {
		return
	}
	return f.write(map[string]interface{}{"link_type": lt.String()})
}

// Data resolves the linked array.  The target is checked on every
// read, so an array deleted, replaced or moved out of the block since
// the link was made fails with ErrNotFound.
func (f *Feature) Data() (da nix.IDataArray, err error) {
	dir, err := f.dir.FollowEntity(featureDataLink)
	if err != nil {
		return
	}
	if filepath.Dir(dir.Path) != f.tag.block.dataArrays().dir.Path {
		return nil, errors.Wrapf(nix.ErrNotFound, "%s is not in block %s", dir.Path, f.tag.block.dir.Path)
	}
	return openDataArray(f.tag.block, dir), nil
}

func (f *Feature) SetData(nameOrID string) (err error) {
	err = f.dir.writable()
	if err != nil {
		return
	}
	target, err := f.tag.block.dataArrays().find(nameOrID)
	if err != nil {
		return
	}
	err = f.dir.LinkEntity(featureDataLink, target)
	if err != nil {
		return
	}
	return f.ForceUpdatedAt()
}
