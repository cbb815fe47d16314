package db

import (
	"github.com/pkg/errors"
	nix "github.com/t7a/nixbase"
)

const (
	positionsLink = "positions"
	extentsLink   = "extents"
)

// MultiTag marks many points or regions at once.  Positions and
// extents are data arrays of the same block, linked by name.
type MultiTag struct {
	BaseTag
}

var _ nix.IMultiTag = (*MultiTag)(nil)

func openMultiTag(b *Block, dir *Directory) *MultiTag {
	t := &MultiTag{}
	t.file = b.file
	t.dir = dir
	t.block = b
	t.multi = true
	return t
}

func (t *MultiTag) linked(name string) (da *DataArray, err error) {
	dir, err := t.dir.FollowEntity(name)
	if err != nil {
		return
	}
	return openDataArray(t.block, dir), nil
}

func (t *MultiTag) HasPositions() bool {
	_, err := t.linked(positionsLink)
	return err == nil
}

func (t *MultiTag) Positions() (nix.IDataArray, error) {
	da, err := t.linked(positionsLink)
	if err != nil {
		return nil, err
	}
	return da, nil
}

// Extents returns nil, nil when no extents are set.  Extents whose
// array is gone fail with ErrNotFound.
func (t *MultiTag) Extents() (nix.IDataArray, error) {
	if !t.dir.HasObject(extentsLink) {
		return nil, nil
	}
	da, err := t.linked(extentsLink)
	if err != nil {
		return nil, err
	}
	return da, nil
}

// sameShape fails unless a and b have equal extents.
func sameShape(a, b *DataArray) error {
	ae, err := a.DataExtent()
	if err != nil {
		return err
	}
	be, err := b.DataExtent()
	if err != nil {
		return err
	}
	if len(ae) != len(be) {
		return errors.Wrapf(nix.ErrIncompatibleDimensions, "positions %v, extents %v", ae, be)
	}
	for i := range ae {
		if ae[i] != be[i] {
			return errors.Wrapf(nix.ErrIncompatibleDimensions, "positions %v, extents %v", ae, be)
		}
	}
	return nil
}

// setLink points name at the array nameOrID of this block.  The link
// is replaced in one step, so readers see either the old or the new
// array.
func (t *MultiTag) setLink(name, nameOrID string, check func(*DataArray) error) (err error) {
	err = t.dir.writable()
	if err != nil {
		return
	}
	da, err := t.block.getDataArray(nameOrID)
	if err != nil {
		return
	}
	err = check(da)
	if err != nil {
		return
	}
	err = t.dir.LinkEntity(name, da.dir)
	if err != nil {
		return
	}
	return t.ForceUpdatedAt()
}

func (t *MultiTag) SetPositions(nameOrID string) error {
	return t.setLink(positionsLink, nameOrID, func(pos *DataArray) error {
		ext, err := t.linked(extentsLink)
		if err != nil {
			// no extents to match
			return nil
		}
		return sameShape(pos, ext)
	})
}

func (t *MultiTag) SetExtents(nameOrID string) error {
	return t.setLink(extentsLink, nameOrID, func(ext *DataArray) error {
		pos, err := t.linked(positionsLink)
		if err != nil {
			return err
		}
		return sameShape(pos, ext)
	})
}

func (t *MultiTag) RemoveExtents() (err error) {
	ok, err := t.dir.UnlinkEntity(extentsLink)
	if err != nil || !ok {
		return
	}
	return t.ForceUpdatedAt()
}

func (t *MultiTag) Units() ([]string, error) {
	return t.units()
}

func (t *MultiTag) SetUnits(units []string) error {
	return t.setUnits(units)
}

func (t *MultiTag) RemoveUnits() error {
	return t.remove("units")
}
