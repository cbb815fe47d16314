package db

import (
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	nix "github.com/t7a/nixbase"
)

// Block groups the sources, data arrays, tags and multitags of one
// recording or experiment.
type Block struct {
	EntityWithMetadata
}

var _ nix.IBlock = (*Block)(nil)

func openBlock(file *File, dir *Directory) *Block {
	b := &Block{}
	b.file = file
	b.dir = dir
	return b
}

func (b *Block) sourceColl() collection {
	return collection{b.dir.Sub("sources"), &b.Entity}
}

func (b *Block) dataArrays() collection {
	return collection{b.dir.Sub("data_arrays"), &b.Entity}
}

func (b *Block) tags() collection {
	return collection{b.dir.Sub("tags"), &b.Entity}
}

func (b *Block) multiTags() collection {
	return collection{b.dir.Sub("multi_tags"), &b.Entity}
}

func (b *Block) SourceCount() (int, error) {
	return b.sourceColl().count()
}

func (b *Block) HasSource(nameOrID string) bool {
	return b.sourceColl().has(nameOrID)
}

func (b *Block) GetSource(nameOrID string) (nix.ISource, error) {
	return getSource(b.file, b.sourceColl(), nameOrID)
}

func (b *Block) GetSourceAt(index int) (nix.ISource, error) {
	return getSourceAt(b.file, b.sourceColl(), index)
}

func (b *Block) CreateSource(name, typ string) (nix.ISource, error) {
	return createSource(b.file, b.sourceColl(), &b.Entity, name, typ)
}

func (b *Block) DeleteSource(nameOrID string) (bool, error) {
	return deleteSource(b.sourceColl(), &b.Entity, nameOrID)
}

// findSourceDir searches the block's whole source tree, depth first.
// Sources of other blocks are never found.
func (b *Block) findSourceDir(nameOrID string) (dir *Directory, err error) {
	var walk func(coll collection) (*Directory, error)
	walk = func(coll collection) (*Directory, error) {
		dir, err := coll.find(nameOrID)
		if err == nil {
			return dir, nil
		}
		if !errors.Is(err, nix.ErrNotFound) {
			return nil, err
		}
		names, err := coll.dir.ObjectNames()
		if err != nil {
			return nil, err
		}
		for _, name := range names {
			dir, err := walk(collection{dir: coll.dir.Sub(name).Sub("sources")})
			if dir != nil || err != nil {
				return dir, err
			}
		}
		return nil, nil
	}
	dir, err = walk(b.sourceColl())
	if err != nil {
		return
	}
	if dir == nil {
		return nil, errors.Wrapf(nix.ErrNotFound, "source %q in block %s", nameOrID, b.dir.Path)
	}
	return
}

func (b *Block) FindSource(nameOrID string) (src nix.ISource, err error) {
	dir, err := b.findSourceDir(nameOrID)
	if err != nil {
		return
	}
	return openSource(b.file, dir), nil
}

func (b *Block) DataArrayCount() (int, error) {
	return b.dataArrays().count()
}

func (b *Block) HasDataArray(nameOrID string) bool {
	return b.dataArrays().has(nameOrID)
}

func (b *Block) getDataArray(nameOrID string) (da *DataArray, err error) {
	dir, err := b.dataArrays().find(nameOrID)
	if err != nil {
		return
	}
	return openDataArray(b, dir), nil
}

func (b *Block) GetDataArray(nameOrID string) (nix.IDataArray, error) {
	da, err := b.getDataArray(nameOrID)
	if err != nil {
		return nil, err
	}
	return da, nil
}

func (b *Block) GetDataArrayAt(index int) (da nix.IDataArray, err error) {
	dir, err := b.dataArrays().at(index)
	if err != nil {
		return
	}
	return openDataArray(b, dir), nil
}

func (b *Block) CreateDataArray(name, typ string, dtype nix.DataType, extent []int) (da nix.IDataArray, err error) {
	attrs, err := namedAttrs(name, typ)
	if err != nil {
		return
	}
	if dtype == nix.Nothing {
		return nil, errors.Wrap(nix.ErrInvalidArgument, "data type Nothing")
	}
	err = checkExtent(extent)
	if err != nil {
		return
	}
	attrs["dtype"] = dtype.String()
	attrs["extent"] = extent
	dir, err := b.dataArrays().create(name, attrs)
	if err != nil {
		return
	}
	log.Debugf("created data array %s %v %v", name, dtype, extent)
	return openDataArray(b, dir), nil
}

// DeleteDataArray removes the array with its dimensions.  Tags,
// multitags and features still pointing at it are left dangling.
func (b *Block) DeleteDataArray(nameOrID string) (bool, error) {
	return b.dataArrays().remove(nameOrID)
}

func (b *Block) TagCount() (int, error) {
	return b.tags().count()
}

func (b *Block) HasTag(nameOrID string) bool {
	return b.tags().has(nameOrID)
}

func (b *Block) GetTag(nameOrID string) (tag nix.ITag, err error) {
	dir, err := b.tags().find(nameOrID)
	if err != nil {
		return
	}
	return openTag(b, dir), nil
}

func (b *Block) GetTagAt(index int) (tag nix.ITag, err error) {
	dir, err := b.tags().at(index)
	if err != nil {
		return
	}
	return openTag(b, dir), nil
}

func (b *Block) CreateTag(name, typ string, position []float64) (tag nix.ITag, err error) {
	attrs, err := namedAttrs(name, typ)
	if err != nil {
		return
	}
	if len(position) == 0 {
		return nil, errors.Wrap(nix.ErrInvalidArgument, "empty position")
	}
	attrs["position"] = position
	dir, err := b.tags().create(name, attrs)
	if err != nil {
		return
	}
	return openTag(b, dir), nil
}

func (b *Block) DeleteTag(nameOrID string) (bool, error) {
	return b.tags().remove(nameOrID)
}

func (b *Block) MultiTagCount() (int, error) {
	return b.multiTags().count()
}

func (b *Block) HasMultiTag(nameOrID string) bool {
	return b.multiTags().has(nameOrID)
}

func (b *Block) GetMultiTag(nameOrID string) (mt nix.IMultiTag, err error) {
	dir, err := b.multiTags().find(nameOrID)
	if err != nil {
		return
	}
	return openMultiTag(b, dir), nil
}

func (b *Block) GetMultiTagAt(index int) (mt nix.IMultiTag, err error) {
	dir, err := b.multiTags().at(index)
	if err != nil {
		return
	}
	return openMultiTag(b, dir), nil
}

// CreateMultiTag needs the positions array up front; it must live in
// this block.
func (b *Block) CreateMultiTag(name, typ string, positions string) (mt nix.IMultiTag, err error) {
	attrs, err := namedAttrs(name, typ)
	if err != nil {
		return
	}
	err = b.dir.writable()
	if err != nil {
		return
	}
	pos, err := b.getDataArray(positions)
	if err != nil {
		return
	}
	coll := b.multiTags()
	dir, err := coll.create(name, attrs)
	if err != nil {
		return
	}
	err = dir.LinkEntity(positionsLink, pos.dir)
	if err != nil {
		coll.discard(dir, err)
		return nil, err
	}
	return openMultiTag(b, dir), nil
}

func (b *Block) DeleteMultiTag(nameOrID string) (bool, error) {
	return b.multiTags().remove(nameOrID)
}
