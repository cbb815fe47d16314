package db

import (
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	. "github.com/stevegt/goadapt"
	nix "github.com/t7a/nixbase"
)

// FormatName and FormatVersion make up the header every file root
// carries.  A file opens if its major version matches and it is not
// newer than FormatVersion.
const FormatName = "nix"

var FormatVersion = []int{1, 0, 0}

// File is the root of one container: a directory holding the header
// attributes, the blocks under data/ and the root sections under
// metadata/.
type File struct {
	dir *Directory
	h   *handle
}

var _ nix.IFile = (*File)(nil)

// OpenFile opens or creates the file rooted at path.  Overwrite clears
// whatever is there; ReadOnly requires an existing file with a valid
// header.
func OpenFile(path string, mode nix.FileMode) (file *File, err error) {
	defer Return(&err)
	path = filepath.Clean(path)

	switch mode {
	case nix.ReadOnly:
		if !canstat(path) {
			return nil, errors.Wrapf(nix.ErrNotFound, "file %s", path)
		}
	case nix.Overwrite:
		if canstat(path) {
			log.Debugf("overwriting %s", path)
			err = os.RemoveAll(path)
			Ck(err)
		}
	case nix.ReadWrite:
	default:
		return nil, errors.Wrapf(nix.ErrInvalidArgument, "file mode %v", mode)
	}

	h := &handle{mode: mode}
	dir, err := openDirectory(path, h)
	if err != nil {
		return
	}
	file = &File{dir: dir, h: h}

	err = file.checkHeader()
	if err != nil {
		return nil, err
	}

	if mode != nix.ReadOnly {
		err = file.data().ensure()
		Ck(err)
		err = file.metadata().ensure()
		Ck(err)
	}
	return
}

// checkHeader validates format and version, writing them (plus the
// timestamps) into a writable file that has none yet.
func (f *File) checkHeader() (err error) {
	attrs := f.dir.Attrs
	format, ok, err := attrs.GetString("format")
	if err != nil {
		return
	}
	if !ok {
		if f.h.mode == nix.ReadOnly {
			return errors.Wrapf(nix.ErrInvalidHeader, "no header in %s", f.dir.Path)
		}
		stamp := formatTime(now())
		log.Debugf("writing header to %s", f.dir.Path)
		return attrs.SetAll(map[string]interface{}{
			"format":     FormatName,
			"version":    FormatVersion,
			"created_at": stamp,
			"updated_at": stamp,
		})
	}
	if format != FormatName {
		return errors.Wrapf(nix.ErrInvalidHeader, "format %q in %s", format, f.dir.Path)
	}
	version, ok, err := attrs.GetInts("version")
	if err != nil {
		return
	}
	if !ok || !compatible(version) {
		return errors.Wrapf(nix.ErrInvalidHeader, "version %v in %s", version, f.dir.Path)
	}
	return
}

func compatible(version []int) bool {
	if len(version) != len(FormatVersion) || version[0] != FormatVersion[0] {
		return false
	}
	for i := 1; i < len(version); i++ {
		if version[i] != FormatVersion[i] {
			return version[i] < FormatVersion[i]
		}
	}
	return true
}

func (f *File) data() *Directory {
	return f.dir.Sub("data")
}

func (f *File) metadata() *Directory {
	return f.dir.Sub("metadata")
}

func (f *File) blocks() collection {
	return collection{f.data(), f.root()}
}

func (f *File) sections() collection {
	return collection{f.metadata(), f.root()}
}

func (f *File) Location() string {
	return f.dir.Path
}

func (f *File) Mode() nix.FileMode {
	return f.h.mode
}

func (f *File) Format() (format string, err error) {
	format, ok, err := f.dir.Attrs.GetString("format")
	if err == nil && !ok {
		err = &nix.MissingAttributeError{Attr: "format", Dir: f.dir.Path}
	}
	return
}

func (f *File) Version() (version []int, err error) {
	version, ok, err := f.dir.Attrs.GetInts("version")
	if err == nil && !ok {
		err = &nix.MissingAttributeError{Attr: "version", Dir: f.dir.Path}
	}
	return
}

func (f *File) root() *Entity {
	return &Entity{file: f, dir: f.dir}
}

func (f *File) CreatedAt() (time.Time, error) {
	return f.root().CreatedAt()
}

func (f *File) UpdatedAt() (time.Time, error) {
	return f.root().UpdatedAt()
}

func (f *File) SetUpdatedAt() error {
	return f.root().SetUpdatedAt()
}

func (f *File) ForceUpdatedAt() error {
	return f.root().ForceUpdatedAt()
}

func (f *File) ForceCreatedAt(t time.Time) error {
	return f.root().ForceCreatedAt(t)
}

func (f *File) IsOpen() bool {
	return !f.h.closed
}

// Close invalidates every handle obtained through f.
func (f *File) Close() error {
	f.h.closed = true
	return nil
}

func (f *File) BlockCount() (int, error) {
	return f.blocks().count()
}

func (f *File) HasBlock(nameOrID string) bool {
	return f.blocks().has(nameOrID)
}

func (f *File) GetBlock(nameOrID string) (b nix.IBlock, err error) {
	dir, err := f.blocks().find(nameOrID)
	if err != nil {
		return
	}
	return openBlock(f, dir), nil
}

func (f *File) GetBlockAt(index int) (b nix.IBlock, err error) {
	dir, err := f.blocks().at(index)
	if err != nil {
		return
	}
	return openBlock(f, dir), nil
}

func (f *File) CreateBlock(name, typ string) (b nix.IBlock, err error) {
	attrs, err := namedAttrs(name, typ)
	if err != nil {
		return
	}
	dir, err := f.blocks().create(name, attrs)
	if err != nil {
		return
	}
	log.Debugf("created block %s", name)
	return openBlock(f, dir), nil
}

// DeleteBlock removes the block and everything it owns.  Links from
// elsewhere into the block are left dangling.
func (f *File) DeleteBlock(nameOrID string) (bool, error) {
	return f.blocks().remove(nameOrID)
}

func (f *File) SectionCount() (int, error) {
	return f.sections().count()
}

func (f *File) HasSection(nameOrID string) bool {
	return f.sections().has(nameOrID)
}

func (f *File) GetSection(nameOrID string) (sec nix.ISection, err error) {
	dir, err := f.sections().find(nameOrID)
	if err != nil {
		return
	}
	return openSection(f, dir), nil
}

func (f *File) GetSectionAt(index int) (sec nix.ISection, err error) {
	dir, err := f.sections().at(index)
	if err != nil {
		return
	}
	return openSection(f, dir), nil
}

func (f *File) CreateSection(name, typ string) (nix.ISection, error) {
	return createSection(f, f.sections(), name, typ)
}

func (f *File) DeleteSection(nameOrID string) (bool, error) {
	return deleteSection(f.sections(), nameOrID)
}

// findSection searches the whole metadata tree for id.
func (f *File) findSection(id string) (sec *Section, err error) {
	var walk func(coll *Directory) (*Directory, error)
	walk = func(coll *Directory) (*Directory, error) {
		entry, found, err := coll.FindByAttribute("entity_id", id)
		if err != nil {
			return nil, err
		}
		if found {
			return coll.Sub(entry), nil
		}
		names, err := coll.ObjectNames()
		if err != nil {
			return nil, err
		}
		for _, name := range names {
			dir, err := walk(coll.Sub(name).Sub("sections"))
			if dir != nil || err != nil {
				return dir, err
			}
		}
		return nil, nil
	}
	dir, err := walk(f.metadata())
	if err != nil {
		return
	}
	if dir == nil {
		return nil, errors.Wrapf(nix.ErrNotFound, "section %s", id)
	}
	return openSection(f, dir), nil
}

func (f *File) FindSection(id string) (nix.ISection, error) {
	sec, err := f.findSection(id)
	if err != nil {
		return nil, err
	}
	return sec, nil
}

func (f *File) FindSections(filter func(nix.ISection) bool, maxDepth int) (found []nix.ISection, err error) {
	var walk func(coll *Directory, depth int) error
	walk = func(coll *Directory, depth int) error {
		names, err := coll.ObjectNames()
		if err != nil {
			return err
		}
		for _, name := range names {
			sec := openSection(f, coll.Sub(name))
			if filter == nil || filter(sec) {
				found = append(found, sec)
			}
			if maxDepth >= 0 && depth >= maxDepth {
				continue
			}
			err = walk(sec.dir.Sub("sections"), depth+1)
			if err != nil {
				return err
			}
		}
		return nil
	}
	err = walk(f.metadata(), 0)
	return
}
