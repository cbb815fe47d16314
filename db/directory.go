package db

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/renameio"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	nix "github.com/t7a/nixbase"
)

// handle is shared by every Directory opened through one File, so
// that closing the file or opening it read-only covers them all.
type handle struct {
	mode   nix.FileMode
	closed bool
}

// Directory maps one logical object onto one filesystem directory
// plus its attribute side file.  A Directory may describe a path that
// does not exist yet; it is created on the first write below it.
type Directory struct {
	Path  string
	Attrs *Attributes
	h     *handle
}

// OpenDirectory opens path, creating it unless mode is ReadOnly.
func OpenDirectory(path string, mode nix.FileMode) (dir *Directory, err error) {
	return openDirectory(path, &handle{mode: mode})
}

func openDirectory(path string, h *handle) (dir *Directory, err error) {
	dir = newDirectory(filepath.Clean(path), h)
	if canstat(dir.Path) {
		return
	}
	if h.mode == nix.ReadOnly {
		return nil, errors.Wrapf(nix.ErrNotFound, "directory %s", dir.Path)
	}
	err = mkdir(dir.Path)
	if err != nil {
		return nil, err
	}
	log.Debugf("created directory %s", dir.Path)
	return
}

func newDirectory(path string, h *handle) *Directory {
	dir := &Directory{Path: path, h: h}
	dir.Attrs = &Attributes{dir: dir}
	return dir
}

func (d *Directory) Mode() nix.FileMode {
	return d.h.mode
}

func (d *Directory) usable() error {
	if d == nil || d.h == nil || d.h.closed {
		return nix.ErrUninitializedEntity
	}
	return nil
}

func (d *Directory) writable() error {
	err := d.usable()
	if err != nil {
		return err
	}
	if d.h.mode == nix.ReadOnly {
		return errors.Wrapf(nix.ErrReadOnly, "cannot modify %s", d.Path)
	}
	return nil
}

// ensure creates the directory (and any missing parents) on the first
// write below it.
func (d *Directory) ensure() (err error) {
	err = d.writable()
	if err != nil {
		return
	}
	return mkdir(d.Path)
}

func (d *Directory) Exists() bool {
	return canstat(d.Path)
}

// Sub returns a handle for the entry name below d without touching
// the disk.
func (d *Directory) Sub(name string) *Directory {
	return newDirectory(filepath.Join(d.Path, name), d.h)
}

// checkName rejects names that cannot be used as a single directory
// entry.  Entries starting with "." are reserved for staging.
func checkName(name string) error {
	err := nix.CheckEmpty(name, "name")
	if err != nil {
		return err
	}
	if strings.ContainsRune(name, os.PathSeparator) || strings.HasPrefix(name, ".") {
		return errors.Wrapf(nix.ErrInvalidArgument, "bad name %q", name)
	}
	return nil
}

// ObjectNames lists the sub-directories and links of d in lexical
// order.  A directory that does not exist yet is empty.
func (d *Directory) ObjectNames() (names []string, err error) {
	err = d.usable()
	if err != nil {
		return
	}
	infos, err := ioutil.ReadDir(d.Path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return
	}
	for _, info := range infos {
		name := info.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		if !info.IsDir() && info.Mode()&os.ModeSymlink == 0 {
			continue
		}
		names = append(names, name)
	}
	return
}

func (d *Directory) ObjectCount() (n int, err error) {
	names, err := d.ObjectNames()
	return len(names), err
}

// ObjectName returns the name at index in the ObjectNames order,
// which is stable only while nothing is written to d.
func (d *Directory) ObjectName(index int) (name string, err error) {
	names, err := d.ObjectNames()
	if err != nil {
		return
	}
	err = nix.CheckIndex(index, len(names))
	if err != nil {
		return
	}
	return names[index], nil
}

func (d *Directory) HasObject(name string) bool {
	if d.usable() != nil || checkName(name) != nil {
		return false
	}
	return islink(filepath.Join(d.Path, name))
}

// CreateDirectory makes the sub-directory name, creating d first if
// needed.
func (d *Directory) CreateDirectory(name string) (sub *Directory, err error) {
	err = checkName(name)
	if err != nil {
		return
	}
	err = d.ensure()
	if err != nil {
		return
	}
	sub = d.Sub(name)
	err = os.Mkdir(sub.Path, 0755)
	if err != nil {
		return nil, err
	}
	log.Debugf("created directory %s", sub.Path)
	return
}

// RemoveObject deletes the entry name and, for a directory, everything
// below it.  Links are removed, never followed.
func (d *Directory) RemoveObject(name string) (ok bool, err error) {
	err = d.writable()
	if err != nil {
		return
	}
	if !d.HasObject(name) {
		return false, nil
	}
	err = os.RemoveAll(filepath.Join(d.Path, name))
	if err != nil {
		return
	}
	log.Debugf("removed %s/%s", d.Path, name)
	return true, nil
}

// Rename moves entry from to entry to within d.  Staging names
// starting with "." are allowed here.
func (d *Directory) Rename(from, to string) (err error) {
	err = d.writable()
	if err != nil {
		return
	}
	return os.Rename(filepath.Join(d.Path, from), filepath.Join(d.Path, to))
}

// Link atomically points the entry name at target, replacing any
// existing link.  The link text is relative so the tree can be moved.
func (d *Directory) Link(name, target string) (err error) {
	err = checkName(name)
	if err != nil {
		return
	}
	err = d.ensure()
	if err != nil {
		return
	}
	rel, err := filepath.Rel(d.Path, target)
	if err != nil {
		return
	}
	linkabs := filepath.Join(d.Path, name)
	err = renameio.Symlink(rel, linkabs)
	if err != nil {
		return
	}
	log.Debugf("linked %s -> %s", linkabs, rel)
	return
}

// ReadLink returns the absolute path the link name points at, without
// checking that the target still exists.
func (d *Directory) ReadLink(name string) (target string, err error) {
	err = d.usable()
	if err != nil {
		return
	}
	linkabs := filepath.Join(d.Path, name)
	txt, err := os.Readlink(linkabs)
	if os.IsNotExist(err) {
		return "", errors.Wrapf(nix.ErrNotFound, "link %s", linkabs)
	}
	if err != nil {
		return
	}
	if !filepath.IsAbs(txt) {
		txt = filepath.Join(d.Path, txt)
	}
	return filepath.Clean(txt), nil
}

// FollowLink resolves the link name to a Directory.  A dangling link
// fails with ErrNotFound.
func (d *Directory) FollowLink(name string) (target *Directory, err error) {
	path, err := d.ReadLink(name)
	if err != nil {
		return
	}
	if !canstat(path) {
		return nil, errors.Wrapf(nix.ErrNotFound, "dangling link %s/%s", d.Path, name)
	}
	return newDirectory(path, d.h), nil
}

// linkIDKey names the attribute recording the entity id a single
// link was made to.
func linkIDKey(name string) string {
	return name + "_id"
}

// followID follows the link name and checks that its target still
// carries the entity id want.  Entity directories are keyed by name,
// so a link into a deleted entity can come to point at a new sibling
// of the same name; that is a stale link and fails with ErrNotFound.
func (d *Directory) followID(name, want string) (target *Directory, err error) {
	target, err = d.FollowLink(name)
	if err != nil {
		return
	}
	got, _, err := target.Attrs.GetString("entity_id")
	if err != nil {
		return nil, err
	}
	if got != want {
		return nil, errors.Wrapf(nix.ErrNotFound, "stale link %s/%s: want %s, have %q", d.Path, name, want, got)
	}
	return
}

// LinkEntity points the link name at the entity directory target and
// records the target's id in d's attributes.
func (d *Directory) LinkEntity(name string, target *Directory) (err error) {
	id, ok, err := target.Attrs.GetString("entity_id")
	if err != nil {
		return
	}
	if !ok {
		return &nix.MissingAttributeError{Attr: "entity_id", Dir: target.Path}
	}
	err = d.Link(name, target.Path)
	if err != nil {
		return
	}
	return d.Attrs.Set(linkIDKey(name), id)
}

// FollowEntity resolves a link made by LinkEntity, failing with
// ErrNotFound when the target is gone or is no longer the entity the
// link was made to.
func (d *Directory) FollowEntity(name string) (target *Directory, err error) {
	want, ok, err := d.Attrs.GetString(linkIDKey(name))
	if err != nil {
		return
	}
	if !ok {
		return nil, errors.Wrapf(nix.ErrNotFound, "no id recorded for link %s/%s", d.Path, name)
	}
	return d.followID(name, want)
}

// UnlinkEntity removes a link made by LinkEntity together with its
// recorded id.
func (d *Directory) UnlinkEntity(name string) (ok bool, err error) {
	ok, err = d.RemoveObject(name)
	if err != nil || !ok {
		return
	}
	return true, d.Attrs.Remove(linkIDKey(name))
}

// FindByAttribute returns the name of the first sub-directory whose
// attribute attr equals value.  An entry named value is checked first.
func (d *Directory) FindByAttribute(attr, value string) (name string, found bool, err error) {
	match := func(entry string) bool {
		got, ok, err := d.Sub(entry).Attrs.GetString(attr)
		return err == nil && ok && got == value
	}
	if d.HasObject(value) && match(value) {
		return value, true, nil
	}
	names, err := d.ObjectNames()
	if err != nil {
		return
	}
	for _, entry := range names {
		if match(entry) {
			return entry, true, nil
		}
	}
	return "", false, nil
}
