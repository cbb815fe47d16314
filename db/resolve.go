package db

import (
	"path/filepath"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	nix "github.com/t7a/nixbase"
)

// resolver turns a name-or-id argument into a directory entry.  The
// string is classified once by isID and handed to exactly one of the
// two strategies; a strategy returns "" when nothing matches.
type resolver struct {
	isID   func(string) bool
	byID   func(id string) (entry string, err error)
	byName func(name string) (entry string, err error)
}

func (r resolver) resolve(nameOrID string) (entry string, err error) {
	err = nix.CheckEmpty(nameOrID, "name or id")
	if err != nil {
		return
	}
	lookup := r.byName
	if r.isID(nameOrID) {
		lookup = r.byID
	}
	entry, err = lookup(nameOrID)
	if err != nil {
		return
	}
	if entry == "" {
		return "", errors.Wrapf(nix.ErrNotFound, "%q", nameOrID)
	}
	return
}

// entityResolver addresses the entity directories of coll: ids via the
// entity_id attribute, names via the directory name confirmed by the
// name attribute.
func entityResolver(coll *Directory) resolver {
	return resolver{
		isID: nix.LooksLikeID,
		byID: func(id string) (entry string, err error) {
			entry, _, err = coll.FindByAttribute("entity_id", id)
			return
		},
		byName: func(name string) (entry string, err error) {
			if !coll.HasObject(name) {
				return
			}
			got, ok, err := coll.Sub(name).Attrs.GetString("name")
			if err != nil || !ok || got != name {
				return
			}
			return name, nil
		},
	}
}

// linkResolver addresses the links of a reference collection: ids are
// the link names, names are looked up on the link targets.  Dangling
// or stale links never match by name.
func linkResolver(coll *Directory) resolver {
	return resolver{
		isID: nix.LooksLikeID,
		byID: func(id string) (entry string, err error) {
			if coll.HasObject(id) {
				entry = id
			}
			return
		},
		byName: func(name string) (entry string, err error) {
			links, err := coll.ObjectNames()
			if err != nil {
				return
			}
			for _, link := range links {
				target, err := coll.followID(link, link)
				if err != nil {
					continue
				}
				got, ok, _ := target.Attrs.GetString("name")
				if ok && got == name {
					return link, nil
				}
			}
			return "", nil
		},
	}
}

// collection is an owned, name-keyed set of entity directories such as
// a block's data_arrays or a section's properties.
type collection struct {
	dir *Directory
	// owner is stamped after every create and remove.
	owner *Entity
}

func (c collection) touch() error {
	if c.owner == nil {
		return nil
	}
	return c.owner.ForceUpdatedAt()
}

func (c collection) count() (int, error) {
	return c.dir.ObjectCount()
}

func (c collection) find(nameOrID string) (dir *Directory, err error) {
	entry, err := entityResolver(c.dir).resolve(nameOrID)
	if err != nil {
		return
	}
	return c.dir.Sub(entry), nil
}

func (c collection) has(nameOrID string) bool {
	_, err := c.find(nameOrID)
	return err == nil
}

func (c collection) at(index int) (dir *Directory, err error) {
	name, err := c.dir.ObjectName(index)
	if err != nil {
		return
	}
	return c.dir.Sub(name), nil
}

// create makes a new entity directory named name holding attrs.  The
// name is the directory key, so a sibling with the same name fails
// with ErrDuplicateName.
func (c collection) create(name string, attrs map[string]interface{}) (dir *Directory, err error) {
	err = checkName(name)
	if err != nil {
		return
	}
	err = c.dir.writable()
	if err != nil {
		return
	}
	if c.dir.HasObject(name) {
		return nil, errors.Wrapf(nix.ErrDuplicateName, "%q in %s", name, c.dir.Path)
	}
	if _, ok := attrs["entity_id"]; !ok {
		attrs["entity_id"] = nix.CreateID()
	}
	stamp := formatTime(now())
	if _, ok := attrs["created_at"]; !ok {
		attrs["created_at"] = stamp
	}
	attrs["updated_at"] = stamp
	dir, err = c.dir.CreateDirectory(name)
	if err != nil {
		return
	}
	err = dir.Attrs.SetAll(attrs)
	if err != nil {
		c.discard(dir, err)
		return nil, err
	}
	return dir, c.touch()
}

// discard removes an entity directory whose construction failed with
// cause, so no half-built entity stays behind.
func (c collection) discard(dir *Directory, cause error) {
	log.Debugf("discarding %s: %v", dir.Path, cause)
	_, err := c.dir.RemoveObject(filepath.Base(dir.Path))
	if err != nil {
		log.Warnf("cannot remove %s: %v", dir.Path, err)
	}
}

// remove deletes one entity directory.  Missing entities report false;
// the read-only check comes first so a read-only file always refuses.
func (c collection) remove(nameOrID string) (ok bool, err error) {
	err = c.dir.writable()
	if err != nil {
		return
	}
	dir, err := c.find(nameOrID)
	if errors.Is(err, nix.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return
	}
	ok, err = c.dir.RemoveObject(filepath.Base(dir.Path))
	if err != nil || !ok {
		return
	}
	return true, c.touch()
}

// removeTree deletes entry from coll after first deleting, depth first,
// everything in its child collection sub.
func removeTree(coll *Directory, entry, sub string) (err error) {
	children := coll.Sub(entry).Sub(sub)
	names, err := children.ObjectNames()
	if err != nil {
		return
	}
	for _, name := range names {
		err = removeTree(children, name, sub)
		if err != nil {
			return
		}
	}
	_, err = coll.RemoveObject(entry)
	return
}
