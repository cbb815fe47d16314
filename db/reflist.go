package db

import (
	"sort"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	nix "github.com/t7a/nixbase"
)

// refList is a duplicate-free set of foreign ids stored as a directory
// of links, each named by the id of the entity it points at.  Ids come
// back in lexical order.
type refList struct {
	owner *Entity
	coll  *Directory
	// target locates an entity that may be referenced; anything
	// outside its scope is ErrNotFound.
	target func(nameOrID string) (*Directory, error)
}

func (r *refList) Count() (int, error) {
	return r.coll.ObjectCount()
}

func (r *refList) IDs() ([]string, error) {
	return r.coll.ObjectNames()
}

// Has reports whether nameOrID is a member whose target still exists.
func (r *refList) Has(nameOrID string) bool {
	_, err := r.Get(nameOrID)
	return err == nil
}

// Get follows the link for nameOrID.  A link whose target has been
// deleted, or replaced by another entity of the same name, fails with
// ErrNotFound.
func (r *refList) Get(nameOrID string) (dir *Directory, err error) {
	link, err := linkResolver(r.coll).resolve(nameOrID)
	if err != nil {
		return
	}
	return r.coll.followID(link, link)
}

func (r *refList) At(index int) (dir *Directory, err error) {
	link, err := r.coll.ObjectName(index)
	if err != nil {
		return
	}
	return r.coll.followID(link, link)
}

func (r *refList) lookup(nameOrID string) (id string, dir *Directory, err error) {
	dir, err = r.target(nameOrID)
	if err != nil {
		return
	}
	id, ok, err := dir.Attrs.GetString("entity_id")
	if err != nil {
		return
	}
	if !ok {
		return "", nil, &nix.MissingAttributeError{Attr: "entity_id", Dir: dir.Path}
	}
	return
}

// Add links nameOrID.  Adding a member twice is a no-op.
func (r *refList) Add(nameOrID string) (err error) {
	err = r.coll.writable()
	if err != nil {
		return
	}
	id, dir, err := r.lookup(nameOrID)
	if err != nil {
		return
	}
	if r.coll.HasObject(id) {
		return
	}
	err = r.coll.Link(id, dir.Path)
	if err != nil {
		return
	}
	return r.owner.ForceUpdatedAt()
}

func (r *refList) Remove(nameOrID string) (ok bool, err error) {
	err = r.coll.writable()
	if err != nil {
		return
	}
	link, err := linkResolver(r.coll).resolve(nameOrID)
	if errors.Is(err, nix.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return
	}
	ok, err = r.coll.RemoveObject(link)
	if err != nil || !ok {
		return
	}
	return true, r.owner.ForceUpdatedAt()
}

// Set replaces the members with ids.  Every target is checked before
// anything changes; then only dropped ids are unlinked and only new
// ids linked, and the owner is stamped only if something changed.
func (r *refList) Set(ids []string) (err error) {
	err = r.coll.writable()
	if err != nil {
		return
	}
	want := make(map[string]*Directory)
	for _, nameOrID := range ids {
		id, dir, err := r.lookup(nameOrID)
		if err != nil {
			return err
		}
		want[id] = dir
	}
	have, err := r.IDs()
	if err != nil {
		return
	}
	changed := false
	for _, id := range have {
		if _, keep := want[id]; keep {
			continue
		}
		_, err = r.coll.RemoveObject(id)
		if err != nil {
			return
		}
		changed = true
	}
	var add []string
	for id := range want {
		if !r.coll.HasObject(id) {
			add = append(add, id)
		}
	}
	sort.Strings(add)
	for _, id := range add {
		err = r.coll.Link(id, want[id].Path)
		if err != nil {
			return
		}
		changed = true
	}
	if !changed {
		return
	}
	log.Debugf("set %d links in %s", len(want), r.coll.Path)
	return r.owner.ForceUpdatedAt()
}
