package db

import (
	"time"

	"github.com/pkg/errors"
	nix "github.com/t7a/nixbase"
)

// Entity is the id and timestamp layer shared by every stored object.
type Entity struct {
	file *File
	dir  *Directory
}

func (e *Entity) Location() string {
	return e.dir.Path
}

func (e *Entity) missing(attr string) error {
	return &nix.MissingAttributeError{Attr: attr, Dir: e.dir.Path}
}

// requireString reads an attribute every well-formed entity carries.
func (e *Entity) requireString(attr string) (s string, err error) {
	s, ok, err := e.dir.Attrs.GetString(attr)
	if err != nil {
		return
	}
	if !ok {
		return "", e.missing(attr)
	}
	return
}

func (e *Entity) ID() (string, error) {
	return e.requireString("entity_id")
}

func (e *Entity) requireTime(attr string) (t time.Time, err error) {
	t, ok, err := e.dir.Attrs.GetTime(attr)
	if err != nil {
		return
	}
	if !ok {
		return t, e.missing(attr)
	}
	return
}

func (e *Entity) CreatedAt() (time.Time, error) {
	return e.requireTime("created_at")
}

func (e *Entity) UpdatedAt() (time.Time, error) {
	return e.requireTime("updated_at")
}

// SetUpdatedAt records the current time only if no update time is
// recorded yet.
func (e *Entity) SetUpdatedAt() error {
	err := e.dir.writable()
	if err != nil {
		return err
	}
	if e.dir.Attrs.Has("updated_at") {
		return nil
	}
	return e.dir.Attrs.SetTime("updated_at", now())
}

func (e *Entity) ForceUpdatedAt() error {
	return e.dir.Attrs.SetTime("updated_at", now())
}

func (e *Entity) ForceCreatedAt(t time.Time) error {
	return e.dir.Attrs.SetTime("created_at", t)
}

// write stores kv and drops the keys in remove, stamping updated_at in
// the same replace.  Every mutator ends here.
func (e *Entity) write(kv map[string]interface{}, remove ...string) error {
	stamp := formatTime(now())
	return e.dir.Attrs.update(func(m map[string]interface{}) {
		for k, v := range kv {
			m[k] = v
		}
		for _, k := range remove {
			delete(m, k)
		}
		m["updated_at"] = stamp
	})
}

func (e *Entity) optString(attr string) (p *string, err error) {
	s, ok, err := e.dir.Attrs.GetString(attr)
	if err != nil || !ok {
		return
	}
	return &s, nil
}

func (e *Entity) setString(attr, val string) error {
	err := nix.CheckEmpty(val, attr)
	if err != nil {
		return err
	}
	return e.write(map[string]interface{}{attr: val})
}

func (e *Entity) optDouble(attr string) (p *float64, err error) {
	f, ok, err := e.dir.Attrs.GetDouble(attr)
	if err != nil || !ok {
		return
	}
	return &f, nil
}

func (e *Entity) optDoubles(attr string) (fs []float64, err error) {
	fs, _, err = e.dir.Attrs.GetDoubles(attr)
	return
}

func (e *Entity) optStrings(attr string) (ss []string, err error) {
	ss, _, err = e.dir.Attrs.GetStrings(attr)
	return
}

func (e *Entity) remove(attr string) error {
	return e.write(nil, attr)
}

// NamedEntity adds name, type and an optional definition.
type NamedEntity struct {
	Entity
}

func (e *NamedEntity) Name() (string, error) {
	return e.requireString("name")
}

func (e *NamedEntity) Type() (string, error) {
	return e.requireString("type")
}

func (e *NamedEntity) SetType(typ string) error {
	return e.setString("type", typ)
}

func (e *NamedEntity) Definition() (*string, error) {
	return e.optString("definition")
}

func (e *NamedEntity) SetDefinition(def string) error {
	return e.setString("definition", def)
}

func (e *NamedEntity) RemoveDefinition() error {
	return e.remove("definition")
}

// namedAttrs validates name and type and returns the attribute set a
// new named entity starts with.
func namedAttrs(name, typ string) (attrs map[string]interface{}, err error) {
	err = nix.CheckEmpty(name, "name")
	if err != nil {
		return
	}
	err = nix.CheckEmpty(typ, "type")
	if err != nil {
		return
	}
	return map[string]interface{}{"name": name, "type": typ}, nil
}

const metadataLink = "metadata"

// EntityWithMetadata adds a single optional link to a section
// anywhere in the file's metadata tree.
type EntityWithMetadata struct {
	NamedEntity
}

func (e *EntityWithMetadata) HasMetadata() bool {
	return e.dir.HasObject(metadataLink)
}

func (e *EntityWithMetadata) Metadata() (sec nix.ISection, err error) {
	if !e.HasMetadata() {
		return nil, nil
	}
	dir, err := e.dir.FollowEntity(metadataLink)
	if err != nil {
		return
	}
	return openSection(e.file, dir), nil
}

func (e *EntityWithMetadata) SetMetadata(sectionID string) (err error) {
	err = e.dir.writable()
	if err != nil {
		return
	}
	if !nix.LooksLikeID(sectionID) {
		return errors.Wrapf(nix.ErrInvalidArgument, "not a section id: %q", sectionID)
	}
	sec, err := e.file.findSection(sectionID)
	if err != nil {
		return
	}
	err = e.dir.LinkEntity(metadataLink, sec.dir)
	if err != nil {
		return
	}
	return e.ForceUpdatedAt()
}

func (e *EntityWithMetadata) RemoveMetadata() (err error) {
	ok, err := e.dir.UnlinkEntity(metadataLink)
	if err != nil || !ok {
		return
	}
	return e.ForceUpdatedAt()
}

// EntityWithSources records membership in the owning block's source
// tree.  The sources are referenced, never owned.
type EntityWithSources struct {
	EntityWithMetadata
	block *Block
}

func (e *EntityWithSources) sources() *refList {
	return &refList{
		owner:  &e.Entity,
		coll:   e.dir.Sub("sources"),
		target: e.block.findSourceDir,
	}
}

func (e *EntityWithSources) SourceCount() (int, error) {
	return e.sources().Count()
}

func (e *EntityWithSources) HasSource(nameOrID string) bool {
	return e.sources().Has(nameOrID)
}

func (e *EntityWithSources) GetSource(nameOrID string) (src nix.ISource, err error) {
	dir, err := e.sources().Get(nameOrID)
	if err != nil {
		return
	}
	return openSource(e.file, dir), nil
}

func (e *EntityWithSources) GetSourceAt(index int) (src nix.ISource, err error) {
	dir, err := e.sources().At(index)
	if err != nil {
		return
	}
	return openSource(e.file, dir), nil
}

func (e *EntityWithSources) SourceIDs() ([]string, error) {
	return e.sources().IDs()
}

func (e *EntityWithSources) AddSource(nameOrID string) error {
	return e.sources().Add(nameOrID)
}

func (e *EntityWithSources) RemoveSource(nameOrID string) (bool, error) {
	return e.sources().Remove(nameOrID)
}

func (e *EntityWithSources) SetSources(ids []string) error {
	return e.sources().Set(ids)
}
