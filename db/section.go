package db

import (
	"path/filepath"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	nix "github.com/t7a/nixbase"
)

// Section is a node of the metadata tree.  It owns child sections and
// properties, and may link to one other section whose properties it
// inherits.  The link is an id attribute resolved by search on every
// use, never a filesystem link.
type Section struct {
	NamedEntity
}

var _ nix.ISection = (*Section)(nil)

func openSection(file *File, dir *Directory) *Section {
	s := &Section{}
	s.file = file
	s.dir = dir
	return s
}

func (s *Section) children() collection {
	return collection{s.dir.Sub("sections"), &s.Entity}
}

func (s *Section) properties() collection {
	return collection{s.dir.Sub("properties"), &s.Entity}
}

func (s *Section) Repository() (*string, error) {
	return s.optString("repository")
}

func (s *Section) SetRepository(repo string) error {
	return s.setString("repository", repo)
}

func (s *Section) RemoveRepository() error {
	return s.remove("repository")
}

func (s *Section) Mapping() (*string, error) {
	return s.optString("mapping")
}

func (s *Section) SetMapping(mapping string) error {
	return s.setString("mapping", mapping)
}

func (s *Section) RemoveMapping() error {
	return s.remove("mapping")
}

// Link returns the linked section.  A link to a section that has
// since been deleted fails with ErrNotFound.
func (s *Section) Link() (link nix.ISection, err error) {
	id, ok, err := s.dir.Attrs.GetString("link")
	if err != nil || !ok {
		return
	}
	sec, err := s.file.findSection(id)
	if err != nil {
		return nil, errors.Wrapf(err, "link of %s", s.dir.Path)
	}
	return sec, nil
}

// SetLink records the section with sectionID as the one to inherit
// from.  It must exist in the same file and must not be s itself.
func (s *Section) SetLink(sectionID string) (err error) {
	err = s.dir.writable()
	if err != nil {
		return
	}
	err = nix.CheckEmpty(sectionID, "section id")
	if err != nil {
		return
	}
	if !nix.LooksLikeID(sectionID) {
		return errors.Wrapf(nix.ErrInvalidArgument, "not a section id: %q", sectionID)
	}
	own, err := s.ID()
	if err != nil {
		return
	}
	if own == sectionID {
		return errors.Wrap(nix.ErrInvalidArgument, "section cannot link to itself")
	}
	_, err = s.file.findSection(sectionID)
	if err != nil {
		return
	}
	return s.write(map[string]interface{}{"link": sectionID})
}

func (s *Section) RemoveLink() error {
	return s.remove("link")
}

// Parent returns the section physically containing s, or nil for a
// root section.
func (s *Section) Parent() (parent nix.ISection, err error) {
	coll := filepath.Dir(s.dir.Path)
	if filepath.Base(coll) != "sections" {
		return nil, nil
	}
	return openSection(s.file, newDirectory(filepath.Dir(coll), s.dir.h)), nil
}

func (s *Section) SectionCount() (int, error) {
	return s.children().count()
}

func (s *Section) HasSection(nameOrID string) bool {
	return s.children().has(nameOrID)
}

func (s *Section) GetSection(nameOrID string) (sec nix.ISection, err error) {
	dir, err := s.children().find(nameOrID)
	if err != nil {
		return
	}
	return openSection(s.file, dir), nil
}

func (s *Section) GetSectionAt(index int) (sec nix.ISection, err error) {
	dir, err := s.children().at(index)
	if err != nil {
		return
	}
	return openSection(s.file, dir), nil
}

func (s *Section) CreateSection(name, typ string) (nix.ISection, error) {
	return createSection(s.file, s.children(), name, typ)
}

func (s *Section) DeleteSection(nameOrID string) (bool, error) {
	return deleteSection(s.children(), nameOrID)
}

func createSection(file *File, coll collection, name, typ string) (sec nix.ISection, err error) {
	attrs, err := namedAttrs(name, typ)
	if err != nil {
		return
	}
	dir, err := coll.create(name, attrs)
	if err != nil {
		return
	}
	log.Debugf("created section %s", dir.Path)
	return openSection(file, dir), nil
}

// deleteSection removes child sections depth first, then the section
// itself.  Links and metadata references pointing at any of them are
// not cleaned up.
func deleteSection(coll collection, nameOrID string) (ok bool, err error) {
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
	err = removeTree(coll.dir, filepath.Base(dir.Path), "sections")
	if err != nil {
		return
	}
	return true, coll.touch()
}

func (s *Section) PropertyCount() (int, error) {
	return s.properties().count()
}

func (s *Section) HasProperty(nameOrID string) bool {
	return s.properties().has(nameOrID)
}

func (s *Section) getProperty(nameOrID string) (p *Property, err error) {
	dir, err := s.properties().find(nameOrID)
	if err != nil {
		return
	}
	return openProperty(dir, s.file), nil
}

func (s *Section) GetProperty(nameOrID string) (nix.IProperty, error) {
	p, err := s.getProperty(nameOrID)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Section) GetPropertyAt(index int) (p nix.IProperty, err error) {
	dir, err := s.properties().at(index)
	if err != nil {
		return
	}
	return openProperty(dir, s.file), nil
}

func (s *Section) ownProperties() (props []nix.IProperty, err error) {
	n, err := s.PropertyCount()
	if err != nil {
		return
	}
	for i := 0; i < n; i++ {
		p, err := s.GetPropertyAt(i)
		if err != nil {
			return nil, err
		}
		props = append(props, p)
	}
	return
}

// InheritedProperties returns the section's own properties followed by
// those of the linked section whose names are not defined locally.  A
// stale link fails the whole call.
func (s *Section) InheritedProperties() (props []nix.IProperty, err error) {
	props, err = s.ownProperties()
	if err != nil {
		return
	}
	link, err := s.Link()
	if err != nil {
		return nil, err
	}
	if link == nil {
		return
	}
	local := make(map[string]bool)
	for _, p := range props {
		name, err := p.Name()
		if err != nil {
			return nil, err
		}
		local[name] = true
	}
	n, err := link.PropertyCount()
	if err != nil {
		return nil, err
	}
	for i := 0; i < n; i++ {
		p, err := link.GetPropertyAt(i)
		if err != nil {
			return nil, err
		}
		name, err := p.Name()
		if err != nil {
			return nil, err
		}
		if !local[name] {
			props = append(props, p)
		}
	}
	return
}

// GetPropertyByName looks name up among the section's own properties,
// then among those of the linked section.
func (s *Section) GetPropertyByName(name string) (p nix.IProperty, err error) {
	err = nix.CheckEmpty(name, "property name")
	if err != nil {
		return
	}
	own := s.properties().dir
	if own.HasObject(name) {
		return openProperty(own.Sub(name), s.file), nil
	}
	link, err := s.Link()
	if err != nil {
		return
	}
	if link != nil {
		linked := link.(*Section).properties().dir
		if linked.HasObject(name) {
			return openProperty(linked.Sub(name), s.file), nil
		}
	}
	return nil, errors.Wrapf(nix.ErrNotFound, "property %q", name)
}

// CreateProperty adds an empty property.  Property names are unique
// within a section.
func (s *Section) CreateProperty(name string, dtype nix.DataType) (p nix.IProperty, err error) {
	prop, err := s.createProperty(name, dtype)
	if err != nil {
		return
	}
	return prop, nil
}

func (s *Section) createProperty(name string, dtype nix.DataType) (p *Property, err error) {
	err = nix.CheckEmpty(name, "property name")
	if err != nil {
		return
	}
	attrs := map[string]interface{}{
		"name":      name,
		"data_type": dtype.String(),
	}
	dir, err := s.properties().create(name, attrs)
	if err != nil {
		return
	}
	log.Debugf("created property %s %v", dir.Path, dtype)
	return openProperty(dir, s.file), nil
}

func (s *Section) CreatePropertyWithValue(name string, value nix.Value) (nix.IProperty, error) {
	return s.CreatePropertyWithValues(name, []nix.Value{value})
}

// CreatePropertyWithValues takes the property's data type from the
// values, which must all share it.
func (s *Section) CreatePropertyWithValues(name string, values []nix.Value) (p nix.IProperty, err error) {
	if len(values) == 0 {
		return nil, errors.Wrap(nix.ErrInvalidArgument, "no values")
	}
	dtype := values[0].Type
	err = checkValues(values, dtype)
	if err != nil {
		return
	}
	prop, err := s.createProperty(name, dtype)
	if err != nil {
		return
	}
	err = prop.SetValues(values)
	if err != nil {
		return
	}
	return prop, nil
}

func (s *Section) DeleteProperty(nameOrID string) (bool, error) {
	return s.properties().remove(nameOrID)
}
