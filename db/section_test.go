package db

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/pkg/errors"
	nix "github.com/t7a/nixbase"
)

func TestSectionTree(t *testing.T) {
	file := setup(t)
	root, err := file.CreateSection("session", "recording")
	tassert(t, err == nil, "%v", err)
	child, err := root.CreateSection("amp", "hardware")
	tassert(t, err == nil, "%v", err)
	grand, err := child.CreateSection("channel", "hardware")
	tassert(t, err == nil, "%v", err)
	_, err = file.CreateSection("subject", "animal")
	tassert(t, err == nil, "%v", err)
	_, err = root.CreateSection("amp", "hardware")
	tassert(t, errors.Is(err, nix.ErrDuplicateName), "got %v", err)

	found, err := file.FindSection(id(t, grand))
	tassert(t, err == nil && found.Location() == grand.Location(), "got %v %v", found, err)
	_, err = file.FindSection(nix.CreateID())
	tassert(t, errors.Is(err, nix.ErrNotFound), "got %v", err)

	all, err := file.FindSections(nil, -1)
	tassert(t, err == nil && len(all) == 4, "got %d %v", len(all), err)
	roots, err := file.FindSections(nil, 0)
	tassert(t, err == nil && len(roots) == 2, "got %d %v", len(roots), err)
	hw, err := file.FindSections(func(s nix.ISection) bool {
		typ, _ := s.Type()
		return typ == "hardware"
	}, -1)
	tassert(t, err == nil && len(hw) == 2, "got %d %v", len(hw), err)

	parent, err := grand.Parent()
	tassert(t, err == nil && parent.Location() == child.Location(), "got %v %v", parent, err)
	parent, err = root.Parent()
	tassert(t, err == nil && parent == nil, "got %v %v", parent, err)

	gid := id(t, grand)
	ok, err := file.DeleteSection("session")
	tassert(t, err == nil && ok, "ok %v err %v", ok, err)
	_, err = file.FindSection(gid)
	tassert(t, errors.Is(err, nix.ErrNotFound), "got %v", err)
	n, _ := file.SectionCount()
	tassert(t, n == 1, "n %d", n)
}

func TestSectionLink(t *testing.T) {
	file := setup(t)
	s1, err := file.CreateSection("s1", "settings")
	tassert(t, err == nil, "%v", err)
	s2, err := file.CreateSection("s2", "settings")
	tassert(t, err == nil, "%v", err)

	link, err := s1.Link()
	tassert(t, err == nil && link == nil, "got %v %v", link, err)

	err = s1.SetLink(id(t, s1))
	tassert(t, errors.Is(err, nix.ErrInvalidArgument), "got %v", err)
	err = s1.SetLink("s2")
	tassert(t, errors.Is(err, nix.ErrInvalidArgument), "got %v", err)
	err = s1.SetLink("")
	tassert(t, errors.Is(err, nix.ErrEmptyString), "got %v", err)
	err = s1.SetLink(nix.CreateID())
	tassert(t, errors.Is(err, nix.ErrNotFound), "got %v", err)

	err = s1.SetLink(id(t, s2))
	tassert(t, err == nil, "%v", err)
	link, err = s1.Link()
	tassert(t, err == nil && link.Location() == s2.Location(), "got %v %v", link, err)

	_, err = s1.CreatePropertyWithValue("gain", nix.MustValue(1))
	tassert(t, err == nil, "%v", err)
	_, err = s2.CreatePropertyWithValue("gain", nix.MustValue(2))
	tassert(t, err == nil, "%v", err)
	_, err = s2.CreatePropertyWithValue("rate", nix.MustValue(20000.0))
	tassert(t, err == nil, "%v", err)

	props, err := s1.InheritedProperties()
	tassert(t, err == nil && len(props) == 2, "got %d %v", len(props), err)
	for _, p := range props {
		name, _ := p.Name()
		values, err := p.Values()
		tassert(t, err == nil && len(values) == 1, "%s: %v %v", name, values, err)
		switch name {
		case "gain":
			tassert(t, values[0].Int == 1, "local gain shadowed: %v", values[0])
		case "rate":
			tassert(t, values[0].Float == 20000, "got %v", values[0])
		default:
			t.Fatalf("unexpected property %q", name)
		}
	}

	p, err := s1.GetPropertyByName("rate")
	tassert(t, err == nil, "%v", err)
	tassert(t, filepathHas(p.Location(), s2.Location()), "got %s", p.Location())
	p, err = s1.GetPropertyByName("gain")
	tassert(t, err == nil && filepathHas(p.Location(), s1.Location()), "got %v %v", p, err)
	_, err = s1.GetPropertyByName("nope")
	tassert(t, errors.Is(err, nix.ErrNotFound), "got %v", err)

	// the link goes stale when its target is deleted
	_, err = file.DeleteSection("s2")
	tassert(t, err == nil, "%v", err)
	_, err = s1.Link()
	tassert(t, errors.Is(err, nix.ErrNotFound), "got %v", err)
	props, err = s1.InheritedProperties()
	tassert(t, errors.Is(err, nix.ErrNotFound) && props == nil, "got %d %v", len(props), err)
	err = s1.RemoveLink()
	tassert(t, err == nil, "%v", err)
	props, err = s1.InheritedProperties()
	tassert(t, err == nil && len(props) == 1, "got %d %v", len(props), err)
}

func filepathHas(path, dir string) bool {
	return strings.HasPrefix(path, dir+string(filepath.Separator))
}

func TestProperties(t *testing.T) {
	file := setup(t)
	sec, err := file.CreateSection("s", "settings")
	tassert(t, err == nil, "%v", err)

	p, err := sec.CreateProperty("volt", nix.Double)
	tassert(t, err == nil, "%v", err)
	_, err = sec.CreateProperty("volt", nix.Int64)
	tassert(t, errors.Is(err, nix.ErrDuplicateName), "got %v", err)
	dt, err := p.DataType()
	tassert(t, err == nil && dt == nix.Double, "got %v %v", dt, err)

	n, err := p.ValueCount()
	tassert(t, err == nil && n == 0, "n %d err %v", n, err)

	// mixed values never create the property
	mixed := []nix.Value{nix.MustValue(1.5), nix.MustValue("x")}
	_, err = sec.CreatePropertyWithValues("mixed", mixed)
	tassert(t, errors.Is(err, nix.ErrInvalidArgument), "got %v", err)
	tassert(t, !sec.HasProperty("mixed"), "mixed property created")
	_, err = sec.CreatePropertyWithValues("none", nil)
	tassert(t, errors.Is(err, nix.ErrInvalidArgument), "got %v", err)

	err = p.SetValues([]nix.Value{nix.MustValue("x")})
	tassert(t, errors.Is(err, nix.ErrInvalidArgument), "got %v", err)

	err = p.SetUnit("mV")
	tassert(t, err == nil, "%v", err)
	want := []nix.Value{nix.MustValue(1.5), nix.MustValue(-2.25)}
	want[1].Uncertainty = 0.1
	err = p.SetValues(want)
	tassert(t, err == nil, "%v", err)
	got, err := p.Values()
	tassert(t, err == nil && len(got) == 2, "got %v %v", got, err)
	for i := range want {
		tassert(t, got[i].Equal(want[i]), "value %d: want %v got %v", i, want[i], got[i])
	}

	// the unit is locked while values exist
	err = p.SetUnit("V")
	tassert(t, errors.Is(err, nix.ErrIllegalState), "got %v", err)
	err = p.SetUnit("mV")
	tassert(t, err == nil, "%v", err)
	err = p.RemoveUnit()
	tassert(t, errors.Is(err, nix.ErrIllegalState), "got %v", err)

	err = p.DeleteValues()
	tassert(t, err == nil, "%v", err)
	err = p.SetUnit("V")
	tassert(t, err == nil, "%v", err)
	unit, _ := p.Unit()
	tassert(t, unit != nil && *unit == "V", "got %v", unit)

	err = p.SetUncertainty(0.5)
	tassert(t, err == nil, "%v", err)
	u, _ := p.Uncertainty()
	tassert(t, u != nil && *u == 0.5, "got %v", u)

	pid := id(t, p)
	got2, err := sec.GetProperty(pid)
	tassert(t, err == nil && got2.Location() == p.Location(), "got %v %v", got2, err)
	ok, err := sec.DeleteProperty("volt")
	tassert(t, err == nil && ok, "ok %v err %v", ok, err)
	tassert(t, !sec.HasProperty(pid), "property still there")
}

func TestSectionAttributes(t *testing.T) {
	file := setup(t)
	sec, err := file.CreateSection("s", "settings")
	tassert(t, err == nil, "%v", err)
	err = sec.SetRepository("http://example.org/terms.xml")
	tassert(t, err == nil, "%v", err)
	repo, _ := sec.Repository()
	tassert(t, repo != nil && *repo == "http://example.org/terms.xml", "got %v", repo)
	err = sec.SetMapping("")
	tassert(t, errors.Is(err, nix.ErrEmptyString), "got %v", err)
	err = sec.RemoveRepository()
	tassert(t, err == nil, "%v", err)
	repo, _ = sec.Repository()
	tassert(t, repo == nil, "got %v", repo)
}
