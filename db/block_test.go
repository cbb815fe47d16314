package db

import (
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
	nix "github.com/t7a/nixbase"
)

func TestBlocks(t *testing.T) {
	file := setup(t)
	b2 := mkblock(t, file, "b2")
	mkblock(t, file, "b1")

	_, err := file.CreateBlock("b1", "other")
	tassert(t, errors.Is(err, nix.ErrDuplicateName), "got %v", err)
	_, err = file.CreateBlock("", "x")
	tassert(t, errors.Is(err, nix.ErrEmptyString), "got %v", err)
	_, err = file.CreateBlock("b3", "")
	tassert(t, errors.Is(err, nix.ErrEmptyString), "got %v", err)

	n, err := file.BlockCount()
	tassert(t, err == nil && n == 2, "n %d err %v", n, err)

	// index order is name order
	b, err := file.GetBlockAt(0)
	tassert(t, err == nil, "%v", err)
	name, _ := b.Name()
	tassert(t, name == "b1", "got %q", name)
	_, err = file.GetBlockAt(2)
	tassert(t, errors.Is(err, nix.ErrOutOfBounds), "got %v", err)

	b, err = file.GetBlock(id(t, b2))
	tassert(t, err == nil, "%v", err)
	tassert(t, b.Location() == b2.Location(), "got %s", b.Location())
	typ, _ := b.Type()
	tassert(t, typ == "recording", "got %q", typ)

	_, err = file.GetBlock("nope")
	tassert(t, errors.Is(err, nix.ErrNotFound), "got %v", err)
	_, err = file.GetBlock(nix.CreateID())
	tassert(t, errors.Is(err, nix.ErrNotFound), "got %v", err)
	_, err = file.GetBlock("")
	tassert(t, errors.Is(err, nix.ErrEmptyString), "got %v", err)

	b2id := id(t, b2)
	ok, err := file.DeleteBlock("b2")
	tassert(t, err == nil && ok, "ok %v err %v", ok, err)
	ok, err = file.DeleteBlock("b2")
	tassert(t, err == nil && !ok, "ok %v err %v", ok, err)
	tassert(t, !file.HasBlock(b2id) && file.HasBlock("b1"), "wrong blocks left")
}

func TestIDLikeNames(t *testing.T) {
	file := setup(t)
	name := nix.CreateID()
	b := mkblock(t, file, name)
	// a name that parses as an id is only ever looked up as an id
	_, err := file.GetBlock(name)
	tassert(t, errors.Is(err, nix.ErrNotFound), "got %v", err)
	got, err := file.GetBlock(id(t, b))
	tassert(t, err == nil, "%v", err)
	gotName, _ := got.Name()
	tassert(t, gotName == name, "got %q", gotName)
}

func TestDefinition(t *testing.T) {
	file := setup(t)
	b := mkblock(t, file, "b1")
	def, err := b.Definition()
	tassert(t, err == nil && def == nil, "got %v %v", def, err)
	err = b.SetDefinition("")
	tassert(t, errors.Is(err, nix.ErrEmptyString), "got %v", err)
	err = b.SetDefinition("first session")
	tassert(t, err == nil, "%v", err)
	def, _ = b.Definition()
	tassert(t, def != nil && *def == "first session", "got %v", def)
	err = b.RemoveDefinition()
	tassert(t, err == nil, "%v", err)
	def, _ = b.Definition()
	tassert(t, def == nil, "got %v", def)
}

func TestSourceTree(t *testing.T) {
	file := setup(t)
	b := mkblock(t, file, "b1")
	s1, err := b.CreateSource("s1", "subject")
	tassert(t, err == nil, "%v", err)
	c1, err := s1.CreateSource("c1", "cell")
	tassert(t, err == nil, "%v", err)
	g1, err := c1.CreateSource("g1", "compartment")
	tassert(t, err == nil, "%v", err)
	_, err = b.CreateSource("s2", "subject")
	tassert(t, err == nil, "%v", err)

	found, err := b.FindSource("g1")
	tassert(t, err == nil && found.Location() == g1.Location(), "got %v %v", found, err)
	found, err = b.FindSource(id(t, c1))
	tassert(t, err == nil && found.Location() == c1.Location(), "got %v %v", found, err)
	tassert(t, !b.HasSource("c1"), "direct lookup should not descend")

	other := mkblock(t, file, "b2")
	_, err = other.FindSource("g1")
	tassert(t, errors.Is(err, nix.ErrNotFound), "got %v", err)

	gid := id(t, g1)
	ok, err := b.DeleteSource("s1")
	tassert(t, err == nil && ok, "ok %v err %v", ok, err)
	_, err = b.FindSource(gid)
	tassert(t, errors.Is(err, nix.ErrNotFound), "got %v", err)
	n, err := b.SourceCount()
	tassert(t, err == nil && n == 1, "n %d err %v", n, err)

	ok, err = b.DeleteSource("s1")
	tassert(t, err == nil && !ok, "ok %v err %v", ok, err)
}

func TestSourceReferences(t *testing.T) {
	file := setup(t)
	b := mkblock(t, file, "b1")
	da := mkarray(t, b, "v", nix.Double, 3)
	s1, err := b.CreateSource("s1", "subject")
	tassert(t, err == nil, "%v", err)
	c1, err := s1.CreateSource("c1", "cell")
	tassert(t, err == nil, "%v", err)
	s2, err := b.CreateSource("s2", "subject")
	tassert(t, err == nil, "%v", err)

	clock(t, t0)
	err = da.AddSource("c1")
	tassert(t, err == nil, "%v", err)
	err = da.AddSource(id(t, c1))
	tassert(t, err == nil, "%v", err)
	n, err := da.SourceCount()
	tassert(t, err == nil && n == 1, "adding twice: n %d err %v", n, err)
	tassert(t, da.HasSource("c1") && da.HasSource(id(t, c1)), "c1 not a member")

	src, err := da.GetSource("c1")
	tassert(t, err == nil && src.Location() == c1.Location(), "got %v %v", src, err)

	// sources of other blocks are out of scope
	b2 := mkblock(t, file, "b2")
	foreign, err := b2.CreateSource("f", "subject")
	tassert(t, err == nil, "%v", err)
	err = da.AddSource(id(t, foreign))
	tassert(t, errors.Is(err, nix.ErrNotFound), "got %v", err)

	ids := []string{id(t, s2), id(t, c1)}
	t1 := t0.Add(time.Minute)
	clock(t, t1)
	err = da.SetSources(ids)
	tassert(t, err == nil, "%v", err)
	got, err := da.SourceIDs()
	tassert(t, err == nil && len(got) == 2, "got %v %v", got, err)
	tassert(t, got[0] < got[1], "ids not sorted: %v", got)
	updated, _ := da.UpdatedAt()
	tassert(t, updated.Equal(t1), "got %v", updated)

	// same set again, in a different order: nothing changes
	clock(t, t1.Add(time.Minute))
	err = da.SetSources([]string{ids[1], ids[0]})
	tassert(t, err == nil, "%v", err)
	updated, _ = da.UpdatedAt()
	tassert(t, updated.Equal(t1), "SetSources stamped an unchanged list: %v", updated)

	// an invalid member leaves the list alone
	err = da.SetSources([]string{ids[0], "nope"})
	tassert(t, errors.Is(err, nix.ErrNotFound), "got %v", err)
	n, _ = da.SourceCount()
	tassert(t, n == 2, "n %d", n)

	// deleting the source leaves a dangling reference
	cid := id(t, c1)
	_, err = s1.DeleteSource("c1")
	tassert(t, err == nil, "%v", err)
	n, _ = da.SourceCount()
	tassert(t, n == 2, "dangling reference not counted: %d", n)
	_, err = da.GetSource(cid)
	tassert(t, errors.Is(err, nix.ErrNotFound), "got %v", err)
	tassert(t, !da.HasSource("c1"), "dangling reference matched by name")

	ok, err := da.RemoveSource(cid)
	tassert(t, err == nil && ok, "ok %v err %v", ok, err)
	ok, err = da.RemoveSource(cid)
	tassert(t, err == nil && !ok, "ok %v err %v", ok, err)

	err = da.SetSources(nil)
	tassert(t, err == nil, "%v", err)
	got, _ = da.SourceIDs()
	tassert(t, len(got) == 0, "got %v", got)
}

func TestMetadataLink(t *testing.T) {
	file := setup(t)
	b := mkblock(t, file, "b1")
	sec, err := file.CreateSection("s", "settings")
	tassert(t, err == nil, "%v", err)
	child, err := sec.CreateSection("c", "settings")
	tassert(t, err == nil, "%v", err)

	md, err := b.Metadata()
	tassert(t, err == nil && md == nil && !b.HasMetadata(), "got %v %v", md, err)

	err = b.SetMetadata("s")
	tassert(t, errors.Is(err, nix.ErrInvalidArgument), "got %v", err)
	err = b.SetMetadata(nix.CreateID())
	tassert(t, errors.Is(err, nix.ErrNotFound), "got %v", err)

	err = b.SetMetadata(id(t, child))
	tassert(t, err == nil, "%v", err)
	md, err = b.Metadata()
	tassert(t, err == nil && md.Location() == child.Location(), "got %v %v", md, err)

	err = b.RemoveMetadata()
	tassert(t, err == nil && !b.HasMetadata(), "%v", err)
}

func TestDataArrayPayload(t *testing.T) {
	file := setup(t)
	b := mkblock(t, file, "b1")
	da := mkarray(t, b, "v", nix.Int32, 2, 3)

	_, err := b.CreateDataArray("w", "signal", nix.Nothing, []int{1})
	tassert(t, errors.Is(err, nix.ErrInvalidArgument), "got %v", err)
	_, err = b.CreateDataArray("w", "signal", nix.Double, nil)
	tassert(t, errors.Is(err, nix.ErrInvalidArgument), "got %v", err)

	tassert(t, !da.HasData(), "fresh array has data")
	_, err = da.Data()
	tassert(t, errors.Is(err, nix.ErrNotFound), "got %v", err)

	err = da.WriteData([]float64{1, 2, 3, 4, 5, 6})
	tassert(t, errors.Is(err, nix.ErrInvalidArgument), "got %v", err)
	err = da.WriteData([]int32{1, 2, 3})
	tassert(t, errors.Is(err, nix.ErrIncompatibleDimensions), "got %v", err)
	err = da.WriteData([]int32{1, 2, 3, 4, 5, 6})
	tassert(t, err == nil, "%v", err)

	var out []int32
	err = da.ReadData(&out)
	tassert(t, err == nil && len(out) == 6 && out[5] == 6, "got %v %v", out, err)
	data, err := da.Data()
	tassert(t, err == nil, "%v", err)
	tassert(t, data.([]int32)[0] == 1, "got %v", data)

	err = da.SetDataExtent([]int{3, 2})
	tassert(t, err == nil, "%v", err)
	err = da.SetDataExtent([]int{4, 2})
	tassert(t, errors.Is(err, nix.ErrIncompatibleDimensions), "got %v", err)
	extent, _ := da.DataExtent()
	tassert(t, len(extent) == 2 && extent[0] == 3, "got %v", extent)

	err = da.SetPolynomCoefficients([]float64{0.5, 2})
	tassert(t, err == nil, "%v", err)
	pc, _ := da.PolynomCoefficients()
	tassert(t, len(pc) == 2 && pc[0] == 0.5, "got %v", pc)
	err = da.SetPolynomCoefficients(nil)
	tassert(t, err == nil, "%v", err)
	pc, _ = da.PolynomCoefficients()
	tassert(t, pc == nil, "got %v", pc)

	names := []string{}
	for _, dt := range []nix.DataType{nix.String, nix.UInt8} {
		arr := mkarray(t, b, "a"+dt.String(), dt, 2)
		names = append(names, "a"+dt.String())
		switch dt {
		case nix.String:
			err = arr.WriteData([]string{"x", "y"})
		case nix.UInt8:
			err = arr.WriteData([]uint8{7, 8})
		}
		tassert(t, err == nil, "%v: %v", dt, err)
		data, err := arr.Data()
		tassert(t, err == nil && data != nil, "%v: %v", dt, err)
	}
	n, _ := b.DataArrayCount()
	tassert(t, n == 3, "n %d (%s)", n, strings.Join(names, ","))
}
