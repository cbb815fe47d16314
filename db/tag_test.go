package db

import (
	"testing"

	"github.com/pkg/errors"
	nix "github.com/t7a/nixbase"
)

func TestTag(t *testing.T) {
	file := setup(t)
	b := mkblock(t, file, "b1")
	v := mkarray(t, b, "v", nix.Double, 100)
	w := mkarray(t, b, "w", nix.Double, 100)

	_, err := b.CreateTag("stim", "event", nil)
	tassert(t, errors.Is(err, nix.ErrInvalidArgument), "got %v", err)
	tag, err := b.CreateTag("stim", "event", []float64{1.5})
	tassert(t, err == nil, "%v", err)
	_, err = b.CreateTag("stim", "event", []float64{2})
	tassert(t, errors.Is(err, nix.ErrDuplicateName), "got %v", err)

	pos, err := tag.Position()
	tassert(t, err == nil && len(pos) == 1 && pos[0] == 1.5, "got %v %v", pos, err)
	extent, err := tag.Extent()
	tassert(t, err == nil && extent == nil, "got %v %v", extent, err)

	err = tag.SetExtent([]float64{1, 2})
	tassert(t, errors.Is(err, nix.ErrIncompatibleDimensions), "got %v", err)
	err = tag.SetExtent([]float64{0.5})
	tassert(t, err == nil, "%v", err)
	err = tag.SetPosition([]float64{1, 2})
	tassert(t, errors.Is(err, nix.ErrIncompatibleDimensions), "got %v", err)
	err = tag.RemoveExtent()
	tassert(t, err == nil, "%v", err)
	err = tag.SetPosition([]float64{1, 2})
	tassert(t, err == nil, "%v", err)

	err = tag.SetUnits([]string{"ms", ""})
	tassert(t, errors.Is(err, nix.ErrEmptyString), "got %v", err)
	err = tag.SetUnits([]string{"ms", "mV"})
	tassert(t, err == nil, "%v", err)
	units, _ := tag.Units()
	tassert(t, len(units) == 2 && units[1] == "mV", "got %v", units)

	// references
	err = tag.AddReference("v")
	tassert(t, err == nil, "%v", err)
	err = tag.AddReference("v")
	tassert(t, err == nil, "%v", err)
	err = tag.AddReference(id(t, w))
	tassert(t, err == nil, "%v", err)
	err = tag.AddReference("nope")
	tassert(t, errors.Is(err, nix.ErrNotFound), "got %v", err)
	n, err := tag.ReferenceCount()
	tassert(t, err == nil && n == 2, "n %d err %v", n, err)
	ref, err := tag.GetReference("w")
	tassert(t, err == nil && ref.Location() == w.Location(), "got %v %v", ref, err)

	// a reference to a deleted array dangles
	vid := id(t, v)
	_, err = b.DeleteDataArray("v")
	tassert(t, err == nil, "%v", err)
	n, _ = tag.ReferenceCount()
	tassert(t, n == 2, "n %d", n)
	_, err = tag.GetReference(vid)
	tassert(t, errors.Is(err, nix.ErrNotFound), "got %v", err)
	ok, err := tag.RemoveReference(vid)
	tassert(t, err == nil && ok, "ok %v err %v", ok, err)
	ids, _ := tag.ReferenceIDs()
	tassert(t, len(ids) == 1 && ids[0] == id(t, w), "got %v", ids)

	// references stay inside the block
	other := mkblock(t, file, "b2")
	x := mkarray(t, other, "x", nix.Double, 1)
	err = tag.SetReferences([]string{id(t, x)})
	tassert(t, errors.Is(err, nix.ErrNotFound), "got %v", err)
}

func TestFeatures(t *testing.T) {
	file := setup(t)
	b := mkblock(t, file, "b1")
	resp := mkarray(t, b, "response", nix.Double, 10)
	mkarray(t, b, "stimulus", nix.Double, 10)
	tag, err := b.CreateTag("stim", "event", []float64{0})
	tassert(t, err == nil, "%v", err)

	_, err = tag.CreateFeature("response", nix.Indexed)
	tassert(t, errors.Is(err, nix.ErrInvalidArgument), "got %v", err)
	_, err = tag.CreateFeature("nope", nix.Tagged)
	tassert(t, errors.Is(err, nix.ErrNotFound), "got %v", err)

	f, err := tag.CreateFeature("response", nix.Tagged)
	tassert(t, err == nil, "%v", err)
	lt, err := f.LinkType()
	tassert(t, err == nil && lt == nix.Tagged, "got %v %v", lt, err)
	err = f.SetLinkType(nix.Indexed)
	tassert(t, errors.Is(err, nix.ErrInvalidArgument), "got %v", err)
	err = f.SetLinkType(nix.Untagged)
	tassert(t, err == nil, "%v", err)

	data, err := f.Data()
	tassert(t, err == nil && data.Location() == resp.Location(), "got %v %v", data, err)

	// lookup by feature id, array id or array name
	fid := id(t, f)
	for _, key := range []string{fid, id(t, resp), "response"} {
		got, err := tag.GetFeature(key)
		tassert(t, err == nil && got.Location() == f.Location(), "%q: got %v %v", key, got, err)
	}
	_, err = tag.GetFeature("stimulus")
	tassert(t, errors.Is(err, nix.ErrNotFound), "got %v", err)

	err = f.SetData("stimulus")
	tassert(t, err == nil, "%v", err)
	tassert(t, tag.HasFeature("stimulus") && !tag.HasFeature("response"), "relink failed")

	// the target is checked on every read
	_, err = b.DeleteDataArray("stimulus")
	tassert(t, err == nil, "%v", err)
	_, err = f.Data()
	tassert(t, errors.Is(err, nix.ErrNotFound), "got %v", err)

	n, _ := tag.FeatureCount()
	tassert(t, n == 1, "n %d", n)
	ok, err := tag.DeleteFeature(fid)
	tassert(t, err == nil && ok, "ok %v err %v", ok, err)
	ok, err = tag.DeleteFeature(fid)
	tassert(t, err == nil && !ok, "ok %v err %v", ok, err)
}

func TestMultiTag(t *testing.T) {
	file := setup(t)
	b := mkblock(t, file, "b1")
	mkarray(t, b, "pos", nix.Double, 5, 1)
	mkarray(t, b, "ext", nix.Double, 5, 1)
	mkarray(t, b, "short", nix.Double, 4, 1)
	mkarray(t, b, "pos2", nix.Double, 4, 1)
	mkarray(t, b, "signal", nix.Double, 1000)

	_, err := b.CreateMultiTag("spikes", "events", "nope")
	tassert(t, errors.Is(err, nix.ErrNotFound), "got %v", err)
	tassert(t, !b.HasMultiTag("spikes"), "multitag created without positions")

	mt, err := b.CreateMultiTag("spikes", "events", "pos")
	tassert(t, err == nil, "%v", err)
	tassert(t, mt.HasPositions(), "no positions")
	positions, err := mt.Positions()
	tassert(t, err == nil, "%v", err)
	name, _ := positions.Name()
	tassert(t, name == "pos", "got %q", name)

	extents, err := mt.Extents()
	tassert(t, err == nil && extents == nil, "got %v %v", extents, err)
	err = mt.SetExtents("short")
	tassert(t, errors.Is(err, nix.ErrIncompatibleDimensions), "got %v", err)
	err = mt.SetExtents("ext")
	tassert(t, err == nil, "%v", err)
	extents, err = mt.Extents()
	tassert(t, err == nil && extents != nil, "got %v %v", extents, err)

	// positions must keep matching the extents
	err = mt.SetPositions("pos2")
	tassert(t, errors.Is(err, nix.ErrIncompatibleDimensions), "got %v", err)
	err = mt.RemoveExtents()
	tassert(t, err == nil, "%v", err)
	err = mt.SetPositions("pos2")
	tassert(t, err == nil, "%v", err)
	positions, _ = mt.Positions()
	name, _ = positions.Name()
	tassert(t, name == "pos2", "got %q", name)

	f, err := mt.CreateFeature("signal", nix.Indexed)
	tassert(t, err == nil, "%v", err)
	lt, _ := f.LinkType()
	tassert(t, lt == nix.Indexed, "got %v", lt)

	err = mt.SetUnits([]string{"s"})
	tassert(t, err == nil, "%v", err)
	units, _ := mt.Units()
	tassert(t, len(units) == 1, "got %v", units)

	got, err := b.GetMultiTag(id(t, mt))
	tassert(t, err == nil && got.HasPositions(), "got %v %v", got, err)
	ok, err := b.DeleteMultiTag("spikes")
	tassert(t, err == nil && ok, "ok %v err %v", ok, err)
}

func TestRecreatedTargets(t *testing.T) {
	file := setup(t)
	b := mkblock(t, file, "b1")
	x := mkarray(t, b, "x", nix.Double, 4)
	mkarray(t, b, "pos", nix.Double, 1, 1)
	sec, err := file.CreateSection("s", "settings")
	tassert(t, err == nil, "%v", err)
	_, err = b.CreateSource("src", "subject")
	tassert(t, err == nil, "%v", err)

	tag, err := b.CreateTag("stim", "event", []float64{0})
	tassert(t, err == nil, "%v", err)
	err = tag.AddReference("x")
	tassert(t, err == nil, "%v", err)
	err = tag.AddSource("src")
	tassert(t, err == nil, "%v", err)
	f, err := tag.CreateFeature("x", nix.Tagged)
	tassert(t, err == nil, "%v", err)
	err = b.SetMetadata(id(t, sec))
	tassert(t, err == nil, "%v", err)
	mt, err := b.CreateMultiTag("spikes", "events", "pos")
	tassert(t, err == nil, "%v", err)

	// delete every target and create new ones under the old names
	oldX := id(t, x)
	for _, name := range []string{"x", "pos"} {
		ok, err := b.DeleteDataArray(name)
		tassert(t, err == nil && ok, "ok %v err %v", ok, err)
	}
	ok, err := b.DeleteSource("src")
	tassert(t, err == nil && ok, "ok %v err %v", ok, err)
	ok, err = file.DeleteSection("s")
	tassert(t, err == nil && ok, "ok %v err %v", ok, err)
	x2 := mkarray(t, b, "x", nix.Double, 4)
	mkarray(t, b, "pos", nix.Double, 1, 1)
	_, err = b.CreateSource("src", "subject")
	tassert(t, err == nil, "%v", err)
	_, err = file.CreateSection("s", "settings")
	tassert(t, err == nil, "%v", err)

	_, err = tag.GetReference(oldX)
	tassert(t, errors.Is(err, nix.ErrNotFound), "got %v", err)
	_, err = tag.GetReferenceAt(0)
	tassert(t, errors.Is(err, nix.ErrNotFound), "got %v", err)
	_, err = tag.GetReference("x")
	tassert(t, errors.Is(err, nix.ErrNotFound), "got %v", err)
	tassert(t, !tag.HasReference(oldX), "stale reference reported")
	_, err = tag.GetSource("src")
	tassert(t, errors.Is(err, nix.ErrNotFound), "got %v", err)
	_, err = tag.GetSourceAt(0)
	tassert(t, errors.Is(err, nix.ErrNotFound), "got %v", err)

	_, err = f.Data()
	tassert(t, errors.Is(err, nix.ErrNotFound), "got %v", err)
	tassert(t, !tag.HasFeature("x"), "stale feature found by array name")
	_, err = b.Metadata()
	tassert(t, errors.Is(err, nix.ErrNotFound), "got %v", err)
	tassert(t, !mt.HasPositions(), "stale positions reported")
	_, err = mt.Positions()
	tassert(t, errors.Is(err, nix.ErrNotFound), "got %v", err)

	// linking again picks up the new entities
	err = tag.AddReference("x")
	tassert(t, err == nil, "%v", err)
	ref, err := tag.GetReference("x")
	tassert(t, err == nil && id(t, ref) == id(t, x2), "got %v %v", ref, err)
	n, _ := tag.ReferenceCount()
	tassert(t, n == 2, "n %d", n)
	err = f.SetData("x")
	tassert(t, err == nil, "%v", err)
	data, err := f.Data()
	tassert(t, err == nil && id(t, data) == id(t, x2), "got %v %v", data, err)
	err = mt.SetPositions("pos")
	tassert(t, err == nil, "%v", err)
	tassert(t, mt.HasPositions(), "positions not relinked")
}

func TestLinkFailureCleanup(t *testing.T) {
	file := setup(t)
	b := mkblock(t, file, "b1")
	da := mkarray(t, b, "v", nix.Double, 4)
	tag, err := b.CreateTag("stim", "event", []float64{0})
	tassert(t, err == nil, "%v", err)

	// the target lost its id, so the feature cannot be linked
	err = da.dir.Attrs.Remove("entity_id")
	tassert(t, err == nil, "%v", err)
	_, err = tag.CreateFeature("v", nix.Tagged)
	tassert(t, err != nil, "feature created without a target id")
	n, err := tag.FeatureCount()
	tassert(t, err == nil && n == 0, "n %d err %v", n, err)

	_, err = b.CreateMultiTag("spikes", "events", "v")
	tassert(t, err != nil, "multitag created without a positions id")
	tassert(t, !b.HasMultiTag("spikes"), "half-built multitag left behind")
	n, err = b.MultiTagCount()
	tassert(t, err == nil && n == 0, "n %d err %v", n, err)
}
