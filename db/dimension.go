package db

import (
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	nix "github.com/t7a/nixbase"
)

// Dimensions live under a data array's dimensions/ directory, one
// sub-directory per axis named by its 1-based index.  The
// dimension_type attribute selects the variant.

const aliasLink = "data"

type dimension struct {
	da  *DataArray
	dir *Directory
}

func (d *dimension) Location() string {
	return d.dir.Path
}

func (d *dimension) Index() (index int, err error) {
	index, ok, err := d.dir.Attrs.GetInt("index")
	if err == nil && !ok {
		err = &nix.MissingAttributeError{Attr: "index", Dir: d.dir.Path}
	}
	return
}

// set writes dimension attributes and stamps the owning array.
func (d *dimension) set(kv map[string]interface{}) (err error) {
	err = d.dir.Attrs.SetAll(kv)
	if err != nil {
		return
	}
	return d.da.ForceUpdatedAt()
}

func (d *dimension) unset(key string) (err error) {
	err = d.dir.Attrs.Remove(key)
	if err != nil {
		return
	}
	return d.da.ForceUpdatedAt()
}

func (d *dimension) optString(key string) (p *string, err error) {
	s, ok, err := d.dir.Attrs.GetString(key)
	if err != nil || !ok {
		return
	}
	return &s, nil
}

func (d *dimension) optDouble(key string) (p *float64, err error) {
	f, ok, err := d.dir.Attrs.GetDouble(key)
	if err != nil || !ok {
		return
	}
	return &f, nil
}

func (d *dimension) setString(key, val string) error {
	err := nix.CheckEmpty(val, key)
	if err != nil {
		return err
	}
	return d.set(map[string]interface{}{key: val})
}

// SetDimension labels the entries of a categorical axis.
type SetDimension struct {
	dimension
}

var _ nix.ISetDimension = (*SetDimension)(nil)

func (d *SetDimension) DimensionType() nix.DimensionType {
	return nix.SetDimensionType
}

func (d *SetDimension) Labels() (labels []string, err error) {
	labels, _, err = d.dir.Attrs.GetStrings("labels")
	return
}

func (d *SetDimension) SetLabels(labels []string) error {
	return d.set(map[string]interface{}{"labels": labels})
}

func (d *SetDimension) RemoveLabels() error {
	return d.unset("labels")
}

// SampledDimension describes a regularly sampled axis:
// position(i) = offset + i * interval.
type SampledDimension struct {
	dimension
}

var _ nix.ISampledDimension = (*SampledDimension)(nil)

func (d *SampledDimension) DimensionType() nix.DimensionType {
	return nix.SampledDimensionType
}

func checkInterval(interval float64) error {
	if !(interval > 0) || math.IsInf(interval, 1) {
		return errors.Wrapf(nix.ErrInvalidArgument, "sampling interval %v", interval)
	}
	return nil
}

func (d *SampledDimension) SamplingInterval() (f float64, err error) {
	f, ok, err := d.dir.Attrs.GetDouble("sampling_interval")
	if err == nil && !ok {
		err = &nix.MissingAttributeError{Attr: "sampling_interval", Dir: d.dir.Path}
	}
	return
}

func (d *SampledDimension) SetSamplingInterval(interval float64) error {
	err := checkInterval(interval)
	if err != nil {
		return err
	}
	return d.set(map[string]interface{}{"sampling_interval": interval})
}

func (d *SampledDimension) Offset() (*float64, error) {
	return d.optDouble("offset")
}

func (d *SampledDimension) SetOffset(offset float64) error {
	return d.set(map[string]interface{}{"offset": offset})
}

func (d *SampledDimension) RemoveOffset() error {
	return d.unset("offset")
}

func (d *SampledDimension) Label() (*string, error) {
	return d.optString("label")
}

func (d *SampledDimension) SetLabel(label string) error {
	return d.setString("label", label)
}

func (d *SampledDimension) RemoveLabel() error {
	return d.unset("label")
}

func (d *SampledDimension) Unit() (*string, error) {
	return d.optString("unit")
}

func (d *SampledDimension) SetUnit(unit string) error {
	return d.setString("unit", unit)
}

func (d *SampledDimension) RemoveUnit() error {
	return d.unset("unit")
}

func (d *SampledDimension) axis() (offset, interval float64, err error) {
	interval, err = d.SamplingInterval()
	if err != nil {
		return
	}
	off, err := d.Offset()
	if err != nil {
		return
	}
	if off != nil {
		offset = *off
	}
	return
}

func (d *SampledDimension) PositionAt(index int) (pos float64, err error) {
	if index < 0 {
		return 0, &nix.OutOfBoundsError{Index: index}
	}
	offset, interval, err := d.axis()
	if err != nil {
		return
	}
	return offset + float64(index)*interval, nil
}

// IndexOf returns the sample nearest to position.  Positions before
// the offset are out of bounds.
func (d *SampledDimension) IndexOf(position float64) (index int, err error) {
	offset, interval, err := d.axis()
	if err != nil {
		return
	}
	index = int(math.Round((position - offset) / interval))
	if index < 0 {
		return 0, &nix.OutOfBoundsError{Index: index}
	}
	return
}

// RangeDimension describes an irregular axis by its ticks.  An alias
// range dimension takes its ticks, label and unit from the 1-D data
// array it belongs to.
type RangeDimension struct {
	dimension
}

var _ nix.IRangeDimension = (*RangeDimension)(nil)

func (d *RangeDimension) DimensionType() nix.DimensionType {
	return nix.RangeDimensionType
}

func (d *RangeDimension) IsAlias() bool {
	return d.dir.HasObject(aliasLink)
}

func checkTicks(ticks []float64) error {
	if len(ticks) == 0 {
		return errors.Wrap(nix.ErrInvalidArgument, "no ticks")
	}
	if !sort.Float64sAreSorted(ticks) {
		return errors.Wrapf(nix.ErrUnsortedTicks, "%v", ticks)
	}
	return nil
}

func (d *RangeDimension) Ticks() (ticks []float64, err error) {
	if d.IsAlias() {
		return d.da.floats()
	}
	ticks, ok, err := d.dir.Attrs.GetDoubles("ticks")
	if err == nil && !ok {
		err = &nix.MissingAttributeError{Attr: "ticks", Dir: d.dir.Path}
	}
	return
}

// SetTicks on an alias writes the array's data, which therefore has
// to be of type Double and of matching length.
func (d *RangeDimension) SetTicks(ticks []float64) (err error) {
	err = checkTicks(ticks)
	if err != nil {
		return
	}
	if d.IsAlias() {
		return d.da.WriteData(ticks)
	}
	return d.set(map[string]interface{}{"ticks": ticks})
}

func (d *RangeDimension) Label() (*string, error) {
	if d.IsAlias() {
		return d.da.Label()
	}
	return d.optString("label")
}

func (d *RangeDimension) SetLabel(label string) error {
	if d.IsAlias() {
		return d.da.SetLabel(label)
	}
	return d.setString("label", label)
}

func (d *RangeDimension) RemoveLabel() error {
	if d.IsAlias() {
		return d.da.RemoveLabel()
	}
	return d.unset("label")
}

func (d *RangeDimension) Unit() (*string, error) {
	if d.IsAlias() {
		return d.da.Unit()
	}
	return d.optString("unit")
}

func (d *RangeDimension) SetUnit(unit string) error {
	if d.IsAlias() {
		return d.da.SetUnit(unit)
	}
	return d.setString("unit", unit)
}

func (d *RangeDimension) RemoveUnit() error {
	if d.IsAlias() {
		return d.da.RemoveUnit()
	}
	return d.unset("unit")
}

func (d *RangeDimension) TickAt(index int) (tick float64, err error) {
	ticks, err := d.Ticks()
	if err != nil {
		return
	}
	err = nix.CheckIndex(index, len(ticks))
	if err != nil {
		return
	}
	return ticks[index], nil
}

func (d *RangeDimension) IndexOf(position float64) (index int, err error) {
	ticks, err := d.Ticks()
	if err != nil {
		return
	}
	index = sort.SearchFloat64s(ticks, position)
	if index == len(ticks) {
		return 0, &nix.OutOfBoundsError{Index: index, Size: len(ticks)}
	}
	return
}

// openDimension is the one place the stored discriminator is
// interpreted.
func openDimension(da *DataArray, dir *Directory) (dim nix.IDimension, err error) {
	s, ok, err := dir.Attrs.GetString("dimension_type")
	if err != nil {
		return
	}
	base := dimension{da: da, dir: dir}
	switch nix.DimensionType(s) {
	case nix.SetDimensionType:
		return &SetDimension{base}, nil
	case nix.RangeDimensionType:
		return &RangeDimension{base}, nil
	case nix.SampledDimensionType:
		return &SampledDimension{base}, nil
	}
	if !ok {
		return nil, errors.Wrapf(nix.ErrInvalidDimensionType, "no dimension_type in %s", dir.Path)
	}
	return nil, errors.Wrapf(nix.ErrInvalidDimensionType, "%q in %s", s, dir.Path)
}

func (da *DataArray) dims() *Directory {
	return da.dir.Sub("dimensions")
}

func (da *DataArray) DimensionCount() (int, error) {
	return da.dims().ObjectCount()
}

// GetDimension takes a 1-based index.
func (da *DataArray) GetDimension(index int) (dim nix.IDimension, err error) {
	n, err := da.DimensionCount()
	if err != nil {
		return
	}
	if index < 1 || index > n {
		return nil, &nix.OutOfBoundsError{Index: index, Size: n}
	}
	return openDimension(da, da.dims().Sub(strconv.Itoa(index)))
}

func (da *DataArray) Dimensions() (dims []nix.IDimension, err error) {
	n, err := da.DimensionCount()
	if err != nil {
		return
	}
	for i := 1; i <= n; i++ {
		dim, err := da.GetDimension(i)
		if err != nil {
			return nil, err
		}
		dims = append(dims, dim)
	}
	return
}

// createDimension puts a dimension at index, which may name an
// existing slot (replacing it) or the slot just past the end.
func (da *DataArray) createDimension(index int, attrs map[string]interface{}) (dir *Directory, err error) {
	coll := da.dims()
	err = coll.writable()
	if err != nil {
		return
	}
	n, err := da.DimensionCount()
	if err != nil {
		return
	}
	if index < 1 || index > n+1 {
		return nil, &nix.OutOfBoundsError{Index: index, Size: n + 1}
	}
	name := strconv.Itoa(index)
	_, err = coll.RemoveObject(name)
	if err != nil {
		return
	}
	dir, err = coll.CreateDirectory(name)
	if err != nil {
		return
	}
	attrs["index"] = index
	err = dir.Attrs.SetAll(attrs)
	if err != nil {
		_, _ = coll.RemoveObject(name)
		return nil, err
	}
	log.Debugf("created %v dimension %d in %s", attrs["dimension_type"], index, da.dir.Path)
	return dir, da.ForceUpdatedAt()
}

func (da *DataArray) CreateSetDimension(index int) (dim nix.ISetDimension, err error) {
	dir, err := da.createDimension(index, map[string]interface{}{
		"dimension_type": string(nix.SetDimensionType),
	})
	if err != nil {
		return
	}
	return &SetDimension{dimension{da: da, dir: dir}}, nil
}

func (da *DataArray) CreateRangeDimension(index int, ticks []float64) (dim nix.IRangeDimension, err error) {
	err = checkTicks(ticks)
	if err != nil {
		return
	}
	dir, err := da.createDimension(index, map[string]interface{}{
		"dimension_type": string(nix.RangeDimensionType),
		"ticks":          ticks,
	})
	if err != nil {
		return
	}
	return &RangeDimension{dimension{da: da, dir: dir}}, nil
}

func (da *DataArray) CreateSampledDimension(index int, interval float64) (dim nix.ISampledDimension, err error) {
	err = checkInterval(interval)
	if err != nil {
		return
	}
	dir, err := da.createDimension(index, map[string]interface{}{
		"dimension_type":    string(nix.SampledDimensionType),
		"sampling_interval": interval,
	})
	if err != nil {
		return
	}
	return &SampledDimension{dimension{da: da, dir: dir}}, nil
}

// CreateAliasRangeDimension makes dimension 1 of a one-dimensional
// numeric array a range dimension over the array's own values.
func (da *DataArray) CreateAliasRangeDimension() (dim nix.IRangeDimension, err error) {
	extent, err := da.DataExtent()
	if err != nil {
		return
	}
	if len(extent) != 1 {
		return nil, errors.Wrapf(nix.ErrIncompatibleDimensions, "alias range dimension needs 1-D data, have %v", extent)
	}
	dtype, err := da.DataType()
	if err != nil {
		return
	}
	if !dtype.IsNumeric() {
		return nil, errors.Wrapf(nix.ErrInvalidArgument, "alias range dimension needs numeric data, have %v", dtype)
	}
	dir, err := da.createDimension(1, map[string]interface{}{
		"dimension_type": string(nix.RangeDimensionType),
	})
	if err != nil {
		return
	}
	err = dir.LinkEntity(aliasLink, da.dir)
	if err != nil {
		_, _ = da.dims().RemoveObject("1")
		return nil, err
	}
	return &RangeDimension{dimension{da: da, dir: dir}}, nil
}

// renumber moves dimension from to slot to, undoing the rename if the
// index attribute cannot be written.
func renumber(coll *Directory, from, to int) (err error) {
	err = coll.Rename(strconv.Itoa(from), strconv.Itoa(to))
	if err != nil {
		return
	}
	err = coll.Sub(strconv.Itoa(to)).Attrs.Set("index", to)
	if err != nil {
		_ = coll.Rename(strconv.Itoa(to), strconv.Itoa(from))
	}
	return
}

// DeleteDimension removes dimension index and shifts every higher one
// down so indices stay contiguous.  The doomed slot is parked under a
// hidden name until the shift has succeeded; on failure the shift is
// undone and the slot restored.
func (da *DataArray) DeleteDimension(index int) (ok bool, err error) {
	coll := da.dims()
	err = coll.writable()
	if err != nil {
		return
	}
	n, err := da.DimensionCount()
	if err != nil {
		return
	}
	if index < 1 || index > n {
		return false, nil
	}
	staged := fmt.Sprintf(".deleted-%d", index)
	err = coll.Rename(strconv.Itoa(index), staged)
	if err != nil {
		return
	}
	moved := index
	for j := index + 1; j <= n; j++ {
		err = renumber(coll, j, j-1)
		if err != nil {
			break
		}
		moved = j
	}
	if err != nil {
		log.Debugf("rolling back dimension delete in %s: %v", da.dir.Path, err)
		for j := moved; j > index; j-- {
			_ = renumber(coll, j-1, j)
		}
		_ = coll.Rename(staged, strconv.Itoa(index))
		return false, err
	}
	err = os.RemoveAll(coll.Sub(staged).Path)
	if err != nil {
		return
	}
	return true, da.ForceUpdatedAt()
}

func (da *DataArray) DeleteDimensions() (err error) {
	ok, err := da.dir.RemoveObject("dimensions")
	if err != nil || !ok {
		return
	}
	return da.ForceUpdatedAt()
}
