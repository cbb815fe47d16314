package db

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"reflect"

	"github.com/google/renameio"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	nix "github.com/t7a/nixbase"
	"github.com/vmihailenco/msgpack"
)

const dataFile = "data"

// DataArray is an n-dimensional typed payload with one dimension
// descriptor per axis.  The payload is a flat msgpack-encoded slice in
// row-major order; extent gives the shape.
type DataArray struct {
	EntityWithSources
}

var _ nix.IDataArray = (*DataArray)(nil)

func openDataArray(b *Block, dir *Directory) *DataArray {
	da := &DataArray{}
	da.file = b.file
	da.dir = dir
	da.block = b
	return da
}

func (da *DataArray) Label() (*string, error) {
	return da.optString("label")
}

func (da *DataArray) SetLabel(label string) error {
	return da.setString("label", label)
}

func (da *DataArray) RemoveLabel() error {
	return da.remove("label")
}

func (da *DataArray) Unit() (*string, error) {
	return da.optString("unit")
}

func (da *DataArray) SetUnit(unit string) error {
	return da.setString("unit", unit)
}

func (da *DataArray) RemoveUnit() error {
	return da.remove("unit")
}

func (da *DataArray) ExpansionOrigin() (*float64, error) {
	return da.optDouble("expansion_origin")
}

func (da *DataArray) SetExpansionOrigin(origin float64) error {
	return da.write(map[string]interface{}{"expansion_origin": origin})
}

func (da *DataArray) RemoveExpansionOrigin() error {
	return da.remove("expansion_origin")
}

func (da *DataArray) PolynomCoefficients() ([]float64, error) {
	return da.optDoubles("polynom_coefficients")
}

func (da *DataArray) SetPolynomCoefficients(coefficients []float64) error {
	if len(coefficients) == 0 {
		return da.RemovePolynomCoefficients()
	}
	return da.write(map[string]interface{}{"polynom_coefficients": coefficients})
}

func (da *DataArray) RemovePolynomCoefficients() error {
	return da.remove("polynom_coefficients")
}

func (da *DataArray) DataType() (dt nix.DataType, err error) {
	s, err := da.requireString("dtype")
	if err != nil {
		return
	}
	return nix.ParseDataType(s)
}

func checkExtent(extent []int) error {
	if len(extent) == 0 {
		return errors.Wrap(nix.ErrInvalidArgument, "empty extent")
	}
	for _, n := range extent {
		if n < 0 {
			return errors.Wrapf(nix.ErrInvalidArgument, "negative extent %v", extent)
		}
	}
	return nil
}

func elements(extent []int) int {
	n := 1
	for _, x := range extent {
		n *= x
	}
	return n
}

func (da *DataArray) DataExtent() (extent []int, err error) {
	extent, ok, err := da.dir.Attrs.GetInts("extent")
	if err == nil && !ok {
		err = da.missing("extent")
	}
	return
}

// SetDataExtent reshapes the array.  Once data is written the number
// of elements is fixed.
func (da *DataArray) SetDataExtent(extent []int) (err error) {
	err = checkExtent(extent)
	if err != nil {
		return
	}
	err = da.dir.writable()
	if err != nil {
		return
	}
	if da.HasData() {
		cur, err := da.DataExtent()
		if err != nil {
			return err
		}
		if elements(cur) != elements(extent) {
			return errors.Wrapf(nix.ErrIncompatibleDimensions, "cannot reshape %v to %v", cur, extent)
		}
	}
	return da.write(map[string]interface{}{"extent": extent})
}

func (da *DataArray) dataPath() string {
	return filepath.Join(da.dir.Path, dataFile)
}

func (da *DataArray) HasData() bool {
	return da.dir.usable() == nil && canstat(da.dataPath())
}

// checkElem matches a slice type's element kind against the array's
// data type.
func (da *DataArray) checkElem(t reflect.Type) (err error) {
	dtype, err := da.DataType()
	if err != nil {
		return
	}
	got, ok := nix.DataTypeOfKind(t.Elem().Kind())
	if !ok || got != dtype {
		return errors.Wrapf(nix.ErrInvalidArgument, "%v does not hold %v", t, dtype)
	}
	return
}

func (da *DataArray) WriteData(data interface{}) (err error) {
	err = da.dir.writable()
	if err != nil {
		return
	}
	rv := reflect.ValueOf(data)
	if rv.Kind() != reflect.Slice {
		return errors.Wrapf(nix.ErrInvalidArgument, "want a slice, got %T", data)
	}
	err = da.checkElem(rv.Type())
	if err != nil {
		return
	}
	extent, err := da.DataExtent()
	if err != nil {
		return
	}
	if rv.Len() != elements(extent) {
		return errors.Wrapf(nix.ErrIncompatibleDimensions, "%d elements for extent %v", rv.Len(), extent)
	}
	buf, err := msgpack.Marshal(data)
	if err != nil {
		return
	}
	err = renameio.WriteFile(da.dataPath(), buf, 0644)
	if err != nil {
		return
	}
	log.Debugf("wrote %d elements to %s", rv.Len(), da.dir.Path)
	return da.write(nil)
}

func (da *DataArray) ReadData(out interface{}) (err error) {
	err = da.dir.usable()
	if err != nil {
		return
	}
	rv := reflect.ValueOf(out)
	if rv.Kind() != reflect.Ptr || rv.Elem().Kind() != reflect.Slice {
		return errors.Wrapf(nix.ErrInvalidArgument, "want a pointer to a slice, got %T", out)
	}
	err = da.checkElem(rv.Elem().Type())
	if err != nil {
		return
	}
	buf, err := ioutil.ReadFile(da.dataPath())
	if os.IsNotExist(err) {
		return errors.Wrapf(nix.ErrNotFound, "no data in %s", da.dir.Path)
	}
	if err != nil {
		return
	}
	return msgpack.Unmarshal(buf, out)
}

var sliceTypes = map[nix.DataType]reflect.Type{
	nix.Bool:   reflect.TypeOf([]bool(nil)),
	nix.Float:  reflect.TypeOf([]float32(nil)),
	nix.Double: reflect.TypeOf([]float64(nil)),
	nix.Int8:   reflect.TypeOf([]int8(nil)),
	nix.Int16:  reflect.TypeOf([]int16(nil)),
	nix.Int32:  reflect.TypeOf([]int32(nil)),
	nix.Int64:  reflect.TypeOf([]int64(nil)),
	nix.UInt8:  reflect.TypeOf([]uint8(nil)),
	nix.UInt16: reflect.TypeOf([]uint16(nil)),
	nix.UInt32: reflect.TypeOf([]uint32(nil)),
	nix.UInt64: reflect.TypeOf([]uint64(nil)),
	nix.String: reflect.TypeOf([]string(nil)),
}

func (da *DataArray) Data() (data interface{}, err error) {
	dtype, err := da.DataType()
	if err != nil {
		return
	}
	t, ok := sliceTypes[dtype]
	if !ok {
		return nil, errors.Wrapf(nix.ErrInvalidArgument, "no slice type for %v", dtype)
	}
	ptr := reflect.New(t)
	err = da.ReadData(ptr.Interface())
	if err != nil {
		return
	}
	return ptr.Elem().Interface(), nil
}

// floats converts a numeric payload to float64.
func (da *DataArray) floats() (fs []float64, err error) {
	data, err := da.Data()
	if err != nil {
		return
	}
	rv := reflect.ValueOf(data)
	fs = make([]float64, rv.Len())
	for i := range fs {
		v := rv.Index(i)
		switch v.Kind() {
		case reflect.Float32, reflect.Float64:
			fs[i] = v.Float()
		case reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			fs[i] = float64(v.Int())
		case reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			fs[i] = float64(v.Uint())
		default:
			return nil, errors.Wrapf(nix.ErrInvalidArgument, "%v is not numeric", v.Kind())
		}
	}
	return
}
