package db

import (
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/google/renameio"
	"github.com/pkg/errors"
	nix "github.com/t7a/nixbase"
	"github.com/vmihailenco/msgpack"
)

const valuesFile = "values"

// Property is a named, typed list of values belonging to a section.
// The values live msgpack-encoded in a file next to the attributes.
type Property struct {
	Entity
}

var _ nix.IProperty = (*Property)(nil)

func openProperty(dir *Directory, file *File) *Property {
	p := &Property{}
	p.file = file
	p.dir = dir
	return p
}

func (p *Property) Name() (string, error) {
	return p.requireString("name")
}

func (p *Property) Definition() (*string, error) {
	return p.optString("definition")
}

func (p *Property) SetDefinition(def string) error {
	return p.setString("definition", def)
}

func (p *Property) RemoveDefinition() error {
	return p.remove("definition")
}

func (p *Property) Mapping() (*string, error) {
	return p.optString("mapping")
}

func (p *Property) SetMapping(mapping string) error {
	return p.setString("mapping", mapping)
}

func (p *Property) RemoveMapping() error {
	return p.remove("mapping")
}

func (p *Property) DataType() (dt nix.DataType, err error) {
	s, err := p.requireString("data_type")
	if err != nil {
		return
	}
	return nix.ParseDataType(s)
}

func (p *Property) Unit() (*string, error) {
	return p.optString("unit")
}

// unitLocked fails once the property holds values.
func (p *Property) unitLocked() error {
	n, err := p.ValueCount()
	if err != nil {
		return err
	}
	if n > 0 {
		return errors.Wrapf(nix.ErrIllegalState, "cannot change unit of %s: property has values", p.dir.Path)
	}
	return nil
}

// SetUnit may re-set the current unit at any time, but changing it
// requires an empty property.
func (p *Property) SetUnit(unit string) (err error) {
	err = nix.CheckEmpty(unit, "unit")
	if err != nil {
		return
	}
	err = p.dir.writable()
	if err != nil {
		return
	}
	cur, err := p.Unit()
	if err != nil {
		return
	}
	if cur != nil && *cur == unit {
		return
	}
	err = p.unitLocked()
	if err != nil {
		return
	}
	return p.write(map[string]interface{}{"unit": unit})
}

func (p *Property) RemoveUnit() (err error) {
	err = p.dir.writable()
	if err != nil {
		return
	}
	cur, err := p.Unit()
	if err != nil || cur == nil {
		return
	}
	err = p.unitLocked()
	if err != nil {
		return
	}
	return p.remove("unit")
}

func (p *Property) Uncertainty() (*float64, error) {
	return p.optDouble("uncertainty")
}

func (p *Property) SetUncertainty(u float64) error {
	return p.write(map[string]interface{}{"uncertainty": u})
}

func (p *Property) RemoveUncertainty() error {
	return p.remove("uncertainty")
}

func (p *Property) valuesPath() string {
	return filepath.Join(p.dir.Path, valuesFile)
}

func (p *Property) Values() (values []nix.Value, err error) {
	err = p.dir.usable()
	if err != nil {
		return
	}
	buf, err := ioutil.ReadFile(p.valuesPath())
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return
	}
	err = msgpack.Unmarshal(buf, &values)
	if err != nil {
		return nil, errors.Wrapf(err, "decoding %s", p.valuesPath())
	}
	return
}

func (p *Property) ValueCount() (int, error) {
	values, err := p.Values()
	return len(values), err
}

// checkValues enforces that every value has type dtype.
func checkValues(values []nix.Value, dtype nix.DataType) error {
	for i, v := range values {
		if v.Type != dtype {
			return errors.Wrapf(nix.ErrInvalidArgument, "value %d is %v, want %v", i, v.Type, dtype)
		}
	}
	return nil
}

// SetValues replaces all values.  They must match the property's data
// type; an empty list deletes the values.
func (p *Property) SetValues(values []nix.Value) (err error) {
	err = p.dir.writable()
	if err != nil {
		return
	}
	if len(values) == 0 {
		return p.DeleteValues()
	}
	dtype, err := p.DataType()
	if err != nil {
		return
	}
	err = checkValues(values, dtype)
	if err != nil {
		return
	}
	buf, err := msgpack.Marshal(values)
	if err != nil {
		return
	}
	err = renameio.WriteFile(p.valuesPath(), buf, 0644)
	if err != nil {
		return
	}
	return p.write(nil)
}

func (p *Property) DeleteValues() (err error) {
	err = p.dir.writable()
	if err != nil {
		return
	}
	err = os.Remove(p.valuesPath())
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return
	}
	return p.write(nil)
}
