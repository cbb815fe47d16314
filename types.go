package nixbase

import (
	"fmt"
	"reflect"

	"github.com/pkg/errors"
)

// FileMode selects how a file is opened.
type FileMode int

const (
	// ReadOnly opens an existing file; every mutator fails with
	// ErrReadOnly.
	ReadOnly FileMode = iota
	// ReadWrite opens a file, creating it if it does not exist.
	ReadWrite
	// Overwrite truncates an existing file and starts empty.
	Overwrite
)

func (m FileMode) String() string {
	switch m {
	case ReadOnly:
		return "ReadOnly"
	case ReadWrite:
		return "ReadWrite"
	case Overwrite:
		return "Overwrite"
	}
	return fmt.Sprintf("FileMode(%d)", int(m))
}

// DataType is the element type of property values and data array
// payloads.
type DataType int

const (
	Nothing DataType = iota
	Bool
	Char
	Float
	Double
	Int8
	Int16
	Int32
	Int64
	UInt8
	UInt16
	UInt32
	UInt64
	String
	Date
	DateTime
)

var dataTypeNames = map[DataType]string{
	Nothing:  "Nothing",
	Bool:     "Bool",
	Char:     "Char",
	Float:    "Float",
	Double:   "Double",
	Int8:     "Int8",
	Int16:    "Int16",
	Int32:    "Int32",
	Int64:    "Int64",
	UInt8:    "UInt8",
	UInt16:   "UInt16",
	UInt32:   "UInt32",
	UInt64:   "UInt64",
	String:   "String",
	Date:     "Date",
	DateTime: "DateTime",
}

func (dt DataType) String() string {
	name, ok := dataTypeNames[dt]
	if !ok {
		return fmt.Sprintf("DataType(%d)", int(dt))
	}
	return name
}

// ParseDataType is the inverse of DataType.String.
func ParseDataType(s string) (dt DataType, err error) {
	for dt, name := range dataTypeNames {
		if name == s {
			return dt, nil
		}
	}
	return Nothing, errors.Wrapf(ErrInvalidArgument, "unknown data type %q", s)
}

// IsNumeric reports whether dt is one of the integer or floating
// point types.
func (dt DataType) IsNumeric() bool {
	switch dt {
	case Float, Double, Int8, Int16, Int32, Int64, UInt8, UInt16, UInt32, UInt64:
		return true
	}
	return false
}

var kindTypes = map[reflect.Kind]DataType{
	reflect.Bool:    Bool,
	reflect.Float32: Float,
	reflect.Float64: Double,
	reflect.Int8:    Int8,
	reflect.Int16:   Int16,
	reflect.Int32:   Int32,
	reflect.Int64:   Int64,
	reflect.Int:     Int64,
	reflect.Uint8:   UInt8,
	reflect.Uint16:  UInt16,
	reflect.Uint32:  UInt32,
	reflect.Uint64:  UInt64,
	reflect.Uint:    UInt64,
	reflect.String:  String,
}

// DataTypeOfKind maps a Go scalar kind onto a DataType.  ok is false
// for kinds with no storable counterpart.
func DataTypeOfKind(k reflect.Kind) (dt DataType, ok bool) {
	dt, ok = kindTypes[k]
	return
}

// LinkType qualifies how a feature's data array relates to its tag.
type LinkType int

const (
	Tagged LinkType = iota
	Untagged
	Indexed
)

func (lt LinkType) String() string {
	switch lt {
	case Tagged:
		return "tagged"
	case Untagged:
		return "untagged"
	case Indexed:
		return "indexed"
	}
	return fmt.Sprintf("LinkType(%d)", int(lt))
}

// ParseLinkType accepts the persisted form produced by String.
func ParseLinkType(s string) (LinkType, error) {
	switch s {
	case "tagged":
		return Tagged, nil
	case "untagged":
		return Untagged, nil
	case "indexed":
		return Indexed, nil
	}
	return Tagged, errors.Wrapf(ErrInvalidArgument, "unknown link type %q", s)
}

// DimensionType is the discriminator persisted with every dimension.
type DimensionType string

const (
	SetDimensionType     DimensionType = "set"
	RangeDimensionType   DimensionType = "range"
	SampledDimensionType DimensionType = "sample"
)

// IsValid reports whether dt is one of the known dimension variants.
func (dt DimensionType) IsValid() bool {
	switch dt {
	case SetDimensionType, RangeDimensionType, SampledDimensionType:
		return true
	}
	return false
}
