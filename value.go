package nixbase

import (
	"fmt"

	"github.com/pkg/errors"
)

// Value is one element of a property's value list.  Exactly one of
// the payload fields is meaningful, selected by Type.
type Value struct {
	Type        DataType `msgpack:"type"`
	Bool        bool     `msgpack:"bool,omitempty"`
	Int         int64    `msgpack:"int,omitempty"`
	Uint        uint64   `msgpack:"uint,omitempty"`
	Float       float64  `msgpack:"float,omitempty"`
	String      string   `msgpack:"string,omitempty"`
	Uncertainty float64  `msgpack:"uncertainty,omitempty"`
	Reference   string   `msgpack:"reference,omitempty"`
	Filename    string   `msgpack:"filename,omitempty"`
	Encoder     string   `msgpack:"encoder,omitempty"`
	Checksum    string   `msgpack:"checksum,omitempty"`
}

// NewValue wraps a Go scalar.  Platform int and uint become Int64 and
// UInt64.
func NewValue(v interface{}) (val Value, err error) {
	switch x := v.(type) {
	case bool:
		return Value{Type: Bool, Bool: x}, nil
	case int:
		return Value{Type: Int64, Int: int64(x)}, nil
	case int8:
		return Value{Type: Int8, Int: int64(x)}, nil
	case int16:
		return Value{Type: Int16, Int: int64(x)}, nil
	case int32:
		return Value{Type: Int32, Int: int64(x)}, nil
	case int64:
		return Value{Type: Int64, Int: x}, nil
	case uint:
		return Value{Type: UInt64, Uint: uint64(x)}, nil
	case uint8:
		return Value{Type: UInt8, Uint: uint64(x)}, nil
	case uint16:
		return Value{Type: UInt16, Uint: uint64(x)}, nil
	case uint32:
		return Value{Type: UInt32, Uint: uint64(x)}, nil
	case uint64:
		return Value{Type: UInt64, Uint: x}, nil
	case float32:
		return Value{Type: Float, Float: float64(x)}, nil
	case float64:
		return Value{Type: Double, Float: x}, nil
	case string:
		return Value{Type: String, String: x}, nil
	}
	return Value{}, errors.Wrapf(ErrInvalidArgument, "unsupported value type %T", v)
}

// MustValue is NewValue for literals known to be supported.
func MustValue(v interface{}) Value {
	val, err := NewValue(v)
	if err != nil {
		panic(err)
	}
	return val
}

// Interface returns the payload as a Go value of the matching type.
func (v Value) Interface() interface{} {
	switch v.Type {
	case Bool:
		return v.Bool
	case Int8:
		return int8(v.Int)
	case Int16:
		return int16(v.Int)
	case Int32:
		return int32(v.Int)
	case Int64:
		return v.Int
	case UInt8:
		return uint8(v.Uint)
	case UInt16:
		return uint16(v.Uint)
	case UInt32:
		return uint32(v.Uint)
	case UInt64:
		return v.Uint
	case Float:
		return float32(v.Float)
	case Double:
		return v.Float
	case String, Char, Date, DateTime:
		return v.String
	}
	return nil
}

func (v Value) Str() string {
	return fmt.Sprintf("%v", v.Interface())
}

// Equal compares payload and type; the bookkeeping fields
// (uncertainty, reference, ...) take part too.
func (v Value) Equal(o Value) bool {
	return v == o
}
