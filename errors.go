package nixbase

import (
	"fmt"

	"github.com/pkg/errors"
)

// Error kinds.  Backends wrap these with context; callers classify
// with errors.Is.
var (
	ErrEmptyString            = errors.New("empty string")
	ErrMissingAttribute       = errors.New("missing attribute")
	ErrDuplicateName          = errors.New("duplicate name")
	ErrUninitializedEntity    = errors.New("uninitialized entity")
	ErrOutOfBounds            = errors.New("out of bounds")
	ErrInvalidDimensionType   = errors.New("invalid dimension type")
	ErrUnsortedTicks          = errors.New("ticks not sorted")
	ErrIncompatibleDimensions = errors.New("incompatible dimensions")
	ErrNotFound               = errors.New("not found")
	ErrIllegalState           = errors.New("illegal state")
	ErrInvalidArgument        = errors.New("invalid argument")
	ErrReadOnly               = errors.New("file is read-only")
	ErrInvalidHeader          = errors.New("invalid file header")
)

// OutOfBoundsError reports an index-based access beyond the size of a
// collection.
type OutOfBoundsError struct {
	Index int
	Size  int
}

func (e *OutOfBoundsError) Error() string {
	return fmt.Sprintf("index %d out of bounds (size %d)", e.Index, e.Size)
}

// Is lets errors.Is(err, ErrOutOfBounds) match.
func (e *OutOfBoundsError) Is(target error) bool {
	return target == ErrOutOfBounds
}

// CheckIndex returns an *OutOfBoundsError unless 0 <= index < size.
func CheckIndex(index, size int) error {
	if index < 0 || index >= size {
		return &OutOfBoundsError{Index: index, Size: size}
	}
	return nil
}

// MissingAttributeError names the attribute that was expected but
// absent.
type MissingAttributeError struct {
	Attr string
	Dir  string
}

func (e *MissingAttributeError) Error() string {
	return fmt.Sprintf("missing attribute %q in %s", e.Attr, e.Dir)
}

func (e *MissingAttributeError) Is(target error) bool {
	return target == ErrMissingAttribute
}

// CheckEmpty returns ErrEmptyString, wrapped with what, if s is empty.
func CheckEmpty(s, what string) error {
	if s == "" {
		return errors.Wrap(ErrEmptyString, what)
	}
	return nil
}
