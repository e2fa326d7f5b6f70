package mod

import (
	"errors"
	"fmt"
)

var (
	ErrUnsupported = errors.New("mod: unsupported format")
	ErrTruncated   = errors.New("mod: truncated file")
)

// FormatError is returned by Parse. Kind is ErrUnsupported or ErrTruncated and
// is what errors.Is matches against.
type FormatError struct {
	Kind      error
	Offset    int
	Signature string
	Err       error
}

func (e *FormatError) Error() string {
	switch {
	case e.Kind == ErrUnsupported:
		return fmt.Sprintf("%v: signature %q", e.Kind, e.Signature)
	case e.Err != nil:
		return fmt.Sprintf("%v at offset %d: %v", e.Kind, e.Offset, e.Err)
	default:
		return fmt.Sprintf("%v at offset %d", e.Kind, e.Offset)
	}
}

func (e *FormatError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func truncated(off int, err error) error {
	return &FormatError{Kind: ErrTruncated, Offset: off, Err: err}
}
