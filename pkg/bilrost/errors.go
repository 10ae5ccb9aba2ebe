package bilrost

import (
	"errors"
	"fmt"
)

// Sentinel errors for the decode failure kinds in spec §7. Check them with
// errors.Is(); they satisfy it whether or not they arrive wrapped in a
// *DecodeError.
var (
	// ErrTruncated indicates the input ended inside a varint,
	// length-delimited payload, fixed block, or packed payload.
	ErrTruncated = errors.New("bilrost: truncated input")

	// ErrVarintOverflow indicates a varint decoded to a value >= 2^64.
	ErrVarintOverflow = errors.New("bilrost: varint overflow")

	// ErrInvalidTag indicates the cumulative tag exceeded 2^32-1.
	ErrInvalidTag = errors.New("bilrost: invalid tag")

	// ErrUnexpectedWireType indicates a key's wire-type did not match the
	// schema's expectation for that tag.
	ErrUnexpectedWireType = errors.New("bilrost: unexpected wire type")

	// ErrInvalidValue indicates a domain violation: invalid UTF-8, an
	// out-of-range integer, an unknown enum value, a non-boolean varint, a
	// byte array of the wrong length.
	ErrInvalidValue = errors.New("bilrost: invalid value")

	// ErrConflictingRepresentation indicates the same field appeared in
	// both packed and unpacked form.
	ErrConflictingRepresentation = errors.New("bilrost: conflicting packed/unpacked representation")

	// ErrUnexpectedRepeat indicates a non-repeated field's tag appeared
	// more than once.
	ErrUnexpectedRepeat = errors.New("bilrost: unexpected repeated field")

	// ErrDuplicate indicates a set item or map key appeared twice.
	ErrDuplicate = errors.New("bilrost: duplicate set item or map key")

	// ErrOneofConflict indicates two different variants of a oneof were
	// present in the same message.
	ErrOneofConflict = errors.New("bilrost: conflicting oneof variants")

	// ErrRecursionLimit indicates nested-message depth exceeded the
	// configured limit.
	ErrRecursionLimit = errors.New("bilrost: recursion limit exceeded")

	// ErrTrailingData indicates the input was not fully consumed after
	// decoding a message, when the caller opted into that check.
	ErrTrailingData = errors.New("bilrost: trailing data")
)

// DecodeError wraps a sentinel error with the field path (tag numbers,
// outermost message to innermost) that led to it. It is only populated
// when Options.DetailedErrors is set; otherwise errors are returned bare.
type DecodeError struct {
	Err  error
	Path []uint32
}

func (e *DecodeError) Error() string {
	if len(e.Path) == 0 {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s (field path %v)", e.Err.Error(), e.Path)
}

func (e *DecodeError) Unwrap() error { return e.Err }

func (e *DecodeError) Is(target error) bool { return errors.Is(e.Err, target) }

// withFieldPath prepends tag to err's path, wrapping it in a *DecodeError
// if it isn't one already. A no-op when detailed is false or err is nil.
func withFieldPath(err error, tag uint32, detailed bool) error {
	if err == nil || !detailed {
		return err
	}
	var de *DecodeError
	if errors.As(err, &de) {
		path := make([]uint32, 0, len(de.Path)+1)
		path = append(path, tag)
		path = append(path, de.Path...)
		return &DecodeError{Err: de.Err, Path: path}
	}
	return &DecodeError{Err: err, Path: []uint32{tag}}
}
