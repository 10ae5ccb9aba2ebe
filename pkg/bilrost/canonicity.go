package bilrost

// Canonicity is the three-valued lattice a decode reports: whether the
// input was the unique canonical encoding of the value it produced.
type Canonicity uint8

const (
	// Canonical means the decoded value, re-encoded, reproduces the
	// exact input bytes.
	Canonical Canonicity = iota
	// HasExtensions means an unknown field was present, or a nested
	// decode reported it; the value is otherwise well-formed.
	HasExtensions
	// NotCanonical means the input could not have been produced by the
	// encoder for the decoded value: an empty value was written
	// explicitly, a collection was out of order, or packed/unpacked
	// forms were mixed.
	NotCanonical
)

func (c Canonicity) String() string {
	switch c {
	case Canonical:
		return "canonical"
	case HasExtensions:
		return "has-extensions"
	case NotCanonical:
		return "not-canonical"
	default:
		return "invalid"
	}
}

// Join returns the weaker (more pessimistic) of the two lattice values.
// NotCanonical absorbs; Canonical is the identity.
func (c Canonicity) Join(other Canonicity) Canonicity {
	if other > c {
		return other
	}
	return c
}
