package bilrost

// Options configures the three axes spec §6 names explicitly. The zero
// value is usable but DefaultOptions should be preferred.
type Options struct {
	// DetailedErrors, when set, makes decode errors carry a field path
	// (ordered tag numbers, outermost message inward). When unset, errors
	// are type-only.
	DetailedErrors bool

	// RecursionLimit bounds nested-message depth. Zero disables the guard
	// entirely; spec recommends a small default such as 100.
	RecursionLimit int

	// ZeroCopyInput is carried as a configuration axis, but no decoder in
	// this package reads it: Bytes always copies decoded byte strings out
	// of the input buffer, whatever its value.
	ZeroCopyInput bool
}

// DefaultOptions is used when no options are supplied.
var DefaultOptions = Options{RecursionLimit: 100}

// DistinguishedOptions additionally requests detailed errors; canonicity
// mistakes are easier to diagnose with a field path attached.
var DistinguishedOptions = Options{RecursionLimit: 100, DetailedErrors: true}

// Mode selects between expedient (tolerant) and distinguished (canonical)
// decoding.
type Mode uint8

const (
	Expedient Mode = iota
	Distinguished
)

func (m Mode) String() string {
	if m == Distinguished {
		return "distinguished"
	}
	return "expedient"
}
