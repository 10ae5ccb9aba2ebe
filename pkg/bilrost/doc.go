// Package bilrost implements the Bilrost wire format: a binary encoding
// for tagged-field messages with two decode modes, expedient (tolerant of
// forward/backward-compatible extension) and distinguished (a bijection
// between a subset of byte strings and values, so canonicity is
// decidable).
//
// The package does not derive field tables from Go struct reflection.
// Generated or hand-written message types supply a *Schema describing
// their fields; the engine in codec.go walks that table to encode and
// decode, using reflect.Value only to read and write the fields the
// schema already knows about.
package bilrost
