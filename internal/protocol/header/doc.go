// Package header packs the fixed-size headers of the initialization sequence
// and of the replay file.
//
// Every field is packed explicitly and every multi-byte field travels
// big-endian, so a new field only needs a line in MarshalBinary and one in
// UnmarshalBinary.
package header
