// Package codec provides the binary record layout used for commands and
// persisted cells, and the schema-probing Decoder.
//
// Layout rules (fixed, bit-exact):
//   - integers are little-endian, fixed width (u8, u32, u64)
//   - strings are a u32 little-endian byte length followed by UTF-8 bytes
//   - identities are 32 raw bytes
//
// Writer and Reader are append/cursor helpers in the Put/Parse style. Reader
// is sticky on error: after the first structural failure every later read
// returns the zero value and Err reports the first failure.
package codec
