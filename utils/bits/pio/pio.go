// Package pio provides fixed-width big-endian integer accessors over byte slices.
// Callers are responsible for bounds: every function indexes the slice directly.
package pio

// RecommendBufioSize is the buffer size used for buffered box writers.
const RecommendBufioSize = 1 << 16

func U8(b []byte) uint8 {
	return b[0]
}

func I8(b []byte) int8 {
	return int8(b[0])
}

func U16BE(b []byte) uint16 {
	return uint16(b[0])<<8 | uint16(b[1])
}

func I16BE(b []byte) int16 {
	return int16(U16BE(b))
}

func U24BE(b []byte) uint32 {
	return uint32(b[0])<<16 | uint32(b[1])<<8 | uint32(b[2])
}

// I24BE sign-extends the 24-bit value.
func I24BE(b []byte) int32 {
	return int32(U24BE(b)<<8) >> 8
}

func U32BE(b []byte) uint32 {
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}

func I32BE(b []byte) int32 {
	return int32(U32BE(b))
}

func U64BE(b []byte) uint64 {
	return uint64(U32BE(b))<<32 | uint64(U32BE(b[4:]))
}

func I64BE(b []byte) int64 {
	return int64(U64BE(b))
}

func PutU8(b []byte, v uint8) {
	b[0] = v
}

func PutI8(b []byte, v int8) {
	b[0] = uint8(v)
}

func PutU16BE(b []byte, v uint16) {
	b[0] = byte(v >> 8)
	b[1] = byte(v)
}

func PutI16BE(b []byte, v int16) {
	PutU16BE(b, uint16(v))
}

func PutU24BE(b []byte, v uint32) {
	b[0] = byte(v >> 16)
	b[1] = byte(v >> 8)
	b[2] = byte(v)
}

func PutI24BE(b []byte, v int32) {
	PutU24BE(b, uint32(v))
}

func PutU32BE(b []byte, v uint32) {
	b[0] = byte(v >> 24)
	b[1] = byte(v >> 16)
	b[2] = byte(v >> 8)
	b[3] = byte(v)
}

func PutI32BE(b []byte, v int32) {
	PutU32BE(b, uint32(v))
}

func PutU64BE(b []byte, v uint64) {
	PutU32BE(b, uint32(v>>32))
	PutU32BE(b[4:], uint32(v))
}

func PutI64BE(b []byte, v int64) {
	PutU64BE(b, uint64(v))
}

// UintBE reads an unsigned big-endian integer of n bytes (1..8).
func UintBE(b []byte, n int) (v uint64) {
	for i := 0; i < n; i++ {
		v = v<<8 | uint64(b[i])
	}
	return
}

// IntBE reads a two's complement big-endian integer of n bytes (1..8).
func IntBE(b []byte, n int) int64 {
	shift := uint(64 - 8*n)
	return int64(UintBE(b, n)<<shift) >> shift
}

// PutUintBE writes the low n bytes of v big-endian.
func PutUintBE(b []byte, v uint64, n int) {
	for i := n - 1; i >= 0; i-- {
		b[i] = byte(v)
		v >>= 8
	}
}
