package cartrie

import (
	"encoding/binary"
	"fmt"
	"math"

	"golang.org/x/text/unicode/norm"
)

// KeyCodec converts a caller's key type to and from the raw byte strings
// the trie stores and compares lexicographically. Implementations must be
// order-preserving when the caller relies on range behavior: ToBytes(a)
// must compare lexicographically the same way a and b compare, for every
// pair the codec claims to support.
//
// FixedLen reports the exact encoded length a well-formed ToBytes output
// always has, or 0 if the codec is variable-length. FromBytes must reject
// (via ErrInvalidEncoding) any input whose length disagrees with a
// nonzero FixedLen.
type KeyCodec[K any] interface {
	ToBytes(k K) []byte
	FromBytes(b []byte) (K, error)
	FixedLen() int
}

// BytesCodec is the identity codec for []byte keys.
type BytesCodec struct{}

func (BytesCodec) ToBytes(k []byte) []byte { return append([]byte(nil), k...) }
func (BytesCodec) FromBytes(b []byte) ([]byte, error) {
	return append([]byte(nil), b...), nil
}
func (BytesCodec) FixedLen() int { return 0 }

// StringCodec encodes strings as their NFC-normalized UTF-8 bytes, so that
// visually identical strings built from different combining-character
// sequences land on the same trie key.
type StringCodec struct{}

func (StringCodec) ToBytes(k string) []byte {
	return []byte(norm.NFC.String(k))
}
func (StringCodec) FromBytes(b []byte) (string, error) { return string(b), nil }
func (StringCodec) FixedLen() int                      { return 0 }

// The signed integer codecs below add a 1<<63 offset (or narrower
// equivalent) before encoding big-endian; the unsigned ones encode the
// value as is. Either way, lexicographic byte-wise order on one codec's
// encoded form matches numeric order on the original value. Encodings from
// different codecs or widths do not compare numerically with each other:
// each codec keeps its own width and offset. Adding the offset at the
// top bit of a fixed-width word is equivalent to XORing it, since the
// carry out of that bit has nowhere to go and is discarded.

func checkFixedLen(b []byte, want int) error {
	if len(b) != want {
		return fmt.Errorf("%w: got %d bytes, want %d", ErrInvalidEncoding, len(b), want)
	}
	return nil
}

const int64Offset = uint64(1) << 63

// Int64Codec encodes int64 keys as order-preserving 8-byte big-endian
// strings.
type Int64Codec struct{}

func (Int64Codec) ToBytes(k int64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(k)+int64Offset)
	return b[:]
}
func (Int64Codec) FromBytes(b []byte) (int64, error) {
	if err := checkFixedLen(b, 8); err != nil {
		return 0, err
	}
	return int64(binary.BigEndian.Uint64(b) - int64Offset), nil
}
func (Int64Codec) FixedLen() int { return 8 }

// Uint64Codec encodes uint64 keys directly as order-preserving 8-byte
// big-endian strings (no offset needed: unsigned order already matches
// byte order).
type Uint64Codec struct{}

func (Uint64Codec) ToBytes(k uint64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], k)
	return b[:]
}
func (Uint64Codec) FromBytes(b []byte) (uint64, error) {
	if err := checkFixedLen(b, 8); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(b), nil
}
func (Uint64Codec) FixedLen() int { return 8 }

const int32Offset = uint32(1) << 31

// Int32Codec encodes int32 keys as order-preserving 4-byte big-endian
// strings.
type Int32Codec struct{}

func (Int32Codec) ToBytes(k int32) []byte {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], uint32(k)+int32Offset)
	return b[:]
}
func (Int32Codec) FromBytes(b []byte) (int32, error) {
	if err := checkFixedLen(b, 4); err != nil {
		return 0, err
	}
	return int32(binary.BigEndian.Uint32(b) - int32Offset), nil
}
func (Int32Codec) FixedLen() int { return 4 }

// Uint32Codec encodes uint32 keys directly as order-preserving 4-byte
// big-endian strings.
type Uint32Codec struct{}

func (Uint32Codec) ToBytes(k uint32) []byte {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], k)
	return b[:]
}
func (Uint32Codec) FromBytes(b []byte) (uint32, error) {
	if err := checkFixedLen(b, 4); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}
func (Uint32Codec) FixedLen() int { return 4 }

const int16Offset = uint16(1) << 15

// Int16Codec encodes int16 keys as order-preserving 2-byte big-endian
// strings.
type Int16Codec struct{}

func (Int16Codec) ToBytes(k int16) []byte {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], uint16(k)+int16Offset)
	return b[:]
}
func (Int16Codec) FromBytes(b []byte) (int16, error) {
	if err := checkFixedLen(b, 2); err != nil {
		return 0, err
	}
	return int16(binary.BigEndian.Uint16(b) - int16Offset), nil
}
func (Int16Codec) FixedLen() int { return 2 }

// Uint16Codec encodes uint16 keys directly as order-preserving 2-byte
// big-endian strings.
type Uint16Codec struct{}

func (Uint16Codec) ToBytes(k uint16) []byte {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], k)
	return b[:]
}
func (Uint16Codec) FromBytes(b []byte) (uint16, error) {
	if err := checkFixedLen(b, 2); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b), nil
}
func (Uint16Codec) FixedLen() int { return 2 }

const int8Offset = uint8(1) << 7

// Int8Codec encodes int8 keys as an order-preserving single byte.
type Int8Codec struct{}

func (Int8Codec) ToBytes(k int8) []byte {
	return []byte{uint8(k) + int8Offset}
}
func (Int8Codec) FromBytes(b []byte) (int8, error) {
	if err := checkFixedLen(b, 1); err != nil {
		return 0, err
	}
	return int8(b[0] - int8Offset), nil
}
func (Int8Codec) FixedLen() int { return 1 }

// Uint8Codec encodes uint8 keys directly as a single byte.
type Uint8Codec struct{}

func (Uint8Codec) ToBytes(k uint8) []byte { return []byte{k} }
func (Uint8Codec) FromBytes(b []byte) (uint8, error) {
	if err := checkFixedLen(b, 1); err != nil {
		return 0, err
	}
	return b[0], nil
}
func (Uint8Codec) FixedLen() int { return 1 }

// Float64Codec encodes float64 keys as order-preserving 8-byte big-endian
// strings, flipping the sign bit for non-negatives and inverting all bits
// for negatives so that IEEE-754 bit patterns sort the same way their
// numeric values do (NaN excluded — callers must not use NaN as a key).
type Float64Codec struct{}

func (Float64Codec) ToBytes(k float64) []byte {
	bits := math.Float64bits(k)
	if bits&(1<<63) != 0 {
		bits = ^bits
	} else {
		bits |= 1 << 63
	}
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], bits)
	return b[:]
}
func (Float64Codec) FromBytes(b []byte) (float64, error) {
	if err := checkFixedLen(b, 8); err != nil {
		return 0, err
	}
	bits := binary.BigEndian.Uint64(b)
	if bits&(1<<63) != 0 {
		bits &^= 1 << 63
	} else {
		bits = ^bits
	}
	return math.Float64frombits(bits), nil
}
func (Float64Codec) FixedLen() int { return 8 }
