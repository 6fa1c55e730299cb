package cartrie

import (
	"bytes"
	"errors"
	"sort"
	"testing"
)

func TestStringCodecNormalization(t *testing.T) {
	// 'ä' can be U+00E4 (precomposed) or 'a'+U+0308 (decomposed).
	precomposed := "ä"
	decomposed := "ä"
	var c StringCodec
	p := c.ToBytes(precomposed)
	d := c.ToBytes(decomposed)
	if !bytes.Equal(p, d) {
		t.Fatalf("normalization mismatch: %v vs %v", p, d)
	}
	if c.FixedLen() != 0 {
		t.Fatalf("StringCodec.FixedLen() = %d, want 0", c.FixedLen())
	}
}

func TestInt64CodecOrderPreserving(t *testing.T) {
	var c Int64Codec
	values := []int64{-1 << 40, -1000, -1, 0, 1, 1000, 1 << 40}
	encoded := make([][]byte, len(values))
	for i, v := range values {
		encoded[i] = c.ToBytes(v)
	}
	if !sort.SliceIsSorted(encoded, func(i, j int) bool {
		return bytes.Compare(encoded[i], encoded[j]) < 0
	}) {
		t.Fatalf("Int64Codec encoding is not order-preserving: %v", encoded)
	}
	for i, v := range values {
		got, err := c.FromBytes(encoded[i])
		if err != nil || got != v {
			t.Fatalf("round-trip mismatch: got %d, %v want %d, nil", got, err, v)
		}
	}
	if c.FixedLen() != 8 {
		t.Fatalf("Int64Codec.FixedLen() = %d, want 8", c.FixedLen())
	}
	if _, err := c.FromBytes([]byte{1, 2, 3}); !errors.Is(err, ErrInvalidEncoding) {
		t.Fatalf("FromBytes on wrong-length input should return ErrInvalidEncoding, got %v", err)
	}
}

func TestUint64CodecRoundTrip(t *testing.T) {
	var c Uint64Codec
	for _, v := range []uint64{0, 1, 1 << 63, ^uint64(0)} {
		b := c.ToBytes(v)
		if len(b) != 8 {
			t.Fatalf("expected 8-byte encoding, got %d", len(b))
		}
		got, err := c.FromBytes(b)
		if err != nil || got != v {
			t.Fatalf("round-trip mismatch: got %d, %v want %d, nil", got, err, v)
		}
	}
}

func TestInt32AndInt64AgreeOnSharedValues(t *testing.T) {
	var c32 Int32Codec
	var c64 Int64Codec
	var prev32, prev64 []byte
	for _, v := range []int64{-500, 0, 500} {
		b32 := c32.ToBytes(int32(v))
		b64 := c64.ToBytes(v)
		// widths differ, but the order-preserving offset trick must agree
		// on relative order for values that fit both widths.
		if prev32 != nil && (bytes.Compare(prev32, b32) >= 0 || bytes.Compare(prev64, b64) >= 0) {
			t.Fatalf("encodings of %d do not sort after the previous value in both widths", v)
		}
		prev32, prev64 = b32, b64
		got32, err := c32.FromBytes(b32)
		if err != nil || int64(got32) != v {
			t.Fatalf("int32 round-trip mismatch: got %d, %v want %d, nil", got32, err, v)
		}
		got64, err := c64.FromBytes(b64)
		if err != nil || got64 != v {
			t.Fatalf("int64 round-trip mismatch: got %d, %v want %d, nil", got64, err, v)
		}
	}
}

func TestInt16AndUint16Codecs(t *testing.T) {
	var c Int16Codec
	values := []int16{-1 << 14, -1000, -1, 0, 1, 1000, 1<<14 - 1}
	encoded := make([][]byte, len(values))
	for i, v := range values {
		encoded[i] = c.ToBytes(v)
	}
	if !sort.SliceIsSorted(encoded, func(i, j int) bool {
		return bytes.Compare(encoded[i], encoded[j]) < 0
	}) {
		t.Fatalf("Int16Codec encoding is not order-preserving: %v", encoded)
	}
	for i, v := range values {
		got, err := c.FromBytes(encoded[i])
		if err != nil || got != v {
			t.Fatalf("round-trip mismatch: got %d, %v want %d, nil", got, err, v)
		}
	}
	if c.FixedLen() != 2 {
		t.Fatalf("Int16Codec.FixedLen() = %d, want 2", c.FixedLen())
	}

	var u Uint16Codec
	for _, v := range []uint16{0, 1, 1 << 15, ^uint16(0)} {
		b := u.ToBytes(v)
		if len(b) != 2 {
			t.Fatalf("expected 2-byte encoding, got %d", len(b))
		}
		got, err := u.FromBytes(b)
		if err != nil || got != v {
			t.Fatalf("round-trip mismatch: got %d, %v want %d, nil", got, err, v)
		}
	}
}

func TestInt8AndUint8Codecs(t *testing.T) {
	var c Int8Codec
	values := []int8{-128, -1, 0, 1, 127}
	encoded := make([][]byte, len(values))
	for i, v := range values {
		encoded[i] = c.ToBytes(v)
	}
	if !sort.SliceIsSorted(encoded, func(i, j int) bool {
		return bytes.Compare(encoded[i], encoded[j]) < 0
	}) {
		t.Fatalf("Int8Codec encoding is not order-preserving: %v", encoded)
	}
	for i, v := range values {
		got, err := c.FromBytes(encoded[i])
		if err != nil || got != v {
			t.Fatalf("round-trip mismatch: got %d, %v want %d, nil", got, err, v)
		}
	}
	if c.FixedLen() != 1 {
		t.Fatalf("Int8Codec.FixedLen() = %d, want 1", c.FixedLen())
	}

	var u Uint8Codec
	for _, v := range []uint8{0, 1, 127, 255} {
		b := u.ToBytes(v)
		if len(b) != 1 {
			t.Fatalf("expected 1-byte encoding, got %d", len(b))
		}
		got, err := u.FromBytes(b)
		if err != nil || got != v {
			t.Fatalf("round-trip mismatch: got %d, %v want %d, nil", got, err, v)
		}
	}
	if _, err := u.FromBytes([]byte{1, 2}); !errors.Is(err, ErrInvalidEncoding) {
		t.Fatalf("FromBytes on wrong-length input should return ErrInvalidEncoding, got %v", err)
	}
}

func TestFloat64CodecOrderPreserving(t *testing.T) {
	var c Float64Codec
	values := []float64{-100.5, -1, -0.0001, 0, 0.0001, 1, 100.5}
	encoded := make([][]byte, len(values))
	for i, v := range values {
		encoded[i] = c.ToBytes(v)
	}
	if !sort.SliceIsSorted(encoded, func(i, j int) bool {
		return bytes.Compare(encoded[i], encoded[j]) < 0
	}) {
		t.Fatalf("Float64Codec encoding is not order-preserving: %v", values)
	}
	for i, v := range values {
		got, err := c.FromBytes(encoded[i])
		if err != nil || got != v {
			t.Fatalf("round-trip mismatch: got %v, %v want %v, nil", got, err, v)
		}
	}
}

func TestBytesCodecCopiesInput(t *testing.T) {
	src := []byte{1, 2, 3}
	var c BytesCodec
	enc := c.ToBytes(src)
	src[0] = 9
	if bytes.Equal(enc, src) {
		t.Fatalf("BytesCodec.ToBytes did not copy input")
	}
	if c.FixedLen() != 0 {
		t.Fatalf("BytesCodec.FixedLen() = %d, want 0", c.FixedLen())
	}
}
