package trie

import "testing"

func TestBitmap256SetGetClear(t *testing.T) {
	var bm bitmap256

	for _, i := range []byte{0, 63, 64, 127, 128, 191, 192, 255} {
		if bm.test(i) {
			t.Fatalf("bit %d should be clear initially", i)
		}
	}

	for _, i := range []byte{0, 1, 63, 64, 100, 200, 255} {
		bm.set(i)
		if !bm.test(i) {
			t.Fatalf("bit %d should be set after set", i)
		}
	}

	for _, i := range []byte{2, 62, 65, 199, 254} {
		if bm.test(i) {
			t.Fatalf("bit %d unexpectedly set", i)
		}
	}

	for _, i := range []byte{0, 63, 200, 255} {
		bm.clear(i)
		if bm.test(i) {
			t.Fatalf("bit %d should be clear after clear", i)
		}
	}
}

func TestBitmap256Count(t *testing.T) {
	var bm bitmap256
	if bm.count() != 0 {
		t.Fatalf("empty bitmap count = %d, want 0", bm.count())
	}
	for _, b := range []byte{1, 64, 128, 200} {
		bm.set(b)
	}
	if bm.count() != 4 {
		t.Fatalf("count = %d, want 4", bm.count())
	}
}

func TestBitmap256FirstAndNextSet(t *testing.T) {
	var bm bitmap256
	if _, ok := bm.first(); ok {
		t.Fatalf("first() on empty bitmap should report false")
	}
	bm.set(5)
	bm.set(130)
	bm.set(255)

	b, ok := bm.first()
	if !ok || b != 5 {
		t.Fatalf("first() = %d, %v; want 5, true", b, ok)
	}
	b, ok = bm.nextSet(5)
	if !ok || b != 130 {
		t.Fatalf("nextSet(5) = %d, %v; want 130, true", b, ok)
	}
	b, ok = bm.nextSet(130)
	if !ok || b != 255 {
		t.Fatalf("nextSet(130) = %d, %v; want 255, true", b, ok)
	}
	if _, ok := bm.nextSet(255); ok {
		t.Fatalf("nextSet(255) should report false, no bits remain")
	}
}

func TestBitmap256IndexOfIsRank(t *testing.T) {
	var bm bitmap256
	for _, b := range []byte{3, 10, 64, 65, 200} {
		bm.set(b)
	}
	want := map[byte]int{3: 0, 10: 1, 64: 2, 65: 3, 200: 4}
	for b, idx := range want {
		if got := bm.indexOf(b); got != idx {
			t.Fatalf("indexOf(%d) = %d, want %d", b, got, idx)
		}
	}
}

func TestBitmap256ForEachSetIsAscending(t *testing.T) {
	var bm bitmap256
	set := []byte{3, 64, 65, 10, 200, 0}
	for _, b := range set {
		bm.set(b)
	}
	var seen []byte
	bm.forEachSet(func(b byte) { seen = append(seen, b) })
	want := []byte{0, 3, 10, 64, 65, 200}
	if len(seen) != len(want) {
		t.Fatalf("forEachSet visited %d bits, want %d", len(seen), len(want))
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Fatalf("forEachSet order mismatch at %d: got %d want %d", i, seen[i], want[i])
		}
	}
}
