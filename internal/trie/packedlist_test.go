package trie

import "testing"

func TestPackedListAddFindCount(t *testing.T) {
	var p packedList
	if p.count() != 0 {
		t.Fatalf("new packedList count = %d, want 0", p.count())
	}
	labels := []byte{5, 200, 1, 77, 9, 250, 0}
	for _, b := range labels {
		if p.find(b) >= 0 {
			t.Fatalf("label %d should not be found before add", b)
		}
		p.add(b)
	}
	if p.count() != listCap {
		t.Fatalf("count = %d, want %d", p.count(), listCap)
	}
	for i, b := range labels {
		if idx := p.find(b); idx != i {
			t.Fatalf("find(%d) = %d, want %d", b, idx, i)
		}
		if got := p.charAt(i); got != b {
			t.Fatalf("charAt(%d) = %d, want %d", i, got, b)
		}
	}
}

func TestPackedListRemoveAtShiftsLanes(t *testing.T) {
	var p packedList
	labels := []byte{10, 20, 30, 40}
	for _, b := range labels {
		p.add(b)
	}
	p.removeAt(1) // remove 20
	if p.count() != 3 {
		t.Fatalf("count after removeAt = %d, want 3", p.count())
	}
	want := []byte{10, 30, 40}
	for i, b := range want {
		if got := p.charAt(i); got != b {
			t.Fatalf("charAt(%d) after removeAt = %d, want %d", i, got, b)
		}
	}
	if p.find(20) >= 0 {
		t.Fatalf("label 20 should be gone after removeAt")
	}
}

func TestPackedListSetRebuildsFromSlice(t *testing.T) {
	var p packedList
	p.add(1)
	p.add(2)
	p.set([]byte{9, 8, 7})
	if p.count() != 3 {
		t.Fatalf("count after set = %d, want 3", p.count())
	}
	got := p.labels()
	want := []byte{9, 8, 7}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("labels()[%d] = %d, want %d", i, got[i], want[i])
		}
	}
}
