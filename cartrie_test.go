package cartrie

import (
	"fmt"
	"sync"
	"testing"

	set3 "github.com/TomTonic/Set3"
)

func TestInsertFindContains(t *testing.T) {
	m := New[string, int](StringCodec{})
	if _, ok := m.Find("missing"); ok {
		t.Fatalf("Find on empty trie should report not found")
	}
	if _, inserted := m.Insert("one", 1); !inserted {
		t.Fatalf("expected first insert to report inserted")
	}
	if v, ok := m.Find("one"); !ok || v != 1 {
		t.Fatalf("Find(one) = %v, %v; want 1, true", v, ok)
	}
	if !m.Contains("one") {
		t.Fatalf("Contains(one) should be true")
	}
	if existing, inserted := m.Insert("one", 2); inserted || existing != 1 {
		t.Fatalf("duplicate insert should report the existing value 1, got %v, %v", existing, inserted)
	}
	if m.Size() != 1 {
		t.Fatalf("Size() = %d, want 1", m.Size())
	}
}

func TestEraseRemovesKey(t *testing.T) {
	m := New[string, int](StringCodec{})
	m.Insert("a", 1)
	m.Insert("ab", 2)
	m.Insert("abc", 3)
	if !m.Erase("ab") {
		t.Fatalf("Erase(ab) should report true")
	}
	if m.Contains("ab") {
		t.Fatalf("ab should be gone after Erase")
	}
	if !m.Contains("a") || !m.Contains("abc") {
		t.Fatalf("erasing ab should not disturb a or abc")
	}
	if m.Erase("ab") {
		t.Fatalf("erasing an already-absent key should report false")
	}
}

func TestSharedPrefixesSplitAndMerge(t *testing.T) {
	m := New[string, int](StringCodec{})
	keys := []string{"team", "tea", "ted", "ten", "to", "i", "in", "inn"}
	for i, k := range keys {
		if _, inserted := m.Insert(k, i); !inserted {
			t.Fatalf("insert %q should be new", k)
		}
	}
	for i, k := range keys {
		if v, ok := m.Find(k); !ok || v != i {
			t.Fatalf("Find(%q) = %v, %v; want %d, true", k, v, ok, i)
		}
	}
	// erase in reverse, verifying every remaining key stays reachable —
	// exercises both the skip-leaf collapse and the interior merge path.
	for i := len(keys) - 1; i >= 0; i-- {
		k := keys[i]
		if !m.Erase(k) {
			t.Fatalf("Erase(%q) should report true", k)
		}
		for j := 0; j < i; j++ {
			if !m.Contains(keys[j]) {
				t.Fatalf("after erasing %q, %q should still be present", k, keys[j])
			}
		}
	}
	if !m.Empty() {
		t.Fatalf("trie should be empty after erasing every key")
	}
}

func TestClearResetsTrie(t *testing.T) {
	m := New[int64, string](Int64Codec{})
	for i := int64(0); i < 50; i++ {
		m.Insert(i, fmt.Sprintf("v%d", i))
	}
	m.Clear()
	if m.Size() != 0 {
		t.Fatalf("Size() after Clear = %d, want 0", m.Size())
	}
	if m.Contains(0) {
		t.Fatalf("trie should contain no keys after Clear")
	}
}

func TestCloneIsIndependent(t *testing.T) {
	m := New[string, int](StringCodec{})
	m.Insert("x", 1)
	clone := m.Clone()
	m.Insert("y", 2)
	clone.Insert("z", 3)
	if clone.Contains("y") {
		t.Fatalf("clone should not see keys inserted into the source after Clone")
	}
	if m.Contains("z") {
		t.Fatalf("source should not see keys inserted into the clone")
	}
	if !clone.Contains("x") {
		t.Fatalf("clone should retain keys present at Clone time")
	}
}

func TestReclaimRetiredDoesNotLoseKeys(t *testing.T) {
	m := New[int64, int64](Int64Codec{})
	for i := int64(0); i < 300; i++ {
		m.Insert(i, i)
	}
	for i := int64(0); i < 300; i += 2 {
		m.Erase(i)
	}
	m.ReclaimRetired()
	for i := int64(0); i < 300; i++ {
		want := i%2 != 0
		if got := m.Contains(i); got != want {
			t.Fatalf("Contains(%d) = %v, want %v", i, got, want)
		}
	}
}

// TestConcurrentReadersDuringWrites runs readers and writers concurrently
// against one trie and cross-checks the final membership against an
// independent Set3 built up under its own lock, the same role the original
// implementation's reference set plays in its own concurrency stress test.
func TestConcurrentReadersDuringWrites(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping concurrency stress test in short mode")
	}
	m := New[int64, int64](Int64Codec{})
	const writers = 4
	const perWriter = 500

	reference := set3.Empty[int64]()
	var refMu sync.Mutex

	var readersWG, writersWG sync.WaitGroup
	stopReaders := make(chan struct{})

	for r := 0; r < 8; r++ {
		readersWG.Add(1)
		go func() {
			defer readersWG.Done()
			for {
				select {
				case <-stopReaders:
					return
				default:
				}
				for k := int64(0); k < writers*perWriter; k += 37 {
					m.Contains(k)
				}
			}
		}()
	}

	for w := 0; w < writers; w++ {
		writersWG.Add(1)
		go func(base int64) {
			defer writersWG.Done()
			for i := int64(0); i < perWriter; i++ {
				key := base*perWriter + i
				m.Insert(key, key)
				refMu.Lock()
				reference.Add(key)
				refMu.Unlock()
			}
		}(int64(w))
	}

	writersWG.Wait()
	close(stopReaders)
	readersWG.Wait()

	actual := set3.Empty[int64]()
	for k := int64(0); k < writers*perWriter; k++ {
		if m.Contains(k) {
			actual.Add(k)
		}
	}
	if !actual.Equals(reference) {
		t.Fatalf("trie membership diverged from the independent reference set")
	}
}
