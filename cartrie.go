// Package cartrie implements a concurrent ordered associative container: a
// path-compressed radix trie over byte-string keys, supporting lock-free
// optimistic reads concurrent with a single serialized writer, reclaiming
// displaced nodes via epoch-based reclamation once no reader can still
// observe them.
//
// Keys of any type are supported through a KeyCodec that encodes them to
// an order-preserving byte representation; BytesCodec, StringCodec, and
// the fixed-width integer/float codecs cover the common cases.
package cartrie

import (
	"github.com/tktrie/cartrie/internal/trie"
)

// Trie is a concurrent ordered map from K to V. The zero value is not
// usable; construct one with New.
//
// All exported methods are safe for concurrent use by multiple goroutines.
// Reads (Find, Contains, Size) run without the write lock; Find and
// Contains take it only as a fallback, after their optimistic read has
// failed validation Options.ReadValidationRetries times in a row. Writes
// (Insert, Erase) are serialized against each other.
type Trie[K any, V any] struct {
	codec KeyCodec[K]
	inner *trie.Trie[V]
}

// New constructs an empty Trie using codec to encode keys and the default
// tuning options.
func New[K any, V any](codec KeyCodec[K]) *Trie[K, V] {
	return NewWithOptions[K, V](codec, DefaultOptions())
}

// Options configures a Trie's concurrency tuning knobs. None of these
// affect observable behavior, only contention and reclamation latency.
type Options = trie.Options

// DefaultOptions returns the suggested tuning values (7 commit retries, 16
// reader slots, cleanup thresholds of 64/128). These are not load-bearing
// for correctness, only for contention and reclamation latency.
func DefaultOptions() Options { return trie.DefaultOptions() }

// NewWithOptions constructs an empty Trie with explicit tuning options.
func NewWithOptions[K any, V any](codec KeyCodec[K], opts Options) *Trie[K, V] {
	return &Trie[K, V]{codec: codec, inner: trie.New[V](opts)}
}

// Size returns the number of keys currently stored.
func (t *Trie[K, V]) Size() int64 { return t.inner.Size() }

// Empty reports whether the trie holds no keys.
func (t *Trie[K, V]) Empty() bool { return t.inner.Empty() }

// Contains reports whether key is present.
func (t *Trie[K, V]) Contains(key K) bool {
	return t.inner.Contains(t.codec.ToBytes(key))
}

// Find looks up key and reports whether it was present.
func (t *Trie[K, V]) Find(key K) (V, bool) {
	return t.inner.Find(t.codec.ToBytes(key))
}

// Insert adds key -> value if key is absent. It reports whether the key
// was newly inserted; on a duplicate key the existing value is left
// untouched and the found value is returned instead — Insert never
// overwrites.
func (t *Trie[K, V]) Insert(key K, value V) (existing V, inserted bool) {
	encoded := t.codec.ToBytes(key)
	return t.inner.Insert(encoded, value)
}

// Erase removes key if present, reporting whether it was present.
func (t *Trie[K, V]) Erase(key K) bool {
	return t.inner.Erase(t.codec.ToBytes(key))
}

// Clear removes every key. The caller must ensure no other goroutine is
// concurrently reading or writing the trie — Clear is not itself
// synchronized against in-flight readers.
func (t *Trie[K, V]) Clear() { t.inner.Clear() }

// ReclaimRetired forces an immediate epoch-based-reclamation sweep rather
// than waiting for the usual threshold-triggered cleanup. Intended for
// tests and diagnostics, not the steady-state hot path.
func (t *Trie[K, V]) ReclaimRetired() { t.inner.ReclaimRetired() }

// Clone returns a deep, independent copy of the trie. The caller must
// ensure no writer is concurrently mutating the source trie.
func (t *Trie[K, V]) Clone() *Trie[K, V] {
	return &Trie[K, V]{codec: t.codec, inner: t.inner.Clone()}
}

// Stats reports internal attempt/fast-path/fallback counters, useful for
// tuning Options.MaxRetries against a workload's actual contention.
type Stats = trie.Stats

// Stats returns a snapshot of the trie's internal commit-path counters.
func (t *Trie[K, V]) Stats() Stats { return t.inner.StatsSnapshot() }
