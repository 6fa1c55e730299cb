package trie

import (
	"sync/atomic"

	"github.com/dolthub/maphash"
	"golang.org/x/sys/cpu"
)

// readerSlots is the fixed size of the padded reader-slot array.
const readerSlots = 16

// writerCleanupThreshold/readerCleanupThreshold gate when a writer or a
// reader, respectively, runs cleanup. Not load-bearing for correctness —
// tunable per deployment.
const (
	writerCleanupThreshold = 64
	readerCleanupThreshold = 128
)

// readerSlot is one cache-line-padded atomic epoch value. A nonzero value
// means a reader is active with that epoch published; zero means
// inactive. Padding avoids false sharing between adjacent slots under
// concurrent reader churn.
type readerSlot struct {
	epoch atomic.Uint64
	_     cpu.CacheLinePad
}

// ebr holds the per-trie epoch-based-reclamation state: the epoch counter,
// the reader-slot array, and the lock-free retired list. One ebr[V] lives
// inside each Trie[V]; nothing here is process-global.
type ebr[V any] struct {
	epoch   atomic.Uint64
	slots   [readerSlots]readerSlot
	retired atomic.Pointer[Node[V]] // head of the MPSC retired stack
	count   atomic.Int64            // approximate length, for thresholds
	hasher  maphash.Hasher[uintptr]
}

func newEBR[V any]() *ebr[V] {
	e := &ebr[V]{hasher: maphash.NewHasher[uintptr]()}
	e.epoch.Store(1)
	return e
}

// slotFor hashes a thread-identity proxy (the address of a stack-local
// variable at the guard's call site) modulo the slot count. Collisions
// across goroutines are safe by construction: the older epoch wins,
// which delays reclamation but never endangers safety.
func (e *ebr[V]) slotFor(identity uintptr) *readerSlot {
	h := e.hasher.Hash(identity)
	return &e.slots[h%uint64(readerSlots)]
}

// readerGuard is the RAII-style handle a reader holds for the duration of
// one operation.
type readerGuard[V any] struct {
	e    *ebr[V]
	slot *readerSlot
}

// enter publishes the current epoch into this reader's slot. stackAddr
// should be the address of a variable local to the caller's stack frame —
// used only as a fast, collision-tolerant hash seed, never dereferenced.
func (e *ebr[V]) enter(stackAddr uintptr) readerGuard[V] {
	slot := e.slotFor(stackAddr)
	slot.epoch.Store(e.epoch.Load())
	return readerGuard[V]{e: e, slot: slot}
}

func (g readerGuard[V]) exit() {
	g.slot.epoch.Store(0)
}

func (e *ebr[V]) currentEpoch() uint64 { return e.epoch.Load() }

// bumpEpoch advances the global epoch with AcqRel ordering (atomic.Add on
// the Go memory model gives the needed ordering without an explicit
// fence), establishing the happens-before edge a validated reader relies
// on.
func (e *ebr[V]) bumpEpoch() uint64 { return e.epoch.Add(1) }

// minReaderEpoch scans the reader slots and returns the minimum active
// (nonzero) epoch, or the current epoch if no reader is active.
func (e *ebr[V]) minReaderEpoch() uint64 {
	min := e.epoch.Load()
	for i := range e.slots {
		ep := e.slots[i].epoch.Load()
		if ep != 0 && ep < min {
			min = ep
		}
	}
	return min
}

// retire poisons n (severing it from any reader's future traversal and
// ensuring its eventual dealloc only severs, never recursively frees, its
// children — those may now be borrowed by the node that displaced it) and
// pushes it onto the lock-free retired list tagged with the current epoch.
func (e *ebr[V]) retire(n *Node[V]) {
	n.hdr.poison()
	n.retireEpoch = e.epoch.Load()
	for {
		head := e.retired.Load()
		n.retireNext = head
		if e.retired.CompareAndSwap(head, n) {
			e.count.Add(1)
			return
		}
	}
}

// shouldCleanup reports whether the retired count has passed the given
// threshold.
func (e *ebr[V]) shouldCleanup(threshold int64) bool {
	return e.count.Load() > threshold
}

// cleanup claims the entire retired list via Swap(nil), partitions it into
// "safe to free" (retireEpoch+2 <= minEpoch) and "still needed", frees the
// safe set, and re-pushes the kept set. dealloc is supplied by the Trie so
// this package stays agnostic of variant-specific teardown.
func (e *ebr[V]) cleanup(dealloc func(*Node[V])) {
	head := e.retired.Swap(nil)
	if head == nil {
		return
	}
	minEpoch := e.minReaderEpoch()
	var keepHead, keepTail *Node[V]
	var freed int64
	for n := head; n != nil; {
		next := n.retireNext
		if n.retireEpoch+2 <= minEpoch {
			dealloc(n)
			freed++
		} else {
			n.retireNext = nil
			if keepHead == nil {
				keepHead = n
				keepTail = n
			} else {
				keepTail.retireNext = n
				keepTail = n
			}
		}
		n = next
	}
	e.count.Add(-freed)
	if keepHead == nil {
		return
	}
	// Re-push the kept sublist as a unit: splice it onto whatever the
	// retired stack has grown to since Swap(nil).
	for {
		cur := e.retired.Load()
		keepTail.retireNext = cur
		if e.retired.CompareAndSwap(cur, keepHead) {
			return
		}
	}
}

// drainAll unconditionally frees every retired node, used by Clear and at
// destruction time when no readers can remain.
func (e *ebr[V]) drainAll(dealloc func(*Node[V])) {
	head := e.retired.Swap(nil)
	var n int64
	for cur := head; cur != nil; {
		next := cur.retireNext
		dealloc(cur)
		cur = next
		n++
	}
	e.count.Add(-n)
}
