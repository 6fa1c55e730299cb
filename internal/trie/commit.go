package trie

import (
	"bytes"
	"sync/atomic"
)

// This file is the speculative commit layer: probe outside the lock,
// allocate the replacement outside the lock, then validate and commit
// inside a brief critical section. Both insert and erase attempt this
// fast path first; DEMOTE_LEAF_LIST and ADD_EOS_LEAF_LIST always route to
// the slow fallback, and this implementation extends the same routing to
// every case whose replacement depends on more than one level of the
// tree (the merge/collapse family) — those always take the
// always-correct recursive path under the lock instead, since validating
// a multi-level speculative build adds little but complexity once a lock
// is being taken anyway.

func childSlotFor[V any](parent *Node[V], edge byte) slot[V] {
	switch parent.kindOf() {
	case kindListInterior:
		li := parent.asListInterior()
		i := li.labels.find(edge)
		return listChildSlot(li, i)
	case kindFullInterior:
		return fullChildSlot(parent.asFullInterior(), edge)
	default:
		panic("childSlotFor on leaf node")
	}
}

// insertPlan is the result of an out-of-lock probe: everything needed to
// validate and commit (or discard and retry) under the lock.
type insertPlan[V any] struct {
	path           []pathEntry[V]
	parent         *Node[V]
	parentSnap     snapshot
	slot           slot[V]
	target         *Node[V]
	targetSnap     snapshot
	suffixAtTarget []byte
	caseTag        insertCase
	replacement    *Node[V]
	edge           byte
	tail           []byte
	value          V
}

func probeInsert[V any](rootSlot slot[V], key []byte, value V) (plan insertPlan[V], retry bool) {
	root := rootSlot.load()
	if root == nil {
		return insertPlan[V]{slot: rootSlot, caseTag: caseEmptyTree, value: value}, false
	}

	var path []pathEntry[V]
	var parent *Node[V]
	var parentSnap snapshot
	curSlot := rootSlot
	n := root
	suffix := key

	for {
		snap := n.hdr.load()
		if snap.poisoned() || len(path) >= maxPathDepth {
			return insertPlan[V]{}, true
		}

		if n.isLeaf() {
			c, replacement, _ := insertIntoLeaf(n, suffix, value)
			return insertPlan[V]{
				path: path, parent: parent, parentSnap: parentSnap, slot: curSlot,
				target: n, targetSnap: snap, suffixAtTarget: suffix,
				caseTag: c, replacement: replacement, value: value,
			}, false
		}

		c, replacement, edge, tail, _ := insertIntoInterior(n, suffix, value)
		if c != caseDescend {
			return insertPlan[V]{
				path: path, parent: parent, parentSnap: parentSnap, slot: curSlot,
				target: n, targetSnap: snap, suffixAtTarget: suffix,
				caseTag: c, replacement: replacement, edge: edge, tail: tail, value: value,
			}, false
		}

		path = append(path, pathEntry[V]{node: n, snap: snap})
		parent = n
		parentSnap = snap
		curSlot = childSlotFor(n, edge)
		n = lookupChild(n, edge)
		suffix = tail
	}
}

// commitInsert validates plan under the write lock and, if still valid,
// applies it. It reports whether the commit succeeded (false means the
// path changed underneath the probe and the caller should retry).
func commitInsert[V any](plan insertPlan[V], size *counter, e *ebr[V]) bool {
	for _, pe := range plan.path {
		if !pe.node.hdr.validate(pe.snap) {
			return false
		}
	}
	if plan.target != nil {
		if plan.slot.load() != plan.target || !plan.target.hdr.validate(plan.targetSnap) {
			return false
		}
	} else if plan.slot.load() != nil {
		return false
	}

	switch plan.caseTag {
	case caseInPlaceLeaf:
		label := plan.suffixAtTarget[len(plan.target.skip()):][0]
		applyLeafLabelInsert(plan.target, label, plan.value)
	case caseInPlaceInterior:
		if len(plan.suffixAtTarget) == len(plan.target.skip()) {
			applySetEOS(plan.target, plan.value)
		} else {
			newChild := newSkipLeaf(plan.tail, plan.value)
			if rep := applyAddChild(plan.target, plan.edge, newChild); rep != nil {
				publishReplacement(plan.slot, plan.parent, rep, plan.target, e)
			}
		}
	case caseAddChildConvert:
		newChild := newSkipLeaf(plan.tail, plan.value)
		rep := applyAddChild(plan.target, plan.edge, newChild)
		publishReplacement(plan.slot, plan.parent, rep, plan.target, e)
	default:
		publishReplacement(plan.slot, plan.parent, plan.replacement, plan.target, e)
	}
	size.add(1)
	e.bumpEpoch()
	return true
}

// publishReplacement unpoisons rep, stores it into slot, bumps the owning
// parent's version (if any — the trie root pointer has no owning header),
// and retires the displaced node.
func publishReplacement[V any](slot slot[V], parent *Node[V], rep *Node[V], displaced *Node[V], e *ebr[V]) {
	rep.hdr.unpoison()
	slot.store(rep)
	if parent != nil {
		parent.hdr.bump()
	}
	if displaced != nil {
		e.retire(displaced)
	}
}

// erasePlan mirrors insertPlan for the erase fast path, which only covers
// IN_PLACE_LEAF_LIST/_FULL (removing one label from a multi-entry leaf) —
// every other erase case can cascade into a merge/collapse that spans more
// than one level, so it always takes the recursive fallback.
type erasePlan[V any] struct {
	path   []pathEntry[V]
	target *Node[V]
	snap   snapshot
	label  byte
	fast   bool // true: eligible for in-place fast commit
	found  bool
}

func probeErase[V any](rootSlot slot[V], key []byte) (plan erasePlan[V], retry bool) {
	root := rootSlot.load()
	n := root
	suffix := key
	var path []pathEntry[V]

	for {
		if n == nil {
			return erasePlan[V]{found: false}, false
		}
		snap := n.hdr.load()
		if snap.poisoned() || len(path) >= maxPathDepth {
			return erasePlan[V]{}, true
		}
		skip := n.skip()
		if !bytes.HasPrefix(suffix, skip) {
			return erasePlan[V]{found: false}, false
		}
		rest := suffix[len(skip):]

		if n.isLeaf() {
			switch n.kindOf() {
			case kindSkipLeaf:
				return erasePlan[V]{found: len(rest) == 0}, false
			case kindListLeaf:
				if len(rest) != 1 {
					return erasePlan[V]{found: false}, false
				}
				ll := n.asListLeaf()
				if ll.labels.find(rest[0]) < 0 {
					return erasePlan[V]{found: false}, false
				}
				fast := ll.labels.count() > 1
				return erasePlan[V]{path: path, target: n, snap: snap, label: rest[0], fast: fast, found: true}, false
			case kindFullLeaf:
				if len(rest) != 1 {
					return erasePlan[V]{found: false}, false
				}
				fl := n.asFullLeaf()
				if !fl.bitmap.test(rest[0]) {
					return erasePlan[V]{found: false}, false
				}
				fast := fl.bitmap.count() > 1
				return erasePlan[V]{path: path, target: n, snap: snap, label: rest[0], fast: fast, found: true}, false
			}
		}

		if len(rest) == 0 {
			return erasePlan[V]{found: hasEOS(n)}, false
		}
		child := lookupChild(n, rest[0])
		if child == nil {
			return erasePlan[V]{found: false}, false
		}
		path = append(path, pathEntry[V]{node: n, snap: snap})
		suffix = rest[1:]
		n = child
	}
}

func commitErase[V any](plan erasePlan[V], size *counter, e *ebr[V]) (ok bool) {
	for _, pe := range plan.path {
		if !pe.node.hdr.validate(pe.snap) {
			return false
		}
	}
	if !plan.target.hdr.validate(plan.snap) {
		return false
	}
	switch plan.target.kindOf() {
	case kindListLeaf:
		ll := plan.target.asListLeaf()
		i := ll.labels.find(plan.label)
		if i < 0 {
			return false
		}
		ll.labels.removeAt(i)
		n := ll.labels.count()
		for j := i; j < n; j++ {
			ll.values[j] = ll.values[j+1]
		}
		plan.target.hdr.bump()
	case kindFullLeaf:
		fl := plan.target.asFullLeaf()
		fl.bitmap.clear(plan.label)
		plan.target.hdr.bump()
	default:
		return false
	}
	size.add(-1)
	e.bumpEpoch()
	return true
}

// counter is the trie's atomic live-key count, read lock-free by Size()
// and mutated by writers (holding the write lock) on every successful
// insert/erase.
type counter struct{ v atomic.Int64 }

func (c *counter) add(delta int64) { c.v.Add(delta) }
func (c *counter) load() int64     { return c.v.Load() }
