package trie

import "bytes"

// eraseCase names the structural transition an erase probe classified.
type eraseCase uint8

const (
	caseNotFound eraseCase = iota
	caseInPlaceLeafList
	caseDeleteSkipLeaf
	caseDeleteLastLeafEntry
	caseDeleteEOSInterior
	caseDeleteChildNoCollapse
	caseDeleteChildCollapse
	caseEraseDescend
)

// eraseRecursive is the always-correct recursive implementation of erase,
// including the merge rule that restores path compression. It runs to
// completion while the caller holds the write mutex, so — like
// insertRecursive — it never aborts.
//
// It returns the (possibly nil, possibly unchanged) subtree root, the
// nodes to retire, the removed value, and whether a key was removed.
func eraseRecursive[V any](root *Node[V], suffix []byte) (*Node[V], []*Node[V], V, bool) {
	var zero V
	if root == nil {
		return nil, nil, zero, false
	}

	skip := root.skip()
	if !bytes.HasPrefix(suffix, skip) {
		return root, nil, zero, false
	}
	rest := suffix[len(skip):]

	if root.isLeaf() {
		switch root.kindOf() {
		case kindSkipLeaf:
			if len(rest) != 0 {
				return root, nil, zero, false
			}
			return nil, []*Node[V]{root}, root.asSkipLeaf().value, true
		case kindListLeaf, kindFullLeaf:
			if len(rest) != 1 {
				return root, nil, zero, false
			}
			return eraseLeafLabel(root, rest[0])
		default:
			panic("unreachable leaf kind")
		}
	}

	if len(rest) == 0 {
		if !hasEOS(root) {
			return root, nil, zero, false
		}
		removed := eosValue(root)
		clearEOS(root)
		if childCount(root) == 1 && !hasEOS(root) {
			edge, child := soleChild(root)
			merged := mergeNodes(root, edge, child)
			return merged, []*Node[V]{root, child}, removed, true
		}
		root.hdr.bump()
		return root, nil, removed, true
	}

	edge, tail := rest[0], rest[1:]
	child := lookupChild(root, edge)
	if child == nil {
		return root, nil, zero, false
	}
	newChild, retired, removedVal, removed := eraseRecursive(child, tail)
	if !removed {
		return root, nil, zero, false
	}

	if newChild == nil {
		remaining := childCount(root) - 1
		if remaining == 0 && !hasEOS(root) {
			return nil, append(retired, root), removedVal, true
		}
		if remaining == 1 && !hasEOS(root) {
			removeChildInPlace(root, edge) // drop before locating the sole survivor
			survivorEdge, survivorChild := soleChild(root)
			merged := mergeNodes(root, survivorEdge, survivorChild)
			return merged, append(retired, root), removedVal, true
		}
		removeChildInPlace(root, edge)
		root.hdr.bump()
		return root, retired, removedVal, true
	}

	if newChild != child {
		storeChildInPlace(root, edge, newChild)
		root.hdr.bump()
	}
	return root, retired, removedVal, true
}

func eraseLeafLabel[V any](leaf *Node[V], label byte) (*Node[V], []*Node[V], V, bool) {
	var zero V
	switch leaf.kindOf() {
	case kindListLeaf:
		ll := leaf.asListLeaf()
		i := ll.labels.find(label)
		if i < 0 {
			return leaf, nil, zero, false
		}
		val := ll.values[i]
		if ll.labels.count() == 1 {
			return nil, []*Node[V]{leaf}, val, true
		}
		ll.labels.removeAt(i)
		// shift stored values to match removeAt's lane shift
		n := ll.labels.count()
		for j := i; j < n; j++ {
			ll.values[j] = ll.values[j+1]
		}
		leaf.hdr.bump()
		return leaf, nil, val, true
	case kindFullLeaf:
		fl := leaf.asFullLeaf()
		if !fl.bitmap.test(label) {
			return leaf, nil, zero, false
		}
		val := fl.values[label]
		if fl.bitmap.count() == 1 {
			return nil, []*Node[V]{leaf}, val, true
		}
		fl.bitmap.clear(label)
		leaf.hdr.bump()
		return leaf, nil, val, true
	default:
		panic("eraseLeafLabel on non-list-leaf node")
	}
}

func childCount[V any](node *Node[V]) int {
	switch node.kindOf() {
	case kindListInterior:
		return node.asListInterior().labels.count()
	case kindFullInterior:
		return node.asFullInterior().bitmap.count()
	default:
		return 0
	}
}

func eosValue[V any](node *Node[V]) V {
	switch node.kindOf() {
	case kindListInterior:
		return node.asListInterior().eos
	case kindFullInterior:
		return node.asFullInterior().eos
	default:
		var zero V
		return zero
	}
}

func clearEOS[V any](node *Node[V]) {
	switch node.kindOf() {
	case kindListInterior:
		node.asListInterior().hasEOS.Store(false)
	case kindFullInterior:
		node.asFullInterior().hasEOS.Store(false)
	}
}

// soleChild returns the (edge, child) pair of the single remaining child
// of an interior node known to have exactly one.
func soleChild[V any](node *Node[V]) (byte, *Node[V]) {
	switch node.kindOf() {
	case kindListInterior:
		li := node.asListInterior()
		return li.labels.charAt(0), li.children[0].Load()
	case kindFullInterior:
		fi := node.asFullInterior()
		b, _ := fi.bitmap.first()
		return b, fi.children[b].Load()
	default:
		panic("soleChild on leaf node")
	}
}

func removeChildInPlace[V any](node *Node[V], edge byte) {
	switch node.kindOf() {
	case kindListInterior:
		li := node.asListInterior()
		i := li.labels.find(edge)
		n := li.labels.count()
		for j := i; j < n-1; j++ {
			li.children[j].Store(li.children[j+1].Load())
		}
		li.children[n-1].Store(nil)
		li.labels.removeAt(i)
	case kindFullInterior:
		fi := node.asFullInterior()
		fi.children[edge].Store(nil)
		fi.bitmap.clear(edge)
	}
}

// mergeNodes restores path compression: given an interior P with exactly
// one surviving child C and no end-of-string, produces a
// single node whose skip is P.skip · edge(C) · C.skip and whose payload is
// C's payload.
func mergeNodes[V any](p *Node[V], edge byte, c *Node[V]) *Node[V] {
	newSkip := make([]byte, 0, len(p.skip())+1+len(c.skip()))
	newSkip = append(newSkip, p.skip()...)
	newSkip = append(newSkip, edge)
	newSkip = append(newSkip, c.skip()...)

	switch c.kindOf() {
	case kindSkipLeaf:
		return newSkipLeaf(newSkip, c.asSkipLeaf().value)
	case kindListLeaf:
		cl := c.asListLeaf()
		out := newListLeaf[V](newSkip)
		out.labels.set(cl.labels.labels())
		n := cl.labels.count()
		for i := 0; i < n; i++ {
			out.values[i] = cl.values[i]
		}
		return out.asNode()
	case kindFullLeaf:
		cl := c.asFullLeaf()
		out := newFullLeaf[V](newSkip)
		words := cl.bitmap.snapshotWords()
		out.bitmap.w[0].Store(words[0])
		out.bitmap.w[1].Store(words[1])
		out.bitmap.w[2].Store(words[2])
		out.bitmap.w[3].Store(words[3])
		cl.bitmap.forEachSet(func(b byte) { out.values[b] = cl.values[b] })
		return out.asNode()
	case kindListInterior:
		ci := c.asListInterior()
		out := newListInterior[V](newSkip)
		out.labels.set(ci.labels.labels())
		n := ci.labels.count()
		for i := 0; i < n; i++ {
			out.children[i].Store(ci.children[i].Load())
		}
		if ci.hasEOS.Load() {
			out.hasEOS.Store(true)
			out.eos = ci.eos
		}
		return out.asNode()
	case kindFullInterior:
		ci := c.asFullInterior()
		out := newFullInterior[V](newSkip)
		words := ci.bitmap.snapshotWords()
		out.bitmap.w[0].Store(words[0])
		out.bitmap.w[1].Store(words[1])
		out.bitmap.w[2].Store(words[2])
		out.bitmap.w[3].Store(words[3])
		ci.bitmap.forEachSet(func(b byte) { out.children[b].Store(ci.children[b].Load()) })
		if ci.hasEOS.Load() {
			out.hasEOS.Store(true)
			out.eos = ci.eos
		}
		return out.asNode()
	default:
		panic("unreachable node kind in mergeNodes")
	}
}
