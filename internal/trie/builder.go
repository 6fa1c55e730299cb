package trie

import "sync/atomic"

// This file is the node builder: typed allocation for each variant,
// poison-aware deallocation, and deep copy. One constructor-shaped helper
// per variant, generalized from a fixed node-size ladder to a
// five-variant taxonomy.

func newSkipLeaf[V any](skip []byte, value V) *Node[V] {
	n := &SkipLeaf[V]{value: value}
	n.hdr.init(true, true, false)
	n.setSkip(skip)
	return n.asNode()
}

func newListLeaf[V any](skip []byte) *ListLeaf[V] {
	n := &ListLeaf[V]{}
	n.hdr.init(true, false, true)
	n.setSkip(skip)
	return n
}

func newFullLeaf[V any](skip []byte) *FullLeaf[V] {
	n := &FullLeaf[V]{values: new([256]V)}
	n.hdr.init(true, false, false)
	n.setSkip(skip)
	return n
}

func newListInterior[V any](skip []byte) *ListInterior[V] {
	n := &ListInterior[V]{}
	n.hdr.init(false, false, true)
	n.setSkip(skip)
	return n
}

func newFullInterior[V any](skip []byte) *FullInterior[V] {
	n := &FullInterior[V]{children: new([256]atomic.Pointer[Node[V]])}
	n.hdr.init(false, false, false)
	n.setSkip(skip)
	return n
}

// dealloc implements the poison-aware, non-recursive free rule: if the
// node is poisoned, only the node itself is freed (its children are
// borrowed by a still-live ancestor or an uncommitted speculation and must
// not be touched); otherwise children are freed first, then the node. Go
// has a garbage collector, so "freeing" a node means severing its outgoing
// pointers so the collector can reclaim the subtree promptly instead of
// waiting on generational scanning.
func dealloc[V any](root *Node[V]) {
	if root == nil {
		return
	}
	if root.hdr.isPoisoned() {
		severChildren(root)
		return
	}
	switch root.kindOf() {
	case kindSkipLeaf, kindListLeaf, kindFullLeaf:
		// leaves own no child pointers
	case kindListInterior:
		li := root.asListInterior()
		n := li.labels.count()
		for i := 0; i < n; i++ {
			dealloc(li.children[i].Load())
			li.children[i].Store(nil)
		}
	case kindFullInterior:
		fi := root.asFullInterior()
		fi.bitmap.forEachSet(func(b byte) {
			dealloc(fi.children[b].Load())
			fi.children[b].Store(nil)
		})
	}
}

// severChildren drops outgoing pointers without recursing, used when a
// poisoned node is freed: its children are borrowed, so only the
// references are cut, never the subtree itself.
func severChildren[V any](root *Node[V]) {
	switch root.kindOf() {
	case kindListInterior:
		li := root.asListInterior()
		n := li.labels.count()
		for i := 0; i < n; i++ {
			li.children[i].Store(nil)
		}
	case kindFullInterior:
		fi := root.asFullInterior()
		fi.bitmap.forEachSet(func(b byte) {
			fi.children[b].Store(nil)
		})
	}
}

// deepCopy produces an isolated clone of the subtree rooted at n, used by
// the single-threaded initialization copy path (Trie.Clone). No sharing
// with the source tree; every node is freshly allocated.
func deepCopy[V any](n *Node[V]) *Node[V] {
	if n == nil {
		return nil
	}
	switch n.kindOf() {
	case kindSkipLeaf:
		sl := n.asSkipLeaf()
		return newSkipLeaf(append([]byte(nil), n.skip()...), sl.value)
	case kindListLeaf:
		ll := n.asListLeaf()
		out := newListLeaf[V](append([]byte(nil), n.skip()...))
		out.labels.set(ll.labels.labels())
		count := ll.labels.count()
		for i := 0; i < count; i++ {
			out.values[i] = ll.values[i]
		}
		return out.asNode()
	case kindFullLeaf:
		fl := n.asFullLeaf()
		out := newFullLeaf[V](append([]byte(nil), n.skip()...))
		words := fl.bitmap.snapshotWords()
		out.bitmap.w[0].Store(words[0])
		out.bitmap.w[1].Store(words[1])
		out.bitmap.w[2].Store(words[2])
		out.bitmap.w[3].Store(words[3])
		fl.bitmap.forEachSet(func(b byte) {
			out.values[b] = fl.values[b]
		})
		return out.asNode()
	case kindListInterior:
		li := n.asListInterior()
		out := newListInterior[V](append([]byte(nil), n.skip()...))
		out.labels.set(li.labels.labels())
		count := li.labels.count()
		for i := 0; i < count; i++ {
			out.children[i].Store(deepCopy(li.children[i].Load()))
		}
		if li.hasEOS.Load() {
			out.hasEOS.Store(true)
			out.eos = li.eos
		}
		return out.asNode()
	case kindFullInterior:
		fi := n.asFullInterior()
		out := newFullInterior[V](append([]byte(nil), n.skip()...))
		words := fi.bitmap.snapshotWords()
		out.bitmap.w[0].Store(words[0])
		out.bitmap.w[1].Store(words[1])
		out.bitmap.w[2].Store(words[2])
		out.bitmap.w[3].Store(words[3])
		fi.bitmap.forEachSet(func(b byte) {
			out.children[b].Store(deepCopy(fi.children[b].Load()))
		})
		if fi.hasEOS.Load() {
			out.hasEOS.Store(true)
			out.eos = fi.eos
		}
		return out.asNode()
	default:
		panic("unreachable node kind in deepCopy")
	}
}
