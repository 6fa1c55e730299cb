package trie

// slot abstracts "the atomic pointer that currently holds the target
// node": either the trie's root pointer or a specific child slot embedded
// in a ListInterior/FullInterior parent. The speculative commit layer
// validates and swaps through this one abstraction regardless of where in
// the tree the change happens.
type slot[V any] struct {
	load  func() *Node[V]
	store func(*Node[V])
}

func rootSlot[V any](root *atomicRoot[V]) slot[V] {
	return slot[V]{
		load:  func() *Node[V] { return root.p.Load() },
		store: func(n *Node[V]) { root.p.Store(n) },
	}
}

func listChildSlot[V any](parent *ListInterior[V], idx int) slot[V] {
	return slot[V]{
		load:  func() *Node[V] { return parent.children[idx].Load() },
		store: func(n *Node[V]) { parent.children[idx].Store(n) },
	}
}

func fullChildSlot[V any](parent *FullInterior[V], b byte) slot[V] {
	return slot[V]{
		load:  func() *Node[V] { return parent.children[b].Load() },
		store: func(n *Node[V]) { parent.children[b].Store(n) },
	}
}

// lcp returns the length of the longest common prefix of a and b.
func lcp(a, b []byte) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	i := 0
	for i < n && a[i] == b[i] {
		i++
	}
	return i
}
