package trie

// insertCase names the structural transition an insert probe classified.
// It exists mainly so the commit loop can reason about which cases run
// speculatively.
type insertCase uint8

const (
	caseExists insertCase = iota
	caseEmptyTree
	caseSplitLeafSkip
	casePrefixLeafSkip
	caseExtendLeafSkip
	caseSplitLeafList
	casePrefixLeafList
	caseAddEOSLeafList
	caseInPlaceLeaf
	caseListToFullLeaf
	caseDemoteLeafList
	caseSplitInterior
	casePrefixInterior
	caseInPlaceInterior
	caseAddChildConvert
	caseDescend
)

// complex reports whether a case is always routed to the locked recursive
// fallback rather than attempted speculatively. DEMOTE_LEAF_LIST and
// ADD_EOS_LEAF_LIST are routed there unconditionally rather than given a
// speculative fast path.
func (c insertCase) complex() bool {
	return c == caseDemoteLeafList || c == caseAddEOSLeafList
}

// insertIntoLeaf classifies and (when the case is a single-level
// transition) builds the replacement for inserting value at suffix
// beneath a leaf node. The returned replacement is already poisoned so an
// aborted speculative commit can discard it without touching any borrowed
// pointers — leaves own no children, so this is moot for leaves but kept
// for uniformity with insertIntoInterior.
func insertIntoLeaf[V any](leaf *Node[V], suffix []byte, value V) (insertCase, *Node[V], bool) {
	skip := leaf.skip()
	m := lcp(skip, suffix)

	switch leaf.kindOf() {
	case kindSkipLeaf:
		sl := leaf.asSkipLeaf()
		switch {
		case m == len(skip) && m == len(suffix):
			return caseExists, nil, false
		case m == len(skip) && m < len(suffix):
			// EXTEND_LEAF_SKIP: old skip is a strict prefix of the new key.
			out := newListInterior[V](skip)
			out.hdr.setPoisonedInitial()
			out.hasEOS.Store(true)
			out.eos = sl.value
			edge := suffix[m]
			child := newSkipLeaf(suffix[m+1:], value)
			out.labels.add(edge)
			out.children[0].Store(child)
			return caseExtendLeafSkip, out.asNode(), true
		case m < len(skip) && m == len(suffix):
			// PREFIX_LEAF_SKIP: new key is a strict prefix of the leaf's skip.
			out := newListInterior[V](suffix)
			out.hdr.setPoisonedInitial()
			out.hasEOS.Store(true)
			out.eos = value
			edge := skip[m]
			child := newSkipLeaf(skip[m+1:], sl.value)
			out.labels.add(edge)
			out.children[0].Store(child)
			return casePrefixLeafSkip, out.asNode(), true
		default:
			// SPLIT_LEAF_SKIP: mismatch inside skip, both remainders non-empty.
			out := newListInterior[V](skip[:m])
			out.hdr.setPoisonedInitial()
			oldEdge, newEdge := skip[m], suffix[m]
			oldChild := newSkipLeaf(skip[m+1:], sl.value)
			newChild := newSkipLeaf(suffix[m+1:], value)
			out.labels.add(oldEdge)
			out.children[0].Store(oldChild)
			out.labels.add(newEdge)
			out.children[1].Store(newChild)
			return caseSplitLeafSkip, out.asNode(), true
		}

	case kindListLeaf, kindFullLeaf:
		if m < len(skip) {
			if m == len(suffix) {
				// PREFIX_LEAF_LIST: key is a strict prefix of the leaf's skip.
				out := newListInterior[V](suffix)
				out.hdr.setPoisonedInitial()
				out.hasEOS.Store(true)
				out.eos = value
				edge := skip[m]
				child := cloneLeafShortened(leaf, m+1)
				out.labels.add(edge)
				out.children[0].Store(child)
				return casePrefixLeafList, out.asNode(), true
			}
			// SPLIT_LEAF_LIST
			out := newListInterior[V](skip[:m])
			out.hdr.setPoisonedInitial()
			oldEdge, newEdge := skip[m], suffix[m]
			oldChild := cloneLeafShortened(leaf, m+1)
			newChild := newSkipLeaf(suffix[m+1:], value)
			out.labels.add(oldEdge)
			out.children[0].Store(oldChild)
			out.labels.add(newEdge)
			out.children[1].Store(newChild)
			return caseSplitLeafList, out.asNode(), true
		}
		rest := suffix[m:]
		if len(rest) == 0 {
			return caseAddEOSLeafList, nil, false
		}
		if len(rest) > 1 {
			return caseDemoteLeafList, nil, false
		}
		label := rest[0]
		return classifyLeafLabelInsert(leaf, label, value)

	default:
		panic("insertIntoLeaf called on non-leaf node")
	}
}

// classifyLeafLabelInsert handles the one-byte-remaining case at a
// LIST/FULL leaf: duplicate, in-place add, or LIST->FULL promotion.
func classifyLeafLabelInsert[V any](leaf *Node[V], label byte, value V) (insertCase, *Node[V], bool) {
	if leaf.kindOf() == kindFullLeaf {
		fl := leaf.asFullLeaf()
		if fl.bitmap.test(label) {
			return caseExists, nil, false
		}
		return caseInPlaceLeaf, nil, false // applied in place by applyLeafLabelInsert
	}
	ll := leaf.asListLeaf()
	if ll.labels.find(label) >= 0 {
		return caseExists, nil, false
	}
	if ll.labels.count() < listCap {
		return caseInPlaceLeaf, nil, false
	}
	// LIST_TO_FULL_LEAF: rebuild as FullLeaf with all 7 existing + the new one.
	out := newFullLeaf[V](append([]byte(nil), leaf.skip()...))
	out.hdr.setPoisonedInitial()
	labels := ll.labels.labels()
	for i, b := range labels {
		out.bitmap.set(b)
		out.values[b] = ll.values[i]
	}
	out.bitmap.set(label)
	out.values[label] = value
	return caseListToFullLeaf, out.asNode(), true
}

// applyLeafLabelInsert performs the IN_PLACE_LEAF mutation: adds label and
// value to a LIST or FULL leaf that has room, bumping the header version.
// Caller must hold the write lock.
func applyLeafLabelInsert[V any](leaf *Node[V], label byte, value V) {
	switch leaf.kindOf() {
	case kindListLeaf:
		ll := leaf.asListLeaf()
		ll.labels.add(label)
		ll.values[ll.labels.count()-1] = value
	case kindFullLeaf:
		fl := leaf.asFullLeaf()
		fl.bitmap.set(label)
		fl.values[label] = value
	default:
		panic("applyLeafLabelInsert on non-leaf-list node")
	}
	leaf.hdr.bump()
}

// cloneLeafShortened clones a LIST/FULL leaf with its skip shortened by
// dropping the first `drop` bytes — the common grandparent-split helper
// used by SPLIT_LEAF_LIST/PREFIX_LEAF_LIST.
func cloneLeafShortened[V any](leaf *Node[V], drop int) *Node[V] {
	newSkip := append([]byte(nil), leaf.skip()[drop:]...)
	switch leaf.kindOf() {
	case kindListLeaf:
		ll := leaf.asListLeaf()
		out := newListLeaf[V](newSkip)
		out.labels.set(ll.labels.labels())
		n := ll.labels.count()
		for i := 0; i < n; i++ {
			out.values[i] = ll.values[i]
		}
		return out.asNode()
	case kindFullLeaf:
		fl := leaf.asFullLeaf()
		out := newFullLeaf[V](newSkip)
		words := fl.bitmap.snapshotWords()
		out.bitmap.w[0].Store(words[0])
		out.bitmap.w[1].Store(words[1])
		out.bitmap.w[2].Store(words[2])
		out.bitmap.w[3].Store(words[3])
		fl.bitmap.forEachSet(func(b byte) { out.values[b] = fl.values[b] })
		return out.asNode()
	default:
		panic("cloneLeafShortened on non-list-leaf node")
	}
}

// buildAddEOSLeafList implements ADD_EOS_LEAF_LIST: the key equals the
// leaf's skip exactly, so the leaf is promoted to an interior carrying the
// new end-of-string value, with one-byte SKIP-leaf children for each entry
// the leaf already held.
func buildAddEOSLeafList[V any](leaf *Node[V], value V) *Node[V] {
	skip := append([]byte(nil), leaf.skip()...)
	switch leaf.kindOf() {
	case kindListLeaf:
		ll := leaf.asListLeaf()
		labels := ll.labels.labels()
		if len(labels) >= listCap {
			out := buildFullInteriorFromLabels(skip, labels, func(b byte) V {
				i := ll.labels.find(b)
				return ll.values[i]
			})
			out.hasEOS.Store(true)
			out.eos = value
			return out.asNode()
		}
		out := newListInterior[V](skip)
		out.hasEOS.Store(true)
		out.eos = value
		for i, b := range labels {
			out.labels.add(b)
			out.children[i].Store(newSkipLeaf[V](nil, ll.values[i]))
		}
		return out.asNode()
	case kindFullLeaf:
		fl := leaf.asFullLeaf()
		out := newFullInterior[V](skip)
		out.hasEOS.Store(true)
		out.eos = value
		fl.bitmap.forEachSet(func(b byte) {
			out.bitmap.set(b)
			out.children[b].Store(newSkipLeaf[V](nil, fl.values[b]))
		})
		return out.asNode()
	default:
		panic("buildAddEOSLeafList on non-list-leaf node")
	}
}

func buildFullInteriorFromLabels[V any](skip []byte, labels []byte, valueOf func(byte) V) *FullInterior[V] {
	out := newFullInterior[V](skip)
	for _, b := range labels {
		out.bitmap.set(b)
		out.children[b].Store(newSkipLeaf[V](nil, valueOf(b)))
	}
	return out
}

// buildDemoteLeafList implements DEMOTE_LEAF_LIST: the new key has more
// than one byte past the leaf's skip, so the leaf cannot hold it. The leaf
// is promoted into a one-level interior whose children are single-value
// SKIP-leafs, then the new value is inserted into (or creates) the
// appropriate child.
func buildDemoteLeafList[V any](leaf *Node[V], suffix []byte, value V) *Node[V] {
	skip := append([]byte(nil), leaf.skip()...)
	edge := suffix[0]
	tail := suffix[1:]

	var labels []byte
	valueAt := map[byte]V{}
	switch leaf.kindOf() {
	case kindListLeaf:
		ll := leaf.asListLeaf()
		labels = ll.labels.labels()
		for i, b := range labels {
			valueAt[b] = ll.values[i]
		}
	case kindFullLeaf:
		fl := leaf.asFullLeaf()
		fl.bitmap.forEachSet(func(b byte) {
			labels = append(labels, b)
			valueAt[b] = fl.values[b]
		})
	default:
		panic("buildDemoteLeafList on non-list-leaf node")
	}

	_, collides := valueAt[edge]
	total := len(labels)
	if !collides {
		total++
	}

	if total > listCap {
		out := newFullInterior[V](skip)
		for _, b := range labels {
			out.bitmap.set(b)
			out.children[b].Store(newSkipLeaf[V](nil, valueAt[b]))
		}
		if collides {
			existingChild := out.children[edge].Load()
			newChild, _, _ := insertRecursive(existingChild, tail, value)
			out.children[edge].Store(newChild)
		} else {
			out.bitmap.set(edge)
			out.children[edge].Store(newSkipLeaf(tail, value))
		}
		return out.asNode()
	}

	out := newListInterior[V](skip)
	for i, b := range labels {
		out.labels.add(b)
		out.children[i].Store(newSkipLeaf[V](nil, valueAt[b]))
	}
	if collides {
		idx := out.labels.find(edge)
		existingChild := out.children[idx].Load()
		newChild, _, _ := insertRecursive(existingChild, tail, value)
		out.children[idx].Store(newChild)
	} else {
		out.labels.add(edge)
		out.children[len(labels)].Store(newSkipLeaf(tail, value))
	}
	return out.asNode()
}

// insertIntoInterior classifies and, for single-level cases, builds the
// replacement for inserting value at suffix beneath an interior node. The
// caseDescend result means the caller must recurse into the named child
// (edge, tail) and, if the child changed, replace the slot.
func insertIntoInterior[V any](node *Node[V], suffix []byte, value V) (c insertCase, replacement *Node[V], edge byte, tail []byte, built bool) {
	skip := node.skip()
	m := lcp(skip, suffix)

	if m < len(skip) {
		if m == len(suffix) {
			out := newListInterior[V](suffix)
			out.hdr.setPoisonedInitial()
			oldEdge := skip[m]
			child := cloneInteriorShortened(node, m+1)
			out.hasEOS.Store(true)
			out.eos = value
			out.labels.add(oldEdge)
			out.children[0].Store(child)
			return casePrefixInterior, out.asNode(), 0, nil, true
		}
		out := newListInterior[V](skip[:m])
		out.hdr.setPoisonedInitial()
		oldEdge, newEdge := skip[m], suffix[m]
		oldChild := cloneInteriorShortened(node, m+1)
		newChild := newSkipLeaf(suffix[m+1:], value)
		out.labels.add(oldEdge)
		out.children[0].Store(oldChild)
		out.labels.add(newEdge)
		out.children[1].Store(newChild)
		return caseSplitInterior, out.asNode(), 0, nil, true
	}

	rest := suffix[m:]
	if len(rest) == 0 {
		if hasEOS(node) {
			return caseExists, nil, 0, nil, false
		}
		return caseInPlaceInterior, nil, 0, nil, false
	}

	e := rest[0]
	t := rest[1:]
	if child := lookupChild(node, e); child != nil {
		return caseDescend, nil, e, t, false
	}
	return classifyAddChild(node), nil, e, t, false
}

func hasEOS[V any](node *Node[V]) bool {
	switch node.kindOf() {
	case kindListInterior:
		return node.asListInterior().hasEOS.Load()
	case kindFullInterior:
		return node.asFullInterior().hasEOS.Load()
	default:
		return false
	}
}

func classifyAddChild[V any](node *Node[V]) insertCase {
	if node.kindOf() == kindListInterior && node.asListInterior().labels.count() >= listCap {
		return caseAddChildConvert
	}
	return caseInPlaceInterior
}

// applySetEOS performs IN_PLACE_INTERIOR for the end-of-string slot.
func applySetEOS[V any](node *Node[V], value V) {
	switch node.kindOf() {
	case kindListInterior:
		li := node.asListInterior()
		li.eos = value
		li.hasEOS.Store(true)
	case kindFullInterior:
		fi := node.asFullInterior()
		fi.eos = value
		fi.hasEOS.Store(true)
	}
	node.hdr.bump()
}

// applyAddChild performs IN_PLACE_INTERIOR for a new child label, or
// returns a non-nil replacement implementing ADD_CHILD_CONVERT when the
// ListInterior is at capacity.
func applyAddChild[V any](node *Node[V], edge byte, newChild *Node[V]) (replacement *Node[V]) {
	switch node.kindOf() {
	case kindListInterior:
		li := node.asListInterior()
		if li.labels.count() < listCap {
			li.labels.add(edge)
			li.children[li.labels.count()-1].Store(newChild)
			node.hdr.bump()
			return nil
		}
		out := buildFullInteriorFromListInterior(li)
		out.bitmap.set(edge)
		out.children[edge].Store(newChild)
		return out.asNode()
	case kindFullInterior:
		fi := node.asFullInterior()
		fi.bitmap.set(edge)
		fi.children[edge].Store(newChild)
		node.hdr.bump()
		return nil
	default:
		panic("applyAddChild on leaf node")
	}
}

func buildFullInteriorFromListInterior[V any](li *ListInterior[V]) *FullInterior[V] {
	out := newFullInterior[V](append([]byte(nil), li.Node.skip()...))
	labels := li.labels.labels()
	for i, b := range labels {
		out.bitmap.set(b)
		out.children[b].Store(li.children[i].Load())
	}
	if li.hasEOS.Load() {
		out.hasEOS.Store(true)
		out.eos = li.eos
	}
	return out
}

// cloneInteriorShortened clones an interior node with its skip shortened
// by dropping the first `drop` bytes, preserving all children and the
// EOS value.
func cloneInteriorShortened[V any](node *Node[V], drop int) *Node[V] {
	newSkip := append([]byte(nil), node.skip()[drop:]...)
	switch node.kindOf() {
	case kindListInterior:
		li := node.asListInterior()
		out := newListInterior[V](newSkip)
		out.labels.set(li.labels.labels())
		n := li.labels.count()
		for i := 0; i < n; i++ {
			out.children[i].Store(li.children[i].Load())
		}
		if li.hasEOS.Load() {
			out.hasEOS.Store(true)
			out.eos = li.eos
		}
		return out.asNode()
	case kindFullInterior:
		fi := node.asFullInterior()
		out := newFullInterior[V](newSkip)
		words := fi.bitmap.snapshotWords()
		out.bitmap.w[0].Store(words[0])
		out.bitmap.w[1].Store(words[1])
		out.bitmap.w[2].Store(words[2])
		out.bitmap.w[3].Store(words[3])
		fi.bitmap.forEachSet(func(b byte) { out.children[b].Store(fi.children[b].Load()) })
		if fi.hasEOS.Load() {
			out.hasEOS.Store(true)
			out.eos = fi.eos
		}
		return out.asNode()
	default:
		panic("cloneInteriorShortened on leaf node")
	}
}

// insertRecursive is the always-correct recursive fallback: it never
// aborts, because it runs to completion while
// the caller holds the write mutex for its entire duration. It returns
// the (possibly unchanged) subtree root, nodes to retire, and whether a
// new key was inserted.
func insertRecursive[V any](root *Node[V], suffix []byte, value V) (*Node[V], []*Node[V], bool) {
	if root == nil {
		return newSkipLeaf(suffix, value), nil, true
	}
	if root.isLeaf() {
		c, replacement, built := insertIntoLeaf(root, suffix, value)
		switch c {
		case caseExists:
			return root, nil, false
		case caseAddEOSLeafList:
			out := buildAddEOSLeafList(root, value)
			return out, []*Node[V]{root}, true
		case caseDemoteLeafList:
			out := buildDemoteLeafList(root, suffix, value)
			return out, []*Node[V]{root}, true
		case caseInPlaceLeaf:
			label := suffix[len(root.skip()):][0]
			applyLeafLabelInsert(root, label, value)
			return root, nil, true
		default:
			if !built {
				panic("insertIntoLeaf: unbuilt non-in-place case")
			}
			replacement.hdr.unpoison()
			return replacement, []*Node[V]{root}, true
		}
	}

	c, replacement, edge, tail, built := insertIntoInterior(root, suffix, value)
	switch c {
	case caseExists:
		return root, nil, false
	case caseInPlaceInterior:
		if hasEOS(root) && len(suffix[len(root.skip()):]) == 0 {
			return root, nil, false // unreachable: classify already caught EXISTS
		}
		if len(suffix[len(root.skip()):]) == 0 {
			applySetEOS(root, value)
			return root, nil, true
		}
		newChild := newSkipLeaf(tail, value)
		if rep := applyAddChild(root, edge, newChild); rep != nil {
			rep.hdr.unpoison()
			return rep, []*Node[V]{root}, true
		}
		return root, nil, true
	case caseAddChildConvert:
		newChild := newSkipLeaf(tail, value)
		rep := applyAddChild(root, edge, newChild)
		rep.hdr.unpoison()
		return rep, []*Node[V]{root}, true
	case caseDescend:
		oldChild := lookupChild(root, edge)
		newChild, retired, inserted := insertRecursive(oldChild, tail, value)
		if newChild != oldChild {
			storeChildInPlace(root, edge, newChild)
			root.hdr.bump()
		}
		return root, retired, inserted
	default:
		if !built {
			panic("insertIntoInterior: unbuilt replacement case")
		}
		replacement.hdr.unpoison()
		return replacement, []*Node[V]{root}, true
	}
}

func storeChildInPlace[V any](node *Node[V], edge byte, child *Node[V]) {
	switch node.kindOf() {
	case kindListInterior:
		li := node.asListInterior()
		if i := li.labels.find(edge); i >= 0 {
			li.children[i].Store(child)
			return
		}
	case kindFullInterior:
		fi := node.asFullInterior()
		fi.children[edge].Store(child)
		return
	}
	panic("storeChildInPlace: edge not found")
}
