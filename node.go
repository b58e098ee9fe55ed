package radixstore

// record is a stored (key, value) entry. The key is the full key, not the
// node-relative segment. Records are immutable once created so that trees
// sharing a node can also share its record.
type record struct {
	key   Key
	value Value
}

// newRecord copies key and value so later caller mutations cannot leak into
// shared trees.
func newRecord(key, value []byte) *record {
	return &record{key: copyBytes(key), value: copyBytes(value)}
}

// node is a single trie node holding a compressed key segment.
//
// trieKey is the segment this node represents relative to its parent, and
// depth is the number of key bytes consumed by its ancestors, so the node
// covers key bytes [depth, depth+len(trieKey)). leaf is nil for pure branch
// nodes. numElems and sizeElems aggregate the data-bearing nodes of the whole
// subtree, self included, so Size and DataSize on the root are O(1).
type node struct {
	trieKey   []byte
	depth     int
	leaf      *record
	children  [256]*node
	numElems  int
	sizeElems int
}

// clone returns a shallow copy of n: the child array is copied, the children
// themselves, the segment and the record stay shared.
func (n *node) clone() *node {
	c := *n
	return &c
}

// isLeaf reports whether n has no children. A node may hold data and still
// not be a leaf.
func (n *node) isLeaf() bool {
	for _, c := range n.children {
		if c != nil {
			return false
		}
	}
	return true
}

// addChild attaches a fresh node with the given segment under n, absorbing
// the aggregates of any node previously in that slot. rec may be nil for a
// pure branch node.
func (n *node) addChild(trieKey []byte, rec *record) *node {
	nn := &node{trieKey: trieKey, depth: n.depth + len(n.trieKey)}
	if rec != nil {
		nn.leaf = rec
		nn.numElems = 1
		nn.sizeElems = len(rec.value)
	}
	if old := n.children[trieKey[0]]; old != nil {
		nn.numElems += old.numElems
		nn.sizeElems += old.sizeElems
	}
	n.children[trieKey[0]] = nn
	return nn
}

// compressOnlyChild merges a lone child into n. Required after a mutation
// leaves n with no data and a single child, which would otherwise bloat the
// trie with single-child chains. The root is never compressed.
func (n *node) compressOnlyChild() {
	if n.leaf != nil || len(n.trieKey) == 0 {
		return
	}
	var only *node
	for _, c := range n.children {
		if c != nil {
			if only != nil {
				return
			}
			only = c
		}
	}
	if only == nil {
		return
	}
	seg := make([]byte, 0, len(n.trieKey)+len(only.trieKey))
	seg = append(seg, n.trieKey...)
	n.trieKey = append(seg, only.trieKey...)
	n.leaf = only.leaf
	n.children = only.children
}

// leftmost returns the first data-bearing node at or below n in key order,
// or nil if the subtree holds no data.
func (n *node) leftmost() *node {
	for n.leaf == nil {
		var next *node
		for _, c := range n.children {
			if c != nil {
				next = c
				break
			}
		}
		if next == nil {
			return nil
		}
		n = next
	}
	return n
}

// leftmostBelow is leftmost excluding n itself: it always descends at least
// one level. Used for pre-order stepping off a node that has both data and
// children.
func (n *node) leftmostBelow() *node {
	for {
		var next *node
		for _, c := range n.children {
			if c != nil {
				next = c
				break
			}
		}
		if next == nil {
			return nil
		}
		n = next
		if n.leaf != nil {
			return n
		}
	}
}

// rightmost returns the last data-bearing node at or below n in key order.
// The caller guards against empty subtrees.
func (n *node) rightmost() *node {
	for {
		var next *node
		for i := len(n.children) - 1; i >= 0; i-- {
			if n.children[i] != nil {
				next = n.children[i]
				break
			}
		}
		if next == nil {
			return n
		}
		n = next
	}
}

// findNode walks the trie for an exact key and returns its data-bearing
// node, or nil if the key is absent. Read-only.
func (s *Store) findNode(key []byte) *node {
	n := s.root
	depth := n.depth

	// A subtree handle can carry its own key segment on the root.
	for i := 0; i < len(n.trieKey); i++ {
		if depth >= len(key) || key[depth] != n.trieKey[i] {
			return nil
		}
		depth++
	}
	if depth == len(key) {
		if n.leaf != nil {
			return n
		}
		return nil
	}

	for {
		n = n.children[key[depth]]
		if n == nil {
			return nil
		}
		depth = n.depth
		mismatch := commonPrefixLen(n.trieKey, key[depth:])
		if mismatch != len(n.trieKey) {
			return nil
		}
		if mismatch == len(key)-depth {
			if n.leaf != nil {
				return n
			}
			return nil
		}
		depth = n.depth + len(n.trieKey)
	}
}

// upsert installs rec at key, replacing every node on the path from the root
// so that handles sharing the old nodes are unaffected. A nil rec clears the
// data of an existing node. numDelta and sizeDelta describe the change in
// subtree element count and value bytes and are applied to every node walked,
// so aggregates stay exact without a second pass. Returns the node now
// holding the key.
//
// The caller has already established that the operation will change the
// tree: insert checked the key is new, update and the internal-delete path
// checked it exists.
func (s *Store) upsert(key []byte, rec *record, numDelta, sizeDelta int) *node {
	root := s.root.clone()
	root.numElems += numDelta
	root.sizeElems += sizeDelta
	s.root = root

	prev := root
	depth := root.depth + len(root.trieKey)
	for {
		child := prev.children[key[depth]]
		if child == nil {
			// No shared path remains, attach the rest of the key as a leaf.
			return prev.addChild(copyBytes(key[depth:]), rec)
		}
		child = child.clone()
		prev.children[key[depth]] = child

		mismatch := commonPrefixLen(child.trieKey, key[depth:])
		if mismatch != len(child.trieKey) {
			// The key diverges inside child's segment: split. A new branch
			// node takes the shared prefix, the existing node is reparented
			// under it with its remaining suffix.
			branch := prev.addChild(copyBytes(child.trieKey[:mismatch]), nil)
			depth += mismatch

			target := branch
			if len(key)-depth != 0 {
				target = branch.addChild(copyBytes(key[depth:]), rec)
			} else {
				// The new key ends exactly at the split point.
				branch.leaf = rec
			}
			branch.numElems++
			branch.sizeElems += len(rec.value)

			child.trieKey = copyBytes(child.trieKey[mismatch:])
			child.depth = branch.depth + len(branch.trieKey)
			branch.children[child.trieKey[0]] = child
			return target
		}
		if mismatch == len(key)-depth {
			// Exact node for the key.
			if rec == nil {
				child.leaf = nil
				child.compressOnlyChild()
			} else {
				child.leaf = rec
			}
			child.numElems += numDelta
			child.sizeElems += sizeDelta
			return child
		}

		child.numElems += numDelta
		child.sizeElems += sizeDelta
		depth = child.depth + len(child.trieKey)
		prev = child
	}
}

// lowerBoundNode returns the data-bearing node holding the first key >= key,
// or nil if no such key exists. It keeps a context stack of visited branch
// nodes so that on a mismatch it can climb back up and scan sibling slots
// strictly greater than the one it came through.
func lowerBoundNode(root *node, key []byte) *node {
	n := root
	context := []*node{n}
	idx := 0
	depth := n.depth + len(n.trieKey)

	for depth < len(key) {
		c := int(key[depth])
		if n.children[c] == nil {
			idx = c
			break
		}
		n = n.children[c]
		idx = c + 1

		mismatch := commonPrefixLen(n.trieKey, key[depth:])
		if mismatch < len(n.trieKey) {
			// The segment diverges from the key. Decide by byte comparison
			// whether this subtree sorts after the key: it does when the key
			// ran out inside the segment or the segment byte is larger.
			if mismatch == len(key)-depth || n.trieKey[mismatch] > key[depth+mismatch] {
				if n.leaf != nil {
					return n
				}
				context = append(context, n)
				idx = 0
			}
			break
		}

		context = append(context, n)
		depth = n.depth + len(n.trieKey)
	}

	if depth == len(key) {
		if n.leaf != nil {
			return n
		}
		// The key is an exact prefix of this node's subtree, search all of
		// its children.
		idx = 0
	}

	for len(context) > 0 {
		n = context[len(context)-1]
		context = context[:len(context)-1]

		for i := idx; i < len(n.children); i++ {
			if c := n.children[i]; c != nil {
				return c.leftmost()
			}
		}
		if len(n.trieKey) == 0 {
			// Searched the root, nothing left.
			return nil
		}
		idx = int(n.trieKey[0]) + 1
	}
	return nil
}

// buildContext returns the stack of nodes from root down to the node holding
// key. The key must be present; both iterator directions rebuild their path
// this way before stepping.
func buildContext(root *node, key []byte) []*node {
	context := []*node{root}
	n := root
	depth := n.depth + len(n.trieKey)
	for depth < len(key) {
		n = n.children[key[depth]]
		context = append(context, n)
		depth = n.depth + len(n.trieKey)
	}
	return context
}

// nextNode returns the data-bearing node following current in ascending key
// order, or nil when current is the last one. Pre-order: a node's subtree is
// visited right after the node itself.
func nextNode(root, current *node) *node {
	if current == nil {
		return nil
	}
	if !current.isLeaf() {
		return current.leftmostBelow()
	}

	context := buildContext(root, current.leaf.key)
	n := context[len(context)-1]
	context = context[:len(context)-1]

	for len(context) > 0 {
		oldByte := int(n.trieKey[0])
		n = context[len(context)-1]
		context = context[:len(context)-1]

		// Only slots right of the one already visited, so there is no
		// backtracking.
		for i := oldByte + 1; i < len(n.children); i++ {
			if c := n.children[i]; c != nil {
				return c.leftmost()
			}
		}
	}
	return nil
}

// prevNode returns the data-bearing node preceding current in key order, or
// nil when current is the first one. Mirror of nextNode: children are
// scanned right to left and a branch node is visited after its subtree.
func prevNode(root, current *node) *node {
	if current == nil {
		return nil
	}

	context := buildContext(root, current.leaf.key)
	n := context[len(context)-1]
	context = context[:len(context)-1]

	for len(context) > 0 {
		oldByte := int(n.trieKey[0])
		n = context[len(context)-1]
		context = context[:len(context)-1]

		for i := oldByte - 1; i >= 0; i-- {
			if c := n.children[i]; c != nil {
				return c.rightmost()
			}
		}
		if n.leaf != nil {
			return n
		}
	}
	return nil
}

// commonPrefixLen returns the length of the common prefix of s1 and s2.
func commonPrefixLen(s1, s2 []byte) int {
	limit := min(len(s1), len(s2))
	var i int
	for ; i < limit; i++ {
		if s1[i] != s2[i] {
			break
		}
	}
	return i
}

// copyBytes returns a new copy of the byte slice.
func copyBytes(src []byte) []byte {
	if len(src) == 0 {
		return nil
	}
	dst := make([]byte, len(src))
	copy(dst, src)
	return dst
}
