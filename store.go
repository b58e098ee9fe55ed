package radixstore

import "bytes"

// Store is one working copy of the trie: a handle on a root node. Copying a
// Store shares the root, so branching a snapshot is O(1) and mutations on
// either handle never become visible through the other.
//
// A single Store and the iterators derived from it are not safe for
// concurrent use; give each goroutine its own Copy instead.
type Store struct {
	root *node
}

// New returns an empty store.
func New() *Store {
	return &Store{root: &node{}}
}

// Copy returns a new working copy sharing this store's current tree.
func (s *Store) Copy() *Store {
	return &Store{root: s.root}
}

// SameRoot reports whether both stores are the identical snapshot. This is a
// pointer identity check, not a content comparison; use Equal for that.
func (s *Store) SameRoot(other *Store) bool {
	return s.root == other.root
}

// Equal reports whether both stores hold the same sequence of (key, value)
// pairs in sorted order.
func (s *Store) Equal(other *Store) bool {
	it, otherIt := s.Iterator(), other.Iterator()
	for it.Valid() {
		if !otherIt.Valid() || !bytes.Equal(it.Key(), otherIt.Key()) || !bytes.Equal(it.Value(), otherIt.Value()) {
			return false
		}
		it.Next()
		otherIt.Next()
	}
	return !otherIt.Valid()
}

// Size returns the number of stored entries.
func (s *Store) Size() int {
	return s.root.numElems
}

// DataSize returns the total number of value bytes stored.
func (s *Store) DataSize() int {
	return s.root.sizeElems
}

// Empty reports whether the store holds no entries.
func (s *Store) Empty() bool {
	return s.root.numElems == 0
}

// Clear drops all entries from this working copy.
func (s *Store) Clear() {
	s.root = &node{}
}

// Insert stores value under key and returns an iterator at the new entry.
// It refuses empty keys and keys that already hold data, returning an
// invalid iterator and false without mutating the tree.
func (s *Store) Insert(key Key, value Value) (*Iterator, bool) {
	if len(key) == 0 || s.findNode(key) != nil {
		return &Iterator{store: s, root: s.root}, false
	}
	rec := newRecord(key, value)
	n := s.upsert(key, rec, 1, len(rec.value))
	return &Iterator{store: s, root: s.root, current: n}, true
}

// Update replaces the value of an existing key and returns an iterator at
// the entry. It refuses keys that are not present.
func (s *Store) Update(key Key, value Value) (*Iterator, bool) {
	old := s.findNode(key)
	if old == nil {
		return &Iterator{store: s, root: s.root}, false
	}
	rec := newRecord(key, value)
	n := s.upsert(key, rec, 0, len(rec.value)-len(old.leaf.value))
	return &Iterator{store: s, root: s.root, current: n}, true
}

// Erase removes key from the store, returning 1 if an entry was removed and
// 0 if the key was absent. A pure leaf is unlinked from its parent; a node
// with children only has its data cleared. Either way the nodes on the path
// are replaced, never mutated in place.
func (s *Store) Erase(key Key) int {
	if len(key) == 0 {
		return 0
	}

	context := []*node{s.root}
	prev := s.root
	depth := prev.depth + len(prev.trieKey)
	for depth < len(key) {
		n := prev.children[key[depth]]
		if n == nil {
			return 0
		}
		// If the prefixes mismatch, the key cannot exist in the tree.
		if commonPrefixLen(n.trieKey, key[depth:]) != len(n.trieKey) {
			return 0
		}
		context = append(context, n)
		depth = n.depth + len(n.trieKey)
		prev = n
	}

	target := context[len(context)-1]
	if target == s.root || target.leaf == nil || depth != len(key) {
		return 0
	}
	removedSize := len(target.leaf.value)

	if !target.isLeaf() {
		// Internal node: clearing its data deletes the entry.
		s.upsert(key, nil, -1, -removedSize)
		return 1
	}

	// Unlink the leaf, copying the path from the root down to its parent.
	root := s.root.clone()
	root.numElems--
	root.sizeElems -= removedSize
	s.root = root

	parent := root
	for _, n := range context[1 : len(context)-1] {
		child := n.clone()
		child.numElems--
		child.sizeElems -= removedSize
		parent.children[child.trieKey[0]] = child
		parent = child
	}
	parent.children[target.trieKey[0]] = nil

	// The parent may be left with a single child and no data.
	parent.compressOnlyChild()
	return 1
}

// Find returns an iterator at key, invalid if the key is absent.
func (s *Store) Find(key Key) *Iterator {
	return &Iterator{store: s, root: s.root, current: s.findNode(key)}
}

// Get returns the value stored under key.
func (s *Store) Get(key Key) (Value, bool) {
	if n := s.findNode(key); n != nil {
		return n.leaf.value, true
	}
	return nil, false
}

// LowerBound returns an iterator at the first key >= the given key, invalid
// if no such key exists. Order is lexicographic over raw bytes.
func (s *Store) LowerBound(key Key) *Iterator {
	return &Iterator{store: s, root: s.root, current: lowerBoundNode(s.root, key)}
}

// UpperBound returns an iterator at the first key strictly greater than the
// given key, invalid if no such key exists.
func (s *Store) UpperBound(key Key) *Iterator {
	it := s.LowerBound(key)
	if it.current != nil && bytes.Equal(it.current.leaf.key, key) {
		it.current = nextNode(it.root, it.current)
	}
	return it
}

// Iterator returns a forward iterator positioned at the smallest key.
func (s *Store) Iterator() *Iterator {
	it := &Iterator{store: s, root: s.root}
	if s.root.numElems > 0 {
		it.current = s.root.leftmost()
	}
	return it
}

// ReverseIterator returns an iterator positioned at the largest key that
// steps backwards through the keys.
func (s *Store) ReverseIterator() *Iterator {
	it := &Iterator{store: s, root: s.root, reverse: true}
	if s.root.numElems > 0 {
		it.current = s.root.rightmost()
	}
	return it
}
