package radixstore

import "bytes"

// Iterator walks a store's entries in key order, forward or reverse. It only
// ever rests on data-bearing nodes; exhaustion is reported through Valid.
//
// An iterator keeps working if its store is mutated after the iterator was
// created: every mutation installs a new root, so before each access the
// iterator compares its cached root against the store's live root and, on a
// change, relocates its key in the new tree. If the key itself is gone, a
// forward iterator lands on the next greater key and a reverse iterator on
// the next smaller one.
type Iterator struct {
	// store is the owning working copy, watched for root replacement.
	store *Store

	// root is the tree this iterator is currently bound to, captured at
	// construction or at the last restore.
	root *node

	// current is the node the iterator rests on, nil once exhausted.
	current *node

	reverse bool
}

// Valid reports whether the iterator is positioned on an entry.
func (it *Iterator) Valid() bool {
	it.restoreIfChanged()
	return it.current != nil
}

// Key returns the key at the current position. The iterator must be valid.
func (it *Iterator) Key() Key {
	it.restoreIfChanged()
	if it.current == nil {
		panic("radixstore: Key on invalid iterator")
	}
	return it.current.leaf.key
}

// Value returns the value at the current position. The iterator must be
// valid.
func (it *Iterator) Value() Value {
	it.restoreIfChanged()
	if it.current == nil {
		panic("radixstore: Value on invalid iterator")
	}
	return it.current.leaf.value
}

// Next advances to the following entry: the next greater key for forward
// iterators, the next smaller for reverse ones. Advancing an exhausted
// iterator is a no-op.
func (it *Iterator) Next() {
	it.restoreIfChanged()
	if it.current == nil {
		return
	}
	if it.reverse {
		it.current = prevNode(it.root, it.current)
	} else {
		it.current = nextNode(it.root, it.current)
	}
}

// restoreIfChanged rebinds the iterator when the owning store's root was
// replaced by an intervening mutation, relocating the current key in the new
// tree. An exhausted iterator stays exhausted.
func (it *Iterator) restoreIfChanged() {
	if it.store == nil || it.store.root == it.root {
		return
	}
	old := it.current
	it.root = it.store.root
	if old == nil {
		return
	}

	key := old.leaf.key
	if !it.reverse {
		it.current = lowerBoundNode(it.root, key)
		return
	}

	lb := lowerBoundNode(it.root, key)
	if lb == nil {
		// Nothing at or after the key remains, fall back to the largest key.
		if it.root.numElems == 0 {
			it.current = nil
		} else {
			it.current = it.root.rightmost()
		}
		return
	}
	it.current = lb
	if bytes.Compare(lb.leaf.key, key) > 0 {
		// The key itself is gone and the bound moved forward, step back.
		it.current = prevNode(it.root, lb)
	}
}
