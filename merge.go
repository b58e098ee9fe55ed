package radixstore

import "bytes"

// Merge3 merges the changes other made relative to base into this working
// copy, in place. base must be a common ancestor snapshot of both trees.
// base and other are read only.
//
// Branches that only one side touched are adopted or dropped wholesale;
// where both sides diverged the merge recurses, falling back to
// element-by-element reconciliation when path compression leaves the
// subtrees structurally misaligned. If both sides independently changed the
// same logical entry the merge stops and returns ErrMergeConflict; silent
// last-writer-wins resolution is never applied.
func (s *Store) Merge3(base, other *Store) error {
	if len(s.root.trieKey) != 0 || len(base.root.trieKey) != 0 || len(other.root.trieKey) != 0 {
		panic("radixstore: Merge3 on a subtree handle")
	}
	m := &merger{s: s}
	return m.merge(s.root, base.root, other.root)
}

// merger carries the recursion state of a three-way merge: the path of
// nodes from the root to the subtree being merged, and the child slot byte
// each path node hangs from, so the path can be re-resolved after the tree
// underneath it is rewritten.
type merger struct {
	s        *Store
	context  []*node
	branches []byte
}

func (m *merger) merge(current, base, other *node) error {
	m.context = append(m.context, current)
	pushedByte := false
	if len(current.trieKey) != 0 {
		m.branches = append(m.branches, current.trieKey[0])
		pushedByte = true
	}
	defer func() {
		m.context = m.context[:len(m.context)-1]
		if pushedByte {
			m.branches = m.branches[:len(m.branches)-1]
		}
	}()

	for slot := 0; slot < 256; slot++ {
		// Re-read the path tip: grafts below may have replaced it.
		current = m.context[len(m.context)-1]

		n := current.children[slot]
		baseNode := base.children[slot]
		otherNode := other.children[slot]
		if n == nil && baseNode == nil && otherNode == nil {
			continue
		}

		// Shared pointers mean an untouched branch; a branch this working
		// copy changed is identical to neither base nor other.
		changed := n != otherNode && n != baseNode

		switch {
		case n == nil:
			if baseNode == nil && otherNode != nil {
				// Only other has this branch, graft it in wholesale.
				m.makeBranchUnique()
				tip := m.context[len(m.context)-1]
				tip.children[slot] = otherNode
				m.applyDelta(otherNode.numElems, otherNode.sizeElems)
			} else if baseNode != nil && otherNode != baseNode {
				// This side removed the branch while other changed or
				// removed it differently.
				return ErrMergeConflict
			}
			// baseNode == otherNode: other left the branch alone, the
			// removal stands.

		case !changed:
			if baseNode != nil && otherNode == nil && baseNode == n {
				// Other deleted a branch this side never touched.
				m.makeBranchUnique()
				tip := m.context[len(m.context)-1]
				tip.children[slot] = nil
				m.applyDelta(-n.numElems, -n.sizeElems)
			} else if baseNode != nil && otherNode != nil && baseNode == n {
				// This side never touched the branch, fast-forward to
				// other's version.
				m.makeBranchUnique()
				tip := m.context[len(m.context)-1]
				tip.children[slot] = otherNode
				m.applyDelta(otherNode.numElems-n.numElems, otherNode.sizeElems-n.sizeElems)
			}

		case baseNode != nil && otherNode != nil && baseNode != otherNode:
			if n.isLeaf() && baseNode.isLeaf() && otherNode.isLeaf() {
				// Two incompatible edits of the same element.
				return ErrMergeConflict
			}
			if bytes.Equal(n.trieKey, baseNode.trieKey) && bytes.Equal(baseNode.trieKey, otherNode.trieKey) {
				if err := m.merge(n, baseNode, otherNode); err != nil {
					return err
				}
			} else {
				// Path compression split the sides differently; compare
				// the subtrees element by element instead.
				if err := m.resolve(n, baseNode, otherNode); err != nil {
					return err
				}
				m.rebuildContext()
			}

		case baseNode != nil && otherNode == nil:
			// This side changed the branch, other removed it.
			return ErrMergeConflict

		case baseNode == nil && otherNode != nil:
			// Both sides grew branches base never had.
			if err := m.mergeNew(n, otherNode); err != nil {
				return err
			}
			m.rebuildContext()
		}
	}
	return nil
}

// makeBranchUnique replaces every node on the context path with a copy so
// the tip can be modified without dirtying trees that share the old path,
// and installs the copied root in the store.
func (m *merger) makeBranchUnique() {
	root := m.s.root.clone()
	m.s.root = root
	m.context[0] = root

	prev := root
	for i := 1; i < len(m.context); i++ {
		child := m.context[i].clone()
		prev.children[child.trieKey[0]] = child
		m.context[i] = child
		prev = child
	}
}

// rebuildContext re-resolves the context path from the live root after an
// operation that replaced nodes along it.
func (m *merger) rebuildContext() {
	n := m.s.root
	m.context[0] = n
	for i, b := range m.branches {
		n = n.children[b]
		m.context[i+1] = n
	}
}

// applyDelta adjusts the subtree aggregates of every node on the context
// path after a branch below the tip was grafted or removed.
func (m *merger) applyDelta(numDelta, sizeDelta int) {
	for _, n := range m.context {
		n.numElems += numDelta
		n.sizeElems += sizeDelta
	}
}

// resolve reconciles structurally misaligned subtrees element by element,
// using base to decide whether each difference merges cleanly or conflicts.
// The snapshots are taken before any mutation, so lookups are unaffected by
// the inserts, updates and erases applied to the working tree along the way.
func (m *merger) resolve(current, baseNode, otherNode *node) error {
	local := &Store{root: current}
	base := &Store{root: baseNode}
	other := &Store{root: otherNode}

	// Insertions and updates made by other.
	for it := other.Iterator(); it.Valid(); it.Next() {
		key, otherVal := it.Key(), it.Value()
		baseVal, inBase := base.Get(key)
		localVal, inLocal := local.Get(key)

		switch {
		case inLocal && inBase:
			if bytes.Equal(localVal, baseVal) && !bytes.Equal(baseVal, otherVal) {
				// This side left the entry alone, other's change merges
				// cleanly.
				m.s.Update(key, otherVal)
			} else if !bytes.Equal(localVal, baseVal) && !bytes.Equal(baseVal, otherVal) {
				// Both sides changed the same entry.
				return ErrMergeConflict
			} else if !bytes.Equal(localVal, baseVal) && bytes.Equal(localVal, otherVal) {
				// Both sides applied the same change independently. Still a
				// conflict: if the change was derived from the old value,
				// accepting it would be a lost update.
				return ErrMergeConflict
			}
		case inBase && !bytes.Equal(baseVal, otherVal):
			// This side removed the entry, other changed it.
			return ErrMergeConflict
		case inLocal:
			// Both sides added the same key base never had.
			return ErrMergeConflict
		case !inBase:
			// New in other only.
			m.s.Insert(key, otherVal)
		}
	}

	// Deletions made by other.
	for it := base.Iterator(); it.Valid(); it.Next() {
		key, baseVal := it.Key(), it.Value()
		if _, inOther := other.Get(key); inOther {
			continue
		}
		localVal, inLocal := local.Get(key)
		if inLocal && bytes.Equal(localVal, baseVal) {
			m.s.Erase(key)
		} else if inLocal {
			// This side changed the entry, other deleted it.
			return ErrMergeConflict
		}
	}
	return nil
}

// mergeNew reconciles two branches that both sides created independently:
// every key from other merges in unless this side already has it, which is a
// conflict regardless of the values.
func (m *merger) mergeNew(current, otherNode *node) error {
	local := &Store{root: current}
	other := &Store{root: otherNode}

	for it := other.Iterator(); it.Valid(); it.Next() {
		if _, ok := local.Get(it.Key()); ok {
			return ErrMergeConflict
		}
		m.s.Insert(it.Key(), it.Value())
	}
	return nil
}
