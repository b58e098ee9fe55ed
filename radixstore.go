// Package radixstore implements an in-memory, ordered key/value store backed
// by a path-compressed radix trie with copy-on-write structural sharing.
//
// A Store handle can be branched in O(1) with Copy; the branches share trie
// nodes until one of them is mutated, at which point only the nodes on the
// path to the mutation are replaced. Branches can later be reconciled with a
// three-way merge that detects conflicting edits instead of resolving them
// silently.
package radixstore

import "errors"

// Key type.
type Key = []byte

// Value type.
type Value = []byte

// ErrMergeConflict is returned by Merge3 when the working copy and the other
// tree both changed the same logical entry in ways that cannot be reconciled
// without arbitration.
var ErrMergeConflict = errors.New("conflicting changes prevent successful merge")
