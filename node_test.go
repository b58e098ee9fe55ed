package radixstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCommonPrefixLen(t *testing.T) {
	var testData = []struct {
		s1, s2   string
		expected int
	}{
		{"", "", 0},
		{"a", "", 0},
		{"abc", "abc", 3},
		{"abc", "abd", 2},
		{"abc", "abcdef", 3},
		{"xyz", "abc", 0},
	}

	for _, data := range testData {
		assert.Equal(t, data.expected, commonPrefixLen([]byte(data.s1), []byte(data.s2)))
	}
}

func TestSplitCreatesBranchNode(t *testing.T) {
	store := New()
	store.Insert([]byte("apple"), []byte("1"))

	n := store.root.children['a']
	assert.Equal(t, []byte("apple"), n.trieKey)
	assert.NotNil(t, n.leaf)

	// Inserting a strict prefix splits the node: the shared prefix becomes a
	// new node holding the data, the old node keeps the suffix.
	store.Insert([]byte("app"), []byte("2"))

	n = store.root.children['a']
	assert.Equal(t, []byte("app"), n.trieKey)
	assert.NotNil(t, n.leaf)
	assert.Equal(t, []byte("app"), n.leaf.key)
	assert.Equal(t, 2, n.numElems)

	suffix := n.children['l']
	assert.NotNil(t, suffix)
	assert.Equal(t, []byte("le"), suffix.trieKey)
	assert.Equal(t, 3, suffix.depth)
	assert.Equal(t, []byte("apple"), suffix.leaf.key)
}

func TestSplitAtDivergingByte(t *testing.T) {
	store := New()
	store.Insert([]byte("team"), []byte("1"))
	store.Insert([]byte("tear"), []byte("2"))

	n := store.root.children['t']
	assert.Equal(t, []byte("tea"), n.trieKey)
	assert.Nil(t, n.leaf)
	assert.Equal(t, []byte("m"), n.children['m'].trieKey)
	assert.Equal(t, []byte("r"), n.children['r'].trieKey)
	assert.Equal(t, 2, n.numElems)
	assert.Equal(t, 2, n.sizeElems)
}

func TestCompressAfterErase(t *testing.T) {
	store := New()
	store.Insert([]byte("ab"), []byte("1"))
	store.Insert([]byte("ac"), []byte("2"))

	n := store.root.children['a']
	assert.Equal(t, []byte("a"), n.trieKey)
	assert.Nil(t, n.leaf)

	// Removing one sibling leaves a dataless single-child branch, which must
	// be folded back into a single node.
	store.Erase([]byte("ab"))

	n = store.root.children['a']
	assert.Equal(t, []byte("ac"), n.trieKey)
	assert.NotNil(t, n.leaf)
	assert.Equal(t, []byte("2"), n.leaf.value)
	assert.True(t, n.isLeaf())
}

func TestCompressAfterInternalDataErase(t *testing.T) {
	store := New()
	store.Insert([]byte("foo"), []byte("1"))
	store.Insert([]byte("foobar"), []byte("2"))

	store.Erase([]byte("foo"))

	// The dataless "foo" node had a single child and must be gone.
	n := store.root.children['f']
	assert.Equal(t, []byte("foobar"), n.trieKey)
	assert.NotNil(t, n.leaf)
	assert.Equal(t, 1, store.Size())
}

func TestLeftmostAndRightmost(t *testing.T) {
	store := New()
	words := []string{"m", "a", "z", "aa", "mz"}
	for _, w := range words {
		store.Insert([]byte(w), []byte(w))
	}

	assert.Equal(t, []byte("a"), store.root.leftmost().leaf.key)
	assert.Equal(t, []byte("z"), store.root.rightmost().leaf.key)
}

func TestAggregatesAlongPath(t *testing.T) {
	store := New()
	store.Insert([]byte("aa"), []byte("11"))
	store.Insert([]byte("ab"), []byte("22"))
	store.Insert([]byte("abc"), []byte("33"))

	root := store.root
	assert.Equal(t, 3, root.numElems)
	assert.Equal(t, 6, root.sizeElems)

	branch := root.children['a']
	assert.Equal(t, 3, branch.numElems)
	assert.Equal(t, 6, branch.sizeElems)

	ab := branch.children['b']
	assert.Equal(t, 2, ab.numElems)
	assert.Equal(t, 4, ab.sizeElems)
}

func TestCloneSharesChildren(t *testing.T) {
	store := New()
	store.Insert([]byte("aa"), []byte("1"))
	store.Insert([]byte("ab"), []byte("2"))

	branch := store.root.children['a']
	c := branch.clone()
	assert.Equal(t, branch.trieKey, c.trieKey)
	assert.Same(t, branch.children['a'], c.children['a'])
	assert.Same(t, branch.children['b'], c.children['b'])
}
