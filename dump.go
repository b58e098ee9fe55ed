package radixstore

import (
	"fmt"
	"io"
	"strings"
)

// Dump writes a visual representation of the trie to w, one node per line,
// indented by depth. Data-bearing nodes are marked with a star. Debug aid
// only; the format is not stable.
func (s *Store) Dump(w io.Writer) {
	dumpNode(w, s.root, 0)
}

func dumpNode(w io.Writer, n *node, depth int) {
	marker := ""
	if n.leaf != nil {
		marker = " *"
	}
	fmt.Fprintf(w, "%s%q%s\n", strings.Repeat(" ", depth), n.trieKey, marker)
	for _, c := range n.children {
		if c != nil {
			dumpNode(w, c, depth+1)
		}
	}
}
