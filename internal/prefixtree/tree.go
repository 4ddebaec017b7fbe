// internal/prefixtree/tree.go

// Package prefixtree implements a trie keyed by path segments.
//
// Paths are split on a single separator rune. A path is covered when it
// equals, or descends from, a path that was explicitly inserted. Matching
// is done per segment, so "build" covers "build/out" but not "buildx".
package prefixtree

import (
	"sort"
	"strings"
)

type node struct {
	children map[string]*node
	terminal bool
}

func newNode() *node {
	return &node{children: make(map[string]*node)}
}

// Tree is a separator prefix tree. The zero value is not usable; call New.
type Tree struct {
	sep  rune
	root *node
	size int
}

// New creates an empty tree splitting paths on sep.
func New(sep rune) *Tree {
	return &Tree{sep: sep, root: newNode()}
}

// Separator returns the rune paths are split on.
func (t *Tree) Separator() rune { return t.sep }

// Len returns the number of terminal paths.
func (t *Tree) Len() int { return t.size }

// Clear removes every path.
func (t *Tree) Clear() {
	t.root = newNode()
	t.size = 0
}

// Segments splits path into its non-empty segments.
// Leading, trailing and repeated separators are collapsed.
func (t *Tree) Segments(path string) []string {
	return strings.FieldsFunc(path, func(r rune) bool { return r == t.sep })
}

// Join is the inverse of Segments.
func (t *Tree) Join(segments []string) string {
	return strings.Join(segments, string(t.sep))
}

// Insert marks path as covered. It reports whether coverage changed.
//
// Inserting a path that an ancestor already covers does nothing and creates
// no nodes. Inserting an ancestor of existing paths drops those paths, since
// the ancestor now covers them.
func (t *Tree) Insert(path string) bool {
	segs := t.Segments(path)
	if len(segs) == 0 {
		return false
	}

	cur := t.root
	for _, seg := range segs {
		if cur.terminal {
			return false
		}
		next, ok := cur.children[seg]
		if !ok {
			next = newNode()
			cur.children[seg] = next
		}
		cur = next
	}
	if cur.terminal {
		return false
	}

	cur.terminal = true
	t.size++
	t.size -= countTerminals(cur)
	cur.children = make(map[string]*node)
	return true
}

// countTerminals counts terminal nodes strictly below n.
func countTerminals(n *node) int {
	total := 0
	for _, child := range n.children {
		if child.terminal {
			total++
		}
		total += countTerminals(child)
	}
	return total
}

// Remove clears the terminal mark of exactly path and reports whether one
// was set. Coverage inherited from an ancestor is left in place.
func (t *Tree) Remove(path string) bool {
	segs := t.Segments(path)
	n := t.find(path)
	if len(segs) == 0 || n == nil || !n.terminal {
		return false
	}
	n.terminal = false
	t.size--
	t.prune(segs)
	return true
}

// Covers reports whether path equals or descends from a terminal path.
// It does one map lookup per segment.
func (t *Tree) Covers(path string) bool {
	cur := t.root
	for _, seg := range t.Segments(path) {
		next, ok := cur.children[seg]
		if !ok {
			return false
		}
		if next.terminal {
			return true
		}
		cur = next
	}
	return false
}

// Contains reports whether path itself was inserted.
func (t *Tree) Contains(path string) bool {
	n := t.find(path)
	return n != nil && n != t.root && n.terminal
}

// CoversAnyUnder reports whether path, or anything below it, is covered.
func (t *Tree) CoversAnyUnder(path string) bool {
	segs := t.Segments(path)
	if len(segs) == 0 {
		return t.size > 0
	}
	cur := t.root
	for _, seg := range segs {
		next, ok := cur.children[seg]
		if !ok {
			return false
		}
		if next.terminal {
			return true
		}
		cur = next
	}
	// Every non-root node that survives pruning leads to a terminal.
	return len(cur.children) > 0
}

// TerminalsUnder returns the terminal paths strictly below path, in the
// same order CoveredPaths uses.
func (t *Tree) TerminalsUnder(path string) []string {
	n := t.find(path)
	if n == nil {
		return nil
	}
	var out []string
	t.collect(n, t.Segments(path), &out)
	if n != t.root && n.terminal {
		// n itself is not strictly below path.
		out = out[1:]
	}
	return out
}

// CoveredPaths returns every terminal path, depth first, with children
// visited in lexicographic order.
func (t *Tree) CoveredPaths() []string {
	out := make([]string, 0, t.size)
	t.collect(t.root, nil, &out)
	return out
}

func (t *Tree) collect(n *node, prefix []string, out *[]string) {
	if n.terminal {
		*out = append(*out, t.Join(prefix))
	}
	keys := make([]string, 0, len(n.children))
	for k := range n.children {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		next := append(prefix[:len(prefix):len(prefix)], k)
		t.collect(n.children[k], next, out)
	}
}

func (t *Tree) find(path string) *node {
	cur := t.root
	for _, seg := range t.Segments(path) {
		next, ok := cur.children[seg]
		if !ok {
			return nil
		}
		cur = next
	}
	return cur
}

// RemoveSubtree clears path and every terminal below it, returning how many
// terminal marks were cleared. Like Remove, it leaves ancestors alone.
func (t *Tree) RemoveSubtree(path string) int {
	segs := t.Segments(path)
	n := t.find(path)
	if len(segs) == 0 || n == nil {
		return 0
	}
	cleared := countTerminals(n)
	if n.terminal {
		cleared++
	}
	n.terminal = false
	n.children = make(map[string]*node)
	t.size -= cleared
	t.prune(segs)
	return cleared
}

// prune drops the nodes along segs that no longer lead to a terminal.
func (t *Tree) prune(segs []string) {
	trail := make([]*node, 0, len(segs)+1)
	trail = append(trail, t.root)
	cur := t.root
	for _, seg := range segs {
		next, ok := cur.children[seg]
		if !ok {
			return
		}
		trail = append(trail, next)
		cur = next
	}
	for i := len(trail) - 1; i > 0; i-- {
		n := trail[i]
		if n.terminal || len(n.children) > 0 {
			break
		}
		delete(trail[i-1].children, segs[i-1])
	}
}
