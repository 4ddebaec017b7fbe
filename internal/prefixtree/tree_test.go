// internal/prefixtree/tree_test.go
package prefixtree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCovers_InsertedAndDescendants(t *testing.T) {
	tree := New('/')
	for _, p := range []string{"config", "mods/optional", "saves/world1/region"} {
		require.True(t, tree.Insert(p), "insert %s", p)
	}

	testCases := []struct {
		path     string
		expected bool
	}{
		{"config", true},
		{"config/forge.cfg", true},
		{"mods/optional", true},
		{"mods/optional/a/b/c.jar", true},
		{"mods", false},
		{"mods/core.jar", false},
		{"saves/world1", false},
		{"saves/world1/region/r.0.0.mca", true},
		{"", false},
		{"other", false},
	}
	for _, tc := range testCases {
		t.Run(tc.path, func(t *testing.T) {
			assert.Equal(t, tc.expected, tree.Covers(tc.path))
		})
	}
}

func TestCovers_SegmentBoundary(t *testing.T) {
	tree := New('/')
	tree.Insert("build")
	tree.Insert("build/out")

	assert.Equal(t, []string{"build"}, tree.CoveredPaths())
	assert.True(t, tree.Covers("build/out/x.txt"))
	assert.False(t, tree.Covers("buildx"))
	assert.False(t, tree.Covers("buil"))
}

func TestInsert_UnderCoveredAncestorIsNoop(t *testing.T) {
	tree := New('/')
	assert.True(t, tree.Insert("a"))
	assert.False(t, tree.Insert("a/b/c"))
	assert.False(t, tree.Insert("a"))
	assert.Equal(t, 1, tree.Len())
	assert.False(t, tree.Contains("a/b/c"))
	assert.Nil(t, tree.find("a/b"), "no bookkeeping nodes below a covering ancestor")
}

func TestInsert_AncestorPrunesDescendants(t *testing.T) {
	tree := New('/')
	tree.Insert("a/b")
	tree.Insert("a/c/d")
	tree.Insert("e")
	require.Equal(t, 3, tree.Len())

	assert.True(t, tree.Insert("a"))
	assert.Equal(t, 2, tree.Len())
	assert.Equal(t, []string{"a", "e"}, tree.CoveredPaths())
}

func TestInsert_EmptySegmentsCollapsed(t *testing.T) {
	tree := New('/')
	assert.True(t, tree.Insert("/logs//latest/"))
	assert.False(t, tree.Insert(""))
	assert.False(t, tree.Insert("///"))
	assert.Equal(t, []string{"logs/latest"}, tree.CoveredPaths())
	assert.True(t, tree.Covers("logs/latest/debug.log"))
	assert.True(t, tree.Contains("logs//latest"))
}

func TestRemove_ExactOnly(t *testing.T) {
	tree := New('/')
	tree.Insert("a")
	tree.Insert("x/y")

	assert.False(t, tree.Remove("a/b"), "inherited coverage cannot be removed")
	assert.True(t, tree.Covers("a/b"))

	assert.False(t, tree.Remove("x"), "ancestor was never inserted")
	assert.True(t, tree.Covers("x/y/z"))

	assert.True(t, tree.Remove("x/y"))
	assert.False(t, tree.Covers("x/y/z"))
	assert.Nil(t, tree.find("x"), "empty branch pruned")
	assert.Equal(t, 1, tree.Len())
}

func TestRemove_KeepsIndependentDescendants(t *testing.T) {
	tree := New('/')
	tree.Insert("a/b/c")
	tree.Insert("a/d")

	assert.True(t, tree.Remove("a/d"))
	assert.True(t, tree.Covers("a/b/c"))
	assert.Equal(t, []string{"a/b/c"}, tree.CoveredPaths())
}

func TestToggleRoundTrip(t *testing.T) {
	tree := New('/')
	tree.Insert("mods/a.jar")
	before := tree.CoveredPaths()

	tree.Insert("mods/b.jar")
	assert.True(t, tree.Covers("mods/b.jar"))
	tree.Remove("mods/b.jar")
	assert.False(t, tree.Covers("mods/b.jar"))
	assert.Equal(t, before, tree.CoveredPaths())
}

func TestCoversAnyUnder(t *testing.T) {
	tree := New('/')
	assert.False(t, tree.CoversAnyUnder(""))

	tree.Insert("saves/world1/playerdata")
	assert.True(t, tree.CoversAnyUnder(""))
	assert.True(t, tree.CoversAnyUnder("saves"))
	assert.True(t, tree.CoversAnyUnder("saves/world1"))
	assert.True(t, tree.CoversAnyUnder("saves/world1/playerdata/x.dat"))
	assert.False(t, tree.CoversAnyUnder("saves/world2"))
	assert.False(t, tree.CoversAnyUnder("mods"))
}

func TestTerminalsUnder(t *testing.T) {
	tree := New('/')
	tree.Insert("a/b")
	tree.Insert("a/c/d")
	tree.Insert("z")

	assert.Equal(t, []string{"a/b", "a/c/d"}, tree.TerminalsUnder("a"))
	assert.Empty(t, tree.TerminalsUnder("a/b"))
	assert.Nil(t, tree.TerminalsUnder("q"))
}

func TestCoveredPaths_DeterministicOrder(t *testing.T) {
	tree := New('/')
	for _, p := range []string{"zeta", "alpha/two", "beta", "alpha/one"} {
		tree.Insert(p)
	}
	assert.Equal(t, []string{"alpha/one", "alpha/two", "beta", "zeta"}, tree.CoveredPaths())
}

func TestCustomSeparator(t *testing.T) {
	tree := New('\\')
	tree.Insert(`mods\optional`)

	assert.Equal(t, '\\', tree.Separator())
	assert.True(t, tree.Covers(`mods\optional\x.jar`))
	assert.False(t, tree.Covers("mods/optional/x.jar"))
	assert.Equal(t, []string{`mods\optional`}, tree.CoveredPaths())
}

func TestClear(t *testing.T) {
	tree := New('/')
	tree.Insert("a")
	tree.Clear()
	assert.Zero(t, tree.Len())
	assert.False(t, tree.Covers("a"))
	assert.Empty(t, tree.CoveredPaths())
}

func TestRoundTripThroughCoveredPaths(t *testing.T) {
	tree := New('/')
	for _, p := range []string{"b/c", "a", "b/d/e", "a/x"} {
		tree.Insert(p)
	}
	first := tree.CoveredPaths()

	again := New('/')
	for _, p := range first {
		again.Insert(p)
	}
	assert.Equal(t, first, again.CoveredPaths())
}

func TestRemoveSubtree(t *testing.T) {
	tree := New('/')
	tree.Insert("a/b")
	tree.Insert("a/c/d")
	tree.Insert("z")

	assert.Equal(t, 2, tree.RemoveSubtree("a"))
	assert.False(t, tree.Covers("a/c/d"))
	assert.Equal(t, []string{"z"}, tree.CoveredPaths())
	assert.Nil(t, tree.find("a"))

	assert.Equal(t, 1, tree.RemoveSubtree("z"))
	assert.Zero(t, tree.Len())
	assert.Zero(t, tree.RemoveSubtree("missing"))
}

func TestRemoveSubtree_LeavesCoveringAncestor(t *testing.T) {
	tree := New('/')
	tree.Insert("a")
	assert.Zero(t, tree.RemoveSubtree("a/b"))
	assert.True(t, tree.Covers("a/b"))
}
