// internal/selection/projector_test.go
package selection

import (
	"bytes"
	"log/slog"
	"math/rand"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testRoot = "/instances/pack"

// --- Test Helper Functions ---

func setupTestLogger(t *testing.T) (*slog.Logger, *bytes.Buffer) {
	t.Helper()
	var logBuf bytes.Buffer
	handler := slog.NewTextHandler(&logBuf, &slog.HandlerOptions{Level: slog.LevelDebug})
	return slog.New(handler), &logBuf
}

func newTestProjector(t *testing.T, opts Options) *Projector {
	t.Helper()
	if opts.Logger == nil {
		opts.Logger, _ = setupTestLogger(t)
	}
	return New(testRoot, opts)
}

func abs(rel string) string {
	if rel == "" {
		return testRoot
	}
	return filepath.Join(testRoot, filepath.FromSlash(rel))
}

// discover announces names under parentRel. Names ending in "/" are directories.
func discover(t *testing.T, p *Projector, parentRel string, names ...string) []string {
	t.Helper()
	batch := make([]Entry, 0, len(names))
	for _, name := range names {
		isDir := strings.HasSuffix(name, "/")
		rel := strings.TrimSuffix(name, "/")
		if parentRel != "" {
			rel = parentRel + "/" + rel
		}
		batch = append(batch, Entry{Path: abs(rel), IsDir: isDir})
	}
	expand, err := p.OnEntriesDiscovered(abs(parentRel), batch)
	require.NoError(t, err)
	return expand
}

func stateOf(t *testing.T, p *Projector, rel string) State {
	t.Helper()
	s, err := p.State(abs(rel))
	require.NoError(t, err)
	return s
}

// buildInstance discovers a small instance tree.
func buildInstance(t *testing.T, p *Projector) {
	t.Helper()
	discover(t, p, "", ".git/", "config/", "mods/", "saves/", "options.txt")
	discover(t, p, ".git", "HEAD", "objects/")
	discover(t, p, "config", "forge.cfg", "jei/")
	discover(t, p, "config/jei", "jei.cfg")
	discover(t, p, "mods", "core.jar", "optional.jar")
	discover(t, p, "saves", "world1/", "world2/")
	discover(t, p, "saves/world1", "level.dat", "region/")
	discover(t, p, "saves/world1/region", "r.0.0.mca")
	discover(t, p, "saves/world2", "level.dat")
}

// --- Scenarios ---

func TestDiscovery_GitIgnoredAtRoot(t *testing.T) {
	p := newTestProjector(t, Options{})
	p.SetBlockedPaths([]string{".git"})

	expand := discover(t, p, "", ".git/", "src/", "README.md")

	assert.Equal(t, Unchecked, stateOf(t, p, ".git"))
	assert.Equal(t, Checked, stateOf(t, p, "src"))
	assert.Equal(t, Checked, stateOf(t, p, "README.md"))
	assert.Equal(t, PartiallyChecked, stateOf(t, p, ""))
	assert.Equal(t, []string{testRoot}, expand)
}

func TestDiscovery_EmptyIgnoreSetAllChecked(t *testing.T) {
	p := newTestProjector(t, Options{})
	buildInstance(t, p)

	for _, rel := range []string{"", ".git", "config/jei/jei.cfg", "saves/world1/region"} {
		assert.Equal(t, Checked, stateOf(t, p, rel), rel)
	}
	assert.Empty(t, p.BlockedPaths())
}

func TestDiscovery_ExpandSignals(t *testing.T) {
	p := newTestProjector(t, Options{})
	p.SetBlockedPaths([]string{"saves/world1/playerdata"})

	expand := discover(t, p, "", "saves/", "mods/")
	assert.Equal(t, []string{abs("saves")}, expand, "saves holds an ignored prefix below it")

	expand = discover(t, p, "saves", "world1/", "world2/")
	assert.Equal(t, []string{abs("saves/world1")}, expand)

	expand = discover(t, p, "saves/world1", "playerdata/", "level.dat")
	assert.Equal(t, []string{testRoot, abs("saves"), abs("saves/world1")}, expand)
	assert.Equal(t, PartiallyChecked, stateOf(t, p, ""))
	assert.Equal(t, PartiallyChecked, stateOf(t, p, "saves"))
	assert.Equal(t, Unchecked, stateOf(t, p, "saves/world1/playerdata"))

	expand = discover(t, p, "saves/world2", "level.dat")
	assert.Empty(t, expand, "uniform subtree under an already partial parent")
}

func TestDiscovery_NewEntryUnderIgnoredDirectory(t *testing.T) {
	p := newTestProjector(t, Options{})
	p.SetBlockedPaths([]string{"logs"})
	discover(t, p, "", "logs/", "mods/")

	expand := discover(t, p, "logs", "latest.log", "debug.log")
	assert.Empty(t, expand)
	assert.Equal(t, Unchecked, stateOf(t, p, "logs/latest.log"))
	assert.Equal(t, Unchecked, stateOf(t, p, "logs"))
}

func TestDiscovery_DuplicatesAndErrors(t *testing.T) {
	p := newTestProjector(t, Options{})
	discover(t, p, "", "mods/")
	before := p.Len()

	expand := discover(t, p, "", "mods/")
	assert.Nil(t, expand)
	assert.Equal(t, before, p.Len())

	_, err := p.OnEntriesDiscovered(abs("missing"), []Entry{{Path: abs("missing/x")}})
	assert.ErrorIs(t, err, ErrUnknownEntry)

	_, err = p.OnEntriesDiscovered(abs("mods"), []Entry{{Path: abs("config/x.cfg")}})
	assert.ErrorIs(t, err, ErrNotChild)

	_, err = p.OnEntriesDiscovered(testRoot, []Entry{{Path: "/elsewhere/file"}})
	assert.ErrorIs(t, err, ErrOutsideRoot)
	assert.Equal(t, before, p.Len(), "rejected batches leave the model unchanged")
}

func TestDiscovery_ChildrenSorted(t *testing.T) {
	p := newTestProjector(t, Options{})
	discover(t, p, "", "zeta", "alpha/")
	discover(t, p, "", "mid")

	children, err := p.Children(testRoot)
	require.NoError(t, err)
	require.Len(t, children, 3)
	assert.Equal(t, abs("alpha"), children[0].Path)
	assert.True(t, children[0].IsDir)
	assert.Equal(t, abs("mid"), children[1].Path)
	assert.Equal(t, abs("zeta"), children[2].Path)
}

// --- Toggle ---

func TestToggle_LeafRoundTrip(t *testing.T) {
	p := newTestProjector(t, Options{})
	buildInstance(t, p)

	state, err := p.Toggle(abs("mods/optional.jar"), false)
	require.NoError(t, err)
	assert.Equal(t, Unchecked, state)
	assert.Equal(t, PartiallyChecked, stateOf(t, p, "mods"))
	assert.Equal(t, PartiallyChecked, stateOf(t, p, ""))
	assert.Equal(t, []string{"mods/optional.jar"}, p.BlockedPaths())

	state, err = p.Toggle(abs("mods/optional.jar"), true)
	require.NoError(t, err)
	assert.Equal(t, Checked, state)
	assert.Equal(t, Checked, stateOf(t, p, "mods"))
	assert.Equal(t, Checked, stateOf(t, p, ""))
	assert.Empty(t, p.BlockedPaths())
}

func TestToggle_DirectoryPropagatesDown(t *testing.T) {
	p := newTestProjector(t, Options{})
	buildInstance(t, p)

	_, err := p.Toggle(abs("saves/world1/region/r.0.0.mca"), false)
	require.NoError(t, err)
	_, err = p.Toggle(abs("saves"), false)
	require.NoError(t, err)

	assert.Equal(t, []string{"saves"}, p.BlockedPaths(), "ancestor absorbs descendant prefixes")
	for _, rel := range []string{"saves", "saves/world1", "saves/world1/region", "saves/world2/level.dat"} {
		assert.Equal(t, Unchecked, stateOf(t, p, rel), rel)
	}
	assert.Equal(t, PartiallyChecked, stateOf(t, p, ""))
}

func TestToggle_CheckingPartialDirectoryClearsDescendants(t *testing.T) {
	p := newTestProjector(t, Options{})
	buildInstance(t, p)
	p.SetBlockedPaths([]string{"config/jei", "config/forge.cfg", "mods/core.jar"})
	require.Equal(t, Unchecked, stateOf(t, p, "config"))

	state, err := p.Toggle(abs("config"), true)
	require.NoError(t, err)
	assert.Equal(t, Checked, state)
	assert.Equal(t, Checked, stateOf(t, p, "config/jei/jei.cfg"))
	assert.Equal(t, []string{"mods/core.jar"}, p.BlockedPaths())
}

func TestToggle_IgnoredAncestorKeepsEntryUnchecked(t *testing.T) {
	p := newTestProjector(t, Options{})
	buildInstance(t, p)
	p.SetBlockedPaths([]string{"saves"})

	state, err := p.Toggle(abs("saves/world1"), true)
	require.NoError(t, err)
	assert.Equal(t, Unchecked, state, "removal never uncovers an ancestor prefix")
	assert.Equal(t, []string{"saves"}, p.BlockedPaths())
}

func TestToggle_CascadeUncover(t *testing.T) {
	p := newTestProjector(t, Options{CascadeUncover: true})
	buildInstance(t, p)
	p.SetBlockedPaths([]string{"saves"})

	state, err := p.Toggle(abs("saves/world1/level.dat"), true)
	require.NoError(t, err)
	assert.Equal(t, Checked, state)
	assert.Equal(t, []string{"saves/world1/region", "saves/world2"}, p.BlockedPaths())
	assert.Equal(t, PartiallyChecked, stateOf(t, p, "saves"))
	assert.Equal(t, PartiallyChecked, stateOf(t, p, "saves/world1"))
	assert.Equal(t, Unchecked, stateOf(t, p, "saves/world2"))
}

func TestToggle_Errors(t *testing.T) {
	p := newTestProjector(t, Options{})
	buildInstance(t, p)

	_, err := p.Toggle(abs("nope"), false)
	assert.ErrorIs(t, err, ErrUnknownEntry)

	_, err = p.Toggle(testRoot, false)
	assert.ErrorIs(t, err, ErrRootEntry)
	assert.Empty(t, p.BlockedPaths())
}

func TestToggle_LogsDecisions(t *testing.T) {
	logger, logBuf := setupTestLogger(t)
	p := New(testRoot, Options{Logger: logger})
	buildInstance(t, p)
	p.SetBlockedPaths([]string{"saves"})

	_, err := p.Toggle(abs("saves/world2"), true)
	require.NoError(t, err)
	assert.Contains(t, logBuf.String(), "Entry stays excluded by an ignored ancestor.")
	assert.Contains(t, logBuf.String(), "path=saves/world2")
}

// --- Persistence ---

func TestSetBlockedPaths_RecomputesDiscovered(t *testing.T) {
	p := newTestProjector(t, Options{})
	buildInstance(t, p)

	p.SetBlockedPaths([]string{"", "  ", "mods\r", "saves/world1/region", ""})
	assert.Equal(t, []string{"mods", "saves/world1/region"}, p.BlockedPaths())
	assert.Equal(t, Unchecked, stateOf(t, p, "mods/core.jar"))
	assert.Equal(t, PartiallyChecked, stateOf(t, p, "saves/world1"))
	assert.Equal(t, PartiallyChecked, stateOf(t, p, "saves"))
	assert.Equal(t, Checked, stateOf(t, p, "saves/world2"))

	p.SetBlockedPaths(nil)
	assert.Equal(t, Checked, stateOf(t, p, ""))
}

func TestSetBlockedPaths_RoundTripIdempotent(t *testing.T) {
	p := newTestProjector(t, Options{})
	buildInstance(t, p)
	p.SetBlockedPaths([]string{"saves/world2", "saves", ".git/objects", "config/jei/"})

	first := p.BlockedPaths()
	p.SetBlockedPaths(first)
	assert.Equal(t, first, p.BlockedPaths())
	assert.Equal(t, []string{".git/objects", "config/jei", "saves"}, first)
}

// --- Export filter ---

func TestFilterForExport_EmptySetKeepsAll(t *testing.T) {
	p := newTestProjector(t, Options{})
	assert.Equal(t, []string{"a", "a/b", "c"}, p.FilterForExport([]string{"a", "a/b", "c"}))
}

func TestFilterForExport_UsesTreeNotDiscovery(t *testing.T) {
	p := newTestProjector(t, Options{})
	p.SetBlockedPaths([]string{"saves/world1", ".git"})

	all := []string{
		abs("options.txt"),
		abs(".git/HEAD"),
		abs("saves/world1/level.dat"),
		abs("saves/world10/level.dat"),
		abs("saves/world2/region/r.0.0.mca"),
		"mods/core.jar",
		".git",
		"/outside/root.txt",
	}
	got := p.FilterForExport(all)
	assert.Equal(t, []string{
		abs("options.txt"),
		abs("saves/world10/level.dat"),
		abs("saves/world2/region/r.0.0.mca"),
		"mods/core.jar",
	}, got)

	for _, path := range all[:6] {
		assert.Equal(t, p.Covers(path), !contains(got, path), path)
	}
}

func TestFilterForExport_StableAcrossDiscovery(t *testing.T) {
	p := newTestProjector(t, Options{})
	p.SetBlockedPaths([]string{"mods/optional.jar"})
	all := []string{abs("mods/core.jar"), abs("mods/optional.jar"), abs("config/forge.cfg")}

	before := p.FilterForExport(all)
	buildInstance(t, p)
	assert.Equal(t, before, p.FilterForExport(all))
}

func TestRelative(t *testing.T) {
	p := newTestProjector(t, Options{Separator: '\\'})
	rel, err := p.Relative(abs("saves/world1"))
	require.NoError(t, err)
	assert.Equal(t, `saves\world1`, rel)

	_, err = p.Relative(`..\escape`)
	assert.ErrorIs(t, err, ErrOutsideRoot)
	_, err = p.Relative("/elsewhere")
	assert.ErrorIs(t, err, ErrOutsideRoot)
}

// --- Invariants ---

// leafStates collects the states of every discovered leaf under rel.
func leafStates(t *testing.T, p *Projector, path string) []State {
	t.Helper()
	children, err := p.Children(path)
	require.NoError(t, err)
	if len(children) == 0 {
		s, err := p.State(path)
		require.NoError(t, err)
		return []State{s}
	}
	var out []State
	for _, c := range children {
		out = append(out, leafStates(t, p, c.Path)...)
	}
	return out
}

func assertTriState(t *testing.T, p *Projector, path string) {
	t.Helper()
	children, err := p.Children(path)
	require.NoError(t, err)
	state, err := p.State(path)
	require.NoError(t, err)

	if len(children) > 0 {
		checked, unchecked := 0, 0
		for _, s := range leafStates(t, p, path) {
			switch s {
			case Checked:
				checked++
			case Unchecked:
				unchecked++
			default:
				t.Fatalf("leaf under %s is partial", path)
			}
		}
		switch {
		case unchecked == 0:
			assert.Equal(t, Checked, state, path)
		case checked == 0:
			assert.Equal(t, Unchecked, state, path)
		default:
			assert.Equal(t, PartiallyChecked, state, path)
		}
	} else {
		assert.NotEqual(t, PartiallyChecked, state, path)
		assert.Equal(t, p.Covers(path), state == Unchecked, path)
	}
	for _, c := range children {
		assertTriState(t, p, c.Path)
	}
}

func TestTriStateInvariant_RandomToggles(t *testing.T) {
	for _, cascade := range []bool{false, true} {
		p := newTestProjector(t, Options{CascadeUncover: cascade})
		buildInstance(t, p)

		var paths []string
		var collect func(string)
		collect = func(path string) {
			children, err := p.Children(path)
			require.NoError(t, err)
			for _, c := range children {
				paths = append(paths, c.Path)
				collect(c.Path)
			}
		}
		collect(testRoot)

		rng := rand.New(rand.NewSource(42))
		for i := 0; i < 200; i++ {
			path := paths[rng.Intn(len(paths))]
			_, err := p.Toggle(path, rng.Intn(2) == 0)
			require.NoError(t, err)
			assertTriState(t, p, testRoot)
		}
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
