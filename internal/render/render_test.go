// internal/render/render_test.go
package render

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/gagin/packexport/internal/selection"
)

// buildProjector discovers a small instance under a real temp dir.
func buildProjector(t *testing.T) *selection.Projector {
	t.Helper()
	root := filepath.Join(t.TempDir(), "pack")
	files := map[string]string{
		"options.txt":            "fov:70",
		"saves/world1/level.dat": "level",
		"saves/world2/level.dat": "other",
	}
	for rel, content := range files {
		abs := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(abs), 0755))
		require.NoError(t, os.WriteFile(abs, []byte(content), 0644))
	}

	p := selection.New(root, selection.Options{})
	p.SetBlockedPaths([]string{"saves/world2"})
	j := func(parts ...string) string { return filepath.Join(append([]string{root}, parts...)...) }
	steps := []struct {
		parent   string
		children []selection.Entry
	}{
		{root, []selection.Entry{{Path: j("options.txt")}, {Path: j("saves"), IsDir: true}}},
		{j("saves"), []selection.Entry{{Path: j("saves", "world1"), IsDir: true}, {Path: j("saves", "world2"), IsDir: true}}},
		{j("saves", "world1"), []selection.Entry{{Path: j("saves", "world1", "level.dat")}}},
		{j("saves", "world2"), []selection.Entry{{Path: j("saves", "world2", "level.dat")}}},
	}
	for _, s := range steps {
		_, err := p.OnEntriesDiscovered(s.parent, s.children)
		require.NoError(t, err)
	}
	return p
}

func TestSnapshotAndTree(t *testing.T) {
	p := buildProjector(t)
	node, err := Snapshot(p)
	require.NoError(t, err)

	assert.Equal(t, "pack", node.Name)
	assert.Equal(t, "", node.Path)
	assert.Equal(t, selection.PartiallyChecked, node.State)
	require.Len(t, node.Children, 2)
	assert.Equal(t, "options.txt", node.Children[0].Name)
	assert.Equal(t, int64(6), node.Children[0].Size)

	var buf bytes.Buffer
	Tree(&buf, node, false)
	expected := strings.Join([]string{
		"[~] pack/",
		"├── [x] options.txt (6 B)",
		"└── [~] saves/",
		"    ├── [x] world1/",
		"    │   └── [x] level.dat (5 B)",
		"    └── [ ] world2/",
		"        └── [ ] level.dat (5 B)",
		"",
	}, "\n")
	assert.Equal(t, expected, buf.String())

	included, excluded, size := Summary(node)
	assert.Equal(t, 2, included)
	assert.Equal(t, 1, excluded)
	assert.Equal(t, int64(11), size)
}

func TestTree_Colored(t *testing.T) {
	node, err := Snapshot(buildProjector(t))
	require.NoError(t, err)

	var buf bytes.Buffer
	Tree(&buf, node, true)
	assert.Contains(t, buf.String(), "\x1b[", "colored output carries escape codes")

	buf.Reset()
	Tree(&buf, node, false)
	assert.NotContains(t, buf.String(), "\x1b[")
}

func TestYAML(t *testing.T) {
	node, err := Snapshot(buildProjector(t))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, YAML(&buf, node))
	out := buf.String()
	assert.Contains(t, out, "state: partial")
	assert.Contains(t, out, "path: saves/world2")

	var decoded map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "pack", decoded["name"])
	assert.Len(t, decoded["children"], 2)
}

func TestUseColor(t *testing.T) {
	var buf bytes.Buffer
	assert.True(t, UseColor("always", &buf))
	assert.False(t, UseColor("never", os.Stdout))
	assert.False(t, UseColor("auto", &buf), "non-file writers are never colored")

	t.Setenv("NO_COLOR", "1")
	assert.False(t, UseColor("auto", os.Stdout))
}

func TestFormatBytes(t *testing.T) {
	testCases := []struct {
		in   int64
		want string
	}{
		{0, "0 B"},
		{1023, "1023 B"},
		{1024, "1 KiB"},
		{1536, "1.5 KiB"},
		{5 * 1024 * 1024, "5 MiB"},
	}
	for _, tc := range testCases {
		assert.Equal(t, tc.want, FormatBytes(tc.in))
	}
}
