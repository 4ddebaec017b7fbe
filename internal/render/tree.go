// internal/render/tree.go

// Package render prints a discovered selection as a text tree or YAML.
package render

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/gagin/packexport/internal/selection"
)

// Node is a snapshot of one discovered entry and its state.
type Node struct {
	Name     string          `yaml:"name"`
	Path     string          `yaml:"path"`
	Dir      bool            `yaml:"dir,omitempty"`
	State    selection.State `yaml:"state"`
	Size     int64           `yaml:"size,omitempty"`
	Children []*Node         `yaml:"children,omitempty"`
}

// Snapshot copies the projector's discovered entries into a Node tree.
// Paths are root-relative with the projector's separator; the root has
// path "". File sizes are read from disk when available.
func Snapshot(p *selection.Projector) (*Node, error) {
	return snapshot(p, p.Root(), filepath.Base(p.Root()), true)
}

func snapshot(p *selection.Projector, path, name string, isDir bool) (*Node, error) {
	state, err := p.State(path)
	if err != nil {
		return nil, err
	}
	rel, err := p.Relative(path)
	if err != nil {
		return nil, err
	}
	node := &Node{Name: name, Path: rel, Dir: isDir, State: state}
	if !isDir {
		if info, err := os.Lstat(path); err == nil {
			node.Size = info.Size()
		}
		return node, nil
	}
	children, err := p.Children(path)
	if err != nil {
		return nil, err
	}
	for _, c := range children {
		child, err := snapshot(p, c.Path, filepath.Base(c.Path), c.IsDir)
		if err != nil {
			return nil, err
		}
		node.Children = append(node.Children, child)
	}
	return node, nil
}

// UseColor decides whether output to w is colored. mode is "always",
// "never" or "auto"; auto colors terminals unless NO_COLOR is set.
func UseColor(mode string, w io.Writer) bool {
	switch mode {
	case "always":
		return true
	case "never":
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

type palette struct {
	checked, partial, unchecked, dir, size *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		checked:   color.New(color.FgGreen),
		partial:   color.New(color.FgYellow),
		unchecked: color.New(color.FgRed),
		dir:       color.New(color.Bold),
		size:      color.New(color.Faint),
	}
	for _, c := range []*color.Color{p.checked, p.partial, p.unchecked, p.dir, p.size} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func (pl palette) marker(s selection.State) string {
	switch s {
	case selection.Checked:
		return pl.checked.Sprint("[x]")
	case selection.PartiallyChecked:
		return pl.partial.Sprint("[~]")
	default:
		return pl.unchecked.Sprint("[ ]")
	}
}

// Tree writes root as an indented tree with one state marker per line.
func Tree(w io.Writer, root *Node, colored bool) {
	pl := newPalette(colored)
	fmt.Fprintf(w, "%s %s\n", pl.marker(root.State), pl.dir.Sprint(root.Name+"/"))
	for i, c := range root.Children {
		printTreeRecursive(w, pl, c, "", i == len(root.Children)-1)
	}
}

func printTreeRecursive(w io.Writer, pl palette, node *Node, indent string, isLast bool) {
	connector := tern(isLast, "└── ", "├── ")
	name := node.Name
	sizeStr := ""
	if node.Dir {
		name = pl.dir.Sprint(name + "/")
	} else {
		sizeStr = pl.size.Sprintf(" (%s)", formatBytes(node.Size))
	}
	fmt.Fprintf(w, "%s%s%s %s%s\n", indent, connector, pl.marker(node.State), name, sizeStr)

	childIndent := indent + tern(isLast, "    ", "│   ")
	for i, c := range node.Children {
		printTreeRecursive(w, pl, c, childIndent, i == len(node.Children)-1)
	}
}

// Summary counts the files in root by state.
func Summary(root *Node) (included, excluded int, includedBytes int64) {
	var walk func(n *Node)
	walk = func(n *Node) {
		if !n.Dir {
			if n.State == selection.Checked {
				included++
				includedBytes += n.Size
			} else {
				excluded++
			}
		}
		for _, c := range n.Children {
			walk(c)
		}
	}
	walk(root)
	return included, excluded, includedBytes
}
