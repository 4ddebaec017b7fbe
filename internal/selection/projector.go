// internal/selection/projector.go

// Package selection projects ignore-prefix coverage onto a lazily discovered
// file listing as Checked, Unchecked or PartiallyChecked entries.
//
// The prefix tree is the authoritative ignore set. Discovered entries only
// cache the state derived from it and are kept in step by explicit
// recomputation whenever the tree or the listing changes. A Projector is
// owned by a single goroutine and does no locking.
package selection

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gagin/packexport/internal/prefixtree"
)

// Options configures a Projector.
type Options struct {
	// Separator splits ignore prefixes into segments. Defaults to '/'.
	Separator rune
	// CascadeUncover makes checking an entry under an ignored ancestor
	// un-ignore that ancestor and re-ignore the entry's discovered siblings.
	// Without it the entry stays Unchecked.
	CascadeUncover bool
	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

func (o *Options) applyDefaults() {
	if o.Separator == 0 {
		o.Separator = '/'
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
}

type entry struct {
	path     string
	rel      string
	isDir    bool
	parent   *entry
	children []*entry // sorted by path
	state    State
}

// Projector binds a prefix tree to the entries discovered under one root.
type Projector struct {
	root    string
	sep     rune
	cascade bool
	logger  *slog.Logger

	tree    *prefixtree.Tree
	entries map[string]*entry
	top     *entry
}

// New creates a projector for the directory tree rooted at root. The root
// itself is registered as the first discovered entry.
func New(root string, opts Options) *Projector {
	opts.applyDefaults()
	root = filepath.Clean(root)
	top := &entry{path: root, isDir: true, state: Checked}
	return &Projector{
		root:    root,
		sep:     opts.Separator,
		cascade: opts.CascadeUncover,
		logger:  opts.Logger,
		tree:    prefixtree.New(opts.Separator),
		entries: map[string]*entry{root: top},
		top:     top,
	}
}

// Root returns the cleaned root directory.
func (p *Projector) Root() string { return p.root }

// Separator returns the prefix separator.
func (p *Projector) Separator() rune { return p.sep }

// Len returns the number of discovered entries, root included.
func (p *Projector) Len() int { return len(p.entries) }

// --- Discovery ---

// OnEntriesDiscovered folds one batch of newly discovered children of
// parentPath into the model. Already known children are skipped.
//
// It returns the directories the presentation layer should expand so the
// user can see mixed state: the parent chain entries that this batch turned
// PartiallyChecked, and new child directories that are included themselves
// but have ignored prefixes somewhere below them.
func (p *Projector) OnEntriesDiscovered(parentPath string, children []Entry) ([]string, error) {
	parent, err := p.lookup(parentPath)
	if err != nil {
		return nil, err
	}

	type pending struct {
		abs, rel string
		isDir    bool
	}
	batch := make([]pending, 0, len(children))
	for _, c := range children {
		abs, rel, err := p.resolve(c.Path)
		if err != nil {
			return nil, err
		}
		if abs == parent.path || filepath.Dir(abs) != parent.path {
			return nil, fmt.Errorf("%w: %s under %s", ErrNotChild, abs, parent.path)
		}
		batch = append(batch, pending{abs: abs, rel: rel, isDir: c.IsDir})
	}

	wasEmpty := len(parent.children) == 0
	var chain []*entry
	for a := parent; a != nil; a = a.parent {
		chain = append(chain, a)
	}
	before := make([]State, len(chain))
	for i, a := range chain {
		before[i] = a.state
	}

	var expandChildren []string
	added := 0
	for _, c := range batch {
		if _, known := p.entries[c.abs]; known {
			continue
		}
		e := &entry{path: c.abs, rel: c.rel, isDir: c.isDir, parent: parent}
		e.state = p.compute(e)
		p.entries[c.abs] = e
		parent.insertChild(e)
		added++

		if e.isDir && e.state == Checked && p.tree.CoversAnyUnder(e.rel) {
			expandChildren = append(expandChildren, e.path)
		}
	}
	if added == 0 {
		return nil, nil
	}
	parent.isDir = true
	p.refreshAncestors(parent)

	var expand []string
	for i := len(chain) - 1; i >= 0; i-- {
		a := chain[i]
		if a.state != PartiallyChecked {
			continue
		}
		if before[i] != PartiallyChecked || (i == 0 && wasEmpty) {
			expand = append(expand, a.path)
		}
	}
	expand = append(expand, expandChildren...)

	p.logger.Debug("Folded discovered entries.",
		"parent", parent.rel, "added", added, "parentState", parent.state, "expand", len(expand))
	return expand, nil
}

func (e *entry) insertChild(c *entry) {
	i := sort.Search(len(e.children), func(i int) bool { return e.children[i].path >= c.path })
	e.children = append(e.children, nil)
	copy(e.children[i+1:], e.children[i:])
	e.children[i] = c
}

// --- User interaction ---

// Toggle includes (checked) or excludes an entry and everything below it,
// and returns the entry's resulting state.
//
// Excluding inserts the entry's prefix. Including removes the entry's prefix
// and every prefix below it (prefixtree.Tree.RemoveSubtree, not the
// exact-only Remove), but never a prefix of an ancestor: if an
// ignored ancestor still covers the entry it stays Unchecked, unless the
// projector was created with CascadeUncover.
func (p *Projector) Toggle(path string, checked bool) (State, error) {
	e, err := p.lookup(path)
	if err != nil {
		return Unchecked, err
	}
	if e == p.top {
		return e.state, ErrRootEntry
	}

	from := e
	if checked {
		cleared := p.tree.RemoveSubtree(e.rel)
		if p.tree.Covers(e.rel) {
			if p.cascade {
				from = p.uncoverAncestor(e)
			} else {
				p.logger.Debug("Entry stays excluded by an ignored ancestor.", "path", e.rel)
			}
		}
		p.logger.Debug("Included entry.", "path", e.rel, "clearedPrefixes", cleared)
	} else {
		p.tree.Insert(e.rel)
		p.logger.Debug("Excluded entry.", "path", e.rel)
	}

	p.refreshSubtree(from)
	p.refreshAncestors(from.parent)
	return e.state, nil
}

// uncoverAncestor removes the ignored ancestor covering e and re-ignores
// every discovered sibling on the way down, so only e's branch becomes
// included. Siblings not yet discovered become included too. It returns
// the ancestor, whose subtree needs recomputing.
func (p *Projector) uncoverAncestor(e *entry) *entry {
	var cover *entry
	for a := e.parent; a != nil && a != p.top; a = a.parent {
		if p.tree.Contains(a.rel) {
			cover = a
			break
		}
	}
	if cover == nil {
		return e
	}

	p.tree.Remove(cover.rel)
	for n := e; n != cover; n = n.parent {
		for _, sib := range n.parent.children {
			if sib != n {
				p.tree.Insert(sib.rel)
			}
		}
	}
	p.logger.Debug("Uncovered ignored ancestor.", "ancestor", cover.rel, "path", e.rel)
	return cover
}

// --- Persistence ---

// BlockedPaths returns the ignored prefixes relative to the root, joined
// with the separator, in a stable order.
func (p *Projector) BlockedPaths() []string {
	return p.tree.CoveredPaths()
}

// SetBlockedPaths replaces the ignore set and recomputes every discovered
// entry. Blank lines are dropped.
func (p *Projector) SetBlockedPaths(lines []string) {
	p.tree.Clear()
	for _, line := range lines {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		p.tree.Insert(line)
	}
	p.refreshSubtree(p.top)
	p.logger.Debug("Loaded ignore prefixes.", "lines", len(lines), "prefixes", p.tree.Len())
}

// --- Export ---

// FilterForExport returns the paths of allPaths that are not ignored, in
// their original order. It consults only the prefix tree, so entries never
// discovered are filtered correctly. Paths may be absolute or relative to
// the root; absolute paths outside the root are dropped.
func (p *Projector) FilterForExport(allPaths []string) []string {
	out := make([]string, 0, len(allPaths))
	for _, path := range allPaths {
		_, rel, err := p.resolve(path)
		if err != nil {
			p.logger.Debug("Dropping path outside root from export.", "path", path)
			continue
		}
		if p.tree.Covers(rel) {
			continue
		}
		out = append(out, path)
	}
	return out
}

// Covers reports whether path is ignored.
func (p *Projector) Covers(path string) bool {
	_, rel, err := p.resolve(path)
	return err == nil && p.tree.Covers(rel)
}

// --- Queries ---

// State returns the state of a discovered entry.
func (p *Projector) State(path string) (State, error) {
	e, err := p.lookup(path)
	if err != nil {
		return Unchecked, err
	}
	return e.state, nil
}

// Discovered reports whether path has been announced.
func (p *Projector) Discovered(path string) bool {
	_, err := p.lookup(path)
	return err == nil
}

// IsDir reports whether a discovered entry is a directory.
func (p *Projector) IsDir(path string) bool {
	e, err := p.lookup(path)
	return err == nil && e.isDir
}

// Children returns the discovered children of path sorted by path.
func (p *Projector) Children(path string) ([]Entry, error) {
	e, err := p.lookup(path)
	if err != nil {
		return nil, err
	}
	out := make([]Entry, len(e.children))
	for i, c := range e.children {
		out[i] = Entry{Path: c.path, IsDir: c.isDir}
	}
	return out, nil
}

// Relative returns path relative to the root in separator form.
func (p *Projector) Relative(path string) (string, error) {
	_, rel, err := p.resolve(path)
	return rel, err
}

// --- State derivation ---

// compute derives e's state from the tree and its children's cached states.
func (p *Projector) compute(e *entry) State {
	if e != p.top && p.tree.Covers(e.rel) {
		return Unchecked
	}
	if len(e.children) == 0 {
		return Checked
	}
	checked, unchecked := 0, 0
	for _, c := range e.children {
		switch c.state {
		case Checked:
			checked++
		case Unchecked:
			unchecked++
		default:
			return PartiallyChecked
		}
		if checked > 0 && unchecked > 0 {
			return PartiallyChecked
		}
	}
	if unchecked > 0 {
		return Unchecked
	}
	return Checked
}

func (p *Projector) refreshSubtree(e *entry) {
	for _, c := range e.children {
		p.refreshSubtree(c)
	}
	e.state = p.compute(e)
}

func (p *Projector) refreshAncestors(e *entry) {
	for ; e != nil; e = e.parent {
		e.state = p.compute(e)
	}
}

// --- Paths ---

func (p *Projector) lookup(path string) (*entry, error) {
	abs, _, err := p.resolve(path)
	if err != nil {
		return nil, err
	}
	e, ok := p.entries[abs]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEntry, path)
	}
	return e, nil
}

// resolve maps an absolute or root-relative path to its cleaned absolute
// form and its separator-joined relative form.
func (p *Projector) resolve(path string) (abs, rel string, err error) {
	if filepath.IsAbs(path) {
		abs = filepath.Clean(path)
	} else {
		abs = filepath.Join(p.root, filepath.Join(p.tree.Segments(path)...))
	}

	r, err := filepath.Rel(p.root, abs)
	if err != nil || r == ".." || strings.HasPrefix(r, ".."+string(filepath.Separator)) {
		return "", "", fmt.Errorf("%w: %s", ErrOutsideRoot, path)
	}
	if r == "." {
		return abs, "", nil
	}
	rel = filepath.ToSlash(r)
	if p.sep != '/' {
		rel = strings.ReplaceAll(rel, "/", string(p.sep))
	}
	return abs, rel, nil
}
