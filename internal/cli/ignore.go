// internal/cli/ignore.go
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gagin/packexport/internal/ignorefile"
	"github.com/gagin/packexport/internal/prefixtree"
	"github.com/gagin/packexport/internal/selection"
)

func newIgnoreCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ignore",
		Short: "Inspect or edit the ignore prefixes of an instance",
	}
	cmd.AddCommand(newIgnoreListCommand(a))
	cmd.AddCommand(newIgnoreAddCommand(a))
	cmd.AddCommand(newIgnoreRemoveCommand(a))
	return cmd
}

// prefixEditor edits an ignore file through a prefix tree without scanning
// the instance.
type prefixEditor struct {
	tree  *prefixtree.Tree
	store *ignorefile.Store
	paths *selection.Projector // resolves arguments against the root only
}

func (a *app) loadPrefixes() (*prefixEditor, error) {
	root, err := a.resolveRoot()
	if err != nil {
		return nil, err
	}
	store := ignorefile.ForRoot(root, *a.cfg.IgnoreFile, a.logger)
	tree := prefixtree.New(a.cfg.SeparatorRune())
	for _, line := range store.Load() {
		tree.Insert(line)
	}
	paths := selection.New(root, selection.Options{Separator: a.cfg.SeparatorRune(), Logger: a.logger})
	return &prefixEditor{tree: tree, store: store, paths: paths}, nil
}

// prefix turns an argument typed by the user, such as "./mods" or an
// absolute path under the root, into a root-relative prefix.
func (e *prefixEditor) prefix(arg string) (string, error) {
	rel, err := e.paths.Relative(arg)
	if err != nil {
		return "", err
	}
	if rel == "" {
		return "", fmt.Errorf("%q is the instance root", arg)
	}
	return rel, nil
}

func newIgnoreListCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Print the ignore prefixes, one per line",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ed, err := a.loadPrefixes()
			if err != nil {
				return err
			}
			for _, p := range ed.tree.CoveredPaths() {
				fmt.Fprintln(cmd.OutOrStdout(), p)
			}
			return nil
		},
	}
}

func newIgnoreAddCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "add PREFIX...",
		Short: "Exclude paths from the export",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ed, err := a.loadPrefixes()
			if err != nil {
				return err
			}
			for _, arg := range args {
				prefix, err := ed.prefix(arg)
				switch {
				case err != nil:
					fmt.Fprintf(cmd.ErrOrStderr(), "Skipping %q: %v.\n", arg, err)
				case ed.tree.Covers(prefix):
					fmt.Fprintf(cmd.OutOrStdout(), "%s is already excluded.\n", prefix)
				default:
					ed.tree.Insert(prefix)
					fmt.Fprintf(cmd.OutOrStdout(), "Excluded %s.\n", prefix)
				}
			}
			return ed.store.Save(ed.tree.CoveredPaths())
		},
	}
}

func newIgnoreRemoveCommand(a *app) *cobra.Command {
	var subtree bool
	cmd := &cobra.Command{
		Use:   "remove PREFIX...",
		Short: "Include previously excluded paths again",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ed, err := a.loadPrefixes()
			if err != nil {
				return err
			}
			for _, arg := range args {
				prefix, err := ed.prefix(arg)
				if err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "Skipping %q: %v.\n", arg, err)
					continue
				}
				removed := 0
				if subtree {
					removed = ed.tree.RemoveSubtree(prefix)
				} else if ed.tree.Remove(prefix) {
					removed = 1
				}
				switch {
				case removed > 0:
					fmt.Fprintf(cmd.OutOrStdout(), "Removed %d prefix(es) for %s.\n", removed, prefix)
				case ed.tree.Covers(prefix):
					fmt.Fprintf(cmd.OutOrStdout(), "%s is still excluded by a parent prefix.\n", prefix)
				default:
					fmt.Fprintf(cmd.OutOrStdout(), "%s was not excluded.\n", prefix)
				}
			}
			return ed.store.Save(ed.tree.CoveredPaths())
		},
	}
	cmd.Flags().BoolVar(&subtree, "subtree", false, "Also remove every prefix below each argument.")
	return cmd
}
