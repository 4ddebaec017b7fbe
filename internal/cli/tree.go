// internal/cli/tree.go
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gagin/packexport/internal/render"
)

func newTreeCommand(a *app) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "tree",
		Short: "Show which files of an instance would be exported",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if format != "text" && format != "yaml" {
				return fmt.Errorf("unknown format %q (want text or yaml)", format)
			}
			in, err := a.openInstance(nil)
			if err != nil {
				return err
			}
			if err := a.discoverAll(cmd.Context(), in); err != nil {
				return fmt.Errorf("scan of %s failed: %w", in.root, err)
			}
			node, err := render.Snapshot(in.projector)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if format == "yaml" {
				return render.YAML(out, node)
			}
			render.Tree(out, node, render.UseColor(*a.cfg.Color, out))
			included, excluded, size := render.Summary(node)
			fmt.Fprintf(out, "\n%d files included (%s), %d excluded.\n", included, render.FormatBytes(size), excluded)
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", "text", "Output format: text or yaml.")
	return cmd
}
