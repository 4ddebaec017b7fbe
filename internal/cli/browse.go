// internal/cli/browse.go
package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/gagin/packexport/internal/browse"
	"github.com/gagin/packexport/internal/discovery"
)

// browseLogPath is where logs go while the browser owns the terminal.
func browseLogPath() string {
	return filepath.Join(os.TempDir(), "packexport-browse.log")
}

func newBrowseCommand(a *app) *cobra.Command {
	var (
		flags   exportFlags
		cascade bool
	)
	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Pick what to export in an interactive tree, then export",
		Long: `browse shows the instance as a tree while it is being scanned.
Space includes or excludes the entry under the cursor. Pressing "a" saves
the choice and exports; "q" or Esc saves the choice without exporting.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// Anything written to stderr would garble the alternate screen.
			logFile, err := tea.LogToFile(browseLogPath(), "packexport")
			if err != nil {
				return fmt.Errorf("cannot open browser log: %w", err)
			}
			defer logFile.Close()
			restoreLogs := a.redirectLogs(logFile)
			defer restoreLogs()

			var cascadeOverride *bool
			if cmd.Flags().Changed("cascade") {
				cascadeOverride = &cascade
			}
			in, err := a.openInstance(cascadeOverride)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()
			batches := make(chan discovery.Batch, 16)
			scanErr := make(chan error, 1)
			go func() {
				scanErr <- discovery.Walk(ctx, in.root, batches, discovery.Options{RespectGitignore: a.gitignore, Logger: a.logger})
			}()

			model := browse.New(in.projector, batches, scanErr, a.logger)
			final, err := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
			cancel()
			restoreLogs()
			in.save(a)
			if err != nil {
				return fmt.Errorf("browser failed: %w", err)
			}

			m, ok := final.(browse.Model)
			if !ok || m.Outcome() != browse.Accepted {
				a.logger.Info("Browser closed without export.", "ignoreFile", in.store.Path())
				fmt.Fprintln(cmd.OutOrStdout(), "Export cancelled.")
				return nil
			}
			return a.runExport(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), in, flags, cmd.Flags().Changed("store"))
		},
	}
	flags.register(cmd.Flags())
	cmd.Flags().BoolVar(&cascade, "cascade", false, "Including an entry under an excluded folder includes that folder again and excludes its other entries.")
	return cmd
}
