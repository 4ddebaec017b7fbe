// internal/cli/export.go
package cli

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	"github.com/gagin/packexport/internal/archive"
	"github.com/gagin/packexport/internal/render"
)

// exportFlags are shared by export and browse.
type exportFlags struct {
	output    string
	noDefault bool
	store     bool
}

func (f *exportFlags) register(fs *pflag.FlagSet) {
	fs.StringVarP(&f.output, "output", "o", "", "Destination zip file. \"-\" cancels the export.")
	fs.BoolVar(&f.noDefault, "no-default", false, "Treat a missing --output as a cancelled export.")
	fs.BoolVar(&f.store, "store", false, "Store files without compression (overrides config).")
}

func newExportCommand(a *app) *cobra.Command {
	var flags exportFlags
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the included files of an instance to a zip archive",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			in, err := a.openInstance(nil)
			if err != nil {
				return err
			}
			return a.runExport(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), in, flags, cmd.Flags().Changed("store"))
		},
	}
	flags.register(cmd.Flags())
	return cmd
}

// destination picks the archive path. An empty result means cancelled.
func (a *app) destination(in *instance, flags exportFlags) (string, error) {
	switch {
	case flags.output == archive.Cancelled:
		return "", nil
	case flags.output != "":
		return filepath.Abs(flags.output)
	case flags.noDefault:
		return "", nil
	}
	return archive.DefaultDestination(filepath.Base(in.root), *a.cfg.OutputDir)
}

// runExport writes the archive for in. Failure is reported to stderr as a
// single line and returned as ErrReported.
func (a *app) runExport(ctx context.Context, stdout, stderr io.Writer, in *instance, flags exportFlags, storeChanged bool) error {
	if ctx == nil {
		ctx = context.Background()
	}
	dest, err := a.destination(in, flags)
	if err != nil {
		a.logger.Error("Invalid export destination.", "output", flags.output, "error", err)
		fmt.Fprintln(stderr, "Unable to export instance")
		return ErrReported
	}
	if dest == "" {
		a.logger.Info("Export cancelled.")
		fmt.Fprintln(stdout, "Export cancelled.")
		return nil
	}

	method := uint16(zip.Deflate)
	if *a.cfg.Compression == "store" {
		method = zip.Store
	}
	if storeChanged {
		method = zip.Deflate
		if flags.store {
			method = zip.Store
		}
	}

	res, err := archive.Export(ctx, archive.Request{
		Root:             in.root,
		Destination:      dest,
		Filter:           in.projector,
		Method:           method,
		CheckFreeSpace:   *a.cfg.CheckFreeSpace,
		RespectGitignore: a.gitignore,
		Logger:           a.logger,
	})
	if err != nil {
		fmt.Fprintln(stderr, "Unable to export instance")
		return ErrReported
	}
	fmt.Fprintf(stdout, "Exported %d files (%s) to %s\n", len(res.Files), render.FormatBytes(res.Bytes), res.Destination)
	return nil
}
