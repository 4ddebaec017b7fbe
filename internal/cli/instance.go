// internal/cli/instance.go
package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gagin/packexport/internal/discovery"
	"github.com/gagin/packexport/internal/ignorefile"
	"github.com/gagin/packexport/internal/selection"
)

// instance is an opened instance directory with its ignore set loaded.
type instance struct {
	root      string
	projector *selection.Projector
	store     *ignorefile.Store
}

// resolveRoot validates the target directory and makes it absolute.
func (a *app) resolveRoot() (string, error) {
	absTargetDir, err := filepath.Abs(a.directory)
	if err != nil {
		a.logger.Error("Could not determine absolute path.", "path", a.directory, "error", err)
		return "", fmt.Errorf("invalid instance directory path '%s': %w", a.directory, err)
	}
	dirInfo, err := os.Stat(absTargetDir)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("instance directory '%s' not found", absTargetDir)
		}
		return "", fmt.Errorf("error accessing instance directory '%s': %w", absTargetDir, err)
	}
	if !dirInfo.IsDir() {
		return "", fmt.Errorf("instance path '%s' is not a directory", absTargetDir)
	}
	return absTargetDir, nil
}

// openInstance loads the ignore file of the target directory into a new
// projector. cascade overrides the cascade_uncover setting when set.
func (a *app) openInstance(cascade *bool) (*instance, error) {
	root, err := a.resolveRoot()
	if err != nil {
		return nil, err
	}
	cascadeUncover := *a.cfg.CascadeUncover
	if cascade != nil {
		cascadeUncover = *cascade
	}
	p := selection.New(root, selection.Options{
		Separator:      a.cfg.SeparatorRune(),
		CascadeUncover: cascadeUncover,
		Logger:         a.logger,
	})
	store := ignorefile.ForRoot(root, *a.cfg.IgnoreFile, a.logger)
	p.SetBlockedPaths(store.Load())
	a.logger.Debug("Opened instance.", "root", root, "ignoreFile", store.Path(), "prefixes", len(p.BlockedPaths()))
	return &instance{root: root, projector: p, store: store}, nil
}

// save writes the ignore set back. Failures are logged, never returned.
func (in *instance) save(a *app) {
	if err := in.store.Save(in.projector.BlockedPaths()); err != nil {
		a.logger.Warn("Could not save ignore file.", "path", in.store.Path(), "error", err)
	}
}

// discoverAll runs a full discovery scan into the projector.
func (a *app) discoverAll(ctx context.Context, in *instance) error {
	out := make(chan discovery.Batch, 16)
	errc := make(chan error, 1)
	go func() {
		errc <- discovery.Walk(ctx, in.root, out, discovery.Options{RespectGitignore: a.gitignore, Logger: a.logger})
	}()
	for batch := range out {
		if _, err := in.projector.OnEntriesDiscovered(batch.Parent, batch.Entries); err != nil {
			a.logger.Warn("Discarding discovery batch.", "parent", batch.Parent, "error", err)
		}
	}
	return <-errc
}
