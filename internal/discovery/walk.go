// internal/discovery/walk.go

// Package discovery scans an instance root and announces what it finds.
//
// Walk pushes batches of newly discovered entries, parents always before
// their children, so a single consumer can fold them into a selection model
// as they arrive. Enumerate returns the complete file list for export.
package discovery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"

	gocodewalker "github.com/boyter/gocodewalker"

	"github.com/gagin/packexport/internal/selection"
)

// ErrNotDirectory indicates a root that is not a directory.
var ErrNotDirectory = errors.New("root is not a directory")

// Batch is a group of entries discovered under one parent directory.
type Batch struct {
	Parent  string
	Entries []selection.Entry
}

// Options configures a scan.
type Options struct {
	// RespectGitignore honours .gitignore and .ignore files. Off by default:
	// an export needs to see everything the user might include.
	RespectGitignore bool
	// QueueSize is the walker's file queue length. Defaults to 100.
	QueueSize int
	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

func (o *Options) applyDefaults() {
	if o.QueueSize <= 0 {
		o.QueueSize = 100
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
}

// checkRoot validates that root exists and is a directory.
func checkRoot(root string) error {
	info, err := os.Stat(root)
	if err != nil {
		return fmt.Errorf("cannot stat root %s: %w", root, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s", ErrNotDirectory, root)
	}
	return nil
}

// walkFiles runs gocodewalker over root and calls fn for every file found.
// It stops early when ctx is done.
func walkFiles(ctx context.Context, root string, opts Options, fn func(absPath string)) error {
	fileListQueue := make(chan *gocodewalker.File, opts.QueueSize)
	fileWalker := gocodewalker.NewFileWalker(root, fileListQueue)
	fileWalker.IgnoreGitIgnore = !opts.RespectGitignore
	fileWalker.IgnoreIgnoreFile = !opts.RespectGitignore
	// Submodule paths from .gitmodules are skipped otherwise.
	fileWalker.IgnoreGitModules = !opts.RespectGitignore
	fileWalker.IncludeHidden = true

	var (
		walkErr, firstWalkError error
		errMu                   sync.Mutex
	)
	walkDone := make(chan struct{})
	go func() {
		defer close(walkDone)
		// The handler runs on the walker's per-directory goroutines.
		fileWalker.SetErrorHandler(func(e error) bool {
			opts.Logger.Warn("Error reported by file walker.", "root", root, "error", e)
			errMu.Lock()
			if firstWalkError == nil {
				firstWalkError = e
			}
			errMu.Unlock()
			return true
		})
		walkErr = fileWalker.Start()
	}()

	cancelled := false
	for f := range fileListQueue {
		if cancelled {
			continue // drain so the walker can exit
		}
		select {
		case <-ctx.Done():
			cancelled = true
			fileWalker.Terminate()
			continue
		default:
		}
		fn(filepath.Clean(f.Location))
	}
	<-walkDone

	if cancelled {
		return ctx.Err()
	}
	if walkErr == nil {
		errMu.Lock()
		walkErr = firstWalkError
		errMu.Unlock()
	}
	if walkErr != nil {
		return fmt.Errorf("file walk operation failed for '%s': %w", root, walkErr)
	}
	return nil
}

// Walk scans root and sends batches of discovered entries to out, closing
// out when done. Every intermediate directory is announced, under its own
// parent, before anything inside it. Directories holding no files are not
// reported.
func Walk(ctx context.Context, root string, out chan<- Batch, opts Options) error {
	defer close(out)
	opts.applyDefaults()
	root = filepath.Clean(root)
	if err := checkRoot(root); err != nil {
		return err
	}

	seen := map[string]bool{root: true}
	var pending Batch
	sent := 0
	flush := func() bool {
		if len(pending.Entries) == 0 {
			return true
		}
		select {
		case out <- pending:
			sent++
		case <-ctx.Done():
			return false
		}
		pending = Batch{}
		return true
	}
	announce := func(path string, isDir bool) bool {
		parent := filepath.Dir(path)
		if parent != pending.Parent && !flush() {
			return false
		}
		pending.Parent = parent
		pending.Entries = append(pending.Entries, selection.Entry{Path: path, IsDir: isDir})
		return true
	}

	opts.Logger.Info("Starting discovery scan.", "root", root, "respectGitignore", opts.RespectGitignore)
	stopped := false
	err := walkFiles(ctx, root, opts, func(absPath string) {
		if stopped || seen[absPath] {
			return
		}
		// Collect undiscovered ancestors, nearest first.
		var dirs []string
		for dir := filepath.Dir(absPath); !seen[dir]; dir = filepath.Dir(dir) {
			if dir == filepath.Dir(dir) {
				// Walked past the root; the walker reported something outside it.
				opts.Logger.Warn("Skipping file outside root.", "path", absPath)
				return
			}
			dirs = append(dirs, dir)
		}
		for i := len(dirs) - 1; i >= 0; i-- {
			seen[dirs[i]] = true
			if !announce(dirs[i], true) {
				stopped = true
				return
			}
		}
		seen[absPath] = true
		if !announce(absPath, false) {
			stopped = true
		}
	})
	if err == nil && !stopped && !flush() {
		stopped = true
	}
	if err == nil && stopped {
		err = ctx.Err()
	}
	if err != nil {
		opts.Logger.Error("Discovery scan finished with errors.", "root", root, "error", err)
		return err
	}
	opts.Logger.Info("Discovery scan completed.", "root", root, "entries", len(seen)-1, "batches", sent)
	return nil
}

// Enumerate returns every file under root as a sorted list of absolute
// paths. It walks the filesystem afresh on each call.
func Enumerate(ctx context.Context, root string, opts Options) ([]string, error) {
	opts.applyDefaults()
	root = filepath.Clean(root)
	if err := checkRoot(root); err != nil {
		return nil, err
	}

	var files []string
	if err := walkFiles(ctx, root, opts, func(absPath string) {
		files = append(files, absPath)
	}); err != nil {
		return nil, err
	}
	sort.Strings(files)
	opts.Logger.Debug("Enumerated files.", "root", root, "count", len(files))
	return files, nil
}
