// internal/archive/export.go

// Package archive writes the included files of an instance root into a
// single zip file.
//
// An export either produces a complete archive at the destination or
// nothing at all: the zip is built in a temporary file next to the
// destination and only renamed into place once fully written.
package archive

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/shirou/gopsutil/v3/disk"

	"github.com/gagin/packexport/internal/discovery"
)

var (
	// ErrEnumerate indicates the root could not be listed.
	ErrEnumerate = errors.New("unable to enumerate files")
	// ErrCompress indicates the archive could not be written.
	ErrCompress = errors.New("unable to write archive")
	// ErrInsufficientSpace indicates the destination volume is too small.
	ErrInsufficientSpace = errors.New("not enough free space at destination")
	// ErrNoDestination indicates an empty destination path.
	ErrNoDestination = errors.New("no destination given")
)

// Filter selects the paths that take part in an export.
type Filter interface {
	FilterForExport(allPaths []string) []string
}

// Request describes one export.
type Request struct {
	Root        string
	Destination string
	Filter      Filter
	// Method is zip.Deflate or zip.Store.
	Method uint16
	// CheckFreeSpace refuses to start when the destination volume has less
	// free space than the uncompressed size of the included files.
	CheckFreeSpace   bool
	RespectGitignore bool
	Logger           *slog.Logger
}

// Result summarizes a finished export.
type Result struct {
	Session     string
	Destination string
	Files       []string // root-relative, slash separated
	Bytes       int64    // uncompressed
}

// Export enumerates req.Root, filters it, and writes the archive.
// On error no file is left at req.Destination.
func Export(ctx context.Context, req Request) (Result, error) {
	logger := req.Logger
	if logger == nil {
		logger = slog.Default()
	}
	session := uuid.New().String()
	logger = logger.With("session", session)

	if req.Destination == "" {
		return Result{}, ErrNoDestination
	}
	root := filepath.Clean(req.Root)
	dest, err := filepath.Abs(req.Destination)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrCompress, err)
	}

	logger.Info("Starting export.", "root", root, "destination", dest)
	all, err := discovery.Enumerate(ctx, root, discovery.Options{
		RespectGitignore: req.RespectGitignore,
		Logger:           logger,
	})
	if err != nil {
		logger.Error("Failed to enumerate export files.", "root", root, "error", err)
		return Result{}, fmt.Errorf("%w: %w", ErrEnumerate, err)
	}

	included := all
	if req.Filter != nil {
		included = req.Filter.FilterForExport(all)
	}

	files := make([]exportFile, 0, len(included))
	var total int64
	for _, path := range included {
		if path == dest {
			// Exporting into the root must not archive a previous export.
			continue
		}
		info, err := os.Lstat(path)
		if err != nil {
			logger.Error("Cannot stat export file.", "path", path, "error", err)
			return Result{}, fmt.Errorf("%w: %w", ErrEnumerate, err)
		}
		if !info.Mode().IsRegular() {
			logger.Debug("Skipping non-regular file.", "path", path, "mode", info.Mode().String())
			continue
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return Result{}, fmt.Errorf("%w: %w", ErrEnumerate, err)
		}
		files = append(files, exportFile{abs: path, name: filepath.ToSlash(rel), info: info})
		total += info.Size()
	}
	logger.Debug("Export file list prepared.", "enumerated", len(all), "included", len(files), "bytes", total)

	if req.CheckFreeSpace {
		if err := checkFreeSpace(filepath.Dir(dest), total); err != nil {
			logger.Error("Export aborted before writing.", "error", err)
			return Result{}, err
		}
	}

	method := req.Method
	if method != zip.Store {
		method = zip.Deflate
	}
	if err := writeArchive(ctx, dest, files, method); err != nil {
		logger.Error("Failed to write archive.", "destination", dest, "error", err)
		return Result{}, fmt.Errorf("%w: %w", ErrCompress, err)
	}

	res := Result{Session: session, Destination: dest, Bytes: total, Files: make([]string, len(files))}
	for i, f := range files {
		res.Files[i] = f.name
	}
	logger.Info("Export complete.", "destination", dest, "files", len(files), "bytes", total)
	return res, nil
}

type exportFile struct {
	abs  string
	name string
	info os.FileInfo
}

func checkFreeSpace(dir string, need int64) error {
	usage, err := disk.Usage(dir)
	if err != nil {
		return fmt.Errorf("%w: cannot read usage of %s: %v", ErrInsufficientSpace, dir, err)
	}
	if usage.Free < uint64(need) {
		return fmt.Errorf("%w: %s has %d bytes free, export needs up to %d", ErrInsufficientSpace, dir, usage.Free, need)
	}
	return nil
}

// writeArchive builds the zip in a temp file beside dest and renames it
// into place. The temp file is removed on any failure.
func writeArchive(ctx context.Context, dest string, files []exportFile, method uint16) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(dest), ".packexport-*.zip.tmp")
	if err != nil {
		return fmt.Errorf("create temp archive: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmpPath)
		}
	}()

	zipWriter := zip.NewWriter(tmp)
	for _, f := range files {
		if err = ctx.Err(); err != nil {
			return err
		}
		if err = addFile(zipWriter, f, method); err != nil {
			return err
		}
	}
	if err = zipWriter.Close(); err != nil {
		return fmt.Errorf("finish archive: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("sync temp archive: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close temp archive: %w", err)
	}
	if err = os.Chmod(tmpPath, 0644); err != nil {
		return fmt.Errorf("set archive permissions: %w", err)
	}
	if err = os.Rename(tmpPath, dest); err != nil {
		return fmt.Errorf("move archive into place: %w", err)
	}
	return nil
}

func addFile(zw *zip.Writer, f exportFile, method uint16) error {
	header, err := zip.FileInfoHeader(f.info)
	if err != nil {
		return fmt.Errorf("header for %s: %w", f.name, err)
	}
	header.Name = f.name
	header.Method = method

	w, err := zw.CreateHeader(header)
	if err != nil {
		return fmt.Errorf("add %s: %w", f.name, err)
	}
	src, err := os.Open(f.abs)
	if err != nil {
		return fmt.Errorf("open %s: %w", f.name, err)
	}
	defer src.Close()
	if _, err := io.Copy(w, src); err != nil {
		return fmt.Errorf("copy %s: %w", f.name, err)
	}
	return nil
}
