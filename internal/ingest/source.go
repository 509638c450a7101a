// Package ingest reads campaign workbooks from a source and turns them into
// campaign snapshots. A source lists and opens workbooks; Load reads every
// listed workbook, isolating per-file failures so one broken file never
// prevents the others from loading.
package ingest

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Source lists and opens campaign workbooks.
type Source interface {
	// List returns the base names of all workbooks in the source.
	List(ctx context.Context) ([]string, error)
	// Open returns a reader for one listed workbook. The caller closes it.
	Open(ctx context.Context, name string) (io.ReadCloser, error)
	// String describes the source for logs.
	String() string
}

// DirSource reads workbooks from a local directory (not recursive).
type DirSource struct {
	dir string
}

// NewDirSource creates a DirSource for dir.
func NewDirSource(dir string) *DirSource {
	return &DirSource{dir: dir}
}

// List returns the .xlsx files in the directory.
func (d *DirSource) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(d.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read data directory: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !IsWorkbook(e.Name()) {
			continue
		}
		names = append(names, e.Name())
	}
	return names, nil
}

// Open opens a workbook by base name.
func (d *DirSource) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	if filepath.Base(name) != name {
		return nil, fmt.Errorf("invalid workbook name %q", name)
	}
	f, err := os.Open(filepath.Join(d.dir, name))
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	return f, nil
}

func (d *DirSource) String() string {
	return "dir:" + d.dir
}
