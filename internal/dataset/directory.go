package dataset

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// DirectorySource reads tables from <Root>/<name>.parquet or <Root>/<name>.csv.
type DirectorySource struct {
	Root   string
	Tables []string
}

func NewDirectorySource(root string, tables []string) *DirectorySource {
	return &DirectorySource{Root: root, Tables: tables}
}

func (d *DirectorySource) Materialize(ctx context.Context, _ string) (Layout, error) {
	if d.Root == "" {
		return Layout{}, fmt.Errorf("dataset root is required")
	}
	root, err := filepath.Abs(d.Root)
	if err != nil {
		return Layout{}, fmt.Errorf("resolve dataset root %q: %w", d.Root, err)
	}
	info, err := os.Stat(root)
	if err != nil {
		return Layout{}, fmt.Errorf("stat dataset root %q: %w", root, err)
	}
	if !info.IsDir() {
		return Layout{}, fmt.Errorf("dataset root %q is not a directory", root)
	}

	layout := Layout{Root: root}
	for _, name := range tablesOrDefault(d.Tables) {
		if err := ctx.Err(); err != nil {
			return Layout{}, err
		}
		if err := ValidateTableName(name); err != nil {
			return Layout{}, err
		}
		table, err := findLocalTable(root, name)
		if err != nil {
			return Layout{}, err
		}
		layout.Tables = append(layout.Tables, table)
	}
	return layout, nil
}

func findLocalTable(root, name string) (Table, error) {
	for _, format := range lookupOrder {
		candidate := filepath.Join(root, name+format.Extension())
		info, err := os.Stat(candidate)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return Table{}, fmt.Errorf("stat %q: %w", candidate, err)
		}
		if info.IsDir() {
			continue
		}
		return Table{Name: name, Path: candidate, Format: format}, nil
	}
	return Table{}, fmt.Errorf("%w: %q under %s", ErrTableNotFound, name, root)
}
