package dataset

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/duckmesh/nlquery/internal/storage"
)

// ObjectStoreSource downloads table files from an object store into the
// caller's scratch directory.
type ObjectStoreSource struct {
	Store  storage.ObjectStore
	Dir    string
	Tables []string
}

func NewObjectStoreSource(store storage.ObjectStore, dir string, tables []string) *ObjectStoreSource {
	return &ObjectStoreSource{Store: store, Dir: dir, Tables: tables}
}

func (s *ObjectStoreSource) Materialize(ctx context.Context, scratchDir string) (Layout, error) {
	if s.Store == nil {
		return Layout{}, fmt.Errorf("object store is required")
	}
	if scratchDir == "" {
		return Layout{}, fmt.Errorf("scratch directory is required")
	}
	root, err := filepath.Abs(scratchDir)
	if err != nil {
		return Layout{}, fmt.Errorf("resolve scratch directory: %w", err)
	}

	layout := Layout{Root: root}
	for _, name := range tablesOrDefault(s.Tables) {
		if err := ValidateTableName(name); err != nil {
			return Layout{}, err
		}
		table, err := s.download(ctx, root, name)
		if err != nil {
			return Layout{}, err
		}
		layout.Tables = append(layout.Tables, table)
	}
	return layout, nil
}

func (s *ObjectStoreSource) download(ctx context.Context, root, name string) (Table, error) {
	for _, format := range lookupOrder {
		key, err := storage.DatasetObjectKey(s.Dir, name, string(format))
		if err != nil {
			return Table{}, err
		}
		if _, err := s.Store.Stat(ctx, key); err != nil {
			if errors.Is(err, storage.ErrObjectNotFound) {
				continue
			}
			return Table{}, fmt.Errorf("stat dataset object %q: %w", key, err)
		}

		reader, err := s.Store.Get(ctx, key)
		if err != nil {
			return Table{}, fmt.Errorf("get dataset object %q: %w", key, err)
		}
		localPath := filepath.Join(root, name+format.Extension())
		if err := writeFile(localPath, reader); err != nil {
			_ = reader.Close()
			return Table{}, fmt.Errorf("write local file %q: %w", localPath, err)
		}
		if err := reader.Close(); err != nil {
			return Table{}, fmt.Errorf("close dataset object %q: %w", key, err)
		}
		return Table{Name: name, Path: localPath, Format: format}, nil
	}
	return Table{}, fmt.Errorf("%w: %q in object store", ErrTableNotFound, name)
}
