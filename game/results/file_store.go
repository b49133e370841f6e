package results

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// FileStore keeps one JSON file per record in a directory
type FileStore struct {
	dir string
}

// NewFileStore creates a file-based store, creating the directory if needed
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("results directory is required")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create results directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// Save writes a record to <id>.json
func (fs *FileStore) Save(ctx context.Context, record *Record) error {
	if err := prepare(record); err != nil {
		return err
	}

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}

	// Write through a temp file so readers never see a partial record
	tmp := fs.path(record.ID) + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write result file: %w", err)
	}
	if err := os.Rename(tmp, fs.path(record.ID)); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to write result file: %w", err)
	}
	return nil
}

// Get reads a record by ID
func (fs *FileStore) Get(ctx context.Context, id string) (*Record, error) {
	if strings.ContainsAny(id, `/\`) {
		return nil, ErrRecordNotFound
	}
	data, err := os.ReadFile(fs.path(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrRecordNotFound
		}
		return nil, fmt.Errorf("failed to read result file: %w", err)
	}

	var record Record
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal result: %w", err)
	}
	return &record, nil
}

// List reads every record and returns the newest first
func (fs *FileStore) List(ctx context.Context, limit int) ([]*Record, error) {
	entries, err := os.ReadDir(fs.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read results directory: %w", err)
	}

	var records []*Record
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		record, err := fs.Get(ctx, strings.TrimSuffix(entry.Name(), ".json"))
		if err != nil {
			// Skip unreadable files
			continue
		}
		records = append(records, record)
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].FinishedAt.After(records[j].FinishedAt)
	})
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

// Delete removes a record file
func (fs *FileStore) Delete(ctx context.Context, id string) error {
	if err := os.Remove(fs.path(id)); err != nil {
		if os.IsNotExist(err) {
			return ErrRecordNotFound
		}
		return fmt.Errorf("failed to remove result file: %w", err)
	}
	return nil
}

// Close is a no-op for the file store
func (fs *FileStore) Close() error {
	return nil
}

func (fs *FileStore) path(id string) string {
	return filepath.Join(fs.dir, id+".json")
}
