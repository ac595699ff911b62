// Package artifact persists completed analysis results as timestamped
// JSON files on local disk, so results survive process restarts and can
// be inspected or re-served without the database.
package artifact

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Store writes and reads analysis artifacts under a base directory.
type Store struct {
	baseDir string
	now     func() time.Time
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir, now: time.Now}
}

// Save serializes the result to pretty-printed JSON under a timestamped
// file name and returns the relative artifact path.
func (s *Store) Save(ctx context.Context, analysisID string, result any) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if strings.TrimSpace(analysisID) == "" {
		return "", fmt.Errorf("artifact save: empty analysis id")
	}

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", fmt.Errorf("artifact save %s: marshal: %w", analysisID, err)
	}

	name := fmt.Sprintf("keyword_gap_%s_%s.json", analysisID, s.now().UTC().Format("20060102_150405"))
	if err := os.MkdirAll(s.baseDir, 0o755); err != nil {
		return "", fmt.Errorf("artifact save %s: mkdir: %w", analysisID, err)
	}

	fullPath := filepath.Join(s.baseDir, name)
	if err := os.WriteFile(fullPath, data, 0o644); err != nil {
		return "", fmt.Errorf("artifact save %s: write: %w", analysisID, err)
	}
	return name, nil
}

// Open reads a stored artifact by its relative path.
func (s *Store) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	clean := filepath.Clean(path)
	if strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return nil, fmt.Errorf("invalid artifact path")
	}
	return os.Open(filepath.Join(s.baseDir, clean))
}

// List returns the stored artifact file names for one analysis, newest
// first. An unknown id yields an empty list, not an error.
func (s *Store) List(ctx context.Context, analysisID string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("artifact list %s: %w", analysisID, err)
	}
	prefix := "keyword_gap_" + analysisID + "_"
	var out []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasPrefix(e.Name(), prefix) {
			out = append(out, e.Name())
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(out)))
	return out, nil
}
