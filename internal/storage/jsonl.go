package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"txScope/internal/model"
)

// JsonlStorage appends artifacts to a JSONL file, one artifact per line.
type JsonlStorage struct {
	path string
	mu   sync.Mutex
}

func NewJsonlStorage(path string) *JsonlStorage {
	return &JsonlStorage{path: path}
}

func (s *JsonlStorage) Name() string { return "jsonl" }

// Write appends artifact as a single JSON line.
func (s *JsonlStorage) Write(ctx context.Context, artifact *model.Artifact) error {
	if artifact == nil {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	line, err := json.Marshal(artifact)
	if err != nil {
		return fmt.Errorf("marshal artifact: %w", err)
	}
	line = append(line, '\n')

	dir := filepath.Dir(s.path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open output file: %w", err)
	}
	defer file.Close()

	if _, err := file.Write(line); err != nil {
		return fmt.Errorf("write artifact: %w", err)
	}
	return nil
}

func (s *JsonlStorage) Close() error { return nil }
