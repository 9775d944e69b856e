package pagestore

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// FSStore serves page images from a library directory. Page IDs map to file
// names (without extension); the first matching supported extension wins.
type FSStore struct {
	root string

	mu          sync.RWMutex
	subscribers []func(pageID string)
}

var imageExtensions = []string{".png", ".jpg", ".jpeg", ".webp", ".bmp"}

// NewFSStore creates a store rooted at dir.
func NewFSStore(dir string) (*FSStore, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("pagestore: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("pagestore: %s is not a directory", dir)
	}
	return &FSStore{root: dir}, nil
}

// ImageBytes implements Store.
func (s *FSStore) ImageBytes(_ context.Context, pageID string) ([]byte, error) {
	path, err := s.resolve(pageID)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("pagestore: read %s: %w", pageID, err)
	}
	return data, nil
}

// Replace writes new image bytes for the page and notifies subscribers.
// ext must include the leading dot.
func (s *FSStore) Replace(pageID string, data []byte, ext string) error {
	if err := validatePageID(pageID); err != nil {
		return err
	}

	// Remove any previous variant so resolve stays unambiguous.
	if old, err := s.resolve(pageID); err == nil {
		_ = os.Remove(old)
	}

	path := filepath.Join(s.root, pageID+ext)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("pagestore: write %s: %w", pageID, err)
	}

	s.mu.RLock()
	subs := s.subscribers
	s.mu.RUnlock()
	for _, fn := range subs {
		fn(pageID)
	}
	slog.Debug("Page image replaced", "page", pageID, "bytes", len(data))
	return nil
}

// Subscribe implements Store.
func (s *FSStore) Subscribe(fn func(pageID string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribers = append(s.subscribers, fn)
}

func (s *FSStore) resolve(pageID string) (string, error) {
	if err := validatePageID(pageID); err != nil {
		return "", err
	}
	for _, ext := range imageExtensions {
		path := filepath.Join(s.root, pageID+ext)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrNotFound, pageID)
}

func validatePageID(pageID string) error {
	if pageID == "" || strings.ContainsAny(pageID, `/\`) || strings.Contains(pageID, "..") {
		return fmt.Errorf("%w: invalid page id %q", ErrNotFound, pageID)
	}
	return nil
}
