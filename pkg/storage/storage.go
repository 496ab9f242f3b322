// Package storage persists generated artifacts (barcode labels, item photos)
// behind an opaque key.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// ErrNotFound is returned when no artifact exists for a key.
var ErrNotFound = errors.New("artifact not found")

// Store is the artifact persistence surface used by services.
type Store interface {
	Save(ctx context.Context, key string, blob []byte) error
	Open(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}

// BarcodeKey builds the canonical artifact key for an item's barcode label.
func BarcodeKey(sku string) string {
	return fmt.Sprintf("barcodes/barcode_%s.png", sku)
}

// PhotoKey builds the canonical artifact key for an item photo.
func PhotoKey(itemID, filename string) string {
	return fmt.Sprintf("photos/%s/%s", itemID, filepath.Base(filename))
}

// LocalStore keeps artifacts on the local filesystem under a root directory.
type LocalStore struct {
	root string
}

// NewLocalStore ensures the root directory exists and returns a store over it.
func NewLocalStore(root string) (*LocalStore, error) {
	if strings.TrimSpace(root) == "" {
		return nil, errors.New("artifact root directory is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("creating artifact root: %w", err)
	}
	return &LocalStore{root: root}, nil
}

// Save writes the blob at key, creating parent directories as needed.
func (s *LocalStore) Save(ctx context.Context, key string, blob []byte) error {
	path, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating artifact dir: %w", err)
	}
	if err := os.WriteFile(path, blob, 0o644); err != nil {
		return fmt.Errorf("writing artifact %s: %w", key, err)
	}
	return nil
}

// Open reads the blob stored at key.
func (s *LocalStore) Open(ctx context.Context, key string) ([]byte, error) {
	path, err := s.resolve(key)
	if err != nil {
		return nil, err
	}
	blob, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("reading artifact %s: %w", key, err)
	}
	return blob, nil
}

// Delete removes the blob at key. Missing keys are not an error.
func (s *LocalStore) Delete(ctx context.Context, key string) error {
	path, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("deleting artifact %s: %w", key, err)
	}
	return nil
}

// resolve maps a key onto the root, rejecting traversal outside it.
func (s *LocalStore) resolve(key string) (string, error) {
	if strings.TrimSpace(key) == "" {
		return "", errors.New("artifact key is required")
	}
	cleaned := filepath.Clean(filepath.FromSlash(key))
	if cleaned == "." || strings.HasPrefix(cleaned, "..") || filepath.IsAbs(cleaned) {
		return "", fmt.Errorf("invalid artifact key %q", key)
	}
	return filepath.Join(s.root, cleaned), nil
}
