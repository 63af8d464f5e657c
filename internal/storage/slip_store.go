// Package storage keeps uploaded slip images on local disk under a
// configurable base directory.  Uploads land in temp/ first and are
// promoted into slips/ only after verification succeeds, so a failed
// verification never leaves a slip behind.
package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

type SlipStore struct {
	basePath string
}

func NewSlipStore(basePath string) *SlipStore {
	return &SlipStore{basePath: basePath}
}

// SaveTemp writes an uploaded slip into the temp area under a random name
// and returns the path relative to the base directory.
func (s *SlipStore) SaveTemp(filename string, data io.Reader) (string, error) {
	rel := filepath.Join("temp", "slip-"+uuid.NewString()+filepath.Ext(filename))
	full := filepath.Join(s.basePath, rel)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", err
	}
	f, err := os.Create(full)
	if err != nil {
		return "", err
	}
	defer f.Close()
	if _, err := io.Copy(f, data); err != nil {
		_ = os.Remove(full)
		return "", err
	}
	return rel, nil
}

// Promote moves a verified temp slip into the permanent slips area, named
// after the order it belongs to, and returns the new relative path.
func (s *SlipStore) Promote(tempRel string, orderID uint64) (string, error) {
	rel := filepath.Join("slips",
		fmt.Sprintf("slip_%d_%d%s", orderID, time.Now().UnixMilli(), filepath.Ext(tempRel)))
	full := filepath.Join(s.basePath, rel)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", err
	}
	if err := os.Rename(filepath.Join(s.basePath, tempRel), full); err != nil {
		return "", err
	}
	return rel, nil
}

// Discard deletes a temp slip after a failed verification.  Missing files
// are not an error.
func (s *SlipStore) Discard(tempRel string) error {
	err := os.Remove(filepath.Join(s.basePath, tempRel))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// Open returns a reader over a stored slip by its relative path.
func (s *SlipStore) Open(rel string) (io.ReadCloser, error) {
	return os.Open(filepath.Join(s.basePath, rel))
}

// FullPath resolves a stored relative path against the base directory.
func (s *SlipStore) FullPath(rel string) string {
	return filepath.Join(s.basePath, rel)
}

// Exists reports whether a stored slip is still on disk.
func (s *SlipStore) Exists(rel string) bool {
	_, err := os.Stat(filepath.Join(s.basePath, rel))
	return !os.IsNotExist(err)
}
