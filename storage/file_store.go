package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrInvalidName is returned for ids or file names that would escape the
// store root.
var ErrInvalidName = errors.New("storage: invalid artifact name")

// FileStore keeps report artifacts on local disk under root/<id>/<name>.
type FileStore struct {
	root string
}

// NewFileStore creates the root directory if needed.
func NewFileStore(root string) (*FileStore, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("storage: create artifact dir: %w", err)
	}
	return &FileStore{root: root}, nil
}

// Save writes data to root/<id>/<name>, replacing any previous file.
func (s *FileStore) Save(id, name string, data []byte) error {
	path, err := s.Path(id, name)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("storage: create report dir: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("storage: write %q: %w", name, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("storage: finalize %q: %w", name, err)
	}
	return nil
}

// Path resolves the on-disk location of an artifact. It does not check
// that the file exists.
func (s *FileStore) Path(id, name string) (string, error) {
	if !validSegment(id) || !validSegment(name) {
		return "", fmt.Errorf("%w: %q/%q", ErrInvalidName, id, name)
	}
	return filepath.Join(s.root, id, name), nil
}

func validSegment(s string) bool {
	if s == "" || s == "." || s == ".." {
		return false
	}
	return !strings.ContainsAny(s, `/\`) && !strings.Contains(s, "\x00")
}
