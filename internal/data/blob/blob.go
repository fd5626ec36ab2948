package blob

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/adipk/ragdocs/pkg/logx"
	"github.com/google/uuid"
)

// Store keeps original document bytes. The rest of the system only ever
// sees opaque paths handed back by Save.
type Store interface {
	Save(r io.Reader, suggestedName string) (string, error)
	Open(path string) (io.ReadCloser, error)
	Delete(path string) bool
	Exists(path string) bool
}

type FileStore struct {
	root   string
	logger *logx.Logger
}

// NewFileStore roots a blob store at dir/documents, creating it if needed.
func NewFileStore(dir string) (*FileStore, error) {
	root := filepath.Join(dir, "documents")
	if err := os.MkdirAll(root, 0750); err != nil {
		return nil, fmt.Errorf("creating blob directory: %w", err)
	}
	return &FileStore{
		root:   root,
		logger: logx.New("blob_store"),
	}, nil
}

// Save writes the stream under a fresh UUID name so concurrent uploads of
// the same filename never collide. The original extension is kept because
// the extractor dispatches on it.
func (s *FileStore) Save(r io.Reader, suggestedName string) (string, error) {
	ext := strings.ToLower(filepath.Ext(suggestedName))
	stored := uuid.New().String() + ext
	path := filepath.Join(s.root, stored)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating blob file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("writing blob file: %w", err)
	}
	return path, nil
}

func (s *FileStore) Open(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening blob file: %w", err)
	}
	return f, nil
}

func (s *FileStore) Delete(path string) bool {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false
	}
	if err := os.Remove(path); err != nil {
		s.logger.Error("Failed to delete blob", "path", path, "error", err)
		return false
	}
	return true
}

func (s *FileStore) Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
