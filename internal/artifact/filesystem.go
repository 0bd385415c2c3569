package artifact

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

type FilesystemStore struct {
	dir string
}

var _ Store = (*FilesystemStore)(nil)

func NewFilesystemStore(dir string) (*FilesystemStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating artifact directory: %w", err)
	}
	return &FilesystemStore{dir: dir}, nil
}

// Write stages the content in a temporary file and renames it into place.
// Readers either see the previous artifact or the complete new one.
func (s *FilesystemStore) Write(ctx context.Context, jobID uuid.UUID, content io.Reader) (string, error) {
	final := filepath.Join(s.dir, objectName(jobID))

	tmp, err := os.CreateTemp(s.dir, ".tmp-"+jobID.String()+"-*")
	if err != nil {
		return "", fmt.Errorf("creating temporary artifact file: %w", err)
	}
	defer func() {
		tmp.Close()
		os.Remove(tmp.Name())
	}()

	if _, err := io.Copy(tmp, content); err != nil {
		return "", fmt.Errorf("writing artifact: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return "", fmt.Errorf("syncing artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("closing artifact: %w", err)
	}

	if err := os.Rename(tmp.Name(), final); err != nil {
		return "", fmt.Errorf("publishing artifact: %w", err)
	}

	return final, nil
}

func (s *FilesystemStore) Exists(ctx context.Context, jobID uuid.UUID) (bool, error) {
	_, err := os.Stat(filepath.Join(s.dir, objectName(jobID)))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *FilesystemStore) Open(ctx context.Context, location string) (io.ReadCloser, error) {
	f, err := os.Open(location)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("artifact %s not found: %w", location, err)
		}
		return nil, err
	}
	return f, nil
}

func (s *FilesystemStore) Type() string {
	return "filesystem"
}
