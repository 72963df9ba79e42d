// Package upload stores binary artifacts (signature images, generated
// PDFs, company logos) and hands back a public URL. Uploads are assumed
// safe to retry but no retry is implemented; the first failure is terminal
// for the request.
package upload

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Uploader pushes a file to storage and returns its public URL.
type Uploader interface {
	Upload(data []byte, filename string) (string, error)
}

// LocalUploader writes files under Dir and serves them from
// PublicURL/storage/. Filenames get a uuid prefix so repeated uploads of
// the same name never clobber each other.
type LocalUploader struct {
	Dir       string
	PublicURL string
}

func NewLocalUploader(dir, publicURL string) (*LocalUploader, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return &LocalUploader{Dir: dir, PublicURL: publicURL}, nil
}

func (u *LocalUploader) Upload(data []byte, filename string) (string, error) {
	name := uuid.NewString() + "-" + filepath.Base(filename)
	path := filepath.Join(u.Dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write upload: %w", err)
	}
	return u.PublicURL + "/storage/" + name, nil
}
