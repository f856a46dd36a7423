package photos

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// Store keeps imported photos in a local directory.
type Store struct {
	Dir string
	now func() time.Time
}

func NewStore(dir string) *Store {
	return &Store{Dir: dir, now: time.Now}
}

// Import copies the image at src into the store and returns the new reference.
func (s *Store) Import(src string) (string, error) {
	in, err := os.Open(src)
	if err != nil {
		return "", fmt.Errorf("failed to open photo %s: %w", src, err)
	}
	defer in.Close()

	if err := os.MkdirAll(s.Dir, 0700); err != nil {
		return "", fmt.Errorf("failed to create photo directory: %w", err)
	}

	name := fmt.Sprintf("JPEG_%s_%s.jpg", s.now().Format("20060102_150405"), uuid.NewString())
	dst := filepath.Join(s.Dir, name)
	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		return "", fmt.Errorf("failed to create photo file: %w", err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return "", fmt.Errorf("failed to copy photo: %w", err)
	}
	if err := out.Close(); err != nil {
		os.Remove(dst)
		return "", fmt.Errorf("failed to write photo: %w", err)
	}
	return dst, nil
}
