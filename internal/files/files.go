// Package files manages the upload storage directory and the single
// "currently uploaded, not yet consumed" file slot.
package files

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/lithammer/shortuuid/v4"
)

// Store copies files in and out of a storage directory.
type Store struct {
	dir string
}

// NewStore creates the storage directory if needed.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the storage directory.
func (s *Store) Dir() string {
	return s.dir
}

// SaveUpload copies src into the storage directory under a unique
// name: <DDMMYYYY_HHMMSS>_<5-char-id>_<original-name>. It returns the
// original base name and the stored path.
func (s *Store) SaveUpload(src string) (name, storedPath string, err error) {
	name = filepath.Base(src)
	id := shortuuid.New()[:5]
	storedPath = filepath.Join(s.dir, fmt.Sprintf("%s_%s_%s",
		time.Now().Format("02012006_150405"), id, name))

	if err := copyFile(src, storedPath); err != nil {
		return "", "", fmt.Errorf("upload failed: %w", err)
	}
	return name, storedPath, nil
}

// Export copies a stored file to a destination the user chose.
func (s *Store) Export(src, dst string) error {
	if _, err := os.Stat(src); err != nil {
		return fmt.Errorf("source file does not exist: %w", err)
	}
	if err := copyFile(src, dst); err != nil {
		return fmt.Errorf("download failed: %w", err)
	}
	return nil
}

// OriginalName strips the DDMMYYYY_HHMMSS_id_ prefix from a stored
// file name. Names that don't carry the prefix come back unchanged.
func OriginalName(stored string) string {
	base := filepath.Base(stored)
	parts := strings.SplitN(base, "_", 4)
	if len(parts) == 4 && len(parts[0]) == 8 && len(parts[1]) == 6 && len(parts[2]) == 5 {
		return parts[3]
	}
	return base
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}

// UploadSlot holds at most one uploaded-but-unconsumed file path. It
// is not a queue: a second upload replaces the first. Peek and Clear
// are separate because handlers differ in when (and whether) they
// clear the slot after consuming it.
type UploadSlot struct {
	mu   sync.Mutex
	path string
}

// Set records a freshly uploaded path, replacing any previous one.
func (u *UploadSlot) Set(path string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.path = path
}

// Peek returns the current path without consuming it; ok is false
// when the slot is empty.
func (u *UploadSlot) Peek() (path string, ok bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.path, u.path != ""
}

// Clear empties the slot.
func (u *UploadSlot) Clear() {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.path = ""
}
