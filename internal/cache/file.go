package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
)

const maxNameLen = 200

// FileBackend stores one JSON document per key inside a directory.
type FileBackend struct {
	dir string
}

// NewFileBackend creates the directory if needed and returns a FileBackend
// rooted at it.
func NewFileBackend(dir string) (*FileBackend, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}
	return &FileBackend{dir: dir}, nil
}

// Load reads the entry stored under key.
func (fb *FileBackend) Load(_ context.Context, key string) (Entry, bool, error) {
	data, err := os.ReadFile(fb.path(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Entry{}, false, nil
		}
		return Entry{}, false, err
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return Entry{}, false, fmt.Errorf("decode cache entry %q: %w", key, err)
	}
	return entry, true, nil
}

// Store writes the entry under key through a temporary file and a rename so
// readers never observe a partial document.
func (fb *FileBackend) Store(_ context.Context, key string, entry Entry) error {
	path := fb.path(key)

	data, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return err
	}

	tmpPath := path + fmt.Sprintf(".tmp.%d", rand.Int())
	if err := os.WriteFile(tmpPath, data, 0o600); err != nil {
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	return nil
}

// Close is a no-op.
func (fb *FileBackend) Close() error { return nil }

func (fb *FileBackend) path(key string) string {
	return filepath.Join(fb.dir, sanitizeKey(key)+".json")
}

// sanitizeKey maps key to a file name. The mapping is injective: bytes
// outside [a-z0-9._-] are written as %XX, and names that would grow past
// maxNameLen become "%h" plus the key's SHA-256, which no escaped name can
// start with.
func sanitizeKey(key string) string {
	var b strings.Builder
	for i := 0; i < len(key); i++ {
		c := key[i]
		if 'a' <= c && c <= 'z' || '0' <= c && c <= '9' || c == '_' || c == '-' || c == '.' {
			b.WriteByte(c)
			continue
		}
		fmt.Fprintf(&b, "%%%02X", c)
	}

	if b.Len() > maxNameLen {
		sum := sha256.Sum256([]byte(key))
		return "%h" + hex.EncodeToString(sum[:])
	}
	return b.String()
}
