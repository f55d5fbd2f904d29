// Package storage implements the audio upload store: a local directory with
// uploads namespaced by date so no single directory grows unbounded.
package storage

import (
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Store is a blob store rooted at a local uploads directory. Files are
// addressed by store-relative paths like "2025-01-30/audio-1738233600123-482910347.mp3".
type Store struct {
	root string // absolute path to the uploads directory
}

// New creates a Store rooted at the given directory, creating it if needed.
func New(root string) (*Store, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve root: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("storage: create root: %w", err)
	}
	return &Store{root: abs}, nil
}

// safePath resolves a relative path against the store root and rejects
// any result that escapes it (directory traversal).
func (s *Store) safePath(rel string) (string, error) {
	cleaned := filepath.Clean(rel)
	if cleaned == "" || filepath.IsAbs(cleaned) {
		return "", fmt.Errorf("storage: invalid path: %s", rel)
	}
	joined := filepath.Join(s.root, cleaned)
	abs, err := filepath.Abs(joined)
	if err != nil {
		return "", fmt.Errorf("storage: resolve path: %w", err)
	}
	if !strings.HasPrefix(abs, s.root+string(os.PathSeparator)) {
		return "", fmt.Errorf("storage: path escapes upload root: %s", rel)
	}
	return abs, nil
}

// Store writes the uploaded audio under today's date directory and returns the
// store-relative path. The filename combines a millisecond timestamp and a
// random suffix so concurrent uploads cannot collide.
func (s *Store) Store(r io.Reader, originalName string) (string, error) {
	dateDir := time.Now().Format("2006-01-02")
	ext := strings.ToLower(filepath.Ext(originalName))
	name := fmt.Sprintf("audio-%d-%09d%s", time.Now().UnixMilli(), rand.Intn(1e9), ext)
	rel := filepath.ToSlash(filepath.Join(dateDir, name))

	abs, err := s.safePath(rel)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return "", fmt.Errorf("storage: mkdir: %w", err)
	}

	f, err := os.Create(abs)
	if err != nil {
		return "", fmt.Errorf("storage: create %s: %w", rel, err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		os.Remove(abs)
		return "", fmt.Errorf("storage: write %s: %w", rel, err)
	}
	return rel, nil
}

// Exists reports whether a store-relative path refers to an existing file.
func (s *Store) Exists(rel string) bool {
	abs, err := s.safePath(rel)
	if err != nil {
		return false
	}
	info, err := os.Stat(abs)
	return err == nil && !info.IsDir()
}

// FullPath resolves a store-relative path to an absolute filesystem path.
func (s *Store) FullPath(rel string) (string, error) {
	return s.safePath(rel)
}

// Open opens a stored file for reading.
func (s *Store) Open(rel string) (*os.File, error) {
	abs, err := s.safePath(rel)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: open %s: %w", rel, err)
	}
	return f, nil
}

// Size returns the size in bytes of a stored file.
func (s *Store) Size(rel string) (int64, error) {
	abs, err := s.safePath(rel)
	if err != nil {
		return 0, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return 0, fmt.Errorf("storage: stat %s: %w", rel, err)
	}
	return info.Size(), nil
}

// Ext returns the lowercase extension of a path, including the dot.
func Ext(path string) string {
	return strings.ToLower(filepath.Ext(path))
}

var mimeTypes = map[string]string{
	".mp3":  "audio/mpeg",
	".wav":  "audio/wav",
	".m4a":  "audio/mp4",
	".aac":  "audio/aac",
	".ogg":  "audio/ogg",
	".webm": "audio/webm",
}

// MIMEType maps an audio file path to its content type, defaulting to audio/mpeg.
func MIMEType(path string) string {
	if mt, ok := mimeTypes[Ext(path)]; ok {
		return mt
	}
	return "audio/mpeg"
}
