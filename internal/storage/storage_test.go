package storage

import (
	"strings"
	"testing"
	"time"
)

func tempStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

func TestStoreAndExists(t *testing.T) {
	s := tempStore(t)

	rel, err := s.Store(strings.NewReader("audio bytes"), "recording.mp3")
	if err != nil {
		t.Fatalf("Store: %v", err)
	}
	if !s.Exists(rel) {
		t.Errorf("stored file %q should exist", rel)
	}

	dateDir := time.Now().Format("2006-01-02")
	if !strings.HasPrefix(rel, dateDir+"/") {
		t.Errorf("path %q should be namespaced under today's date %q", rel, dateDir)
	}
	if !strings.HasSuffix(rel, ".mp3") {
		t.Errorf("path %q should keep the original extension", rel)
	}
}

func TestStoreUniquePaths(t *testing.T) {
	s := tempStore(t)

	a, err := s.Store(strings.NewReader("one"), "x.wav")
	if err != nil {
		t.Fatalf("Store: %v", err)
	}
	b, err := s.Store(strings.NewReader("two"), "x.wav")
	if err != nil {
		t.Fatalf("Store: %v", err)
	}
	if a == b {
		t.Errorf("two uploads of the same name must not collide: %q", a)
	}
}

func TestSize(t *testing.T) {
	s := tempStore(t)

	rel, err := s.Store(strings.NewReader("12345"), "x.ogg")
	if err != nil {
		t.Fatalf("Store: %v", err)
	}
	size, err := s.Size(rel)
	if err != nil {
		t.Fatalf("Size: %v", err)
	}
	if size != 5 {
		t.Errorf("size = %d, want 5", size)
	}
}

func TestExistsMissing(t *testing.T) {
	s := tempStore(t)
	if s.Exists("2025-01-01/audio-nope.mp3") {
		t.Error("missing file reported as existing")
	}
}

func TestPathTraversalRejected(t *testing.T) {
	s := tempStore(t)
	if s.Exists("../../../etc/passwd") {
		t.Error("traversal path reported as existing")
	}
	if _, err := s.FullPath("../escape.mp3"); err == nil {
		t.Error("expected error resolving a path that escapes the root")
	}
	if _, err := s.FullPath("/absolute.mp3"); err == nil {
		t.Error("expected error resolving an absolute path")
	}
}

func TestMIMEType(t *testing.T) {
	cases := map[string]string{
		"a/b.mp3":   "audio/mpeg",
		"a/b.wav":   "audio/wav",
		"a/b.m4a":   "audio/mp4",
		"a/b.aac":   "audio/aac",
		"a/b.ogg":   "audio/ogg",
		"a/b.webm":  "audio/webm",
		"a/b.weird": "audio/mpeg", // default
	}
	for path, want := range cases {
		if got := MIMEType(path); got != want {
			t.Errorf("MIMEType(%q) = %q, want %q", path, got, want)
		}
	}
}

func TestOpenReadsBack(t *testing.T) {
	s := tempStore(t)

	rel, err := s.Store(strings.NewReader("payload"), "x.aac")
	if err != nil {
		t.Fatalf("Store: %v", err)
	}
	f, err := s.Open(rel)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer f.Close()

	buf := make([]byte, 7)
	if _, err := f.Read(buf); err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(buf) != "payload" {
		t.Errorf("content = %q, want %q", buf, "payload")
	}
}
