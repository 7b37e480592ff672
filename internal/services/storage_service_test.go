package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/essenza/backend/internal/config"
)

func newTestStorage(t *testing.T) *StorageService {
	t.Helper()
	cfg := &config.Config{LocalAssetsPath: t.TempDir()}
	return NewStorageService(cfg)
}

func TestBuildObjectKey(t *testing.T) {
	s := newTestStorage(t)

	key := s.BuildObjectKey("audio", "Set Live.MP3")
	if !strings.HasPrefix(key, "audio/") {
		t.Errorf("key %q missing kind prefix", key)
	}
	if !strings.HasSuffix(key, ".mp3") {
		t.Errorf("key %q should keep a lowercased extension", key)
	}

	other := s.BuildObjectKey("audio", "Set Live.MP3")
	if key == other {
		t.Error("two keys for the same filename collided")
	}

	if k := s.BuildObjectKey("image", "noext"); filepath.Ext(k) != "" {
		t.Errorf("key %q should have no extension", k)
	}
}

func TestSaveStreamRoundTrip(t *testing.T) {
	s := newTestStorage(t)

	content := "fragrance notes"
	absPath, size, checksum, err := s.SaveStream(context.Background(), "image/test.txt", strings.NewReader(content))
	if err != nil {
		t.Fatalf("SaveStream: %v", err)
	}
	if size != int64(len(content)) {
		t.Errorf("size = %d, want %d", size, len(content))
	}

	sum := sha256.Sum256([]byte(content))
	if checksum != hex.EncodeToString(sum[:]) {
		t.Errorf("checksum mismatch: %s", checksum)
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		t.Fatalf("reading stored file: %v", err)
	}
	if string(data) != content {
		t.Errorf("stored content = %q", data)
	}

	// No partial file left behind
	if _, err := os.Stat(absPath + ".part"); !os.IsNotExist(err) {
		t.Error("temp file was not cleaned up")
	}

	got, err := s.LocalPath("image/test.txt")
	if err != nil {
		t.Fatalf("LocalPath: %v", err)
	}
	if got != absPath {
		t.Errorf("LocalPath = %q, want %q", got, absPath)
	}
}

func TestLocalPathMissing(t *testing.T) {
	s := newTestStorage(t)
	if _, err := s.LocalPath("audio/nope.mp3"); err == nil {
		t.Error("expected an error for a missing file")
	}
}

func TestRemove(t *testing.T) {
	s := newTestStorage(t)

	if _, _, _, err := s.SaveStream(context.Background(), "image/gone.txt", strings.NewReader("x")); err != nil {
		t.Fatalf("SaveStream: %v", err)
	}
	if err := s.Remove("image/gone.txt"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, err := s.LocalPath("image/gone.txt"); err == nil {
		t.Error("file still present after Remove")
	}

	// Removing twice is not an error
	if err := s.Remove("image/gone.txt"); err != nil {
		t.Errorf("Remove on missing file: %v", err)
	}
}
