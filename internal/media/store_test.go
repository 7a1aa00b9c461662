package media

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/quillpress/quillpress/internal/platform/httpx"
)

// Smallest valid PNG: signature + IHDR prefix is enough for sniffing.
var pngBytes = []byte{
	0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a,
	0x00, 0x00, 0x00, 0x0d, 'I', 'H', 'D', 'R',
}

func newStore(t *testing.T, maxSize int64) *DiskStore {
	t.Helper()
	store, err := NewDiskStore(t.TempDir(), maxSize)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return store
}

func TestSaveImage(t *testing.T) {
	store := newStore(t, 1<<20)

	url, contentType, err := store.Save(context.Background(), "photo.png", bytes.NewReader(pngBytes))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if !strings.HasPrefix(url, "/media/") {
		t.Fatalf("url = %q, want /media/ prefix", url)
	}
	if contentType != "image/png" {
		t.Fatalf("content type = %q, want image/png", contentType)
	}

	stored := filepath.Join(store.root, strings.TrimPrefix(url, "/media/"))
	data, err := os.ReadFile(stored)
	if err != nil {
		t.Fatalf("read stored file: %v", err)
	}
	if !bytes.Equal(data, pngBytes) {
		t.Fatal("stored bytes differ from upload")
	}
}

func TestSaveRejectsNonMedia(t *testing.T) {
	store := newStore(t, 1<<20)
	_, _, err := store.Save(context.Background(), "notes.txt", strings.NewReader("just some text"))
	if !errors.Is(err, httpx.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestSaveRejectsOversize(t *testing.T) {
	store := newStore(t, 8)
	_, _, err := store.Save(context.Background(), "big.png", bytes.NewReader(pngBytes))
	if !errors.Is(err, httpx.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestSaveRejectsEmpty(t *testing.T) {
	store := newStore(t, 1<<20)
	_, _, err := store.Save(context.Background(), "empty.png", bytes.NewReader(nil))
	if !errors.Is(err, httpx.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestSaveSanitizesFilename(t *testing.T) {
	store := newStore(t, 1<<20)
	url, _, err := store.Save(context.Background(), "../../etc/pass wd.png", bytes.NewReader(pngBytes))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	name := strings.TrimPrefix(url, "/media/")
	if strings.Contains(name, "/") || strings.Contains(name, "..") {
		t.Fatalf("unsafe stored name %q", name)
	}
	if !strings.HasSuffix(name, ".png") {
		t.Fatalf("extension not forced: %q", name)
	}
}
