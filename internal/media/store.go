// Package media stores uploaded files on local disk and serves back their
// public URLs. Uploads are sniffed by content, not trusted by extension.
package media

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"github.com/quillpress/quillpress/internal/platform/httpx"
)

// DiskStore writes uploads under a root directory. Stored names are
// prefixed with a random ID so colliding client filenames never overwrite
// each other.
type DiskStore struct {
	root    string
	maxSize int64
}

// NewDiskStore constructs a DiskStore rooted at dir, creating it if needed.
func NewDiskStore(dir string, maxSize int64) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("media: create root: %w", err)
	}
	return &DiskStore{root: dir, maxSize: maxSize}, nil
}

// Save persists the upload and returns its public URL and detected content
// type. Only image and video payloads are accepted.
func (s *DiskStore) Save(ctx context.Context, filename string, r io.Reader) (string, string, error) {
	if err := ctx.Err(); err != nil {
		return "", "", err
	}

	data, err := io.ReadAll(io.LimitReader(r, s.maxSize+1))
	if err != nil {
		return "", "", fmt.Errorf("media: read upload: %w", err)
	}
	if int64(len(data)) > s.maxSize {
		return "", "", fmt.Errorf("media: upload exceeds %d bytes: %w", s.maxSize, httpx.ErrValidation)
	}
	if len(data) == 0 {
		return "", "", fmt.Errorf("media: empty upload: %w", httpx.ErrValidation)
	}

	detected := mimetype.Detect(data)
	if !isAllowed(detected) {
		return "", "", fmt.Errorf("media: unsupported type %s: %w", detected.String(), httpx.ErrValidation)
	}

	name := uuid.NewString() + "_" + sanitize(filename, detected.Extension())
	path := filepath.Join(s.root, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", "", fmt.Errorf("media: write file: %w", err)
	}
	return "/media/" + name, detected.String(), nil
}

func isAllowed(m *mimetype.MIME) bool {
	return strings.HasPrefix(m.String(), "image/") || strings.HasPrefix(m.String(), "video/")
}

// sanitize strips path components from the client filename and forces the
// extension matching the sniffed type.
func sanitize(filename, ext string) string {
	base := filepath.Base(filename)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '-'
	}, base)
	if cleaned == "" || cleaned == "." {
		cleaned = "upload"
	}
	return cleaned + ext
}
