// Package evidence names submission screenshots and writes them to a
// storage backend from waffle's pantry/storage.
package evidence

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/dalemusser/waffle/pantry/storage"
	"github.com/google/uuid"
)

// ErrInvalidRef is returned for references that were not issued by Key.
var ErrInvalidRef = errors.New("invalid evidence reference")

var keyPattern = regexp.MustCompile(`^evidence/[0-9]{4}/[0-9]{2}/[0-9a-f]{8}-[A-Za-z0-9._-]{1,100}$`)

// Store persists uploaded files. Put returns the reference saved on the
// submission; Delete removes a file whose submission was never written.
type Store interface {
	Put(ctx context.Context, filename, contentType string, r io.Reader) (string, error)
	Delete(ctx context.Context, ref string) error
}

// Uploader writes screenshots to a storage backend under keys built by Key.
type Uploader struct {
	store storage.Store
	now   func() time.Time
}

func NewUploader(store storage.Store) *Uploader {
	return &Uploader{store: store, now: time.Now}
}

// Backend returns the underlying storage backend.
func (u *Uploader) Backend() storage.Store { return u.store }

func (u *Uploader) Put(ctx context.Context, filename, contentType string, r io.Reader) (string, error) {
	key := Key(filename, u.now())
	if err := u.store.Put(ctx, key, r, &storage.PutOptions{ContentType: contentType}); err != nil {
		return "", fmt.Errorf("evidence: put %s: %w", key, err)
	}
	return key, nil
}

// Delete removes ref. A file that is already gone is not an error.
func (u *Uploader) Delete(ctx context.Context, ref string) error {
	if !IsKey(ref) {
		return ErrInvalidRef
	}
	if err := u.store.Delete(ctx, ref); err != nil && !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("evidence: delete %s: %w", ref, err)
	}
	return nil
}

// Key builds the storage key for filename uploaded at now:
// evidence/YYYY/MM/<8 hex>-<sanitized name>.
func Key(filename string, now time.Time) string {
	now = now.UTC()
	return path.Join(
		"evidence",
		fmt.Sprintf("%04d", now.Year()),
		fmt.Sprintf("%02d", int(now.Month())),
		uuid.New().String()[:8]+"-"+SanitizeFilename(filename),
	)
}

// IsKey reports whether ref has the shape Key produces.
func IsKey(ref string) bool {
	return keyPattern.MatchString(ref) && !strings.Contains(ref, "..")
}

// SanitizeFilename keeps the base name, replaces anything outside
// [A-Za-z0-9._-] with '_', collapses dot runs and caps the length at 100
// bytes, preserving a short extension.
func SanitizeFilename(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "." || name == "/" {
		name = ""
	}

	out := make([]byte, 0, len(name))
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c == '.' && len(out) > 0 && out[len(out)-1] == '.':
			continue
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-', c == '_', c == '.':
			out = append(out, c)
		default:
			out = append(out, '_')
		}
	}
	if len(out) == 0 || string(out) == "." {
		return "file"
	}
	if len(out) > 100 {
		ext := filepath.Ext(string(out))
		if ext != "" && len(ext) < 10 {
			out = append(out[:100-len(ext)], ext...)
		} else {
			out = out[:100]
		}
	}
	return string(out)
}
