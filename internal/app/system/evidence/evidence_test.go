package evidence

import (
	"context"
	"errors"
	"io"
	"os"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/waffle/pantry/storage"
)

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"shot.png", "shot.png"},
		{"my shot (1).png", "my_shot__1_.png"},
		{"../../etc/passwd", "passwd"},
		{`C:\Users\ada\pic.jpg`, "pic.jpg"},
		{"", "file"},
		{"...", "file"},
		{"a..png", "a.png"},
		{"ünï.png", "__n__.png"},
		{strings.Repeat("a", 150) + ".jpeg", strings.Repeat("a", 95) + ".jpeg"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := SanitizeFilename(tt.in); got != tt.want {
				t.Errorf("SanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestKey(t *testing.T) {
	now := time.Date(2025, 1, 3, 10, 0, 0, 0, time.UTC)
	k1 := Key("shot.png", now)
	k2 := Key("shot.png", now)

	re := regexp.MustCompile(`^evidence/2025/01/[0-9a-f]{8}-shot\.png$`)
	if !re.MatchString(k1) {
		t.Errorf("Key = %q", k1)
	}
	if k1 == k2 {
		t.Errorf("keys should be unique, both %q", k1)
	}
	if !IsKey(k1) {
		t.Errorf("IsKey(%q) = false", k1)
	}
}

func TestIsKey(t *testing.T) {
	tests := []struct {
		ref  string
		want bool
	}{
		{"evidence/2025/01/0a1b2c3d-shot.png", true},
		{"evidence/2025/01/0a1b2c3d-file", true},
		{"", false},
		{"shot.png", false},
		{"https://example.com/shot.png", false},
		{"/evidence/2025/01/0a1b2c3d-shot.png", false},
		{"evidence/2025/1/0a1b2c3d-shot.png", false},
		{"evidence/2025/01/0A1B2C3D-shot.png", false},
		{"evidence/2025/01/0a1b2c3d-../x", false},
		{"evidence/2025/01/0a1b2c3d-a..b", false},
		{"evidence/2025/01/0a1b2c3d-my shot.png", false},
		{"resources/2025/01/0a1b2c3d-shot.png", false},
	}
	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			if got := IsKey(tt.ref); got != tt.want {
				t.Errorf("IsKey(%q) = %v, want %v", tt.ref, got, tt.want)
			}
		})
	}
}

func TestUploader_PutDelete(t *testing.T) {
	mem := storage.NewMemory(storage.MemoryConfig{})
	u := NewUploader(mem)
	u.now = func() time.Time { return time.Date(2025, 1, 3, 10, 0, 0, 0, time.UTC) }
	ctx := context.Background()

	ref, err := u.Put(ctx, "proof.png", "image/png", strings.NewReader("png-bytes"))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if !strings.HasPrefix(ref, "evidence/2025/01/") || !IsKey(ref) {
		t.Errorf("ref = %q", ref)
	}

	rc, err := mem.Get(ctx, ref)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	b, _ := io.ReadAll(rc)
	rc.Close()
	if string(b) != "png-bytes" {
		t.Errorf("content = %q", b)
	}

	if err := u.Delete(ctx, ref); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if ok, _ := mem.Exists(ctx, ref); ok {
		t.Error("file still present after Delete")
	}
	// Deleting twice is fine.
	if err := u.Delete(ctx, ref); err != nil {
		t.Errorf("second Delete: %v", err)
	}
}

func TestUploader_DeleteRejectsForeignRefs(t *testing.T) {
	u := NewUploader(storage.NewMemory(storage.MemoryConfig{}))
	for _, ref := range []string{"", "../secret", "config.toml", "evidence/../../etc/passwd"} {
		if err := u.Delete(context.Background(), ref); !errors.Is(err, ErrInvalidRef) {
			t.Errorf("Delete(%q) = %v, want ErrInvalidRef", ref, err)
		}
	}
}

func TestUploader_LocalBackend(t *testing.T) {
	local, err := storage.NewLocal(storage.LocalConfig{BasePath: t.TempDir()})
	if err != nil {
		t.Fatalf("NewLocal: %v", err)
	}
	u := NewUploader(local)
	ctx := context.Background()

	ref, err := u.Put(ctx, "my shot.png", "image/png", strings.NewReader("hello"))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	full, err := local.GetFullPath(ref)
	if err != nil {
		t.Fatalf("GetFullPath: %v", err)
	}
	b, err := os.ReadFile(full)
	if err != nil || string(b) != "hello" {
		t.Fatalf("file = %q, %v", b, err)
	}
	if err := u.Delete(ctx, ref); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := os.Stat(full); !os.IsNotExist(err) {
		t.Errorf("stat after delete: %v", err)
	}
}
