package blob

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Shivanand-hulikatti/event-ticketing/internal/model"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func TestLocalStorePutDelete(t *testing.T) {
	dir := t.TempDir()
	s, err := NewLocalStore(dir, "/uploads/")
	if err != nil {
		t.Fatalf("NewLocalStore: %v", err)
	}
	ctx := context.Background()

	p, err := s.Put(ctx, ".png", []byte("data"))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if !strings.HasPrefix(p, "/uploads/") || path.Ext(p) != ".png" {
		t.Fatalf("path = %q", p)
	}
	onDisk := filepath.Join(dir, path.Base(p))
	if b, err := os.ReadFile(onDisk); err != nil || string(b) != "data" {
		t.Fatalf("read back: %q, %v", b, err)
	}

	if err := s.Delete(ctx, p); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := os.Stat(onDisk); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("file still present: %v", err)
	}
	if err := s.Delete(ctx, p); err != nil {
		t.Fatalf("second Delete: %v", err)
	}
}

func TestLocalStoreDeleteIgnoresForeignPaths(t *testing.T) {
	dir := t.TempDir()
	keep := filepath.Join(dir, "keep.txt")
	if err := os.WriteFile(keep, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	s, _ := NewLocalStore(dir, "/uploads")

	for _, p := range []string{"/etc/passwd", "https://cdn.example.com/keep.txt", "/uploads/../keep.txt"} {
		if err := s.Delete(context.Background(), p); err != nil {
			t.Fatalf("Delete(%q): %v", p, err)
		}
	}
	if _, err := os.Stat(keep); err != nil {
		t.Fatalf("foreign file removed: %v", err)
	}
}

func TestImageStoreDownscales(t *testing.T) {
	dir := t.TempDir()
	local, _ := NewLocalStore(dir, "/uploads")
	s := NewImageStore(local, 100, 100)

	p, err := s.Save(context.Background(), model.Upload{Filename: "logo.png", Data: pngBytes(t, 400, 200)})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	f, err := os.Open(filepath.Join(dir, path.Base(p)))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	cfg, format, err := image.DecodeConfig(f)
	if err != nil {
		t.Fatalf("DecodeConfig: %v", err)
	}
	if format != "png" || cfg.Width != 100 || cfg.Height != 50 {
		t.Fatalf("stored %s %dx%d, want png 100x50", format, cfg.Width, cfg.Height)
	}
}

func TestImageStoreRejectsNonImages(t *testing.T) {
	local, _ := NewLocalStore(t.TempDir(), "/uploads")
	s := NewImageStore(local, 100, 100)

	_, err := s.Save(context.Background(), model.Upload{Filename: "notes.txt", Data: []byte("hello world")})
	if !errors.Is(err, ErrNotImage) {
		t.Fatalf("err = %v, want ErrNotImage", err)
	}
}
