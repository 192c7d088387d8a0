package ioutils

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func TestWriteFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "BUILD_LOG_B1.md")

	if err := WriteFile(context.Background(), path, []byte("first")); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	if err := WriteFile(context.Background(), path, []byte("second")); err != nil {
		t.Fatalf("WriteFile() overwrite error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "second" {
		t.Errorf("content = %q, want second", data)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("directory has %d entries, want only the target file", len(entries))
	}
}

func TestWriteFile_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	path := filepath.Join(t.TempDir(), "out.md")
	if err := WriteFile(ctx, path, []byte("x")); err == nil {
		t.Error("WriteFile() should fail with a cancelled context")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("no file should be written")
	}
}

func TestSanitizeFileName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"AAL/AA:07009", "AAL_AA_07009"},
		{"Build...", "Build"},
		{"B1   nightly ", "B1 nightly"},
		{"AAL-AA-07009-01.20260130.062740", "AAL-AA-07009-01.20260130.062740"},
	}
	for _, tt := range tests {
		if got := SanitizeFileName(tt.in); got != tt.want {
			t.Errorf("SanitizeFileName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestImageService_ResizeImage(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 400, 200))
	for x := 0; x < 400; x++ {
		for y := 0; y < 200; y++ {
			src.Set(x, y, color.White)
		}
	}

	svc := NewImageService()
	ctx := context.Background()

	data, err := svc.EncodePNG(ctx, src)
	if err != nil {
		t.Fatalf("EncodePNG() error = %v", err)
	}

	resized, err := svc.ResizeImage(ctx, data, 100, 100)
	if err != nil {
		t.Fatalf("ResizeImage() error = %v", err)
	}

	img, err := png.Decode(bytes.NewReader(resized))
	if err != nil {
		t.Fatalf("result is not PNG: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 100 || b.Dy() != 50 {
		t.Errorf("resized to %dx%d, want 100x50", b.Dx(), b.Dy())
	}
}
