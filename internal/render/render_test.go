package render

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestImagePath(t *testing.T) {
	r := &Rasterizer{ImagesDir: "/tmp/imgs"}
	if got, want := r.ImagePath(0), filepath.Join("/tmp/imgs", "page_1.png"); got != want {
		t.Errorf("expected %s, got %s", want, got)
	}
	if got, want := r.ImagePath(41), filepath.Join("/tmp/imgs", "page_42.png"); got != want {
		t.Errorf("expected %s, got %s", want, got)
	}
}

func TestRender_ReusesExistingImage(t *testing.T) {
	dir := t.TempDir()
	r := &Rasterizer{
		PDFPath:   filepath.Join(dir, "missing.pdf"),
		ImagesDir: dir,
		Command:   filepath.Join(dir, "no-such-binary"),
	}
	existing := r.ImagePath(2)
	if err := os.WriteFile(existing, []byte("png"), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := r.Render(context.Background(), 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != existing {
		t.Errorf("expected %s, got %s", existing, got)
	}
}

func TestRender_CommandFailure(t *testing.T) {
	dir := t.TempDir()
	r := &Rasterizer{
		PDFPath:   filepath.Join(dir, "missing.pdf"),
		ImagesDir: filepath.Join(dir, "out"),
		Command:   filepath.Join(dir, "no-such-binary"),
	}
	if _, err := r.Render(context.Background(), 0); err == nil {
		t.Fatal("expected error from missing binary")
	}
}

func TestRender_CancelledContext(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := &Rasterizer{PDFPath: "x.pdf", ImagesDir: dir}
	if _, err := r.Render(ctx, 0); err != context.Canceled {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestRender_NegativeIndex(t *testing.T) {
	r := &Rasterizer{ImagesDir: t.TempDir()}
	if _, err := r.Render(context.Background(), -1); err == nil {
		t.Fatal("expected error")
	}
}

func TestPageCount_MissingFile(t *testing.T) {
	r := &Rasterizer{PDFPath: filepath.Join(t.TempDir(), "none.pdf")}
	if _, err := r.PageCount(); err == nil {
		t.Fatal("expected error")
	}
}
