package upload

import (
	"strings"
	"testing"
)

func TestValidateFile_AcceptsRegularFiles(t *testing.T) {
	t.Parallel()

	pngHead := []byte("\x89PNG\r\n\x1a\n00000000")
	mime, err := ValidateFile("photo.png", 1024, pngHead)
	if err != nil {
		t.Fatalf("png rejected: %v", err)
	}
	if mime != "image/png" {
		t.Fatalf("expected image/png, got %s", mime)
	}

	pdfHead := []byte("%PDF-1.7 some content")
	if _, err := ValidateFile("report.pdf", 2048, pdfHead); err != nil {
		t.Fatalf("pdf rejected: %v", err)
	}
}

func TestValidateFile_RejectsOversizedFiles(t *testing.T) {
	t.Parallel()

	if _, err := ValidateFile("big.bin", MaxFileSize+1, []byte{0x00}); err == nil {
		t.Fatalf("oversized file accepted")
	}
	if _, err := ValidateFile("exact.bin", MaxFileSize, []byte{0x00}); err != nil {
		t.Fatalf("file at the size limit rejected: %v", err)
	}
}

func TestValidateFile_RejectsEmptyAndUnnamed(t *testing.T) {
	t.Parallel()

	if _, err := ValidateFile("", 10, []byte("x")); err == nil {
		t.Fatalf("unnamed file accepted")
	}
	if _, err := ValidateFile("empty.txt", 0, nil); err == nil {
		t.Fatalf("empty file accepted")
	}
}

func TestValidateFile_RejectsScriptableContent(t *testing.T) {
	t.Parallel()

	html := []byte("<!DOCTYPE html><html><body>hi</body></html>")
	if _, err := ValidateFile("page.png", int64(len(html)), html); err == nil {
		t.Fatalf("html content accepted despite image extension")
	}

	svg := []byte(`<?xml version="1.0"?><svg xmlns="http://www.w3.org/2000/svg"></svg>`)
	if _, err := ValidateFile("image.svg", int64(len(svg)), svg); err == nil {
		t.Fatalf("svg content accepted")
	}
}

func TestValidateFile_DetectsMimeFromContentNotName(t *testing.T) {
	t.Parallel()

	pngHead := []byte("\x89PNG\r\n\x1a\n00000000")
	mime, err := ValidateFile("document.txt", 100, pngHead)
	if err != nil {
		t.Fatalf("unexpected rejection: %v", err)
	}
	if !strings.HasPrefix(mime, "image/png") {
		t.Fatalf("expected content-based detection, got %s", mime)
	}
}
