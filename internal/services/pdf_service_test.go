package services

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"strings"
	"testing"
)

func encodeTestPNG(t *testing.T, width int, height int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}

	return buf.Bytes()
}

func TestPdfServiceExtractImagesEmptyArgs(t *testing.T) {
	service, err := NewPdfService()
	if err != nil {
		t.Fatalf("NewPdfService: %v", err)
	}

	if _, err := service.ExtractImages(context.Background(), "", "out"); err == nil {
		t.Fatalf("ExtractImages empty path: expected error")
	}
	if _, err := service.ExtractImages(context.Background(), "in.pdf", ""); err == nil {
		t.Fatalf("ExtractImages empty out dir: expected error")
	}
}

func TestPdfServiceExtractImagesMissingFile(t *testing.T) {
	service, err := NewPdfService()
	if err != nil {
		t.Fatalf("NewPdfService: %v", err)
	}

	if _, err := service.ExtractImages(context.Background(), "/does/not/exist.pdf", t.TempDir()); err == nil {
		t.Fatalf("ExtractImages missing file: expected error")
	}
}

func TestPdfServiceWriteAltTextsEmptyArgs(t *testing.T) {
	service, err := NewPdfService()
	if err != nil {
		t.Fatalf("NewPdfService: %v", err)
	}

	if err := service.WriteAltTexts(context.Background(), "", "out.pdf", nil); err == nil {
		t.Fatalf("WriteAltTexts empty input: expected error")
	}
	if err := service.WriteAltTexts(context.Background(), "in.pdf", "", nil); err == nil {
		t.Fatalf("WriteAltTexts empty output: expected error")
	}
}

func TestImageDimensions(t *testing.T) {
	data := encodeTestPNG(t, 120, 80)

	width, height := imageDimensions(data)
	if width != 120 || height != 80 {
		t.Fatalf("dimensions = %dx%d, want 120x80", width, height)
	}

	width, height = imageDimensions([]byte("not an image"))
	if width != 0 || height != 0 {
		t.Fatalf("dimensions for garbage = %dx%d, want 0x0", width, height)
	}
}

func TestSkipAsSpacer(t *testing.T) {
	cases := []struct {
		width  int
		height int
		want   bool
	}{
		{100, 100, false},
		{19, 100, true},
		{100, 19, true},
		{20, 20, false},
		// Undecodable formats have no known size and are kept.
		{0, 0, false},
	}

	for _, tc := range cases {
		if got := skipAsSpacer(tc.width, tc.height); got != tc.want {
			t.Fatalf("skipAsSpacer(%d, %d) = %t, want %t", tc.width, tc.height, got, tc.want)
		}
	}
}

func TestImageFilename(t *testing.T) {
	if got := imageFilename(3, 2, "png"); got != "p3_img2.png" {
		t.Fatalf("imageFilename = %q, want %q", got, "p3_img2.png")
	}
}

func TestContextText(t *testing.T) {
	if got := contextText(""); got != noContextFallback {
		t.Fatalf("empty context = %q, want %q", got, noContextFallback)
	}
	if got := contextText("Kurzer Text"); got != "Kurzer Text" {
		t.Fatalf("short context = %q, want unchanged", got)
	}

	long := strings.Repeat("ä", maxContextChars+50)
	got := contextText(long)
	if len([]rune(got)) != maxContextChars {
		t.Fatalf("truncated length = %d runes, want %d", len([]rune(got)), maxContextChars)
	}
}
