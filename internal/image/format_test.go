package image

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestExtension(t *testing.T) {
	jpeg := []byte{0xFF, 0xD8, 0xFF, 0xE0, 0, 0}
	gif := []byte("GIF89a......")
	webp := []byte("RIFF\x00\x00\x00\x00WEBPVP8 ")

	tests := []struct {
		name        string
		contentType string
		url         string
		data        []byte
		want        string
	}{
		{"png by content type", "image/png", "https://x.test/a.jpg", nil, "png"},
		{"content type with params", "image/jpeg; charset=binary", "", nil, "jpg"},
		{"legacy jpg mime", "image/jpg", "", nil, "jpg"},
		{"svg by content type", "image/svg+xml", "", nil, "svg"},
		{"webp by url", "application/octet-stream", "https://x.test/foo.webp", nil, "webp"},
		{"jpeg url normalized", "", "https://x.test/foo.JPEG?width=300", nil, "jpg"},
		{"unknown url ext ignored", "", "https://x.test/foo.bmp", gif, "gif"},
		{"sniff jpeg", "", "https://x.test/image", jpeg, "jpg"},
		{"sniff webp", "", "https://x.test/image", webp, "webp"},
		{"default", "text/html", "https://x.test/image", []byte("<html>"), "jpg"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Extension(tt.contentType, tt.url, tt.data); got != tt.want {
				t.Errorf("Extension() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want string
	}{
		{"jpeg", []byte{0xFF, 0xD8, 0xFF, 0xDB}, FormatJPEG},
		{"png", pngBytes(t, 1, 1), FormatPNG},
		{"gif87", []byte("GIF87a"), FormatGIF},
		{"webp", []byte("RIFF1234WEBP"), FormatWebP},
		{"riff but not webp", []byte("RIFF1234WAVE"), ""},
		{"short", []byte{0xFF}, ""},
		{"empty", nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetectFormat(tt.data); got != tt.want {
				t.Errorf("DetectFormat() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDimensions(t *testing.T) {
	w, h, err := Dimensions(pngBytes(t, 12, 7))
	if err != nil {
		t.Fatalf("Dimensions: %v", err)
	}
	if w != 12 || h != 7 {
		t.Errorf("got %dx%d, want 12x7", w, h)
	}

	if _, _, err := Dimensions([]byte("not an image")); err == nil {
		t.Error("expected error for garbage data")
	}
}
