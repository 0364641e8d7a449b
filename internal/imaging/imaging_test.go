package imaging

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"math/rand"
	"testing"
)

func createTestJPEG(w, h int) []byte {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{255, 0, 0, 255})
		}
	}
	var buf bytes.Buffer
	jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90})
	return buf.Bytes()
}

func createTestPNG(w, h int) []byte {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.NRGBA{0, 0, 255, uint8(x % 256)})
		}
	}
	var buf bytes.Buffer
	png.Encode(&buf, img)
	return buf.Bytes()
}

// createNoisyPNG produces an image that JPEG compresses poorly.
func createNoisyPNG(w, h int) []byte {
	rng := rand.New(rand.NewSource(1))
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = uint8(rng.Intn(256))
	}
	var buf bytes.Buffer
	png.Encode(&buf, img)
	return buf.Bytes()
}

func decodeBounds(t *testing.T, data []byte) image.Rectangle {
	t.Helper()
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decoding result: %v", err)
	}
	return img.Bounds()
}

func TestCompressJPEG(t *testing.T) {
	result, err := Compress(createTestJPEG(100, 100))
	if err != nil {
		t.Fatalf("Compress JPEG: %v", err)
	}
	if result.MIME != "image/jpeg" || result.Ext != ".jpg" {
		t.Errorf("expected image/jpeg .jpg, got %s %s", result.MIME, result.Ext)
	}
	if len(result.Data) == 0 {
		t.Error("expected non-empty data")
	}
}

func TestCompressPNG(t *testing.T) {
	result, err := Compress(createTestPNG(100, 100))
	if err != nil {
		t.Fatalf("Compress PNG: %v", err)
	}
	if result.MIME != "image/jpeg" {
		t.Errorf("expected image/jpeg (always outputs JPEG), got %s", result.MIME)
	}
}

func TestCompressDownscale(t *testing.T) {
	result, err := Compress(createTestJPEG(3000, 1500))
	if err != nil {
		t.Fatalf("Compress large image: %v", err)
	}

	b := decodeBounds(t, result.Data)
	if b.Dx() != MaxDimension || b.Dy() != MaxDimension/2 {
		t.Errorf("expected %dx%d, got %dx%d", MaxDimension, MaxDimension/2, b.Dx(), b.Dy())
	}
}

func TestCompressSizeBudget(t *testing.T) {
	result, err := Compress(createNoisyPNG(1900, 1900))
	if err != nil {
		t.Fatalf("Compress noisy image: %v", err)
	}
	if len(result.Data) > MaxBytes {
		t.Errorf("expected at most %d bytes, got %d", MaxBytes, len(result.Data))
	}
}

func TestCompressSmallImageNotUpscaled(t *testing.T) {
	result, err := Compress(createTestJPEG(50, 50))
	if err != nil {
		t.Fatalf("Compress small image: %v", err)
	}

	b := decodeBounds(t, result.Data)
	if b.Dx() != 50 || b.Dy() != 50 {
		t.Errorf("small image should not be resized: got %dx%d", b.Dx(), b.Dy())
	}
}

func TestCompressInvalidFormat(t *testing.T) {
	_, err := Compress([]byte("not an image"))
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("expected ErrUnsupportedFormat, got %v", err)
	}
}

// withPNGSize rewrites the IHDR dimensions of a PNG without touching its pixel data.
func withPNGSize(data []byte, w, h uint32) []byte {
	out := bytes.Clone(data)
	binary.BigEndian.PutUint32(out[16:20], w)
	binary.BigEndian.PutUint32(out[20:24], h)
	binary.BigEndian.PutUint32(out[29:33], crc32.ChecksumIEEE(out[12:29]))
	return out
}

func TestCompressRejectsHugeDimensions(t *testing.T) {
	huge := withPNGSize(createTestPNG(2, 2), 30000, 30000)

	cfg, _, err := image.DecodeConfig(bytes.NewReader(huge))
	if err != nil {
		t.Fatalf("crafted header should still parse: %v", err)
	}
	if cfg.Width != 30000 || cfg.Height != 30000 {
		t.Fatalf("expected 30000x30000 header, got %dx%d", cfg.Width, cfg.Height)
	}

	_, err = Compress(huge)
	if !errors.Is(err, ErrTooManyPixels) {
		t.Errorf("expected ErrTooManyPixels, got %v", err)
	}

	_, err = CompressBatch(context.Background(), [][]byte{createTestJPEG(10, 10), huge})
	if !errors.Is(err, ErrTooManyPixels) {
		t.Errorf("expected batch to fail with ErrTooManyPixels, got %v", err)
	}
}

func TestCompressGIFRejected(t *testing.T) {
	_, err := Compress([]byte("GIF89a..."))
	if err == nil {
		t.Error("expected error for GIF")
	}
}

func TestCompressBatch(t *testing.T) {
	results, err := CompressBatch(context.Background(), [][]byte{
		createTestJPEG(40, 40),
		createTestPNG(60, 30),
	})
	if err != nil {
		t.Fatalf("CompressBatch: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	// Order follows the input.
	if b := decodeBounds(t, results[1].Data); b.Dx() != 60 || b.Dy() != 30 {
		t.Errorf("expected second result 60x30, got %dx%d", b.Dx(), b.Dy())
	}
}

func TestCompressBatchFailsAtomically(t *testing.T) {
	results, err := CompressBatch(context.Background(), [][]byte{
		createTestJPEG(40, 40),
		[]byte("broken"),
		createTestJPEG(40, 40),
	})
	if err == nil {
		t.Fatal("expected batch error")
	}
	if results != nil {
		t.Errorf("expected no results on failure, got %d", len(results))
	}
}
