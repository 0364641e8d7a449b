// Package imaging compresses listing photos before upload.
package imaging

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"net/http"

	"golang.org/x/image/draw"
	"golang.org/x/image/webp"
	"golang.org/x/sync/errgroup"
)

// MaxDimension is the maximum width or height of a compressed photo.
const MaxDimension = 1920

// MaxBytes is the size budget of a compressed photo.
const MaxBytes = 1 << 20

// Encoding starts at the first quality and steps down until the output fits MaxBytes.
var qualitySteps = []int{85, 75, 65, 55, 45}

// minDimension stops further downscaling of images that cannot be shrunk below MaxBytes.
const minDimension = 320

// AllowedMIME lists the accepted input MIME types.
var AllowedMIME = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

// MaxPixels caps the declared width times height of an input, checked before
// the pixel buffer is allocated.
const MaxPixels = 50_000_000

var (
	// ErrUnsupportedFormat is returned for inputs that are not JPEG, PNG or WebP.
	ErrUnsupportedFormat = errors.New("unsupported image format")
	// ErrTooManyPixels is returned for inputs larger than MaxPixels.
	ErrTooManyPixels = errors.New("image dimensions too large")
)

// Result is a compressed photo. Output is always JPEG.
type Result struct {
	Data []byte
	MIME string
	Ext  string
}

// Compress validates the format by sniffing bytes, downscales to MaxDimension
// and re-encodes as JPEG within MaxBytes.
func Compress(data []byte) (*Result, error) {
	// Sniff the actual type; client headers are not trusted.
	detected := http.DetectContentType(data)
	if !AllowedMIME[detected] {
		return nil, fmt.Errorf("%w: %s (JPEG, PNG and WebP accepted)", ErrUnsupportedFormat, detected)
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("reading image header: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > MaxPixels {
		return nil, fmt.Errorf("%w: %dx%d (max %d pixels)", ErrTooManyPixels, cfg.Width, cfg.Height, MaxPixels)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}

	img = flatten(downscale(img, MaxDimension))
	for {
		for _, q := range qualitySteps {
			var buf bytes.Buffer
			if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: q}); err != nil {
				return nil, fmt.Errorf("encoding JPEG: %w", err)
			}
			if buf.Len() <= MaxBytes {
				return &Result{Data: buf.Bytes(), MIME: "image/jpeg", Ext: ".jpg"}, nil
			}
		}

		b := img.Bounds()
		longest := max(b.Dx(), b.Dy())
		if longest <= minDimension {
			return nil, fmt.Errorf("image cannot be compressed below %d bytes", MaxBytes)
		}
		img = downscale(img, longest*3/4)
	}
}

// CompressBatch compresses all inputs concurrently. Either every image
// succeeds or the first error is returned and no results are.
func CompressBatch(ctx context.Context, inputs [][]byte) ([]*Result, error) {
	results := make([]*Result, len(inputs))
	g, ctx := errgroup.WithContext(ctx)
	for i, data := range inputs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			r, err := Compress(data)
			if err != nil {
				return fmt.Errorf("image %d: %w", i+1, err)
			}
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// downscale resizes the image so neither dimension exceeds maxDim, using
// Catmull-Rom interpolation. Images already within bounds are returned as is.
func downscale(img image.Image, maxDim int) image.Image {
	bounds := img.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()

	if w <= maxDim && h <= maxDim {
		return img
	}

	newW, newH := w, h
	if w > h {
		newW = maxDim
		newH = int(float64(h) * float64(maxDim) / float64(w))
	} else {
		newH = maxDim
		newW = int(float64(w) * float64(maxDim) / float64(h))
	}
	newW = max(newW, 1)
	newH = max(newH, 1)

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
	return dst
}

// flatten composites the image over white so transparent areas don't turn black in JPEG.
func flatten(img image.Image) image.Image {
	if _, opaque := img.(*image.YCbCr); opaque {
		return img
	}
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Over)
	return dst
}

func init() {
	image.RegisterFormat("jpeg", "\xff\xd8", jpeg.Decode, jpeg.DecodeConfig)
	image.RegisterFormat("png", "\x89PNG", png.Decode, png.DecodeConfig)
	image.RegisterFormat("webp", "RIFF????WEBPVP8", webp.Decode, webp.DecodeConfig)
}
