package streaming

import (
	"fmt"
	"image"
	"image/jpeg"
	"image/png"

	"mirrornet/internal/core/domain"
	"mirrornet/pkg/optimize"
)

// ImageEncoder turns raw frames into compressed payload bytes. Lossy tiers
// use JPEG with the tier's quality setting, lossless tiers use PNG. Encode
// buffers come from a shared pool since frames arrive at up to 60 fps.
type ImageEncoder struct {
	pool *optimize.BufferPool
}

func NewImageEncoder() *ImageEncoder {
	return &ImageEncoder{
		// Large enough for a typical 1080p lossy frame without growing.
		pool: optimize.NewBufferPool(512 * 1024),
	}
}

// Encode compresses img according to the encoding parameters.
func (e *ImageEncoder) Encode(img image.Image, enc domain.Encoding) ([]byte, error) {
	if img == nil {
		return nil, fmt.Errorf("nil image")
	}

	buf := e.pool.Get()
	defer e.pool.Put(buf)

	switch enc.Mode {
	case domain.EncodingLossy:
		quality := enc.Quality
		if quality <= 0 || quality > 100 {
			quality = jpeg.DefaultQuality
		}
		if err := jpeg.Encode(buf, img, &jpeg.Options{Quality: quality}); err != nil {
			return nil, fmt.Errorf("jpeg encode failed: %w", err)
		}
	case domain.EncodingLossless:
		if err := png.Encode(buf, img); err != nil {
			return nil, fmt.Errorf("png encode failed: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown encoding mode %q", enc.Mode)
	}

	// The buffer goes back to the pool, so the caller gets a copy.
	out := make([]byte, buf.Len())
	copy(out, buf.Bytes())
	return out, nil
}
