package streaming

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mirrornet/internal/core/domain"
)

func testImage() image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 32, 24))
	for y := 0; y < 24; y++ {
		for x := 0; x < 32; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 8), G: uint8(y * 10), B: 128, A: 255})
		}
	}
	return img
}

func TestImageEncoder_Lossy(t *testing.T) {
	enc := NewImageEncoder()

	data, err := enc.Encode(testImage(), domain.Encoding{Mode: domain.EncodingLossy, Quality: 70})
	require.NoError(t, err)
	require.NotEmpty(t, data)

	decoded, err := jpeg.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 32, decoded.Bounds().Dx())
	assert.Equal(t, 24, decoded.Bounds().Dy())
}

func TestImageEncoder_Lossless(t *testing.T) {
	enc := NewImageEncoder()

	data, err := enc.Encode(testImage(), domain.Encoding{Mode: domain.EncodingLossless})
	require.NoError(t, err)

	decoded, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 32, decoded.Bounds().Dx())
}

func TestImageEncoder_QualityAffectsSize(t *testing.T) {
	enc := NewImageEncoder()

	low, err := enc.Encode(testImage(), domain.Encoding{Mode: domain.EncodingLossy, Quality: 10})
	require.NoError(t, err)
	high, err := enc.Encode(testImage(), domain.Encoding{Mode: domain.EncodingLossy, Quality: 95})
	require.NoError(t, err)

	assert.Less(t, len(low), len(high))
}

func TestImageEncoder_InvalidInputs(t *testing.T) {
	enc := NewImageEncoder()

	_, err := enc.Encode(nil, domain.Encoding{Mode: domain.EncodingLossy, Quality: 70})
	assert.Error(t, err)

	_, err = enc.Encode(testImage(), domain.Encoding{Mode: "fractal"})
	assert.Error(t, err)
}

func TestImageEncoder_OutputIsIndependentOfPool(t *testing.T) {
	enc := NewImageEncoder()

	first, err := enc.Encode(testImage(), domain.Encoding{Mode: domain.EncodingLossless})
	require.NoError(t, err)
	snapshot := make([]byte, len(first))
	copy(snapshot, first)

	// A second encode reuses the pooled buffer; the first result must not
	// be clobbered.
	_, err = enc.Encode(testImage(), domain.Encoding{Mode: domain.EncodingLossy, Quality: 50})
	require.NoError(t, err)
	assert.Equal(t, snapshot, first)
}
