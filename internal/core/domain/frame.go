package domain

import (
	"image"
	"time"
)

// Orientation is the EXIF-style device orientation (0..7). It is baked into
// frame metadata, not into pixel rotation, so the receiver rotates for
// display without re-encoding.
type Orientation int

// OrientationUp is the untransformed orientation.
const OrientationUp Orientation = 1

// Valid reports whether o is within the EXIF orientation range.
func (o Orientation) Valid() bool {
	return o >= 0 && o <= 7
}

// RawFrame is one frame as delivered by the capture source, before encoding.
type RawFrame struct {
	Image       image.Image
	CapturedAt  time.Time
	Orientation Orientation
}

// FrameMetadata is the structured record that travels inside the envelope,
// ahead of the image bytes. Width/Height are the original (pre-encode)
// dimensions.
type FrameMetadata struct {
	Orientation      Orientation `json:"orientation"`
	TimestampSeconds float64     `json:"timestampSeconds"`
	Width            float64     `json:"width"`
	Height           float64     `json:"height"`
	QualityTierID    string      `json:"qualityTierId"`
}

// FrameEnvelope is one decoded frame message: metadata plus the encoded
// image payload. Instances are ephemeral, built per send and discarded after
// transmission or consumption.
type FrameEnvelope struct {
	Metadata FrameMetadata
	Image    []byte
}
