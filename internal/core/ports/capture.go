package ports

import (
	"context"
	"image"

	"mirrornet/internal/core/domain"
)

// CaptureSource produces raw frames on its own cadence; the core never
// controls the source's frame rate, only drops what it cannot send.
type CaptureSource interface {
	Start(ctx context.Context, deliver func(domain.RawFrame)) error
	Stop()
}

// MediaSink accepts the most recently received frame for display or saving.
// Delivery is asynchronous; done reports completion.
type MediaSink interface {
	Deliver(frame domain.FrameEnvelope, done func(error))
}

// FrameEncoder turns a pixel buffer into an encoded still image according to
// the tier's codec choice.
type FrameEncoder interface {
	Encode(img image.Image, enc domain.Encoding) ([]byte, error)
}
