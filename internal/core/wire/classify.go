package wire

import "mirrornet/internal/core/domain"

// MessageKind is the outcome of classifying one received payload.
type MessageKind string

const (
	KindControl MessageKind = "control"
	KindFrame   MessageKind = "frame"
	KindDiscard MessageKind = "discard"
)

// Message is a classified inbound payload. Exactly one of Control/Frame is
// meaningful, selected by Kind.
type Message struct {
	Kind    MessageKind
	Control ControlMessage
	Frame   domain.FrameEnvelope
}

// Classify applies the ordered fallback chain of the receive path:
// control-message parse first, then frame-envelope parse, then discard.
// It never fails; arbitrary bytes yield KindDiscard.
func Classify(data []byte) Message {
	if ctl, ok := DecodeControl(data); ok {
		return Message{Kind: KindControl, Control: ctl}
	}
	if env, err := DecodeFrame(data); err == nil {
		return Message{Kind: KindFrame, Frame: env}
	}
	return Message{Kind: KindDiscard}
}
