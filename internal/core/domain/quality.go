package domain

// QualityTier names a quality configuration. The tier set is configuration,
// not code: the policy table may carry two tiers or three.
type QualityTier string

const (
	TierPerformance QualityTier = "performance"
	TierBalanced    QualityTier = "balanced"
	TierQuality     QualityTier = "quality"
)

// EncodingMode selects the still-image codec for frame payloads.
type EncodingMode string

const (
	EncodingLossy    EncodingMode = "lossy"
	EncodingLossless EncodingMode = "lossless"
)

// Encoding is the codec choice of a tier. Quality is the lossy compression
// factor (1-100) and is ignored for lossless encoding.
type Encoding struct {
	Mode    EncodingMode
	Quality int
}

// Reliability is the transport delivery mode for a single message.
type Reliability string

const (
	// Reliable delivery is ordered and retried by the transport.
	Reliable Reliability = "reliable"
	// Unreliable delivery is best-effort, unordered and may be dropped.
	Unreliable Reliability = "unreliable"
)

// TierParams are the tuning values a tier maps to. Width/Height are the
// capture target; frames are sent at native resolution, so they are a hint
// to the capture source, never a scaling instruction.
type TierParams struct {
	Width           int
	Height          int
	FrameRate       float64
	Encoding        Encoding
	MaxPayloadBytes int
	Reliability     Reliability
}
