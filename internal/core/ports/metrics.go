package ports

import "mirrornet/internal/core/domain"

// Metrics is the instrumentation surface of the core. The prometheus
// collector implements it; tests pass NopMetrics.
type Metrics interface {
	RecordFrameSent(tier domain.QualityTier, bytes int)
	RecordFrameDropped(reason string)
	RecordControlMessage(direction, msgType string)
	RecordMessageDiscarded()
	RecordStateChange(state domain.ConnectionState)
	RecordPeerCount(count int)
	RecordInviteRetry()
	RecordTransportReinit()
}

// NopMetrics discards all observations.
type NopMetrics struct{}

func (NopMetrics) RecordFrameSent(domain.QualityTier, int)     {}
func (NopMetrics) RecordFrameDropped(string)                   {}
func (NopMetrics) RecordControlMessage(string, string)         {}
func (NopMetrics) RecordMessageDiscarded()                     {}
func (NopMetrics) RecordStateChange(domain.ConnectionState)    {}
func (NopMetrics) RecordPeerCount(int)                         {}
func (NopMetrics) RecordInviteRetry()                          {}
func (NopMetrics) RecordTransportReinit()                      {}
