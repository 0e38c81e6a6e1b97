package monitoring

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mirrornet/internal/core/domain"
	"mirrornet/internal/core/ports"
)

// compile-time interface check
var _ ports.Metrics = (*PrometheusCollector)(nil)

func TestPrometheusCollector_FrameCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewPrometheusCollector(reg)

	c.RecordFrameSent(domain.TierBalanced, 1500)
	c.RecordFrameSent(domain.TierBalanced, 500)
	c.RecordFrameDropped("throttled")

	assert.Equal(t, 2.0, testutil.ToFloat64(c.framesSentTotal.WithLabelValues("balanced")))
	assert.Equal(t, 2000.0, testutil.ToFloat64(c.frameBytesTotal.WithLabelValues("balanced")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.framesDroppedTotal.WithLabelValues("throttled")))
}

func TestPrometheusCollector_StateGaugeExclusive(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewPrometheusCollector(reg)

	c.RecordStateChange(domain.StateConnecting)
	c.RecordStateChange(domain.StateConnected)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.connectionState.WithLabelValues("connected")))
	assert.Equal(t, 0.0, testutil.ToFloat64(c.connectionState.WithLabelValues("connecting")))
	assert.Equal(t, 0.0, testutil.ToFloat64(c.connectionState.WithLabelValues("disconnected")))
}

func TestPrometheusCollector_SessionCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewPrometheusCollector(reg)

	c.RecordPeerCount(2)
	c.RecordInviteRetry()
	c.RecordInviteRetry()
	c.RecordTransportReinit()
	c.RecordMessageDiscarded()
	c.RecordControlMessage("inbound", "stream_state")

	assert.Equal(t, 2.0, testutil.ToFloat64(c.peersConnected))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.inviteRetriesTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.transportReinits))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.messagesDiscarded))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.controlMessages.WithLabelValues("inbound", "stream_state")))
}

func TestPrometheusCollector_SeparateRegistries(t *testing.T) {
	// Two collectors must not collide when each has its own registry.
	a := NewPrometheusCollector(prometheus.NewRegistry())
	b := NewPrometheusCollector(prometheus.NewRegistry())
	require.NotNil(t, a)
	require.NotNil(t, b)
}
