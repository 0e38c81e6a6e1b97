package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"mirrornet/internal/core/domain"
)

// PrometheusCollector implements the core metrics surface. Collectors are
// registered against the given registerer so multiple instances (tests) can
// coexist.
type PrometheusCollector struct {
	framesSentTotal    *prometheus.CounterVec
	framesDroppedTotal *prometheus.CounterVec
	frameBytesTotal    *prometheus.CounterVec
	controlMessages    *prometheus.CounterVec
	messagesDiscarded  prometheus.Counter
	connectionState    *prometheus.GaugeVec
	peersConnected     prometheus.Gauge
	inviteRetriesTotal prometheus.Counter
	transportReinits   prometheus.Counter
}

func NewPrometheusCollector(reg prometheus.Registerer) *PrometheusCollector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &PrometheusCollector{
		framesSentTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "mirrornet_frames_sent_total",
			Help: "Frames sent to peers, by quality tier",
		}, []string{"tier"}),

		framesDroppedTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "mirrornet_frames_dropped_total",
			Help: "Frames dropped before sending, by reason",
		}, []string{"reason"}),

		frameBytesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "mirrornet_frame_bytes_total",
			Help: "Encoded frame payload bytes sent, by quality tier",
		}, []string{"tier"}),

		controlMessages: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "mirrornet_control_messages_total",
			Help: "Control messages processed, by direction and type",
		}, []string{"direction", "type"}),

		messagesDiscarded: factory.NewCounter(prometheus.CounterOpts{
			Name: "mirrornet_messages_discarded_total",
			Help: "Inbound payloads that matched no known format",
		}),

		connectionState: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "mirrornet_connection_state",
			Help: "Current connection state (1 for the active state, 0 otherwise)",
		}, []string{"state"}),

		peersConnected: factory.NewGauge(prometheus.GaugeOpts{
			Name: "mirrornet_peers_connected",
			Help: "Number of currently connected peers",
		}),

		inviteRetriesTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "mirrornet_invite_retries_total",
			Help: "Invite attempts repeated after a drop while connecting",
		}),

		transportReinits: factory.NewCounter(prometheus.CounterOpts{
			Name: "mirrornet_transport_reinits_total",
			Help: "Transport teardown-and-restart cycles",
		}),
	}
}

func (p *PrometheusCollector) RecordFrameSent(tier domain.QualityTier, bytes int) {
	p.framesSentTotal.WithLabelValues(string(tier)).Inc()
	p.frameBytesTotal.WithLabelValues(string(tier)).Add(float64(bytes))
}

func (p *PrometheusCollector) RecordFrameDropped(reason string) {
	p.framesDroppedTotal.WithLabelValues(reason).Inc()
}

func (p *PrometheusCollector) RecordControlMessage(direction, msgType string) {
	p.controlMessages.WithLabelValues(direction, msgType).Inc()
}

func (p *PrometheusCollector) RecordMessageDiscarded() {
	p.messagesDiscarded.Inc()
}

func (p *PrometheusCollector) RecordStateChange(state domain.ConnectionState) {
	for _, s := range []domain.ConnectionState{
		domain.StateDisconnected,
		domain.StateConnecting,
		domain.StateConnected,
		domain.StateFailed,
	} {
		value := 0.0
		if s == state {
			value = 1.0
		}
		p.connectionState.WithLabelValues(string(s)).Set(value)
	}
}

func (p *PrometheusCollector) RecordPeerCount(count int) {
	p.peersConnected.Set(float64(count))
}

func (p *PrometheusCollector) RecordInviteRetry() {
	p.inviteRetriesTotal.Inc()
}

func (p *PrometheusCollector) RecordTransportReinit() {
	p.transportReinits.Inc()
}
