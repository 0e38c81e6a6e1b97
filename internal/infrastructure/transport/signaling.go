package transport

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// Signaling only runs on the LAN; peers are authenticated by being
		// reachable through mDNS, not by origin.
		return true
	},
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
}

// signalMessage is the offer/answer exchange on the signaling socket. One
// round trip per session: the dialer sends an offer, the listener replies
// with an answer or an error, then the socket closes.
type signalMessage struct {
	Type   string `json:"type"` // "offer", "answer" or "error"
	PeerID string `json:"peer_id"`
	SDP    string `json:"sdp,omitempty"`
	Error  string `json:"error,omitempty"`
}

const (
	signalTypeOffer  = "offer"
	signalTypeAnswer = "answer"
	signalTypeError  = "error"
)

// SignalingConfig tunes the signaling listener.
type SignalingConfig struct {
	Address           string
	MessagesPerSecond float64
	Burst             int
	HandshakeTimeout  time.Duration
}

// SignalingServer accepts offers from inviting peers and returns answers.
// The answerer callback builds the actual session.
type SignalingServer struct {
	cfg      SignalingConfig
	logger   *zap.SugaredLogger
	limiter  *rate.Limiter
	answerer func(peerID, offerSDP string) (string, error)

	mu     sync.Mutex
	server *http.Server
}

func NewSignalingServer(cfg SignalingConfig, answerer func(peerID, offerSDP string) (string, error), logger *zap.SugaredLogger) *SignalingServer {
	if cfg.MessagesPerSecond <= 0 {
		cfg.MessagesPerSecond = 50
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 100
	}
	if cfg.HandshakeTimeout <= 0 {
		cfg.HandshakeTimeout = 10 * time.Second
	}
	return &SignalingServer{
		cfg:      cfg,
		logger:   logger,
		limiter:  rate.NewLimiter(rate.Limit(cfg.MessagesPerSecond), cfg.Burst),
		answerer: answerer,
	}
}

// Start begins listening. The listener runs until Close.
func (s *SignalingServer) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.server != nil {
		return nil
	}

	s.server = &http.Server{
		Addr:         s.cfg.Address,
		Handler:      s.routes(),
		ReadTimeout:  s.cfg.HandshakeTimeout + 5*time.Second,
		WriteTimeout: s.cfg.HandshakeTimeout + 5*time.Second,
	}

	go func(srv *http.Server) {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Errorw("signaling listener stopped", "error", err)
		}
	}(s.server)

	s.logger.Infow("signaling listener started", "address", s.cfg.Address)
	return nil
}

// routes builds the signaling endpoint mux.
func (s *SignalingServer) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/signal", s.handleSignal)
	return mux
}

// Close shuts the listener down.
func (s *SignalingServer) Close() error {
	s.mu.Lock()
	srv := s.server
	s.server = nil
	s.mu.Unlock()
	if srv == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}

func (s *SignalingServer) handleSignal(w http.ResponseWriter, r *http.Request) {
	if !s.limiter.Allow() {
		http.Error(w, "too many signaling requests", http.StatusTooManyRequests)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warnw("signaling upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(s.cfg.HandshakeTimeout))

	var msg signalMessage
	if err := conn.ReadJSON(&msg); err != nil {
		s.logger.Debugw("signaling read failed", "error", err)
		return
	}
	if msg.Type != signalTypeOffer || msg.PeerID == "" || msg.SDP == "" {
		s.writeError(conn, "expected offer with peer_id and sdp")
		return
	}

	answer, err := s.answerer(msg.PeerID, msg.SDP)
	if err != nil {
		s.logger.Warnw("answering offer failed", "peer_id", msg.PeerID, "error", err)
		s.writeError(conn, err.Error())
		return
	}

	conn.SetWriteDeadline(time.Now().Add(s.cfg.HandshakeTimeout))
	if err := conn.WriteJSON(signalMessage{Type: signalTypeAnswer, SDP: answer}); err != nil {
		s.logger.Debugw("signaling write failed", "peer_id", msg.PeerID, "error", err)
	}
}

func (s *SignalingServer) writeError(conn *websocket.Conn, reason string) {
	conn.SetWriteDeadline(time.Now().Add(s.cfg.HandshakeTimeout))
	_ = conn.WriteJSON(signalMessage{Type: signalTypeError, Error: reason})
}

// exchangeOffer dials a peer's signaling endpoint, sends the offer and waits
// for the answer. Non-trickle: both SDPs carry their complete candidate sets.
func exchangeOffer(ctx context.Context, addr, localID, offerSDP string, timeout time.Duration) (string, error) {
	dialer := websocket.Dialer{HandshakeTimeout: timeout}
	url := fmt.Sprintf("ws://%s/signal", addr)

	conn, _, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		return "", fmt.Errorf("signaling dial %s failed: %w", addr, err)
	}
	defer conn.Close()

	conn.SetWriteDeadline(time.Now().Add(timeout))
	if err := conn.WriteJSON(signalMessage{Type: signalTypeOffer, PeerID: localID, SDP: offerSDP}); err != nil {
		return "", fmt.Errorf("offer write failed: %w", err)
	}

	conn.SetReadDeadline(time.Now().Add(timeout))
	var msg signalMessage
	if err := conn.ReadJSON(&msg); err != nil {
		return "", fmt.Errorf("answer read failed: %w", err)
	}
	switch msg.Type {
	case signalTypeAnswer:
		return msg.SDP, nil
	case signalTypeError:
		return "", fmt.Errorf("peer rejected offer: %s", msg.Error)
	default:
		return "", fmt.Errorf("unexpected signaling message type %q", msg.Type)
	}
}
