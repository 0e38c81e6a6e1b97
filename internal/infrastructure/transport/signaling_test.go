package transport

import (
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newSignalingFixture(t *testing.T, answerer func(peerID, offerSDP string) (string, error)) (*SignalingServer, string) {
	t.Helper()
	s := NewSignalingServer(SignalingConfig{
		Address:           "127.0.0.1:0",
		MessagesPerSecond: 100,
		Burst:             100,
		HandshakeTimeout:  2 * time.Second,
	}, answerer, zaptest.NewLogger(t).Sugar())

	ts := httptest.NewServer(s.routes())
	t.Cleanup(ts.Close)
	return s, strings.TrimPrefix(ts.URL, "http://")
}

func TestSignaling_OfferAnswerRoundTrip(t *testing.T) {
	var gotPeer, gotOffer string
	_, addr := newSignalingFixture(t, func(peerID, offerSDP string) (string, error) {
		gotPeer = peerID
		gotOffer = offerSDP
		return "answer-sdp", nil
	})

	answer, err := exchangeOffer(context.Background(), addr, "device-a", "offer-sdp", 2*time.Second)
	require.NoError(t, err)
	assert.Equal(t, "answer-sdp", answer)
	assert.Equal(t, "device-a", gotPeer)
	assert.Equal(t, "offer-sdp", gotOffer)
}

func TestSignaling_AnswererErrorSurfacesToDialer(t *testing.T) {
	_, addr := newSignalingFixture(t, func(peerID, offerSDP string) (string, error) {
		return "", errors.New("busy")
	})

	_, err := exchangeOffer(context.Background(), addr, "device-a", "offer-sdp", 2*time.Second)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "busy")
}

func TestSignaling_RateLimitRejects(t *testing.T) {
	s := NewSignalingServer(SignalingConfig{
		Address:           "127.0.0.1:0",
		MessagesPerSecond: 0.001,
		Burst:             1,
		HandshakeTimeout:  time.Second,
	}, func(string, string) (string, error) { return "ok", nil }, zaptest.NewLogger(t).Sugar())

	ts := httptest.NewServer(s.routes())
	defer ts.Close()
	addr := strings.TrimPrefix(ts.URL, "http://")

	_, err := exchangeOffer(context.Background(), addr, "device-a", "offer", time.Second)
	require.NoError(t, err)

	// The burst is exhausted; the next dial is turned away.
	_, err = exchangeOffer(context.Background(), addr, "device-a", "offer", time.Second)
	assert.Error(t, err)
}

func TestSignaling_DialUnreachable(t *testing.T) {
	_, err := exchangeOffer(context.Background(), "127.0.0.1:1", "device-a", "offer", 500*time.Millisecond)
	assert.Error(t, err)
}
