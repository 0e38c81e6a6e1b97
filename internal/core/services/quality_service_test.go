package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mirrornet/internal/core/domain"
)

func TestQualityService_DefaultTable(t *testing.T) {
	qs := NewQualityService(nil)

	perf, err := qs.Params(domain.TierPerformance)
	require.NoError(t, err)
	assert.Equal(t, 1280, perf.Width)
	assert.Equal(t, float64(60), perf.FrameRate)
	assert.Equal(t, domain.EncodingLossy, perf.Encoding.Mode)
	assert.Equal(t, domain.Unreliable, perf.Reliability)

	q, err := qs.Params(domain.TierQuality)
	require.NoError(t, err)
	assert.Equal(t, domain.EncodingLossless, q.Encoding.Mode)
	assert.Equal(t, domain.Reliable, q.Reliability)
	assert.Equal(t, 8_000_000, q.MaxPayloadBytes)
}

func TestQualityService_UnknownTier(t *testing.T) {
	qs := NewQualityService(nil)

	_, err := qs.Params("cinema")
	assert.ErrorIs(t, err, domain.ErrUnknownTier)
	assert.False(t, qs.Has("cinema"))
	assert.True(t, qs.Has(domain.TierBalanced))
}

func TestQualityService_CopiesInputTable(t *testing.T) {
	tiers := map[domain.QualityTier]domain.TierParams{
		"custom": {Width: 640, Height: 480, FrameRate: 15, MaxPayloadBytes: 500_000},
	}
	qs := NewQualityService(tiers)

	// Mutating the caller's map must not affect the service.
	tiers["custom"] = domain.TierParams{Width: 1}
	delete(tiers, "custom")

	params, err := qs.Params("custom")
	require.NoError(t, err)
	assert.Equal(t, 640, params.Width)
	assert.Equal(t, []domain.QualityTier{"custom"}, qs.Tiers())
}

func TestQualityService_TiersSorted(t *testing.T) {
	qs := NewQualityService(nil)
	assert.Equal(t, []domain.QualityTier{
		domain.TierBalanced,
		domain.TierPerformance,
		domain.TierQuality,
	}, qs.Tiers())
}
