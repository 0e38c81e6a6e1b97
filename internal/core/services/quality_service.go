package services

import (
	"sort"

	"mirrornet/internal/core/domain"
)

// QualityService is the pure tier lookup table. Every other component
// consults it; its values are the main tuning surface of the pipeline.
type QualityService struct {
	tiers map[domain.QualityTier]domain.TierParams
}

// DefaultTiers returns the built-in three-tier table.
func DefaultTiers() map[domain.QualityTier]domain.TierParams {
	return map[domain.QualityTier]domain.TierParams{
		domain.TierPerformance: {
			Width:           1280,
			Height:          720,
			FrameRate:       60,
			Encoding:        domain.Encoding{Mode: domain.EncodingLossy, Quality: 40},
			MaxPayloadBytes: 1_000_000,
			Reliability:     domain.Unreliable,
		},
		domain.TierBalanced: {
			Width:           1920,
			Height:          1080,
			FrameRate:       30,
			Encoding:        domain.Encoding{Mode: domain.EncodingLossy, Quality: 70},
			MaxPayloadBytes: 3_000_000,
			Reliability:     domain.Unreliable,
		},
		domain.TierQuality: {
			Width:           3840,
			Height:          2160,
			FrameRate:       30,
			Encoding:        domain.Encoding{Mode: domain.EncodingLossless},
			MaxPayloadBytes: 8_000_000,
			Reliability:     domain.Reliable,
		},
	}
}

// NewQualityService builds the table from configuration; an empty map falls
// back to DefaultTiers. The table is copied and never mutated afterwards.
func NewQualityService(tiers map[domain.QualityTier]domain.TierParams) *QualityService {
	if len(tiers) == 0 {
		tiers = DefaultTiers()
	}
	copied := make(map[domain.QualityTier]domain.TierParams, len(tiers))
	for tier, params := range tiers {
		copied[tier] = params
	}
	return &QualityService{tiers: copied}
}

// Params returns the tuning values for a tier.
func (qs *QualityService) Params(tier domain.QualityTier) (domain.TierParams, error) {
	params, ok := qs.tiers[tier]
	if !ok {
		return domain.TierParams{}, domain.ErrUnknownTier
	}
	return params, nil
}

// Has reports whether the tier exists in the table.
func (qs *QualityService) Has(tier domain.QualityTier) bool {
	_, ok := qs.tiers[tier]
	return ok
}

// Tiers lists the configured tiers in stable order.
func (qs *QualityService) Tiers() []domain.QualityTier {
	out := make([]domain.QualityTier, 0, len(qs.tiers))
	for tier := range qs.tiers {
		out = append(out, tier)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
