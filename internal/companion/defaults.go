package companion

import (
	"time"

	"github.com/google/uuid"

	"github.com/scrypster/kindred/pkg/types"
)

// Default trait weights for a newly created companion. Each may be
// overridden per field at creation time; overrides are clamped to [0,1].
const (
	DefaultWarmth       = 0.85
	DefaultHumor        = 0.5
	DefaultIntelligence = 0.9
	DefaultMystery      = 0.4
	DefaultAmbition     = 0.6
)

// TraitOverrides carries optional per-trait values for profile creation.
// Nil fields keep the defaults.
type TraitOverrides struct {
	Warmth       *float64
	Humor        *float64
	Intelligence *float64
	Mystery      *float64
	Ambition     *float64
}

// NewProfile builds a companion profile with default traits merged with
// overrides. The name must be non-empty; the caller validates that.
func NewProfile(name string, archetype types.Archetype, overrides TraitOverrides, rules []string, model string) *types.CompanionProfile {
	now := time.Now()
	traits := types.Traits{
		Warmth:       pick(overrides.Warmth, DefaultWarmth),
		Humor:        pick(overrides.Humor, DefaultHumor),
		Intelligence: pick(overrides.Intelligence, DefaultIntelligence),
		Mystery:      pick(overrides.Mystery, DefaultMystery),
		Ambition:     pick(overrides.Ambition, DefaultAmbition),
	}
	traits.Clamp()

	return &types.CompanionProfile{
		ID:           uuid.NewString(),
		Name:         name,
		Archetype:    archetype,
		Traits:       traits,
		CoreRules:    append([]string(nil), rules...),
		LastEmotion:  "",
		EmotionTrend: types.TrendStable,
		Model:        model,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func pick(override *float64, def float64) float64 {
	if override != nil {
		return *override
	}
	return def
}
