// Package types defines the core data structures for the Kindred companion
// system: companion personality profiles, conversation turns, emotion labels,
// and user accounts.
package types

import "time"

// Archetype is the primary personality archetype of a companion. It selects
// greeting style and colours the composed system prompt.
type Archetype string

// Personality archetype constants.
const (
	ArchetypeWarm         Archetype = "warm"
	ArchetypeIntellectual Archetype = "intellectual"
	ArchetypePlayful      Archetype = "playful"
	ArchetypeMysterious   Archetype = "mysterious"
	ArchetypeAmbitious    Archetype = "ambitious"
	ArchetypeDreamer      Archetype = "dreamer"
)

// ParseArchetype normalizes a raw archetype string, defaulting to warm.
func ParseArchetype(raw string) Archetype {
	switch Archetype(raw) {
	case ArchetypeIntellectual, ArchetypePlayful, ArchetypeMysterious, ArchetypeAmbitious, ArchetypeDreamer, ArchetypeWarm:
		return Archetype(raw)
	default:
		return ArchetypeWarm
	}
}

// ChatRole identifies the author of a conversation turn.
type ChatRole string

const (
	RoleUser      ChatRole = "user"
	RoleAssistant ChatRole = "assistant"
)

// Traits holds the five personality trait weights, each in [0,1].
type Traits struct {
	Warmth       float64 `json:"warmth"`
	Humor        float64 `json:"humor"`
	Intelligence float64 `json:"intelligence"`
	Mystery      float64 `json:"mystery"`
	Ambition     float64 `json:"ambition"`
}

// Clamp bounds every trait weight to [0,1] in place.
func (t *Traits) Clamp() {
	t.Warmth = clamp01(t.Warmth)
	t.Humor = clamp01(t.Humor)
	t.Intelligence = clamp01(t.Intelligence)
	t.Mystery = clamp01(t.Mystery)
	t.Ambition = clamp01(t.Ambition)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// ChatTurn is a single entry in a companion's bounded conversation log.
// Turns are append-only; the log evicts oldest-first when it exceeds its bound.
type ChatTurn struct {
	Role      ChatRole     `json:"role"`
	Text      string       `json:"text"`
	Emotion   EmotionLabel `json:"emotion,omitempty"`
	Timestamp time.Time    `json:"timestamp"`
}

// Location is a last-known client position attached to a chat request.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// UserFacts holds details a companion has learned about its user via the
// teach endpoint. All fields are optional and grow over time.
type UserFacts struct {
	Name      string   `json:"name,omitempty"`
	Interests []string `json:"interests,omitempty"`
	Dreams    []string `json:"dreams,omitempty"`
	Fears     []string `json:"fears,omitempty"`
}

// EmotionTrend describes the direction of the user's recent emotional state.
type EmotionTrend string

const (
	TrendStable    EmotionTrend = "stable"
	TrendImproving EmotionTrend = "improving"
	TrendDeclining EmotionTrend = "declining"
)

// CompanionProfile is the stored personality/state record driving prompt
// generation for one simulated chat persona.
//
// Invariants: IntimacyLevel stays in [0,1] and never decreases; History never
// exceeds the configured bound; LastEmotion is always a recognized label.
type CompanionProfile struct {
	ID        string    `json:"companion_id"`
	Name      string    `json:"name"`
	Archetype Archetype `json:"archetype"`

	Traits Traits `json:"traits"`

	// CoreRules are ordered ethical-constraint strings embedded verbatim in
	// every composed prompt. Immutable once set; empty means the composer's
	// built-in defaults apply.
	CoreRules []string `json:"core_rules,omitempty"`

	// IntimacyLevel grows by a fixed step per chat turn, clamped at 1.
	IntimacyLevel     float64 `json:"intimacy_level"`
	InteractionsCount int     `json:"interactions_count"`

	// History is the bounded conversation log, oldest first.
	History []ChatTurn `json:"history,omitempty"`

	UserFacts    UserFacts    `json:"user_facts,omitempty"`
	LastEmotion  EmotionLabel `json:"last_emotion,omitempty"`
	EmotionTrend EmotionTrend `json:"emotion_trend,omitempty"`

	LastLocation *Location `json:"last_location,omitempty"`

	// Model is the language-model identifier used for this companion's
	// replies unless overridden per request.
	Model string `json:"ai_model,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CompanionSummary is the listing view of a profile.
type CompanionSummary struct {
	ID                string    `json:"companion_id"`
	Name              string    `json:"name"`
	Archetype         Archetype `json:"archetype"`
	IntimacyLevel     float64   `json:"intimacy_level"`
	InteractionsCount int       `json:"interactions_count"`
}

// Summary returns the listing view of the profile.
func (p *CompanionProfile) Summary() CompanionSummary {
	return CompanionSummary{
		ID:                p.ID,
		Name:              p.Name,
		Archetype:         p.Archetype,
		IntimacyLevel:     p.IntimacyLevel,
		InteractionsCount: p.InteractionsCount,
	}
}

// AppendTurn appends a turn to the history, evicting oldest entries so the
// log never exceeds limit. A limit <= 0 means unbounded.
func (p *CompanionProfile) AppendTurn(turn ChatTurn, limit int) {
	p.History = append(p.History, turn)
	if limit > 0 && len(p.History) > limit {
		p.History = p.History[len(p.History)-limit:]
	}
}

// RaiseIntimacy increases intimacy by step, clamped to 1.0.
func (p *CompanionProfile) RaiseIntimacy(step float64) {
	p.IntimacyLevel = clamp01(p.IntimacyLevel + step)
}

// RelationshipStatus describes the current depth of the relationship based on
// intimacy level.
func (p *CompanionProfile) RelationshipStatus() string {
	switch {
	case p.IntimacyLevel > 0.8:
		return "deeply in love"
	case p.IntimacyLevel > 0.6:
		return "deeply connected"
	case p.IntimacyLevel > 0.4:
		return "close friends"
	case p.IntimacyLevel > 0.2:
		return "getting to know you"
	default:
		return "a new connection"
	}
}

// ObserveEmotion records the latest user emotion and updates the trend.
// The trend compares the new label's affect group against the previous one:
// negative→positive is improving, positive→negative is declining.
func (p *CompanionProfile) ObserveEmotion(emotion EmotionLabel) {
	prev := p.LastEmotion
	switch {
	case prev == "":
		p.EmotionTrend = TrendStable
	case emotion.IsPositive() && !prev.IsPositive():
		p.EmotionTrend = TrendImproving
	case emotion.IsNegative() && !prev.IsNegative():
		p.EmotionTrend = TrendDeclining
	default:
		p.EmotionTrend = TrendStable
	}
	p.LastEmotion = emotion
}

// Clone returns a deep copy of the profile so callers can mutate it without
// racing against the store's copy.
func (p *CompanionProfile) Clone() *CompanionProfile {
	cp := *p
	cp.CoreRules = append([]string(nil), p.CoreRules...)
	cp.History = append([]ChatTurn(nil), p.History...)
	cp.UserFacts.Interests = append([]string(nil), p.UserFacts.Interests...)
	cp.UserFacts.Dreams = append([]string(nil), p.UserFacts.Dreams...)
	cp.UserFacts.Fears = append([]string(nil), p.UserFacts.Fears...)
	if p.LastLocation != nil {
		loc := *p.LastLocation
		cp.LastLocation = &loc
	}
	return &cp
}
