package types

// EmotionLabel is one of a fixed small set of affect categories attached to a
// user message. It is produced by the client-side expression classifier (or a
// placeholder) and consumed by the prompt composer and the fallback reply table.
type EmotionLabel string

// Recognized emotion labels. The set is closed: anything outside it is folded
// to EmotionNeutral by ParseEmotion.
const (
	EmotionNeutral  EmotionLabel = "neutral"
	EmotionHappy    EmotionLabel = "happy"
	EmotionSad      EmotionLabel = "sad"
	EmotionAngry    EmotionLabel = "angry"
	EmotionFear     EmotionLabel = "fear"
	EmotionSurprise EmotionLabel = "surprise"
	EmotionDisgust  EmotionLabel = "disgust"
)

// AllEmotions lists every recognized label. Used by exhaustiveness tests and
// the statistics endpoint.
var AllEmotions = []EmotionLabel{
	EmotionNeutral,
	EmotionHappy,
	EmotionSad,
	EmotionAngry,
	EmotionFear,
	EmotionSurprise,
	EmotionDisgust,
}

// ParseEmotion normalizes a raw label to a recognized EmotionLabel.
// Empty or unrecognized input maps to EmotionNeutral.
func ParseEmotion(raw string) EmotionLabel {
	switch EmotionLabel(raw) {
	case EmotionHappy, EmotionSad, EmotionAngry, EmotionFear, EmotionSurprise, EmotionDisgust, EmotionNeutral:
		return EmotionLabel(raw)
	default:
		return EmotionNeutral
	}
}

// IsPositive reports whether the label belongs to the positive affect group.
// Used for emotion trend tracking.
func (e EmotionLabel) IsPositive() bool {
	return e == EmotionHappy || e == EmotionSurprise
}

// IsNegative reports whether the label belongs to the negative affect group.
func (e EmotionLabel) IsNegative() bool {
	switch e {
	case EmotionSad, EmotionAngry, EmotionFear, EmotionDisgust:
		return true
	default:
		return false
	}
}
