package companion

import "github.com/scrypster/kindred/pkg/types"

// FallbackReply returns the fixed canned reply for an emotion label, used
// when the language-model call fails. One fixed string per recognized label;
// anything else gets the neutral reply. The user sees degraded quality, never
// an error.
func FallbackReply(emotion types.EmotionLabel) string {
	switch emotion {
	case types.EmotionHappy:
		return "Your good mood is contagious! Tell me everything."
	case types.EmotionSad:
		return "I'm right here with you. Whatever happened, you don't have to carry it alone."
	case types.EmotionAngry:
		return "I hear how frustrated you are. Take a breath - I'm listening."
	case types.EmotionFear:
		return "You're safe here with me. Let's take this one step at a time."
	case types.EmotionSurprise:
		return "That caught you off guard, didn't it? I want to hear all about it."
	case types.EmotionDisgust:
		return "Something really bothered you. Tell me what happened."
	default:
		return "I'm thinking about what you said... Tell me more?"
	}
}
