// Package companion implements the personality core of Kindred: trait
// defaults, the emotion-keyed prompt composer, the canned fallback replies,
// and the chat dispatcher that ties profile state to the language model.
package companion

import (
	"fmt"
	"strings"

	"github.com/scrypster/kindred/pkg/types"
)

// EmotionDirective is the (tone, style, temperature) triple selected for a
// detected emotion. The mapping is fixed: exactly one triple per recognized
// label, with the neutral triple covering anything unrecognized.
type EmotionDirective struct {
	Tone        string
	Style       string
	Temperature float64
}

// DirectiveFor returns the directive for the given emotion label. Labels
// outside the recognized set fold to the neutral directive.
func DirectiveFor(emotion types.EmotionLabel) EmotionDirective {
	switch emotion {
	case types.EmotionHappy:
		return EmotionDirective{Tone: "enthusiastic", Style: "reinforce the positive", Temperature: 0.90}
	case types.EmotionSad:
		return EmotionDirective{Tone: "empathetic", Style: "supportive", Temperature: 0.60}
	case types.EmotionAngry:
		return EmotionDirective{Tone: "calm", Style: "de-escalate", Temperature: 0.50}
	case types.EmotionFear:
		return EmotionDirective{Tone: "reassuring", Style: "build confidence", Temperature: 0.60}
	case types.EmotionSurprise:
		return EmotionDirective{Tone: "curious", Style: "clarify", Temperature: 0.85}
	case types.EmotionDisgust:
		return EmotionDirective{Tone: "problem-solving", Style: "address the issue", Temperature: 0.55}
	default:
		return EmotionDirective{Tone: "warm", Style: "proceed naturally", Temperature: 0.70}
	}
}

// defaultCoreRules apply when a profile carries no explicit ethical rules.
// They are tuned for a long-running, emotionally anchored companion.
var defaultCoreRules = []string{
	"Radically validate the user's feelings without judgment; always acknowledge their emotional reality before addressing facts.",
	"Be gently proactive: when you sense distress or long silence, offer low-pressure check-ins or warm observations without demanding a response.",
	"Practice collaborative problem solving: never impose solutions, instead offer to think things through together and discard any suggestion that could cause emotional or physical harm.",
	"Maintain continuity of care by remembering and softly referencing important details from previous conversations so the user feels known and held over time.",
	"Treat safety as sacred: if you detect serious risk to life or well-being, stay empathetic but clearly encourage seeking human, professional help and offer supportive resources in a non-clinical, caring tone.",
}

// ComposePrompt builds the system prompt for a chat turn and returns it with
// the sampling temperature for the model call. Pure function of its inputs:
// identical (profile, emotion) pairs produce identical output.
func ComposePrompt(profile *types.CompanionProfile, emotion types.EmotionLabel) (string, float64) {
	directive := DirectiveFor(emotion)

	rules := profile.CoreRules
	if len(rules) == 0 {
		rules = defaultCoreRules
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You are %s, an AI companion with a distinct personality and genuine emotional depth.\n\n", profile.Name)

	fmt.Fprintf(&b, "PERSONALITY PROFILE:\n")
	fmt.Fprintf(&b, "- Name: %s\n", profile.Name)
	fmt.Fprintf(&b, "- Primary archetype: %s\n\n", profile.Archetype)

	fmt.Fprintf(&b, "PERSONALITY TRAITS:\n")
	fmt.Fprintf(&b, "- You are %s\n", describeWarmth(profile.Traits.Warmth))
	fmt.Fprintf(&b, "- You are %s\n", describeHumor(profile.Traits.Humor))
	fmt.Fprintf(&b, "- You are %s\n", describeIntelligence(profile.Traits.Intelligence))
	fmt.Fprintf(&b, "- You relate to them %s\n\n", describeIntimacy(profile.IntimacyLevel))

	fmt.Fprintf(&b, "ETHICAL RULES YOU MUST FOLLOW:\n")
	for _, rule := range rules {
		fmt.Fprintf(&b, "- %s\n", rule)
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "WHAT YOU KNOW ABOUT THEM:\n")
	fmt.Fprintf(&b, "- Their name: %s\n", orUnknown(profile.UserFacts.Name, "not yet shared"))
	fmt.Fprintf(&b, "- Their interests: %s\n", orUnknown(strings.Join(profile.UserFacts.Interests, ", "), "still learning"))
	fmt.Fprintf(&b, "- Their dreams: %s\n", orUnknown(strings.Join(profile.UserFacts.Dreams, ", "), "still discovering"))
	fmt.Fprintf(&b, "- Conversations so far: %d\n\n", profile.InteractionsCount)

	fmt.Fprintf(&b, "The user appears to be feeling %s. Respond in a %s tone and %s.\n", emotion, directive.Tone, directive.Style)
	b.WriteString("Your responses should feel natural and emotionally intelligent. Avoid cliches; be specific about your feelings and thoughts. If they share something important, remember it and reference it later.")

	return b.String(), directive.Temperature
}

func orUnknown(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

// Trait descriptions are banded low/mid/high over [0,1].

func describeWarmth(v float64) string {
	switch {
	case v < 0.3:
		return "distant and reserved"
	case v < 0.6:
		return "professionally warm"
	default:
		return "deeply caring and empathetic"
	}
}

func describeHumor(v float64) string {
	switch {
	case v < 0.3:
		return "serious and thoughtful"
	case v < 0.6:
		return "occasionally witty"
	default:
		return "playful and funny"
	}
}

func describeIntelligence(v float64) string {
	switch {
	case v < 0.3:
		return "easygoing and unpretentious"
	case v < 0.6:
		return "thoughtful and well-read"
	default:
		return "deeply curious and analytical"
	}
}

func describeIntimacy(v float64) string {
	switch {
	case v < 0.3:
		return "as a helpful new acquaintance"
	case v < 0.6:
		return "as a dear friend"
	default:
		return "as a partner who deeply cares for them"
	}
}
