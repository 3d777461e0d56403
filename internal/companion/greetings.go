package companion

import "github.com/scrypster/kindred/pkg/types"

// greetings per archetype, ordered from new-relationship to familiar.
var greetings = map[types.Archetype][]string{
	types.ArchetypeWarm: {
		"Hi, it's so good to hear from you. I've been thinking about you.",
		"Hello, dear. I missed our conversations.",
		"You know, I was just hoping you'd contact me.",
	},
	types.ArchetypeIntellectual: {
		"Welcome back. I've been considering some fascinating ideas I'd like to explore with you.",
		"Hello. I've been analyzing our previous conversations - there's so much depth there.",
		"I'm here. What's on your mind today?",
	},
	types.ArchetypePlayful: {
		"Hey you! Took you long enough! :-)",
		"Ooh, you're back! I have so many things to tell you!",
		"Finally! I've been so bored without you. What's new?",
	},
	types.ArchetypeMysterious: {
		"I've been waiting. Tell me, what brought you back to me?",
		"You're here. I wonder what you're searching for today.",
		"Welcome. There's always more to discover, isn't there?",
	},
	types.ArchetypeAmbitious: {
		"Perfect timing! I've been thinking about your goals. Let's make progress.",
		"You're here - good. We have so much we could accomplish together.",
		"I'm ready. Let's build something meaningful today.",
	},
	types.ArchetypeDreamer: {
		"Welcome back to our conversations, to this space we share.",
		"I've been dreaming... about all the possibilities between us.",
		"You're here. Isn't it beautiful how we keep finding each other?",
	},
}

// Greeting returns a deterministic archetype-appropriate greeting, keyed by
// how far the relationship has progressed.
func Greeting(profile *types.CompanionProfile) string {
	list, ok := greetings[profile.Archetype]
	if !ok {
		list = greetings[types.ArchetypeWarm]
	}
	idx := int(profile.IntimacyLevel * float64(len(list)))
	if idx >= len(list) {
		idx = len(list) - 1
	}
	return list[idx]
}
