package companion

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/scrypster/kindred/internal/llm"
	"github.com/scrypster/kindred/internal/storage"
	"github.com/scrypster/kindred/pkg/types"
)

// ChatRequest carries one user chat turn into the dispatcher.
type ChatRequest struct {
	CompanionID string
	UserID      string
	Message     string

	// Emotion is the raw detected label; empty or unrecognized means neutral.
	Emotion string

	// Location, when present, updates the profile's last-known position.
	Location *types.Location

	// Model overrides the companion's configured model for this turn only.
	Model string
}

// ChatResult is the dispatcher's reply to one chat turn.
type ChatResult struct {
	Response           string
	CompanionName      string
	IntimacyLevel      float64
	InteractionsCount  int
	EmotionDetected    types.EmotionLabel
	ModelUsed          string
	Fallback           bool
	RelationshipStatus string
}

// DispatcherConfig bounds the dispatcher's conversation bookkeeping.
type DispatcherConfig struct {
	// HistoryLimit bounds the conversation log (oldest evicted first).
	HistoryLimit int

	// IntimacyStep is the fixed intimacy increment per turn.
	IntimacyStep float64
}

// DefaultDispatcherConfig returns the standard bookkeeping bounds.
func DefaultDispatcherConfig() DispatcherConfig {
	return DispatcherConfig{
		HistoryLimit: 50,
		IntimacyStep: 0.01,
	}
}

// Dispatcher accepts user messages, updates companion state, composes the
// personality prompt, and calls the language model. Upstream failures are
// recovered locally with a canned per-emotion reply; callers never see an
// error for a failed model call, only a flagged fallback.
type Dispatcher struct {
	store     storage.CompanionStore
	generator llm.Generator
	config    DispatcherConfig
}

// NewDispatcher creates a dispatcher over the given store and generator.
func NewDispatcher(store storage.CompanionStore, generator llm.Generator, config DispatcherConfig) *Dispatcher {
	if config.HistoryLimit == 0 {
		config.HistoryLimit = DefaultDispatcherConfig().HistoryLimit
	}
	if config.IntimacyStep == 0 {
		config.IntimacyStep = DefaultDispatcherConfig().IntimacyStep
	}
	return &Dispatcher{store: store, generator: generator, config: config}
}

// Chat processes one user turn end to end:
// validate, record the user turn (FIFO-bounded), bump interaction counters,
// compose the emotion-flavored prompt, make a single bounded model call, and
// record the reply. On any model failure the fixed per-emotion fallback is
// substituted and flagged; conversation state updates either way.
func (d *Dispatcher) Chat(ctx context.Context, req ChatRequest) (*ChatResult, error) {
	if strings.TrimSpace(req.Message) == "" {
		return nil, storage.ErrInvalidInput
	}

	emotion := types.ParseEmotion(req.Emotion)
	now := time.Now()

	// Record the user turn and build the prompt in one atomic profile
	// mutation so concurrent turns can't lose log entries.
	var (
		system      string
		temperature float64
		model       string
	)
	profile, err := d.store.Mutate(ctx, req.CompanionID, func(p *types.CompanionProfile) error {
		p.AppendTurn(types.ChatTurn{
			Role:      types.RoleUser,
			Text:      req.Message,
			Emotion:   emotion,
			Timestamp: now,
		}, d.config.HistoryLimit)

		p.InteractionsCount++
		p.RaiseIntimacy(d.config.IntimacyStep)
		p.ObserveEmotion(emotion)
		if req.Location != nil {
			loc := *req.Location
			p.LastLocation = &loc
		}

		system, temperature = ComposePrompt(p, emotion)
		model = req.Model
		if model == "" {
			model = p.Model
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Single attempt, no retries: availability over response quality.
	reply, usedModel, fallback := d.generate(ctx, llm.GenerateRequest{
		Model:       model,
		System:      system,
		Prompt:      req.Message,
		Temperature: temperature,
	}, emotion)

	profile, err = d.store.Mutate(ctx, req.CompanionID, func(p *types.CompanionProfile) error {
		p.AppendTurn(types.ChatTurn{
			Role:      types.RoleAssistant,
			Text:      reply,
			Emotion:   emotion,
			Timestamp: time.Now(),
		}, d.config.HistoryLimit)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &ChatResult{
		Response:           reply,
		CompanionName:      profile.Name,
		IntimacyLevel:      profile.IntimacyLevel,
		InteractionsCount:  profile.InteractionsCount,
		EmotionDetected:    emotion,
		ModelUsed:          usedModel,
		Fallback:           fallback,
		RelationshipStatus: profile.RelationshipStatus(),
	}, nil
}

// generate makes the single model attempt, substituting the canned reply on
// any failure. Only the error class is logged, never message content.
func (d *Dispatcher) generate(ctx context.Context, req llm.GenerateRequest, emotion types.EmotionLabel) (reply, model string, fallback bool) {
	resp, err := d.generator.Generate(ctx, req)
	if err != nil {
		log.Printf("WARNING: model call failed, using %s fallback: %v", emotion, err)
		return FallbackReply(emotion), req.Model, true
	}
	if strings.TrimSpace(resp.Text) == "" {
		log.Printf("WARNING: model returned empty reply, using %s fallback", emotion)
		return FallbackReply(emotion), resp.Model, true
	}
	return resp.Text, resp.Model, false
}
