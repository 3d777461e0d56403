package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scrypster/kindred/internal/companion"
	"github.com/scrypster/kindred/internal/llm"
	"github.com/scrypster/kindred/internal/storage/memory"
	"github.com/scrypster/kindred/pkg/types"
)

// failingGenerator always errors, as if the model endpoint were down.
type failingGenerator struct{}

func (failingGenerator) Generate(ctx context.Context, req llm.GenerateRequest) (llm.GenerateResponse, error) {
	return llm.GenerateResponse{}, errors.New("connection refused")
}

func (failingGenerator) GetModel() string { return "neural-chat" }

// echoGenerator returns a fixed reply.
type echoGenerator struct{ reply string }

func (g echoGenerator) Generate(ctx context.Context, req llm.GenerateRequest) (llm.GenerateResponse, error) {
	return llm.GenerateResponse{Text: g.reply, Model: req.Model}, nil
}

func (echoGenerator) GetModel() string { return "neural-chat" }

func newChatFixture(t *testing.T, gen llm.Generator) (*ChatHandlers, *types.CompanionProfile) {
	t.Helper()
	store := memory.NewCompanionStore()
	profile := companion.NewProfile("Ava", types.ArchetypeWarm, companion.TraitOverrides{}, nil, "neural-chat")
	require.NoError(t, store.Create(context.Background(), profile))

	dispatcher := companion.NewDispatcher(store, gen, companion.DispatcherConfig{HistoryLimit: 50, IntimacyStep: 0.01})
	return NewChatHandlers(dispatcher), profile
}

func TestChatEndpointSadFallbackScenario(t *testing.T) {
	// Companion "Ava" exists with default traits; the model endpoint is down.
	h, profile := newChatFixture(t, failingGenerator{})

	req := httptest.NewRequest(http.MethodPost, "/api/companion/chat", postJSON(t, map[string]interface{}{
		"user_id":      "u1",
		"companion_id": profile.ID,
		"message":      "I had a terrible day",
		"user_emotion": "sad",
	}))
	rec := httptest.NewRecorder()
	h.Chat(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp ChatResponse
	decodeBody(t, rec, &resp)
	assert.True(t, resp.Success)
	assert.True(t, resp.Fallback)
	assert.Equal(t, "Ava", resp.CompanionName)
	assert.Equal(t, types.EmotionSad, resp.EmotionDetected)
	assert.Equal(t, companion.FallbackReply(types.EmotionSad), resp.Response)
	assert.Equal(t, 1, resp.InteractionsCount)
	assert.InDelta(t, 0.01, resp.IntimacyLevel, 1e-9)
	assert.NotEmpty(t, resp.RelationshipStatus)
}

func TestChatEndpointSuccess(t *testing.T) {
	h, profile := newChatFixture(t, echoGenerator{reply: "Tell me more!"})

	req := httptest.NewRequest(http.MethodPost, "/api/companion/chat", postJSON(t, map[string]interface{}{
		"user_id":      "u1",
		"companion_id": profile.ID,
		"message":      "guess what happened",
		"user_emotion": "surprise",
	}))
	rec := httptest.NewRecorder()
	h.Chat(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp ChatResponse
	decodeBody(t, rec, &resp)
	assert.True(t, resp.Success)
	assert.False(t, resp.Fallback)
	assert.Equal(t, "Tell me more!", resp.Response)
	assert.Equal(t, types.EmotionSurprise, resp.EmotionDetected)
	assert.Equal(t, "neural-chat", resp.ModelUsed)
}

func TestChatEndpointUnknownEmotionIsNeutral(t *testing.T) {
	h, profile := newChatFixture(t, echoGenerator{reply: "ok"})

	req := httptest.NewRequest(http.MethodPost, "/api/companion/chat", postJSON(t, map[string]interface{}{
		"companion_id": profile.ID,
		"message":      "hello",
		"user_emotion": "ecstatic",
	}))
	rec := httptest.NewRecorder()
	h.Chat(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp ChatResponse
	decodeBody(t, rec, &resp)
	assert.Equal(t, types.EmotionNeutral, resp.EmotionDetected)
}

func TestChatEndpointValidation(t *testing.T) {
	h, profile := newChatFixture(t, echoGenerator{reply: "ok"})

	tests := []struct {
		name string
		body map[string]interface{}
		code int
	}{
		{"missing companion_id", map[string]interface{}{"message": "hi"}, http.StatusBadRequest},
		{"missing message", map[string]interface{}{"companion_id": profile.ID}, http.StatusBadRequest},
		{"unknown companion", map[string]interface{}{"companion_id": "nope", "message": "hi"}, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/companion/chat", postJSON(t, tt.body))
			rec := httptest.NewRecorder()
			h.Chat(rec, req)

			assert.Equal(t, tt.code, rec.Code)

			var resp ErrorResponse
			decodeBody(t, rec, &resp)
			assert.False(t, resp.Success)
			assert.NotEmpty(t, resp.Error)
		})
	}
}

func TestChatEndpointMalformedBody(t *testing.T) {
	h, _ := newChatFixture(t, echoGenerator{reply: "ok"})

	req := httptest.NewRequest(http.MethodPost, "/api/companion/chat", strings.NewReader("{broken"))
	rec := httptest.NewRecorder()
	h.Chat(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
