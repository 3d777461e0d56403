package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/scrypster/kindred/internal/companion"
	"github.com/scrypster/kindred/internal/storage"
)

// ChatHandlers contains the HTTP handler for the chat endpoint.
type ChatHandlers struct {
	dispatcher *companion.Dispatcher
}

// NewChatHandlers creates a new ChatHandlers instance.
func NewChatHandlers(dispatcher *companion.Dispatcher) *ChatHandlers {
	return &ChatHandlers{dispatcher: dispatcher}
}

// Chat handles POST /api/companion/chat. A failed model call still returns
// 200 with a fallback reply; only validation and lookup problems are errors.
func (h *ChatHandlers) Chat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.CompanionID == "" {
		respondError(w, http.StatusBadRequest, "companion_id is required")
		return
	}
	if req.Message == "" {
		respondError(w, http.StatusBadRequest, "message is required")
		return
	}

	result, err := h.dispatcher.Chat(r.Context(), companion.ChatRequest{
		CompanionID: req.CompanionID,
		UserID:      req.UserID,
		Message:     req.Message,
		Emotion:     req.UserEmotion,
		Location:    req.UserLocation,
		Model:       req.AIModel,
	})
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrNotFound):
			respondError(w, http.StatusNotFound, "companion not found")
		case errors.Is(err, storage.ErrInvalidInput):
			respondError(w, http.StatusBadRequest, "message is required")
		default:
			respondError(w, http.StatusInternalServerError, "chat failed")
		}
		return
	}

	respondJSON(w, http.StatusOK, ChatResponse{
		Success:            true,
		Response:           result.Response,
		CompanionName:      result.CompanionName,
		IntimacyLevel:      result.IntimacyLevel,
		InteractionsCount:  result.InteractionsCount,
		EmotionDetected:    result.EmotionDetected,
		ModelUsed:          result.ModelUsed,
		Fallback:           result.Fallback,
		RelationshipStatus: result.RelationshipStatus,
	})
}
