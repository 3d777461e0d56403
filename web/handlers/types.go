// Package handlers provides the HTTP handlers and middleware for the Kindred
// companion API.
package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/scrypster/kindred/pkg/types"
)

// ErrorResponse is the standard failure envelope for the API.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// ChatRequest is the request format for POST /api/companion/chat.
type ChatRequest struct {
	UserID       string          `json:"user_id"`
	CompanionID  string          `json:"companion_id"`
	Message      string          `json:"message"`
	UserEmotion  string          `json:"user_emotion,omitempty"`
	UserLocation *types.Location `json:"user_location,omitempty"`
	AIModel      string          `json:"ai_model,omitempty"`
}

// ChatResponse is the response format for POST /api/companion/chat.
type ChatResponse struct {
	Success            bool               `json:"success"`
	Response           string             `json:"response"`
	CompanionName      string             `json:"companion_name"`
	IntimacyLevel      float64            `json:"intimacy_level"`
	InteractionsCount  int                `json:"interactions_count"`
	EmotionDetected    types.EmotionLabel `json:"emotion_detected"`
	ModelUsed          string             `json:"model_used"`
	Fallback           bool               `json:"fallback,omitempty"`
	RelationshipStatus string             `json:"relationship_status"`
}

// CreateCompanionRequest is the request format for POST /api/companions.
// Nil trait fields keep the defaults.
type CreateCompanionRequest struct {
	Name      string   `json:"name"`
	Archetype string   `json:"archetype,omitempty"`
	AIModel   string   `json:"ai_model,omitempty"`
	CoreRules []string `json:"core_rules,omitempty"`
	Traits    struct {
		Warmth       *float64 `json:"warmth"`
		Humor        *float64 `json:"humor"`
		Intelligence *float64 `json:"intelligence"`
		Mystery      *float64 `json:"mystery"`
		Ambition     *float64 `json:"ambition"`
	} `json:"traits"`
}

// UpdateCompanionRequest is the request format for PATCH /api/companions/{id}.
// Only non-nil fields are applied.
type UpdateCompanionRequest struct {
	Name      *string       `json:"name"`
	AIModel   *string       `json:"ai_model"`
	CoreRules *[]string     `json:"core_rules"`
	Traits    *types.Traits `json:"traits"`
}

// TeachRequest is the request format for POST /api/companions/{id}/teach.
// List fields append; the name replaces.
type TeachRequest struct {
	Name      string   `json:"name,omitempty"`
	Interests []string `json:"interests,omitempty"`
	Dreams    []string `json:"dreams,omitempty"`
	Fears     []string `json:"fears,omitempty"`
}

// CompanionResponse wraps a profile in the success envelope.
type CompanionResponse struct {
	Success   bool                    `json:"success"`
	Companion *types.CompanionProfile `json:"companion"`
}

// CompanionListResponse is the response format for GET /api/companions.
type CompanionListResponse struct {
	Success    bool                     `json:"success"`
	Companions []types.CompanionSummary `json:"companions"`
	Total      int                      `json:"total"`
}

// GreetingResponse is the response format for GET /api/companions/{id}/greeting.
type GreetingResponse struct {
	Success       bool   `json:"success"`
	Greeting      string `json:"greeting"`
	CompanionName string `json:"companion_name"`
}

// RegisterRequest is the request format for POST /api/auth/register.
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest is the request format for POST /api/auth/login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AccountResponse wraps an account in the success envelope. The password hash
// never serializes (json:"-" on the type).
type AccountResponse struct {
	Success bool               `json:"success"`
	User    *types.UserAccount `json:"user"`
}

// StatusResponse is the response format for GET /api/status.
type StatusResponse struct {
	Success    bool   `json:"success"`
	Status     string `json:"status"`
	Companions int    `json:"companions"`
	LLM        string `json:"llm"`
}

// respondJSON writes a JSON response with the given status code.
func respondJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Headers already sent; nothing to do but log.
		fmt.Printf("failed to encode JSON response: %v\n", err)
	}
}

// respondError writes the failure envelope with the given status code.
func respondError(w http.ResponseWriter, statusCode int, message string) {
	respondJSON(w, statusCode, ErrorResponse{Success: false, Error: message})
}

// extractID pulls a path parameter from the request.
func extractID(r *http.Request, key string) string {
	return r.PathValue(key)
}
