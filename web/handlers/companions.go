package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/scrypster/kindred/internal/companion"
	"github.com/scrypster/kindred/internal/storage"
	"github.com/scrypster/kindred/pkg/types"
)

// CompanionHandlers contains HTTP handlers for companion CRUD and the
// greeting/teach supplements.
type CompanionHandlers struct {
	store storage.CompanionStore
}

// NewCompanionHandlers creates a new CompanionHandlers instance.
func NewCompanionHandlers(store storage.CompanionStore) *CompanionHandlers {
	return &CompanionHandlers{store: store}
}

// CreateCompanion handles POST /api/companions.
func (h *CompanionHandlers) CreateCompanion(w http.ResponseWriter, r *http.Request) {
	var req CreateCompanionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if strings.TrimSpace(req.Name) == "" {
		respondError(w, http.StatusBadRequest, "name is required")
		return
	}

	profile := companion.NewProfile(
		strings.TrimSpace(req.Name),
		types.ParseArchetype(req.Archetype),
		companion.TraitOverrides{
			Warmth:       req.Traits.Warmth,
			Humor:        req.Traits.Humor,
			Intelligence: req.Traits.Intelligence,
			Mystery:      req.Traits.Mystery,
			Ambition:     req.Traits.Ambition,
		},
		req.CoreRules,
		req.AIModel,
	)

	if err := h.store.Create(r.Context(), profile); err != nil {
		if errors.Is(err, storage.ErrInvalidInput) {
			respondError(w, http.StatusBadRequest, "invalid companion")
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to create companion")
		return
	}

	respondJSON(w, http.StatusCreated, CompanionResponse{Success: true, Companion: profile})
}

// ListCompanions handles GET /api/companions.
func (h *CompanionHandlers) ListCompanions(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.store.List(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list companions")
		return
	}
	if summaries == nil {
		summaries = []types.CompanionSummary{}
	}
	respondJSON(w, http.StatusOK, CompanionListResponse{
		Success:    true,
		Companions: summaries,
		Total:      len(summaries),
	})
}

// GetCompanion handles GET /api/companions/{id}.
func (h *CompanionHandlers) GetCompanion(w http.ResponseWriter, r *http.Request) {
	id := extractID(r, "id")
	if id == "" {
		respondError(w, http.StatusBadRequest, "companion ID is required")
		return
	}

	profile, err := h.store.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respondError(w, http.StatusNotFound, "companion not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to load companion")
		return
	}
	respondJSON(w, http.StatusOK, CompanionResponse{Success: true, Companion: profile})
}

// UpdateCompanion handles PATCH /api/companions/{id}. Only fields present in
// the body are applied.
func (h *CompanionHandlers) UpdateCompanion(w http.ResponseWriter, r *http.Request) {
	id := extractID(r, "id")
	if id == "" {
		respondError(w, http.StatusBadRequest, "companion ID is required")
		return
	}

	var req UpdateCompanionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		respondError(w, http.StatusBadRequest, "name must not be empty")
		return
	}

	profile, err := h.store.Mutate(r.Context(), id, func(p *types.CompanionProfile) error {
		if req.Name != nil {
			p.Name = strings.TrimSpace(*req.Name)
		}
		if req.AIModel != nil {
			p.Model = *req.AIModel
		}
		if req.CoreRules != nil {
			p.CoreRules = append([]string(nil), (*req.CoreRules)...)
		}
		if req.Traits != nil {
			p.Traits = *req.Traits
			p.Traits.Clamp()
		}
		p.UpdatedAt = time.Now()
		return nil
	})
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respondError(w, http.StatusNotFound, "companion not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to update companion")
		return
	}
	respondJSON(w, http.StatusOK, CompanionResponse{Success: true, Companion: profile})
}

// GetGreeting handles GET /api/companions/{id}/greeting.
func (h *CompanionHandlers) GetGreeting(w http.ResponseWriter, r *http.Request) {
	id := extractID(r, "id")
	profile, err := h.store.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respondError(w, http.StatusNotFound, "companion not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to load companion")
		return
	}

	respondJSON(w, http.StatusOK, GreetingResponse{
		Success:       true,
		Greeting:      companion.Greeting(profile),
		CompanionName: profile.Name,
	})
}

// TeachCompanion handles POST /api/companions/{id}/teach. The companion
// learns user facts: lists append, the name replaces.
func (h *CompanionHandlers) TeachCompanion(w http.ResponseWriter, r *http.Request) {
	id := extractID(r, "id")

	var req TeachRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" && len(req.Interests) == 0 && len(req.Dreams) == 0 && len(req.Fears) == 0 {
		respondError(w, http.StatusBadRequest, "nothing to teach")
		return
	}

	profile, err := h.store.Mutate(r.Context(), id, func(p *types.CompanionProfile) error {
		if req.Name != "" {
			p.UserFacts.Name = req.Name
		}
		p.UserFacts.Interests = appendNew(p.UserFacts.Interests, req.Interests)
		p.UserFacts.Dreams = appendNew(p.UserFacts.Dreams, req.Dreams)
		p.UserFacts.Fears = appendNew(p.UserFacts.Fears, req.Fears)
		p.UpdatedAt = time.Now()
		return nil
	})
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respondError(w, http.StatusNotFound, "companion not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to update companion")
		return
	}
	respondJSON(w, http.StatusOK, CompanionResponse{Success: true, Companion: profile})
}

// appendNew appends items not already present, preserving order.
func appendNew(existing, incoming []string) []string {
	seen := make(map[string]bool, len(existing))
	for _, item := range existing {
		seen[item] = true
	}
	for _, item := range incoming {
		item = strings.TrimSpace(item)
		if item == "" || seen[item] {
			continue
		}
		existing = append(existing, item)
		seen[item] = true
	}
	return existing
}
