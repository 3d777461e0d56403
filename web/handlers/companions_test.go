package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scrypster/kindred/internal/companion"
	"github.com/scrypster/kindred/internal/storage/memory"
	"github.com/scrypster/kindred/pkg/types"
)

func postJSON(t *testing.T, body interface{}) *bytes.Reader {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	return bytes.NewReader(data)
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.NewDecoder(rec.Body).Decode(v))
}

func TestCreateCompanionDefaults(t *testing.T) {
	h := NewCompanionHandlers(memory.NewCompanionStore())

	req := httptest.NewRequest(http.MethodPost, "/api/companions",
		postJSON(t, map[string]interface{}{"name": "Ava"}))
	rec := httptest.NewRecorder()
	h.CreateCompanion(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)

	var resp CompanionResponse
	decodeBody(t, rec, &resp)
	assert.True(t, resp.Success)
	require.NotNil(t, resp.Companion)
	assert.Equal(t, "Ava", resp.Companion.Name)
	assert.Equal(t, types.ArchetypeWarm, resp.Companion.Archetype)
	assert.Equal(t, 0.85, resp.Companion.Traits.Warmth)
	assert.Equal(t, 0.0, resp.Companion.IntimacyLevel)
	assert.NotEmpty(t, resp.Companion.ID)
}

func TestCreateCompanionWithOverrides(t *testing.T) {
	h := NewCompanionHandlers(memory.NewCompanionStore())

	req := httptest.NewRequest(http.MethodPost, "/api/companions", postJSON(t, map[string]interface{}{
		"name":      "Luna",
		"archetype": "mysterious",
		"ai_model":  "llama3",
		"traits":    map[string]float64{"warmth": 0.3, "mystery": 1.5},
	}))
	rec := httptest.NewRecorder()
	h.CreateCompanion(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)

	var resp CompanionResponse
	decodeBody(t, rec, &resp)
	assert.Equal(t, types.ArchetypeMysterious, resp.Companion.Archetype)
	assert.Equal(t, 0.3, resp.Companion.Traits.Warmth)
	assert.Equal(t, 1.0, resp.Companion.Traits.Mystery)
	assert.Equal(t, "llama3", resp.Companion.Model)
}

func TestCreateCompanionRequiresName(t *testing.T) {
	h := NewCompanionHandlers(memory.NewCompanionStore())

	req := httptest.NewRequest(http.MethodPost, "/api/companions",
		postJSON(t, map[string]interface{}{"name": "   "}))
	rec := httptest.NewRecorder()
	h.CreateCompanion(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp ErrorResponse
	decodeBody(t, rec, &resp)
	assert.False(t, resp.Success)
	assert.NotEmpty(t, resp.Error)
}

func TestListCompanions(t *testing.T) {
	store := memory.NewCompanionStore()
	require.NoError(t, store.Create(context.Background(),
		companion.NewProfile("Ava", types.ArchetypeWarm, companion.TraitOverrides{}, nil, "")))
	h := NewCompanionHandlers(store)

	req := httptest.NewRequest(http.MethodGet, "/api/companions", nil)
	rec := httptest.NewRecorder()
	h.ListCompanions(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp CompanionListResponse
	decodeBody(t, rec, &resp)
	assert.True(t, resp.Success)
	assert.Equal(t, 1, resp.Total)
	require.Len(t, resp.Companions, 1)
	assert.Equal(t, "Ava", resp.Companions[0].Name)
}

func TestGetCompanionNotFound(t *testing.T) {
	h := NewCompanionHandlers(memory.NewCompanionStore())

	req := httptest.NewRequest(http.MethodGet, "/api/companions/missing", nil)
	req.SetPathValue("id", "missing")
	rec := httptest.NewRecorder()
	h.GetCompanion(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdateCompanionPartialMerge(t *testing.T) {
	store := memory.NewCompanionStore()
	profile := companion.NewProfile("Ava", types.ArchetypeWarm, companion.TraitOverrides{}, nil, "neural-chat")
	require.NoError(t, store.Create(context.Background(), profile))
	h := NewCompanionHandlers(store)

	req := httptest.NewRequest(http.MethodPatch, "/api/companions/"+profile.ID,
		postJSON(t, map[string]interface{}{"name": "Ava Prime"}))
	req.SetPathValue("id", profile.ID)
	rec := httptest.NewRecorder()
	h.UpdateCompanion(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp CompanionResponse
	decodeBody(t, rec, &resp)
	assert.Equal(t, "Ava Prime", resp.Companion.Name)
	// Untouched fields survive the patch.
	assert.Equal(t, "neural-chat", resp.Companion.Model)
	assert.Equal(t, 0.85, resp.Companion.Traits.Warmth)
}

func TestUpdateCompanionRejectsEmptyName(t *testing.T) {
	store := memory.NewCompanionStore()
	profile := companion.NewProfile("Ava", types.ArchetypeWarm, companion.TraitOverrides{}, nil, "")
	require.NoError(t, store.Create(context.Background(), profile))
	h := NewCompanionHandlers(store)

	req := httptest.NewRequest(http.MethodPatch, "/api/companions/"+profile.ID,
		postJSON(t, map[string]interface{}{"name": ""}))
	req.SetPathValue("id", profile.ID)
	rec := httptest.NewRecorder()
	h.UpdateCompanion(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTeachCompanionAppendsFacts(t *testing.T) {
	store := memory.NewCompanionStore()
	profile := companion.NewProfile("Ava", types.ArchetypeWarm, companion.TraitOverrides{}, nil, "")
	require.NoError(t, store.Create(context.Background(), profile))
	h := NewCompanionHandlers(store)

	teach := func(body interface{}) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/companions/"+profile.ID+"/teach", postJSON(t, body))
		req.SetPathValue("id", profile.ID)
		rec := httptest.NewRecorder()
		h.TeachCompanion(rec, req)
		return rec
	}

	rec := teach(map[string]interface{}{"name": "Sam", "interests": []string{"astronomy"}})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = teach(map[string]interface{}{"interests": []string{"astronomy", "piano"}, "dreams": []string{"sail the world"}})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp CompanionResponse
	decodeBody(t, rec, &resp)
	assert.Equal(t, "Sam", resp.Companion.UserFacts.Name)
	assert.Equal(t, []string{"astronomy", "piano"}, resp.Companion.UserFacts.Interests)
	assert.Equal(t, []string{"sail the world"}, resp.Companion.UserFacts.Dreams)
}

func TestTeachCompanionEmptyBody(t *testing.T) {
	store := memory.NewCompanionStore()
	profile := companion.NewProfile("Ava", types.ArchetypeWarm, companion.TraitOverrides{}, nil, "")
	require.NoError(t, store.Create(context.Background(), profile))
	h := NewCompanionHandlers(store)

	req := httptest.NewRequest(http.MethodPost, "/api/companions/"+profile.ID+"/teach",
		postJSON(t, map[string]interface{}{}))
	req.SetPathValue("id", profile.ID)
	rec := httptest.NewRecorder()
	h.TeachCompanion(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetGreeting(t *testing.T) {
	store := memory.NewCompanionStore()
	profile := companion.NewProfile("Max", types.ArchetypePlayful, companion.TraitOverrides{}, nil, "")
	require.NoError(t, store.Create(context.Background(), profile))
	h := NewCompanionHandlers(store)

	req := httptest.NewRequest(http.MethodGet, "/api/companions/"+profile.ID+"/greeting", nil)
	req.SetPathValue("id", profile.ID)
	rec := httptest.NewRecorder()
	h.GetGreeting(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp GreetingResponse
	decodeBody(t, rec, &resp)
	assert.True(t, resp.Success)
	assert.Equal(t, "Max", resp.CompanionName)
	assert.NotEmpty(t, resp.Greeting)
}
