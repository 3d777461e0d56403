package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scrypster/kindred/internal/companion"
	"github.com/scrypster/kindred/internal/storage/memory"
	"github.com/scrypster/kindred/pkg/types"
)

type stubHealth struct{ err error }

func (s stubHealth) HealthCheck(ctx context.Context) error { return s.err }

func TestGetStatus(t *testing.T) {
	store := memory.NewCompanionStore()
	require.NoError(t, store.Create(context.Background(),
		companion.NewProfile("Ava", types.ArchetypeWarm, companion.TraitOverrides{}, nil, "")))

	h := NewStatusHandler(store, stubHealth{})
	rec := httptest.NewRecorder()
	h.GetStatus(rec, httptest.NewRequest(http.MethodGet, "/api/status", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var resp StatusResponse
	decodeBody(t, rec, &resp)
	assert.True(t, resp.Success)
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, 1, resp.Companions)
	assert.Equal(t, "ok", resp.LLM)
}

func TestGetStatusModelDownStillHealthy(t *testing.T) {
	h := NewStatusHandler(memory.NewCompanionStore(), stubHealth{err: errors.New("refused")})
	rec := httptest.NewRecorder()
	h.GetStatus(rec, httptest.NewRequest(http.MethodGet, "/api/status", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var resp StatusResponse
	decodeBody(t, rec, &resp)
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, "unreachable", resp.LLM)
}

func TestGetStatusNoHealthChecker(t *testing.T) {
	h := NewStatusHandler(memory.NewCompanionStore(), nil)
	rec := httptest.NewRecorder()
	h.GetStatus(rec, httptest.NewRequest(http.MethodGet, "/api/status", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var resp StatusResponse
	decodeBody(t, rec, &resp)
	assert.Equal(t, "not configured", resp.LLM)
}
