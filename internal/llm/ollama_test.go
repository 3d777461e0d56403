package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateSendsExpectedRequest(t *testing.T) {
	var captured generateRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/generate", r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		json.NewEncoder(w).Encode(generateResponse{
			Response:  "Hello!",
			Done:      true,
			EvalCount: 12,
		})
	}))
	defer server.Close()

	client := NewOllamaClient(OllamaConfig{BaseURL: server.URL, Model: "neural-chat"})

	resp, err := client.Generate(context.Background(), GenerateRequest{
		System:      "You are Ava",
		Prompt:      "hi",
		Temperature: 0.6,
	})
	require.NoError(t, err)

	assert.Equal(t, "Hello!", resp.Text)
	assert.Equal(t, "neural-chat", resp.Model)
	assert.Equal(t, 12, resp.EvalCount)

	assert.Equal(t, "neural-chat", captured.Model)
	assert.Equal(t, "You are Ava", captured.System)
	assert.Equal(t, "hi", captured.Prompt)
	assert.False(t, captured.Stream)
	assert.Equal(t, 0.6, captured.Options.Temperature)
	assert.Equal(t, 0.9, captured.Options.TopP)
	assert.Equal(t, 40, captured.Options.TopK)
}

func TestGenerateModelOverride(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req generateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "llama3", req.Model)
		json.NewEncoder(w).Encode(generateResponse{Response: "ok", Done: true})
	}))
	defer server.Close()

	client := NewOllamaClient(OllamaConfig{BaseURL: server.URL, Model: "neural-chat"})
	resp, err := client.Generate(context.Background(), GenerateRequest{Model: "llama3", Prompt: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "llama3", resp.Model)
}

func TestGenerateNon200IsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer server.Close()

	client := NewOllamaClient(OllamaConfig{BaseURL: server.URL})
	_, err := client.Generate(context.Background(), GenerateRequest{Prompt: "hi"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestGenerateIncompleteResponseIsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(generateResponse{Response: "partial", Done: false})
	}))
	defer server.Close()

	client := NewOllamaClient(OllamaConfig{BaseURL: server.URL})
	_, err := client.Generate(context.Background(), GenerateRequest{Prompt: "hi"})
	assert.Error(t, err)
}

func TestGenerateTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
		json.NewEncoder(w).Encode(generateResponse{Response: "late", Done: true})
	}))
	defer server.Close()

	client := NewOllamaClient(OllamaConfig{BaseURL: server.URL, Timeout: 50 * time.Millisecond})
	_, err := client.Generate(context.Background(), GenerateRequest{Prompt: "hi"})
	assert.Error(t, err)
}

func TestHealthCheck(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/version", r.URL.Path)
		w.Write([]byte(`{"version":"0.5.0"}`))
	}))
	defer server.Close()

	client := NewOllamaClient(OllamaConfig{BaseURL: server.URL})
	assert.NoError(t, client.HealthCheck(context.Background()))

	server.Close()
	assert.Error(t, client.HealthCheck(context.Background()))
}

func TestListModels(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/tags", r.URL.Path)
		w.Write([]byte(`{"models":[{"name":"neural-chat"},{"name":"llama3"}]}`))
	}))
	defer server.Close()

	client := NewOllamaClient(OllamaConfig{BaseURL: server.URL})
	models, err := client.ListModels(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"neural-chat", "llama3"}, models)
}

func TestDefaults(t *testing.T) {
	client := NewOllamaClient(OllamaConfig{})
	assert.Equal(t, "http://localhost:11434", client.baseURL)
	assert.Equal(t, "neural-chat", client.GetModel())
	assert.Equal(t, 30*time.Second, client.timeout)
}
