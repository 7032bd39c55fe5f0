package embed

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOllamaEmbedder_Embed(t *testing.T) {
	var req map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/embed", r.URL.Path)
		_ = json.NewDecoder(r.Body).Decode(&req)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"model":"embed-test","embeddings":[[0.1,0.2],[0.3,0.4]]}`)
	}))
	defer srv.Close()

	e, err := NewOllamaEmbedder(srv.URL, "embed-test")
	require.NoError(t, err)
	got, err := e.Embed(context.Background(), []string{"grace period", "waiting period"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{0.1, 0.2}, {0.3, 0.4}}, got)
	assert.Equal(t, "embed-test", req["model"])
	assert.Equal(t, []any{"grace period", "waiting period"}, req["input"])
}

func TestOllamaEmbedder_CountMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"model":"embed-test","embeddings":[[0.1,0.2]]}`)
	}))
	defer srv.Close()

	e, err := NewOllamaEmbedder(srv.URL, "embed-test")
	require.NoError(t, err)
	_, err = e.Embed(context.Background(), []string{"a", "b"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 vectors for 2 texts")
}

func TestOllamaEmbedder_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"error":"model not found"}`)
	}))
	defer srv.Close()

	e, err := NewOllamaEmbedder(srv.URL, "missing")
	require.NoError(t, err)
	_, err = e.Embed(context.Background(), []string{"a"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "embed: ollama")
}

func TestOpenAIEmbedder_Embed(t *testing.T) {
	var req map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/embeddings"), "path %q", r.URL.Path)
		_ = json.NewDecoder(r.Body).Decode(&req)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"object":"list","model":"embed-test",
			"data":[{"object":"embedding","index":1,"embedding":[0.3,0.4]},{"object":"embedding","index":0,"embedding":[0.1,0.2]}],
			"usage":{"prompt_tokens":2,"total_tokens":2}}`)
	}))
	defer srv.Close()

	e := NewOpenAIEmbedder("test-key", srv.URL, "embed-test")
	got, err := e.Embed(context.Background(), []string{"grace period", "waiting period"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{0.1, 0.2}, {0.3, 0.4}}, got, "vectors follow the response index")
	assert.Equal(t, "embed-test", req["model"])
	assert.Equal(t, []any{"grace period", "waiting period"}, req["input"])
}

func TestOpenAIEmbedder_MissingVector(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"object":"list","model":"embed-test",
			"data":[{"object":"embedding","index":0,"embedding":[0.1]},{"object":"embedding","index":7,"embedding":[0.9]}],
			"usage":{"prompt_tokens":2,"total_tokens":2}}`)
	}))
	defer srv.Close()

	e := NewOpenAIEmbedder("test-key", srv.URL, "embed-test")
	_, err := e.Embed(context.Background(), []string{"a", "b"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no vector for input 1")
}

func TestGeminiEmbedder_Embed(t *testing.T) {
	var path string
	var req map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&req)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"embeddings":[{"values":[0.1,0.2]},{"values":[0.3,0.4]}]}`)
	}))
	defer srv.Close()

	e, err := NewGeminiEmbedder(context.Background(), "test-key", srv.URL, "models/embed-test")
	require.NoError(t, err)
	got, err := e.Embed(context.Background(), []string{"grace period", "waiting period"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{0.1, 0.2}, {0.3, 0.4}}, got)
	assert.Contains(t, path, "models/embed-test:")
	requests, ok := req["requests"].([]any)
	require.True(t, ok, "body %v", req)
	assert.Len(t, requests, 2)
}

func TestGeminiEmbedder_CountMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"embeddings":[{"values":[0.1,0.2]}]}`)
	}))
	defer srv.Close()

	e, err := NewGeminiEmbedder(context.Background(), "test-key", srv.URL, "embed-test")
	require.NoError(t, err)
	_, err = e.Embed(context.Background(), []string{"a", "b"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 vectors for 2 texts")
}

func TestProviders_EmptyInputSkipsCall(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	ollama, err := NewOllamaEmbedder(srv.URL, "m")
	require.NoError(t, err)
	gemini, err := NewGeminiEmbedder(context.Background(), "k", srv.URL, "m")
	require.NoError(t, err)
	for _, e := range []Embedder{ollama, NewOpenAIEmbedder("k", srv.URL, "m"), gemini} {
		got, err := e.Embed(context.Background(), nil)
		require.NoError(t, err)
		assert.Nil(t, got)
	}
	assert.Zero(t, calls)

	_, err = NewGeminiEmbedder(context.Background(), "", "", "m")
	assert.Error(t, err)
}
