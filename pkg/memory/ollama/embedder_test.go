package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestEmbed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/embeddings" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var req map[string]string
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req["model"] != "nomic-embed-text" || req["prompt"] == "" {
			t.Errorf("unexpected request: %v", req)
		}
		json.NewEncoder(w).Encode(map[string][]float64{
			"embedding": {0.25, -0.5, 1.0},
		})
	}))
	defer server.Close()

	e := NewEmbedder(server.URL, "nomic-embed-text")
	vec, err := e.Embed(context.Background(), "action fetch succeeded with reward 1.00")
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}
	if len(vec) != 3 || vec[0] != 0.25 || vec[1] != -0.5 || vec[2] != 1.0 {
		t.Fatalf("unexpected vector: %v", vec)
	}
}

func TestEmbedServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer server.Close()

	e := NewEmbedder(server.URL, "missing-model")
	if _, err := e.Embed(context.Background(), "text"); err == nil {
		t.Fatal("expected error on non-200 response")
	}
}
