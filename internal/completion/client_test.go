package completion

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func TestCompleteSendsPromptAsUserMessage(t *testing.T) {
	var gotPath string
	var gotBody map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"content":"hello back"}}]}`))
	}))
	defer srv.Close()

	c := NewHTTPClient(Config{Endpoint: srv.URL, Model: "test-model"}, zap.NewNop())
	reply, err := c.Complete(context.Background(), "hello there")
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if reply != "hello back" {
		t.Errorf("expected reply %q, got %q", "hello back", reply)
	}
	if gotPath != "/chat/completions" {
		t.Errorf("unexpected path %q", gotPath)
	}
	msgs := gotBody["messages"].([]interface{})
	first := msgs[0].(map[string]interface{})
	if first["role"] != "user" || first["content"] != "hello there" {
		t.Errorf("prompt not sent as user message: %v", first)
	}
}

func TestCompleteSurfacesAPIErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewHTTPClient(Config{Endpoint: srv.URL}, zap.NewNop())
	_, err := c.Complete(context.Background(), "hi")
	if err == nil || !strings.Contains(err.Error(), "503") {
		t.Fatalf("expected 503 error, got %v", err)
	}
}

func TestCompleteRejectsEmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	c := NewHTTPClient(Config{Endpoint: srv.URL}, zap.NewNop())
	if _, err := c.Complete(context.Background(), "hi"); err == nil {
		t.Fatal("expected error for empty choices")
	}
}
