package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/kindred-ai/kindred/internal/convo"
	"github.com/kindred-ai/kindred/internal/memory"
	"github.com/kindred-ai/kindred/internal/registry"
)

// scriptedCompleter replies with a fixed string, or fails every call when
// fail is set.
type scriptedCompleter struct {
	reply string
	fail  bool
	calls int
}

func (c *scriptedCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	c.calls++
	if c.fail {
		return "", errors.New("backend down")
	}
	return c.reply, nil
}

// newTestHandler wires a Handler with in-memory deps only (no Postgres,
// Redis, Neo4j or Qdrant).
func newTestHandler(t *testing.T, completer *scriptedCompleter) (*Handler, http.Handler) {
	t.Helper()
	logger := zap.NewNop()

	reg := registry.New(logger)
	mem := memory.NewStore(logger)
	orch := convo.New(reg, mem, completer, logger)

	h := NewHandler(reg, mem, orch, logger)
	return h, h.Router()
}

func postJSON(t *testing.T, ts *httptest.Server, path string, body interface{}) *http.Response {
	t.Helper()
	b, _ := json.Marshal(body)
	resp, err := http.Post(ts.URL+path, "application/json", bytes.NewReader(b))
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	return resp
}

func putJSON(t *testing.T, ts *httptest.Server, path string, body interface{}) *http.Response {
	t.Helper()
	b, _ := json.Marshal(body)
	req, _ := http.NewRequest(http.MethodPut, ts.URL+path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("PUT %s: %v", path, err)
	}
	return resp
}

func getJSON(t *testing.T, ts *httptest.Server, path string) *http.Response {
	t.Helper()
	resp, err := http.Get(ts.URL + path)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	return resp
}

func decodeJSON(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func createAgent(t *testing.T, ts *httptest.Server, name, template string) string {
	t.Helper()
	resp := postJSON(t, ts, "/api/agents", map[string]interface{}{
		"name":     name,
		"template": template,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create agent: status %d", resp.StatusCode)
	}
	var agent struct {
		ID string `json:"id"`
	}
	decodeJSON(t, resp, &agent)
	return agent.ID
}

// --- Tests ---

func TestHealthCheck(t *testing.T) {
	_, router := newTestHandler(t, &scriptedCompleter{})
	ts := httptest.NewServer(router)
	defer ts.Close()

	resp := getJSON(t, ts, "/api/health")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}
	var body map[string]string
	decodeJSON(t, resp, &body)
	if body["status"] != "ok" {
		t.Errorf("unexpected health body: %v", body)
	}
}

func TestCreateAndGetAgent(t *testing.T) {
	_, router := newTestHandler(t, &scriptedCompleter{})
	ts := httptest.NewServer(router)
	defer ts.Close()

	id := createAgent(t, ts, "Ava", "creative")

	resp := getJSON(t, ts, "/api/agents/"+id)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get agent: status %d", resp.StatusCode)
	}
	var agent struct {
		Name    string `json:"name"`
		Profile struct {
			Traits map[string]int `json:"traits"`
		} `json:"profile"`
	}
	decodeJSON(t, resp, &agent)
	if agent.Name != "Ava" {
		t.Errorf("expected name Ava, got %q", agent.Name)
	}
	if agent.Profile.Traits["creativity"] != 95 {
		t.Errorf("template not applied: creativity %d", agent.Profile.Traits["creativity"])
	}
}

func TestCreateDuplicateAgentIs409(t *testing.T) {
	_, router := newTestHandler(t, &scriptedCompleter{})
	ts := httptest.NewServer(router)
	defer ts.Close()

	resp := postJSON(t, ts, "/api/agents", map[string]string{"id": "a1", "name": "Ava"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create: status %d", resp.StatusCode)
	}
	resp = postJSON(t, ts, "/api/agents", map[string]string{"id": "a1", "name": "Other"})
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409 for duplicate id, got %d", resp.StatusCode)
	}
}

func TestGetUnknownAgentIs404(t *testing.T) {
	_, router := newTestHandler(t, &scriptedCompleter{})
	ts := httptest.NewServer(router)
	defer ts.Close()

	resp := getJSON(t, ts, "/api/agents/ghost")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestUpdateProfile(t *testing.T) {
	_, router := newTestHandler(t, &scriptedCompleter{})
	ts := httptest.NewServer(router)
	defer ts.Close()

	id := createAgent(t, ts, "Ava", "")

	resp := putJSON(t, ts, "/api/agents/"+id+"/profile", map[string]interface{}{
		"traits":    map[string]int{"openness": 90},
		"interests": []string{"painting", "jazz"},
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("update: status %d", resp.StatusCode)
	}
	var agent struct {
		Profile struct {
			Traits    map[string]int `json:"traits"`
			Interests []string       `json:"interests"`
		} `json:"profile"`
	}
	decodeJSON(t, resp, &agent)
	if agent.Profile.Traits["openness"] != 90 {
		t.Errorf("trait not updated: %d", agent.Profile.Traits["openness"])
	}
	if len(agent.Profile.Interests) != 2 {
		t.Errorf("interests not updated: %v", agent.Profile.Interests)
	}
}

func TestUpdateProfileInvalidTraitIs400(t *testing.T) {
	_, router := newTestHandler(t, &scriptedCompleter{})
	ts := httptest.NewServer(router)
	defer ts.Close()

	id := createAgent(t, ts, "Ava", "")

	resp := putJSON(t, ts, "/api/agents/"+id+"/profile", map[string]interface{}{
		"traits": map[string]int{"openness": 500},
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestComputeCompatibilityByAgentIDs(t *testing.T) {
	_, router := newTestHandler(t, &scriptedCompleter{})
	ts := httptest.NewServer(router)
	defer ts.Close()

	a := createAgent(t, ts, "Ava", "creative")
	b := createAgent(t, ts, "Kai", "creative")

	resp := postJSON(t, ts, "/api/compatibility", map[string]string{
		"first_agent_id":  a,
		"second_agent_id": b,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("compatibility: status %d", resp.StatusCode)
	}
	var result struct {
		OverallScore int    `json:"overall_score"`
		MatchQuality string `json:"match_quality"`
	}
	decodeJSON(t, resp, &result)
	if result.OverallScore < 90 || result.MatchQuality != "Exceptional" {
		t.Errorf("identical templates should be exceptional: %+v", result)
	}
}

func TestComputeCompatibilityInlineInvalidProfileIs422(t *testing.T) {
	_, router := newTestHandler(t, &scriptedCompleter{})
	ts := httptest.NewServer(router)
	defer ts.Close()

	resp := postJSON(t, ts, "/api/compatibility", map[string]interface{}{
		"first_profile":  map[string]interface{}{"traits": map[string]int{"openness": 150}},
		"second_profile": map[string]interface{}{},
	})
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}
}

func TestSendMessageAndListMemories(t *testing.T) {
	completer := &scriptedCompleter{reply: "Delighted to chat!"}
	_, router := newTestHandler(t, completer)
	ts := httptest.NewServer(router)
	defer ts.Close()

	id := createAgent(t, ts, "Ava", "social")

	resp := postJSON(t, ts, "/api/agents/"+id+"/message", map[string]string{
		"content": "hello there",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("message: status %d", resp.StatusCode)
	}
	var reply struct {
		Reply          string `json:"reply"`
		ConversationID string `json:"conversation_id"`
	}
	decodeJSON(t, resp, &reply)
	if reply.Reply != "Delighted to chat!" || reply.ConversationID == "" {
		t.Errorf("unexpected response: %+v", reply)
	}

	memResp := getJSON(t, ts, "/api/agents/"+id+"/memories")
	var recs []map[string]interface{}
	decodeJSON(t, memResp, &recs)
	if len(recs) != 2 {
		t.Fatalf("expected 2 memories after exchange, got %d", len(recs))
	}
}

func TestSendMessageBackendDownIs502AndWritesNothing(t *testing.T) {
	completer := &scriptedCompleter{fail: true}
	_, router := newTestHandler(t, completer)
	ts := httptest.NewServer(router)
	defer ts.Close()

	id := createAgent(t, ts, "Ava", "")

	resp := postJSON(t, ts, "/api/agents/"+id+"/message", map[string]string{
		"content": "hello",
	})
	if resp.StatusCode != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", resp.StatusCode)
	}
	if completer.calls != 2 {
		t.Errorf("expected one retry (2 calls), got %d", completer.calls)
	}

	memResp := getJSON(t, ts, "/api/agents/"+id+"/memories")
	var recs []map[string]interface{}
	decodeJSON(t, memResp, &recs)
	if len(recs) != 0 {
		t.Errorf("failed exchange must not write memories, got %d", len(recs))
	}
}

func TestSendMessageEmptyContentIs400(t *testing.T) {
	_, router := newTestHandler(t, &scriptedCompleter{reply: "hi"})
	ts := httptest.NewServer(router)
	defer ts.Close()

	id := createAgent(t, ts, "Ava", "")
	resp := postJSON(t, ts, "/api/agents/"+id+"/message", map[string]string{})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestSearchMemories(t *testing.T) {
	completer := &scriptedCompleter{reply: "I remember that day in the park."}
	_, router := newTestHandler(t, completer)
	ts := httptest.NewServer(router)
	defer ts.Close()

	id := createAgent(t, ts, "Ava", "")

	for _, content := range []string{"we played chess in the park", "you showed me your garden"} {
		resp := postJSON(t, ts, "/api/agents/"+id+"/message", map[string]string{"content": content})
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("message: status %d", resp.StatusCode)
		}
	}

	resp := postJSON(t, ts, "/api/agents/"+id+"/memories/search", map[string]interface{}{
		"query": "chess",
		"limit": 1,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("search: status %d", resp.StatusCode)
	}
	var hits []struct {
		Content     string `json:"content"`
		AccessCount int    `json:"access_count"`
	}
	decodeJSON(t, resp, &hits)
	if len(hits) != 1 {
		t.Fatalf("expected 1 hit, got %d", len(hits))
	}
	if hits[0].Content != "we played chess in the park" {
		t.Errorf("expected the chess memory, got %q", hits[0].Content)
	}
	if hits[0].AccessCount != 1 {
		t.Errorf("search should bump access count, got %d", hits[0].AccessCount)
	}
}

func TestRecordRelationshipEvent(t *testing.T) {
	_, router := newTestHandler(t, &scriptedCompleter{})
	ts := httptest.NewServer(router)
	defer ts.Close()

	id := createAgent(t, ts, "Ava", "")

	resp := postJSON(t, ts, "/api/agents/"+id+"/events", map[string]interface{}{
		"relationship_id": "rel-1",
		"type":            "milestone",
		"description":     "first anniversary",
		"impact":          0.8,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("event: status %d", resp.StatusCode)
	}
	var rec struct {
		Type string `json:"type"`
	}
	decodeJSON(t, resp, &rec)
	if rec.Type != "relationship_event" {
		t.Errorf("expected relationship_event record, got %q", rec.Type)
	}
}

func TestListAgents(t *testing.T) {
	_, router := newTestHandler(t, &scriptedCompleter{})
	ts := httptest.NewServer(router)
	defer ts.Close()

	createAgent(t, ts, "Zoe", "")
	createAgent(t, ts, "Ava", "")

	resp := getJSON(t, ts, "/api/agents")
	var agents []struct {
		Name string `json:"name"`
	}
	decodeJSON(t, resp, &agents)
	if len(agents) != 2 {
		t.Fatalf("expected 2 agents, got %d", len(agents))
	}
	if agents[0].Name != "Ava" {
		t.Errorf("expected name-sorted list, first is %q", agents[0].Name)
	}
}
