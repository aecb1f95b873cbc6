package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"calagent/internal/agent"
	"calagent/internal/calendar"
	"calagent/internal/interpreter"
	"calagent/internal/logging"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	a := agent.New(interpreter.NewRuleInterpreter(logging.Nop()), calendar.NewMemoryStore(), logging.Nop())
	cfg := DefaultConfig()
	cfg.Debug = false
	return New(a, cfg, logging.Nop())
}

func postCommand(t *testing.T, s *Server, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/command", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) APIResponse {
	t.Helper()
	var resp APIResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v (body: %s)", err, rec.Body.String())
	}
	return resp
}

func TestCommandEndpoint(t *testing.T) {
	s := newTestServer(t)

	rec := postCommand(t, s, `{"command": "安排明天下午3点开会"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	resp := decodeResponse(t, rec)
	if !resp.Success {
		t.Fatalf("expected success, got error: %s", resp.Error)
	}

	data, err := json.Marshal(resp.Data)
	if err != nil {
		t.Fatalf("re-marshal data: %v", err)
	}
	var cmdResp CommandResponse
	if err := json.Unmarshal(data, &cmdResp); err != nil {
		t.Fatalf("decode command response: %v", err)
	}
	if !strings.Contains(cmdResp.Reply, "已成功创建事件") {
		t.Errorf("unexpected reply: %s", cmdResp.Reply)
	}
}

func TestCommandEndpointRejectsEmptyText(t *testing.T) {
	s := newTestServer(t)

	rec := postCommand(t, s, `{"command": "   "}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	resp := decodeResponse(t, rec)
	if resp.Success {
		t.Error("expected success=false")
	}
	if resp.Error == "" {
		t.Error("expected an error message")
	}
}

func TestCommandEndpointRejectsBadJSON(t *testing.T) {
	s := newTestServer(t)

	rec := postCommand(t, s, `{not json`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestCalendarsEndpoint(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/calendars", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "default") {
		t.Errorf("expected default calendar in body: %s", rec.Body.String())
	}
}

func TestHealthEndpoint(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	resp := decodeResponse(t, rec)
	if !resp.Success {
		t.Error("expected success=true")
	}
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t)

	// Generate at least one observation first.
	postCommand(t, s, `{"command": "安排明天下午3点开会"}`)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "calagent_parse_total") {
		t.Error("expected calagent metrics in exposition")
	}
}
