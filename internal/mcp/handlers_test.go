package mcp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/kmorand/attache/internal/db"
	"github.com/kmorand/attache/internal/dossier"
	"github.com/kmorand/attache/internal/errors"
	"github.com/kmorand/attache/internal/graph"
	"github.com/kmorand/attache/internal/sources"
)

// testHandlers wires real stores against fake upstream services.
func testHandlers(t *testing.T) *Handlers {
	t.Helper()

	contextSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"activity": {"total": 1, "summaries": [{"date": "2026-08-29", "dayLabel": "today", "dayIndex": 0, "summary": "Working on Donjon today."}], "activities": []}
		}`))
	}))
	t.Cleanup(contextSrv.Close)

	graphMux := http.NewServeMux()
	graphMux.HandleFunc("GET /graph-data", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success": true, "nodes": [{"id": "Donjon"}], "links": []}`))
	})
	graphMux.HandleFunc("POST /episode", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success": true, "entities_count": 1, "edges_count": 0}`))
	})
	graphMux.HandleFunc("DELETE /graph-clear", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success": true}`))
	})
	graphMux.HandleFunc("GET /graph-health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status": "healthy", "initialized": true}`))
	})
	graphSrv := httptest.NewServer(graphMux)
	t.Cleanup(graphSrv.Close)

	database, err := db.Init(t.TempDir())
	if err != nil {
		t.Fatalf("db.Init: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	notes := db.NewNotesStore(database)
	synth := dossier.NewSynthesizer(sources.NewClient(contextSrv.URL, time.Second), notes, time.Minute)
	cache := graph.NewCache(graph.NewClient(graphSrv.URL, time.Second), db.NewLayoutStore(database), time.Minute)

	return NewHandlers(synth, cache, notes)
}

func toolRequest(args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

// resultPayload unmarshals the JSON text content of a tool result.
func resultPayload(t *testing.T, result *mcp.CallToolResult) map[string]any {
	t.Helper()
	if len(result.Content) == 0 {
		t.Fatal("result has no content")
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("content is %T, want TextContent", result.Content[0])
	}
	var payload map[string]any
	if err := json.Unmarshal([]byte(text.Text), &payload); err != nil {
		t.Fatalf("unmarshal result: %v", err)
	}
	return payload
}

func TestHandleNotesRoundTrip(t *testing.T) {
	h := testHandlers(t)

	result, err := h.HandleNotesSet(context.Background(), toolRequest(map[string]any{"content": "demo on Friday"}))
	if err != nil || result.IsError {
		t.Fatalf("set failed: err=%v result=%+v", err, result)
	}

	result, err = h.HandleNotesGet(context.Background(), toolRequest(nil))
	if err != nil || result.IsError {
		t.Fatalf("get failed: err=%v result=%+v", err, result)
	}
	payload := resultPayload(t, result)
	if payload["content"] != "demo on Friday" {
		t.Errorf("content = %v", payload["content"])
	}
}

func TestHandleDossierGenerate(t *testing.T) {
	h := testHandlers(t)

	result, err := h.HandleDossierGenerate(context.Background(), toolRequest(map[string]any{"force_refresh": true}))
	if err != nil || result.IsError {
		t.Fatalf("err=%v result=%+v", err, result)
	}
	payload := resultPayload(t, result)
	if payload["system_status"] == "" {
		t.Errorf("payload = %v", payload)
	}
	if _, ok := payload["raw_context"]; !ok {
		t.Errorf("raw_context missing from %v", payload)
	}
}

func TestHandleDossierStatus(t *testing.T) {
	h := testHandlers(t)

	result, err := h.HandleDossierStatus(context.Background(), toolRequest(nil))
	if err != nil || result.IsError {
		t.Fatalf("err=%v result=%+v", err, result)
	}
	payload := resultPayload(t, result)
	if payload["pieces_connected"] != true {
		t.Errorf("payload = %v", payload)
	}
	if _, ok := payload["raw_context"]; ok {
		t.Errorf("status must not carry the full dossier")
	}
}

func TestHandleGraphFetch(t *testing.T) {
	h := testHandlers(t)

	result, err := h.HandleGraphFetch(context.Background(), toolRequest(nil))
	if err != nil || result.IsError {
		t.Fatalf("err=%v result=%+v", err, result)
	}
	payload := resultPayload(t, result)
	nodes, ok := payload["nodes"].([]any)
	if !ok || len(nodes) != 1 {
		t.Errorf("nodes = %v", payload["nodes"])
	}
}

func TestHandleGraphEpisodeRequiresContent(t *testing.T) {
	h := testHandlers(t)

	result, err := h.HandleGraphEpisode(context.Background(), toolRequest(map[string]any{}))
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !result.IsError {
		t.Fatal("missing content must be rejected")
	}
	payload := resultPayload(t, result)
	errObj := payload["error"].(map[string]any)
	if errObj["code"] != string(errors.ErrInvalidRequest) {
		t.Errorf("code = %v", errObj["code"])
	}
}

func TestHandleGraphEpisode(t *testing.T) {
	h := testHandlers(t)

	result, err := h.HandleGraphEpisode(context.Background(), toolRequest(map[string]any{"content": "met with Alice"}))
	if err != nil || result.IsError {
		t.Fatalf("err=%v result=%+v", err, result)
	}
	payload := resultPayload(t, result)
	if payload["success"] != true {
		t.Errorf("payload = %v", payload)
	}
}

func TestHandleGraphClearRequiresConfirm(t *testing.T) {
	h := testHandlers(t)

	result, err := h.HandleGraphClear(context.Background(), toolRequest(map[string]any{}))
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !result.IsError {
		t.Fatal("unconfirmed clear must be rejected")
	}

	result, err = h.HandleGraphClear(context.Background(), toolRequest(map[string]any{"confirm": true}))
	if err != nil || result.IsError {
		t.Fatalf("confirmed clear failed: err=%v result=%+v", err, result)
	}
}

func TestHandleGraphConversationRequiresMessages(t *testing.T) {
	h := testHandlers(t)

	result, err := h.HandleGraphConversation(context.Background(), toolRequest(map[string]any{"messages": []any{}}))
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !result.IsError {
		t.Fatal("empty messages must be rejected")
	}
}

func TestHandleLayoutSave(t *testing.T) {
	h := testHandlers(t)

	result, err := h.HandleLayoutSave(context.Background(), toolRequest(map[string]any{
		"nodes": []any{map[string]any{"id": "Donjon", "x": 1.5, "y": 2.5}},
	}))
	if err != nil || result.IsError {
		t.Fatalf("err=%v result=%+v", err, result)
	}
	payload := resultPayload(t, result)
	if payload["saved"] != float64(1) {
		t.Errorf("payload = %v", payload)
	}
}

func TestHandleGraphHealth(t *testing.T) {
	h := testHandlers(t)

	result, err := h.HandleGraphHealth(context.Background(), toolRequest(nil))
	if err != nil || result.IsError {
		t.Fatalf("err=%v result=%+v", err, result)
	}
	payload := resultPayload(t, result)
	if payload["status"] != "healthy" || payload["initialized"] != true {
		t.Errorf("payload = %v", payload)
	}
}

func TestErrorResultHidesInternalDetails(t *testing.T) {
	result := errorResult(errors.NewInternal(stringError("sqlite: disk I/O error")))
	payload := resultPayload(t, result)
	errObj := payload["error"].(map[string]any)
	if errObj["code"] != string(errors.ErrInternal) {
		t.Errorf("code = %v", errObj["code"])
	}
	if _, leaked := errObj["details"]; leaked {
		t.Errorf("internal details must not be exposed: %v", errObj)
	}
}

func TestValidateDisabledTools(t *testing.T) {
	unknown := ValidateDisabledTools([]string{"graph_clear", "bogus_tool"})
	if len(unknown) != 1 || unknown[0] != "bogus_tool" {
		t.Errorf("unknown = %v", unknown)
	}
}

func TestAllToolNamesCoversRegistry(t *testing.T) {
	names := AllToolNames()
	if len(names) != 10 {
		t.Errorf("expected 10 tools, got %d: %v", len(names), names)
	}
}
