package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestClientInitialize(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req Request
		json.NewDecoder(r.Body).Decode(&req)

		if req.Method == "initialize" {
			result := map[string]interface{}{
				"protocolVersion": "2024-11-05",
				"capabilities":    map[string]interface{}{},
				"serverInfo":      map[string]string{"name": "test", "version": "1.0"},
			}
			data, _ := json.Marshal(result)
			resp := &Response{
				JSONRPC: "2.0",
				ID:      req.ID,
				Result:  data,
			}
			json.NewEncoder(w).Encode(resp)
		} else if req.Method == "notifications/initialized" {
			w.WriteHeader(http.StatusNoContent)
		} else {
			resp := NewErrorResponse(req.ID, 0, "not implemented")
			json.NewEncoder(w).Encode(resp)
		}
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, err := client.Initialize(context.Background(), map[string]interface{}{"name": "test-client"})
	if err != nil {
		t.Fatalf("Initialize() error: %v", err)
	}
}

func TestClientNotify(t *testing.T) {
	received := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req Request
		json.NewDecoder(r.Body).Decode(&req)
		if req.Method == "notifications/initialized" {
			received = true
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	err := client.Notify(context.Background(), "notifications/initialized", nil)
	if err != nil {
		t.Fatalf("Notify() error: %v", err)
	}
	if !received {
		t.Error("notification not received by server")
	}
}

func TestClientParseSSEResponse(t *testing.T) {
	client := NewClient("")

	sseData := "data: {\"jsonrpc\":\"2.0\",\"id\":1,\"result\":{\"foo\":\"bar\"}}\n\n"
	resp, err := client.parseSSEResponse(strings.NewReader(sseData))
	if err != nil {
		t.Fatalf("parseSSEResponse() error: %v", err)
	}
	if resp.ID != float64(1) {
		t.Errorf("expected ID=1, got %v", resp.ID)
	}

	// Test multiline data
	sseData = "data: {\"jsonrpc\":\"2.0\",\ndata: \"id\":2,\"result\":{}}\n\n"
	resp, err = client.parseSSEResponse(strings.NewReader(sseData))
	if err != nil {
		t.Fatalf("parseSSEResponse() error: %v", err)
	}
	if resp.ID != float64(2) {
		t.Errorf("expected ID=2, got %v", resp.ID)
	}
}

func TestClientCallToolSSE(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req Request
		json.NewDecoder(r.Body).Decode(&req)

		var params CallToolParams
		json.Unmarshal(req.Params, &params)
		if params.Name != ToolGetSlots {
			t.Errorf("expected tool %s, got %s", ToolGetSlots, params.Name)
		}

		resp, _ := NewResponse(req.ID, TextResult(`{"total":4,"used":1,"free":3}`, false))
		data, _ := json.Marshal(resp)
		w.Header().Set("Content-Type", "text/event-stream")
		w.Write([]byte("event: message\ndata: " + string(data) + "\n\n"))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	result, err := client.CallTool(context.Background(), ToolGetSlots, nil)
	if err != nil {
		t.Fatalf("CallTool() error: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected error result: %s", result.Text())
	}
	if !strings.Contains(result.Text(), `"free":3`) {
		t.Errorf("unexpected text: %s", result.Text())
	}
}

func TestClientCallToolRPCError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req Request
		json.NewDecoder(r.Body).Decode(&req)
		json.NewEncoder(w).Encode(NewErrorResponse(req.ID, ErrorCodeMethodNotFound, "no such tool"))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, err := client.CallTool(context.Background(), "missing", nil)
	if err == nil {
		t.Fatal("expected error")
	}
	var rpcErr *Error
	if !errors.As(err, &rpcErr) {
		t.Fatalf("expected *Error, got %T", err)
	}
	if rpcErr.Code != ErrorCodeMethodNotFound {
		t.Errorf("expected code %d, got %d", ErrorCodeMethodNotFound, rpcErr.Code)
	}
}

func TestClientHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down for maintenance", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	if _, err := client.ListTools(context.Background()); err == nil {
		t.Fatal("expected error for 503")
	}
}

func TestClientNoUpstream(t *testing.T) {
	client := NewClient("")
	_, err := client.CallTool(context.Background(), ToolGetFleets, nil)
	if !errors.Is(err, ErrNoUpstream) {
		t.Fatalf("expected ErrNoUpstream, got %v", err)
	}
}

func TestClientSessionHeader(t *testing.T) {
	var seen []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, r.Header.Get("Mcp-Session-Id"))
		var req Request
		json.NewDecoder(r.Body).Decode(&req)
		if req.Method == "notifications/initialized" {
			w.WriteHeader(http.StatusAccepted)
			return
		}
		w.Header().Set("Mcp-Session-Id", "abc123")
		resp, _ := NewResponse(req.ID, map[string]interface{}{})
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	if _, err := client.Initialize(context.Background(), nil); err != nil {
		t.Fatalf("Initialize() error: %v", err)
	}
	if len(seen) != 2 {
		t.Fatalf("expected 2 requests, got %d", len(seen))
	}
	if seen[0] != "" || seen[1] != "abc123" {
		t.Errorf("unexpected session headers: %q", seen)
	}
}
