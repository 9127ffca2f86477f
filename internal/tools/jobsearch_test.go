package tools

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/tidwall/gjson"
)

// newTestJobSearch points the tool at a fake upstream server.
func newTestJobSearch(srvURL string) *JobSearchTool {
	t := NewJobSearchTool("test-key")
	t.endpoint = srvURL
	return t
}

func locationParams(t *testing.T, location string) json.RawMessage {
	t.Helper()
	params, err := json.Marshal(map[string]any{"location": location})
	if err != nil {
		t.Fatal(err)
	}
	return params
}

func TestJobSearchTool_Success(t *testing.T) {
	const listings = "1. Title..."
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": listings}},
			},
		})
	}))
	defer srv.Close()

	tool := newTestJobSearch(srv.URL)
	result, err := tool.Execute(context.Background(), locationParams(t, "Austin, TX"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != listings {
		t.Errorf("expected listings passed through verbatim, got %q", result)
	}
}

func TestJobSearchTool_RequestShape(t *testing.T) {
	var gotAuth, gotContentType string
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotContentType = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
		w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`))
	}))
	defer srv.Close()

	tool := newTestJobSearch(srv.URL)
	if _, err := tool.Execute(context.Background(), locationParams(t, "Berlin")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotAuth != "Bearer test-key" {
		t.Errorf("Authorization = %q, want %q", gotAuth, "Bearer test-key")
	}
	if gotContentType != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", gotContentType)
	}
	if model := gjson.GetBytes(gotBody, "model").String(); model != "sonar" {
		t.Errorf("model = %q, want sonar", model)
	}
	if mt := gjson.GetBytes(gotBody, "max_tokens").Int(); mt != 500 {
		t.Errorf("max_tokens = %d, want 500", mt)
	}
	if temp := gjson.GetBytes(gotBody, "temperature").Float(); temp != 0.7 {
		t.Errorf("temperature = %v, want 0.7", temp)
	}
	if role := gjson.GetBytes(gotBody, "messages.0.role").String(); role != "system" {
		t.Errorf("messages[0].role = %q, want system", role)
	}
	user := gjson.GetBytes(gotBody, "messages.1.content").String()
	if !strings.Contains(user, "Berlin") {
		t.Errorf("user prompt does not mention the location: %q", user)
	}
	if !strings.Contains(user, "URL not available") {
		t.Errorf("user prompt does not pin the missing-URL marker: %q", user)
	}
}

func TestJobSearchTool_Timeout(t *testing.T) {
	blocked := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-blocked // never respond within the deadline
	}))
	defer srv.Close()
	defer close(blocked)

	tool := newTestJobSearch(srv.URL)
	tool.timeout = 100 * time.Millisecond

	start := time.Now()
	result, err := tool.Execute(context.Background(), locationParams(t, "Austin"))
	if err != nil {
		t.Fatalf("timeout must not surface as an error, got: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("handler took %v, expected return shortly after the deadline", elapsed)
	}
	if !strings.HasPrefix(result, jobSearchApology) {
		t.Errorf("expected apology preamble, got %q", result)
	}
	if !strings.Contains(result, "timed out after 100 ms") {
		t.Errorf("expected fault text naming the deadline, got %q", result)
	}
}

func TestJobSearchTool_CallerDeadlineNotMisattributed(t *testing.T) {
	blocked := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-blocked
	}))
	defer srv.Close()
	defer close(blocked)

	tool := newTestJobSearch(srv.URL)
	tool.timeout = 10 * time.Second

	// The caller's deadline fires long before the tool's own.
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	result, err := tool.Execute(ctx, locationParams(t, "Austin"))
	if err != nil {
		t.Fatalf("caller timeout must not surface as an error, got: %v", err)
	}
	if !strings.HasPrefix(result, jobSearchApology) {
		t.Errorf("expected apology preamble, got %q", result)
	}
	if strings.Contains(result, "timed out after 10000 ms") {
		t.Errorf("fault blames the tool deadline for a caller timeout: %q", result)
	}
}

func TestJobSearchTool_DefaultDeadline(t *testing.T) {
	tool := NewJobSearchTool("k")
	if ms := tool.timeout.Milliseconds(); ms != 25000 {
		t.Errorf("default deadline = %d ms, want 25000", ms)
	}
}

func TestJobSearchTool_UpstreamHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("server error"))
	}))
	defer srv.Close()

	tool := newTestJobSearch(srv.URL)
	result, err := tool.Execute(context.Background(), locationParams(t, "Austin"))
	if err != nil {
		t.Fatalf("HTTP error must not surface as an error, got: %v", err)
	}
	if !strings.HasPrefix(result, jobSearchApology) {
		t.Errorf("expected apology preamble, got %q", result)
	}
	if !strings.Contains(result, "500") || !strings.Contains(result, "server error") {
		t.Errorf("expected status code and body excerpt in result, got %q", result)
	}
}

func TestJobSearchTool_MalformedResponse(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"empty object", `{}`},
		{"empty choices", `{"choices":[]}`},
		{"content wrong type", `{"choices":[{"message":{"content":42}}]}`},
		{"content missing", `{"choices":[{"message":{}}]}`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			tool := newTestJobSearch(srv.URL)
			result, err := tool.Execute(context.Background(), locationParams(t, "Austin"))
			if err != nil {
				t.Fatalf("malformed body must not surface as an error, got: %v", err)
			}
			if !strings.HasPrefix(result, jobSearchApology) {
				t.Errorf("expected apology preamble, got %q", result)
			}
			if !strings.Contains(result, "could not extract message content") {
				t.Errorf("expected extraction-failure message, got %q", result)
			}
			if strings.Contains(result, "goroutine") || strings.Contains(result, ".go:") {
				t.Errorf("result leaks internal details: %q", result)
			}
		})
	}
}

func TestJobSearchTool_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	tool := newTestJobSearch(srv.URL)
	result, err := tool.Execute(context.Background(), locationParams(t, "Austin"))
	if err != nil {
		t.Fatalf("transport failure must not surface as an error, got: %v", err)
	}
	if !strings.HasPrefix(result, jobSearchApology) {
		t.Errorf("expected apology preamble, got %q", result)
	}
}

func TestJobSearchTool_EmptyLocation(t *testing.T) {
	tool := newTestJobSearch("http://127.0.0.1:0")
	result, err := tool.Execute(context.Background(), locationParams(t, ""))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(result, "location is required") {
		t.Errorf("expected missing-location message, got %q", result)
	}
}

func TestJobSearchTool_InvalidParams(t *testing.T) {
	tool := newTestJobSearch("http://127.0.0.1:0")
	result, err := tool.Execute(context.Background(), json.RawMessage(`not-json`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(result, jobSearchApology) {
		t.Errorf("expected apology preamble, got %q", result)
	}
}

func TestJobSearchTool_Name(t *testing.T) {
	tool := NewJobSearchTool("k")
	if tool.Name() != "search_care_jobs" {
		t.Errorf("Name() = %q, want search_care_jobs", tool.Name())
	}
	if tool.Description() == "" {
		t.Error("Description() is empty")
	}
	var schema struct {
		Required []string `json:"required"`
	}
	if err := json.Unmarshal(tool.Parameters(), &schema); err != nil {
		t.Fatalf("Parameters() is not valid JSON: %v", err)
	}
	if len(schema.Required) != 1 || schema.Required[0] != "location" {
		t.Errorf("required = %v, want [location]", schema.Required)
	}
}
