package groq

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"audit-backend/internal/llm"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient("test-key", "test-model", 5*time.Second)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	client.baseURL = server.URL
	return client, server
}

func chatReply(content string) string {
	body, _ := json.Marshal(map[string]any{
		"id":    "chatcmpl-1",
		"model": "test-model",
		"choices": []map[string]any{
			{"message": map[string]string{"role": "assistant", "content": content}},
		},
		"usage": map[string]int{"prompt_tokens": 10, "completion_tokens": 20, "total_tokens": 30},
	})
	return string(body)
}

func TestAnalyzeDocument_ReturnsModelJSON(t *testing.T) {
	var gotAuth string
	var gotReq chatRequest
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(chatReply(`{"risk_level": "Low", "summary": "ok"}`)))
	})

	raw, err := client.AnalyzeDocument(context.Background(), llm.AnalyzeInput{DocumentText: "some document"})
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if !json.Valid(raw) {
		t.Fatalf("raw output is not valid JSON: %s", raw)
	}
	if gotAuth != "Bearer test-key" {
		t.Fatalf("authorization header = %q", gotAuth)
	}
	if gotReq.Model != "test-model" {
		t.Fatalf("model = %q", gotReq.Model)
	}
	if gotReq.ResponseFormat.Type != "json_object" {
		t.Fatalf("response_format = %q", gotReq.ResponseFormat.Type)
	}
	if len(gotReq.Messages) != 2 || gotReq.Messages[0].Role != "system" || gotReq.Messages[1].Role != "user" {
		t.Fatalf("unexpected messages: %+v", gotReq.Messages)
	}
	if !strings.Contains(gotReq.Messages[1].Content, "some document") {
		t.Fatal("user message must carry the document text")
	}
}

func TestAnalyzeDocument_StripsCodeFence(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(chatReply("```json\n{\"risk_level\": \"Low\"}\n```")))
	})

	raw, err := client.AnalyzeDocument(context.Background(), llm.AnalyzeInput{DocumentText: "doc"})
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	var parsed map[string]any
	if err := json.Unmarshal(raw, &parsed); err != nil {
		t.Fatalf("fenced output must parse after stripping: %v", err)
	}
	if parsed["risk_level"] != "Low" {
		t.Fatalf("risk_level = %v", parsed["risk_level"])
	}
}

func TestAnalyzeDocument_HTTPErrorStatus(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": {"message": "rate limited"}}`, http.StatusTooManyRequests)
	})

	_, err := client.AnalyzeDocument(context.Background(), llm.AnalyzeInput{DocumentText: "doc"})
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "429") {
		t.Fatalf("error should name the status: %v", err)
	}
}

func TestAnalyzeDocument_NonJSONContent(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(chatReply("I am not JSON, sorry")))
	})

	_, err := client.AnalyzeDocument(context.Background(), llm.AnalyzeInput{DocumentText: "doc"})
	if err == nil {
		t.Fatal("expected error for non-JSON content")
	}
}

func TestAnalyzeDocument_EmptyChoices(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id": "x", "choices": []}`))
	})

	_, err := client.AnalyzeDocument(context.Background(), llm.AnalyzeInput{DocumentText: "doc"})
	if err == nil || !strings.Contains(err.Error(), "choices") {
		t.Fatalf("expected missing-choices error, got %v", err)
	}
}

func TestAnalyzeDocument_APIErrorPayload(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error": {"message": "model decommissioned", "type": "invalid_request_error"}}`))
	})

	_, err := client.AnalyzeDocument(context.Background(), llm.AnalyzeInput{DocumentText: "doc"})
	if err == nil || !strings.Contains(err.Error(), "model decommissioned") {
		t.Fatalf("expected api error surfaced, got %v", err)
	}
}

func TestNewClient_RequiresCredentials(t *testing.T) {
	if _, err := NewClient("", "model", time.Second); err == nil {
		t.Fatal("expected error for missing api key")
	}
	if _, err := NewClient("key", "", time.Second); err == nil {
		t.Fatal("expected error for missing model")
	}
}

func TestStripCodeFence(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{`{"a": 1}`, `{"a": 1}`},
		{"```json\n{\"a\": 1}\n```", `{"a": 1}`},
		{"```\n{\"a\": 1}\n```", `{"a": 1}`},
	}
	for _, tc := range cases {
		if got := stripCodeFence(tc.in); got != tc.want {
			t.Fatalf("stripCodeFence(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
