package anthropic

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/vivatura/translator/internal/ai"
	"github.com/vivatura/translator/internal/config"
	"github.com/vivatura/translator/pkg/models"
)

// --- helpers ---

func newTestClient(t *testing.T, baseURL, apiKey string) *Client {
	t.Helper()
	return NewClient(config.AnthropicConfig{
		APIKey:          apiKey,
		Model:           "claude-3-5-sonnet-20241022",
		BaseURL:         baseURL,
		Timeout:         5 * time.Second,
		MetadataTimeout: 5 * time.Second,
	})
}

func textResponse(w http.ResponseWriter, text string) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"content": []map[string]any{{"type": "text", "text": text}},
	})
}

// --- TranslateOne / TranslateBatch ---

func TestTranslateOne_SendsMessagesRequest(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v1/messages" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("x-api-key") != "sk-test" {
			t.Errorf("unexpected api key: %q", r.Header.Get("x-api-key"))
		}
		if r.Header.Get("anthropic-version") != apiVersion {
			t.Errorf("unexpected version: %q", r.Header.Get("anthropic-version"))
		}
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("unexpected content type: %q", r.Header.Get("Content-Type"))
		}

		var req messagesRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decoding request: %v", err)
		}
		if req.MaxTokens != 8192 {
			t.Errorf("max_tokens = %d, want 8192", req.MaxTokens)
		}
		if req.System != "Be precise." {
			t.Errorf("system = %q", req.System)
		}
		if len(req.Messages) != 1 || req.Messages[0].Role != "user" {
			t.Fatalf("unexpected messages: %+v", req.Messages)
		}
		if !strings.Contains(req.Messages[0].Content, "French (fr-FR)") {
			t.Errorf("user prompt lacks target language: %q", req.Messages[0].Content)
		}
		textResponse(w, "  Acheter maintenant\n")
	}))
	defer ts.Close()

	c := newTestClient(t, ts.URL, "sk-test")
	out, err := c.TranslateOne(context.Background(), "Jetzt kaufen", "fr-FR", "Be precise.")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "Acheter maintenant" {
		t.Errorf("got %q", out)
	}
}

func TestTranslateBatch_ReturnsRawText(t *testing.T) {
	raw := "Here you go:\n```json\n{\"name\": \"Chemise\"}\n```"
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req messagesRequest
		json.NewDecoder(r.Body).Decode(&req)
		if !strings.Contains(req.Messages[0].Content, `"name": "Hemd"`) {
			t.Errorf("batch payload missing: %q", req.Messages[0].Content)
		}
		textResponse(w, raw)
	}))
	defer ts.Close()

	c := newTestClient(t, ts.URL, "sk-test")
	out, err := c.TranslateBatch(context.Background(), []models.TranslationUnit{{FieldKey: "name", SourceText: "Hemd"}}, "fr-FR", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != raw {
		t.Errorf("got %q, want raw text unchanged", out)
	}
}

func TestTranslate_MissingAPIKey(t *testing.T) {
	called := false
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer ts.Close()

	c := newTestClient(t, ts.URL, "")
	if err := c.Validate(); !errors.Is(err, ai.ErrConfiguration) {
		t.Errorf("Validate: expected ErrConfiguration, got %v", err)
	}
	_, err := c.TranslateOne(context.Background(), "Hallo", "fr-FR", "")
	if !errors.Is(err, ai.ErrConfiguration) {
		t.Errorf("expected ErrConfiguration, got %v", err)
	}
	if called {
		t.Error("provider must not be called without an API key")
	}
}

func TestTranslate_ProviderErrorEnvelope(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"type":"error","error":{"type":"rate_limit_error","message":"Number of requests has exceeded your rate limit"}}`))
	}))
	defer ts.Close()

	c := newTestClient(t, ts.URL, "sk-test")
	_, err := c.TranslateOne(context.Background(), "Hallo", "fr-FR", "")
	if !errors.Is(err, ai.ErrProvider) {
		t.Fatalf("expected ErrProvider, got %v", err)
	}
	var pe *ai.ProviderError
	if !errors.As(err, &pe) {
		t.Fatalf("expected *ai.ProviderError, got %T", err)
	}
	if pe.StatusCode != http.StatusTooManyRequests || pe.Message != "Number of requests has exceeded your rate limit" {
		t.Errorf("unexpected provider error: %+v", pe)
	}
	if !pe.Retryable() {
		t.Error("429 should be retryable")
	}
}

func TestTranslate_ProviderErrorPlainBody(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream exploded", http.StatusBadGateway)
	}))
	defer ts.Close()

	c := newTestClient(t, ts.URL, "sk-test")
	_, err := c.TranslateBatch(context.Background(), nil, "fr-FR", "")
	var pe *ai.ProviderError
	if !errors.As(err, &pe) {
		t.Fatalf("expected *ai.ProviderError, got %v", err)
	}
	if pe.Message != "upstream exploded" {
		t.Errorf("message = %q", pe.Message)
	}
}

func TestTranslate_NoTextContent(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"content":[]}`))
	}))
	defer ts.Close()

	c := newTestClient(t, ts.URL, "sk-test")
	_, err := c.TranslateOne(context.Background(), "Hallo", "fr-FR", "")
	if !errors.Is(err, ai.ErrInvalidResponse) {
		t.Errorf("expected ErrInvalidResponse, got %v", err)
	}
}

func TestTranslate_MalformedBody(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json`))
	}))
	defer ts.Close()

	c := newTestClient(t, ts.URL, "sk-test")
	_, err := c.TranslateOne(context.Background(), "Hallo", "fr-FR", "")
	if !errors.Is(err, ai.ErrInvalidResponse) {
		t.Errorf("expected ErrInvalidResponse, got %v", err)
	}
}

func TestTranslate_Unreachable(t *testing.T) {
	c := newTestClient(t, "http://127.0.0.1:1", "sk-test")
	_, err := c.TranslateOne(context.Background(), "Hallo", "fr-FR", "")
	if !errors.Is(err, ai.ErrTransport) {
		t.Errorf("expected ErrTransport, got %v", err)
	}
}

func TestTranslate_Timeout(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer ts.Close()

	c := newTestClient(t, ts.URL, "sk-test")
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := c.TranslateOne(ctx, "Hallo", "fr-FR", "")
	if !errors.Is(err, ai.ErrTransport) {
		t.Errorf("expected ErrTransport, got %v", err)
	}
}

// --- ListModels ---

func TestListModels(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/v1/models" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("x-api-key") != "sk-test" {
			t.Errorf("missing api key header")
		}
		w.Write([]byte(`{"data":[{"type":"model","id":"claude-3-5-haiku-20241022","display_name":"Claude Haiku 3.5","created_at":"2024-10-22T00:00:00Z"}],"has_more":false}`))
	}))
	defer ts.Close()

	c := newTestClient(t, ts.URL, "sk-test")
	list, err := c.ListModels(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected 1 model, got %d", len(list))
	}
	if list[0].ID != "claude-3-5-haiku-20241022" || list[0].DisplayName != "Claude Haiku 3.5" {
		t.Errorf("unexpected model: %+v", list[0])
	}
}

func TestListModels_ProviderError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"type":"authentication_error","message":"invalid x-api-key"}}`))
	}))
	defer ts.Close()

	c := newTestClient(t, ts.URL, "sk-bad")
	_, err := c.ListModels(context.Background())
	var pe *ai.ProviderError
	if !errors.As(err, &pe) || pe.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 ProviderError, got %v", err)
	}
	if pe.Retryable() {
		t.Error("401 should not be retryable")
	}
}

// --- MaxTokens ---

func TestMaxTokens(t *testing.T) {
	tests := []struct {
		model string
		want  int
	}{
		{"claude-3-haiku-20240307", 4096},
		{"claude-3-opus-20240229", 4096},
		{"claude-3-5-sonnet-20241022", 8192},
		{"claude-3-7-sonnet-20250219", 8192},
		{"claude-sonnet-4-20250514", 8192},
		{"claude-2.1", 4096},
	}
	for _, tt := range tests {
		if got := MaxTokens(tt.model); got != tt.want {
			t.Errorf("MaxTokens(%q) = %d, want %d", tt.model, got, tt.want)
		}
	}
}
