package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

type stubClient struct {
	name       string
	configured bool
}

func (s *stubClient) Name() string     { return s.name }
func (s *stubClient) ModelID() string  { return s.name + "-model" }
func (s *stubClient) Configured() bool { return s.configured }
func (s *stubClient) Identify(ctx context.Context, img string) (*Identification, error) {
	return &Identification{BandName: s.name}, nil
}

func TestChain_FiltersUnconfigured(t *testing.T) {
	chain := Chain(
		&stubClient{name: "openai", configured: true},
		&stubClient{name: "anthropic", configured: false},
	)

	if len(chain) != 1 {
		t.Fatalf("expected 1 configured client, got %d", len(chain))
	}
	if chain[0].Name() != "openai" {
		t.Errorf("expected openai first, got %s", chain[0].Name())
	}
}

func TestChain_PreservesOrder(t *testing.T) {
	chain := Chain(
		&stubClient{name: "openai", configured: true},
		&stubClient{name: "anthropic", configured: true},
	)

	if len(chain) != 2 || chain[0].Name() != "openai" || chain[1].Name() != "anthropic" {
		t.Errorf("unexpected chain order: %v", chain)
	}
}

func TestOpenAI_Identify(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("authorization = %q", got)
		}

		var req openAIRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Model != "gpt-4o" {
			t.Errorf("model = %q, want gpt-4o", req.Model)
		}
		if len(req.Messages) != 1 || len(req.Messages[0].Content) != 2 {
			t.Fatalf("unexpected message shape: %+v", req.Messages)
		}
		if req.Messages[0].Content[1].ImageURL == nil {
			t.Fatal("missing image content")
		}

		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{
					"content": `{"band_name": "Mayhem", "genre": "Black Metal", "confidence": 90, "description": "classic"}`,
				}},
			},
		})
	}))
	defer srv.Close()

	c := NewOpenAI(OpenAIConfig{APIKey: "test-key", BaseURL: srv.URL, Model: "gpt-4o", MaxTokens: 300})

	id, err := c.Identify(context.Background(), "aGVsbG8=")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id.BandName != "Mayhem" {
		t.Errorf("band name = %q, want Mayhem", id.BandName)
	}
}

func TestOpenAI_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"error": map[string]string{"message": "invalid key"},
		})
	}))
	defer srv.Close()

	c := NewOpenAI(OpenAIConfig{APIKey: "bad", BaseURL: srv.URL, Model: "gpt-4o"})

	if _, err := c.Identify(context.Background(), "aGVsbG8="); err == nil {
		t.Fatal("expected error for 401 response")
	}
}

func TestOpenAI_NotConfigured(t *testing.T) {
	c := NewOpenAI(OpenAIConfig{Model: "gpt-4o"})

	if c.Configured() {
		t.Error("client without key should not report configured")
	}
	if _, err := c.Identify(context.Background(), "x"); err == nil {
		t.Error("expected error when identifying without credentials")
	}
}

func TestOpenAI_OpenRouterModelMapping(t *testing.T) {
	c := NewOpenAI(OpenAIConfig{APIKey: "k", UseOpenRouter: true, Model: "gpt-4o"})
	if c.ModelID() != "openai/gpt-4o" {
		t.Errorf("model = %q, want openai/gpt-4o", c.ModelID())
	}

	c = NewOpenAI(OpenAIConfig{APIKey: "k", UseOpenRouter: true, Model: "some-model"})
	if c.ModelID() != "openai/some-model" {
		t.Errorf("model = %q, want openai/some-model", c.ModelID())
	}

	// Already provider-prefixed names pass through.
	c = NewOpenAI(OpenAIConfig{APIKey: "k", UseOpenRouter: true, Model: "meta/llama-3"})
	if c.ModelID() != "meta/llama-3" {
		t.Errorf("model = %q, want meta/llama-3", c.ModelID())
	}
}

func TestAnthropic_Identify(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/messages" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("X-API-Key"); got != "test-key" {
			t.Errorf("x-api-key = %q", got)
		}
		if got := r.Header.Get("anthropic-version"); got != anthropicAPIVersion {
			t.Errorf("anthropic-version = %q", got)
		}

		var req anthropicRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if len(req.Messages) != 1 || len(req.Messages[0].Content) != 2 {
			t.Fatalf("unexpected message shape: %+v", req.Messages)
		}
		if req.Messages[0].Content[1].Source == nil || req.Messages[0].Content[1].Source.Type != "base64" {
			t.Fatal("missing base64 image source")
		}

		json.NewEncoder(w).Encode(map[string]interface{}{
			"content": []map[string]string{
				{"text": `{"band_name": "Emperor", "genre": "Symphonic Black Metal", "confidence": 88, "description": "ornate"}`},
			},
		})
	}))
	defer srv.Close()

	c := NewAnthropic(AnthropicConfig{APIKey: "test-key", BaseURL: srv.URL, Model: "claude-3-5-sonnet-20241022", MaxTokens: 300})

	id, err := c.Identify(context.Background(), "aGVsbG8=")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id.BandName != "Emperor" {
		t.Errorf("band name = %q, want Emperor", id.BandName)
	}
	if id.Confidence != 88 {
		t.Errorf("confidence = %v, want 88", id.Confidence)
	}
}

func TestAnthropic_TextFallbackResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"content": []map[string]string{
				{"text": "Band: Mayhem\nI could not produce JSON."},
			},
		})
	}))
	defer srv.Close()

	c := NewAnthropic(AnthropicConfig{APIKey: "k", BaseURL: srv.URL, Model: "claude-3-5-sonnet-20241022"})

	id, err := c.Identify(context.Background(), "aGVsbG8=")
	if err != nil {
		t.Fatalf("parse degradation must not be an error, got %v", err)
	}
	if id.BandName != "Mayhem" {
		t.Errorf("band name = %q, want Mayhem", id.BandName)
	}
	if id.Genre != "Metal" {
		t.Errorf("genre = %q, want default Metal", id.Genre)
	}
}
