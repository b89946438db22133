package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	openAIDefaultBaseURL = "https://api.openai.com/v1"
	openRouterBaseURL    = "https://openrouter.ai/api/v1"
)

// openRouterModelMap converts bare model names to OpenRouter's
// provider-prefixed form.
var openRouterModelMap = map[string]string{
	"gpt-4o":               "openai/gpt-4o",
	"gpt-4-vision-preview": "openai/gpt-4-vision-preview",
	"gpt-4-turbo":          "openai/gpt-4-turbo",
	"gpt-4":                "openai/gpt-4",
	"claude-3-opus":        "anthropic/claude-3-opus",
	"claude-3-sonnet":      "anthropic/claude-3-sonnet",
	"claude-3-haiku":       "anthropic/claude-3-haiku",
}

// OpenAIConfig configures an OpenAI-compatible vision client. A custom
// BaseURL or UseOpenRouter switches the client to any chat-completions
// compatible endpoint.
type OpenAIConfig struct {
	APIKey        string
	BaseURL       string
	Model         string
	UseOpenRouter bool
	SiteURL       string // OpenRouter attribution header
	AppName       string // OpenRouter attribution header
	MaxTokens     int
	Temperature   float64
	Timeout       time.Duration
}

// OpenAIClient calls the OpenAI (or OpenAI-compatible) chat completions
// API with a vision payload.
type OpenAIClient struct {
	cfg          OpenAIConfig
	baseURL      string
	model        string
	extraHeaders map[string]string
	httpClient   *http.Client
	limiter      *rate.Limiter
}

// NewOpenAI creates an OpenAI-compatible client. Outbound calls are
// throttled with a local limiter so a burst of cache misses cannot slam
// the upstream API.
func NewOpenAI(cfg OpenAIConfig) *OpenAIClient {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		if cfg.UseOpenRouter {
			baseURL = openRouterBaseURL
			log.Println("provider: using OpenRouter as AI provider")
		} else {
			baseURL = openAIDefaultBaseURL
		}
	} else {
		log.Printf("provider: using custom OpenAI base URL: %s", baseURL)
	}

	model := cfg.Model
	if cfg.UseOpenRouter && !strings.Contains(model, "/") {
		if mapped, ok := openRouterModelMap[model]; ok {
			model = mapped
		} else {
			model = "openai/" + model
		}
	}

	headers := map[string]string{}
	if cfg.UseOpenRouter || strings.Contains(strings.ToLower(baseURL), "openrouter") {
		siteURL := cfg.SiteURL
		if siteURL == "" {
			siteURL = "https://github.com/4ier/LOGODETH"
		}
		appName := cfg.AppName
		if appName == "" {
			appName = "LOGODETH"
		}
		headers["HTTP-Referer"] = siteURL
		headers["X-Title"] = appName
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}

	return &OpenAIClient{
		cfg:          cfg,
		baseURL:      strings.TrimRight(baseURL, "/"),
		model:        model,
		extraHeaders: headers,
		httpClient:   &http.Client{Timeout: timeout},
		// 2 requests per second, no burst.
		limiter: rate.NewLimiter(rate.Every(500*time.Millisecond), 1),
	}
}

// Name implements Client.
func (c *OpenAIClient) Name() string { return "openai" }

// ModelID implements Client.
func (c *OpenAIClient) ModelID() string { return c.model }

// Configured implements Client.
func (c *OpenAIClient) Configured() bool { return c.cfg.APIKey != "" }

type openAIRequest struct {
	Model       string          `json:"model"`
	Messages    []openAIMessage `json:"messages"`
	MaxTokens   int             `json:"max_tokens"`
	Temperature float64         `json:"temperature"`
}

type openAIMessage struct {
	Role    string          `json:"role"`
	Content []openAIContent `json:"content"`
}

type openAIContent struct {
	Type     string          `json:"type"`
	Text     string          `json:"text,omitempty"`
	ImageURL *openAIImageURL `json:"image_url,omitempty"`
}

type openAIImageURL struct {
	URL    string `json:"url"`
	Detail string `json:"detail,omitempty"`
}

type openAIResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Identify implements Client.
func (c *OpenAIClient) Identify(ctx context.Context, base64Image string) (*Identification, error) {
	if !c.Configured() {
		return nil, fmt.Errorf("provider: openai API key not configured")
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("provider: openai rate wait: %w", err)
	}

	reqBody := openAIRequest{
		Model: c.model,
		Messages: []openAIMessage{{
			Role: "user",
			Content: []openAIContent{
				{Type: "text", Text: recognitionPrompt},
				{Type: "image_url", ImageURL: &openAIImageURL{
					URL:    "data:image/jpeg;base64," + base64Image,
					Detail: "high",
				}},
			},
		}},
		MaxTokens:   c.cfg.MaxTokens,
		Temperature: c.cfg.Temperature,
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("provider: openai marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("provider: openai build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	for k, v := range c.extraHeaders {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("provider: openai request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("provider: openai read response: %w", err)
	}

	var parsed openAIResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("provider: openai decode response (status %d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		msg := strings.TrimSpace(string(body))
		if parsed.Error != nil {
			msg = parsed.Error.Message
		}
		return nil, fmt.Errorf("provider: openai API error (status %d): %s", resp.StatusCode, msg)
	}
	if len(parsed.Choices) == 0 {
		return nil, fmt.Errorf("provider: openai response contained no choices")
	}

	return ParseResponse(parsed.Choices[0].Message.Content), nil
}
