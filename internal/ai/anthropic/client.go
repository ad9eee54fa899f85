// Package anthropic implements models.Translator on the Anthropic Messages API.
package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/vivatura/translator/internal/ai"
	"github.com/vivatura/translator/internal/config"
	"github.com/vivatura/translator/internal/metrics"
	"github.com/vivatura/translator/internal/prompt"
	"github.com/vivatura/translator/pkg/models"
)

const (
	apiVersion = "2023-06-01"

	largeOutputTokens   = 8192
	defaultOutputTokens = 4096

	// maxErrorBody bounds how much of a failed response is read for its message.
	maxErrorBody = 64 << 10
)

// largeOutputModels matches model families that accept the larger output budget.
var largeOutputModels = regexp.MustCompile(`claude-3-5|claude-3-7|claude-(sonnet|opus|haiku)-4|claude-[4-9]`)

// Client calls the Messages API. It keeps no state between calls and never retries.
type Client struct {
	apiKey   string
	model    string
	baseURL  string
	client   *http.Client
	metadata *http.Client
}

// NewClient creates a Client. A missing API key is reported by Validate and by every call.
func NewClient(cfg config.AnthropicConfig) *Client {
	return &Client{
		apiKey:   cfg.APIKey,
		model:    cfg.Model,
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		client:   &http.Client{Timeout: cfg.Timeout},
		metadata: &http.Client{Timeout: cfg.MetadataTimeout},
	}
}

func (c *Client) Name() string { return "anthropic" }

// Validate fails with ai.ErrConfiguration when no API key is set.
func (c *Client) Validate() error {
	if strings.TrimSpace(c.apiKey) == "" {
		return fmt.Errorf("%w: ANTHROPIC_API_KEY is empty", ai.ErrConfiguration)
	}
	return nil
}

// MaxTokens returns the output-token ceiling used for model.
func MaxTokens(model string) int {
	if largeOutputModels.MatchString(model) {
		return largeOutputTokens
	}
	return defaultOutputTokens
}

func (c *Client) TranslateOne(ctx context.Context, text, languageCode, systemPrompt string) (string, error) {
	out, err := c.complete(ctx, "translate_one", systemPrompt, prompt.BuildSingleUserPrompt(text, languageCode))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

func (c *Client) TranslateBatch(ctx context.Context, units []models.TranslationUnit, languageCode, systemPrompt string) (string, error) {
	userPrompt, err := prompt.BuildBatchUserPrompt(units, languageCode)
	if err != nil {
		return "", fmt.Errorf("building batch prompt: %w", err)
	}
	return c.complete(ctx, "translate_batch", systemPrompt, userPrompt)
}

func (c *Client) ListModels(ctx context.Context) (result []models.ModelInfo, err error) {
	start := time.Now()
	defer func() { metrics.RecordProviderRequest("list_models", time.Since(start), err) }()

	if err := c.Validate(); err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/models", nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	c.setHeaders(httpReq)

	resp, err := c.metadata.Do(httpReq)
	if err != nil {
		return nil, ai.ClassifyError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, providerError(resp)
	}

	var listResp modelsResponse
	if err := json.NewDecoder(resp.Body).Decode(&listResp); err != nil {
		return nil, fmt.Errorf("%w: decoding models response: %w", ai.ErrInvalidResponse, err)
	}

	result = make([]models.ModelInfo, 0, len(listResp.Data))
	for _, m := range listResp.Data {
		result = append(result, models.ModelInfo{ID: m.ID, DisplayName: m.DisplayName, CreatedAt: m.CreatedAt})
	}
	return result, nil
}

// complete sends one Messages request and returns the first text block.
func (c *Client) complete(ctx context.Context, operation, systemPrompt, userPrompt string) (text string, err error) {
	start := time.Now()
	defer func() { metrics.RecordProviderRequest(operation, time.Since(start), err) }()

	if err := c.Validate(); err != nil {
		return "", err
	}

	body, err := json.Marshal(messagesRequest{
		Model:     c.model,
		MaxTokens: MaxTokens(c.model),
		System:    systemPrompt,
		Messages:  []message{{Role: "user", Content: userPrompt}},
	})
	if err != nil {
		return "", fmt.Errorf("encoding request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/messages", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("building request: %w", err)
	}
	c.setHeaders(httpReq)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return "", ai.ClassifyError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", providerError(resp)
	}

	var msgResp messagesResponse
	if err := json.NewDecoder(resp.Body).Decode(&msgResp); err != nil {
		return "", fmt.Errorf("%w: decoding messages response: %w", ai.ErrInvalidResponse, err)
	}
	for _, block := range msgResp.Content {
		if block.Text != nil {
			return *block.Text, nil
		}
	}
	return "", fmt.Errorf("%w: no text content in response", ai.ErrInvalidResponse)
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", apiVersion)
	req.Header.Set("Accept", "application/json")
}

// providerError builds an *ai.ProviderError, preferring the message from the
// provider's error envelope over the raw body.
func providerError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	var env errorEnvelope
	msg := ""
	if json.Unmarshal(raw, &env) == nil && env.Error != nil {
		msg = env.Error.Message
	}
	if msg == "" {
		msg = strings.TrimSpace(string(raw))
	}
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	return &ai.ProviderError{StatusCode: resp.StatusCode, Message: msg}
}

// --- wire types ---

type messagesRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	System    string    `json:"system,omitempty"`
	Messages  []message `json:"messages"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesResponse struct {
	Content []struct {
		Type string  `json:"type"`
		Text *string `json:"text"`
	} `json:"content"`
}

type errorEnvelope struct {
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

type modelsResponse struct {
	Data []struct {
		ID          string `json:"id"`
		DisplayName string `json:"display_name"`
		CreatedAt   string `json:"created_at"`
	} `json:"data"`
}

// Compile-time check that Client implements Translator.
var _ models.Translator = (*Client)(nil)
