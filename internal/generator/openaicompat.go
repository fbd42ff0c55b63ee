package generator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/wingmate/wingmate/internal/config"
	usagedomain "github.com/wingmate/wingmate/internal/usage/domain"
	"go.uber.org/zap"
)

// Client is an OpenAI-compatible vision adapter. Works with any endpoint
// speaking the chat-completions format with image_url content parts.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
	log        *zap.Logger
}

// Option configures the client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(g *Client) { g.httpClient = c }
}

func NewClient(cfg config.Config, log *zap.Logger, opts ...Option) *Client {
	g := &Client{
		baseURL: strings.TrimRight(cfg.Generator.BaseURL, "/"),
		apiKey:  cfg.Generator.APIKey,
		model:   cfg.Generator.Model,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.Generator.TimeoutSeconds) * time.Second,
		},
		log: log.Named("generator"),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

type apiRequest struct {
	Model          string          `json:"model"`
	Messages       []apiMessage    `json:"messages"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type apiMessage struct {
	Role    string           `json:"role"`
	Content []apiContentPart `json:"content"`
}

type apiContentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type apiResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (g *Client) Generate(ctx context.Context, req Request) (*Result, error) {
	if err := ValidateRequest(req); err != nil {
		return nil, err
	}

	body := apiRequest{
		Model:          g.model,
		ResponseFormat: &responseFormat{Type: "json_object"},
		Messages: []apiMessage{
			{
				Role:    "system",
				Content: []apiContentPart{{Type: "text", Text: systemPrompt}},
			},
			{
				Role: "user",
				Content: []apiContentPart{
					{Type: "text", Text: modePrompt(req.Mode)},
					{Type: "image_url", ImageURL: &imageURL{
						URL: fmt.Sprintf("data:%s;base64,%s", req.MediaType, req.Image),
					}},
				},
			},
		},
	}

	resp, err := g.do(ctx, body)
	if err != nil {
		return nil, err
	}
	return g.parse(resp, req.Mode)
}

func (g *Client) do(ctx context.Context, body apiRequest) (*apiResponse, error) {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("generator: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/chat/completions", bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("generator: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+g.apiKey)

	httpResp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return nil, &UpstreamError{Message: "generation service unreachable, try again", Cause: err}
	}
	defer httpResp.Body.Close()

	raw, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, &UpstreamError{Message: "generation service unreachable, try again", Cause: err}
	}

	var resp apiResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, &UpstreamError{Message: "generation failed, try again", Cause: fmt.Errorf("generator: decode response: %w", err)}
	}
	if httpResp.StatusCode != http.StatusOK {
		cause := fmt.Errorf("generator: upstream status %d", httpResp.StatusCode)
		if resp.Error != nil {
			cause = fmt.Errorf("generator: upstream status %d: %s", httpResp.StatusCode, resp.Error.Message)
		}
		g.log.Warn("upstream error", zap.Int("status", httpResp.StatusCode), zap.Error(cause))
		return nil, &UpstreamError{Message: "generation failed, try again", Cause: cause}
	}
	return &resp, nil
}

func (g *Client) parse(resp *apiResponse, mode usagedomain.Mode) (*Result, error) {
	if len(resp.Choices) == 0 {
		return nil, ErrEmptyResult
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")

	var result Result
	if err := json.Unmarshal([]byte(content), &result); err != nil {
		return nil, &UpstreamError{Message: "generation failed, try again", Cause: fmt.Errorf("generator: decode result: %w", err)}
	}
	if len(result.Openers) == 0 {
		return nil, ErrEmptyResult
	}
	if result.MatchName == "" && result.Profile != nil {
		result.MatchName = result.Profile.Name
	}
	return &result, nil
}
