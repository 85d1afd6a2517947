package openai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Maciekds1981/kolorowanki/internal/domain"
	"github.com/Maciekds1981/kolorowanki/internal/infra"
	"github.com/Maciekds1981/kolorowanki/internal/infra/credentials"
)

const (
	serviceName = "openai"

	defaultBaseURL      = "https://api.openai.com/v1"
	defaultTextTimeout  = 60 * time.Second
	defaultImageTimeout = 120 * time.Second
)

// Options configures the OpenAI-compatible client.
type Options struct {
	BaseURL      string
	Credentials  credentials.Credentials
	TextModel    string
	ImageModel   string
	TextTimeout  time.Duration
	ImageTimeout time.Duration
	HTTPClient   *http.Client
	Logger       *infra.Logger
	OnWarning    func(reason, detail string)
}

// Client performs chat-completion and image-generation calls. Each call is
// bounded by its own timeout; nothing is retried.
type Client struct {
	baseURL      string
	creds        credentials.Credentials
	textModel    string
	imageModel   string
	textTimeout  time.Duration
	imageTimeout time.Duration
	httpClient   *http.Client
	logger       *infra.Logger
}

// ChatMessage is one entry of a chat-completion conversation.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest describes a single chat-completion call.
type ChatRequest struct {
	Messages    []ChatMessage
	Temperature float64
	JSONObject  bool
}

// ImageRequest describes a single-image generation call.
type ImageRequest struct {
	Prompt  string
	SizePx  int
	Quality domain.Quality
}

type chatCompletionRequest struct {
	Model          string          `json:"model"`
	Messages       []ChatMessage   `json:"messages"`
	Temperature    float64         `json:"temperature,omitempty"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type imageGenerationRequest struct {
	Model   string `json:"model"`
	Prompt  string `json:"prompt"`
	Size    string `json:"size"`
	N       int    `json:"n"`
	Quality string `json:"quality,omitempty"`
}

type imageGenerationResponse struct {
	Created int64 `json:"created"`
	Data    []struct {
		B64JSON string `json:"b64_json"`
	} `json:"data"`
}

// NewClient constructs a client with defaults for every empty option.
func NewClient(opts Options) *Client {
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	textModel, reason := NormalizeTextModel(opts.TextModel)
	if reason == "alias" && opts.OnWarning != nil {
		opts.OnWarning("model_alias", fmt.Sprintf("requested=%s resolved=%s", strings.TrimSpace(opts.TextModel), textModel))
	}
	imageModel := strings.TrimSpace(opts.ImageModel)
	if imageModel == "" {
		imageModel = DefaultImageModel
	}
	textTimeout := opts.TextTimeout
	if textTimeout <= 0 {
		textTimeout = defaultTextTimeout
	}
	imageTimeout := opts.ImageTimeout
	if imageTimeout <= 0 {
		imageTimeout = defaultImageTimeout
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = infra.NopLogger()
	}
	return &Client{
		baseURL:      baseURL,
		creds:        opts.Credentials.Normalize(),
		textModel:    textModel,
		imageModel:   imageModel,
		textTimeout:  textTimeout,
		imageTimeout: imageTimeout,
		httpClient:   httpClient,
		logger:       logger,
	}
}

// HasCredentials reports whether the client can perform remote calls.
func (c *Client) HasCredentials() bool {
	return c.creds.HasAPIKey()
}

// TextModel returns the resolved text model identifier.
func (c *Client) TextModel() string {
	return c.textModel
}

// ImageModel returns the configured image model identifier.
func (c *Client) ImageModel() string {
	return c.imageModel
}

// ChatCompletion returns the first choice's message content.
func (c *Client) ChatCompletion(ctx context.Context, req ChatRequest) (string, error) {
	payload := chatCompletionRequest{
		Model:       c.textModel,
		Messages:    req.Messages,
		Temperature: req.Temperature,
	}
	if req.JSONObject {
		payload.ResponseFormat = &responseFormat{Type: "json_object"}
	}
	raw, err := c.post(ctx, "/chat/completions", payload, c.textTimeout)
	if err != nil {
		return "", err
	}
	var out chatCompletionResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("openai: decode chat response: %w: %v", domain.ErrMalformedResponse, err)
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("openai: %w: no choices", domain.ErrMalformedResponse)
	}
	return out.Choices[0].Message.Content, nil
}

// GenerateImage requests exactly one image and returns its decoded bytes.
func (c *Client) GenerateImage(ctx context.Context, req ImageRequest) ([]byte, error) {
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		return nil, domain.Validationf("image prompt is required")
	}
	payload := imageGenerationRequest{
		Model:   c.imageModel,
		Prompt:  prompt,
		Size:    domain.SizeToken(req.SizePx),
		N:       1,
		Quality: string(req.Quality),
	}
	start := time.Now()
	raw, err := c.post(ctx, "/images/generations", payload, c.imageTimeout)
	if err != nil {
		return nil, err
	}
	var out imageGenerationResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("openai: decode image response: %w: %v", domain.ErrMalformedResponse, err)
	}
	if len(out.Data) == 0 || strings.TrimSpace(out.Data[0].B64JSON) == "" {
		return nil, fmt.Errorf("openai: %w: missing b64_json", domain.ErrMalformedResponse)
	}
	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(out.Data[0].B64JSON))
	if err != nil {
		return nil, fmt.Errorf("openai: decode image payload: %w: %v", domain.ErrMalformedResponse, err)
	}
	c.logger.Debug().
		Str("model", c.imageModel).
		Str("size", payload.Size).
		Str("quality", payload.Quality).
		Int("bytes", len(data)).
		Dur("elapsed", time.Since(start)).
		Msg("openai: generated image")
	return data, nil
}

func (c *Client) post(ctx context.Context, path string, payload any, timeout time.Duration) ([]byte, error) {
	if !c.HasCredentials() {
		return nil, fmt.Errorf("openai: %w", domain.ErrMissingAPIKey)
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("openai: encode request: %w", err)
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("openai: build request: %w", err)
	}
	c.creds.Apply(httpReq.Header)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("openai: %s timed out after %s: %w", path, timeout, err)
		}
		return nil, fmt.Errorf("openai: http request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("openai: read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn().
			Str("path", path).
			Int("status", resp.StatusCode).
			Object("credentials", c.creds).
			Msg("openai: non-2xx response")
		return nil, domain.NewAPIError(serviceName, resp.StatusCode, errorBody(raw))
	}
	return raw, nil
}

// errorBody renders a decodable JSON error compactly and returns anything else
// verbatim. The caller truncates.
func errorBody(raw []byte) string {
	trimmed := bytes.TrimSpace(raw)
	if json.Valid(trimmed) {
		var buf bytes.Buffer
		if err := json.Compact(&buf, trimmed); err == nil {
			return buf.String()
		}
	}
	return string(trimmed)
}
