package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/jbctechsolutions/ctxprobe/internal/application/ports"
	"github.com/jbctechsolutions/ctxprobe/internal/domain/errors"
)

// Client is an HTTP client for the Ollama API. It performs no retries
// of its own; retry policy lives with the caller.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// ClientOption is a functional option for configuring the Client
type ClientOption func(*Client)

// WithBaseURL sets a custom base URL for the client
func WithBaseURL(url string) ClientOption {
	return func(c *Client) {
		c.baseURL = url
	}
}

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithTimeout sets the HTTP client timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// NewClient creates a new Ollama API client
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Minute,
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// ListModels returns all models installed on the server.
func (c *Client) ListModels(ctx context.Context) (*TagsResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+EndpointTags, nil)
	if err != nil {
		return nil, errors.NewError(errors.CodeProvider, "failed to create request", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &ports.TransportError{Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.parseError(resp)
	}

	var tagsResp TagsResponse
	if err := json.NewDecoder(resp.Body).Decode(&tagsResp); err != nil {
		return nil, errors.NewError(errors.CodeProvider, "failed to decode response", err)
	}

	return &tagsResp, nil
}

// Chat sends a non-streaming chat completion request.
func (c *Client) Chat(ctx context.Context, chatReq *ChatRequest) (*ChatResponse, error) {
	chatReq.Stream = false

	body, err := json.Marshal(chatReq)
	if err != nil {
		return nil, errors.NewError(errors.CodeProvider, "failed to marshal request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+EndpointChat, bytes.NewReader(body))
	if err != nil {
		return nil, errors.NewError(errors.CodeProvider, "failed to create request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &ports.TransportError{Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.parseError(resp)
	}

	var chatResp ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return nil, errors.NewError(errors.CodeProvider, "failed to decode response", err)
	}

	return &chatResp, nil
}

// parseError converts an error response into a transport error,
// preserving the server's message verbatim.
func (c *Client) parseError(resp *http.Response) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &ports.TransportError{
			StatusCode: resp.StatusCode,
			Message:    "failed to read error response",
		}
	}

	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err != nil || errResp.Error == "" {
		return &ports.TransportError{
			StatusCode: resp.StatusCode,
			Message:    string(body),
		}
	}

	return &ports.TransportError{
		StatusCode: resp.StatusCode,
		Message:    errResp.Error,
	}
}
