package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/jbctechsolutions/ctxprobe/internal/application/ports"
	"github.com/jbctechsolutions/ctxprobe/internal/domain/errors"
)

// Client handles HTTP communication with the OpenAI API. It performs no
// retries of its own; retry policy lives with the caller, which needs
// unretried failures to classify probe outcomes.
type Client struct {
	httpClient *http.Client
	config     Config
}

// NewClient creates a new OpenAI API client.
func NewClient(config Config) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		config: config,
	}
}

// CreateChatCompletion sends a chat completion request to the OpenAI API.
func (c *Client) CreateChatCompletion(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, errors.NewError(errors.CodeProvider, "failed to marshal request", err)
	}

	httpReq, err := c.newRequest(ctx, http.MethodPost, "/chat/completions", body)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &ports.TransportError{Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.handleErrorResponse(resp)
	}

	var result ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, errors.NewError(errors.CodeProvider, "failed to decode response", err)
	}

	return &result, nil
}

// newRequest creates a new HTTP request with required headers.
func (c *Client) newRequest(ctx context.Context, method, path string, body []byte) (*http.Request, error) {
	url := c.config.BaseURL + path

	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return nil, errors.NewError(errors.CodeProvider, "failed to create request", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.config.APIKey)

	return req, nil
}

// handleErrorResponse converts an error response into a transport error,
// preserving the provider's error code and message verbatim so the
// outcome classifier can inspect them.
func (c *Client) handleErrorResponse(resp *http.Response) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &ports.TransportError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("failed to read error response: %v", err),
		}
	}

	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err != nil {
		// If we can't parse the error, return the raw body
		return &ports.TransportError{
			StatusCode: resp.StatusCode,
			Message:    string(body),
		}
	}

	code := errResp.Error.Code
	if code == "" {
		code = errResp.Error.Type
	}

	return &ports.TransportError{
		StatusCode: resp.StatusCode,
		Code:       code,
		Message:    errResp.Error.Message,
	}
}

// HealthCheck performs a lightweight check to verify API connectivity.
func (c *Client) HealthCheck(ctx context.Context, modelID string) error {
	req := &ChatRequest{
		Model:               modelID,
		MaxCompletionTokens: 1,
		Messages: []Message{
			{Role: "user", Content: "Hi"},
		},
	}

	_, err := c.CreateChatCompletion(ctx, req)
	return err
}
