package anthropic

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

// Client handles HTTP communication with the Anthropic API. It performs
// no retries of its own; retry policy lives with the caller, which needs
// unretried failures to classify probe outcomes.
type Client struct {
	httpClient *http.Client
	config     Config
}

// NewClient creates a new Anthropic API client.
func NewClient(config Config) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		config: config,
	}
}

// SendMessage sends a message request to the Anthropic API.
func (c *Client) SendMessage(ctx context.Context, req *MessagesRequest) (*MessagesResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, errors.NewError(errors.CodeProvider, "failed to marshal request", err)
	}

	httpReq, err := c.newRequest(ctx, http.MethodPost, "/messages", body)
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

	var result MessagesResponse
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
	req.Header.Set("x-api-key", c.config.APIKey)
	req.Header.Set("anthropic-version", c.config.Version)

	return req, nil
}

// handleErrorResponse converts an error response into a transport error,
// preserving the provider's error type and message verbatim so the
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

	return &ports.TransportError{
		StatusCode: resp.StatusCode,
		Code:       errResp.Error.Type,
		Message:    errResp.Error.Message,
	}
}

// HealthCheck performs a lightweight check to verify API connectivity.
func (c *Client) HealthCheck(ctx context.Context, modelID string) error {
	req := &MessagesRequest{
		Model:     modelID,
		MaxTokens: 1,
		Messages: []Message{
			{
				Role: RoleUser,
				Content: MessageContent{
					{Type: "text", Text: "Hi"},
				},
			},
		},
	}

	_, err := c.SendMessage(ctx, req)
	return err
}
