package anthropic

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jbctechsolutions/ctxprobe/internal/application/ports"
	"github.com/jbctechsolutions/ctxprobe/internal/infrastructure/testutil"
)

func testConfig(baseURL string) Config {
	return Config{
		APIKey:  "test-key",
		BaseURL: baseURL,
		Version: "2023-06-01",
		Timeout: 5 * time.Second,
	}
}

func sampleRequest() ports.SendRequest {
	return ports.SendRequest{
		ModelID:         "claude-sonnet-4-20250514",
		MaxOutputTokens: 256,
		Messages: []ports.Message{
			testutil.NewUserMessage("Count the sections in this document."),
		},
	}
}

func TestSendSuccess(t *testing.T) {
	var gotReq MessagesRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		testutil.AssertEqual(t, r.Header.Get("x-api-key"), "test-key")
		testutil.AssertEqual(t, r.Header.Get("anthropic-version"), "2023-06-01")
		testutil.AssertEqual(t, r.URL.Path, "/messages")

		testutil.AssertNoError(t, json.NewDecoder(r.Body).Decode(&gotReq))

		json.NewEncoder(w).Encode(MessagesResponse{
			ID:         "msg_01",
			Type:       "message",
			Role:       RoleAssistant,
			Content:    []ContentBlock{{Type: "text", Text: "The document contains 12 sections."}},
			Model:      "claude-sonnet-4-20250514",
			StopReason: "end_turn",
			Usage:      Usage{InputTokens: 5000, OutputTokens: 9},
		})
	}))
	defer server.Close()

	transport := NewTransport(testConfig(server.URL))
	result, err := transport.Send(context.Background(), sampleRequest())

	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, result.Content, "The document contains 12 sections.")
	testutil.AssertEqual(t, result.InputTokens, 5000)
	testutil.AssertEqual(t, result.OutputTokens, 9)

	testutil.AssertEqual(t, gotReq.Model, "claude-sonnet-4-20250514")
	testutil.AssertEqual(t, gotReq.MaxTokens, 256)
	testutil.AssertEqual(t, len(gotReq.Messages), 1)
}

func TestSendSystemMessageMovesToField(t *testing.T) {
	var gotReq MessagesRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotReq)
		json.NewEncoder(w).Encode(MessagesResponse{
			Content: []ContentBlock{{Type: "text", Text: "ok"}},
		})
	}))
	defer server.Close()

	req := sampleRequest()
	req.Messages = append([]ports.Message{
		{Role: ports.RoleSystem, Content: "You are terse."},
	}, req.Messages...)

	transport := NewTransport(testConfig(server.URL))
	_, err := transport.Send(context.Background(), req)

	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, gotReq.System, "You are terse.")
	testutil.AssertEqual(t, len(gotReq.Messages), 1)
	testutil.AssertEqual(t, gotReq.Messages[0].Role, RoleUser)
}

func TestSendContextLimitErrorPreserved(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(ErrorResponse{
			Type: "error",
			Error: ErrorInfo{
				Type:    "invalid_request_error",
				Message: "prompt is too long: 210042 tokens > 200000 maximum",
			},
		})
	}))
	defer server.Close()

	transport := NewTransport(testConfig(server.URL))
	_, err := transport.Send(context.Background(), sampleRequest())

	var terr *ports.TransportError
	if !errors.As(err, &terr) {
		t.Fatalf("got %T, want *ports.TransportError", err)
	}
	testutil.AssertEqual(t, terr.StatusCode, http.StatusBadRequest)
	testutil.AssertEqual(t, terr.Code, "invalid_request_error")
	testutil.AssertEqual(t, terr.Message, "prompt is too long: 210042 tokens > 200000 maximum")
}

func TestSendMalformedErrorBodyPreserved(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream connect error"))
	}))
	defer server.Close()

	transport := NewTransport(testConfig(server.URL))
	_, err := transport.Send(context.Background(), sampleRequest())

	var terr *ports.TransportError
	if !errors.As(err, &terr) {
		t.Fatalf("got %T, want *ports.TransportError", err)
	}
	testutil.AssertEqual(t, terr.StatusCode, http.StatusBadGateway)
	testutil.AssertEqual(t, terr.Message, "upstream connect error")
}

func TestSendDoesNotRetry(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(ErrorResponse{
			Error: ErrorInfo{Type: "rate_limit_error", Message: "slow down"},
		})
	}))
	defer server.Close()

	transport := NewTransport(testConfig(server.URL))
	_, err := transport.Send(context.Background(), sampleRequest())

	testutil.AssertError(t, err)
	// Retry policy belongs to the probe executor, not the transport.
	testutil.AssertEqual(t, calls, 1)
}

func TestSendContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	transport := NewTransport(testConfig(server.URL))
	_, err := transport.Send(ctx, sampleRequest())

	testutil.AssertError(t, err)
}
