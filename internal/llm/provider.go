package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	app_errors "github.com/dudgeon/chat-frontier-family/internal/errors"
)

// Message is one turn of conversation input for the provider.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// GenerateRequest is the provider request body: {model, input, store}.
type GenerateRequest struct {
	Model string    `json:"model"`
	Input []Message `json:"input"`
	Store bool      `json:"store"`
}

// GenerateResponse is the buffered (non-streaming) provider response.
type GenerateResponse struct {
	ID      string `json:"id"`
	Content string `json:"content"`
}

// Provider defines the contract for talking to the upstream LLM API.
type Provider interface {
	// Generate performs a buffered round trip and returns the full response.
	Generate(ctx context.Context, req *GenerateRequest) (*GenerateResponse, error)
	// Stream opens the SSE endpoint for a response and hands back the raw
	// body. The caller owns closing it.
	Stream(ctx context.Context, req *GenerateRequest) (io.ReadCloser, error)
}

// APIError carries a non-2xx provider status so the boundary can pass
// through 401/403/404/429 and normalize the rest to 503. It wraps
// app_errors.ErrUpstream for errors.Is checks.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("provider returned status %d: %s", e.StatusCode, e.Message)
}

func (e *APIError) Unwrap() error { return app_errors.ErrUpstream }

// passthrough statuses; anything else surfaces as 503.
var passthroughStatuses = map[int]bool{
	http.StatusUnauthorized:    true,
	http.StatusForbidden:       true,
	http.StatusNotFound:        true,
	http.StatusTooManyRequests: true,
}

// HTTPStatus maps a provider error to the status code the edge contract
// requires. Non-APIError transport failures (connection refused, timeouts)
// are 503.
func HTTPStatus(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) && passthroughStatuses[apiErr.StatusCode] {
		return apiErr.StatusCode
	}
	return http.StatusServiceUnavailable
}

type httpProvider struct {
	client *http.Client
	url    string
	apiKey string
}

// NewProvider builds an HTTP client for the upstream LLM API.
func NewProvider(url, apiKey string) Provider {
	return &httpProvider{
		// No overall timeout: the streaming endpoint holds the connection
		// open for the length of a generation.
		client: &http.Client{},
		url:    strings.TrimSuffix(url, "/"),
		apiKey: apiKey,
	}
}

func (p *httpProvider) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, p.url+path, body)
	if err != nil {
		return nil, fmt.Errorf("could not create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if p.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.apiKey)
	}
	return req, nil
}

func (p *httpProvider) Generate(ctx context.Context, req *GenerateRequest) (*GenerateResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("could not marshal request: %w", err)
	}
	httpReq, err := p.newRequest(ctx, http.MethodPost, "/responses", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", app_errors.ErrUpstream, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, apiError(resp)
	}

	var genResp GenerateResponse
	if err := json.NewDecoder(resp.Body).Decode(&genResp); err != nil {
		return nil, fmt.Errorf("could not decode provider response: %w", err)
	}
	return &genResp, nil
}

// Stream creates the response with store enabled, then opens the SSE
// endpoint keyed by the response id with Accept: text/event-stream.
func (p *httpProvider) Stream(ctx context.Context, req *GenerateRequest) (io.ReadCloser, error) {
	create := *req
	create.Store = true
	body, err := json.Marshal(&create)
	if err != nil {
		return nil, fmt.Errorf("could not marshal request: %w", err)
	}
	httpReq, err := p.newRequest(ctx, http.MethodPost, "/responses", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", app_errors.ErrUpstream, err)
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, apiError(resp)
	}
	var created struct {
		ID string `json:"id"`
	}
	decodeErr := json.NewDecoder(resp.Body).Decode(&created)
	resp.Body.Close()
	if decodeErr != nil || created.ID == "" {
		return nil, fmt.Errorf("%w: provider response carried no id", app_errors.ErrUpstream)
	}

	streamReq, err := p.newRequest(ctx, http.MethodGet, "/responses/"+created.ID+"/stream", nil)
	if err != nil {
		return nil, err
	}
	streamReq.Header.Set("Accept", "text/event-stream")
	streamResp, err := p.client.Do(streamReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", app_errors.ErrUpstream, err)
	}
	if streamResp.StatusCode != http.StatusOK {
		defer streamResp.Body.Close()
		return nil, apiError(streamResp)
	}
	return streamResp.Body, nil
}

// apiError drains what it can of an error body for the message. The body may
// already be closed by the caller; reading is best effort.
func apiError(resp *http.Response) error {
	msg := ""
	if resp.Body != nil {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		msg = strings.TrimSpace(string(b))
	}
	return &APIError{StatusCode: resp.StatusCode, Message: msg}
}
