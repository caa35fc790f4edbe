// Package executor talks to the query-execution service that turns a
// structured argument set into SQL and runs it.
package executor

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/bytedance/sonic"

	"orderboard_agent/internal/logger"
	"orderboard_agent/pkg"
)

const defaultTimeout = 30 * time.Second

// Service executes a structured query specification downstream.
type Service interface {
	Execute(ctx context.Context, args map[string]any) (*pkg.ExecuteResult, error)
}

// HTTPClient is the HTTP implementation of Service.
type HTTPClient struct {
	endpoint string
	client   *http.Client
}

// NewHTTPClient creates a client for the execution service at endpoint.
func NewHTTPClient(endpoint string) *HTTPClient {
	return &HTTPClient{
		endpoint: endpoint,
		client:   &http.Client{Timeout: defaultTimeout},
	}
}

// Execute posts the argument set and decodes the execution result. Transport
// errors and non-2xx responses map to bad-gateway pipeline errors; a response
// that cannot be decoded is an internal error because the request itself
// succeeded.
func (c *HTTPClient) Execute(ctx context.Context, args map[string]any) (*pkg.ExecuteResult, error) {
	payload, err := sonic.Marshal(args)
	if err != nil {
		return nil, pkg.NewPipelineError(pkg.StageExecute, pkg.KindInternal,
			fmt.Errorf("marshal query args: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, pkg.NewPipelineError(pkg.StageExecute, pkg.KindInternal,
			fmt.Errorf("build backend request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, pkg.NewPipelineError(pkg.StageExecute, pkg.KindBadGateway,
			fmt.Errorf("backend API error: %w", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, pkg.NewPipelineError(pkg.StageExecute, pkg.KindBadGateway,
			fmt.Errorf("read backend response: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		logger.Warn().
			Int("status", resp.StatusCode).
			Str("body", truncate(string(body), 500)).
			Msg("backend returned error status")
		return nil, pkg.NewPipelineError(pkg.StageExecute, pkg.KindBadGateway,
			fmt.Errorf("backend API error: status %d", resp.StatusCode))
	}

	decoded, err := decodeResult(body)
	if err != nil {
		return nil, pkg.NewPipelineError(pkg.StageExecute, pkg.KindInternal, err)
	}
	return decoded, nil
}

// decodeResult handles both a plain result object and a result object that
// arrives double-encoded as a JSON string.
func decodeResult(body []byte) (*pkg.ExecuteResult, error) {
	var result pkg.ExecuteResult
	if err := sonic.Unmarshal(body, &result); err == nil {
		return &result, nil
	}

	var wrapped string
	if err := sonic.Unmarshal(body, &wrapped); err != nil {
		return nil, fmt.Errorf("backend response is not a valid object")
	}
	if err := sonic.Unmarshal([]byte(wrapped), &result); err != nil {
		return nil, fmt.Errorf("backend response is string but not valid JSON")
	}
	return &result, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
