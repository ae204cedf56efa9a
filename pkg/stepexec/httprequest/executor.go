// Package httprequest provides a step executor that performs each node as an
// HTTP request. URL, headers and body are templates rendered against the
// execution context, so a node can post the previous step's output to an
// external service.
package httprequest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/ideonhq/ideon/pkg/models"
	tpl "github.com/ideonhq/ideon/pkg/template"
)

const defaultTimeout = 30 * time.Second

// RetryConfig controls how often a request is retried. Only transport errors
// and 5xx responses are retried; a 4xx is the caller's problem.
type RetryConfig struct {
	Attempts int
	Delay    time.Duration
}

// Executor performs workflow steps as HTTP requests.
type Executor struct {
	url     string
	method  string
	headers map[string]string
	body    string
	retry   RetryConfig
	client  *http.Client
	logger  *slog.Logger
}

// NewExecutor creates an HTTP step executor from its configuration map.
func NewExecutor(config map[string]any, logger *slog.Logger) (*Executor, error) {
	url, _ := config["url"].(string)
	if url == "" {
		return nil, errors.New("missing required field 'url'")
	}

	method, _ := config["method"].(string)
	if method == "" {
		method = http.MethodGet
	}

	body, _ := config["body"].(string)

	headers := make(map[string]string)

	if headersConfig, ok := config["headers"].(map[string]any); ok {
		for key, value := range headersConfig {
			if str, ok := value.(string); ok {
				headers[key] = str
			}
		}
	}

	timeout := defaultTimeout
	if seconds, ok := config["timeout_seconds"].(float64); ok && seconds > 0 {
		timeout = time.Duration(seconds) * time.Second
	}

	retry := RetryConfig{Attempts: 1}

	if retryConfig, ok := config["retry"].(map[string]any); ok {
		if attempts, ok := retryConfig["attempts"].(float64); ok && attempts > 0 {
			retry.Attempts = int(attempts)
		}

		if delay, ok := retryConfig["delay_seconds"].(float64); ok && delay > 0 {
			retry.Delay = time.Duration(delay) * time.Second
		}
	}

	return &Executor{
		url:     url,
		method:  strings.ToUpper(method),
		headers: headers,
		body:    body,
		retry:   retry,
		client:  &http.Client{Timeout: timeout},
		logger:  logger.With("module", "http_request_executor"),
	}, nil
}

// Execute renders the request templates, performs the call and returns the
// response body as the node output. A non-2xx response fails the step without
// being an engine error.
func (e *Executor) Execute(ctx context.Context, node *models.WorkflowNode, execCtx models.ExecutionContext) (models.StepResult, error) {
	url, err := e.render(e.url, node, execCtx)
	if err != nil {
		return models.StepResult{}, fmt.Errorf("failed to render url template: %w", err)
	}

	body, err := e.render(e.body, node, execCtx)
	if err != nil {
		return models.StepResult{}, fmt.Errorf("failed to render body template: %w", err)
	}

	headers := make(map[string]string, len(e.headers))

	for key, value := range e.headers {
		rendered, err := e.render(value, node, execCtx)
		if err != nil {
			return models.StepResult{}, fmt.Errorf("failed to render header %q template: %w", key, err)
		}

		headers[key] = rendered
	}

	resp, err := e.do(ctx, url, body, headers)
	if err != nil {
		return models.StepResult{}, err
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return models.StepResult{}, fmt.Errorf("failed to read response body: %w", err)
	}

	output := strings.TrimSpace(string(respBody))

	e.logger.DebugContext(ctx, "Request finished",
		"node_id", node.ID,
		"method", e.method,
		"url", url,
		"status", resp.StatusCode)

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return models.StepResult{
			Success: false,
			Output:  output,
			Error:   fmt.Sprintf("unexpected status %d from %s", resp.StatusCode, url),
		}, nil
	}

	return models.StepResult{Success: true, Output: output}, nil
}

func (e *Executor) render(input string, node *models.WorkflowNode, execCtx models.ExecutionContext) (string, error) {
	if !tpl.NeedsTemplating(input) {
		return input, nil
	}

	return tpl.RenderWithContext(input, node, execCtx)
}

// do performs the request, retrying transport errors and 5xx responses up to
// the configured attempt count.
func (e *Executor) do(ctx context.Context, url, body string, headers map[string]string) (*http.Response, error) {
	var (
		resp    *http.Response
		lastErr error
	)

	for attempt := 1; attempt <= e.retry.Attempts; attempt++ {
		if attempt > 1 {
			e.logger.InfoContext(ctx, "Retrying request",
				"attempt", attempt,
				"max_attempts", e.retry.Attempts)
			time.Sleep(e.retry.Delay)
		}

		req, err := http.NewRequestWithContext(ctx, e.method, url, strings.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("failed to create http request: %w", err)
		}

		for key, value := range headers {
			req.Header.Set(key, value)
		}

		resp, err = e.client.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("http request failed: %w", err)

			continue
		}

		if resp.StatusCode >= http.StatusInternalServerError && attempt < e.retry.Attempts {
			_ = resp.Body.Close()

			lastErr = fmt.Errorf("server returned status %d", resp.StatusCode)
			resp = nil

			continue
		}

		return resp, nil
	}

	return nil, fmt.Errorf("all %d attempts failed, last error: %w", e.retry.Attempts, lastErr)
}
