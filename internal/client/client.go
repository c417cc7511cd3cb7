// Package client talks to the remote authentication and ID lookup services.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/freeler-client/internal/observability"
	apperrors "github.com/spec-kit/freeler-client/pkg/util/errorutil"
)

var (
	// ErrNotFound is returned when the remote resource does not exist.
	ErrNotFound = errors.New("not found")
	// ErrUnauthorized is returned for 401 responses.
	ErrUnauthorized = errors.New("unauthorized")
)

// httpClient issues JSON requests with the fiber Agent.
type httpClient struct {
	baseURL string
	timeout time.Duration
	logger  *zap.Logger
}

type agentResult struct {
	status int
	raw    []byte
	errs   []error
}

func newHTTPClient(baseURL string, timeout time.Duration, logger *zap.Logger) httpClient {
	return httpClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: timeout,
		logger:  observability.OrNop(logger),
	}
}

// do sends the request and decodes a 2xx body into out. Error responses are
// returned as *errorutil.DomainError wrapped with ErrUnauthorized or
// ErrNotFound where they apply.
func (c httpClient) do(ctx context.Context, method, path, bearer string, body, out any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	url := c.baseURL + path
	var agent *fiber.Agent
	switch method {
	case fiber.MethodPost:
		agent = fiber.Post(url)
	default:
		agent = fiber.Get(url)
	}
	if err := agent.Parse(); err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	agent.Set(fiber.HeaderAccept, fiber.MIMEApplicationJSON)
	if bearer != "" {
		agent.Set(fiber.HeaderAuthorization, "Bearer "+bearer)
	}
	if body != nil {
		agent.JSON(body)
	}
	if timeout := c.effectiveTimeout(ctx); timeout > 0 {
		agent.Timeout(timeout)
	}

	start := time.Now()
	done := make(chan agentResult, 1)
	go func() {
		status, raw, errs := agent.Bytes()
		done <- agentResult{status: status, raw: raw, errs: errs}
	}()

	var res agentResult
	select {
	case <-ctx.Done():
		// the agent has no context support; the request finishes in the background
		c.logger.Debug("request abandoned", zap.String("method", method), zap.String("url", url), zap.Error(ctx.Err()))
		return fmt.Errorf("%s %s: %w", method, path, ctx.Err())
	case res = <-done:
	}
	status, raw, errs := res.status, res.raw, res.errs
	if len(errs) > 0 {
		c.logger.Debug("request failed", zap.String("method", method), zap.String("url", url), zap.Errors("errors", errs))
		return fmt.Errorf("%s %s: %w", method, path, errors.Join(errs...))
	}
	c.logger.Debug("request",
		zap.String("method", method),
		zap.String("url", url),
		zap.Int("status", status),
		zap.Duration("duration", time.Since(start)),
	)

	if status >= http.StatusBadRequest {
		var env apperrors.ErrorEnvelope
		_ = json.Unmarshal(raw, &env)
		de := apperrors.FromEnvelope(status, env)
		switch status {
		case http.StatusUnauthorized:
			return fmt.Errorf("%w: %w", ErrUnauthorized, de)
		case http.StatusNotFound:
			return fmt.Errorf("%w: %w", ErrNotFound, de)
		default:
			return de
		}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

func (c httpClient) effectiveTimeout(ctx context.Context) time.Duration {
	timeout := c.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); timeout <= 0 || remaining < timeout {
			timeout = remaining
		}
	}
	if timeout < 0 {
		return time.Millisecond
	}
	return timeout
}
