package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/caliginous/jvs-checkout/internal/config"
	"github.com/caliginous/jvs-checkout/internal/models"
)

// SessionHeader carries the commerce session token on gateway requests and
// responses.
const SessionHeader = "woocommerce-session"

// GraphQLRequest is a GraphQL document plus its variables.
type GraphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

// GraphQLError is one entry of a GraphQL errors array.
type GraphQLError struct {
	Message string `json:"message"`
}

// GraphQLResponse is the raw GraphQL envelope. GraphQL-level errors are
// passed through to the caller untouched; only transport failures trigger
// the gateway's fallback policy.
type GraphQLResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []GraphQLError  `json:"errors,omitempty"`
}

// gatewayAttempt is one endpoint the gateway may try, with its own timeout.
type gatewayAttempt struct {
	name    string
	url     string
	timeout time.Duration
}

// GatewayClient is the resilient GraphQL client: it tries the caching proxy
// first and falls back to the origin on transport failure, with linear
// backoff between attempts. The commerce session token is attached to every
// attempt and rewritten from every response that carries a fresh value, so
// session continuity survives endpoint failover.
type GatewayClient struct {
	attempts    []gatewayAttempt
	backoffUnit time.Duration
	client      *http.Client
	logger      *logrus.Logger
}

// NewGatewayClient creates a gateway client from config. The attempt plan is
// fixed at construction: proxy first, then origin, each with an independent
// timeout.
func NewGatewayClient(cfg config.GatewayConfig, logger *logrus.Logger, hc *http.Client) *GatewayClient {
	timeout := cfg.AttemptTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	backoff := cfg.BackoffUnit
	if backoff <= 0 {
		backoff = time.Second
	}
	if hc == nil {
		hc = &http.Client{}
	}

	return &GatewayClient{
		attempts: []gatewayAttempt{
			{name: "proxy", url: cfg.ProxyURL, timeout: timeout},
			{name: "origin", url: cfg.OriginURL, timeout: timeout},
		},
		backoffUnit: backoff,
		client:      hc,
		logger:      logger,
	}
}

// Send executes the request against the attempt plan. After the last attempt
// fails, the last transport error is returned wrapped in
// models.ErrGatewayUnavailable; it is never swallowed.
func (c *GatewayClient) Send(ctx context.Context, sessions SessionStore, req GraphQLRequest) (*GraphQLResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal graphql request: %w", err)
	}

	var lastErr error
	for i, attempt := range c.attempts {
		if i > 0 {
			// Linear backoff: 1 unit after the first failure, 2 after
			// the second, and so on.
			if err := sleepContext(ctx, c.backoffUnit*time.Duration(i)); err != nil {
				return nil, err
			}
			c.logger.WithFields(logrus.Fields{
				"endpoint": attempt.name,
				"attempt":  i + 1,
			}).Warn("gateway falling back")
		}

		resp, err := c.do(ctx, sessions, attempt, body)
		if err == nil {
			return resp, nil
		}

		lastErr = err
		c.logger.WithFields(logrus.Fields{
			"endpoint": attempt.name,
			"attempt":  i + 1,
		}).WithError(err).Warn("gateway attempt failed")
	}

	return nil, fmt.Errorf("%w: %w", models.ErrGatewayUnavailable, lastErr)
}

func (c *GatewayClient) do(ctx context.Context, sessions SessionStore, attempt gatewayAttempt, body []byte) (*GraphQLResponse, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, attempt.timeout)
	defer cancel()

	hr, err := http.NewRequestWithContext(attemptCtx, http.MethodPost, attempt.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create gateway request: %w", err)
	}
	hr.Header.Set("Content-Type", "application/json")
	hr.Header.Set("Accept", "application/json")
	if sessions != nil {
		if token, ok := sessions.Get(); ok {
			hr.Header.Set(SessionHeader, SessionTokenPrefix+token)
		}
	}

	resp, err := c.client.Do(hr)
	if err != nil {
		// A timed-out attempt is treated identically to a network error.
		return nil, fmt.Errorf("%s request failed: %w", attempt.name, err)
	}
	defer resp.Body.Close()

	// The backend may rotate the session token on any response, including
	// failures, and the fresh token must be carried into the next attempt.
	if sessions != nil {
		if fresh := resp.Header.Get(SessionHeader); fresh != "" {
			sessions.Set(fresh)
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%s returned HTTP %d", attempt.name, resp.StatusCode)
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s response: %w", attempt.name, err)
	}

	var out GraphQLResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, fmt.Errorf("failed to decode %s response: %w", attempt.name, err)
	}

	return &out, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
