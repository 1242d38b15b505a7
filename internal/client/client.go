// Package client talks to the remote statistics service.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/verte-zerg/tuistat/internal/model"
)

// ComputePath is the service route that computes statistics.
const ComputePath = "/calculer"

// ConnectionError reports that no response was received.
type ConnectionError struct {
	Err error
}

func (e *ConnectionError) Error() string {
	return "Erreur de connexion"
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// ServerError reports a response the service rejected or garbled.
type ServerError struct {
	Status  int
	Message string
}

func (e *ServerError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("Erreur serveur (%d)", e.Status)
	}
	return e.Message
}

// Option configures Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithTimeout bounds every request. Zero keeps the transport default.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// WithLogger sets the request logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// Client posts number sequences to the service.
type Client struct {
	endpoint string
	timeout  time.Duration
	http     *http.Client
	logger   zerolog.Logger
}

// New creates a client for the service rooted at endpoint.
func New(endpoint string, opts ...Option) *Client {
	c := &Client{
		endpoint: strings.TrimRight(endpoint, "/"),
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = &http.Client{}
	}
	return c
}

// Endpoint returns the service root.
func (c *Client) Endpoint() string {
	return c.endpoint
}

type computeRequest struct {
	Values []float64 `json:"valeurs"`
}

// Compute sends one request and decodes the returned record. It never retries.
func (c *Client) Compute(ctx context.Context, seq model.NumberSequence) (model.StatisticsRecord, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	body, err := json.Marshal(computeRequest{Values: []float64(seq)})
	if err != nil {
		return model.StatisticsRecord{}, fmt.Errorf("failed to encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+ComputePath, bytes.NewReader(body))
	if err != nil {
		return model.StatisticsRecord{}, fmt.Errorf("failed to build request: %w", err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Debug().
			Str("request_id", requestID).
			Int("values", len(seq)).
			Err(err).
			Msg("compute request failed")
		return model.StatisticsRecord{}, &ConnectionError{Err: err}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return model.StatisticsRecord{}, &ConnectionError{Err: fmt.Errorf("failed to read response: %w", err)}
	}
	c.logger.Debug().
		Str("request_id", requestID).
		Int("values", len(seq)).
		Int("status", resp.StatusCode).
		Dur("latency", time.Since(start)).
		Msg("compute request done")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return model.StatisticsRecord{}, &ServerError{
			Status:  resp.StatusCode,
			Message: strings.TrimSpace(string(payload)),
		}
	}

	var rec model.StatisticsRecord
	if err := json.Unmarshal(payload, &rec); err != nil {
		return model.StatisticsRecord{}, &ServerError{
			Status:  resp.StatusCode,
			Message: fmt.Sprintf("Réponse invalide du serveur : %v", err),
		}
	}
	return rec, nil
}
