// Package gateway is the single HTTP path to the clinic backend: base URL,
// bearer token injection, error taxonomy and envelope unwrapping.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/wolfman30/clinicdesk/internal/observability/metrics"
	"github.com/wolfman30/clinicdesk/internal/session"
	"github.com/wolfman30/clinicdesk/pkg/logging"
)

var gatewayTracer = otel.Tracer("clinicdesk.internal.gateway")

// Config configures a Client.
type Config struct {
	BaseURL string
	// Timeout of zero keeps the http.Client default.
	Timeout    time.Duration
	Sessions   session.Store
	Logger     *logging.Logger
	Metrics    *metrics.GatewayMetrics
	HTTPClient *http.Client
}

// Client issues requests against a fixed base URL. It never retries.
type Client struct {
	httpClient *http.Client
	baseURL    string
	sessions   session.Store
	logger     *logging.Logger
	metrics    *metrics.GatewayMetrics
}

// New constructs a gateway client.
func New(cfg Config) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, errors.New("gateway: BaseURL is required")
	}
	if _, err := url.Parse(base); err != nil {
		return nil, fmt.Errorf("gateway: invalid BaseURL: %w", err)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	return &Client{
		httpClient: httpClient,
		baseURL:    base,
		sessions:   cfg.Sessions,
		logger:     logger,
		metrics:    cfg.Metrics,
	}, nil
}

// Sessions returns the store the client reads its bearer token from.
func (c *Client) Sessions() session.Store {
	return c.sessions
}

// Metrics returns the client's metrics, which may be nil.
func (c *Client) Metrics() *metrics.GatewayMetrics {
	return c.metrics
}

// Get issues a GET with optional query parameters and returns the raw body.
func (c *Client) Get(ctx context.Context, path string, query url.Values) (json.RawMessage, error) {
	if len(query) > 0 {
		path = path + "?" + query.Encode()
	}
	var raw json.RawMessage
	err := c.Do(ctx, http.MethodGet, path, nil, &raw)
	return raw, err
}

// Post issues a POST with a JSON body and returns the raw body.
func (c *Client) Post(ctx context.Context, path string, body any) (json.RawMessage, error) {
	var raw json.RawMessage
	err := c.Do(ctx, http.MethodPost, path, body, &raw)
	return raw, err
}

// Put issues a PUT with a JSON body and returns the raw body.
func (c *Client) Put(ctx context.Context, path string, body any) (json.RawMessage, error) {
	var raw json.RawMessage
	err := c.Do(ctx, http.MethodPut, path, body, &raw)
	return raw, err
}

// Delete issues a DELETE. A 2xx body of {success:false, message} is still
// a refusal and comes back as a RequestError.
func (c *Client) Delete(ctx context.Context, path string) error {
	var raw json.RawMessage
	if err := c.Do(ctx, http.MethodDelete, path, nil, &raw); err != nil {
		return err
	}
	if err := CheckSuccess(raw); err != nil {
		c.metrics.ObserveFailure(KindRequest)
		return err
	}
	return nil
}

// Do sends one request. A 2xx body is decoded into out (which may be nil or
// a *json.RawMessage); anything else comes back as one of ValidationError,
// AuthorizationError, NetworkError or RequestError.
func (c *Client) Do(ctx context.Context, method, path string, body, out any) error {
	ctx, span := gatewayTracer.Start(ctx, "gateway.request")
	defer span.End()

	reqID := uuid.NewString()
	span.SetAttributes(
		attribute.String("http.method", method),
		attribute.String("http.path", pathOnly(path)),
		attribute.String("request.id", reqID),
	)

	err := c.do(ctx, method, path, reqID, body, out)
	if err != nil {
		kind := Kind(err)
		if kind == "" {
			kind = KindClient
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, kind)
		c.metrics.ObserveFailure(kind)
	}
	return err
}

func (c *Client) do(ctx context.Context, method, path, reqID string, body, out any) error {
	endpoint := c.baseURL + "/" + strings.TrimLeft(path, "/")

	var bodyReader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("gateway: marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, bodyReader)
	if err != nil {
		return fmt.Errorf("gateway: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", reqID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := session.Token(ctx, c.sessions); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.ObserveRequest(method, 0, time.Since(start).Seconds())
		c.logger.Warn("clinic backend unreachable", "method", method, "path", pathOnly(path), "request_id", reqID, "error", err)
		return &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	c.metrics.ObserveRequest(method, resp.StatusCode, time.Since(start).Seconds())
	if err != nil {
		return &NetworkError{Err: fmt.Errorf("read response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := string(respBody)
		if len(msg) > 300 {
			msg = msg[:300]
		}
		c.logger.Warn("clinic backend non-2xx response",
			"method", method,
			"status", resp.StatusCode,
			"path", pathOnly(path),
			"request_id", reqID,
			"body", msg,
		)
		return errorForStatus(resp.StatusCode, respBody)
	}

	if out == nil || len(bytes.TrimSpace(respBody)) == 0 {
		return nil
	}
	if raw, ok := out.(*json.RawMessage); ok {
		*raw = append((*raw)[:0], respBody...)
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return &RequestError{Status: resp.StatusCode, Message: "the server returned an unreadable response"}
	}
	return nil
}

// pathOnly strips the query so logs and spans never carry search terms.
func pathOnly(path string) string {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		return path[:i]
	}
	return path
}
