// Package ecw wraps the eClinicalWorks web EMR's internal, session-based
// endpoints behind a typed Go client.
package ecw

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/carebridge/ecw-bridge/internal/observability/metrics"
	"github.com/carebridge/ecw-bridge/pkg/logging"
)

// defaultUserAgent matches the desktop Chrome the webemr screens expect.
const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/134.0.0.0 Safari/537.36"

const secChUA = `"Chromium";v="134", "Not:A-Brand";v="24", "Google Chrome";v="134"`

const formContentType = "application/x-www-form-urlencoded; charset=UTF-8"

// Client talks to one ECW tenant with one set of session tokens. It is safe
// for concurrent use; all mutable state lives upstream.
type Client struct {
	baseURL         string
	httpClient      *http.Client
	tokens          AuthTokens
	userAgent       string
	maxAppointments int
	logger          *logging.Logger
	metrics         *metrics.UpstreamMetrics
	tracer          trace.Tracer
}

// Config holds configuration for the ECW client.
type Config struct {
	BaseURL string
	Tokens  AuthTokens

	UserAgent string
	Timeout   time.Duration

	// MaxAppointments caps appointment listings when the request does not
	// set its own limit.
	MaxAppointments int

	HTTPClient *http.Client
	Logger     *logging.Logger
	Metrics    *metrics.UpstreamMetrics
	Tracer     trace.Tracer
}

// New creates an ECW client bound to one credential set.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("ecw: BaseURL is required")
	}
	if !cfg.Tokens.Valid() {
		return nil, fmt.Errorf("ecw: incomplete auth tokens")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = 45 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	tracer := cfg.Tracer
	if tracer == nil {
		tracer = otel.Tracer("ecwbridge.internal.ecw")
	}
	maxAppointments := cfg.MaxAppointments
	if maxAppointments <= 0 {
		maxAppointments = defaultAppointmentCount
	}

	return &Client{
		baseURL:         strings.TrimSuffix(cfg.BaseURL, "/"),
		httpClient:      httpClient,
		tokens:          cfg.Tokens,
		userAgent:       userAgent,
		maxAppointments: maxAppointments,
		logger:          logger,
		metrics:         cfg.Metrics,
		tracer:          tracer,
	}, nil
}

// setupHeaders returns the headers every webemr call carries.
func (c *Client) setupHeaders(contentType string) http.Header {
	h := http.Header{}
	h.Set("User-Agent", c.userAgent)
	h.Set("Cookie", c.tokens.Cookie)
	h.Set("Sec-Ch-Ua", secChUA)
	h.Set("x-csrf-token", c.tokens.CSRFToken)
	if contentType != "" {
		h.Set("Content-Type", contentType)
	}
	return h
}

// ajaxHeaders extends form headers with what the webemr AJAX layer checks.
func (c *Client) ajaxHeaders() http.Header {
	h := c.setupHeaders(formContentType)
	h.Set("X-Requested-With", "XMLHttpRequest")
	h.Set("Referer", c.baseURL+pathWebEMRIndex)
	return h
}

// do issues one upstream request and funnels the response through sniffing
// and error translation. op names the logical operation for telemetry.
func (c *Client) do(ctx context.Context, op, method, url string, headers http.Header, body string) (any, error) {
	ctx, span := c.tracer.Start(ctx, "ecw."+op)
	defer span.End()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("ecw: create request: %w", err)
	}
	if headers != nil {
		req.Header = headers
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		span.RecordError(err)
		c.metrics.ObserveRequest(op, 0, time.Since(start).Seconds())
		return nil, fmt.Errorf("ecw: request failed: %w", err)
	}
	defer resp.Body.Close()
	c.metrics.ObserveRequest(op, resp.StatusCode, time.Since(start).Seconds())

	parsed, err := c.handleResponse(resp)
	if err != nil {
		span.RecordError(err)
	}
	return parsed, err
}

// handleResponse sniffs the body. The EMR answers with catalog XML, rendered
// HTML, JSON, or nothing at all depending on which screen a route backs.
func (c *Client) handleResponse(resp *http.Response) (any, error) {
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("ecw: read response: %w", err)
	}
	trimmed := strings.TrimSpace(string(raw))

	var parsed any
	var parseErr error
	switch {
	case strings.HasPrefix(trimmed, "<?xml") || strings.HasPrefix(trimmed, "<root"):
		parsed, parseErr = parseXMLResponse([]byte(trimmed))
	case strings.HasPrefix(trimmed, "<HTML>") || strings.HasPrefix(trimmed, "<html"):
		parsed, parseErr = parseProgressNoteHTML([]byte(trimmed))
	case strings.HasPrefix(trimmed, "{"):
		var m map[string]any
		parseErr = json.Unmarshal([]byte(trimmed), &m)
		parsed = m
	default:
		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return trimmed, nil
		}
		parsed = trimmed
	}
	if parseErr != nil {
		c.logger.Warn("response parsing failed", "error", parseErr, "status", resp.StatusCode)
		parsed = map[string]any{"error": map[string]any{"message": "Parsing error", "raw": trimmed}}
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return parsed, nil
	}

	message, code := upstreamErrorDetail(parsed, resp.StatusCode)
	c.logger.Debug("upstream error", "status", resp.StatusCode, "message", message, "code", code)

	switch {
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return nil, &APIError{Status: resp.StatusCode, Detail: parsed}
	case resp.StatusCode >= 500:
		return nil, newServerError(message, code)
	default:
		return nil, &IntegrationError{
			Integration: "ecw",
			Message:     fmt.Sprintf("%s (HTTP %d)", message, resp.StatusCode),
			Status:      resp.StatusCode,
			Code:        code,
		}
	}
}

func upstreamErrorDetail(parsed any, status int) (message, code string) {
	message = "Unknown error"
	code = fmt.Sprintf("%d", status)
	m, ok := parsed.(map[string]any)
	if !ok {
		return message, code
	}
	errMap, ok := m["error"].(map[string]any)
	if !ok {
		return message, code
	}
	if msg, ok := errMap["message"].(string); ok && msg != "" {
		message = msg
	}
	if c, ok := errMap["code"].(string); ok && c != "" {
		code = c
	}
	return message, code
}

// asMap coerces a sniffed response to a map, tolerating empty bodies.
func asMap(v any) map[string]any {
	if m, ok := v.(map[string]any); ok {
		return m
	}
	return map[string]any{}
}
