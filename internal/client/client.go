// Package client provides the HTTP/JSON client for the visa copywriting backend.
//
// Every backend response uses the envelope {success, data|error}. Call
// normalizes transport failures, non-2xx statuses and success:false bodies into
// a single failed Result; typed helpers turn that into an *APIError.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/raphaelgruber/visadesk/internal/metrics"
)

// RequestIDHeader carries a per-call id the backend can log for tracing.
const RequestIDHeader = "X-Request-ID"

// ErrorKind classifies why a call failed.
type ErrorKind string

const (
	KindTransport   ErrorKind = "transport"   // request never produced a response
	KindHTTP        ErrorKind = "http"        // non-2xx status
	KindApplication ErrorKind = "application" // 2xx with success:false or a malformed envelope
)

// Sentinel errors matched by APIError.Is.
var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
)

// APIError is a failed call. Its message is the single user-facing string for
// the operation.
type APIError struct {
	Kind    ErrorKind
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return e.Message
}

// Is maps HTTP statuses onto the package sentinels.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.Status == http.StatusUnauthorized
	case ErrForbidden:
		return e.Status == http.StatusForbidden
	case ErrNotFound:
		return e.Status == http.StatusNotFound
	}
	return false
}

// Result is the normalized outcome of one call.
type Result struct {
	Success bool
	Data    json.RawMessage
	Error   string
	Status  int
	Kind    ErrorKind // set when Success is false
}

// Err returns nil for a successful result and an *APIError otherwise.
func (r Result) Err() error {
	if r.Success {
		return nil
	}
	return &APIError{Kind: r.Kind, Status: r.Status, Message: r.Error}
}

// CallOptions configures a single call.
type CallOptions struct {
	Method  string      // defaults to GET
	Body    any         // JSON-encoded when non-nil
	Query   url.Values  // appended to the path
	Headers http.Header // merged over the defaults
	Op      string      // metrics label; defaults to "METHOD path"
}

// Options configures a Client.
type Options struct {
	BaseURL   string
	Token     string
	Timeout   time.Duration // zero leaves the request lifetime to the context
	Logger    *slog.Logger
	Collector *metrics.Collector
	HTTP      *http.Client // overrides Timeout when set
}

// Client talks to the backend API.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *slog.Logger
	collector  *metrics.Collector
}

// New creates a new API client.
func New(opts Options) *Client {
	httpClient := opts.HTTP
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		token:      opts.Token,
		httpClient: httpClient,
		logger:     logger,
		collector:  opts.Collector,
	}
}

// SetToken replaces the bearer token sent with every call.
func (c *Client) SetToken(token string) {
	c.token = token
}

// BaseURL returns the backend base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Call sends a JSON request and normalizes the envelope. It never returns a Go
// error: callers branch on Result.Success.
func (c *Client) Call(ctx context.Context, path string, opts CallOptions) Result {
	method := opts.Method
	if method == "" {
		method = http.MethodGet
	}

	var body io.Reader
	if opts.Body != nil {
		payload, err := json.Marshal(opts.Body)
		if err != nil {
			return Result{Kind: KindTransport, Error: fmt.Sprintf("encode request: %v", err)}
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.url(path, opts.Query), body)
	if err != nil {
		return Result{Kind: KindTransport, Error: fmt.Sprintf("create request: %v", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	c.decorate(req, opts.Headers)

	return c.send(req, opLabel(opts.Op, method, path))
}

// do runs a JSON call and decodes data into out (when out is non-nil).
func (c *Client) do(ctx context.Context, op, method, path string, body, out any) error {
	res := c.Call(ctx, path, CallOptions{Method: method, Body: body, Op: op})
	if err := res.Err(); err != nil {
		return err
	}
	return decodeData(res, out)
}

func decodeData(res Result, out any) error {
	if out == nil || len(res.Data) == 0 || string(res.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(res.Data, out); err != nil {
		return &APIError{Kind: KindApplication, Status: res.Status, Message: fmt.Sprintf("decode response data: %v", err)}
	}
	return nil
}

// send executes req and normalizes the response. The caller has set the body
// and content type.
func (c *Client) send(req *http.Request, op string) Result {
	requestID := req.Header.Get(RequestIDHeader)
	start := time.Now()

	res := c.roundTrip(req)

	latency := time.Since(start)
	if c.collector != nil {
		c.collector.RecordCall(op, latency, res.Success)
	}
	attrs := []any{
		"method", req.Method,
		"path", req.URL.Path,
		"status", res.Status,
		"request_id", requestID,
		"latency_ms", latency.Milliseconds(),
	}
	if res.Success {
		c.logger.Debug("api call completed", attrs...)
	} else {
		c.logger.Debug("api call failed", append(attrs, "kind", res.Kind, "error", res.Error)...)
	}
	return res
}

func (c *Client) roundTrip(req *http.Request) Result {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Result{Kind: KindTransport, Error: fmt.Sprintf("request failed: %v", err)}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{Kind: KindTransport, Status: resp.StatusCode, Error: fmt.Sprintf("read response: %v", err)}
	}

	return normalize(resp.StatusCode, raw)
}

// normalize maps a status and body onto a Result.
func normalize(status int, raw []byte) Result {
	env, envErr := parseEnvelope(raw)

	if status < 200 || status > 299 {
		msg := http.StatusText(status)
		if envErr == nil && env.message() != "" {
			msg = env.message()
		} else if text := strings.TrimSpace(string(raw)); text != "" && len(text) <= 200 {
			msg = text
		}
		return Result{Kind: KindHTTP, Status: status, Error: fmt.Sprintf("HTTP %d: %s", status, msg)}
	}

	if envErr != nil {
		return Result{Kind: KindApplication, Status: status, Error: fmt.Sprintf("malformed response: %v", envErr)}
	}
	if !env.Success {
		msg := env.message()
		if msg == "" {
			msg = "request was not successful"
		}
		return Result{Kind: KindApplication, Status: status, Error: msg}
	}

	return Result{Success: true, Status: status, Data: env.Data}
}

// decorate applies auth, request id and caller headers.
func (c *Client) decorate(req *http.Request, headers http.Header) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	req.Header.Set(RequestIDHeader, uuid.New().String())
	for key, values := range headers {
		req.Header.Del(key)
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
}

func (c *Client) url(path string, query url.Values) string {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

func opLabel(op, method, path string) string {
	if op != "" {
		return op
	}
	return method + " " + path
}

// pathID escapes an identifier for use as a path segment.
func pathID(id string) string {
	return url.PathEscape(id)
}
