// Package gateway is the typed adapter between the engine and the host
// ERP's generic named-procedure RPC surface. It translates engine intents
// into remote calls and narrows the dynamic payloads into explicit response
// structs at this boundary; callers never see raw JSON.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/avunu/commchat/internal/logger"
)

const (
	// DefaultMethodPrefix is the server-side module path the chat
	// procedures live under.
	DefaultMethodPrefix = "messaging.messaging.api.chat.api"

	DefaultTimeout = 30 * time.Second
)

// Client calls named procedures on the host over HTTP. It performs no
// retries; retry policy belongs to the caller.
type Client struct {
	baseURL      string
	methodPrefix string
	apiKey       string
	apiSecret    string
	httpClient   *http.Client
	log          zerolog.Logger
}

type ClientOption func(*Client)

func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = hc }
}

func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) { c.httpClient.Timeout = timeout }
}

func WithMethodPrefix(prefix string) ClientOption {
	return func(c *Client) { c.methodPrefix = strings.TrimSuffix(prefix, ".") }
}

// NewClient creates a gateway client. Pass empty key/secret for
// cookie-authenticated sessions handled by the injected http.Client.
func NewClient(baseURL, apiKey, apiSecret string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		methodPrefix: DefaultMethodPrefix,
		apiKey:       apiKey,
		apiSecret:    apiSecret,
		httpClient:   &http.Client{Timeout: DefaultTimeout},
		log:          logger.Module("gateway"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ShapeError reports a response that decoded but did not match the
// documented schema for the operation.
type ShapeError struct {
	Procedure string
	Reason    string
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("%s: unexpected response shape: %s", e.Procedure, e.Reason)
}

// envelope is the host's standard wrapper around procedure results.
type envelope struct {
	Message   json.RawMessage `json:"message"`
	Exception string          `json:"exception"`
	ExcType   string          `json:"exc_type"`
}

// call invokes one named procedure with form-encoded arguments and returns
// the raw result payload.
func (c *Client) call(ctx context.Context, procedure string, args url.Values) (json.RawMessage, error) {
	endpoint := fmt.Sprintf("%s/api/method/%s.%s", c.baseURL, c.methodPrefix, procedure)

	var body io.Reader
	if len(args) > 0 {
		body = strings.NewReader(args.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("%s: build request: %w", procedure, err)
	}
	req.Header.Set("Accept", "application/json")
	if len(args) > 0 {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", procedure, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: read response: %w", procedure, err)
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, &ShapeError{Procedure: procedure, Reason: "response is not a JSON envelope"}
	}

	if resp.StatusCode >= 400 {
		reason := env.Exception
		if reason == "" {
			reason = resp.Status
		}
		c.log.Warn().Str("procedure", procedure).Int("status", resp.StatusCode).Msg("remote call failed")
		return nil, fmt.Errorf("%s: server error: %s", procedure, reason)
	}

	return env.Message, nil
}

func (c *Client) authorize(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set("Authorization", "token "+c.apiKey+":"+c.apiSecret)
	}
}

// decode narrows a raw payload into a typed response, treating null or
// mismatched payloads as shape errors.
func decode[T any](procedure string, raw json.RawMessage) (*T, error) {
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, &ShapeError{Procedure: procedure, Reason: "missing result payload"}
	}
	var result T
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, &ShapeError{Procedure: procedure, Reason: err.Error()}
	}
	return &result, nil
}
