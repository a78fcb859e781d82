package backend

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client talks JSON to the remote backend. A Client with an empty BaseURL
// answers every call with ErrDisabled.
type Client struct {
	BaseURL string
	HTTP    *http.Client
	TLS     *tls.Config
}

func NewClient(baseURL string, timeout time.Duration, insecureTLS bool) *Client {
	tlsCfg := &tls.Config{InsecureSkipVerify: insecureTLS} //nolint:gosec
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.TLSClientConfig = tlsCfg

	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: timeout, Transport: transport},
		TLS:     tlsCfg,
	}
}

func (c *Client) Enabled() bool {
	return c != nil && c.BaseURL != ""
}

// URL joins path and query onto the base URL.
func (c *Client) URL(path string, query url.Values) string {
	u := c.BaseURL + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	return c.Do(ctx, http.MethodGet, path, query, nil, out)
}

func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, http.MethodPost, path, nil, body, out)
}

func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, http.MethodPut, path, nil, body, out)
}

func (c *Client) Delete(ctx context.Context, path string, out any) error {
	return c.Do(ctx, http.MethodDelete, path, nil, nil, out)
}

// Do performs one JSON request. Non-2xx replies and 2xx envelopes carrying
// "success": false both come back as *Error. out may be nil.
func (c *Client) Do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	if !c.Enabled() {
		return ErrDisabled
	}

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.URL(path, query), reader)
	if err != nil {
		return &Error{Message: err.Error(), Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return &Error{Message: err.Error(), Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &Error{Status: resp.StatusCode, Message: "lettura risposta fallita: " + err.Error(), Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &Error{Status: resp.StatusCode, Message: extractMessage(resp.StatusCode, raw)}
	}

	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil
	}
	if failed, msg := envelopeFailure(raw); failed {
		return &Error{Status: resp.StatusCode, Message: msg}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

// Open issues a GET and hands back the raw response for streaming. The caller
// closes the body.
func (c *Client) Open(ctx context.Context, path string, query url.Values) (*http.Response, error) {
	if !c.Enabled() {
		return nil, ErrDisabled
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL(path, query), nil)
	if err != nil {
		return nil, &Error{Message: err.Error(), Err: err}
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, &Error{Message: err.Error(), Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		resp.Body.Close()
		return nil, &Error{Status: resp.StatusCode, Message: extractMessage(resp.StatusCode, raw)}
	}
	return resp, nil
}

// Health calls GET /api/health and returns the decoded body.
func (c *Client) Health(ctx context.Context) (map[string]any, error) {
	out := map[string]any{}
	var raw json.RawMessage
	if err := c.Get(ctx, "/api/health", nil, &raw); err != nil {
		return nil, err
	}
	if len(raw) > 0 && json.Unmarshal(raw, &out) != nil {
		out = map[string]any{"status": strings.Trim(string(raw), `"`)}
	}
	return out, nil
}

func envelopeFailure(raw []byte) (bool, string) {
	if raw[0] != '{' {
		return false, ""
	}
	var env struct {
		Success *bool  `json:"success"`
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(raw, &env); err != nil || env.Success == nil || *env.Success {
		return false, ""
	}
	msg := env.Message
	if msg == "" {
		msg = env.Error
	}
	if msg == "" {
		msg = "operazione non riuscita"
	}
	return true, msg
}
