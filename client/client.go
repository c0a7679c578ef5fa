// Package client is a Go client of the LuxVision API.
//
// Requests are signed with the access token of a TokenStore. A 401 answer
// triggers one refresh of the token pair followed by one retry of the request;
// when no refresh token is known or the refresh fails the tokens are cleared
// and the session expired callback runs.
package client

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

	"luxvision/models"
)

const (
	headerAuthorization = "Authorization"
	headerContentType   = "Content-Type"
	contentTypeJSON     = "application/json"
)

// DefaultBaseURL is the API root of a local server.
const DefaultBaseURL = "http://localhost:5000/api/v1"

// Error is a non-2xx answer of the API.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("request failed with status %d", e.Status)
	}
	return fmt.Sprintf("%s (status %d)", e.Message, e.Status)
}

// StatusCode returns the HTTP status of err when it is an *Error, or 0.
func StatusCode(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.Status
	}
	return 0
}

type doer interface {
	Do(*http.Request) (*http.Response, error)
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the http client used to send requests.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.doer = c
	}
}

// WithTokenStore sets where tokens are read and saved.
func WithTokenStore(ts TokenStore) Option {
	return func(cl *Client) {
		cl.tokens = ts
	}
}

// WithSessionExpired sets the callback run when the session cannot be refreshed.
func WithSessionExpired(fn func()) Option {
	return func(cl *Client) {
		cl.onExpired = fn
	}
}

// Client calls the API.
type Client struct {
	base      *url.URL
	doer      doer
	tokens    TokenStore
	onExpired func()
}

// New returns a client of the API rooted at baseURL, e.g. DefaultBaseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid base url %q", baseURL)
	}

	c := &Client{
		base:   u,
		doer:   &http.Client{Timeout: 30 * time.Second},
		tokens: &MemoryTokens{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Tokens returns the token store of the client.
func (c *Client) Tokens() TokenStore {
	return c.tokens
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func (c *Client) url(path string, query url.Values) string {
	u := *c.base
	u.Path += path
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

// do sends the request and decodes the data of the response envelope into out.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out interface{}) error {
	var payload []byte
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		payload = b
	}

	env, err := c.send(ctx, method, c.url(path, query), payload, !signIn[path])
	if err != nil {
		return err
	}
	if out == nil || len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	return json.Unmarshal(env.Data, out)
}

func (c *Client) send(ctx context.Context, method, target string, payload []byte, retry bool) (*envelope, error) {
	req, err := http.NewRequestWithContext(ctx, method, target, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set(headerContentType, contentTypeJSON)
	if token := c.tokens.AccessToken(); token != "" {
		req.Header.Set(headerAuthorization, "Bearer "+token)
	}

	resp, err := c.doer.Do(req)
	if err != nil {
		return nil, err
	}
	env, err := readEnvelope(resp)
	if err == nil {
		return env, nil
	}

	if StatusCode(err) != http.StatusUnauthorized || !retry {
		return nil, err
	}
	if rerr := c.refresh(ctx); rerr != nil {
		c.expire()
		if StatusCode(rerr) != 0 {
			return nil, rerr
		}
		return nil, err
	}
	return c.send(ctx, method, target, payload, false)
}

// refresh exchanges the stored refresh token for a new pair.
func (c *Client) refresh(ctx context.Context) error {
	refresh := c.tokens.RefreshToken()
	if refresh == "" {
		return errNoRefreshToken
	}
	b, err := json.Marshal(map[string]string{"refreshToken": refresh})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url("/auth/refresh", nil), bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set(headerContentType, contentTypeJSON)

	resp, err := c.doer.Do(req)
	if err != nil {
		return err
	}
	env, err := readEnvelope(resp)
	if err != nil {
		return err
	}
	var data struct {
		Tokens models.TokenPair `json:"tokens"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return err
	}
	if data.Tokens.AccessToken == "" {
		return errNoRefreshToken
	}
	return c.tokens.SetTokens(data.Tokens)
}

var errNoRefreshToken = errors.New("no refresh token")

// signIn lists the routes whose 401 means bad credentials rather than an expired session.
var signIn = map[string]bool{
	"/auth/login":    true,
	"/auth/register": true,
	"/auth/refresh":  true,
}

func (c *Client) expire() {
	c.tokens.ClearTokens()
	if c.onExpired != nil {
		c.onExpired()
	}
}

func readEnvelope(resp *http.Response) (*envelope, error) {
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var env envelope
	decodeErr := json.Unmarshal(b, &env)
	if resp.StatusCode >= http.StatusBadRequest {
		msg := env.Message
		if decodeErr != nil || msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return nil, &Error{Status: resp.StatusCode, Message: msg}
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("decoding response: %w", decodeErr)
	}
	return &env, nil
}
