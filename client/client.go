// Package client talks to the bank REST API on behalf of a logged in user.
//
// Every authenticated call attaches the stored access token. When the server
// answers 401 the client refreshes the token once, shared by every request that
// saw the same stale token, and repeats the call a single time. A failed refresh
// or a second 401 removes the stored credentials and reports ErrSessionExpired.
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
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"gitlab.com/lfmsh/bank/internal/logger"
)

const defaultTimeout = 30 * time.Second

type Config struct {
	// BaseURL is the API root, e.g. http://localhost:8000/api/v1/.
	BaseURL    string
	HTTPClient *http.Client
	Store      CredentialStore
	// OnSessionExpired is called after credentials were removed because the
	// session could not be renewed. The caller should send the user to login.
	OnSessionExpired func()
	Logger           *zap.Logger
}

type Client struct {
	baseURL   *url.URL
	http      *http.Client
	store     CredentialStore
	onExpired func()
	log       *zap.Logger

	refreshGroup singleflight.Group
	// storeMu orders credential writes against the stale-token check in refresh.
	storeMu sync.Mutex
}

func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("base url is required")
	}
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base url %q: %w", cfg.BaseURL, err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid base url %q: scheme and host are required", cfg.BaseURL)
	}
	if !strings.HasSuffix(base.Path, "/") {
		base.Path += "/"
	}

	c := &Client{
		baseURL:   base,
		http:      cfg.HTTPClient,
		store:     cfg.Store,
		onExpired: cfg.OnSessionExpired,
		log:       cfg.Logger,
	}
	if c.http == nil {
		c.http = &http.Client{Timeout: defaultTimeout}
	}
	if c.store == nil {
		c.store = NewMemoryStore(Credentials{})
	}
	if c.log == nil {
		c.log = logger.New("client").Logger
	}
	return c, nil
}

// BaseURL returns the API root the client was built with.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// request is a fully buffered call so it can be sent again after a refresh.
type request struct {
	method      string
	endpoint    string
	query       url.Values
	body        []byte
	contentType string
}

func jsonRequest(method, endpoint string, payload interface{}) (request, error) {
	req := request{method: method, endpoint: endpoint}
	if payload == nil {
		return req, nil
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return req, fmt.Errorf("unable to encode request body: %w", err)
	}
	req.body = body
	req.contentType = "application/json"
	return req, nil
}

func formRequest(endpoint string, form url.Values) request {
	return request{
		method:      http.MethodPost,
		endpoint:    endpoint,
		body:        []byte(form.Encode()),
		contentType: "application/x-www-form-urlencoded",
	}
}

func (c *Client) resolve(endpoint string, query url.Values) string {
	ref, err := url.Parse(endpoint)
	if err != nil {
		ref = &url.URL{Path: endpoint}
	}
	u := c.baseURL.ResolveReference(ref)
	if len(query) > 0 {
		q := u.Query()
		for k, values := range query {
			for _, v := range values {
				q.Add(k, v)
			}
		}
		u.RawQuery = q.Encode()
	}
	return u.String()
}

// send performs one HTTP round trip and returns the status and the whole body.
func (c *Client) send(ctx context.Context, req request, token string, attempt int) (int, []byte, error) {
	var body io.Reader
	if req.body != nil {
		body = bytes.NewReader(req.body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.method, c.resolve(req.endpoint, req.query), body)
	if err != nil {
		return 0, nil, fmt.Errorf("unable to build request: %w", err)
	}
	if req.contentType != "" {
		httpReq.Header.Set("Content-Type", req.contentType)
	}
	httpReq.Header.Set("Accept", "application/json")
	if token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		c.log.Debug("request failed",
			zap.String("method", req.method),
			zap.String("endpoint", req.endpoint),
			zap.Int("attempt", attempt),
			zap.Error(err))
		return 0, nil, fmt.Errorf("%s %s: %w", req.method, req.endpoint, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("unable to read response of %s %s: %w", req.method, req.endpoint, err)
	}
	c.log.Debug("request",
		zap.String("method", req.method),
		zap.String("endpoint", req.endpoint),
		zap.Int("status", resp.StatusCode),
		zap.Int("attempt", attempt),
		zap.Duration("took", time.Since(start)))
	return resp.StatusCode, data, nil
}

// do sends an authenticated request and decodes a 2xx body into out.
func (c *Client) do(ctx context.Context, req request, out interface{}) error {
	creds, err := c.store.Load()
	if err != nil {
		return err
	}
	if creds.Empty() {
		return ErrNotLoggedIn
	}

	status, data, err := c.send(ctx, req, creds.AccessToken, 1)
	if err != nil {
		return err
	}

	if status == http.StatusUnauthorized {
		token, err := c.refresh(ctx, creds.AccessToken)
		if err != nil {
			return err
		}
		status, data, err = c.send(ctx, req, token, 2)
		if err != nil {
			return err
		}
		if status == http.StatusUnauthorized {
			c.log.Info("request rejected after token refresh", zap.String("endpoint", req.endpoint))
			c.expire(token)
			return ErrSessionExpired
		}
	}

	if status < 200 || status > 299 {
		return newAPIError(req.method, req.endpoint, status, data)
	}
	return decode(data, out)
}

func decode(data []byte, out interface{}) error {
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("unable to decode response: %w", err)
	}
	return nil
}

func (c *Client) get(ctx context.Context, endpoint string, query url.Values, out interface{}) error {
	return c.do(ctx, request{method: http.MethodGet, endpoint: endpoint, query: query}, out)
}

func (c *Client) postJSON(ctx context.Context, endpoint string, payload, out interface{}) error {
	return c.sendJSON(ctx, http.MethodPost, endpoint, payload, out)
}

func (c *Client) sendJSON(ctx context.Context, method, endpoint string, payload, out interface{}) error {
	req, err := jsonRequest(method, endpoint, payload)
	if err != nil {
		return err
	}
	return c.do(ctx, req, out)
}
