package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"gitlab.com/lfmsh/bank/models"
)

const (
	loginEndpoint   = "auth/jwt/create/"
	refreshEndpoint = "auth/jwt/refresh/"
	verifyEndpoint  = "auth/jwt/verify/"
)

// Login exchanges a username and password for a token pair and stores it.
func (c *Client) Login(ctx context.Context, username, password string) (Credentials, error) {
	form := url.Values{}
	form.Set("username", username)
	form.Set("password", password)

	req := formRequest(loginEndpoint, form)
	status, data, err := c.send(ctx, req, "", 1)
	if err != nil {
		return Credentials{}, err
	}
	if status == http.StatusUnauthorized {
		return Credentials{}, ErrInvalidCredentials
	}
	if status < 200 || status > 299 {
		return Credentials{}, newAPIError(req.method, req.endpoint, status, data)
	}

	var pair models.TokenPair
	if err := json.Unmarshal(data, &pair); err != nil {
		return Credentials{}, fmt.Errorf("unable to decode token pair: %w", err)
	}
	if pair.AccessToken == "" {
		return Credentials{}, errors.New("login response carries no access token")
	}

	creds := Credentials{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    pair.TokenType,
	}
	c.storeMu.Lock()
	err = c.store.Save(creds)
	c.storeMu.Unlock()
	if err != nil {
		return Credentials{}, err
	}
	c.log.Info("logged in", zap.String("username", username))
	return creds, nil
}

// Logout forgets the stored token pair.
func (c *Client) Logout() error {
	c.storeMu.Lock()
	defer c.storeMu.Unlock()
	return c.store.Clear()
}

// LoggedIn reports whether an access token is stored.
func (c *Client) LoggedIn() bool {
	creds, err := c.store.Load()
	return err == nil && !creds.Empty()
}

// Verify asks the server whether the stored access token is still valid.
func (c *Client) Verify(ctx context.Context) (bool, error) {
	creds, err := c.store.Load()
	if err != nil {
		return false, err
	}
	if creds.Empty() {
		return false, ErrNotLoggedIn
	}

	req := request{
		method:   http.MethodPost,
		endpoint: verifyEndpoint,
		query:    url.Values{"token": []string{creds.AccessToken}},
	}
	status, data, err := c.send(ctx, req, "", 1)
	if err != nil {
		return false, err
	}
	if status == http.StatusUnauthorized {
		return false, nil
	}
	if status < 200 || status > 299 {
		return false, newAPIError(req.method, req.endpoint, status, data)
	}
	var result models.TokenVerification
	if err := decode(data, &result); err != nil {
		return false, err
	}
	return result.Valid, nil
}

// refresh returns a fresh access token to replace stale. Concurrent callers
// holding the same stale token share one refresh; each of them stops waiting
// when its own ctx is done while the refresh itself runs to completion.
func (c *Client) refresh(ctx context.Context, stale string) (string, error) {
	ch := c.refreshGroup.DoChan(stale, func() (interface{}, error) {
		return c.doRefresh(stale)
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (c *Client) doRefresh(stale string) (string, error) {
	c.storeMu.Lock()
	creds, err := c.store.Load()
	c.storeMu.Unlock()
	if err != nil {
		return "", err
	}
	if creds.Empty() {
		return "", ErrSessionExpired
	}
	if creds.AccessToken != stale {
		// a previous refresh already replaced the token this caller used
		return creds.AccessToken, nil
	}
	if creds.RefreshToken == "" {
		c.log.Info("no refresh token stored")
		c.expire(stale)
		return "", ErrSessionExpired
	}

	timeout := c.http.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	form := url.Values{}
	form.Set("refresh_token", creds.RefreshToken)
	start := time.Now()
	status, data, err := c.send(ctx, formRequest(refreshEndpoint, form), "", 1)
	if err != nil {
		c.log.Info("token refresh failed", zap.Error(err))
		c.expire(stale)
		return "", fmt.Errorf("%w: token refresh: %v", ErrSessionExpired, err)
	}
	if status != http.StatusOK {
		c.log.Info("token refresh rejected", zap.Int("status", status), zap.String("detail", errorDetail(data)))
		c.expire(stale)
		return "", ErrSessionExpired
	}

	var pair models.TokenPair
	if err := json.Unmarshal(data, &pair); err != nil || pair.AccessToken == "" {
		c.log.Info("token refresh returned no access token")
		c.expire(stale)
		return "", ErrSessionExpired
	}

	renewed := Credentials{
		AccessToken:  pair.AccessToken,
		RefreshToken: creds.RefreshToken,
		TokenType:    creds.TokenType,
	}
	if pair.RefreshToken != "" {
		renewed.RefreshToken = pair.RefreshToken
	}
	if pair.TokenType != "" {
		renewed.TokenType = pair.TokenType
	}

	c.storeMu.Lock()
	current, err := c.store.Load()
	if err == nil {
		if current != creds {
			// logout or login happened while the refresh was in flight
			c.storeMu.Unlock()
			c.log.Info("credentials changed during token refresh, discarding result")
			return "", ErrSessionExpired
		}
		err = c.store.Save(renewed)
	}
	c.storeMu.Unlock()
	if err != nil {
		return "", err
	}
	c.log.Debug("token refreshed", zap.Duration("took", time.Since(start)))
	return renewed.AccessToken, nil
}

// expire removes the stored credentials and notifies the owner once per session.
// Nothing happens when the store no longer holds the rejected access token, so a
// session started by a concurrent Login survives.
func (c *Client) expire(rejected string) {
	c.storeMu.Lock()
	creds, err := c.store.Load()
	if err != nil || creds.Empty() || creds.AccessToken != rejected {
		c.storeMu.Unlock()
		return
	}
	if err := c.store.Clear(); err != nil {
		c.log.Warn("unable to clear credentials", zap.Error(err))
	}
	c.storeMu.Unlock()

	if c.onExpired != nil {
		c.onExpired()
	}
}
