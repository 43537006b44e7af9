package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"gitlab.com/lfmsh/bank/models"
)

// fakeAPI accepts a single access token at a time and issues the next one on refresh.
type fakeAPI struct {
	mu           sync.Mutex
	access       string
	refresh      string
	rotate       bool
	refreshDelay time.Duration
	rejectAll    bool
	failRefresh  bool
	dropRefresh  bool

	refreshCalls int32
	meCalls      int32
	bodies       []string
}

func (f *fakeAPI) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/auth/jwt/create/", func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		if r.Form.Get("username") != "girik" || r.Form.Get("password") != "r" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = io.WriteString(w, `{"detail":"Incorrect username or password"}`)
			return
		}
		f.mu.Lock()
		defer f.mu.Unlock()
		writeJSON(w, models.TokenPair{AccessToken: f.access, RefreshToken: f.refresh, TokenType: "bearer"})
	})
	mux.HandleFunc("/api/v1/auth/jwt/refresh/", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&f.refreshCalls, 1)
		time.Sleep(f.refreshDelay)
		if f.dropRefresh {
			conn, _, err := w.(http.Hijacker).Hijack()
			if err == nil {
				_ = conn.Close()
			}
			return
		}
		_ = r.ParseForm()
		f.mu.Lock()
		defer f.mu.Unlock()
		if f.failRefresh || r.Form.Get("refresh_token") != f.refresh {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		f.access = f.access + "+"
		pair := models.TokenPair{AccessToken: f.access, TokenType: "bearer"}
		if f.rotate {
			f.refresh = f.refresh + "+"
			pair.RefreshToken = f.refresh
		}
		writeJSON(w, pair)
	})
	mux.HandleFunc("/api/v1/auth/jwt/verify/", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		writeJSON(w, models.TokenVerification{Valid: r.URL.Query().Get("token") == f.access})
	})
	mux.HandleFunc("/api/v1/users/me/", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&f.meCalls, 1)
		if !f.authorized(r) {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		writeJSON(w, models.UserData{ID: 1, Username: "girik", Balance: 12.5})
	})
	mux.HandleFunc("/api/v1/users/girik/avatar", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		f.mu.Lock()
		f.bodies = append(f.bodies, string(body))
		f.mu.Unlock()
		if !f.authorized(r) {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		writeJSON(w, models.UserData{ID: 1, Username: "girik", Avatar: "/media/avatars/girik.png"})
	})
	mux.HandleFunc("/api/v1/transactions/7", func(w http.ResponseWriter, r *http.Request) {
		if !f.authorized(r) {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"type":"about:blank","title":"Not Found","status":404,"detail":"transaction 7 not found"}`)
	})
	return mux
}

func (f *fakeAPI) authorized(r *http.Request) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.rejectAll {
		return false
	}
	return r.Header.Get("Authorization") == "Bearer "+f.access
}

func (f *fakeAPI) uploads() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.bodies...)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func newTestClient(t *testing.T, api *fakeAPI, store CredentialStore, onExpired func()) *Client {
	t.Helper()
	srv := httptest.NewServer(api.handler())
	t.Cleanup(srv.Close)

	c, err := New(Config{
		BaseURL:          srv.URL + "/api/v1/",
		Store:            store,
		OnSessionExpired: onExpired,
		Logger:           zap.NewNop(),
	})
	require.NoError(t, err)
	return c
}

func TestNewRequiresBaseURL(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)

	_, err = New(Config{BaseURL: "localhost"})
	assert.Error(t, err)

	c, err := New(Config{BaseURL: "http://localhost:8000/api/v1", Logger: zap.NewNop()})
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8000/api/v1/", c.BaseURL())
}

func TestLoginStoresTokenPair(t *testing.T) {
	api := &fakeAPI{access: "a1", refresh: "r1"}
	store := NewMemoryStore(Credentials{})
	c := newTestClient(t, api, store, nil)

	creds, err := c.Login(context.Background(), "girik", "r")
	require.NoError(t, err)
	assert.Equal(t, "a1", creds.AccessToken)

	stored, _ := store.Load()
	assert.Equal(t, Credentials{AccessToken: "a1", RefreshToken: "r1", TokenType: "bearer"}, stored)
	assert.True(t, c.LoggedIn())
}

func TestLoginRejected(t *testing.T) {
	api := &fakeAPI{access: "a1", refresh: "r1"}
	store := NewMemoryStore(Credentials{AccessToken: "keep", RefreshToken: "keep"})
	c := newTestClient(t, api, store, nil)

	_, err := c.Login(context.Background(), "girik", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	stored, _ := store.Load()
	assert.Equal(t, "keep", stored.AccessToken)
}

func TestNotLoggedInMakesNoCall(t *testing.T) {
	api := &fakeAPI{access: "a1", refresh: "r1"}
	called := false
	c := newTestClient(t, api, NewMemoryStore(Credentials{}), func() { called = true })

	_, err := c.Me(context.Background())
	assert.ErrorIs(t, err, ErrNotLoggedIn)
	assert.Zero(t, atomic.LoadInt32(&api.meCalls))
	assert.False(t, called)
}

func TestRefreshAndRetryOnce(t *testing.T) {
	api := &fakeAPI{access: "a2", refresh: "r1"}
	store := NewMemoryStore(Credentials{AccessToken: "a1", RefreshToken: "r1"})
	c := newTestClient(t, api, store, nil)

	me, err := c.Me(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "girik", me.Username)
	assert.EqualValues(t, 1, atomic.LoadInt32(&api.refreshCalls))
	assert.EqualValues(t, 2, atomic.LoadInt32(&api.meCalls))

	stored, _ := store.Load()
	assert.Equal(t, "a2+", stored.AccessToken)
	assert.Equal(t, "r1", stored.RefreshToken, "refresh token is kept when the server does not rotate it")
}

func TestRefreshRotatesRefreshToken(t *testing.T) {
	api := &fakeAPI{access: "a2", refresh: "r1", rotate: true}
	store := NewMemoryStore(Credentials{AccessToken: "a1", RefreshToken: "r1"})
	c := newTestClient(t, api, store, nil)

	_, err := c.Me(context.Background())
	require.NoError(t, err)

	stored, _ := store.Load()
	assert.Equal(t, "r1+", stored.RefreshToken)
}

func TestConcurrentUnauthorizedShareOneRefresh(t *testing.T) {
	api := &fakeAPI{access: "fresh", refresh: "r1", refreshDelay: 50 * time.Millisecond}
	store := NewMemoryStore(Credentials{AccessToken: "stale", RefreshToken: "r1"})
	c := newTestClient(t, api, store, nil)

	const callers = 10
	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = c.Me(context.Background())
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}
	assert.EqualValues(t, 1, atomic.LoadInt32(&api.refreshCalls))
}

func TestLateCallerReusesRefreshedToken(t *testing.T) {
	api := &fakeAPI{access: "fresh", refresh: "r1"}
	store := NewMemoryStore(Credentials{AccessToken: "stale", RefreshToken: "r1"})
	c := newTestClient(t, api, store, nil)

	_, err := c.Me(context.Background())
	require.NoError(t, err)

	// a request that went out with the stale token before the refresh finished
	token, err := c.refresh(context.Background(), "stale")
	require.NoError(t, err)
	assert.Equal(t, "fresh+", token)
	assert.EqualValues(t, 1, atomic.LoadInt32(&api.refreshCalls))
}

func TestSecondUnauthorizedIsTerminal(t *testing.T) {
	api := &fakeAPI{access: "a1", refresh: "r1", rejectAll: true}
	store := NewMemoryStore(Credentials{AccessToken: "a1", RefreshToken: "r1"})
	var expired int32
	c := newTestClient(t, api, store, func() { atomic.AddInt32(&expired, 1) })

	_, err := c.Me(context.Background())
	assert.ErrorIs(t, err, ErrSessionExpired)
	assert.EqualValues(t, 2, atomic.LoadInt32(&api.meCalls), "the request is retried exactly once")
	assert.EqualValues(t, 1, atomic.LoadInt32(&api.refreshCalls))
	assert.EqualValues(t, 1, expired)

	stored, _ := store.Load()
	assert.Equal(t, Credentials{}, stored)

	_, err = c.Me(context.Background())
	assert.ErrorIs(t, err, ErrNotLoggedIn)
	assert.EqualValues(t, 2, atomic.LoadInt32(&api.meCalls))
}

func TestRefreshFailureClearsBothTokens(t *testing.T) {
	api := &fakeAPI{access: "a2", refresh: "r1", failRefresh: true}
	store := NewMemoryStore(Credentials{AccessToken: "a1", RefreshToken: "r1"})
	var expired int32
	c := newTestClient(t, api, store, func() { atomic.AddInt32(&expired, 1) })

	_, err := c.Me(context.Background())
	assert.ErrorIs(t, err, ErrSessionExpired)
	assert.EqualValues(t, 1, atomic.LoadInt32(&api.meCalls), "no retry without a new token")
	assert.EqualValues(t, 1, expired)

	stored, _ := store.Load()
	assert.Empty(t, stored.AccessToken)
	assert.Empty(t, stored.RefreshToken)
}

func TestRefreshTransportErrorExpiresSession(t *testing.T) {
	api := &fakeAPI{access: "a2", refresh: "r1", dropRefresh: true}
	store := NewMemoryStore(Credentials{AccessToken: "a1", RefreshToken: "r1"})
	var expired int32
	c := newTestClient(t, api, store, func() { atomic.AddInt32(&expired, 1) })

	_, err := c.Me(context.Background())
	assert.ErrorIs(t, err, ErrSessionExpired)
	assert.EqualValues(t, 1, atomic.LoadInt32(&api.refreshCalls))
	assert.EqualValues(t, 1, atomic.LoadInt32(&expired))

	stored, _ := store.Load()
	assert.Equal(t, Credentials{}, stored)
}

func TestLogoutDuringRefreshIsNotUndone(t *testing.T) {
	api := &fakeAPI{access: "a2", refresh: "r1", refreshDelay: 200 * time.Millisecond}
	store := NewMemoryStore(Credentials{AccessToken: "a1", RefreshToken: "r1"})
	c := newTestClient(t, api, store, nil)

	done := make(chan error, 1)
	go func() {
		_, err := c.Me(context.Background())
		done <- err
	}()
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, c.Logout())

	err := <-done
	assert.ErrorIs(t, err, ErrSessionExpired)
	assert.EqualValues(t, 1, atomic.LoadInt32(&api.refreshCalls))

	stored, _ := store.Load()
	assert.True(t, stored.Empty(), "the refreshed pair must not be written after logout")
	assert.False(t, c.LoggedIn())
}

func TestLoginDuringRefreshKeepsNewSession(t *testing.T) {
	api := &fakeAPI{access: "a2", refresh: "r1", refreshDelay: 200 * time.Millisecond}
	store := NewMemoryStore(Credentials{AccessToken: "a1", RefreshToken: "r1"})
	var expired int32
	c := newTestClient(t, api, store, func() { atomic.AddInt32(&expired, 1) })

	done := make(chan error, 1)
	go func() {
		_, err := c.refresh(context.Background(), "a1")
		done <- err
	}()
	time.Sleep(50 * time.Millisecond)
	fresh := Credentials{AccessToken: "other", RefreshToken: "r9", TokenType: "bearer"}
	require.NoError(t, store.Save(fresh))

	assert.ErrorIs(t, <-done, ErrSessionExpired)
	assert.Zero(t, atomic.LoadInt32(&expired))

	stored, _ := store.Load()
	assert.Equal(t, fresh, stored)
}

func TestMissingRefreshTokenExpiresSession(t *testing.T) {
	api := &fakeAPI{access: "a2", refresh: "r1"}
	store := NewMemoryStore(Credentials{AccessToken: "a1"})
	var expired int32
	c := newTestClient(t, api, store, func() { atomic.AddInt32(&expired, 1) })

	_, err := c.Me(context.Background())
	assert.ErrorIs(t, err, ErrSessionExpired)
	assert.Zero(t, atomic.LoadInt32(&api.refreshCalls))
	assert.EqualValues(t, 1, expired)
	assert.False(t, c.LoggedIn())
}

func TestWaitingCallerHonoursOwnContext(t *testing.T) {
	api := &fakeAPI{access: "fresh", refresh: "r1", refreshDelay: 300 * time.Millisecond}
	store := NewMemoryStore(Credentials{AccessToken: "stale", RefreshToken: "r1"})
	c := newTestClient(t, api, store, nil)

	go func() { _, _ = c.refresh(context.Background(), "stale") }()
	time.Sleep(20 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	_, err := c.refresh(ctx, "stale")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	assert.Eventually(t, func() bool {
		creds, _ := store.Load()
		return creds.AccessToken == "fresh+"
	}, time.Second, 10*time.Millisecond, "the shared refresh completes for the other caller")
}

func TestUploadRetrySendsSameBody(t *testing.T) {
	api := &fakeAPI{access: "a2", refresh: "r1"}
	store := NewMemoryStore(Credentials{AccessToken: "a1", RefreshToken: "r1"})
	c := newTestClient(t, api, store, nil)

	user, err := c.UploadAvatar(context.Background(), "girik", "me.png", strings.NewReader("PNGDATA"))
	require.NoError(t, err)
	assert.Equal(t, "/media/avatars/girik.png", user.Avatar)

	bodies := api.uploads()
	require.Len(t, bodies, 2)
	assert.Equal(t, bodies[0], bodies[1])
	assert.Contains(t, bodies[1], "PNGDATA")
}

func TestAPIErrorCarriesDetail(t *testing.T) {
	api := &fakeAPI{access: "a1", refresh: "r1"}
	c := newTestClient(t, api, NewMemoryStore(Credentials{AccessToken: "a1", RefreshToken: "r1"}), nil)

	_, err := c.Transaction(context.Background(), 7)
	require.Error(t, err)
	assert.True(t, IsStatus(err, http.StatusNotFound))

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "transaction 7 not found", apiErr.Detail)
	assert.Equal(t, "transactions/7", apiErr.Endpoint)
}

func TestVerify(t *testing.T) {
	api := &fakeAPI{access: "a1", refresh: "r1"}
	store := NewMemoryStore(Credentials{AccessToken: "a1", RefreshToken: "r1"})
	c := newTestClient(t, api, store, nil)

	valid, err := c.Verify(context.Background())
	require.NoError(t, err)
	assert.True(t, valid)

	require.NoError(t, store.Save(Credentials{AccessToken: "other", RefreshToken: "r1"}))
	valid, err = c.Verify(context.Background())
	require.NoError(t, err)
	assert.False(t, valid)
}

func TestLogoutClearsStore(t *testing.T) {
	store := NewMemoryStore(Credentials{AccessToken: "a1", RefreshToken: "r1"})
	c := newTestClient(t, &fakeAPI{}, store, nil)

	require.NoError(t, c.Logout())
	stored, _ := store.Load()
	assert.True(t, stored.Empty())
}

func TestAvatarURL(t *testing.T) {
	c, err := New(Config{BaseURL: "http://bank.lfmsh.ru/api/v1/", Logger: zap.NewNop()})
	require.NoError(t, err)

	assert.Equal(t, "http://bank.lfmsh.ru/media/avatars/girik_medium.png", c.AvatarURL("girik", ""))
	assert.Equal(t, "http://bank.lfmsh.ru/media/avatars/girik_small.png", c.AvatarURL("girik", AvatarSmall))
	assert.Equal(t, "http://bank.lfmsh.ru/media/avatars/girik.png", c.AvatarURL("girik", AvatarOriginal))
}
