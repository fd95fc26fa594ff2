package mockapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/verte-zerg/typingfast/internal/api"
	"github.com/verte-zerg/typingfast/internal/auth"
	"github.com/verte-zerg/typingfast/internal/generator"
	"github.com/verte-zerg/typingfast/internal/model"
	"github.com/verte-zerg/typingfast/internal/stats"
	"github.com/verte-zerg/typingfast/internal/store"
	"github.com/verte-zerg/typingfast/internal/typing"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

func history(n int) []model.HistoryEntry {
	out := make([]model.HistoryEntry, n)
	for i := range out {
		out[i].ID = int64(n - i)
	}
	return out
}

type harness struct {
	srv     *httptest.Server
	client  *api.Client
	session *auth.Session
	store   *store.Store
}

func newHarness(t *testing.T, cfg Config) *harness {
	t.Helper()
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.MinCost
	}
	if cfg.Now == nil {
		clock := &fakeClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
		cfg.Now = clock.Now
	}
	if cfg.Generator == nil {
		cfg.Generator = generator.NewSeeded([]string{"alpha", "beta", "gamma"}, generator.Options{}, 1)
	}
	mock, err := New(cfg)
	require.NoError(t, err)
	srv := httptest.NewServer(mock.Handler())
	t.Cleanup(srv.Close)

	client, err := api.New(srv.URL + "/api")
	require.NoError(t, err)
	st, err := store.Open(filepath.Join(t.TempDir(), "typingfast.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	session := auth.NewSession(st, client, nil)
	client.SetAuthorizer(session)
	require.NoError(t, session.Hydrate(context.Background()))
	return &harness{srv: srv, client: client, session: session, store: st}
}

func TestHealth(t *testing.T) {
	h := newHarness(t, Config{})
	resp, err := http.Get(h.srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
}

func TestTextEndpoint(t *testing.T) {
	h := newHarness(t, Config{})
	ctx := context.Background()

	text, err := h.client.Text(ctx, 15)
	require.NoError(t, err)
	assert.Len(t, strings.Fields(text), 15)

	text, err = h.client.Text(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, strings.Fields(text), defaultTextWords)

	_, err = h.client.Text(ctx, maxTextWords+1)
	var apiErr *api.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
}

func TestSignupLoginAndDuplicates(t *testing.T) {
	h := newHarness(t, Config{})
	ctx := context.Background()

	user, err := h.session.Signup(ctx, "ada", "ada@example.com", "secret", "secret")
	require.NoError(t, err)
	assert.Equal(t, "ada", user.Username)
	assert.True(t, h.session.IsAuthenticated())

	token, stored, ok, err := h.store.LoadAuth(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, h.session.Token(), token)
	assert.Equal(t, user, stored)

	_, err = h.session.Signup(ctx, "ada", "other@example.com", "secret", "secret")
	assert.Equal(t, "Username already exists", api.Message(err, ""))
	_, err = h.session.Signup(ctx, "bob", "ada@example.com", "secret", "secret")
	assert.Equal(t, "Email already present", api.Message(err, ""))
	assert.True(t, h.session.IsAuthenticated())

	require.NoError(t, h.session.Logout(ctx))
	_, err = h.session.Login(ctx, "ada", "wrong!")
	assert.True(t, api.IsUnauthorized(err))
	assert.Equal(t, "Invalid credentials", api.Message(err, ""))
	assert.False(t, h.session.IsAuthenticated())

	_, err = h.session.Login(ctx, "ada", "secret")
	require.NoError(t, err)
	assert.True(t, h.session.IsAuthenticated())
}

func TestDashboardRequiresToken(t *testing.T) {
	h := newHarness(t, Config{})
	_, err := h.client.Profile(context.Background())
	assert.True(t, api.IsUnauthorized(err))
	assert.Equal(t, "User not authenticated", err.Error())
}

func TestInvalidTokenExpiresSession(t *testing.T) {
	h := newHarness(t, Config{})
	ctx := context.Background()
	require.NoError(t, h.store.SaveAuth(ctx, "forged.token.value", model.User{ID: 1, Username: "ghost"}))
	require.NoError(t, h.session.Hydrate(ctx))
	require.True(t, h.session.IsAuthenticated())

	expired := make(chan auth.Event, 1)
	h.session.Subscribe(func(ev auth.Event) { expired <- ev })

	_, err := h.client.Stats(ctx)
	assert.True(t, api.IsUnauthorized(err))
	assert.Equal(t, auth.EventExpired, <-expired)
	assert.False(t, h.session.IsAuthenticated())
	_, _, ok, err := h.store.LoadAuth(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestExpiredTokenRejected(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	h := newHarness(t, Config{Now: clock.Now, TokenTTL: 5 * time.Second})
	ctx := context.Background()

	_, err := h.session.Signup(ctx, "ada", "ada@example.com", "secret", "secret")
	require.NoError(t, err)
	_, err = h.client.Profile(ctx)
	require.NoError(t, err)

	clock.mu.Lock()
	clock.now = clock.now.Add(time.Hour)
	clock.mu.Unlock()
	_, err = h.client.Profile(ctx)
	assert.True(t, api.IsUnauthorized(err))
	assert.False(t, h.session.IsAuthenticated())
}

func TestSubmitRecordsHistoryForSignedInUser(t *testing.T) {
	h := newHarness(t, Config{})
	ctx := context.Background()

	anon, err := h.client.Submit(ctx, model.Transcript{OriginalText: "cat", TypedText: "cat", Duration: 1})
	require.NoError(t, err)
	assert.Equal(t, 36.0, anon.WPM)

	_, err = h.session.Signup(ctx, "ada", "ada@example.com", "secret", "secret")
	require.NoError(t, err)

	for _, typed := range []string{"cat", "cxt", "cat"} {
		s := typing.New("cat")
		start := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
		for i, r := range typed {
			s.Type(r, start.Add(time.Duration(i)*time.Second))
		}
		res := typing.Finalize(ctx, h.client, s, nil)
		assert.Equal(t, model.SourceRemote, res.Source)
	}

	report, err := stats.BuildReport(ctx, h.client)
	require.NoError(t, err)
	assert.Equal(t, "ada", report.Profile.Username)
	assert.Equal(t, 3, report.Profile.TotalTests)
	assert.Equal(t, 3, report.Stats.TotalTests)
	assert.Equal(t, 1, report.Stats.TotalErrors)
	assert.Equal(t, 9, report.Stats.TotalCharactersTyped)
	assert.Equal(t, 6, report.Stats.TotalTimeSeconds)
	assert.Equal(t, 100.0, report.Stats.BestAccuracy)
	assert.Equal(t, 88.89, report.Stats.AverageAccuracy)
	require.Len(t, report.History, 3)
	assert.Greater(t, report.History[0].ID, report.History[2].ID)
	assert.False(t, report.Profile.CreatedAt.IsZero())

	page, err := h.client.History(ctx, 1, 2)
	require.NoError(t, err)
	assert.Len(t, page.Content, 1)
	assert.True(t, page.Last)
	assert.Equal(t, 3, page.TotalElements)
}

func TestEmptyStats(t *testing.T) {
	h := newHarness(t, Config{})
	ctx := context.Background()
	_, err := h.session.Signup(ctx, "ada", "ada@example.com", "secret", "secret")
	require.NoError(t, err)

	report, err := stats.BuildReport(ctx, h.client)
	require.NoError(t, err)
	assert.Zero(t, report.Stats.TotalTests)
	assert.Empty(t, report.History)
}

func TestAuthRateLimit(t *testing.T) {
	h := newHarness(t, Config{AuthRate: 2})
	ctx := context.Background()
	for i := 0; i < 2; i++ {
		_, err := h.client.Login(ctx, model.LoginRequest{Username: "x", Password: "y"})
		assert.True(t, api.IsUnauthorized(err))
	}
	_, err := h.client.Login(ctx, model.LoginRequest{Username: "x", Password: "y"})
	var apiErr *api.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusTooManyRequests, apiErr.Status)
}
