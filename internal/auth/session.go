// Package auth holds the process-wide authentication state.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/verte-zerg/typingfast/internal/model"
)

// Storage persists the token and user together.
type Storage interface {
	SaveAuth(ctx context.Context, token string, user model.User) error
	LoadAuth(ctx context.Context) (string, model.User, bool, error)
	ClearAuth(ctx context.Context) error
}

// Authenticator is the backend side of login and signup.
type Authenticator interface {
	Login(ctx context.Context, req model.LoginRequest) (model.AuthResponse, error)
	Signup(ctx context.Context, req model.SignupRequest) (model.AuthResponse, error)
}

// Status is the coarse authentication state seen by screens.
type Status int

const (
	StatusUnknown Status = iota
	StatusAnonymous
	StatusAuthenticated
)

func (s Status) String() string {
	switch s {
	case StatusAnonymous:
		return "anonymous"
	case StatusAuthenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// Event is delivered to subscribers on state changes.
type Event int

const (
	EventLogin Event = iota
	EventLogout
	EventExpired
)

func (e Event) String() string {
	switch e {
	case EventLogin:
		return "login"
	case EventLogout:
		return "logout"
	case EventExpired:
		return "expired"
	default:
		return "unknown"
	}
}

// ErrNoToken is returned when the backend accepts credentials but sends no token.
var ErrNoToken = errors.New("backend returned no token")

// Session is the single source of truth for who is signed in. Build one at
// the application root with NewSession and call Hydrate before reading it.
type Session struct {
	storage Storage
	client  Authenticator
	logger  *zap.Logger

	mu       sync.RWMutex
	token    string
	user     model.User
	hydrated bool

	subMu  sync.Mutex
	nextID int
	subs   map[int]func(Event)
}

// NewSession wires a session to its storage and backend.
func NewSession(storage Storage, client Authenticator, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Session{
		storage: storage,
		client:  client,
		logger:  logger,
		subs:    map[int]func(Event){},
	}
}

// Hydrate loads persisted credentials. A read failure leaves the session
// anonymous; IsLoading is false afterwards either way.
func (s *Session) Hydrate(ctx context.Context) error {
	token, user, ok, err := s.storage.LoadAuth(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.hydrated = true
	if err != nil {
		s.logger.Warn("failed to load stored session", zap.Error(err))
		return fmt.Errorf("load session: %w", err)
	}
	if ok {
		s.token = token
		s.user = user
		s.logger.Debug("session restored", zap.String("username", user.Username))
	}
	return nil
}

// Login authenticates and persists the session.
func (s *Session) Login(ctx context.Context, username, password string) (model.User, error) {
	req := model.LoginRequest{Username: strings.TrimSpace(username), Password: password}
	if err := ValidateLogin(req.Username, req.Password); err != nil {
		return model.User{}, err
	}
	resp, err := s.client.Login(ctx, req)
	if err != nil {
		s.logger.Info("login failed", zap.String("username", req.Username), zap.Error(err))
		return model.User{}, err
	}
	return s.establish(ctx, resp)
}

// Signup registers and persists the session.
func (s *Session) Signup(ctx context.Context, username, email, password, confirm string) (model.User, error) {
	req := model.SignupRequest{
		Username: strings.TrimSpace(username),
		Email:    strings.TrimSpace(email),
		Password: password,
	}
	if err := ValidateSignup(req.Username, req.Email, req.Password, confirm); err != nil {
		return model.User{}, err
	}
	resp, err := s.client.Signup(ctx, req)
	if err != nil {
		s.logger.Info("signup failed", zap.String("username", req.Username), zap.Error(err))
		return model.User{}, err
	}
	return s.establish(ctx, resp)
}

func (s *Session) establish(ctx context.Context, resp model.AuthResponse) (model.User, error) {
	if resp.Token == "" {
		return model.User{}, ErrNoToken
	}
	user := resp.User()

	s.mu.Lock()
	if err := s.storage.SaveAuth(ctx, resp.Token, user); err != nil {
		s.mu.Unlock()
		return model.User{}, fmt.Errorf("save session: %w", err)
	}
	s.token = resp.Token
	s.user = user
	s.hydrated = true
	s.mu.Unlock()

	s.logger.Info("signed in", zap.Int64("user_id", user.ID), zap.String("username", user.Username))
	s.notify(EventLogin)
	return user, nil
}

// Logout clears storage and memory. Calling it while signed out is a no-op
// apart from the storage delete.
func (s *Session) Logout(ctx context.Context) error {
	_, err := s.clear(ctx)
	s.notify(EventLogout)
	return err
}

// Expire is called when the backend rejects the current token. Subscribers
// receive EventExpired only if a session was actually active, so a failed
// login attempt does not bounce the user.
func (s *Session) Expire(ctx context.Context) {
	had, err := s.clear(ctx)
	if err != nil {
		s.logger.Warn("failed to clear expired session", zap.Error(err))
	}
	if had {
		s.logger.Info("session expired")
		s.notify(EventExpired)
	}
}

func (s *Session) clear(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	had := s.token != ""
	s.token = ""
	s.user = model.User{}
	if err := s.storage.ClearAuth(ctx); err != nil {
		return had, fmt.Errorf("clear session: %w", err)
	}
	return had, nil
}

// Token returns the bearer token or "".
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// CurrentUser returns the signed-in user.
func (s *Session) CurrentUser() (model.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user, s.token != ""
}

// IsAuthenticated reports whether a token is held. It is false until Hydrate
// has run; check IsLoading first when that distinction matters.
func (s *Session) IsAuthenticated() bool {
	return s.Status() == StatusAuthenticated
}

// IsLoading is true until Hydrate completes.
func (s *Session) IsLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return !s.hydrated
}

// Status reports the current state.
func (s *Session) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	switch {
	case !s.hydrated:
		return StatusUnknown
	case s.token != "":
		return StatusAuthenticated
	default:
		return StatusAnonymous
	}
}

// Subscribe registers fn for session events. Callbacks run on the goroutine
// that changed the state and must not block.
func (s *Session) Subscribe(fn func(Event)) (cancel func()) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	return func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		delete(s.subs, id)
	}
}

func (s *Session) notify(ev Event) {
	s.subMu.Lock()
	fns := make([]func(Event), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()
	for _, fn := range fns {
		fn(ev)
	}
}
