// Package mockapi is an in-memory stand-in for the TypingFast REST backend,
// used for local development and for exercising the client in tests.
package mockapi

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/verte-zerg/typingfast/internal/generator"
	"github.com/verte-zerg/typingfast/internal/model"
	"github.com/verte-zerg/typingfast/internal/wordlist"
)

const (
	defaultTextWords   = 50
	maxTextWords       = 500
	defaultHistorySize = 10
	maxBodyBytes       = 1 << 20
)

var errUnknownUser = errors.New("token refers to an unknown user")

// Config configures a Server. Zero values pick development defaults.
type Config struct {
	// Secret signs access tokens. A random one is generated when empty.
	Secret   []byte
	TokenTTL time.Duration
	// AuthRate caps /auth requests per minute per client IP; 0 disables.
	AuthRate   int
	BcryptCost int
	Generator  *generator.Generator
	Logger     *zap.Logger
	Now        func() time.Time
}

// Server serves the backend API from memory.
type Server struct {
	store      *memStore
	tokens     *tokenIssuer
	texts      *generator.Generator
	logger     *zap.Logger
	now        func() time.Time
	authRate   int
	bcryptCost int
}

// New builds a Server.
func New(cfg Config) (*Server, error) {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 24 * time.Hour
	}
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	if len(cfg.Secret) == 0 {
		cfg.Secret = make([]byte, 32)
		if _, err := rand.Read(cfg.Secret); err != nil {
			return nil, fmt.Errorf("generate token secret: %w", err)
		}
	}
	if cfg.Generator == nil {
		cfg.Generator = generator.New(wordlist.Default(), generator.Options{})
	}
	return &Server{
		store:      newMemStore(),
		tokens:     &tokenIssuer{secret: cfg.Secret, ttl: cfg.TokenTTL, now: cfg.Now},
		texts:      cfg.Generator,
		logger:     cfg.Logger,
		now:        cfg.Now,
		authRate:   cfg.AuthRate,
		bcryptCost: cfg.BcryptCost,
	}, nil
}

// Handler returns the routed API. Endpoints live under /api.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(accessLog(s.logger))
	r.Use(recovery(s.logger))

	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		writeText(w, http.StatusOK, "TypingFast mock backend is running")
	})
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeText(w, http.StatusOK, "OK")
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			if s.authRate > 0 {
				r.Use(httprate.LimitByIP(s.authRate, time.Minute))
			}
			r.Post("/signup", s.handleSignup)
			r.Post("/login", s.handleLogin)
		})
		r.Route("/typing", func(r chi.Router) {
			r.Get("/text", s.handleText)
			r.With(s.authenticate(false)).Post("/submit", s.handleSubmit)
		})
		r.Route("/dashboard", func(r chi.Router) {
			r.Use(s.authenticate(true))
			r.Get("/profile", s.handleProfile)
			r.Get("/stats", s.handleStats)
			r.Get("/history", s.handleHistory)
			r.Get("/history/all", s.handleAllHistory)
		})
	})
	return r
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("mock backend listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	s.logger.Info("shutting down mock backend")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-errCh
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req model.SignupRequest
	if !s.decode(w, r, &req) {
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	if req.Username == "" || req.Email == "" || req.Password == "" {
		writeJSON(w, s.logger, http.StatusBadRequest, map[string]string{"message": "username, email and password are required"})
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		s.logger.Error("hash password", zap.Error(err))
		writeJSON(w, s.logger, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	user, err := s.store.createUser(req.Username, req.Email, hash, s.now())
	if err != nil {
		writeText(w, http.StatusBadRequest, err.Error())
		return
	}
	s.respondAuth(w, user, "User registered successfully")
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if !s.decode(w, r, &req) {
		return
	}
	acc, ok := s.store.findByName(strings.TrimSpace(req.Username))
	if !ok || bcrypt.CompareHashAndPassword(acc.passwordHash, []byte(req.Password)) != nil {
		writeText(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	s.respondAuth(w, acc.user, "Login successful")
}

func (s *Server) respondAuth(w http.ResponseWriter, user model.User, message string) {
	token, err := s.tokens.issue(user.ID, user.Username)
	if err != nil {
		s.logger.Error("issue token", zap.Error(err))
		writeJSON(w, s.logger, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	writeJSON(w, s.logger, http.StatusOK, model.AuthResponse{
		Token:    token,
		UserID:   user.ID,
		Username: user.Username,
		Email:    user.Email,
		Message:  message,
	})
}

func (s *Server) handleText(w http.ResponseWriter, r *http.Request) {
	words, err := intParam(r, "words", defaultTextWords)
	if err != nil || words <= 0 || words > maxTextWords {
		writeJSON(w, s.logger, http.StatusBadRequest, map[string]string{
			"message": fmt.Sprintf("words must be between 1 and %d", maxTextWords),
		})
		return
	}
	writeJSON(w, s.logger, http.StatusOK, map[string]string{"text": s.texts.Text(words)})
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req model.Transcript
	if !s.decode(w, r, &req) {
		return
	}
	if req.OriginalText == "" || req.Duration < 0 {
		writeJSON(w, s.logger, http.StatusBadRequest, map[string]string{"message": "originalText and a non-negative duration are required"})
		return
	}
	res := Score(req.OriginalText, req.TypedText, req.Duration)
	if userID, ok := userFrom(r.Context()); ok {
		s.store.addResult(userID, req.Duration, len([]rune(req.TypedText)), res, s.now())
	}
	writeJSON(w, s.logger, http.StatusOK, res)
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	userID, _ := userFrom(r.Context())
	profile, ok := s.store.profile(userID)
	if !ok {
		writeText(w, http.StatusUnauthorized, "User not authenticated")
		return
	}
	writeJSON(w, s.logger, http.StatusOK, profile)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	userID, _ := userFrom(r.Context())
	writeJSON(w, s.logger, http.StatusOK, s.store.userStats(userID))
}

func (s *Server) handleAllHistory(w http.ResponseWriter, r *http.Request) {
	userID, _ := userFrom(r.Context())
	history := s.store.history(userID)
	if history == nil {
		history = []model.HistoryEntry{}
	}
	writeJSON(w, s.logger, http.StatusOK, history)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	page, perr := intParam(r, "page", 0)
	size, serr := intParam(r, "size", defaultHistorySize)
	if perr != nil || serr != nil || page < 0 || size <= 0 {
		writeJSON(w, s.logger, http.StatusBadRequest, map[string]string{"message": "page must be >= 0 and size > 0"})
		return
	}
	userID, _ := userFrom(r.Context())
	writeJSON(w, s.logger, http.StatusOK, paginate(s.store.history(userID), page, size))
}

func paginate(all []model.HistoryEntry, page, size int) model.HistoryPage {
	total := len(all)
	pages := (total + size - 1) / size
	start := min(page*size, total)
	end := min(start+size, total)
	content := make([]model.HistoryEntry, end-start)
	copy(content, all[start:end])
	return model.HistoryPage{
		Content:       content,
		TotalPages:    pages,
		TotalElements: total,
		Size:          size,
		Number:        page,
		First:         page == 0,
		Last:          page >= pages-1,
	}
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		writeJSON(w, s.logger, http.StatusBadRequest, map[string]string{"message": "invalid request body"})
		return false
	}
	return true
}

func intParam(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}

func writeJSON(w http.ResponseWriter, logger *zap.Logger, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("failed to encode JSON response", zap.Error(err))
	}
}

func writeText(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(msg))
}
