package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/verte-zerg/typingfast/internal/generator"
	"github.com/verte-zerg/typingfast/internal/logging"
	"github.com/verte-zerg/typingfast/internal/mockapi"
	"github.com/verte-zerg/typingfast/internal/wordlist"
)

const (
	defaultMockAddr = ":8080"
	defaultPunctSet = ".,!?;:\"'()-"
	defaultAuthRate = 20
	envMockSecret   = "TYPINGFAST_MOCK_SECRET"
)

var (
	mockAddr      string
	mockWordsFile string
	mockCaps      float64
	mockPunct     float64
	mockPunctSet  string
	mockAuthRate  int
	mockTokenTTL  time.Duration
)

func newMockServerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mock-server",
		Short: "Run an in-memory backend for local development",
		Args:  cobra.NoArgs,
		RunE:  runMockServerCmd,
	}
	cmd.Flags().StringVar(&mockAddr, "addr", defaultMockAddr, "listen address")
	cmd.Flags().StringVar(&mockWordsFile, "words-file", "", "word list file (default: built-in list)")
	cmd.Flags().Float64Var(&mockCaps, "caps", 0, "probability of capitalized first letter (0-1)")
	cmd.Flags().Float64Var(&mockPunct, "punct", 0, "punctuation probability per word (0-1)")
	cmd.Flags().StringVar(&mockPunctSet, "punct-set", defaultPunctSet, "punctuation set")
	cmd.Flags().IntVar(&mockAuthRate, "auth-rate", defaultAuthRate, "auth requests per minute per IP (0 disables)")
	cmd.Flags().DurationVar(&mockTokenTTL, "token-ttl", 24*time.Hour, "access token lifetime")
	return cmd
}

func runMockServerCmd(cmd *cobra.Command, _ []string) error {
	if mockCaps < 0 || mockCaps > 1 {
		return fmt.Errorf("--caps must be between 0 and 1")
	}
	if mockPunct < 0 || mockPunct > 1 {
		return fmt.Errorf("--punct must be between 0 and 1")
	}
	if mockPunct > 0 && mockPunctSet == "" {
		return fmt.Errorf("--punct-set must not be empty")
	}
	if mockAuthRate < 0 {
		return fmt.Errorf("--auth-rate must be >= 0")
	}

	logger, err := logging.NewConsole(flagLogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	words := wordlist.Default()
	if mockWordsFile != "" {
		loaded, err := wordlist.LoadWords(mockWordsFile)
		if err != nil {
			return fmt.Errorf("failed to load word list: %w", err)
		}
		if words, err = wordlist.Apply(loaded, wordlist.FilterForLang("en")); err != nil {
			return fmt.Errorf("word list %s: %w", mockWordsFile, err)
		}
		logger.Info("loaded word list", zap.String("path", mockWordsFile), zap.Int("words", len(words)))
	}

	srv, err := mockapi.New(mockapi.Config{
		Secret:   []byte(strings.TrimSpace(os.Getenv(envMockSecret))),
		TokenTTL: mockTokenTTL,
		AuthRate: mockAuthRate,
		Generator: generator.New(words, generator.Options{
			CapsPct:  mockCaps,
			PunctPct: mockPunct,
			PunctSet: []rune(mockPunctSet),
		}),
		Logger: logger,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()
	logErrf("Mock backend on %s (API base http://localhost%s/api)\n", mockAddr, portSuffix(mockAddr))
	if err := srv.Run(ctx, mockAddr); err != nil {
		return fmt.Errorf("mock server: %w", err)
	}
	return nil
}

func portSuffix(addr string) string {
	if i := strings.LastIndex(addr, ":"); i >= 0 {
		return addr[i:]
	}
	return ""
}
