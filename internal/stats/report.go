package stats

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/verte-zerg/typingfast/internal/model"
)

// ReportSource provides the three dashboard reads.
type ReportSource interface {
	Profile(ctx context.Context) (model.Profile, error)
	Stats(ctx context.Context) (model.UserStats, error)
	AllHistory(ctx context.Context) ([]model.HistoryEntry, error)
}

// Report contains everything the dashboard renders.
type Report struct {
	Profile model.Profile
	Stats   model.UserStats
	History []model.HistoryEntry
}

// BuildReport fetches profile, stats and history concurrently. The first
// failure cancels the other reads and no partial report is returned.
func BuildReport(ctx context.Context, src ReportSource) (Report, error) {
	var (
		profile model.Profile
		userSt  model.UserStats
		history []model.HistoryEntry
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := src.Profile(gctx)
		if err != nil {
			return fmt.Errorf("load profile: %w", err)
		}
		profile = p
		return nil
	})
	g.Go(func() error {
		s, err := src.Stats(gctx)
		if err != nil {
			return fmt.Errorf("load stats: %w", err)
		}
		userSt = s
		return nil
	})
	g.Go(func() error {
		h, err := src.AllHistory(gctx)
		if err != nil {
			return fmt.Errorf("load history: %w", err)
		}
		history = h
		return nil
	})
	if err := g.Wait(); err != nil {
		return Report{}, err
	}
	return Report{Profile: profile, Stats: userSt, History: history}, nil
}
