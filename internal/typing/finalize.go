package typing

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/verte-zerg/typingfast/internal/model"
	"github.com/verte-zerg/typingfast/internal/stats"
)

// Scorer scores a finished transcript authoritatively.
type Scorer interface {
	Submit(ctx context.Context, transcript model.Transcript) (model.SessionResult, error)
}

// Transcript assembles the submission for a session. The duration is in
// whole seconds, truncated.
func (s *Session) Transcript() model.Transcript {
	return model.Transcript{
		OriginalText: s.Text(),
		TypedText:    s.Typed(),
		Duration:     int(s.Elapsed(s.endedAt) / time.Second),
	}
}

// Finalize scores a finished session. The backend result is preferred; any
// scorer failure falls back to LocalResult, so a result is always produced.
func Finalize(ctx context.Context, scorer Scorer, s *Session, logger *zap.Logger) model.SessionResult {
	if logger == nil {
		logger = zap.NewNop()
	}
	transcript := s.Transcript()
	if scorer != nil {
		result, err := scorer.Submit(ctx, transcript)
		if err == nil {
			result.Source = model.SourceRemote
			return result
		}
		logger.Warn("submit result failed, scoring locally",
			zap.Error(err),
			zap.Int("duration_s", transcript.Duration),
			zap.Int("chars", s.Len()),
		)
	}
	return LocalResult(s, transcript.Duration)
}

// LocalResult computes the result of a session from its cells with the
// live-metrics formulas over durationS whole seconds, rounded to two
// decimal places.
func LocalResult(s *Session, durationS int) model.SessionResult {
	correct, incorrect := s.counts()
	return model.SessionResult{
		WPM:            stats.Round2(stats.WPM(correct, time.Duration(durationS)*time.Second)),
		Accuracy:       stats.Round2(stats.Accuracy(correct, s.cursor)),
		Errors:         incorrect,
		CorrectedChars: correct,
		Source:         model.SourceLocal,
	}
}
