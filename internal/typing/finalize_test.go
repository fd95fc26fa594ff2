package typing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/typingfast/internal/model"
)

type stubScorer struct {
	got    model.Transcript
	result model.SessionResult
	err    error
}

func (s *stubScorer) Submit(_ context.Context, transcript model.Transcript) (model.SessionResult, error) {
	s.got = transcript
	return s.result, s.err
}

func finishedSession(t *testing.T, text, typed string, took time.Duration) *Session {
	t.Helper()
	s := New(text)
	runes := []rune(typed)
	for i, r := range runes {
		at := t0
		if i == len(runes)-1 {
			at = t0.Add(took)
		}
		s.Type(r, at)
	}
	require.Equal(t, Finished, s.State())
	return s
}

func TestTranscriptIncludesFinalChar(t *testing.T) {
	s := finishedSession(t, "cat", "cxt", 2500*time.Millisecond)
	tr := s.Transcript()
	assert.Equal(t, "cat", tr.OriginalText)
	assert.Equal(t, "cxt", tr.TypedText)
	assert.Equal(t, 2, tr.Duration)
}

func TestFinalizePrefersRemote(t *testing.T) {
	s := finishedSession(t, "cat", "cat", time.Second)
	scorer := &stubScorer{result: model.SessionResult{WPM: 40, Accuracy: 99, Errors: 0, CorrectedChars: 3}}

	res := Finalize(context.Background(), scorer, s, nil)
	assert.Equal(t, model.SourceRemote, res.Source)
	assert.Equal(t, 40.0, res.WPM)
	assert.Equal(t, "cat", scorer.got.TypedText)
	assert.Equal(t, 1, scorer.got.Duration)
}

func TestFinalizeFallsBackOnError(t *testing.T) {
	s := finishedSession(t, "cat", "cxt", time.Second)
	scorer := &stubScorer{err: errors.New("connection refused")}

	res := Finalize(context.Background(), scorer, s, nil)
	assert.Equal(t, model.SourceLocal, res.Source)
	assert.Equal(t, 1, res.Errors)
	assert.Equal(t, 2, res.CorrectedChars)
	assert.Equal(t, 66.67, res.Accuracy)
	assert.Equal(t, 24.0, res.WPM)
}

func TestFinalizeWithoutScorer(t *testing.T) {
	s := finishedSession(t, "cat", "cat", time.Second)
	res := Finalize(context.Background(), nil, s, nil)
	assert.Equal(t, model.SourceLocal, res.Source)
	assert.Equal(t, 36.0, res.WPM)
	assert.Equal(t, 100.0, res.Accuracy)
}

func TestLocalResultZeroDuration(t *testing.T) {
	s := finishedSession(t, "cat", "cat", 400*time.Millisecond)
	res := LocalResult(s, s.Transcript().Duration)
	assert.Zero(t, res.WPM)
	assert.Equal(t, 100.0, res.Accuracy)
}

func TestLocalResultIsDeterministic(t *testing.T) {
	s := finishedSession(t, "hello world", "hellp world", 7*time.Second)
	a := LocalResult(s, 7)
	b := LocalResult(s, 7)
	assert.Equal(t, a, b)
	assert.Equal(t, 1, a.Errors)
	assert.Equal(t, 90.91, a.Accuracy)
	assert.Equal(t, 17.14, a.WPM)
}
