package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/typingfast/internal/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(filepath.Join(t.TempDir(), "nested", "typingfast.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = st.Close()
	})
	return st
}

func TestAuthRoundTrip(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	_, _, ok, err := st.LoadAuth(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	user := model.User{ID: 42, Username: "ada", Email: "ada@example.com"}
	require.NoError(t, st.SaveAuth(ctx, "tok-1", user))

	token, got, ok, err := st.LoadAuth(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "tok-1", token)
	assert.Equal(t, user, got)

	require.NoError(t, st.SaveAuth(ctx, "tok-2", user))
	token, _, _, err = st.LoadAuth(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tok-2", token)

	require.NoError(t, st.ClearAuth(ctx))
	require.NoError(t, st.ClearAuth(ctx))
	_, _, ok, err = st.LoadAuth(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLoadAuthRequiresBothEntries(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	_, err := st.db.ExecContext(ctx, `INSERT INTO kv (key, value) VALUES (?, ?)`, KeyToken, "orphan")
	require.NoError(t, err)

	_, _, ok, err := st.LoadAuth(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLoadAuthCorruptUser(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	_, err := st.db.ExecContext(ctx, `INSERT INTO kv (key, value) VALUES (?, ?), (?, ?)`, KeyToken, "t", KeyUser, "{not json")
	require.NoError(t, err)

	_, _, ok, err := st.LoadAuth(ctx)
	assert.Error(t, err)
	assert.False(t, ok)
}

func TestSaveAuthRollsBackOnSecondWrite(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	st := New(db)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO kv`).
		WithArgs(KeyToken, "tok").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO kv`).
		WithArgs(KeyUser, sqlmock.AnyArg()).
		WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	err = st.SaveAuth(context.Background(), "tok", model.User{ID: 1})
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveAuthCommits(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	st := New(db)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO kv`).WithArgs(KeyToken, "tok").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO kv`).WithArgs(KeyUser, `{"id":1,"username":"u","email":"e"}`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, st.SaveAuth(context.Background(), "tok", model.User{ID: 1, Username: "u", Email: "e"}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClearAuthError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`DELETE FROM kv`).WithArgs(KeyToken, KeyUser).WillReturnError(errors.New("locked"))
	assert.Error(t, New(db).ClearAuth(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResults(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	_, err := st.LastResult(ctx)
	assert.ErrorIs(t, err, ErrNoResults)

	base := time.Date(2024, 2, 1, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		_, err := st.InsertResult(ctx, model.LocalResult{
			FinishedAt: base.Add(time.Duration(i) * time.Minute),
			Words:      30,
			DurationS:  40 + i,
			Result: model.SessionResult{
				WPM:            50 + float64(i),
				Accuracy:       95,
				Errors:         i,
				CorrectedChars: 100,
				Source:         model.SourceRemote,
			},
		})
		require.NoError(t, err)
	}

	last, err := st.LastResult(ctx)
	require.NoError(t, err)
	assert.Equal(t, 52.0, last.Result.WPM)
	assert.Equal(t, model.SourceRemote, last.Result.Source)
	assert.True(t, base.Add(2*time.Minute).Equal(last.FinishedAt))

	all, err := st.ListResults(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
	assert.Equal(t, 40, all[2].DurationS)
}
