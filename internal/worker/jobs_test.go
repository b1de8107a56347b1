package worker

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/cozyhive/backend-pos/internal/session"
	"github.com/cozyhive/backend-pos/internal/store"
)

type fakeJobStore struct {
	settings   store.Settings
	stale      []store.Session
	cutoffSeen time.Time
	deleted    int64
}

func (f *fakeJobStore) GetSettings(ctx context.Context) (store.Settings, error) {
	return f.settings, nil
}

func (f *fakeJobStore) ListStaleActiveSessions(ctx context.Context, cutoff time.Time) ([]store.Session, error) {
	f.cutoffSeen = cutoff
	return f.stale, nil
}

func (f *fakeJobStore) DeleteExpiredAuthSessions(ctx context.Context, now time.Time) (int64, error) {
	return f.deleted, nil
}

type fakeCanceller struct {
	cancelled []string
}

func (f *fakeCanceller) Cancel(ctx context.Context, sessionID string) (session.View, error) {
	f.cancelled = append(f.cancelled, sessionID)
	return session.View{ID: sessionID, Status: store.SessionCancelled}, nil
}

func newPgUUID(t *testing.T) pgtype.UUID {
	t.Helper()
	parsed := uuid.New()
	var id pgtype.UUID
	copy(id.Bytes[:], parsed[:])
	id.Valid = true
	return id
}

func TestSessionReapCancelsStaleSessions(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	first := newPgUUID(t)
	second := newPgUUID(t)
	fs := &fakeJobStore{
		settings: store.Settings{HourlyRate: 2500, AutoLogoutHours: 10},
		stale: []store.Session{
			{ID: first, Name: "Ali", Status: store.SessionActive},
			{ID: second, Name: "Mona", Status: store.SessionActive},
		},
	}
	canceller := &fakeCanceller{}
	jobs := &Jobs{
		Store:    fs,
		Sessions: canceller,
		Log:      zerolog.Nop(),
		Now:      func() time.Time { return now },
	}

	err := jobs.HandleSessionReap(context.Background(), asynq.NewTask(TypeSessionReap, nil))
	require.NoError(t, err)
	require.Equal(t, now.Add(-10*time.Hour), fs.cutoffSeen)
	require.Equal(t, []string{store.UUIDString(first), store.UUIDString(second)}, canceller.cancelled)
}

func TestSessionReapDisabledWhenZeroHours(t *testing.T) {
	fs := &fakeJobStore{settings: store.Settings{AutoLogoutHours: 0}}
	canceller := &fakeCanceller{}
	jobs := &Jobs{Store: fs, Sessions: canceller, Log: zerolog.Nop()}

	err := jobs.HandleSessionReap(context.Background(), asynq.NewTask(TypeSessionReap, nil))
	require.NoError(t, err)
	require.Empty(t, canceller.cancelled)
	require.True(t, fs.cutoffSeen.IsZero())
}

func TestAuthSessionCleanup(t *testing.T) {
	fs := &fakeJobStore{deleted: 3}
	jobs := &Jobs{Store: fs, Log: zerolog.Nop()}

	err := jobs.HandleAuthSessionCleanup(context.Background(), asynq.NewTask(TypeAuthSessionCleanup, nil))
	require.NoError(t, err)
}
