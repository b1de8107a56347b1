// Package worker hosts the background jobs that keep the floor state tidy:
// auto-closing sessions left open past the configured logout window, warming
// the daily summary cache, and pruning expired refresh-token sessions.
package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/cozyhive/backend-pos/internal/session"
	"github.com/cozyhive/backend-pos/internal/store"
	"github.com/cozyhive/backend-pos/internal/summary"
)

// Task type names registered with the asynq mux.
const (
	TypeSessionReap        = "session:reap"
	TypeSummaryWarm        = "summary:warm"
	TypeAuthSessionCleanup = "auth:session_cleanup"
)

// JobStore is the subset of store operations the jobs need directly.
type JobStore interface {
	GetSettings(ctx context.Context) (store.Settings, error)
	ListStaleActiveSessions(ctx context.Context, cutoff time.Time) ([]store.Session, error)
	DeleteExpiredAuthSessions(ctx context.Context, now time.Time) (int64, error)
}

// SessionCanceller cancels a session by id. Satisfied by *session.Service.
type SessionCanceller interface {
	Cancel(ctx context.Context, sessionID string) (session.View, error)
}

// Jobs bundles the dependencies shared by every background task handler.
type Jobs struct {
	Store    JobStore
	Sessions SessionCanceller
	Summary  *summary.Service
	Log      zerolog.Logger

	// Now is overridable in tests.
	Now func() time.Time
}

func (j *Jobs) now() time.Time {
	if j.Now != nil {
		return j.Now()
	}
	return time.Now()
}

// HandleSessionReap cancels active sessions whose entry time is older than the
// configured auto-logout window. Cancelling through the session service keeps
// the usual event emission, so dashboards see the change immediately.
func (j *Jobs) HandleSessionReap(ctx context.Context, _ *asynq.Task) error {
	cfg, err := j.Store.GetSettings(ctx)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}
	if cfg.AutoLogoutHours <= 0 {
		return nil
	}
	cutoff := j.now().Add(-time.Duration(cfg.AutoLogoutHours) * time.Hour)
	stale, err := j.Store.ListStaleActiveSessions(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("list stale sessions: %w", err)
	}
	for _, row := range stale {
		id := store.UUIDString(row.ID)
		if _, err := j.Sessions.Cancel(ctx, id); err != nil {
			// keep going; a conflict here just means someone checked out first
			j.Log.Warn().Err(err).Str("session_id", id).Msg("reap cancel failed")
			continue
		}
		j.Log.Info().Str("session_id", id).Str("name", row.Name).Msg("stale session cancelled")
	}
	if len(stale) > 0 {
		j.Log.Info().Int("count", len(stale)).Msg("session reap completed")
	}
	return nil
}

// HandleSummaryWarm recomputes today's summary and refreshes its cache entry.
func (j *Jobs) HandleSummaryWarm(ctx context.Context, _ *asynq.Task) error {
	if err := j.Summary.Warm(ctx, j.now()); err != nil {
		return fmt.Errorf("warm summary: %w", err)
	}
	return nil
}

// HandleAuthSessionCleanup deletes refresh-token sessions past their expiry.
func (j *Jobs) HandleAuthSessionCleanup(ctx context.Context, _ *asynq.Task) error {
	deleted, err := j.Store.DeleteExpiredAuthSessions(ctx, j.now())
	if err != nil {
		return fmt.Errorf("delete expired auth sessions: %w", err)
	}
	if deleted > 0 {
		j.Log.Info().Int64("count", deleted).Msg("expired auth sessions removed")
	}
	return nil
}

// AsynqLogger adapts zerolog to the asynq.Logger interface.
type AsynqLogger struct {
	Log zerolog.Logger
}

func (l AsynqLogger) Debug(args ...interface{}) { l.Log.Debug().Msg(fmt.Sprint(args...)) }
func (l AsynqLogger) Info(args ...interface{})  { l.Log.Info().Msg(fmt.Sprint(args...)) }
func (l AsynqLogger) Warn(args ...interface{})  { l.Log.Warn().Msg(fmt.Sprint(args...)) }
func (l AsynqLogger) Error(args ...interface{}) { l.Log.Error().Msg(fmt.Sprint(args...)) }
func (l AsynqLogger) Fatal(args ...interface{}) { l.Log.Fatal().Msg(fmt.Sprint(args...)) }
