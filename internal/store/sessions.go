package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/cozyhive/backend-pos/internal/ledger"
)

const sessionColumns = `id, name, entry_time, exit_time, status, items,
	total_cost, discount, final_amount, payment_method, duration_minutes,
	created_at, updated_at`

func scanSession(row pgx.Row) (Session, error) {
	var (
		s   Session
		raw []byte
	)
	err := row.Scan(
		&s.ID, &s.Name, &s.EntryTime, &s.ExitTime, &s.Status, &raw,
		&s.TotalCost, &s.Discount, &s.FinalAmount, &s.PaymentMethod, &s.DurationMinutes,
		&s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return Session{}, err
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &s.Items); err != nil {
			return Session{}, fmt.Errorf("decode session items: %w", err)
		}
	}
	if s.Items == nil {
		s.Items = []ledger.Line{}
	}
	return s, nil
}

// CreateSession inserts a new active session with an empty item list.
func (s *Store) CreateSession(ctx context.Context, name string, entryTime time.Time) (Session, error) {
	row := s.Pool.QueryRow(ctx, `
		INSERT INTO sessions (name, entry_time, status, items)
		VALUES ($1, $2, $3, '[]'::jsonb)
		RETURNING `+sessionColumns,
		name, entryTime, SessionActive,
	)
	return scanSession(row)
}

// GetSessionByID loads a single session.
func (s *Store) GetSessionByID(ctx context.Context, id pgtype.UUID) (Session, error) {
	row := s.Pool.QueryRow(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE id = $1`, id)
	return scanSession(row)
}

// ListActiveSessions returns all active sessions ordered by entry time.
func (s *Store) ListActiveSessions(ctx context.Context) ([]Session, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT `+sessionColumns+` FROM sessions
		WHERE status = $1
		ORDER BY entry_time ASC`, SessionActive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	sessions := make([]Session, 0)
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, sess)
	}
	return sessions, rows.Err()
}

// UpdateSessionItems replaces the item document of an active session. The
// status guard makes terminal sessions immutable at the store level; the
// caller distinguishes missing from non-active when no row matches.
func (s *Store) UpdateSessionItems(ctx context.Context, id pgtype.UUID, items []ledger.Line) (bool, error) {
	if items == nil {
		items = []ledger.Line{}
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return false, fmt.Errorf("encode session items: %w", err)
	}
	tag, err := s.Pool.Exec(ctx, `
		UPDATE sessions SET items = $2, updated_at = now()
		WHERE id = $1 AND status = $3`,
		id, raw, SessionActive,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// FinalizeParams carries the billing fields frozen at checkout.
type FinalizeParams struct {
	ExitTime        time.Time
	TotalCost       int64
	Discount        int64
	FinalAmount     int64
	PaymentMethod   string
	DurationMinutes int64
}

// FinalizeSession transitions an active session to completed and freezes its
// billing fields in one conditional update.
func (s *Store) FinalizeSession(ctx context.Context, id pgtype.UUID, p FinalizeParams) (bool, error) {
	tag, err := s.Pool.Exec(ctx, `
		UPDATE sessions SET
			status = $2, exit_time = $3, total_cost = $4, discount = $5,
			final_amount = $6, payment_method = $7, duration_minutes = $8,
			updated_at = now()
		WHERE id = $1 AND status = $9`,
		id, SessionCompleted, p.ExitTime, p.TotalCost, p.Discount,
		p.FinalAmount, p.PaymentMethod, p.DurationMinutes, SessionActive,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// CancelSession transitions an active session to cancelled. Billing fields are
// left unset.
func (s *Store) CancelSession(ctx context.Context, id pgtype.UUID, exitTime time.Time) (bool, error) {
	tag, err := s.Pool.Exec(ctx, `
		UPDATE sessions SET status = $2, exit_time = $3, updated_at = now()
		WHERE id = $1 AND status = $4`,
		id, SessionCancelled, exitTime, SessionActive,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// ListCompletedBetween returns completed sessions whose exit time falls inside
// [from, to), ordered by exit time descending. Cancelled sessions never appear.
func (s *Store) ListCompletedBetween(ctx context.Context, from, to time.Time) ([]Session, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT `+sessionColumns+` FROM sessions
		WHERE status = $1 AND exit_time >= $2 AND exit_time < $3
		ORDER BY exit_time DESC`, SessionCompleted, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	sessions := make([]Session, 0)
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, sess)
	}
	return sessions, rows.Err()
}

// ListStaleActiveSessions returns active sessions whose entry time predates the
// cutoff. Used by the background reaper.
func (s *Store) ListStaleActiveSessions(ctx context.Context, cutoff time.Time) ([]Session, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT `+sessionColumns+` FROM sessions
		WHERE status = $1 AND entry_time < $2
		ORDER BY entry_time ASC`, SessionActive, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	sessions := make([]Session, 0)
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, sess)
	}
	return sessions, rows.Err()
}

// ClearSessions deletes every session in a single transaction and reports how
// many rows were removed.
func (s *Store) ClearSessions(ctx context.Context) (int64, error) {
	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()
	tag, err := tx.Exec(ctx, `DELETE FROM sessions`)
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
