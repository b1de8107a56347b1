package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const userColumns = `id, email, password_hash, role, created_at, updated_at`

func scanUser(row pgx.Row) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

// CreateUser inserts a staff account. New accounts default to the cashier role.
func (s *Store) CreateUser(ctx context.Context, email, passwordHash, role string) (User, error) {
	if role == "" {
		role = RoleCashier
	}
	row := s.Pool.QueryRow(ctx, `
		INSERT INTO users (email, password_hash, role)
		VALUES ($1, $2, $3)
		RETURNING `+userColumns, email, passwordHash, role)
	return scanUser(row)
}

// GetUserByEmail loads a user by normalized email.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (User, error) {
	row := s.Pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	return scanUser(row)
}

// GetUserByID loads a user by id.
func (s *Store) GetUserByID(ctx context.Context, id pgtype.UUID) (User, error) {
	row := s.Pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

// CreateAuthSession persists a refresh-token session.
func (s *Store) CreateAuthSession(ctx context.Context, userID pgtype.UUID, hashedToken, userAgent, ip string, expiresAt time.Time) (AuthSession, error) {
	row := s.Pool.QueryRow(ctx, `
		INSERT INTO auth_sessions (user_id, refresh_token, user_agent, ip, expires_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, user_id, refresh_token, user_agent, ip, expires_at, created_at`,
		userID, hashedToken, ToText(userAgent), ToText(ip), expiresAt)
	var as AuthSession
	err := row.Scan(&as.ID, &as.UserID, &as.RefreshToken, &as.UserAgent, &as.IP, &as.ExpiresAt, &as.CreatedAt)
	return as, err
}

// GetAuthSessionByToken loads a refresh session by hashed token.
func (s *Store) GetAuthSessionByToken(ctx context.Context, hashedToken string) (AuthSession, error) {
	row := s.Pool.QueryRow(ctx, `
		SELECT id, user_id, refresh_token, user_agent, ip, expires_at, created_at
		FROM auth_sessions WHERE refresh_token = $1`, hashedToken)
	var as AuthSession
	err := row.Scan(&as.ID, &as.UserID, &as.RefreshToken, &as.UserAgent, &as.IP, &as.ExpiresAt, &as.CreatedAt)
	return as, err
}

// RotateAuthSessionToken swaps the refresh token and extends the expiry.
func (s *Store) RotateAuthSessionToken(ctx context.Context, id pgtype.UUID, hashedToken string, expiresAt time.Time) error {
	_, err := s.Pool.Exec(ctx, `
		UPDATE auth_sessions SET refresh_token = $2, expires_at = $3
		WHERE id = $1`, id, hashedToken, expiresAt)
	return err
}

// DeleteAuthSessionByToken revokes a refresh session.
func (s *Store) DeleteAuthSessionByToken(ctx context.Context, hashedToken string) error {
	_, err := s.Pool.Exec(ctx, `DELETE FROM auth_sessions WHERE refresh_token = $1`, hashedToken)
	return err
}

// DeleteExpiredAuthSessions removes refresh sessions past their expiry.
func (s *Store) DeleteExpiredAuthSessions(ctx context.Context, now time.Time) (int64, error) {
	tag, err := s.Pool.Exec(ctx, `DELETE FROM auth_sessions WHERE expires_at < $1`, now)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
