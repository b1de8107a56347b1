package auth

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/require"

	"github.com/cozyhive/backend-pos/internal/common"
	"github.com/cozyhive/backend-pos/internal/store"
)

type fakeRepo struct {
	usersByEmail map[string]store.User
	usersByID    map[string]store.User
	sessions     map[string]store.AuthSession
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		usersByEmail: map[string]store.User{},
		usersByID:    map[string]store.User{},
		sessions:     map[string]store.AuthSession{},
	}
}

func (f *fakeRepo) CreateUser(_ context.Context, email, passwordHash, role string) (store.User, error) {
	id := newPgUUID()
	now := pgNow()
	u := store.User{ID: id, Email: email, PasswordHash: passwordHash, Role: role, CreatedAt: now, UpdatedAt: now}
	f.usersByEmail[email] = u
	f.usersByID[store.UUIDString(id)] = u
	return u, nil
}

func (f *fakeRepo) GetUserByEmail(_ context.Context, email string) (store.User, error) {
	u, ok := f.usersByEmail[email]
	if !ok {
		return store.User{}, pgx.ErrNoRows
	}
	return u, nil
}

func (f *fakeRepo) GetUserByID(_ context.Context, id pgtype.UUID) (store.User, error) {
	u, ok := f.usersByID[store.UUIDString(id)]
	if !ok {
		return store.User{}, pgx.ErrNoRows
	}
	return u, nil
}

func (f *fakeRepo) CreateAuthSession(_ context.Context, userID pgtype.UUID, hashedToken, userAgent, ip string, expiresAt time.Time) (store.AuthSession, error) {
	s := store.AuthSession{
		ID:           newPgUUID(),
		UserID:       userID,
		RefreshToken: hashedToken,
		ExpiresAt:    pgtype.Timestamptz{Time: expiresAt, Valid: true},
	}
	f.sessions[hashedToken] = s
	return s, nil
}

func (f *fakeRepo) GetAuthSessionByToken(_ context.Context, hashedToken string) (store.AuthSession, error) {
	s, ok := f.sessions[hashedToken]
	if !ok {
		return store.AuthSession{}, pgx.ErrNoRows
	}
	return s, nil
}

func (f *fakeRepo) RotateAuthSessionToken(_ context.Context, id pgtype.UUID, hashedToken string, expiresAt time.Time) error {
	for key, s := range f.sessions {
		if s.ID == id {
			delete(f.sessions, key)
			s.RefreshToken = hashedToken
			s.ExpiresAt = pgtype.Timestamptz{Time: expiresAt, Valid: true}
			f.sessions[hashedToken] = s
			return nil
		}
	}
	return pgx.ErrNoRows
}

func (f *fakeRepo) DeleteAuthSessionByToken(_ context.Context, hashedToken string) error {
	delete(f.sessions, hashedToken)
	return nil
}

func newPgUUID() pgtype.UUID {
	raw := uuid.New()
	var id pgtype.UUID
	copy(id.Bytes[:], raw[:])
	id.Valid = true
	return id
}

func pgNow() pgtype.Timestamptz {
	return pgtype.Timestamptz{Time: time.Now(), Valid: true}
}

func newTestService(t *testing.T, repo Repo) *Service {
	t.Helper()
	svc, err := NewService(Config{Repo: repo, Secret: "test-secret"})
	require.NoError(t, err)
	return svc
}

func seedUser(t *testing.T, repo *fakeRepo, email, password, role string) store.User {
	t.Helper()
	hash, err := argon2id.CreateHash(password, argon2id.DefaultParams)
	require.NoError(t, err)
	u, err := repo.CreateUser(context.Background(), email, hash, role)
	require.NoError(t, err)
	return u
}

func TestRegisterValidation(t *testing.T) {
	svc := newTestService(t, newFakeRepo())

	_, err := svc.Register(context.Background(), "", "longenough")
	requireAppErr(t, err, "VALIDATION_ERROR")

	_, err = svc.Register(context.Background(), "a@b.c", "short")
	requireAppErr(t, err, "VALIDATION_ERROR")
}

func TestRegisterDefaultsToCashier(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(t, repo)

	user, err := svc.Register(context.Background(), "  Staff@Example.COM ", "supersecret")
	require.NoError(t, err)
	require.Equal(t, "staff@example.com", user.Email)
	require.Equal(t, store.RoleCashier, user.Role)
}

func TestLoginIssuesTokensWithRoleClaim(t *testing.T) {
	repo := newFakeRepo()
	seedUser(t, repo, "admin@example.com", "supersecret", store.RoleAdmin)
	svc := newTestService(t, repo)

	result, err := svc.Login(context.Background(), "admin@example.com", "supersecret", "ua", "10.0.0.1")
	require.NoError(t, err)
	require.NotEmpty(t, result.AccessToken)
	require.NotEmpty(t, result.RefreshToken)

	identity, err := svc.ParseAccessToken(result.AccessToken)
	require.NoError(t, err)
	require.Equal(t, result.User.ID, identity.UserID)
	require.Equal(t, store.RoleAdmin, identity.Role)
}

func TestLoginWrongPassword(t *testing.T) {
	repo := newFakeRepo()
	seedUser(t, repo, "admin@example.com", "supersecret", store.RoleAdmin)
	svc := newTestService(t, repo)

	_, err := svc.Login(context.Background(), "admin@example.com", "wrong", "", "")
	requireAppErr(t, err, "UNAUTHORIZED")
}

func TestRefreshRotatesToken(t *testing.T) {
	repo := newFakeRepo()
	seedUser(t, repo, "staff@example.com", "supersecret", store.RoleCashier)
	svc := newTestService(t, repo)

	login, err := svc.Login(context.Background(), "staff@example.com", "supersecret", "", "")
	require.NoError(t, err)

	refreshed, err := svc.Refresh(context.Background(), login.RefreshToken)
	require.NoError(t, err)
	require.NotEqual(t, login.RefreshToken, refreshed.RefreshToken)

	// The old token must no longer be accepted.
	_, err = svc.Refresh(context.Background(), login.RefreshToken)
	requireAppErr(t, err, "UNAUTHORIZED")

	// The rotated token still works.
	_, err = svc.Refresh(context.Background(), refreshed.RefreshToken)
	require.NoError(t, err)
}

func TestRefreshExpiredSessionRejected(t *testing.T) {
	repo := newFakeRepo()
	seedUser(t, repo, "staff@example.com", "supersecret", store.RoleCashier)
	svc := newTestService(t, repo)

	login, err := svc.Login(context.Background(), "staff@example.com", "supersecret", "", "")
	require.NoError(t, err)

	svc.WithNow(func() time.Time { return time.Now().Add(60 * 24 * time.Hour) })
	_, err = svc.Refresh(context.Background(), login.RefreshToken)
	requireAppErr(t, err, "UNAUTHORIZED")
}

func TestParseAccessTokenExpired(t *testing.T) {
	repo := newFakeRepo()
	seedUser(t, repo, "staff@example.com", "supersecret", store.RoleCashier)
	svc := newTestService(t, repo)

	login, err := svc.Login(context.Background(), "staff@example.com", "supersecret", "", "")
	require.NoError(t, err)

	svc.WithNow(func() time.Time { return time.Now().Add(time.Hour) })
	_, err = svc.ParseAccessToken(login.AccessToken)
	requireAppErr(t, err, "UNAUTHORIZED")
}

func TestParseAccessTokenGarbage(t *testing.T) {
	svc := newTestService(t, newFakeRepo())
	for _, token := range []string{"", "   ", "not.a.token", strings.Repeat("x", 64)} {
		if _, err := svc.ParseAccessToken(token); err == nil {
			t.Fatalf("expected error for token %q", token)
		}
	}
}

func requireAppErr(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var appErr *common.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %v", err)
	require.Equal(t, code, appErr.Code)
}
