package settings

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/require"

	"github.com/cozyhive/backend-pos/internal/common"
	"github.com/cozyhive/backend-pos/internal/store"
)

type fakeRepo struct {
	current store.Settings
}

func (f *fakeRepo) GetSettings(context.Context) (store.Settings, error) {
	return f.current, nil
}

func (f *fakeRepo) UpdateSettings(_ context.Context, cfg store.Settings) (store.Settings, error) {
	cfg.UpdatedAt = pgtype.Timestamptz{Time: time.Now(), Valid: true}
	f.current = cfg
	return cfg, nil
}

func defaults() store.Settings {
	return store.Settings{
		HourlyRate:      2500,
		Currency:        "EGP",
		Theme:           "white",
		AutoLogoutHours: 10,
		EnableArabic:    false,
	}
}

func TestGetReturnsDefaults(t *testing.T) {
	svc, err := NewService(ServiceConfig{Repo: &fakeRepo{current: defaults()}})
	require.NoError(t, err)

	cfg, err := svc.Get(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(2500), cfg.HourlyRate)
	require.Equal(t, "EGP", cfg.Currency)
	require.Equal(t, "white", cfg.Theme)
	require.Equal(t, 10, cfg.AutoLogoutHours)
	require.False(t, cfg.EnableArabic)
}

func TestUpdateValidation(t *testing.T) {
	svc, err := NewService(ServiceConfig{Repo: &fakeRepo{current: defaults()}})
	require.NoError(t, err)
	ctx := context.Background()

	cases := []UpdateInput{
		{HourlyRate: -1, Currency: "EGP", Theme: "white", AutoLogoutHours: 10},
		{HourlyRate: 2500, Currency: "", Theme: "white", AutoLogoutHours: 10},
		{HourlyRate: 2500, Currency: "EGP", Theme: "purple", AutoLogoutHours: 10},
		{HourlyRate: 2500, Currency: "EGP", Theme: "white", AutoLogoutHours: 0},
	}
	for _, input := range cases {
		_, err := svc.Update(ctx, input)
		require.Error(t, err)
		var appErr *common.AppError
		require.True(t, errors.As(err, &appErr))
		require.Equal(t, "VALIDATION_ERROR", appErr.Code)
	}
}

func TestUpdatePersists(t *testing.T) {
	repo := &fakeRepo{current: defaults()}
	svc, err := NewService(ServiceConfig{Repo: repo})
	require.NoError(t, err)

	cfg, err := svc.Update(context.Background(), UpdateInput{
		HourlyRate:      3000,
		Currency:        "EGP",
		Theme:           "dark",
		AutoLogoutHours: 8,
		EnableArabic:    true,
	})
	require.NoError(t, err)
	require.Equal(t, int64(3000), cfg.HourlyRate)
	require.Equal(t, "dark", cfg.Theme)
	require.Equal(t, 8, cfg.AutoLogoutHours)
	require.True(t, cfg.EnableArabic)
	require.Equal(t, int64(3000), repo.current.HourlyRate)
}
