// Package settings manages the process-wide configuration singleton: the
// hourly rate, currency label, UI preferences, and the auto-logout horizon
// used by the stale-session reaper.
package settings

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/cozyhive/backend-pos/internal/common"
	"github.com/cozyhive/backend-pos/internal/events"
	"github.com/cozyhive/backend-pos/internal/store"
)

// Repo captures the persistence operations the settings service relies on.
type Repo interface {
	GetSettings(ctx context.Context) (store.Settings, error)
	UpdateSettings(ctx context.Context, cfg store.Settings) (store.Settings, error)
}

// Service reads and updates the settings singleton.
type Service struct {
	repo     Repo
	bus      *events.Bus
	validate *validator.Validate
}

// ServiceConfig groups Service dependencies.
type ServiceConfig struct {
	Repo Repo
	Bus  *events.Bus
}

// Settings is the client-facing payload. HourlyRate is minor units per hour.
type Settings struct {
	HourlyRate      int64     `json:"hourlyRate"`
	Currency        string    `json:"currency"`
	Theme           string    `json:"theme"`
	AutoLogoutHours int       `json:"autoLogoutHours"`
	EnableArabic    bool      `json:"enableArabic"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// UpdateInput carries the editable fields.
type UpdateInput struct {
	HourlyRate      int64  `json:"hourlyRate" validate:"gte=0"`
	Currency        string `json:"currency" validate:"required,min=1,max=8"`
	Theme           string `json:"theme" validate:"required,oneof=white dark"`
	AutoLogoutHours int    `json:"autoLogoutHours" validate:"gte=1,lte=48"`
	EnableArabic    bool   `json:"enableArabic"`
}

// NewService constructs a Service instance.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Repo == nil {
		return nil, errors.New("settings: repo is required")
	}
	return &Service{repo: cfg.Repo, bus: cfg.Bus, validate: validator.New()}, nil
}

// Get returns the current settings.
func (s *Service) Get(ctx context.Context) (Settings, error) {
	row, err := s.repo.GetSettings(ctx)
	if err != nil {
		return Settings{}, fmt.Errorf("get settings: %w", err)
	}
	return convert(row), nil
}

// Update replaces the settings singleton. Changing the hourly rate affects
// only sessions checked out afterwards; completed sessions keep their frozen
// totals.
func (s *Service) Update(ctx context.Context, input UpdateInput) (Settings, error) {
	input.Currency = strings.TrimSpace(input.Currency)
	input.Theme = strings.TrimSpace(input.Theme)
	if err := s.validate.Struct(input); err != nil {
		return Settings{}, common.NewAppError("VALIDATION_ERROR", "invalid settings payload", http.StatusBadRequest, err)
	}
	row, err := s.repo.UpdateSettings(ctx, store.Settings{
		HourlyRate:      input.HourlyRate,
		Currency:        input.Currency,
		Theme:           input.Theme,
		AutoLogoutHours: input.AutoLogoutHours,
		EnableArabic:    input.EnableArabic,
	})
	if err != nil {
		return Settings{}, fmt.Errorf("update settings: %w", err)
	}
	if s.bus != nil {
		if id, err := store.ToUUID("00000000-0000-0000-0000-000000000001"); err == nil {
			_, _ = s.bus.Emit(ctx, events.TopicSettingsUpdated, id, convert(row))
		}
	}
	return convert(row), nil
}

func convert(row store.Settings) Settings {
	return Settings{
		HourlyRate:      row.HourlyRate,
		Currency:        row.Currency,
		Theme:           row.Theme,
		AutoLogoutHours: row.AutoLogoutHours,
		EnableArabic:    row.EnableArabic,
		UpdatedAt:       store.TimeValue(row.UpdatedAt),
	}
}
