package store

import "context"

// GetSettings loads the configuration singleton. The migration seeds the row,
// so a missing row surfaces as pgx.ErrNoRows and indicates a broken schema.
func (s *Store) GetSettings(ctx context.Context) (Settings, error) {
	var cfg Settings
	err := s.Pool.QueryRow(ctx, `
		SELECT hourly_rate, currency, theme, auto_logout_hours, enable_arabic, updated_at
		FROM settings WHERE id = 1`).Scan(
		&cfg.HourlyRate, &cfg.Currency, &cfg.Theme, &cfg.AutoLogoutHours, &cfg.EnableArabic, &cfg.UpdatedAt,
	)
	return cfg, err
}

// UpdateSettings replaces the configuration singleton.
func (s *Store) UpdateSettings(ctx context.Context, cfg Settings) (Settings, error) {
	row := s.Pool.QueryRow(ctx, `
		UPDATE settings SET
			hourly_rate = $1, currency = $2, theme = $3,
			auto_logout_hours = $4, enable_arabic = $5, updated_at = now()
		WHERE id = 1
		RETURNING hourly_rate, currency, theme, auto_logout_hours, enable_arabic, updated_at`,
		cfg.HourlyRate, cfg.Currency, cfg.Theme, cfg.AutoLogoutHours, cfg.EnableArabic,
	)
	var out Settings
	err := row.Scan(&out.HourlyRate, &out.Currency, &out.Theme, &out.AutoLogoutHours, &out.EnableArabic, &out.UpdatedAt)
	return out, err
}
