// Package summary produces the end-of-day view over completed sessions:
// aggregate revenue split by payment method, plus a CSV export for
// bookkeeping. Cancelled sessions never contribute.
package summary

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/cozyhive/backend-pos/internal/obs"
	"github.com/cozyhive/backend-pos/internal/store"
)

// Repo captures the persistence operations the summary service relies on.
type Repo interface {
	ListCompletedBetween(ctx context.Context, from, to time.Time) ([]store.Session, error)
}

// Service provides cached access to daily aggregates.
type Service struct {
	Repo Repo
	R    *redis.Client
	TTL  time.Duration
	Now  func() time.Time
}

// Row is a single completed session in the daily report.
type Row struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	ExitTime        time.Time `json:"exitTime"`
	DurationMinutes int64     `json:"durationMinutes"`
	Subtotal        int64     `json:"subtotal"`
	Discount        int64     `json:"discount"`
	FinalAmount     int64     `json:"finalAmount"`
	PaymentMethod   string    `json:"paymentMethod"`
}

// Report aggregates one day of completed sessions.
type Report struct {
	Date            string           `json:"date"`
	SessionCount    int              `json:"sessionCount"`
	TotalRevenue    int64            `json:"totalRevenue"`
	TotalDiscount   int64            `json:"totalDiscount"`
	ByPaymentMethod map[string]int64 `json:"byPaymentMethod"`
	Sessions        []Row            `json:"sessions"`
}

func (s *Service) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Daily returns the report for the calendar day containing the provided
// instant, served from cache when warm.
func (s *Service) Daily(ctx context.Context, day time.Time) (Report, error) {
	if s == nil || s.Repo == nil {
		return Report{}, fmt.Errorf("summary service not configured")
	}
	key := cacheKey(day)
	if report, ok := s.fromCache(ctx, key); ok {
		return report, nil
	}
	report, err := s.compute(ctx, day)
	if err != nil {
		return Report{}, err
	}
	s.toCache(ctx, key, report)
	return report, nil
}

// Warm recomputes the report for the given day and refreshes the cache,
// bypassing any stale entry. Used by the background warmer.
func (s *Service) Warm(ctx context.Context, day time.Time) error {
	report, err := s.compute(ctx, day)
	if err != nil {
		return err
	}
	s.toCache(ctx, cacheKey(day), report)
	return nil
}

// ExportCSV streams the day's completed sessions as CSV, most recent
// checkout first. Amounts are written in major units with two decimals.
func (s *Service) ExportCSV(ctx context.Context, day time.Time, w io.Writer) error {
	from, to := dayBounds(day)
	rows, err := s.Repo.ListCompletedBetween(ctx, from, to)
	if err != nil {
		return fmt.Errorf("list completed sessions: %w", err)
	}

	cw := csv.NewWriter(w)
	header := []string{"Customer", "Checkout Time", "Duration (Minutes)", "Subtotal", "Discount", "Final Amount", "Payment Method"}
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, row := range rows {
		record := []string{
			row.Name,
			store.TimeValue(row.ExitTime).Format(time.RFC3339),
			strconv.FormatInt(row.DurationMinutes.Int64, 10),
			formatMoney(row.TotalCost.Int64),
			formatMoney(row.Discount.Int64),
			formatMoney(row.FinalAmount.Int64),
			row.PaymentMethod.String,
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return err
	}
	if obs.SummaryExportsTotal != nil {
		obs.SummaryExportsTotal.Inc()
	}
	return nil
}

func (s *Service) compute(ctx context.Context, day time.Time) (Report, error) {
	from, to := dayBounds(day)
	rows, err := s.Repo.ListCompletedBetween(ctx, from, to)
	if err != nil {
		return Report{}, fmt.Errorf("list completed sessions: %w", err)
	}
	report := Report{
		Date:            from.Format("2006-01-02"),
		ByPaymentMethod: map[string]int64{},
		Sessions:        make([]Row, 0, len(rows)),
	}
	for _, row := range rows {
		report.SessionCount++
		report.TotalRevenue += row.FinalAmount.Int64
		report.TotalDiscount += row.Discount.Int64
		report.ByPaymentMethod[row.PaymentMethod.String] += row.FinalAmount.Int64
		report.Sessions = append(report.Sessions, Row{
			ID:              store.UUIDString(row.ID),
			Name:            row.Name,
			ExitTime:        store.TimeValue(row.ExitTime),
			DurationMinutes: row.DurationMinutes.Int64,
			Subtotal:        row.TotalCost.Int64,
			Discount:        row.Discount.Int64,
			FinalAmount:     row.FinalAmount.Int64,
			PaymentMethod:   row.PaymentMethod.String,
		})
	}
	return report, nil
}

func (s *Service) fromCache(ctx context.Context, key string) (Report, bool) {
	if s.R == nil || s.TTL <= 0 {
		return Report{}, false
	}
	data, err := s.R.Get(ctx, key).Bytes()
	if err != nil {
		return Report{}, false
	}
	var report Report
	if err := json.Unmarshal(data, &report); err != nil {
		return Report{}, false
	}
	return report, true
}

func (s *Service) toCache(ctx context.Context, key string, report Report) {
	if s.R == nil || s.TTL <= 0 {
		return
	}
	data, err := json.Marshal(report)
	if err != nil {
		return
	}
	_ = s.R.Set(ctx, key, data, s.TTL).Err()
}

func cacheKey(day time.Time) string {
	return "summary:daily:" + day.Format("2006-01-02")
}

func dayBounds(day time.Time) (time.Time, time.Time) {
	from := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	return from, from.AddDate(0, 0, 1)
}

func formatMoney(minor int64) string {
	sign := ""
	if minor < 0 {
		sign = "-"
		minor = -minor
	}
	return fmt.Sprintf("%s%d.%02d", sign, minor/100, minor%100)
}
