// Package session implements the lifecycle of a customer visit: start, item
// adds and edits while active, and the terminal checkout/cancel transitions
// that freeze or discard billing.
package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/cozyhive/backend-pos/internal/billing"
	"github.com/cozyhive/backend-pos/internal/common"
	"github.com/cozyhive/backend-pos/internal/events"
	"github.com/cozyhive/backend-pos/internal/ledger"
	"github.com/cozyhive/backend-pos/internal/obs"
	"github.com/cozyhive/backend-pos/internal/store"
)

// Repo captures the persistence operations the session service relies on.
type Repo interface {
	CreateSession(ctx context.Context, name string, entryTime time.Time) (store.Session, error)
	GetSessionByID(ctx context.Context, id pgtype.UUID) (store.Session, error)
	ListActiveSessions(ctx context.Context) ([]store.Session, error)
	UpdateSessionItems(ctx context.Context, id pgtype.UUID, items []ledger.Line) (bool, error)
	FinalizeSession(ctx context.Context, id pgtype.UUID, p store.FinalizeParams) (bool, error)
	CancelSession(ctx context.Context, id pgtype.UUID, exitTime time.Time) (bool, error)
	ClearSessions(ctx context.Context) (int64, error)
	GetItemByID(ctx context.Context, id pgtype.UUID) (store.Item, error)
	GetSettings(ctx context.Context) (store.Settings, error)
}

// Locker serialises checkouts per session.
type Locker interface {
	WithLock(ctx context.Context, key string, ttl time.Duration, fn func(context.Context) error) error
}

// Service orchestrates session lifecycle, billing, and event emission.
type Service struct {
	repo    Repo
	bus     *events.Bus
	locker  Locker
	lockTTL time.Duration

	// Now is the time source; tests override it for deterministic bills.
	Now func() time.Time
}

// ServiceConfig groups Service dependencies.
type ServiceConfig struct {
	Repo    Repo
	Bus     *events.Bus
	Locker  Locker
	LockTTL time.Duration
}

// Bill is the computed money breakdown returned with every session view. For
// active sessions it is a live preview; for completed ones it echoes the
// frozen values.
type Bill struct {
	TimeCost        int64 `json:"timeCost"`
	ItemsCost       int64 `json:"itemsCost"`
	Subtotal        int64 `json:"subtotal"`
	Discount        int64 `json:"discount"`
	FinalAmount     int64 `json:"finalAmount"`
	DurationMinutes int64 `json:"durationMinutes"`
}

// View is the client-facing session payload.
type View struct {
	ID            string        `json:"id"`
	Name          string        `json:"name"`
	EntryTime     time.Time     `json:"entryTime"`
	ExitTime      *time.Time    `json:"exitTime,omitempty"`
	Status        string        `json:"status"`
	Items         []ledger.Line `json:"items"`
	PaymentMethod string        `json:"paymentMethod,omitempty"`
	Bill          *Bill         `json:"bill,omitempty"`
}

// CheckoutInput carries the terminal checkout parameters.
type CheckoutInput struct {
	Discount      int64  `json:"discount"`
	PaymentMethod string `json:"paymentMethod"`
}

// NewService constructs a Service instance.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Repo == nil {
		return nil, errors.New("session: repo is required")
	}
	lockTTL := cfg.LockTTL
	if lockTTL <= 0 {
		lockTTL = 10 * time.Second
	}
	return &Service{
		repo:    cfg.Repo,
		bus:     cfg.Bus,
		locker:  cfg.Locker,
		lockTTL: lockTTL,
		Now:     time.Now,
	}, nil
}

// Start opens a new session for the named customer.
func (s *Service) Start(ctx context.Context, name string) (View, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return View{}, common.NewAppError("VALIDATION_ERROR", "customer name is required", http.StatusBadRequest, nil)
	}
	row, err := s.repo.CreateSession(ctx, name, s.Now())
	if err != nil {
		return View{}, fmt.Errorf("create session: %w", err)
	}
	if obs.SessionsStartedTotal != nil {
		obs.SessionsStartedTotal.Inc()
	}
	s.emit(ctx, events.TopicSessionStarted, row.ID, map[string]any{
		"id":   store.UUIDString(row.ID),
		"name": row.Name,
	})
	return s.view(ctx, row)
}

// Get returns a single session, with a live bill preview when still active.
func (s *Service) Get(ctx context.Context, id string) (View, error) {
	row, err := s.load(ctx, id)
	if err != nil {
		return View{}, err
	}
	return s.view(ctx, row)
}

// ListActive returns all open sessions ordered by entry time, each with a
// live bill preview.
func (s *Service) ListActive(ctx context.Context) ([]View, error) {
	rows, err := s.repo.ListActiveSessions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list active sessions: %w", err)
	}
	rate, err := s.hourlyRate(ctx)
	if err != nil {
		return nil, err
	}
	views := make([]View, 0, len(rows))
	for _, row := range rows {
		views = append(views, s.viewWithRate(row, rate))
	}
	return views, nil
}

// AddItem appends qty of a catalog item to an active session. The item's name
// and price are copied onto the line, so later catalog edits leave the
// session's bill untouched.
func (s *Service) AddItem(ctx context.Context, sessionID, itemID string, qty int) (View, error) {
	row, err := s.load(ctx, sessionID)
	if err != nil {
		return View{}, err
	}
	if row.Status != store.SessionActive {
		return View{}, errNotActive()
	}

	pgItemID, err := store.ToUUID(itemID)
	if err != nil {
		return View{}, common.NewAppError("VALIDATION_ERROR", "invalid item id", http.StatusBadRequest, err)
	}
	item, err := s.repo.GetItemByID(ctx, pgItemID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return View{}, common.NewAppError("NOT_FOUND", "item not found", http.StatusNotFound, err)
		}
		return View{}, fmt.Errorf("get item: %w", err)
	}

	updated, err := ledger.AddLine(row.Items, store.UUIDString(item.ID), item.Name, item.Price, qty)
	if err != nil {
		if errors.Is(err, ledger.ErrInvalidQuantity) {
			return View{}, common.NewAppError("INVALID_QUANTITY", "quantity must be at least 1", http.StatusBadRequest, err)
		}
		return View{}, err
	}

	if err := s.saveItems(ctx, row.ID, updated); err != nil {
		return View{}, err
	}
	row.Items = updated
	s.emit(ctx, events.TopicSessionItemAdded, row.ID, map[string]any{
		"sessionId": store.UUIDString(row.ID),
		"itemId":    store.UUIDString(item.ID),
		"quantity":  qty,
	})
	return s.view(ctx, row)
}

// LineEdit adjusts the quantity of one existing line. Zero or negative
// quantities remove the line.
type LineEdit struct {
	ItemID   string `json:"itemId"`
	Quantity int    `json:"quantity"`
}

// EditItems reconciles a bulk quantity edit against the session's lines.
// Unknown item ids are rejected; new items must go through AddItem. Saving an
// identical list is a no-op.
func (s *Service) EditItems(ctx context.Context, sessionID string, edits []LineEdit) (View, error) {
	row, err := s.load(ctx, sessionID)
	if err != nil {
		return View{}, err
	}
	if row.Status != store.SessionActive {
		return View{}, errNotActive()
	}

	byID := make(map[string]ledger.Line, len(row.Items))
	for _, line := range row.Items {
		byID[line.ItemID] = line
	}
	edited := make([]ledger.Line, 0, len(edits))
	for _, edit := range edits {
		line, ok := byID[edit.ItemID]
		if !ok {
			// Leave the unknown id in place for ApplyEdits to reject.
			edited = append(edited, ledger.Line{ItemID: edit.ItemID, Quantity: edit.Quantity})
			continue
		}
		line.Quantity = edit.Quantity
		edited = append(edited, line)
	}

	updated, err := ledger.ApplyEdits(row.Items, edited)
	if err != nil {
		if errors.Is(err, ledger.ErrUnknownLineItem) {
			return View{}, common.NewAppError("UNKNOWN_LINE_ITEM", "edit references an item not on the session", http.StatusBadRequest, err)
		}
		return View{}, err
	}

	if !ledger.Equal(row.Items, updated) {
		if err := s.saveItems(ctx, row.ID, updated); err != nil {
			return View{}, err
		}
		row.Items = updated
		s.emit(ctx, events.TopicSessionItemsUpdated, row.ID, map[string]any{
			"sessionId": store.UUIDString(row.ID),
			"lines":     len(updated),
		})
	}
	return s.view(ctx, row)
}

// Checkout freezes the bill and completes the session. The per-session lock
// keeps two cashiers from both charging the same customer; the conditional
// update underneath makes the transition safe even without the lock.
func (s *Service) Checkout(ctx context.Context, sessionID string, input CheckoutInput) (View, error) {
	if input.Discount < 0 {
		return View{}, common.NewAppError("VALIDATION_ERROR", "discount must not be negative", http.StatusBadRequest, nil)
	}
	method := strings.TrimSpace(strings.ToLower(input.PaymentMethod))
	if method != store.PaymentCash && method != store.PaymentInstapay {
		return View{}, common.NewAppError("VALIDATION_ERROR", "payment method must be cash or instapay", http.StatusBadRequest, nil)
	}

	var out View
	run := func(ctx context.Context) error {
		view, err := s.checkout(ctx, sessionID, input.Discount, method)
		if err != nil {
			return err
		}
		out = view
		return nil
	}
	if s.locker != nil {
		if err := s.locker.WithLock(ctx, "checkout:"+sessionID, s.lockTTL, run); err != nil {
			s.countCheckout("error", method)
			return View{}, err
		}
	} else if err := run(ctx); err != nil {
		s.countCheckout("error", method)
		return View{}, err
	}
	s.countCheckout("ok", method)
	return out, nil
}

func (s *Service) checkout(ctx context.Context, sessionID string, discount int64, method string) (View, error) {
	row, err := s.load(ctx, sessionID)
	if err != nil {
		return View{}, err
	}
	if row.Status != store.SessionActive {
		return View{}, errNotActive()
	}

	rate, err := s.hourlyRate(ctx)
	if err != nil {
		return View{}, err
	}

	now := s.Now()
	summary := billing.Bill(store.TimeValue(row.EntryTime), now, rate, billingItems(row.Items), discount)

	ok, err := s.repo.FinalizeSession(ctx, row.ID, store.FinalizeParams{
		ExitTime:        now,
		TotalCost:       summary.Subtotal,
		Discount:        discount,
		FinalAmount:     summary.FinalAmount,
		PaymentMethod:   method,
		DurationMinutes: summary.DurationMinutes,
	})
	if err != nil {
		return View{}, fmt.Errorf("finalize session: %w", err)
	}
	if !ok {
		// Lost the race: someone else completed or cancelled it first.
		return View{}, s.transitionConflict(ctx, row.ID)
	}

	s.emit(ctx, events.TopicSessionCheckedOut, row.ID, map[string]any{
		"sessionId":     store.UUIDString(row.ID),
		"finalAmount":   summary.FinalAmount,
		"paymentMethod": method,
	})

	final, err := s.repo.GetSessionByID(ctx, row.ID)
	if err != nil {
		return View{}, fmt.Errorf("reload session: %w", err)
	}
	return s.view(ctx, final)
}

// Cancel abandons an active session without charging.
func (s *Service) Cancel(ctx context.Context, sessionID string) (View, error) {
	row, err := s.load(ctx, sessionID)
	if err != nil {
		return View{}, err
	}
	if row.Status != store.SessionActive {
		return View{}, errNotActive()
	}

	ok, err := s.repo.CancelSession(ctx, row.ID, s.Now())
	if err != nil {
		return View{}, fmt.Errorf("cancel session: %w", err)
	}
	if !ok {
		return View{}, s.transitionConflict(ctx, row.ID)
	}
	if obs.SessionCancelledTotal != nil {
		obs.SessionCancelledTotal.Inc()
	}
	s.emit(ctx, events.TopicSessionCancelled, row.ID, map[string]any{
		"sessionId": store.UUIDString(row.ID),
	})

	final, err := s.repo.GetSessionByID(ctx, row.ID)
	if err != nil {
		return View{}, fmt.Errorf("reload session: %w", err)
	}
	return s.view(ctx, final)
}

// Clear wipes all session history. Admin-only, intended for end-of-period
// resets after exporting.
func (s *Service) Clear(ctx context.Context) (int64, error) {
	count, err := s.repo.ClearSessions(ctx)
	if err != nil {
		return 0, fmt.Errorf("clear sessions: %w", err)
	}
	return count, nil
}

func (s *Service) load(ctx context.Context, id string) (store.Session, error) {
	pgID, err := store.ToUUID(id)
	if err != nil {
		return store.Session{}, common.NewAppError("VALIDATION_ERROR", "invalid session id", http.StatusBadRequest, err)
	}
	row, err := s.repo.GetSessionByID(ctx, pgID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return store.Session{}, common.NewAppError("NOT_FOUND", "session not found", http.StatusNotFound, err)
		}
		return store.Session{}, fmt.Errorf("get session: %w", err)
	}
	return row, nil
}

func (s *Service) saveItems(ctx context.Context, id pgtype.UUID, items []ledger.Line) error {
	ok, err := s.repo.UpdateSessionItems(ctx, id, items)
	if err != nil {
		return fmt.Errorf("update session items: %w", err)
	}
	if !ok {
		return s.transitionConflict(ctx, id)
	}
	return nil
}

// transitionConflict explains why a conditional update matched no rows: the
// session is gone, or it already left the active state.
func (s *Service) transitionConflict(ctx context.Context, id pgtype.UUID) error {
	if _, err := s.repo.GetSessionByID(ctx, id); errors.Is(err, pgx.ErrNoRows) {
		return common.NewAppError("NOT_FOUND", "session not found", http.StatusNotFound, err)
	}
	return errNotActive()
}

func errNotActive() error {
	return common.NewAppError("INVALID_STATE", "session is not active", http.StatusConflict, nil)
}

func (s *Service) hourlyRate(ctx context.Context) (int64, error) {
	cfg, err := s.repo.GetSettings(ctx)
	if err != nil {
		return 0, fmt.Errorf("get settings: %w", err)
	}
	return cfg.HourlyRate, nil
}

func (s *Service) view(ctx context.Context, row store.Session) (View, error) {
	rate, err := s.hourlyRate(ctx)
	if err != nil {
		return View{}, err
	}
	return s.viewWithRate(row, rate), nil
}

func (s *Service) viewWithRate(row store.Session, rate int64) View {
	v := View{
		ID:        store.UUIDString(row.ID),
		Name:      row.Name,
		EntryTime: store.TimeValue(row.EntryTime),
		Status:    row.Status,
		Items:     row.Items,
	}
	if v.Items == nil {
		v.Items = []ledger.Line{}
	}
	if row.ExitTime.Valid {
		t := row.ExitTime.Time
		v.ExitTime = &t
	}
	if row.PaymentMethod.Valid {
		v.PaymentMethod = row.PaymentMethod.String
	}
	switch row.Status {
	case store.SessionActive:
		summary := billing.Bill(store.TimeValue(row.EntryTime), s.Now(), rate, billingItems(row.Items), 0)
		v.Bill = &Bill{
			TimeCost:        summary.TimeCost,
			ItemsCost:       summary.ItemsCost,
			Subtotal:        summary.Subtotal,
			FinalAmount:     summary.FinalAmount,
			DurationMinutes: summary.DurationMinutes,
		}
	case store.SessionCompleted:
		v.Bill = &Bill{
			ItemsCost:       billing.ItemsCost(billingItems(row.Items)),
			Subtotal:        row.TotalCost.Int64,
			Discount:        row.Discount.Int64,
			FinalAmount:     row.FinalAmount.Int64,
			DurationMinutes: row.DurationMinutes.Int64,
		}
		v.Bill.TimeCost = v.Bill.Subtotal - v.Bill.ItemsCost
	}
	return v
}

func (s *Service) countCheckout(result, method string) {
	if obs.SessionCheckoutTotal != nil {
		obs.SessionCheckoutTotal.WithLabelValues(result, method).Inc()
	}
}

func (s *Service) emit(ctx context.Context, topic string, id pgtype.UUID, payload any) {
	if s.bus == nil {
		return
	}
	_, _ = s.bus.Emit(ctx, topic, id, payload)
}

func billingItems(lines []ledger.Line) []billing.Item {
	items := make([]billing.Item, 0, len(lines))
	for _, line := range lines {
		items = append(items, billing.Item{Qty: line.Quantity, UnitPrice: line.Price})
	}
	return items
}
