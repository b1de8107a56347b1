package store

import (
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/cozyhive/backend-pos/internal/ledger"
)

// Session status values. Transitions are one-way: active sessions become
// completed or cancelled, and terminal sessions never change again.
const (
	SessionActive    = "active"
	SessionCompleted = "completed"
	SessionCancelled = "cancelled"
)

// User roles.
const (
	RoleAdmin   = "admin"
	RoleCashier = "cashier"
)

// Payment methods recorded at checkout. The method is a label, not a
// processed transaction.
const (
	PaymentCash     = "cash"
	PaymentInstapay = "instapay"
)

// User is a staff account.
type User struct {
	ID           pgtype.UUID
	Email        string
	PasswordHash string
	Role         string
	CreatedAt    pgtype.Timestamptz
	UpdatedAt    pgtype.Timestamptz
}

// AuthSession is a persisted refresh-token session.
type AuthSession struct {
	ID           pgtype.UUID
	UserID       pgtype.UUID
	RefreshToken string
	UserAgent    pgtype.Text
	IP           pgtype.Text
	ExpiresAt    pgtype.Timestamptz
	CreatedAt    pgtype.Timestamptz
}

// Item is a catalog entry. Sessions copy name and price at add time, so
// catalog edits never change historical totals.
type Item struct {
	ID        pgtype.UUID
	Name      string
	Price     int64
	CreatedAt pgtype.Timestamptz
	UpdatedAt pgtype.Timestamptz
}

// Session is the aggregate root of billing. Items are stored as a JSONB
// document mirroring the embedded line array of the original data model.
type Session struct {
	ID              pgtype.UUID
	Name            string
	EntryTime       pgtype.Timestamptz
	ExitTime        pgtype.Timestamptz
	Status          string
	Items           []ledger.Line
	TotalCost       pgtype.Int8
	Discount        pgtype.Int8
	FinalAmount     pgtype.Int8
	PaymentMethod   pgtype.Text
	DurationMinutes pgtype.Int8
	CreatedAt       pgtype.Timestamptz
	UpdatedAt       pgtype.Timestamptz
}

// Settings is the process-wide configuration singleton.
type Settings struct {
	HourlyRate      int64
	Currency        string
	Theme           string
	AutoLogoutHours int
	EnableArabic    bool
	UpdatedAt       pgtype.Timestamptz
}

// DomainEvent is a persisted record of something that happened to an aggregate.
type DomainEvent struct {
	ID          pgtype.UUID
	Topic       string
	AggregateID pgtype.UUID
	Payload     []byte
	OccurredAt  pgtype.Timestamptz
}
