package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/cozyhive/backend-pos/internal/common"
	"github.com/cozyhive/backend-pos/internal/events"
	"github.com/cozyhive/backend-pos/internal/obs"
	"github.com/cozyhive/backend-pos/internal/store"
)

// Repo captures the persistence operations the catalog service relies on.
type Repo interface {
	CreateItem(ctx context.Context, name string, price int64) (store.Item, error)
	UpdateItem(ctx context.Context, id pgtype.UUID, name string, price int64) (store.Item, error)
	DeleteItem(ctx context.Context, id pgtype.UUID) (bool, error)
	GetItemByID(ctx context.Context, id pgtype.UUID) (store.Item, error)
	ListItems(ctx context.Context) ([]store.Item, error)
	SeedItems(ctx context.Context, seeds []store.SeedItem) (bool, error)
}

// Service orchestrates catalog queries, caching, and event emission.
type Service struct {
	repo     Repo
	cache    *Cache
	bus      *events.Bus
	validate *validator.Validate
}

// ServiceConfig groups Service dependencies.
type ServiceConfig struct {
	Repo  Repo
	Cache *Cache
	Bus   *events.Bus
}

// Item is the catalog payload returned to clients. Prices are minor units.
type Item struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Price     int64     `json:"price"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ItemInput carries create/update fields for a catalog item.
type ItemInput struct {
	Name  string `json:"name" validate:"required,min=1,max=120"`
	Price int64  `json:"price" validate:"gte=0"`
}

// DefaultSeed is the starter catalog for a fresh installation.
func DefaultSeed() []store.SeedItem {
	return []store.SeedItem{
		{Name: "Coffee", Price: 3000},
		{Name: "Tea", Price: 2500},
		{Name: "Snack", Price: 4000},
		{Name: "Printing", Price: 500},
	}
}

// NewService constructs a Service instance.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Repo == nil {
		return nil, errors.New("catalog: repo is required")
	}
	return &Service{
		repo:     cfg.Repo,
		cache:    cfg.Cache,
		bus:      cfg.Bus,
		validate: validator.New(),
	}, nil
}

// List returns the full catalog, served from cache when warm.
func (s *Service) List(ctx context.Context) ([]Item, error) {
	var cached []Item
	if hit, err := s.cache.GetJSON(ctx, listCacheKey, &cached); err == nil && hit {
		return cached, nil
	}
	rows, err := s.repo.ListItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	items := make([]Item, 0, len(rows))
	for _, row := range rows {
		items = append(items, convertItem(row))
	}
	_ = s.cache.SetJSON(ctx, listCacheKey, items)
	return items, nil
}

// Get returns a single catalog item.
func (s *Service) Get(ctx context.Context, id string) (Item, error) {
	pgID, err := store.ToUUID(id)
	if err != nil {
		return Item{}, common.NewAppError("VALIDATION_ERROR", "invalid item id", http.StatusBadRequest, err)
	}
	row, err := s.repo.GetItemByID(ctx, pgID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Item{}, common.NewAppError("NOT_FOUND", "item not found", http.StatusNotFound, err)
		}
		return Item{}, fmt.Errorf("get item: %w", err)
	}
	return convertItem(row), nil
}

// Create adds a catalog item.
func (s *Service) Create(ctx context.Context, input ItemInput) (Item, error) {
	input.Name = strings.TrimSpace(input.Name)
	if err := s.validate.Struct(input); err != nil {
		return Item{}, common.NewAppError("VALIDATION_ERROR", "invalid item payload", http.StatusBadRequest, err)
	}
	row, err := s.repo.CreateItem(ctx, input.Name, input.Price)
	if err != nil {
		return Item{}, fmt.Errorf("create item: %w", err)
	}
	s.afterMutation(ctx, "create", events.TopicItemCreated, row)
	return convertItem(row), nil
}

// Update modifies a catalog item. Session lines already holding the item keep
// the name and price captured when they were added.
func (s *Service) Update(ctx context.Context, id string, input ItemInput) (Item, error) {
	pgID, err := store.ToUUID(id)
	if err != nil {
		return Item{}, common.NewAppError("VALIDATION_ERROR", "invalid item id", http.StatusBadRequest, err)
	}
	input.Name = strings.TrimSpace(input.Name)
	if err := s.validate.Struct(input); err != nil {
		return Item{}, common.NewAppError("VALIDATION_ERROR", "invalid item payload", http.StatusBadRequest, err)
	}
	row, err := s.repo.UpdateItem(ctx, pgID, input.Name, input.Price)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Item{}, common.NewAppError("NOT_FOUND", "item not found", http.StatusNotFound, err)
		}
		return Item{}, fmt.Errorf("update item: %w", err)
	}
	s.afterMutation(ctx, "update", events.TopicItemUpdated, row)
	return convertItem(row), nil
}

// Delete removes a catalog item.
func (s *Service) Delete(ctx context.Context, id string) error {
	pgID, err := store.ToUUID(id)
	if err != nil {
		return common.NewAppError("VALIDATION_ERROR", "invalid item id", http.StatusBadRequest, err)
	}
	deleted, err := s.repo.DeleteItem(ctx, pgID)
	if err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	if !deleted {
		return common.NewAppError("NOT_FOUND", "item not found", http.StatusNotFound, nil)
	}
	s.afterMutation(ctx, "delete", events.TopicItemDeleted, store.Item{ID: pgID})
	return nil
}

// Seed installs the default catalog when the table is empty. Returns whether
// seeding happened.
func (s *Service) Seed(ctx context.Context) (bool, error) {
	seeded, err := s.repo.SeedItems(ctx, DefaultSeed())
	if err != nil {
		return false, fmt.Errorf("seed items: %w", err)
	}
	if seeded {
		_ = s.cache.Invalidate(ctx, listCacheKey)
	}
	return seeded, nil
}

func (s *Service) afterMutation(ctx context.Context, op, topic string, row store.Item) {
	_ = s.cache.Invalidate(ctx, listCacheKey)
	if obs.CatalogMutationsTotal != nil {
		obs.CatalogMutationsTotal.WithLabelValues(op).Inc()
	}
	if s.bus != nil {
		_, _ = s.bus.Emit(ctx, topic, row.ID, map[string]any{
			"id":    store.UUIDString(row.ID),
			"name":  row.Name,
			"price": row.Price,
		})
	}
}

func convertItem(row store.Item) Item {
	return Item{
		ID:        store.UUIDString(row.ID),
		Name:      row.Name,
		Price:     row.Price,
		CreatedAt: store.TimeValue(row.CreatedAt),
		UpdatedAt: store.TimeValue(row.UpdatedAt),
	}
}
