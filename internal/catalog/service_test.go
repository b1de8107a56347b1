package catalog

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/cozyhive/backend-pos/internal/common"
	"github.com/cozyhive/backend-pos/internal/store"
)

type fakeRepo struct {
	items map[string]store.Item
	order []string
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{items: map[string]store.Item{}}
}

func (f *fakeRepo) CreateItem(_ context.Context, name string, price int64) (store.Item, error) {
	raw := uuid.New()
	var id pgtype.UUID
	copy(id.Bytes[:], raw[:])
	id.Valid = true
	now := pgtype.Timestamptz{Time: time.Now(), Valid: true}
	item := store.Item{ID: id, Name: name, Price: price, CreatedAt: now, UpdatedAt: now}
	key := store.UUIDString(id)
	f.items[key] = item
	f.order = append(f.order, key)
	return item, nil
}

func (f *fakeRepo) UpdateItem(_ context.Context, id pgtype.UUID, name string, price int64) (store.Item, error) {
	key := store.UUIDString(id)
	item, ok := f.items[key]
	if !ok {
		return store.Item{}, pgx.ErrNoRows
	}
	item.Name = name
	item.Price = price
	f.items[key] = item
	return item, nil
}

func (f *fakeRepo) DeleteItem(_ context.Context, id pgtype.UUID) (bool, error) {
	key := store.UUIDString(id)
	if _, ok := f.items[key]; !ok {
		return false, nil
	}
	delete(f.items, key)
	return true, nil
}

func (f *fakeRepo) GetItemByID(_ context.Context, id pgtype.UUID) (store.Item, error) {
	item, ok := f.items[store.UUIDString(id)]
	if !ok {
		return store.Item{}, pgx.ErrNoRows
	}
	return item, nil
}

func (f *fakeRepo) ListItems(_ context.Context) ([]store.Item, error) {
	out := make([]store.Item, 0, len(f.order))
	for _, key := range f.order {
		if item, ok := f.items[key]; ok {
			out = append(out, item)
		}
	}
	return out, nil
}

func (f *fakeRepo) SeedItems(ctx context.Context, seeds []store.SeedItem) (bool, error) {
	if len(f.items) > 0 {
		return false, nil
	}
	for _, seed := range seeds {
		if _, err := f.CreateItem(ctx, seed.Name, seed.Price); err != nil {
			return false, err
		}
	}
	return true, nil
}

func newTestService(t *testing.T) (*Service, *fakeRepo, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	repo := newFakeRepo()
	svc, err := NewService(ServiceConfig{Repo: repo, Cache: NewCache(client, time.Minute)})
	require.NoError(t, err)
	return svc, repo, mr
}

func TestCreateValidation(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Create(context.Background(), ItemInput{Name: "   ", Price: 100})
	requireAppErr(t, err, "VALIDATION_ERROR")

	_, err = svc.Create(context.Background(), ItemInput{Name: "Coffee", Price: -1})
	requireAppErr(t, err, "VALIDATION_ERROR")
}

func TestListUsesCacheUntilMutation(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, ItemInput{Name: "Coffee", Price: 3000})
	require.NoError(t, err)

	first, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, first, 1)

	// Mutate behind the cache; a warm cache would still return the old list.
	_, err = repo.CreateItem(ctx, "Tea", 2500)
	require.NoError(t, err)

	second, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, second, 1, "cached list should not see out-of-band writes")

	// A service-level mutation invalidates the cache.
	_, err = svc.Update(ctx, created.ID, ItemInput{Name: "Coffee", Price: 3500})
	require.NoError(t, err)

	third, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, third, 2)
}

func TestUpdateNotFound(t *testing.T) {
	svc, _, _ := newTestService(t)
	_, err := svc.Update(context.Background(), uuid.NewString(), ItemInput{Name: "Ghost", Price: 100})
	requireAppErr(t, err, "NOT_FOUND")
}

func TestDelete(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	item, err := svc.Create(ctx, ItemInput{Name: "Snack", Price: 4000})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, item.ID))
	err = svc.Delete(ctx, item.ID)
	requireAppErr(t, err, "NOT_FOUND")
}

func TestSeedOnlyWhenEmpty(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	seeded, err := svc.Seed(ctx)
	require.NoError(t, err)
	require.True(t, seeded)

	items, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, items, 4)

	seeded, err = svc.Seed(ctx)
	require.NoError(t, err)
	require.False(t, seeded, "seeding a non-empty catalog must be a no-op")
}

func requireAppErr(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var appErr *common.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %v", err)
	require.Equal(t, code, appErr.Code)
}
