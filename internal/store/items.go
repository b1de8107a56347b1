package store

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const itemColumns = `id, name, price, created_at, updated_at`

func scanItem(row pgx.Row) (Item, error) {
	var it Item
	err := row.Scan(&it.ID, &it.Name, &it.Price, &it.CreatedAt, &it.UpdatedAt)
	return it, err
}

// CreateItem inserts a catalog item.
func (s *Store) CreateItem(ctx context.Context, name string, price int64) (Item, error) {
	row := s.Pool.QueryRow(ctx, `
		INSERT INTO items (name, price) VALUES ($1, $2)
		RETURNING `+itemColumns, name, price)
	return scanItem(row)
}

// UpdateItem modifies a catalog item.
func (s *Store) UpdateItem(ctx context.Context, id pgtype.UUID, name string, price int64) (Item, error) {
	row := s.Pool.QueryRow(ctx, `
		UPDATE items SET name = $2, price = $3, updated_at = now()
		WHERE id = $1
		RETURNING `+itemColumns, id, name, price)
	return scanItem(row)
}

// DeleteItem removes a catalog item and reports whether a row was deleted.
func (s *Store) DeleteItem(ctx context.Context, id pgtype.UUID) (bool, error) {
	tag, err := s.Pool.Exec(ctx, `DELETE FROM items WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// GetItemByID loads a single catalog item.
func (s *Store) GetItemByID(ctx context.Context, id pgtype.UUID) (Item, error) {
	row := s.Pool.QueryRow(ctx, `SELECT `+itemColumns+` FROM items WHERE id = $1`, id)
	return scanItem(row)
}

// ListItems returns the full catalog ordered by name.
func (s *Store) ListItems(ctx context.Context) ([]Item, error) {
	rows, err := s.Pool.Query(ctx, `SELECT `+itemColumns+` FROM items ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := make([]Item, 0)
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// CountItems returns the catalog size.
func (s *Store) CountItems(ctx context.Context) (int64, error) {
	var count int64
	err := s.Pool.QueryRow(ctx, `SELECT count(*) FROM items`).Scan(&count)
	return count, err
}

// SeedItem is a name/price pair used for catalog seeding.
type SeedItem struct {
	Name  string
	Price int64
}

// SeedItems inserts the provided items in one transaction, but only when the
// catalog is still empty. Returns whether seeding happened.
func (s *Store) SeedItems(ctx context.Context, seeds []SeedItem) (bool, error) {
	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return false, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()
	var count int64
	if err := tx.QueryRow(ctx, `SELECT count(*) FROM items`).Scan(&count); err != nil {
		return false, err
	}
	if count > 0 {
		return false, nil
	}
	batch := &pgx.Batch{}
	for _, seed := range seeds {
		batch.Queue(`INSERT INTO items (name, price) VALUES ($1, $2)`, seed.Name, seed.Price)
	}
	results := tx.SendBatch(ctx, batch)
	for range seeds {
		if _, err := results.Exec(); err != nil {
			_ = results.Close()
			return false, err
		}
	}
	if err := results.Close(); err != nil {
		return false, err
	}
	if err := tx.Commit(ctx); err != nil {
		return false, err
	}
	return true, nil
}
