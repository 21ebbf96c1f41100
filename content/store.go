package content

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"
)

// Store persists the content registry.
type Store struct {
	db *bun.DB
}

func NewStore(db *bun.DB) *Store {
	return &Store{db: db}
}

// Create registers a locator under a freshly generated id and returns the
// stored item.
func (s *Store) Create(ctx context.Context, locator string) (*Item, error) {
	item := &Item{ID: NewID(), Locator: locator}
	if _, err := s.db.NewInsert().Model(item).Exec(ctx); err != nil {
		return nil, fmt.Errorf("create content: %w", err)
	}
	return item, nil
}

// Get looks up an item by id, or nil when absent. The id arrives via deep
// links and is untrusted; it is only ever used as a bind parameter.
func (s *Store) Get(ctx context.Context, id string) (*Item, error) {
	item := new(Item)
	err := s.db.NewSelect().Model(item).Where("id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get content %s: %w", id, err)
	}
	return item, nil
}

// Delete removes an item. Returns false when no row existed.
func (s *Store) Delete(ctx context.Context, id string) (bool, error) {
	res, err := s.db.NewDelete().Model((*Item)(nil)).Where("id = ?", id).Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("delete content %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete content %s: %w", id, err)
	}
	return n > 0, nil
}

// List returns all registered items.
func (s *Store) List(ctx context.Context) ([]Item, error) {
	var out []Item
	if err := s.db.NewSelect().Model(&out).Scan(ctx); err != nil {
		return nil, fmt.Errorf("list content: %w", err)
	}
	return out, nil
}
