package store

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/samber/lo"
)

var (
	// ErrNotFound is returned when a requested item does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateItem is returned when an item id is already taken.
	ErrDuplicateItem = errors.New("item already exists")
)

// Item is a row in the items table.
type Item struct {
	ID         string    `db:"id" json:"_id"`
	Collection string    `db:"collection" json:"collection"`
	Name       string    `db:"name" json:"name"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// ItemStore is the sqlx-backed store behind the paginated endpoints.
type ItemStore struct {
	db *sqlx.DB
}

// NewItemStore creates a new ItemStore.
func NewItemStore(db *sqlx.DB) *ItemStore {
	return &ItemStore{db: db}
}

// q rebinds ? placeholders to the driver's native format.
func (s *ItemStore) q(query string) string { return s.db.Rebind(query) }

// Create inserts a new item with a random id.
func (s *ItemStore) Create(ctx context.Context, collection, name string) (*Item, error) {
	item := Item{
		ID:         uuid.New().String(),
		Collection: collection,
		Name:       name,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.Insert(ctx, item); err != nil {
		return nil, err
	}
	return &item, nil
}

// Insert stores item as given.
func (s *ItemStore) Insert(ctx context.Context, item Item) error {
	_, err := s.db.ExecContext(ctx, s.q(`
		INSERT INTO items (id, collection, name, created_at) VALUES (?, ?, ?, ?)
	`), item.ID, item.Collection, item.Name, item.CreatedAt)
	if isUniqueConstraintError(err) {
		return ErrDuplicateItem
	}
	return err
}

// Get returns the item with id.
func (s *ItemStore) Get(ctx context.Context, id string) (*Item, error) {
	var item Item
	err := s.db.GetContext(ctx, &item, s.q(`SELECT * FROM items WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// ListAll returns every item in creation order.
func (s *ItemStore) ListAll(ctx context.Context) ([]Item, error) {
	items := []Item{}
	err := s.db.SelectContext(ctx, &items, `SELECT * FROM items ORDER BY created_at, id`)
	return items, err
}

// ListByCollection returns at most limit items of collection starting at offset.
func (s *ItemStore) ListByCollection(ctx context.Context, collection string, offset, limit int) ([]Item, error) {
	items := []Item{}
	err := s.db.SelectContext(ctx, &items, s.q(`
		SELECT * FROM items WHERE collection = ?
		ORDER BY created_at, id
		LIMIT ? OFFSET ?
	`), collection, limit, offset)
	return items, err
}

// CountByCollection returns the number of items in collection.
func (s *ItemStore) CountByCollection(ctx context.Context, collection string) (int, error) {
	var n int
	err := s.db.GetContext(ctx, &n, s.q(`SELECT COUNT(*) FROM items WHERE collection = ?`), collection)
	return n, err
}

// Seed inserts n items with ids prefix+"1".."n" into collection, one second
// apart so that creation order matches the ids.
func (s *ItemStore) Seed(ctx context.Context, collection, prefix string, n int) error {
	base := time.Now().UTC().Truncate(time.Second)
	items := lo.Times(n, func(i int) Item {
		id := prefix + strconv.Itoa(i+1)
		return Item{
			ID:         id,
			Collection: collection,
			Name:       "item " + strconv.Itoa(i+1),
			CreatedAt:  base.Add(time.Duration(i) * time.Second),
		}
	})

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, item := range items {
		if _, err := tx.ExecContext(ctx, tx.Rebind(`
			INSERT INTO items (id, collection, name, created_at) VALUES (?, ?, ?, ?)
		`), item.ID, item.Collection, item.Name, item.CreatedAt); err != nil {
			if isUniqueConstraintError(err) {
				return ErrDuplicateItem
			}
			return err
		}
	}
	return tx.Commit()
}

func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || // SQLite & PostgreSQL
		strings.Contains(msg, "duplicate key") || // PostgreSQL
		strings.Contains(msg, "duplicate entry") // MySQL
}
