package shelf

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"

	"github.com/shelfworks/magicshelf/magicshelf/rules"
)

// ErrNotFound is returned when a shelf id does not exist.
var ErrNotFound = errors.New("shelf not found")

// PgStore persists shelves in PostgreSQL.
type PgStore struct {
	pool  *pgxpool.Pool
	table string
}

func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{
		pool:  pool,
		table: "magic_shelves",
	}
}

// Init creates the shelves table when it does not exist yet.
func (s *PgStore) Init(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS `+s.table+` (
			id         TEXT PRIMARY KEY,
			name       TEXT NOT NULL,
			rule       JSONB NOT NULL,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)
	`)
	return errors.Wrap(err, "unable to create shelves table")
}

// Save inserts or updates a shelf, serializing its rule tree as JSON.
func (s *PgStore) Save(ctx context.Context, sh *Shelf) error {
	ruleJSON, err := json.Marshal(sh.Rule)
	if err != nil {
		return errors.Wrap(err, "unable to serialize shelf rule")
	}
	sh.UpdatedAt = time.Now().UTC()
	_, err = s.pool.Exec(ctx, `
		INSERT INTO `+s.table+` (id, name, rule, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			rule = EXCLUDED.rule,
			updated_at = EXCLUDED.updated_at
	`, sh.ID, sh.Name, ruleJSON, sh.CreatedAt, sh.UpdatedAt)
	return errors.Wrap(err, "unable to save shelf")
}

// Get loads one shelf, deserializing its rule tree.
func (s *PgStore) Get(ctx context.Context, id string) (*Shelf, error) {
	sh := &Shelf{}
	var ruleJSON []byte
	err := s.pool.QueryRow(ctx, `
		SELECT id, name, rule, created_at, updated_at
		FROM `+s.table+` WHERE id = $1
	`, id).Scan(&sh.ID, &sh.Name, &ruleJSON, &sh.CreatedAt, &sh.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "unable to load shelf")
	}
	sh.Rule, err = rules.ParseGroup(ruleJSON)
	if err != nil {
		return nil, errors.Wrap(err, "unable to deserialize shelf rule")
	}
	return sh, nil
}

// List returns every shelf ordered by id; ULIDs make that creation order.
func (s *PgStore) List(ctx context.Context) ([]*Shelf, error) {
	result, err := s.pool.Query(ctx, `
		SELECT id, name, rule, created_at, updated_at
		FROM `+s.table+` ORDER BY id
	`)
	if err != nil {
		return nil, errors.Wrap(err, "unable to list shelves")
	}
	defer result.Close()

	var shelves []*Shelf
	for result.Next() {
		sh := &Shelf{}
		var ruleJSON []byte
		if err := result.Scan(&sh.ID, &sh.Name, &ruleJSON, &sh.CreatedAt, &sh.UpdatedAt); err != nil {
			return nil, errors.Wrap(err, "unable to scan shelf")
		}
		sh.Rule, err = rules.ParseGroup(ruleJSON)
		if err != nil {
			return nil, errors.Wrap(err, "unable to deserialize shelf rule")
		}
		shelves = append(shelves, sh)
	}
	return shelves, errors.Wrap(result.Err(), "unable to read shelves")
}

// Delete removes a shelf. Deleting an unknown id is ErrNotFound.
func (s *PgStore) Delete(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM `+s.table+` WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "unable to delete shelf")
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
