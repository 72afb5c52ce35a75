// Package library is the book repository the compiled predicates are
// ultimately embedded into. It is a collaborator of the rule compiler,
// not part of it: the compiler hands back a WHERE condition, this package
// owns SELECT, dedup, ordering and pagination.
package library

import (
	"context"
	"database/sql"
	_ "embed"
	"log/slog"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	"github.com/shelfworks/magicshelf/magicshelf/evaluate"
	"github.com/shelfworks/magicshelf/magicshelf/rules/operators"
	"github.com/shelfworks/magicshelf/magicshelf/schema"
)

//go:embed schema.sql
var schemaSQL string

// Store provides access to a Calibre-style SQLite library.
type Store struct {
	db        *sql.DB
	evaluator *evaluate.Evaluator
}

// Open creates or opens a library database at the given path and applies
// the schema. The returned store carries its own evaluator wired to the
// book field registry.
func Open(path string, opts ...Option) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrap(err, "unable to open library database")
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "unable to connect to library database")
	}

	// SQLite supports one writer at a time.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "unable to enable foreign keys")
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "unable to apply library schema")
	}

	s := &Store{db: db}
	for i := range opts {
		opts[i](s)
	}
	if s.evaluator == nil {
		s.evaluator = evaluate.NewEvaluator(
			schema.NewBookRegistry(),
			operators.NewRegistry(),
			evaluate.WithLogger(slog.Default()),
		)
	}
	return s, nil
}

type Option func(*Store)

// WithEvaluator overrides the store's rule evaluator, for callers sharing
// one process-wide instance.
func WithEvaluator(e *evaluate.Evaluator) Option {
	return func(s *Store) {
		s.evaluator = e
	}
}

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB exposes the underlying handle for callers needing direct queries.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Book is one row of the root table.
type Book struct {
	ID      int64
	Title   string
	Pubdate string
	ISBN    string
	UUID    string
}

// Identifier is one external identifier attached to a book, e.g. a DOI.
type Identifier struct {
	Type  string
	Value string
}

// BookInput describes a book and its related rows for insertion.
type BookInput struct {
	Title       string
	Pubdate     string
	ISBN        string
	UUID        string
	Authors     []string
	Tags        []string
	Series      []string
	Publishers  []string
	Languages   []string
	Rating      *int
	Identifiers []Identifier
}

// AddBook inserts a book together with its related rows, reusing existing
// author/tag/series/publisher/language/rating rows by value.
func (s *Store) AddBook(ctx context.Context, in BookInput) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, errors.Wrap(err, "unable to start transaction")
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		"INSERT INTO books (title, pubdate, isbn, uuid) VALUES (?, ?, ?, ?)",
		in.Title, in.Pubdate, in.ISBN, in.UUID)
	if err != nil {
		return 0, errors.Wrap(err, "unable to insert book")
	}
	bookID, err := res.LastInsertId()
	if err != nil {
		return 0, errors.Wrap(err, "unable to read book id")
	}

	links := []struct {
		table, linkTable, column, fk string
		values                       []string
	}{
		{"authors", "books_authors_link", "name", "author", in.Authors},
		{"tags", "books_tags_link", "name", "tag", in.Tags},
		{"series", "books_series_link", "name", "series", in.Series},
		{"publishers", "books_publishers_link", "name", "publisher", in.Publishers},
		{"languages", "books_languages_link", "lang_code", "lang_code", in.Languages},
	}
	for _, link := range links {
		for _, value := range link.values {
			if err := linkValue(ctx, tx, bookID, link.table, link.linkTable, link.column, link.fk, value); err != nil {
				return 0, err
			}
		}
	}

	if in.Rating != nil {
		var ratingID int64
		err := tx.QueryRowContext(ctx, "SELECT id FROM ratings WHERE rating = ?", *in.Rating).Scan(&ratingID)
		if errors.Is(err, sql.ErrNoRows) {
			res, err := tx.ExecContext(ctx, "INSERT INTO ratings (rating) VALUES (?)", *in.Rating)
			if err != nil {
				return 0, errors.Wrap(err, "unable to insert rating")
			}
			ratingID, err = res.LastInsertId()
			if err != nil {
				return 0, errors.Wrap(err, "unable to read rating id")
			}
		} else if err != nil {
			return 0, errors.Wrap(err, "unable to look up rating")
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO books_ratings_link (book, rating) VALUES (?, ?)", bookID, ratingID); err != nil {
			return 0, errors.Wrap(err, "unable to link rating")
		}
	}

	for _, ident := range in.Identifiers {
		identType := ident.Type
		if identType == "" {
			identType = "isbn"
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO identifiers (book, type, val) VALUES (?, ?, ?)",
			bookID, identType, ident.Value); err != nil {
			return 0, errors.Wrap(err, "unable to insert identifier")
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, errors.Wrap(err, "unable to commit book")
	}
	return bookID, nil
}

func linkValue(ctx context.Context, tx *sql.Tx, bookID int64, table, linkTable, column, fk, value string) error {
	var targetID int64
	err := tx.QueryRowContext(ctx, "SELECT id FROM "+table+" WHERE "+column+" = ?", value).Scan(&targetID)
	if errors.Is(err, sql.ErrNoRows) {
		res, err := tx.ExecContext(ctx, "INSERT INTO "+table+" ("+column+") VALUES (?)", value)
		if err != nil {
			return errors.Wrapf(err, "unable to insert into %s", table)
		}
		targetID, err = res.LastInsertId()
		if err != nil {
			return errors.Wrapf(err, "unable to read %s id", table)
		}
	} else if err != nil {
		return errors.Wrapf(err, "unable to look up %s", table)
	}
	_, err = tx.ExecContext(ctx,
		"INSERT INTO "+linkTable+" (book, "+fk+") VALUES (?, ?)", bookID, targetID)
	return errors.Wrapf(err, "unable to link %s", table)
}
