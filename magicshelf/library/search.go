package library

import (
	"context"
	"strconv"

	"github.com/pkg/errors"

	"github.com/shelfworks/magicshelf/magicshelf/rules"
)

// Page bounds a search result. A non-positive Limit disables paging.
type Page struct {
	Limit  int
	Offset int
}

// Search returns the books matching a Magic Shelf rule tree, ordered by
// id. Compilation is fail-closed: a shelf with an unevaluable branch
// returns fewer results, never an error.
func (s *Store) Search(ctx context.Context, group *rules.GroupRule, page Page) ([]Book, error) {
	pred := s.evaluator.Evaluate(group)

	query := "SELECT DISTINCT books.id, books.title, books.pubdate, books.isbn, books.uuid" +
		" FROM books WHERE " + pred.SQL + " ORDER BY books.id"
	args := pred.Args
	if page.Limit > 0 {
		query += " LIMIT " + strconv.Itoa(page.Limit) + " OFFSET " + strconv.Itoa(page.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "unable to search books")
	}
	defer rows.Close()

	var books []Book
	for rows.Next() {
		var b Book
		if err := rows.Scan(&b.ID, &b.Title, &b.Pubdate, &b.ISBN, &b.UUID); err != nil {
			return nil, errors.Wrap(err, "unable to scan book")
		}
		books = append(books, b)
	}
	return books, errors.Wrap(rows.Err(), "unable to read books")
}

// Count returns the number of books matching a rule tree.
func (s *Store) Count(ctx context.Context, group *rules.GroupRule) (int, error) {
	pred := s.evaluator.Evaluate(group)

	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM books WHERE "+pred.SQL, pred.Args...).Scan(&count)
	return count, errors.Wrap(err, "unable to count books")
}
