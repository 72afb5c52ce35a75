package evaluate

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shelfworks/magicshelf/magicshelf/rules"
	"github.com/shelfworks/magicshelf/magicshelf/rules/operators"
	"github.com/shelfworks/magicshelf/magicshelf/schema"
)

func newBookEvaluator(t *testing.T) *Evaluator {
	t.Helper()
	fields := schema.NewBookRegistry()
	require.NoError(t, fields.Validate(rules.Fields()))
	return NewEvaluator(fields, operators.NewRegistry())
}

func TestEvaluate_EmptyGroupMatchesEverything(t *testing.T) {
	e := newBookEvaluator(t)

	pred := e.Evaluate(rules.NewGroup(rules.JoinAnd))

	assert.Equal(t, "1 = 1", pred.SQL)
	assert.Empty(t, pred.Args)
}

func TestEvaluate_DirectField(t *testing.T) {
	e := newBookEvaluator(t)

	pred := e.Evaluate(rules.NewGroup(rules.JoinAnd,
		rules.NewRule(rules.FieldTitle, rules.OperatorEquals, "Dune"),
	))

	assert.Equal(t, "books.title = ?", pred.SQL)
	assert.Equal(t, []any{"Dune"}, pred.Args)
}

func TestEvaluate_AndOr(t *testing.T) {
	e := newBookEvaluator(t)

	pred := e.Evaluate(rules.NewGroup(rules.JoinOr,
		rules.NewRule(rules.FieldTitle, rules.OperatorStartsWith, "The"),
		rules.NewRule(rules.FieldISBN, rules.OperatorIsNotEmpty, nil),
	))

	assert.Equal(t,
		"(LOWER(books.title) LIKE ?) OR ((books.isbn IS NOT NULL AND books.isbn <> ''))",
		pred.SQL)
	assert.Equal(t, []any{"the%"}, pred.Args)
}

func TestEvaluate_NestedGroup(t *testing.T) {
	e := newBookEvaluator(t)

	pred := e.Evaluate(rules.NewGroup(rules.JoinAnd,
		rules.NewRule(rules.FieldTitle, rules.OperatorContains, "dune"),
		rules.NewGroup(rules.JoinOr,
			rules.NewRule(rules.FieldISBN, rules.OperatorEquals, "9780441013593"),
			rules.NewRule(rules.FieldPubdate, rules.OperatorGreaterThan, "1990-01-01"),
		),
	))

	assert.Equal(t,
		"(LOWER(books.title) LIKE ?) AND ((books.isbn = ?) OR (books.pubdate > ?))",
		pred.SQL)
	assert.Equal(t, []any{"%dune%", "9780441013593", "1990-01-01"}, pred.Args)
}

func TestEvaluate_EmptyNestedGroupIsVacuouslyTrue(t *testing.T) {
	e := newBookEvaluator(t)

	pred := e.Evaluate(rules.NewGroup(rules.JoinAnd,
		rules.NewRule(rules.FieldTitle, rules.OperatorEquals, "Dune"),
		rules.NewGroup(rules.JoinOr),
	))

	assert.Equal(t, "(books.title = ?) AND (1 = 1)", pred.SQL)
}

func TestEvaluate_ManyToManyExists(t *testing.T) {
	e := newBookEvaluator(t)

	pred := e.Evaluate(rules.NewGroup(rules.JoinAnd,
		rules.NewRule(rules.FieldAuthor, rules.OperatorContains, "King"),
	))

	assert.Equal(t,
		"EXISTS (SELECT 1 FROM books_authors_link AS author_link_1"+
			" JOIN authors AS author_1 ON author_1.id = author_link_1.author"+
			" WHERE author_link_1.book = books.id"+
			" AND LOWER(author_1.name) LIKE ?)",
		pred.SQL)
	assert.Equal(t, []any{"%king%"}, pred.Args)
}

func TestEvaluate_OneExistsPerRule(t *testing.T) {
	// Two author conditions must compile to two independent existence
	// checks: different author rows may satisfy each half.
	e := newBookEvaluator(t)

	pred := e.Evaluate(rules.NewGroup(rules.JoinAnd,
		rules.NewRule(rules.FieldAuthor, rules.OperatorContains, "King"),
		rules.NewRule(rules.FieldAuthor, rules.OperatorContains, "Straub"),
	))

	assert.Equal(t,
		"(EXISTS (SELECT 1 FROM books_authors_link AS author_link_1"+
			" JOIN authors AS author_1 ON author_1.id = author_link_1.author"+
			" WHERE author_link_1.book = books.id"+
			" AND LOWER(author_1.name) LIKE ?))"+
			" AND "+
			"(EXISTS (SELECT 1 FROM books_authors_link AS author_link_2"+
			" JOIN authors AS author_2 ON author_2.id = author_link_2.author"+
			" WHERE author_link_2.book = books.id"+
			" AND LOWER(author_2.name) LIKE ?))",
		pred.SQL)
	assert.Equal(t, []any{"%king%", "%straub%"}, pred.Args)
}

func TestEvaluate_OneToManyExists(t *testing.T) {
	e := newBookEvaluator(t)

	pred := e.Evaluate(rules.NewGroup(rules.JoinAnd,
		rules.NewRule(rules.FieldIdentifier, rules.OperatorContains, "10.1000"),
	))

	assert.Equal(t,
		"EXISTS (SELECT 1 FROM identifiers AS identifier_1"+
			" WHERE identifier_1.book = books.id"+
			" AND LOWER(identifier_1.val) LIKE ?)",
		pred.SQL)
	assert.Equal(t, []any{"%10.1000%"}, pred.Args)
}

func TestEvaluate_RelationalIsEmpty(t *testing.T) {
	// Empty means "no linked row at all" OR "a linked row with an empty
	// value" — a book without a series has an empty series.
	e := newBookEvaluator(t)

	pred := e.Evaluate(rules.NewGroup(rules.JoinAnd,
		rules.NewRule(rules.FieldSeries, rules.OperatorIsEmpty, nil),
	))

	assert.Equal(t,
		"(NOT (EXISTS (SELECT 1 FROM books_series_link AS series_link_1"+
			" WHERE series_link_1.book = books.id)))"+
			" OR "+
			"(EXISTS (SELECT 1 FROM books_series_link AS series_link_2"+
			" JOIN series AS series_2 ON series_2.id = series_link_2.series"+
			" WHERE series_link_2.book = books.id"+
			" AND (series_2.name IS NULL OR series_2.name = '')))",
		pred.SQL)
	assert.Empty(t, pred.Args)
}

func TestEvaluate_OneToManyIsEmpty(t *testing.T) {
	e := newBookEvaluator(t)

	pred := e.Evaluate(rules.NewGroup(rules.JoinAnd,
		rules.NewRule(rules.FieldIdentifier, rules.OperatorIsEmpty, nil),
	))

	assert.Equal(t,
		"(NOT (EXISTS (SELECT 1 FROM identifiers AS identifier_1"+
			" WHERE identifier_1.book = books.id)))"+
			" OR "+
			"(EXISTS (SELECT 1 FROM identifiers AS identifier_2"+
			" WHERE identifier_2.book = books.id"+
			" AND (identifier_2.val IS NULL OR identifier_2.val = '')))",
		pred.SQL)
}

func TestEvaluate_RelationalIsNotEmpty(t *testing.T) {
	e := newBookEvaluator(t)

	pred := e.Evaluate(rules.NewGroup(rules.JoinAnd,
		rules.NewRule(rules.FieldSeries, rules.OperatorIsNotEmpty, nil),
	))

	assert.Equal(t,
		"EXISTS (SELECT 1 FROM books_series_link AS series_link_1"+
			" JOIN series AS series_1 ON series_1.id = series_link_1.series"+
			" WHERE series_link_1.book = books.id"+
			" AND (series_1.name IS NOT NULL AND series_1.name <> ''))",
		pred.SQL)
}

func TestEvaluate_RatingComparison(t *testing.T) {
	e := newBookEvaluator(t)

	pred := e.Evaluate(rules.NewGroup(rules.JoinAnd,
		rules.NewRule(rules.FieldRating, rules.OperatorGreaterThanOrEquals, 5),
	))

	assert.Equal(t,
		"EXISTS (SELECT 1 FROM books_ratings_link AS rating_link_1"+
			" JOIN ratings AS rating_1 ON rating_1.id = rating_link_1.rating"+
			" WHERE rating_link_1.book = books.id"+
			" AND rating_1.rating >= ?)",
		pred.SQL)
	assert.Equal(t, []any{5}, pred.Args)
}

func TestEvaluate_UnknownField_FailsClosed(t *testing.T) {
	// A registry without definitions turns every leaf into the
	// always-false predicate instead of erroring.
	e := NewEvaluator(
		schema.NewRegistry("books", "id"),
		operators.NewRegistry(),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)

	pred := e.Evaluate(rules.NewGroup(rules.JoinOr,
		rules.NewRule(rules.FieldTitle, rules.OperatorEquals, "Dune"),
		rules.NewRule(rules.FieldAuthor, rules.OperatorEquals, "Herbert"),
	))

	assert.Equal(t, "(1 = 0) OR (1 = 0)", pred.SQL)
	assert.Empty(t, pred.Args)
}

func TestEvaluate_MalformedValueInsideExists_FailsClosed(t *testing.T) {
	e := newBookEvaluator(t)

	pred := e.Evaluate(rules.NewGroup(rules.JoinAnd,
		rules.NewRule(rules.FieldAuthor, rules.OperatorEquals, nil),
	))

	assert.Equal(t,
		"EXISTS (SELECT 1 FROM books_authors_link AS author_link_1"+
			" JOIN authors AS author_1 ON author_1.id = author_link_1.author"+
			" WHERE author_link_1.book = books.id"+
			" AND 1 = 0)",
		pred.SQL)
	assert.Empty(t, pred.Args)
}

func TestEvaluate_AliasSequenceResetsPerCall(t *testing.T) {
	e := newBookEvaluator(t)
	group := rules.NewGroup(rules.JoinAnd,
		rules.NewRule(rules.FieldTag, rules.OperatorEquals, "fantasy"),
	)

	first := e.Evaluate(group)
	second := e.Evaluate(group)

	assert.Equal(t, first.SQL, second.SQL)
	assert.Contains(t, first.SQL, "tag_link_1")
}
