// Package operators converts an operator plus a runtime value into a
// column-level boolean predicate. It is the single fail-closed point for
// malformed end-user input: a missing or wrong-shaped value never raises,
// it compiles to the always-false predicate.
package operators

import (
	"reflect"
	"strings"

	"github.com/shelfworks/magicshelf/magicshelf/predicate"
	"github.com/shelfworks/magicshelf/magicshelf/rules"
)

// Strategy builds a predicate over one column for one operator.
type Strategy func(column string, value any) predicate.Predicate

type Registry struct {
	strategies map[rules.RuleOperator]Strategy
}

// NewRegistry builds the strategy table for every RuleOperator. The
// registry is read-only after construction and safe for concurrent use.
func NewRegistry() *Registry {
	r := &Registry{strategies: make(map[rules.RuleOperator]Strategy)}

	r.strategies[rules.OperatorEquals] = scalar("=")
	r.strategies[rules.OperatorNotEquals] = scalar("<>")
	r.strategies[rules.OperatorGreaterThan] = scalar(">")
	r.strategies[rules.OperatorLessThan] = scalar("<")
	r.strategies[rules.OperatorGreaterThanOrEquals] = scalar(">=")
	r.strategies[rules.OperatorLessThanOrEquals] = scalar("<=")

	// Pattern operators lowercase both sides so matching stays
	// case-insensitive on SQLite and PostgreSQL alike. `%` and `_` in the
	// user value are NOT escaped: they act as wildcards. Persisted shelves
	// rely on that, so it must not be "fixed".
	r.strategies[rules.OperatorContains] = pattern("LIKE", "%", "%")
	r.strategies[rules.OperatorNotContains] = pattern("NOT LIKE", "%", "%")
	r.strategies[rules.OperatorStartsWith] = pattern("LIKE", "", "%")
	r.strategies[rules.OperatorEndsWith] = pattern("LIKE", "%", "")

	r.strategies[rules.OperatorIn] = in(false)
	r.strategies[rules.OperatorNotIn] = in(true)

	r.strategies[rules.OperatorIsEmpty] = func(column string, _ any) predicate.Predicate {
		return predicate.Predicate{SQL: "(" + column + " IS NULL OR " + column + " = '')"}
	}
	r.strategies[rules.OperatorIsNotEmpty] = func(column string, _ any) predicate.Predicate {
		return predicate.Predicate{SQL: "(" + column + " IS NOT NULL AND " + column + " <> '')"}
	}

	return r
}

// Apply builds the column predicate for one operator and value. An
// unregistered operator is a maintenance omission and compiles to the
// always-false predicate.
func (r *Registry) Apply(column string, op rules.RuleOperator, value any) predicate.Predicate {
	strategy, ok := r.strategies[op]
	if !ok {
		return predicate.None()
	}
	return strategy(column, value)
}

func scalar(sqlOp string) Strategy {
	return func(column string, value any) predicate.Predicate {
		if !isScalar(value) {
			return predicate.None()
		}
		return predicate.Predicate{
			SQL:  column + " " + sqlOp + " ?",
			Args: []any{value},
		}
	}
}

func pattern(sqlOp, prefix, suffix string) Strategy {
	return func(column string, value any) predicate.Predicate {
		text, ok := value.(string)
		if !ok {
			return predicate.None()
		}
		return predicate.Predicate{
			SQL:  "LOWER(" + column + ") " + sqlOp + " ?",
			Args: []any{prefix + strings.ToLower(text) + suffix},
		}
	}
}

func in(negated bool) Strategy {
	return func(column string, value any) predicate.Predicate {
		items, ok := asList(value)
		if !ok {
			return predicate.None()
		}
		if len(items) == 0 {
			// IN () is not valid SQL. An empty list matches nothing;
			// its complement matches everything.
			if negated {
				return predicate.All()
			}
			return predicate.None()
		}
		sqlOp := "IN"
		if negated {
			sqlOp = "NOT IN"
		}
		markers := strings.Repeat(", ?", len(items))[2:]
		return predicate.Predicate{
			SQL:  column + " " + sqlOp + " (" + markers + ")",
			Args: items,
		}
	}
}

func isScalar(value any) bool {
	if value == nil {
		return false
	}
	kind := reflect.TypeOf(value).Kind()
	return kind != reflect.Slice && kind != reflect.Array && kind != reflect.Map
}

// asList accepts any slice shape: decoded JSON arrives as []any, callers
// constructing trees in code may pass typed slices.
func asList(value any) ([]any, bool) {
	if value == nil {
		return nil, false
	}
	v := reflect.ValueOf(value)
	if v.Kind() != reflect.Slice && v.Kind() != reflect.Array {
		return nil, false
	}
	items := make([]any, v.Len())
	for i := 0; i < v.Len(); i++ {
		items[i] = v.Index(i).Interface()
	}
	return items, true
}
