// Package predicate holds the boolean SQL fragment type the rule compiler
// produces and the combinators used to assemble it. Fragments use `?`
// parameter markers; callers targeting PostgreSQL rebind them with Rebind.
package predicate

import (
	"fmt"
	"strings"
)

// Predicate is a boolean expression over the root books row, embeddable as
// a WHERE condition. It never executes anything itself.
type Predicate struct {
	SQL  string
	Args []any
}

// All matches every record. An empty rule group compiles to this.
func All() Predicate {
	return Predicate{SQL: "1 = 1"}
}

// None matches no record. Every fail-closed path compiles to this.
func None() Predicate {
	return Predicate{SQL: "1 = 0"}
}

// And combines predicates conjunctively. And() with no operands is All.
func And(preds ...Predicate) Predicate {
	return combine("AND", All(), preds)
}

// Or combines predicates disjunctively. Or() with no operands is None.
func Or(preds ...Predicate) Predicate {
	return combine("OR", None(), preds)
}

// Not negates a predicate.
func Not(p Predicate) Predicate {
	return Predicate{
		SQL:  "NOT (" + p.SQL + ")",
		Args: p.Args,
	}
}

func combine(join string, identity Predicate, preds []Predicate) Predicate {
	switch len(preds) {
	case 0:
		return identity
	case 1:
		return preds[0]
	}
	parts := make([]string, 0, len(preds))
	var args []any
	for _, p := range preds {
		parts = append(parts, "("+p.SQL+")")
		args = append(args, p.Args...)
	}
	return Predicate{
		SQL:  strings.Join(parts, " "+join+" "),
		Args: args,
	}
}

// Rebind rewrites `?` markers to numbered $1..$N placeholders, starting at
// the given index. Pass 1 unless the predicate is appended to a query that
// already carries parameters.
func Rebind(sql string, start int) string {
	var b strings.Builder
	idx := start
	for i := 0; i < len(sql); i++ {
		if sql[i] == '?' {
			b.WriteString(fmt.Sprintf("$%d", idx))
			idx++
		} else {
			b.WriteByte(sql[i])
		}
	}
	return b.String()
}
