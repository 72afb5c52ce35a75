// Package evaluate compiles a Magic Shelf rule tree into a boolean SQL
// predicate over the books table. The walk is pure recursion: the field
// registry resolves where each field lives, the operator registry builds
// the column-level comparison, and relational fields are wrapped in a
// correlated existence check — one per leaf rule.
package evaluate

import (
	"fmt"
	"log/slog"

	"github.com/jinzhu/inflection"

	"github.com/shelfworks/magicshelf/magicshelf/predicate"
	"github.com/shelfworks/magicshelf/magicshelf/rules"
	"github.com/shelfworks/magicshelf/magicshelf/rules/operators"
	"github.com/shelfworks/magicshelf/magicshelf/schema"
)

type Option func(*Evaluator)

// WithLogger sets the logger used for fail-closed diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Evaluator) {
		e.logger = logger
	}
}

// Evaluator holds the two process-wide registries and no other state;
// it may be shared across concurrent callers.
type Evaluator struct {
	fields    *schema.Registry
	operators *operators.Registry
	logger    *slog.Logger
}

func NewEvaluator(fields *schema.Registry, ops *operators.Registry, opts ...Option) *Evaluator {
	e := &Evaluator{
		fields:    fields,
		operators: ops,
		logger:    slog.Default(),
	}
	for i := range opts {
		opts[i](e)
	}
	return e
}

// Evaluate compiles a rule tree. It never errors for well-formed trees:
// rules that cannot be compiled become the always-false predicate, so a
// broken branch returns zero results instead of failing the whole query.
// The caller embeds the result as a WHERE condition and is responsible
// for SELECT, dedup, pagination and counting.
func (e *Evaluator) Evaluate(group *rules.GroupRule) predicate.Predicate {
	c := &compilation{evaluator: e}
	return c.group(group)
}

// compilation carries the per-call alias sequence so that every existence
// check in one compiled tree gets a unique subquery alias.
type compilation struct {
	evaluator *Evaluator
	aliasSeq  int
}

func (c *compilation) node(n rules.Node) predicate.Predicate {
	switch node := n.(type) {
	case *rules.GroupRule:
		return c.group(node)
	case *rules.Rule:
		return c.rule(node)
	default:
		// Cannot originate from deserialized JSON; a foreign Node
		// implementation is a programmer error.
		panic(fmt.Sprintf("unsupported rule node type %T", n))
	}
}

func (c *compilation) group(g *rules.GroupRule) predicate.Predicate {
	if len(g.Rules) == 0 {
		// The persisted "no filter" state: vacuously true.
		return predicate.All()
	}
	children := make([]predicate.Predicate, 0, len(g.Rules))
	for _, child := range g.Rules {
		children = append(children, c.node(child))
	}
	if g.JoinType == rules.JoinOr {
		return predicate.Or(children...)
	}
	return predicate.And(children...)
}

func (c *compilation) rule(r *rules.Rule) predicate.Predicate {
	def, ok := c.evaluator.fields.DefinitionFor(r.Field)
	if !ok {
		c.evaluator.logger.Warn("skipping rule with unregistered field",
			"field", string(r.Field),
			"operator", string(r.Operator))
		return predicate.None()
	}

	switch d := def.(type) {
	case schema.DirectColumn:
		column := c.evaluator.fields.RootTable() + "." + d.Column
		return c.evaluator.operators.Apply(column, r.Operator, r.Value)
	case schema.ManyToMany:
		return c.manyToMany(d, r)
	case schema.OneToMany:
		return c.oneToMany(d, r)
	default:
		c.evaluator.logger.Warn("skipping rule with unsupported field definition",
			"field", string(r.Field),
			"definition", fmt.Sprintf("%T", def))
		return predicate.None()
	}
}

// manyToMany builds one existence check through the link table. IS_EMPTY
// additionally treats the absence of any linked row as empty: a book with
// no series at all has an empty series, not just a book linked to a series
// with a blank name.
func (c *compilation) manyToMany(d schema.ManyToMany, r *rules.Rule) predicate.Predicate {
	if r.Operator == rules.OperatorIsEmpty {
		return predicate.Or(
			predicate.Not(c.linkExists(d)),
			c.manyToManyExists(d, rules.OperatorIsEmpty, nil),
		)
	}
	return c.manyToManyExists(d, r.Operator, r.Value)
}

func (c *compilation) manyToManyExists(d schema.ManyToMany, op rules.RuleOperator, value any) predicate.Predicate {
	c.aliasSeq++
	base := inflection.Singular(d.TargetTable)
	linkAlias := fmt.Sprintf("%s_link_%d", base, c.aliasSeq)
	targetAlias := fmt.Sprintf("%s_%d", base, c.aliasSeq)

	inner := c.evaluator.operators.Apply(targetAlias+"."+d.TargetColumn, op, value)

	sql := "EXISTS (SELECT 1 FROM " + d.LinkTable + " AS " + linkAlias +
		" JOIN " + d.TargetTable + " AS " + targetAlias +
		" ON " + targetAlias + "." + d.TargetPK + " = " + linkAlias + "." + d.LinkTargetFK +
		" WHERE " + linkAlias + "." + d.LinkRootFK + " = " + c.rootRef() +
		" AND " + inner.SQL + ")"
	return predicate.Predicate{SQL: sql, Args: inner.Args}
}

func (c *compilation) linkExists(d schema.ManyToMany) predicate.Predicate {
	c.aliasSeq++
	linkAlias := fmt.Sprintf("%s_link_%d", inflection.Singular(d.TargetTable), c.aliasSeq)
	sql := "EXISTS (SELECT 1 FROM " + d.LinkTable + " AS " + linkAlias +
		" WHERE " + linkAlias + "." + d.LinkRootFK + " = " + c.rootRef() + ")"
	return predicate.Predicate{SQL: sql}
}

// oneToMany has the same existence-check shape with no link table: the
// target rows carry the foreign key back to the book themselves.
func (c *compilation) oneToMany(d schema.OneToMany, r *rules.Rule) predicate.Predicate {
	if r.Operator == rules.OperatorIsEmpty {
		return predicate.Or(
			predicate.Not(c.targetExists(d)),
			c.oneToManyExists(d, rules.OperatorIsEmpty, nil),
		)
	}
	return c.oneToManyExists(d, r.Operator, r.Value)
}

func (c *compilation) oneToManyExists(d schema.OneToMany, op rules.RuleOperator, value any) predicate.Predicate {
	c.aliasSeq++
	targetAlias := fmt.Sprintf("%s_%d", inflection.Singular(d.TargetTable), c.aliasSeq)

	inner := c.evaluator.operators.Apply(targetAlias+"."+d.TargetColumn, op, value)

	sql := "EXISTS (SELECT 1 FROM " + d.TargetTable + " AS " + targetAlias +
		" WHERE " + targetAlias + "." + d.TargetRootFK + " = " + c.rootRef() +
		" AND " + inner.SQL + ")"
	return predicate.Predicate{SQL: sql, Args: inner.Args}
}

func (c *compilation) targetExists(d schema.OneToMany) predicate.Predicate {
	c.aliasSeq++
	targetAlias := fmt.Sprintf("%s_%d", inflection.Singular(d.TargetTable), c.aliasSeq)
	sql := "EXISTS (SELECT 1 FROM " + d.TargetTable + " AS " + targetAlias +
		" WHERE " + targetAlias + "." + d.TargetRootFK + " = " + c.rootRef() + ")"
	return predicate.Predicate{SQL: sql}
}

func (c *compilation) rootRef() string {
	return c.evaluator.fields.RootTable() + "." + c.evaluator.fields.RootPK()
}
