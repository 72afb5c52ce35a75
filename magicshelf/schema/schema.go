// Package schema maps abstract rule fields onto physical storage. Each
// field resolves to exactly one topology: a column on the root table, a
// many-to-many relation through a link table, or a one-to-many relation
// via a foreign key on the related table.
package schema

import (
	"github.com/shelfworks/magicshelf/magicshelf/rules"
)

// FieldDefinition is a sealed sum over the three storage topologies.
// Keeping them as distinct types makes "exactly one relational shape" a
// compile-time property instead of a runtime assumption.
type FieldDefinition interface {
	isFieldDefinition()
}

// DirectColumn is a column on the root table itself.
type DirectColumn struct {
	Column string
}

func (DirectColumn) isFieldDefinition() {}

// ManyToMany reaches the target table through a link table carrying one
// foreign key back to the root and one to the target.
type ManyToMany struct {
	LinkTable    string
	LinkRootFK   string
	LinkTargetFK string
	TargetTable  string
	TargetPK     string
	TargetColumn string
}

func (ManyToMany) isFieldDefinition() {}

// OneToMany scans the target table directly, filtered by its own foreign
// key back to the root. No link table is involved.
type OneToMany struct {
	TargetTable  string
	TargetRootFK string
	TargetColumn string
}

func (OneToMany) isFieldDefinition() {}

// Registry is the immutable field-to-storage table. It is built once at
// process start and shared freely across concurrent callers.
type Registry struct {
	rootTable   string
	rootPK      string
	definitions map[rules.RuleField]FieldDefinition
}

func NewRegistry(rootTable, rootPK string) *Registry {
	return &Registry{
		rootTable:   rootTable,
		rootPK:      rootPK,
		definitions: make(map[rules.RuleField]FieldDefinition),
	}
}

// Register binds one field to its storage topology. Registering the same
// field twice replaces the earlier binding; a correct registry never does.
func (r *Registry) Register(field rules.RuleField, def FieldDefinition) *Registry {
	r.definitions[field] = def
	return r
}

// DefinitionFor resolves a field. The second return is false for an
// unregistered field; the evaluator treats that as "unknown field" and
// never sees an error from here.
func (r *Registry) DefinitionFor(field rules.RuleField) (FieldDefinition, bool) {
	def, ok := r.definitions[field]
	return def, ok
}

func (r *Registry) RootTable() string {
	return r.rootTable
}

func (r *Registry) RootPK() string {
	return r.rootPK
}
