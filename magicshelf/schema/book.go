package schema

import (
	"fmt"

	"github.com/hashicorp/go-multierror"

	"github.com/shelfworks/magicshelf/magicshelf/rules"
)

// NewBookRegistry wires every RuleField against the Calibre-style library
// schema: `books` is the root table, string-valued relations hang off link
// tables, and identifiers carry their own foreign key back to the book.
// Extending the system with a new filterable field means adding one entry
// here; no other component changes.
func NewBookRegistry() *Registry {
	r := NewRegistry("books", "id")

	r.Register(rules.FieldTitle, DirectColumn{Column: "title"})
	r.Register(rules.FieldPubdate, DirectColumn{Column: "pubdate"})
	r.Register(rules.FieldISBN, DirectColumn{Column: "isbn"})

	r.Register(rules.FieldAuthor, ManyToMany{
		LinkTable:    "books_authors_link",
		LinkRootFK:   "book",
		LinkTargetFK: "author",
		TargetTable:  "authors",
		TargetPK:     "id",
		TargetColumn: "name",
	})
	r.Register(rules.FieldTag, ManyToMany{
		LinkTable:    "books_tags_link",
		LinkRootFK:   "book",
		LinkTargetFK: "tag",
		TargetTable:  "tags",
		TargetPK:     "id",
		TargetColumn: "name",
	})
	r.Register(rules.FieldSeries, ManyToMany{
		LinkTable:    "books_series_link",
		LinkRootFK:   "book",
		LinkTargetFK: "series",
		TargetTable:  "series",
		TargetPK:     "id",
		TargetColumn: "name",
	})
	r.Register(rules.FieldPublisher, ManyToMany{
		LinkTable:    "books_publishers_link",
		LinkRootFK:   "book",
		LinkTargetFK: "publisher",
		TargetTable:  "publishers",
		TargetPK:     "id",
		TargetColumn: "name",
	})
	r.Register(rules.FieldLanguage, ManyToMany{
		LinkTable:    "books_languages_link",
		LinkRootFK:   "book",
		LinkTargetFK: "lang_code",
		TargetTable:  "languages",
		TargetPK:     "id",
		TargetColumn: "lang_code",
	})
	r.Register(rules.FieldRating, ManyToMany{
		LinkTable:    "books_ratings_link",
		LinkRootFK:   "book",
		LinkTargetFK: "rating",
		TargetTable:  "ratings",
		TargetPK:     "id",
		TargetColumn: "rating",
	})

	r.Register(rules.FieldIdentifier, OneToMany{
		TargetTable:  "identifiers",
		TargetRootFK: "book",
		TargetColumn: "val",
	})

	return r
}

// Validate checks the registry covers every given field and that each
// definition names all the storage pieces its topology requires. All
// findings are reported together.
func (r *Registry) Validate(fields []rules.RuleField) error {
	var result *multierror.Error

	if r.rootTable == "" {
		result = multierror.Append(result, fmt.Errorf("registry has no root table"))
	}
	if r.rootPK == "" {
		result = multierror.Append(result, fmt.Errorf("registry has no root primary key"))
	}

	for _, field := range fields {
		def, ok := r.definitions[field]
		if !ok {
			result = multierror.Append(result, fmt.Errorf("field %q has no definition", field))
			continue
		}
		if err := validateDefinition(field, def); err != nil {
			result = multierror.Append(result, err)
		}
	}

	return result.ErrorOrNil()
}

func validateDefinition(field rules.RuleField, def FieldDefinition) error {
	switch d := def.(type) {
	case DirectColumn:
		if d.Column == "" {
			return fmt.Errorf("field %q: direct definition has no column", field)
		}
	case ManyToMany:
		if d.LinkTable == "" || d.LinkRootFK == "" || d.LinkTargetFK == "" ||
			d.TargetTable == "" || d.TargetPK == "" || d.TargetColumn == "" {
			return fmt.Errorf("field %q: many-to-many definition is incomplete", field)
		}
	case OneToMany:
		if d.TargetTable == "" || d.TargetRootFK == "" || d.TargetColumn == "" {
			return fmt.Errorf("field %q: one-to-many definition is incomplete", field)
		}
	default:
		return fmt.Errorf("field %q: unsupported definition type %T", field, def)
	}
	return nil
}
