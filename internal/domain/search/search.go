// Package search implements the saved-search query AST and its
// compilation to parameterized Postgres SQL. There is no query-builder
// dependency in play here deliberately: every other data-access path in
// this module hand-writes SQL (see internal/db/pgxdb), and the clause
// tree below is small enough that a builder would add indirection
// without buying safety.
package search

import (
	"fmt"
	"strings"

	"github.com/turahe/mediacore/internal/coreerrors"
)

// FieldType is the static type of a searchable field, used to reject
// nonsensical modifier/operator combinations when a clause is built.
type FieldType string

const (
	FieldText      FieldType = "text"
	FieldFloat     FieldType = "float"
	FieldInteger   FieldType = "integer"
	FieldDate      FieldType = "date"
	FieldReference FieldType = "reference"
)

// Modifier rewrites the SQL expression a field compiles to before the
// operator is applied.
type Modifier string

const (
	ModifierLength   Modifier = "length"
	ModifierYear     Modifier = "year"
	ModifierMonth    Modifier = "month"
	ModifierDay      Modifier = "day"
	ModifierDayOfWeek Modifier = "day_of_week"
)

// Operator is a comparison applied to a (possibly modified) field.
type Operator string

const (
	OpEmpty        Operator = "empty"
	OpEqual        Operator = "equal"
	OpLessThan     Operator = "less_than"
	OpLessOrEqual  Operator = "less_than_or_equal"
	OpContains     Operator = "contains"
	OpStartsWith   Operator = "starts_with"
	OpEndsWith     Operator = "ends_with"
	OpMatches      Operator = "matches"
)

// Join combines the children of a Compound or Relation clause.
type Join string

const (
	JoinAnd Join = "and"
	JoinOr  Join = "or"
)

// RelationType names the three link tables a Relation clause can query.
type RelationType string

const (
	RelationAlbum  RelationType = "album"
	RelationTag    RelationType = "tag"
	RelationPerson RelationType = "person"
)

func (r RelationType) linkTable() string {
	return "media_" + string(r)
}

func (r RelationType) descendentView() string {
	return string(r) + "_descendent"
}

// Clause is the sum type over Field, Relation, and Compound queries.
// Compile renders the clause as a boolean SQL expression referencing
// media_item (aliased mi) and returns the positional arguments it
// consumed, continuing numbering from argOffset so nested clauses can
// be spliced into a single parameterized statement.
type Clause interface {
	Compile(catalog string, argOffset int) (sql string, args []any, err error)
}

// FieldClause compares one field of media_item/media_file (by way of
// the view the caller selects from) against a literal value.
type FieldClause struct {
	Invert   bool
	Field    string
	Type     FieldType
	Modifier *Modifier
	Operator Operator
	Value    any
}

// validModifierTypes enforces the spec's compile-time restriction
// that a modifier only applies to a compatible field type.
var validModifierTypes = map[Modifier]FieldType{
	ModifierLength:    FieldText,
	ModifierYear:      FieldDate,
	ModifierMonth:     FieldDate,
	ModifierDay:       FieldDate,
	ModifierDayOfWeek: FieldDate,
}

func (f FieldClause) Compile(catalog string, argOffset int) (string, []any, error) {
	if f.Modifier != nil {
		want, ok := validModifierTypes[*f.Modifier]
		if !ok {
			return "", nil, coreerrors.InvalidData(fmt.Sprintf("unknown modifier %q", *f.Modifier))
		}
		if want != f.Type {
			return "", nil, coreerrors.InvalidData(fmt.Sprintf("modifier %q cannot apply to %s field %q", *f.Modifier, f.Type, f.Field))
		}
	}

	expr := f.columnExpr()

	switch f.Operator {
	case OpEmpty:
		if f.Invert {
			return expr + " IS NOT NULL", nil, nil
		}
		return expr + " IS NULL", nil, nil

	case OpEqual:
		ph := placeholder(argOffset + 1)
		if f.Invert {
			return fmt.Sprintf("%s IS DISTINCT FROM %s", expr, ph), []any{f.Value}, nil
		}
		return fmt.Sprintf("%s IS NOT DISTINCT FROM %s", expr, ph), []any{f.Value}, nil

	case OpLessThan:
		ph := placeholder(argOffset + 1)
		if f.Invert {
			return fmt.Sprintf("%s >= %s", expr, ph), []any{f.Value}, nil
		}
		return fmt.Sprintf("%s < %s", expr, ph), []any{f.Value}, nil

	case OpLessOrEqual:
		ph := placeholder(argOffset + 1)
		if f.Invert {
			return fmt.Sprintf("%s > %s", expr, ph), []any{f.Value}, nil
		}
		return fmt.Sprintf("%s <= %s", expr, ph), []any{f.Value}, nil

	case OpContains:
		ph := placeholder(argOffset + 1)
		pattern := fmt.Sprintf("'%%' || %s || '%%'", ph)
		if f.Invert {
			return fmt.Sprintf("(%s IS NULL OR %s NOT LIKE %s)", expr, expr, pattern), []any{f.Value}, nil
		}
		return fmt.Sprintf("%s LIKE %s", expr, pattern), []any{f.Value}, nil

	case OpStartsWith:
		ph := placeholder(argOffset + 1)
		pattern := fmt.Sprintf("%s || '%%'", ph)
		if f.Invert {
			return fmt.Sprintf("(%s IS NULL OR %s NOT LIKE %s)", expr, expr, pattern), []any{f.Value}, nil
		}
		return fmt.Sprintf("%s LIKE %s", expr, pattern), []any{f.Value}, nil

	case OpEndsWith:
		ph := placeholder(argOffset + 1)
		pattern := fmt.Sprintf("'%%' || %s", ph)
		if f.Invert {
			return fmt.Sprintf("(%s IS NULL OR %s NOT LIKE %s)", expr, expr, pattern), []any{f.Value}, nil
		}
		return fmt.Sprintf("%s LIKE %s", expr, pattern), []any{f.Value}, nil

	case OpMatches:
		ph := placeholder(argOffset + 1)
		if f.Invert {
			return fmt.Sprintf("(%s IS NULL OR %s !~ %s)", expr, expr, ph), []any{f.Value}, nil
		}
		return fmt.Sprintf("%s ~ %s", expr, ph), []any{f.Value}, nil

	default:
		return "", nil, coreerrors.InvalidData(fmt.Sprintf("unknown operator %q", f.Operator))
	}
}

func (f FieldClause) columnExpr() string {
	col := quoteIdent(f.Field)
	if f.Modifier == nil {
		return col
	}
	switch *f.Modifier {
	case ModifierLength:
		return "char_length(" + col + ")"
	case ModifierYear:
		return "EXTRACT(YEAR FROM " + col + ")"
	case ModifierMonth:
		return "EXTRACT(MONTH FROM " + col + ")"
	case ModifierDay:
		return "EXTRACT(DAY FROM " + col + ")"
	case ModifierDayOfWeek:
		return "EXTRACT(DOW FROM " + col + ")"
	default:
		return col
	}
}

func quoteIdent(name string) string {
	if strings.Contains(name, ".") {
		parts := strings.SplitN(name, ".", 2)
		return `"` + parts[0] + `".` + `"` + parts[1] + `"`
	}
	return `"` + name + `"`
}

func placeholder(n int) string {
	return fmt.Sprintf("$%d", n)
}

// CompoundClause ANDs or ORs a list of child clauses, with an optional
// overall inversion.
type CompoundClause struct {
	Invert  bool
	Join    Join
	Queries []Clause
}

func (c CompoundClause) Compile(catalog string, argOffset int) (string, []any, error) {
	if len(c.Queries) == 0 {
		// An empty Compound.queries emits TRUE for (¬invert ∧ And) or
		// (invert ∧ Or), else FALSE.
		trueCase := (!c.Invert && c.Join == JoinAnd) || (c.Invert && c.Join == JoinOr)
		if trueCase {
			return "TRUE", nil, nil
		}
		return "FALSE", nil, nil
	}

	joinWord := " AND "
	if c.Join == JoinOr {
		joinWord = " OR "
	}

	var parts []string
	var args []any
	for _, q := range c.Queries {
		sql, qArgs, err := q.Compile(catalog, argOffset+len(args))
		if err != nil {
			return "", nil, err
		}
		parts = append(parts, "("+sql+")")
		args = append(args, qArgs...)
	}

	expr := strings.Join(parts, joinWord)
	if c.Invert {
		expr = "NOT (" + expr + ")"
	}
	return expr, args, nil
}

// RelationClause tests whether media_item has a matching row in one of
// the three link tables, optionally traversing the forest through the
// type's *_descendent view.
type RelationClause struct {
	Kind      RelationType
	Recursive bool
	Invert    bool
	Join      Join
	Queries   []Clause
}

// Compile emits an EXISTS/NOT EXISTS subquery scoped to catalog. The
// link-table join always carries `ml.catalog = $catalog` ahead of the
// caller-supplied predicate: this is the invariant that prevents a
// saved search in one catalog from matching relation rows belonging to
// another. A recursive relation walks the entity's *_descendent view so
// that a predicate matching an ancestor album/tag also matches media
// filed under any of its descendants; person has no hierarchy and
// rejects Recursive.
func (r RelationClause) Compile(catalog string, argOffset int) (string, []any, error) {
	if r.Recursive && r.Kind == RelationPerson {
		return "", nil, coreerrors.InvalidData("person relations cannot be recursive")
	}

	link := r.Kind.linkTable()
	entityTable := string(r.Kind)
	catalogPH := placeholder(argOffset + 1)

	var join string
	if r.Recursive {
		view := r.Kind.descendentView()
		join = fmt.Sprintf(
			`%s AS ml
			 JOIN %s AS d ON d.descendent = ml.%s
			 JOIN %s AS relation ON relation.id = d.id`,
			link, view, entityTable, entityTable,
		)
	} else {
		join = fmt.Sprintf(
			`%s AS ml JOIN %s AS relation ON relation.id = ml.%s`,
			link, entityTable, entityTable,
		)
	}

	inner := CompoundClause{Invert: false, Join: r.Join, Queries: r.Queries}
	innerSQL, args, err := inner.Compile(catalog, argOffset+1)
	if err != nil {
		return "", nil, err
	}

	exists := "EXISTS"
	if r.Invert {
		exists = "NOT EXISTS"
	}

	sql := fmt.Sprintf(
		`%s (SELECT 1 FROM %s WHERE ml.media = mi.id AND ml.catalog = %s AND (%s))`,
		exists, join, catalogPH, innerSQL,
	)
	allArgs := append([]any{catalog}, args...)
	return sql, allArgs, nil
}

// Compile renders the root of a saved search: the caller's clause tree,
// always ANDed with the catalog scope on media_item itself.
func Compile(catalog string, root Clause) (sql string, args []any, err error) {
	rootSQL, rootArgs, err := root.Compile(catalog, 1)
	if err != nil {
		return "", nil, err
	}
	sql = fmt.Sprintf(`mi.catalog = $1 AND (%s)`, rootSQL)
	args = append([]any{catalog}, rootArgs...)
	return sql, args, nil
}
