package search

import (
	"encoding/json"

	"github.com/turahe/mediacore/internal/coreerrors"
)

// wireClause is the JSON-on-the-wire shape for the Clause sum type
// stored in SavedSearch.Query. A single envelope with a "kind"
// discriminator is easier to evolve than Rust's untagged enum, and
// keeps Marshal/Unmarshal symmetric.
type wireClause struct {
	Kind string `json:"kind"`

	// Field
	Invert   bool      `json:"invert,omitempty"`
	Field    string    `json:"field,omitempty"`
	Type     FieldType `json:"type,omitempty"`
	Modifier *Modifier `json:"modifier,omitempty"`
	Operator Operator  `json:"operator,omitempty"`
	Value    any       `json:"value,omitempty"`

	// Compound / Relation
	Join    Join          `json:"join,omitempty"`
	Queries []wireClause  `json:"queries,omitempty"`

	// Relation
	RelationKind RelationType `json:"relation_kind,omitempty"`
	Recursive    bool         `json:"recursive,omitempty"`
}

const (
	kindField    = "field"
	kindCompound = "compound"
	kindRelation = "relation"
)

func toWire(c Clause) (wireClause, error) {
	switch v := c.(type) {
	case FieldClause:
		return wireClause{
			Kind: kindField, Invert: v.Invert, Field: v.Field, Type: v.Type,
			Modifier: v.Modifier, Operator: v.Operator, Value: v.Value,
		}, nil
	case CompoundClause:
		children, err := toWireSlice(v.Queries)
		if err != nil {
			return wireClause{}, err
		}
		return wireClause{Kind: kindCompound, Invert: v.Invert, Join: v.Join, Queries: children}, nil
	case RelationClause:
		children, err := toWireSlice(v.Queries)
		if err != nil {
			return wireClause{}, err
		}
		return wireClause{
			Kind: kindRelation, RelationKind: v.Kind, Recursive: v.Recursive,
			Invert: v.Invert, Join: v.Join, Queries: children,
		}, nil
	default:
		return wireClause{}, coreerrors.InvalidData("unknown clause type")
	}
}

func toWireSlice(clauses []Clause) ([]wireClause, error) {
	out := make([]wireClause, 0, len(clauses))
	for _, c := range clauses {
		w, err := toWire(c)
		if err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, nil
}

func fromWire(w wireClause) (Clause, error) {
	switch w.Kind {
	case kindField:
		return FieldClause{
			Invert: w.Invert, Field: w.Field, Type: w.Type,
			Modifier: w.Modifier, Operator: w.Operator, Value: w.Value,
		}, nil
	case kindCompound:
		children, err := fromWireSlice(w.Queries)
		if err != nil {
			return nil, err
		}
		return CompoundClause{Invert: w.Invert, Join: w.Join, Queries: children}, nil
	case kindRelation:
		children, err := fromWireSlice(w.Queries)
		if err != nil {
			return nil, err
		}
		return RelationClause{
			Kind: w.RelationKind, Recursive: w.Recursive,
			Invert: w.Invert, Join: w.Join, Queries: children,
		}, nil
	default:
		return nil, coreerrors.InvalidData("unknown clause kind " + w.Kind)
	}
}

func fromWireSlice(wires []wireClause) ([]Clause, error) {
	out := make([]Clause, 0, len(wires))
	for _, w := range wires {
		c, err := fromWire(w)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// Marshal serializes a Clause tree to the bytes stored in
// entities.SavedSearch.Query.
func Marshal(root Clause) ([]byte, error) {
	w, err := toWire(root)
	if err != nil {
		return nil, err
	}
	b, err := json.Marshal(w)
	if err != nil {
		return nil, coreerrors.JsonError(err)
	}
	return b, nil
}

// Unmarshal deserializes a SavedSearch.Query payload back into a Clause
// tree ready for Compile.
func Unmarshal(data []byte) (Clause, error) {
	var w wireClause
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, coreerrors.JsonError(err)
	}
	return fromWire(w)
}
