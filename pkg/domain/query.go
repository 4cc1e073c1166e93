package domain

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"
)

// Operator represents a comparison operator in a filter condition
type Operator string

const (
	OpEqual        Operator = "=="
	OpNotEqual     Operator = "!="
	OpGreater      Operator = ">"
	OpGreaterEqual Operator = ">="
	OpLess         Operator = "<"
	OpLessEqual    Operator = "<="
	OpIn           Operator = "in"
)

// Valid reports whether the operator is one of the supported comparisons
func (op Operator) Valid() bool {
	switch op {
	case OpEqual, OpNotEqual, OpGreater, OpGreaterEqual, OpLess, OpLessEqual, OpIn:
		return true
	}
	return false
}

// FilterCondition is a single (field, operator, value) predicate.
// A query's conditions are a conjunction: all must match.
type FilterCondition struct {
	Field    string      `json:"field"`
	Operator Operator    `json:"operator"`
	Value    interface{} `json:"value"`
}

// OrderDirection is the sort direction of an OrderSpec
type OrderDirection string

const (
	Ascending  OrderDirection = "asc"
	Descending OrderDirection = "desc"
)

// OrderSpec orders results by a single field before any limit is applied
type OrderSpec struct {
	Field     string         `json:"field"`
	Direction OrderDirection `json:"direction"`
}

// QueryPlan is the executable description of one query: which collection,
// which predicates, how to order, how many to return, and where to resume.
// A plan is a value; page continuation builds a fresh plan with the same
// filters and a new cursor rather than mutating shared builder state.
type QueryPlan struct {
	Collection string            `json:"collection"`
	Conditions []FilterCondition `json:"conditions,omitempty"`
	Order      *OrderSpec        `json:"order,omitempty"`
	Limit      int               `json:"limit,omitempty"`

	// StartAfter is an encoded cursor; results resume after the document
	// it names. Empty means start from the beginning.
	StartAfter string `json:"start_after,omitempty"`
}

// Validate checks the plan before any store access
func (p QueryPlan) Validate() error {
	if p.Collection == "" {
		return fmt.Errorf("no collection selected")
	}
	for _, cond := range p.Conditions {
		if cond.Field == "" {
			return fmt.Errorf("filter condition has empty field")
		}
		if !cond.Operator.Valid() {
			return fmt.Errorf("unsupported operator %q on field %q", cond.Operator, cond.Field)
		}
	}
	if p.Limit < 0 {
		return fmt.Errorf("limit cannot be negative")
	}
	if p.Order != nil && p.Order.Direction != Ascending && p.Order.Direction != Descending {
		return fmt.Errorf("invalid order direction %q", p.Order.Direction)
	}
	return nil
}

// Cursor is an opaque reference to the last document seen in a page
type Cursor struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	SortKey   string    `json:"sort_key,omitempty"`
}

// EncodeCursor encodes a cursor to base64
func EncodeCursor(cursor *Cursor) (string, error) {
	data, err := json.Marshal(cursor)
	if err != nil {
		return "", fmt.Errorf("failed to marshal cursor: %w", err)
	}
	return base64.URLEncoding.EncodeToString(data), nil
}

// DecodeCursor decodes a base64 cursor
func DecodeCursor(encoded string) (*Cursor, error) {
	data, err := base64.URLEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("failed to decode cursor: %w", err)
	}

	var cursor Cursor
	if err := json.Unmarshal(data, &cursor); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cursor: %w", err)
	}

	return &cursor, nil
}
