// Package query assembles immutable QueryPlan values through a fluent
// builder. The builder does no store access; every method returns a new
// builder so plans never share mutable state across invocations.
package query

import "github.com/adfharrison1/go-docbatch/pkg/domain"

// Builder accumulates filter conditions, ordering, a limit, and a cursor
// into a QueryPlan. The zero value is unusable; start with Collection.
type Builder struct {
	plan domain.QueryPlan
}

// Collection starts a builder targeting the named collection
func Collection(name string) Builder {
	return Builder{plan: domain.QueryPlan{Collection: name}}
}

// Where appends a filter condition. Conditions are a conjunction.
func (b Builder) Where(field string, op domain.Operator, value interface{}) Builder {
	conds := make([]domain.FilterCondition, len(b.plan.Conditions), len(b.plan.Conditions)+1)
	copy(conds, b.plan.Conditions)
	b.plan.Conditions = append(conds, domain.FilterCondition{
		Field:    field,
		Operator: op,
		Value:    value,
	})
	return b
}

// OrderBy sets the single order spec, replacing any previous one
func (b Builder) OrderBy(field string, direction domain.OrderDirection) Builder {
	b.plan.Order = &domain.OrderSpec{Field: field, Direction: direction}
	return b
}

// Limit caps the number of results. Zero means unlimited.
func (b Builder) Limit(n int) Builder {
	b.plan.Limit = n
	return b
}

// StartAfter resumes results after the document named by the encoded
// cursor, keeping filters and order intact
func (b Builder) StartAfter(cursor string) Builder {
	b.plan.StartAfter = cursor
	return b
}

// Plan returns the assembled plan
func (b Builder) Plan() domain.QueryPlan {
	return b.plan
}

// NextPage derives the plan for the page following the given documents:
// same filters and order, page-sized limit, cursor advanced to the last
// document of the page. An empty lastDocID means the first page, which
// keeps the base plan's own cursor so a caller-supplied resume point is
// honored. This is how pagination composes with arbitrary filters
// without the executor understanding filter semantics.
func NextPage(base domain.QueryPlan, pageSize int, lastDocID string) (domain.QueryPlan, error) {
	page := base
	page.Limit = pageSize
	if lastDocID == "" {
		return page, nil
	}
	encoded, err := domain.EncodeCursor(&domain.Cursor{ID: lastDocID})
	if err != nil {
		return domain.QueryPlan{}, err
	}
	page.StartAfter = encoded
	return page, nil
}
