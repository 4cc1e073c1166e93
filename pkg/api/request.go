package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/adfharrison1/go-docbatch/pkg/domain"
	"github.com/adfharrison1/go-docbatch/pkg/query"
)

// FilterClause is one filter condition in a request body
type FilterClause struct {
	Field    string      `json:"field"`
	Operator string      `json:"operator"`
	Value    interface{} `json:"value"`
}

// OrderClause is the optional ordering in a request body
type OrderClause struct {
	Field     string `json:"field"`
	Direction string `json:"direction"`
}

// BatchRequest is the shared request body for batch operations
type BatchRequest struct {
	Filter    []FilterClause           `json:"filter,omitempty"`
	OrderBy   *OrderClause             `json:"order_by,omitempty"`
	Limit     int                      `json:"limit,omitempty"`
	PageSize  int                      `json:"page_size,omitempty"`
	Data      map[string]interface{}   `json:"data,omitempty"`
	Documents []map[string]interface{} `json:"documents,omitempty"`
	Log       bool                     `json:"log,omitempty"`
}

// decodeBatchRequest parses the request body
func decodeBatchRequest(r *http.Request) (*BatchRequest, error) {
	var req BatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, fmt.Errorf("invalid request body: %w", err)
	}
	return &req, nil
}

// Plan assembles the request's filter state into a QueryPlan for the
// named collection
func (req *BatchRequest) Plan(collName string) domain.QueryPlan {
	b := query.Collection(collName)
	for _, clause := range req.Filter {
		b = b.Where(clause.Field, domain.Operator(clause.Operator), clause.Value)
	}
	if req.OrderBy != nil {
		direction := domain.Ascending
		if req.OrderBy.Direction == string(domain.Descending) {
			direction = domain.Descending
		}
		b = b.OrderBy(req.OrderBy.Field, direction)
	}
	if req.Limit > 0 {
		b = b.Limit(req.Limit)
	}
	return b.Plan()
}

// Options assembles the request's batch options
func (req *BatchRequest) Options() domain.BatchOptions {
	opts := domain.BatchOptions{PageSize: req.PageSize}
	if req.Log {
		opts.Log = &domain.LogOptions{Enabled: true}
	}
	return opts
}

// Patch returns the request's mutation payload as a Document
func (req *BatchRequest) Patch() domain.Document {
	if req.Data == nil {
		return nil
	}
	return domain.Document(req.Data)
}

// InputDocuments converts the request's documents for create
func (req *BatchRequest) InputDocuments() []domain.Document {
	docs := make([]domain.Document, len(req.Documents))
	for i, raw := range req.Documents {
		docs[i] = domain.Document(raw)
	}
	return docs
}
