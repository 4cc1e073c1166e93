// Package api exposes the batch executor over HTTP. One handler per
// operation; requests carry the filter, ordering, payload, and batch
// options as JSON.
package api

import (
	"github.com/adfharrison1/go-docbatch/pkg/domain"
)

// BatchRunner is the executor surface the handlers consume, satisfied by
// *batch.Executor and mocked in tests
type BatchRunner interface {
	Create(collName string, docs []domain.Document, opts domain.BatchOptions) (*domain.OperationOutcome, error)
	Update(plan domain.QueryPlan, patch domain.Document, opts domain.BatchOptions) (*domain.OperationOutcome, error)
	Upsert(plan domain.QueryPlan, patch domain.Document, opts domain.BatchOptions) (*domain.OperationOutcome, error)
	Delete(plan domain.QueryPlan, opts domain.BatchOptions) (*domain.OperationOutcome, error)
	Preview(plan domain.QueryPlan, patch domain.Document) (*domain.PreviewResult, error)
}

// EngineAdmin is the storage-management surface exposed over HTTP: index
// administration and engine statistics. Satisfied by
// *storage.StorageEngine and mocked in tests.
type EngineAdmin interface {
	CreateIndex(collName, fieldName string) error
	DropIndex(collName, fieldName string) error
	GetIndexes(collName string) []string
	GetMemoryStats() map[string]interface{}
}

// Handler holds the executor and engine admin used by all API handlers
type Handler struct {
	runner BatchRunner
	admin  EngineAdmin
}

// NewHandler creates a new API handler with dependency injection
func NewHandler(runner BatchRunner, admin EngineAdmin) *Handler {
	return &Handler{runner: runner, admin: admin}
}
