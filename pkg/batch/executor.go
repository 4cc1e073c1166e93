// Package batch is the orchestration core: it executes a mutation
// against every document matched by a QueryPlan through rate-limited
// write-channel sessions, with bounded memory via cursor pagination,
// complete partial-failure accounting, and deterministic progress
// reporting over an out-of-order completion stream.
package batch

import (
	"fmt"
	"log"

	"github.com/adfharrison1/go-docbatch/pkg/domain"
	"github.com/adfharrison1/go-docbatch/pkg/oplog"
	"github.com/adfharrison1/go-docbatch/pkg/progress"
	"github.com/adfharrison1/go-docbatch/pkg/query"
)

// Executor runs batch mutations against a document store. Two concurrent
// invocations with overlapping match sets race at the store level; that
// is not arbitrated here.
type Executor struct {
	engine domain.BatchEngine
	logDir string
}

// Option configures an Executor
type Option func(*Executor)

// WithLogDir sets where operation-log reports are written when an
// invocation enables logging without naming a directory
func WithLogDir(dir string) Option {
	return func(e *Executor) {
		e.logDir = dir
	}
}

// New creates an executor over the given engine
func New(engine domain.BatchEngine, opts ...Option) *Executor {
	e := &Executor{engine: engine}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Update merges the patch onto every document matched by the plan
func (e *Executor) Update(plan domain.QueryPlan, patch domain.Document, opts domain.BatchOptions) (*domain.OperationOutcome, error) {
	return e.mutateByFilter(domain.OpUpdate, plan, patch, opts)
}

// Upsert merges the patch onto every matched document, recreating any
// that vanish between fetch and dispatch
func (e *Executor) Upsert(plan domain.QueryPlan, patch domain.Document, opts domain.BatchOptions) (*domain.OperationOutcome, error) {
	return e.mutateByFilter(domain.OpUpsert, plan, patch, opts)
}

// Delete removes every document matched by the plan
func (e *Executor) Delete(plan domain.QueryPlan, opts domain.BatchOptions) (*domain.OperationOutcome, error) {
	return e.mutateByFilter(domain.OpDelete, plan, nil, opts)
}

// mutateByFilter is the shared filter-driven execution path
func (e *Executor) mutateByFilter(kind domain.OperationKind, plan domain.QueryPlan, patch domain.Document, opts domain.BatchOptions) (*domain.OperationOutcome, error) {
	if err := validatePlan(plan, opts); err != nil {
		return nil, err
	}
	if kind != domain.OpDelete && len(patch) == 0 {
		return nil, fmt.Errorf("%w for %s", ErrEmptyPatch, kind)
	}

	var collector *oplog.Collector
	if opts.Log != nil && opts.Log.Enabled {
		collector = oplog.Start(kind, plan.Collection, plan.Conditions, patch)
	}

	enqueueDoc := func(ch domain.WriteChannel, doc domain.Document) {
		switch kind {
		case domain.OpUpdate:
			ch.Update(doc.ID(), patch)
		case domain.OpUpsert:
			ch.Upsert(doc.ID(), patch)
		case domain.OpDelete:
			ch.Delete(doc.ID())
		}
	}

	acc := newAccounting(kind)
	var err error
	if opts.PageSize > 0 {
		err = e.runPaginated(plan, opts, acc, collector, enqueueDoc)
	} else {
		err = e.runUnbounded(plan, opts, acc, collector, enqueueDoc)
	}
	if err != nil {
		return nil, err
	}

	if acc.total == 0 {
		log.Printf("INFO: %s on collection '%s' matched no documents", kind, plan.Collection)
		return &domain.OperationOutcome{}, nil
	}

	return e.assemble(kind, acc, collector, opts)
}

// runUnbounded loads the entire match set in one query and drains a
// single write-channel session over it
func (e *Executor) runUnbounded(plan domain.QueryPlan, opts domain.BatchOptions, acc *accounting, collector *oplog.Collector, enqueueDoc func(domain.WriteChannel, domain.Document)) error {
	docs, err := e.engine.ExecuteQuery(plan)
	if err != nil {
		return err
	}
	if len(docs) == 0 {
		return nil
	}

	acc.total = len(docs)
	return e.runSession(plan.Collection, acc, collector, opts, func(ch domain.WriteChannel) {
		for _, doc := range docs {
			enqueueDoc(ch, doc)
		}
	})
}

// runPaginated counts the match set up front, then walks it page by
// page. Each page gets its own write-channel session and is fully
// drained before the cursor advances, so the next fetch never races an
// unresolved write.
func (e *Executor) runPaginated(plan domain.QueryPlan, opts domain.BatchOptions, acc *accounting, collector *oplog.Collector, enqueueDoc func(domain.WriteChannel, domain.Document)) error {
	total, err := e.engine.Count(plan)
	if err != nil {
		return err
	}
	if total == 0 {
		return nil
	}
	acc.total = total

	lastDocID := ""
	remaining := plan.Limit
	for {
		pageLimit := opts.PageSize
		if remaining > 0 && remaining < pageLimit {
			pageLimit = remaining
		}

		pagePlan, err := query.NextPage(plan, pageLimit, lastDocID)
		if err != nil {
			return err
		}
		page, err := e.engine.ExecuteQuery(pagePlan)
		if err != nil {
			return err
		}
		if len(page) == 0 {
			return nil
		}

		err = e.runSession(plan.Collection, acc, collector, opts, func(ch domain.WriteChannel) {
			for _, doc := range page {
				enqueueDoc(ch, doc)
			}
		})
		if err != nil {
			return err
		}

		lastDocID = page[len(page)-1].ID()
		if remaining > 0 {
			remaining -= len(page)
			if remaining <= 0 {
				return nil
			}
		}
		if len(page) < pageLimit {
			return nil
		}
	}
}

// Create inserts the given documents. Each must carry non-empty data;
// a document with an explicit "_id" keeps it, the rest get generated
// ids reported back through the outcome's CreatedIDs.
func (e *Executor) Create(collName string, docs []domain.Document, opts domain.BatchOptions) (*domain.OperationOutcome, error) {
	if collName == "" {
		return nil, ErrNoCollection
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("%w for create", ErrNoDocuments)
	}
	for i, doc := range docs {
		if len(doc) == 0 {
			return nil, fmt.Errorf("%w: document at index %d is empty", ErrEmptyPatch, i)
		}
	}
	if opts.PageSize < 0 {
		return nil, fmt.Errorf("%w, got %d", ErrInvalidPageSize, opts.PageSize)
	}

	var collector *oplog.Collector
	if opts.Log != nil && opts.Log.Enabled {
		collector = oplog.Start(domain.OpCreate, collName, nil, nil)
	}

	acc := newAccounting(domain.OpCreate)
	acc.total = len(docs)
	for _, doc := range docs {
		if id := doc.ID(); id != "" {
			acc.explicitOrder = append(acc.explicitOrder, id)
			acc.explicitIDs[id] = true
		}
	}

	chunkSize := opts.PageSize
	if chunkSize == 0 {
		chunkSize = len(docs)
	}
	for start := 0; start < len(docs); start += chunkSize {
		end := start + chunkSize
		if end > len(docs) {
			end = len(docs)
		}
		chunk := docs[start:end]
		err := e.runSession(collName, acc, collector, opts, func(ch domain.WriteChannel) {
			for _, doc := range chunk {
				ch.Create(doc)
			}
		})
		if err != nil {
			return nil, err
		}
	}

	return e.assemble(domain.OpCreate, acc, collector, opts)
}

// runSession opens one write-channel session, enqueues through fill, and
// drains it to completion. Counters are mutated only here, on the single
// goroutine ranging the results channel, so no synchronization is needed
// regardless of how the channel dispatches.
func (e *Executor) runSession(collName string, acc *accounting, collector *oplog.Collector, opts domain.BatchOptions, fill func(domain.WriteChannel)) error {
	ch, err := e.engine.OpenWriteChannel(collName)
	if err != nil {
		return fmt.Errorf("failed to open write channel for collection %s: %w", collName, err)
	}

	// Enqueue and flush from a separate goroutine so draining the
	// results below can start immediately; otherwise a page larger than
	// the channel's buffer would wedge the enqueue loop.
	flushErr := make(chan error, 1)
	go func() {
		fill(ch)
		flushErr <- ch.Flush()
	}()

	for res := range ch.Results() {
		acc.processed++
		if res.Err != nil {
			acc.failure++
			docID := res.DocID
			if docID == "" {
				docID = UnknownDocID
			}
			acc.failedIDs = append(acc.failedIDs, docID)
			if collector != nil {
				collector.Record(docID, domain.LogFailure, res.Err)
			}
		} else {
			acc.success++
			acc.recordSuccess(res)
			if collector != nil {
				collector.Record(res.DocID, domain.LogSuccess, nil)
			}
		}

		if opts.Progress != nil {
			opts.Progress(progress.Compute(acc.processed, acc.total))
		}
	}

	if err := <-flushErr; err != nil {
		return fmt.Errorf("write channel drain failed: %w", err)
	}
	return nil
}

// validatePlan runs the pre-flight checks shared by filter-driven
// operations
func validatePlan(plan domain.QueryPlan, opts domain.BatchOptions) error {
	if plan.Collection == "" {
		return ErrNoCollection
	}
	if err := plan.Validate(); err != nil {
		return err
	}
	if opts.PageSize < 0 {
		return fmt.Errorf("%w, got %d", ErrInvalidPageSize, opts.PageSize)
	}
	return nil
}
