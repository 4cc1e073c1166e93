package batch

import (
	"log"

	"github.com/adfharrison1/go-docbatch/pkg/domain"
	"github.com/adfharrison1/go-docbatch/pkg/oplog"
)

// accounting is the single-writer aggregate fed by completion results.
// Only runSession's drain loop touches it.
type accounting struct {
	kind      domain.OperationKind
	success   int
	failure   int
	processed int
	total     int

	failedIDs []string

	// create bookkeeping: explicit ids keep input order, generated ids
	// are appended in completion order
	explicitOrder []string
	explicitIDs   map[string]bool
	createdSet    map[string]bool
	autoCreated   []string

	deletedIDs []string
}

func newAccounting(kind domain.OperationKind) *accounting {
	return &accounting{
		kind:        kind,
		explicitIDs: make(map[string]bool),
		createdSet:  make(map[string]bool),
	}
}

// recordSuccess tracks operation-specific identifiers for one successful
// completion
func (acc *accounting) recordSuccess(res domain.WriteResult) {
	switch res.Kind {
	case domain.OpCreate:
		acc.createdSet[res.DocID] = true
		if !acc.explicitIDs[res.DocID] {
			acc.autoCreated = append(acc.autoCreated, res.DocID)
		}
	case domain.OpDelete:
		acc.deletedIDs = append(acc.deletedIDs, res.DocID)
	}
}

// createdIDs assembles the final created-id list: explicit ids in input
// order (successes only), then generated ids in completion order
func (acc *accounting) createdIDs() []string {
	var ids []string
	for _, id := range acc.explicitOrder {
		if acc.createdSet[id] {
			ids = append(ids, id)
		}
	}
	return append(ids, acc.autoCreated...)
}

// assemble converts the accumulated counters into the typed outcome and,
// when logging is enabled, finalizes and persists the operation log. A
// log-persistence failure returns the fully-populated outcome alongside
// the error; the mutations have already happened and their accounting
// should not be discarded.
func (e *Executor) assemble(kind domain.OperationKind, acc *accounting, collector *oplog.Collector, opts domain.BatchOptions) (*domain.OperationOutcome, error) {
	outcome := &domain.OperationOutcome{
		SuccessCount: acc.success,
		FailureCount: acc.failure,
		TotalCount:   acc.total,
		FailedDocIDs: acc.failedIDs,
	}
	switch kind {
	case domain.OpCreate:
		outcome.CreatedIDs = acc.createdIDs()
	case domain.OpDelete:
		outcome.DeletedIDs = acc.deletedIDs
	}

	log.Printf("INFO: %s completed - total: %d, success: %d, failure: %d",
		kind, outcome.TotalCount, outcome.SuccessCount, outcome.FailureCount)

	if collector != nil {
		dir := e.logDir
		if opts.Log.Dir != "" {
			dir = opts.Log.Dir
		}
		path, err := oplog.NewWriter(dir).Write(collector.Finalize())
		if err != nil {
			log.Printf("ERROR: Failed to persist operation log: %v", err)
			return outcome, err
		}
		outcome.LogFilePath = path
	}

	return outcome, nil
}
