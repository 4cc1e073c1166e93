// Package oplog accumulates per-document outcome records for one batch
// invocation and renders them as a fixed-format report for persistence.
package oplog

import (
	"sync"
	"time"

	"github.com/adfharrison1/go-docbatch/pkg/domain"
)

// Collector gathers LogEntry records as completion notifications arrive.
// Record is safe to call from concurrent completion handlers; append is
// the only mutation.
type Collector struct {
	mu        sync.Mutex
	log       domain.OperationLog
	finalized bool
}

// Start captures the start timestamp and the invocation's shape, and
// returns the accumulator
func Start(kind domain.OperationKind, collection string, conditions []domain.FilterCondition, payload domain.Document) *Collector {
	return &Collector{
		log: domain.OperationLog{
			Kind:       kind,
			Collection: collection,
			StartedAt:  time.Now().UTC(),
			Conditions: conditions,
			Payload:    payload.Clone(),
		},
	}
}

// Record appends an entry for one document with a fresh timestamp.
// opErr is only consulted when status is LogFailure.
func (c *Collector) Record(docID string, status domain.LogStatus, opErr error) {
	entry := domain.LogEntry{
		Timestamp: time.Now().UTC(),
		DocID:     docID,
		Status:    status,
	}
	if status == domain.LogFailure && opErr != nil {
		entry.Error = opErr.Error()
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.finalized {
		return
	}
	c.log.Entries = append(c.log.Entries, entry)
}

// Finalize stamps the completion timestamp, computes summary counts from
// the entries collected so far, and returns the immutable log. Further
// Record calls are dropped.
func (c *Collector) Finalize() *domain.OperationLog {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.finalized = true
	c.log.CompletedAt = time.Now().UTC()
	c.log.Total = len(c.log.Entries)
	c.log.Success = 0
	c.log.Failure = 0
	for _, entry := range c.log.Entries {
		if entry.Status == domain.LogSuccess {
			c.log.Success++
		} else {
			c.log.Failure++
		}
	}

	final := c.log
	return &final
}
