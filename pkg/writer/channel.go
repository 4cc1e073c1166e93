// Package writer implements the bulk-write channel: a single-use session
// that dispatches queued mutations through a bounded worker pool with
// optional rate limiting, and reports per-operation completion
// asynchronously through a results channel.
package writer

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
	"golang.org/x/time/rate"

	"github.com/adfharrison1/go-docbatch/pkg/domain"
)

const (
	// DefaultWorkers bounds concurrent in-flight mutations per session
	DefaultWorkers = 8
	// DefaultBuffer is the results channel capacity
	DefaultBuffer = 256
)

// Channel is one bulk-write session over a DocWriter. Enqueue any number
// of operations, then call Flush exactly once; Results closes once every
// enqueued operation has resolved. Completion order is unrelated to
// enqueue order.
type Channel struct {
	store      domain.DocWriter
	collection string

	pool    *ants.Pool
	limiter *rate.Limiter
	results chan domain.WriteResult
	wg      sync.WaitGroup

	mu      sync.Mutex
	flushed bool

	workers int
	buffer  int
}

// Option configures a Channel
type Option func(*Channel)

// WithWorkers sets the worker pool size
func WithWorkers(n int) Option {
	return func(c *Channel) {
		if n > 0 {
			c.workers = n
		}
	}
}

// WithRateLimit paces dispatch to perSec operations per second with the
// given burst
func WithRateLimit(perSec float64, burst int) Option {
	return func(c *Channel) {
		c.limiter = rate.NewLimiter(rate.Limit(perSec), burst)
	}
}

// WithBuffer sets the results channel capacity
func WithBuffer(n int) Option {
	return func(c *Channel) {
		if n > 0 {
			c.buffer = n
		}
	}
}

// NewChannel opens a session against one collection
func NewChannel(store domain.DocWriter, collection string, opts ...Option) (*Channel, error) {
	c := &Channel{
		store:      store,
		collection: collection,
		workers:    DefaultWorkers,
		buffer:     DefaultBuffer,
	}
	for _, opt := range opts {
		opt(c)
	}

	pool, err := ants.NewPool(c.workers)
	if err != nil {
		return nil, fmt.Errorf("failed to create worker pool: %w", err)
	}
	c.pool = pool
	c.results = make(chan domain.WriteResult, c.buffer)

	return c, nil
}

// Create enqueues an insert. A document without "_id" gets a generated
// one; the assigned id is reported in the WriteResult.
func (c *Channel) Create(doc domain.Document) {
	stored := doc.Clone()
	docID := stored.ID()
	if docID == "" {
		docID = uuid.NewString()
		stored["_id"] = docID
	}
	c.dispatch(docID, domain.OpCreate, func() error {
		_, err := c.store.CreateDoc(c.collection, stored)
		return err
	})
}

// Update enqueues a merge of patch onto an existing document
func (c *Channel) Update(docID string, patch domain.Document) {
	c.dispatch(docID, domain.OpUpdate, func() error {
		return c.store.UpdateDoc(c.collection, docID, patch)
	})
}

// Upsert enqueues a set-with-merge: the document is created if missing
func (c *Channel) Upsert(docID string, patch domain.Document) {
	c.dispatch(docID, domain.OpUpsert, func() error {
		return c.store.UpsertDoc(c.collection, docID, patch)
	})
}

// Delete enqueues a removal
func (c *Channel) Delete(docID string) {
	c.dispatch(docID, domain.OpDelete, func() error {
		return c.store.DeleteDoc(c.collection, docID)
	})
}

// dispatch hands one operation to the pool. A submit failure resolves
// the operation as a failure rather than losing it.
func (c *Channel) dispatch(docID string, kind domain.OperationKind, op func() error) {
	c.mu.Lock()
	if c.flushed {
		c.mu.Unlock()
		log.Printf("ERROR: Write enqueued on flushed channel for collection '%s', dropping %s of %s", c.collection, kind, docID)
		return
	}
	c.wg.Add(1)
	c.mu.Unlock()

	err := c.pool.Submit(func() {
		defer c.wg.Done()
		if c.limiter != nil {
			if err := c.limiter.Wait(context.Background()); err != nil {
				c.results <- domain.WriteResult{DocID: docID, Kind: kind, Err: err}
				return
			}
		}
		c.results <- domain.WriteResult{DocID: docID, Kind: kind, Err: op()}
	})
	if err != nil {
		c.wg.Done()
		c.results <- domain.WriteResult{
			DocID: docID,
			Kind:  kind,
			Err:   fmt.Errorf("failed to submit write: %w", err),
		}
	}
}

// Results delivers one WriteResult per enqueued operation, in completion
// order
func (c *Channel) Results() <-chan domain.WriteResult {
	return c.results
}

// Flush blocks until every enqueued operation has resolved, then closes
// the results channel and releases the pool. The session is unusable
// afterwards.
func (c *Channel) Flush() error {
	c.mu.Lock()
	if c.flushed {
		c.mu.Unlock()
		return fmt.Errorf("write channel already flushed")
	}
	c.flushed = true
	c.mu.Unlock()

	c.wg.Wait()
	c.pool.Release()
	close(c.results)
	return nil
}
