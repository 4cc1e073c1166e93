package domain

// QueryEngine is the read side of the document store consumed by the
// batch executor. Both calls fail fast: an error here means zero
// mutations have been dispatched.
type QueryEngine interface {
	// ExecuteQuery returns copies of the documents matching the plan,
	// ordered, cursor-advanced, and limited per the plan.
	ExecuteQuery(plan QueryPlan) ([]Document, error)
	// Count returns the number of documents the plan would match,
	// honoring the start-after cursor and capped at the plan's limit
	// when one is set.
	Count(plan QueryPlan) (int, error)
}

// DocWriter is the per-document mutation surface of the store, consumed
// by write-channel sessions
type DocWriter interface {
	// CreateDoc inserts doc and returns its id. A doc carrying "_id"
	// keeps it; creating an id that already exists is an error.
	CreateDoc(collName string, doc Document) (string, error)
	UpdateDoc(collName, docID string, patch Document) error
	// UpsertDoc merges the patch onto the document, creating it first
	// if it does not exist.
	UpsertDoc(collName, docID string, patch Document) error
	DeleteDoc(collName, docID string) error
}

// WriteResult is one asynchronous completion notification from a write
// channel. Results arrive in completion order, not enqueue order.
type WriteResult struct {
	DocID string
	Kind  OperationKind
	Err   error
}

// WriteChannel is one bulk-write session: enqueue any number of
// operations, then Flush exactly once. Completions stream through
// Results; the channel closes it once every enqueued operation has
// resolved. A session is single-use and never shared across pages.
type WriteChannel interface {
	Create(doc Document)
	Update(docID string, patch Document)
	Upsert(docID string, patch Document)
	Delete(docID string)

	// Results delivers one WriteResult per enqueued operation
	Results() <-chan WriteResult

	// Flush blocks until every enqueued operation has resolved, then
	// closes the Results channel
	Flush() error
}

// WriteChannelOpener opens a fresh write-channel session against one
// collection
type WriteChannelOpener interface {
	OpenWriteChannel(collName string) (WriteChannel, error)
}

// BatchEngine is the full collaborator surface the batch executor needs
type BatchEngine interface {
	QueryEngine
	WriteChannelOpener
}
