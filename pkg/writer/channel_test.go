package writer

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adfharrison1/go-docbatch/pkg/domain"
)

// stubStore is a DocWriter that records calls and fails chosen ids
type stubStore struct {
	mu      sync.Mutex
	created map[string]domain.Document
	updated map[string]int
	deleted map[string]int
	failIDs map[string]bool
}

func newStubStore(failIDs ...string) *stubStore {
	s := &stubStore{
		created: make(map[string]domain.Document),
		updated: make(map[string]int),
		deleted: make(map[string]int),
		failIDs: make(map[string]bool),
	}
	for _, id := range failIDs {
		s.failIDs[id] = true
	}
	return s
}

func (s *stubStore) CreateDoc(collName string, doc domain.Document) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := doc.ID()
	if s.failIDs[id] {
		return "", fmt.Errorf("simulated create failure for %s", id)
	}
	s.created[id] = doc
	return id, nil
}

func (s *stubStore) UpdateDoc(collName, docID string, patch domain.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failIDs[docID] {
		return fmt.Errorf("simulated update failure for %s", docID)
	}
	s.updated[docID]++
	return nil
}

func (s *stubStore) UpsertDoc(collName, docID string, patch domain.Document) error {
	return s.UpdateDoc(collName, docID, patch)
}

func (s *stubStore) DeleteDoc(collName, docID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failIDs[docID] {
		return fmt.Errorf("simulated delete failure for %s", docID)
	}
	s.deleted[docID]++
	return nil
}

func drain(t *testing.T, ch *Channel) []domain.WriteResult {
	t.Helper()

	flushErr := make(chan error, 1)
	go func() {
		flushErr <- ch.Flush()
	}()

	var results []domain.WriteResult
	for res := range ch.Results() {
		results = append(results, res)
	}
	require.NoError(t, <-flushErr)
	return results
}

func TestChannelDrainsAllOperations(t *testing.T) {
	store := newStubStore()
	ch, err := NewChannel(store, "users", WithWorkers(4))
	require.NoError(t, err)

	const n = 100
	for i := 0; i < n; i++ {
		ch.Update(fmt.Sprintf("doc-%d", i), domain.Document{"touched": true})
	}

	results := drain(t, ch)
	require.Len(t, results, n)
	for _, res := range results {
		assert.NoError(t, res.Err)
		assert.Equal(t, domain.OpUpdate, res.Kind)
	}
	assert.Len(t, store.updated, n)
}

func TestChannelReportsFailures(t *testing.T) {
	store := newStubStore("doc-3", "doc-7")
	ch, err := NewChannel(store, "users", WithWorkers(2))
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		ch.Delete(fmt.Sprintf("doc-%d", i))
	}

	results := drain(t, ch)
	require.Len(t, results, 10)

	var failed []string
	for _, res := range results {
		if res.Err != nil {
			failed = append(failed, res.DocID)
		}
	}
	assert.ElementsMatch(t, []string{"doc-3", "doc-7"}, failed)
	assert.Len(t, store.deleted, 8)
}

func TestChannelCreateAssignsIDs(t *testing.T) {
	store := newStubStore()
	ch, err := NewChannel(store, "users")
	require.NoError(t, err)

	ch.Create(domain.Document{"_id": "explicit", "name": "Alice"})
	ch.Create(domain.Document{"name": "Bob"})

	results := drain(t, ch)
	require.Len(t, results, 2)

	ids := make(map[string]bool)
	for _, res := range results {
		require.NoError(t, res.Err)
		assert.Equal(t, domain.OpCreate, res.Kind)
		assert.NotEmpty(t, res.DocID)
		ids[res.DocID] = true
	}
	assert.True(t, ids["explicit"])
	assert.Len(t, ids, 2)
}

func TestChannelEnqueueLargerThanBuffer(t *testing.T) {
	store := newStubStore()
	ch, err := NewChannel(store, "users", WithWorkers(4), WithBuffer(8))
	require.NoError(t, err)

	// The producer goroutine enqueues while the consumer drains, so a
	// batch far larger than the results buffer must still complete
	const n = 500
	done := make(chan error, 1)
	go func() {
		for i := 0; i < n; i++ {
			ch.Update(fmt.Sprintf("doc-%d", i), domain.Document{"i": i})
		}
		done <- ch.Flush()
	}()

	count := 0
	for range ch.Results() {
		count++
	}
	require.NoError(t, <-done)
	assert.Equal(t, n, count)
}

func TestChannelDoubleFlush(t *testing.T) {
	ch, err := NewChannel(newStubStore(), "users")
	require.NoError(t, err)

	require.NoError(t, ch.Flush())
	assert.Error(t, ch.Flush())
}

func TestChannelRateLimit(t *testing.T) {
	store := newStubStore()
	ch, err := NewChannel(store, "users", WithWorkers(4), WithRateLimit(100, 1))
	require.NoError(t, err)

	start := time.Now()
	for i := 0; i < 5; i++ {
		ch.Update(fmt.Sprintf("doc-%d", i), domain.Document{"touched": true})
	}
	results := drain(t, ch)

	require.Len(t, results, 5)
	// 5 ops at 100/sec with burst 1 cannot finish instantly
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
}
