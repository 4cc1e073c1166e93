// Package storage implements the in-memory document store with lazy
// loading, per-collection locking, equality indexes, and single-file
// persistence. It is the store collaborator behind the batch executor:
// pkg/batch only sees it through the domain engine interfaces.
package storage

import (
	"fmt"
	"log"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/adfharrison1/go-docbatch/pkg/domain"
	"github.com/adfharrison1/go-docbatch/pkg/indexing"
	"github.com/adfharrison1/go-docbatch/pkg/writer"
)

// CollectionState tracks where a collection's authoritative copy lives
type CollectionState int

const (
	CollectionStateUnloaded CollectionState = iota
	CollectionStateLoaded
	CollectionStateDirty
)

// CollectionInfo is collection metadata, always resident in memory
type CollectionInfo struct {
	Name          string
	DocumentCount int64
	State         CollectionState
	LastModified  time.Time
}

// CollectionLock provides per-collection concurrency control
type CollectionLock struct {
	mu sync.RWMutex
}

// StorageEngine is an in-memory document store with an LRU cache of
// loaded collections and lazy loading from disk
type StorageEngine struct {
	mu          sync.RWMutex
	cache       *lru.Cache[string, *domain.Collection]
	collections map[string]*CollectionInfo
	indexEngine *indexing.Engine

	collectionLocks map[string]*CollectionLock
	locksMu         sync.RWMutex

	cacheSize       int
	dataDir         string
	dataFile        string
	backgroundSave  bool
	transactionSave bool
	saveInterval    time.Duration
	channelOpts     []writer.Option

	backgroundWg sync.WaitGroup
	stopChan     chan struct{}
}

// NewStorageEngine creates a new storage engine
func NewStorageEngine(options ...StorageOption) *StorageEngine {
	engine := &StorageEngine{
		collections:     make(map[string]*CollectionInfo),
		indexEngine:     indexing.NewEngine(),
		collectionLocks: make(map[string]*CollectionLock),
		cacheSize:       256,
		dataDir:         ".",
		backgroundSave:  false,
		transactionSave: true,
		saveInterval:    5 * time.Minute,
		stopChan:        make(chan struct{}),
	}

	for _, option := range options {
		option(engine)
	}

	cache, err := lru.NewWithEvict(engine.cacheSize, engine.onEvict)
	if err != nil {
		// Only reachable with a non-positive size, which options reject
		panic(fmt.Sprintf("storage: invalid cache size %d: %v", engine.cacheSize, err))
	}
	engine.cache = cache

	return engine
}

// onEvict runs when the LRU drops a loaded collection. Dirty collections
// are flushed to their per-collection file before the in-memory copy is
// discarded.
func (se *StorageEngine) onEvict(collName string, collection *domain.Collection) {
	info, exists := se.collections[collName]
	if !exists {
		return
	}
	if info.State == CollectionStateDirty {
		log.Printf("WARN: Evicting dirty collection '%s', flushing %d documents to disk", collName, len(collection.Documents))
		if err := se.writeCollectionFile(collection); err != nil {
			log.Printf("ERROR: Failed to flush evicted collection '%s': %v", collName, err)
			return
		}
	}
	info.State = CollectionStateUnloaded
}

// getOrCreateCollectionLock gets or creates a lock for a collection
func (se *StorageEngine) getOrCreateCollectionLock(collName string) *CollectionLock {
	se.locksMu.RLock()
	if lock, exists := se.collectionLocks[collName]; exists {
		se.locksMu.RUnlock()
		return lock
	}
	se.locksMu.RUnlock()

	se.locksMu.Lock()
	defer se.locksMu.Unlock()

	// Double-check in case another goroutine created it
	if lock, exists := se.collectionLocks[collName]; exists {
		return lock
	}

	lock := &CollectionLock{}
	se.collectionLocks[collName] = lock
	return lock
}

// withCollectionReadLock executes fn with a read lock on the collection
func (se *StorageEngine) withCollectionReadLock(collName string, fn func() error) error {
	lock := se.getOrCreateCollectionLock(collName)
	lock.mu.RLock()
	defer lock.mu.RUnlock()
	return fn()
}

// withCollectionWriteLock executes fn with a write lock on the collection
func (se *StorageEngine) withCollectionWriteLock(collName string, fn func() error) error {
	lock := se.getOrCreateCollectionLock(collName)
	lock.mu.Lock()
	defer lock.mu.Unlock()
	return fn()
}

// GetCollection loads a collection on demand
func (se *StorageEngine) GetCollection(collName string) (*domain.Collection, error) {
	se.mu.Lock()
	defer se.mu.Unlock()
	return se.getCollectionInternal(collName)
}

// getCollectionInternal contains the loading logic without locking
func (se *StorageEngine) getCollectionInternal(collName string) (*domain.Collection, error) {
	if collection, found := se.cache.Get(collName); found {
		return collection, nil
	}

	info, exists := se.collections[collName]
	if !exists {
		return nil, fmt.Errorf("collection %s does not exist", collName)
	}

	collection, err := se.loadCollection(collName)
	if err != nil {
		return nil, fmt.Errorf("failed to load collection %s: %w", collName, err)
	}

	info.State = CollectionStateLoaded
	se.cache.Add(collName, collection)
	se.indexEngine.Rebuild(collName, collection)

	return collection, nil
}

// CreateCollection creates a new empty collection
func (se *StorageEngine) CreateCollection(collName string) error {
	se.mu.Lock()
	defer se.mu.Unlock()

	if collName == "" {
		return fmt.Errorf("collection name cannot be empty")
	}
	if _, exists := se.collections[collName]; exists {
		return fmt.Errorf("collection %s already exists", collName)
	}

	collection := domain.NewCollection(collName)
	se.collections[collName] = &CollectionInfo{
		Name:         collName,
		State:        CollectionStateDirty,
		LastModified: time.Now(),
	}
	se.cache.Add(collName, collection)

	return nil
}

// markDirty flags a collection as modified. Caller holds se.mu or the
// collection write lock.
func (se *StorageEngine) markDirty(collName string, docDelta int64) {
	if info, exists := se.collections[collName]; exists {
		info.State = CollectionStateDirty
		info.DocumentCount += docDelta
		info.LastModified = time.Now()
	}
}

// CreateIndex creates an equality index on a field
func (se *StorageEngine) CreateIndex(collName, fieldName string) error {
	collection, err := se.GetCollection(collName)
	if err != nil {
		return err
	}
	return se.withCollectionReadLock(collName, func() error {
		return se.indexEngine.CreateIndex(collName, fieldName, collection)
	})
}

// DropIndex removes an index from a collection
func (se *StorageEngine) DropIndex(collName, fieldName string) error {
	return se.indexEngine.DropIndex(collName, fieldName)
}

// GetIndexes returns the indexed fields of a collection
func (se *StorageEngine) GetIndexes(collName string) []string {
	return se.indexEngine.GetIndexes(collName)
}

// OpenWriteChannel opens a fresh bulk-write session against one
// collection. The session is single-use; see domain.WriteChannel.
func (se *StorageEngine) OpenWriteChannel(collName string) (domain.WriteChannel, error) {
	ch, err := writer.NewChannel(se, collName, se.channelOpts...)
	if err != nil {
		return nil, err
	}
	return &sessionChannel{Channel: ch, engine: se, collection: collName}, nil
}

// sessionChannel layers save-after-transaction onto a write channel:
// when the session drains, the collection it touched is persisted if
// transaction saves are enabled
type sessionChannel struct {
	*writer.Channel
	engine     *StorageEngine
	collection string
}

func (sc *sessionChannel) Flush() error {
	if err := sc.Channel.Flush(); err != nil {
		return err
	}
	if err := sc.engine.SaveCollectionAfterTransaction(sc.collection); err != nil {
		log.Printf("ERROR: Failed to save collection '%s' after write session: %v", sc.collection, err)
	}
	return nil
}
