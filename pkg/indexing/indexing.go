// Package indexing maintains equality inverted indexes over collections.
// Only equality conditions can be served from an index; every other
// operator falls back to a scan in the storage engine.
package indexing

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/adfharrison1/go-docbatch/pkg/domain"
)

// indexable reports whether a value can be used as an inverted-index
// key. Slices, maps, and functions are not hashable; documents holding
// them in an indexed field are served by scans instead.
func indexable(v interface{}) bool {
	if v == nil {
		return true
	}
	return reflect.TypeOf(v).Comparable()
}

// Index maps a field's values to the ids of documents holding them
type Index struct {
	Field    string
	Inverted map[interface{}][]string
}

// NewIndex creates an index on a specific field
func NewIndex(field string) *Index {
	return &Index{
		Field:    field,
		Inverted: make(map[interface{}][]string),
	}
}

// Build indexes every document in the collection by the index's field
func (idx *Index) Build(collection *domain.Collection) {
	for docID, doc := range collection.Documents {
		if val, ok := doc[idx.Field]; ok && indexable(val) {
			idx.Inverted[val] = append(idx.Inverted[val], docID)
		}
	}
}

// Lookup returns the ids of documents whose indexed field equals value.
// Unhashable values match nothing; they are never indexed.
func (idx *Index) Lookup(value interface{}) []string {
	if !indexable(value) {
		return nil
	}
	return idx.Inverted[value]
}

// Apply updates the index for one document change. oldDoc is nil on
// create, newDoc is nil on delete.
func (idx *Index) Apply(docID string, oldDoc, newDoc domain.Document) {
	if oldVal, ok := oldDoc[idx.Field]; ok && indexable(oldVal) {
		docList := idx.Inverted[oldVal]
		for i, id := range docList {
			if id == docID {
				idx.Inverted[oldVal] = append(docList[:i], docList[i+1:]...)
				break
			}
		}
	}
	if newVal, ok := newDoc[idx.Field]; ok && indexable(newVal) {
		idx.Inverted[newVal] = append(idx.Inverted[newVal], docID)
	}
}

// Engine tracks indexes per collection and field
type Engine struct {
	mu      sync.RWMutex
	indexes map[string]map[string]*Index // collection -> field -> index
}

// NewEngine creates an empty index engine
func NewEngine() *Engine {
	return &Engine{
		indexes: make(map[string]map[string]*Index),
	}
}

// CreateIndex creates an index on a field and populates it from the
// given collection
func (e *Engine) CreateIndex(collName, fieldName string, collection *domain.Collection) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.indexes[collName] == nil {
		e.indexes[collName] = make(map[string]*Index)
	}
	if _, exists := e.indexes[collName][fieldName]; exists {
		return fmt.Errorf("index on field %s already exists in collection %s", fieldName, collName)
	}

	index := NewIndex(fieldName)
	if collection != nil {
		index.Build(collection)
	}
	e.indexes[collName][fieldName] = index
	return nil
}

// DropIndex removes an index from a collection
func (e *Engine) DropIndex(collName, fieldName string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.indexes[collName] == nil {
		return fmt.Errorf("no indexes exist for collection %s", collName)
	}
	if _, exists := e.indexes[collName][fieldName]; !exists {
		return fmt.Errorf("index on field %s does not exist in collection %s", fieldName, collName)
	}
	delete(e.indexes[collName], fieldName)
	return nil
}

// GetIndexes returns the indexed field names for a collection
func (e *Engine) GetIndexes(collName string) []string {
	e.mu.RLock()
	defer e.mu.RUnlock()

	var fields []string
	for fieldName := range e.indexes[collName] {
		fields = append(fields, fieldName)
	}
	return fields
}

// Candidates serves an equality condition from an index if one exists on
// the field, returning matching document ids and whether an index was used
func (e *Engine) Candidates(collName string, cond domain.FilterCondition) ([]string, bool) {
	if cond.Operator != domain.OpEqual || !indexable(cond.Value) {
		return nil, false
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	collIndexes, exists := e.indexes[collName]
	if !exists {
		return nil, false
	}
	index, exists := collIndexes[cond.Field]
	if !exists {
		return nil, false
	}
	return index.Lookup(cond.Value), true
}

// ApplyDocumentChange updates every index on the collection for one
// document change
func (e *Engine) ApplyDocumentChange(collName, docID string, oldDoc, newDoc domain.Document) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, index := range e.indexes[collName] {
		index.Apply(docID, oldDoc, newDoc)
	}
}

// Export returns a serializable snapshot of all indexes for persistence
func (e *Engine) Export() map[string]map[string][]string {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := make(map[string]map[string][]string)
	for collName, collIndexes := range e.indexes {
		out[collName] = make(map[string][]string)
		for fieldName := range collIndexes {
			// Only the indexed fields are persisted; entries are rebuilt
			// when the collection loads.
			out[collName][fieldName] = nil
		}
	}
	return out
}

// Import restores index definitions from a persisted snapshot. Entries
// are rebuilt lazily as collections load.
func (e *Engine) Import(snapshot map[string]map[string][]string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for collName, fields := range snapshot {
		if e.indexes[collName] == nil {
			e.indexes[collName] = make(map[string]*Index)
		}
		for fieldName := range fields {
			if _, exists := e.indexes[collName][fieldName]; !exists {
				e.indexes[collName][fieldName] = NewIndex(fieldName)
			}
		}
	}
}

// Rebuild repopulates every index on a collection from its documents,
// used after a collection is loaded from disk
func (e *Engine) Rebuild(collName string, collection *domain.Collection) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, index := range e.indexes[collName] {
		index.Inverted = make(map[interface{}][]string)
		index.Build(collection)
	}
}
