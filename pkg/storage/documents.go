package storage

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/adfharrison1/go-docbatch/pkg/domain"
)

// CreateDoc inserts a document into a collection, creating the
// collection on first use. A document carrying "_id" keeps it; creating
// an id that already exists is an error. Returns the id.
func (se *StorageEngine) CreateDoc(collName string, doc domain.Document) (string, error) {
	if len(doc) == 0 {
		return "", fmt.Errorf("document cannot be empty")
	}

	se.mu.Lock()
	collection, err := se.getCollectionInternal(collName)
	if err != nil {
		collection = domain.NewCollection(collName)
		se.collections[collName] = &CollectionInfo{
			Name:  collName,
			State: CollectionStateDirty,
		}
		se.cache.Add(collName, collection)
	}
	se.mu.Unlock()

	docID := doc.ID()
	stored := doc.Clone()
	if docID == "" {
		docID = uuid.NewString()
		stored["_id"] = docID
	}

	err = se.withCollectionWriteLock(collName, func() error {
		if _, exists := collection.Documents[docID]; exists {
			return fmt.Errorf("document with id %s already exists in collection %s", docID, collName)
		}
		collection.Documents[docID] = stored
		se.indexEngine.ApplyDocumentChange(collName, docID, nil, stored)

		se.mu.Lock()
		se.markDirty(collName, 1)
		se.mu.Unlock()
		return nil
	})
	if err != nil {
		return "", err
	}
	return docID, nil
}

// GetByID retrieves a copy of a specific document by its id
func (se *StorageEngine) GetByID(collName, docID string) (domain.Document, error) {
	collection, err := se.GetCollection(collName)
	if err != nil {
		return nil, err
	}

	var doc domain.Document
	err = se.withCollectionReadLock(collName, func() error {
		stored, exists := collection.Documents[docID]
		if !exists {
			return fmt.Errorf("document with id %s not found in collection %s", docID, collName)
		}
		doc = stored.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// UpdateDoc merges a patch onto an existing document. "_id" is never
// patched. Updating a missing document is an error.
func (se *StorageEngine) UpdateDoc(collName, docID string, patch domain.Document) error {
	if len(patch) == 0 {
		return fmt.Errorf("update patch cannot be empty")
	}

	collection, err := se.GetCollection(collName)
	if err != nil {
		return err
	}

	return se.withCollectionWriteLock(collName, func() error {
		doc, exists := collection.Documents[docID]
		if !exists {
			return fmt.Errorf("document with id %s not found in collection %s", docID, collName)
		}

		oldDoc := doc.Clone()
		for key, value := range patch {
			if key != "_id" {
				doc[key] = value
			}
		}
		se.indexEngine.ApplyDocumentChange(collName, docID, oldDoc, doc)

		se.mu.Lock()
		se.markDirty(collName, 0)
		se.mu.Unlock()
		return nil
	})
}

// UpsertDoc merges the patch onto the document, creating it first when
// it does not exist
func (se *StorageEngine) UpsertDoc(collName, docID string, patch domain.Document) error {
	if len(patch) == 0 {
		return fmt.Errorf("upsert patch cannot be empty")
	}
	if docID == "" {
		return fmt.Errorf("upsert requires a document id")
	}

	se.mu.Lock()
	collection, err := se.getCollectionInternal(collName)
	if err != nil {
		collection = domain.NewCollection(collName)
		se.collections[collName] = &CollectionInfo{
			Name:  collName,
			State: CollectionStateDirty,
		}
		se.cache.Add(collName, collection)
	}
	se.mu.Unlock()

	return se.withCollectionWriteLock(collName, func() error {
		doc, exists := collection.Documents[docID]
		var oldDoc domain.Document
		var delta int64
		if exists {
			oldDoc = doc.Clone()
		} else {
			doc = domain.Document{"_id": docID}
			collection.Documents[docID] = doc
			delta = 1
		}

		for key, value := range patch {
			if key != "_id" {
				doc[key] = value
			}
		}
		se.indexEngine.ApplyDocumentChange(collName, docID, oldDoc, doc)

		se.mu.Lock()
		se.markDirty(collName, delta)
		se.mu.Unlock()
		return nil
	})
}

// DeleteDoc removes a document by id. Deleting a missing document is an
// error, surfaced to the batch layer as a per-document failure.
func (se *StorageEngine) DeleteDoc(collName, docID string) error {
	collection, err := se.GetCollection(collName)
	if err != nil {
		return err
	}

	return se.withCollectionWriteLock(collName, func() error {
		doc, exists := collection.Documents[docID]
		if !exists {
			return fmt.Errorf("document with id %s not found in collection %s", docID, collName)
		}

		se.indexEngine.ApplyDocumentChange(collName, docID, doc, nil)
		delete(collection.Documents, docID)

		se.mu.Lock()
		se.markDirty(collName, -1)
		se.mu.Unlock()
		return nil
	})
}
