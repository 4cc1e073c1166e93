package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adfharrison1/go-docbatch/pkg/domain"
	"github.com/adfharrison1/go-docbatch/pkg/query"
)

func TestSaveAndLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	dataFile := filepath.Join(dir, "test"+FileExtension)

	engine := NewStorageEngine(WithDataDir(dir), WithTransactionSave(false))
	defer engine.StopBackgroundWorkers()

	_, err := engine.CreateDoc("users", domain.Document{"_id": "doc-1", "name": "Alice", "age": int64(30)})
	require.NoError(t, err)
	_, err = engine.CreateDoc("users", domain.Document{"_id": "doc-2", "name": "Bob", "age": int64(25)})
	require.NoError(t, err)
	_, err = engine.CreateDoc("orders", domain.Document{"_id": "ord-1", "total": 9.99})
	require.NoError(t, err)

	require.NoError(t, engine.SaveToFile(dataFile))

	// Fresh engine: metadata only, collections load lazily
	restored := NewStorageEngine(WithDataDir(dir), WithTransactionSave(false))
	defer restored.StopBackgroundWorkers()
	require.NoError(t, restored.LoadCollectionMetadata(dataFile))

	docs, err := restored.ExecuteQuery(query.Collection("users").Plan())
	require.NoError(t, err)
	assert.Len(t, docs, 2)

	doc, err := restored.GetByID("users", "doc-1")
	require.NoError(t, err)
	assert.Equal(t, "Alice", doc["name"])

	docs, err = restored.ExecuteQuery(query.Collection("orders").Plan())
	require.NoError(t, err)
	assert.Len(t, docs, 1)
}

func TestLoadMetadataMissingFileIsNotAnError(t *testing.T) {
	engine := NewStorageEngine()
	defer engine.StopBackgroundWorkers()

	err := engine.LoadCollectionMetadata(filepath.Join(t.TempDir(), "missing.docb"))
	assert.NoError(t, err)
}

func TestDecodeRejectsBadHeader(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.docb")
	require.NoError(t, os.WriteFile(path, []byte("NOPE this is not a data file"), 0o644))

	_, err := decodeFromFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid file")
}

func TestWriteSessionTriggersTransactionSave(t *testing.T) {
	dir := t.TempDir()

	engine := NewStorageEngine(WithDataDir(dir))
	defer engine.StopBackgroundWorkers()

	_, err := engine.CreateDoc("users", domain.Document{"_id": "doc-1", "name": "Alice"})
	require.NoError(t, err)

	ch, err := engine.OpenWriteChannel("users")
	require.NoError(t, err)
	ch.Update("doc-1", domain.Document{"name": "Alicia"})
	require.NoError(t, ch.Flush())
	for range ch.Results() {
	}

	assert.FileExists(t, filepath.Join(dir, "collections", "users"+FileExtension))
}

func TestTransactionSavePersistsCollectionFile(t *testing.T) {
	dir := t.TempDir()

	engine := NewStorageEngine(WithDataDir(dir))
	defer engine.StopBackgroundWorkers()

	_, err := engine.CreateDoc("users", domain.Document{"_id": "doc-1", "name": "Alice"})
	require.NoError(t, err)
	require.NoError(t, engine.SaveCollectionAfterTransaction("users"))

	assert.FileExists(t, filepath.Join(dir, "collections", "users"+FileExtension))

	// A fresh engine with the same data dir can lazy-load from the
	// per-collection file even without a shared data file
	restored := NewStorageEngine(WithDataDir(dir))
	defer restored.StopBackgroundWorkers()
	require.NoError(t, restored.LoadCollectionMetadata(filepath.Join(dir, "absent.docb")))
	restored.collections["users"] = &CollectionInfo{Name: "users", State: CollectionStateUnloaded}

	doc, err := restored.GetByID("users", "doc-1")
	require.NoError(t, err)
	assert.Equal(t, "Alice", doc["name"])
}
