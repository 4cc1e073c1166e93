package storage

import (
	"encoding/binary"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/pierrec/lz4/v4"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/adfharrison1/go-docbatch/pkg/domain"
)

const (
	// MagicBytes identify the data file format
	MagicBytes = "DOCB"
	// FormatVersion is the current format version
	FormatVersion = 1
	// FileExtension for data files
	FileExtension = ".docb"
)

// fileHeader is the fixed-size header at the start of every data file
type fileHeader struct {
	Magic    [4]byte
	Version  uint8
	Flags    uint8
	Reserved [2]byte
}

func writeHeader(w io.Writer) error {
	header := fileHeader{
		Magic:   [4]byte{'D', 'O', 'C', 'B'},
		Version: FormatVersion,
	}
	return binary.Write(w, binary.LittleEndian, header)
}

func readHeader(r io.Reader) (*fileHeader, error) {
	var header fileHeader
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	if string(header.Magic[:]) != MagicBytes {
		return nil, fmt.Errorf("invalid file format: expected %s, got %s", MagicBytes, string(header.Magic[:]))
	}
	if header.Version != FormatVersion {
		return nil, fmt.Errorf("unsupported file version: %d", header.Version)
	}
	return &header, nil
}

// storageData is the on-disk payload: msgpack-encoded, lz4-compressed
type storageData struct {
	Collections map[string]map[string]interface{} `msgpack:"collections"`
	Indexes     map[string]map[string][]string    `msgpack:"indexes,omitempty"`
}

func newStorageData() *storageData {
	return &storageData{
		Collections: make(map[string]map[string]interface{}),
	}
}

// encodeToFile serializes, compresses, and writes a payload
func encodeToFile(filename string, data *storageData) error {
	msgpackData, err := msgpack.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to encode MessagePack: %w", err)
	}

	compressed := make([]byte, lz4.CompressBlockBound(len(msgpackData)))
	var hashTable [1 << 16]int
	n, err := lz4.CompressBlock(msgpackData, compressed, hashTable[:])
	if err != nil {
		return fmt.Errorf("failed to compress data: %w", err)
	}
	compressed = compressed[:n]

	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	if err := writeHeader(file); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	if _, err := file.Write(compressed); err != nil {
		return fmt.Errorf("failed to write compressed data: %w", err)
	}
	return nil
}

// decodeFromFile reads, decompresses, and deserializes a payload
func decodeFromFile(filename string) (*storageData, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	if _, err := readHeader(file); err != nil {
		return nil, fmt.Errorf("invalid file header: %w", err)
	}

	compressed, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read compressed data: %w", err)
	}

	// lz4 block decompression needs the output allocated up front
	decompressed := make([]byte, len(compressed)*10+1024)
	n, err := lz4.UncompressBlock(compressed, decompressed)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress data: %w", err)
	}
	decompressed = decompressed[:n]

	var data storageData
	if err := msgpack.Unmarshal(decompressed, &data); err != nil {
		return nil, fmt.Errorf("failed to decode MessagePack: %w", err)
	}
	return &data, nil
}

// SaveToFile saves all loaded collections and index definitions to a
// single data file
func (se *StorageEngine) SaveToFile(filename string) error {
	se.mu.RLock()
	defer se.mu.RUnlock()

	data := newStorageData()
	for _, collName := range se.cache.Keys() {
		collection, found := se.cache.Peek(collName)
		if !found {
			continue
		}
		data.Collections[collName] = make(map[string]interface{}, len(collection.Documents))
		for docID, doc := range collection.Documents {
			data.Collections[collName][docID] = map[string]interface{}(doc.Clone())
		}
	}
	data.Indexes = se.indexEngine.Export()

	if err := encodeToFile(filename, data); err != nil {
		return err
	}

	for _, info := range se.collections {
		if info.State == CollectionStateDirty {
			info.State = CollectionStateLoaded
		}
	}
	return nil
}

// LoadCollectionMetadata reads the data file and registers collection
// metadata without loading documents; collections load lazily on first
// access
func (se *StorageEngine) LoadCollectionMetadata(filename string) error {
	se.dataFile = filename

	data, err := decodeFromFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	se.mu.Lock()
	defer se.mu.Unlock()
	for collName, docs := range data.Collections {
		se.collections[collName] = &CollectionInfo{
			Name:          collName,
			DocumentCount: int64(len(docs)),
			State:         CollectionStateUnloaded,
			LastModified:  time.Now(),
		}
	}
	if len(data.Indexes) > 0 {
		se.indexEngine.Import(data.Indexes)
	}
	return nil
}

// collectionFilePath is where a single collection's own data file lives
func (se *StorageEngine) collectionFilePath(collName string) string {
	return filepath.Join(se.dataDir, "collections", collName+FileExtension)
}

// loadCollection loads one collection, preferring its per-collection
// file over the shared data file. Caller holds se.mu.
func (se *StorageEngine) loadCollection(collName string) (*domain.Collection, error) {
	if data, err := decodeFromFile(se.collectionFilePath(collName)); err == nil {
		if docs, exists := data.Collections[collName]; exists {
			return collectionFromRaw(collName, docs), nil
		}
	}

	if se.dataFile == "" {
		return nil, fmt.Errorf("no data file configured")
	}
	data, err := decodeFromFile(se.dataFile)
	if err != nil {
		return nil, err
	}
	docs, exists := data.Collections[collName]
	if !exists {
		return nil, fmt.Errorf("collection %s not found in file", collName)
	}
	return collectionFromRaw(collName, docs), nil
}

func collectionFromRaw(collName string, docs map[string]interface{}) *domain.Collection {
	collection := domain.NewCollection(collName)
	for docID, raw := range docs {
		if fields, ok := raw.(map[string]interface{}); ok {
			collection.Documents[docID] = domain.Document(fields)
		}
	}
	return collection
}

// writeCollectionFile persists a single collection snapshot to its own
// file. Takes no engine locks so it is safe from the eviction callback.
func (se *StorageEngine) writeCollectionFile(collection *domain.Collection) error {
	dir := filepath.Join(se.dataDir, "collections")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create collections directory: %w", err)
	}

	data := newStorageData()
	data.Collections[collection.Name] = make(map[string]interface{}, len(collection.Documents))
	for docID, doc := range collection.Documents {
		data.Collections[collection.Name][docID] = map[string]interface{}(doc.Clone())
	}
	return encodeToFile(se.collectionFilePath(collection.Name), data)
}

// SaveCollectionAfterTransaction saves a collection to disk if
// transaction saves are enabled and the collection is dirty
func (se *StorageEngine) SaveCollectionAfterTransaction(collName string) error {
	if !se.transactionSave {
		return nil
	}

	se.mu.RLock()
	info, exists := se.collections[collName]
	if !exists || info.State != CollectionStateDirty {
		se.mu.RUnlock()
		return nil
	}
	collection, found := se.cache.Peek(collName)
	se.mu.RUnlock()
	if !found {
		return nil
	}

	return se.withCollectionReadLock(collName, func() error {
		if err := se.writeCollectionFile(collection); err != nil {
			return err
		}
		se.mu.Lock()
		info.State = CollectionStateLoaded
		se.mu.Unlock()
		return nil
	})
}

// saveDirtyCollections saves every dirty collection to its own file,
// called by the background save worker
func (se *StorageEngine) saveDirtyCollections() {
	start := time.Now()
	savedCount := 0
	errorCount := 0

	se.mu.RLock()
	var dirty []string
	for collName, info := range se.collections {
		if info.State == CollectionStateDirty {
			dirty = append(dirty, collName)
		}
	}
	se.mu.RUnlock()

	if len(dirty) == 0 {
		return
	}

	log.Printf("INFO: Background save starting - %d dirty collections to save", len(dirty))

	for _, collName := range dirty {
		se.mu.RLock()
		collection, found := se.cache.Peek(collName)
		info := se.collections[collName]
		se.mu.RUnlock()
		if !found {
			continue
		}

		err := se.withCollectionReadLock(collName, func() error {
			return se.writeCollectionFile(collection)
		})
		if err != nil {
			log.Printf("ERROR: Failed to save collection %s: %v", collName, err)
			errorCount++
			continue
		}
		se.mu.Lock()
		info.State = CollectionStateLoaded
		se.mu.Unlock()
		savedCount++
	}

	elapsed := time.Since(start)
	if errorCount > 0 {
		log.Printf("WARN: Background save completed with errors - saved: %d, errors: %d, time: %v",
			savedCount, errorCount, elapsed)
	} else {
		log.Printf("INFO: Background save completed - saved: %d collections in %v", savedCount, elapsed)
	}
}
