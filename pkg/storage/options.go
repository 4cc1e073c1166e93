package storage

import (
	"time"

	"github.com/adfharrison1/go-docbatch/pkg/writer"
)

type StorageOption func(*StorageEngine)

// WithDataDir sets the directory for per-collection data files
func WithDataDir(dir string) StorageOption {
	return func(engine *StorageEngine) {
		engine.dataDir = dir
	}
}

// WithCacheSize caps how many collections stay loaded in memory
func WithCacheSize(n int) StorageOption {
	return func(engine *StorageEngine) {
		if n > 0 {
			engine.cacheSize = n
		}
	}
}

// WithBackgroundSave enables periodic saves of dirty collections and
// disables save-after-transaction
func WithBackgroundSave(interval time.Duration) StorageOption {
	return func(engine *StorageEngine) {
		engine.backgroundSave = true
		engine.saveInterval = interval
		engine.transactionSave = false
	}
}

// WithTransactionSave enables saving after every write transaction
// (default: true)
func WithTransactionSave(enabled bool) StorageOption {
	return func(engine *StorageEngine) {
		engine.transactionSave = enabled
	}
}

// WithChannelOptions sets the options applied to every write-channel
// session the engine opens
func WithChannelOptions(opts ...writer.Option) StorageOption {
	return func(engine *StorageEngine) {
		engine.channelOpts = opts
	}
}
