package domain

import "time"

// OperationKind identifies the mutation a batch invocation performs
type OperationKind string

const (
	OpCreate  OperationKind = "create"
	OpUpdate  OperationKind = "update"
	OpUpsert  OperationKind = "upsert"
	OpDelete  OperationKind = "delete"
	OpPreview OperationKind = "preview"
)

// Progress is a snapshot of how far an invocation has advanced.
// Current counts documents fully processed, failures included.
type Progress struct {
	Current    int `json:"current"`
	Total      int `json:"total"`
	Percentage int `json:"percentage"`
}

// ProgressFunc receives progress snapshots. It is invoked synchronously
// after every per-document completion; callers that need debouncing do it
// themselves.
type ProgressFunc func(Progress)

// LogOptions controls operation-log persistence for one invocation
type LogOptions struct {
	Enabled bool   `json:"enabled"`
	Dir     string `json:"dir,omitempty"` // defaults to ./logs
}

// BatchOptions configures one batch invocation. A zero value means no
// progress callback, no operation log, and a single page covering the
// whole match set.
type BatchOptions struct {
	Progress ProgressFunc
	Log      *LogOptions
	PageSize int
}

// OperationOutcome is the accounting returned to the caller. For every
// outcome, SuccessCount + FailureCount == TotalCount.
type OperationOutcome struct {
	SuccessCount int      `json:"success_count"`
	FailureCount int      `json:"failure_count"`
	TotalCount   int      `json:"total_count"`
	FailedDocIDs []string `json:"failed_doc_ids,omitempty"`
	CreatedIDs   []string `json:"created_ids,omitempty"`
	DeletedIDs   []string `json:"deleted_ids,omitempty"`
	LogFilePath  string   `json:"log_file_path,omitempty"`
}

// PreviewSample shows one document before and after a local shallow merge
// of the proposed patch
type PreviewSample struct {
	ID     string   `json:"id"`
	Before Document `json:"before"`
	After  Document `json:"after"`
}

// PreviewResult describes what an update would touch, without writing
type PreviewResult struct {
	AffectedCount  int             `json:"affected_count"`
	AffectedFields []string        `json:"affected_fields"`
	Samples        []PreviewSample `json:"samples"`
}

// LogStatus is the outcome recorded for one document in the operation log
type LogStatus string

const (
	LogSuccess LogStatus = "SUCCESS"
	LogFailure LogStatus = "FAILURE"
)

// LogEntry records one per-document outcome, stamped at completion time.
// Entries are ordered by completion, which under concurrent dispatch is
// not enumeration order.
type LogEntry struct {
	Timestamp time.Time `json:"timestamp"`
	DocID     string    `json:"doc_id"`
	Status    LogStatus `json:"status"`
	Error     string    `json:"error,omitempty"`
}

// OperationLog is the full audit record of one invocation, immutable once
// finalized
type OperationLog struct {
	Kind        OperationKind     `json:"kind"`
	Collection  string            `json:"collection"`
	StartedAt   time.Time         `json:"started_at"`
	CompletedAt time.Time         `json:"completed_at"`
	Conditions  []FilterCondition `json:"conditions,omitempty"`
	Payload     Document          `json:"payload,omitempty"`
	Total       int               `json:"total"`
	Success     int               `json:"success"`
	Failure     int               `json:"failure"`
	Entries     []LogEntry        `json:"entries"`
}
