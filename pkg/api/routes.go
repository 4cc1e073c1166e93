package api

import (
	"github.com/gorilla/mux"
)

// RegisterRoutes registers all API routes with the given router
func (h *Handler) RegisterRoutes(router *mux.Router) {
	// Batch mutation operations
	router.HandleFunc("/collections/{coll}/batch", h.HandleBatchCreate).Methods("POST")
	router.HandleFunc("/collections/{coll}/batch", h.HandleBatchUpdate).Methods("PATCH")
	router.HandleFunc("/collections/{coll}/batch", h.HandleBatchUpsert).Methods("PUT")
	router.HandleFunc("/collections/{coll}/batch", h.HandleBatchDelete).Methods("DELETE")

	// Dry-run
	router.HandleFunc("/collections/{coll}/batch/preview", h.HandlePreview).Methods("POST")

	// Index operations
	router.HandleFunc("/collections/{coll}/indexes", h.HandleGetIndexes).Methods("GET")
	router.HandleFunc("/collections/{coll}/indexes/{field}", h.HandleCreateIndex).Methods("POST")
	router.HandleFunc("/collections/{coll}/indexes/{field}", h.HandleDropIndex).Methods("DELETE")

	// Health
	router.HandleFunc("/health", h.HandleHealth).Methods("GET")
}
