package api

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
)

// HandleCreateIndex handles POST requests to create an equality index on
// a specific field in a collection
func (h *Handler) HandleCreateIndex(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	collName := vars["coll"]
	fieldName := vars["field"]

	log.Printf("INFO: handleCreateIndex called for collection '%s', field '%s'", collName, fieldName)

	// _id lookups never need an index
	if fieldName == "_id" {
		WriteJSONError(w, http.StatusBadRequest, "cannot create index on _id field")
		return
	}

	if err := h.admin.CreateIndex(collName, fieldName); err != nil {
		log.Printf("ERROR: Failed to create index on '%s.%s': %v", collName, fieldName, err)
		WriteJSONError(w, indexErrorStatus(err), err.Error())
		return
	}

	response := map[string]interface{}{
		"collection": collName,
		"field":      fieldName,
		"message":    "Index created successfully",
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(response)

	log.Printf("INFO: Created index on '%s.%s'", collName, fieldName)
}

// HandleGetIndexes handles GET requests to list the indexed fields of a
// collection
func (h *Handler) HandleGetIndexes(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	collName := vars["coll"]

	log.Printf("INFO: handleGetIndexes called for collection '%s'", collName)

	indexes := h.admin.GetIndexes(collName)

	response := map[string]interface{}{
		"collection":  collName,
		"indexes":     indexes,
		"index_count": len(indexes),
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)

	log.Printf("INFO: Retrieved %d indexes for collection '%s'", len(indexes), collName)
}

// HandleDropIndex handles DELETE requests to remove an index from a
// collection
func (h *Handler) HandleDropIndex(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	collName := vars["coll"]
	fieldName := vars["field"]

	log.Printf("INFO: handleDropIndex called for collection '%s', field '%s'", collName, fieldName)

	if err := h.admin.DropIndex(collName, fieldName); err != nil {
		log.Printf("ERROR: Failed to drop index on '%s.%s': %v", collName, fieldName, err)
		WriteJSONError(w, indexErrorStatus(err), err.Error())
		return
	}

	response := map[string]interface{}{
		"collection": collName,
		"field":      fieldName,
		"message":    "Index dropped successfully",
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)

	log.Printf("INFO: Dropped index on '%s.%s'", collName, fieldName)
}

// indexErrorStatus maps index-engine errors onto status codes
func indexErrorStatus(err error) int {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "does not exist") || strings.Contains(msg, "no indexes exist"):
		return http.StatusNotFound
	case strings.Contains(msg, "already exists"):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}
