package api

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/mux"
)

// HandleBatchCreate handles POST requests to insert multiple documents
// into a collection
func (h *Handler) HandleBatchCreate(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	collName := vars["coll"]

	log.Printf("INFO: handleBatchCreate called for collection '%s'", collName)

	req, err := decodeBatchRequest(r)
	if err != nil {
		log.Printf("ERROR: Decoding body failed: %v", err)
		WriteJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	outcome, err := h.runner.Create(collName, req.InputDocuments(), req.Options())
	if err != nil {
		log.Printf("ERROR: Batch create failed for collection '%s': %v", collName, err)
		writeRunnerError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if outcome.FailureCount > 0 {
		w.WriteHeader(http.StatusPartialContent)
	} else {
		w.WriteHeader(http.StatusCreated)
	}
	json.NewEncoder(w).Encode(outcome)

	log.Printf("INFO: Batch create completed for collection '%s', created %d, failed %d",
		collName, outcome.SuccessCount, outcome.FailureCount)
}
