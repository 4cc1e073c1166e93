package api

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/mux"
)

// HandleBatchUpdate handles PATCH requests to update every document
// matching the request's filter
func (h *Handler) HandleBatchUpdate(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	collName := vars["coll"]

	log.Printf("INFO: handleBatchUpdate called for collection '%s'", collName)

	req, err := decodeBatchRequest(r)
	if err != nil {
		log.Printf("ERROR: Decoding body failed: %v", err)
		WriteJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	outcome, err := h.runner.Update(req.Plan(collName), req.Patch(), req.Options())
	if err != nil {
		log.Printf("ERROR: Batch update failed for collection '%s': %v", collName, err)
		writeRunnerError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if outcome.FailureCount > 0 {
		w.WriteHeader(http.StatusPartialContent)
	} else {
		w.WriteHeader(http.StatusOK)
	}
	json.NewEncoder(w).Encode(outcome)

	log.Printf("INFO: Batch update completed for collection '%s', updated %d, failed %d",
		collName, outcome.SuccessCount, outcome.FailureCount)
}
