package api

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/mux"
)

// HandleBatchUpsert handles PUT requests to set-with-merge every
// document matching the request's filter
func (h *Handler) HandleBatchUpsert(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	collName := vars["coll"]

	log.Printf("INFO: handleBatchUpsert called for collection '%s'", collName)

	req, err := decodeBatchRequest(r)
	if err != nil {
		log.Printf("ERROR: Decoding body failed: %v", err)
		WriteJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	outcome, err := h.runner.Upsert(req.Plan(collName), req.Patch(), req.Options())
	if err != nil {
		log.Printf("ERROR: Batch upsert failed for collection '%s': %v", collName, err)
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

	log.Printf("INFO: Batch upsert completed for collection '%s', upserted %d, failed %d",
		collName, outcome.SuccessCount, outcome.FailureCount)
}
