package api

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/mux"
)

// HandlePreview handles POST requests to preview what a batch update
// would change, without mutating anything
func (h *Handler) HandlePreview(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	collName := vars["coll"]

	log.Printf("INFO: handlePreview called for collection '%s'", collName)

	req, err := decodeBatchRequest(r)
	if err != nil {
		log.Printf("ERROR: Decoding body failed: %v", err)
		WriteJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.runner.Preview(req.Plan(collName), req.Patch())
	if err != nil {
		log.Printf("ERROR: Preview failed for collection '%s': %v", collName, err)
		writeRunnerError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(result)

	log.Printf("INFO: Preview completed for collection '%s', %d documents affected",
		collName, result.AffectedCount)
}
