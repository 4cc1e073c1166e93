package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adfharrison1/go-docbatch/pkg/domain"
	"github.com/adfharrison1/go-docbatch/pkg/query"
	"github.com/adfharrison1/go-docbatch/pkg/storage"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	s := NewServer([]storage.StorageOption{
		storage.WithDataDir(t.TempDir()),
		storage.WithTransactionSave(false),
	})
	t.Cleanup(s.Shutdown)
	return s
}

func do(t *testing.T, s *Server, method, path string, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	if payload != nil {
		require.NoError(t, json.NewEncoder(&body).Encode(payload))
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func TestServerBatchLifecycle(t *testing.T) {
	s := newTestServer(t)

	// Create a batch of employees
	rec := do(t, s, "POST", "/collections/employees/batch", map[string]interface{}{
		"documents": []map[string]interface{}{
			{"name": "Alice", "age": 30, "department": "Engineering"},
			{"name": "Bob", "age": 25, "department": "Sales"},
			{"name": "Charlie", "age": 35, "department": "Engineering"},
			{"name": "Diana", "age": 28, "department": "Marketing"},
			{"name": "Eve", "age": 32, "department": "Engineering"},
		},
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var created domain.OperationOutcome
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&created))
	assert.Equal(t, 5, created.SuccessCount)
	assert.Len(t, created.CreatedIDs, 5)

	// Preview an update before running it
	rec = do(t, s, "POST", "/collections/employees/batch/preview", map[string]interface{}{
		"filter": []map[string]interface{}{
			{"field": "department", "operator": "==", "value": "Engineering"},
		},
		"data": map[string]interface{}{"floor": 3},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var preview domain.PreviewResult
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&preview))
	assert.Equal(t, 3, preview.AffectedCount)
	assert.Equal(t, []string{"floor"}, preview.AffectedFields)

	// Run the update with pagination
	rec = do(t, s, "PATCH", "/collections/employees/batch", map[string]interface{}{
		"filter": []map[string]interface{}{
			{"field": "department", "operator": "==", "value": "Engineering"},
		},
		"data":      map[string]interface{}{"floor": 3},
		"page_size": 2,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var updated domain.OperationOutcome
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&updated))
	assert.Equal(t, 3, updated.SuccessCount)
	assert.Equal(t, 3, updated.TotalCount)

	count, err := s.Engine().Count(query.Collection("employees").
		Where("floor", domain.OpEqual, float64(3)).
		Plan())
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	// Delete the Sales department
	rec = do(t, s, "DELETE", "/collections/employees/batch", map[string]interface{}{
		"filter": []map[string]interface{}{
			{"field": "department", "operator": "==", "value": "Sales"},
		},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var deleted domain.OperationOutcome
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&deleted))
	assert.Equal(t, 1, deleted.SuccessCount)
	assert.Len(t, deleted.DeletedIDs, 1)

	count, err = s.Engine().Count(query.Collection("employees").Plan())
	require.NoError(t, err)
	assert.Equal(t, 4, count)
}

func TestServerIndexManagement(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, "POST", "/collections/users/batch", map[string]interface{}{
		"documents": []map[string]interface{}{
			{"name": "Alice", "status": "active"},
			{"name": "Bob", "status": "inactive"},
		},
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = do(t, s, "POST", "/collections/users/indexes/status", nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, s.Engine().GetIndexes("users"), "status")

	rec = do(t, s, "GET", "/collections/users/indexes", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var listed map[string]interface{}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&listed))
	assert.Equal(t, float64(1), listed["index_count"])

	// The index serves batch mutations on the indexed field
	rec = do(t, s, "PATCH", "/collections/users/batch", map[string]interface{}{
		"filter": []map[string]interface{}{
			{"field": "status", "operator": "==", "value": "active"},
		},
		"data": map[string]interface{}{"status": "archived"},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var updated domain.OperationOutcome
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&updated))
	assert.Equal(t, 1, updated.SuccessCount)

	rec = do(t, s, "DELETE", "/collections/users/indexes/status", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, s.Engine().GetIndexes("users"))

	rec = do(t, s, "POST", "/collections/missing/indexes/status", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServerHealthReportsEngineStats(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, "GET", "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var health struct {
		Status string                 `json:"status"`
		Stats  map[string]interface{} `json:"stats"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&health))
	assert.Equal(t, "ok", health.Status)
	require.NotNil(t, health.Stats)
	assert.Contains(t, health.Stats, "alloc_mb")
	assert.Contains(t, health.Stats, "num_goroutines")
	assert.Contains(t, health.Stats, "collections")
}

func TestServerRejectsBadRequests(t *testing.T) {
	s := newTestServer(t)

	// Update without a payload is a configuration error
	rec := do(t, s, "PATCH", "/collections/employees/batch", map[string]interface{}{
		"filter": []map[string]interface{}{
			{"field": "department", "operator": "==", "value": "Sales"},
		},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Unknown route
	rec = do(t, s, "GET", "/collections/employees/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
