package storage

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adfharrison1/go-docbatch/pkg/domain"
	"github.com/adfharrison1/go-docbatch/pkg/query"
)

func seedUsers(t *testing.T, engine *StorageEngine, n int) {
	t.Helper()
	for i := 1; i <= n; i++ {
		status := "active"
		if i%2 == 0 {
			status = "inactive"
		}
		_, err := engine.CreateDoc("users", domain.Document{
			"_id":    fmt.Sprintf("user-%03d", i),
			"name":   fmt.Sprintf("user %d", i),
			"age":    20 + i,
			"status": status,
		})
		require.NoError(t, err)
	}
}

func TestExecuteQueryFilters(t *testing.T) {
	engine := NewStorageEngine()
	defer engine.StopBackgroundWorkers()
	seedUsers(t, engine, 10)

	docs, err := engine.ExecuteQuery(query.Collection("users").
		Where("status", domain.OpEqual, "active").
		Plan())
	require.NoError(t, err)
	assert.Len(t, docs, 5)
	for _, doc := range docs {
		assert.Equal(t, "active", doc["status"])
	}

	docs, err = engine.ExecuteQuery(query.Collection("users").
		Where("status", domain.OpEqual, "active").
		Where("age", domain.OpGreater, 25).
		Plan())
	require.NoError(t, err)
	assert.Len(t, docs, 3)
}

func TestExecuteQueryOrderAndLimit(t *testing.T) {
	engine := NewStorageEngine()
	defer engine.StopBackgroundWorkers()
	seedUsers(t, engine, 10)

	docs, err := engine.ExecuteQuery(query.Collection("users").
		OrderBy("age", domain.Descending).
		Limit(3).
		Plan())
	require.NoError(t, err)
	require.Len(t, docs, 3)
	assert.Equal(t, "user-010", docs[0].ID())
	assert.Equal(t, "user-009", docs[1].ID())
	assert.Equal(t, "user-008", docs[2].ID())
}

func TestExecuteQueryCursorContinuation(t *testing.T) {
	engine := NewStorageEngine()
	defer engine.StopBackgroundWorkers()
	seedUsers(t, engine, 10)

	base := query.Collection("users").Plan()

	var seen []string
	lastID := ""
	pages := 0
	for {
		pagePlan, err := query.NextPage(base, 4, lastID)
		require.NoError(t, err)
		page, err := engine.ExecuteQuery(pagePlan)
		require.NoError(t, err)
		if len(page) == 0 {
			break
		}
		pages++
		for _, doc := range page {
			seen = append(seen, doc.ID())
		}
		lastID = page[len(page)-1].ID()
		if len(page) < 4 {
			break
		}
	}

	// 4 + 4 + 2, no skips, no repeats
	assert.Equal(t, 3, pages)
	require.Len(t, seen, 10)
	unique := make(map[string]bool)
	for _, id := range seen {
		unique[id] = true
	}
	assert.Len(t, unique, 10)
}

func TestExecuteQueryReturnsCopies(t *testing.T) {
	engine := NewStorageEngine()
	defer engine.StopBackgroundWorkers()
	seedUsers(t, engine, 1)

	docs, err := engine.ExecuteQuery(query.Collection("users").Plan())
	require.NoError(t, err)
	require.Len(t, docs, 1)

	docs[0]["name"] = "mutated"

	fresh, err := engine.GetByID("users", docs[0].ID())
	require.NoError(t, err)
	assert.Equal(t, "user 1", fresh["name"])
}

func TestExecuteQueryMissingCollection(t *testing.T) {
	engine := NewStorageEngine()
	defer engine.StopBackgroundWorkers()

	_, err := engine.ExecuteQuery(query.Collection("nonexistent").Plan())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not exist")
}

func TestCount(t *testing.T) {
	engine := NewStorageEngine()
	defer engine.StopBackgroundWorkers()
	seedUsers(t, engine, 10)

	count, err := engine.Count(query.Collection("users").Plan())
	require.NoError(t, err)
	assert.Equal(t, 10, count)

	count, err = engine.Count(query.Collection("users").
		Where("status", domain.OpEqual, "active").
		Plan())
	require.NoError(t, err)
	assert.Equal(t, 5, count)

	// Count is capped at the plan's limit
	count, err = engine.Count(query.Collection("users").Limit(3).Plan())
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestCountHonorsCursor(t *testing.T) {
	engine := NewStorageEngine()
	defer engine.StopBackgroundWorkers()
	seedUsers(t, engine, 10)

	resume, err := domain.EncodeCursor(&domain.Cursor{ID: "user-004"})
	require.NoError(t, err)

	plan := query.Collection("users").StartAfter(resume).Plan()

	// Count and ExecuteQuery see the same post-cursor match set
	count, err := engine.Count(plan)
	require.NoError(t, err)
	assert.Equal(t, 6, count)

	docs, err := engine.ExecuteQuery(plan)
	require.NoError(t, err)
	assert.Len(t, docs, count)

	// Limit still caps after the cursor skip
	count, err = engine.Count(query.Collection("users").StartAfter(resume).Limit(4).Plan())
	require.NoError(t, err)
	assert.Equal(t, 4, count)
}

func TestIndexedWritesWithUnhashableValues(t *testing.T) {
	engine := NewStorageEngine()
	defer engine.StopBackgroundWorkers()
	seedUsers(t, engine, 4)

	require.NoError(t, engine.CreateIndex("users", "status"))

	// A slice-valued indexed field must not panic on write or rebuild
	_, err := engine.CreateDoc("users", domain.Document{
		"_id":    "user-multi",
		"status": []interface{}{"active", "pending"},
	})
	require.NoError(t, err)

	docs, err := engine.ExecuteQuery(query.Collection("users").
		Where("status", domain.OpEqual, "active").
		Plan())
	require.NoError(t, err)
	assert.Len(t, docs, 2)

	require.NoError(t, engine.UpdateDoc("users", "user-multi", domain.Document{"status": "active"}))
	docs, err = engine.ExecuteQuery(query.Collection("users").
		Where("status", domain.OpEqual, "active").
		Plan())
	require.NoError(t, err)
	assert.Len(t, docs, 3)
}

func TestQueryUsesEqualityIndex(t *testing.T) {
	engine := NewStorageEngine()
	defer engine.StopBackgroundWorkers()
	seedUsers(t, engine, 10)

	require.NoError(t, engine.CreateIndex("users", "status"))
	assert.Contains(t, engine.GetIndexes("users"), "status")

	docs, err := engine.ExecuteQuery(query.Collection("users").
		Where("status", domain.OpEqual, "inactive").
		Plan())
	require.NoError(t, err)
	assert.Len(t, docs, 5)

	// Index stays consistent through writes
	require.NoError(t, engine.UpdateDoc("users", "user-001", domain.Document{"status": "inactive"}))
	docs, err = engine.ExecuteQuery(query.Collection("users").
		Where("status", domain.OpEqual, "inactive").
		Plan())
	require.NoError(t, err)
	assert.Len(t, docs, 6)

	require.NoError(t, engine.DeleteDoc("users", "user-002"))
	docs, err = engine.ExecuteQuery(query.Collection("users").
		Where("status", domain.OpEqual, "inactive").
		Plan())
	require.NoError(t, err)
	assert.Len(t, docs, 5)
}
