package storage

import (
	"fmt"
	"log"

	"github.com/adfharrison1/go-docbatch/pkg/domain"
)

// ExecuteQuery returns copies of the documents matching the plan:
// conjunction of conditions, single-field ordering, start-after cursor
// continuation, then limit. Copies keep callers isolated from concurrent
// writes to the live documents.
func (se *StorageEngine) ExecuteQuery(plan domain.QueryPlan) ([]domain.Document, error) {
	if err := plan.Validate(); err != nil {
		return nil, fmt.Errorf("invalid query plan: %w", err)
	}

	collection, err := se.GetCollection(plan.Collection)
	if err != nil {
		return nil, err
	}

	var matched []domain.Document
	err = se.withCollectionReadLock(plan.Collection, func() error {
		matched = se.matchDocuments(collection, plan.Conditions)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sortDocuments(matched, plan.Order)

	if plan.StartAfter != "" {
		cursor, err := domain.DecodeCursor(plan.StartAfter)
		if err != nil {
			return nil, fmt.Errorf("invalid start-after cursor: %w", err)
		}
		start := 0
		for i, doc := range matched {
			if doc.ID() == cursor.ID {
				start = i + 1
				break
			}
		}
		matched = matched[start:]
	}

	if plan.Limit > 0 && len(matched) > plan.Limit {
		matched = matched[:plan.Limit]
	}

	log.Printf("INFO: Query on collection '%s' returned %d documents (filter: %s)",
		plan.Collection, len(matched), describeConditions(plan.Conditions))

	return matched, nil
}

// Count returns how many documents the plan matches, honoring the
// start-after cursor and capping at the plan's limit when one is set,
// so a count always agrees with what ExecuteQuery would return across
// pages of the same plan.
func (se *StorageEngine) Count(plan domain.QueryPlan) (int, error) {
	if err := plan.Validate(); err != nil {
		return 0, fmt.Errorf("invalid query plan: %w", err)
	}

	collection, err := se.GetCollection(plan.Collection)
	if err != nil {
		return 0, err
	}

	var matched []domain.Document
	err = se.withCollectionReadLock(plan.Collection, func() error {
		matched = se.matchDocuments(collection, plan.Conditions)
		return nil
	})
	if err != nil {
		return 0, err
	}

	if plan.StartAfter != "" {
		sortDocuments(matched, plan.Order)
		cursor, err := domain.DecodeCursor(plan.StartAfter)
		if err != nil {
			return 0, fmt.Errorf("invalid start-after cursor: %w", err)
		}
		start := 0
		for i, doc := range matched {
			if doc.ID() == cursor.ID {
				start = i + 1
				break
			}
		}
		matched = matched[start:]
	}

	count := len(matched)
	if plan.Limit > 0 && count > plan.Limit {
		count = plan.Limit
	}
	return count, nil
}

// matchDocuments collects cloned matches, consulting equality indexes
// where available. Caller holds the collection read lock.
func (se *StorageEngine) matchDocuments(collection *domain.Collection, conditions []domain.FilterCondition) []domain.Document {
	candidateIDs, useIndex := se.indexCandidates(collection.Name, conditions)

	var matched []domain.Document
	if useIndex {
		for _, docID := range candidateIDs {
			if doc, exists := collection.Documents[docID]; exists {
				if MatchesConditions(doc, conditions) {
					matched = append(matched, doc.Clone())
				}
			}
		}
	} else {
		for _, doc := range collection.Documents {
			if MatchesConditions(doc, conditions) {
				matched = append(matched, doc.Clone())
			}
		}
	}
	return matched
}

// indexCandidates intersects index lookups for the plan's equality
// conditions. Non-equality conditions never use an index; if no equality
// condition has one, the query falls back to a full scan.
func (se *StorageEngine) indexCandidates(collName string, conditions []domain.FilterCondition) ([]string, bool) {
	var indexResults [][]string
	for _, cond := range conditions {
		if ids, ok := se.indexEngine.Candidates(collName, cond); ok {
			indexResults = append(indexResults, ids)
		}
	}

	if len(indexResults) == 0 {
		return nil, false
	}
	if len(indexResults) > 1 {
		return IntersectStringSlices(indexResults...), true
	}
	return indexResults[0], true
}
