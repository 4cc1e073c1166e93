package storage

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/adfharrison1/go-docbatch/pkg/domain"
)

// MatchesConditions checks a document against a conjunction of filter
// conditions
func MatchesConditions(doc domain.Document, conditions []domain.FilterCondition) bool {
	for _, cond := range conditions {
		if !MatchesCondition(doc, cond) {
			return false
		}
	}
	return true
}

// MatchesCondition evaluates a single (field, operator, value) predicate
// against a document. A missing field never matches, whatever the
// operator.
func MatchesCondition(doc domain.Document, cond domain.FilterCondition) bool {
	actual, exists := doc[cond.Field]
	if !exists {
		return false
	}

	switch cond.Operator {
	case domain.OpEqual:
		return valuesEqual(actual, cond.Value)
	case domain.OpNotEqual:
		return !valuesEqual(actual, cond.Value)
	case domain.OpGreater, domain.OpGreaterEqual, domain.OpLess, domain.OpLessEqual:
		order, comparable := compareValues(actual, cond.Value)
		if !comparable {
			return false
		}
		switch cond.Operator {
		case domain.OpGreater:
			return order > 0
		case domain.OpGreaterEqual:
			return order >= 0
		case domain.OpLess:
			return order < 0
		default:
			return order <= 0
		}
	case domain.OpIn:
		return valueInList(actual, cond.Value)
	default:
		return false
	}
}

// valuesEqual compares two values for equality, coercing numeric types
func valuesEqual(actual, expected interface{}) bool {
	if actual == nil && expected == nil {
		return true
	}
	if actual == nil || expected == nil {
		return false
	}

	if actualNum, ok1 := ToFloat64(actual); ok1 {
		if expectedNum, ok2 := ToFloat64(expected); ok2 {
			return actualNum == expectedNum
		}
	}

	if actualTime, ok1 := toTime(actual); ok1 {
		if expectedTime, ok2 := toTime(expected); ok2 {
			return actualTime.Equal(expectedTime)
		}
	}

	return reflect.DeepEqual(actual, expected)
}

// compareValues orders two values: -1, 0, or 1, plus whether the pair is
// comparable at all
func compareValues(a, b interface{}) (int, bool) {
	if aNum, ok1 := ToFloat64(a); ok1 {
		if bNum, ok2 := ToFloat64(b); ok2 {
			switch {
			case aNum < bNum:
				return -1, true
			case aNum > bNum:
				return 1, true
			default:
				return 0, true
			}
		}
		return 0, false
	}

	if aTime, ok1 := toTime(a); ok1 {
		if bTime, ok2 := toTime(b); ok2 {
			switch {
			case aTime.Before(bTime):
				return -1, true
			case aTime.After(bTime):
				return 1, true
			default:
				return 0, true
			}
		}
		return 0, false
	}

	if aStr, ok1 := a.(string); ok1 {
		if bStr, ok2 := b.(string); ok2 {
			return strings.Compare(aStr, bStr), true
		}
	}

	return 0, false
}

// valueInList reports whether actual equals any element of the expected
// list value
func valueInList(actual, expected interface{}) bool {
	list := reflect.ValueOf(expected)
	if list.Kind() != reflect.Slice && list.Kind() != reflect.Array {
		return false
	}
	for i := 0; i < list.Len(); i++ {
		if valuesEqual(actual, list.Index(i).Interface()) {
			return true
		}
	}
	return false
}

// ToFloat64 converts various numeric types to float64 for comparison
func ToFloat64(value interface{}) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint32:
		return float64(v), true
	case uint64:
		return float64(v), true
	default:
		return 0, false
	}
}

// toTime recognizes time.Time and RFC3339 strings as instants
func toTime(value interface{}) (time.Time, bool) {
	switch v := value.(type) {
	case time.Time:
		return v, true
	case string:
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// sortDocuments orders documents by the order spec, falling back to _id
// for a stable, deterministic sequence. Ties on the order field also
// break by _id so cursor continuation never skips or repeats documents.
func sortDocuments(docs []domain.Document, order *domain.OrderSpec) {
	sort.SliceStable(docs, func(i, j int) bool {
		if order != nil {
			vi, iOK := docs[i][order.Field]
			vj, jOK := docs[j][order.Field]
			if iOK && jOK {
				if cmp, comparable := compareValues(vi, vj); comparable && cmp != 0 {
					if order.Direction == domain.Descending {
						return cmp > 0
					}
					return cmp < 0
				}
			} else if iOK != jOK {
				// Documents missing the order field sort last
				return iOK
			}
		}
		return docs[i].ID() < docs[j].ID()
	})
}

// IntersectStringSlices returns the intersection of multiple string
// slices, used for index intersection in multi-condition queries
func IntersectStringSlices(slices ...[]string) []string {
	if len(slices) == 0 {
		return nil
	}
	if len(slices) == 1 {
		return slices[0]
	}

	countMap := make(map[string]int)
	for _, slice := range slices {
		for _, id := range slice {
			countMap[id]++
		}
	}

	var result []string
	expectedCount := len(slices)
	for id, count := range countMap {
		if count == expectedCount {
			result = append(result, id)
		}
	}

	return result
}

// describeConditions renders conditions for error messages
func describeConditions(conditions []domain.FilterCondition) string {
	parts := make([]string, len(conditions))
	for i, cond := range conditions {
		parts[i] = fmt.Sprintf("%s %s %v", cond.Field, cond.Operator, cond.Value)
	}
	return strings.Join(parts, " AND ")
}
