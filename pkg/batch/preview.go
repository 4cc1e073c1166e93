package batch

import (
	"fmt"
	"sort"

	"github.com/adfharrison1/go-docbatch/pkg/domain"
)

// PreviewSampleLimit caps how many before/after samples a preview returns
const PreviewSampleLimit = 10

// Preview reports what an update with the given patch would touch:
// the affected count, the patch's field names, and up to
// PreviewSampleLimit before/after samples. The after state is a local
// shallow merge of the patch onto the fetched document; nothing is
// written to the store.
func (e *Executor) Preview(plan domain.QueryPlan, patch domain.Document) (*domain.PreviewResult, error) {
	if plan.Collection == "" {
		return nil, ErrNoCollection
	}
	if err := plan.Validate(); err != nil {
		return nil, err
	}
	if len(patch) == 0 {
		return nil, fmt.Errorf("%w for preview", ErrEmptyPatch)
	}

	docs, err := e.engine.ExecuteQuery(plan)
	if err != nil {
		return nil, err
	}

	fields := make([]string, 0, len(patch))
	for field := range patch {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	result := &domain.PreviewResult{
		AffectedCount:  len(docs),
		AffectedFields: fields,
	}
	for i, doc := range docs {
		if i == PreviewSampleLimit {
			break
		}
		result.Samples = append(result.Samples, domain.PreviewSample{
			ID:     doc.ID(),
			Before: doc,
			After:  domain.Merge(doc, patch),
		})
	}

	return result, nil
}
