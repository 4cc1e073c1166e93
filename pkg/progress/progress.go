// Package progress converts a running (processed, total) pair into a
// normalized percentage snapshot.
package progress

import (
	"math"

	"github.com/adfharrison1/go-docbatch/pkg/domain"
)

// Compute returns the progress snapshot for current documents processed
// out of total planned. Percentage is round(current/total*100), or 0
// when total is 0. Pure function, no side effects.
func Compute(current, total int) domain.Progress {
	p := domain.Progress{Current: current, Total: total}
	if total > 0 {
		p.Percentage = int(math.Round(float64(current) / float64(total) * 100))
	}
	return p
}
