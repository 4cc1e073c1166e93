package progress

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompute(t *testing.T) {
	tests := []struct {
		name     string
		current  int
		total    int
		expected int
	}{
		{"zero total", 0, 0, 0},
		{"zero of some", 0, 10, 0},
		{"half", 5, 10, 50},
		{"complete", 10, 10, 100},
		{"rounds down", 1, 3, 33},
		{"rounds up", 2, 3, 67},
		{"rounds half up", 1, 8, 13},
		{"single document", 1, 1, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Compute(tt.current, tt.total)
			assert.Equal(t, tt.current, p.Current)
			assert.Equal(t, tt.total, p.Total)
			assert.Equal(t, tt.expected, p.Percentage)
		})
	}
}

func TestComputeMonotonic(t *testing.T) {
	last := -1
	for current := 0; current <= 250; current++ {
		p := Compute(current, 250)
		assert.GreaterOrEqual(t, p.Percentage, last)
		last = p.Percentage
	}
	assert.Equal(t, 100, last)
}
