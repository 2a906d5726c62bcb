package review

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMean(t *testing.T) {
	tests := []struct {
		name    string
		ratings []int
		want    string
	}{
		{"no reviews", nil, "0.0"},
		{"single", []int{5}, "5.0"},
		{"exact", []int{4, 5, 3}, "4.0"},
		{"half", []int{4, 5}, "4.5"},
		{"rounds up", []int{5, 5, 4}, "4.7"},
		{"rounds down", []int{1, 1, 2}, "1.3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Mean(tt.ratings).StringFixed(1))
		})
	}
}
