package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeAttendance(t *testing.T) {
	tests := []struct {
		cell string
		want bool
	}{
		{"present", true},
		{"Present", true},
		{"PRESENT", true},
		{"p", true},
		{"P", true},
		{"  P  ", true},
		{"\tpresent\n", true},
		{"absent", false},
		{"Absent", false},
		{"a", false},
		{"A", false},
		{"", false},
		{"   ", false},
		{"yes", false},
		{"pres", false},
		{"1", false},
		{"x", false},
	}

	for _, tt := range tests {
		t.Run(tt.cell, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeAttendance(tt.cell))
		})
	}
}
