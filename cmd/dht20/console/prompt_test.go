package console

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseAnswer(t *testing.T) {
	tests := []struct {
		given    string
		def      bool
		expected bool
	}{
		{"", true, true},
		{"", false, false},
		{"y", false, true},
		{" YES ", false, true},
		{"n", true, false},
		{"No", true, false},
		{"maybe", true, true},
		{"maybe", false, false},
	}
	for _, test := range tests {
		t.Run(test.given, func(t *testing.T) {
			assert.Equal(t, test.expected, parseAnswer(test.given, test.def))
		})
	}
}
