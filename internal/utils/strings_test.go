package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCSV(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{name: "empty string", input: "", expected: nil},
		{name: "single value", input: "AAPL=10", expected: []string{"AAPL=10"}},
		{name: "two values", input: "AAPL=10, MSFT=2", expected: []string{"AAPL=10", "MSFT=2"}},
		{name: "blank entries dropped", input: " , AAPL=1,, ", expected: []string{"AAPL=1"}},
		{name: "only separators", input: ", ,", expected: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseCSV(tt.input))
		})
	}
}

func TestSplitPair(t *testing.T) {
	key, value, err := SplitPair(" AAPL = 10 ", "=")
	require.NoError(t, err)
	assert.Equal(t, "AAPL", key)
	assert.Equal(t, "10", value)

	key, value, err = SplitPair("30:1", ":")
	require.NoError(t, err)
	assert.Equal(t, "30", key)
	assert.Equal(t, "1", value)

	for _, bad := range []string{"AAPL", "=10", "AAPL=", ""} {
		_, _, err := SplitPair(bad, "=")
		assert.Error(t, err, bad)
	}
}
