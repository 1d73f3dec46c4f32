package id

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsCode(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"5700", true},
		{"0000", true},
		{"570", false},
		{"57000", false},
		{"57a0", false},
		{"", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsCode(tt.input), "IsCode(%q)", tt.input)
	}
}

func TestFormatAccountCode(t *testing.T) {
	tests := []struct {
		number, sub string
		want        string
	}{
		{"5700", "0001", "5700-0001"},
		{"4300", "0000", "4300-0000"},
		{"7000", "", "7000-0000"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatAccountCode(tt.number, tt.sub))
	}
}

func TestParseAccountCode(t *testing.T) {
	tests := []struct {
		input            string
		wantNum, wantSub string
	}{
		{"5700-0001", "5700", "0001"},
		{"4300", "4300", "0000"},
		{" 7000-0000 ", "7000", "0000"},
	}
	for _, tt := range tests {
		num, sub, err := ParseAccountCode(tt.input)
		require.NoError(t, err, "input: %s", tt.input)
		assert.Equal(t, tt.wantNum, num)
		assert.Equal(t, tt.wantSub, sub)
	}
}

func TestParseAccountCode_Errors(t *testing.T) {
	badInputs := []string{
		"",
		"57-0001",
		"5700-1",
		"abcd-0000",
		"5700-0001-0002",
	}
	for _, input := range badInputs {
		_, _, err := ParseAccountCode(input)
		assert.Error(t, err, "expected error for input: %s", input)
	}
}

func TestParseRecordID(t *testing.T) {
	v, err := ParseRecordID("42")
	require.NoError(t, err)
	assert.Equal(t, int64(42), v)

	for _, input := range []string{"", "0", "-3", "x1"} {
		_, err := ParseRecordID(input)
		assert.Error(t, err, "expected error for input: %s", input)
	}
}
