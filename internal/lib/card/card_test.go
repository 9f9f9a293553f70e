package card

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValid(t *testing.T) {
	tests := []struct {
		name   string
		number string
		want   bool
	}{
		{name: "visa test number", number: "4242424242424242", want: true},
		{name: "with spaces", number: "4242 4242 4242 4242", want: true},
		{name: "with dashes", number: "5555-5555-5555-4444", want: true},
		{name: "bad checksum", number: "4242424242424241", want: false},
		{name: "too short", number: "42424242", want: false},
		{name: "letters", number: "4242a24242424242", want: false},
		{name: "empty", number: "", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Valid(tt.number))
		})
	}
}

func TestMask(t *testing.T) {
	assert.Equal(t, "**** **** **** 4242", Mask("4242 4242 4242 4242"))
	assert.Equal(t, "123", Mask("123"))
}

func TestParseExpiration(t *testing.T) {
	mon, year, err := ParseExpiration("01/20")
	require.NoError(t, err)
	assert.Equal(t, 1, mon)
	assert.Equal(t, 2020, year)

	mon, year, err = ParseExpiration(" 12/31 ")
	require.NoError(t, err)
	assert.Equal(t, 12, mon)
	assert.Equal(t, 2031, year)

	for _, bad := range []string{"", "1/20", "13/20", "00/25", "01-20", "ab/cd", "01/2020"} {
		_, _, err := ParseExpiration(bad)
		assert.Error(t, err, bad)
	}
}

func TestExpired(t *testing.T) {
	now := time.Date(2024, 5, 31, 23, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		month int
		year  int
		want  bool
	}{
		{name: "long expired", month: 1, year: 2020, want: true},
		{name: "previous month", month: 4, year: 2024, want: true},
		{name: "current month still valid", month: 5, year: 2024, want: false},
		{name: "next month", month: 6, year: 2024, want: false},
		{name: "next year earlier month", month: 1, year: 2025, want: false},
		{name: "last year later month", month: 12, year: 2023, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Expired(tt.month, tt.year, now))
		})
	}
}
