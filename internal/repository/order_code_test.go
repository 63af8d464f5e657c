package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatOrderCode(t *testing.T) {
	day := time.Date(2025, 3, 7, 15, 4, 0, 0, time.UTC)
	assert.Equal(t, "ORD-20250307-0001", FormatOrderCode(day, 1))
	assert.Equal(t, "ORD-20250307-0042", FormatOrderCode(day, 42))
	assert.Equal(t, "ORD-20250307-9999", FormatOrderCode(day, 9999))
}

func TestParseOrderCodeSequence(t *testing.T) {
	tests := []struct {
		code    string
		want    int
		wantErr bool
	}{
		{"ORD-20250307-0001", 1, false},
		{"ORD-20250307-0310", 310, false},
		{"ORD-20250307-", 0, true},
		{"ORD20250307", 0, true},
		{"ORD-20250307-XYZ", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			got, err := ParseOrderCodeSequence(tt.code)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNextOrderCode(t *testing.T) {
	day := time.Date(2025, 3, 7, 0, 0, 0, 0, time.UTC)

	first, err := NextOrderCode(day, "")
	require.NoError(t, err)
	assert.Equal(t, "ORD-20250307-0001", first)

	// Sequences are strictly increasing within a day.
	code := first
	for i := 2; i <= 5; i++ {
		next, err := NextOrderCode(day, code)
		require.NoError(t, err)
		assert.Equal(t, FormatOrderCode(day, i), next)
		assert.Greater(t, next, code)
		code = next
	}
}

func TestNextOrderCodeMalformed(t *testing.T) {
	_, err := NextOrderCode(time.Now(), "garbage")
	assert.Error(t, err)
}
