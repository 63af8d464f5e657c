package repository

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGeneratePaymentCode(t *testing.T) {
	re := regexp.MustCompile(`^PAY\d{13}\d{4}$`)
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		code := GeneratePaymentCode()
		assert.Regexp(t, re, code)
		seen[code] = true
	}
	// Random suffix plus millisecond timestamp should rarely collide in a
	// tight loop; allow a couple but not total degeneracy.
	assert.Greater(t, len(seen), 10)
}
