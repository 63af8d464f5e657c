package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTicketTypeRemaining(t *testing.T) {
	assert.Equal(t, uint32(60), TicketType{TotalQuantity: 100, SoldQuantity: 40}.Remaining())
	assert.Equal(t, uint32(0), TicketType{TotalQuantity: 100, SoldQuantity: 100}.Remaining())
	// Never underflows even if counters are momentarily inconsistent.
	assert.Equal(t, uint32(0), TicketType{TotalQuantity: 10, SoldQuantity: 11}.Remaining())
}

func TestTicketTypeAcceptsTotal(t *testing.T) {
	tt := TicketType{TotalQuantity: 100, SoldQuantity: 40}
	assert.True(t, tt.AcceptsTotal(40), "shrinking to exactly sold is allowed")
	assert.True(t, tt.AcceptsTotal(200))
	assert.False(t, tt.AcceptsTotal(39), "capacity may never drop below sold")
	assert.False(t, tt.AcceptsTotal(0))
}
