package sqlutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpdateBuilder(t *testing.T) {
	name := "Jane"
	email := "jane@example.com"

	tests := []struct {
		name     string
		build    func() *UpdateBuilder
		wantSQL  string
		wantArgs []interface{}
		wantOK   bool
	}{
		{
			name: "single column",
			build: func() *UpdateBuilder {
				return NewUpdate("users").SetString("first_name", &name)
			},
			wantSQL:  "UPDATE users SET first_name = ? WHERE id = ?",
			wantArgs: []interface{}{"Jane", uint64(7)},
			wantOK:   true,
		},
		{
			name: "multiple columns in order",
			build: func() *UpdateBuilder {
				return NewUpdate("users").
					SetString("first_name", &name).
					SetString("email", &email)
			},
			wantSQL:  "UPDATE users SET first_name = ?, email = ? WHERE id = ?",
			wantArgs: []interface{}{"Jane", "jane@example.com", uint64(7)},
			wantOK:   true,
		},
		{
			name: "nil values are skipped",
			build: func() *UpdateBuilder {
				return NewUpdate("users").
					SetString("first_name", nil).
					SetString("email", &email)
			},
			wantSQL:  "UPDATE users SET email = ? WHERE id = ?",
			wantArgs: []interface{}{"jane@example.com", uint64(7)},
			wantOK:   true,
		},
		{
			name: "nothing to update",
			build: func() *UpdateBuilder {
				return NewUpdate("users").SetString("first_name", nil)
			},
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := tt.build()
			sql, args, ok := b.Build("id = ?", uint64(7))
			require.Equal(t, tt.wantOK, ok)
			if !tt.wantOK {
				assert.True(t, b.Empty())
				return
			}
			assert.Equal(t, tt.wantSQL, sql)
			assert.Equal(t, tt.wantArgs, args)
		})
	}
}

func TestUpdateBuilderSet(t *testing.T) {
	sql, args, ok := NewUpdate("events").
		Set("is_published", true).
		Set("venue", "Impact Arena").
		Build("id = ? AND organizer_id = ?", 3, 9)
	require.True(t, ok)
	assert.Equal(t, "UPDATE events SET is_published = ?, venue = ? WHERE id = ? AND organizer_id = ?", sql)
	assert.Equal(t, []interface{}{true, "Impact Arena", 3, 9}, args)
}
