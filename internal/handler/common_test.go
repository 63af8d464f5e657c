package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testContext(t *testing.T) echo.Context {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	return echo.New().NewContext(req, httptest.NewRecorder())
}

func TestGetUserID(t *testing.T) {
	tests := []struct {
		name    string
		value   interface{}
		want    uint64
		wantErr bool
	}{
		{name: "uint64", value: uint64(42), want: 42},
		{name: "float64 from claims", value: float64(7), want: 7},
		{name: "string", value: "19", want: 19},
		{name: "zero uint64", value: uint64(0), wantErr: true},
		{name: "missing", value: nil, wantErr: true},
		{name: "garbage string", value: "abc", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := testContext(t)
			if tt.value != nil {
				c.Set("user_id", tt.value)
			}
			got, err := getUserID(c)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseIDParam(t *testing.T) {
	c := testContext(t)
	c.SetParamNames("id")
	c.SetParamValues("123")
	id, err := parseIDParam(c, "id")
	require.NoError(t, err)
	assert.Equal(t, uint64(123), id)

	for _, bad := range []string{"", "0", "-1", "abc", "12.5"} {
		c := testContext(t)
		c.SetParamNames("id")
		c.SetParamValues(bad)
		_, err := parseIDParam(c, "id")
		assert.Error(t, err, "value %q", bad)
	}
}

func TestParseFormUint(t *testing.T) {
	id, err := parseFormUint(" 77 ")
	require.NoError(t, err)
	assert.Equal(t, uint64(77), id)

	for _, bad := range []string{"", "  ", "7a", "-3", "1.0"} {
		_, err := parseFormUint(bad)
		assert.Error(t, err, "value %q", bad)
	}
}

func TestRoleHelpers(t *testing.T) {
	c := testContext(t)
	c.Set("role", "ADMIN")
	assert.True(t, isAdmin(c))

	c = testContext(t)
	c.Set("role", "USER")
	assert.False(t, isAdmin(c))
	assert.Zero(t, getOrganizerID(c))

	c.Set("organizer_id", uint64(5))
	assert.Equal(t, uint64(5), getOrganizerID(c))
}
