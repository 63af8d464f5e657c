package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return s
}

func runChain(mw echo.MiddlewareFunc, authHeader string) (*httptest.ResponseRecorder, echo.Context) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	_ = mw(func(c echo.Context) error { return c.NoContent(http.StatusOK) })(c)
	return rec, c
}

func TestJWTAuthInjectsTypedClaims(t *testing.T) {
	token := signToken(t, jwt.MapClaims{
		"sub":          float64(42),
		"role":         "ORGANIZER",
		"organizer_id": float64(7),
		"exp":          time.Now().Add(time.Hour).Unix(),
	})

	rec, c := runChain(JWTAuth(testSecret), "Bearer "+token)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, uint64(42), c.Get("user_id"))
	assert.Equal(t, "ORGANIZER", c.Get("role"))
	assert.Equal(t, uint64(7), c.Get("organizer_id"))
}

func TestJWTAuthRejectsMissingAndBadTokens(t *testing.T) {
	rec, _ := runChain(JWTAuth(testSecret), "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = runChain(JWTAuth(testSecret), "Bearer not-a-token")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJWTAuthRejectsExpiredToken(t *testing.T) {
	token := signToken(t, jwt.MapClaims{
		"sub": float64(1),
		"exp": time.Now().Add(-time.Minute).Unix(),
	})
	rec, _ := runChain(JWTAuth(testSecret), "Bearer "+token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestOptionalJWTAllowsAnonymous(t *testing.T) {
	rec, c := runChain(OptionalJWT(testSecret), "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, c.Get("user_id"))
}

func TestOptionalJWTIgnoresInvalidToken(t *testing.T) {
	rec, c := runChain(OptionalJWT(testSecret), "Bearer garbage")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, c.Get("user_id"))
}

func TestRequireRole(t *testing.T) {
	tests := []struct {
		name string
		role interface{}
		want int
	}{
		{"allowed role", "ADMIN", http.StatusOK},
		{"other allowed role", "ORGANIZER", http.StatusOK},
		{"denied role", "USER", http.StatusForbidden},
		{"missing role", nil, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)
			if tt.role != nil {
				c.Set("role", tt.role)
			}
			mw := RequireRole("ADMIN", "ORGANIZER")
			_ = mw(func(c echo.Context) error { return c.NoContent(http.StatusOK) })(c)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}
