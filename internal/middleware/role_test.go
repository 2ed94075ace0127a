package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runWithRole(t *testing.T, role any, allowed ...string) int {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if role != nil {
		c.Set("role", role)
	}

	h := RequireRole(allowed...)(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	require.NoError(t, h(c))
	return rec.Code
}

func TestRequireRole(t *testing.T) {
	assert.Equal(t, http.StatusOK, runWithRole(t, RoleAdmin, RoleAdmin))
	assert.Equal(t, http.StatusOK, runWithRole(t, RoleMember, RoleMember, RoleAdmin))
	assert.Equal(t, http.StatusForbidden, runWithRole(t, RoleMember, RoleAdmin))
	assert.Equal(t, http.StatusForbidden, runWithRole(t, nil, RoleAdmin))
	assert.Equal(t, http.StatusForbidden, runWithRole(t, 42, RoleAdmin))
}

func TestUserIDFromCtx(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())

	_, ok := UserIDFromCtx(c)
	assert.False(t, ok)

	// JWT numeric claims decode as float64.
	c.Set("user_id", float64(17))
	id, ok := UserIDFromCtx(c)
	assert.True(t, ok)
	assert.Equal(t, uint64(17), id)
}
