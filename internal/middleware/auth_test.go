package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mlevchenko/studyhub/internal/models"
	"github.com/mlevchenko/studyhub/internal/tokens"
)

func newAuthContext(authorization string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authorization != "" {
		req.Header.Set(echo.HeaderAuthorization, authorization)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func okHandler(c echo.Context) error { return c.NoContent(http.StatusOK) }

func TestRequireAuth(t *testing.T) {
	t.Parallel()

	codec := tokens.NewCodec([]byte("test-jwt-secret"))
	mw := NewBearerAuth(codec)
	userID := uuid.NewString()

	access, err := codec.SignAccess(userID, "AUTHOR", time.Now().UTC())
	require.NoError(t, err)
	refresh, err := codec.SignRefresh(userID, time.Now().UTC())
	require.NoError(t, err)
	expired, err := codec.SignAccess(userID, "AUTHOR", time.Now().UTC().Add(-2*time.Hour))
	require.NoError(t, err)

	t.Run("missing header", func(t *testing.T) {
		c, _ := newAuthContext("")
		err := mw.RequireAuth(okHandler)(c)
		he, ok := err.(*echo.HTTPError)
		require.True(t, ok)
		assert.Equal(t, http.StatusUnauthorized, he.Code)
	})

	t.Run("valid access token", func(t *testing.T) {
		c, rec := newAuthContext("Bearer " + access)
		require.NoError(t, mw.RequireAuth(okHandler)(c))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, userID, c.Get("user_id"))
		assert.Equal(t, "AUTHOR", c.Get("role"))

		id, err := UserID(c)
		require.NoError(t, err)
		assert.Equal(t, userID, id.String())
	})

	t.Run("refresh token rejected as misuse", func(t *testing.T) {
		c, _ := newAuthContext("Bearer " + refresh)
		err := mw.RequireAuth(okHandler)(c)
		he, ok := err.(*echo.HTTPError)
		require.True(t, ok)
		assert.Equal(t, http.StatusBadRequest, he.Code)
	})

	t.Run("expired token", func(t *testing.T) {
		c, _ := newAuthContext("Bearer " + expired)
		err := mw.RequireAuth(okHandler)(c)
		he, ok := err.(*echo.HTTPError)
		require.True(t, ok)
		assert.Equal(t, http.StatusUnauthorized, he.Code)
	})

	t.Run("garbage token", func(t *testing.T) {
		c, _ := newAuthContext("Bearer garbage")
		err := mw.RequireAuth(okHandler)(c)
		he, ok := err.(*echo.HTTPError)
		require.True(t, ok)
		assert.Equal(t, http.StatusUnauthorized, he.Code)
	})
}

func TestRequireRole(t *testing.T) {
	t.Parallel()

	codec := tokens.NewCodec([]byte("test-jwt-secret"))
	mw := NewBearerAuth(codec)

	admin, err := codec.SignAccess(uuid.NewString(), string(models.RoleAdmin), time.Now().UTC())
	require.NoError(t, err)
	learner, err := codec.SignAccess(uuid.NewString(), string(models.RoleLearner), time.Now().UTC())
	require.NoError(t, err)

	guarded := mw.RequireAuth(mw.RequireRole(models.RoleAdmin)(okHandler))

	c, rec := newAuthContext("Bearer " + admin)
	require.NoError(t, guarded(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	c, _ = newAuthContext("Bearer " + learner)
	err = guarded(c)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	assert.Equal(t, http.StatusForbidden, he.Code)
}
