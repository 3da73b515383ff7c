package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/mlevchenko/studyhub/internal/models"
	"github.com/mlevchenko/studyhub/internal/tokens"
)

// BearerAuth guards routes with an access token from the Authorization
// header.
type BearerAuth struct {
	Codec *tokens.Codec
}

func NewBearerAuth(codec *tokens.Codec) *BearerAuth {
	return &BearerAuth{Codec: codec}
}

func (m *BearerAuth) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		raw, ok := strings.CutPrefix(c.Request().Header.Get(echo.HeaderAuthorization), "Bearer ")
		if !ok || raw == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "missing access token")
		}

		claims, err := m.Codec.Parse(raw, tokens.KindAccess)
		if err != nil {
			if errors.Is(err, tokens.ErrWrongKind) {
				return echo.NewHTTPError(http.StatusBadRequest, "invalid token type")
			}
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token")
		}

		// A role outside the closed set means the token was not minted by
		// this service's login path.
		role, err := models.ParseRole(claims.Role)
		if err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token")
		}

		c.Set("user_id", claims.Subject)
		c.Set("role", string(role))
		return next(c)
	}
}

// RequireRole gates a route on the role the access token was issued with.
func (m *BearerAuth) RequireRole(role models.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			got, _ := c.Get("role").(string)
			if got != string(role) {
				return echo.NewHTTPError(http.StatusForbidden, "not enough rights")
			}
			return next(c)
		}
	}
}

// UserID extracts the authenticated user's id set by RequireAuth.
func UserID(c echo.Context) (uuid.UUID, error) {
	sub, _ := c.Get("user_id").(string)
	id, err := uuid.Parse(sub)
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token")
	}
	return id, nil
}
