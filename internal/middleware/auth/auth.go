package auth

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/trackboard/trackboard/internal/models"
	"github.com/trackboard/trackboard/internal/service"
)

const (
	userContextKey   = "user"
	scopesContextKey = "scopes"
)

// Guard authenticates requests and enforces per-route permission sets.
type Guard struct {
	Svc *service.AuthService
}

func NewGuard(svc *service.AuthService) *Guard {
	return &Guard{Svc: svc}
}

// RequireAuth resolves the bearer access token into a live user record.
// Missing, malformed and expired tokens all answer 401.
func (g *Guard) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		tokenStr := bearerToken(c)
		if tokenStr == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "missing access token")
		}

		user, err := g.Svc.ResolveIdentity(c.Request().Context(), tokenStr)
		if err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token")
		}

		c.Set(userContextKey, user)
		c.Set(scopesContextKey, service.ScopeNames(user))
		return next(c)
	}
}

// RequirePermissions grants access when the caller holds at least one of
// the required permissions (any-of, not all-of). Runs after RequireAuth.
func (g *Guard) RequirePermissions(required ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if len(required) == 0 {
				return next(c)
			}
			if UserFromContext(c) == nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing access token")
			}

			held := ScopesFromContext(c)
			for _, want := range required {
				for _, have := range held {
					if want == have {
						return next(c)
					}
				}
			}
			return echo.NewHTTPError(http.StatusForbidden, "insufficient permissions")
		}
	}
}

// UserFromContext returns the user attached by RequireAuth, or nil.
func UserFromContext(c echo.Context) *models.User {
	if u, ok := c.Get(userContextKey).(*models.User); ok {
		return u
	}
	return nil
}

func ScopesFromContext(c echo.Context) []string {
	if s, ok := c.Get(scopesContextKey).([]string); ok {
		return s
	}
	return nil
}

func bearerToken(c echo.Context) string {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	if header == "" {
		return ""
	}
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}
