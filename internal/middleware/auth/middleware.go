package authmw

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/pedidosapp/pedidos/internal/tokens"
)

// Middleware authenticates requests from the accessToken cookie and puts
// user_id and role into the echo context.
type Middleware struct {
	JWTSecret []byte
}

func New(secret []byte) *Middleware {
	return &Middleware{JWTSecret: secret}
}

func (m *Middleware) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return m.withValidator(next, nil)
}

// RequireEmployee gates the staff console.
func (m *Middleware) RequireEmployee(next echo.HandlerFunc) echo.HandlerFunc {
	return m.withValidator(next, func(claims *tokens.AccessClaims) error {
		if claims.Role != tokens.RoleEmployee {
			return echo.NewHTTPError(http.StatusForbidden, "employee access required")
		}
		return nil
	})
}

func (m *Middleware) withValidator(next echo.HandlerFunc, validate func(*tokens.AccessClaims) error) echo.HandlerFunc {
	return func(c echo.Context) error {
		cookie, err := c.Cookie("accessToken")
		if err != nil || cookie.Value == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "missing access token")
		}

		claims, err := tokens.AccessClaimsFromToken(cookie.Value, m.JWTSecret)
		if err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid access token")
		}

		if validate != nil {
			if err := validate(claims); err != nil {
				return err
			}
		}

		c.Set("user_id", claims.Subject)
		c.Set("role", claims.Role)
		return next(c)
	}
}
