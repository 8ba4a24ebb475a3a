package echoapi

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/annourmah/etudia/core"
)

// jwtAuthMiddleware guards a route group behind a Bearer token issued by
// GenerateToken. The parsed token is stored in the context for handlers.
func jwtAuthMiddleware(conf *core.Config) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			auth := ctx.Request().Header.Get(echo.HeaderAuthorization)
			raw, ok := strings.CutPrefix(auth, "Bearer ")
			if !ok || raw == "" {
				return errJWTMissing
			}

			token, err := parseToken(conf, raw)
			if err != nil || !token.Valid {
				return errUnauthorized
			}

			ctx.Set(contextTokenKey, token)
			return next(ctx)
		}
	}
}
