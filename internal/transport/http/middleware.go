package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"assessment-service/internal/auth"
	"assessment-service/internal/domain"
)

const claimsKey = "claims"

// TokenParser verifies bearer tokens.
type TokenParser interface {
	Parse(token string) (auth.Claims, error)
}

// Authenticate verifies the bearer token and stores its claims on the context.
// Websocket clients cannot set headers, so a token query parameter is accepted too.
func Authenticate(parser TokenParser) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := bearerToken(c.Request())
			if raw == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "No token provided")
			}
			claims, err := parser.Parse(raw)
			switch {
			case errors.Is(err, auth.ErrMalformedClaims):
				return echo.NewHTTPError(http.StatusUnauthorized, "Malformed token payload")
			case err != nil:
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid token")
			}
			c.Set(claimsKey, claims)
			return next(c)
		}
	}
}

// Require rejects callers whose role may not perform action.
func Require(action domain.Action) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, ok := currentClaims(c)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "No token provided")
			}
			if !domain.CanAccess(claims.Role, action) {
				return echo.NewHTTPError(http.StatusForbidden, "Access denied")
			}
			return next(c)
		}
	}
}

func bearerToken(r *http.Request) string {
	if header := r.Header.Get(echo.HeaderAuthorization); header != "" {
		scheme, token, ok := strings.Cut(header, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
		return ""
	}
	return r.URL.Query().Get("token")
}

func currentClaims(c echo.Context) (auth.Claims, bool) {
	claims, ok := c.Get(claimsKey).(auth.Claims)
	return claims, ok
}

// caller returns the authenticated user's claims. Routes behind Authenticate always have them.
func caller(c echo.Context) auth.Claims {
	claims, _ := currentClaims(c)
	return claims
}

func author(c echo.Context) domain.Author {
	claims := caller(c)
	return domain.Author{UserID: claims.ID, Name: claims.Name}
}
