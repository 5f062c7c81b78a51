package middleware

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	authpkg "github.com/eventra/dashboard/api/internal/auth"
)

var errMissingBearer = errors.New("missing bearer token")

// Authenticate validates bearer tokens and stores user metadata in the request context.
//
// With required=false a missing or invalid token is logged as a warning and the
// request continues anonymously. Handlers then fall back to a userId in the body.
func Authenticate(manager *authpkg.JWTManager, required bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, err := bearerClaims(manager, c.Request().Header.Get("Authorization"))
			if err != nil {
				if required {
					message := "invalid token"
					if errors.Is(err, errMissingBearer) {
						message = "missing authorization header"
					}
					return reject(c, http.StatusUnauthorized, message)
				}
				log.Printf("level=warn msg=\"unauthenticated request allowed\" request_id=%s path=%s err=%q",
					RequestIDFromContext(c), c.Request().URL.Path, err)
				return next(c)
			}

			c.Set(ContextKeyUserID, claims.Subject)
			c.Set(ContextKeyUserEmail, claims.Email)
			c.Set(ContextKeyUserRole, claims.Role)

			return next(c)
		}
	}
}

func bearerClaims(manager *authpkg.JWTManager, header string) (*authpkg.Claims, error) {
	if header == "" {
		return nil, errMissingBearer
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return nil, errors.New("invalid authorization header")
	}
	return manager.ParseToken(strings.TrimSpace(parts[1]))
}
