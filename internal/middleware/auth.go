package middleware

import (
    "context"
    "errors"
    "net/http"

    "github.com/labstack/echo/v4"
    "github.com/rs/zerolog"

    "github.com/iliyamo/portfolio-blog/internal/apperr"
    "github.com/iliyamo/portfolio-blog/internal/model"
    "github.com/iliyamo/portfolio-blog/internal/token"
)

// Authenticator resolves an access token to a current, unblocked account.
// *account.Service implements it.
type Authenticator interface {
    Authenticate(ctx context.Context, rawAccess string) (*model.Account, error)
}

// Authenticate rejects requests without a valid access cookie.  On success
// the account (with its role) is attached to the request context.  A
// blocked account gets both cookies cleared and a forceLogout signal.
func Authenticate(auth Authenticator, cookies CookieConfig, log zerolog.Logger) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            raw := cookieValue(c, AccessCookie)
            if raw == "" {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
            }
            a, err := auth.Authenticate(c.Request().Context(), raw)
            if err != nil {
                return RespondAuthError(c, cookies, log, err)
            }
            attach(c, a)
            return next(c)
        }
    }
}

// OptionalAuthenticate attaches the account when a valid access cookie is
// present and otherwise lets the request through anonymously.
func OptionalAuthenticate(auth Authenticator) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            if raw := cookieValue(c, AccessCookie); raw != "" {
                if a, err := auth.Authenticate(c.Request().Context(), raw); err == nil {
                    attach(c, a)
                }
            }
            return next(c)
        }
    }
}

// RequireAdmin allows only ADMIN accounts.  It must run after
// Authenticate.
func RequireAdmin() echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            a := CurrentAccount(c)
            if a == nil {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
            }
            if !a.IsAdmin() {
                return c.JSON(http.StatusForbidden, echo.Map{"error": "admin role required"})
            }
            return next(c)
        }
    }
}

// RespondAuthError writes the response for an authentication failure.
// Token problems only ever say "token expired" or "invalid token".
func RespondAuthError(c echo.Context, cookies CookieConfig, log zerolog.Logger, err error) error {
    var blocked *apperr.BlockedError
    switch {
    case errors.As(err, &blocked):
        return RespondBlocked(c, cookies, blocked)
    case errors.Is(err, token.ErrTokenExpired):
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "token expired"})
    case errors.Is(err, apperr.ErrUnauthorized):
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
    }
    log.Error().Err(err).Str("path", c.Path()).Msg("authentication failed")
    return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal server error"})
}

// RespondBlocked clears both cookies and tells the client to log out.
func RespondBlocked(c echo.Context, cookies CookieConfig, blocked *apperr.BlockedError) error {
    cookies.Clear(c)
    return c.JSON(http.StatusForbidden, echo.Map{
        "error":         "account blocked",
        "forceLogout":   true,
        "blocked_until": blocked.Until,
    })
}
