package middleware

import (
    "context"
    "strconv"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/portfolio-blog/internal/model"
)

type accountKey struct{}

// WithAccount returns a copy of ctx carrying the authenticated account.
func WithAccount(ctx context.Context, a *model.Account) context.Context {
    return context.WithValue(ctx, accountKey{}, a)
}

// AccountFrom extracts the account attached by WithAccount.
func AccountFrom(ctx context.Context) (*model.Account, bool) {
    a, ok := ctx.Value(accountKey{}).(*model.Account)
    return a, ok && a != nil
}

// CurrentAccount returns the account attached to the request, or nil for
// anonymous requests.
func CurrentAccount(c echo.Context) *model.Account {
    a, _ := AccountFrom(c.Request().Context())
    return a
}

// attach binds a to the request context for downstream handlers.
func attach(c echo.Context, a *model.Account) {
    c.SetRequest(c.Request().WithContext(WithAccount(c.Request().Context(), a)))
}

// currentUserID is the rate limiter's view of the caller.
func currentUserID(c echo.Context) string {
    if a := CurrentAccount(c); a != nil {
        return strconv.FormatUint(a.ID, 10)
    }
    return "anon"
}
