package middleware

import (
    "net/http"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/portfolio-blog/internal/token"
)

// Cookie names carrying the session credential pair.
const (
    AccessCookie  = "accessToken"
    RefreshCookie = "refreshToken"
)

// CookieConfig controls the attributes of the auth cookies.  Secure is
// tied to the production switch.
type CookieConfig struct {
    Secure bool
    Domain string
}

func (cc CookieConfig) cookie(name, value string, expires time.Time, maxAge int) *http.Cookie {
    return &http.Cookie{
        Name:     name,
        Value:    value,
        Path:     "/",
        Domain:   cc.Domain,
        Expires:  expires,
        MaxAge:   maxAge,
        HttpOnly: true,
        Secure:   cc.Secure,
        SameSite: http.SameSiteStrictMode,
    }
}

func (cc CookieConfig) set(c echo.Context, name string, t token.Issued) {
    maxAge := int(time.Until(t.ExpiresAt).Seconds())
    if maxAge < 1 {
        maxAge = 1
    }
    c.SetCookie(cc.cookie(name, t.Token, t.ExpiresAt, maxAge))
}

// SetAccess writes the access token cookie.
func (cc CookieConfig) SetAccess(c echo.Context, t token.Issued) { cc.set(c, AccessCookie, t) }

// SetSession writes both cookies.
func (cc CookieConfig) SetSession(c echo.Context, access, refresh token.Issued) {
    cc.set(c, AccessCookie, access)
    cc.set(c, RefreshCookie, refresh)
}

// Clear expires both cookies on the client.
func (cc CookieConfig) Clear(c echo.Context) {
    c.SetCookie(cc.cookie(AccessCookie, "", time.Unix(0, 0), -1))
    c.SetCookie(cc.cookie(RefreshCookie, "", time.Unix(0, 0), -1))
}

// cookieValue returns the named cookie's value or "".
func cookieValue(c echo.Context, name string) string {
    ck, err := c.Cookie(name)
    if err != nil {
        return ""
    }
    return ck.Value
}

// RefreshToken returns the refresh cookie's value or "".
func RefreshToken(c echo.Context) string { return cookieValue(c, RefreshCookie) }
