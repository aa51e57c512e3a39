package handler

import (
    "errors"
    "net/http"
    "net/url"
    "strings"
    "time"

    "github.com/google/uuid"
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/portfolio-blog/internal/account"
    "github.com/iliyamo/portfolio-blog/internal/apperr"
    "github.com/iliyamo/portfolio-blog/internal/oauth"
)

// stateCookie holds the anti-forgery state of an OAuth round trip.
const stateCookie = "oauthState"

const stateTTL = 10 * time.Minute

// OAuthHandler runs the authorization code flow against the registered
// providers and finishes with the same session cookies as a password
// login.  Outcomes are reported to the frontend through a redirect.
type OAuthHandler struct {
    Accounts    *account.Service
    Providers   *oauth.Registry
    FrontendURL string
    Responder
}

func NewOAuthHandler(accounts *account.Service, providers *oauth.Registry, frontendURL string, r Responder) *OAuthHandler {
    return &OAuthHandler{Accounts: accounts, Providers: providers, FrontendURL: frontendURL, Responder: r}
}

func (h *OAuthHandler) provider(c echo.Context) (oauth.Provider, bool) {
    return h.Providers.Get(strings.ToLower(c.Param("provider")))
}

// Begin handles GET /auth/oauth/:provider.
func (h *OAuthHandler) Begin(c echo.Context) error {
    p, ok := h.provider(c)
    if !ok {
        return c.JSON(http.StatusNotFound, echo.Map{"error": "unknown provider"})
    }
    state := uuid.NewString()
    c.SetCookie(&http.Cookie{
        Name:     stateCookie,
        Value:    state,
        Path:     "/auth/oauth",
        MaxAge:   int(stateTTL.Seconds()),
        HttpOnly: true,
        Secure:   h.Cookies.Secure,
        // the provider redirects back cross-site, so Strict would drop it
        SameSite: http.SameSiteLaxMode,
    })
    return c.Redirect(http.StatusFound, p.AuthCodeURL(state))
}

// Callback handles GET /auth/oauth/:provider/callback.
func (h *OAuthHandler) Callback(c echo.Context) error {
    p, ok := h.provider(c)
    if !ok {
        return c.JSON(http.StatusNotFound, echo.Map{"error": "unknown provider"})
    }
    expected, err := c.Cookie(stateCookie)
    c.SetCookie(&http.Cookie{Name: stateCookie, Path: "/auth/oauth", MaxAge: -1, HttpOnly: true, Secure: h.Cookies.Secure})
    if err != nil || expected.Value == "" || expected.Value != c.QueryParam("state") {
        return h.back(c, "invalid_state")
    }
    if c.QueryParam("error") != "" || c.QueryParam("code") == "" {
        return h.back(c, "access_denied")
    }

    ctx, cancel := withTimeout(c)
    defer cancel()

    tok, err := p.Exchange(ctx, c.QueryParam("code"))
    if err != nil {
        h.Log.Warn().Err(err).Str("provider", p.Name()).Msg("oauth code exchange failed")
        return h.back(c, "exchange_failed")
    }
    info, err := p.FetchUser(ctx, tok)
    if err != nil {
        h.Log.Warn().Err(err).Str("provider", p.Name()).Msg("oauth user info failed")
        return h.back(c, "profile_failed")
    }

    sess, err := h.Accounts.LoginFederated(ctx, account.Identity{
        Provider:    p.Name(),
        Subject:     info.Subject,
        Email:       info.Email,
        DisplayName: info.Name,
    })
    var blocked *apperr.BlockedError
    switch {
    case errors.As(err, &blocked):
        h.Cookies.Clear(c)
        return h.back(c, "blocked")
    case err != nil:
        h.Log.Error().Err(err).Str("provider", p.Name()).Msg("federated login failed")
        return h.back(c, "login_failed")
    }
    h.Cookies.SetSession(c, sess.Access, sess.Refresh)
    return h.back(c, "")
}

// back redirects to the frontend, with ?error=<code> on failure.
func (h *OAuthHandler) back(c echo.Context, code string) error {
    target := h.FrontendURL
    if code != "" {
        u, err := url.Parse(h.FrontendURL)
        if err == nil {
            q := u.Query()
            q.Set("error", code)
            u.RawQuery = q.Encode()
            target = u.String()
        }
    }
    return c.Redirect(http.StatusFound, target)
}
