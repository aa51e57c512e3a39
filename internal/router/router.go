// Package router registers every HTTP route of the API on an echo instance.
package router

import (
    "github.com/labstack/echo/v4"
    "github.com/rs/zerolog"

    "github.com/iliyamo/portfolio-blog/internal/handler"
    "github.com/iliyamo/portfolio-blog/internal/metrics"
    "github.com/iliyamo/portfolio-blog/internal/middleware"
)

// Handlers groups the endpoint implementations.
type Handlers struct {
    Auth     *handler.AuthHandler
    Users    *handler.UserHandler
    Posts    *handler.PostHandler
    Projects *handler.ProjectHandler
    Comments *handler.CommentHandler
    Contacts *handler.ContactHandler
    OAuth    *handler.OAuthHandler
}

// Guards are the cross-cutting middlewares applied per route group.
type Guards struct {
    Accounts  middleware.Authenticator
    Cookies   middleware.CookieConfig
    Log       zerolog.Logger
    RateLimit echo.MiddlewareFunc // nil disables limiting
    Cache     *middleware.ResponseCache
}

func (g Guards) auth() echo.MiddlewareFunc {
    return middleware.Authenticate(g.Accounts, g.Cookies, g.Log)
}

func (g Guards) optional() echo.MiddlewareFunc {
    return middleware.OptionalAuthenticate(g.Accounts)
}

func (g Guards) limit() []echo.MiddlewareFunc {
    if g.RateLimit == nil {
        return nil
    }
    return []echo.MiddlewareFunc{g.RateLimit}
}

// RegisterRoutes registers the unauthenticated operational endpoints.
func RegisterRoutes(e *echo.Echo, m *metrics.Metrics) {
    e.GET("/healthz", handler.Health)
    if m != nil {
        e.GET("/metrics", echo.WrapHandler(m.Handler()))
    }
}

// RegisterAuth registers /auth: signup, login, refresh and logout need no
// session; profile, password and account deletion do.  The whole group is
// rate limited.
func RegisterAuth(e *echo.Echo, h Handlers, g Guards) {
    grp := e.Group("/auth", g.limit()...)
    grp.POST("/signup", h.Auth.Signup)
    grp.POST("/login", h.Auth.Login)
    grp.POST("/refresh-token", h.Auth.RefreshToken)
    grp.POST("/logout", h.Auth.Logout)

    grp.GET("/profile", h.Auth.Profile, g.auth())
    grp.PUT("/profile", h.Auth.UpdateProfile, g.auth())
    grp.PUT("/password", h.Auth.ChangePassword, g.auth())
    grp.DELETE("/delete-user", h.Auth.DeleteUser, g.auth(), middleware.RequireAdmin())

    if h.OAuth != nil {
        grp.GET("/oauth/:provider", h.OAuth.Begin)
        grp.GET("/oauth/:provider/callback", h.OAuth.Callback)
    }
}

// RegisterUsers registers the administrative /users group.
func RegisterUsers(e *echo.Echo, h Handlers, g Guards) {
    grp := e.Group("/users", g.auth(), middleware.RequireAdmin())
    grp.GET("", h.Users.List)
    grp.GET("/:userId", h.Users.Get)
    grp.PUT("/:userId/role", h.Users.ChangeRole)
    grp.POST("/:userId/block", h.Users.Block)
    grp.POST("/:userId/unblock", h.Users.Unblock)
}
