package router

import (
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/portfolio-blog/internal/middleware"
)

// RegisterContent registers posts, projects, comments and contacts.  Reads
// are public apart from the admin list-all views; writes need a session
// and the handlers apply the ownership policy.
func RegisterContent(e *echo.Echo, h Handlers, g Guards) {
    admin := []echo.MiddlewareFunc{g.auth(), middleware.RequireAdmin()}

    posts := e.Group("/posts")
    posts.GET("", h.Posts.ListPublished, g.Cache.Middleware("posts"))
    posts.GET("/all", h.Posts.ListAll, admin...)
    posts.GET("/slug/:slug", h.Posts.GetBySlug, g.optional())
    posts.GET("/:id", h.Posts.Get, g.optional())
    posts.POST("", h.Posts.Create, g.auth())
    posts.PUT("/:id", h.Posts.Update, g.auth())
    posts.DELETE("/:id", h.Posts.Delete, g.auth())
    posts.GET("/:id/comments", h.Comments.ListByPost, g.optional())
    posts.POST("/:id/comments", h.Comments.Create, g.auth())

    comments := e.Group("/comments")
    comments.GET("", h.Comments.ListAll, admin...)
    comments.PUT("/:id", h.Comments.Update, g.auth())
    comments.DELETE("/:id", h.Comments.Delete, g.auth())

    projects := e.Group("/projects")
    projects.GET("", h.Projects.List, g.Cache.Middleware("projects"))
    projects.GET("/all", h.Projects.ListAll, admin...)
    projects.GET("/:id", h.Projects.Get)
    projects.POST("", h.Projects.Create, g.auth())
    projects.PUT("/:id", h.Projects.Update, g.auth())
    projects.DELETE("/:id", h.Projects.Delete, g.auth())

    contacts := e.Group("/contacts")
    contacts.POST("", h.Contacts.Create, g.limit()...)
    contacts.GET("", h.Contacts.List, admin...)
    contacts.GET("/:id", h.Contacts.Get, admin...)
    contacts.PATCH("/:id/read", h.Contacts.MarkRead, admin...)
    contacts.DELETE("/:id", h.Contacts.Delete, admin...)
}
