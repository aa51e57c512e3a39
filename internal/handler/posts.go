package handler

import (
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/portfolio-blog/internal/middleware"
    "github.com/iliyamo/portfolio-blog/internal/model"
    "github.com/iliyamo/portfolio-blog/internal/policy"
    "github.com/iliyamo/portfolio-blog/internal/repository"
    "github.com/iliyamo/portfolio-blog/internal/utils"
)

// cacheGroupPosts is the response cache group of the public post list.
const cacheGroupPosts = "posts"

// PostHandler serves /posts.  Drafts are visible only to their author and
// administrators; a draft requested by anybody else is reported as absent.
type PostHandler struct {
    Posts *repository.PostRepo
    Cache *middleware.ResponseCache
    Responder
}

func NewPostHandler(posts *repository.PostRepo, cache *middleware.ResponseCache, r Responder) *PostHandler {
    return &PostHandler{Posts: posts, Cache: cache, Responder: r}
}

type postReq struct {
    Title     string `json:"title" validate:"required,max=200"`
    Summary   string `json:"summary" validate:"max=500"`
    Content   string `json:"content" validate:"required"`
    CoverURL  string `json:"cover_url" validate:"omitempty,url"`
    Published bool   `json:"published"`
}

// slugFor derives the slug of a title; titles without letters or digits
// fall back to "post".
func slugFor(title string) string {
    if s := utils.Slugify(title); s != "" {
        return s
    }
    return "post"
}

// ListPublished handles GET /posts.
func (h *PostHandler) ListPublished(c echo.Context) error {
    ctx, cancel := withTimeout(c)
    defer cancel()

    posts, err := h.Posts.ListPublished(ctx)
    if err != nil {
        return h.fail(c, err)
    }
    return c.JSON(http.StatusOK, posts)
}

// ListAll handles GET /posts/all (ADMIN), drafts included.
func (h *PostHandler) ListAll(c echo.Context) error {
    ctx, cancel := withTimeout(c)
    defer cancel()

    posts, err := h.Posts.ListAll(ctx)
    if err != nil {
        return h.fail(c, err)
    }
    return c.JSON(http.StatusOK, posts)
}

// Get handles GET /posts/:id.
func (h *PostHandler) Get(c echo.Context) error {
    id, err := pathID(c, "id")
    if err != nil {
        return h.fail(c, err)
    }
    ctx, cancel := withTimeout(c)
    defer cancel()

    p, err := h.Posts.GetByID(ctx, id)
    if err != nil {
        return h.fail(c, err)
    }
    return h.visible(c, p)
}

// GetBySlug handles GET /posts/slug/:slug.
func (h *PostHandler) GetBySlug(c echo.Context) error {
    slug := strings.ToLower(strings.TrimSpace(c.Param("slug")))
    if slug == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "slug is required"})
    }
    ctx, cancel := withTimeout(c)
    defer cancel()

    p, err := h.Posts.GetBySlug(ctx, slug)
    if err != nil {
        return h.fail(c, err)
    }
    return h.visible(c, p)
}

func (h *PostHandler) visible(c echo.Context, p *model.Post) error {
    if !p.Published && !policy.CanView(middleware.CurrentAccount(c), p.AuthorID) {
        return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
    }
    return c.JSON(http.StatusOK, p)
}

// Create handles POST /posts.  The caller becomes the author.
func (h *PostHandler) Create(c echo.Context) error {
    me := middleware.CurrentAccount(c)
    var req postReq
    if err := bind(c, &req); err != nil {
        return h.fail(c, err)
    }
    ctx, cancel := withTimeout(c)
    defer cancel()

    p := &model.Post{
        AuthorID:  me.ID,
        Title:     strings.TrimSpace(req.Title),
        Slug:      slugFor(req.Title),
        Summary:   strings.TrimSpace(req.Summary),
        Content:   req.Content,
        CoverURL:  strings.TrimSpace(req.CoverURL),
        Published: req.Published,
    }
    if err := h.Posts.Create(ctx, p); err != nil {
        return h.fail(c, err)
    }
    h.Cache.Invalidate(ctx, cacheGroupPosts)
    return c.JSON(http.StatusCreated, p)
}

// Update handles PUT /posts/:id for the author or an administrator.  The
// slug follows the new title.
func (h *PostHandler) Update(c echo.Context) error {
    id, err := pathID(c, "id")
    if err != nil {
        return h.fail(c, err)
    }
    var req postReq
    if err := bind(c, &req); err != nil {
        return h.fail(c, err)
    }
    ctx, cancel := withTimeout(c)
    defer cancel()

    p, err := h.Posts.GetByID(ctx, id)
    if err != nil {
        return h.fail(c, err)
    }
    if err := policy.CanModify(middleware.CurrentAccount(c), p.AuthorID); err != nil {
        return h.fail(c, err)
    }
    p.Title = strings.TrimSpace(req.Title)
    p.Slug = slugFor(req.Title)
    p.Summary = strings.TrimSpace(req.Summary)
    p.Content = req.Content
    p.CoverURL = strings.TrimSpace(req.CoverURL)
    p.Published = req.Published
    if err := h.Posts.Update(ctx, p); err != nil {
        return h.fail(c, err)
    }
    updated, err := h.Posts.GetByID(ctx, id)
    if err != nil {
        return h.fail(c, err)
    }
    h.Cache.Invalidate(ctx, cacheGroupPosts)
    return c.JSON(http.StatusOK, updated)
}

// Delete handles DELETE /posts/:id for the author or an administrator.
func (h *PostHandler) Delete(c echo.Context) error {
    id, err := pathID(c, "id")
    if err != nil {
        return h.fail(c, err)
    }
    ctx, cancel := withTimeout(c)
    defer cancel()

    p, err := h.Posts.GetByID(ctx, id)
    if err != nil {
        return h.fail(c, err)
    }
    if err := policy.CanModify(middleware.CurrentAccount(c), p.AuthorID); err != nil {
        return h.fail(c, err)
    }
    if err := h.Posts.Delete(ctx, id); err != nil {
        return h.fail(c, err)
    }
    h.Cache.Invalidate(ctx, cacheGroupPosts)
    return c.JSON(http.StatusOK, echo.Map{"message": "post deleted"})
}
