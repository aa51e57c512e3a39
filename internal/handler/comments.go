package handler

import (
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/portfolio-blog/internal/middleware"
    "github.com/iliyamo/portfolio-blog/internal/model"
    "github.com/iliyamo/portfolio-blog/internal/policy"
    "github.com/iliyamo/portfolio-blog/internal/repository"
)

// CommentHandler serves post comments.  Comments on a draft behave as if
// the post did not exist for anyone who cannot see the draft.
type CommentHandler struct {
    Comments *repository.CommentRepo
    Posts    *repository.PostRepo
    Responder
}

func NewCommentHandler(comments *repository.CommentRepo, posts *repository.PostRepo, r Responder) *CommentHandler {
    return &CommentHandler{Comments: comments, Posts: posts, Responder: r}
}

type commentReq struct {
    Content string `json:"content" validate:"required,max=2000"`
}

// visiblePost loads the post addressed by :id and hides drafts.
func (h *CommentHandler) visiblePost(c echo.Context) (*model.Post, error) {
    id, err := pathID(c, "id")
    if err != nil {
        return nil, err
    }
    ctx, cancel := withTimeout(c)
    defer cancel()

    p, err := h.Posts.GetByID(ctx, id)
    if err != nil {
        return nil, err
    }
    if !p.Published && !policy.CanView(middleware.CurrentAccount(c), p.AuthorID) {
        return nil, repository.ErrNotFound
    }
    return p, nil
}

// ListByPost handles GET /posts/:id/comments.
func (h *CommentHandler) ListByPost(c echo.Context) error {
    p, err := h.visiblePost(c)
    if err != nil {
        return h.fail(c, err)
    }
    ctx, cancel := withTimeout(c)
    defer cancel()

    comments, err := h.Comments.ListByPost(ctx, p.ID)
    if err != nil {
        return h.fail(c, err)
    }
    return c.JSON(http.StatusOK, comments)
}

// ListAll handles GET /comments (ADMIN).
func (h *CommentHandler) ListAll(c echo.Context) error {
    ctx, cancel := withTimeout(c)
    defer cancel()

    comments, err := h.Comments.ListAll(ctx)
    if err != nil {
        return h.fail(c, err)
    }
    return c.JSON(http.StatusOK, comments)
}

// Create handles POST /posts/:id/comments.
func (h *CommentHandler) Create(c echo.Context) error {
    var req commentReq
    if err := bind(c, &req); err != nil {
        return h.fail(c, err)
    }
    p, err := h.visiblePost(c)
    if err != nil {
        return h.fail(c, err)
    }
    ctx, cancel := withTimeout(c)
    defer cancel()

    cm := &model.Comment{
        PostID:   p.ID,
        AuthorID: middleware.CurrentAccount(c).ID,
        Content:  strings.TrimSpace(req.Content),
    }
    if err := h.Comments.Create(ctx, cm); err != nil {
        return h.fail(c, err)
    }
    return c.JSON(http.StatusCreated, cm)
}

// Update handles PUT /comments/:id for the author or an administrator.
func (h *CommentHandler) Update(c echo.Context) error {
    id, err := pathID(c, "id")
    if err != nil {
        return h.fail(c, err)
    }
    var req commentReq
    if err := bind(c, &req); err != nil {
        return h.fail(c, err)
    }
    ctx, cancel := withTimeout(c)
    defer cancel()

    cm, err := h.Comments.GetByID(ctx, id)
    if err != nil {
        return h.fail(c, err)
    }
    if err := policy.CanModify(middleware.CurrentAccount(c), cm.AuthorID); err != nil {
        return h.fail(c, err)
    }
    if err := h.Comments.UpdateContent(ctx, id, strings.TrimSpace(req.Content)); err != nil {
        return h.fail(c, err)
    }
    updated, err := h.Comments.GetByID(ctx, id)
    if err != nil {
        return h.fail(c, err)
    }
    return c.JSON(http.StatusOK, updated)
}

// Delete handles DELETE /comments/:id for the author or an administrator.
func (h *CommentHandler) Delete(c echo.Context) error {
    id, err := pathID(c, "id")
    if err != nil {
        return h.fail(c, err)
    }
    ctx, cancel := withTimeout(c)
    defer cancel()

    cm, err := h.Comments.GetByID(ctx, id)
    if err != nil {
        return h.fail(c, err)
    }
    if err := policy.CanModify(middleware.CurrentAccount(c), cm.AuthorID); err != nil {
        return h.fail(c, err)
    }
    if err := h.Comments.Delete(ctx, id); err != nil {
        return h.fail(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"message": "comment deleted"})
}
