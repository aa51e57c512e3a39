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

const cacheGroupProjects = "projects"

// ProjectHandler serves /projects.
type ProjectHandler struct {
    Projects *repository.ProjectRepo
    Cache    *middleware.ResponseCache
    Responder
}

func NewProjectHandler(projects *repository.ProjectRepo, cache *middleware.ResponseCache, r Responder) *ProjectHandler {
    return &ProjectHandler{Projects: projects, Cache: cache, Responder: r}
}

type projectReq struct {
    Title       string `json:"title" validate:"required,max=200"`
    Description string `json:"description" validate:"required"`
    TechStack   string `json:"tech_stack" validate:"max=255"`
    RepoURL     string `json:"repo_url" validate:"omitempty,url"`
    DemoURL     string `json:"demo_url" validate:"omitempty,url"`
    ImageURL    string `json:"image_url" validate:"omitempty,url"`
}

func (req projectReq) apply(p *model.Project) {
    p.Title = strings.TrimSpace(req.Title)
    p.Description = req.Description
    p.TechStack = strings.TrimSpace(req.TechStack)
    p.RepoURL = strings.TrimSpace(req.RepoURL)
    p.DemoURL = strings.TrimSpace(req.DemoURL)
    p.ImageURL = strings.TrimSpace(req.ImageURL)
}

// List handles GET /projects.  ?owner=<id> narrows to one account.
func (h *ProjectHandler) List(c echo.Context) error {
    var owner uint64
    if c.QueryParam("owner") != "" {
        if err := echo.QueryParamsBinder(c).Uint64("owner", &owner).BindError(); err != nil {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid owner"})
        }
    }
    return h.list(c, owner)
}

// ListAll handles GET /projects/all (ADMIN).
func (h *ProjectHandler) ListAll(c echo.Context) error {
    return h.list(c, 0)
}

func (h *ProjectHandler) list(c echo.Context, owner uint64) error {
    ctx, cancel := withTimeout(c)
    defer cancel()

    projects, err := h.Projects.List(ctx, owner)
    if err != nil {
        return h.fail(c, err)
    }
    return c.JSON(http.StatusOK, projects)
}

// Get handles GET /projects/:id.
func (h *ProjectHandler) Get(c echo.Context) error {
    id, err := pathID(c, "id")
    if err != nil {
        return h.fail(c, err)
    }
    ctx, cancel := withTimeout(c)
    defer cancel()

    p, err := h.Projects.GetByID(ctx, id)
    if err != nil {
        return h.fail(c, err)
    }
    return c.JSON(http.StatusOK, p)
}

// Create handles POST /projects.
func (h *ProjectHandler) Create(c echo.Context) error {
    var req projectReq
    if err := bind(c, &req); err != nil {
        return h.fail(c, err)
    }
    ctx, cancel := withTimeout(c)
    defer cancel()

    p := &model.Project{OwnerID: middleware.CurrentAccount(c).ID}
    req.apply(p)
    if err := h.Projects.Create(ctx, p); err != nil {
        return h.fail(c, err)
    }
    h.Cache.Invalidate(ctx, cacheGroupProjects)
    return c.JSON(http.StatusCreated, p)
}

// Update handles PUT /projects/:id for the owner or an administrator.
func (h *ProjectHandler) Update(c echo.Context) error {
    id, err := pathID(c, "id")
    if err != nil {
        return h.fail(c, err)
    }
    var req projectReq
    if err := bind(c, &req); err != nil {
        return h.fail(c, err)
    }
    ctx, cancel := withTimeout(c)
    defer cancel()

    p, err := h.Projects.GetByID(ctx, id)
    if err != nil {
        return h.fail(c, err)
    }
    if err := policy.CanModify(middleware.CurrentAccount(c), p.OwnerID); err != nil {
        return h.fail(c, err)
    }
    req.apply(p)
    if err := h.Projects.Update(ctx, p); err != nil {
        return h.fail(c, err)
    }
    updated, err := h.Projects.GetByID(ctx, id)
    if err != nil {
        return h.fail(c, err)
    }
    h.Cache.Invalidate(ctx, cacheGroupProjects)
    return c.JSON(http.StatusOK, updated)
}

// Delete handles DELETE /projects/:id for the owner or an administrator.
func (h *ProjectHandler) Delete(c echo.Context) error {
    id, err := pathID(c, "id")
    if err != nil {
        return h.fail(c, err)
    }
    ctx, cancel := withTimeout(c)
    defer cancel()

    p, err := h.Projects.GetByID(ctx, id)
    if err != nil {
        return h.fail(c, err)
    }
    if err := policy.CanModify(middleware.CurrentAccount(c), p.OwnerID); err != nil {
        return h.fail(c, err)
    }
    if err := h.Projects.Delete(ctx, id); err != nil {
        return h.fail(c, err)
    }
    h.Cache.Invalidate(ctx, cacheGroupProjects)
    return c.JSON(http.StatusOK, echo.Map{"message": "project deleted"})
}
