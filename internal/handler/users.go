package handler

import (
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/portfolio-blog/internal/account"
    "github.com/iliyamo/portfolio-blog/internal/middleware"
    "github.com/iliyamo/portfolio-blog/internal/model"
)

// UserHandler serves the administrative /users endpoints.  Every route is
// mounted behind Authenticate and RequireAdmin.
type UserHandler struct {
    Accounts *account.Service
    Responder
}

func NewUserHandler(accounts *account.Service, r Responder) *UserHandler {
    return &UserHandler{Accounts: accounts, Responder: r}
}

type blockReq struct {
    BlockDuration float64 `json:"blockDuration"`
}

type roleReq struct {
    Role string `json:"role" validate:"required"`
}

// List handles GET /users.
func (h *UserHandler) List(c echo.Context) error {
    ctx, cancel := withTimeout(c)
    defer cancel()

    accounts, err := h.Accounts.List(ctx)
    if err != nil {
        return h.fail(c, err)
    }
    out := make([]model.PublicAccount, 0, len(accounts))
    for _, a := range accounts {
        out = append(out, a.Public())
    }
    return c.JSON(http.StatusOK, out)
}

// Get handles GET /users/:userId.
func (h *UserHandler) Get(c echo.Context) error {
    id, err := pathID(c, "userId")
    if err != nil {
        return h.fail(c, err)
    }
    ctx, cancel := withTimeout(c)
    defer cancel()

    a, err := h.Accounts.Get(ctx, id)
    if err != nil {
        return h.fail(c, err)
    }
    return c.JSON(http.StatusOK, a.Public())
}

// ChangeRole handles PUT /users/:userId/role.
func (h *UserHandler) ChangeRole(c echo.Context) error {
    id, err := pathID(c, "userId")
    if err != nil {
        return h.fail(c, err)
    }
    var req roleReq
    if err := bind(c, &req); err != nil {
        return h.fail(c, err)
    }
    ctx, cancel := withTimeout(c)
    defer cancel()

    a, err := h.Accounts.ChangeRole(ctx, id, model.RoleName(strings.ToUpper(strings.TrimSpace(req.Role))))
    if err != nil {
        return h.fail(c, err)
    }
    return c.JSON(http.StatusOK, a.Public())
}

// Block handles POST /users/:userId/block.  blockDuration is in hours.
func (h *UserHandler) Block(c echo.Context) error {
    id, err := pathID(c, "userId")
    if err != nil {
        return h.fail(c, err)
    }
    var req blockReq
    if err := c.Bind(&req); err != nil || req.BlockDuration <= 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "blockDuration must be a positive number of hours"})
    }
    ctx, cancel := withTimeout(c)
    defer cancel()

    until, err := h.Accounts.Block(ctx, middleware.CurrentAccount(c), id, req.BlockDuration)
    if err != nil {
        return h.fail(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"message": "user blocked", "blocked_until": until})
}

// Unblock handles POST /users/:userId/unblock.
func (h *UserHandler) Unblock(c echo.Context) error {
    id, err := pathID(c, "userId")
    if err != nil {
        return h.fail(c, err)
    }
    ctx, cancel := withTimeout(c)
    defer cancel()

    if err := h.Accounts.Unblock(ctx, middleware.CurrentAccount(c), id); err != nil {
        return h.fail(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"message": "user unblocked"})
}
