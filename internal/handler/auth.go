package handler

import (
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/portfolio-blog/internal/account"
    "github.com/iliyamo/portfolio-blog/internal/middleware"
)

// AuthHandler serves the /auth endpoints: signup, credential login,
// refresh, logout and the caller's own profile.
type AuthHandler struct {
    Accounts *account.Service
    Responder
}

func NewAuthHandler(accounts *account.Service, r Responder) *AuthHandler {
    return &AuthHandler{Accounts: accounts, Responder: r}
}

type signupReq struct {
    Username string `json:"username" validate:"required,max=50"`
    Email    string `json:"email" validate:"required,email"`
    Password string `json:"password" validate:"required"`
    FullName string `json:"full_name" validate:"required,max=100"`
    Phone    string `json:"phone" validate:"max=30"`
    RoleID   *uint8 `json:"role_id"`
}

type loginReq struct {
    Email    string `json:"email" validate:"required"`
    Password string `json:"password" validate:"required"`
}

type profileReq struct {
    FullName string `json:"full_name" validate:"required,max=100"`
    Phone    string `json:"phone" validate:"max=30"`
}

type passwordReq struct {
    CurrentPassword string `json:"current_password"`
    NewPassword     string `json:"new_password" validate:"required"`
}

type deleteUserReq struct {
    UserID uint64 `json:"userId"`
}

// Signup handles POST /auth/signup.
func (h *AuthHandler) Signup(c echo.Context) error {
    var req signupReq
    if err := bind(c, &req); err != nil {
        return h.fail(c, err)
    }
    ctx, cancel := withTimeout(c)
    defer cancel()

    a, err := h.Accounts.Register(ctx, account.RegisterInput{
        Username: req.Username,
        Email:    req.Email,
        Password: req.Password,
        FullName: req.FullName,
        Phone:    req.Phone,
        RoleID:   req.RoleID,
    })
    if err != nil {
        return h.fail(c, err)
    }
    return c.JSON(http.StatusCreated, echo.Map{"message": "user registered", "user": a.Public()})
}

// Login handles POST /auth/login and sets both cookies.
func (h *AuthHandler) Login(c echo.Context) error {
    var req loginReq
    if err := bind(c, &req); err != nil {
        return h.fail(c, err)
    }
    ctx, cancel := withTimeout(c)
    defer cancel()

    sess, err := h.Accounts.Login(ctx, req.Email, req.Password)
    if err != nil {
        return h.fail(c, err)
    }
    h.Cookies.SetSession(c, sess.Access, sess.Refresh)
    return c.JSON(http.StatusOK, echo.Map{
        "message": "login successful",
        "user":    sess.Account.Public(),
        "role":    sess.Account.Role.Name,
    })
}

// RefreshToken handles POST /auth/refresh-token.  Only the access cookie
// is replaced.
func (h *AuthHandler) RefreshToken(c echo.Context) error {
    ctx, cancel := withTimeout(c)
    defer cancel()

    access, err := h.Accounts.Refresh(ctx, middleware.RefreshToken(c))
    if err != nil {
        return h.fail(c, err)
    }
    h.Cookies.SetAccess(c, access)
    return c.JSON(http.StatusOK, echo.Map{"message": "access token refreshed", "expires_at": access.ExpiresAt})
}

// Logout handles POST /auth/logout.  It always succeeds.
func (h *AuthHandler) Logout(c echo.Context) error {
    ctx, cancel := withTimeout(c)
    defer cancel()

    h.Accounts.Logout(ctx, middleware.RefreshToken(c))
    h.Cookies.Clear(c)
    return c.JSON(http.StatusOK, echo.Map{"message": "logged out"})
}

// Profile handles GET /auth/profile.
func (h *AuthHandler) Profile(c echo.Context) error {
    me := middleware.CurrentAccount(c)
    ctx, cancel := withTimeout(c)
    defer cancel()

    a, err := h.Accounts.Profile(ctx, me.ID)
    if err != nil {
        return h.fail(c, err)
    }
    return c.JSON(http.StatusOK, a.Public())
}

// UpdateProfile handles PUT /auth/profile.
func (h *AuthHandler) UpdateProfile(c echo.Context) error {
    me := middleware.CurrentAccount(c)
    var req profileReq
    if err := bind(c, &req); err != nil {
        return h.fail(c, err)
    }
    ctx, cancel := withTimeout(c)
    defer cancel()

    a, err := h.Accounts.UpdateProfile(ctx, me.ID, req.FullName, req.Phone)
    if err != nil {
        return h.fail(c, err)
    }
    return c.JSON(http.StatusOK, a.Public())
}

// ChangePassword handles PUT /auth/password.
func (h *AuthHandler) ChangePassword(c echo.Context) error {
    me := middleware.CurrentAccount(c)
    var req passwordReq
    if err := bind(c, &req); err != nil {
        return h.fail(c, err)
    }
    ctx, cancel := withTimeout(c)
    defer cancel()

    if err := h.Accounts.ChangePassword(ctx, me.ID, req.CurrentPassword, req.NewPassword); err != nil {
        return h.fail(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"message": "password updated"})
}

// DeleteUser handles DELETE /auth/delete-user (ADMIN).  The target id
// travels in the body as userId.
func (h *AuthHandler) DeleteUser(c echo.Context) error {
    var req deleteUserReq
    if err := c.Bind(&req); err != nil || req.UserID == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "userId is required"})
    }
    ctx, cancel := withTimeout(c)
    defer cancel()

    if err := h.Accounts.Delete(ctx, middleware.CurrentAccount(c), req.UserID); err != nil {
        return h.fail(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"message": "user deleted"})
}
