package handler

import (
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/portfolio-blog/internal/model"
    "github.com/iliyamo/portfolio-blog/internal/repository"
)

// ContactHandler serves the public contact form and its admin inbox.
type ContactHandler struct {
    Contacts *repository.ContactRepo
    Responder
}

func NewContactHandler(contacts *repository.ContactRepo, r Responder) *ContactHandler {
    return &ContactHandler{Contacts: contacts, Responder: r}
}

type contactReq struct {
    Name    string `json:"name" validate:"required,max=100"`
    Email   string `json:"email" validate:"required,email"`
    Subject string `json:"subject" validate:"max=200"`
    Message string `json:"message" validate:"required,max=5000"`
}

// Create handles POST /contacts.
func (h *ContactHandler) Create(c echo.Context) error {
    var req contactReq
    if err := bind(c, &req); err != nil {
        return h.fail(c, err)
    }
    ctx, cancel := withTimeout(c)
    defer cancel()

    ct := &model.Contact{
        Name:    strings.TrimSpace(req.Name),
        Email:   repository.NormalizeEmail(req.Email),
        Subject: strings.TrimSpace(req.Subject),
        Message: strings.TrimSpace(req.Message),
    }
    if err := h.Contacts.Create(ctx, ct); err != nil {
        return h.fail(c, err)
    }
    return c.JSON(http.StatusCreated, echo.Map{"message": "message received", "id": ct.ID})
}

// List handles GET /contacts (ADMIN).
func (h *ContactHandler) List(c echo.Context) error {
    ctx, cancel := withTimeout(c)
    defer cancel()

    contacts, err := h.Contacts.List(ctx)
    if err != nil {
        return h.fail(c, err)
    }
    return c.JSON(http.StatusOK, contacts)
}

// Get handles GET /contacts/:id (ADMIN).
func (h *ContactHandler) Get(c echo.Context) error {
    id, err := pathID(c, "id")
    if err != nil {
        return h.fail(c, err)
    }
    ctx, cancel := withTimeout(c)
    defer cancel()

    ct, err := h.Contacts.GetByID(ctx, id)
    if err != nil {
        return h.fail(c, err)
    }
    return c.JSON(http.StatusOK, ct)
}

// MarkRead handles PATCH /contacts/:id/read (ADMIN).
func (h *ContactHandler) MarkRead(c echo.Context) error {
    id, err := pathID(c, "id")
    if err != nil {
        return h.fail(c, err)
    }
    ctx, cancel := withTimeout(c)
    defer cancel()

    if err := h.Contacts.MarkRead(ctx, id); err != nil {
        return h.fail(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"message": "marked as read"})
}

// Delete handles DELETE /contacts/:id (ADMIN).
func (h *ContactHandler) Delete(c echo.Context) error {
    id, err := pathID(c, "id")
    if err != nil {
        return h.fail(c, err)
    }
    ctx, cancel := withTimeout(c)
    defer cancel()

    if err := h.Contacts.Delete(ctx, id); err != nil {
        return h.fail(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"message": "contact deleted"})
}
