package handler

import (
    "context"
    "errors"
    "fmt"
    "net/http"
    "strconv"
    "strings"
    "time"

    "github.com/go-playground/validator/v10"
    "github.com/labstack/echo/v4"
    "github.com/rs/zerolog"

    "github.com/iliyamo/portfolio-blog/internal/apperr"
    "github.com/iliyamo/portfolio-blog/internal/middleware"
    "github.com/iliyamo/portfolio-blog/internal/repository"
    "github.com/iliyamo/portfolio-blog/internal/token"
)

// requestTimeout bounds every store round-trip made by a handler.
const requestTimeout = 5 * time.Second

// Responder turns service and store errors into HTTP responses.  Outside
// production a 500 carries the underlying message in "detail".
type Responder struct {
    Production bool
    Cookies    middleware.CookieConfig
    Log        zerolog.Logger
}

func (r Responder) fail(c echo.Context, err error) error {
    var (
        blocked *apperr.BlockedError
        invalid validator.ValidationErrors
    )
    switch {
    case errors.As(err, &blocked):
        return middleware.RespondBlocked(c, r.Cookies, blocked)
    case errors.As(err, &invalid):
        return c.JSON(http.StatusBadRequest, echo.Map{"error": validationMessage(invalid)})
    case errors.Is(err, token.ErrTokenExpired):
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "token expired"})
    case errors.Is(err, token.ErrInvalidToken):
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
    case errors.Is(err, apperr.ErrValidation):
        return c.JSON(http.StatusBadRequest, echo.Map{"error": message(err, apperr.ErrValidation)})
    case errors.Is(err, apperr.ErrUnauthorized):
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": message(err, apperr.ErrUnauthorized)})
    case errors.Is(err, apperr.ErrForbidden):
        return c.JSON(http.StatusForbidden, echo.Map{"error": message(err, apperr.ErrForbidden)})
    case errors.Is(err, apperr.ErrNotFound), errors.Is(err, repository.ErrNotFound):
        return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
    case errors.Is(err, apperr.ErrConflict), errors.Is(err, repository.ErrDuplicate):
        return c.JSON(http.StatusBadRequest, echo.Map{"error": message(err, apperr.ErrConflict)})
    }

    r.Log.Error().Err(err).Str("method", c.Request().Method).Str("path", c.Path()).Msg("request failed")
    body := echo.Map{"error": "internal server error"}
    if !r.Production {
        body["detail"] = err.Error()
    }
    return c.JSON(http.StatusInternalServerError, body)
}

// message strips the sentinel prefix added by fmt.Errorf("%w: ...").
func message(err, sentinel error) string {
    msg := err.Error()
    if rest, ok := strings.CutPrefix(msg, sentinel.Error()+": "); ok {
        return rest
    }
    return msg
}

func validationMessage(errs validator.ValidationErrors) string {
    parts := make([]string, 0, len(errs))
    for _, fe := range errs {
        parts = append(parts, fe.Field()+" is "+describeTag(fe))
    }
    return strings.Join(parts, "; ")
}

func describeTag(fe validator.FieldError) string {
    switch fe.Tag() {
    case "required":
        return "required"
    case "email":
        return "not a valid email"
    case "min":
        return "shorter than " + fe.Param()
    case "max":
        return "longer than " + fe.Param()
    case "gt":
        return "not greater than " + fe.Param()
    case "url":
        return "not a valid url"
    case "oneof":
        return "not one of " + fe.Param()
    }
    return "invalid (" + fe.Tag() + ")"
}

// bind decodes and validates the request body.
func bind(c echo.Context, v any) error {
    if err := c.Bind(v); err != nil {
        return invalidInput("invalid request body")
    }
    return c.Validate(v)
}

func invalidInput(msg string) error {
    return fmt.Errorf("%w: %s", apperr.ErrValidation, msg)
}

// pathID parses a numeric path parameter.
func pathID(c echo.Context, name string) (uint64, error) {
    id, err := strconv.ParseUint(c.Param(name), 10, 64)
    if err != nil || id == 0 {
        return 0, invalidInput("invalid " + name)
    }
    return id, nil
}

func withTimeout(c echo.Context) (context.Context, context.CancelFunc) {
    return context.WithTimeout(c.Request().Context(), requestTimeout)
}
