package presenter

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/artem13815/hr-optimizer/pkg/apperr"
)

type ErrorResponse struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

func JSON(c *fiber.Ctx, status int, v any) error {
	return c.Status(status).JSON(v)
}

func Error(c *fiber.Ctx, status int, message string) error {
	return JSON(c, status, ErrorResponse{Message: message})
}

// AppError renders a typed error with the status its code maps to.
// Untyped errors become FATAL_ERROR and their text is not leaked to the client.
func AppError(c *fiber.Ctx, err error) error {
	e := apperr.From(err)
	status := e.StatusCode()
	resp := ErrorResponse{Message: e.Message, Code: string(e.Code), Details: e.Details}
	if e.Code == apperr.CodeFatal {
		slog.ErrorContext(c.UserContext(), "request failed", "path", c.Path(), "error", err)
		resp.Details = ""
	}
	return JSON(c, status, resp)
}
