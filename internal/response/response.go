package response

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

// Error codes returned in the "code" field of every error body.
const (
	CodeAuth       = "AUTH_ERROR"
	CodeForbidden  = "FORBIDDEN_ERROR"
	CodeValidation = "VALIDATION_ERROR"
	CodeNotFound   = "NOT_FOUND_ERROR"
	CodeRateLimit  = "RATE_LIMIT_ERROR"
	CodeConflict   = "CONFLICT_ERROR"
	CodeServer     = "SERVER_ERROR"
)

type ErrorBody struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	Timestamp string `json:"timestamp"`
}

func Error(c *fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(ErrorBody{
		Error:     message,
		Code:      code,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// CodeForStatus picks the taxonomy code for a bare HTTP status.
func CodeForStatus(status int) string {
	switch status {
	case fiber.StatusUnauthorized:
		return CodeAuth
	case fiber.StatusForbidden:
		return CodeForbidden
	case fiber.StatusBadRequest, fiber.StatusUnprocessableEntity:
		return CodeValidation
	case fiber.StatusNotFound:
		return CodeNotFound
	case fiber.StatusTooManyRequests:
		return CodeRateLimit
	case fiber.StatusConflict:
		return CodeConflict
	}
	return CodeServer
}
