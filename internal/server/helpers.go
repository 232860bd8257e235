package server

import (
	"errors"
	"strings"
	"unicode"

	"quill/internal/access"
	"quill/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// errResponseWritten is a sentinel indicating the HTTP response was already
// committed by a helper. Handlers must return nil (not this error) to avoid
// Fiber's ErrorHandler overwriting the response.
var errResponseWritten = errors.New("response already written")

// parseID extracts a route parameter by name as a uuid string.
// On failure it writes a 400 JSON response and returns errResponseWritten.
// Callers should check: if err != nil { return nil }
func parseID(c *fiber.Ctx, param string) (string, error) {
	id, err := uuid.Parse(c.Params(param))
	if err != nil {
		_ = models.RespondWithError(c, models.NewValidationError("Invalid "+humanizeParam(param)))
		return "", errResponseWritten
	}
	return id.String(), nil
}

// humanizeParam converts a route param name into a human-readable label.
// Examples: "id" -> "ID", "authorId" -> "author ID".
func humanizeParam(param string) string {
	if param == "id" {
		return "ID"
	}
	if strings.HasSuffix(param, "Id") {
		words := splitCamel(param[:len(param)-2])
		return strings.ToLower(strings.Join(words, " ")) + " ID"
	}
	return param
}

func splitCamel(s string) []string {
	var words []string
	start := 0
	for i, r := range s {
		if i > 0 && unicode.IsUpper(r) {
			words = append(words, s[start:i])
			start = i
		}
	}
	return append(words, s[start:])
}

// caller returns the identity the guard attached to the request. Routes
// reaching it without a guard get an UNAUTHENTICATED response.
func caller(c *fiber.Ctx) (models.Identity, error) {
	id, ok := access.IdentityFrom(c.UserContext())
	if !ok {
		_ = models.RespondWithError(c, models.NewUnauthenticatedError("You are not authorized"))
		return models.Identity{}, errResponseWritten
	}
	return id, nil
}

// bindJSON parses the request body into dst, writing a 400 on failure.
func bindJSON(c *fiber.Ctx, dst any) error {
	if err := c.BodyParser(dst); err != nil {
		_ = models.RespondWithError(c, models.NewValidationError("Invalid request body"))
		return errResponseWritten
	}
	return nil
}

func respond(c *fiber.Ctx, status int, message string, data any) error {
	return c.Status(status).JSON(models.Envelope{
		Success: true,
		Message: message,
		Data:    data,
	})
}
