package handler

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/krishkalaria12/snap-tiers/auth"
)

// Login exchanges a username and password for the user's session token.
// The body may be JSON or a form.
func (h *Handler) Login(c *fiber.Ctx) error {
	type LoginData struct {
		Username string `json:"username" form:"username"`
		Password string `json:"password" form:"password"`
	}

	input := new(LoginData)
	if err := c.BodyParser(input); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body")
	}

	input.Username = strings.TrimSpace(input.Username)
	if input.Username == "" || input.Password == "" {
		return errorResponse(c, fiber.StatusBadRequest, "Username and password are required")
	}

	key, _, err := h.auth.Login(c.UserContext(), input.Username, input.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		return errorResponse(c, fiber.StatusBadRequest, "Unable to log in with provided credentials")
	}
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"token": key})
}
