package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/krishkalaria12/snap-tiers/models"
)

const (
	localUser  = "user"
	localToken = "token"
)

var ErrNoUser = errors.New("middleware: no authenticated user")

// Authenticator resolves a session token to its user. *auth.Service
// satisfies it.
type Authenticator interface {
	Authenticate(ctx context.Context, key string) (*models.User, error)
}

// AuthMiddleware requires an "Authorization: Token <key>" (or Bearer)
// header and stores the resolved user in the request locals.
func AuthMiddleware(a Authenticator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		key := tokenFromHeader(c.Get(fiber.HeaderAuthorization))
		if key == "" {
			return unauthorized(c, "Authentication credentials were not provided")
		}

		user, err := a.Authenticate(c.UserContext(), key)
		if err != nil {
			return unauthorized(c, "Invalid token")
		}

		c.Locals(localUser, user)
		c.Locals(localToken, key)
		return c.Next()
	}
}

// CheckUserLoggedIn returns the user stored by AuthMiddleware.
func CheckUserLoggedIn(c *fiber.Ctx) (*models.User, error) {
	user, ok := c.Locals(localUser).(*models.User)
	if !ok || user == nil {
		return nil, ErrNoUser
	}
	return user, nil
}

// SessionToken returns the key the request authenticated with.
func SessionToken(c *fiber.Ctx) string {
	key, _ := c.Locals(localToken).(string)
	return key
}

func tokenFromHeader(header string) string {
	scheme, key, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok {
		return ""
	}
	if !strings.EqualFold(scheme, "Token") && !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(key)
}

func unauthorized(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"status":  "error",
		"message": message,
		"data":    nil,
	})
}
