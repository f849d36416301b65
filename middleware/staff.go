package middleware

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/basicauth"
	"github.com/krishkalaria12/snap-tiers/models"
	"github.com/rs/zerolog"
)

// CredentialVerifier checks a username and password. *auth.Service
// satisfies it.
type CredentialVerifier interface {
	VerifyCredentials(ctx context.Context, username, password string) (*models.User, error)
}

// StaffOnly guards administrative routes with HTTP Basic auth; only staff
// accounts get through.
func StaffOnly(v CredentialVerifier, log zerolog.Logger) fiber.Handler {
	return basicauth.New(basicauth.Config{
		Realm: "snap-tiers admin",
		Authorizer: func(username, password string) bool {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			user, err := v.VerifyCredentials(ctx, username, password)
			if err != nil {
				log.Debug().Err(err).Str("username", username).Msg("admin login rejected")
				return false
			}
			if !user.IsStaff {
				log.Info().Uint("user_id", user.ID).Msg("admin access denied to non-staff user")
				return false
			}
			return true
		},
		Unauthorized: func(c *fiber.Ctx) error {
			c.Set(fiber.HeaderWWWAuthenticate, `basic realm="snap-tiers admin"`)
			return unauthorized(c, "Staff credentials required")
		},
	})
}
