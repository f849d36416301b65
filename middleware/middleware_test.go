package middleware

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/krishkalaria12/snap-tiers/models"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const goodKey = "9944b09199c62bcf9418ad846dd0e4bbdfc6ee4b"

type fakeAuth struct{}

func (fakeAuth) Authenticate(_ context.Context, key string) (*models.User, error) {
	if key != goodKey {
		return nil, errors.New("unknown token")
	}
	return &models.User{ID: 4, Username: "alice"}, nil
}

func (fakeAuth) VerifyCredentials(_ context.Context, username, password string) (*models.User, error) {
	switch {
	case username == "admin" && password == "pw":
		return &models.User{ID: 1, Username: "admin", IsStaff: true}, nil
	case username == "alice" && password == "pw":
		return &models.User{ID: 4, Username: "alice"}, nil
	}
	return nil, errors.New("bad credentials")
}

func TestTokenFromHeader(t *testing.T) {
	tests := map[string]string{
		"Token " + goodKey:      goodKey,
		"Bearer " + goodKey:     goodKey,
		"token  " + goodKey:     goodKey,
		"Basic " + goodKey:      "",
		goodKey:                 "",
		"":                      "",
	}
	for header, want := range tests {
		assert.Equal(t, want, tokenFromHeader(header), header)
	}
}

func TestAuthMiddleware(t *testing.T) {
	app := fiber.New()
	app.Get("/me", AuthMiddleware(fakeAuth{}), func(c *fiber.Ctx) error {
		u, err := CheckUserLoggedIn(c)
		if err != nil {
			return err
		}
		return c.SendString(u.Username + ":" + SessionToken(c))
	})

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"no header", "", fiber.StatusUnauthorized},
		{"unknown token", "Token 0000000000000000000000000000000000000000", fiber.StatusUnauthorized},
		{"valid token", "Token " + goodKey, fiber.StatusOK},
		{"valid bearer", "Bearer " + goodKey, fiber.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)

			if tt.status == fiber.StatusOK {
				body, _ := io.ReadAll(resp.Body)
				assert.Equal(t, "alice:"+goodKey, string(body))
			}
		})
	}
}

func TestCheckUserLoggedInWithoutMiddleware(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		_, err := CheckUserLoggedIn(c)
		assert.ErrorIs(t, err, ErrNoUser)
		return c.SendStatus(fiber.StatusNoContent)
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
}

func TestStaffOnly(t *testing.T) {
	app := fiber.New()
	app.Get("/admin", StaffOnly(fakeAuth{}, zerolog.Nop()), func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})

	basic := func(user, pass string) string {
		return "Basic " + base64.StdEncoding.EncodeToString([]byte(user+":"+pass))
	}

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"anonymous", "", fiber.StatusUnauthorized},
		{"wrong password", basic("admin", "nope"), fiber.StatusUnauthorized},
		{"not staff", basic("alice", "pw"), fiber.StatusUnauthorized},
		{"staff", basic("admin", "pw"), fiber.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/admin", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}

func TestRequestLoggerOmitsTokens(t *testing.T) {
	var buf bytes.Buffer
	log := zerolog.New(&buf)

	app := fiber.New()
	app.Use(requestid.New(), RequestLogger(log))
	app.Get("/download/:image_id/:size/:token", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusUnauthorized).SendString("Unauthorized")
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/download/1/200/secret-token", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	line := buf.String()
	assert.Contains(t, line, `"status":401`)
	assert.Contains(t, line, `"route":"/download/:image_id/:size/:token"`)
	assert.Contains(t, line, `"request_id":"`)
	assert.NotContains(t, line, "secret-token")
}
