package middleware

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
)

// APIKey requires a bearer token whose bcrypt hash matches keyHash. An empty
// keyHash disables the check.
func APIKey(keyHash string) fiber.Handler {
	hash := []byte(strings.TrimSpace(keyHash))
	return func(c *fiber.Ctx) error {
		if len(hash) == 0 {
			return c.Next()
		}
		authz := c.Get(fiber.HeaderAuthorization)
		if !strings.HasPrefix(strings.ToLower(authz), "bearer ") {
			return fiber.NewError(http.StatusUnauthorized, "missing bearer token")
		}
		token := strings.TrimSpace(authz[len("Bearer "):])
		if err := bcrypt.CompareHashAndPassword(hash, []byte(token)); err != nil {
			return fiber.NewError(http.StatusUnauthorized, "invalid api key")
		}
		return c.Next()
	}
}
