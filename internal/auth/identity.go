package auth

import (
	"mess-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

const ctxIdentityKey = "identity"

// Identity is the verified principal of a request. Ledger mutations are
// scoped to Identity.UserID, never to an id from the request body.
type Identity struct {
	UserID uint
	Name   string
	Email  string
	Role   models.UserRole
}

func (i Identity) IsStudent() bool { return i.Role == models.RoleStudent }
func (i Identity) IsAdmin() bool   { return i.Role == models.RoleAdmin }

func setIdentity(c *fiber.Ctx, id Identity) {
	c.Locals(ctxIdentityKey, id)
}

// IdentityFrom returns the identity JWTMiddleware attached to the request.
func IdentityFrom(c *fiber.Ctx) (Identity, error) {
	id, ok := c.Locals(ctxIdentityKey).(Identity)
	if !ok || id.UserID == 0 {
		return Identity{}, fiber.NewError(fiber.StatusUnauthorized, "Access denied. No token provided.")
	}
	return id, nil
}
