package handlers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/abhi-bochare/Payout-Automation-System/internal/models"
)

var errNoPrincipal = errors.New("no authenticated principal")

// parsePrincipal lifts the authenticated caller out of the request locals
// set by the auth middleware.
func parsePrincipal(c *fiber.Ctx) (models.Principal, error) {
	userIDStr, ok := c.Locals("user_id").(string)
	if !ok {
		return models.Principal{}, errNoPrincipal
	}
	role, ok := c.Locals("role").(string)
	if !ok {
		return models.Principal{}, errNoPrincipal
	}
	userID, err := strconv.ParseInt(userIDStr, 10, 64)
	if err != nil || userID <= 0 {
		return models.Principal{}, errNoPrincipal
	}
	return models.Principal{UserID: userID, Role: role}, nil
}
