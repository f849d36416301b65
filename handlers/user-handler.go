package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/krishkalaria12/snap-tiers/catalog"
	"github.com/krishkalaria12/snap-tiers/middleware"
	"github.com/krishkalaria12/snap-tiers/models"
)

type UserResponse struct {
	ID       uint    `json:"id"`
	Username string  `json:"username"`
	Plan     *string `json:"plan"`
}

func userResponse(u *models.User) UserResponse {
	resp := UserResponse{ID: u.ID, Username: u.Username}
	if u.Plan != nil {
		name := u.Plan.Name
		resp.Plan = &name
	}
	return resp
}

func (h *Handler) Me(c *fiber.Ctx) error {
	user, err := middleware.CheckUserLoggedIn(c)
	if err != nil {
		return errorResponse(c, fiber.StatusUnauthorized, "Authentication required")
	}
	return c.JSON(userResponse(user))
}

// SetUserPlan assigns a plan by name; an empty name removes the plan.
func (h *Handler) SetUserPlan(c *fiber.Ctx) error {
	type SetPlanRequest struct {
		Plan string `json:"plan" form:"plan"`
	}

	id, ok := idParam(c, "id")
	if !ok {
		return errorResponse(c, fiber.StatusBadRequest, "User ID is required")
	}

	var input SetPlanRequest
	if err := c.BodyParser(&input); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid input")
	}

	user, err := h.catalog.AssignPlan(c.UserContext(), id, input.Plan)
	switch {
	case errors.Is(err, catalog.ErrPlanNotFound):
		return errorResponse(c, fiber.StatusBadRequest, "Unknown plan")
	case errors.Is(err, catalog.ErrUserNotFound):
		return errorResponse(c, fiber.StatusNotFound, "User not found")
	case err != nil:
		return err
	}

	return c.JSON(userResponse(user))
}
