package profile

import (
	"errors"

	"backend-trekhub/internal/auth"
	"backend-trekhub/internal/shared/validate"

	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	r.Get("/me", authMiddleware, func(c *fiber.Ctx) error {
		p, err := svc.Get(c.Context(), auth.UserID(c))
		if err != nil {
			return fiber.NewError(errorStatus(err), err.Error())
		}
		return c.JSON(p)
	})

	r.Put("/me", authMiddleware, func(c *fiber.Ctx) error {
		var req UpdateRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid payload")
		}
		u, err := svc.Update(c.Context(), auth.UserID(c), req)
		if err != nil {
			return fiber.NewError(errorStatus(err), err.Error())
		}
		return c.JSON(u)
	})
}

func errorStatus(err error) int {
	var fe *validate.FieldError
	switch {
	case errors.As(err, &fe), errors.Is(err, ErrInvalidBirthDate):
		return fiber.StatusBadRequest
	case errors.Is(err, ErrUserNotFound):
		return fiber.StatusNotFound
	}
	return fiber.StatusInternalServerError
}
