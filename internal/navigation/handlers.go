package navigation

import (
	"errors"

	"backend-trekhub/internal/auth"
	"backend-trekhub/internal/route"
	"backend-trekhub/internal/shared/geo"

	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	r.Post("/sessions", authMiddleware, func(c *fiber.Ctx) error {
		var req StartRequest
		if len(c.Body()) > 0 {
			if err := c.BodyParser(&req); err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "invalid payload")
			}
		}

		var v View
		var err error
		if len(req.Points) > 0 {
			v, err = svc.Start(c.Context(), auth.UserID(c), req.Name, req.Points)
		} else {
			v, err = svc.StartFromDraft(c.Context(), auth.UserID(c))
		}
		if err != nil {
			return fiber.NewError(errorStatus(err), err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(v)
	})

	r.Get("/sessions/:id", authMiddleware, func(c *fiber.Ctx) error {
		v, err := svc.Current(c.Context(), auth.UserID(c), c.Params("id"))
		if err != nil {
			return fiber.NewError(errorStatus(err), err.Error())
		}
		return c.JSON(v)
	})

	r.Post("/sessions/:id/advance", authMiddleware, func(c *fiber.Ctx) error {
		v, err := svc.Advance(c.Context(), auth.UserID(c), c.Params("id"))
		if err != nil {
			return fiber.NewError(errorStatus(err), err.Error())
		}
		return c.JSON(v)
	})

	r.Post("/sessions/:id/position", authMiddleware, func(c *fiber.Ctx) error {
		var req PositionRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid payload")
		}
		v, err := svc.ReportPosition(c.Context(), auth.UserID(c), c.Params("id"), geo.Point{Lat: req.Lat, Lng: req.Lng})
		if err != nil {
			return fiber.NewError(errorStatus(err), err.Error())
		}
		return c.JSON(v)
	})

	r.Delete("/sessions/:id", authMiddleware, func(c *fiber.Ctx) error {
		v, err := svc.Stop(c.Context(), auth.UserID(c), c.Params("id"))
		if err != nil {
			return fiber.NewError(errorStatus(err), err.Error())
		}
		return c.JSON(v)
	})
}

func errorStatus(err error) int {
	switch {
	case errors.Is(err, ErrRouteTooShort), errors.Is(err, route.ErrInvalidPoint):
		return fiber.StatusBadRequest
	case errors.Is(err, ErrNotOwner):
		return fiber.StatusForbidden
	case errors.Is(err, ErrSessionNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, ErrSessionEnded):
		return fiber.StatusConflict
	}
	return fiber.StatusInternalServerError
}
