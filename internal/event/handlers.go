package event

import (
	"errors"

	"backend-trekhub/internal/auth"
	"backend-trekhub/internal/route"
	"backend-trekhub/internal/shared/validate"

	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	r.Post("/", authMiddleware, func(c *fiber.Ctx) error {
		var req CreateRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid payload")
		}
		ev, err := svc.Create(c.Context(), auth.UserID(c), req)
		if err != nil {
			return fiber.NewError(errorStatus(err), err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(ev)
	})

	r.Get("/", func(c *fiber.Ctx) error {
		events, err := svc.List(c.Context(), Filter{
			Difficulty: c.Query("difficulty"),
			Query:      c.Query("q"),
		})
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(events)
	})

	r.Get("/:id", func(c *fiber.Ctx) error {
		ev, err := svc.Get(c.Context(), c.Params("id"))
		if err != nil {
			return fiber.NewError(errorStatus(err), err.Error())
		}
		return c.JSON(ev)
	})

	r.Get("/:id/gpx", func(c *fiber.Ctx) error {
		ev, err := svc.Get(c.Context(), c.Params("id"))
		if err != nil {
			return fiber.NewError(errorStatus(err), err.Error())
		}
		c.Attachment(route.FileName(ev.Title))
		c.Set(fiber.HeaderContentType, "application/gpx+xml")
		return c.SendString(ev.GPXContent)
	})

	r.Post("/:id/join", authMiddleware, func(c *fiber.Ctx) error {
		p, err := svc.Join(c.Context(), auth.UserID(c), c.Params("id"))
		if err != nil {
			return fiber.NewError(errorStatus(err), err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(p)
	})

	r.Delete("/:id/join", authMiddleware, func(c *fiber.Ctx) error {
		if err := svc.Leave(c.Context(), auth.UserID(c), c.Params("id")); err != nil {
			return fiber.NewError(errorStatus(err), err.Error())
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	r.Get("/:id/participants", func(c *fiber.Ctx) error {
		participants, err := svc.Participants(c.Context(), c.Params("id"))
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(participants)
	})

	r.Post("/:id/cancel", authMiddleware, func(c *fiber.Ctx) error {
		ev, err := svc.Cancel(c.Context(), auth.UserID(c), c.Params("id"))
		if err != nil {
			return fiber.NewError(errorStatus(err), err.Error())
		}
		return c.JSON(ev)
	})
}

func errorStatus(err error) int {
	var fe *validate.FieldError
	switch {
	case errors.As(err, &fe), errors.Is(err, ErrRouteTooShort), errors.Is(err, route.ErrInvalidPoint):
		return fiber.StatusBadRequest
	case errors.Is(err, ErrNotCreator):
		return fiber.StatusForbidden
	case errors.Is(err, ErrEventNotFound), errors.Is(err, ErrNotParticipant):
		return fiber.StatusNotFound
	case errors.Is(err, ErrEventFull), errors.Is(err, ErrAlreadyJoined), errors.Is(err, ErrEventCancelled):
		return fiber.StatusConflict
	}
	return fiber.StatusInternalServerError
}
