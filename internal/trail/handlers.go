package trail

import (
	"errors"
	"strconv"

	"backend-trekhub/internal/auth"
	"backend-trekhub/internal/shared/validate"

	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	r.Post("/", authMiddleware, func(c *fiber.Ctx) error {
		var req CreateRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid payload")
		}
		t, err := svc.Create(c.Context(), auth.UserID(c), req)
		if err != nil {
			return fiber.NewError(errorStatus(err), err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(t)
	})

	r.Get("/", func(c *fiber.Ctx) error {
		lat, _ := strconv.ParseFloat(c.Query("lat"), 64)
		lng, _ := strconv.ParseFloat(c.Query("lng"), 64)
		radius, _ := strconv.ParseFloat(c.Query("radius_km"), 64)
		trails, err := svc.List(c.Context(), c.Query("category", CategoryPopular), NearbyQuery{Lat: lat, Lng: lng, RadiusKm: radius})
		if err != nil {
			return fiber.NewError(errorStatus(err), err.Error())
		}
		return c.JSON(trails)
	})

	r.Get("/featured", func(c *fiber.Ctx) error {
		t, err := svc.Featured(c.Context())
		if err != nil {
			return fiber.NewError(errorStatus(err), err.Error())
		}
		return c.JSON(t)
	})

	r.Get("/:id", func(c *fiber.Ctx) error {
		t, err := svc.Get(c.Context(), c.Params("id"))
		if err != nil {
			return fiber.NewError(errorStatus(err), err.Error())
		}
		return c.JSON(t)
	})

	r.Post("/:id/reviews", authMiddleware, func(c *fiber.Ctx) error {
		var req ReviewRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid payload")
		}
		review, err := svc.AddReview(c.Context(), auth.UserID(c), c.Params("id"), req)
		if err != nil {
			return fiber.NewError(errorStatus(err), err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(review)
	})

	r.Get("/:id/reviews", func(c *fiber.Ctx) error {
		reviews, err := svc.Reviews(c.Context(), c.Params("id"))
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(reviews)
	})
}

func errorStatus(err error) int {
	var fe *validate.FieldError
	switch {
	case errors.As(err, &fe), errors.Is(err, ErrUnknownCategory):
		return fiber.StatusBadRequest
	case errors.Is(err, ErrTrailNotFound):
		return fiber.StatusNotFound
	}
	return fiber.StatusInternalServerError
}
