package route

import (
	"errors"

	"backend-trekhub/internal/auth"
	"backend-trekhub/internal/shared/geo"

	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler, maxBytes int) {
	r.Get("/draft", authMiddleware, func(c *fiber.Ctx) error {
		draft, err := svc.Draft(c.Context(), auth.UserID(c))
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(draft)
	})

	r.Get("/draft/summary", authMiddleware, func(c *fiber.Ctx) error {
		sum, err := svc.Summary(c.Context(), auth.UserID(c))
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(sum)
	})

	r.Put("/draft/drawing", authMiddleware, func(c *fiber.Ctx) error {
		var req DrawingRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid payload")
		}
		draft, err := svc.SetDrawing(c.Context(), auth.UserID(c), req.Drawing)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(draft)
	})

	r.Post("/draft/points", authMiddleware, func(c *fiber.Ctx) error {
		var req PointRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid payload")
		}
		draft, added, err := svc.Tap(c.Context(), auth.UserID(c), geo.Point{Lat: req.Lat, Lng: req.Lng})
		if err != nil {
			return fiber.NewError(errorStatus(err), err.Error())
		}
		if !added {
			return fiber.NewError(fiber.StatusConflict, "drawing mode is off")
		}
		return c.Status(fiber.StatusCreated).JSON(draft)
	})

	r.Delete("/draft/points/last", authMiddleware, func(c *fiber.Ctx) error {
		draft, err := svc.RemoveLast(c.Context(), auth.UserID(c))
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(draft)
	})

	r.Delete("/draft", authMiddleware, func(c *fiber.Ctx) error {
		if err := svc.Clear(c.Context(), auth.UserID(c)); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	r.Post("/draft/gpx", authMiddleware, func(c *fiber.Ctx) error {
		fh, err := c.FormFile("file")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "file required")
		}
		if maxBytes > 0 && fh.Size > int64(maxBytes) {
			return fiber.NewError(fiber.StatusRequestEntityTooLarge, "file too large")
		}
		f, err := fh.Open()
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		defer f.Close()

		draft, err := svc.ImportGPX(c.Context(), auth.UserID(c), fh.Filename, f)
		if err != nil {
			return fiber.NewError(errorStatus(err), err.Error())
		}
		return c.JSON(draft)
	})

	r.Post("/draft/sample", authMiddleware, func(c *fiber.Ctx) error {
		draft, err := svc.LoadSample(c.Context(), auth.UserID(c))
		if err != nil {
			return fiber.NewError(errorStatus(err), err.Error())
		}
		return c.JSON(draft)
	})

	r.Get("/draft/gpx", authMiddleware, func(c *fiber.Ctx) error {
		name, content, err := svc.ExportGPX(c.Context(), auth.UserID(c))
		if err != nil {
			return fiber.NewError(errorStatus(err), err.Error())
		}
		c.Attachment(name)
		c.Set(fiber.HeaderContentType, "application/gpx+xml")
		return c.Send(content)
	})

	r.Post("/draft/export", authMiddleware, func(c *fiber.Ctx) error {
		obj, err := svc.SaveExport(c.Context(), auth.UserID(c))
		if err != nil {
			return fiber.NewError(errorStatus(err), err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(obj)
	})

	r.Post("/analyze", func(c *fiber.Ctx) error {
		var req AnalyzeRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid payload")
		}
		for _, p := range req.Points {
			if !p.Point().Valid() {
				return fiber.NewError(fiber.StatusBadRequest, ErrInvalidPoint.Error())
			}
		}
		return c.JSON(svc.Analyze(req.Points))
	})
}

func errorStatus(err error) int {
	switch {
	case errors.Is(err, ErrInvalidPoint), errors.Is(err, ErrUnsupportedFile), errors.Is(err, ErrEmptyRoute):
		return fiber.StatusBadRequest
	case errors.Is(err, ErrNoPoints):
		return fiber.StatusUnprocessableEntity
	}
	return fiber.StatusInternalServerError
}
