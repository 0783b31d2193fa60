package storage

import (
	"io"

	"backend-trekhub/internal/auth"

	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler, maxBytes int) {
	r.Post("/gpx", authMiddleware, func(c *fiber.Ctx) error {
		fh, err := c.FormFile("file")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "file required")
		}
		if !IsGPXName(fh.Filename) {
			return fiber.NewError(fiber.StatusBadRequest, ErrNotGPX.Error())
		}
		if maxBytes > 0 && fh.Size > int64(maxBytes) {
			return fiber.NewError(fiber.StatusRequestEntityTooLarge, "file too large")
		}

		f, err := fh.Open()
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		defer f.Close()
		content, err := io.ReadAll(f)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		obj, err := svc.SaveGPX(c.Context(), auth.UserID(c), fh.Filename, content)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(obj)
	})

	r.Get("/:id", authMiddleware, func(c *fiber.Ctx) error {
		obj, err := svc.Get(c.Context(), c.Params("id"))
		if err != nil {
			return fiber.NewError(fiber.StatusNotFound, "object not found")
		}
		if obj.UserID != auth.UserID(c) {
			return fiber.NewError(fiber.StatusForbidden, "not your object")
		}
		content, err := svc.Read(obj)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		c.Attachment(obj.Name)
		c.Set(fiber.HeaderContentType, "application/gpx+xml")
		return c.Send(content)
	})
}
