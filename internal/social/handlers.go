package social

import (
	"errors"

	"backend-trekhub/internal/auth"
	"backend-trekhub/internal/shared/validate"

	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	r.Use(authMiddleware)

	r.Post("/posts", func(c *fiber.Ctx) error {
		var req PostRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid payload")
		}
		post, err := svc.CreatePost(c.Context(), auth.UserID(c), req)
		if err != nil {
			return fiber.NewError(errorStatus(err), err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(post)
	})

	r.Get("/posts", func(c *fiber.Ctx) error {
		posts, err := svc.Recent(c.Context(), auth.UserID(c))
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(posts)
	})

	r.Get("/feed", func(c *fiber.Ctx) error {
		posts, err := svc.Feed(c.Context(), auth.UserID(c))
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(posts)
	})

	r.Post("/posts/:id/like", func(c *fiber.Ctx) error {
		state, err := svc.ToggleLike(c.Context(), auth.UserID(c), c.Params("id"))
		if err != nil {
			return fiber.NewError(errorStatus(err), err.Error())
		}
		return c.JSON(state)
	})

	r.Post("/posts/:id/comments", func(c *fiber.Ctx) error {
		var req CommentRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid payload")
		}
		comment, err := svc.AddComment(c.Context(), auth.UserID(c), c.Params("id"), req)
		if err != nil {
			return fiber.NewError(errorStatus(err), err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(comment)
	})

	r.Get("/posts/:id/comments", func(c *fiber.Ctx) error {
		comments, err := svc.Comments(c.Context(), c.Params("id"))
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(comments)
	})

	r.Post("/follow/:userID", func(c *fiber.Ctx) error {
		if err := svc.Follow(c.Context(), auth.UserID(c), c.Params("userID")); err != nil {
			return fiber.NewError(errorStatus(err), err.Error())
		}
		return c.SendStatus(fiber.StatusCreated)
	})

	r.Delete("/follow/:userID", func(c *fiber.Ctx) error {
		if err := svc.Unfollow(c.Context(), auth.UserID(c), c.Params("userID")); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.SendStatus(fiber.StatusNoContent)
	})
}

func errorStatus(err error) int {
	var fe *validate.FieldError
	switch {
	case errors.As(err, &fe), errors.Is(err, ErrSelfFollow):
		return fiber.StatusBadRequest
	case errors.Is(err, ErrPostNotFound), errors.Is(err, ErrUserNotFound):
		return fiber.StatusNotFound
	}
	return fiber.StatusInternalServerError
}
