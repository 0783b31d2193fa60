package stream

import (
	"context"

	"backend-trekhub/internal/auth"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// Authorizer reports whether a user may listen to a session's updates.
type Authorizer func(ctx context.Context, userID, sessionID string) error

func RegisterRoutes(r fiber.Router, hub *Hub, authMiddleware fiber.Handler, authorize Authorizer) {
	r.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	r.Get("/ws/:sessionID", authMiddleware, func(c *fiber.Ctx) error {
		if err := authorize(c.Context(), auth.UserID(c), c.Params("sessionID")); err != nil {
			return fiber.NewError(fiber.StatusForbidden, "not allowed to follow this session")
		}
		return c.Next()
	}, websocket.New(func(c *websocket.Conn) {
		sessionID := c.Params("sessionID")
		client := hub.Register(sessionID)
		defer hub.Unregister(client)

		done := make(chan struct{})
		go func() {
			defer close(done)
			for msg := range client.Send {
				if err := c.WriteMessage(websocket.TextMessage, msg); err != nil {
					return
				}
			}
		}()

		for {
			if _, _, err := c.ReadMessage(); err != nil {
				break
			}
		}
		hub.Unregister(client)
		<-done
	}))
}
