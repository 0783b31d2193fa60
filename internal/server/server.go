package server

import (
	"errors"
	"time"

	"backend-trekhub/internal/auth"
	"backend-trekhub/internal/cache"
	"backend-trekhub/internal/config"
	"backend-trekhub/internal/db"
	"backend-trekhub/internal/event"
	"backend-trekhub/internal/navigation"
	"backend-trekhub/internal/profile"
	"backend-trekhub/internal/route"
	"backend-trekhub/internal/social"
	"backend-trekhub/internal/storage"
	"backend-trekhub/internal/stream"
	"backend-trekhub/internal/trail"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

type Server struct {
	App    *fiber.App
	Cfg    config.Config
	DB     *pgxpool.Pool
	Redis  *redis.Client
	Stream *stream.Hub
	Log    logrus.FieldLogger
}

func NewServer(cfg config.Config, pool *pgxpool.Pool, redisClient *redis.Client, log logrus.FieldLogger) *Server {
	app := fiber.New(fiber.Config{
		BodyLimit:    bodyLimit(cfg),
		ErrorHandler: errorHandler(log),
	})
	app.Use(recover.New())
	app.Use(cors.New())
	app.Use(logger.New())

	s := &Server{
		App:    app,
		Cfg:    cfg,
		DB:     pool,
		Redis:  redisClient,
		Stream: stream.NewHub(redisClient, log),
		Log:    log,
	}

	registerRoutes(s)
	return s
}

// Close stops the stream hub's Redis subscription.
func (s *Server) Close() {
	s.Stream.Close()
}

func bodyLimit(cfg config.Config) int {
	// multipart framing on top of the file itself
	limit := cfg.MaxUploadBytes + 64<<10
	if limit < fiber.DefaultBodyLimit {
		return fiber.DefaultBodyLimit
	}
	return limit
}

func errorHandler(log logrus.FieldLogger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		var fe *fiber.Error
		if errors.As(err, &fe) {
			code = fe.Code
		}
		if code >= fiber.StatusInternalServerError {
			log.WithFields(logrus.Fields{
				"method": c.Method(),
				"path":   c.Path(),
				"status": code,
			}).WithError(err).Error("request failed")
		}
		return c.Status(code).JSON(fiber.Map{"error": err.Error()})
	}
}

func elevationModel(cfg config.Config) route.ElevationModel {
	if cfg.SyntheticElevation {
		return route.NewSyntheticElevation(time.Now().UnixNano())
	}
	return route.FlatElevation{}
}

func registerRoutes(s *Server) {
	s.App.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	var q db.Querier
	if s.DB != nil {
		q = s.DB
	}
	store := cache.New(s.Redis)
	jwtMiddleware := auth.JWTMiddleware(s.Cfg.JWTSecret)

	files := storage.NewService(q, s.Cfg.StorageDir)
	routes := route.NewService(store, files, elevationModel(s.Cfg), s.Cfg.DraftTTL, s.Log)
	locator := navigation.NewSimulatedLocator(s.Cfg.NavigationJitterDeg, 0)

	auth.RegisterRoutes(s.App.Group("/auth"), auth.NewService(s.Cfg.JWTSecret, q, s.Log))
	profile.RegisterRoutes(s.App.Group("/profile"), profile.NewService(q, s.Log), jwtMiddleware)
	route.RegisterRoutes(s.App.Group("/routes"), routes, jwtMiddleware, s.Cfg.MaxUploadBytes)
	nav := navigation.NewService(q, store, routes, locator, s.Stream, s.Log)
	navigation.RegisterRoutes(s.App.Group("/navigation"), nav, jwtMiddleware)
	event.RegisterRoutes(s.App.Group("/events"), event.NewService(q, routes, routes.Elevation(), s.Log), jwtMiddleware)
	trail.RegisterRoutes(s.App.Group("/trails"), trail.NewService(q, store, s.Log), jwtMiddleware)
	social.RegisterRoutes(s.App.Group("/social"), social.NewService(q, s.Log), jwtMiddleware)
	storage.RegisterRoutes(s.App.Group("/storage"), files, jwtMiddleware, s.Cfg.MaxUploadBytes)
	stream.RegisterRoutes(s.App.Group("/stream"), s.Stream, jwtMiddleware, nav.Watch)
}
