package services

import (
	"fmt"
	"net/http"
	"os"
	"strconv"

	"github.com/alphabatem/common/context"
	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	log "github.com/sirupsen/logrus"

	"github.com/wheelchair-racer/wr_api/middleware"
	"github.com/wheelchair-racer/wr_api/services/handlers"
	"github.com/wheelchair-racer/wr_api/shared"
)

type HttpService struct {
	context.DefaultService

	authSvc      *AuthService
	rateLimitSvc *RateLimitService

	authHandler    *handlers.AuthHandler
	profileHandler *handlers.ProfileHandler
	contactHandler *handlers.ContactHandler
	blogHandler    *handlers.BlogHandler
	forumHandler   *handlers.ForumHandler
	adminHandler   *handlers.AdminHandler
	mediaHandler   *handlers.MediaHandler
	parkrunHandler *handlers.ParkrunHandler

	port int
	app  *fiber.App
}

const HTTP_SVC = "http_svc"

// Fiber buffers whole multipart bodies, so the limit has to cover a full
// batch of post images plus form overhead.
const maxBodySize = 60 * 1024 * 1024

func (svc HttpService) Id() string {
	return HTTP_SVC
}

func (svc *HttpService) Configure(ctx *context.Context) error {
	if port := os.Getenv("HTTP_PORT"); port != "" {
		var err error
		if svc.port, err = strconv.Atoi(port); err != nil {
			return err
		}
	} else {
		svc.port = 8000
	}

	return svc.DefaultService.Configure(ctx)
}

func (svc *HttpService) Start() error {
	svc.authSvc = svc.Service(AUTH_SVC).(*AuthService)
	svc.rateLimitSvc = svc.Service(RATE_LIMIT_SVC).(*RateLimitService)

	mediaSvc := svc.Service(MEDIA_SVC).(*MediaService)
	forumSvc := svc.Service(FORUM_SVC).(*ForumService)

	svc.authHandler = handlers.NewAuthHandler(svc.authSvc)
	svc.profileHandler = handlers.NewProfileHandler(svc.authSvc, mediaSvc)
	svc.contactHandler = handlers.NewContactHandler(svc.Service(CONTACT_SVC).(*ContactService))
	svc.blogHandler = handlers.NewBlogHandler(svc.Service(BLOG_SVC).(*BlogService))
	svc.forumHandler = handlers.NewForumHandler(forumSvc)
	svc.adminHandler = handlers.NewAdminHandler(forumSvc)
	svc.mediaHandler = handlers.NewMediaHandler(mediaSvc)
	svc.parkrunHandler = handlers.NewParkrunHandler(svc.Service(PARKRUN_SVC).(*ParkrunService))

	middleware.SetTrustedProxies(middleware.ProxyListFromEnv())

	svc.app = NewFiberApp()
	svc.app.Use(recover.New())
	if os.Getenv("LOG_LEVEL") == "TRACE" {
		svc.app.Use(logger.New())
	}
	svc.app.Use(cors.New(cors.Config{
		AllowOrigins: corsOrigins(),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
	}))
	svc.app.Use(MonitoringMiddleware())

	svc.app.Get("/ping", svc.ping)
	svc.registerRoutes(svc.app.Group("/api/v1", svc.rateLimitSvc.APICall()))

	svc.app.Use(func(c *fiber.Ctx) error {
		return shared.NewNotFoundError(nil, "Page not found")
	})

	log.WithField("port", svc.port).Info("HTTP server listening")
	return svc.app.Listen(fmt.Sprintf(":%v", svc.port))
}

func (svc *HttpService) Shutdown() {
	if svc.app != nil {
		_ = svc.app.Shutdown()
	}
}

// NewFiberApp returns an app that encodes with sonic and renders errors in
// the standard response envelope.
func NewFiberApp() *fiber.App {
	return fiber.New(fiber.Config{
		AppName:      shared.AppName,
		JSONEncoder:  sonic.Marshal,
		JSONDecoder:  sonic.Unmarshal,
		ErrorHandler: shared.ErrorHandler,
		BodyLimit:    maxBodySize,
	})
}

func corsOrigins() string {
	if origins := os.Getenv("CORS_ORIGINS"); origins != "" {
		return origins
	}
	return "*"
}

func (svc *HttpService) registerRoutes(v1 fiber.Router) {
	requireAuth := svc.authSvc.RequiredAuth()
	requireAdmin := svc.authSvc.RequireAdmin()
	optionalAuth := svc.authSvc.OptionalAuth()

	v1.Get("/ping", svc.ping)

	auth := v1.Group("/auth")
	auth.Post("/signup", svc.authHandler.SignUp)
	auth.Post("/signin", svc.authHandler.SignIn)
	auth.Post("/forgot-password", svc.authHandler.ForgotPassword)
	auth.Post("/reset-password", svc.authHandler.ResetPassword)
	auth.Post("/signout", requireAuth, svc.authHandler.SignOut)
	auth.Put("/password", requireAuth, svc.authHandler.ChangePassword)

	profile := v1.Group("/profile", requireAuth)
	profile.Get("/", svc.profileHandler.GetProfile)
	profile.Put("/", svc.profileHandler.UpdateProfile)
	profile.Post("/avatar", svc.profileHandler.UploadAvatar)

	v1.Post("/contact", svc.contactHandler.Submit)

	v1.Get("/posts", svc.blogHandler.ListPosts)
	v1.Get("/posts/:id", optionalAuth, svc.blogHandler.GetPost)
	v1.Post("/posts", requireAuth, svc.blogHandler.CreatePost)
	v1.Delete("/posts/:id", requireAuth, svc.blogHandler.DeletePost)
	v1.Post("/posts/:id/comments", requireAuth, svc.blogHandler.AddComment)
	v1.Post("/posts/:id/like", requireAuth, svc.blogHandler.ToggleLike)
	v1.Delete("/comments/:id", requireAuth, svc.blogHandler.DeleteComment)

	v1.Post("/media/post-images", requireAuth, svc.mediaHandler.UploadPostImages)

	forum := v1.Group("/forum")
	forum.Get("/categories", svc.forumHandler.ListCategories)
	forum.Get("/categories/:id/topics", svc.forumHandler.ListTopics)
	forum.Get("/topics/:id", svc.forumHandler.GetTopic)
	forum.Post("/topics", requireAuth, svc.forumHandler.CreateTopic)
	forum.Post("/topics/:id/replies", requireAuth, svc.forumHandler.CreateReply)
	forum.Put("/replies/:id", requireAuth, svc.forumHandler.UpdateReply)
	forum.Delete("/replies/:id", requireAuth, svc.forumHandler.DeleteReply)
	forum.Put("/topics/:id/pin", requireAuth, requireAdmin, svc.adminHandler.PinTopic)
	forum.Put("/topics/:id/lock", requireAuth, requireAdmin, svc.adminHandler.LockTopic)
	forum.Delete("/topics/:id", requireAuth, requireAdmin, svc.adminHandler.DeleteTopic)

	v1.Get("/parkruns", svc.parkrunHandler.List)
	v1.Get("/parkruns/countries", svc.parkrunHandler.Countries)
	v1.Get("/parkruns/nearby", svc.parkrunHandler.Nearby)
	v1.Get("/parkruns/:slug", svc.parkrunHandler.Get)

	admin := v1.Group("/admin", requireAuth, requireAdmin)
	admin.Get("/rate-limits", svc.rateLimitSvc.GetRateLimitStats())
	admin.Post("/rate-limits/cleanup", svc.rateLimitSvc.CleanupRateLimits())
	admin.Delete("/rate-limits", svc.rateLimitSvc.ClearRateLimits())
	admin.Delete("/rate-limits/:policy/:subject", svc.rateLimitSvc.RemoveRateLimit())
}

// @Summary Ping
// @Description This endpoint checks the health of the service
// @Tags health
// @Accept  json
// @Produce json
// @Success 200 {object} shared.Response{data=string}
// @Router /ping [get]
func (svc *HttpService) ping(c *fiber.Ctx) error {
	c.Set(fiber.HeaderCacheControl, "max-age=10")

	return shared.ResponseJSON(c, http.StatusOK, "Success", "pong")
}
