package router

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/edupress/edu-platform-api/config"
	"github.com/edupress/edu-platform-api/database"
	"github.com/edupress/edu-platform-api/handlers"
	auth_handlers "github.com/edupress/edu-platform-api/handlers/auth"
	course_handlers "github.com/edupress/edu-platform-api/handlers/course"
	enrollment_handlers "github.com/edupress/edu-platform-api/handlers/enrollment"
	lesson_handlers "github.com/edupress/edu-platform-api/handlers/lesson"
	rating_handlers "github.com/edupress/edu-platform-api/handlers/rating"
	upload_handlers "github.com/edupress/edu-platform-api/handlers/upload"
	user_handlers "github.com/edupress/edu-platform-api/handlers/user"
	"github.com/edupress/edu-platform-api/services/auth0"
	"github.com/edupress/edu-platform-api/services/device"
	"github.com/edupress/edu-platform-api/services/storage"
	"github.com/edupress/edu-platform-api/utils/auth"
	"github.com/edupress/edu-platform-api/utils/cache"
	"github.com/edupress/edu-platform-api/utils/middleware"
)

// SetupRoutes wires the middleware chain and every route group. The token
// verifier must be able to load the provider JWKS, everything else degrades
// gracefully when its backing service is down.
func SetupRoutes(ctx context.Context, app *fiber.App, store database.Storage, cfg *config.Config) error {
	verifier, err := auth.NewVerifier(ctx, auth.VerifierConfig{
		Domain:   cfg.Auth0Domain,
		Audience: cfg.Auth0Audience,
		Issuer:   cfg.Auth0Issuer,
	})
	if err != nil {
		return err
	}
	authMiddleware := middleware.NewAuthMiddleware(verifier)

	redisCache, err := cache.NewRedisCache(cfg.RedisURL)
	if err != nil {
		log.Warnf("Failed to connect to Redis: %v. Login throttling disabled.", err)
		redisCache = nil
	}

	var throttle *middleware.LoginThrottle
	if redisCache != nil {
		throttle = middleware.NewLoginThrottle(redisCache)
	}

	var devices *device.Service
	if cfg.EnableDeviceTracking {
		devices = device.NewService(store, cfg.DeviceLimit)
	}

	management := auth0.NewClient(auth0.Config{
		Domain:       cfg.Auth0Domain,
		ClientID:     cfg.Auth0ClientID,
		ClientSecret: cfg.Auth0ClientSecret,
	}, redisCache)

	var objectStore *storage.Client
	if cfg.EnableFileUpload {
		objectStore, err = storage.NewClient(storage.Config{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			UseSSL:    cfg.MinioUseSSL,
			Bucket:    cfg.MinioBucketName,
		})
		if err != nil {
			log.Warnf("Failed to create object store client: %v. File uploads disabled.", err)
			objectStore = nil
		} else if err := objectStore.EnsureBucket(ctx); err != nil {
			log.Warnf("Failed to ensure upload bucket: %v. File uploads disabled.", err)
			objectStore = nil
		}
	}

	authHandler := auth_handlers.NewAuthHandler(store, devices, management, throttle)
	userHandler := user_handlers.NewUserHandler(store)
	courseHandler := course_handlers.NewCourseHandler(store)
	lessonHandler := lesson_handlers.NewLessonHandler(store)
	enrollmentHandler := enrollment_handlers.NewEnrollmentHandler(store)
	ratingHandler := rating_handlers.NewRatingHandler(store)
	uploadHandler := upload_handlers.NewUploadHandler(objectStore)

	middleware.SetupSecurity(app, middleware.SecurityConfig{
		CORSOrigin:        cfg.CORSOrigin,
		RateLimitRequests: 100,
		RateLimitWindow:   1 * time.Minute,
	})

	// Health check (public)
	app.Get("/health", handlers.HandleCheckHealth)

	api := app.Group("/api")
	api.Get("/health", handlers.HandleCheckHealth)

	// Auth routes: the token comes from the hosted provider; login only
	// syncs the identity and registers the device.
	authGroup := api.Group("/auth")
	authGroup.Post("/login", throttle.Check(), authMiddleware.Required(), authHandler.Login)
	authGroup.Get("/me", authMiddleware.Required(), authHandler.Me)
	authGroup.Delete("/devices/:deviceId", authMiddleware.Required(), authHandler.RemoveDevice)

	// User management
	users := api.Group("/users", authMiddleware.Required())
	users.Get("/", middleware.RequireRoles(auth.RoleAdmin), userHandler.ListUsers)
	users.Post("/", middleware.RequireRoles(auth.RoleAdmin), userHandler.CreateUser)
	users.Get("/:id", userHandler.GetUser)
	users.Put("/:id", userHandler.UpdateUser)
	users.Delete("/:id", middleware.RequireRoles(auth.RoleAdmin), userHandler.DeleteUser)

	// Courses: listing and detail are public, with unpublished courses
	// visible only to staff.
	courses := api.Group("/courses")
	courses.Get("/", authMiddleware.Optional(), courseHandler.ListCourses)
	courses.Get("/:id", authMiddleware.Optional(), courseHandler.GetCourse)
	courses.Post("/", authMiddleware.Required(), middleware.RequireRoles(auth.RoleTeacher, auth.RoleAdmin), courseHandler.CreateCourse)
	courses.Put("/:id", authMiddleware.Required(), middleware.RequireRoles(auth.RoleTeacher, auth.RoleAdmin), courseHandler.UpdateCourse)
	courses.Patch("/:id/publish", authMiddleware.Required(), middleware.RequireRoles(auth.RoleTeacher, auth.RoleAdmin), courseHandler.PublishCourse)
	courses.Delete("/:id", authMiddleware.Required(), middleware.RequireRoles(auth.RoleTeacher, auth.RoleAdmin), courseHandler.DeleteCourse)

	// Lessons: read access is decided per course in the handler (staff or
	// enrolled students).
	lessons := api.Group("/lessons", authMiddleware.Required())
	lessons.Get("/", lessonHandler.ListLessons)
	lessons.Get("/:id", lessonHandler.GetLesson)
	lessons.Post("/", middleware.RequireRoles(auth.RoleTeacher, auth.RoleAdmin), lessonHandler.CreateLesson)
	lessons.Put("/:id", middleware.RequireRoles(auth.RoleTeacher, auth.RoleAdmin), lessonHandler.UpdateLesson)
	lessons.Delete("/:id", middleware.RequireRoles(auth.RoleTeacher, auth.RoleAdmin), lessonHandler.DeleteLesson)

	// Enrollments
	enrollments := api.Group("/enrollments", authMiddleware.Required())
	enrollments.Post("/", middleware.OwnerOrAdmin("user"), enrollmentHandler.Enroll)
	enrollments.Get("/", enrollmentHandler.ListEnrollments)
	enrollments.Put("/:id/progress", enrollmentHandler.UpdateProgress)
	enrollments.Delete("/:id", enrollmentHandler.Unenroll)

	// Ratings: listing is public, writing requires enrollment.
	ratings := api.Group("/ratings")
	ratings.Get("/", ratingHandler.ListByCourse)
	ratings.Post("/", authMiddleware.Required(), middleware.RequireRoles(auth.RoleStudent), ratingHandler.CreateRating)
	ratings.Put("/:id", authMiddleware.Required(), ratingHandler.UpdateRating)
	ratings.Delete("/:id", authMiddleware.Required(), ratingHandler.DeleteRating)

	// Uploads
	uploads := api.Group("/upload", authMiddleware.Required())
	uploads.Post("/", middleware.RequireRoles(auth.RoleTeacher, auth.RoleAdmin), uploadHandler.UploadFile)
	uploads.Get("/presign/*", uploadHandler.PresignFile)
	uploads.Delete("/*", middleware.RequireRoles(auth.RoleAdmin), uploadHandler.DeleteFile)

	return nil
}
