package main

import (
	"log"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"

	"github.com/ascendra/ascendra_backend/config"
	"github.com/ascendra/ascendra_backend/controllers"
	"github.com/ascendra/ascendra_backend/middleware"
	"github.com/ascendra/ascendra_backend/repositories"
	"github.com/ascendra/ascendra_backend/routes"
	"github.com/ascendra/ascendra_backend/services"
)

// CustomValidator is a custom validator for Echo
type CustomValidator struct {
	validator *validator.Validate
}

// Validate validates the request body
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

func main() {
	// Load .env file
	err := godotenv.Load()
	if err != nil {
		log.Println("Warning: .env file not found")
	}

	// Connect to Redis
	redisClient := config.ConnectRedis()

	// Connect to database
	client := config.ConnectDB()
	db := client.Database(config.DatabaseName())

	// Create a new Echo instance
	e := echo.New()

	// Initialize custom validator
	customValidator := &CustomValidator{validator: validator.New()}
	e.Validator = customValidator

	// Initialize rate limiter
	rateLimiter := middleware.NewRateLimiter()

	// Middleware
	e.Use(echoMiddleware.Logger())
	e.Use(echoMiddleware.Recover())
	e.Use(echoMiddleware.CORS())
	e.Use(echoMiddleware.Secure())
	e.Use(rateLimiter.RateLimit())
	e.Use(middleware.SecurityHeadersWithConfig(middleware.SecurityConfig{
		AllowedDomains: []string{"*"},
		AllowInlineJS:  false,
	}))

	e.Match([]string{"GET", "HEAD"}, "/", func(c echo.Context) error {
		return c.JSON(200, map[string]string{
			"status":  "OK",
			"message": "Ascendra Backend is running",
			"version": "1.0",
		})
	})

	e.Match([]string{"GET", "HEAD"}, "/health", func(c echo.Context) error {
		return c.JSON(200, map[string]string{
			"status":   "healthy",
			"database": "connected",
		})
	})

	e.Use(httpsRedirect())

	// Initialize repositories
	memberRepo := repositories.NewMemberRepository(db)
	ledgerRepo := repositories.NewLedgerRepository(db)
	registrationRepo := repositories.NewRegistrationRepository(db)
	settingsRepo := repositories.NewSettingsRepository(db, redisClient)

	// Initialize the registration workflow
	activationLock := services.NewRedisActivationLock(redisClient)
	registrationService := services.NewRegistrationService(memberRepo, ledgerRepo, registrationRepo, settingsRepo, activationLock)

	// Initialize controllers
	authController := controllers.NewAuthController(memberRepo)
	registrationController := controllers.NewRegistrationController(registrationService, registrationRepo)
	memberController := controllers.NewMemberController(memberRepo)
	ledgerController := controllers.NewLedgerController(ledgerRepo)
	settingsController := controllers.NewSettingsController(settingsRepo)

	// Register routes
	routes.SetupRoutes(e, authController, registrationController, memberController, ledgerController)

	// Register admin routes AFTER general routes to avoid conflicts
	routes.RegisterAdminRoutes(e, registrationController, memberController, ledgerController, settingsController)

	// Start server
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	e.Logger.Fatal(e.Start(":" + port))
}

func httpsRedirect() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Request().Header.Get("X-Forwarded-Proto") == "http" {
				return c.Redirect(301, "https://"+c.Request().Host+c.Request().RequestURI)
			}
			return next(c)
		}
	}
}
