// routes/main_routes.go
package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/ascendra/ascendra_backend/controllers"
	"github.com/ascendra/ascendra_backend/middleware"
)

// SetupRoutes registers the public and member-facing routes
func SetupRoutes(e *echo.Echo, authController *controllers.AuthController, registrationController *controllers.RegistrationController, memberController *controllers.MemberController, ledgerController *controllers.LedgerController) {
	// Public routes
	e.POST("/api/auth/login", authController.Login)
	e.POST("/api/registrations", registrationController.Submit)

	// Protected member routes
	r := e.Group("/api")
	r.Use(middleware.JWTMiddleware())

	r.GET("/members/me", memberController.GetMe)
	r.GET("/members/me/downline", memberController.GetMyDownline)
	r.GET("/members/me/tree", memberController.GetMyTree)
	r.GET("/members/me/invite-qr", memberController.GetMyInviteQR)
	r.GET("/members/me/ledger", ledgerController.GetMyLedger)
}
