// routes/admin_routes.go
package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/ascendra/ascendra_backend/controllers"
	"github.com/ascendra/ascendra_backend/middleware"
)

// RegisterAdminRoutes sets up the admin-gated registration workflow and
// settings routes
func RegisterAdminRoutes(e *echo.Echo, registrationController *controllers.RegistrationController, memberController *controllers.MemberController, ledgerController *controllers.LedgerController, settingsController *controllers.SettingsController) {
	admin := e.Group("/api/admin")
	admin.Use(middleware.JWTMiddleware())
	admin.Use(middleware.RequireAdmin())

	admin.GET("/registrations", registrationController.ListPending)
	admin.POST("/registrations/:id/approve", registrationController.Approve)
	admin.POST("/registrations/:id/reject", registrationController.Reject)

	admin.GET("/members", memberController.GetMember) // lookup by ?username=
	admin.GET("/members/:id", memberController.GetMember)
	admin.GET("/members/:id/ledger", ledgerController.GetMemberLedger)

	admin.GET("/settings", settingsController.GetSettings)
	admin.PUT("/settings", settingsController.UpdateSettings)
}
