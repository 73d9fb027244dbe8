// controllers/auth_controller.go
package controllers

import (
	"log"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ascendra/ascendra_backend/middleware"
	"github.com/ascendra/ascendra_backend/models"
	"github.com/ascendra/ascendra_backend/repositories"
	"github.com/ascendra/ascendra_backend/utils"
)

// AuthController handles member and admin login
type AuthController struct {
	members *repositories.MemberRepository
}

func NewAuthController(members *repositories.MemberRepository) *AuthController {
	return &AuthController{members: members}
}

// Login authenticates a member by username/password and returns a JWT
func (ac *AuthController) Login(c echo.Context) error {
	var req models.LoginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Username and password are required",
		})
	}

	member, err := ac.members.FindByUsername(c.Request().Context(), req.Username)
	if err != nil {
		log.Printf("Login lookup failed for %s: %v", req.Username, err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to process login",
		})
	}
	if member == nil || !utils.CheckPassword(member.Password, req.Password) {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Invalid username or password",
		})
	}
	if member.IsBlocked {
		return c.JSON(http.StatusForbidden, models.Response{
			Status:  http.StatusForbidden,
			Message: "Account is blocked",
		})
	}

	userType := middleware.UserTypeMember
	if member.IsAdmin {
		userType = middleware.UserTypeAdmin
	}

	token, err := utils.GenerateToken(member.ID, member.Username, userType)
	if err != nil {
		log.Printf("Token generation failed for %s: %v", member.Username, err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to generate token",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Login successful",
		Data: models.LoginResponse{
			Token:  token,
			Member: *member,
		},
	})
}
