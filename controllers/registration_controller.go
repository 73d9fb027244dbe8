// controllers/registration_controller.go
package controllers

import (
	"errors"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ascendra/ascendra_backend/models"
	"github.com/ascendra/ascendra_backend/services"
)

// RegistrationController handles signup submissions and the admin
// approve/reject workflow.
type RegistrationController struct {
	service *services.RegistrationService
	queue   services.RegistrationQueue
}

func NewRegistrationController(service *services.RegistrationService, queue services.RegistrationQueue) *RegistrationController {
	return &RegistrationController{service: service, queue: queue}
}

// Submit accepts a new registration request and places it on the pending
// queue. No member state changes until an admin approves.
func (rc *RegistrationController) Submit(c echo.Context) error {
	var req models.SignupRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
			Data:    err.Error(),
		})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Validation failed",
			Data:    err.Error(),
		})
	}

	request, err := rc.service.Submit(c.Request().Context(), req)
	if err != nil {
		if services.IsValidationError(err) {
			return c.JSON(http.StatusConflict, models.Response{
				Status:  http.StatusConflict,
				Message: err.Error(),
			})
		}
		log.Printf("Failed to submit registration for %s: %v", req.Username, err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to submit registration",
		})
	}

	return c.JSON(http.StatusCreated, models.Response{
		Status:  http.StatusCreated,
		Message: "Registration submitted and awaiting approval",
		Data:    request,
	})
}

// ListPending returns the pending registration queue, oldest first.
func (rc *RegistrationController) ListPending(c echo.Context) error {
	requests, err := rc.queue.FindPending(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to retrieve pending registrations",
		})
	}
	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Pending registrations retrieved successfully",
		Data:    requests,
	})
}

// Approve activates a pending registration: placement, compensation and
// persistence run as one unit inside the service.
func (rc *RegistrationController) Approve(c echo.Context) error {
	requestID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request ID format",
		})
	}

	member, err := rc.service.Approve(c.Request().Context(), requestID)
	if err != nil {
		return rc.decisionError(c, requestID, err, "approve")
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Registration approved and member activated",
		Data:    member,
	})
}

// Reject discards a pending registration with no side effects.
func (rc *RegistrationController) Reject(c echo.Context) error {
	requestID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request ID format",
		})
	}

	if err := rc.service.Reject(c.Request().Context(), requestID); err != nil {
		return rc.decisionError(c, requestID, err, "reject")
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Registration rejected",
	})
}

func (rc *RegistrationController) decisionError(c echo.Context, requestID primitive.ObjectID, err error, action string) error {
	switch {
	case errors.Is(err, services.ErrRequestNotFound):
		return c.JSON(http.StatusNotFound, models.Response{
			Status:  http.StatusNotFound,
			Message: "Registration request not found",
		})
	case errors.Is(err, services.ErrRequestNotPending):
		return c.JSON(http.StatusConflict, models.Response{
			Status:  http.StatusConflict,
			Message: "Registration request has already been decided",
		})
	case services.IsValidationError(err):
		return c.JSON(http.StatusConflict, models.Response{
			Status:  http.StatusConflict,
			Message: err.Error(),
		})
	}
	log.Printf("Failed to %s registration %s: %v", action, requestID.Hex(), err)
	return c.JSON(http.StatusInternalServerError, models.Response{
		Status:  http.StatusInternalServerError,
		Message: "Failed to process registration request",
	})
}
