// controllers/settings_controller.go
package controllers

import (
	"log"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ascendra/ascendra_backend/models"
	"github.com/ascendra/ascendra_backend/repositories"
	"github.com/ascendra/ascendra_backend/services"
)

// SettingsController exposes the compensation plan settings to admins.
type SettingsController struct {
	settings *repositories.SettingsRepository
}

func NewSettingsController(settings *repositories.SettingsRepository) *SettingsController {
	return &SettingsController{settings: settings}
}

// GetSettings returns the current compensation settings.
func (sc *SettingsController) GetSettings(c echo.Context) error {
	settings, err := sc.settings.Get(c.Request().Context())
	if err != nil {
		log.Printf("Failed to load compensation settings: %v", err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to retrieve settings",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Settings retrieved successfully",
		Data:    settings,
	})
}

// UpdateSettings replaces the compensation settings. Percentages and caps
// are validated; the rank ladder must stay ordered lowest to highest.
func (sc *SettingsController) UpdateSettings(c echo.Context) error {
	var settings models.CompensationSettings
	if err := c.Bind(&settings); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(&settings); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Validation failed",
			Data:    err.Error(),
		})
	}
	if err := validateRankLadder(settings.RankThresholds); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: err.Error(),
		})
	}

	if err := sc.settings.Update(c.Request().Context(), settings); err != nil {
		log.Printf("Failed to update compensation settings: %v", err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to update settings",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Settings updated successfully",
		Data:    settings,
	})
}

func validateRankLadder(ladder []models.RankThreshold) error {
	if len(ladder) == 0 {
		return &services.ValidationError{Reason: "rank ladder must not be empty"}
	}
	for i := 1; i < len(ladder); i++ {
		if ladder[i].MinVolume < ladder[i-1].MinVolume || ladder[i].MinDirects < ladder[i-1].MinDirects {
			return &services.ValidationError{Reason: "rank ladder thresholds must be non-decreasing"}
		}
	}
	return nil
}
