// controllers/ledger_controller.go
package controllers

import (
	"log"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ascendra/ascendra_backend/models"
	"github.com/ascendra/ascendra_backend/repositories"
	"github.com/ascendra/ascendra_backend/utils"
)

// LedgerController serves ledger entry listings.
type LedgerController struct {
	ledger *repositories.LedgerRepository
}

func NewLedgerController(ledger *repositories.LedgerRepository) *LedgerController {
	return &LedgerController{ledger: ledger}
}

// GetMyLedger lists the authenticated member's entries, optionally filtered
// by kind (?kind=binary_matching_bonus).
func (lc *LedgerController) GetMyLedger(c echo.Context) error {
	memberID, err := utils.GetMemberIDFromToken(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Invalid token",
		})
	}
	return lc.listEntries(c, memberID)
}

// GetMemberLedger is the admin view of any member's ledger.
func (lc *LedgerController) GetMemberLedger(c echo.Context) error {
	memberID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid member ID format",
		})
	}
	return lc.listEntries(c, memberID)
}

func (lc *LedgerController) listEntries(c echo.Context, memberID primitive.ObjectID) error {
	entries, err := lc.ledger.FindByMember(c.Request().Context(), memberID, c.QueryParam("kind"))
	if err != nil {
		log.Printf("Failed to load ledger for %s: %v", memberID.Hex(), err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to retrieve ledger entries",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Ledger entries retrieved successfully",
		Data:    entries,
	})
}
