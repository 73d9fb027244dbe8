// controllers/member_controller.go
package controllers

import (
	"log"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ascendra/ascendra_backend/models"
	"github.com/ascendra/ascendra_backend/repositories"
	"github.com/ascendra/ascendra_backend/services"
	"github.com/ascendra/ascendra_backend/utils"
)

const (
	defaultTreeDepth = 4
	maxTreeDepth     = 10
)

// MemberController serves member profile, downline and tree views.
type MemberController struct {
	members *repositories.MemberRepository
}

func NewMemberController(members *repositories.MemberRepository) *MemberController {
	return &MemberController{members: members}
}

// GetMe returns the authenticated member's record.
func (mc *MemberController) GetMe(c echo.Context) error {
	member, err := mc.requireSelf(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Member retrieved successfully",
		Data:    member,
	})
}

// GetMyDownline returns the member's direct sponsees.
func (mc *MemberController) GetMyDownline(c echo.Context) error {
	member, err := mc.requireSelf(c)
	if err != nil {
		return err
	}

	downline, err := mc.members.FindDownline(c.Request().Context(), member.ID)
	if err != nil {
		log.Printf("Failed to load downline for %s: %v", member.ID.Hex(), err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to retrieve downline",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Downline retrieved successfully",
		Data:    downline,
	})
}

// GetMyTree returns the member's binary subtree, bounded by the depth query
// parameter.
func (mc *MemberController) GetMyTree(c echo.Context) error {
	member, err := mc.requireSelf(c)
	if err != nil {
		return err
	}

	depth := defaultTreeDepth
	if raw := c.QueryParam("depth"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			depth = parsed
		}
	}
	if depth > maxTreeDepth {
		depth = maxTreeDepth
	}

	members, err := mc.members.FindAll(c.Request().Context())
	if err != nil {
		log.Printf("Failed to load member set for tree view: %v", err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to retrieve tree",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Tree retrieved successfully",
		Data:    services.BuildTree(members, member.ID, depth),
	})
}

// GetMyInviteQR returns the member's invite link as a QR code data URI.
func (mc *MemberController) GetMyInviteQR(c echo.Context) error {
	member, err := mc.requireSelf(c)
	if err != nil {
		return err
	}

	qrCode, err := utils.GenerateInviteQRCode(member.InviteCode)
	if err != nil {
		log.Printf("Failed to generate invite QR for %s: %v", member.ID.Hex(), err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to generate QR code",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Invite QR code generated successfully",
		Data: map[string]string{
			"inviteCode": member.InviteCode,
			"qrCode":     qrCode,
		},
	})
}

// GetMember is the admin lookup by id path param or username query param.
func (mc *MemberController) GetMember(c echo.Context) error {
	ctx := c.Request().Context()

	var member *models.Member
	var err error
	if username := c.QueryParam("username"); username != "" {
		member, err = mc.members.FindByUsername(ctx, username)
	} else {
		var id primitive.ObjectID
		id, err = primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			return c.JSON(http.StatusBadRequest, models.Response{
				Status:  http.StatusBadRequest,
				Message: "Invalid member ID format",
			})
		}
		member, err = mc.members.FindByID(ctx, id)
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to retrieve member",
		})
	}
	if member == nil {
		return c.JSON(http.StatusNotFound, models.Response{
			Status:  http.StatusNotFound,
			Message: "Member not found",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Member retrieved successfully",
		Data:    member,
	})
}

func (mc *MemberController) requireSelf(c echo.Context) (*models.Member, error) {
	memberID, err := utils.GetMemberIDFromToken(c)
	if err != nil {
		return nil, c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Invalid token",
		})
	}

	member, err := mc.members.FindByID(c.Request().Context(), memberID)
	if err != nil {
		return nil, c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to retrieve member",
		})
	}
	if member == nil {
		return nil, c.JSON(http.StatusNotFound, models.Response{
			Status:  http.StatusNotFound,
			Message: "Member not found",
		})
	}
	return member, nil
}
