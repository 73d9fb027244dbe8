// models/registration.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Registration request statuses
const (
	RegistrationPending  = "pending"
	RegistrationApproved = "approved"
	RegistrationRejected = "rejected"
)

// Placement modes
const (
	PlacementAuto   = "auto"
	PlacementManual = "manual"
)

// RegistrationRequest is a signup waiting for admin approval. The password
// is already bcrypt-hashed when the request is stored.
type RegistrationRequest struct {
	ID          primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Username    string             `json:"username" bson:"username"`
	Email       string             `json:"email" bson:"email"`
	Password    string             `json:"-" bson:"password"`
	FullName    string             `json:"fullName" bson:"fullName"`
	SponsorCode string             `json:"sponsorCode,omitempty" bson:"sponsorCode,omitempty"`

	// Manual placement is a best-effort preference; the resolver falls back
	// to auto placement when the requested slot is taken or missing.
	PlacementMode   string `json:"placementMode" bson:"placementMode"`
	PlacementParent string `json:"placementParent,omitempty" bson:"placementParent,omitempty"` // parent username
	PlacementLeg    Leg    `json:"placementLeg,omitempty" bson:"placementLeg,omitempty"`

	Status    string     `json:"status" bson:"status"`
	CreatedAt time.Time  `json:"createdAt" bson:"createdAt"`
	DecidedAt *time.Time `json:"decidedAt,omitempty" bson:"decidedAt,omitempty"`
}

// SignupRequest is the public payload for submitting a registration.
type SignupRequest struct {
	Username        string `json:"username" validate:"required,min=3,max=32,alphanum"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=8"`
	FullName        string `json:"fullName" validate:"required"`
	SponsorCode     string `json:"sponsorCode,omitempty"`
	PlacementMode   string `json:"placementMode,omitempty" validate:"omitempty,oneof=auto manual"`
	PlacementParent string `json:"placementParent,omitempty"`
	PlacementLeg    Leg    `json:"placementLeg,omitempty" validate:"omitempty,oneof=left right"`
}
