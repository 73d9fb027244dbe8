// models/ledger.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Ledger entry kinds
const (
	LedgerCompanyRevenue     = "company_revenue"
	LedgerDirectSponsorBonus = "direct_sponsor_bonus"
	LedgerGenerationBonus    = "generation_bonus"
	LedgerMatchingBonus      = "binary_matching_bonus"
)

// Ledger entry statuses
const (
	LedgerStatusApproved = "approved"
	LedgerStatusPending  = "pending"
)

// LedgerEntry is an immutable, append-only financial record. The ID is
// deterministic per (triggering event, beneficiary, kind, level) so a
// retried activation batch upserts instead of double-crediting.
type LedgerEntry struct {
	ID          string             `json:"id" bson:"_id"`
	MemberID    primitive.ObjectID `json:"memberId" bson:"memberId"`
	EventID     primitive.ObjectID `json:"eventId" bson:"eventId"` // activated member that triggered the entry
	Kind        string             `json:"kind" bson:"kind"`
	Level       int                `json:"level,omitempty" bson:"level,omitempty"` // generation bonus level, 1-based
	Amount      float64            `json:"amount" bson:"amount"`
	Capped      bool               `json:"capped,omitempty" bson:"capped,omitempty"` // matching payout clamped by the daily cap
	Description string             `json:"description" bson:"description"`
	Status      string             `json:"status" bson:"status"`
	CreatedAt   time.Time          `json:"createdAt" bson:"createdAt"`
}
