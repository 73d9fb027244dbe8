// models/member.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Leg identifies a child's position under its binary-tree parent
type Leg string

const (
	LegLeft  Leg = "left"
	LegRight Leg = "right"
)

// Rank tiers, lowest to highest
const (
	RankStarter = "starter"
	RankBronze  = "bronze"
	RankSilver  = "silver"
	RankGold    = "gold"
	RankDiamond = "diamond"
)

// DailyBinaryEarnings tracks how much matching bonus was paid on a given
// calendar day. The bucket resets the first time "today" differs from Date.
type DailyBinaryEarnings struct {
	Date   string  `json:"date" bson:"date"` // YYYY-MM-DD
	Amount float64 `json:"amount" bson:"amount"`
}

// Member is a node in both the binary placement tree and the sponsor graph.
// ParentID/Leg are immutable once assigned; the tree is insert-only.
type Member struct {
	ID         primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Username   string             `json:"username" bson:"username"`
	Email      string             `json:"email" bson:"email"`
	Password   string             `json:"-" bson:"password"`
	FullName   string             `json:"fullName" bson:"fullName"`
	InviteCode string             `json:"inviteCode" bson:"inviteCode"`

	// Sponsor graph (who invited whom). Nil only for the root member.
	SponsorID *primitive.ObjectID `json:"sponsorId,omitempty" bson:"sponsorId,omitempty"`

	// Binary tree placement. Nil parent only for the root member.
	ParentID *primitive.ObjectID `json:"parentId,omitempty" bson:"parentId,omitempty"`
	Leg      Leg                 `json:"leg,omitempty" bson:"leg,omitempty"`

	// Monetary state
	Balance       float64 `json:"balance" bson:"balance"`
	TotalEarnings float64 `json:"totalEarnings" bson:"totalEarnings"`
	CareerVolume  float64 `json:"careerVolume" bson:"careerVolume"`

	// Binary counters. Volumes accumulate per leg and get flushed on match;
	// PaidVolume is the cumulative flushed amount. BinaryPaidPairs is legacy
	// count-based bookkeeping kept for migrated data; it drives no payout.
	BinaryLeftCount   int     `json:"binaryLeftCount" bson:"binaryLeftCount"`
	BinaryRightCount  int     `json:"binaryRightCount" bson:"binaryRightCount"`
	BinaryLeftVolume  float64 `json:"binaryLeftVolume" bson:"binaryLeftVolume"`
	BinaryRightVolume float64 `json:"binaryRightVolume" bson:"binaryRightVolume"`
	BinaryPaidVolume  float64 `json:"binaryPaidVolume" bson:"binaryPaidVolume"`
	BinaryPaidPairs   int     `json:"binaryPaidPairs" bson:"binaryPaidPairs"`

	DailyBinaryEarnings DailyBinaryEarnings `json:"dailyBinaryEarnings" bson:"dailyBinaryEarnings"`

	Rank          string `json:"rank" bson:"rank"`
	DownlineCount int    `json:"downlineCount" bson:"downlineCount"` // direct sponsees, not tree children

	IsAdmin   bool      `json:"isAdmin" bson:"isAdmin"` // designated company account
	IsBlocked bool      `json:"isBlocked" bson:"isBlocked"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

// Placement is the slot a new member will occupy in the binary tree.
type Placement struct {
	ParentID primitive.ObjectID `json:"parentId"`
	Leg      Leg                `json:"leg"`
}

// TreeNode is the member subtree view returned to clients.
type TreeNode struct {
	ID       primitive.ObjectID `json:"id"`
	Username string             `json:"username"`
	Rank     string             `json:"rank"`
	Leg      Leg                `json:"leg,omitempty"`
	Left     *TreeNode          `json:"left,omitempty"`
	Right    *TreeNode          `json:"right,omitempty"`
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	Token  string `json:"token"`
	Member Member `json:"member"`
}
