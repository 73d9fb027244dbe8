// models/settings.go
package models

// RankThreshold maps minimum career volume and direct-sponsee count to a
// rank tier. Thresholds are checked highest-first; both must be met.
type RankThreshold struct {
	Rank       string  `json:"rank" bson:"rank"`
	MinVolume  float64 `json:"minVolume" bson:"minVolume"`
	MinDirects int     `json:"minDirects" bson:"minDirects"`
}

// CompensationSettings holds every tunable of the payout plan.
type CompensationSettings struct {
	JoiningFee           float64         `json:"joiningFee" bson:"joiningFee" validate:"gt=0"`
	DirectBonusPercent   float64         `json:"directBonusPercent" bson:"directBonusPercent" validate:"gte=0,lte=100"`
	GenerationPercents   []float64       `json:"generationPercents" bson:"generationPercents" validate:"dive,gte=0,lte=100"`
	MatchingBonusPercent float64         `json:"matchingBonusPercent" bson:"matchingBonusPercent" validate:"gte=0,lte=100"`
	DailyMatchingCap     float64         `json:"dailyMatchingCap" bson:"dailyMatchingCap" validate:"gte=0"`
	RankThresholds       []RankThreshold `json:"rankThresholds" bson:"rankThresholds"`
}

// DefaultCompensationSettings seeds the settings collection on first run.
func DefaultCompensationSettings() CompensationSettings {
	return CompensationSettings{
		JoiningFee:           1000,
		DirectBonusPercent:   15,
		GenerationPercents:   []float64{5, 4, 3, 2, 1},
		MatchingBonusPercent: 10,
		DailyMatchingCap:     500,
		RankThresholds: []RankThreshold{
			{Rank: RankStarter, MinVolume: 0, MinDirects: 0},
			{Rank: RankBronze, MinVolume: 5000, MinDirects: 2},
			{Rank: RankSilver, MinVolume: 25000, MinDirects: 5},
			{Rank: RankGold, MinVolume: 100000, MinDirects: 10},
			{Rank: RankDiamond, MinVolume: 500000, MinDirects: 20},
		},
	}
}
