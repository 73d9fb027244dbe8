// services/rank.go
package services

import "github.com/ascendra/ascendra_backend/models"

// EvaluateRank returns the highest tier in the ladder whose volume and
// direct-sponsee thresholds are both met, or the lowest tier when none are.
// The ladder is ordered lowest to highest. Pure and idempotent; it never
// decides demotions, callers apply the result only when it outranks the
// member's current tier (see PromoteRank).
func EvaluateRank(careerVolume float64, downlineCount int, ladder []models.RankThreshold) string {
	if len(ladder) == 0 {
		return models.RankStarter
	}
	for i := len(ladder) - 1; i >= 0; i-- {
		t := ladder[i]
		if careerVolume >= t.MinVolume && downlineCount >= t.MinDirects {
			return t.Rank
		}
	}
	return ladder[0].Rank
}

// PromoteRank returns the member's new rank: the evaluated tier when it sits
// above the current one in the ladder, otherwise the current rank unchanged.
func PromoteRank(current string, careerVolume float64, downlineCount int, ladder []models.RankThreshold) string {
	evaluated := EvaluateRank(careerVolume, downlineCount, ladder)
	if rankIndex(evaluated, ladder) > rankIndex(current, ladder) {
		return evaluated
	}
	return current
}

// rankIndex returns the ladder position of a rank, or -1 for unknown ranks
// so any ladder tier outranks them.
func rankIndex(rank string, ladder []models.RankThreshold) int {
	for i, t := range ladder {
		if t.Rank == rank {
			return i
		}
	}
	return -1
}
