// services/compensation.go
package services

import (
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ascendra/ascendra_backend/models"
)

// binaryWalkLimit bounds the upward tree walk during the binary cascade.
// A well-formed tree never gets near it; hitting it means a cycle or a
// corrupted parent chain, and the cascade stops there.
const binaryWalkLimit = 500

// dailyBucketLayout is the calendar-day key for the matching-bonus cap.
const dailyBucketLayout = "2006-01-02"

// ActivationResult is the combined output of one activation event. The
// caller must commit both fields as a single atomic batch or discard them.
type ActivationResult struct {
	UpdatedMembers []models.Member
	LedgerEntries  []models.LedgerEntry
}

// ProcessActivation computes every monetary effect of activating newMember:
// company revenue, the direct-sponsor and generation bonus cascade along the
// sponsor chain, and binary volume propagation with matching-bonus flushes
// along the tree-parent chain.
//
// The function is pure with respect to its inputs: members is read through
// copies and never mutated, so a failed commit can simply re-run it against
// a fresh snapshot. Missing references (admin account, sponsor, parent) stop
// the affected branch of the cascade and are logged, never escalated; a
// dangling link must not halt compensation for everyone below it.
func ProcessActivation(newMember models.Member, members []models.Member, cfg models.CompensationSettings, now time.Time) ActivationResult {
	w := newWorkingSet(members)
	w.touch(&newMember)

	var entries []models.LedgerEntry
	addEntry := func(beneficiary primitive.ObjectID, kind string, level int, amount float64, capped bool, description string) {
		entries = append(entries, models.LedgerEntry{
			ID:          ledgerEntryID(newMember.ID, beneficiary, kind, level),
			MemberID:    beneficiary,
			EventID:     newMember.ID,
			Kind:        kind,
			Level:       level,
			Amount:      amount,
			Capped:      capped,
			Description: description,
			Status:      models.LedgerStatusApproved,
			CreatedAt:   now,
		})
	}

	fee := cfg.JoiningFee

	// Company revenue: the full joining fee lands on the designated admin
	// account. Skipped, not fatal, when no admin account exists.
	if admin := w.admin(newMember.ID); admin != nil {
		admin.Balance += fee
		admin.TotalEarnings += fee
		addEntry(admin.ID, models.LedgerCompanyRevenue, 0, fee,
			false, fmt.Sprintf("Joining fee from %s", newMember.Username))
	} else {
		log.Printf("no admin account found, skipping company revenue for activation %s", newMember.ID.Hex())
	}

	// Sponsor cascade: direct bonus to the sponsor, then the generation
	// schedule up the sponsor chain (not the tree-parent chain).
	if newMember.SponsorID != nil {
		sponsor := w.get(*newMember.SponsorID)
		if sponsor == nil {
			log.Printf("sponsor %s of member %s not found, skipping sponsor cascade", newMember.SponsorID.Hex(), newMember.ID.Hex())
		} else {
			direct := fee * cfg.DirectBonusPercent / 100
			sponsor.Balance += direct
			sponsor.TotalEarnings += direct
			sponsor.DownlineCount++
			sponsor.CareerVolume += fee
			sponsor.Rank = PromoteRank(sponsor.Rank, sponsor.CareerVolume, sponsor.DownlineCount, cfg.RankThresholds)
			addEntry(sponsor.ID, models.LedgerDirectSponsorBonus, 0, direct,
				false, fmt.Sprintf("Direct sponsor bonus for %s", newMember.Username))

			ancestor := sponsor
			for level, pct := range cfg.GenerationPercents {
				if ancestor.SponsorID == nil {
					break
				}
				next := w.get(*ancestor.SponsorID)
				if next == nil {
					log.Printf("sponsor chain broken at %s (level %d), stopping generation cascade", ancestor.SponsorID.Hex(), level+1)
					break
				}
				ancestor = next

				bonus := fee * pct / 100
				ancestor.Balance += bonus
				ancestor.TotalEarnings += bonus
				ancestor.CareerVolume += fee
				ancestor.Rank = PromoteRank(ancestor.Rank, ancestor.CareerVolume, ancestor.DownlineCount, cfg.RankThresholds)
				addEntry(ancestor.ID, models.LedgerGenerationBonus, level+1, bonus,
					false, fmt.Sprintf("Level %d generation bonus for %s", level+1, newMember.Username))
			}
		}
	}

	// Binary cascade: walk the tree-parent chain, crediting each ancestor's
	// leg counters and flushing matched volume subject to the daily cap.
	prevLeg := newMember.Leg
	parentID := newMember.ParentID
	steps := 0
	for parentID != nil {
		if steps++; steps > binaryWalkLimit {
			log.Printf("binary walk exceeded %d ancestors for activation %s, stopping cascade", binaryWalkLimit, newMember.ID.Hex())
			break
		}
		parent := w.get(*parentID)
		if parent == nil {
			log.Printf("tree parent %s not found, stopping binary cascade", parentID.Hex())
			break
		}

		switch prevLeg {
		case models.LegLeft:
			parent.BinaryLeftCount++
			parent.BinaryLeftVolume += fee
		case models.LegRight:
			parent.BinaryRightCount++
			parent.BinaryRightVolume += fee
		}

		if payout, matchable, capped := flushMatchingBonus(parent, cfg, now); payout > 0 {
			desc := fmt.Sprintf("Binary matching bonus on %.2f matched volume", matchable)
			if capped {
				desc += " (daily cap reached)"
			}
			addEntry(parent.ID, models.LedgerMatchingBonus, 0, payout, capped, desc)
		}

		prevLeg = parent.Leg
		parentID = parent.ParentID
	}

	return ActivationResult{UpdatedMembers: w.updated(), LedgerEntries: entries}
}

// flushMatchingBonus pays the matching bonus on the lesser leg volume,
// clamped to the member's remaining daily cap headroom. When any payout is
// possible the full matched volume is flushed from both legs, even on a
// clamped (partial) payment; when the cap leaves zero headroom nothing is
// flushed and the matched volume carries forward to the next event.
func flushMatchingBonus(m *models.Member, cfg models.CompensationSettings, now time.Time) (payout, matchable float64, capped bool) {
	matchable = m.BinaryLeftVolume
	if m.BinaryRightVolume < matchable {
		matchable = m.BinaryRightVolume
	}
	if matchable <= 0 {
		return 0, 0, false
	}

	candidate := matchable * cfg.MatchingBonusPercent / 100

	today := now.Format(dailyBucketLayout)
	if m.DailyBinaryEarnings.Date != today {
		m.DailyBinaryEarnings = models.DailyBinaryEarnings{Date: today}
	}

	headroom := cfg.DailyMatchingCap - m.DailyBinaryEarnings.Amount
	if headroom <= 0 {
		return 0, matchable, true
	}

	payout = candidate
	if payout > headroom {
		payout = headroom
		capped = true
	}

	m.Balance += payout
	m.TotalEarnings += payout
	m.DailyBinaryEarnings.Amount += payout
	m.BinaryLeftVolume -= matchable
	m.BinaryRightVolume -= matchable
	m.BinaryPaidVolume += matchable
	m.BinaryPaidPairs++

	return payout, matchable, capped
}

// ledgerEntryID derives a stable id from the triggering event, beneficiary,
// kind and level, so a retried activation batch upserts the same entries
// instead of double-crediting.
func ledgerEntryID(eventID, memberID primitive.ObjectID, kind string, level int) string {
	seed := fmt.Sprintf("%s:%s:%s:%d", eventID.Hex(), memberID.Hex(), kind, level)
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(seed)).String()
}

// workingSet holds per-activation copies of member records so the engine
// never mutates its input snapshot.
type workingSet struct {
	byID    map[string]*models.Member
	ordered []*models.Member
}

func newWorkingSet(members []models.Member) *workingSet {
	w := &workingSet{byID: make(map[string]*models.Member, len(members)+1)}
	for i := range members {
		m := members[i]
		w.byID[m.ID.Hex()] = &m
	}
	return w
}

// touch registers a member as mutated so it is included in the output batch.
func (w *workingSet) touch(m *models.Member) {
	key := m.ID.Hex()
	if existing, ok := w.byID[key]; ok {
		for _, u := range w.ordered {
			if u == existing {
				return
			}
		}
		w.ordered = append(w.ordered, existing)
		return
	}
	w.byID[key] = m
	w.ordered = append(w.ordered, m)
}

// get returns the working copy for id, marking it mutated.
func (w *workingSet) get(id primitive.ObjectID) *models.Member {
	m, ok := w.byID[id.Hex()]
	if !ok {
		return nil
	}
	w.touch(m)
	return m
}

// admin returns the designated company account, excluding the member being
// activated (the bootstrap root credits nobody for its own joining fee).
func (w *workingSet) admin(exclude primitive.ObjectID) *models.Member {
	for _, m := range w.byID {
		if m.IsAdmin && m.ID != exclude {
			return w.get(m.ID)
		}
	}
	return nil
}

func (w *workingSet) updated() []models.Member {
	out := make([]models.Member, 0, len(w.ordered))
	for _, m := range w.ordered {
		out = append(out, *m)
	}
	return out
}
