// services/registration.go
package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"

	"github.com/ascendra/ascendra_backend/models"
	"github.com/ascendra/ascendra_backend/utils"
)

// MemberDirectory is the member store the workflow reads and commits to.
// BulkUpsert must apply the whole batch atomically.
type MemberDirectory interface {
	FindAll(ctx context.Context) ([]models.Member, error)
	FindByUsername(ctx context.Context, username string) (*models.Member, error)
	FindByEmail(ctx context.Context, email string) (*models.Member, error)
	FindByInviteCode(ctx context.Context, code string) (*models.Member, error)
	BulkUpsert(ctx context.Context, members []models.Member) error
	Count(ctx context.Context) (int64, error)
}

// LedgerStore appends activation batches. Entry ids are deterministic, so
// the store must upsert on id to keep retried batches idempotent.
type LedgerStore interface {
	AppendBatch(ctx context.Context, entries []models.LedgerEntry) error
}

// RegistrationQueue holds signups awaiting an admin decision.
type RegistrationQueue interface {
	Insert(ctx context.Context, req models.RegistrationRequest) (*models.RegistrationRequest, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.RegistrationRequest, error)
	FindPending(ctx context.Context) ([]models.RegistrationRequest, error)
	SetStatus(ctx context.Context, id primitive.ObjectID, status string) error
	PendingIdentityExists(ctx context.Context, username, email string) (bool, error)
}

// SettingsProvider exposes the compensation plan tunables.
type SettingsProvider interface {
	Get(ctx context.Context) (models.CompensationSettings, error)
}

// RegistrationService drives a signup from pending request to activated
// member: placement, member construction, compensation and persistence as
// one logical transaction under the activation lock.
type RegistrationService struct {
	members  MemberDirectory
	ledger   LedgerStore
	queue    RegistrationQueue
	settings SettingsProvider
	lock     ActivationLock
	now      func() time.Time
}

func NewRegistrationService(members MemberDirectory, ledger LedgerStore, queue RegistrationQueue, settings SettingsProvider, lock ActivationLock) *RegistrationService {
	return &RegistrationService{
		members:  members,
		ledger:   ledger,
		queue:    queue,
		settings: settings,
		lock:     lock,
		now:      time.Now,
	}
}

// Submit validates a signup and stores it on the pending queue. Nothing in
// the member set changes until an admin approves the request.
func (s *RegistrationService) Submit(ctx context.Context, req models.SignupRequest) (*models.RegistrationRequest, error) {
	req.FullName = utils.SanitizeInput(req.FullName)
	email, err := utils.SanitizeEmail(req.Email)
	if err != nil {
		return nil, &ValidationError{Reason: "invalid email format"}
	}
	req.Email = email

	if err := s.checkIdentityAvailable(ctx, req.Username, req.Email); err != nil {
		return nil, err
	}
	if taken, err := s.queue.PendingIdentityExists(ctx, req.Username, req.Email); err != nil {
		return nil, err
	} else if taken {
		return nil, &ValidationError{Reason: "a pending registration already uses this username or email"}
	}

	count, err := s.members.Count(ctx)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		if req.SponsorCode == "" {
			return nil, &ValidationError{Reason: "sponsor code is required"}
		}
		sponsor, err := s.members.FindByInviteCode(ctx, req.SponsorCode)
		if err != nil {
			return nil, err
		}
		if sponsor == nil {
			return nil, &ValidationError{Reason: "sponsor code does not match any member"}
		}
	}

	if req.PlacementMode == models.PlacementManual {
		if req.PlacementParent == "" {
			return nil, &ValidationError{Reason: "manual placement requires a parent username"}
		}
		if req.PlacementLeg != models.LegLeft && req.PlacementLeg != models.LegRight {
			return nil, &ValidationError{Reason: "manual placement requires a leg"}
		}
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	mode := req.PlacementMode
	if mode == "" {
		mode = models.PlacementAuto
	}

	return s.queue.Insert(ctx, models.RegistrationRequest{
		Username:        req.Username,
		Email:           req.Email,
		Password:        string(hashed),
		FullName:        req.FullName,
		SponsorCode:     req.SponsorCode,
		PlacementMode:   mode,
		PlacementParent: req.PlacementParent,
		PlacementLeg:    req.PlacementLeg,
		Status:          models.RegistrationPending,
		CreatedAt:       s.now(),
	})
}

// Approve activates a pending registration: resolve placement, construct
// the member, run the compensation engine and commit the whole batch. Runs
// under the activation lock so concurrent approvals against the same tree
// region see each other's writes.
func (s *RegistrationService) Approve(ctx context.Context, requestID primitive.ObjectID) (*models.Member, error) {
	req, err := s.queue.FindByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, ErrRequestNotFound
	}
	if req.Status != models.RegistrationPending {
		return nil, ErrRequestNotPending
	}

	release, err := s.lock.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire activation lock: %w", err)
	}
	defer release()

	members, err := s.members.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	// Re-check uniqueness against the locked snapshot; the queue check at
	// submit time cannot see approvals that landed since. A member carrying
	// this request's id is not a duplicate but an earlier Approve that
	// committed and then failed to flip the request status: finish that
	// instead of rejecting it.
	for i := range members {
		if members[i].ID == requestID {
			if err := s.queue.SetStatus(ctx, requestID, models.RegistrationApproved); err != nil {
				return nil, err
			}
			resumed := members[i]
			return &resumed, nil
		}
		if members[i].Username == req.Username || members[i].Email == req.Email {
			if err := s.queue.SetStatus(ctx, requestID, models.RegistrationRejected); err != nil {
				log.Printf("failed to mark duplicate registration %s rejected: %v", requestID.Hex(), err)
			}
			return nil, &ValidationError{Reason: "username or email is already taken"}
		}
	}

	cfg, err := s.settings.Get(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now()
	// The member reuses the request id. Ledger entry ids derive from the
	// activation event id, so a retried approval of the same request
	// regenerates byte-identical ledger ids and the commit below converges
	// instead of double-crediting.
	newMember := models.Member{
		ID:        requestID,
		Username:  req.Username,
		Email:     req.Email,
		Password:  req.Password,
		FullName:  req.FullName,
		Rank:      lowestRank(cfg.RankThresholds),
		CreatedAt: now,
		UpdatedAt: now,
	}

	newMember.InviteCode, err = s.freshInviteCode(ctx)
	if err != nil {
		return nil, err
	}

	if len(members) == 0 {
		// Bootstrap: the first member is the root and the designated
		// company account. No placement, no compensation to pay out.
		newMember.IsAdmin = true
	} else {
		sponsor := findByInviteCode(members, req.SponsorCode)
		rootID := newMember.ID
		if sponsor != nil {
			id := sponsor.ID
			newMember.SponsorID = &id
			rootID = sponsor.ID
		} else {
			// Degraded-continue: a vanished sponsor must not block the
			// registration; placement falls back to the earliest member.
			log.Printf("sponsor code %q no longer resolves, placing registration %s without a sponsor", req.SponsorCode, requestID.Hex())
		}

		placement := ResolvePlacement(members, rootID, req.PlacementMode, req.PlacementParent, req.PlacementLeg)
		parentID := placement.ParentID
		newMember.ParentID = &parentID
		newMember.Leg = placement.Leg
	}

	result := ProcessActivation(newMember, members, cfg, now)
	for i := range result.UpdatedMembers {
		result.UpdatedMembers[i].UpdatedAt = now
	}

	// Ledger first: if the member write below fails, a retry recomputes the
	// same entries from the unchanged snapshot and the id-keyed upserts make
	// re-appending them a no-op. Writing members first would leave credited
	// balances with no backing entries on a ledger failure.
	if err := s.ledger.AppendBatch(ctx, result.LedgerEntries); err != nil {
		return nil, fmt.Errorf("failed to append ledger entries: %w", err)
	}
	if err := s.members.BulkUpsert(ctx, result.UpdatedMembers); err != nil {
		return nil, fmt.Errorf("failed to commit activation batch: %w", err)
	}
	if err := s.queue.SetStatus(ctx, requestID, models.RegistrationApproved); err != nil {
		return nil, err
	}

	return &newMember, nil
}

// Reject discards a pending registration. No member or ledger state changes.
func (s *RegistrationService) Reject(ctx context.Context, requestID primitive.ObjectID) error {
	req, err := s.queue.FindByID(ctx, requestID)
	if err != nil {
		return err
	}
	if req == nil {
		return ErrRequestNotFound
	}
	if req.Status != models.RegistrationPending {
		return ErrRequestNotPending
	}
	return s.queue.SetStatus(ctx, requestID, models.RegistrationRejected)
}

func (s *RegistrationService) checkIdentityAvailable(ctx context.Context, username, email string) error {
	if existing, err := s.members.FindByUsername(ctx, username); err != nil {
		return err
	} else if existing != nil {
		return &ValidationError{Reason: "username is already taken"}
	}
	if existing, err := s.members.FindByEmail(ctx, email); err != nil {
		return err
	} else if existing != nil {
		return &ValidationError{Reason: "email is already registered"}
	}
	return nil
}

func (s *RegistrationService) freshInviteCode(ctx context.Context) (string, error) {
	for attempt := 0; attempt < 5; attempt++ {
		code, err := utils.GenerateInviteCode()
		if err != nil {
			return "", err
		}
		existing, err := s.members.FindByInviteCode(ctx, code)
		if err != nil {
			return "", err
		}
		if existing == nil {
			return code, nil
		}
	}
	return "", fmt.Errorf("failed to generate a unique invite code")
}

func findByInviteCode(members []models.Member, code string) *models.Member {
	if code == "" {
		return nil
	}
	for i := range members {
		if members[i].InviteCode == code {
			return &members[i]
		}
	}
	return nil
}

func lowestRank(ladder []models.RankThreshold) string {
	if len(ladder) == 0 {
		return models.RankStarter
	}
	return ladder[0].Rank
}
