package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ascendra/ascendra_backend/models"
)

// In-memory fakes for the repository interfaces.

type fakeDirectory struct {
	members []models.Member
}

func (d *fakeDirectory) FindAll(ctx context.Context) ([]models.Member, error) {
	out := make([]models.Member, len(d.members))
	copy(out, d.members)
	return out, nil
}

func (d *fakeDirectory) FindByUsername(ctx context.Context, username string) (*models.Member, error) {
	return d.find(func(m models.Member) bool { return m.Username == username }), nil
}

func (d *fakeDirectory) FindByEmail(ctx context.Context, email string) (*models.Member, error) {
	return d.find(func(m models.Member) bool { return m.Email == email }), nil
}

func (d *fakeDirectory) FindByInviteCode(ctx context.Context, code string) (*models.Member, error) {
	return d.find(func(m models.Member) bool { return m.InviteCode == code }), nil
}

func (d *fakeDirectory) BulkUpsert(ctx context.Context, members []models.Member) error {
	for _, u := range members {
		replaced := false
		for i := range d.members {
			if d.members[i].ID == u.ID {
				d.members[i] = u
				replaced = true
				break
			}
		}
		if !replaced {
			d.members = append(d.members, u)
		}
	}
	return nil
}

func (d *fakeDirectory) Count(ctx context.Context) (int64, error) {
	return int64(len(d.members)), nil
}

func (d *fakeDirectory) find(match func(models.Member) bool) *models.Member {
	for i := range d.members {
		if match(d.members[i]) {
			m := d.members[i]
			return &m
		}
	}
	return nil
}

type fakeLedger struct {
	entries  map[string]models.LedgerEntry
	failNext error
}

func (l *fakeLedger) AppendBatch(ctx context.Context, entries []models.LedgerEntry) error {
	if l.failNext != nil {
		err := l.failNext
		l.failNext = nil
		return err
	}
	if l.entries == nil {
		l.entries = make(map[string]models.LedgerEntry)
	}
	for _, e := range entries {
		l.entries[e.ID] = e
	}
	return nil
}

type fakeQueue struct {
	requests map[string]*models.RegistrationRequest
}

func (q *fakeQueue) Insert(ctx context.Context, req models.RegistrationRequest) (*models.RegistrationRequest, error) {
	if q.requests == nil {
		q.requests = make(map[string]*models.RegistrationRequest)
	}
	req.ID = primitive.NewObjectID()
	q.requests[req.ID.Hex()] = &req
	return &req, nil
}

func (q *fakeQueue) FindByID(ctx context.Context, id primitive.ObjectID) (*models.RegistrationRequest, error) {
	req, ok := q.requests[id.Hex()]
	if !ok {
		return nil, nil
	}
	copied := *req
	return &copied, nil
}

func (q *fakeQueue) FindPending(ctx context.Context) ([]models.RegistrationRequest, error) {
	var out []models.RegistrationRequest
	for _, req := range q.requests {
		if req.Status == models.RegistrationPending {
			out = append(out, *req)
		}
	}
	return out, nil
}

func (q *fakeQueue) SetStatus(ctx context.Context, id primitive.ObjectID, status string) error {
	if req, ok := q.requests[id.Hex()]; ok {
		req.Status = status
	}
	return nil
}

func (q *fakeQueue) PendingIdentityExists(ctx context.Context, username, email string) (bool, error) {
	for _, req := range q.requests {
		if req.Status == models.RegistrationPending && (req.Username == username || req.Email == email) {
			return true, nil
		}
	}
	return false, nil
}

type fakeSettings struct {
	cfg models.CompensationSettings
}

func (s *fakeSettings) Get(ctx context.Context) (models.CompensationSettings, error) {
	return s.cfg, nil
}

type registrationFixture struct {
	service   *RegistrationService
	directory *fakeDirectory
	ledger    *fakeLedger
	queue     *fakeQueue
}

func newRegistrationFixture() *registrationFixture {
	directory := &fakeDirectory{}
	ledger := &fakeLedger{}
	queue := &fakeQueue{}
	settings := &fakeSettings{cfg: models.DefaultCompensationSettings()}
	// Nil Redis exercises the local-mutex path of the lock.
	service := NewRegistrationService(directory, ledger, queue, settings, NewRedisActivationLock(nil))
	return &registrationFixture{service: service, directory: directory, ledger: ledger, queue: queue}
}

func signup(username string) models.SignupRequest {
	return models.SignupRequest{
		Username:      username,
		Email:         username + "@example.com",
		Password:      "correct horse battery",
		FullName:      "Test Member",
		PlacementMode: models.PlacementAuto,
	}
}

func (f *registrationFixture) bootstrapRoot(t *testing.T) *models.Member {
	t.Helper()
	req, err := f.service.Submit(context.Background(), signup("root"))
	require.NoError(t, err)
	member, err := f.service.Approve(context.Background(), req.ID)
	require.NoError(t, err)
	return member
}

func TestRegistrationService_BootstrapRoot(t *testing.T) {
	f := newRegistrationFixture()

	root := f.bootstrapRoot(t)

	assert.True(t, root.IsAdmin)
	assert.Nil(t, root.SponsorID)
	assert.Nil(t, root.ParentID)
	assert.Equal(t, models.RankStarter, root.Rank)
	assert.Contains(t, root.InviteCode, "MBR-")
	// Nobody to pay for the first member.
	assert.Empty(t, f.ledger.entries)
	assert.Zero(t, root.Balance)
}

func TestRegistrationService_SubmitRequiresSponsorCode(t *testing.T) {
	f := newRegistrationFixture()
	f.bootstrapRoot(t)

	_, err := f.service.Submit(context.Background(), signup("alice"))
	require.Error(t, err)
	assert.True(t, IsValidationError(err))
}

func TestRegistrationService_SubmitRejectsDuplicateUsername(t *testing.T) {
	f := newRegistrationFixture()
	root := f.bootstrapRoot(t)

	dup := signup("root")
	dup.Email = "other@example.com"
	dup.SponsorCode = root.InviteCode
	_, err := f.service.Submit(context.Background(), dup)
	require.Error(t, err)
	assert.True(t, IsValidationError(err))
}

func TestRegistrationService_SubmitRejectsDuplicatePendingIdentity(t *testing.T) {
	f := newRegistrationFixture()
	root := f.bootstrapRoot(t)

	req := signup("alice")
	req.SponsorCode = root.InviteCode
	_, err := f.service.Submit(context.Background(), req)
	require.NoError(t, err)

	_, err = f.service.Submit(context.Background(), req)
	require.Error(t, err)
	assert.True(t, IsValidationError(err))
}

func TestRegistrationService_SubmitRejectsUnknownSponsor(t *testing.T) {
	f := newRegistrationFixture()
	f.bootstrapRoot(t)

	req := signup("alice")
	req.SponsorCode = "MBR-ZZZZZZ"
	_, err := f.service.Submit(context.Background(), req)
	require.Error(t, err)
	assert.True(t, IsValidationError(err))
}

func TestRegistrationService_ApproveActivatesAndPays(t *testing.T) {
	f := newRegistrationFixture()
	root := f.bootstrapRoot(t)

	req := signup("alice")
	req.SponsorCode = root.InviteCode
	pending, err := f.service.Submit(context.Background(), req)
	require.NoError(t, err)

	alice, err := f.service.Approve(context.Background(), pending.ID)
	require.NoError(t, err)

	require.NotNil(t, alice.SponsorID)
	assert.Equal(t, root.ID, *alice.SponsorID)
	require.NotNil(t, alice.ParentID)
	assert.Equal(t, root.ID, *alice.ParentID)
	assert.Equal(t, models.LegLeft, alice.Leg)

	// Root collects company revenue plus the direct sponsor bonus.
	updatedRoot, err := f.directory.FindByUsername(context.Background(), "root")
	require.NoError(t, err)
	assert.Equal(t, 1150.0, updatedRoot.Balance)
	assert.Equal(t, 1, updatedRoot.DownlineCount)
	assert.Len(t, f.ledger.entries, 2)

	stored, err := f.queue.FindByID(context.Background(), pending.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RegistrationApproved, stored.Status)

	// A decided request cannot be approved twice.
	_, err = f.service.Approve(context.Background(), pending.ID)
	assert.ErrorIs(t, err, ErrRequestNotPending)
}

func TestRegistrationService_ApproveHonorsManualPlacement(t *testing.T) {
	f := newRegistrationFixture()
	root := f.bootstrapRoot(t)

	// alice fills root's left leg via auto placement.
	req := signup("alice")
	req.SponsorCode = root.InviteCode
	pending, err := f.service.Submit(context.Background(), req)
	require.NoError(t, err)
	_, err = f.service.Approve(context.Background(), pending.ID)
	require.NoError(t, err)

	// bob asks for alice's right leg explicitly.
	req = signup("bob")
	req.SponsorCode = root.InviteCode
	req.PlacementMode = models.PlacementManual
	req.PlacementParent = "alice"
	req.PlacementLeg = models.LegRight
	pending, err = f.service.Submit(context.Background(), req)
	require.NoError(t, err)

	bob, err := f.service.Approve(context.Background(), pending.ID)
	require.NoError(t, err)

	alice, err := f.directory.FindByUsername(context.Background(), "alice")
	require.NoError(t, err)
	require.NotNil(t, bob.ParentID)
	assert.Equal(t, alice.ID, *bob.ParentID)
	assert.Equal(t, models.LegRight, bob.Leg)
}

func TestRegistrationService_ApproveDuplicateIdentityRejects(t *testing.T) {
	f := newRegistrationFixture()
	root := f.bootstrapRoot(t)

	// A pending request whose username was claimed after submission.
	f.queue.Insert(context.Background(), models.RegistrationRequest{
		Username:    "root",
		Email:       "late@example.com",
		SponsorCode: root.InviteCode,
		Status:      models.RegistrationPending,
	})
	var requestID primitive.ObjectID
	for _, req := range f.queue.requests {
		if req.Email == "late@example.com" {
			requestID = req.ID
		}
	}

	_, err := f.service.Approve(context.Background(), requestID)
	require.Error(t, err)
	assert.True(t, IsValidationError(err))

	stored, _ := f.queue.FindByID(context.Background(), requestID)
	assert.Equal(t, models.RegistrationRejected, stored.Status)
	// No member or ledger mutations happened.
	assert.Len(t, f.directory.members, 1)
	assert.Empty(t, f.ledger.entries)
}

func TestRegistrationService_RejectLeavesNoTrace(t *testing.T) {
	f := newRegistrationFixture()
	root := f.bootstrapRoot(t)

	req := signup("alice")
	req.SponsorCode = root.InviteCode
	pending, err := f.service.Submit(context.Background(), req)
	require.NoError(t, err)

	require.NoError(t, f.service.Reject(context.Background(), pending.ID))

	stored, _ := f.queue.FindByID(context.Background(), pending.ID)
	assert.Equal(t, models.RegistrationRejected, stored.Status)
	assert.Len(t, f.directory.members, 1)
	assert.Empty(t, f.ledger.entries)

	assert.ErrorIs(t, f.service.Reject(context.Background(), pending.ID), ErrRequestNotPending)
}

func TestRegistrationService_SubmitManualPlacementRequiresLeg(t *testing.T) {
	f := newRegistrationFixture()
	root := f.bootstrapRoot(t)

	req := signup("alice")
	req.SponsorCode = root.InviteCode
	req.PlacementMode = models.PlacementManual
	req.PlacementParent = "root"
	_, err := f.service.Submit(context.Background(), req)
	require.Error(t, err)
	assert.True(t, IsValidationError(err))
}

func TestRegistrationService_ApproveRetriesAfterLedgerFailure(t *testing.T) {
	f := newRegistrationFixture()
	root := f.bootstrapRoot(t)

	req := signup("alice")
	req.SponsorCode = root.InviteCode
	pending, err := f.service.Submit(context.Background(), req)
	require.NoError(t, err)

	f.ledger.failNext = errors.New("ledger write refused")
	_, err = f.service.Approve(context.Background(), pending.ID)
	require.Error(t, err)

	// The ledger write comes first, so the failed attempt committed nothing:
	// no credited balances without backing entries, and the request stays
	// approvable.
	unchangedRoot, err := f.directory.FindByUsername(context.Background(), "root")
	require.NoError(t, err)
	assert.Zero(t, unchangedRoot.Balance)
	assert.Len(t, f.directory.members, 1)
	assert.Empty(t, f.ledger.entries)
	stored, _ := f.queue.FindByID(context.Background(), pending.ID)
	assert.Equal(t, models.RegistrationPending, stored.Status)

	// The retry converges: same member id, same ledger entry ids.
	alice, err := f.service.Approve(context.Background(), pending.ID)
	require.NoError(t, err)
	assert.Equal(t, pending.ID, alice.ID)

	updatedRoot, err := f.directory.FindByUsername(context.Background(), "root")
	require.NoError(t, err)
	assert.Equal(t, 1150.0, updatedRoot.Balance)
	assert.Len(t, f.ledger.entries, 2)
	stored, _ = f.queue.FindByID(context.Background(), pending.ID)
	assert.Equal(t, models.RegistrationApproved, stored.Status)
}

func TestRegistrationService_ApproveResumesCommittedRequest(t *testing.T) {
	f := newRegistrationFixture()
	root := f.bootstrapRoot(t)

	req := signup("alice")
	req.SponsorCode = root.InviteCode
	pending, err := f.service.Submit(context.Background(), req)
	require.NoError(t, err)
	alice, err := f.service.Approve(context.Background(), pending.ID)
	require.NoError(t, err)

	// Simulate a crash between the member commit and the status flip: the
	// member exists but the request still reads pending.
	require.NoError(t, f.queue.SetStatus(context.Background(), pending.ID, models.RegistrationPending))

	resumed, err := f.service.Approve(context.Background(), pending.ID)
	require.NoError(t, err)
	assert.Equal(t, alice.ID, resumed.ID)

	// Resuming flips the status and credits nothing twice.
	updatedRoot, err := f.directory.FindByUsername(context.Background(), "root")
	require.NoError(t, err)
	assert.Equal(t, 1150.0, updatedRoot.Balance)
	assert.Len(t, f.ledger.entries, 2)
	assert.Len(t, f.directory.members, 2)
	stored, _ := f.queue.FindByID(context.Background(), pending.ID)
	assert.Equal(t, models.RegistrationApproved, stored.Status)
}

func TestRegistrationService_ApproveUnknownRequest(t *testing.T) {
	f := newRegistrationFixture()
	_, err := f.service.Approve(context.Background(), primitive.NewObjectID())
	assert.ErrorIs(t, err, ErrRequestNotFound)
}
