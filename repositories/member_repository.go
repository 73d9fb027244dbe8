// repositories/member_repository.go
package repositories

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ascendra/ascendra_backend/models"
)

const repoTimeout = 10 * time.Second

// MemberRepository is the Mongo-backed member directory.
type MemberRepository struct {
	collection *mongo.Collection
}

func NewMemberRepository(db *mongo.Database) *MemberRepository {
	return &MemberRepository{
		collection: db.Collection("members"),
	}
}

// FindAll loads the whole member set. The compensation engine operates on a
// full in-memory snapshot, so this is the hot read of the approve path.
func (r *MemberRepository) FindAll(ctx context.Context) ([]models.Member, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	cursor, err := r.collection.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var members []models.Member
	if err := cursor.All(ctx, &members); err != nil {
		return nil, err
	}
	return members, nil
}

func (r *MemberRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Member, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *MemberRepository) FindByUsername(ctx context.Context, username string) (*models.Member, error) {
	return r.findOne(ctx, bson.M{"username": username})
}

func (r *MemberRepository) FindByEmail(ctx context.Context, email string) (*models.Member, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *MemberRepository) FindByInviteCode(ctx context.Context, code string) (*models.Member, error) {
	return r.findOne(ctx, bson.M{"inviteCode": code})
}

// FindDownline returns a member's direct sponsees.
func (r *MemberRepository) FindDownline(ctx context.Context, sponsorID primitive.ObjectID) ([]models.Member, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	cursor, err := r.collection.Find(ctx, bson.M{"sponsorId": sponsorID},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var members []models.Member
	if err := cursor.All(ctx, &members); err != nil {
		return nil, err
	}
	return members, nil
}

// BulkUpsert writes an activation batch in one ordered bulk operation.
func (r *MemberRepository) BulkUpsert(ctx context.Context, members []models.Member) error {
	if len(members) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	writes := make([]mongo.WriteModel, 0, len(members))
	for _, m := range members {
		writes = append(writes, mongo.NewReplaceOneModel().
			SetFilter(bson.M{"_id": m.ID}).
			SetReplacement(m).
			SetUpsert(true))
	}

	_, err := r.collection.BulkWrite(ctx, writes, options.BulkWrite().SetOrdered(true))
	return err
}

func (r *MemberRepository) Count(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	return r.collection.CountDocuments(ctx, bson.M{})
}

func (r *MemberRepository) findOne(ctx context.Context, filter bson.M) (*models.Member, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	var member models.Member
	err := r.collection.FindOne(ctx, filter).Decode(&member)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &member, nil
}
