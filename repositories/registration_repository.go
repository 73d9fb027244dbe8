// repositories/registration_repository.go
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

// RegistrationRepository holds signups awaiting an admin decision.
type RegistrationRepository struct {
	collection *mongo.Collection
}

func NewRegistrationRepository(db *mongo.Database) *RegistrationRepository {
	return &RegistrationRepository{
		collection: db.Collection("pending_registrations"),
	}
}

func (r *RegistrationRepository) Insert(ctx context.Context, req models.RegistrationRequest) (*models.RegistrationRequest, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	req.ID = primitive.NewObjectID()
	if _, err := r.collection.InsertOne(ctx, req); err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *RegistrationRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.RegistrationRequest, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	var req models.RegistrationRequest
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&req)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *RegistrationRepository) FindPending(ctx context.Context) ([]models.RegistrationRequest, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	cursor, err := r.collection.Find(ctx, bson.M{"status": models.RegistrationPending},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var requests []models.RegistrationRequest
	if err := cursor.All(ctx, &requests); err != nil {
		return nil, err
	}
	return requests, nil
}

func (r *RegistrationRepository) SetStatus(ctx context.Context, id primitive.ObjectID, status string) error {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	now := time.Now()
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{
			"status":    status,
			"decidedAt": now,
		},
	})
	return err
}

// PendingIdentityExists reports whether another pending request already
// claims the username or email.
func (r *RegistrationRepository) PendingIdentityExists(ctx context.Context, username, email string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, bson.M{
		"status": models.RegistrationPending,
		"$or": []bson.M{
			{"username": username},
			{"email": email},
		},
	})
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
