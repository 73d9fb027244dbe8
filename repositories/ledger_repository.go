// repositories/ledger_repository.go
package repositories

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ascendra/ascendra_backend/models"
)

// LedgerRepository is the append-only financial ledger. Entries are never
// mutated after creation.
type LedgerRepository struct {
	collection *mongo.Collection
}

func NewLedgerRepository(db *mongo.Database) *LedgerRepository {
	return &LedgerRepository{
		collection: db.Collection("ledger"),
	}
}

// AppendBatch writes an activation's entries in one ordered bulk operation.
// Entry ids are deterministic per event, so replays upsert the same
// documents instead of duplicating them.
func (r *LedgerRepository) AppendBatch(ctx context.Context, entries []models.LedgerEntry) error {
	if len(entries) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	writes := make([]mongo.WriteModel, 0, len(entries))
	for _, e := range entries {
		writes = append(writes, mongo.NewReplaceOneModel().
			SetFilter(bson.M{"_id": e.ID}).
			SetReplacement(e).
			SetUpsert(true))
	}

	_, err := r.collection.BulkWrite(ctx, writes, options.BulkWrite().SetOrdered(true))
	return err
}

// FindByMember lists a member's entries, newest first, optionally filtered
// by kind.
func (r *LedgerRepository) FindByMember(ctx context.Context, memberID primitive.ObjectID, kind string) ([]models.LedgerEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	filter := bson.M{"memberId": memberID}
	if kind != "" {
		filter["kind"] = kind
	}

	cursor, err := r.collection.Find(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var entries []models.LedgerEntry
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}
