// repositories/settings_repository.go
package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/go-redis/redis/v8"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ascendra/ascendra_backend/models"
)

const (
	settingsDocID    = "compensation"
	settingsCacheKey = "ascendra:settings"
	settingsCacheTTL = 5 * time.Minute
)

// SettingsRepository stores the compensation plan settings as a single
// document, with a short-lived Redis cache in front of Mongo. Redis being
// down only costs the cache.
type SettingsRepository struct {
	collection *mongo.Collection
	redis      *redis.Client
}

func NewSettingsRepository(db *mongo.Database, redisClient *redis.Client) *SettingsRepository {
	return &SettingsRepository{
		collection: db.Collection("settings"),
		redis:      redisClient,
	}
}

// Get returns the current settings, seeding defaults on first run.
func (r *SettingsRepository) Get(ctx context.Context) (models.CompensationSettings, error) {
	if cached, ok := r.fromCache(ctx); ok {
		return cached, nil
	}

	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	var doc struct {
		Settings models.CompensationSettings `bson:"settings"`
	}
	err := r.collection.FindOne(ctx, bson.M{"_id": settingsDocID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		defaults := models.DefaultCompensationSettings()
		if err := r.Update(ctx, defaults); err != nil {
			return models.CompensationSettings{}, err
		}
		return defaults, nil
	}
	if err != nil {
		return models.CompensationSettings{}, err
	}

	r.toCache(ctx, doc.Settings)
	return doc.Settings, nil
}

// Update replaces the settings document and busts the cache.
func (r *SettingsRepository) Update(ctx context.Context, settings models.CompensationSettings) error {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	_, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": settingsDocID},
		bson.M{"$set": bson.M{"settings": settings, "updatedAt": time.Now()}},
		options.Update().SetUpsert(true))
	if err != nil {
		return err
	}

	if r.redis != nil {
		if err := r.redis.Del(ctx, settingsCacheKey).Err(); err != nil {
			log.Printf("Warning: failed to invalidate settings cache: %v", err)
		}
	}
	return nil
}

func (r *SettingsRepository) fromCache(ctx context.Context) (models.CompensationSettings, bool) {
	if r.redis == nil {
		return models.CompensationSettings{}, false
	}
	raw, err := r.redis.Get(ctx, settingsCacheKey).Result()
	if err != nil {
		return models.CompensationSettings{}, false
	}
	var settings models.CompensationSettings
	if err := json.Unmarshal([]byte(raw), &settings); err != nil {
		return models.CompensationSettings{}, false
	}
	return settings, true
}

func (r *SettingsRepository) toCache(ctx context.Context, settings models.CompensationSettings) {
	if r.redis == nil {
		return
	}
	raw, err := json.Marshal(settings)
	if err != nil {
		return
	}
	if err := r.redis.Set(ctx, settingsCacheKey, raw, settingsCacheTTL).Err(); err != nil {
		log.Printf("Warning: failed to cache settings: %v", err)
	}
}
