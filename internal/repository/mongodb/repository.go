package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mamadbah2/hatchery/internal/domain/models"
	"github.com/mamadbah2/hatchery/internal/repository"
	"github.com/mamadbah2/hatchery/internal/trajectory"
)

const (
	eggsCollection         = "eggs"
	eggTypesCollection     = "egg_types"
	pinHoleTypesCollection = "pin_hole_types"
	settingsCollection     = "recommendation_settings"
	settingsID             = "global"
)

// MongoDBRepository implements repository.Store for MongoDB.
type MongoDBRepository struct {
	client *mongo.Client
	dbName string
}

var _ repository.Store = (*MongoDBRepository)(nil)

// NewMongoDBRepository connects to uri and verifies the connection.
func NewMongoDBRepository(ctx context.Context, uri string, dbName string) (*MongoDBRepository, error) {
	clientOptions := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	// Ping the database to verify connection
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	return &MongoDBRepository{
		client: client,
		dbName: dbName,
	}, nil
}

func (r *MongoDBRepository) collection(name string) *mongo.Collection {
	return r.client.Database(r.dbName).Collection(name)
}

// CreateEgg inserts a new egg document.
func (r *MongoDBRepository) CreateEgg(ctx context.Context, egg models.Egg) error {
	if _, err := r.collection(eggsCollection).InsertOne(ctx, egg); err != nil {
		return fmt.Errorf("failed to insert egg: %w", err)
	}
	return nil
}

// GetEgg loads one egg by id.
func (r *MongoDBRepository) GetEgg(ctx context.Context, id string) (models.Egg, error) {
	var egg models.Egg
	err := r.collection(eggsCollection).FindOne(ctx, bson.M{"_id": id}).Decode(&egg)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Egg{}, repository.ErrNotFound
	}
	if err != nil {
		return models.Egg{}, fmt.Errorf("failed to load egg %s: %w", id, err)
	}
	return egg, nil
}

// ListEggs returns all eggs, newest first.
func (r *MongoDBRepository) ListEggs(ctx context.Context) ([]models.Egg, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.collection(eggsCollection).Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list eggs: %w", err)
	}
	eggs := []models.Egg{}
	if err := cursor.All(ctx, &eggs); err != nil {
		return nil, fmt.Errorf("failed to decode eggs: %w", err)
	}
	return eggs, nil
}

// UpdateEgg replaces an existing egg document.
func (r *MongoDBRepository) UpdateEgg(ctx context.Context, egg models.Egg) error {
	res, err := r.collection(eggsCollection).ReplaceOne(ctx, bson.M{"_id": egg.ID}, egg)
	if err != nil {
		return fmt.Errorf("failed to update egg %s: %w", egg.ID, err)
	}
	if res.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// DeleteEgg removes an egg document.
func (r *MongoDBRepository) DeleteEgg(ctx context.Context, id string) error {
	res, err := r.collection(eggsCollection).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete egg %s: %w", id, err)
	}
	if res.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// SaveWeightSeries sets dailyWeights with a single update so readers never
// observe a partially written series.
func (r *MongoDBRepository) SaveWeightSeries(ctx context.Context, id string, series trajectory.WeightSeries) error {
	update := bson.M{"$set": bson.M{"dailyWeights": series, "updatedAt": time.Now().UTC()}}
	res, err := r.collection(eggsCollection).UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("failed to save weights of egg %s: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// ListEggTypes returns egg types sorted by name.
func (r *MongoDBRepository) ListEggTypes(ctx context.Context) ([]models.EggType, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
	cursor, err := r.collection(eggTypesCollection).Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list egg types: %w", err)
	}
	types := []models.EggType{}
	if err := cursor.All(ctx, &types); err != nil {
		return nil, fmt.Errorf("failed to decode egg types: %w", err)
	}
	return types, nil
}

// GetEggType loads one egg type.
func (r *MongoDBRepository) GetEggType(ctx context.Context, id string) (models.EggType, error) {
	var t models.EggType
	err := r.collection(eggTypesCollection).FindOne(ctx, bson.M{"_id": id}).Decode(&t)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.EggType{}, repository.ErrNotFound
	}
	if err != nil {
		return models.EggType{}, fmt.Errorf("failed to load egg type %s: %w", id, err)
	}
	return t, nil
}

// SaveEggType upserts an egg type.
func (r *MongoDBRepository) SaveEggType(ctx context.Context, t models.EggType) error {
	opts := options.Replace().SetUpsert(true)
	if _, err := r.collection(eggTypesCollection).ReplaceOne(ctx, bson.M{"_id": t.ID}, t, opts); err != nil {
		return fmt.Errorf("failed to save egg type: %w", err)
	}
	return nil
}

// DeleteEggType removes an egg type.
func (r *MongoDBRepository) DeleteEggType(ctx context.Context, id string) error {
	return r.deleteByID(ctx, eggTypesCollection, id)
}

// ListPinHoleTypes returns pin hole types in natural order.
func (r *MongoDBRepository) ListPinHoleTypes(ctx context.Context) ([]trajectory.PinHoleType, error) {
	cursor, err := r.collection(pinHoleTypesCollection).Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to list pin hole types: %w", err)
	}
	types := []trajectory.PinHoleType{}
	if err := cursor.All(ctx, &types); err != nil {
		return nil, fmt.Errorf("failed to decode pin hole types: %w", err)
	}
	return types, nil
}

// SavePinHoleType upserts a pin hole type.
func (r *MongoDBRepository) SavePinHoleType(ctx context.Context, t trajectory.PinHoleType) error {
	opts := options.Replace().SetUpsert(true)
	if _, err := r.collection(pinHoleTypesCollection).ReplaceOne(ctx, bson.M{"_id": t.ID}, t, opts); err != nil {
		return fmt.Errorf("failed to save pin hole type: %w", err)
	}
	return nil
}

// DeletePinHoleType removes a pin hole type.
func (r *MongoDBRepository) DeletePinHoleType(ctx context.Context, id string) error {
	return r.deleteByID(ctx, pinHoleTypesCollection, id)
}

func (r *MongoDBRepository) deleteByID(ctx context.Context, coll, id string) error {
	res, err := r.collection(coll).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete %s %s: %w", coll, id, err)
	}
	if res.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// GetSettings returns the global settings document, creating it with the
// defaults on first use.
func (r *MongoDBRepository) GetSettings(ctx context.Context) (trajectory.RecommendationSettings, error) {
	var settings trajectory.RecommendationSettings
	err := r.collection(settingsCollection).FindOne(ctx, bson.M{"_id": settingsID}).Decode(&settings)
	if errors.Is(err, mongo.ErrNoDocuments) {
		settings = trajectory.DefaultSettings()
		return settings, r.SaveSettings(ctx, settings)
	}
	if err != nil {
		return trajectory.RecommendationSettings{}, fmt.Errorf("failed to load settings: %w", err)
	}
	return settings, nil
}

// SaveSettings upserts the global settings document.
func (r *MongoDBRepository) SaveSettings(ctx context.Context, settings trajectory.RecommendationSettings) error {
	update := bson.M{"$set": settings}
	opts := options.Update().SetUpsert(true)
	if _, err := r.collection(settingsCollection).UpdateOne(ctx, bson.M{"_id": settingsID}, update, opts); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	return nil
}

// Close closes the MongoDB connection.
func (r *MongoDBRepository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}
