package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const gamesCollection = "games"

type MongoStore struct {
	client *mongo.Client
	games  *mongo.Collection
}

func OpenMongo(ctx context.Context, uri, database string) (*MongoStore, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	clientOptions := options.Client().
		ApplyURI(uri).
		SetMaxConnIdleTime(5 * time.Minute)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	s := &MongoStore{
		client: client,
		games:  client.Database(database).Collection(gamesCollection),
	}
	_, err = s.games.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "endedAt", Value: -1}},
	})
	if err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to create games index: %w", err)
	}
	log.Info().Str("database", database).Msg("mongo-store-ready")
	return s, nil
}

func (s *MongoStore) SaveGame(ctx context.Context, rec *GameRecord) error {
	_, err := s.games.ReplaceOne(ctx,
		bson.M{"_id": rec.ID},
		rec,
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("save game %s: %w", rec.ID, err)
	}
	return nil
}

func (s *MongoStore) GetGame(ctx context.Context, id string) (*GameRecord, error) {
	var rec GameRecord
	err := s.games.FindOne(ctx, bson.M{"_id": id}).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get game %s: %w", id, err)
	}
	return &rec, nil
}

func (s *MongoStore) ListGames(ctx context.Context, limit int) ([]GameRecord, error) {
	opts := options.Find().SetSort(bson.D{{Key: "endedAt", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cursor, err := s.games.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("query games: %w", err)
	}
	var out []GameRecord
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode games: %w", err)
	}
	return out, nil
}

func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}
