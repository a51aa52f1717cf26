// Package storage mirrors a built catalog into MongoDB.
package storage

import (
	"context"
	"fmt"

	"github.com/bstardust/photo-atlas/internal/catalog"
	"github.com/bstardust/photo-atlas/internal/logger"
	"github.com/bstardust/photo-atlas/pkg/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// GeoPoint is a GeoJSON point, coordinates ordered longitude first
type GeoPoint struct {
	Type        string    `bson:"type"`
	Coordinates []float64 `bson:"coordinates"`
}

type photoDocument struct {
	Path       string    `bson:"_id"`
	Group      string    `bson:"group"`
	Timestamp  string    `bson:"timestamp,omitempty"`
	Year       int       `bson:"year"`
	Month      int       `bson:"month"`
	Day        int       `bson:"day"`
	Width      int64     `bson:"width"`
	Height     int64     `bson:"height"`
	Country    string    `bson:"country"`
	CountryLoc *GeoPoint `bson:"country_location,omitempty"`
	LonLat     *GeoPoint `bson:"lonlat,omitempty"`
	Preview    string    `bson:"preview,omitempty"`
}

func point(loc models.Location) *GeoPoint {
	return &GeoPoint{
		Type:        "Point",
		Coordinates: []float64{float64(loc.Lng), float64(loc.Lat)},
	}
}

func toDocument(group string, rec models.PhotoRecord) photoDocument {
	doc := photoDocument{
		Path:      rec.Path,
		Group:     group,
		Timestamp: rec.Date.Timestamp,
		Year:      int(rec.Date.Year),
		Month:     int(rec.Date.Month),
		Day:       int(rec.Date.Day),
		Width:     int64(rec.Width),
		Height:    int64(rec.Height),
		Preview:   rec.Preview,
	}
	if rec.Location != nil {
		doc.LonLat = point(*rec.Location)
	}
	if rec.Country != nil {
		doc.Country = rec.Country.Name
		doc.CountryLoc = point(rec.Country.Location)
	}
	return doc
}

// MongoPhotoDB stores one document per cataloged photo
type MongoPhotoDB struct {
	mongoClient *mongo.Client
	collection  *mongo.Collection
}

// Connect opens the client and checks the server is reachable
func (db *MongoPhotoDB) Connect(ctx context.Context, connectionString, databaseName, collectionName string) error {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(connectionString))
	if err != nil {
		return fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	db.mongoClient = client
	db.collection = client.Database(databaseName).Collection(collectionName)

	logger.Info("Connected to MongoDB (%s.%s)", databaseName, collectionName)
	return nil
}

func (db *MongoPhotoDB) Close(ctx context.Context) error {
	if db.mongoClient == nil {
		return nil
	}
	if err := db.mongoClient.Disconnect(ctx); err != nil {
		return fmt.Errorf("failed to disconnect from MongoDB: %w", err)
	}
	logger.Debug("Disconnected from MongoDB")
	return nil
}

// EnsureIndexes creates the geospatial and group indexes
func (db *MongoPhotoDB) EnsureIndexes(ctx context.Context) error {
	_, err := db.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "lonlat", Value: "2dsphere"}}},
		{Keys: bson.D{{Key: "group", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

// SaveResult counts the photos written by SaveCatalog
type SaveResult struct {
	Inserted  int64
	Updated   int64
	Unchanged int64
}

// Saved returns the number of photos of the catalog now stored
func (r SaveResult) Saved() int64 {
	return r.Inserted + r.Updated + r.Unchanged
}

func saveResult(res *mongo.BulkWriteResult) SaveResult {
	return SaveResult{
		Inserted:  res.UpsertedCount,
		Updated:   res.ModifiedCount,
		Unchanged: res.MatchedCount - res.ModifiedCount,
	}
}

// SaveCatalog upserts every photo of c keyed by its path.
func (db *MongoPhotoDB) SaveCatalog(ctx context.Context, c catalog.Catalog) (SaveResult, error) {
	var writes []mongo.WriteModel
	for _, key := range c.Keys() {
		for _, rec := range c[key] {
			doc := toDocument(key, rec)
			writes = append(writes, mongo.NewReplaceOneModel().
				SetFilter(bson.D{{Key: "_id", Value: doc.Path}}).
				SetReplacement(doc).
				SetUpsert(true))
		}
	}
	if len(writes) == 0 {
		return SaveResult{}, nil
	}

	res, err := db.collection.BulkWrite(ctx, writes, options.BulkWrite().SetOrdered(false))
	if err != nil {
		return SaveResult{}, fmt.Errorf("failed to save catalog: %w", err)
	}

	saved := saveResult(res)
	logger.Info("Saved %d photos to MongoDB (%d new, %d updated, %d unchanged)",
		saved.Saved(), saved.Inserted, saved.Updated, saved.Unchanged)
	return saved, nil
}

// NearPhotos returns the paths of photos within maxDistance meters of the
// given point, closest first.
func (db *MongoPhotoDB) NearPhotos(ctx context.Context, loc models.Location, maxDistance int) ([]string, error) {
	filter := bson.D{
		{Key: "lonlat", Value: bson.D{
			{Key: "$near", Value: bson.D{
				{Key: "$geometry", Value: point(loc)},
				{Key: "$maxDistance", Value: maxDistance},
			}},
		}},
	}

	cursor, err := db.collection.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to query photos: %w", err)
	}

	var docs []photoDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to read photos: %w", err)
	}

	paths := make([]string, 0, len(docs))
	for _, d := range docs {
		paths = append(paths, d.Path)
	}
	return paths, nil
}
