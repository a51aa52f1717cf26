package storage

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/bstardust/photo-atlas/internal/catalog"
	"github.com/bstardust/photo-atlas/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

func record() models.PhotoRecord {
	return models.PhotoRecord{
		Path:     "trip/oslo.jpg",
		Date:     models.CapturedAt{Timestamp: "2021:06:01 12:00:00", Year: 2021, Month: 6, Day: 1},
		Width:    4000,
		Height:   3000,
		Location: &models.Location{Lat: 59.91, Lng: 10.75},
	}.WithCountry(models.Country{Name: "Norway", Location: models.Location{Lat: 60.47, Lng: 8.47}})
}

func TestToDocument(t *testing.T) {
	doc := toDocument("Norway2021", record())

	assert.Equal(t, "trip/oslo.jpg", doc.Path)
	assert.Equal(t, "Norway2021", doc.Group)
	assert.Equal(t, 2021, doc.Year)
	assert.Equal(t, "Norway", doc.Country)
	require.NotNil(t, doc.LonLat)
	assert.Equal(t, "Point", doc.LonLat.Type)
	assert.InDelta(t, 10.75, doc.LonLat.Coordinates[0], 1e-4)
	assert.InDelta(t, 59.91, doc.LonLat.Coordinates[1], 1e-4)
}

func TestToDocument_NoLocation(t *testing.T) {
	rec := record()
	rec.Location = nil
	rec.Country = nil

	doc := toDocument("x", rec)
	assert.Nil(t, doc.LonLat)
	assert.Nil(t, doc.CountryLoc)

	raw, err := bson.Marshal(doc)
	require.NoError(t, err)

	var m bson.M
	require.NoError(t, bson.Unmarshal(raw, &m))
	assert.NotContains(t, m, "lonlat")
	assert.Equal(t, "trip/oslo.jpg", m["_id"])
}

func TestSaveResult(t *testing.T) {
	first := saveResult(&mongo.BulkWriteResult{UpsertedCount: 3})
	assert.Equal(t, SaveResult{Inserted: 3}, first)
	assert.Equal(t, int64(3), first.Saved())

	again := saveResult(&mongo.BulkWriteResult{MatchedCount: 3, ModifiedCount: 1})
	assert.Equal(t, SaveResult{Updated: 1, Unchanged: 2}, again)
	assert.Equal(t, int64(3), again.Saved())
}

func TestMongoPhotoDB_Integration(t *testing.T) {
	uri := os.Getenv("MONGO_TEST_URI")
	if uri == "" {
		t.Skip("Skipping MongoDB integration test. Set MONGO_TEST_URI to run.")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db := &MongoPhotoDB{}
	require.NoError(t, db.Connect(ctx, uri, "photo_atlas_test", "photos"))
	defer db.Close(ctx)
	defer db.collection.Drop(ctx)

	require.NoError(t, db.EnsureIndexes(ctx))

	c := catalog.Build([]models.PhotoRecord{record()})
	saved, err := db.SaveCatalog(ctx, c)
	require.NoError(t, err)
	assert.Equal(t, SaveResult{Inserted: 1}, saved)

	// Saving the same catalog again still accounts for every photo
	saved, err = db.SaveCatalog(ctx, c)
	require.NoError(t, err)
	assert.Equal(t, SaveResult{Unchanged: 1}, saved)
	assert.Equal(t, int64(1), saved.Saved())

	paths, err := db.NearPhotos(ctx, models.Location{Lat: 59.9, Lng: 10.7}, 10000)
	require.NoError(t, err)
	assert.Equal(t, []string{"trip/oslo.jpg"}, paths)
}
