package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/bstardust/photo-atlas/internal/exif/exiftest"
	"github.com/bstardust/photo-atlas/internal/geo"
	"github.com/bstardust/photo-atlas/internal/metadata"
	"github.com/bstardust/photo-atlas/internal/preview"
	"github.com/bstardust/photo-atlas/pkg/common"
	"github.com/bstardust/photo-atlas/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var reference = []models.Country{
	{Name: "Australia", Location: models.Location{Lat: -25.27, Lng: 133.78}},
	{Name: "Norway", Location: models.Location{Lat: 60.47, Lng: 8.47}},
}

func writePhoto(t *testing.T, path string, p exiftest.Photo) {
	t.Helper()
	data, err := exiftest.JPEG(p)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0644))
}

func newPipeline(t *testing.T, previews *preview.Generator) *Pipeline {
	t.Helper()
	resolver, err := geo.NewResolver(reference, geo.WithMemo())
	require.NoError(t, err)
	return New(metadata.NewExtractor(metadata.DatePermissive), resolver, previews, Options{
		Concurrency: 4,
		FileTimeout: 10 * time.Second,
	})
}

func TestBuildCatalog(t *testing.T) {
	dir := t.TempDir()
	writePhoto(t, filepath.Join(dir, "sydney.jpg"), exiftest.Photo{
		DateTime: "2019:07:14 10:20:30",
		Width:    8,
		Height:   4,
		LatRef:   "S",
		Lat:      &exiftest.DMS{33, 52, 4},
		LngRef:   "E",
		Lng:      &exiftest.DMS{151, 12, 36},
	})
	writePhoto(t, filepath.Join(dir, "nodate.jpg"), exiftest.Photo{
		LatRef: "N",
		Lat:    &exiftest.DMS{59, 54, 0},
		LngRef: "E",
		Lng:    &exiftest.DMS{10, 45, 0},
	})
	require.NoError(t, os.WriteFile(filepath.Join(dir, "garbage.jpg"), []byte("not a photo"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0644))

	previewDir := t.TempDir()
	gen, err := preview.New(preview.Config{Dir: previewDir, MaxWidth: 4, MaxHeight: 4})
	require.NoError(t, err)

	result, err := newPipeline(t, gen).BuildCatalog(context.Background(), []string{dir})
	require.NoError(t, err)

	assert.Equal(t, []string{"Australia2019"}, result.Catalog.Keys())
	assert.Equal(t, 1, result.Skipped)

	require.Len(t, result.Failures, 1)
	assert.True(t, strings.HasSuffix(result.Failures[0].ID, "garbage.jpg"))
	var decodeErr *common.DecodeError
	assert.True(t, errors.As(result.Failures[0].Err, &decodeErr))

	require.Len(t, result.Records, 2)
	assert.True(t, strings.HasSuffix(result.Records[0].Path, "nodate.jpg"))
	assert.Equal(t, "Norway", result.Records[0].CountryName())

	sydney := result.Catalog["Australia2019"][0]
	assert.Equal(t, uint16(2019), sydney.Date.Year)
	assert.Equal(t, uint32(8), sydney.Width)
	require.NotNil(t, sydney.Location)
	assert.InDelta(t, -33.8678, sydney.Location.Lat, 1e-3)
	assert.InDelta(t, 151.21, sydney.Location.Lng, 1e-3)
	require.NotEmpty(t, sydney.Preview)
	assert.FileExists(t, filepath.Join(previewDir, sydney.Preview))
}

func TestBuildCatalog_OnlyBadFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.jpg"), []byte("junk"), 0644))

	result, err := newPipeline(t, nil).BuildCatalog(context.Background(), []string{dir})
	require.NoError(t, err)

	assert.Empty(t, result.Catalog)
	assert.Empty(t, result.Records)
	assert.Len(t, result.Failures, 1)
}

func TestBuildCatalog_NoSources(t *testing.T) {
	_, err := newPipeline(t, nil).BuildCatalog(context.Background(), nil)

	var cfgErr *common.ConfigError
	assert.True(t, errors.As(err, &cfgErr))
}

func TestBuildCatalog_Canceled(t *testing.T) {
	dir := t.TempDir()
	writePhoto(t, filepath.Join(dir, "a.jpg"), exiftest.Photo{DateTime: "2020:01:01 00:00:00"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newPipeline(t, nil).BuildCatalog(ctx, []string{dir})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBuildCatalog_KeepsPhotoWithDamagedMakerNote(t *testing.T) {
	dir := t.TempDir()
	writePhoto(t, filepath.Join(dir, "oslo.jpg"), exiftest.Photo{
		Make:      "NIKON CORPORATION",
		DateTime:  "2020:05:01 09:00:00",
		MakerNote: []byte{0x4e, 0x69},
		LatRef:    "N",
		Lat:       &exiftest.DMS{59, 54, 0},
		LngRef:    "E",
		Lng:       &exiftest.DMS{10, 45, 0},
	})

	result, err := newPipeline(t, nil).BuildCatalog(context.Background(), []string{dir})
	require.NoError(t, err)

	assert.Empty(t, result.Failures)
	assert.Equal(t, []string{"Norway2020"}, result.Catalog.Keys())
}
