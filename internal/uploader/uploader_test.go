package uploader

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/bstardust/photo-atlas/internal/catalog"
	"github.com/bstardust/photo-atlas/pkg/models"
	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// Mock S3 Client
type MockS3Client struct {
	mock.Mock
}

func (m *MockS3Client) UploadFile(ctx context.Context, reader io.Reader, objectKey string, size int64, metadata map[string]string, contentType string) error {
	// Drain the reader so the call sees the file contents like a real client
	_, _ = io.Copy(io.Discard, reader)
	args := m.Called(ctx, reader, objectKey, size, metadata, contentType)
	return args.Error(0)
}

func (m *MockS3Client) ObjectExists(ctx context.Context, objectKey string) (bool, error) {
	args := m.Called(ctx, objectKey)
	return args.Bool(0), args.Error(1)
}

func (m *MockS3Client) GetPresignedURL(ctx context.Context, objectKey string, expiry time.Duration) (string, error) {
	args := m.Called(ctx, objectKey, expiry)
	return args.String(0), args.Error(1)
}

func (m *MockS3Client) GetBucketName() string {
	args := m.Called()
	return args.String(0)
}

func fastRetry() RetryConfig {
	cfg := DefaultRetryConfig()
	cfg.MaxRetries = 2
	cfg.InitialBackoff = time.Millisecond
	cfg.MaxBackoff = 5 * time.Millisecond
	return cfg
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0644))
	return p
}

func TestUploader_Run(t *testing.T) {
	dir := t.TempDir()
	mockS3 := new(MockS3Client)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	items := []Item{
		{Key: "previews/a.jpg", Path: writeFile(t, dir, "a.jpg", "aaaa")},
		{Key: "previews/b.jpg", Path: writeFile(t, dir, "b.jpg", "bb")},
		{Key: "catalog.json", Path: writeFile(t, dir, "catalog.json", "{}"), Overwrite: true},
	}

	// First preview doesn't exist yet, second one does
	mockS3.On("ObjectExists", mock.Anything, "previews/a.jpg").Return(false, nil)
	mockS3.On("ObjectExists", mock.Anything, "previews/b.jpg").Return(true, nil)
	mockS3.On("UploadFile", mock.Anything, mock.Anything, "previews/a.jpg", int64(4), mock.Anything, "image/jpeg").Return(nil)
	mockS3.On("UploadFile", mock.Anything, mock.Anything, "catalog.json", int64(2), mock.Anything, "application/json").Return(nil)

	up := New(ctx, mockS3, Options{Concurrency: 2, SkipExisting: true, Retry: fastRetry()})
	summary, err := up.Run(items)

	assert.NoError(t, err)
	assert.Equal(t, 3, summary.Total)
	assert.Equal(t, 2, summary.Completed)
	assert.Equal(t, 1, summary.Skipped)
	mockS3.AssertExpectations(t)
	mockS3.AssertNotCalled(t, "ObjectExists", mock.Anything, "catalog.json")
}

func TestUploader_Run_WithError(t *testing.T) {
	dir := t.TempDir()
	mockS3 := new(MockS3Client)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	items := []Item{{Key: "catalog.json", Path: writeFile(t, dir, "catalog.json", "{}")}}

	// Access denied is not retried
	uploadErr := minio.ErrorResponse{Code: "AccessDenied", Message: "Access Denied.", StatusCode: http.StatusForbidden}
	mockS3.On("UploadFile", mock.Anything, mock.Anything, "catalog.json", int64(2), mock.Anything, "application/json").Return(uploadErr).Once()

	up := New(ctx, mockS3, Options{Retry: fastRetry()})
	summary, err := up.Run(items)

	require.Error(t, err)
	var resp minio.ErrorResponse
	require.True(t, errors.As(err, &resp))
	assert.Equal(t, "AccessDenied", resp.Code)
	assert.Contains(t, err.Error(), "catalog.json")
	assert.Equal(t, 1, summary.Errors)
	mockS3.AssertNumberOfCalls(t, "UploadFile", 1)
}

func TestUploader_Run_RetriesTransientErrors(t *testing.T) {
	dir := t.TempDir()
	mockS3 := new(MockS3Client)

	items := []Item{{Key: "catalog.json", Path: writeFile(t, dir, "catalog.json", "{}")}}

	mockS3.On("UploadFile", mock.Anything, mock.Anything, "catalog.json", int64(2), mock.Anything, mock.Anything).
		Return(minio.ErrorResponse{Code: "SlowDown", StatusCode: http.StatusServiceUnavailable}).Once()
	mockS3.On("UploadFile", mock.Anything, mock.Anything, "catalog.json", int64(2), mock.Anything, mock.Anything).
		Return(nil).Once()

	up := New(context.Background(), mockS3, Options{Retry: fastRetry()})
	summary, err := up.Run(items)

	assert.NoError(t, err)
	assert.Equal(t, 1, summary.Completed)
	mockS3.AssertNumberOfCalls(t, "UploadFile", 2)
}

func TestUploader_Run_GivesUpAfterMaxRetries(t *testing.T) {
	dir := t.TempDir()
	mockS3 := new(MockS3Client)

	items := []Item{{Key: "catalog.json", Path: writeFile(t, dir, "catalog.json", "{}")}}

	netErr := &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}
	mockS3.On("UploadFile", mock.Anything, mock.Anything, "catalog.json", int64(2), mock.Anything, mock.Anything).Return(netErr)

	up := New(context.Background(), mockS3, Options{Retry: fastRetry()})
	_, err := up.Run(items)

	require.Error(t, err)
	assert.ErrorIs(t, err, netErr)
	assert.Contains(t, err.Error(), "gave up after 3 attempts")
	mockS3.AssertNumberOfCalls(t, "UploadFile", 3)
}

func TestUploader_Run_PlainErrorIsNotRetried(t *testing.T) {
	dir := t.TempDir()
	mockS3 := new(MockS3Client)

	items := []Item{{Key: "catalog.json", Path: writeFile(t, dir, "catalog.json", "{}")}}
	mockS3.On("UploadFile", mock.Anything, mock.Anything, "catalog.json", int64(2), mock.Anything, mock.Anything).
		Return(errors.New("entity too large"))

	up := New(context.Background(), mockS3, Options{Retry: fastRetry()})
	_, err := up.Run(items)

	require.Error(t, err)
	mockS3.AssertNumberOfCalls(t, "UploadFile", 1)
}

func TestRetryConfig_Backoff(t *testing.T) {
	rc := RetryConfig{InitialBackoff: 100 * time.Millisecond, MaxBackoff: time.Second}

	assert.InDelta(t, float64(100*time.Millisecond), float64(rc.backoff(1)), float64(20*time.Millisecond))
	assert.InDelta(t, float64(400*time.Millisecond), float64(rc.backoff(3)), float64(80*time.Millisecond))
	assert.LessOrEqual(t, rc.backoff(30), time.Duration(1.2*float64(time.Second)))
}

func TestUploader_Run_DryRun(t *testing.T) {
	dir := t.TempDir()
	mockS3 := new(MockS3Client)

	items := []Item{{Key: "catalog.json", Path: writeFile(t, dir, "catalog.json", "{}")}}

	up := New(context.Background(), mockS3, Options{DryRun: true})
	summary, err := up.Run(items)

	assert.NoError(t, err)
	assert.Equal(t, 1, summary.Completed)
	mockS3.AssertNotCalled(t, "UploadFile", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestUploader_Run_MissingFile(t *testing.T) {
	mockS3 := new(MockS3Client)

	up := New(context.Background(), mockS3, Options{})
	_, err := up.Run([]Item{{Key: "gone.jpg", Path: filepath.Join(t.TempDir(), "gone.jpg")}})

	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestCatalogItems(t *testing.T) {
	date := models.CapturedAt{Timestamp: "2021:06:01 12:00:00", Year: 2021, Month: 6, Day: 1}
	norway := models.Country{Name: "Norway"}
	c := catalog.Build([]models.PhotoRecord{
		models.PhotoRecord{Path: "a.jpg", Date: date}.WithCountry(norway).WithPreview("a.jpg.jpg"),
		models.PhotoRecord{Path: "b.jpg", Date: date}.WithCountry(norway),
	})

	items := CatalogItems(filepath.Join("out", "catalog.json"), "previews-dir", c)

	require.Len(t, items, 2)
	assert.Equal(t, "previews/a.jpg.jpg", items[0].Key)
	assert.Equal(t, filepath.Join("previews-dir", "a.jpg.jpg"), items[0].Path)
	assert.Equal(t, "Norway2021", items[0].Metadata["catalog-group"])
	assert.Equal(t, "a.jpg", items[0].Metadata["source-path"])
	assert.False(t, items[0].Overwrite)

	assert.Equal(t, "catalog.json", items[1].Key)
	assert.Equal(t, "2", items[1].Metadata["photo-count"])
	assert.True(t, items[1].Overwrite)

	assert.Len(t, CatalogItems("catalog.json", "", c), 1)
}
