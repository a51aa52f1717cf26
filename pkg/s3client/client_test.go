package s3client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_Validate(t *testing.T) {
	valid := Config{Endpoint: "s3.example.com", Bucket: "photos", AccessKey: "a", SecretKey: "s"}
	assert.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing endpoint", func(c *Config) { c.Endpoint = "" }},
		{"missing bucket", func(c *Config) { c.Bucket = "" }},
		{"missing access key", func(c *Config) { c.AccessKey = "" }},
		{"missing secret key", func(c *Config) { c.SecretKey = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestNew_InvalidConfig(t *testing.T) {
	_, err := New(context.Background(), Config{Bucket: "photos"})
	assert.Error(t, err)
}

func TestConfig_EndpointHost(t *testing.T) {
	assert.Equal(t, "s3.example.com", Config{Endpoint: "https://s3.example.com"}.endpointHost())
	assert.Equal(t, "localhost:9000", Config{Endpoint: "http://localhost:9000"}.endpointHost())
	assert.Equal(t, "localhost:9000", Config{Endpoint: "localhost:9000"}.endpointHost())
}

func TestObjectKey(t *testing.T) {
	tests := []struct {
		prefix, key, want string
	}{
		{"", "catalog.json", "catalog.json"},
		{"atlas", "catalog.json", "atlas/catalog.json"},
		{"atlas/", "/previews/a.jpg", "atlas/previews/a.jpg"},
		{"/atlas/2024/", "previews/a.jpg", "atlas/2024/previews/a.jpg"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, objectKey(tt.prefix, tt.key), "prefix=%q key=%q", tt.prefix, tt.key)
	}
}

func TestDetectContentType(t *testing.T) {
	assert.Equal(t, "image/jpeg", DetectContentType("previews/a.JPG"))
	assert.Equal(t, "application/json", DetectContentType("catalog.json"))
	assert.Equal(t, "text/csv", DetectContentType("countries.csv"))
	assert.Equal(t, "application/octet-stream", DetectContentType("blob"))
}

func TestIsImageFile(t *testing.T) {
	assert.True(t, IsImageFile("a.jpeg"))
	assert.True(t, IsImageFile("a.HEIC"))
	assert.False(t, IsImageFile("a.mp4"))
	assert.False(t, IsImageFile("catalog.json"))
}

func TestErrorClassification(t *testing.T) {
	notFound := minio.ErrorResponse{Code: "NoSuchKey", Message: "The specified key does not exist.", StatusCode: http.StatusNotFound}
	denied := minio.ErrorResponse{Code: "AccessDenied", Message: "Access Denied.", StatusCode: http.StatusForbidden}
	slowDown := minio.ErrorResponse{Code: "SlowDown", Message: "Please reduce your request rate.", StatusCode: http.StatusServiceUnavailable}
	badGateway := minio.ErrorResponse{Code: "BadGateway", StatusCode: http.StatusBadGateway}
	refused := &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}

	assert.True(t, IsNotFoundError(notFound))
	assert.True(t, IsNotFoundError(fmt.Errorf("stat: %w", notFound)))
	assert.True(t, IsNotFoundError(fmt.Errorf("bucket: %w", ErrBucketNotFound)))
	assert.False(t, IsNotFoundError(denied))
	assert.False(t, IsNotFoundError(errors.New("no such thing")))
	assert.False(t, IsNotFoundError(nil))

	assert.True(t, IsAuthError(denied))
	assert.True(t, IsAuthError(fmt.Errorf("put: %w", denied)))
	assert.False(t, IsAuthError(errors.New("access denied")))
	assert.False(t, IsAuthError(nil))

	assert.True(t, IsTransient(fmt.Errorf("put: %w", slowDown)))
	assert.True(t, IsTransient(badGateway))
	assert.True(t, IsTransient(fmt.Errorf("put: %w", refused)))
	assert.True(t, IsTransient(io.ErrUnexpectedEOF))
	assert.False(t, IsTransient(denied))
	assert.False(t, IsTransient(notFound))
	assert.False(t, IsTransient(errors.New("timeout")))

	assert.Equal(t, "Access Denied. (S3 AccessDenied, HTTP 403)", FormatError(fmt.Errorf("put: %w", denied)))
	assert.Equal(t, "boom", FormatError(errors.New("boom")))
}

// TestClient_Integration runs against a live S3 endpoint
func TestClient_Integration(t *testing.T) {
	if os.Getenv("INTEGRATION_TEST") != "true" {
		t.Skip("Skipping integration test. Set INTEGRATION_TEST=true to run.")
	}

	cfg := Config{
		Endpoint:  os.Getenv("S3_ENDPOINT"),
		Region:    os.Getenv("S3_REGION"),
		Bucket:    os.Getenv("S3_BUCKET"),
		AccessKey: os.Getenv("S3_ACCESS_KEY"),
		SecretKey: os.Getenv("S3_SECRET_KEY"),
		UseSSL:    os.Getenv("S3_USE_SSL") != "false",
		Prefix:    "photo-atlas-integration-test",
	}
	if cfg.Validate() != nil {
		t.Skip("Skipping integration test. S3 configuration is incomplete.")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	client, err := New(ctx, cfg)
	require.NoError(t, err)

	key := fmt.Sprintf("catalog-%d.json", time.Now().UnixNano())
	body := []byte(`{}`)

	exists, err := client.ObjectExists(ctx, key)
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, client.UploadFile(ctx, bytes.NewReader(body), key, int64(len(body)), nil, "application/json"))

	exists, err = client.ObjectExists(ctx, key)
	require.NoError(t, err)
	assert.True(t, exists)

	url, err := client.GetPresignedURL(ctx, key, time.Hour)
	require.NoError(t, err)
	assert.Contains(t, url, key)
}
