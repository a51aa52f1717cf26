package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateS3BucketName(t *testing.T) {
	valid := []string{"photos", "photo-atlas", "my.photos.2024"}
	for _, name := range valid {
		assert.NoError(t, ValidateS3BucketName(name), name)
	}

	invalid := []string{"ab", "has space", "Upper", "-leading", "trailing.", "under_score"}
	for _, name := range invalid {
		assert.Error(t, ValidateS3BucketName(name), name)
	}
}

func TestValidateListenAddr(t *testing.T) {
	assert.NoError(t, ValidateListenAddr(":8080"))
	assert.NoError(t, ValidateListenAddr("127.0.0.1:0"))
	assert.NoError(t, ValidateListenAddr("[::1]:443"))

	assert.Error(t, ValidateListenAddr("8080"))
	assert.Error(t, ValidateListenAddr("localhost:http"))
	assert.Error(t, ValidateListenAddr(":70000"))
}
