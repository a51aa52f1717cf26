package fileinfo

import (
	"path/filepath"
	"strings"

	"github.com/bstardust/photo-atlas/pkg/s3client"
)

// IsImageFile checks if a file is a photo the pipeline should read
func IsImageFile(filename string) bool {
	return s3client.IsImageFile(filename) && !IsHidden(filename)
}

// IsHidden reports dot files such as the ._ resource forks macOS leaves
// next to copied photos
func IsHidden(filename string) bool {
	return strings.HasPrefix(filepath.Base(filename), ".")
}
