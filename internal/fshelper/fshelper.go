package fshelper

import (
	"archive/zip"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// NameFS is a filesystem that has a name
type NameFS interface {
	fs.FS
	Name() string
	Close() error
}

// DirFS represents a directory filesystem with a name
type DirFS struct {
	fs.FS
	name string
}

// NewDirFS wraps the directory at path
func NewDirFS(path string) *DirFS {
	return &DirFS{
		FS:   os.DirFS(path),
		name: filepath.Clean(path),
	}
}

// Name returns the name of the filesystem
func (d *DirFS) Name() string {
	return d.name
}

// Close is a no-op for directories
func (d *DirFS) Close() error {
	return nil
}

// ZipFS represents a zip filesystem with a name
type ZipFS struct {
	*zip.Reader
	name string
	rc   io.Closer
}

// Name returns the name of the filesystem
func (z *ZipFS) Name() string {
	return z.name
}

// Close closes the zip file
func (z *ZipFS) Close() error {
	if z.rc != nil {
		return z.rc.Close()
	}
	return nil
}

// ParsePath parses a list of paths, directories, zip archives or glob
// patterns, and returns a filesystem for each match
func ParsePath(paths []string) ([]NameFS, error) {
	var fsyss []NameFS

	for _, path := range paths {
		// Check if the path is a glob pattern
		matches, err := filepath.Glob(path)
		if err != nil {
			CloseAll(fsyss)
			return nil, fmt.Errorf("invalid glob pattern %s: %w", path, err)
		}

		if len(matches) == 0 {
			// No matches, try as a direct path
			if _, err := os.Stat(path); err != nil {
				CloseAll(fsyss)
				if os.IsNotExist(err) {
					return nil, fmt.Errorf("path does not exist: %s", path)
				}
				return nil, fmt.Errorf("error accessing path %s: %w", path, err)
			}
			matches = []string{path}
		}

		for _, match := range matches {
			info, err := os.Stat(match)
			if err != nil {
				CloseAll(fsyss)
				return nil, fmt.Errorf("error accessing path %s: %w", match, err)
			}

			if info.IsDir() {
				fsyss = append(fsyss, NewDirFS(match))
			} else if strings.HasSuffix(strings.ToLower(match), ".zip") {
				zipFS, err := OpenZip(match)
				if err != nil {
					CloseAll(fsyss)
					return nil, fmt.Errorf("error opening zip file %s: %w", match, err)
				}
				fsyss = append(fsyss, zipFS)
			} else {
				CloseAll(fsyss)
				return nil, fmt.Errorf("unsupported file type: %s", match)
			}
		}
	}

	return fsyss, nil
}

// OpenZip opens a zip file and returns a filesystem
func OpenZip(path string) (*ZipFS, error) {
	zipFile, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening zip file: %w", err)
	}

	info, err := zipFile.Stat()
	if err != nil {
		zipFile.Close()
		return nil, fmt.Errorf("error getting zip file info: %w", err)
	}

	zipReader, err := zip.NewReader(zipFile, info.Size())
	if err != nil {
		zipFile.Close()
		return nil, fmt.Errorf("error creating zip reader: %w", err)
	}

	return &ZipFS{
		Reader: zipReader,
		name:   filepath.Clean(path),
		rc:     zipFile,
	}, nil
}

// CloseAll closes every filesystem, ignoring errors
func CloseAll(fsyss []NameFS) {
	for _, fsys := range fsyss {
		fsys.Close()
	}
}
