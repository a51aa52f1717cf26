package scanner

import (
	"context"
	"io"
	"io/fs"
	"path"
	"path/filepath"

	"github.com/bstardust/photo-atlas/internal/fileinfo"
	"github.com/bstardust/photo-atlas/internal/fshelper"
	"github.com/bstardust/photo-atlas/internal/logger"
)

// PhotoFile is an image file found in a source
type PhotoFile struct {
	// ID identifies the file across sources: the source name joined with
	// the path inside the source.
	ID   string
	Path string
	Size int64

	source fshelper.NameFS
}

// Open opens the file from its source
func (f PhotoFile) Open() (io.ReadCloser, error) {
	return f.source.Open(f.Path)
}

// Scan walks every source in order and returns the image files it finds in
// discovery order. Unreadable entries are logged and skipped.
func Scan(ctx context.Context, sources []fshelper.NameFS) ([]PhotoFile, error) {
	var files []PhotoFile

	for _, src := range sources {
		err := fs.WalkDir(src, ".", func(p string, d fs.DirEntry, err error) error {
			if ctx.Err() != nil {
				return ctx.Err()
			}

			if err != nil {
				logger.Warn("Failed to read %s in %s: %v", p, src.Name(), err)
				if d != nil && d.IsDir() && p != "." {
					return fs.SkipDir
				}
				if p == "." {
					return err
				}
				return nil
			}

			if d.IsDir() || !fileinfo.IsImageFile(p) {
				return nil
			}

			info, err := d.Info()
			if err != nil {
				logger.Warn("Failed to get file info for %s: %v", p, err)
				return nil
			}

			files = append(files, PhotoFile{
				ID:     path.Join(filepath.ToSlash(src.Name()), p),
				Path:   p,
				Size:   info.Size(),
				source: src,
			})
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	return files, nil
}
