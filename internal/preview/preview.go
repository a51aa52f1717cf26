// Package preview writes downsized JPEG copies of photos.
package preview

import (
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/bstardust/photo-atlas/pkg/common"
	"github.com/disintegration/imaging"
	"github.com/google/uuid"
)

// Config controls preview generation
type Config struct {
	Dir       string
	MaxWidth  int
	MaxHeight int
	Quality   int
}

// Generator produces previews into a directory
type Generator struct {
	cfg Config
}

// New creates a generator, creating the output directory if needed
func New(cfg Config) (*Generator, error) {
	if cfg.Dir == "" {
		return nil, common.NewConfigError("preview directory is required", nil)
	}
	if cfg.MaxWidth <= 0 || cfg.MaxHeight <= 0 {
		return nil, common.NewConfigError(fmt.Sprintf("invalid preview bounds %dx%d", cfg.MaxWidth, cfg.MaxHeight), nil)
	}
	if cfg.Quality <= 0 || cfg.Quality > 100 {
		cfg.Quality = 80
	}
	if err := os.MkdirAll(cfg.Dir, 0755); err != nil {
		return nil, common.NewIOError("mkdir", cfg.Dir, err)
	}
	return &Generator{cfg: cfg}, nil
}

// Name returns the preview file name for a record path: the base name
// without its extension and the start of a name-based UUID of the full path,
// so equal base names in different directories get distinct previews.
func Name(recordPath string) string {
	slashed := strings.ReplaceAll(recordPath, "\\", "/")
	base := path.Base(slashed)
	base = strings.TrimSuffix(base, path.Ext(base))
	id := uuid.NewSHA1(uuid.NameSpaceURL, []byte(recordPath)).String()
	return fmt.Sprintf("%s-%s.jpg", base, id[:8])
}

// Generate decodes src, fits it within the configured bounds and writes it
// as JPEG. It returns the preview file name relative to Dir.
func (g *Generator) Generate(src io.Reader, recordPath string) (string, error) {
	img, err := imaging.Decode(src, imaging.AutoOrientation(true))
	if err != nil {
		return "", fmt.Errorf("failed to decode image: %w", err)
	}

	thumb := imaging.Fit(img, g.cfg.MaxWidth, g.cfg.MaxHeight, imaging.Lanczos)

	name := Name(recordPath)
	out := filepath.Join(g.cfg.Dir, name)
	if err := imaging.Save(thumb, out, imaging.JPEGQuality(g.cfg.Quality)); err != nil {
		return "", common.NewIOError("write", out, err)
	}

	return name, nil
}
