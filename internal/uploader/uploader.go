package uploader

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sync"

	"github.com/bstardust/photo-atlas/internal/catalog"
	"github.com/bstardust/photo-atlas/internal/logger"
	"github.com/bstardust/photo-atlas/internal/progress"
	"github.com/bstardust/photo-atlas/internal/worker"
	"github.com/bstardust/photo-atlas/pkg/s3client"
)

// PreviewPrefix is the key prefix under which previews are published
const PreviewPrefix = "previews"

// Item is a local file to publish
type Item struct {
	// Key is the object key relative to the client prefix
	Key string
	// Path is the local file path
	Path     string
	Metadata map[string]string
	// Overwrite uploads the item even when SkipExisting is set
	Overwrite bool
}

// Options controls an upload run
type Options struct {
	Concurrency  int
	DryRun       bool
	SkipExisting bool
	Retry        RetryConfig
}

// Uploader handles the upload process
type Uploader struct {
	ctx      context.Context
	s3Client s3client.S3Interface
	opts     Options
}

// New creates a new Uploader
func New(ctx context.Context, s3Client s3client.S3Interface, opts Options) *Uploader {
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	return &Uploader{
		ctx:      ctx,
		s3Client: s3Client,
		opts:     opts,
	}
}

// CatalogItems returns the preview files referenced by c followed by the
// catalog file itself, which is always overwritten.
func CatalogItems(catalogPath, previewDir string, c catalog.Catalog) []Item {
	var items []Item
	seen := make(map[string]bool)

	if previewDir != "" {
		for _, key := range c.Keys() {
			for _, rec := range c[key] {
				if rec.Preview == "" || seen[rec.Preview] {
					continue
				}
				seen[rec.Preview] = true

				meta := rec.ToMap()
				meta["catalog-group"] = key
				items = append(items, Item{
					Key:      path.Join(PreviewPrefix, rec.Preview),
					Path:     filepath.Join(previewDir, rec.Preview),
					Metadata: meta,
				})
			}
		}
	}

	items = append(items, Item{
		Key:       filepath.Base(catalogPath),
		Path:      catalogPath,
		Metadata:  map[string]string{"photo-count": fmt.Sprint(c.Len())},
		Overwrite: true,
	})

	return items
}

// Run uploads every item and returns the upload failures joined together
func (u *Uploader) Run(items []Item) (progress.Summary, error) {
	reporter := progress.New("uploads")
	reporter.Start(len(items))

	pool := worker.NewPool(u.opts.Concurrency)

	var mu sync.Mutex
	var errs []error

	for _, item := range items {
		if u.ctx.Err() != nil {
			break
		}

		if u.opts.SkipExisting && !item.Overwrite {
			exists, err := u.s3Client.ObjectExists(u.ctx, item.Key)
			if err != nil {
				logger.Warn("Failed to check if %s exists: %v", item.Key, err)
			} else if exists {
				reporter.Skip(item.Key)
				continue
			}
		}

		item := item
		pool.Submit(func() {
			if err := u.uploadFile(item); err != nil {
				logger.Error("Failed to upload %s: %s", item.Key, s3client.FormatError(err))
				reporter.Error(item.Key, err)

				mu.Lock()
				errs = append(errs, fmt.Errorf("%s: %w", item.Key, err))
				mu.Unlock()
				return
			}
			reporter.Complete(item.Key)
		})
	}

	pool.Wait()
	summary := reporter.Finish()

	if u.ctx.Err() != nil {
		errs = append(errs, u.ctx.Err())
	}
	return summary, errors.Join(errs...)
}

// uploadFile uploads a single item, reopening the file for each attempt
func (u *Uploader) uploadFile(item Item) error {
	info, err := os.Stat(item.Path)
	if err != nil {
		return fmt.Errorf("failed to stat file: %w", err)
	}

	contentType := s3client.DetectContentType(item.Path)

	if u.opts.DryRun {
		logger.Info("DRY RUN: Would upload %s as %s (%d bytes, %s) with %d metadata fields",
			item.Path, item.Key, info.Size(), contentType, len(item.Metadata))
		return nil
	}

	return u.withRetry(item.Key, func() error {
		f, err := os.Open(item.Path)
		if err != nil {
			return fmt.Errorf("failed to open file: %w", err)
		}
		defer f.Close()

		return u.s3Client.UploadFile(u.ctx, f, item.Key, info.Size(), item.Metadata, contentType)
	})
}
