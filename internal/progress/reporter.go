// internal/progress/reporter.go
package progress

import (
	"sync"
	"time"

	"github.com/bstardust/photo-atlas/internal/logger"
)

// Reporter tracks and reports batch progress
type Reporter struct {
	mu             sync.Mutex
	label          string
	total          int
	completed      int
	skipped        int
	errors         int
	startTime      time.Time
	lastUpdateTime time.Time
	updateInterval time.Duration
}

// Summary is a snapshot of the counters
type Summary struct {
	Total     int
	Completed int
	Skipped   int
	Errors    int
	Duration  time.Duration
}

// New creates a new progress reporter. label names the unit of work in log
// lines, e.g. "photos" or "uploads".
func New(label string) *Reporter {
	return &Reporter{
		label:          label,
		updateInterval: 2 * time.Second,
	}
}

// Start initializes the progress reporter with the total number of items
func (r *Reporter) Start(total int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.total = total
	r.completed = 0
	r.skipped = 0
	r.errors = 0
	r.startTime = time.Now()
	r.lastUpdateTime = time.Now()

	logger.Info("Starting %d %s", total, r.label)
}

// Complete marks an item as done
func (r *Reporter) Complete(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.completed++
	r.updateProgress()
}

// Skip marks an item as skipped
func (r *Reporter) Skip(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.skipped++
	r.updateProgress()
}

// Error marks an item as failed
func (r *Reporter) Error(path string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.errors++
	r.updateProgress()
}

// Finish logs the final counters and returns them
func (r *Reporter) Finish() Summary {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := Summary{
		Total:     r.total,
		Completed: r.completed,
		Skipped:   r.skipped,
		Errors:    r.errors,
		Duration:  time.Since(r.startTime),
	}

	logger.Info("Finished %s: %d/%d done, %d skipped, %d errors in %s",
		r.label, s.Completed, s.Total, s.Skipped, s.Errors, s.Duration.Round(time.Millisecond))

	return s
}

// updateProgress logs progress at most once per update interval
func (r *Reporter) updateProgress() {
	now := time.Now()
	if now.Sub(r.lastUpdateTime) < r.updateInterval {
		return
	}

	r.lastUpdateTime = now
	duration := now.Sub(r.startTime)
	processed := r.completed + r.skipped + r.errors

	if processed == 0 || r.total == 0 {
		return
	}

	percentage := float64(processed) / float64(r.total) * 100

	// Calculate estimated time remaining
	var eta string
	if r.completed > 0 {
		timePerItem := duration / time.Duration(processed)
		remaining := timePerItem * time.Duration(r.total-processed)
		eta = remaining.Round(time.Second).String()
	} else {
		eta = "unknown"
	}

	logger.Info("Progress: %.1f%% (%d/%d %s, %d done, %d skipped, %d errors) ETA: %s",
		percentage, processed, r.total, r.label, r.completed, r.skipped, r.errors, eta)
}
