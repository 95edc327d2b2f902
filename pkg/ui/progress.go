package ui

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

const (
	ProgressBar   = "█"
	ProgressEmpty = "░"
)

// DownloadTracker keeps track of download progress across workers
type DownloadTracker struct {
	mu        sync.Mutex
	total     int
	completed int
	failed    int
	startTime time.Time
}

// NewDownloadTracker creates a tracker for a batch of the given size
func NewDownloadTracker(total int) *DownloadTracker {
	return &DownloadTracker{
		total:     total,
		startTime: time.Now(),
	}
}

// RecordSuccess increments the completed counter
func (dt *DownloadTracker) RecordSuccess() {
	dt.mu.Lock()
	defer dt.mu.Unlock()
	dt.completed++
}

// RecordFailure increments the failed counter
func (dt *DownloadTracker) RecordFailure() {
	dt.mu.Lock()
	defer dt.mu.Unlock()
	dt.failed++
}

// Counts returns the completed and failed counters
func (dt *DownloadTracker) Counts() (completed, failed int) {
	dt.mu.Lock()
	defer dt.mu.Unlock()
	return dt.completed, dt.failed
}

// GetProgress returns a formatted progress bar for the batch
func (dt *DownloadTracker) GetProgress() string {
	dt.mu.Lock()
	defer dt.mu.Unlock()

	const width = 20
	done := dt.completed + dt.failed
	filled := 0
	if dt.total > 0 {
		filled = done * width / dt.total
	}

	bar := strings.Repeat(ProgressBar, filled) +
		strings.Repeat(ProgressEmpty, width-filled)

	return fmt.Sprintf("[%s] %d/%d", bar, done, dt.total)
}

// GetElapsedTime returns the elapsed time since tracking started
func (dt *DownloadTracker) GetElapsedTime() time.Duration {
	return time.Since(dt.startTime)
}

// PrintProgress prints the current progress status on a single line
func (dt *DownloadTracker) PrintProgress() {
	completed, failed := dt.Counts()
	status := fmt.Sprintf("\r%s %s | ok: %d", Green("[DOWNLOADING]"), dt.GetProgress(), completed)
	if failed > 0 {
		status += " | " + Red(fmt.Sprintf("failed: %d", failed))
	}
	fmt.Print(status)
}

// PrintSummary prints the final batch outcome
func (dt *DownloadTracker) PrintSummary() {
	completed, failed := dt.Counts()
	fmt.Println()
	if failed == 0 {
		PrintSuccess(fmt.Sprintf("Downloaded %d files in %s", completed, dt.GetElapsedTime().Round(time.Second)))
		return
	}
	PrintWarning(fmt.Sprintf("Downloaded %d files, %d failed (%s elapsed)",
		completed, failed, dt.GetElapsedTime().Round(time.Second)))
}
