package ui

import (
	"fmt"
	"strings"
	"sync/atomic"
	"time"
)

const (
	ProgressBar   = "█"
	ProgressEmpty = "░"
)

// StatusTracker counts verdicts for a run. It is safe for concurrent use.
type StatusTracker struct {
	total       int64
	available   atomic.Int64
	unavailable atomic.Int64
	errors      atomic.Int64
	StartTime   time.Time
}

// NewStatusTracker creates a tracker expecting total checks
func NewStatusTracker(total int) *StatusTracker {
	return &StatusTracker{
		total:     int64(total),
		StartTime: time.Now(),
	}
}

// IncrementAvailable counts a free username
func (st *StatusTracker) IncrementAvailable() { st.available.Add(1) }

// IncrementUnavailable counts a taken username
func (st *StatusTracker) IncrementUnavailable() { st.unavailable.Add(1) }

// IncrementErrors counts a username that produced no verdict
func (st *StatusTracker) IncrementErrors() { st.errors.Add(1) }

// Available returns the number of free usernames seen
func (st *StatusTracker) Available() int { return int(st.available.Load()) }

// Unavailable returns the number of taken usernames seen
func (st *StatusTracker) Unavailable() int { return int(st.unavailable.Load()) }

// Errors returns the number of failed checks
func (st *StatusTracker) Errors() int { return int(st.errors.Load()) }

// Checked returns the number of usernames with a terminal result
func (st *StatusTracker) Checked() int {
	return st.Available() + st.Unavailable() + st.Errors()
}

// Total returns the number of checks expected
func (st *StatusTracker) Total() int { return int(st.total) }

// GetProgress returns a formatted progress bar
func (st *StatusTracker) GetProgress() string {
	const width = 20
	checked := st.Checked()

	filled := 0
	if st.total > 0 {
		filled = int(float64(checked) / float64(st.total) * width)
	}
	if filled > width {
		filled = width
	}

	bar := strings.Repeat(ProgressBar, filled) +
		strings.Repeat(ProgressEmpty, width-filled)

	return fmt.Sprintf("[%s] %d/%d", bar, checked, st.total)
}

// GetElapsedTime returns the elapsed time since tracking started
func (st *StatusTracker) GetElapsedTime() time.Duration {
	return time.Since(st.StartTime)
}

// GetCheckRate returns the average checks per minute
func (st *StatusTracker) GetCheckRate() float64 {
	elapsed := st.GetElapsedTime().Minutes()
	if elapsed == 0 {
		return 0
	}
	return float64(st.Checked()) / elapsed
}

// PrintSummary prints the final counters. It is shown even in quiet mode.
func (st *StatusTracker) PrintSummary(skipped int, outputPath string) {
	elapsed := st.GetElapsedTime().Round(time.Millisecond)

	printLine(true, "\n%s %s\n", Magenta("[DONE]"), st.GetProgress())
	printLine(true, "%s %d  %s %d  %s %d  %s %d\n",
		Green("available:"), st.Available(),
		Red("unavailable:"), st.Unavailable(),
		Yellow("errors:"), st.Errors(),
		Dim("skipped:"), skipped)
	printLine(true, "%s %s  %s %.1f/min  %s %s\n",
		Cyan("elapsed:"), elapsed,
		Cyan("rate:"), st.GetCheckRate(),
		Cyan("output:"), outputPath)
}
