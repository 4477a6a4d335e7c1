package domain

import "time"

// ReconcileStats summarizes one resolver Update() pass.
type ReconcileStats struct {
	EventsSeen int
	Applied    int
	Skipped    int // malformed payloads, retried next pass
	Conflicts  int
	Duration   time.Duration
}

// CrawlStats summarizes one tracker pass over the managed set.
type CrawlStats struct {
	FilesSeen    int
	FilesCrawled int
	FilesSkipped int // unchanged since last indexed
	Failures     int
	Duration     time.Duration
}
