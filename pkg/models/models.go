package models

import "time"

// LinkResult is the outcome of processing one configured profile link.
type LinkResult struct {
	Link       string
	CreatorID  string
	Creator    string
	Pages      int
	Downloaded int
	Skipped    int
	Failed     int
	Bytes      int64

	// Err is set when the link failed as a whole (unresolvable share
	// link, page fetch or download out of retries). Item-level failures
	// only increment Failed.
	Err error
}

// RunStats accumulates totals across all configured links.
type RunStats struct {
	StartedAt time.Time
	Duration  time.Duration
	Links     []LinkResult

	Downloaded  int
	Skipped     int
	Failed      int
	FailedLinks int
	Pages       int
	Bytes       int64
}

// Add folds a finished link into the running totals.
func (s *RunStats) Add(r LinkResult) {
	s.Links = append(s.Links, r)
	s.Downloaded += r.Downloaded
	s.Skipped += r.Skipped
	s.Failed += r.Failed
	s.Pages += r.Pages
	s.Bytes += r.Bytes
	if r.Err != nil {
		s.FailedLinks++
	}
}
