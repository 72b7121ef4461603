package goBreach

import (
	"time"

	"github.com/MrEthical07/goBreach/hibp"
)

// Verdict is the result of one breach check. See [hibp.Verdict].
type Verdict = hibp.Verdict

// Record is one stored secret submitted to [Engine.CheckAll].
type Record struct {
	// ID identifies the record in results and audit events. It is never sent
	// to the range API.
	ID     string
	Secret []byte
	// ExpiresAt is zero for records that never expire.
	ExpiresAt time.Time
	// Ignored records are never looked up.
	Ignored bool
	// PreviouslyBreached is the record's verdict from an earlier run. It
	// drives the NewlyBreached and NoLongerBreached counters.
	PreviouslyBreached bool
}

// Expired reports whether r has an expiry at or before now.
func (r Record) Expired(now time.Time) bool {
	return !r.ExpiresAt.IsZero() && !now.Before(r.ExpiresAt)
}

// SkipReason explains why a record produced no lookup.
type SkipReason string

const (
	SkipNone    SkipReason = ""
	SkipExpired SkipReason = "expired"
	SkipIgnored SkipReason = "ignored"
	// SkipAborted marks records that were not reached because the run stopped.
	SkipAborted SkipReason = "aborted"
)

// RecordResult is the outcome for one record, in input order.
type RecordResult struct {
	ID      string
	Verdict Verdict
	Skipped SkipReason
}

// Changed reports whether the verdict differs from the record's prior state.
// Skipped records never change.
func (r RecordResult) Changed(previouslyBreached bool) bool {
	return r.Skipped == SkipNone && r.Verdict.Breached != previouslyBreached
}

// BulkReport summarizes a CheckAll run.
type BulkReport struct {
	RunID string
	// Checked counts records that were looked up or deliberately skipped.
	// Records left unvisited by an abort are excluded.
	Checked          int
	LookedUp         int
	Breached         int
	NewlyBreached    int
	NoLongerBreached int
	SkippedExpired   int
	SkippedIgnored   int
	Aborted          bool
	Results          []RecordResult
	Duration         time.Duration
}
