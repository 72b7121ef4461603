package goBreach

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/MrEthical07/goBreach/hibp"
	"github.com/google/uuid"
)

func TestCheckAllCounters(t *testing.T) {
	f := newFakeRange(t)
	f.set(passwordPrefix, passwordSuffix+":10\r\n")
	f.set(abcPrefix, abcSuffix+":0\r\n")
	engine := buildTestEngine(t, testConfig(f), nil)

	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	records := []Record{
		{ID: "new-breach", Secret: []byte("password")},
		{ID: "still-breached", Secret: []byte("password"), PreviouslyBreached: true},
		{ID: "recovered", Secret: []byte("abc"), PreviouslyBreached: true},
		{ID: "ignored", Secret: []byte("password"), Ignored: true},
		{ID: "expired", Secret: []byte("password"), ExpiresAt: now.Add(-time.Hour)},
		{ID: "expires-later", Secret: []byte("abc"), ExpiresAt: now.Add(time.Hour)},
	}

	report, err := engine.CheckAll(context.Background(), records, WithEvaluationTime(now))
	if err != nil {
		t.Fatalf("CheckAll failed: %v", err)
	}

	if _, err := uuid.Parse(report.RunID); err != nil {
		t.Fatalf("expected uuid run id, got %q", report.RunID)
	}
	if report.Aborted {
		t.Fatal("unexpected abort")
	}

	checks := []struct {
		name string
		got  int
		want int
	}{
		{"checked", report.Checked, 6},
		{"looked up", report.LookedUp, 4},
		{"breached", report.Breached, 2},
		{"newly breached", report.NewlyBreached, 1},
		{"no longer breached", report.NoLongerBreached, 1},
		{"skipped expired", report.SkippedExpired, 1},
		{"skipped ignored", report.SkippedIgnored, 1},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s: expected %d, got %d", c.name, c.want, c.got)
		}
	}

	if f.hits.Load() != 4 {
		t.Fatalf("expected 4 requests, got %d", f.hits.Load())
	}

	wantSkips := []SkipReason{SkipNone, SkipNone, SkipNone, SkipIgnored, SkipExpired, SkipNone}
	for i, res := range report.Results {
		if res.ID != records[i].ID {
			t.Fatalf("result %d: expected id %q, got %q", i, records[i].ID, res.ID)
		}
		if res.Skipped != wantSkips[i] {
			t.Fatalf("result %d: expected skip %q, got %q", i, wantSkips[i], res.Skipped)
		}
	}
	if report.Results[0].Verdict.Count != 10 {
		t.Fatalf("expected count 10, got %d", report.Results[0].Verdict.Count)
	}
	if !report.Results[0].Changed(records[0].PreviouslyBreached) {
		t.Fatal("expected first record to be changed")
	}
	if report.Results[1].Changed(records[1].PreviouslyBreached) {
		t.Fatal("expected second record unchanged")
	}
}

func TestCheckAllExpiredLookedUpWhenSkipDisabled(t *testing.T) {
	f := newFakeRange(t)
	cfg := testConfig(f)
	cfg.Bulk.SkipExpired = false
	engine := buildTestEngine(t, cfg, nil)

	records := []Record{
		{ID: "expired", Secret: []byte("password"), ExpiresAt: time.Now().Add(-time.Minute)},
	}
	report, err := engine.CheckAll(context.Background(), records)
	if err != nil {
		t.Fatalf("CheckAll failed: %v", err)
	}
	if report.LookedUp != 1 || report.SkippedExpired != 0 {
		t.Fatalf("expected expired record looked up, got %+v", report)
	}
}

func TestCheckAllStopsOnUnavailable(t *testing.T) {
	f := newFakeRange(t)
	f.fail(abcPrefix, http.StatusServiceUnavailable)
	engine := buildTestEngine(t, testConfig(f), nil)

	records := []Record{
		{ID: "r1", Secret: []byte("password")},
		{ID: "r2", Secret: []byte("abc")},
		{ID: "r3", Secret: []byte("password")},
		{ID: "r4", Secret: []byte("password"), Ignored: true},
	}

	report, err := engine.CheckAll(context.Background(), records)
	if !errors.Is(err, ErrLookupUnavailable) {
		t.Fatalf("expected ErrLookupUnavailable, got %v", err)
	}
	var lookupErr *hibp.LookupError
	if !errors.As(err, &lookupErr) || lookupErr.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("expected LookupError with 503, got %v", err)
	}

	if !report.Aborted {
		t.Fatal("expected Aborted")
	}
	if report.LookedUp != 1 {
		t.Fatalf("expected 1 lookup before abort, got %d", report.LookedUp)
	}
	if report.Checked != 2 {
		t.Fatalf("expected r1 and the ignored record checked, got %d", report.Checked)
	}
	if report.Results[1].Skipped != SkipAborted || report.Results[2].Skipped != SkipAborted {
		t.Fatalf("expected r2 and r3 aborted, got %+v", report.Results)
	}
	if f.hits.Load() != 2 {
		t.Fatalf("expected no lookups after the failure, got %d requests", f.hits.Load())
	}
	if engine.AutomaticChecksEnabled(context.Background()) {
		t.Fatal("bulk failure must disable automatic checks")
	}
	if got := engine.Metrics().Value(MetricBulkAborted); got != 1 {
		t.Fatalf("expected bulk abort metric 1, got %d", got)
	}
}

func TestCheckAllRunsWhileAutomaticDisabled(t *testing.T) {
	f := newFakeRange(t)
	cfg := testConfig(f)
	cfg.Automatic.Enabled = false
	engine := buildTestEngine(t, cfg, nil)

	report, err := engine.CheckAll(context.Background(), []Record{{ID: "a", Secret: []byte("abc")}})
	if err != nil {
		t.Fatalf("CheckAll failed: %v", err)
	}
	if report.LookedUp != 1 {
		t.Fatalf("expected 1 lookup, got %d", report.LookedUp)
	}
}

func TestCheckAllConcurrentProgress(t *testing.T) {
	f := newFakeRange(t)
	f.set(passwordPrefix, passwordSuffix+":1\r\n")
	engine := buildTestEngine(t, testConfig(f), nil)

	const n = 40
	records := make([]Record, n)
	for i := range records {
		records[i] = Record{ID: fmt.Sprintf("r%02d", i), Secret: []byte("password")}
	}

	var seen []int
	report, err := engine.CheckAll(context.Background(), records,
		WithBulkConcurrency(8),
		WithProgress(func(done, total int) {
			if total != n {
				t.Errorf("expected total %d, got %d", n, total)
			}
			seen = append(seen, done)
		}),
	)
	if err != nil {
		t.Fatalf("CheckAll failed: %v", err)
	}
	if report.Checked != n || report.Breached != n {
		t.Fatalf("unexpected report %+v", report)
	}
	if len(seen) != n {
		t.Fatalf("expected %d progress calls, got %d", n, len(seen))
	}
	for i, done := range seen {
		if done != i+1 {
			t.Fatalf("progress not monotonic at %d: %v", i, seen)
		}
	}
	for i, res := range report.Results {
		if res.ID != records[i].ID {
			t.Fatalf("results out of input order at %d", i)
		}
	}
}

func TestCheckAllCanceledBeforeStart(t *testing.T) {
	f := newFakeRange(t)
	engine := buildTestEngine(t, testConfig(f), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := engine.CheckAll(ctx, []Record{{ID: "a", Secret: []byte("abc")}})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if !report.Aborted {
		t.Fatal("expected Aborted")
	}
	if f.hits.Load() != 0 {
		t.Fatalf("expected no requests, got %d", f.hits.Load())
	}
	if !engine.AutomaticChecksEnabled(context.Background()) {
		t.Fatal("cancellation must not disable automatic checks")
	}
}

func TestCheckAllEmpty(t *testing.T) {
	f := newFakeRange(t)
	engine := buildTestEngine(t, testConfig(f), nil)

	report, err := engine.CheckAll(context.Background(), nil)
	if err != nil {
		t.Fatalf("CheckAll failed: %v", err)
	}
	if report.Checked != 0 || report.Aborted || len(report.Results) != 0 {
		t.Fatalf("unexpected report %+v", report)
	}
}

func TestRecordExpired(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name string
		rec  Record
		want bool
	}{
		{"no expiry", Record{}, false},
		{"future", Record{ExpiresAt: now.Add(time.Second)}, false},
		{"exactly now", Record{ExpiresAt: now}, true},
		{"past", Record{ExpiresAt: now.Add(-time.Second)}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.rec.Expired(now); got != tt.want {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
		})
	}
}
