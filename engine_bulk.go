package goBreach

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// BulkOption adjusts one CheckAll run.
type BulkOption func(*bulkOptions)

type bulkOptions struct {
	progress    func(done, total int)
	concurrency int
	now         time.Time
}

// WithProgress registers fn to be called after every record is resolved.
// Calls are serialized and done increases by one each time.
func WithProgress(fn func(done, total int)) BulkOption {
	return func(o *bulkOptions) {
		o.progress = fn
	}
}

// WithBulkConcurrency overrides Bulk.Concurrency for one run. Values below 1
// are ignored.
func WithBulkConcurrency(n int) BulkOption {
	return func(o *bulkOptions) {
		if n >= 1 {
			o.concurrency = n
		}
	}
}

// WithEvaluationTime sets the instant expiry is judged against.
func WithEvaluationTime(t time.Time) BulkOption {
	return func(o *bulkOptions) {
		o.now = t
	}
}

// CheckAll checks every record and reports the aggregate. Ignored records are
// always skipped and expired ones are skipped when Bulk.SkipExpired is set.
//
// The first lookup error stops the run: no further lookups are issued, the
// partial report is returned with Aborted set, and records never reached are
// marked [SkipAborted]. Lookups use the manual path, so the run proceeds
// even when automatic checks are off.
func (e *Engine) CheckAll(ctx context.Context, records []Record, opts ...BulkOption) (BulkReport, error) {
	if e == nil || e.client == nil {
		return BulkReport{}, ErrEngineNotReady
	}
	if ctx == nil {
		ctx = context.Background()
	}

	o := bulkOptions{concurrency: e.config.Bulk.Concurrency}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	if o.now.IsZero() {
		o.now = time.Now()
	}

	start := time.Now()
	report := BulkReport{
		RunID:   uuid.NewString(),
		Results: make([]RecordResult, len(records)),
	}
	ctx = withRunID(ctx, report.RunID)
	e.metricInc(MetricBulkRun)

	var (
		mu   sync.Mutex
		done int
	)
	progress := func() {
		done++
		if o.progress != nil {
			o.progress(done, len(records))
		}
	}

	pending := make([]int, 0, len(records))
	for i, rec := range records {
		report.Results[i].ID = rec.ID
		switch {
		case rec.Ignored:
			report.Results[i].Skipped = SkipIgnored
			report.SkippedIgnored++
			report.Checked++
			e.metricInc(MetricBulkSkippedIgnored)
			progress()
		case e.config.Bulk.SkipExpired && rec.Expired(o.now):
			report.Results[i].Skipped = SkipExpired
			report.SkippedExpired++
			report.Checked++
			e.metricInc(MetricBulkSkippedExpired)
			progress()
		default:
			// Marked resolved once its lookup returns.
			report.Results[i].Skipped = SkipAborted
			pending = append(pending, i)
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.concurrency)

	for _, idx := range pending {
		if gctx.Err() != nil {
			break
		}
		rec := records[idx]
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			v, err := e.lookup(WithRecordID(gctx, rec.ID), rec.Secret, triggerBulk)
			if err != nil {
				return err
			}

			mu.Lock()
			defer mu.Unlock()

			report.Results[idx] = RecordResult{ID: rec.ID, Verdict: v}
			report.LookedUp++
			report.Checked++
			if v.Breached {
				report.Breached++
				if !rec.PreviouslyBreached {
					report.NewlyBreached++
				}
			} else if rec.PreviouslyBreached {
				report.NoLongerBreached++
			}
			progress()
			return nil
		})
	}

	err := g.Wait()
	if err == nil && ctx.Err() != nil && report.LookedUp < len(pending) {
		err = ctx.Err()
	}
	report.Duration = time.Since(start)

	if err != nil {
		report.Aborted = true
		e.metricInc(MetricBulkAborted)
		e.emitAudit(ctx, auditEventBulkAborted, false, err, bulkMetadata(report))
		return report, err
	}

	e.emitAudit(ctx, auditEventBulkCompleted, true, nil, bulkMetadata(report))
	return report, nil
}

func bulkMetadata(report BulkReport) func() map[string]string {
	return func() map[string]string {
		return map[string]string{
			"checked":            strconv.Itoa(report.Checked),
			"looked_up":          strconv.Itoa(report.LookedUp),
			"breached":           strconv.Itoa(report.Breached),
			"newly_breached":     strconv.Itoa(report.NewlyBreached),
			"no_longer_breached": strconv.Itoa(report.NoLongerBreached),
			"skipped_expired":    strconv.Itoa(report.SkippedExpired),
			"skipped_ignored":    strconv.Itoa(report.SkippedIgnored),
			"duration_ms":        strconv.FormatInt(report.Duration.Milliseconds(), 10),
		}
	}
}
