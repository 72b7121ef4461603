package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	goBreach "github.com/MrEthical07/goBreach"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

func (a *app) bulkCmd() *cobra.Command {
	var (
		asJSON   bool
		progress bool
	)

	cmd := &cobra.Command{
		Use:   "bulk FILE",
		Short: "Check every record in a file",
		Long: `Check every record in a tab-separated file ("-" reads stdin).

Each line is id<TAB>secret[<TAB>tags[<TAB>expires]]. Records tagged
pwned-ignore are skipped, as are expired ones unless skip_expired is false.
The pwned tag records an earlier verdict so changes can be reported.

The run stops at the first lookup failure and prints what was checked.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := a.loadRecords(args[0])
			if err != nil {
				return err
			}

			s, err := a.open(cmd)
			if err != nil {
				return err
			}
			defer s.close()

			var opts []goBreach.BulkOption
			if progress {
				opts = append(opts, goBreach.WithProgress(func(done, total int) {
					fmt.Fprintf(a.stderr, "\rchecked %d/%d", done, total)
					if done == total {
						fmt.Fprintln(a.stderr)
					}
				}))
			}

			report, runErr := s.engine.CheckAll(commandContext(cmd), records, opts...)
			if progress && report.Aborted {
				fmt.Fprintln(a.stderr)
			}

			if asJSON {
				err = writeReportJSON(a.stdout, records, report)
			} else {
				err = writeReportTable(a.stdout, records, report)
			}
			if runErr != nil {
				return fmt.Errorf("bulk check stopped: %w", runErr)
			}
			if err != nil {
				return err
			}
			if report.Breached > 0 {
				return errBreached
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "emit JSON")
	cmd.Flags().BoolVar(&progress, "progress", false, "print progress to stderr")
	return cmd
}

func (a *app) loadRecords(path string) ([]goBreach.Record, error) {
	if path == "-" {
		return parseRecords(a.stdin)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return parseRecords(f)
}

func resultStatus(res goBreach.RecordResult) string {
	switch res.Skipped {
	case goBreach.SkipExpired:
		return "skipped (expired)"
	case goBreach.SkipIgnored:
		return "skipped (ignored)"
	case goBreach.SkipAborted:
		return "not checked"
	}
	if res.Verdict.Breached {
		return "breached"
	}
	return "clean"
}

func resultCount(res goBreach.RecordResult) string {
	if res.Skipped != goBreach.SkipNone || !res.Verdict.Breached {
		return ""
	}
	if !res.Verdict.CountKnown() {
		return "unknown"
	}
	return strconv.Itoa(res.Verdict.Count)
}

func resultChange(rec goBreach.Record, res goBreach.RecordResult) string {
	if !res.Changed(rec.PreviouslyBreached) {
		return ""
	}
	if res.Verdict.Breached {
		return "new"
	}
	return "resolved"
}

func writeReportTable(w io.Writer, records []goBreach.Record, report goBreach.BulkReport) error {
	table := tablewriter.NewWriter(w)
	table.Header("ID", "Status", "Count", "Change")
	for i, res := range report.Results {
		row := []string{res.ID, resultStatus(res), resultCount(res), resultChange(records[i], res)}
		if err := table.Append(row); err != nil {
			return err
		}
	}
	if err := table.Render(); err != nil {
		return err
	}

	_, err := fmt.Fprintln(w, summaryLine(report))
	return err
}

func summaryLine(report goBreach.BulkReport) string {
	s := fmt.Sprintf("Checked %d records: %d breached (%d new), %d no longer breached, %d expired skipped, %d ignored skipped.",
		report.Checked, report.Breached, report.NewlyBreached, report.NoLongerBreached, report.SkippedExpired, report.SkippedIgnored)
	if report.Aborted {
		s += " Run stopped early; remaining records were not checked."
	}
	return s
}

type resultJSON struct {
	ID      string `json:"id"`
	Status  string `json:"status"`
	Count   *int   `json:"count,omitempty"`
	Change  string `json:"change,omitempty"`
	Skipped string `json:"skipped,omitempty"`
}

type reportJSON struct {
	RunID            string       `json:"run_id"`
	Checked          int          `json:"checked"`
	LookedUp         int          `json:"looked_up"`
	Breached         int          `json:"breached"`
	NewlyBreached    int          `json:"newly_breached"`
	NoLongerBreached int          `json:"no_longer_breached"`
	SkippedExpired   int          `json:"skipped_expired"`
	SkippedIgnored   int          `json:"skipped_ignored"`
	Aborted          bool         `json:"aborted"`
	DurationMS       int64        `json:"duration_ms"`
	Results          []resultJSON `json:"results"`
}

func writeReportJSON(w io.Writer, records []goBreach.Record, report goBreach.BulkReport) error {
	if len(records) != len(report.Results) {
		return errors.New("report does not match records")
	}

	out := reportJSON{
		RunID:            report.RunID,
		Checked:          report.Checked,
		LookedUp:         report.LookedUp,
		Breached:         report.Breached,
		NewlyBreached:    report.NewlyBreached,
		NoLongerBreached: report.NoLongerBreached,
		SkippedExpired:   report.SkippedExpired,
		SkippedIgnored:   report.SkippedIgnored,
		Aborted:          report.Aborted,
		DurationMS:       report.Duration.Milliseconds(),
		Results:          make([]resultJSON, 0, len(report.Results)),
	}
	for i, res := range report.Results {
		r := resultJSON{
			ID:      res.ID,
			Status:  resultStatus(res),
			Change:  resultChange(records[i], res),
			Skipped: string(res.Skipped),
		}
		if res.Skipped == goBreach.SkipNone && res.Verdict.Breached && res.Verdict.CountKnown() {
			count := res.Verdict.Count
			r.Count = &count
		}
		out.Results = append(out.Results, r)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
