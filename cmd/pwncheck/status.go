package main

import (
	"fmt"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

func (a *app) statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show effective configuration and availability",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := a.open(cmd)
			if err != nil {
				return err
			}
			defer s.close()

			report := s.engine.StatusReport()
			health := s.engine.Health(commandContext(cmd))

			disableFor := "until reset"
			if report.DisableFor > 0 {
				disableFor = report.DisableFor.String()
			}
			redisState := "not configured"
			if health.RedisConfigured {
				redisState = "unreachable"
				if health.RedisAvailable {
					redisState = fmt.Sprintf("ok (%s)", health.RedisLatency)
				}
			}

			rows := [][]string{
				{"endpoint", report.Endpoint},
				{"user agent", report.UserAgent},
				{"padding", strconv.FormatBool(report.Padding)},
				{"timeout", report.Timeout.String()},
				{"automatic checks", strconv.FormatBool(health.AutomaticChecksEnabled)},
				{"disable after failure", disableFor},
				{"shared availability", strconv.FormatBool(report.AvailabilityShared)},
				{"rate limiting", strconv.FormatBool(report.RateLimitingActive)},
				{"bulk concurrency", strconv.Itoa(report.BulkConcurrency)},
				{"skip expired", strconv.FormatBool(report.SkipExpired)},
				{"redis", redisState},
			}

			table := tablewriter.NewWriter(a.stdout)
			table.Header("Setting", "Value")
			for _, row := range rows {
				if err := table.Append(row); err != nil {
					return err
				}
			}
			return table.Render()
		},
	}
}
