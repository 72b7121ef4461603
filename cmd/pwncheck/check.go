package main

import (
	"encoding/json"
	"fmt"
	"io"

	goBreach "github.com/MrEthical07/goBreach"
	"github.com/spf13/cobra"
)

func (a *app) checkCmd() *cobra.Command {
	var (
		fromStdin bool
		asJSON    bool
	)

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check one password",
		Long:  "Check one password. It is read from the terminal without echo, or from the first line of stdin with --stdin. Exits 1 if the password appears in the corpus.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			secret, err := a.readSecret(fromStdin)
			if err != nil {
				return err
			}

			s, err := a.open(cmd)
			if err != nil {
				return err
			}
			defer s.close()

			v, err := s.engine.Check(commandContext(cmd), secret)
			if err != nil {
				return err
			}

			if asJSON {
				err = writeVerdictJSON(a.stdout, v)
			} else {
				_, err = fmt.Fprintln(a.stdout, describeVerdict(v))
			}
			if err != nil {
				return err
			}
			if v.Breached {
				return errBreached
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&fromStdin, "stdin", false, "read the password from the first line of stdin")
	cmd.Flags().BoolVar(&asJSON, "json", false, "emit JSON")
	return cmd
}

func describeVerdict(v goBreach.Verdict) string {
	switch {
	case !v.Breached:
		return "not found in the breach corpus"
	case !v.CountKnown():
		return "breached: seen an unknown number of times"
	case v.Count == 1:
		return "breached: seen 1 time"
	default:
		return fmt.Sprintf("breached: seen %d times", v.Count)
	}
}

type verdictJSON struct {
	Breached   bool `json:"breached"`
	Count      int  `json:"count"`
	CountKnown bool `json:"count_known"`
}

func writeVerdictJSON(w io.Writer, v goBreach.Verdict) error {
	enc := json.NewEncoder(w)
	return enc.Encode(verdictJSON{Breached: v.Breached, Count: v.Count, CountKnown: v.CountKnown()})
}
