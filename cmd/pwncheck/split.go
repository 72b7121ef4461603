package main

import (
	"fmt"

	"github.com/MrEthical07/goBreach/hibp"
	"github.com/spf13/cobra"
)

func (a *app) splitCmd() *cobra.Command {
	var fromStdin bool

	cmd := &cobra.Command{
		Use:   "split",
		Short: "Print the digest, prefix and suffix of a password",
		Long:  "Print the SHA-1 digest of a password and how it is split for a range lookup. Nothing is sent over the network; only the prefix line would ever leave this machine.",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			secret, err := a.readSecret(fromStdin)
			if err != nil {
				return err
			}

			digest := hibp.HashSecret(secret)
			split := digest.Split()
			_, err = fmt.Fprintf(a.stdout, "digest: %s\nprefix: %s\nsuffix: %s\n", digest, split.Prefix, split.Suffix)
			return err
		},
	}

	cmd.Flags().BoolVar(&fromStdin, "stdin", false, "read the password from the first line of stdin")
	return cmd
}
