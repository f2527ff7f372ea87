package main

import (
	"errors"
	"fmt"

	"github.com/danmuck/mwproto/internal/observability"
	"github.com/spf13/cobra"
)

var errVerifyFailed = errors.New("verification failed")

func newVerifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify [file...]",
		Short: "Check the header, sequence and frame data checksums",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			failed := 0
			for _, path := range args {
				r, err := openFile(path)
				if err != nil {
					fmt.Fprintf(out, "%s: %v\n", path, err)
					failed++
					continue
				}
				checks := []struct {
					region string
					err    error
				}{
					{"header", r.VerifyHeaderChecksum()},
					{"is", r.VerifyISChecksum()},
					{"frame_data", r.VerifyFrameDataChecksum()},
				}
				all := errors.Join(checks[0].err, checks[1].err, checks[2].err)
				observability.RecordVerify(all)
				if all == nil {
					fmt.Fprintf(out, "%s: ok\n", path)
					continue
				}
				failed++
				for _, c := range checks {
					status := "ok"
					if c.err != nil {
						status = c.err.Error()
					}
					fmt.Fprintf(out, "%s: %-10s %s\n", path, c.region, status)
				}
			}
			if failed > 0 {
				return fmt.Errorf("%w: %d of %d files", errVerifyFailed, failed, len(args))
			}
			return nil
		},
	}
}
