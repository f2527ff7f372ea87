package main

import (
	"fmt"
	"os"

	"github.com/danmuck/mwproto/internal/observability"
	"github.com/danmuck/mwproto/internal/protocol/replay"
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "mwreplay",
		Short: "mwreplay - inspect, verify and generate replay files",
		Long: `mwreplay works with replay files: a file header with three checksums,
the initialization sequence (map, cities, players, rules) and the frame stream.

Use "mwreplay [command] --help" for details on each command.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			observability.InitLogger("mwreplay")
		},
	}
	root.AddCommand(
		newInspectCmd(),
		newVerifyCmd(),
		newDumpCmd(),
		newGenCmd(),
		newServeCmd(),
	)
	return root
}

func openFile(path string) (*replay.Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	r, err := replay.Open(f)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return r, nil
}
