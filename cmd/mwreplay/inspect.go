package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func newInspectCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "inspect [file]",
		Short: "Print header, sequence and frame statistics",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openFile(args[0])
			if err != nil {
				return err
			}
			info, err := r.Info()
			if err != nil {
				return fmt.Errorf("scan frames: %w", err)
			}
			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(info)
			}

			fmt.Fprintf(out, "format     %s\n", info.Version)
			fmt.Fprintf(out, "map        %s, size %d, lz4=%v\n", info.Topology, info.MapSize, info.MapLZ4)
			fmt.Fprintf(out, "players    1..%d\n", info.MaxPlayer)
			fmt.Fprintf(out, "cities     %d\n", info.Cits)
			fmt.Fprintf(out, "is bytes   %d\n", info.LenIS)
			fmt.Fprintf(out, "frames     %d bytes raw, %d stored, compressed=%v\n", info.LenRaw, info.LenStored, info.Compressed)
			fmt.Fprintf(out, "           keepalive=%d homogeneous=%d heterogeneous=%d\n",
				info.Frames.Keepalive, info.Frames.Homogeneous, info.Frames.Heterogeneous)
			fmt.Fprintf(out, "elapsed    %s\n", info.Elapsed)
			fmt.Fprintf(out, "checksums  header=%016x is=%016x frame_data=%016x\n",
				info.Checksums.Header, info.Checksums.IS, info.Checksums.FrameData)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")
	return cmd
}
