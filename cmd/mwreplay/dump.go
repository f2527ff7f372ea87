package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/danmuck/mwproto/internal/protocol"
	"github.com/spf13/cobra"
)

func newDumpCmd() *cobra.Command {
	var (
		player int
		limit  int
		hexOut bool
	)
	cmd := &cobra.Command{
		Use:   "dump [file]",
		Short: "Decode the frame stream and print every message",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openFile(args[0])
			if err != nil {
				return err
			}
			if err := r.VerifyFrameDataChecksum(); err != nil {
				return err
			}
			fr, err := r.Frames()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for i := 0; limit == 0 || i < limit; i++ {
				f, err := fr.Next()
				if errors.Is(err, io.EOF) {
					break
				}
				if err != nil {
					return fmt.Errorf("frame %d: %w", i, err)
				}
				fmt.Fprintf(out, "#%d +%s @%s %s\n", i, f.Delta, fr.Elapsed(), f.Kind)
				for _, v := range f.Views {
					if player >= 0 && int(v.Player) != player {
						continue
					}
					msgs, err := protocol.DecodeAll(v.Payload)
					if err != nil {
						return fmt.Errorf("frame %d player %d: %w", i, v.Player, err)
					}
					fmt.Fprintf(out, "  p%d %d bytes, %d msgs\n", v.Player, len(v.Payload), len(msgs))
					if hexOut {
						fmt.Fprintf(out, "    % x\n", v.Payload)
					}
					for _, m := range msgs {
						fmt.Fprintf(out, "    %s %+v\n", m.Kind(), m)
					}
				}
			}
			fmt.Fprintf(out, "elapsed %s\n", fr.Elapsed())
			return nil
		},
	}
	cmd.Flags().IntVar(&player, "player", -1, "only print this player's view")
	cmd.Flags().IntVar(&limit, "limit", 0, "stop after this many frames (0 = all)")
	cmd.Flags().BoolVar(&hexOut, "hex", false, "also print raw payload bytes")
	return cmd
}
