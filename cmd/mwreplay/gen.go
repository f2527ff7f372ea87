package main

import (
	"fmt"
	"os"

	"github.com/danmuck/mwproto/internal/config"
	"github.com/danmuck/mwproto/internal/observability"
	"github.com/danmuck/mwproto/internal/protocol/replay"
	"github.com/danmuck/mwproto/internal/testutil/msggen"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func newGenCmd() *cobra.Command {
	var (
		profilePath string
		flagProf    = config.DefaultGenProfile()
	)
	cmd := &cobra.Command{
		Use:   "gen [output]",
		Short: "Write a synthetic replay file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prof := config.DefaultGenProfile()
			if profilePath != "" {
				loaded, err := loadGenProfile(profilePath)
				if err != nil {
					return err
				}
				prof = loaded
			}
			flags := cmd.Flags()
			if flags.Changed("seed") {
				prof.Seed = flagProf.Seed
			}
			if flags.Changed("topology") {
				prof.Topology = flagProf.Topology
			}
			if flags.Changed("map-size") {
				prof.MapSize = flagProf.MapSize
			}
			if flags.Changed("max-plid") {
				prof.MaxPlayer = flagProf.MaxPlayer
			}
			if flags.Changed("ticks") {
				prof.Ticks = flagProf.Ticks
			}
			if flags.Changed("compress") {
				prof.Compress = flagProf.Compress
			}
			if flags.Changed("compress-map") {
				prof.CompressMap = flagProf.CompressMap
			}
			params, err := prof.Params()
			if err != nil {
				return err
			}

			session := msggen.New(prof.Seed).Session(params.Topology, params.MapSize, params.MaxPlayer, prof.Ticks)
			f, err := os.Create(args[0])
			if err != nil {
				return err
			}
			fh, err := msggen.WriteReplay(f, session, replay.Options{Compress: prof.Compress}, prof.CompressMap)
			if cerr := f.Close(); err == nil {
				err = cerr
			}
			observability.RecordReplayWritten(fh.LenFrameDataRaw, fh.LenFrameDataCompressed, err)
			if err != nil {
				return fmt.Errorf("write %s: %w", args[0], err)
			}

			r, err := openFile(args[0])
			if err != nil {
				return err
			}
			info, err := r.Info()
			if err != nil {
				return err
			}
			observability.RecordFrames(info.Frames)
			log.Debug().Str("path", args[0]).Uint64("seed", prof.Seed).Msg("replay generated")
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s: %d frames, %s, %d bytes of frame data (%d stored)\n",
				args[0], info.Frames.Frames(), info.Elapsed, info.LenRaw, info.LenStored)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&profilePath, "profile", "", "gen profile TOML (see configgen -kind gen)")
	f.Uint64Var(&flagProf.Seed, "seed", flagProf.Seed, "generator seed")
	f.StringVar(&flagProf.Topology, "topology", flagProf.Topology, "hex or square")
	f.IntVar(&flagProf.MapSize, "map-size", flagProf.MapSize, "map radius, 1..64")
	f.IntVar(&flagProf.MaxPlayer, "max-plid", flagProf.MaxPlayer, "highest player id, 1..15")
	f.IntVar(&flagProf.Ticks, "ticks", flagProf.Ticks, "number of simulated ticks")
	f.BoolVar(&flagProf.Compress, "compress", flagProf.Compress, "LZ4 compress the frame data")
	f.BoolVar(&flagProf.CompressMap, "compress-map", flagProf.CompressMap, "LZ4 compress the map section")
	return cmd
}
