package replay

import (
	"errors"
	"io"
	"time"

	"github.com/danmuck/mwproto/internal/protocol/frame"
)

// Info summarizes a replay for listings and the inspect command.
type Info struct {
	Version    string        `json:"version"`
	Topology   string        `json:"topology"`
	MapSize    uint8         `json:"map_size"`
	MaxPlayer  uint8         `json:"max_player"`
	Cits       uint8         `json:"cits"`
	MapLZ4     bool          `json:"map_lz4"`
	Compressed bool          `json:"compressed"`
	LenIS      int64         `json:"len_is"`
	LenRaw     uint32        `json:"len_frame_data_raw"`
	LenStored  uint32        `json:"len_frame_data_stored"`
	Checksums  Checksums     `json:"checksums"`
	Frames     frame.Stats   `json:"frames"`
	Elapsed    time.Duration `json:"elapsed_ns"`
}

type Checksums struct {
	Header    uint64 `json:"header"`
	IS        uint64 `json:"is"`
	FrameData uint64 `json:"frame_data"`
}

// Info scans the frame stream to fill in counts and duration.
func (r *Reader) Info() (Info, error) {
	ish := r.is.Header()
	info := Info{
		Version:    ish.Version.String(),
		Topology:   ish.Topology.String(),
		MapSize:    ish.MapSize,
		MaxPlayer:  ish.MaxPlayer,
		Cits:       ish.Cits,
		MapLZ4:     ish.MapLZ4(),
		Compressed: r.fh.Compressed(),
		LenIS:      ish.SectionsLen(),
		LenRaw:     r.fh.LenFrameDataRaw,
		LenStored:  r.fh.LenFrameDataCompressed,
		Checksums: Checksums{
			Header:    r.fh.ChecksumHeader,
			IS:        r.fh.ChecksumIS,
			FrameData: r.fh.ChecksumFrameData,
		},
	}
	fr, err := r.Frames()
	if err != nil {
		return info, err
	}
	for {
		if _, err := fr.Next(); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return info, err
		}
	}
	info.Frames = fr.Stats()
	info.Elapsed = fr.Elapsed()
	return info, nil
}
