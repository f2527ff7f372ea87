package config

import (
	"fmt"
	"strings"

	"github.com/danmuck/mwproto/internal/protocol"
	"github.com/danmuck/mwproto/internal/protocol/header"
	"github.com/danmuck/mwproto/internal/protocol/initseq"
)

// ParseTopology accepts "hex" or "square".
func ParseTopology(s string) (header.Topology, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "hex", "":
		return header.TopologyHex, nil
	case "square", "sq":
		return header.TopologySquare, nil
	default:
		return 0, fmt.Errorf("unknown topology: %q", s)
	}
}

// Params converts the profile into builder parameters.
func (p GenProfile) Params() (initseq.Params, error) {
	topo, err := ParseTopology(p.Topology)
	if err != nil {
		return initseq.Params{}, err
	}
	if p.MapSize < 1 || p.MapSize > header.MaxMapSize {
		return initseq.Params{}, fmt.Errorf("map_size out of range: %d", p.MapSize)
	}
	if p.MaxPlayer < 1 || p.MaxPlayer > protocol.MaxPlayerID {
		return initseq.Params{}, fmt.Errorf("max_plid out of range: %d", p.MaxPlayer)
	}
	if p.Ticks < 0 {
		return initseq.Params{}, fmt.Errorf("ticks must not be negative: %d", p.Ticks)
	}
	return initseq.Params{
		Topology:  topo,
		MapSize:   uint8(p.MapSize),
		MaxPlayer: protocol.PlayerID(p.MaxPlayer),
	}, nil
}
