package main

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/danmuck/mwproto/internal/config"
)

type profileFile struct {
	Seed        uint64 `toml:"seed"`
	Topology    string `toml:"topology"`
	MapSize     int    `toml:"map_size"`
	MaxPlayer   int    `toml:"max_plid"`
	Ticks       int    `toml:"ticks"`
	Compress    bool   `toml:"compress"`
	CompressMap bool   `toml:"compress_map"`
}

// loadGenProfile starts from the defaults and overrides only the keys the
// file defines.
func loadGenProfile(path string) (config.GenProfile, error) {
	prof := config.DefaultGenProfile()

	var raw profileFile
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return config.GenProfile{}, fmt.Errorf("load gen profile: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return config.GenProfile{}, fmt.Errorf("gen profile: unknown key %q", undecoded[0].String())
	}

	if meta.IsDefined("seed") {
		prof.Seed = raw.Seed
	}
	if meta.IsDefined("topology") {
		prof.Topology = strings.TrimSpace(raw.Topology)
	}
	if meta.IsDefined("map_size") {
		prof.MapSize = raw.MapSize
	}
	if meta.IsDefined("max_plid") {
		prof.MaxPlayer = raw.MaxPlayer
	}
	if meta.IsDefined("ticks") {
		prof.Ticks = raw.Ticks
	}
	if meta.IsDefined("compress") {
		prof.Compress = raw.Compress
	}
	if meta.IsDefined("compress_map") {
		prof.CompressMap = raw.CompressMap
	}

	if _, err := prof.Params(); err != nil {
		return config.GenProfile{}, fmt.Errorf("gen profile: %w", err)
	}
	return prof, nil
}
