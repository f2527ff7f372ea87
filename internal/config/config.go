package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// ServerConfig configures the replay inspection service.
type ServerConfig struct {
	Name        string   `toml:"name"`
	Addr        string   `toml:"addr"`
	ReplayDir   string   `toml:"replay_dir"`
	CorsOrigins []string `toml:"cors_origins"`
	// FrameBudget caps the frames returned by one /frames request.
	FrameBudget int `toml:"frame_budget"`
	// ReadToken, when set, is required as a bearer token on /replays.
	ReadToken string `toml:"read_token"`
}

const (
	DefaultName        = "mwreplay"
	DefaultAddr        = ":9300"
	DefaultReplayDir   = "replays"
	DefaultFrameBudget = 1000
)

func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Name:        DefaultName,
		Addr:        DefaultAddr,
		ReplayDir:   DefaultReplayDir,
		FrameBudget: DefaultFrameBudget,
	}
}

func LoadServerConfig(path string) (ServerConfig, error) {
	var cfg ServerConfig
	if err := loadToml(path, &cfg); err != nil {
		return ServerConfig{}, err
	}
	if cfg.Name == "" {
		cfg.Name = DefaultName
	}
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	if cfg.ReplayDir == "" {
		cfg.ReplayDir = DefaultReplayDir
	}
	if cfg.FrameBudget == 0 {
		cfg.FrameBudget = DefaultFrameBudget
	}
	if err := ValidateServerConfig(cfg); err != nil {
		return ServerConfig{}, err
	}
	return cfg, nil
}

func loadToml(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if err := toml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	return nil
}

func ValidateServerConfig(cfg ServerConfig) error {
	if strings.TrimSpace(cfg.Name) == "" {
		return fmt.Errorf("server config missing name")
	}
	if strings.TrimSpace(cfg.Addr) == "" {
		return fmt.Errorf("server config missing addr")
	}
	if strings.TrimSpace(cfg.ReplayDir) == "" {
		return fmt.Errorf("server config missing replay_dir")
	}
	if cfg.FrameBudget < 0 {
		return fmt.Errorf("frame_budget must not be negative: %d", cfg.FrameBudget)
	}
	return nil
}

// GenProfile describes a synthetic replay for mwreplay gen.
type GenProfile struct {
	Seed        uint64 `toml:"seed"`
	Topology    string `toml:"topology"`
	MapSize     int    `toml:"map_size"`
	MaxPlayer   int    `toml:"max_plid"`
	Ticks       int    `toml:"ticks"`
	Compress    bool   `toml:"compress"`
	CompressMap bool   `toml:"compress_map"`
}

func DefaultGenProfile() GenProfile {
	return GenProfile{
		Seed:        1,
		Topology:    "hex",
		MapSize:     24,
		MaxPlayer:   6,
		Ticks:       600,
		Compress:    true,
		CompressMap: true,
	}
}

func LoadGenProfile(path string) (GenProfile, error) {
	cfg := DefaultGenProfile()
	if err := loadToml(path, &cfg); err != nil {
		return GenProfile{}, err
	}
	if _, err := cfg.Params(); err != nil {
		return GenProfile{}, err
	}
	return cfg, nil
}
