package config

import (
	"fmt"
	"os"
	"strings"
)

func Template(kind string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "server":
		return serverTemplate, nil
	case "gen":
		return genTemplate, nil
	default:
		return "", fmt.Errorf("unknown config kind: %s", kind)
	}
}

func WriteTemplate(path, kind string, overwrite bool) error {
	template, err := Template(kind)
	if err != nil {
		return err
	}
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	return os.WriteFile(path, []byte(template), 0o600)
}

const serverTemplate = `name = "mwreplay"
addr = ":9300"
replay_dir = "replays"
cors_origins = ["http://localhost:3000"]
frame_budget = 1000
read_token = ""
`

const genTemplate = `seed = 1
topology = "hex"
map_size = 24
max_plid = 6
ticks = 600
compress = true
compress_map = true
`
