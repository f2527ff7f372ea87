package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/danmuck/mwproto/internal/config"
	"github.com/danmuck/mwproto/internal/protocol/header"
	"github.com/danmuck/mwproto/internal/protocol/replay"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestGenInspectVerifyDump(t *testing.T) {
	path := filepath.Join(t.TempDir(), "s.mwr")
	out, err := run(t, "gen", path, "--seed", "7", "--ticks", "40", "--map-size", "8", "--max-plid", "3")
	require.NoError(t, err)
	require.Contains(t, out, "wrote "+path)

	out, err = run(t, "inspect", path)
	require.NoError(t, err)
	require.Contains(t, out, "format     "+header.FormatVersion.String())
	require.Contains(t, out, "players    1..3")

	out, err = run(t, "inspect", "--json", path)
	require.NoError(t, err)
	var info replay.Info
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	require.EqualValues(t, 8, info.MapSize)
	require.NotZero(t, info.Frames.Frames())

	out, err = run(t, "verify", path)
	require.NoError(t, err)
	require.Equal(t, path+": ok\n", out)

	out, err = run(t, "dump", "--limit", "3", "--hex", path)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(out, "#0 "), out)
	require.Contains(t, out, "elapsed ")
}

func TestVerifyReportsCorruptRegion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "c.mwr")
	_, err := run(t, "gen", path, "--ticks", "10", "--map-size", "4")
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	data[len(data)-1] ^= 0x01
	require.NoError(t, os.WriteFile(path, data, 0o600))

	out, err := run(t, "verify", path)
	require.True(t, errors.Is(err, errVerifyFailed), "got %v", err)
	require.Contains(t, out, "header     ok")
	require.Contains(t, out, "is         ok")
	require.Contains(t, out, "frame_data replay: frame data checksum mismatch")

	_, err = run(t, "dump", path)
	require.ErrorIs(t, err, replay.ErrFrameDataChecksum)
}

func TestGenHonorsProfile(t *testing.T) {
	dir := t.TempDir()
	prof := filepath.Join(dir, "gen.toml")
	require.NoError(t, os.WriteFile(prof, []byte("topology = \"square\"\nmap_size = 5\nticks = 3\ncompress = false\n"), 0o600))
	path := filepath.Join(dir, "p.mwr")

	_, err := run(t, "gen", path, "--profile", prof, "--max-plid", "9")
	require.NoError(t, err)

	out, err := run(t, "inspect", "--json", path)
	require.NoError(t, err)
	var info replay.Info
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	require.Equal(t, "square", info.Topology)
	require.EqualValues(t, 5, info.MapSize)
	require.EqualValues(t, 9, info.MaxPlayer)
	require.False(t, info.Compressed)
}

func TestLoadGenProfileOverridesOnlyDefinedKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gen.toml")
	require.NoError(t, os.WriteFile(path, []byte("seed = 42\ncompress_map = false\n"), 0o600))

	prof, err := loadGenProfile(path)
	require.NoError(t, err)
	want := config.DefaultGenProfile()
	want.Seed = 42
	want.CompressMap = false
	require.Equal(t, want, prof)
}

func TestLoadGenProfileTemplate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gen.toml")
	require.NoError(t, config.WriteTemplate(path, "gen", false))
	prof, err := loadGenProfile(path)
	require.NoError(t, err)
	require.Equal(t, config.DefaultGenProfile(), prof)
}

func TestLoadGenProfileRejects(t *testing.T) {
	dir := t.TempDir()
	for name, body := range map[string]string{
		"unknown.toml": "speed = 3\n",
		"range.toml":   "max_plid = 16\n",
		"topo.toml":    "topology = \"torus\"\n",
		"syntax.toml":  "seed = \n",
	} {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
		_, err := loadGenProfile(path)
		require.Error(t, err, name)
	}
}
