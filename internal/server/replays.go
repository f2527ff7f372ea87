package server

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/danmuck/mwproto/internal/protocol/replay"
)

// ReplayExt is the file extension the service lists.
const ReplayExt = ".mwr"

var (
	ErrBadName  = errors.New("server: invalid replay name")
	ErrNotFound = errors.New("server: replay not found")
)

type ReplayEntry struct {
	Name     string    `json:"name"`
	Size     int64     `json:"size"`
	Modified time.Time `json:"modified"`
}

func listReplays(dir string) ([]ReplayEntry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []ReplayEntry{}, nil
		}
		return nil, err
	}
	out := make([]ReplayEntry, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ReplayExt {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		out = append(out, ReplayEntry{
			Name:     strings.TrimSuffix(e.Name(), ReplayExt),
			Size:     info.Size(),
			Modified: info.ModTime().UTC(),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Name < out[j].Name
	})
	return out, nil
}

// openReplay opens dir/name.mwr. Each request gets its own reader.
func openReplay(dir, name string) (*replay.Reader, error) {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return nil, fmt.Errorf("%w: %q", ErrBadName, name)
	}
	f, err := os.Open(filepath.Join(dir, name+ReplayExt))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return nil, err
	}
	defer f.Close()
	return replay.Open(f)
}
