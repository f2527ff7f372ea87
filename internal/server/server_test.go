package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/danmuck/mwproto/internal/config"
	"github.com/danmuck/mwproto/internal/protocol/header"
	"github.com/danmuck/mwproto/internal/protocol/replay"
	"github.com/danmuck/mwproto/internal/testutil/msggen"
	"github.com/danmuck/mwproto/internal/testutil/testlog"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func writeReplayFile(t *testing.T, dir, name string, seed uint64) string {
	t.Helper()
	path := filepath.Join(dir, name+ReplayExt)
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	s := msggen.New(seed).Session(header.TopologySquare, 6, 3, 30)
	_, err = msggen.WriteReplay(f, s, replay.Options{Compress: true}, true)
	require.NoError(t, err)
	return path
}

func newTestServer(t *testing.T) (*Server, string) {
	t.Helper()
	testlog.Start(t)
	gin.SetMode(gin.TestMode)
	cfg := config.DefaultServerConfig()
	cfg.ReplayDir = t.TempDir()
	cfg.FrameBudget = 5
	return New(cfg), cfg.ReplayDir
}

func get(t *testing.T, s *Server, path string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	var body map[string]any
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	}
	return rec, body
}

func TestHealthAndMetrics(t *testing.T) {
	s, _ := newTestServer(t)
	rec, body := get(t, s, "/health")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "ok", body["status"])
	require.Equal(t, header.FormatVersion.String(), body["format"])
	require.Equal(t, "replay", body["kind"])
	require.Equal(t, config.DefaultName, body["component"])

	rec, _ = get(t, s, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "mwproto_http_requests_total")
}

func TestListReplays(t *testing.T) {
	s, dir := newTestServer(t)
	writeReplayFile(t, dir, "beta", 2)
	writeReplayFile(t, dir, "alpha", 1)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o600))

	rec, body := get(t, s, "/replays")
	require.Equal(t, http.StatusOK, rec.Code)
	list := body["replays"].([]any)
	require.Len(t, list, 2)
	require.Equal(t, "alpha", list[0].(map[string]any)["name"])
	require.Equal(t, "beta", list[1].(map[string]any)["name"])
}

func TestReplayInfoAndVerify(t *testing.T) {
	s, dir := newTestServer(t)
	writeReplayFile(t, dir, "clean", 3)
	path := writeReplayFile(t, dir, "broken", 4)

	rec, body := get(t, s, "/replays/clean")
	require.Equal(t, http.StatusOK, rec.Code)
	verify := body["verify"].(map[string]any)
	require.Equal(t, true, verify["ok"])
	info := body["info"].(map[string]any)
	require.Equal(t, "square", info["topology"])
	require.EqualValues(t, 3, info["max_player"])

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	data[header.FileHeaderSize+header.ISHeaderSize+3] ^= 0x10
	require.NoError(t, os.WriteFile(path, data, 0o600))

	rec, body = get(t, s, "/replays/broken")
	require.Equal(t, http.StatusOK, rec.Code)
	verify = body["verify"].(map[string]any)
	require.Equal(t, false, verify["ok"])
	require.Equal(t, "ok", verify["header"])
	require.Equal(t, "ok", verify["frame_data"])
	require.Contains(t, verify["is"], "checksum mismatch")
}

func TestReplayFramesPaging(t *testing.T) {
	s, dir := newTestServer(t)
	writeReplayFile(t, dir, "paged", 5)

	rec, body := get(t, s, "/replays/paged/frames?offset=2&limit=50")
	require.Equal(t, http.StatusOK, rec.Code)
	frames := body["frames"].([]any)
	require.Len(t, frames, 5)
	first := frames[0].(map[string]any)
	require.EqualValues(t, 2, first["index"])
	require.NotEmpty(t, first["kind"])

	rec, _ = get(t, s, "/replays/paged/frames?limit=-1")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReplayErrors(t *testing.T) {
	s, dir := newTestServer(t)

	rec, _ := get(t, s, "/replays/missing")
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = get(t, s, "/replays/.hidden")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "short"+ReplayExt), []byte{1, 2, 3}, 0o600))
	rec, body := get(t, s, "/replays/short")
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.Contains(t, body["error"], "truncated")

	path := writeReplayFile(t, dir, "badframes", 6)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	data[len(data)-1] ^= 0xFF
	require.NoError(t, os.WriteFile(path, data, 0o600))
	rec, _ = get(t, s, "/replays/badframes/frames")
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	path = writeReplayFile(t, dir, "badlength", 8)
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	data[24] = 0x7F
	require.NoError(t, os.WriteFile(path, data, 0o600))
	rec, body = get(t, s, "/replays/badlength")
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.Contains(t, body["error"], "header checksum")
}

func TestListMissingDirIsEmpty(t *testing.T) {
	entries, err := listReplays(filepath.Join(t.TempDir(), "nope"))
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestReadTokenGuardsReplays(t *testing.T) {
	testlog.Start(t)
	gin.SetMode(gin.TestMode)
	cfg := config.DefaultServerConfig()
	cfg.ReplayDir = t.TempDir()
	cfg.ReadToken = "s3cret"
	s := New(cfg)
	writeReplayFile(t, cfg.ReplayDir, "guarded", 7)

	rec, _ := get(t, s, "/health")
	require.Equal(t, http.StatusOK, rec.Code)
	rec, _ = get(t, s, "/replays/guarded")
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/replays/guarded", nil)
	req.Header.Set("Authorization", "Bearer s3cret")
	ok := httptest.NewRecorder()
	s.Handler().ServeHTTP(ok, req)
	require.Equal(t, http.StatusOK, ok.Code)
}
