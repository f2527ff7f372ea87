package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/danmuck/mwproto/internal/auth"
	"github.com/danmuck/mwproto/internal/observability"
	"github.com/danmuck/mwproto/internal/protocol"
	"github.com/danmuck/mwproto/internal/protocol/frame"
	"github.com/danmuck/mwproto/internal/protocol/header"
	"github.com/danmuck/mwproto/internal/protocol/replay"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (s *Server) registerRoutes() {
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"uptime":    time.Since(s.appeared).String(),
			"component": s.NodeID(),
			"kind":      s.Kind(),
			"format":    header.FormatVersion.String(),
		})
	})

	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	replays := s.router.Group("/replays")
	if s.cfg.ReadToken != "" {
		replays.Use(auth.Require(auth.StaticToken{Token: s.cfg.ReadToken}))
	}

	replays.GET("", func(c *gin.Context) {
		list, err := listReplays(s.cfg.ReplayDir)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"replays": list})
	})

	replays.GET("/:name", func(c *gin.Context) {
		r, err := openReplay(s.cfg.ReplayDir, c.Param("name"))
		if err != nil {
			respondError(c, err)
			return
		}
		verifyErr := r.Verify()
		observability.RecordVerify(verifyErr)
		info, err := r.Info()
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"name": c.Param("name"),
			"info": info,
			"verify": gin.H{
				"ok":         verifyErr == nil,
				"header":     checkResult(r.VerifyHeaderChecksum()),
				"is":         checkResult(r.VerifyISChecksum()),
				"frame_data": checkResult(r.VerifyFrameDataChecksum()),
			},
		})
	})

	replays.GET("/:name/frames", s.handleFrames)
}

type frameView struct {
	Player protocol.PlayerID `json:"player"`
	Bytes  int               `json:"bytes"`
	Msgs   []string          `json:"msgs"`
}

type frameJSON struct {
	Index     int         `json:"index"`
	Kind      string      `json:"kind"`
	DeltaMs   int64       `json:"delta_ms"`
	ElapsedMs int64       `json:"elapsed_ms"`
	Views     []frameView `json:"views,omitempty"`
}

func (s *Server) handleFrames(c *gin.Context) {
	offset, err := queryInt(c, "offset", 0)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	limit, err := queryInt(c, "limit", s.cfg.FrameBudget)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if s.cfg.FrameBudget > 0 && limit > s.cfg.FrameBudget {
		limit = s.cfg.FrameBudget
	}

	r, err := openReplay(s.cfg.ReplayDir, c.Param("name"))
	if err != nil {
		respondError(c, err)
		return
	}
	if err := r.VerifyFrameDataChecksum(); err != nil {
		observability.RecordVerify(err)
		respondError(c, err)
		return
	}
	fr, err := r.Frames()
	if err != nil {
		respondError(c, err)
		return
	}

	out := make([]frameJSON, 0, min(limit, 256))
	for i := 0; len(out) < limit; i++ {
		f, err := fr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			respondError(c, err)
			return
		}
		if i < offset {
			continue
		}
		fj := frameJSON{
			Index:     i,
			Kind:      f.Kind.String(),
			DeltaMs:   f.Delta.Milliseconds(),
			ElapsedMs: fr.Elapsed().Milliseconds(),
		}
		for _, v := range f.Views {
			msgs, err := protocol.DecodeAll(v.Payload)
			if err != nil {
				respondError(c, err)
				return
			}
			fv := frameView{Player: v.Player, Bytes: len(v.Payload), Msgs: make([]string, len(msgs))}
			for j, m := range msgs {
				fv.Msgs[j] = fmt.Sprintf("%s %+v", m.Kind(), m)
			}
			fj.Views = append(fj.Views, fv)
		}
		out = append(out, fj)
	}
	c.JSON(http.StatusOK, gin.H{"offset": offset, "frames": out})
}

func queryInt(c *gin.Context, key string, def int) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, raw)
	}
	return v, nil
}

func checkResult(err error) string {
	if err != nil {
		return err.Error()
	}
	return "ok"
}

func respondError(c *gin.Context, err error) {
	_ = c.Error(err)
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, ErrBadName):
		status = http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, header.ErrVersionMismatch):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, replay.ErrTruncated),
		errors.Is(err, replay.ErrDecompress),
		errors.Is(err, replay.ErrHeaderChecksum),
		errors.Is(err, replay.ErrFrameDataChecksum),
		errors.Is(err, frame.ErrTruncatedFrame),
		errors.Is(err, protocol.ErrInvalidOpcode),
		errors.Is(err, protocol.ErrTruncated):
		status = http.StatusUnprocessableEntity
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
