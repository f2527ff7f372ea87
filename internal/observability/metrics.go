package observability

import (
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/danmuck/mwproto/internal/protocol/frame"
	"github.com/danmuck/mwproto/internal/protocol/replay"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mwproto",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests.",
		},
		[]string{"node", "method", "path", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "mwproto",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"node", "method", "path", "status"},
	)
	replayFiles = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mwproto",
			Subsystem: "replay",
			Name:      "files_total",
			Help:      "Replay files written or verified.",
		},
		[]string{"op", "result"},
	)
	checksumFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mwproto",
			Subsystem: "replay",
			Name:      "checksum_failures_total",
			Help:      "Replay checksum mismatches by region.",
		},
		[]string{"region"},
	)
	frames = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mwproto",
			Subsystem: "frame",
			Name:      "frames_total",
			Help:      "Frames written, by kind.",
		},
		[]string{"kind"},
	)
	messages = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "mwproto",
			Subsystem: "frame",
			Name:      "messages_total",
			Help:      "Messages encoded into frames.",
		},
	)
	frameBytes = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "mwproto",
			Subsystem: "replay",
			Name:      "frame_data_bytes",
			Help:      "Frame data size per replay, raw and as stored.",
			Buckets:   prometheus.ExponentialBuckets(1024, 4, 10),
		},
		[]string{"form"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(httpRequests, httpDuration, replayFiles, checksumFailures, frames, messages, frameBytes)
	})
}

func RecordHTTPRequest(node, method, path string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(node, method, path, statusLabel).Inc()
	httpDuration.WithLabelValues(node, method, path, statusLabel).Observe(duration.Seconds())
}

// RecordFrames adds a frame writer's counters.
func RecordFrames(stats frame.Stats) {
	RegisterMetrics()
	frames.WithLabelValues(frame.KindKeepalive.String()).Add(float64(stats.Keepalive))
	frames.WithLabelValues(frame.KindHomogeneous.String()).Add(float64(stats.Homogeneous))
	frames.WithLabelValues(frame.KindHeterogeneous.String()).Add(float64(stats.Heterogeneous))
	messages.Add(float64(stats.Msgs))
}

// RecordReplayWritten counts a closed replay and its frame data sizes.
func RecordReplayWritten(rawBytes, storedBytes uint32, err error) {
	RegisterMetrics()
	if err != nil {
		replayFiles.WithLabelValues("write", "error").Inc()
		return
	}
	replayFiles.WithLabelValues("write", "ok").Inc()
	frameBytes.WithLabelValues("raw").Observe(float64(rawBytes))
	frameBytes.WithLabelValues("stored").Observe(float64(storedBytes))
}

// RecordVerify counts a Verify result, splitting checksum failures by
// region.
func RecordVerify(err error) {
	RegisterMetrics()
	if err == nil {
		replayFiles.WithLabelValues("verify", "ok").Inc()
		return
	}
	replayFiles.WithLabelValues("verify", "error").Inc()
	for region, sentinel := range map[string]error{
		"header":     replay.ErrHeaderChecksum,
		"is":         replay.ErrISChecksum,
		"frame_data": replay.ErrFrameDataChecksum,
	} {
		if errors.Is(err, sentinel) {
			checksumFailures.WithLabelValues(region).Inc()
		}
	}
}
