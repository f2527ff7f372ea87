package observability

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/danmuck/mwproto/internal/protocol/frame"
	"github.com/danmuck/mwproto/internal/protocol/replay"
	"github.com/danmuck/mwproto/internal/testutil/testlog"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRegisterMetricsAndRecordersAreSafe(t *testing.T) {
	testlog.Start(t)
	RegisterMetrics()
	RegisterMetrics()

	RecordHTTPRequest("mwreplay", "GET", "/health", 200, 12*time.Millisecond)
	RecordFrames(frame.Stats{Keepalive: 1, Homogeneous: 2, Heterogeneous: 3, Msgs: 40})
	RecordReplayWritten(4096, 1024, nil)
	RecordReplayWritten(0, 0, errors.New("disk full"))
}

func TestRecordVerifySplitsChecksumRegions(t *testing.T) {
	header := testutil.ToFloat64(checksumFailures.WithLabelValues("header"))
	frameData := testutil.ToFloat64(checksumFailures.WithLabelValues("frame_data"))
	is := testutil.ToFloat64(checksumFailures.WithLabelValues("is"))

	RecordVerify(errors.Join(
		fmt.Errorf("%w: stored 1, computed 2", replay.ErrHeaderChecksum),
		replay.ErrFrameDataChecksum,
	))
	RecordVerify(nil)

	if got := testutil.ToFloat64(checksumFailures.WithLabelValues("header")); got != header+1 {
		t.Fatalf("header failures: got %v, want %v", got, header+1)
	}
	if got := testutil.ToFloat64(checksumFailures.WithLabelValues("frame_data")); got != frameData+1 {
		t.Fatalf("frame_data failures: got %v, want %v", got, frameData+1)
	}
	if got := testutil.ToFloat64(checksumFailures.WithLabelValues("is")); got != is {
		t.Fatalf("is failures should be unchanged: got %v, want %v", got, is)
	}
}
