package protocol_test

import (
	"testing"

	"github.com/danmuck/mwproto/internal/protocol"
	"github.com/danmuck/mwproto/internal/testutil/msggen"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestRandomStreamsRoundTrip(t *testing.T) {
	for seed := uint64(1); seed <= 50; seed++ {
		g := msggen.New(seed)
		msgs := g.Msgs(500, 32, 15)

		enc, nBytes, nMsgs, err := protocol.EncodeAll(nil, msgs, 1<<20)
		require.NoError(t, err, "seed %d", seed)
		require.Equal(t, len(msgs), nMsgs, "seed %d", seed)
		require.Len(t, enc, nBytes)

		got, err := protocol.DecodeAll(enc)
		require.NoError(t, err, "seed %d", seed)
		if diff := cmp.Diff(msgs, got); diff != "" {
			t.Fatalf("seed %d mismatch (-want +got):\n%s", seed, diff)
		}
	}
}

func TestRandomStreamsUnderSmallBudgets(t *testing.T) {
	g := msggen.New(99)
	msgs := g.Msgs(400, 16, 7)
	for _, budget := range []int{8, 9, 17, 64, 256} {
		var got []protocol.Msg
		rest := msgs
		for len(rest) > 0 {
			enc, nBytes, nMsgs, err := protocol.EncodeAll(nil, rest, budget)
			require.NoError(t, err)
			require.NotZero(t, nMsgs, "budget %d made no progress", budget)
			require.LessOrEqual(t, nBytes, budget)
			dec, err := protocol.DecodeAll(enc)
			require.NoError(t, err)
			got = append(got, dec...)
			rest = rest[nMsgs:]
		}
		if diff := cmp.Diff(msgs, got); diff != "" {
			t.Fatalf("budget %d mismatch (-want +got):\n%s", budget, diff)
		}
	}
}
