package protocol

import (
	"bytes"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func everyKind() []Msg {
	return []Msg{
		Tremor{},
		Smoke{Pos: Pos{X: -3, Y: 4}},
		Unsmoke{Pos: Pos{X: 127, Y: -128}},
		CitMoney{Cit: 2, Money: 1500},
		CitIncome{Cit: 7, Money: MaxMoney, Income: 40},
		CitProdItem{Cit: 1, Item: ItemMine},
		CitTradeInfo{Cit: 3, Export: 500, Import: 65535},
		PlayerStatus{Player: 6, Status: StatusEliminated},
		RevealItem{Pos: Pos{X: 1, Y: 1}, Item: ItemDecoy},
		RevealStructure{Pos: Pos{X: 0, Y: -1}, Structure: StructureBridge},
		Flag{Player: 15, Pos: Pos{X: 9, Y: 9}},
		Flag{Player: PlayerNeutral, Pos: Pos{X: 9, Y: 9}},
		StructureGone{Pos: Pos{X: 5, Y: 5}},
		StructureHp{Pos: Pos{X: 5, Y: 6}, Hp: 300},
		BuildNew{Pos: Pos{X: -1, Y: -1}, Structure: StructureTower, Points: 1200},
		BuildProgress{Pos: Pos{X: -1, Y: -1}, Points: 600},
		BuildCancel{Pos: Pos{X: -1, Y: -1}},
		Explode{Pos: Pos{X: 2, Y: 3}},
		DigitCapture{Pos: Pos{X: 4, Y: 4}, Digit: 8, Asterisk: true},
		TileOwner{Player: 3, Pos: Pos{X: 1, Y: 1}},
	}
}

func encodeAll(t *testing.T, msgs []Msg, budget int) []byte {
	t.Helper()
	out, _, n, err := EncodeAll(nil, msgs, budget)
	require.NoError(t, err)
	require.Equal(t, len(msgs), n, "not every message fit in the budget")
	return out
}

func TestTileOwnerBatchExample(t *testing.T) {
	msgs := []Msg{
		TileOwner{Player: 3, Pos: Pos{X: 1, Y: 1}},
		TileOwner{Player: 3, Pos: Pos{X: 2, Y: 2}},
	}
	out, nBytes, nMsgs, err := Encode(nil, msgs, 5)
	require.NoError(t, err)
	require.Equal(t, 5, nBytes)
	require.Equal(t, 2, nMsgs)
	require.Equal(t, []byte{0b1001_1001, 1, 1, 2, 2}, out)
}

func TestRoundTripEveryKind(t *testing.T) {
	in := everyKind()
	out, err := DecodeAll(encodeAll(t, in, 1<<16))
	require.NoError(t, err)
	if diff := cmp.Diff(in, out); diff != "" {
		t.Fatalf("round-trip mismatch (-want +got):\n%s", diff)
	}
}

func TestEncodedLenMatchesSingleEncoding(t *testing.T) {
	for _, m := range everyKind() {
		out, n, _, err := Encode(nil, []Msg{m}, 64)
		require.NoError(t, err)
		require.Equal(t, EncodedLen(m), n, "kind %s", m.Kind())
		require.Len(t, out, n)
	}
}

func TestExplodeBatchSplitsAtMaximum(t *testing.T) {
	var in []Msg
	for i := 0; i < 20; i++ {
		in = append(in, Explode{Pos: Pos{X: int8(i), Y: int8(-i)}})
	}
	out, nBytes, nMsgs, err := Encode(nil, in, 1<<10)
	require.NoError(t, err)
	require.Equal(t, MaxExplodeBatch, nMsgs)
	require.Equal(t, 1+2*MaxExplodeBatch, nBytes)
	require.Equal(t, byte(0b0011_1111), out[0])

	all := encodeAll(t, in, 1<<10)
	require.Len(t, all, 1+2*16+1+2*4)
	decoded, err := DecodeAll(all)
	require.NoError(t, err)
	require.Equal(t, in, decoded)
}

func TestTileOwnerBatchStopsAtPlayerChange(t *testing.T) {
	in := []Msg{
		TileOwner{Player: 2, Pos: Pos{X: 0, Y: 0}},
		TileOwner{Player: 2, Pos: Pos{X: 0, Y: 1}},
		TileOwner{Player: 4, Pos: Pos{X: 0, Y: 2}},
	}
	_, nBytes, nMsgs, err := Encode(nil, in, 64)
	require.NoError(t, err)
	require.Equal(t, 2, nMsgs)
	require.Equal(t, 5, nBytes)
}

func TestBatchStopsAtBudget(t *testing.T) {
	var in []Msg
	for i := 0; i < 8; i++ {
		in = append(in, TileOwner{Player: 1, Pos: Pos{X: int8(i), Y: 0}})
	}
	_, nBytes, nMsgs, err := Encode(nil, in, 8)
	require.NoError(t, err)
	require.Equal(t, 3, nMsgs)
	require.Equal(t, 7, nBytes)
}

func TestEncodeAllOrNothing(t *testing.T) {
	prefix := []byte{0xAA, 0xBB}
	cases := []struct {
		name   string
		msgs   []Msg
		budget int
	}{
		{"tremor", []Msg{Tremor{}}, 0},
		{"income", []Msg{CitIncome{Cit: 1, Money: 1, Income: 1}}, 7},
		{"tile owner", []Msg{TileOwner{Player: 1}}, 2},
		{"explode", []Msg{Explode{}, Explode{}}, 2},
		{"digit", []Msg{DigitCapture{Digit: 3}, DigitCapture{Digit: 4}}, 2},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			buf := append([]byte(nil), prefix...)
			out, nBytes, nMsgs, err := Encode(buf, tc.msgs, tc.budget)
			require.NoError(t, err)
			require.Zero(t, nBytes)
			require.Zero(t, nMsgs)
			require.True(t, bytes.Equal(prefix, out), "buffer changed: %x", out)
		})
	}
}

func TestDigitCaptureBatchPacksNibbles(t *testing.T) {
	in := []Msg{
		DigitCapture{Pos: Pos{X: 1, Y: 2}, Digit: 3},
		DigitCapture{Pos: Pos{X: 3, Y: 4}, Digit: 7, Asterisk: true},
		DigitCapture{Pos: Pos{X: 5, Y: 6}, Digit: 0, Asterisk: true},
	}
	out, nBytes, nMsgs, err := Encode(nil, in, 64)
	require.NoError(t, err)
	require.Equal(t, 3, nMsgs)
	require.Equal(t, 1+6+2, nBytes)
	require.Equal(t, []byte{0b0110_0010, 1, 2, 3, 4, 5, 6, 0x3F, 0x80}, out)

	decoded, err := DecodeAll(out)
	require.NoError(t, err)
	require.Equal(t, in, decoded)
}

func TestDigitEightBreaksBatch(t *testing.T) {
	in := []Msg{
		DigitCapture{Pos: Pos{X: 1, Y: 1}, Digit: 2},
		DigitCapture{Pos: Pos{X: 1, Y: 2}, Digit: 8},
		DigitCapture{Pos: Pos{X: 1, Y: 3}, Digit: 8, Asterisk: true},
	}
	out, nBytes, nMsgs, err := Encode(nil, in, 64)
	require.NoError(t, err)
	require.Equal(t, 1, nMsgs)
	require.Equal(t, 3, nBytes)
	require.Equal(t, byte(0b0100_0010), out[0])

	decoded, err := DecodeAll(encodeAll(t, in, 64))
	require.NoError(t, err)
	require.Equal(t, in, decoded)
}

func TestDigitBatchFallsBackToSingleUnderTightBudget(t *testing.T) {
	in := []Msg{
		DigitCapture{Pos: Pos{X: 1, Y: 1}, Digit: 2},
		DigitCapture{Pos: Pos{X: 1, Y: 2}, Digit: 2},
	}
	_, nBytes, nMsgs, err := Encode(nil, in, 4)
	require.NoError(t, err)
	require.Equal(t, 1, nMsgs)
	require.Equal(t, 3, nBytes)
}

func TestEncodeRejectsOutOfRange(t *testing.T) {
	cases := []Msg{
		TileOwner{Player: 16},
		Flag{Player: 20},
		DigitCapture{Digit: 9},
		CitMoney{Money: MaxMoney + 1},
		PlayerStatus{Player: 1, Status: Status(9)},
		BuildNew{Structure: Structure(42)},
		nil,
	}
	for _, m := range cases {
		out, nBytes, nMsgs, err := Encode(nil, []Msg{m}, 64)
		if err == nil {
			t.Fatalf("expected error for %#v", m)
		}
		if m != nil && !errors.Is(err, ErrFieldRange) {
			t.Fatalf("expected ErrFieldRange for %#v, got %v", m, err)
		}
		require.Empty(t, out)
		require.Zero(t, nBytes)
		require.Zero(t, nMsgs)
	}
}

func TestDecodeInvalidOpcode(t *testing.T) {
	for _, op := range []byte{0x00, 0x0A, 0x0F, 0x25, 0x2F, 0x49, 0x70, 0x7F} {
		_, err := DecodeAll([]byte{op, 0, 0, 0, 0, 0, 0, 0})
		if !errors.Is(err, ErrInvalidOpcode) {
			t.Fatalf("opcode 0x%02x: expected ErrInvalidOpcode, got %v", op, err)
		}
	}
}

func TestDecodeReportsOpcodeOffset(t *testing.T) {
	src := append(encodeAll(t, []Msg{Tremor{}, Smoke{}}, 64), 0x70)
	_, err := DecodeAll(src)
	var oe OpcodeError
	require.ErrorAs(t, err, &oe)
	require.Equal(t, 4, oe.Offset)
	require.Equal(t, byte(0x70), oe.Opcode)
}

func TestDecodeInvalidDiscriminant(t *testing.T) {
	cases := [][]byte{
		{opRevealItem, 0, 0, 9},
		{opRevealStructure, 0, 0, 9},
		{opBuildNew, 0, 0, 7, 0, 1},
		{opPlayerStatus, 0x1F},
		{opCitProdItem, 1, 200},
	}
	for _, src := range cases {
		_, err := DecodeAll(src)
		if !errors.Is(err, ErrInvalidDiscriminant) {
			t.Fatalf("%x: expected ErrInvalidDiscriminant, got %v", src, err)
		}
	}
}

func TestDecodeTruncated(t *testing.T) {
	full := encodeAll(t, everyKind(), 1<<16)
	for _, m := range everyKind() {
		enc := encodeAll(t, []Msg{m}, 64)
		if len(enc) < 2 {
			continue
		}
		_, _, err := Decode(nil, enc[:len(enc)-1])
		if !errors.Is(err, ErrTruncated) {
			t.Fatalf("%s: expected ErrTruncated, got %v", m.Kind(), err)
		}
	}
	_, err := DecodeAll(full[:len(full)-1])
	require.ErrorIs(t, err, ErrTruncated)
}
