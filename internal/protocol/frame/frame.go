package frame

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/danmuck/mwproto/internal/protocol"
)

const (
	// KeepaliveMs is both the keepalive marker in the low 15 bits of the
	// delta word and the time a keepalive frame advances.
	KeepaliveMs = 0x7FFF
	// MaxDeltaMs is the largest delta a data frame can carry.
	MaxDeltaMs = KeepaliveMs - 1
	// MaxPayload bounds one view's payload in one frame.
	MaxPayload = 256

	homogeneousBit uint16 = 0x8000
	deltaBits      uint16 = 0x7FFF
)

var (
	ErrTruncatedFrame   = errors.New("frame: truncated frame")
	ErrPlayerOutOfRange = errors.New("frame: player out of range")
	ErrEmptyMask        = errors.New("frame: homogeneous frame with empty mask")
	ErrPayloadSize      = errors.New("frame: payload must be 1..256 bytes")
	ErrDuplicateView    = errors.New("frame: duplicate view for player")
	ErrNegativeDelta    = errors.New("frame: negative delta")
)

// Kind is derived from a frame's leading two bytes. It is never stored.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindKeepalive
	KindHomogeneous
	KindHeterogeneous
)

func (k Kind) String() string {
	switch k {
	case KindKeepalive:
		return "keepalive"
	case KindHomogeneous:
		return "homogeneous"
	case KindHeterogeneous:
		return "heterogeneous"
	default:
		return "unknown"
	}
}

// KindOf classifies the frame starting at b.
func KindOf(b []byte) Kind {
	if len(b) < 2 {
		return KindUnknown
	}
	return kindOfWord(binary.BigEndian.Uint16(b))
}

func kindOfWord(word uint16) Kind {
	switch {
	case word&deltaBits == KeepaliveMs:
		return KindKeepalive
	case word&homogeneousBit != 0:
		return KindHomogeneous
	default:
		return KindHeterogeneous
	}
}

// MaskLen is the width of the player mask for a session whose highest
// player id is maxPlayer.
func MaskLen(maxPlayer protocol.PlayerID) int {
	if maxPlayer <= 7 {
		return 1
	}
	return 2
}

// View is the payload one player receives in a frame.
type View struct {
	Player  protocol.PlayerID
	Payload []byte
}

// Frame is one decoded frame. Views are ordered by player id.
type Frame struct {
	Kind  Kind
	Delta time.Duration
	Views []View
}

// View returns the payload addressed to player.
func (f Frame) View(player protocol.PlayerID) ([]byte, bool) {
	for _, v := range f.Views {
		if v.Player == player {
			return v.Payload, true
		}
	}
	return nil, false
}

// Msgs decodes the view addressed to player. A player without a view in this
// frame has no messages.
func (f Frame) Msgs(player protocol.PlayerID) ([]protocol.Msg, error) {
	p, ok := f.View(player)
	if !ok {
		return nil, nil
	}
	return protocol.DecodeAll(p)
}

// Stats counts what a Writer or Reader has processed.
type Stats struct {
	Keepalive     uint64 `json:"keepalive"`
	Homogeneous   uint64 `json:"homogeneous"`
	Heterogeneous uint64 `json:"heterogeneous"`
	Msgs          uint64 `json:"msgs,omitempty"`
	Bytes         uint64 `json:"bytes"`
}

func (s *Stats) add(k Kind, n int) {
	switch k {
	case KindKeepalive:
		s.Keepalive++
	case KindHomogeneous:
		s.Homogeneous++
	case KindHeterogeneous:
		s.Heterogeneous++
	}
	s.Bytes += uint64(n)
}

// Frames is the total frame count.
func (s Stats) Frames() uint64 {
	return s.Keepalive + s.Homogeneous + s.Heterogeneous
}

func checkMaxPlayer(maxPlayer protocol.PlayerID) error {
	if maxPlayer > protocol.MaxPlayerID {
		return fmt.Errorf("%w: max player %d", ErrPlayerOutOfRange, maxPlayer)
	}
	return nil
}

// Writer emits frames for a session with a fixed highest player id.
type Writer struct {
	w         io.Writer
	maxPlayer protocol.PlayerID
	maskLen   int
	elapsedMs int64
	stats     Stats

	buf   []byte
	views []View
	enc   [protocol.MaxPlayerID + 1][]byte
}

func NewWriter(w io.Writer, maxPlayer protocol.PlayerID) (*Writer, error) {
	if err := checkMaxPlayer(maxPlayer); err != nil {
		return nil, err
	}
	return &Writer{w: w, maxPlayer: maxPlayer, maskLen: MaskLen(maxPlayer)}, nil
}

// Elapsed is the total time written so far, keepalives included.
func (w *Writer) Elapsed() time.Duration {
	return time.Duration(w.elapsedMs) * time.Millisecond
}

func (w *Writer) Stats() Stats {
	return w.stats
}

func (w *Writer) flush(k Kind) error {
	if _, err := w.w.Write(w.buf); err != nil {
		return err
	}
	w.stats.add(k, len(w.buf))
	return nil
}

// WriteKeepalive advances time by KeepaliveMs without any payload.
func (w *Writer) WriteKeepalive() error {
	w.buf = binary.BigEndian.AppendUint16(w.buf[:0], KeepaliveMs)
	if err := w.flush(KindKeepalive); err != nil {
		return err
	}
	w.elapsedMs += KeepaliveMs
	return nil
}

// drain splits delta into keepalives and returns the remainder in ms.
func (w *Writer) drain(delta time.Duration) (uint16, error) {
	if delta < 0 {
		return 0, ErrNegativeDelta
	}
	ms := delta.Milliseconds()
	for ms >= KeepaliveMs {
		if err := w.WriteKeepalive(); err != nil {
			return 0, err
		}
		ms -= KeepaliveMs
	}
	return uint16(ms), nil
}

// WriteRaw emits one frame carrying pre-encoded views. Byte-identical views
// share a homogeneous frame. No views at all still advances time.
func (w *Writer) WriteRaw(delta time.Duration, views []View) error {
	w.views = append(w.views[:0], views...)
	slices.SortFunc(w.views, func(a, b View) int { return int(a.Player) - int(b.Player) })
	var mask uint16
	homogeneous := len(w.views) > 0
	for i, v := range w.views {
		if v.Player > w.maxPlayer {
			return fmt.Errorf("%w: player %d, max %d", ErrPlayerOutOfRange, v.Player, w.maxPlayer)
		}
		if len(v.Payload) == 0 || len(v.Payload) > MaxPayload {
			return fmt.Errorf("%w: player %d has %d", ErrPayloadSize, v.Player, len(v.Payload))
		}
		if mask&(1<<v.Player) != 0 {
			return fmt.Errorf("%w %d", ErrDuplicateView, v.Player)
		}
		mask |= 1 << v.Player
		if i > 0 && !bytes.Equal(v.Payload, w.views[0].Payload) {
			homogeneous = false
		}
	}

	ms, err := w.drain(delta)
	if err != nil {
		return err
	}
	word := ms
	kind := KindHeterogeneous
	if homogeneous {
		word |= homogeneousBit
		kind = KindHomogeneous
	}
	w.buf = binary.BigEndian.AppendUint16(w.buf[:0], word)
	if w.maskLen == 1 {
		w.buf = append(w.buf, byte(mask))
	} else {
		w.buf = binary.BigEndian.AppendUint16(w.buf, mask)
	}
	if homogeneous {
		w.buf = append(w.buf, byte(len(w.views[0].Payload)-1))
		w.buf = append(w.buf, w.views[0].Payload...)
	} else {
		for _, v := range w.views {
			w.buf = append(w.buf, byte(len(v.Payload)-1))
		}
		for _, v := range w.views {
			w.buf = append(w.buf, v.Payload...)
		}
	}
	if err := w.flush(kind); err != nil {
		return err
	}
	w.elapsedMs += int64(ms)
	return nil
}

// WriteTick encodes each player's messages and emits as many frames as the
// per-view payload limit requires. Follow-up frames carry delta 0.
func (w *Writer) WriteTick(delta time.Duration, views map[protocol.PlayerID][]protocol.Msg) error {
	players := make([]protocol.PlayerID, 0, len(views))
	pending := make(map[protocol.PlayerID][]protocol.Msg, len(views))
	for p, msgs := range views {
		if p > w.maxPlayer {
			return fmt.Errorf("%w: player %d, max %d", ErrPlayerOutOfRange, p, w.maxPlayer)
		}
		if len(msgs) > 0 {
			players = append(players, p)
			pending[p] = msgs
		}
	}
	slices.Sort(players)

	var out []View
	for first := true; first || len(pending) > 0; first = false {
		out = out[:0]
		var sent uint64
		for _, p := range players {
			msgs, ok := pending[p]
			if !ok {
				continue
			}
			enc, _, n, err := protocol.EncodeAll(w.enc[p][:0], msgs, MaxPayload)
			if err != nil {
				return fmt.Errorf("player %d: %w", p, err)
			}
			if n == 0 {
				return fmt.Errorf("%w: player %d message does not fit", ErrPayloadSize, p)
			}
			w.enc[p] = enc
			sent += uint64(n)
			if n == len(msgs) {
				delete(pending, p)
			} else {
				pending[p] = msgs[n:]
			}
			out = append(out, View{Player: p, Payload: enc})
		}
		d := delta
		if !first {
			d = 0
		}
		if err := w.WriteRaw(d, out); err != nil {
			return err
		}
		w.stats.Msgs += sent
	}
	return nil
}

// Reader decodes a frame stream.
type Reader struct {
	r         io.Reader
	maxPlayer protocol.PlayerID
	maskLen   int
	elapsedMs int64
	stats     Stats
}

func NewReader(r io.Reader, maxPlayer protocol.PlayerID) (*Reader, error) {
	if err := checkMaxPlayer(maxPlayer); err != nil {
		return nil, err
	}
	return &Reader{r: r, maxPlayer: maxPlayer, maskLen: MaskLen(maxPlayer)}, nil
}

// Elapsed is the sum of every delta read so far.
func (r *Reader) Elapsed() time.Duration {
	return time.Duration(r.elapsedMs) * time.Millisecond
}

func (r *Reader) Stats() Stats {
	return r.stats
}

func (r *Reader) read(p []byte) error {
	if _, err := io.ReadFull(r.r, p); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return ErrTruncatedFrame
		}
		return err
	}
	return nil
}

// Next returns the next frame, or io.EOF when the stream ends on a frame
// boundary.
func (r *Reader) Next() (Frame, error) {
	var head [4]byte
	if _, err := io.ReadFull(r.r, head[:2]); err != nil {
		if errors.Is(err, io.EOF) {
			return Frame{}, io.EOF
		}
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return Frame{}, ErrTruncatedFrame
		}
		return Frame{}, err
	}
	word := binary.BigEndian.Uint16(head[:2])
	kind := kindOfWord(word)
	if kind == KindKeepalive {
		r.stats.add(kind, 2)
		r.elapsedMs += KeepaliveMs
		return Frame{Kind: kind, Delta: KeepaliveMs * time.Millisecond}, nil
	}
	ms := word & deltaBits

	maskBytes := head[2 : 2+r.maskLen]
	if err := r.read(maskBytes); err != nil {
		return Frame{}, err
	}
	var mask uint16
	if r.maskLen == 1 {
		mask = uint16(maskBytes[0])
	} else {
		mask = binary.BigEndian.Uint16(maskBytes)
	}
	if mask>>(r.maxPlayer+1) != 0 {
		return Frame{}, fmt.Errorf("%w: mask 0x%04x, max %d", ErrPlayerOutOfRange, mask, r.maxPlayer)
	}

	var players []protocol.PlayerID
	for p := protocol.PlayerID(0); p <= r.maxPlayer; p++ {
		if mask&(1<<p) != 0 {
			players = append(players, p)
		}
	}
	f := Frame{Kind: kind, Delta: time.Duration(ms) * time.Millisecond, Views: make([]View, len(players))}
	n := 2 + r.maskLen

	if kind == KindHomogeneous {
		if len(players) == 0 {
			return Frame{}, ErrEmptyMask
		}
		var lb [1]byte
		if err := r.read(lb[:]); err != nil {
			return Frame{}, err
		}
		payload := make([]byte, int(lb[0])+1)
		if err := r.read(payload); err != nil {
			return Frame{}, err
		}
		for i, p := range players {
			f.Views[i] = View{Player: p, Payload: payload}
		}
		n += 1 + len(payload)
	} else {
		lens := make([]byte, len(players))
		if err := r.read(lens); err != nil {
			return Frame{}, err
		}
		for i, p := range players {
			payload := make([]byte, int(lens[i])+1)
			if err := r.read(payload); err != nil {
				return Frame{}, err
			}
			f.Views[i] = View{Player: p, Payload: payload}
			n += 1 + len(payload)
		}
	}
	r.stats.add(kind, n)
	r.elapsedMs += int64(ms)
	return f, nil
}
