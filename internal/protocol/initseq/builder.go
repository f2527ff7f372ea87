package initseq

import (
	"bytes"
	"fmt"
	"hash"
	"io"
	"math"

	"github.com/blainsmith/seahash"
	"github.com/danmuck/mwproto/internal/protocol/header"
	"github.com/danmuck/mwproto/internal/protocol/seekbuf"
	"github.com/danmuck/mwproto/internal/protocol/tlv"
	"github.com/rs/zerolog/log"
)

// state is owned by exactly one stage value at a time.
type state struct {
	ws      io.WriteSeeker
	start   int64
	hdr     header.ISHeader
	hash    hash.Hash64
	scratch []byte
	zbuf    bytes.Buffer
}

// Builder is the first stage; it has reserved the header but written no
// section yet.
type Builder struct{ st *state }

// WithMap has written the map section.
type WithMap struct{ st *state }

// WithCits has written the city position and name sections.
type WithCits struct{ st *state }

// WithRules has written the player and rules sections.
type WithRules struct{ st *state }

// Sequence is a finished initialization sequence.
type Sequence struct {
	Header header.ISHeader
	// Checksum is the seahash of every section byte in order.
	Checksum uint64
	// Start is the stream offset of the ISHeader; End is one past the last
	// section byte.
	Start int64
	End   int64

	scratch []byte
}

// Scratch hands back the buffer threaded through the builder for reuse.
func (s *Sequence) Scratch() []byte {
	return s.scratch[:0]
}

// NewBuilder reserves an ISHeader at the current offset of ws. The scratch
// buffer is reused for every section encoding and must not be shared with a
// concurrent builder.
func NewBuilder(ws io.WriteSeeker, p Params, scratch []byte) (*Builder, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	start, err := ws.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, err
	}
	version := p.Version
	if version == (header.Version{}) {
		version = header.FormatVersion
	}
	st := &state{
		ws:    ws,
		start: start,
		hdr: header.ISHeader{
			Version:   version,
			Topology:  p.Topology,
			MapSize:   p.MapSize,
			MaxPlayer: uint8(p.MaxPlayer),
		},
		hash:    seahash.New(),
		scratch: scratch[:0],
	}
	var reserved [header.ISHeaderSize]byte
	if _, err := ws.Write(reserved[:]); err != nil {
		return nil, err
	}
	return &Builder{st: st}, nil
}

// take moves the state out of a stage once check accepts the input. A
// rejected input leaves the stage usable.
func take(p **state, check func(*state) error) (*state, error) {
	if *p == nil {
		return nil, ErrStageConsumed
	}
	if check != nil {
		if err := check(*p); err != nil {
			return nil, err
		}
	}
	st := *p
	*p = nil
	return st, nil
}

// emit writes one section's bytes and feeds the running checksum.
func (st *state) emit(b []byte) (int, error) {
	n, err := st.ws.Write(b)
	if err != nil {
		return n, err
	}
	st.hash.Write(b)
	return n, nil
}

func (st *state) checkMap(m MapData) error {
	if m.Topology != st.hdr.Topology {
		return fmt.Errorf("%w: map is %s, sequence is %s", ErrTopologyMismatch, m.Topology, st.hdr.Topology)
	}
	if m.Size != st.hdr.MapSize || len(m.Tiles) != TileCount(m.Size) {
		return fmt.Errorf("%w: size %d with %d tiles", ErrMapMismatch, m.Size, len(m.Tiles))
	}
	for i, t := range m.Tiles {
		if !t.Kind.Valid() || !t.Item.Valid() {
			return fmt.Errorf("%w: tile %d", ErrMapMismatch, i)
		}
	}
	return nil
}

func checkCits(cits []City) error {
	if len(cits) > math.MaxUint8 {
		return fmt.Errorf("%w: %d", ErrTooManyCits, len(cits))
	}
	for i, c := range cits {
		if len(c.Name) > maxNameLen {
			return fmt.Errorf("%w: city %d", ErrNameTooLong, i)
		}
	}
	return nil
}

func (st *state) checkRules(players []Player, fields []tlv.Field) error {
	if len(players) != int(st.hdr.MaxPlayer) {
		return fmt.Errorf("%w: got %d, want %d", ErrPlayerCount, len(players), st.hdr.MaxPlayer)
	}
	for i, p := range players {
		if len(p.Name) > maxNameLen {
			return fmt.Errorf("%w: player %d", ErrNameTooLong, i+1)
		}
	}
	_, err := RulesFromFields(fields)
	return err
}

// WithMapUncompressed writes the map section as raw tile bytes.
func (b *Builder) WithMapUncompressed(m MapData) (*WithMap, error) {
	st, err := take(&b.st, func(st *state) error { return st.checkMap(m) })
	if err != nil {
		return nil, err
	}
	st.scratch = appendMap(st.scratch[:0], m)
	n, err := st.emit(st.scratch)
	if err != nil {
		return nil, err
	}
	st.hdr.LenMap = uint32(n)
	return &WithMap{st: st}, nil
}

// WithMapLZ4 writes the map section as an LZ4 frame of the raw tile bytes.
func (b *Builder) WithMapLZ4(m MapData) (*WithMap, error) {
	st, err := take(&b.st, func(st *state) error { return st.checkMap(m) })
	if err != nil {
		return nil, err
	}
	st.scratch = appendMap(st.scratch[:0], m)
	if err := compressLZ4(&st.zbuf, st.scratch); err != nil {
		return nil, err
	}
	n, err := st.emit(st.zbuf.Bytes())
	if err != nil {
		return nil, err
	}
	st.hdr.Flags |= header.FlagMapLZ4
	st.hdr.LenMap = uint32(n)
	return &WithMap{st: st}, nil
}

// WithCits writes the city position section followed by the city name
// section.
func (w *WithMap) WithCits(cits []City) (*WithCits, error) {
	st, err := take(&w.st, func(*state) error { return checkCits(cits) })
	if err != nil {
		return nil, err
	}

	st.scratch = appendCitPositions(st.scratch[:0], cits)
	n, err := st.emit(st.scratch)
	if err != nil {
		return nil, err
	}
	st.hdr.LenCitPos = uint16(n)

	st.scratch = appendCitNames(st.scratch[:0], cits)
	n, err = st.emit(st.scratch)
	if err != nil {
		return nil, err
	}
	st.hdr.LenCitNames = uint16(n)
	st.hdr.Cits = uint8(len(cits))
	return &WithCits{st: st}, nil
}

// WithRules writes the player data section followed by the rules section.
// players holds ids 1..MaxPlayer in order.
func (w *WithCits) WithRules(players []Player, rules Rules) (*WithRules, error) {
	fields := rules.Fields()
	st, err := take(&w.st, func(st *state) error { return st.checkRules(players, fields) })
	if err != nil {
		return nil, err
	}

	st.scratch = appendPlayers(st.scratch[:0], players)
	n, err := st.emit(st.scratch)
	if err != nil {
		return nil, err
	}
	st.hdr.LenPlayers = uint16(n)

	st.scratch, err = tlv.AppendFields(st.scratch[:0], fields)
	if err != nil {
		return nil, err
	}
	if len(st.scratch) > math.MaxUint16 {
		return nil, fmt.Errorf("%w: rules has %d bytes", ErrSectionTooLarge, len(st.scratch))
	}
	n, err = st.emit(st.scratch)
	if err != nil {
		return nil, err
	}
	st.hdr.LenRules = uint16(n)
	return &WithRules{st: st}, nil
}

// Finish patches the header and ends the sequence without city, player or
// rules sections.
func (w *WithMap) Finish() (*Sequence, error) {
	st, err := take(&w.st, nil)
	if err != nil {
		return nil, err
	}
	return st.finish()
}

// Finish patches the header and ends the sequence without player or rules
// sections.
func (w *WithCits) Finish() (*Sequence, error) {
	st, err := take(&w.st, nil)
	if err != nil {
		return nil, err
	}
	return st.finish()
}

// Finish patches the header and ends the sequence.
func (w *WithRules) Finish() (*Sequence, error) {
	st, err := take(&w.st, nil)
	if err != nil {
		return nil, err
	}
	return st.finish()
}

func (st *state) finish() (*Sequence, error) {
	end, err := st.ws.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, err
	}
	hb, _ := st.hdr.MarshalBinary()
	if _, err := st.ws.Seek(st.start, io.SeekStart); err != nil {
		return nil, err
	}
	if _, err := st.ws.Write(hb); err != nil {
		return nil, err
	}
	if _, err := st.ws.Seek(end, io.SeekStart); err != nil {
		return nil, err
	}
	seq := &Sequence{
		Header:   st.hdr,
		Checksum: st.hash.Sum64(),
		Start:    st.start,
		End:      end,
		scratch:  st.scratch,
	}
	log.Debug().
		Str("topology", st.hdr.Topology.String()).
		Uint32("len_map", st.hdr.LenMap).
		Uint8("cits", st.hdr.Cits).
		Int64("bytes", end-st.start).
		Msg("initseq finished")
	return seq, nil
}

// Encode builds a complete sequence in memory, for transports that send the
// sequence as one payload.
func Encode(p Params, m MapData, compressMap bool, cits []City, players []Player, rules Rules) ([]byte, *Sequence, error) {
	var buf seekbuf.Buffer
	b, err := NewBuilder(&buf, p, nil)
	if err != nil {
		return nil, nil, err
	}
	var wm *WithMap
	if compressMap {
		wm, err = b.WithMapLZ4(m)
	} else {
		wm, err = b.WithMapUncompressed(m)
	}
	if err != nil {
		return nil, nil, err
	}
	wc, err := wm.WithCits(cits)
	if err != nil {
		return nil, nil, err
	}
	wr, err := wc.WithRules(players, rules)
	if err != nil {
		return nil, nil, err
	}
	seq, err := wr.Finish()
	if err != nil {
		return nil, nil, err
	}
	return buf.Bytes(), seq, nil
}
