// Package msggen produces deterministic pseudo-random game sessions for
// round-trip tests and the mwreplay gen command.
package msggen

import (
	"fmt"
	"io"
	"math/rand/v2"
	"time"

	"github.com/danmuck/mwproto/internal/protocol"
	"github.com/danmuck/mwproto/internal/protocol/header"
	"github.com/danmuck/mwproto/internal/protocol/initseq"
	"github.com/danmuck/mwproto/internal/protocol/replay"
)

// Gen is not safe for concurrent use.
type Gen struct {
	rng *rand.Rand
}

func New(seed uint64) *Gen {
	return &Gen{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// Pos returns a coordinate inside a map of the given size.
func (g *Gen) Pos(size uint8) protocol.Pos {
	s := int(size)
	return protocol.Pos{X: int8(g.rng.IntN(2*s) - s), Y: int8(g.rng.IntN(2*s) - s)}
}

func (g *Gen) player(maxPlayer protocol.PlayerID) protocol.PlayerID {
	return protocol.PlayerID(g.rng.IntN(int(maxPlayer) + 1))
}

// Msg returns one valid message of a random kind.
func (g *Gen) Msg(size uint8, maxPlayer protocol.PlayerID) protocol.Msg {
	pos := g.Pos(size)
	cit := uint8(g.rng.IntN(32))
	u16 := uint16(g.rng.Uint32())
	switch protocol.Kind(1 + g.rng.IntN(len(protocol.Kinds()))) {
	case protocol.KindTremor:
		return protocol.Tremor{}
	case protocol.KindSmoke:
		return protocol.Smoke{Pos: pos}
	case protocol.KindUnsmoke:
		return protocol.Unsmoke{Pos: pos}
	case protocol.KindCitMoney:
		return protocol.CitMoney{Cit: cit, Money: g.rng.Uint32N(protocol.MaxMoney + 1)}
	case protocol.KindCitIncome:
		return protocol.CitIncome{Cit: cit, Money: g.rng.Uint32N(protocol.MaxMoney + 1), Income: u16}
	case protocol.KindCitProdItem:
		return protocol.CitProdItem{Cit: cit, Item: protocol.Item(g.rng.IntN(4))}
	case protocol.KindCitTradeInfo:
		return protocol.CitTradeInfo{Cit: cit, Export: u16, Import: uint16(g.rng.Uint32())}
	case protocol.KindPlayerStatus:
		return protocol.PlayerStatus{Player: g.player(maxPlayer), Status: protocol.Status(g.rng.IntN(6))}
	case protocol.KindRevealItem:
		return protocol.RevealItem{Pos: pos, Item: protocol.Item(g.rng.IntN(4))}
	case protocol.KindRevealStructure:
		return protocol.RevealStructure{Pos: pos, Structure: protocol.Structure(g.rng.IntN(4))}
	case protocol.KindFlag:
		return protocol.Flag{Player: g.player(maxPlayer), Pos: pos}
	case protocol.KindStructureGone:
		return protocol.StructureGone{Pos: pos}
	case protocol.KindStructureHp:
		return protocol.StructureHp{Pos: pos, Hp: u16}
	case protocol.KindBuildNew:
		return protocol.BuildNew{Pos: pos, Structure: protocol.Structure(g.rng.IntN(4)), Points: u16}
	case protocol.KindBuildProgress:
		return protocol.BuildProgress{Pos: pos, Points: u16}
	case protocol.KindBuildCancel:
		return protocol.BuildCancel{Pos: pos}
	case protocol.KindExplode:
		return protocol.Explode{Pos: pos}
	case protocol.KindDigitCapture:
		return protocol.DigitCapture{Pos: pos, Digit: uint8(g.rng.IntN(protocol.MaxDigit + 1)), Asterisk: g.rng.IntN(2) == 0}
	default:
		return protocol.TileOwner{Player: g.player(maxPlayer), Pos: pos}
	}
}

// Msgs returns n messages. Kinds come in runs so the batching encoders see
// long same-kind sequences as well as isolated ones.
func (g *Gen) Msgs(n int, size uint8, maxPlayer protocol.PlayerID) []protocol.Msg {
	out := make([]protocol.Msg, 0, n)
	for len(out) < n {
		m := g.Msg(size, maxPlayer)
		run := 1
		if g.rng.IntN(3) == 0 {
			run = 1 + g.rng.IntN(24)
		}
		for i := 0; i < run && len(out) < n; i++ {
			out = append(out, similar(g, m, size))
		}
	}
	return out
}

// similar keeps the kind (and the TileOwner player) of m but varies its
// position and payload.
func similar(g *Gen, m protocol.Msg, size uint8) protocol.Msg {
	pos := g.Pos(size)
	switch v := m.(type) {
	case protocol.TileOwner:
		v.Pos = pos
		return v
	case protocol.Explode:
		return protocol.Explode{Pos: pos}
	case protocol.DigitCapture:
		return protocol.DigitCapture{Pos: pos, Digit: uint8(g.rng.IntN(protocol.MaxDigit + 1)), Asterisk: g.rng.IntN(2) == 0}
	default:
		return m
	}
}

// Tick is one simulation step: a delta and the messages each player sees.
type Tick struct {
	Delta time.Duration
	Views map[protocol.PlayerID][]protocol.Msg
}

// Tick returns a step where some players share the same view.
func (g *Gen) Tick(size uint8, maxPlayer protocol.PlayerID) Tick {
	t := Tick{Views: make(map[protocol.PlayerID][]protocol.Msg)}
	switch g.rng.IntN(10) {
	case 0:
		t.Delta = time.Duration(32_767+g.rng.IntN(70_000)) * time.Millisecond
	default:
		t.Delta = time.Duration(g.rng.IntN(500)) * time.Millisecond
	}
	if g.rng.IntN(5) == 0 {
		return t
	}
	shared := g.Msgs(g.rng.IntN(40), size, maxPlayer)
	for p := protocol.PlayerID(1); p <= maxPlayer; p++ {
		if g.rng.IntN(2) == 0 {
			t.Views[p] = shared
		} else {
			t.Views[p] = g.Msgs(g.rng.IntN(200), size, maxPlayer)
		}
	}
	return t
}

// Map returns a complete tile grid.
func (g *Gen) Map(topo header.Topology, size uint8) initseq.MapData {
	m := initseq.MapData{Topology: topo, Size: size, Tiles: make([]initseq.Tile, initseq.TileCount(size))}
	for i := range m.Tiles {
		// mostly regular land so the map compresses like a real one
		kind := initseq.TileRegular
		if g.rng.IntN(4) == 0 {
			kind = initseq.TileKind(g.rng.IntN(int(initseq.TileFoundation) + 1))
		}
		m.Tiles[i] = initseq.Tile{
			Kind:   kind,
			Item:   protocol.Item(g.rng.IntN(int(protocol.ItemTrap) + 1)),
			Region: uint8(i / 64),
		}
	}
	return m
}

func (g *Gen) Cits(n int, size uint8) []initseq.City {
	cits := make([]initseq.City, n)
	for i := range cits {
		cits[i] = initseq.City{Pos: g.Pos(size), Name: fmt.Sprintf("cit-%02d", i)}
	}
	return cits
}

// Players returns metadata for ids 1..maxPlayer.
func (g *Gen) Players(maxPlayer protocol.PlayerID) []initseq.Player {
	players := make([]initseq.Player, maxPlayer)
	for i := range players {
		players[i] = initseq.Player{Name: fmt.Sprintf("player-%d", i+1), Team: uint8(g.rng.IntN(4))}
	}
	return players
}

func (g *Gen) Rules() initseq.Rules {
	return initseq.Rules{
		StartMoney:    uint32(500 + g.rng.IntN(2000)),
		BaseIncome:    uint16(g.rng.IntN(100)),
		CitRadius:     uint8(2 + g.rng.IntN(6)),
		SmokeDuration: time.Duration(1+g.rng.IntN(30)) * time.Second,
		FogOfWar:      g.rng.IntN(2) == 0,
		GameMode:      "ffa",
	}
}

// Session is everything needed to write one replay.
type Session struct {
	Params  initseq.Params
	Map     initseq.MapData
	Cits    []initseq.City
	Players []initseq.Player
	Rules   initseq.Rules
	Ticks   []Tick
}

func (g *Gen) Session(topo header.Topology, size uint8, maxPlayer protocol.PlayerID, ticks int) Session {
	s := Session{
		Params:  initseq.Params{Topology: topo, MapSize: size, MaxPlayer: maxPlayer},
		Map:     g.Map(topo, size),
		Cits:    g.Cits(1+g.rng.IntN(12), size),
		Players: g.Players(maxPlayer),
		Rules:   g.Rules(),
		Ticks:   make([]Tick, ticks),
	}
	for i := range s.Ticks {
		s.Ticks[i] = g.Tick(size, maxPlayer)
	}
	return s
}

// Elapsed is the sum of every tick delta, truncated to the millisecond like
// the frame writer does.
func (s Session) Elapsed() time.Duration {
	var ms int64
	for _, t := range s.Ticks {
		ms += t.Delta.Milliseconds()
	}
	return time.Duration(ms) * time.Millisecond
}

// WriteReplay writes s as a complete replay file to ws.
func WriteReplay(ws io.WriteSeeker, s Session, opts replay.Options, compressMap bool) (header.FileHeader, error) {
	w, err := replay.NewWriter(ws, opts)
	if err != nil {
		return header.FileHeader{}, err
	}
	b, err := w.BeginIS(s.Params)
	if err != nil {
		return header.FileHeader{}, err
	}
	var wm *initseq.WithMap
	if compressMap {
		wm, err = b.WithMapLZ4(s.Map)
	} else {
		wm, err = b.WithMapUncompressed(s.Map)
	}
	if err != nil {
		return header.FileHeader{}, err
	}
	wc, err := wm.WithCits(s.Cits)
	if err != nil {
		return header.FileHeader{}, err
	}
	wr, err := wc.WithRules(s.Players, s.Rules)
	if err != nil {
		return header.FileHeader{}, err
	}
	seq, err := wr.Finish()
	if err != nil {
		return header.FileHeader{}, err
	}
	fw, err := w.StartFrames(seq)
	if err != nil {
		return header.FileHeader{}, err
	}
	for i, t := range s.Ticks {
		if err := fw.WriteTick(t.Delta, t.Views); err != nil {
			return header.FileHeader{}, fmt.Errorf("tick %d: %w", i, err)
		}
	}
	if err := w.Close(); err != nil {
		return header.FileHeader{}, err
	}
	return w.FileHeader(), nil
}
