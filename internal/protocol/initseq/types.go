package initseq

import (
	"fmt"
	"time"

	"github.com/danmuck/mwproto/internal/protocol"
	"github.com/danmuck/mwproto/internal/protocol/header"
	"github.com/danmuck/mwproto/internal/protocol/schema"
	"github.com/danmuck/mwproto/internal/protocol/tlv"
)

// Params fixes the header fields known before any section is written.
type Params struct {
	Topology  header.Topology
	MapSize   uint8
	MaxPlayer protocol.PlayerID
	// Version defaults to header.FormatVersion when zero.
	Version header.Version
}

func (p Params) validate() error {
	if !p.Topology.Valid() {
		return fmt.Errorf("%w: topology %d", ErrInvalidParams, p.Topology)
	}
	if p.MapSize == 0 || p.MapSize > header.MaxMapSize {
		return fmt.Errorf("%w: map size %d", ErrInvalidParams, p.MapSize)
	}
	if p.MaxPlayer == 0 || p.MaxPlayer > protocol.MaxPlayerID {
		return fmt.Errorf("%w: max player %d", ErrInvalidParams, p.MaxPlayer)
	}
	return nil
}

// TileKind is the terrain of a map tile.
type TileKind uint8

const (
	TileWater TileKind = iota
	TileRegular
	TileFertile
	TileMountain
	TileForest
	TileDestroyed
	TileFoundation
)

func (k TileKind) Valid() bool { return k <= TileFoundation }

// Tile is one map cell. It packs into two bytes: kind|item<<4, region.
type Tile struct {
	Kind   TileKind
	Item   protocol.Item
	Region uint8
}

// MapData holds a (2*Size)^2 tile grid in row-major order. Hex maps use the
// same storage with axial coordinates.
type MapData struct {
	Topology header.Topology
	Size     uint8
	Tiles    []Tile
}

// Side is the number of tiles per row.
func (m MapData) Side() int {
	return 2 * int(m.Size)
}

// TileCount is the number of tiles a map of size must carry.
func TileCount(size uint8) int {
	side := 2 * int(size)
	return side * side
}

// Index maps a coordinate to its tile index.
func (m MapData) Index(p protocol.Pos) (int, bool) {
	x := int(p.X) + int(m.Size)
	y := int(p.Y) + int(m.Size)
	side := m.Side()
	if x < 0 || y < 0 || x >= side || y >= side {
		return 0, false
	}
	return y*side + x, true
}

// At returns the tile at p.
func (m MapData) At(p protocol.Pos) (Tile, bool) {
	i, ok := m.Index(p)
	if !ok || i >= len(m.Tiles) {
		return Tile{}, false
	}
	return m.Tiles[i], true
}

// City is a region capital.
type City struct {
	Pos  protocol.Pos
	Name string
}

// Player is per-player session metadata for ids 1..MaxPlayer.
type Player struct {
	Name string
	Team uint8
}

// Rules is the typed view of the rules section. Zero optional values are
// omitted from the wire.
type Rules struct {
	StartMoney    uint32
	BaseIncome    uint16
	CitRadius     uint8
	SmokeDuration time.Duration
	ExplodeRadius uint8
	FogOfWar      bool
	GameMode      string
	TimeLimit     time.Duration
	// Extra carries fields this build does not know, preserved verbatim.
	Extra []tlv.Field
}

// Fields renders r as rules TLV fields.
func (r Rules) Fields() []tlv.Field {
	fields := []tlv.Field{
		tlv.U32(schema.RuleStartMoney, r.StartMoney),
		tlv.U16(schema.RuleBaseIncome, r.BaseIncome),
		tlv.U8(schema.RuleCitRadius, r.CitRadius),
		tlv.Bool(schema.RuleFogOfWar, r.FogOfWar),
		tlv.String(schema.RuleGameMode, r.GameMode),
	}
	if r.SmokeDuration > 0 {
		fields = append(fields, tlv.U32(schema.RuleSmokeMs, uint32(r.SmokeDuration.Milliseconds())))
	}
	if r.ExplodeRadius > 0 {
		fields = append(fields, tlv.U8(schema.RuleExplodeRadius, r.ExplodeRadius))
	}
	if r.TimeLimit > 0 {
		fields = append(fields, tlv.U32(schema.RuleTimeLimitSecs, uint32(r.TimeLimit/time.Second)))
	}
	for _, f := range r.Extra {
		if !schema.Known(schema.SectionRules, f.ID) {
			fields = append(fields, f)
		}
	}
	return fields
}

// RulesFromFields validates fields against the rules schema and decodes them.
func RulesFromFields(fields []tlv.Field) (Rules, error) {
	if err := schema.Validate(schema.SectionRules, fields); err != nil {
		return Rules{}, err
	}
	var r Rules
	for _, f := range fields {
		if f.Type == tlv.TypeString {
			if f.ID == schema.RuleGameMode {
				r.GameMode = string(f.Value)
			} else {
				r.Extra = append(r.Extra, f)
			}
			continue
		}
		if !schema.Known(schema.SectionRules, f.ID) {
			r.Extra = append(r.Extra, f)
			continue
		}
		v, err := f.Uint()
		if err != nil {
			return Rules{}, err
		}
		switch f.ID {
		case schema.RuleStartMoney:
			r.StartMoney = v
		case schema.RuleBaseIncome:
			r.BaseIncome = uint16(v)
		case schema.RuleCitRadius:
			r.CitRadius = uint8(v)
		case schema.RuleSmokeMs:
			r.SmokeDuration = time.Duration(v) * time.Millisecond
		case schema.RuleExplodeRadius:
			r.ExplodeRadius = uint8(v)
		case schema.RuleFogOfWar:
			r.FogOfWar = v != 0
		case schema.RuleTimeLimitSecs:
			r.TimeLimit = time.Duration(v) * time.Second
		}
	}
	return r, nil
}
