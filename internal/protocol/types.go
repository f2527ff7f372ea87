package protocol

import "fmt"

// PlayerID identifies a player view. It travels as a 4-bit nibble.
type PlayerID uint8

const (
	PlayerNeutral PlayerID = 0
	MaxPlayerID   PlayerID = 15
)

// Pos is a map cell coordinate.
type Pos struct {
	X int8
	Y int8
}

func (p Pos) String() string {
	return fmt.Sprintf("(%d,%d)", p.X, p.Y)
}

// Kind names a Msg variant.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindTremor
	KindSmoke
	KindUnsmoke
	KindCitMoney
	KindCitIncome
	KindCitProdItem
	KindCitTradeInfo
	KindPlayerStatus
	KindRevealItem
	KindRevealStructure
	KindFlag
	KindStructureGone
	KindStructureHp
	KindBuildNew
	KindBuildProgress
	KindBuildCancel
	KindExplode
	KindDigitCapture
	KindTileOwner
)

var kindNames = [...]string{
	KindUnknown:         "unknown",
	KindTremor:          "tremor",
	KindSmoke:           "smoke",
	KindUnsmoke:         "unsmoke",
	KindCitMoney:        "cit_money",
	KindCitIncome:       "cit_income",
	KindCitProdItem:     "cit_prod_item",
	KindCitTradeInfo:    "cit_trade_info",
	KindPlayerStatus:    "player_status",
	KindRevealItem:      "reveal_item",
	KindRevealStructure: "reveal_structure",
	KindFlag:            "flag",
	KindStructureGone:   "structure_gone",
	KindStructureHp:     "structure_hp",
	KindBuildNew:        "build_new",
	KindBuildProgress:   "build_progress",
	KindBuildCancel:     "build_cancel",
	KindExplode:         "explode",
	KindDigitCapture:    "digit_capture",
	KindTileOwner:       "tile_owner",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Kinds lists every concrete message kind in opcode-table order.
func Kinds() []Kind {
	out := make([]Kind, 0, len(kindNames)-1)
	for k := KindTremor; int(k) < len(kindNames); k++ {
		out = append(out, k)
	}
	return out
}

// Msg is one discrete game event. The set of implementations is closed.
type Msg interface {
	Kind() Kind
	isMsg()
}

type Tremor struct{}

type Smoke struct {
	Pos Pos
}

type Unsmoke struct {
	Pos Pos
}

// CitMoney reports a city's treasury. Money must fit in 31 bits.
type CitMoney struct {
	Cit   uint8
	Money uint32
}

// CitIncome reports a city's treasury together with its income rate.
type CitIncome struct {
	Cit    uint8
	Money  uint32
	Income uint16
}

type CitProdItem struct {
	Cit  uint8
	Item Item
}

type CitTradeInfo struct {
	Cit    uint8
	Export uint16
	Import uint16
}

type PlayerStatus struct {
	Player PlayerID
	Status Status
}

type RevealItem struct {
	Pos  Pos
	Item Item
}

type RevealStructure struct {
	Pos       Pos
	Structure Structure
}

// Flag places a flag owned by Player; PlayerNeutral clears it.
type Flag struct {
	Player PlayerID
	Pos    Pos
}

type StructureGone struct {
	Pos Pos
}

type StructureHp struct {
	Pos Pos
	Hp  uint16
}

type BuildNew struct {
	Pos       Pos
	Structure Structure
	Points    uint16
}

type BuildProgress struct {
	Pos    Pos
	Points uint16
}

type BuildCancel struct {
	Pos Pos
}

type Explode struct {
	Pos Pos
}

// DigitCapture reveals the mine-count digit of a captured tile. Asterisk
// marks a digit that counts decoys or other ambiguous items.
type DigitCapture struct {
	Pos      Pos
	Digit    uint8
	Asterisk bool
}

type TileOwner struct {
	Player PlayerID
	Pos    Pos
}

func (Tremor) Kind() Kind          { return KindTremor }
func (Smoke) Kind() Kind           { return KindSmoke }
func (Unsmoke) Kind() Kind         { return KindUnsmoke }
func (CitMoney) Kind() Kind        { return KindCitMoney }
func (CitIncome) Kind() Kind       { return KindCitIncome }
func (CitProdItem) Kind() Kind     { return KindCitProdItem }
func (CitTradeInfo) Kind() Kind    { return KindCitTradeInfo }
func (PlayerStatus) Kind() Kind    { return KindPlayerStatus }
func (RevealItem) Kind() Kind      { return KindRevealItem }
func (RevealStructure) Kind() Kind { return KindRevealStructure }
func (Flag) Kind() Kind            { return KindFlag }
func (StructureGone) Kind() Kind   { return KindStructureGone }
func (StructureHp) Kind() Kind     { return KindStructureHp }
func (BuildNew) Kind() Kind        { return KindBuildNew }
func (BuildProgress) Kind() Kind   { return KindBuildProgress }
func (BuildCancel) Kind() Kind     { return KindBuildCancel }
func (Explode) Kind() Kind         { return KindExplode }
func (DigitCapture) Kind() Kind    { return KindDigitCapture }
func (TileOwner) Kind() Kind       { return KindTileOwner }

func (Tremor) isMsg()          {}
func (Smoke) isMsg()           {}
func (Unsmoke) isMsg()         {}
func (CitMoney) isMsg()        {}
func (CitIncome) isMsg()       {}
func (CitProdItem) isMsg()     {}
func (CitTradeInfo) isMsg()    {}
func (PlayerStatus) isMsg()    {}
func (RevealItem) isMsg()      {}
func (RevealStructure) isMsg() {}
func (Flag) isMsg()            {}
func (StructureGone) isMsg()   {}
func (StructureHp) isMsg()     {}
func (BuildNew) isMsg()        {}
func (BuildProgress) isMsg()   {}
func (BuildCancel) isMsg()     {}
func (Explode) isMsg()         {}
func (DigitCapture) isMsg()    {}
func (TileOwner) isMsg()       {}
