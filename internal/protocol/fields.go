package protocol

// Item is an item hidden under (or produced for) a tile.
type Item uint8

const (
	ItemNone Item = iota
	ItemDecoy
	ItemMine
	ItemTrap
)

// Structure is a buildable structure kind.
type Structure uint8

const (
	StructureRoad Structure = iota
	StructureBridge
	StructureWall
	StructureTower
)

// Status is a player's session-visible state. It travels as a nibble.
type Status uint8

const (
	StatusJoined Status = iota
	StatusDisconnected
	StatusReconnected
	StatusEliminated
	StatusSurrendered
	StatusVictorious
)

func (i Item) Valid() bool      { return i <= ItemTrap }
func (s Structure) Valid() bool { return s <= StructureTower }
func (s Status) Valid() bool    { return s <= StatusVictorious }

// Batch limits per batchable kind.
const (
	MaxTileOwnerBatch    = 8
	MaxExplodeBatch      = 16
	MaxDigitCaptureBatch = 16
)

// MaxDigit is the largest digit a capture can carry. Batched captures only
// carry digits up to MaxPackedDigit because each tile gets one nibble.
const (
	MaxDigit       = 8
	MaxPackedDigit = 7
)

// MaxMoney is the largest treasury value; the top bit of the money word
// flags the income variant.
const MaxMoney = 1<<31 - 1
