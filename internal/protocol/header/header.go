package header

import (
	"encoding"
	"encoding/binary"
	"fmt"

	"github.com/blainsmith/seahash"
)

const (
	ISHeaderSize   = 22
	FileHeaderSize = 32

	// checksumFieldSize is the leading FileHeader field excluded from the
	// header checksum.
	checksumFieldSize = 8
)

// MaxMapSize bounds the map radius so every coordinate fits in an int8.
const MaxMapSize = 64

// MaxPlayerID is the largest player id a header may declare.
const MaxPlayerID = 15

// FlagMapLZ4 marks a map section stored as an LZ4 frame.
const FlagMapLZ4 uint8 = 0x01

// Version is the format version quadruplet. The fourth component is a
// forward-compatibility hint and is not compared.
type Version [4]uint8

// FormatVersion is the version written by this build.
var FormatVersion = Version{0, 4, 0, 0}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d.%d", v[0], v[1], v[2], v[3])
}

// Compatible reports whether major, minor and patch match.
func (v Version) Compatible(other Version) bool {
	return v[0] == other[0] && v[1] == other[1] && v[2] == other[2]
}

// CheckVersion gates v against FormatVersion.
func CheckVersion(v Version) error {
	if !v.Compatible(FormatVersion) {
		return VersionError{Got: v, Want: FormatVersion}
	}
	return nil
}

// Topology is the map grid shape.
type Topology uint8

const (
	TopologyHex    Topology = 0
	TopologySquare Topology = 1
)

func (t Topology) Valid() bool {
	return t == TopologyHex || t == TopologySquare
}

func (t Topology) String() string {
	switch t {
	case TopologyHex:
		return "hex"
	case TopologySquare:
		return "square"
	default:
		return fmt.Sprintf("topology(%d)", uint8(t))
	}
}

// ISHeader precedes the initialization sequence sections. Each length is the
// exact byte count of its section; sections follow in field order.
type ISHeader struct {
	Version     Version
	Topology    Topology
	Flags       uint8
	MapSize     uint8
	MaxPlayer   uint8
	Cits        uint8
	LenMap      uint32
	LenCitPos   uint16
	LenCitNames uint16
	LenPlayers  uint16
	LenRules    uint16
}

// FileHeader leads a replay file. ChecksumHeader covers every header byte
// after its own field.
type FileHeader struct {
	ChecksumHeader         uint64
	ChecksumIS             uint64
	ChecksumFrameData      uint64
	LenFrameDataCompressed uint32
	LenFrameDataRaw        uint32
}

var (
	_ encoding.BinaryMarshaler   = ISHeader{}
	_ encoding.BinaryUnmarshaler = (*ISHeader)(nil)
	_ encoding.BinaryMarshaler   = FileHeader{}
	_ encoding.BinaryUnmarshaler = (*FileHeader)(nil)
)

func (h ISHeader) MarshalBinary() ([]byte, error) {
	return h.AppendBinary(make([]byte, 0, ISHeaderSize))
}

// AppendBinary appends the packed header to b.
func (h ISHeader) AppendBinary(b []byte) ([]byte, error) {
	b = append(b, h.Version[:]...)
	b = append(b, byte(h.Topology), h.Flags, h.MapSize, h.MaxPlayer, h.Cits, 0)
	b = binary.BigEndian.AppendUint32(b, h.LenMap)
	b = binary.BigEndian.AppendUint16(b, h.LenCitPos)
	b = binary.BigEndian.AppendUint16(b, h.LenCitNames)
	b = binary.BigEndian.AppendUint16(b, h.LenPlayers)
	b = binary.BigEndian.AppendUint16(b, h.LenRules)
	return b, nil
}

// UnmarshalBinary unpacks b without judging field values; see Validate.
func (h *ISHeader) UnmarshalBinary(b []byte) error {
	if len(b) < ISHeaderSize {
		return ErrShortHeader
	}
	copy(h.Version[:], b[0:4])
	h.Topology = Topology(b[4])
	h.Flags = b[5]
	h.MapSize = b[6]
	h.MaxPlayer = b[7]
	h.Cits = b[8]
	h.LenMap = binary.BigEndian.Uint32(b[10:14])
	h.LenCitPos = binary.BigEndian.Uint16(b[14:16])
	h.LenCitNames = binary.BigEndian.Uint16(b[16:18])
	h.LenPlayers = binary.BigEndian.Uint16(b[18:20])
	h.LenRules = binary.BigEndian.Uint16(b[20:22])
	return nil
}

// Validate applies the version gate and checks enum and range fields.
func (h ISHeader) Validate() error {
	if err := CheckVersion(h.Version); err != nil {
		return err
	}
	if !h.Topology.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidTopology, h.Topology)
	}
	if h.MapSize == 0 || h.MapSize > MaxMapSize {
		return fmt.Errorf("%w: %d", ErrInvalidMapSize, h.MapSize)
	}
	if h.MaxPlayer == 0 || h.MaxPlayer > MaxPlayerID {
		return fmt.Errorf("%w: %d", ErrInvalidPlayers, h.MaxPlayer)
	}
	return nil
}

// MapLZ4 reports whether the map section is compressed.
func (h ISHeader) MapLZ4() bool {
	return h.Flags&FlagMapLZ4 != 0
}

// Sections holds section offsets relative to the first byte after the
// ISHeader. They are derived from the lengths and never stored.
type Sections struct {
	Map      int64
	CitPos   int64
	CitNames int64
	Players  int64
	Rules    int64
	End      int64
}

func (h ISHeader) Sections() Sections {
	var s Sections
	s.Map = 0
	s.CitPos = s.Map + int64(h.LenMap)
	s.CitNames = s.CitPos + int64(h.LenCitPos)
	s.Players = s.CitNames + int64(h.LenCitNames)
	s.Rules = s.Players + int64(h.LenPlayers)
	s.End = s.Rules + int64(h.LenRules)
	return s
}

// SectionsLen is the byte count of all sections together.
func (h ISHeader) SectionsLen() int64 {
	return h.Sections().End
}

func (h FileHeader) MarshalBinary() ([]byte, error) {
	return h.AppendBinary(make([]byte, 0, FileHeaderSize))
}

// AppendBinary appends the packed header to b.
func (h FileHeader) AppendBinary(b []byte) ([]byte, error) {
	b = binary.BigEndian.AppendUint64(b, h.ChecksumHeader)
	b = binary.BigEndian.AppendUint64(b, h.ChecksumIS)
	b = binary.BigEndian.AppendUint64(b, h.ChecksumFrameData)
	b = binary.BigEndian.AppendUint32(b, h.LenFrameDataCompressed)
	b = binary.BigEndian.AppendUint32(b, h.LenFrameDataRaw)
	return b, nil
}

func (h *FileHeader) UnmarshalBinary(b []byte) error {
	if len(b) < FileHeaderSize {
		return ErrShortHeader
	}
	h.ChecksumHeader = binary.BigEndian.Uint64(b[0:8])
	h.ChecksumIS = binary.BigEndian.Uint64(b[8:16])
	h.ChecksumFrameData = binary.BigEndian.Uint64(b[16:24])
	h.LenFrameDataCompressed = binary.BigEndian.Uint32(b[24:28])
	h.LenFrameDataRaw = binary.BigEndian.Uint32(b[28:32])
	return nil
}

// Compressed reports whether the persisted frame data must be decompressed.
func (h FileHeader) Compressed() bool {
	return h.LenFrameDataCompressed != h.LenFrameDataRaw
}

// Checksum hashes packed header bytes (FileHeader followed by ISHeader),
// skipping the leading checksum field.
func Checksum(packed []byte) uint64 {
	if len(packed) <= checksumFieldSize {
		return seahash.Sum64(nil)
	}
	return seahash.Sum64(packed[checksumFieldSize:])
}

// Seal packs fh and ish, computing and storing fh.ChecksumHeader. It returns
// the packed bytes ready to be written at the start of a file.
func Seal(fh *FileHeader, ish ISHeader) []byte {
	b := make([]byte, 0, FileHeaderSize+ISHeaderSize)
	b, _ = fh.AppendBinary(b)
	b, _ = ish.AppendBinary(b)
	fh.ChecksumHeader = Checksum(b)
	binary.BigEndian.PutUint64(b[0:checksumFieldSize], fh.ChecksumHeader)
	return b
}
