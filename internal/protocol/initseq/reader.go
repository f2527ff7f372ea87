package initseq

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/blainsmith/seahash"
	"github.com/danmuck/mwproto/internal/protocol"
	"github.com/danmuck/mwproto/internal/protocol/header"
	"github.com/danmuck/mwproto/internal/protocol/tlv"
)

// Reader holds a decoded ISHeader and the raw section bytes. Sections are
// parsed on demand.
type Reader struct {
	hdr      header.ISHeader
	data     []byte
	checksum uint64
}

// Read consumes one sequence from r: the header (which must pass the version
// gate) followed by exactly the section bytes it declares.
func Read(r io.Reader) (*Reader, error) {
	var hb [header.ISHeaderSize]byte
	if _, err := io.ReadFull(r, hb[:]); err != nil {
		return nil, readErr(err)
	}
	var hdr header.ISHeader
	if err := hdr.UnmarshalBinary(hb[:]); err != nil {
		return nil, err
	}
	if err := hdr.Validate(); err != nil {
		return nil, err
	}
	if limit := MaxMapLen(hdr); int64(hdr.LenMap) > limit {
		return nil, fmt.Errorf("%w: map declares %d bytes, at most %d", ErrSectionLength, hdr.LenMap, limit)
	}
	data := make([]byte, hdr.SectionsLen())
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, readErr(err)
	}
	return &Reader{hdr: hdr, data: data, checksum: seahash.Sum64(data)}, nil
}

// Decode reads a sequence held entirely in b.
func Decode(b []byte) (*Reader, error) {
	return Read(bytes.NewReader(b))
}

func readErr(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return ErrTruncated
	}
	return err
}

func (r *Reader) Header() header.ISHeader {
	return r.hdr
}

// Checksum is the seahash of every section byte, comparable with
// Sequence.Checksum and the replay file's IS checksum.
func (r *Reader) Checksum() uint64 {
	return r.checksum
}

// MaxPlayer is the highest player id the sequence declares.
func (r *Reader) MaxPlayer() protocol.PlayerID {
	return protocol.PlayerID(r.hdr.MaxPlayer)
}

// Raw returns the section bytes. The slice aliases the reader.
func (r *Reader) Raw() []byte {
	return r.data
}

func (r *Reader) section(from, to int64) []byte {
	return r.data[from:to]
}

// Map decodes the map section. expect is the topology the caller renders;
// reading hex data as square (or the reverse) fails with
// ErrTopologyMismatch.
func (r *Reader) Map(expect header.Topology) (MapData, error) {
	if expect != r.hdr.Topology {
		return MapData{}, fmt.Errorf("%w: data is %s, caller expects %s", ErrTopologyMismatch, r.hdr.Topology, expect)
	}
	s := r.hdr.Sections()
	raw := r.section(s.Map, s.CitPos)
	if r.hdr.MapLZ4() {
		var err error
		raw, err = decompressLZ4(raw, 2*TileCount(r.hdr.MapSize))
		if err != nil {
			return MapData{}, err
		}
	}
	return parseMap(raw, r.hdr.MapSize, r.hdr.Topology)
}

// Cits decodes both city sections. A sequence finished before the city stage
// has no cities.
func (r *Reader) Cits() ([]City, error) {
	s := r.hdr.Sections()
	if r.hdr.Cits == 0 && s.CitPos == s.Players {
		return nil, nil
	}
	return parseCits(r.section(s.CitPos, s.CitNames), r.section(s.CitNames, s.Players), int(r.hdr.Cits))
}

// Players decodes the player section for ids 1..MaxPlayer.
func (r *Reader) Players() ([]Player, error) {
	if r.hdr.LenPlayers == 0 {
		return nil, ErrSectionAbsent
	}
	s := r.hdr.Sections()
	return parsePlayers(r.section(s.Players, s.Rules), int(r.hdr.MaxPlayer))
}

// Rules decodes and validates the rules section.
func (r *Reader) Rules() (Rules, error) {
	if r.hdr.LenRules == 0 {
		return Rules{}, ErrSectionAbsent
	}
	s := r.hdr.Sections()
	fields, err := tlv.DecodeFields(r.section(s.Rules, s.End))
	if err != nil {
		return Rules{}, err
	}
	return RulesFromFields(fields)
}
