package initseq

import (
	"bytes"
	"fmt"
	"io"

	"github.com/danmuck/mwproto/internal/protocol"
	"github.com/danmuck/mwproto/internal/protocol/header"
	"github.com/pierrec/lz4/v4"
)

const maxNameLen = 255

func appendMap(dst []byte, m MapData) []byte {
	for _, t := range m.Tiles {
		dst = append(dst, byte(t.Kind)|byte(t.Item)<<4, t.Region)
	}
	return dst
}

func parseMap(src []byte, size uint8, topo header.Topology) (MapData, error) {
	n := TileCount(size)
	if len(src) != 2*n {
		return MapData{}, fmt.Errorf("%w: map has %d bytes, want %d", ErrSectionLength, len(src), 2*n)
	}
	m := MapData{Topology: topo, Size: size, Tiles: make([]Tile, n)}
	for i := range m.Tiles {
		b := src[2*i]
		t := Tile{Kind: TileKind(b & 0x0f), Item: protocol.Item(b >> 4), Region: src[2*i+1]}
		if !t.Kind.Valid() || !t.Item.Valid() {
			return MapData{}, fmt.Errorf("%w: tile %d byte 0x%02x", protocol.ErrInvalidDiscriminant, i, b)
		}
		m.Tiles[i] = t
	}
	return m, nil
}

func compressLZ4(dst *bytes.Buffer, src []byte) error {
	dst.Reset()
	zw := lz4.NewWriter(dst)
	if _, err := zw.Write(src); err != nil {
		return err
	}
	return zw.Close()
}

// lz4FrameOverhead covers the frame header, one block header, the end mark
// and the content checksum.
const lz4FrameOverhead = 32

// MaxMapLen is the largest map section a header with h's size and flags can
// legitimately declare.
func MaxMapLen(h header.ISHeader) int64 {
	n := 2 * TileCount(h.MapSize)
	if h.MapLZ4() {
		return int64(lz4.CompressBlockBound(n) + lz4FrameOverhead)
	}
	return int64(n)
}

func decompressLZ4(src []byte, want int) ([]byte, error) {
	out, err := io.ReadAll(io.LimitReader(lz4.NewReader(bytes.NewReader(src)), int64(want)+1))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecompress, err)
	}
	if len(out) != want {
		return nil, fmt.Errorf("%w: got %d bytes, want %d", ErrDecompress, len(out), want)
	}
	return out, nil
}

func appendName(dst []byte, name string) []byte {
	dst = append(dst, byte(len(name)))
	return append(dst, name...)
}

func readName(src []byte) (string, []byte, error) {
	if len(src) < 1 || len(src) < 1+int(src[0]) {
		return "", nil, ErrSectionLength
	}
	n := int(src[0])
	return string(src[1 : 1+n]), src[1+n:], nil
}

func appendCitPositions(dst []byte, cits []City) []byte {
	for _, c := range cits {
		dst = append(dst, byte(c.Pos.X), byte(c.Pos.Y))
	}
	return dst
}

func appendCitNames(dst []byte, cits []City) []byte {
	for _, c := range cits {
		dst = appendName(dst, c.Name)
	}
	return dst
}

func parseCits(pos, names []byte, count int) ([]City, error) {
	if len(pos) != 2*count {
		return nil, fmt.Errorf("%w: %d city position bytes for %d cities", ErrSectionLength, len(pos), count)
	}
	cits := make([]City, count)
	for i := range cits {
		cits[i].Pos = protocol.Pos{X: int8(pos[2*i]), Y: int8(pos[2*i+1])}
		name, rest, err := readName(names)
		if err != nil {
			return nil, fmt.Errorf("city %d name: %w", i, err)
		}
		cits[i].Name = name
		names = rest
	}
	if len(names) != 0 {
		return nil, fmt.Errorf("%w: %d trailing city name bytes", ErrSectionLength, len(names))
	}
	return cits, nil
}

func appendPlayers(dst []byte, players []Player) []byte {
	for _, p := range players {
		dst = appendName(dst, p.Name)
		dst = append(dst, p.Team)
	}
	return dst
}

func parsePlayers(src []byte, count int) ([]Player, error) {
	players := make([]Player, count)
	for i := range players {
		name, rest, err := readName(src)
		if err != nil || len(rest) < 1 {
			return nil, fmt.Errorf("%w: player %d", ErrSectionLength, i+1)
		}
		players[i] = Player{Name: name, Team: rest[0]}
		src = rest[1:]
	}
	if len(src) != 0 {
		return nil, fmt.Errorf("%w: %d trailing player bytes", ErrSectionLength, len(src))
	}
	return players, nil
}
