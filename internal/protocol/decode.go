package protocol

import "encoding/binary"

// Decode reads one opcode from src and appends the message(s) it carries to
// dst. It returns the number of bytes consumed.
func Decode(dst []Msg, src []byte) ([]Msg, int, error) {
	if len(src) == 0 {
		return dst, 0, ErrTruncated
	}
	op := src[0]
	switch {
	case op&0b1000_0000 != 0:
		player := PlayerID(op >> 3 & 0x0f)
		n := int(op&0x07) + 1
		if len(src) < 1+2*n {
			return dst, 0, ErrTruncated
		}
		for i := 0; i < n; i++ {
			dst = append(dst, TileOwner{Player: player, Pos: readPos(src[1+2*i:])})
		}
		return dst, 1 + 2*n, nil

	case op&0b1111_0000 == opDigitBatch:
		n := int(op&0x0f) + 1
		size := digitBatchLen(n)
		if len(src) < size {
			return dst, 0, ErrTruncated
		}
		trailer := src[1+2*n:]
		for i := 0; i < n; i++ {
			nib := trailer[i/2]
			if i%2 == 0 {
				nib >>= 4
			}
			dst = append(dst, DigitCapture{
				Pos:      readPos(src[1+2*i:]),
				Digit:    nib & 0x07,
				Asterisk: nib&0x08 != 0,
			})
		}
		return dst, size, nil

	case op&0b1110_0000 == opDigit:
		digit := op & 0x0f
		if digit > MaxDigit {
			return dst, 0, OpcodeError{Opcode: op}
		}
		if len(src) < 3 {
			return dst, 0, ErrTruncated
		}
		return append(dst, DigitCapture{
			Pos:      readPos(src[1:]),
			Digit:    digit,
			Asterisk: op&asteriskBit != 0,
		}), 3, nil

	case op&0b1111_0000 == opExplode:
		n := int(op&0x0f) + 1
		if len(src) < 1+2*n {
			return dst, 0, ErrTruncated
		}
		for i := 0; i < n; i++ {
			dst = append(dst, Explode{Pos: readPos(src[1+2*i:])})
		}
		return dst, 1 + 2*n, nil

	case op&0b1111_0000 == opFlag:
		if len(src) < 3 {
			return dst, 0, ErrTruncated
		}
		return append(dst, Flag{Player: PlayerID(op & 0x0f), Pos: readPos(src[1:])}), 3, nil
	}

	m, n, err := decodeSingle(op, src)
	if err != nil {
		return dst, 0, err
	}
	return append(dst, m), n, nil
}

// DecodeAll decodes every opcode in src.
func DecodeAll(src []byte) ([]Msg, error) {
	var out []Msg
	for off := 0; off < len(src); {
		var (
			n   int
			err error
		)
		out, n, err = Decode(out, src[off:])
		if err != nil {
			if oe, ok := err.(OpcodeError); ok {
				oe.Offset = off
				return out, oe
			}
			return out, err
		}
		off += n
	}
	return out, nil
}

func decodeSingle(op byte, src []byte) (Msg, int, error) {
	size := singleLenForOpcode(op, src)
	if size == 0 {
		return nil, 0, OpcodeError{Opcode: op}
	}
	if len(src) < size {
		return nil, 0, ErrTruncated
	}
	switch op {
	case opTremor:
		return Tremor{}, size, nil
	case opSmoke:
		return Smoke{Pos: readPos(src[1:])}, size, nil
	case opUnsmoke:
		return Unsmoke{Pos: readPos(src[1:])}, size, nil
	case opCitMoney:
		money := binary.BigEndian.Uint32(src[2:6])
		if money&incomeFlag != 0 {
			return CitIncome{
				Cit:    src[1],
				Money:  money &^ incomeFlag,
				Income: binary.BigEndian.Uint16(src[6:8]),
			}, size, nil
		}
		return CitMoney{Cit: src[1], Money: money}, size, nil
	case opCitProdItem:
		item := Item(src[2])
		if !item.Valid() {
			return nil, 0, ErrInvalidDiscriminant
		}
		return CitProdItem{Cit: src[1], Item: item}, size, nil
	case opCitTradeInfo:
		return CitTradeInfo{
			Cit:    src[1],
			Export: binary.BigEndian.Uint16(src[2:4]),
			Import: binary.BigEndian.Uint16(src[4:6]),
		}, size, nil
	case opPlayerStatus:
		status := Status(src[1] & 0x0f)
		if !status.Valid() {
			return nil, 0, ErrInvalidDiscriminant
		}
		return PlayerStatus{Player: PlayerID(src[1] >> 4), Status: status}, size, nil
	case opRevealItem:
		item := Item(src[3])
		if !item.Valid() {
			return nil, 0, ErrInvalidDiscriminant
		}
		return RevealItem{Pos: readPos(src[1:]), Item: item}, size, nil
	case opRevealStructure:
		s := Structure(src[3])
		if !s.Valid() {
			return nil, 0, ErrInvalidDiscriminant
		}
		return RevealStructure{Pos: readPos(src[1:]), Structure: s}, size, nil
	case opStructureGone:
		return StructureGone{Pos: readPos(src[1:])}, size, nil
	case opStructureHp:
		return StructureHp{Pos: readPos(src[1:]), Hp: binary.BigEndian.Uint16(src[3:5])}, size, nil
	case opBuildNew:
		s := Structure(src[3])
		if !s.Valid() {
			return nil, 0, ErrInvalidDiscriminant
		}
		return BuildNew{Pos: readPos(src[1:]), Structure: s, Points: binary.BigEndian.Uint16(src[4:6])}, size, nil
	case opBuildProgress:
		return BuildProgress{Pos: readPos(src[1:]), Points: binary.BigEndian.Uint16(src[3:5])}, size, nil
	case opBuildCancel:
		return BuildCancel{Pos: readPos(src[1:])}, size, nil
	}
	return nil, 0, OpcodeError{Opcode: op}
}

// singleLenForOpcode returns the encoded size of a fixed-layout opcode, or 0
// when op is not one. CitMoney needs the money word to tell its width.
func singleLenForOpcode(op byte, src []byte) int {
	switch op {
	case opTremor:
		return 1
	case opPlayerStatus:
		return 2
	case opSmoke, opUnsmoke, opCitProdItem, opStructureGone, opBuildCancel:
		return 3
	case opRevealItem, opRevealStructure:
		return 4
	case opStructureHp, opBuildProgress:
		return 5
	case opCitTradeInfo, opBuildNew:
		return 6
	case opCitMoney:
		if len(src) >= 3 && src[2]&0x80 != 0 {
			return 8
		}
		return 6
	}
	return 0
}

func readPos(b []byte) Pos {
	return Pos{X: int8(b[0]), Y: int8(b[1])}
}
