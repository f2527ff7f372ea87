package protocol

import "encoding/binary"

// Opcode families. The high bits of byte0 select the family; low bits carry
// a subkind, a player nibble, a digit or an inline repeat count.
const (
	opTremor          byte = 0b0000_0001
	opSmoke           byte = 0b0000_0010
	opUnsmoke         byte = 0b0000_0011
	opCitMoney        byte = 0b0000_0100
	opCitProdItem     byte = 0b0000_0101
	opCitTradeInfo    byte = 0b0000_0110
	opPlayerStatus    byte = 0b0000_0111
	opRevealItem      byte = 0b0000_1000
	opRevealStructure byte = 0b0000_1001
	opFlag            byte = 0b0001_0000
	opStructureGone   byte = 0b0010_0000
	opStructureHp     byte = 0b0010_0001
	opBuildNew        byte = 0b0010_0010
	opBuildProgress   byte = 0b0010_0011
	opBuildCancel     byte = 0b0010_0100
	opExplode         byte = 0b0011_0000
	opDigit           byte = 0b0100_0000
	opDigitBatch      byte = 0b0110_0000
	opTileOwner       byte = 0b1000_0000

	incomeFlag  uint32 = 1 << 31
	asteriskBit byte   = 0b0001_0000
)

// EncodedLen returns the size of m encoded on its own, without batching.
func EncodedLen(m Msg) int {
	switch m.(type) {
	case Tremor:
		return 1
	case PlayerStatus:
		return 2
	case Smoke, Unsmoke, CitProdItem, Flag, StructureGone, BuildCancel, Explode, TileOwner, DigitCapture:
		return 3
	case RevealItem, RevealStructure:
		return 4
	case StructureHp, BuildProgress:
		return 5
	case CitMoney, CitTradeInfo, BuildNew:
		return 6
	case CitIncome:
		return 8
	default:
		return 0
	}
}

// Encode appends the encoding of msgs[0] to dst, folding directly following
// messages of the same batchable kind into the same opcode while the result
// stays within maxBytes.
//
// The call is all-or-nothing: when even the first message does not fit,
// dst is returned unchanged with nBytes == 0 and nMsgs == 0, and the caller
// retries with a fresh budget. Messages that cannot be represented at all
// return an error and also leave dst unchanged.
func Encode(dst []byte, msgs []Msg, maxBytes int) (out []byte, nBytes, nMsgs int, err error) {
	if len(msgs) == 0 {
		return dst, 0, 0, nil
	}
	if err := Validate(msgs[0]); err != nil {
		return dst, 0, 0, err
	}
	switch first := msgs[0].(type) {
	case TileOwner:
		return encodeTileOwners(dst, first, msgs, maxBytes)
	case Explode:
		return encodeExplodes(dst, msgs, maxBytes)
	case DigitCapture:
		return encodeDigits(dst, first, msgs, maxBytes)
	}
	size := EncodedLen(msgs[0])
	if size > maxBytes {
		return dst, 0, 0, nil
	}
	return appendSingle(dst, msgs[0]), size, 1, nil
}

// EncodeAll repeatedly calls Encode until msgs is consumed or the next
// opcode no longer fits in the remaining budget.
func EncodeAll(dst []byte, msgs []Msg, maxBytes int) (out []byte, nBytes, nMsgs int, err error) {
	out = dst
	for nMsgs < len(msgs) {
		var b, m int
		out, b, m, err = Encode(out, msgs[nMsgs:], maxBytes-nBytes)
		if err != nil {
			return out, nBytes, nMsgs, err
		}
		if m == 0 {
			break
		}
		nBytes += b
		nMsgs += m
	}
	return out, nBytes, nMsgs, nil
}

func encodeTileOwners(dst []byte, first TileOwner, msgs []Msg, maxBytes int) ([]byte, int, int, error) {
	n := 0
	for n < len(msgs) && n < MaxTileOwnerBatch && 1+2*(n+1) <= maxBytes {
		m, ok := msgs[n].(TileOwner)
		if !ok || m.Player != first.Player {
			break
		}
		n++
	}
	if n == 0 {
		return dst, 0, 0, nil
	}
	dst = append(dst, opTileOwner|byte(first.Player)<<3|byte(n-1))
	for _, m := range msgs[:n] {
		dst = appendPos(dst, m.(TileOwner).Pos)
	}
	return dst, 1 + 2*n, n, nil
}

func encodeExplodes(dst []byte, msgs []Msg, maxBytes int) ([]byte, int, int, error) {
	n := 0
	for n < len(msgs) && n < MaxExplodeBatch && 1+2*(n+1) <= maxBytes {
		if _, ok := msgs[n].(Explode); !ok {
			break
		}
		n++
	}
	if n == 0 {
		return dst, 0, 0, nil
	}
	dst = append(dst, opExplode|byte(n-1))
	for _, m := range msgs[:n] {
		dst = appendPos(dst, m.(Explode).Pos)
	}
	return dst, 1 + 2*n, n, nil
}

func digitBatchLen(n int) int {
	return 1 + 2*n + (n+1)/2
}

func encodeDigits(dst []byte, first DigitCapture, msgs []Msg, maxBytes int) ([]byte, int, int, error) {
	n := 0
	if first.Digit <= MaxPackedDigit {
		for n < len(msgs) && n < MaxDigitCaptureBatch && digitBatchLen(n+1) <= maxBytes {
			m, ok := msgs[n].(DigitCapture)
			if !ok || m.Digit > MaxPackedDigit {
				break
			}
			n++
		}
	}
	if n < 2 {
		if maxBytes < 3 {
			return dst, 0, 0, nil
		}
		return appendSingle(dst, first), 3, 1, nil
	}

	dst = append(dst, opDigitBatch|byte(n-1))
	for _, m := range msgs[:n] {
		dst = appendPos(dst, m.(DigitCapture).Pos)
	}
	trailer := len(dst)
	dst = append(dst, make([]byte, (n+1)/2)...)
	for i, m := range msgs[:n] {
		d := m.(DigitCapture)
		nib := d.Digit & 0x07
		if d.Asterisk {
			nib |= 0x08
		}
		if i%2 == 0 {
			dst[trailer+i/2] |= nib << 4
		} else {
			dst[trailer+i/2] |= nib
		}
	}
	return dst, digitBatchLen(n), n, nil
}

func appendSingle(dst []byte, m Msg) []byte {
	switch v := m.(type) {
	case Tremor:
		return append(dst, opTremor)
	case Smoke:
		return appendPos(append(dst, opSmoke), v.Pos)
	case Unsmoke:
		return appendPos(append(dst, opUnsmoke), v.Pos)
	case CitMoney:
		dst = append(dst, opCitMoney, v.Cit)
		return binary.BigEndian.AppendUint32(dst, v.Money)
	case CitIncome:
		dst = append(dst, opCitMoney, v.Cit)
		dst = binary.BigEndian.AppendUint32(dst, v.Money|incomeFlag)
		return binary.BigEndian.AppendUint16(dst, v.Income)
	case CitProdItem:
		return append(dst, opCitProdItem, v.Cit, byte(v.Item))
	case CitTradeInfo:
		dst = append(dst, opCitTradeInfo, v.Cit)
		dst = binary.BigEndian.AppendUint16(dst, v.Export)
		return binary.BigEndian.AppendUint16(dst, v.Import)
	case PlayerStatus:
		return append(dst, opPlayerStatus, byte(v.Player)<<4|byte(v.Status))
	case RevealItem:
		return append(appendPos(append(dst, opRevealItem), v.Pos), byte(v.Item))
	case RevealStructure:
		return append(appendPos(append(dst, opRevealStructure), v.Pos), byte(v.Structure))
	case Flag:
		return appendPos(append(dst, opFlag|byte(v.Player)), v.Pos)
	case StructureGone:
		return appendPos(append(dst, opStructureGone), v.Pos)
	case StructureHp:
		dst = appendPos(append(dst, opStructureHp), v.Pos)
		return binary.BigEndian.AppendUint16(dst, v.Hp)
	case BuildNew:
		dst = append(appendPos(append(dst, opBuildNew), v.Pos), byte(v.Structure))
		return binary.BigEndian.AppendUint16(dst, v.Points)
	case BuildProgress:
		dst = appendPos(append(dst, opBuildProgress), v.Pos)
		return binary.BigEndian.AppendUint16(dst, v.Points)
	case BuildCancel:
		return appendPos(append(dst, opBuildCancel), v.Pos)
	case Explode:
		return appendPos(append(dst, opExplode), v.Pos)
	case TileOwner:
		return appendPos(append(dst, opTileOwner|byte(v.Player)<<3), v.Pos)
	case DigitCapture:
		op := opDigit | v.Digit
		if v.Asterisk {
			op |= asteriskBit
		}
		return appendPos(append(dst, op), v.Pos)
	}
	return dst
}

func appendPos(dst []byte, p Pos) []byte {
	return append(dst, byte(p.X), byte(p.Y))
}
