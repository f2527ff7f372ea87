package protocol

// Validate checks that every field of m is representable on the wire.
// The codec does not judge game rules, only encodability.
func Validate(m Msg) error {
	switch v := m.(type) {
	case nil:
		return ErrUnknownMessage
	case Tremor, Smoke, Unsmoke, StructureGone, StructureHp, BuildProgress,
		BuildCancel, Explode, CitTradeInfo:
		return nil
	case CitMoney:
		if v.Money > MaxMoney {
			return RangeError{Kind: KindCitMoney, Field: "money", Value: int64(v.Money)}
		}
	case CitIncome:
		if v.Money > MaxMoney {
			return RangeError{Kind: KindCitIncome, Field: "money", Value: int64(v.Money)}
		}
	case CitProdItem:
		if !v.Item.Valid() {
			return RangeError{Kind: KindCitProdItem, Field: "item", Value: int64(v.Item)}
		}
	case PlayerStatus:
		if v.Player > MaxPlayerID {
			return RangeError{Kind: KindPlayerStatus, Field: "player", Value: int64(v.Player)}
		}
		if !v.Status.Valid() {
			return RangeError{Kind: KindPlayerStatus, Field: "status", Value: int64(v.Status)}
		}
	case RevealItem:
		if !v.Item.Valid() {
			return RangeError{Kind: KindRevealItem, Field: "item", Value: int64(v.Item)}
		}
	case RevealStructure:
		if !v.Structure.Valid() {
			return RangeError{Kind: KindRevealStructure, Field: "structure", Value: int64(v.Structure)}
		}
	case Flag:
		if v.Player > MaxPlayerID {
			return RangeError{Kind: KindFlag, Field: "player", Value: int64(v.Player)}
		}
	case BuildNew:
		if !v.Structure.Valid() {
			return RangeError{Kind: KindBuildNew, Field: "structure", Value: int64(v.Structure)}
		}
	case DigitCapture:
		if v.Digit > MaxDigit {
			return RangeError{Kind: KindDigitCapture, Field: "digit", Value: int64(v.Digit)}
		}
	case TileOwner:
		if v.Player > MaxPlayerID {
			return RangeError{Kind: KindTileOwner, Field: "player", Value: int64(v.Player)}
		}
	default:
		return ErrUnknownMessage
	}
	return nil
}
