// Package schema declares the tagged fields of the initialization sequence
// sections that carry TLV payloads, and validates decoded field lists.
package schema

import (
	"fmt"

	"github.com/danmuck/mwproto/internal/protocol/tlv"
	"github.com/rs/zerolog/log"
)

// Section IDs for TLV-encoded sections.
const (
	SectionRules uint8 = 1
)

// Rule field IDs.
const (
	RuleStartMoney    uint16 = 1
	RuleBaseIncome    uint16 = 2
	RuleCitRadius     uint16 = 3
	RuleSmokeMs       uint16 = 4
	RuleExplodeRadius uint16 = 5
	RuleFogOfWar      uint16 = 6

	RuleGameMode      uint16 = 100
	RuleTimeLimitSecs uint16 = 101
)

type Requirement struct {
	ID       uint16
	Type     uint8
	Optional bool
}

type ValidationError struct {
	Section uint8
	FieldID uint16
	Reason  string
}

func (e ValidationError) Error() string {
	if e.FieldID == 0 {
		return fmt.Sprintf("schema: section=%d: %s", e.Section, e.Reason)
	}
	return fmt.Sprintf("schema: section=%d field=%d: %s", e.Section, e.FieldID, e.Reason)
}

var requirements = map[uint8][]Requirement{
	SectionRules: {
		{RuleStartMoney, tlv.TypeU32, false},
		{RuleBaseIncome, tlv.TypeU16, false},
		{RuleCitRadius, tlv.TypeU8, false},
		{RuleSmokeMs, tlv.TypeU32, true},
		{RuleExplodeRadius, tlv.TypeU8, true},
		{RuleFogOfWar, tlv.TypeBool, false},
		{RuleGameMode, tlv.TypeString, false},
		{RuleTimeLimitSecs, tlv.TypeU32, true},
	},
}

// Validate enforces required fields and declared field types for a section.
// Unknown fields are ignored.
func Validate(section uint8, fields []tlv.Field) error {
	log.Debug().Uint8("section", section).Int("fields", len(fields)).Msg("schema.Validate")
	reqs, ok := requirements[section]
	if !ok {
		log.Error().Uint8("section", section).Msg("schema.Validate unknown section")
		return ValidationError{Section: section, Reason: "unknown section"}
	}
	for _, req := range reqs {
		f, found := tlv.GetField(fields, req.ID)
		if !found {
			if req.Optional {
				continue
			}
			log.Error().Uint8("section", section).Uint16("field_id", req.ID).
				Msg("schema.Validate missing field")
			return ValidationError{Section: section, FieldID: req.ID, Reason: "missing required field"}
		}
		if f.Type != req.Type {
			log.Error().Uint8("section", section).Uint16("field_id", req.ID).
				Uint8("got", f.Type).Uint8("want", req.Type).
				Msg("schema.Validate type mismatch")
			return ValidationError{Section: section, FieldID: req.ID, Reason: "type mismatch"}
		}
	}
	return nil
}

// Known reports whether id is declared for section.
func Known(section uint8, id uint16) bool {
	for _, req := range requirements[section] {
		if req.ID == id {
			return true
		}
	}
	return false
}
