package schema

import (
	"testing"

	"github.com/danmuck/mwproto/internal/protocol/tlv"
	"github.com/danmuck/mwproto/internal/testutil/testlog"
)

func requiredRules() []tlv.Field {
	return []tlv.Field{
		tlv.U32(RuleStartMoney, 1000),
		tlv.U16(RuleBaseIncome, 5),
		tlv.U8(RuleCitRadius, 3),
		tlv.Bool(RuleFogOfWar, true),
		tlv.String(RuleGameMode, "ffa"),
	}
}

func TestValidateRulesRequiredFields(t *testing.T) {
	testlog.Start(t)
	if err := Validate(SectionRules, requiredRules()); err != nil {
		t.Fatalf("validate rules: %v", err)
	}
}

func TestValidateUnknownFieldsIgnored(t *testing.T) {
	testlog.Start(t)
	fields := append(requiredRules(), tlv.Field{ID: 9999, Type: tlv.TypeBytes, Value: []byte{0x01}})
	if err := Validate(SectionRules, fields); err != nil {
		t.Fatalf("validate with unknown field: %v", err)
	}
	if Known(SectionRules, 9999) {
		t.Fatalf("field 9999 must not be known")
	}
	if !Known(SectionRules, RuleSmokeMs) {
		t.Fatalf("optional field must be known")
	}
}

func TestValidateMissingRequiredDeterministic(t *testing.T) {
	testlog.Start(t)
	fields := []tlv.Field{tlv.U32(RuleStartMoney, 1000)}
	err := Validate(SectionRules, fields)
	if err == nil {
		t.Fatalf("expected error")
	}
	ve, ok := err.(ValidationError)
	if !ok {
		t.Fatalf("expected ValidationError, got %T", err)
	}
	if ve.FieldID != RuleBaseIncome || ve.Reason != "missing required field" {
		t.Fatalf("unexpected validation error: %+v", ve)
	}
}

func TestValidateTypeMismatchDeterministic(t *testing.T) {
	testlog.Start(t)
	fields := requiredRules()
	fields[2] = tlv.U16(RuleCitRadius, 3)
	err := Validate(SectionRules, fields)
	ve, ok := err.(ValidationError)
	if !ok {
		t.Fatalf("expected ValidationError, got %T", err)
	}
	if ve.FieldID != RuleCitRadius || ve.Reason != "type mismatch" {
		t.Fatalf("unexpected validation error: %+v", ve)
	}
}

func TestValidateOptionalTypeChecked(t *testing.T) {
	testlog.Start(t)
	fields := append(requiredRules(), tlv.U8(RuleSmokeMs, 1))
	if err := Validate(SectionRules, fields); err == nil {
		t.Fatalf("expected type mismatch on optional field")
	}
}

func TestValidateUnknownSection(t *testing.T) {
	testlog.Start(t)
	err := Validate(42, nil)
	ve, ok := err.(ValidationError)
	if !ok || ve.Reason != "unknown section" {
		t.Fatalf("expected unknown section error, got %v", err)
	}
}
