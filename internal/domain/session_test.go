package domain

import (
	"encoding/json"
	"testing"
)

func TestSessionRecordRoundTrip(t *testing.T) {
	staff := &StaffSession{Token: "tok", UserID: "7", Role: RoleAnalyst, CompanyID: "42"}
	got, ok := RecordOf(staff).Session()
	if !ok {
		t.Fatal("expected valid record")
	}
	back, ok := got.(*StaffSession)
	if !ok {
		t.Fatalf("expected *StaffSession, got %T", got)
	}
	if *back != *staff {
		t.Fatalf("round trip mismatch: %+v vs %+v", back, staff)
	}
}

func TestReferralRecordNeverCarriesRole(t *testing.T) {
	rec := SessionRecord{SessionType: SessionTypeReferralAgent, Token: "tok", UserID: "1", Role: RoleAdmin, CompanyID: "9"}
	s, ok := rec.Session()
	if !ok {
		t.Fatal("expected valid record")
	}
	if RoleOf(s) != RoleNone {
		t.Fatalf("referral session must not carry a role")
	}
	if flat := RecordOf(s); flat.Role != RoleNone || flat.CompanyID != "" {
		t.Fatalf("referral record leaked staff fields: %+v", flat)
	}
}

func TestSessionRecordStructuralValidation(t *testing.T) {
	cases := []SessionRecord{
		{},
		{SessionType: SessionTypeCompanyStaff, UserID: "1"},
		{SessionType: SessionTypeCompanyStaff, Token: "t"},
		{SessionType: "guest", Token: "t", UserID: "1"},
	}
	for i, rec := range cases {
		if _, ok := rec.Session(); ok {
			t.Fatalf("case %d: expected invalid record %+v", i, rec)
		}
	}
}

func TestStoredUnknownRoleDropsToNone(t *testing.T) {
	rec := SessionRecord{SessionType: SessionTypeCompanyStaff, Token: "t", UserID: "1", Role: "root"}
	s, ok := rec.Session()
	if !ok {
		t.Fatal("expected valid record")
	}
	if RoleOf(s) != RoleNone {
		t.Fatalf("expected RoleNone, got %q", RoleOf(s))
	}
}

func TestIDAcceptsNumbersAndStrings(t *testing.T) {
	var payload struct {
		A ID `json:"a"`
		B ID `json:"b"`
		C ID `json:"c"`
	}
	if err := json.Unmarshal([]byte(`{"a":15,"b":"x-1","c":null}`), &payload); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if payload.A != "15" || payload.B != "x-1" || payload.C != "" {
		t.Fatalf("unexpected ids: %+v", payload)
	}
	var bad struct {
		A ID `json:"a"`
	}
	if err := json.Unmarshal([]byte(`{"a":true}`), &bad); err == nil {
		t.Fatal("expected error for boolean id")
	}
}
