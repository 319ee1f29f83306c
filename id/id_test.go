package id_test

import (
	"strings"
	"testing"

	"github.com/lecternhq/lectern/id"
)

func TestConstructors(t *testing.T) {
	tests := []struct {
		name   string
		newFn  func() id.ID
		prefix string
	}{
		{"RoleID", id.NewRoleID, "role_"},
		{"PermissionID", id.NewPermissionID, "perm_"},
		{"ResourceID", id.NewResourceID, "res_"},
		{"AssignmentID", id.NewAssignmentID, "asgn_"},
		{"GrantID", id.NewGrantID, "grant_"},
		{"DecisionLogID", id.NewDecisionLogID, "dlog_"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.newFn().String()
			if !strings.HasPrefix(got, tt.prefix) {
				t.Errorf("expected prefix %q, got %q", tt.prefix, got)
			}
		})
	}
}

func TestNew(t *testing.T) {
	i := id.New(id.PrefixResource)
	if i.IsNil() {
		t.Fatal("expected non-nil ID")
	}
	if i.Prefix() != id.PrefixResource {
		t.Errorf("expected prefix %q, got %q", id.PrefixResource, i.Prefix())
	}
}

func TestParseRoundTrip(t *testing.T) {
	tests := []struct {
		name    string
		newFn   func() id.ID
		parseFn func(string) (id.ID, error)
	}{
		{"RoleID", id.NewRoleID, id.ParseRoleID},
		{"PermissionID", id.NewPermissionID, id.ParsePermissionID},
		{"ResourceID", id.NewResourceID, id.ParseResourceID},
		{"AssignmentID", id.NewAssignmentID, id.ParseAssignmentID},
		{"GrantID", id.NewGrantID, id.ParseGrantID},
		{"DecisionLogID", id.NewDecisionLogID, id.ParseDecisionLogID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			original := tt.newFn()
			parsed, err := tt.parseFn(original.String())
			if err != nil {
				t.Fatalf("parse failed: %v", err)
			}
			if parsed.String() != original.String() {
				t.Errorf("round-trip mismatch: %q != %q", parsed.String(), original.String())
			}
		})
	}
}

func TestCrossTypeRejection(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		parseFn func(string) (id.ID, error)
	}{
		{"ParseRoleID rejects perm_", id.NewPermissionID().String(), id.ParseRoleID},
		{"ParsePermissionID rejects asgn_", id.NewAssignmentID().String(), id.ParsePermissionID},
		{"ParseResourceID rejects grant_", id.NewGrantID().String(), id.ParseResourceID},
		{"ParseAssignmentID rejects res_", id.NewResourceID().String(), id.ParseAssignmentID},
		{"ParseGrantID rejects dlog_", id.NewDecisionLogID().String(), id.ParseGrantID},
		{"ParseDecisionLogID rejects role_", id.NewRoleID().String(), id.ParseDecisionLogID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.parseFn(tt.input)
			if err == nil {
				t.Errorf("expected error for cross-type parse of %q, got nil", tt.input)
			}
		})
	}
}

func TestParseAny(t *testing.T) {
	ids := []id.ID{
		id.NewRoleID(),
		id.NewPermissionID(),
		id.NewResourceID(),
		id.NewAssignmentID(),
		id.NewGrantID(),
		id.NewDecisionLogID(),
	}

	for _, i := range ids {
		t.Run(i.String(), func(t *testing.T) {
			parsed, err := id.ParseAny(i.String())
			if err != nil {
				t.Fatalf("ParseAny(%q) failed: %v", i.String(), err)
			}
			if parsed.String() != i.String() {
				t.Errorf("round-trip mismatch: %q != %q", parsed.String(), i.String())
			}
		})
	}
}

func TestParseWithPrefix(t *testing.T) {
	i := id.NewResourceID()
	parsed, err := id.ParseWithPrefix(i.String(), id.PrefixResource)
	if err != nil {
		t.Fatalf("ParseWithPrefix failed: %v", err)
	}
	if parsed.String() != i.String() {
		t.Errorf("mismatch: %q != %q", parsed.String(), i.String())
	}

	_, err = id.ParseWithPrefix(i.String(), id.PrefixPermission)
	if err == nil {
		t.Error("expected error for wrong prefix")
	}
}

func TestParseEmpty(t *testing.T) {
	_, err := id.Parse("")
	if err == nil {
		t.Error("expected error for empty string")
	}
}

func TestNilID(t *testing.T) {
	var i id.ID
	if !i.IsNil() {
		t.Error("zero-value ID should be nil")
	}
	if i.String() != "" {
		t.Errorf("expected empty string, got %q", i.String())
	}
	if i.Prefix() != "" {
		t.Errorf("expected empty prefix, got %q", i.Prefix())
	}
}

func TestScanAndValue(t *testing.T) {
	i := id.NewGrantID()

	v, err := i.Value()
	if err != nil {
		t.Fatalf("Value failed: %v", err)
	}
	if v != i.String() {
		t.Errorf("Value mismatch: %v != %q", v, i.String())
	}

	var scanned id.ID
	if err := scanned.Scan(i.String()); err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if scanned.String() != i.String() {
		t.Errorf("Scan mismatch: %q != %q", scanned.String(), i.String())
	}

	var fromNil id.ID
	if err := fromNil.Scan(nil); err != nil {
		t.Fatalf("Scan(nil) failed: %v", err)
	}
	if !fromNil.IsNil() {
		t.Error("Scan(nil) should produce the Nil ID")
	}
}
