package model

import "testing"

func TestParseEntityID(t *testing.T) {
	tests := []struct {
		raw     string
		want    EntityID
		wantErr bool
	}{
		{"system", SystemEntity, false},
		{" system ", SystemEntity, false},
		{"pid:42", ProcessEntity(42), false},
		{"42", ProcessEntity(42), false},
		{"pid:0", "", true},
		{"pid:-1", "", true},
		{"pid:abc", "", true},
		{"", "", true},
		{"sys", "", true},
	}
	for _, tt := range tests {
		got, err := ParseEntityID(tt.raw)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseEntityID(%q) error = %v, wantErr %v", tt.raw, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseEntityID(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestEntityPID(t *testing.T) {
	if pid, ok := ProcessEntity(1234).PID(); !ok || pid != 1234 {
		t.Errorf("PID() = %d, %v", pid, ok)
	}
	if _, ok := SystemEntity.PID(); ok {
		t.Error("system entity must not report a PID")
	}
	if _, ok := EntityID("pid:notanumber").PID(); ok {
		t.Error("malformed pid entity must not report a PID")
	}
	if SystemEntity.IsSystem() != true || ProcessEntity(1).IsSystem() {
		t.Error("IsSystem misclassifies")
	}
}
