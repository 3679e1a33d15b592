package deviceconfig

import (
	"errors"
	"testing"
)

func TestFields_ApplyAndValue(t *testing.T) {
	cfg := &DeviceConfig{}

	for _, f := range EditableFields() {
		want := "value-for-" + string(f)
		if err := Apply(cfg, f, want); err != nil {
			t.Fatalf("Apply(%s) error = %v", f, err)
		}
		got, err := Value(cfg, f)
		if err != nil {
			t.Fatalf("Value(%s) error = %v", f, err)
		}
		if got != want {
			t.Errorf("Value(%s) = %q, want %q", f, got, want)
		}
	}
}

func TestFields_UnknownField(t *testing.T) {
	cfg := &DeviceConfig{}

	if err := Apply(cfg, Field("endpoint_owner"), "x"); !errors.Is(err, ErrUnknownField) {
		t.Errorf("Apply(endpoint_owner) error = %v, want ErrUnknownField (owner endpoint is not chat-editable)", err)
	}
	if _, err := Value(cfg, Field("bogus")); !errors.Is(err, ErrUnknownField) {
		t.Errorf("Value(bogus) error = %v, want ErrUnknownField", err)
	}
	if IsEditable(Field("bogus")) {
		t.Error("IsEditable(bogus) = true, want false")
	}
}

func TestFields_SecretMarking(t *testing.T) {
	if !FieldNetwork1Secret.IsSecret() {
		t.Error("network secret should be marked secret")
	}
	if !FieldAuthToken.IsSecret() {
		t.Error("auth token should be marked secret")
	}
	if FieldDisplayName.IsSecret() {
		t.Error("display name should not be marked secret")
	}
}

func TestNewIdentity_Format(t *testing.T) {
	id := NewIdentity()
	if len(id) != len(identityPrefix)+identityLength {
		t.Errorf("NewIdentity() = %q, unexpected length", id)
	}
	if id[:len(identityPrefix)] != identityPrefix {
		t.Errorf("NewIdentity() = %q, want %q prefix", id, identityPrefix)
	}
	if id == NewIdentity() {
		t.Error("two identities should differ")
	}
}

func TestNewPIN_NumericFixedLength(t *testing.T) {
	pin, err := NewPIN()
	if err != nil {
		t.Fatalf("NewPIN() error = %v", err)
	}
	if len(pin) != PINLength {
		t.Errorf("NewPIN() length = %d, want %d", len(pin), PINLength)
	}
	for _, r := range pin {
		if r < '0' || r > '9' {
			t.Errorf("NewPIN() = %q, contains non-digit", pin)
		}
	}
}
