package deviceconfig

import (
	"math/rand"
	"strings"
	"testing"
)

func validConfig() *DeviceConfig {
	return &DeviceConfig{
		DeviceID:      "cam-3fa85f64",
		PIN:           "123456",
		AuthToken:     strings.Repeat("t", MinAuthTokenLength),
		OwnerEndpoint: "chat-owner-1",
		Networks: [NetworkSlots]NetworkCredential{
			{Name: "Home", Secret: "pw123456"},
		},
	}
}

func TestIsOperationValid_AllFieldsPresent(t *testing.T) {
	if !validConfig().IsOperationValid() {
		t.Error("fully populated config should be operation-valid")
	}
}

func TestIsOperationValid_RequiredFieldMissing(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*DeviceConfig)
	}{
		{"empty identity", func(c *DeviceConfig) { c.DeviceID = "" }},
		{"short PIN", func(c *DeviceConfig) { c.PIN = "123" }},
		{"long PIN", func(c *DeviceConfig) { c.PIN = "1234567" }},
		{"no networks", func(c *DeviceConfig) { c.Networks = [NetworkSlots]NetworkCredential{} }},
		{"short auth token", func(c *DeviceConfig) { c.AuthToken = "short" }},
		{"empty owner endpoint", func(c *DeviceConfig) { c.OwnerEndpoint = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			if cfg.IsOperationValid() {
				t.Error("config with missing required field should not be operation-valid")
			}
		})
	}
}

// TestIsOperationValid_RandomizedPresence checks the validity predicate over
// randomized field presence: the config is valid iff every required-field
// predicate holds.
func TestIsOperationValid_RandomizedPresence(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 500; i++ {
		cfg := &DeviceConfig{}

		hasID := rng.Intn(2) == 1
		hasPIN := rng.Intn(2) == 1
		hasNet := rng.Intn(2) == 1
		hasTok := rng.Intn(2) == 1
		hasOwn := rng.Intn(2) == 1

		if hasID {
			cfg.DeviceID = "cam-deadbeef"
		}
		if hasPIN {
			cfg.PIN = "987654"
		} else if rng.Intn(2) == 1 {
			cfg.PIN = "12" // present but undersized still fails
		}
		if hasNet {
			slot := rng.Intn(NetworkSlots)
			cfg.Networks[slot] = NetworkCredential{Name: "Net", Secret: "secret"}
		}
		if hasTok {
			cfg.AuthToken = strings.Repeat("x", MinAuthTokenLength+rng.Intn(20))
		} else {
			cfg.AuthToken = strings.Repeat("x", rng.Intn(MinAuthTokenLength))
		}
		if hasOwn {
			cfg.OwnerEndpoint = "chat-1"
		}

		want := hasID && hasPIN && hasNet && hasTok && hasOwn
		if got := cfg.IsOperationValid(); got != want {
			t.Fatalf("iteration %d: IsOperationValid() = %v, want %v (id=%v pin=%v net=%v tok=%v own=%v)",
				i, got, want, hasID, hasPIN, hasNet, hasTok, hasOwn)
		}
	}
}

func TestCredentialList_PreservesSlotOrder(t *testing.T) {
	cfg := &DeviceConfig{}
	cfg.Networks[0] = NetworkCredential{Name: "primary"}
	cfg.Networks[2] = NetworkCredential{Name: "tertiary"}

	list := cfg.CredentialList()
	if len(list) != 2 {
		t.Fatalf("CredentialList() len = %d, want 2", len(list))
	}
	if list[0].Name != "primary" || list[1].Name != "tertiary" {
		t.Errorf("CredentialList() = %v, want slot order preserved", list)
	}
}
