package netlink

import (
	"context"
	"errors"
	"testing"

	"github.com/aldermoor/sentrycam-core/internal/deviceconfig"
)

func TestPreconfigured_Connect(t *testing.T) {
	p := NewPreconfigured()
	creds := []deviceconfig.NetworkCredential{
		{Name: "Home", Secret: "pw1"},
		{Name: "Garage", Secret: "pw2"},
	}

	active, err := p.Connect(context.Background(), creds)
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	if active != "Home" {
		t.Errorf("Connect() = %q, want first slot %q", active, "Home")
	}
	if p.Active() != "Home" {
		t.Errorf("Active() = %q", p.Active())
	}
}

func TestPreconfigured_NoCredentials(t *testing.T) {
	p := NewPreconfigured()
	if _, err := p.Connect(context.Background(), nil); !errors.Is(err, ErrNoCredentials) {
		t.Errorf("Connect() error = %v, want ErrNoCredentials", err)
	}
	if p.Active() != "" {
		t.Errorf("Active() = %q, want empty", p.Active())
	}
}

func TestPreconfigured_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := NewPreconfigured()
	creds := []deviceconfig.NetworkCredential{{Name: "Home", Secret: "pw"}}
	if _, err := p.Connect(ctx, creds); !errors.Is(err, context.Canceled) {
		t.Errorf("Connect() error = %v, want context.Canceled", err)
	}
}
