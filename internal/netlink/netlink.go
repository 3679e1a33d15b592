// Package netlink abstracts how the appliance gets on the network. The
// configured credential slots are tried in order; which mechanism actually
// joins a network (host networking, wpa_supplicant, a vendor agent) is an
// implementation detail behind Connector.
package netlink

import (
	"context"
	"errors"
	"sync"

	"github.com/aldermoor/sentrycam-core/internal/deviceconfig"
)

// ErrNoCredentials: no populated credential slot to try.
var ErrNoCredentials = errors.New("netlink: no network credentials configured")

// Connector joins the device to a network.
type Connector interface {
	// Connect tries the credentials in order and returns the name of the
	// network that accepted us.
	Connect(ctx context.Context, creds []deviceconfig.NetworkCredential) (string, error)

	// Active returns the currently joined network name, or "".
	Active() string

	// Scan lists network names currently visible, for diagnostics.
	Scan(ctx context.Context) ([]string, error)
}

// Preconfigured is the Connector for deployments where the host OS manages
// connectivity: every credential "succeeds" immediately and Scan reports
// the configured slots. The credential slots still matter — they are what
// a future on-device supplicant would use, and provisioning validates
// them — but joining is a no-op here.
type Preconfigured struct {
	mu     sync.RWMutex
	active string
}

// NewPreconfigured builds the host-managed Connector.
func NewPreconfigured() *Preconfigured {
	return &Preconfigured{}
}

// Connect records the first populated slot as active.
func (p *Preconfigured) Connect(ctx context.Context, creds []deviceconfig.NetworkCredential) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(creds) == 0 {
		return "", ErrNoCredentials
	}

	p.mu.Lock()
	p.active = creds[0].Name
	p.mu.Unlock()
	return creds[0].Name, nil
}

// Active returns the recorded network name.
func (p *Preconfigured) Active() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.active
}

// Scan reports nothing; the host OS owns the radio.
func (p *Preconfigured) Scan(ctx context.Context) ([]string, error) {
	return nil, ctx.Err()
}
