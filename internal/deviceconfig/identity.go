package deviceconfig

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"

	"github.com/google/uuid"
)

// identityPrefix namespaces device identities on shared chat channels.
const identityPrefix = "cam-"

// identityLength is the number of UUID hex characters kept in the identity.
// Eight characters is enough to disambiguate the handful of devices that
// realistically share a notification channel.
const identityLength = 8

// NewIdentity generates a short, stable technical device identity,
// e.g. "cam-3fa85f64". Generated once at first boot and persisted.
func NewIdentity() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return identityPrefix + raw[:identityLength]
}

// NewPIN generates a numeric provisioning PIN of the fixed length using
// crypto/rand. Leading zeros are allowed.
func NewPIN() (string, error) {
	var sb strings.Builder
	for i := 0; i < PINLength; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", fmt.Errorf("generating PIN digit: %w", err)
		}
		sb.WriteString(n.String())
	}
	return sb.String(), nil
}
