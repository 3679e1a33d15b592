package provisioning

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Payload is the provisioning document a setup client submits. Three keys
// are required; everything else is optional and unknown keys are ignored.
type Payload struct {
	NetworkName   string `json:"networkName"`
	NetworkSecret string `json:"networkSecret"`
	AuthToken     string `json:"authToken"`

	DisplayName    string `json:"displayName"`
	NetworkName2   string `json:"networkName2"`
	NetworkSecret2 string `json:"networkSecret2"`
	NetworkName3   string `json:"networkName3"`
	NetworkSecret3 string `json:"networkSecret3"`
	AlertTemplate  string `json:"alertTemplate"`
	OwnerEndpoint  string `json:"ownerEndpoint"`
}

// ParsePayload decodes and validates a raw provisioning document.
//
// A decode failure returns ErrMalformed. A document that decodes but lacks
// any of networkName, networkSecret or authToken returns ErrMissingFields
// naming the absent keys. Whitespace-only values count as absent.
func ParsePayload(raw []byte) (Payload, error) {
	var p Payload
	if err := json.Unmarshal(raw, &p); err != nil {
		return Payload{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	var missing []string
	if strings.TrimSpace(p.NetworkName) == "" {
		missing = append(missing, "networkName")
	}
	if strings.TrimSpace(p.NetworkSecret) == "" {
		missing = append(missing, "networkSecret")
	}
	if strings.TrimSpace(p.AuthToken) == "" {
		missing = append(missing, "authToken")
	}
	if len(missing) > 0 {
		return Payload{}, fmt.Errorf("%w: %s", ErrMissingFields, strings.Join(missing, ", "))
	}
	return p, nil
}

// StatusFor maps a ParsePayload error to the status value the setup client
// should see. A nil error maps to StatusConfigReceived.
func StatusFor(err error) Status {
	switch {
	case err == nil:
		return StatusConfigReceived
	case errors.Is(err, ErrMissingFields):
		return StatusErrMissingFields
	default:
		return StatusErrInvalidPayload
	}
}
