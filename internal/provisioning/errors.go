package provisioning

import "errors"

var (
	// ErrMalformed indicates the payload was not valid JSON (or not an
	// object at all).
	ErrMalformed = errors.New("provisioning: malformed payload")

	// ErrMissingFields indicates the payload parsed but one or more
	// required keys were absent or empty.
	ErrMissingFields = errors.New("provisioning: missing required fields")
)
