package command

import "strings"

// Request is a parsed command message: "/<command>[,<deviceIdentity>]".
// TargetDevice is empty when the message did not name a device.
type Request struct {
	Name         string
	TargetDevice string
}

// Parse extracts a Request from a raw chat message. ok is false when the
// message is not a command at all (no leading slash), in which case the
// text is free input for whoever is expecting it.
func Parse(text string) (Request, bool) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return Request{}, false
	}

	body := strings.TrimPrefix(text, "/")
	name, target, _ := strings.Cut(body, ",")
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return Request{}, false
	}
	return Request{Name: name, TargetDevice: strings.TrimSpace(target)}, true
}

// ForDevice reports whether the request addresses this device. Commands
// without a target address every device on the channel; commands with a
// target address exactly one.
func (r Request) ForDevice(deviceID string) bool {
	return r.TargetDevice == "" || r.TargetDevice == deviceID
}
