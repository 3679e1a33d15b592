package deviceconfig

// Field identifies one chat-editable configuration field.
//
// The owner endpoint is deliberately not editable over chat: applying a typo
// there would cut off the only role allowed to fix it. It changes via
// re-provisioning only.
type Field string

// Chat-editable fields.
const (
	FieldDisplayName          Field = "display_name"
	FieldAlertTemplate        Field = "alert_template"
	FieldAuthToken            Field = "auth_token"
	FieldNetwork1Name         Field = "network1_name"
	FieldNetwork1Secret       Field = "network1_secret"
	FieldNetwork2Name         Field = "network2_name"
	FieldNetwork2Secret       Field = "network2_secret"
	FieldNetwork3Name         Field = "network3_name"
	FieldNetwork3Secret       Field = "network3_secret"
	FieldFamilyEndpoint       Field = "endpoint_family"
	FieldNeighborhoodEndpoint Field = "endpoint_neighborhood"
)

// fieldSpec describes how one field is presented and accessed.
type fieldSpec struct {
	label  string
	secret bool
	get    func(*DeviceConfig) string
	set    func(*DeviceConfig, string)
}

var fieldSpecs = map[Field]fieldSpec{
	FieldDisplayName: {
		label: "Display name",
		get:   func(c *DeviceConfig) string { return c.DisplayName },
		set:   func(c *DeviceConfig, v string) { c.DisplayName = v },
	},
	FieldAlertTemplate: {
		label: "Alert message",
		get:   func(c *DeviceConfig) string { return c.AlertTemplate },
		set:   func(c *DeviceConfig, v string) { c.AlertTemplate = v },
	},
	FieldAuthToken: {
		label:  "Messaging token",
		secret: true,
		get:    func(c *DeviceConfig) string { return c.AuthToken },
		set:    func(c *DeviceConfig, v string) { c.AuthToken = v },
	},
	FieldNetwork1Name: {
		label: "Network 1 name",
		get:   func(c *DeviceConfig) string { return c.Networks[0].Name },
		set:   func(c *DeviceConfig, v string) { c.Networks[0].Name = v },
	},
	FieldNetwork1Secret: {
		label:  "Network 1 secret",
		secret: true,
		get:    func(c *DeviceConfig) string { return c.Networks[0].Secret },
		set:    func(c *DeviceConfig, v string) { c.Networks[0].Secret = v },
	},
	FieldNetwork2Name: {
		label: "Network 2 name",
		get:   func(c *DeviceConfig) string { return c.Networks[1].Name },
		set:   func(c *DeviceConfig, v string) { c.Networks[1].Name = v },
	},
	FieldNetwork2Secret: {
		label:  "Network 2 secret",
		secret: true,
		get:    func(c *DeviceConfig) string { return c.Networks[1].Secret },
		set:    func(c *DeviceConfig, v string) { c.Networks[1].Secret = v },
	},
	FieldNetwork3Name: {
		label: "Network 3 name",
		get:   func(c *DeviceConfig) string { return c.Networks[2].Name },
		set:   func(c *DeviceConfig, v string) { c.Networks[2].Name = v },
	},
	FieldNetwork3Secret: {
		label:  "Network 3 secret",
		secret: true,
		get:    func(c *DeviceConfig) string { return c.Networks[2].Secret },
		set:    func(c *DeviceConfig, v string) { c.Networks[2].Secret = v },
	},
	FieldFamilyEndpoint: {
		label: "Family endpoint",
		get:   func(c *DeviceConfig) string { return c.FamilyEndpoint },
		set:   func(c *DeviceConfig, v string) { c.FamilyEndpoint = v },
	},
	FieldNeighborhoodEndpoint: {
		label: "Neighborhood endpoint",
		get:   func(c *DeviceConfig) string { return c.NeighborhoodEndpoint },
		set:   func(c *DeviceConfig, v string) { c.NeighborhoodEndpoint = v },
	},
}

// editableFieldOrder fixes the menu presentation order.
var editableFieldOrder = []Field{
	FieldDisplayName,
	FieldAlertTemplate,
	FieldAuthToken,
	FieldNetwork1Name,
	FieldNetwork1Secret,
	FieldNetwork2Name,
	FieldNetwork2Secret,
	FieldNetwork3Name,
	FieldNetwork3Secret,
	FieldFamilyEndpoint,
	FieldNeighborhoodEndpoint,
}

// EditableFields returns the chat-editable fields in presentation order.
func EditableFields() []Field {
	out := make([]Field, len(editableFieldOrder))
	copy(out, editableFieldOrder)
	return out
}

// IsEditable reports whether f is a known chat-editable field.
func IsEditable(f Field) bool {
	_, ok := fieldSpecs[f]
	return ok
}

// Label returns the human-readable name for f, or the raw identifier if f is
// unknown.
func (f Field) Label() string {
	if spec, ok := fieldSpecs[f]; ok {
		return spec.label
	}
	return string(f)
}

// IsSecret reports whether the field's current value should be masked when
// rendered back to the caller.
func (f Field) IsSecret() bool {
	spec, ok := fieldSpecs[f]
	return ok && spec.secret
}

// Value reads the current value of f from cfg.
// Returns ErrUnknownField if f is not editable.
func Value(cfg *DeviceConfig, f Field) (string, error) {
	spec, ok := fieldSpecs[f]
	if !ok {
		return "", ErrUnknownField
	}
	return spec.get(cfg), nil
}

// Apply writes value into the field f on cfg.
// Returns ErrUnknownField if f is not editable.
func Apply(cfg *DeviceConfig, f Field, value string) error {
	spec, ok := fieldSpecs[f]
	if !ok {
		return ErrUnknownField
	}
	spec.set(cfg, value)
	return nil
}
