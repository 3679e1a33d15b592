package command

import (
	"encoding/json"

	"github.com/aldermoor/sentrycam-core/internal/deviceconfig"
)

// Button is one interactive affordance. Command is the full message the
// chat client sends back when the button is pressed.
type Button struct {
	Label   string `json:"label"`
	Command string `json:"command"`
}

// Markup is a rectangular button layout, structurally comparable in tests
// and serialized only at the delivery edge.
type Markup struct {
	Rows [][]Button `json:"rows"`
}

// Encode serializes the markup for transport. An empty markup encodes to
// nil so callers can pass it straight through as "no markup".
func (m Markup) Encode() ([]byte, error) {
	if len(m.Rows) == 0 {
		return nil, nil
	}
	return json.Marshal(m)
}

// button builds a Button whose command addresses this device, so pressing
// it on a channel shared by several devices reaches only this one.
func button(label, cmd, deviceID string) Button {
	return Button{Label: label, Command: "/" + cmd + "," + deviceID}
}

// BuildMenu renders the main menu for a role. Owners get the configuration
// row; everyone else sees only the day-to-day commands.
func BuildMenu(role Role, deviceID string) Markup {
	m := Markup{Rows: [][]Button{
		{
			button("Photo", CmdPhoto, deviceID),
			button("Status", CmdStatus, deviceID),
		},
		{
			button("Info", CmdInfo, deviceID),
			button("Help", CmdHelp, deviceID),
		},
	}}
	if role == RoleOwner {
		m.Rows = append(m.Rows, []Button{
			button("Configure", CmdConfig, deviceID),
			button("Restart", CmdRestart, deviceID),
		})
	}
	return m
}

// BuildConfigMenu renders one edit button per editable field, two per row.
func BuildConfigMenu(deviceID string) Markup {
	fields := deviceconfig.EditableFields()

	var m Markup
	var row []Button
	for _, f := range fields {
		row = append(row, button(f.Label(), setPrefix+string(f), deviceID))
		if len(row) == 2 {
			m.Rows = append(m.Rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		m.Rows = append(m.Rows, row)
	}
	m.Rows = append(m.Rows, []Button{button("Back", CmdMenu, deviceID)})
	return m
}

// BuildConfirmMarkup renders the confirm/cancel pair shown while an edit
// awaits confirmation.
func BuildConfirmMarkup(deviceID string) Markup {
	return Markup{Rows: [][]Button{{
		button("Confirm", CmdConfirm, deviceID),
		button("Cancel", CmdCancel, deviceID),
	}}}
}
