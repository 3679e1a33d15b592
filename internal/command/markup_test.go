package command

import (
	"reflect"
	"strings"
	"testing"

	"github.com/aldermoor/sentrycam-core/internal/deviceconfig"
)

func TestBuildMenu_RoleShapes(t *testing.T) {
	ownerMenu := BuildMenu(RoleOwner, "cam-1")
	familyMenu := BuildMenu(RoleFamily, "cam-1")

	if len(ownerMenu.Rows) != len(familyMenu.Rows)+1 {
		t.Errorf("owner menu has %d rows, family %d; want owner = family+1",
			len(ownerMenu.Rows), len(familyMenu.Rows))
	}
	if !reflect.DeepEqual(ownerMenu.Rows[:len(familyMenu.Rows)], familyMenu.Rows) {
		t.Error("shared rows differ between owner and family menus")
	}

	for _, role := range []Role{RoleFamily, RoleNeighborhood, RoleUnknown} {
		if !reflect.DeepEqual(BuildMenu(role, "cam-1"), familyMenu) {
			t.Errorf("menu for %v differs from the reduced menu", role)
		}
	}
}

func TestBuildMenu_ButtonsAddressDevice(t *testing.T) {
	menu := BuildMenu(RoleOwner, "cam-77")
	for _, row := range menu.Rows {
		for _, btn := range row {
			if !strings.HasSuffix(btn.Command, ",cam-77") {
				t.Errorf("button %q does not address the device: %q", btn.Label, btn.Command)
			}
			if req, ok := Parse(btn.Command); !ok || !req.ForDevice("cam-77") {
				t.Errorf("button command %q does not parse back to this device", btn.Command)
			}
		}
	}
}

func TestBuildConfigMenu_CoversEditableFields(t *testing.T) {
	menu := BuildConfigMenu("cam-1")

	var commands []string
	for _, row := range menu.Rows {
		for _, btn := range row {
			req, ok := Parse(btn.Command)
			if !ok {
				t.Fatalf("button command %q does not parse", btn.Command)
			}
			commands = append(commands, req.Name)
		}
	}

	for _, f := range deviceconfig.EditableFields() {
		want := setPrefix + string(f)
		found := false
		for _, c := range commands {
			if c == want {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("config menu missing edit button for field %q", f)
		}
	}
}

func TestMarkupEncode(t *testing.T) {
	if data, err := (Markup{}).Encode(); err != nil || data != nil {
		t.Errorf("empty markup Encode() = (%q, %v), want (nil, nil)", data, err)
	}

	data, err := BuildConfirmMarkup("cam-1").Encode()
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if !strings.Contains(string(data), "/confirm,cam-1") {
		t.Errorf("encoded markup missing confirm command: %s", data)
	}
}
