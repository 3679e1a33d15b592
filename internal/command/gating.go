package command

import (
	"strings"

	"github.com/aldermoor/sentrycam-core/internal/deviceconfig"
)

// Command tokens. Field edits are the dynamic family "set_<field>" built
// from the editable field registry; everything else is fixed.
const (
	CmdStart   = "start"
	CmdHelp    = "help"
	CmdMenu    = "menu"
	CmdPhoto   = "photo"
	CmdStatus  = "status"
	CmdInfo    = "info"
	CmdConfig  = "config"
	CmdConfirm = "confirm"
	CmdCancel  = "cancel"
	CmdRestart = "restart"
	CmdSave    = "save"
)

// setPrefix introduces field-edit commands, e.g. "set_display_name".
const setPrefix = "set_"

// class buckets commands by who may invoke them.
type class int

const (
	// classPublic: every role, unknown included.
	classPublic class = iota

	// classOwner: owner only; everyone else gets an explicit denial.
	classOwner
)

var commandClasses = map[string]class{
	CmdStart:   classPublic,
	CmdHelp:    classPublic,
	CmdMenu:    classPublic,
	CmdPhoto:   classPublic,
	CmdStatus:  classPublic,
	CmdInfo:    classPublic,
	CmdConfig:  classOwner,
	CmdConfirm: classOwner,
	CmdCancel:  classOwner,
	CmdRestart: classOwner,
	CmdSave:    classOwner,
}

// editField resolves a "set_<field>" token to its field, if valid.
func editField(name string) (deviceconfig.Field, bool) {
	raw, found := strings.CutPrefix(name, setPrefix)
	if !found {
		return "", false
	}
	f := deviceconfig.Field(raw)
	return f, deviceconfig.IsEditable(f)
}

// Known reports whether name is a recognized command token.
func Known(name string) bool {
	if _, ok := commandClasses[name]; ok {
		return true
	}
	_, ok := editField(name)
	return ok
}

// Allowed reports whether role may invoke the named command. Unknown
// commands are allowed for nobody; the router answers them with help.
func Allowed(role Role, name string) bool {
	cls, ok := commandClasses[name]
	if !ok {
		if _, isEdit := editField(name); isEdit {
			cls = classOwner
		} else {
			return false
		}
	}
	return cls == classPublic || role == RoleOwner
}

// HelpFor lists the commands role may invoke, in menu order. Field-edit
// commands are reached through the config menu and deliberately left out.
func HelpFor(role Role) []string {
	cmds := []string{CmdPhoto, CmdStatus, CmdInfo, CmdMenu, CmdHelp}
	if role == RoleOwner {
		cmds = append(cmds, CmdConfig, CmdSave, CmdRestart)
	}
	return cmds
}
