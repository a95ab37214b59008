package wire

import (
	"fmt"
	"strings"
)

// ObjectType is the category of addressable target.
type ObjectType uint8

const (
	// ObjectEngine addresses a single locomotive (7-bit address).
	ObjectEngine ObjectType = 0

	// ObjectSwitch addresses a turnout (7-bit address).
	ObjectSwitch ObjectType = 1

	// ObjectAccessory addresses an accessory (7-bit address).
	ObjectAccessory ObjectType = 2

	// ObjectTrain addresses a lashed-up train (4-bit address).
	ObjectTrain ObjectType = 3

	// ObjectRoute addresses a route (5-bit address).
	ObjectRoute ObjectType = 4
)

// Valid reports whether t is one of the defined object types.
func (t ObjectType) Valid() bool {
	return t <= ObjectRoute
}

// AddressMask returns the address mask for t, or 0 for an unknown type.
func (t ObjectType) AddressMask() uint {
	if !t.Valid() {
		return 0
	}
	return objectLayouts[t].addressMask
}

// String returns the object type name.
func (t ObjectType) String() string {
	switch t {
	case ObjectEngine:
		return "ENGINE"
	case ObjectSwitch:
		return "SWITCH"
	case ObjectAccessory:
		return "ACCESSORY"
	case ObjectTrain:
		return "TRAIN"
	case ObjectRoute:
		return "ROUTE"
	default:
		return "UNKNOWN"
	}
}

// CommandClass selects how the 5-bit data field is interpreted.
// It occupies bits 6-5 of the word.
type CommandClass uint8

const (
	ClassAction        CommandClass = 0b00
	ClassExtended      CommandClass = 0b01
	ClassRelativeSpeed CommandClass = 0b10
	ClassAbsoluteSpeed CommandClass = 0b11
)

// String returns the command class name.
func (c CommandClass) String() string {
	switch c {
	case ClassAction:
		return "ACTION"
	case ClassExtended:
		return "EXTENDED"
	case ClassRelativeSpeed:
		return "RELATIVE_SPEED"
	case ClassAbsoluteSpeed:
		return "ABSOLUTE_SPEED"
	default:
		return "UNKNOWN"
	}
}

// EngineAction is a 5-bit action code for the action command class.
// The values are fixed by the protocol; never renumber them.
type EngineAction uint8

const (
	ActionForward         EngineAction = 0b00000
	ActionToggleDirection EngineAction = 0b00001
	ActionReverse         EngineAction = 0b00011
	ActionBoost           EngineAction = 0b00100
	ActionFrontCoupler    EngineAction = 0b00101
	ActionRearCoupler     EngineAction = 0b00110
	ActionBrake           EngineAction = 0b00111
	ActionAux1Off         EngineAction = 0b01000
	ActionAux1Option1     EngineAction = 0b01001
	ActionAux1Option2     EngineAction = 0b01010
	ActionAux1On          EngineAction = 0b01011
	ActionAux2Off         EngineAction = 0b01100
	ActionAux2Option1     EngineAction = 0b01101
	ActionAux2Option2     EngineAction = 0b01110
	ActionAux2On          EngineAction = 0b01111
	ActionBlowHorn1       EngineAction = 0b11100
	ActionRingBell        EngineAction = 0b11101
	ActionLetOffSound     EngineAction = 0b11110
	ActionBlowHorn2       EngineAction = 0b11111
)

var engineActionNames = map[EngineAction]string{
	ActionForward:         "forward",
	ActionToggleDirection: "toggle-direction",
	ActionReverse:         "reverse",
	ActionBoost:           "boost",
	ActionFrontCoupler:    "front-coupler",
	ActionRearCoupler:     "rear-coupler",
	ActionBrake:           "brake",
	ActionAux1Off:         "aux1-off",
	ActionAux1Option1:     "aux1-option1",
	ActionAux1Option2:     "aux1-option2",
	ActionAux1On:          "aux1-on",
	ActionAux2Off:         "aux2-off",
	ActionAux2Option1:     "aux2-option1",
	ActionAux2Option2:     "aux2-option2",
	ActionAux2On:          "aux2-on",
	ActionBlowHorn1:       "horn",
	ActionRingBell:        "bell",
	ActionLetOffSound:     "let-off",
	ActionBlowHorn2:       "horn2",
}

// EngineActions returns every defined engine action in code order.
func EngineActions() []EngineAction {
	return []EngineAction{
		ActionForward, ActionToggleDirection, ActionReverse, ActionBoost,
		ActionFrontCoupler, ActionRearCoupler, ActionBrake,
		ActionAux1Off, ActionAux1Option1, ActionAux1Option2, ActionAux1On,
		ActionAux2Off, ActionAux2Option1, ActionAux2Option2, ActionAux2On,
		ActionBlowHorn1, ActionRingBell, ActionLetOffSound, ActionBlowHorn2,
	}
}

// String returns the action name used on the command line.
func (a EngineAction) String() string {
	if name, ok := engineActionNames[a]; ok {
		return name
	}
	return fmt.Sprintf("action(0x%02X)", uint8(a))
}

// Stateless reports whether the action is momentary, so the base can miss
// it if it is sent only once. Horn and bell commands are stateless.
func (a EngineAction) Stateless() bool {
	switch a {
	case ActionBlowHorn1, ActionBlowHorn2, ActionRingBell:
		return true
	default:
		return false
	}
}

// ParseEngineAction parses an action name (case-insensitive).
func ParseEngineAction(s string) (EngineAction, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for a, name := range engineActionNames {
		if name == s {
			return a, nil
		}
	}
	return 0, fmt.Errorf("unknown engine action: %q", s)
}

// ExtendedCommand is a 5-bit code for the extended command class.
type ExtendedCommand uint8

const (
	ExtAssignToTrain  ExtendedCommand = 0b00000
	ExtMomentumLow    ExtendedCommand = 0b01000
	ExtMomentumMedium ExtendedCommand = 0b01001
	ExtMomentumHigh   ExtendedCommand = 0b01010
	ExtSetAddress     ExtendedCommand = 0b01011
)

// String returns the extended command name.
func (c ExtendedCommand) String() string {
	switch c {
	case ExtAssignToTrain:
		return "assign-to-train"
	case ExtMomentumLow:
		return "momentum-low"
	case ExtMomentumMedium:
		return "momentum-medium"
	case ExtMomentumHigh:
		return "momentum-high"
	case ExtSetAddress:
		return "set-address"
	default:
		return fmt.Sprintf("extended(0x%02X)", uint8(c))
	}
}
