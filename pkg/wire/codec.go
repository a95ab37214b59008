package wire

import "fmt"

// Word is a 16-bit TMCC1 command word (the frame payload without header).
type Word uint16

// String returns the word as a 4-digit hex literal.
func (w Word) String() string {
	return fmt.Sprintf("0x%04X", uint16(w))
}

// High returns the most significant byte.
func (w Word) High() byte { return byte(w >> 8) }

// Low returns the least significant byte.
func (w Word) Low() byte { return byte(w) }

// Field widths and limits.
const (
	// DataMask selects the 5-bit data field.
	DataMask = 0x1F

	// ClassMask selects the 2-bit command class before shifting.
	ClassMask = 0x03

	// MaxSpeed is the highest absolute speed step.
	MaxSpeed = 31

	// HaltWord is the reserved all-ones broadcast that stops everything.
	// It carries no object type semantics.
	HaltWord Word = 0xFFFF

	classShift   = 5
	addressShift = 7
)

// objectLayout is the fixed prefix and address width of one object type.
type objectLayout struct {
	prefix      Word
	addressMask uint
}

var objectLayouts = [...]objectLayout{
	ObjectEngine:    {prefix: 0b00 << 14, addressMask: 0x7F},
	ObjectSwitch:    {prefix: 0b01 << 14, addressMask: 0x7F},
	ObjectAccessory: {prefix: 0b10 << 14, addressMask: 0x7F},
	ObjectTrain:     {prefix: 0b11001 << 11, addressMask: 0x0F},
	ObjectRoute:     {prefix: 0b1101 << 12, addressMask: 0x1F},
}

// MakeWord builds a TMCC1 command word.
//
// The address is masked to the width of t (7 bits for engines, switches and
// accessories, 4 bits for trains, 5 bits for routes) and data is masked to
// 5 bits. Out-of-range values are truncated, never rejected, so construction
// cannot fail. An unknown object type yields word 0.
func MakeWord(t ObjectType, address uint, class CommandClass, data uint) Word {
	if !t.Valid() {
		return 0
	}
	layout := objectLayouts[t]
	return layout.prefix |
		Word(address&layout.addressMask)<<addressShift |
		Word(uint(class)&ClassMask)<<classShift |
		Word(data&DataMask)
}

// EngineActionWord builds an engine command in the action class.
func EngineActionWord(address uint, action EngineAction) Word {
	return MakeWord(ObjectEngine, address, ClassAction, uint(action))
}

// EngineSpeedWord builds an absolute speed command. Speeds above MaxSpeed
// saturate at MaxSpeed.
func EngineSpeedWord(address uint, speed uint) Word {
	if speed > MaxSpeed {
		speed = MaxSpeed
	}
	return MakeWord(ObjectEngine, address, ClassAbsoluteSpeed, speed)
}

// EngineExtendedWord builds an engine command in the extended class.
func EngineExtendedWord(address uint, cmd ExtendedCommand) Word {
	return MakeWord(ObjectEngine, address, ClassExtended, uint(cmd))
}

// Relative speed deltas are carried as delta+5 in the data field.
const (
	MinRelativeSpeed = -5
	MaxRelativeSpeed = 5
	relativeOffset   = 5
)

// RelativeSpeedWord builds a relative speed command. The delta saturates
// to [-5, +5].
func RelativeSpeedWord(address uint, delta int) Word {
	delta = max(MinRelativeSpeed, min(MaxRelativeSpeed, delta))
	return MakeWord(ObjectEngine, address, ClassRelativeSpeed, uint(delta+relativeOffset))
}

// Fields is a command word split back into its sub-fields.
type Fields struct {
	Object  ObjectType
	Address uint
	Class   CommandClass
	Data    uint

	// Halt is set for HaltWord, in which case the other fields are meaningless.
	Halt bool

	// Unknown is set when the prefix matches no object type (for example the
	// 1110 and 11000 prefixes, which TMCC1 leaves unused).
	Unknown bool
}

// DecodeWord splits w into its sub-fields. It is the inverse of MakeWord for
// every word MakeWord can produce and is intended for diagnostics only.
func DecodeWord(w Word) Fields {
	if w == HaltWord {
		return Fields{Halt: true}
	}

	var t ObjectType
	switch {
	case w>>14 == 0b00:
		t = ObjectEngine
	case w>>14 == 0b01:
		t = ObjectSwitch
	case w>>14 == 0b10:
		t = ObjectAccessory
	case w>>11 == 0b11001:
		t = ObjectTrain
	case w>>12 == 0b1101:
		t = ObjectRoute
	default:
		return Fields{Unknown: true, Class: CommandClass((w >> classShift) & ClassMask), Data: uint(w & DataMask)}
	}

	return Fields{
		Object:  t,
		Address: uint(w>>addressShift) & objectLayouts[t].addressMask,
		Class:   CommandClass((w >> classShift) & ClassMask),
		Data:    uint(w & DataMask),
	}
}

// String renders the fields in a compact human-readable form, naming the
// engine action or extended command where one applies.
func (f Fields) String() string {
	if f.Halt {
		return "HALT"
	}
	if f.Unknown {
		return fmt.Sprintf("UNKNOWN class=%s data=%d", f.Class, f.Data)
	}
	detail := fmt.Sprintf("data=%d", f.Data)
	if f.Object == ObjectEngine || f.Object == ObjectTrain {
		switch f.Class {
		case ClassAction:
			detail = EngineAction(f.Data).String()
		case ClassExtended:
			detail = ExtendedCommand(f.Data).String()
		case ClassAbsoluteSpeed:
			detail = fmt.Sprintf("speed=%d", f.Data)
		case ClassRelativeSpeed:
			detail = fmt.Sprintf("delta=%+d", int(f.Data)-relativeOffset)
		}
	}
	return fmt.Sprintf("%s %d %s %s", f.Object, f.Address, f.Class, detail)
}
