package engine

import (
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/lcasale/esp-lionel/pkg/log"
	"github.com/lcasale/esp-lionel/pkg/wire"
)

// Defaults for a new engine.
const (
	DefaultAddress  = 1
	DefaultMaxSpeed = 18
)

// Sender transmits command words. Implemented by *transport.Transmitter.
type Sender interface {
	SendFrame(w wire.Word) error
	SendFrameRepeated(w wire.Word, n int) error
}

// Momentum is a decoder momentum setting.
type Momentum uint8

const (
	MomentumLow Momentum = iota
	MomentumMedium
	MomentumHigh
)

// String returns the momentum name.
func (m Momentum) String() string {
	switch m {
	case MomentumLow:
		return "low"
	case MomentumMedium:
		return "medium"
	case MomentumHigh:
		return "high"
	default:
		return "unknown"
	}
}

// ParseMomentum parses "low", "medium" or "high".
func ParseMomentum(s string) (Momentum, error) {
	switch s {
	case "low":
		return MomentumLow, nil
	case "medium", "med":
		return MomentumMedium, nil
	case "high":
		return MomentumHigh, nil
	default:
		return 0, fmt.Errorf("unknown momentum: %q", s)
	}
}

func (m Momentum) command() wire.ExtendedCommand {
	switch m {
	case MomentumMedium:
		return wire.ExtMomentumMedium
	case MomentumHigh:
		return wire.ExtMomentumHigh
	default:
		return wire.ExtMomentumLow
	}
}

// Config configures an Engine.
type Config struct {
	// Name labels the engine in logs.
	Name string

	// Address is masked to 7 bits.
	Address uint

	// MaxSpeed is clamped to wire.MaxSpeed.
	MaxSpeed uint

	// ProtocolLogger receives state change events. Nil disables them.
	ProtocolLogger log.Logger

	// Logger receives operational diagnostics. Nil uses slog.Default().
	Logger *slog.Logger

	// SessionID tags state change events, normally the transmitter's.
	SessionID string
}

// DefaultConfig returns address 1 with a speed limit of 18.
func DefaultConfig() Config {
	return Config{
		Address:  DefaultAddress,
		MaxSpeed: DefaultMaxSpeed,
	}
}

// State is a snapshot of an engine's remembered state.
type State struct {
	Name         string
	Address      uint8
	MaxSpeed     uint8
	CurrentSpeed uint8
	Forward      bool
	Momentum     Momentum
}

// String formats the state for the CLI.
func (s State) String() string {
	dir := "forward"
	if !s.Forward {
		dir = "reverse"
	}
	name := s.Name
	if name == "" {
		name = "engine"
	}
	return fmt.Sprintf("%s #%d: speed %d/%d %s, momentum %s",
		name, s.Address, s.CurrentSpeed, s.MaxSpeed, dir, s.Momentum)
}

// Engine is one locomotive on the layout.
type Engine struct {
	tx Sender

	name         string
	address      uint8
	maxSpeed     uint8
	currentSpeed uint8
	forward      bool
	momentum     Momentum

	capture   log.Logger
	logger    *slog.Logger
	sessionID string
}

// New creates an engine at rest, facing forward.
func New(tx Sender, cfg Config) *Engine {
	e := &Engine{
		tx:        tx,
		name:      cfg.Name,
		address:   uint8(cfg.Address & 0x7F),
		maxSpeed:  uint8(min(cfg.MaxSpeed, wire.MaxSpeed)),
		forward:   true,
		capture:   cfg.ProtocolLogger,
		logger:    cfg.Logger,
		sessionID: cfg.SessionID,
	}
	if e.capture == nil {
		e.capture = log.NoopLogger{}
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	if e.sessionID == "" {
		e.sessionID = uuid.New().String()
	}
	e.logger = e.logger.With("engine", e.label())
	return e
}

func (e *Engine) label() string {
	if e.name != "" {
		return e.name
	}
	return "#" + strconv.Itoa(int(e.address))
}

// Name returns the configured name.
func (e *Engine) Name() string { return e.name }

// Address returns the engine address.
func (e *Engine) Address() uint8 { return e.address }

// MaxSpeed returns the speed limit.
func (e *Engine) MaxSpeed() uint8 { return e.maxSpeed }

// CurrentSpeed returns the last speed sent.
func (e *Engine) CurrentSpeed() uint8 { return e.currentSpeed }

// IsForward reports the last direction sent.
func (e *Engine) IsForward() bool { return e.forward }

// Snapshot returns the remembered state.
func (e *Engine) Snapshot() State {
	return State{
		Name:         e.name,
		Address:      e.address,
		MaxSpeed:     e.maxSpeed,
		CurrentSpeed: e.currentSpeed,
		Forward:      e.forward,
		Momentum:     e.momentum,
	}
}

// SetAddress changes the address later commands go to. Values above 127
// are masked to 7 bits. Nothing is sent.
func (e *Engine) SetAddress(address uint) {
	old := e.address
	e.address = uint8(address & 0x7F)
	reason := ""
	if address > 0x7F {
		reason = fmt.Sprintf("masked from %d", address)
	}
	e.stateChanged("address", fmtUint(old), fmtUint(e.address), reason)
}

// SetMaxSpeed changes the speed limit, clamped to 31. The current speed is
// lowered to the new limit if it exceeds it; nothing is sent.
func (e *Engine) SetMaxSpeed(speed uint) {
	old := e.maxSpeed
	e.maxSpeed = uint8(min(speed, wire.MaxSpeed))
	reason := ""
	if speed > wire.MaxSpeed {
		reason = fmt.Sprintf("clamped from %d", speed)
	}
	e.stateChanged("max_speed", fmtUint(old), fmtUint(e.maxSpeed), reason)

	if e.currentSpeed > e.maxSpeed {
		prev := e.currentSpeed
		e.currentSpeed = e.maxSpeed
		e.stateChanged("speed", fmtUint(prev), fmtUint(e.currentSpeed), "clamped to new max speed")
	}
}

// SetSpeed sends an absolute speed, clamped to the speed limit.
func (e *Engine) SetSpeed(speed uint) error {
	old := e.currentSpeed
	e.currentSpeed = uint8(min(speed, uint(e.maxSpeed)))
	reason := ""
	if speed > uint(e.maxSpeed) {
		reason = fmt.Sprintf("clamped from %d to max speed %d", speed, e.maxSpeed)
	}
	e.stateChanged("speed", fmtUint(old), fmtUint(e.currentSpeed), reason)
	return e.send("set speed", wire.EngineSpeedWord(uint(e.address), uint(e.currentSpeed)))
}

// AdjustSpeed steps the speed by delta, saturated to [-5, +5] and kept
// within [0, max speed]. The relative word carries the step actually taken,
// so the command base never passes the speed limit. Nothing is sent when
// the step is zero.
func (e *Engine) AdjustSpeed(delta int) error {
	delta = max(wire.MinRelativeSpeed, min(wire.MaxRelativeSpeed, delta))
	old := e.currentSpeed
	next := max(0, min(int(e.maxSpeed), int(e.currentSpeed)+delta))
	step := next - int(old)
	if step == 0 {
		return nil
	}

	reason := fmt.Sprintf("relative %+d", step)
	if step != delta {
		reason = fmt.Sprintf("relative %+d limited to %+d", delta, step)
	}
	e.currentSpeed = uint8(next)
	e.stateChanged("speed", fmtUint(old), fmtUint(e.currentSpeed), reason)
	return e.send("adjust speed", wire.RelativeSpeedWord(uint(e.address), step))
}

// SetDirectionForward sends the forward direction command.
func (e *Engine) SetDirectionForward() error {
	return e.Do(wire.ActionForward)
}

// SetDirectionReverse sends the reverse direction command.
func (e *Engine) SetDirectionReverse() error {
	return e.Do(wire.ActionReverse)
}

// ToggleDirection sends the toggle direction command.
func (e *Engine) ToggleDirection() error {
	return e.Do(wire.ActionToggleDirection)
}

// BlowHorn sounds horn 1.
func (e *Engine) BlowHorn() error {
	return e.Do(wire.ActionBlowHorn1)
}

// BlowHorn2 sounds horn 2.
func (e *Engine) BlowHorn2() error {
	return e.Do(wire.ActionBlowHorn2)
}

// RingBell rings the bell.
func (e *Engine) RingBell() error {
	return e.Do(wire.ActionRingBell)
}

// LetOffSound plays the steam let-off sound.
func (e *Engine) LetOffSound() error {
	return e.Do(wire.ActionLetOffSound)
}

// FrontCoupler opens the front coupler.
func (e *Engine) FrontCoupler() error {
	return e.Do(wire.ActionFrontCoupler)
}

// RearCoupler opens the rear coupler.
func (e *Engine) RearCoupler() error {
	return e.Do(wire.ActionRearCoupler)
}

// Boost sends the boost command.
func (e *Engine) Boost() error {
	return e.Do(wire.ActionBoost)
}

// Brake sends the brake command.
func (e *Engine) Brake() error {
	return e.Do(wire.ActionBrake)
}

// Aux sends one of the aux1/aux2 actions.
func (e *Engine) Aux(action wire.EngineAction) error {
	if action < wire.ActionAux1Off || action > wire.ActionAux2On {
		return fmt.Errorf("not an aux action: %s", action)
	}
	return e.Do(action)
}

// Do sends any engine action. Momentary actions go out as a burst of
// wire.StatelessRepetitions frames; the rest go out once. Direction actions
// update the remembered direction first.
func (e *Engine) Do(action wire.EngineAction) error {
	switch action {
	case wire.ActionForward:
		e.setForward(true, "")
	case wire.ActionReverse:
		e.setForward(false, "")
	case wire.ActionToggleDirection:
		e.setForward(!e.forward, "toggle")
	}

	w := wire.EngineActionWord(uint(e.address), action)
	if action.Stateless() {
		return e.sendRepeated(action.String(), w, wire.StatelessRepetitions)
	}
	return e.send(action.String(), w)
}

// SetMomentum sends a momentum setting through the extended command class.
func (e *Engine) SetMomentum(m Momentum) error {
	old := e.momentum
	e.momentum = m
	e.stateChanged("momentum", old.String(), m.String(), "")
	return e.send("set momentum", wire.EngineExtendedWord(uint(e.address), m.command()))
}

// ProgramAddress sends the extended set-address command to the current
// address. Used with the locomotive on the programming track.
func (e *Engine) ProgramAddress() error {
	return e.send("program address", wire.EngineExtendedWord(uint(e.address), wire.ExtSetAddress))
}

func (e *Engine) setForward(forward bool, reason string) {
	old := e.forward
	e.forward = forward
	e.stateChanged("direction", fmtDirection(old), fmtDirection(forward), reason)
}

func (e *Engine) send(op string, w wire.Word) error {
	if err := e.tx.SendFrame(w); err != nil {
		e.logger.Warn("command not sent", "op", op, "address", e.address, "word", w, "error", err)
		return fmt.Errorf("engine %s: %s: %w", e.label(), op, err)
	}
	e.logger.Debug("command sent", "op", op, "address", e.address, "word", w)
	return nil
}

func (e *Engine) sendRepeated(op string, w wire.Word, n int) error {
	if err := e.tx.SendFrameRepeated(w, n); err != nil {
		e.logger.Warn("command not sent", "op", op, "address", e.address, "word", w, "repetitions", n, "error", err)
		return fmt.Errorf("engine %s: %s: %w", e.label(), op, err)
	}
	e.logger.Debug("command sent", "op", op, "address", e.address, "word", w, "repetitions", n)
	return nil
}

func (e *Engine) stateChanged(field, oldValue, newValue, reason string) {
	e.capture.Log(log.Event{
		Timestamp: time.Now(),
		SessionID: e.sessionID,
		Layer:     log.LayerEngine,
		Category:  log.CategoryState,
		StateChange: &log.StateChangeEvent{
			Address:  e.address,
			Field:    field,
			OldValue: oldValue,
			NewValue: newValue,
			Reason:   reason,
		},
	})
}

func fmtUint(v uint8) string {
	return strconv.Itoa(int(v))
}

func fmtDirection(forward bool) string {
	if forward {
		return "forward"
	}
	return "reverse"
}
