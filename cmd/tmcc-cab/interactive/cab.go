// Package interactive provides the command set of tmcc-cab and the
// readline shell that drives it.
package interactive

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/lcasale/esp-lionel/pkg/engine"
	"github.com/lcasale/esp-lionel/pkg/transport"
	"github.com/lcasale/esp-lionel/pkg/wire"
)

// ErrQuit is returned by Exec for quit and exit.
var ErrQuit = errors.New("quit")

// ErrUsage wraps malformed command lines.
var ErrUsage = errors.New("usage")

// Transmitter is the transmitter surface the cab needs.
// Implemented by *transport.Transmitter.
type Transmitter interface {
	engine.Sender
	transport.Diagnostics
	Stats() transport.Stats
}

var _ Transmitter = (*transport.Transmitter)(nil)

// actionAliases maps short cab words onto engine action names.
var actionAliases = map[string]string{
	"fwd":    "forward",
	"rev":    "reverse",
	"toggle": "toggle-direction",
	"letoff": "let-off",
	"front":  "front-coupler",
	"rear":   "rear-coupler",
}

// Cab executes operator commands against a set of engines.
type Cab struct {
	tx      Transmitter
	engines []*engine.Engine
	current *engine.Engine
	out     io.Writer
}

// New creates a cab. engines must not be empty; the first one is selected.
func New(tx Transmitter, engines []*engine.Engine, out io.Writer) *Cab {
	return &Cab{
		tx:      tx,
		engines: engines,
		current: engines[0],
		out:     out,
	}
}

// Current returns the selected engine.
func (c *Cab) Current() *engine.Engine {
	return c.current
}

// SetOutput redirects command output.
func (c *Cab) SetOutput(w io.Writer) {
	c.out = w
}

// ExecLine splits line into words and runs it. Blank lines do nothing.
func (c *Cab) ExecLine(line string) error {
	args := strings.Fields(line)
	if len(args) == 0 {
		return nil
	}
	return c.Exec(args)
}

// Exec runs one command. args[0] is the command name.
func (c *Cab) Exec(args []string) error {
	cmd := strings.ToLower(args[0])
	args = args[1:]

	switch cmd {
	case "help", "?":
		c.printHelp()
		return nil

	case "speed", "s":
		n, err := uintArg(cmd, args)
		if err != nil {
			return err
		}
		return c.current.SetSpeed(n)

	case "stop":
		return c.current.SetSpeed(0)

	case "faster", "+":
		return c.adjust(cmd, args, 1)

	case "slower", "-":
		return c.adjust(cmd, args, -1)

	case "momentum", "m":
		if len(args) != 1 {
			return fmt.Errorf("%w: %s low|medium|high", ErrUsage, cmd)
		}
		m, err := engine.ParseMomentum(strings.ToLower(args[0]))
		if err != nil {
			return err
		}
		return c.current.SetMomentum(m)

	case "address":
		n, err := uintArg(cmd, args)
		if err != nil {
			return err
		}
		c.current.SetAddress(n)
		fmt.Fprintln(c.out, c.current.Snapshot())
		return nil

	case "max":
		n, err := uintArg(cmd, args)
		if err != nil {
			return err
		}
		c.current.SetMaxSpeed(n)
		fmt.Fprintln(c.out, c.current.Snapshot())
		return nil

	case "program":
		return c.current.ProgramAddress()

	case "engine", "e":
		return c.selectEngine(args)

	case "engines":
		c.listEngines()
		return nil

	case "status":
		fmt.Fprintln(c.out, c.current.Snapshot())
		return nil

	case "halt":
		return c.tx.SystemHalt()

	case "test", "test-pattern":
		return c.tx.SendTestPattern()

	case "raw":
		p, err := parseHexBytes(args)
		if err != nil {
			return err
		}
		return c.tx.SendRawBytes(p)

	case "word":
		if len(args) != 1 {
			return fmt.Errorf("%w: word <hex>", ErrUsage)
		}
		w, err := parseWord(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(c.out, "%s  %s\n", w, wire.DecodeWord(w))
		return c.tx.SendFrame(w)

	case "stats":
		s := c.tx.Stats()
		fmt.Fprintf(c.out, "writes %d, frames %d, bytes %d, errors %d\n", s.Writes, s.Frames, s.Bytes, s.Errors)
		return nil

	case "quit", "exit", "q":
		return ErrQuit
	}

	if alias, ok := actionAliases[cmd]; ok {
		cmd = alias
	}
	action, err := wire.ParseEngineAction(cmd)
	if err != nil {
		return fmt.Errorf("unknown command: %s (type 'help' for commands)", cmd)
	}
	return c.current.Do(action)
}

func (c *Cab) adjust(cmd string, args []string, sign int) error {
	step := 1
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 0 {
			return fmt.Errorf("%w: %s [steps]", ErrUsage, cmd)
		}
		step = n
	}
	return c.current.AdjustSpeed(sign * step)
}

// selectEngine picks an engine by name or by "#address".
func (c *Cab) selectEngine(args []string) error {
	if len(args) == 0 {
		fmt.Fprintln(c.out, c.current.Snapshot())
		return nil
	}
	key := strings.Join(args, " ")
	for _, e := range c.engines {
		if strings.EqualFold(e.Name(), key) || "#"+strconv.Itoa(int(e.Address())) == key {
			c.current = e
			fmt.Fprintln(c.out, e.Snapshot())
			return nil
		}
	}
	return fmt.Errorf("no engine %q (see 'engines')", key)
}

func (c *Cab) listEngines() {
	for _, e := range c.engines {
		marker := " "
		if e == c.current {
			marker = "*"
		}
		fmt.Fprintf(c.out, "%s %s\n", marker, e.Snapshot())
	}
}

func (c *Cab) printHelp() {
	fmt.Fprintln(c.out, `
TMCC Cab Commands:
  Throttle:
    speed <0-31>       - Set absolute speed (clamped to the engine's max)
    faster [n]         - Step speed up (relative, at most 5)
    slower [n]         - Step speed down
    stop               - Speed 0
    forward | reverse  - Set direction
    toggle             - Toggle direction

  Sounds and actions:
    horn | horn2 | bell | letoff
    front | rear       - Fire coupler
    boost | brake
    aux1-on ... aux2-option2
    momentum <low|medium|high>

  Engine:
    engines            - List engines
    engine <name|#n>   - Select engine
    address <0-127>    - Change the cab's address for this engine
    max <1-31>         - Set speed limit
    program            - Send set-address to the engine on the programming track
    status             - Show engine state

  System:
    halt               - Broadcast system halt
    test               - Send the scope test pattern
    raw <hex>          - Send raw bytes, e.g. raw 55 aa 00 ff
    word <hex>         - Send one framed word, e.g. word 0x009C
    stats              - Transmitter counters

  General:
    help               - Show this help
    quit               - Exit`)
}

func uintArg(cmd string, args []string) (uint, error) {
	if len(args) != 1 {
		return 0, fmt.Errorf("%w: %s <n>", ErrUsage, cmd)
	}
	n, err := strconv.ParseUint(args[0], 10, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: %s <n>: %q is not a number", ErrUsage, cmd, args[0])
	}
	return uint(n), nil
}

// parseHexBytes accepts "55aa00ff", "55 aa 00 ff" or "0x55 0xAA".
func parseHexBytes(args []string) ([]byte, error) {
	var sb strings.Builder
	for _, a := range args {
		a = strings.TrimPrefix(strings.ToLower(a), "0x")
		sb.WriteString(a)
	}
	p, err := hex.DecodeString(sb.String())
	if err != nil {
		return nil, fmt.Errorf("%w: raw <hex>: %v", ErrUsage, err)
	}
	return p, nil
}

func parseWord(s string) (wire.Word, error) {
	s = strings.TrimPrefix(strings.ToLower(s), "0x")
	v, err := strconv.ParseUint(s, 16, 16)
	if err != nil {
		return 0, fmt.Errorf("%w: word <hex>: %q", ErrUsage, s)
	}
	return wire.Word(v), nil
}
