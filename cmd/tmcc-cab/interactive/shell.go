package interactive

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/chzyer/readline"
)

// Shell reads cab commands from a terminal.
type Shell struct {
	cab *Cab
	rl  *readline.Instance
}

// NewShell attaches a readline prompt to cab. Cab output is redirected
// through the prompt.
func NewShell(cab *Cab) (*Shell, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          prompt(cab),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}
	cab.SetOutput(rl.Stdout())
	return &Shell{cab: cab, rl: rl}, nil
}

// Stdout returns a writer that properly coordinates with the readline input.
// Use this for log output to avoid interfering with the command prompt.
func (s *Shell) Stdout() io.Writer {
	return s.rl.Stdout()
}

// Run starts the interactive command loop. It calls cancel on quit or EOF.
func (s *Shell) Run(ctx context.Context, cancel context.CancelFunc) {
	defer s.rl.Close()

	s.cab.printHelp()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := s.rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) {
				continue
			}
			fmt.Fprintln(s.rl.Stdout(), "Exiting...")
			cancel()
			return
		}

		err = s.cab.ExecLine(line)
		switch {
		case errors.Is(err, ErrQuit):
			fmt.Fprintln(s.rl.Stdout(), "Exiting...")
			cancel()
			return
		case err != nil:
			fmt.Fprintf(s.rl.Stdout(), "Error: %v\n", err)
		}
		s.rl.SetPrompt(prompt(s.cab))
	}
}

func prompt(c *Cab) string {
	e := c.Current()
	if e.Name() != "" {
		return fmt.Sprintf("%s> ", e.Name())
	}
	return fmt.Sprintf("cab #%d> ", e.Address())
}
