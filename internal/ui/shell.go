package ui

import (
	"context"
	"errors"
	"log/slog"

	"github.com/abiosoft/ishell/v2"

	"storefront/internal/storefront"
)

type Shell struct {
	shell *ishell.Shell
}

// NewShell registers the command table on an interactive shell. Commands
// return to the prompt without waiting for their requests, and the prompt
// follows the terminal as late results are rendered.
func NewShell(ctx context.Context, app *storefront.App, term *Terminal) *Shell {
	s := &Shell{shell: ishell.New()}
	cmds := Commands()
	term.OnChange(func() { s.shell.SetPrompt(term.Prompt()) })

	for _, cmd := range cmds {
		s.shell.AddCmd(&ishell.Cmd{
			Name:     cmd.Name,
			Help:     cmd.Help,
			LongHelp: "usage: " + cmd.Synopsis() + "\n\n" + cmd.Help,
			Func: func(c *ishell.Context) {
				if err := Dispatch(ctx, app, cmds, cmd.Name, c.Args); err != nil {
					report(c, err)
				}
			},
		})
	}
	s.shell.SetPrompt(term.Prompt())
	return s
}

func report(c *ishell.Context, err error) {
	switch {
	case errors.Is(err, ErrUsage):
		c.Println(yellow(err.Error()))
	case errors.Is(err, storefront.ErrUnauthenticated),
		errors.Is(err, storefront.ErrUnauthorized),
		errors.Is(err, storefront.ErrEmptyCart),
		errors.Is(err, storefront.ErrInvalidInput):
		// Already shown as a notice.
		slog.Debug("Command rejected", "error", err)
	default:
		c.Println(red(err.Error()))
	}
}

// Run reads commands until the user exits.
func (s *Shell) Run() {
	s.shell.Println(bold("Welcome to the storefront.") + " Type 'help' for commands.")
	s.shell.Run()
}

func (s *Shell) Close() {
	s.shell.Close()
}
