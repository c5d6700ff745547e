package command

import (
	"errors"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/relog-go/internal/cli/repl"
)

// ShellCommand returns the interactive shell command.
func ShellCommand() *cli.Command {
	return &cli.Command{
		Name:  "shell",
		Usage: "run commands interactively",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "history",
				Usage: "history file; empty keeps history in memory",
				Value: repl.DefaultHistoryFile(),
			},
		},
		Action: runShell,
	}
}

func runShell(c *cli.Context) error {
	global := []string{
		c.App.Name,
		"--output", c.String("output"),
		"--server", c.String("server"),
	}
	exec := func(args []string) error {
		if args[0] == "shell" {
			return errors.New("already in a shell")
		}
		app := App()
		app.Writer = c.App.Writer
		app.ErrWriter = c.App.ErrWriter
		app.Reader = strings.NewReader("")
		// Exit codes would end the whole shell.
		app.ExitErrHandler = func(*cli.Context, error) {}
		return app.Run(append(append([]string(nil), global...), args...))
	}

	names := commandNames(App().Commands, "")
	opts := []repl.Option{
		repl.WithCommands(names),
		repl.WithHistory(repl.NewHistory(c.String("history"), repl.DefaultHistorySize)),
	}
	if f, ok := c.App.Reader.(*os.File); ok && f == os.Stdin && repl.IsTerminal(f) {
		opts = append(opts, repl.WithLineReader(repl.NewTerminalReader(repl.NewCompleter(names))))
	}
	return repl.New(c.App.Reader, c.App.Writer, exec, opts...).Run()
}

// commandNames lists every command path, such as "kv get".
func commandNames(cmds []*cli.Command, prefix string) []string {
	var names []string
	for _, cmd := range cmds {
		if cmd.Name == "shell" {
			continue
		}
		name := prefix + cmd.Name
		names = append(names, name)
		names = append(names, commandNames(cmd.Subcommands, name+" ")...)
	}
	return names
}
