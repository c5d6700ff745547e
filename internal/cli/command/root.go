package command

import (
	"github.com/urfave/cli/v2"

	"github.com/yndnr/relog-go/internal/cli/connection"
	"github.com/yndnr/relog-go/internal/cli/output"
	"github.com/yndnr/relog-go/internal/infra/buildinfo"
)

// Exit codes.
const (
	ExitError   = 1
	ExitCorrupt = 2
)

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:    "relog-cli",
		Usage:   "inspect and operate ReLog journals",
		Version: buildinfo.String(),
		Flags:   globalFlags(),
		Commands: []*cli.Command{
			InspectCommand(),
			DumpCommand(),
			VerifyCommand(),
			DestroyCommand(),
			KVCommand(),
			ServerCommand(),
			ShellCommand(),
		},
		Before: func(c *cli.Context) error {
			_, err := output.ParseFormat(c.String("output"))
			return err
		},
	}
}

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "output format: table, json, yaml",
			Value:   "table",
		},
		&cli.StringFlag{
			Name:    "server",
			Aliases: []string{"s"},
			Usage:   "relog-server address for kv and server commands, host:port or unix:///path",
			EnvVars: []string{"RELOG_SERVER"},
			Value:   "127.0.0.1:7480",
		},
	}
}

func dirFlag() cli.Flag {
	return &cli.StringFlag{
		Name:     "dir",
		Aliases:  []string{"d"},
		Usage:    "journal directory",
		EnvVars:  []string{"RELOG_STORAGE__DATA_DIR"},
		Required: true,
	}
}

// render writes data to the app's writer in the selected format.
func render(c *cli.Context, data any) error {
	format, err := output.ParseFormat(c.String("output"))
	if err != nil {
		return err
	}
	return output.NewFormatter(format).Format(c.App.Writer, data)
}

func client(c *cli.Context) *connection.HTTPClient {
	return connection.NewHTTPClient(c.String("server"))
}
