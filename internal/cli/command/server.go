package command

import (
	"github.com/urfave/cli/v2"

	"github.com/yndnr/relog-go/internal/cli/connection"
	"github.com/yndnr/relog-go/internal/server/httpserver/handler"
)

// ServerCommand groups the admin commands of a running server.
func ServerCommand() *cli.Command {
	return &cli.Command{
		Name:  "server",
		Usage: "query and control a running server",
		Subcommands: []*cli.Command{
			{
				Name:   "status",
				Usage:  "show store and journal status",
				Action: serverStatus,
			},
			{
				Name:   "snapshot",
				Usage:  "take a snapshot now",
				Action: serverSnapshot,
			},
			{
				Name:   "health",
				Usage:  "check server health",
				Action: serverHealth,
			},
		},
	}
}

func serverStatus(c *cli.Context) error {
	resp, err := client(c).Get(c.Context, "/admin/v1/status")
	if err != nil {
		return err
	}
	var st handler.StatusResponse
	if err := connection.ParseResponse(resp, &st); err != nil {
		return err
	}
	return render(c, st)
}

func serverSnapshot(c *cli.Context) error {
	resp, err := client(c).Post(c.Context, "/admin/v1/snapshot", nil)
	if err != nil {
		return err
	}
	var st handler.StatusResponse
	if err := connection.ParseResponse(resp, &st); err != nil {
		return err
	}
	return render(c, st)
}

func serverHealth(c *cli.Context) error {
	resp, err := client(c).Get(c.Context, "/health")
	if err != nil {
		return err
	}
	var health map[string]string
	if err := connection.ParseResponse(resp, &health); err != nil {
		return err
	}
	return render(c, health)
}
