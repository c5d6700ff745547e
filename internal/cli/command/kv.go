package command

import (
	"bytes"
	"errors"
	"io"
	"net/url"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/relog-go/internal/cli/connection"
)

// KVCommand groups the key/value commands.
func KVCommand() *cli.Command {
	return &cli.Command{
		Name:  "kv",
		Usage: "read and write keys on a running server",
		Subcommands: []*cli.Command{
			{
				Name:      "get",
				Usage:     "print the value of a key",
				ArgsUsage: "KEY",
				Action:    kvGet,
			},
			{
				Name:      "put",
				Usage:     "store a value; reads stdin when VALUE is omitted",
				ArgsUsage: "KEY [VALUE]",
				Action:    kvPut,
			},
			{
				Name:      "delete",
				Aliases:   []string{"rm"},
				Usage:     "delete a key",
				ArgsUsage: "KEY",
				Action:    kvDelete,
			},
		},
	}
}

func keyPath(c *cli.Context) (string, error) {
	key := c.Args().First()
	if key == "" {
		return "", errors.New("KEY is required")
	}
	return "/v1/kv/" + url.PathEscape(key), nil
}

func kvGet(c *cli.Context) error {
	path, err := keyPath(c)
	if err != nil {
		return err
	}
	resp, err := client(c).Get(c.Context, path)
	if err != nil {
		return err
	}
	value, err := connection.ReadBody(resp)
	if err != nil {
		return err
	}
	_, err = c.App.Writer.Write(value)
	return err
}

func kvPut(c *cli.Context) error {
	path, err := keyPath(c)
	if err != nil {
		return err
	}
	var body io.Reader
	if c.NArg() > 1 {
		body = bytes.NewReader([]byte(c.Args().Get(1)))
	} else {
		value, err := io.ReadAll(c.App.Reader)
		if err != nil {
			return err
		}
		body = bytes.NewReader(value)
	}
	resp, err := client(c).Put(c.Context, path, body)
	if err != nil {
		return err
	}
	return connection.ParseResponse(resp, nil)
}

func kvDelete(c *cli.Context) error {
	path, err := keyPath(c)
	if err != nil {
		return err
	}
	resp, err := client(c).Delete(c.Context, path)
	if err != nil {
		return err
	}
	return connection.ParseResponse(resp, nil)
}
