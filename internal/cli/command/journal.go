package command

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/relog-go/internal/storage/journal"
	"github.com/yndnr/relog-go/internal/telemetry/logger"
)

// InspectCommand summarizes a journal directory.
func InspectCommand() *cli.Command {
	return &cli.Command{
		Name:   "inspect",
		Usage:  "show the current generation, file sizes and record count",
		Flags:  []cli.Flag{dirFlag()},
		Action: inspect,
	}
}

func inspect(c *cli.Context) error {
	info, err := journal.Scan(c.String("dir"))
	if err != nil {
		return err
	}
	return render(c, info)
}

// DumpRecord is one row of the dump command.
type DumpRecord struct {
	Index  int    `json:"index"`
	Offset int64  `json:"offset"`
	Length int64  `json:"length"`
	Hex    string `json:"hex"`
}

// DumpCommand lists the records of the current log segment.
func DumpCommand() *cli.Command {
	return &cli.Command{
		Name:  "dump",
		Usage: "list the records of the current log segment",
		Flags: []cli.Flag{
			dirFlag(),
			&cli.IntFlag{
				Name:  "limit",
				Usage: "maximum number of records to list (0 for all)",
			},
			&cli.IntFlag{
				Name:  "bytes",
				Usage: "payload bytes to show per record",
				Value: 16,
			},
		},
		Action: dump,
	}
}

func dump(c *cli.Context) error {
	limit, n := c.Int("limit"), c.Int("bytes")
	if limit < 0 || n < 0 {
		return errors.New("--limit and --bytes must not be negative")
	}

	records := []DumpRecord{}
	_, err := journal.ScanRecords(c.String("dir"), func(rec journal.Record, r io.Reader) error {
		if limit > 0 && len(records) >= limit {
			return nil
		}
		head := make([]byte, min(int64(n), rec.Length))
		if _, err := io.ReadFull(r, head); err != nil {
			return err
		}
		h := hex.EncodeToString(head)
		if rec.Length > int64(len(head)) {
			h += "…"
		}
		records = append(records, DumpRecord{
			Index:  rec.Index,
			Offset: rec.Offset,
			Length: rec.Length,
			Hex:    h,
		})
		return nil
	})
	if err != nil {
		return err
	}
	return render(c, records)
}

// VerifyResult is the output of the verify command.
type VerifyResult struct {
	Dir    string            `json:"dir"`
	Status string            `json:"status"`
	Error  string            `json:"error,omitempty"`
	Scan   *journal.ScanInfo `json:"scan,omitempty"`
}

// Verify statuses.
const (
	StatusOK        = "ok"
	StatusTruncated = "truncated-tail"
	StatusCorrupt   = "corrupt"
)

// VerifyCommand checks that a journal directory can be recovered.
func VerifyCommand() *cli.Command {
	return &cli.Command{
		Name:  "verify",
		Usage: "check the journal; exits 2 when it is corrupt",
		Flags: []cli.Flag{
			dirFlag(),
			&cli.BoolFlag{
				Name:  "strict",
				Usage: "treat a torn final record as corruption",
			},
		},
		Action: verify,
	}
}

func verify(c *cli.Context) error {
	dir := c.String("dir")
	info, err := journal.Scan(dir)
	res := VerifyResult{Dir: dir, Status: StatusOK, Scan: info}
	switch {
	case err != nil && journal.IsCorrupt(err):
		res.Status = StatusCorrupt
		res.Error = err.Error()
	case err != nil:
		return err
	case info.TruncatedTail:
		res.Status = StatusTruncated
	}

	if rerr := render(c, res); rerr != nil {
		return rerr
	}
	if res.Status == StatusCorrupt || (res.Status == StatusTruncated && c.Bool("strict")) {
		return cli.Exit(fmt.Sprintf("journal %s: %s", dir, res.Status), ExitCorrupt)
	}
	return nil
}

// DestroyCommand deletes a journal directory.
func DestroyCommand() *cli.Command {
	return &cli.Command{
		Name:  "destroy",
		Usage: "delete every journal file and the directory",
		Flags: []cli.Flag{
			dirFlag(),
			&cli.BoolFlag{
				Name:  "yes",
				Usage: "confirm deletion",
			},
		},
		Action: destroy,
	}
}

func destroy(c *cli.Context) error {
	dir := c.String("dir")
	if !c.Bool("yes") {
		return cli.Exit("refusing to destroy "+dir+" without --yes", ExitError)
	}
	// The marker is not read, so a corrupt journal can be wiped too.
	if err := journal.Remove(dir, journal.WithLogger(logger.Discard())); err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "destroyed %s\n", dir)
	return nil
}
