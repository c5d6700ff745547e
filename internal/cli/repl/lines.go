package repl

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/peterh/liner"
)

// LineReader prompts for and returns one line without its newline. It
// returns io.EOF when input ends.
type LineReader interface {
	Prompt(prompt string) (string, error)
	Close() error
}

// historyAppender is implemented by readers that keep their own recall
// buffer.
type historyAppender interface {
	AppendHistory(line string)
}

type bufioReader struct {
	r   *bufio.Reader
	out io.Writer
}

// NewBufioReader reads lines from in and prints prompts to out. It suits
// pipes and tests.
func NewBufioReader(in io.Reader, out io.Writer) LineReader {
	return &bufioReader{r: bufio.NewReader(in), out: out}
}

func (b *bufioReader) Prompt(prompt string) (string, error) {
	fmt.Fprint(b.out, prompt)
	line, err := b.r.ReadString('\n')
	if errors.Is(err, io.EOF) && line != "" {
		return strings.TrimRight(line, "\r\n"), nil
	}
	if err != nil {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func (b *bufioReader) Close() error { return nil }

// TerminalReader edits lines with liner: arrow-key recall, Ctrl-R search
// and tab completion.
type TerminalReader struct {
	state *liner.State
}

// NewTerminalReader takes over the terminal. Tab completes against c.
func NewTerminalReader(c *Completer) *TerminalReader {
	state := liner.NewLiner()
	state.SetCtrlCAborts(true)
	state.SetCompleter(c.Complete)
	return &TerminalReader{state: state}
}

// Prompt reads one line. Ctrl-C and Ctrl-D both end input.
func (t *TerminalReader) Prompt(prompt string) (string, error) {
	line, err := t.state.Prompt(prompt)
	if errors.Is(err, liner.ErrPromptAborted) {
		return "", io.EOF
	}
	return line, err
}

// AppendHistory adds line to the recall buffer.
func (t *TerminalReader) AppendHistory(line string) {
	t.state.AppendHistory(line)
}

// Close restores the terminal.
func (t *TerminalReader) Close() error {
	return t.state.Close()
}

// IsTerminal reports whether f is an interactive terminal that liner
// supports.
func IsTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0 && liner.TerminalSupported()
}
