// Package replio provides the REPL's line reader: history-backed
// editing via chzyer/readline when attached to a terminal, and a
// quiet prompt-free mode when stdin is piped.
package replio

import (
	"errors"
	"io"
	"os"
	"path/filepath"

	"github.com/chzyer/readline"
	"github.com/mattn/go-isatty"
)

// ErrInterrupted is returned when the user sends Ctrl-C at an empty
// prompt, matching readline's own io.EOF/ErrInterrupt distinction.
var ErrInterrupted = errors.New("replio: interrupted")

// Reader reads one line at a time from stdin, using readline's
// history and editing when stdin is a terminal.
type Reader struct {
	rl      *readline.Instance
	isTerm  bool
	scanner io.Reader
}

// Open builds a Reader. historyPath is typically "<cache-dir>/history";
// an empty string disables history persistence.
func Open(historyPath string) (*Reader, error) {
	isTerm := isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
	if !isTerm {
		return &Reader{isTerm: false, scanner: os.Stdin}, nil
	}

	if historyPath != "" {
		if err := os.MkdirAll(filepath.Dir(historyPath), 0o755); err != nil {
			historyPath = ""
		}
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          ">>> ",
		HistoryFile:     historyPath,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, err
	}
	return &Reader{rl: rl, isTerm: true}, nil
}

// IsTerminal reports whether this Reader is driving an interactive
// terminal (and therefore prints prompts/uses history) or running
// headless against piped input.
func (r *Reader) IsTerminal() bool {
	return r.isTerm
}

// ReadLine reads the next line. On a non-terminal Reader it reads raw
// stdin with no prompt; io.EOF signals the end of input either way.
func (r *Reader) ReadLine() (string, error) {
	if !r.isTerm {
		return readRawLine(r.scanner)
	}
	line, err := r.rl.Readline()
	switch {
	case errors.Is(err, readline.ErrInterrupt):
		return "", ErrInterrupted
	case err != nil:
		return "", err
	}
	return line, nil
}

// Close releases the underlying terminal state and flushes history.
func (r *Reader) Close() error {
	if r.rl != nil {
		return r.rl.Close()
	}
	return nil
}

func readRawLine(r io.Reader) (string, error) {
	var line []byte
	buf := make([]byte, 1)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			if buf[0] == '\n' {
				return string(line), nil
			}
			line = append(line, buf[0])
		}
		if err != nil {
			if err == io.EOF && len(line) > 0 {
				return string(line), nil
			}
			return string(line), err
		}
	}
}
