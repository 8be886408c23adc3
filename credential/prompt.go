package credential

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// TerminalPrompter reads operator input from a terminal.
// Prompts go to stderr so stdout stays clean for rendered output.
type TerminalPrompter struct {
	in  *os.File
	err io.Writer
}

// NewTerminalPrompter returns a prompter over stdin/stderr.
func NewTerminalPrompter() *TerminalPrompter {
	return &TerminalPrompter{in: os.Stdin, err: os.Stderr}
}

// Input reads a visible line of input.
func (p *TerminalPrompter) Input(label string) (string, error) {
	fmt.Fprintf(p.err, "%s: ", label)
	reader := bufio.NewReader(p.in)
	value, err := reader.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimSpace(value), nil
}

// Secret reads a line without echo when stdin is a terminal, falling back
// to visible input otherwise (pipes, CI).
func (p *TerminalPrompter) Secret(label string) (string, error) {
	if term.IsTerminal(int(p.in.Fd())) {
		fmt.Fprintf(p.err, "%s: ", label)
		raw, err := term.ReadPassword(int(p.in.Fd()))
		fmt.Fprintln(p.err)
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(raw)), nil
	}
	return p.Input(label)
}
