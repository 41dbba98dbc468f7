package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"golang.org/x/term"
)

// Prompt reads interactive answers. Secrets are read without echo when in is a terminal.
type Prompt struct {
	in     io.Reader
	out    io.Writer
	reader *bufio.Reader
}

// NewPrompt creates a prompt reading from in and writing questions to out.
func NewPrompt(in io.Reader, out io.Writer) *Prompt {
	return &Prompt{in: in, out: out, reader: bufio.NewReader(in)}
}

// Line asks for a single line. def is returned for an empty answer.
func (p *Prompt) Line(label, def string) (string, error) {
	if def != "" {
		fmt.Fprintf(p.out, "%s [%s]: ", label, def)
	} else {
		fmt.Fprintf(p.out, "%s: ", label)
	}
	line, err := p.reader.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return def, nil
	}
	return line, nil
}

// Secret asks for a value without echoing it on a terminal.
func (p *Prompt) Secret(label string) (string, error) {
	f, ok := p.in.(*os.File)
	if !ok || !isatty.IsTerminal(f.Fd()) {
		return p.Line(label, "")
	}
	fmt.Fprintf(p.out, "%s: ", label)
	b, err := term.ReadPassword(int(f.Fd()))
	fmt.Fprintln(p.out)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
