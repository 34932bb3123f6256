package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

var (
	readPasswordFunc = term.ReadPassword // mockable
	isTerminalFunc   = term.IsTerminal   // mockable
)

// Prompter asks for values on the terminal.
type Prompter struct {
	in  *NonBlockingReader
	out io.Writer
	fd  int
}

// NewPrompter reads from stdin and writes prompts to out.
func NewPrompter(out io.Writer) *Prompter {
	return NewPrompterFrom(os.Stdin, int(os.Stdin.Fd()), out)
}

// NewPrompterFrom reads lines from in; fd is used for hidden input.
func NewPrompterFrom(in io.Reader, fd int, out io.Writer) *Prompter {
	if out == nil {
		out = os.Stderr
	}
	return &Prompter{in: NewNonBlockingReader(in), out: out, fd: fd}
}

// Ask prompts for a value, returning def when the answer is empty.
func (p *Prompter) Ask(ctx context.Context, label, def string) (string, error) {
	prompt := label
	if def != "" {
		prompt = fmt.Sprintf("%s [%s]", label, def)
	}
	_, _ = fmt.Fprint(p.out, FormatPrompt(prompt))

	answer, err := p.in.ReadLine(ctx)
	if err != nil {
		return "", err
	}
	if answer == "" {
		return def, nil
	}
	return answer, nil
}

// Password prompts without echo when stdin is a terminal and falls back to
// a plain line otherwise.
func (p *Prompter) Password(ctx context.Context, label string) (string, error) {
	_, _ = fmt.Fprint(p.out, FormatPrompt(label))

	if !isTerminalFunc(p.fd) {
		return p.in.ReadLine(ctx)
	}

	pwd, err := readPasswordFunc(p.fd)
	_, _ = fmt.Fprintln(p.out)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return strings.TrimRight(string(pwd), "\r\n"), nil
}
