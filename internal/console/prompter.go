package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

// ErrCancelled is returned by prompts interrupted through the context
var ErrCancelled = errors.New("operation cancelled")

var (
	okColor   = color.New(color.FgGreen, color.Bold)
	failColor = color.New(color.FgRed, color.Bold)
	warnColor = color.New(color.FgYellow)
)

// Prompter is the operator's console. Input lines are read by a background
// goroutine so a pending prompt can be abandoned when the context is cancelled.
type Prompter struct {
	out   io.Writer
	lines chan string
}

// NewPrompter starts reading lines from in. Output goes to out.
func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	p := &Prompter{
		out:   out,
		lines: make(chan string),
	}
	go p.readLines(in)
	return p
}

func (p *Prompter) readLines(in io.Reader) {
	defer close(p.lines)

	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		p.lines <- scanner.Text()
	}
}

// Ask prints prompt and returns the trimmed answer.
// Once input is exhausted every answer is empty.
func (p *Prompter) Ask(ctx context.Context, prompt string) (string, error) {
	fmt.Fprint(p.out, prompt)

	select {
	case <-ctx.Done():
		return "", ErrCancelled
	case line, ok := <-p.lines:
		if !ok {
			fmt.Fprintln(p.out)
			return "", nil
		}
		return strings.TrimSpace(line), nil
	}
}

// Confirm asks a Y/N question. Only "Y" (any case) is a yes.
func (p *Prompter) Confirm(ctx context.Context, prompt string) (bool, error) {
	answer, err := p.Ask(ctx, prompt)
	if err != nil {
		return false, err
	}
	return strings.EqualFold(answer, "Y"), nil
}

// WaitForEnter blocks until the operator presses Enter
func (p *Prompter) WaitForEnter(ctx context.Context, prompt string) error {
	_, err := p.Ask(ctx, prompt)
	return err
}

// Println writes a line to the operator
func (p *Prompter) Println(a ...any) {
	fmt.Fprintln(p.out, a...)
}

// Printf writes formatted text to the operator
func (p *Prompter) Printf(format string, a ...any) {
	fmt.Fprintf(p.out, format, a...)
}

// Success prints a status line marked ✓, in green when the terminal supports color
func (p *Prompter) Success(format string, a ...any) {
	okColor.Fprintf(p.out, "✓ "+format+"\n", a...)
}

// Failure prints a status line marked ×, in red when the terminal supports color
func (p *Prompter) Failure(format string, a ...any) {
	failColor.Fprintf(p.out, "× "+format+"\n", a...)
}

// Warning prints a status line marked !, in yellow when the terminal supports color
func (p *Prompter) Warning(format string, a ...any) {
	warnColor.Fprintf(p.out, "! "+format+"\n", a...)
}
