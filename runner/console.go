package runner

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// Console writes live command output. Headers are cyan and stderr is red when
// the destination is a terminal.
type Console struct {
	mu     sync.Mutex
	stdout io.Writer
	stderr io.Writer
	header *color.Color
	errOut *color.Color
}

// NewConsole creates a Console writing to stdout and stderr.
func NewConsole(stdout, stderr io.Writer) *Console {
	header := color.New(color.FgCyan)
	errOut := color.New(color.FgRed)
	if isTerminal(stdout) && isTerminal(stderr) {
		header.EnableColor()
		errOut.EnableColor()
	} else {
		header.DisableColor()
		errOut.DisableColor()
	}

	return &Console{
		stdout: stdout,
		stderr: stderr,
		header: header,
		errOut: errOut,
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Block returns a console scoped to one block, labelled with label.
func (c *Console) Block(label string) *BlockConsole {
	return &BlockConsole{console: c, label: label}
}

// BlockConsole streams the output of one block's commands.
type BlockConsole struct {
	console *Console
	label   string
}

// Stdout prints a stdout chunk, preceded by the command header when first is set.
func (b *BlockConsole) Stdout(command, chunk string, first bool) {
	c := b.console
	c.mu.Lock()
	defer c.mu.Unlock()

	if first {
		fmt.Fprintf(c.stdout, "%s $ %s\n", c.header.Sprintf("[%s]", b.label), command)
	}
	fmt.Fprintln(c.stdout, chunk)
}

// Stderr prints a stderr chunk, preceded by the command header when first is set.
func (b *BlockConsole) Stderr(command, chunk string, first bool) {
	c := b.console
	c.mu.Lock()
	defer c.mu.Unlock()

	if first {
		fmt.Fprintf(c.stderr, "%s $ %s (stderr)\n", c.errOut.Sprintf("[%s]", b.label), command)
	}
	fmt.Fprintln(c.stderr, c.errOut.Sprint(chunk))
}
