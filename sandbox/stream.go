package sandbox

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
)

// Stream identifies which output stream of a child process a line came from.
type Stream int

const (
	// Stdout is the child's standard output.
	Stdout Stream = iota
	// Stderr is the child's standard error.
	Stderr
)

func (s Stream) String() string {
	if s == Stderr {
		return "stderr"
	}
	return "stdout"
}

// chunkBuffer bounds how far a reader can run ahead of the consumer.
const chunkBuffer = 64

// OutputSink receives a command's output one line at a time.
// Calls are serialized: a sink is never invoked from two goroutines at once.
type OutputSink interface {
	OnStdout(line string)
	OnStderr(line string)
}

// CommandStatus describes how a command finished.
type CommandStatus struct {
	ExitCode *int // nil when the process was terminated by a signal
	Success  bool
	Duration time.Duration
}

type chunk struct {
	stream Stream
	line   string
}

// Spawn starts cmd, streams its stdout and stderr line by line into sink and
// waits for it to exit.
//
// Each stream is drained by its own goroutine; both feed one channel that is
// consumed on the calling goroutine, so the sink sees lines in arrival order
// and a busy stream never stalls the other. The order between the two streams
// is best effort and may differ between runs.
//
// A non-zero exit is reported through CommandStatus, not as an error. Errors
// are returned when the process cannot be started (wrapping ErrSpawn) or when
// reading its output fails.
func Spawn(cmd *exec.Cmd, sink OutputSink) (CommandStatus, error) {
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return CommandStatus{}, fmt.Errorf("failed to create stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return CommandStatus{}, fmt.Errorf("failed to create stderr pipe: %w", err)
	}

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return CommandStatus{}, fmt.Errorf("%w: %w", ErrSpawn, err)
	}

	chunks := make(chan chunk, chunkBuffer)
	readErrs := make(chan error, 2)

	var wg sync.WaitGroup
	for stream, reader := range map[Stream]io.Reader{Stdout: stdout, Stderr: stderr} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := readLines(stream, reader, chunks); err != nil {
				readErrs <- err
			}
		}()
	}
	go func() {
		wg.Wait()
		close(chunks)
		close(readErrs)
	}()

	for c := range chunks {
		switch c.stream {
		case Stdout:
			sink.OnStdout(c.line)
		case Stderr:
			sink.OnStderr(c.line)
		}
	}

	var result *multierror.Error
	for err := range readErrs {
		result = multierror.Append(result, err)
	}

	// Both pipes are drained at this point, so Wait cannot race the readers.
	waitErr := cmd.Wait()
	status := CommandStatus{Duration: time.Since(start)}
	if state := cmd.ProcessState; state != nil {
		status.Success = state.Success()
		if code := state.ExitCode(); code >= 0 {
			status.ExitCode = &code
		}
	}

	var exitErr *exec.ExitError
	if waitErr != nil && !errors.As(waitErr, &exitErr) {
		result = multierror.Append(result, waitErr)
	}

	if err := result.ErrorOrNil(); err != nil {
		return status, err
	}
	return status, nil
}

// readLines forwards every non-empty line of r to out. A line ends at '\n';
// trailing '\r' and '\n' are stripped and invalid UTF-8 is replaced.
func readLines(stream Stream, r io.Reader, out chan<- chunk) error {
	reader := bufio.NewReader(r)
	for {
		line, err := reader.ReadString('\n')
		if trimmed := strings.TrimRight(line, "\r\n"); trimmed != "" {
			out <- chunk{stream: stream, line: strings.ToValidUTF8(trimmed, "\uFFFD")}
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", stream, err)
		}
	}
}
