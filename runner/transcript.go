package runner

import "strings"

// transcriptSink records one command's output. Each stream is prefixed once
// with "$ <line>" before its first chunk, and chunks are optionally echoed to
// a live console.
type transcriptSink struct {
	command string
	stdout  strings.Builder
	stderr  strings.Builder
	live    *BlockConsole
}

func newTranscriptSink(command string) *transcriptSink {
	return &transcriptSink{command: command}
}

func (t *transcriptSink) OnStdout(chunk string) {
	first := appendChunk(&t.stdout, t.command, chunk)
	if t.live != nil && chunk != "" {
		t.live.Stdout(t.command, chunk, first)
	}
}

func (t *transcriptSink) OnStderr(chunk string) {
	first := appendChunk(&t.stderr, t.command, chunk)
	if t.live != nil && chunk != "" {
		t.live.Stderr(t.command, chunk, first)
	}
}

// appendChunk adds chunk to b and reports whether it was the first one.
func appendChunk(b *strings.Builder, command, chunk string) bool {
	if chunk == "" {
		return false
	}
	first := b.Len() == 0
	if first {
		b.WriteString("$ ")
		b.WriteString(command)
		b.WriteByte('\n')
	}
	b.WriteString(chunk)
	b.WriteByte('\n')
	return first
}
