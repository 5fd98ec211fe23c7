package runner

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/isdmx/runme/markdown"
	"github.com/isdmx/runme/sandbox"
)

// fakeResult scripts the outcome of one command.
type fakeResult struct {
	stdout   []string
	stderr   []string
	exitCode int
	err      error
}

// fakeBackend replays scripted results keyed by the command's first word.
type fakeBackend struct {
	results map[string]fakeResult
	calls   [][]string
}

func (*fakeBackend) Label() string {
	return "fake"
}

func (f *fakeBackend) Run(_ context.Context, argv []string, sink sandbox.OutputSink) (sandbox.CommandStatus, error) {
	f.calls = append(f.calls, argv)

	result := f.results[argv[0]]
	if result.err != nil {
		return sandbox.CommandStatus{}, result.err
	}
	for _, line := range result.stdout {
		sink.OnStdout(line)
	}
	for _, line := range result.stderr {
		sink.OnStderr(line)
	}

	code := result.exitCode
	return sandbox.CommandStatus{
		ExitCode: &code,
		Success:  code == 0,
		Duration: 10 * time.Millisecond,
	}, nil
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{results: map[string]fakeResult{
		"false": {exitCode: 1},
		"echo":  {stdout: []string{"hello"}},
		"warn":  {stderr: []string{"careful"}},
	}}
}

func shellBlock(content string) markdown.CodeBlock {
	return markdown.CodeBlock{
		ID:       "block-001",
		Language: "bash",
		Headings: []string{"Tests"},
		Content:  content,
	}
}

func newEngine(t *testing.T, backend sandbox.Backend) (*Engine, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	return New(zaptest.NewLogger(t), backend, WithConsole(NewConsole(&stdout, &stderr))), &stdout, &stderr
}

func TestExecuteUntaggedBlock(t *testing.T) {
	backend := newFakeBackend()
	engine, _, _ := newEngine(t, backend)

	block := shellBlock("make test")
	block.Language = ""

	report, err := engine.Execute(context.Background(), block, false)
	require.NoError(t, err)

	assert.Equal(t, Passed(), report.Status)
	assert.Equal(t, [][]string{{"make", "test"}}, backend.calls)
	assert.Equal(t, "fake", report.Sandbox)
	assert.Empty(t, report.Language)
}

func TestExecuteFailFast(t *testing.T) {
	backend := newFakeBackend()
	engine, _, _ := newEngine(t, backend)

	report, err := engine.Execute(context.Background(), shellBlock("false\necho never"), false)
	require.NoError(t, err)

	assert.Equal(t, StatusFailed, report.Status.Kind)
	require.NotNil(t, report.Status.ExitCode)
	assert.Equal(t, 1, *report.Status.ExitCode)
	assert.Equal(t, [][]string{{"false"}}, backend.calls)
	assert.Empty(t, report.Stdout)
	assert.Empty(t, report.Stderr)
	assert.Equal(t, 10*time.Millisecond, report.Duration)
}

func TestExecuteFailureKeepsEarlierTranscript(t *testing.T) {
	backend := newFakeBackend()
	engine, _, _ := newEngine(t, backend)

	report, err := engine.Execute(context.Background(), shellBlock("echo hello\nfalse\necho again"), false)
	require.NoError(t, err)

	assert.Equal(t, StatusFailed, report.Status.Kind)
	assert.Equal(t, "$ echo hello\nhello\n", report.Stdout)
	assert.Len(t, backend.calls, 2)
}

func TestExecuteSkipPrecedence(t *testing.T) {
	tests := []struct {
		name   string
		block  markdown.CodeBlock
		reason string
	}{
		{
			name: "DirectiveBeatsLanguage",
			block: markdown.CodeBlock{
				ID: "block-001", Language: "python", Content: "", SkipReason: markdown.DefaultSkipReason,
			},
			reason: markdown.DefaultSkipReason,
		},
		{
			name:   "LanguageBeatsEmpty",
			block:  markdown.CodeBlock{ID: "block-001", Language: "python"},
			reason: "Language 'python' unsupported yet; add a plugin",
		},
		{
			name:   "EmptyBeatsCommentsOnly",
			block:  markdown.CodeBlock{ID: "block-001", Language: "sh", Content: "  \n "},
			reason: ReasonEmpty,
		},
		{
			name:   "CommentsOnly",
			block:  markdown.CodeBlock{ID: "block-001", Content: "# setup\n\n   # more"},
			reason: ReasonCommentsOnly,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := newFakeBackend()
			engine, _, _ := newEngine(t, backend)

			report, err := engine.Execute(context.Background(), tt.block, true)
			require.NoError(t, err)

			assert.Equal(t, Skipped(), report.Status)
			assert.Equal(t, tt.reason, report.SkipReason)
			assert.Empty(t, report.Sandbox)
			assert.Empty(t, report.Stdout)
			assert.Empty(t, report.Stderr)
			assert.Empty(t, backend.calls)
		})
	}
}

func TestExecuteTranscripts(t *testing.T) {
	backend := newFakeBackend()
	engine, _, _ := newEngine(t, backend)

	content := "# greet twice\necho hello\n\necho 'hello again'\nwarn now"
	report, err := engine.Execute(context.Background(), shellBlock(content), false)
	require.NoError(t, err)

	assert.Equal(t, Passed(), report.Status)
	assert.Equal(t, "$ echo hello\nhello\n\n$ echo 'hello again'\nhello\n", report.Stdout)
	assert.Equal(t, "$ warn now\ncareful\n", report.Stderr)
	assert.Equal(t, []string{"echo", "hello again"}, backend.calls[1])
	assert.Equal(t, 30*time.Millisecond, report.Duration)

	// One "$ " segment per command that wrote to stdout.
	segments := strings.Split(report.Stdout, "$ ")[1:]
	assert.Len(t, segments, 2)
}

func TestExecuteParseError(t *testing.T) {
	backend := newFakeBackend()
	engine, _, _ := newEngine(t, backend)

	_, err := engine.Execute(context.Background(), shellBlock("echo ok\n\necho 'unbalanced"), false)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCommandParse)

	var lineErr *LineError
	require.ErrorAs(t, err, &lineErr)
	assert.Equal(t, "block-001", lineErr.BlockID)
	assert.Equal(t, 3, lineErr.Line)
	assert.Contains(t, err.Error(), "while executing block-001 line 3")
}

func TestExecuteTrailingComment(t *testing.T) {
	backend := newFakeBackend()
	engine, _, _ := newEngine(t, backend)

	content := "make test  # run the suite\necho hi #\necho \"#x\" '#y' a#b \\#c"
	report, err := engine.Execute(context.Background(), shellBlock(content), false)
	require.NoError(t, err)

	assert.Equal(t, Passed(), report.Status)
	assert.Equal(t, [][]string{
		{"make", "test"},
		{"echo", "hi"},
		{"echo", "#x", "#y", "a#b", "#c"},
	}, backend.calls)
	assert.True(t, strings.HasPrefix(report.Stdout, "$ echo hi #\nhello\n"))
}

func TestStripComment(t *testing.T) {
	tests := []struct {
		line     string
		expected string
	}{
		{"echo hi # note", "echo hi "},
		{"# only", ""},
		{"echo a#b", "echo a#b"},
		{"echo '# kept' # dropped", "echo '# kept' "},
		{`echo "say \"#\"" # dropped`, `echo "say \"#\"" `},
		{`echo \# kept`, `echo \# kept`},
		{"echo 'open # quote", "echo 'open # quote"},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			assert.Equal(t, tt.expected, stripComment(tt.line))
		})
	}
}

func TestExecuteSpawnError(t *testing.T) {
	backend := newFakeBackend()
	backend.results["missing"] = fakeResult{err: sandbox.ErrSpawn}
	engine, _, _ := newEngine(t, backend)

	_, err := engine.Execute(context.Background(), shellBlock("missing binary"), false)
	require.Error(t, err)
	assert.ErrorIs(t, err, sandbox.ErrSpawn)
	assert.Contains(t, err.Error(), "while executing block-001 line 1")
}

func TestExecuteStreamsLive(t *testing.T) {
	backend := newFakeBackend()
	engine, stdout, stderr := newEngine(t, backend)

	block := shellBlock("echo hello\nwarn now")
	block.Name = "greet"

	_, err := engine.Execute(context.Background(), block, true)
	require.NoError(t, err)

	assert.Equal(t, "[block-001 (greet)] $ echo hello\nhello\n", stdout.String())
	assert.Equal(t, "[block-001 (greet)] $ warn now (stderr)\ncareful\n", stderr.String())
}

func TestExecuteQuietWhenNotStreaming(t *testing.T) {
	backend := newFakeBackend()
	engine, stdout, stderr := newEngine(t, backend)

	_, err := engine.Execute(context.Background(), shellBlock("echo hello"), false)
	require.NoError(t, err)

	assert.Empty(t, stdout.String())
	assert.Empty(t, stderr.String())
}

func TestRunReturnsPartialReports(t *testing.T) {
	backend := newFakeBackend()
	engine, _, _ := newEngine(t, backend)

	blocks := []markdown.CodeBlock{
		{ID: "block-001", Content: "echo hello"},
		{ID: "block-002", Content: "false"},
		{ID: "block-003", Content: "echo 'broken"},
		{ID: "block-004", Content: "echo unreachable"},
	}

	reports, err := engine.Run(context.Background(), blocks, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "while running block-003")
	assert.ErrorIs(t, err, ErrCommandParse)

	require.Len(t, reports, 2)
	assert.Equal(t, Passed(), reports[0].Status)
	assert.Equal(t, StatusFailed, reports[1].Status.Kind)
	assert.Len(t, backend.calls, 2)
}

func TestRunDuplicateNames(t *testing.T) {
	source := []byte("```sh runme:name=build\necho one\n```\n\n```sh runme:name=build\necho two\n```\n")
	blocks, err := markdown.Extract(source)
	require.NoError(t, err)
	require.Len(t, blocks, 2)

	engine, _, _ := newEngine(t, newFakeBackend())
	reports, err := engine.Run(context.Background(), blocks, false)
	require.NoError(t, err)

	require.Len(t, reports, 2)
	assert.Equal(t, "build", reports[0].Name)
	assert.Equal(t, "build", reports[1].Name)
	assert.NotEqual(t, reports[0].ID, reports[1].ID)
}

func TestRunOnLocalBackend(t *testing.T) {
	backend := sandbox.NewLocalBackend(zaptest.NewLogger(t), t.TempDir())
	engine, _, _ := newEngine(t, backend)

	report, err := engine.Execute(context.Background(), shellBlock("echo runner-ok\nfalse\necho never"), false)
	require.NoError(t, err)

	assert.Equal(t, StatusFailed, report.Status.Kind)
	require.NotNil(t, report.Status.ExitCode)
	assert.Equal(t, 1, *report.Status.ExitCode)
	assert.Equal(t, "$ echo runner-ok\nrunner-ok\n", report.Stdout)
	assert.Equal(t, sandbox.LabelLocal, report.Sandbox)

	report, err = engine.Execute(context.Background(), shellBlock("echo hi # say hello"), false)
	require.NoError(t, err)
	assert.Equal(t, "$ echo hi # say hello\nhi\n", report.Stdout)
}

func TestReportJSON(t *testing.T) {
	t.Run("Skipped", func(t *testing.T) {
		report := BlockReport{
			ID:         "block-001",
			Headings:   nil,
			Status:     Skipped(),
			SkipReason: markdown.DefaultSkipReason,
		}

		data, err := json.Marshal(report)
		require.NoError(t, err)
		assert.JSONEq(t, `{
			"id": "block-001",
			"name": null,
			"headings": [],
			"language": null,
			"sandbox": null,
			"duration_ms": 0,
			"status": "skipped",
			"skip_reason": "Marked with runme:ignore",
			"stdout": null,
			"stderr": null
		}`, string(data))
	})

	t.Run("Failed", func(t *testing.T) {
		code := 2
		report := BlockReport{
			ID:       "block-002",
			Name:     "build",
			Headings: []string{"Guide", "Build"},
			Language: "bash",
			Sandbox:  "local",
			Duration: 1500 * time.Millisecond,
			Status:   Failed(&code),
			Stderr:   "$ make\nboom\n",
		}

		data, err := json.Marshal(report)
		require.NoError(t, err)
		assert.JSONEq(t, `{
			"id": "block-002",
			"name": "build",
			"headings": ["Guide", "Build"],
			"language": "bash",
			"sandbox": "local",
			"duration_ms": 1500,
			"status": {"status": "failed", "exit_code": 2},
			"skip_reason": null,
			"stdout": null,
			"stderr": "$ make\nboom\n"
		}`, string(data))
	})

	t.Run("FailedBySignal", func(t *testing.T) {
		data, err := json.Marshal(Failed(nil))
		require.NoError(t, err)
		assert.JSONEq(t, `{"status": "failed", "exit_code": null}`, string(data))
	})
}

func TestBlockStatusString(t *testing.T) {
	code := 3
	assert.Equal(t, "passed", Passed().String())
	assert.Equal(t, "skipped", Skipped().String())
	assert.Equal(t, "failed (exit code 3)", Failed(&code).String())
	assert.Equal(t, "failed (terminated by signal)", Failed(nil).String())
}

func TestReportDisplayIDMatchesBlock(t *testing.T) {
	engine, _, _ := newEngine(t, newFakeBackend())

	for _, name := range []string{"", "setup"} {
		block := shellBlock("echo hi")
		block.Name = name

		report, err := engine.Execute(context.Background(), block, false)
		require.NoError(t, err)
		assert.Equal(t, block.DisplayID(), report.DisplayID())
	}
	assert.Equal(t, "block-001 (setup)", markdown.DisplayID("block-001", "setup"))
	assert.Equal(t, "block-001", markdown.DisplayID("block-001", ""))
}
