package shell_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/tyemirov/gravity/internal/shell"
)

type runnerFunc func(ctx context.Context, dispatch *shell.Dispatch) ([]byte, error)

func (function runnerFunc) Run(ctx context.Context, dispatch *shell.Dispatch) ([]byte, error) {
	return function(ctx, dispatch)
}

func exitError(t *testing.T) error {
	t.Helper()
	requireProgram(t, "false")
	err := exec.Command("false").Run()
	var exit *exec.ExitError
	if !errors.As(err, &exit) {
		t.Fatalf("expected *exec.ExitError from false, got %v", err)
	}
	return err
}

func TestTranscriptLine(t *testing.T) {
	timedOut := fmt.Errorf("sleep: %w after 1s", shell.ErrCommandTimedOut)
	testCases := []struct {
		name       string
		completion shell.Completion
		expected   string
	}{
		{
			name:       "trailing_newline_trimmed",
			completion: shell.Completion{Started: true, Output: "a\nb\n"},
			expected:   "a\nb",
		},
		{
			name:       "empty_success",
			completion: shell.Completion{Started: true},
			expected:   "",
		},
		{
			name:       "spawn_failure",
			completion: shell.Completion{Err: errors.New("executable file not found")},
			expected:   "error: executable file not found",
		},
		{
			name:       "timeout_without_output",
			completion: shell.Completion{Started: true, Err: timedOut},
			expected:   "error: sleep: command timed out after 1s",
		},
		{
			name:       "timeout_keeps_partial_output",
			completion: shell.Completion{Started: true, Output: "partial\n", Err: timedOut},
			expected:   "partial\nerror: sleep: command timed out after 1s",
		},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			if line := testCase.completion.TranscriptLine(); line != testCase.expected {
				t.Fatalf("expected %q, got %q", testCase.expected, line)
			}
		})
	}
}

func TestTranscriptLineForFailedExit(t *testing.T) {
	failure := exitError(t)

	withOutput := shell.Completion{Started: true, Output: "usage: tool\n", Err: failure}
	if line := withOutput.TranscriptLine(); line != "usage: tool" {
		t.Fatalf("expected output to stand for the failure, got %q", line)
	}

	withoutOutput := shell.Completion{Started: true, Err: failure}
	if line := withoutOutput.TranscriptLine(); line != "error: exit status 1" {
		t.Fatalf("expected exit status line, got %q", line)
	}
}

func TestRunMarksExitErrorAsStarted(t *testing.T) {
	failure := exitError(t)
	dispatch := &shell.Dispatch{ID: "id", Program: "tool"}

	completion := dispatch.Run(context.Background(), runnerFunc(func(context.Context, *shell.Dispatch) ([]byte, error) {
		return []byte("boom\n"), failure
	}))

	if !completion.Started || completion.ID != "id" {
		t.Fatalf("unexpected completion %+v", completion)
	}
	if line := completion.TranscriptLine(); line != "boom" {
		t.Fatalf("expected boom, got %q", line)
	}
}

func TestExecutorTimeout(t *testing.T) {
	blocking := runnerFunc(func(ctx context.Context, _ *shell.Dispatch) ([]byte, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})
	executor := shell.NewExecutorWithRunner(blocking, 0, 20*time.Millisecond)

	completion := executor.Execute(context.Background(), &shell.Dispatch{Program: "sleep"})

	if !errors.Is(completion.Err, shell.ErrCommandTimedOut) {
		t.Fatalf("expected ErrCommandTimedOut, got %v", completion.Err)
	}
	if line := completion.TranscriptLine(); !strings.HasPrefix(line, "error: sleep: command timed out") {
		t.Fatalf("unexpected timeout line %q", line)
	}
}

// writeSlowScript writes a shell script that prints, then waits in a foreground child.
func writeSlowScript(t *testing.T) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts are unavailable on windows")
	}
	requireProgram(t, "sh")
	requireProgram(t, "sleep")
	scriptPath := filepath.Join(t.TempDir(), "slow.sh")
	if err := os.WriteFile(scriptPath, []byte("echo begin\nsleep 6\necho end\n"), 0o600); err != nil {
		t.Fatalf("write script: %v", err)
	}
	return scriptPath
}

func TestExecutorTimeoutStopsChildProcesses(t *testing.T) {
	testCases := []struct {
		name   string
		runner shell.Runner
	}{
		{name: "pipes", runner: shell.ExecRunner{}},
		{name: "terminal", runner: shell.PTYRunner{}},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			scriptPath := writeSlowScript(t)
			executor := shell.NewExecutorWithRunner(testCase.runner, 1, 300*time.Millisecond)
			dispatch := &shell.Dispatch{Program: "sh", Arguments: []string{scriptPath}, Directory: filepath.Dir(scriptPath)}

			startedAt := time.Now()
			completion := executor.Execute(context.Background(), dispatch)
			elapsed := time.Since(startedAt)

			if !completion.Started && !errors.Is(completion.Err, shell.ErrCommandTimedOut) {
				t.Skipf("runner unavailable: %v", completion.Err)
			}
			if elapsed > 3*time.Second {
				t.Fatalf("timeout of 300ms took %s", elapsed)
			}
			if !errors.Is(completion.Err, shell.ErrCommandTimedOut) {
				t.Fatalf("expected ErrCommandTimedOut, got %v", completion.Err)
			}
			line := completion.TranscriptLine()
			if !strings.HasPrefix(line, "begin\n") || !strings.Contains(line, "error: sh: command timed out") {
				t.Fatalf("expected partial output and timeout error, got %q", line)
			}
			if strings.Contains(line, "end") {
				t.Fatalf("script ran to completion: %q", line)
			}

			// the limiter slot is free again
			quick := executor.Execute(context.Background(), &shell.Dispatch{Program: "sh", Arguments: []string{"-c", "echo again"}})
			if quick.Err != nil || quick.TranscriptLine() != "again" {
				t.Fatalf("expected follow-up command to run, got %+v", quick)
			}
		})
	}
}

func TestExecRunnerDoesNotWaitForBackgroundChildren(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts are unavailable on windows")
	}
	requireProgram(t, "sh")
	requireProgram(t, "sleep")
	dispatch := &shell.Dispatch{Program: "sh", Arguments: []string{"-c", "sleep 6 & echo started"}}

	startedAt := time.Now()
	completion := dispatch.Run(context.Background(), shell.ExecRunner{})
	elapsed := time.Since(startedAt)

	if elapsed > 3*time.Second {
		t.Fatalf("background child held the command for %s", elapsed)
	}
	if completion.Err != nil || completion.TranscriptLine() != "started" {
		t.Fatalf("unexpected completion %+v", completion)
	}
}

func TestExecutorWithoutTimeoutPassesContextThrough(t *testing.T) {
	var sawDeadline bool
	executor := shell.NewExecutorWithRunner(runnerFunc(func(ctx context.Context, _ *shell.Dispatch) ([]byte, error) {
		_, sawDeadline = ctx.Deadline()
		return []byte("ok\n"), nil
	}), 0, 0)

	completion := executor.Execute(context.Background(), &shell.Dispatch{Program: "ok"})

	if sawDeadline {
		t.Fatalf("expected no deadline without a timeout")
	}
	if completion.Err != nil || completion.TranscriptLine() != "ok" {
		t.Fatalf("unexpected completion %+v", completion)
	}
}

func TestLimitedRunnerCapsConcurrency(t *testing.T) {
	var running, peak int32
	tracking := runnerFunc(func(context.Context, *shell.Dispatch) ([]byte, error) {
		current := atomic.AddInt32(&running, 1)
		for {
			observed := atomic.LoadInt32(&peak)
			if current <= observed || atomic.CompareAndSwapInt32(&peak, observed, current) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		atomic.AddInt32(&running, -1)
		return nil, nil
	})
	limited := shell.NewLimitedRunner(tracking, 2)

	var waitGroup sync.WaitGroup
	failures := make(chan error, 8)
	for index := 0; index < 8; index++ {
		waitGroup.Add(1)
		go func() {
			defer waitGroup.Done()
			if _, err := limited.Run(context.Background(), &shell.Dispatch{}); err != nil {
				failures <- err
			}
		}()
	}
	waitGroup.Wait()
	close(failures)

	for err := range failures {
		t.Fatalf("limited run failed: %v", err)
	}
	if observed := atomic.LoadInt32(&peak); observed < 1 || observed > 2 {
		t.Fatalf("expected at most two concurrent runs, observed %d", observed)
	}
}

func TestLimitedRunnerWithoutLimitReturnsRunner(t *testing.T) {
	base := shell.ExecRunner{}
	if runner := shell.NewLimitedRunner(base, 0); runner != shell.Runner(base) {
		t.Fatalf("expected the base runner, got %T", runner)
	}
}

func TestPTYRunnerCapturesOutput(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("pseudo-terminals are unavailable on windows")
	}
	requireProgram(t, "echo")
	session := newSession(t, shell.Options{})
	dispatch := session.Submit("echo from terminal")

	completion := dispatch.Run(context.Background(), shell.PTYRunner{})
	if !completion.Started {
		t.Skipf("pseudo-terminal unavailable: %v", completion.Err)
	}
	if completion.Err != nil {
		t.Fatalf("unexpected error: %v", completion.Err)
	}
	if line := completion.TranscriptLine(); line != "from terminal" {
		t.Fatalf("expected %q, got %q", "from terminal", line)
	}
}
