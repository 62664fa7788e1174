package shell

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// ErrCommandTimedOut reports a command stopped by the per-command timeout.
var ErrCommandTimedOut = errors.New("command timed out")

const errorTimedOutFormat = "%s: %w after %s"

// Dispatch is an external command released by a Session. Directory is the session working
// directory at submission time.
type Dispatch struct {
	ID          string
	CommandLine string
	Program     string
	Arguments   []string
	Directory   string
}

// Completion is the outcome of running a Dispatch.
type Completion struct {
	ID          string
	CommandLine string
	// Output is the combined standard output and standard error.
	Output string
	Err    error
	// Started is false when the process could not be spawned at all.
	Started  bool
	Duration time.Duration
}

// Run executes the dispatch with runner and reports the outcome. It blocks until the
// process exits and never touches the session.
func (dispatch *Dispatch) Run(ctx context.Context, runner Runner) Completion {
	startedAt := time.Now()
	output, runError := runner.Run(ctx, dispatch)
	completion := Completion{
		ID:          dispatch.ID,
		CommandLine: dispatch.CommandLine,
		Output:      string(output),
		Duration:    time.Since(startedAt),
	}
	if runError == nil {
		completion.Started = true
		return completion
	}

	var exitError *exec.ExitError
	completion.Started = errors.As(runError, &exitError)
	completion.Err = runError
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		completion.Err = fmt.Errorf(errorTimedOutFormat, dispatch.Program, ErrCommandTimedOut, completion.Duration.Round(time.Millisecond))
	}
	return completion
}

// TranscriptLine renders the completion as the one transcript line it contributes. A
// timed out command keeps what it printed before the error.
func (completion Completion) TranscriptLine() string {
	output := strings.TrimRight(completion.Output, "\r\n")
	switch {
	case completion.Err == nil:
		return output
	case errors.Is(completion.Err, ErrCommandTimedOut):
		if output == "" {
			return ErrorLine(completion.Err.Error())
		}
		return output + "\n" + ErrorLine(completion.Err.Error())
	case !completion.Started:
		return ErrorLine(completion.Err.Error())
	case output == "":
		return ErrorLine(completion.Err.Error())
	default:
		return output
	}
}
