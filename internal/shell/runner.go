package shell

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"time"

	"golang.org/x/sync/semaphore"
)

// Runner runs one dispatch to completion and returns its combined output. A returned
// *exec.ExitError means the process started and exited unsuccessfully; any other error
// means it never ran.
type Runner interface {
	Run(ctx context.Context, dispatch *Dispatch) ([]byte, error)
}

// outputDrainDelay bounds how long a finished or cancelled command may keep its output
// open through processes it left behind.
const outputDrainDelay = 250 * time.Millisecond

// ExecRunner runs commands through os/exec with standard output and standard error
// captured together.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, dispatch *Dispatch) ([]byte, error) {
	command := newCommand(ctx, dispatch)
	startProcessGroup(command)

	var output bytes.Buffer
	command.Stdout = &output
	command.Stderr = &output
	runError := command.Run()
	if errors.Is(runError, exec.ErrWaitDelay) {
		// the command succeeded; a process it left running held the output open
		runError = nil
	}
	return output.Bytes(), runError
}

// newCommand prepares dispatch so that cancelling ctx kills its whole process group.
func newCommand(ctx context.Context, dispatch *Dispatch) *exec.Cmd {
	command := exec.CommandContext(ctx, dispatch.Program, dispatch.Arguments...)
	command.Dir = dispatch.Directory
	command.Cancel = func() error { return killProcessGroup(command) }
	command.WaitDelay = outputDrainDelay
	return command
}

// LimitedRunner bounds the number of processes its Runner has running at once.
type LimitedRunner struct {
	runner Runner
	slots  *semaphore.Weighted
}

// NewLimitedRunner wraps runner with a limit of maxConcurrent processes. A limit of zero
// or less returns runner unchanged.
func NewLimitedRunner(runner Runner, maxConcurrent int) Runner {
	if maxConcurrent <= 0 {
		return runner
	}
	return &LimitedRunner{runner: runner, slots: semaphore.NewWeighted(int64(maxConcurrent))}
}

func (limited *LimitedRunner) Run(ctx context.Context, dispatch *Dispatch) ([]byte, error) {
	if acquireError := limited.slots.Acquire(ctx, 1); acquireError != nil {
		return nil, acquireError
	}
	defer limited.slots.Release(1)
	return limited.runner.Run(ctx, dispatch)
}

// ExecutorOptions select how an Executor runs commands.
type ExecutorOptions struct {
	UsePTY        bool
	MaxConcurrent int
	Timeout       time.Duration
}

// Executor runs dispatches with the configured runner, concurrency limit and timeout.
type Executor struct {
	runner  Runner
	timeout time.Duration
}

func NewExecutor(options ExecutorOptions) *Executor {
	var runner Runner = ExecRunner{}
	if options.UsePTY {
		runner = PTYRunner{}
	}
	return &Executor{
		runner:  NewLimitedRunner(runner, options.MaxConcurrent),
		timeout: options.Timeout,
	}
}

// NewExecutorWithRunner is NewExecutor with a caller-supplied base runner.
func NewExecutorWithRunner(runner Runner, maxConcurrent int, timeout time.Duration) *Executor {
	return &Executor{runner: NewLimitedRunner(runner, maxConcurrent), timeout: timeout}
}

// Execute runs dispatch, applying the per-command timeout when one is configured.
func (executor *Executor) Execute(ctx context.Context, dispatch *Dispatch) Completion {
	if executor.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, executor.timeout)
		defer cancel()
	}
	return dispatch.Run(ctx, executor.runner)
}
