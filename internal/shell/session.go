package shell

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tyemirov/gravity/internal/utils"
)

// ErrNotDirectory reports a cd target that exists but is not a directory.
var ErrNotDirectory = errors.New("not a directory")

const (
	// BuiltinChangeDirectory is the only command handled inside the session.
	BuiltinChangeDirectory = "cd"

	defaultChangeDirectoryTarget = string(filepath.Separator)

	promptLineFormat           = "%s $ %s"
	errorLineFormat            = "error: %s"
	errorChangeDirectoryFormat = "cd: %s: %w"

	logCommandDispatched   = "command dispatched"
	logCommandQueued       = "command queued"
	logCommandCompleted    = "command completed"
	logDirectoryChanged    = "working directory changed"
	logDirectoryRejected   = "cd rejected"
	logFieldID             = "id"
	logFieldProgram        = "program"
	logFieldDirectory      = "directory"
	logFieldQueueLength    = "queued"
	logFieldDuration       = "duration"
	logFieldCompletionLine = "result"
)

// Options configure a Session.
type Options struct {
	// WorkingDirectory seeds the session; empty means the process working directory.
	WorkingDirectory string
	// Serialize releases external commands one at a time.
	Serialize bool
	Logger    *zap.Logger
}

// Session tracks the shell state shown by the workspace: the working directory, the
// append-only transcript and the pending input buffer. It is not safe for concurrent use;
// the interactive program mutates it from its single update loop only.
type Session struct {
	workingDirectory string
	transcript       []string
	pendingInput     string
	serialize        bool
	inFlight         int
	queue            []*Dispatch
	logger           *zap.Logger
}

// NewSession returns a session rooted at the canonical form of options.WorkingDirectory.
func NewSession(options Options) (*Session, error) {
	startDirectory := options.WorkingDirectory
	if strings.TrimSpace(startDirectory) == "" {
		processDirectory, workingDirectoryError := os.Getwd()
		if workingDirectoryError != nil {
			return nil, workingDirectoryError
		}
		startDirectory = processDirectory
	}
	canonicalDirectory, canonicalError := resolveDirectory(startDirectory)
	if canonicalError != nil {
		return nil, canonicalError
	}
	return &Session{
		workingDirectory: canonicalDirectory,
		serialize:        options.Serialize,
		logger:           utils.LoggerOrNop(options.Logger),
	}, nil
}

func (session *Session) WorkingDirectory() string {
	return session.workingDirectory
}

// PromptLabel is the final element of the working directory, shown before each prompt.
func (session *Session) PromptLabel() string {
	return filepath.Base(session.workingDirectory)
}

// Transcript returns a copy of the transcript lines in append order.
func (session *Session) Transcript() []string {
	lines := make([]string, len(session.transcript))
	copy(lines, session.transcript)
	return lines
}

func (session *Session) PendingInput() string {
	return session.pendingInput
}

func (session *Session) SetPendingInput(text string) {
	session.pendingInput = text
}

// InFlight is the number of external commands released and not yet completed.
func (session *Session) InFlight() int {
	return session.inFlight
}

// Queued is the number of external commands waiting behind a serialized command.
func (session *Session) Queued() int {
	return len(session.queue)
}

// SubmitPending submits the pending input buffer.
func (session *Session) SubmitPending() *Dispatch {
	return session.Submit(session.pendingInput)
}

// Submit handles one command line. The input buffer is cleared and, unless the line is
// blank, a prompt line is appended before Submit returns. cd is applied in place. Any
// other command is returned as a Dispatch for the caller to run; nil means there is
// nothing to run now.
func (session *Session) Submit(input string) *Dispatch {
	session.pendingInput = ""
	rawInput := strings.TrimRight(input, "\r\n")
	fields := strings.Fields(rawInput)
	if len(fields) == 0 {
		return nil
	}
	session.appendLine(fmt.Sprintf(promptLineFormat, session.PromptLabel(), rawInput))

	if fields[0] == BuiltinChangeDirectory {
		session.changeDirectory(fields[1:])
		return nil
	}

	dispatch := &Dispatch{
		ID:          uuid.NewString(),
		CommandLine: rawInput,
		Program:     fields[0],
		Arguments:   fields[1:],
		Directory:   session.workingDirectory,
	}
	if session.serialize && session.inFlight > 0 {
		session.queue = append(session.queue, dispatch)
		session.logger.Info(logCommandQueued,
			zap.String(logFieldID, dispatch.ID),
			zap.String(logFieldProgram, dispatch.Program),
			zap.Int(logFieldQueueLength, len(session.queue)))
		return nil
	}
	return session.release(dispatch)
}

// Complete appends the single result line of a finished command. With serialization
// enabled it returns the next queued Dispatch, which the caller must run.
func (session *Session) Complete(completion Completion) *Dispatch {
	line := completion.TranscriptLine()
	session.appendLine(line)
	if session.inFlight > 0 {
		session.inFlight--
	}
	session.logger.Info(logCommandCompleted,
		zap.String(logFieldID, completion.ID),
		zap.Duration(logFieldDuration, completion.Duration),
		zap.String(logFieldCompletionLine, line))

	if !session.serialize || len(session.queue) == 0 {
		return nil
	}
	next := session.queue[0]
	session.queue = session.queue[1:]
	return session.release(next)
}

func (session *Session) release(dispatch *Dispatch) *Dispatch {
	session.inFlight++
	session.logger.Info(logCommandDispatched,
		zap.String(logFieldID, dispatch.ID),
		zap.String(logFieldProgram, dispatch.Program),
		zap.String(logFieldDirectory, dispatch.Directory))
	return dispatch
}

func (session *Session) changeDirectory(arguments []string) {
	target := defaultChangeDirectoryTarget
	if len(arguments) > 0 {
		target = arguments[0]
	}
	candidate := target
	if !filepath.IsAbs(candidate) {
		candidate = filepath.Join(session.workingDirectory, candidate)
	}

	resolvedDirectory, resolveError := resolveDirectory(candidate)
	if resolveError != nil {
		changeError := fmt.Errorf(errorChangeDirectoryFormat, target, resolveError)
		session.appendLine(ErrorLine(changeError.Error()))
		session.logger.Debug(logDirectoryRejected, zap.Error(changeError))
		return
	}
	session.workingDirectory = resolvedDirectory
	session.logger.Info(logDirectoryChanged, zap.String(logFieldDirectory, resolvedDirectory))
}

func (session *Session) appendLine(line string) {
	session.transcript = append(session.transcript, line)
}

// ErrorLine formats message as a transcript error line.
func ErrorLine(message string) string {
	return fmt.Sprintf(errorLineFormat, message)
}

func resolveDirectory(path string) (string, error) {
	canonicalPath, canonicalError := utils.CanonicalPath(path)
	if canonicalError != nil {
		return "", canonicalError
	}
	info, statError := os.Stat(canonicalPath)
	if statError != nil {
		return "", statError
	}
	if !info.IsDir() {
		return "", ErrNotDirectory
	}
	return canonicalPath, nil
}
