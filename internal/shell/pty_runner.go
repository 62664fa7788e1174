package shell

import (
	"bytes"
	"context"
	"io"
	"sync"
	"time"

	"github.com/creack/pty"
)

const ptyTerminalEnvironment = "TERM=dumb"

// PTYRunner runs commands attached to a pseudo-terminal, for programs that change their
// output, or print nothing, when standard output is not a terminal.
type PTYRunner struct{}

func (PTYRunner) Run(ctx context.Context, dispatch *Dispatch) ([]byte, error) {
	// pty.Start makes the child a session leader, so it already leads its process group.
	command := newCommand(ctx, dispatch)
	command.Env = append(command.Environ(), ptyTerminalEnvironment)

	terminal, startError := pty.Start(command)
	if startError != nil {
		return nil, startError
	}

	output := &lockedBuffer{}
	copied := make(chan struct{})
	go func() {
		defer close(copied)
		// Reading fails with EIO once every holder of the terminal has closed it.
		_, _ = io.Copy(output, terminal)
	}()

	waitError := command.Wait()
	select {
	case <-copied:
	case <-time.After(outputDrainDelay):
	}
	_ = terminal.Close()
	return bytes.ReplaceAll(output.Bytes(), []byte("\r\n"), []byte("\n")), waitError
}

// lockedBuffer lets the copy goroutine keep writing after Run has taken its snapshot.
type lockedBuffer struct {
	mutex  sync.Mutex
	buffer bytes.Buffer
}

func (locked *lockedBuffer) Write(data []byte) (int, error) {
	locked.mutex.Lock()
	defer locked.mutex.Unlock()
	return locked.buffer.Write(data)
}

func (locked *lockedBuffer) Bytes() []byte {
	locked.mutex.Lock()
	defer locked.mutex.Unlock()
	return append([]byte(nil), locked.buffer.Bytes()...)
}
