// Package clipboard copies workspace paths to the system clipboard.
package clipboard

import (
	"errors"
	"fmt"

	"github.com/atotto/clipboard"
)

// ErrUnavailable reports that no clipboard utility is installed.
var ErrUnavailable = errors.New("system clipboard is unavailable")

const errorCopyFormat = "copy to clipboard: %w"

// Copier copies textual data to a clipboard.
type Copier interface {
	Copy(text string) error
}

// SystemCopier writes to the system clipboard through github.com/atotto/clipboard.
type SystemCopier struct{}

func (SystemCopier) Copy(text string) error {
	if clipboard.Unsupported {
		return fmt.Errorf(errorCopyFormat, ErrUnavailable)
	}
	if writeError := clipboard.WriteAll(text); writeError != nil {
		return fmt.Errorf(errorCopyFormat, writeError)
	}
	return nil
}

// Recorder keeps copied text in memory.
type Recorder struct {
	Copied []string
}

func (recorder *Recorder) Copy(text string) error {
	recorder.Copied = append(recorder.Copied, text)
	return nil
}

// Last returns the most recently copied text, or "" when nothing was copied.
func (recorder *Recorder) Last() string {
	if len(recorder.Copied) == 0 {
		return ""
	}
	return recorder.Copied[len(recorder.Copied)-1]
}

var (
	_ Copier = SystemCopier{}
	_ Copier = (*Recorder)(nil)
)
