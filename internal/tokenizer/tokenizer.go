// Package tokenizer estimates how many model tokens a text file occupies.
package tokenizer

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"

	"github.com/tyemirov/gravity/internal/utils"
)

const (
	// DefaultModel is used when no model is requested.
	DefaultModel         = "gpt-4o"
	defaultEncodingName  = "cl100k_base"
	defaultHelperTimeout = 2 * time.Minute
)

var errNilCounter = errors.New("nil tokenizer counter")

// Counter estimates token counts for text content.
type Counter interface {
	Name() string
	CountString(input string) (int, error)
}

// Config selects the model a Counter estimates for.
type Config struct {
	Model string
	// Helper is the command line of an external counter for models tiktoken
	// cannot encode. It receives the text on stdin and "--model <model>" as
	// trailing arguments, and prints the count as its last output line.
	Helper  []string
	Timeout time.Duration
}

// NewCounter returns a counter for cfg.Model. OpenAI models use tiktoken and fall
// back to cl100k_base when tiktoken does not know the exact model. Anthropic and
// Llama models require a helper; any other model uses the helper when one is
// configured and cl100k_base otherwise.
func NewCounter(cfg Config) (Counter, error) {
	lowerModel := strings.ToLower(strings.TrimSpace(cfg.Model))
	if lowerModel == "" {
		lowerModel = DefaultModel
	}

	if isOpenAIModel(lowerModel) {
		if encoding, err := tiktoken.EncodingForModel(lowerModel); err == nil && encoding != nil {
			return encodingCounter{encoding: encoding, name: lowerModel}, nil
		}
		return fallbackCounter()
	}

	if len(cfg.Helper) > 0 {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultHelperTimeout
		}
		return helperCounter{
			command: cfg.Helper,
			model:   lowerModel,
			timeout: timeout,
		}, nil
	}
	if requiresHelper(lowerModel) {
		return nil, fmt.Errorf("model %s requires tokenizer.helper to be configured", lowerModel)
	}
	return fallbackCounter()
}

func fallbackCounter() (Counter, error) {
	fallback, err := tiktoken.GetEncoding(defaultEncodingName)
	if err != nil {
		return nil, fmt.Errorf("initialize %s tokenizer: %w", defaultEncodingName, err)
	}
	return encodingCounter{encoding: fallback, name: defaultEncodingName}, nil
}

func isOpenAIModel(model string) bool {
	prefixes := []string{
		"gpt-",
		"text-embedding",
		"davinci",
		"curie",
		"babbage",
		"ada",
		"code-",
	}
	for _, prefix := range prefixes {
		if strings.HasPrefix(model, prefix) {
			return true
		}
	}
	return false
}

func requiresHelper(model string) bool {
	return strings.HasPrefix(model, "claude-") || strings.HasPrefix(model, "llama-")
}

type encodingCounter struct {
	encoding *tiktoken.Tiktoken
	name     string
}

func (counter encodingCounter) Name() string {
	return counter.name
}

func (counter encodingCounter) CountString(input string) (int, error) {
	if counter.encoding == nil {
		return 0, errors.New("nil tiktoken encoder")
	}
	return len(counter.encoding.Encode(input, nil, nil)), nil
}

// CountResult captures the outcome of counting a file or byte slice.
type CountResult struct {
	Tokens  int
	Counted bool
}

// CountBytes estimates tokens for data. Binary data is reported as not counted.
func CountBytes(counter Counter, data []byte) (CountResult, error) {
	if counter == nil {
		return CountResult{}, errNilCounter
	}
	if utils.IsBinary(data) || !utf8.Valid(data) {
		return CountResult{}, nil
	}
	tokens, err := counter.CountString(string(data))
	if err != nil {
		return CountResult{}, err
	}
	return CountResult{Tokens: tokens, Counted: true}, nil
}

// CountFile reads the file at path and estimates its token count.
//
// #nosec G304
func CountFile(counter Counter, path string) (CountResult, error) {
	if counter == nil {
		return CountResult{}, errNilCounter
	}
	data, readErr := os.ReadFile(path)
	if readErr != nil {
		return CountResult{}, readErr
	}
	return CountBytes(counter, data)
}
