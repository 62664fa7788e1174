package tokenizer

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

type helperCounter struct {
	command []string
	model   string
	timeout time.Duration
}

func (counter helperCounter) Name() string {
	return counter.model
}

func (counter helperCounter) CountString(input string) (int, error) {
	if len(counter.command) == 0 || strings.TrimSpace(counter.command[0]) == "" {
		return 0, errors.New("tokenizer helper not configured")
	}

	ctx, cancel := context.WithTimeout(context.Background(), counter.timeout)
	defer cancel()

	arguments := append(append([]string{}, counter.command[1:]...), "--model", counter.model)
	command := exec.CommandContext(ctx, counter.command[0], arguments...)
	command.Stdin = strings.NewReader(input)

	outputBytes, err := command.CombinedOutput()
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return 0, fmt.Errorf("tokenizer helper timeout: %w", ctx.Err())
	}
	if err != nil {
		return 0, fmt.Errorf("tokenizer helper error: %v, output: %s", err, strings.TrimSpace(string(outputBytes)))
	}
	return parseHelperTokenOutput(string(outputBytes))
}

// parseHelperTokenOutput reads the count from the last non-empty line, so
// installer chatter printed before it is ignored.
func parseHelperTokenOutput(output string) (int, error) {
	trimmed := strings.TrimSpace(output)
	if trimmed == "" {
		return 0, errors.New("tokenizer helper returned empty output")
	}
	lines := strings.Split(trimmed, "\n")
	lastLine := strings.TrimSpace(lines[len(lines)-1])
	tokenCount, parseErr := strconv.Atoi(lastLine)
	if parseErr != nil || tokenCount < 0 {
		return 0, fmt.Errorf("unexpected tokenizer helper output: %q", trimmed)
	}
	return tokenCount, nil
}

// HelperLabel reports whether counter runs an external helper, and the model it
// counts for, so callers can announce the slower per-file counting.
func HelperLabel(counter Counter) (string, bool) {
	helper, isHelper := counter.(helperCounter)
	if !isHelper {
		return "", false
	}
	return helper.model, true
}
