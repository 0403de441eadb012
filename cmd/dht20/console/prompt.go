package console

import (
	"errors"
	"io"
	"strings"

	"github.com/chzyer/readline"
)

// ErrAborted is returned by Confirm when input is interrupted.
var ErrAborted = errors.New("aborted")

// Confirm asks a yes/no question. An empty answer selects def.
func Confirm(question string, def bool) (bool, error) {
	hint := " [y/N]: "
	if def {
		hint = " [Y/n]: "
	}
	rl, err := readline.NewEx(&readline.Config{
		Prompt: question + hint,
		Stdout: writer,
		Stderr: errWriter,
	})
	if err != nil {
		return false, err
	}
	defer func() { _ = rl.Close() }()
	response, err := rl.Readline()
	if errors.Is(err, readline.ErrInterrupt) || errors.Is(err, io.EOF) {
		return false, ErrAborted
	}
	if err != nil {
		return false, err
	}
	return parseAnswer(response, def), nil
}

func parseAnswer(response string, def bool) bool {
	switch strings.ToLower(strings.TrimSpace(response)) {
	case "y", "yes":
		return true
	case "n", "no":
		return false
	default:
		return def
	}
}
