package ascol

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrFrame          = errors.New("malformed frame")
	ErrUnknownCommand = errors.New("unknown command")
	ErrPowerOff       = errors.New("telescope is off")
	ErrLoginRequired  = errors.New("login required")
)

// Command is one decoded ASCOL request.
type Command struct {
	Code Code
	Args []string
}

func (c Command) String() string {
	return strings.Join(append([]string{string(c.Code)}, c.Args...), " ")
}

// Parse decodes one request line.
func Parse(frame string) (Command, error) {
	fields := strings.Fields(frame)
	if len(fields) == 0 {
		return Command{}, fmt.Errorf("empty command: %w", ErrFrame)
	}

	code := Code(fields[0])
	a, ok := arities[code]
	if !ok {
		return Command{}, fmt.Errorf("%q: %w", fields[0], ErrUnknownCommand)
	}

	args := fields[1:]
	if len(args) < a.min || len(args) > a.max {
		return Command{}, fmt.Errorf("%s takes %d to %d arguments, got %d: %w", code, a.min, a.max, len(args), ErrFrame)
	}
	return Command{Code: code, Args: args}, nil
}

// Encode joins reply fields into one line without terminator.
func Encode(fields ...string) string {
	return strings.Join(fields, " ")
}

// ErrorToken maps an error to the token sent to the client.
func ErrorToken(err error) string {
	switch {
	case errors.Is(err, ErrFrame):
		return "ERR[FRAME]"
	case errors.Is(err, ErrUnknownCommand):
		return "ERR[UNKNOWN]"
	case errors.Is(err, ErrPowerOff):
		return "ERR[POWER]"
	case errors.Is(err, ErrLoginRequired):
		return "ERR[LOGIN]"
	default:
		return "ERR"
	}
}
