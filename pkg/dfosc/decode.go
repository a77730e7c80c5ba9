// Package dfosc implements the DFOSC instrument protocol. Commands are
// variable-width mnemonics whose first letter selects the grism (g),
// aperture (a) or filter (f) wheel.
package dfosc

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"dk154mock/pkg/hardware"
)

var ErrUnknownCommand = errors.New("unknown command")

// Op is the operation selected by a command.
type Op int

const (
	OpReady    Op = iota // x      : ready query, y/n
	OpInit               // xi     : initialise
	OpAbsolute           // xg<n>  : absolute move
	OpRelative           // xm<n>  : relative move
	OpPosition           // xp     : position query
	OpPreset             // x<d>   : move to preset d
	OpStop               // xq     : stop
	OpHome               // xx     : move to zero
	OpIDFOC              // xidfoc : not supported
)

var ops = map[string]Op{
	"":      OpReady,
	"i":     OpInit,
	"g":     OpAbsolute,
	"m":     OpRelative,
	"p":     OpPosition,
	"n":     OpPreset,
	"q":     OpStop,
	"x":     OpHome,
	"idfoc": OpIDFOC,
}

var wholeWords = []string{"g", "a", "f", "gidfoc", "aidfoc", "fidfoc"}

// Command is one decoded DFOSC request.
type Command struct {
	Raw   string // the request as received, echoed by move commands
	Key   string // normalised lookup key, e.g. "gn"
	Wheel byte   // 'g', 'a' or 'f'
	Op    Op
	Arg   int
}

// Key returns the lookup key of a raw request: whole-word mnemonics are
// used as they are, anything else by its first two characters with a digit
// in second place folded to "n".
func Key(raw string) string {
	lower := strings.ToLower(raw)
	if slices.Contains(wholeWords, lower) || len(lower) < 2 {
		return lower
	}
	key := lower[:2]
	if key[1] >= '0' && key[1] <= '9' {
		key = key[:1] + "n"
	}
	return key
}

// Decode parses a raw request.
func Decode(raw string) (Command, error) {
	raw = strings.TrimSpace(raw)
	key := Key(raw)
	if key == "" {
		return Command{}, fmt.Errorf("empty command: %w", ErrUnknownCommand)
	}

	wheel := key[0]
	if wheel != 'g' && wheel != 'a' && wheel != 'f' {
		return Command{}, fmt.Errorf("%q: %w", raw, ErrUnknownCommand)
	}
	op, ok := ops[key[1:]]
	if !ok {
		return Command{}, fmt.Errorf("%q: %w", raw, ErrUnknownCommand)
	}

	cmd := Command{Raw: raw, Key: key, Wheel: wheel, Op: op}
	switch op {
	case OpAbsolute, OpRelative:
		n, err := strconv.Atoi(raw[2:])
		if err != nil {
			return Command{}, fmt.Errorf("%q: bad position: %w", raw, hardware.ErrInvalidParameter)
		}
		cmd.Arg = n
	case OpPreset:
		n, err := strconv.Atoi(raw[1:2])
		if err != nil {
			return Command{}, fmt.Errorf("%q: bad preset: %w", raw, hardware.ErrInvalidParameter)
		}
		cmd.Arg = n
	}
	return cmd, nil
}

// Encode terminates a reply. Empty replies become a bare line terminator.
func Encode(reply string) string {
	return reply + "\n"
}
