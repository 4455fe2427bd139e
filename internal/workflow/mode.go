package workflow

import (
	"errors"
	"fmt"
	"strings"
)

// ErrIllegalTransition is returned when an action is fired from a mode
// that does not allow it.
var ErrIllegalTransition = errors.New("illegal transition")

// ErrReadOnlyProvider is returned when the graph provider cannot store a
// new default graph.
var ErrReadOnlyProvider = errors.New("graph provider is read-only")

// Mode is the presentation state of the machine.
type Mode string

const (
	ModeManualSetup   Mode = "manual-setup"
	ModeVisualization Mode = "visualization"
	ModeJSONEditor    Mode = "json-editor"
)

// Modes lists every mode in menu order.
var Modes = []Mode{ModeManualSetup, ModeVisualization, ModeJSONEditor}

func (m Mode) Valid() bool {
	switch m {
	case ModeManualSetup, ModeVisualization, ModeJSONEditor:
		return true
	default:
		return false
	}
}

// ParseMode accepts a mode name case-insensitively.
func ParseMode(s string) (Mode, error) {
	m := Mode(strings.ToLower(strings.TrimSpace(s)))
	if !m.Valid() {
		return "", fmt.Errorf("unknown mode %q", s)
	}
	return m, nil
}

func illegal(action string, from Mode) error {
	return fmt.Errorf("%w: %s is not allowed in %s mode", ErrIllegalTransition, action, from)
}
