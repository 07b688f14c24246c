package typecheck

import (
	"fmt"
	"strings"
)

// Mode controls what a failed assignability check produces.
type Mode int

const (
	// Disabled skips checks entirely.
	Disabled Mode = iota
	// Warning reports failures as warnings.
	Warning
	// Error reports failures as errors.
	Error
)

// DefaultMode is the strictness used when none is configured.
const DefaultMode = Error

func (m Mode) String() string {
	switch m {
	case Disabled:
		return "disabled"
	case Warning:
		return "warning"
	case Error:
		return "error"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode accepts disabled, warning (or warn) and error (or enabled),
// case-insensitively.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "disabled", "off":
		return Disabled, nil
	case "warning", "warn":
		return Warning, nil
	case "error", "enabled", "":
		return Error, nil
	}
	return Disabled, fmt.Errorf("unknown type checker mode %q (want disabled, warning or error)", s)
}

// UnmarshalText lets modes be read from config files.
func (m *Mode) UnmarshalText(text []byte) error {
	parsed, err := ParseMode(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// MarshalText renders the mode name.
func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}
