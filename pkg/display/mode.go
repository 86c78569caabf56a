package display

import (
	"context"
	"fmt"
	"strings"

	"xchbal/pkg/prefs"
)

// ModePreferenceKey is the preference store key holding the selected Mode.
const ModePreferenceKey = "display_mode"

// Mode is the verbosity used to render the aggregate balance.
type Mode int

const (
	Simplified Mode = iota
	Normal
	Detailed
)

func (m Mode) String() string {
	switch m {
	case Simplified:
		return "simplified"
	case Normal:
		return "normal"
	case Detailed:
		return "detailed"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// Cycle returns the next mode: simplified, normal, detailed, then back to simplified.
func (m Mode) Cycle() Mode {
	switch m {
	case Simplified:
		return Normal
	case Normal:
		return Detailed
	default:
		return Simplified
	}
}

// ParseMode parses a stored mode name.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "simplified":
		return Simplified, nil
	case "normal":
		return Normal, nil
	case "detailed":
		return Detailed, nil
	}
	return Simplified, fmt.Errorf("unknown display mode %q", s)
}

// LoadMode reads the persisted mode. Missing or unknown values yield Simplified;
// a store error is returned alongside Simplified.
func LoadMode(ctx context.Context, store prefs.Store) (Mode, error) {
	v, ok, err := store.Get(ctx, ModePreferenceKey)
	if err != nil {
		return Simplified, err
	}
	if !ok {
		return Simplified, nil
	}
	m, err := ParseMode(v)
	if err != nil {
		return Simplified, nil
	}
	return m, nil
}

// SaveMode persists m. Callers treat it as fire-and-forget and never read it back.
func SaveMode(ctx context.Context, store prefs.Store, m Mode) error {
	return store.Set(ctx, ModePreferenceKey, m.String())
}
