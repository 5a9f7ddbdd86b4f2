package types

import (
	"fmt"
	"strconv"
	"strings"
)

// Request is a message sent from the client to the daemon.
type Request struct {
	// State patches one or both controls.
	State *StatePatch `json:"state,omitempty"`

	// ToggleIntensity and ToggleWarmth mute or unmute a control without
	// losing its value.
	ToggleIntensity bool `json:"toggleIntensity,omitempty"`
	ToggleWarmth    bool `json:"toggleWarmth,omitempty"`

	// Reset zeroes both controls and restores platform defaults.
	Reset bool `json:"reset,omitempty"`

	// Status requests the current state without changing anything.
	Status bool `json:"status,omitempty"`

	Subscribe   []SubscriptionKey `json:"subscribe,omitempty"`
	Unsubscribe []SubscriptionKey `json:"unsubscribe,omitempty"`
}

// StatePatch adjusts the two controls. Values are strings so they can
// carry a + or - prefix for relative changes, e.g. "+0.1". An empty
// string leaves the control untouched.
type StatePatch struct {
	Intensity string `json:"intensity,omitempty"`
	Warmth    string `json:"warmth,omitempty"`
}

// Response is a message sent from the daemon to the client in response
// to a Request, or pushed to subscribed connections on state changes.
type Response struct {
	// Error will be set to a non-empty string when the operation was
	// unsuccessful.
	Error string `json:"error,omitempty"`
	// State contains the daemon state after the request was processed.
	State *State `json:"state,omitempty"`
}

// State mirrors the daemon's applied state.
type State struct {
	Intensity      float64 `json:"intensity"`
	Warmth         float64 `json:"warmth"`
	IntensityMuted bool    `json:"intensityMuted,omitempty"`
	WarmthMuted    bool    `json:"warmthMuted,omitempty"`
	// Enabled is true while a transfer table is installed, false after
	// platform defaults were restored.
	Enabled bool `json:"enabled"`
	// Generation counts successful apply/restore operations.
	Generation uint64 `json:"generation"`
}

// SubscriptionKey selects a class of pushed updates.
type SubscriptionKey string

const (
	// SubscriptionKeyState subscribes a connection to state changes.
	SubscriptionKeyState SubscriptionKey = "state"
)

// ParseControl resolves a control string against the previous value.
// A + or - prefix makes the value relative. The result is clamped to
// [0, 1]. An empty string keeps the previous value.
func ParseControl(value string, prev float64) (float64, error) {
	if value == "" {
		return prev, nil
	}

	relative := strings.HasPrefix(value, "+") || strings.HasPrefix(value, "-")

	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing control value %q: %w", value, err)
	}

	if relative {
		f += prev
	}

	if f < 0 {
		f = 0
	}
	if f > 1 {
		f = 1
	}

	return f, nil
}
