// Package model defines the domain types used across the application.
package model

import (
	"fmt"
	"strings"
	"time"
)

// Slot is one open exam slot parsed from the availability page.
type Slot struct {
	Format      string `json:"format"`
	Institution string `json:"institution"`
	Region      string `json:"region"`
	City        string `json:"city"`
	Deadline    string `json:"deadline"`
	Seats       int    `json:"seats"`
	TestDate    string `json:"test_date"`
	Link        string `json:"link,omitempty"`
	AtUni       bool   `json:"at_uni"`
	AtHome      bool   `json:"at_home"`
	Key         string `json:"key"`
}

// NoDate is the test date used when the source row has no date cell.
const NoDate = "—"

// SlotKey builds the dedup key of a slot.
func SlotKey(format, institution, testDate string) string {
	return format + "|" + institution + "|" + testDate
}

// Preference selects which slot categories a subscriber is alerted about.
type Preference string

// Supported preferences.
const (
	PreferenceBoth Preference = "both"
	PreferenceUni  Preference = "uni"
	PreferenceHome Preference = "home"
)

// ParsePreference converts a user supplied token into a Preference.
// An empty token yields PreferenceBoth.
func ParsePreference(s string) (Preference, error) {
	switch p := Preference(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return PreferenceBoth, nil
	case PreferenceBoth, PreferenceUni, PreferenceHome:
		return p, nil
	default:
		return "", fmt.Errorf("unknown preference %q", s)
	}
}

// Subscriber is a chat registered for alerts.
type Subscriber struct {
	ID         string
	Preference Preference
}

// RunStatus is the state of the poll loop.
type RunStatus string

// Poll loop states.
const (
	StatusStarting RunStatus = "starting"
	StatusChecking RunStatus = "checking"
	StatusOK       RunStatus = "ok"
	StatusError    RunStatus = "error"
)

// RunMetrics is a point-in-time view of the poll loop counters.
type RunMetrics struct {
	Checks     int
	LastCheck  time.Time
	Available  []Slot
	AlertsSent int
	Status     RunStatus
	SeenKeys   int
}
