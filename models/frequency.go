package models

import (
	"fmt"
	"strings"
)

// Frequency is the delivery cadence selected for an order
type Frequency string

const (
	FrequencyOneOff    Frequency = "one-off"
	FrequencyDaily     Frequency = "daily"
	FrequencyWeekly    Frequency = "weekly"
	FrequencyBiWeekly  Frequency = "bi-weekly"
	FrequencyMonthly   Frequency = "monthly"
	FrequencyBiMonthly Frequency = "bi-monthly"
)

// DefaultFrequency is preselected for new sessions
const DefaultFrequency = FrequencyWeekly

type frequencyEntry struct {
	label      string
	multiplier int64
}

// frequencies holds the prepaid delivery count for every cadence.
// Every Frequency constant must have an entry here.
var frequencies = map[Frequency]frequencyEntry{
	FrequencyOneOff:    {label: "One-Off", multiplier: 1},
	FrequencyDaily:     {label: "Daily", multiplier: 20},
	FrequencyWeekly:    {label: "Weekly", multiplier: 4},
	FrequencyBiWeekly:  {label: "Bi-Weekly", multiplier: 2},
	FrequencyMonthly:   {label: "Monthly", multiplier: 1},
	FrequencyBiMonthly: {label: "Bi-Monthly", multiplier: 1},
}

// Frequencies returns every frequency in display order
func Frequencies() []Frequency {
	return []Frequency{
		FrequencyOneOff,
		FrequencyDaily,
		FrequencyBiWeekly,
		FrequencyWeekly,
		FrequencyBiMonthly,
		FrequencyMonthly,
	}
}

// ParseFrequency accepts keys ("bi-weekly") and display labels ("Bi-Weekly"), case-insensitive
func ParseFrequency(s string) (Frequency, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	key = strings.NewReplacer(" ", "-", "_", "-").Replace(key)
	switch key {
	case "oneoff", "once":
		key = string(FrequencyOneOff)
	case "biweekly":
		key = string(FrequencyBiWeekly)
	case "bimonthly":
		key = string(FrequencyBiMonthly)
	}
	f := Frequency(key)
	if _, ok := frequencies[f]; !ok {
		return "", fmt.Errorf("unknown frequency %q", s)
	}
	return f, nil
}

// Valid reports whether f is one of the known frequencies
func (f Frequency) Valid() bool {
	_, ok := frequencies[f]
	return ok
}

// Multiplier returns the number of prepaid deliveries covered by one order.
// Unknown values fall back to a single delivery.
func (f Frequency) Multiplier() int64 {
	if entry, ok := frequencies[f]; ok {
		return entry.multiplier
	}
	return 1
}

// Label returns the display label, e.g. "Bi-Weekly"
func (f Frequency) Label() string {
	if entry, ok := frequencies[f]; ok {
		return entry.label
	}
	return string(f)
}

// Info returns the catalog description of f
func (f Frequency) Info() FrequencyInfo {
	return FrequencyInfo{Key: f, Label: f.Label(), Multiplier: f.Multiplier()}
}
