package gateway

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

type Command string

const (
	Status          Command = "status"
	DHWMode         Command = "dhw_mode"
	DHWTemperature  Command = "dhw_temperature"
	FlowTemperature Command = "flow_temperature"
)

var Commands = []Command{Status, DHWMode, DHWTemperature, FlowTemperature}

var ErrMissingArgument = errors.New("missing command argument")

// Flow temperatures at or below this cancel the quick veto instead of setting one
const FLOW_TEMPERATURE_OFF = 5

// Quick veto duration and default duration, in hours
const QUICK_VETO_HOURS = 5

func (c Command) String() string {
	return string(c)
}

// NeedsArgument tells whether the command changes something and so needs --arg
func (c Command) NeedsArgument() bool {
	return c != Status
}

func ParseCommand(s string) (Command, error) {
	for _, c := range Commands {
		if string(c) == s {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown command %q (valid: %v)", s, Commands)
}

// ParseSwitch is the loose boolean of dhw_mode: true, 1, yes and on (any case) are on,
// anything else is off
func ParseSwitch(s string) bool {
	switch strings.ToLower(s) {
	case "true", "1", "yes", "on":
		return true
	default:
		return false
	}
}

// ParseArgument coerces the raw --arg to the type the command expects:
// bool for dhw_mode, int for dhw_temperature, float64 for flow_temperature.
// status takes no argument and gets nil.
func ParseArgument(c Command, raw string, given bool) (any, error) {
	if !c.NeedsArgument() {
		return nil, nil
	}
	if !given {
		return nil, fmt.Errorf("%w: %s requires --arg", ErrMissingArgument, c)
	}
	switch c {
	case DHWMode:
		return ParseSwitch(raw), nil
	case DHWTemperature:
		v, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return nil, fmt.Errorf("%s: invalid integer temperature %q: %w", c, raw, err)
		}
		return v, nil
	case FlowTemperature:
		v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return nil, fmt.Errorf("%s: invalid temperature %q: %w", c, raw, err)
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%s: invalid temperature %q", c, raw)
		}
		return v, nil
	}
	return nil, fmt.Errorf("unknown command %q", c)
}
