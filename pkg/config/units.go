package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration to support extended units (d, w) in YAML.
type Duration time.Duration

// Common durations.
const (
	Day  = 24 * time.Hour
	Week = 7 * Day
)

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	dur, err := ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(dur)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// ParseDuration parses a duration string, supporting d and w on top of the
// standard time units.
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}

	// Standard time.ParseDuration doesn't like 'd' or 'w'.
	if strings.ContainsAny(s, "dw") {
		var total time.Duration
		rest := s
		for rest != "" {
			i := 0
			for i < len(rest) && (rest[i] >= '0' && rest[i] <= '9' || rest[i] == '.') {
				i++
			}
			if i == 0 || i == len(rest) {
				return 0, fmt.Errorf("invalid duration: %q", s)
			}
			val, err := strconv.ParseFloat(rest[:i], 64)
			if err != nil {
				return 0, fmt.Errorf("invalid duration: %q", s)
			}
			switch rest[i] {
			case 'd':
				total += time.Duration(val * float64(Day))
				rest = rest[i+1:]
			case 'w':
				total += time.Duration(val * float64(Week))
				rest = rest[i+1:]
			default:
				// Hand the remainder to the standard parser.
				tail, err := time.ParseDuration(rest)
				if err != nil {
					return 0, fmt.Errorf("invalid duration: %q", s)
				}
				return total + tail, nil
			}
		}
		return total, nil
	}

	return time.ParseDuration(s)
}
