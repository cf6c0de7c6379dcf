package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ParseInterval parses Go duration strings plus day ("d") and week ("w") units,
// e.g. "6h", "1d", "1w2d", "1.5d".
func ParseInterval(raw string) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, fmt.Errorf("duration is required")
	}
	if !strings.ContainsAny(raw, "dw") {
		return time.ParseDuration(raw)
	}

	var total time.Duration
	rest := raw
	for rest != "" {
		i := strings.IndexAny(rest, "dw")
		if i < 0 {
			d, err := time.ParseDuration(rest)
			if err != nil {
				return 0, fmt.Errorf("invalid duration %q", raw)
			}
			return total + d, nil
		}
		// "ns"/"us" never contain d or w, so everything before the unit is the count.
		num, err := strconv.ParseFloat(rest[:i], 64)
		if err != nil || num < 0 {
			return 0, fmt.Errorf("invalid duration %q", raw)
		}
		unit := 24 * time.Hour
		if rest[i] == 'w' {
			unit *= 7
		}
		total += time.Duration(num * float64(unit))
		rest = rest[i+1:]
	}
	return total, nil
}
