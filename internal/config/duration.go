package config

import (
	"fmt"
	"strings"
	"time"
)

// Duration knobs (wide_window, lookahead, interval, timeout, ...) are plain
// strings in the file and parsed where they are consumed, so a bad value is
// reported with its config path. An empty field is not an error: it means
// "use the component default".

func ParseDurationField(path, raw string) (time.Duration, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	switch {
	case err != nil:
		return 0, fmt.Errorf("%s: %q is not a duration (want Go forms like \"90s\", \"2m\", \"24h\"): %w", path, raw, err)
	case d < 0:
		return 0, fmt.Errorf("%s: negative duration %q", path, raw)
	}
	return d, nil
}

// ParseDurationOrDefault treats empty and zero alike: both yield def.
func ParseDurationOrDefault(path, raw string, def time.Duration) (time.Duration, error) {
	d, err := ParseDurationField(path, raw)
	if err != nil {
		return 0, err
	}
	if d == 0 {
		return def, nil
	}
	return d, nil
}
