package sensormux

import (
	"fmt"
	"strings"
)

// Reading is one parsed proximity report from the bridge. The line format
// is "spot_id,proximity[,timestamp]"; proximity stays a raw string so the
// occupancy classifier owns the missing-value policy.
type Reading struct {
	SpotID    string
	Proximity string
	Timestamp string
}

// ParseReading parses a bridge line. Lines starting with '#' are bridge
// chatter and yield an error the caller should log and skip.
func ParseReading(line string) (Reading, error) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return Reading{}, fmt.Errorf("not a reading line: %q", line)
	}

	segments := strings.Split(line, ",")
	if len(segments) < 2 {
		return Reading{}, fmt.Errorf("malformed reading line %q: want spot_id,proximity[,timestamp]", line)
	}

	r := Reading{
		SpotID:    strings.TrimSpace(segments[0]),
		Proximity: strings.TrimSpace(segments[1]),
	}
	if r.SpotID == "" {
		return Reading{}, fmt.Errorf("reading line %q has empty spot id", line)
	}
	if len(segments) > 2 {
		r.Timestamp = strings.TrimSpace(segments[2])
	}
	return r, nil
}
