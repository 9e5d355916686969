package descriptor

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Level is a bit set of difficulty flags. A tutorial can span several
// levels, e.g. "beginner, intermediate".
type Level int

const (
	LevelBeginner Level = 1 << iota
	LevelIntermediate
	LevelAdvanced
)

var levelNames = []struct {
	flag Level
	name string
}{
	{LevelBeginner, "beginner"},
	{LevelIntermediate, "intermediate"},
	{LevelAdvanced, "advanced"},
}

// ParseLevel converts a comma-separated level list into a Level bit set.
// Tokens outside the fixed vocabulary are ignored.
func ParseLevel(text string) Level {
	var level Level
	for _, token := range strings.Split(text, ",") {
		token = strings.ToLower(strings.TrimSpace(token))
		for _, ln := range levelNames {
			if token == ln.name {
				level |= ln.flag
			}
		}
	}
	return level
}

// String renders the level set in canonical order, lowest first.
func (l Level) String() string {
	var parts []string
	for _, ln := range levelNames {
		if l&ln.flag != 0 {
			parts = append(parts, ln.name)
		}
	}
	return strings.Join(parts, ", ")
}

// Progress vocabulary. The legacy "viewed" key maps no → not started
// and yes → finished.
const (
	ProgressNotStarted = "not started"
	ProgressStarted    = "started"
	ProgressFinished   = "finished"
)

// durationRE captures the hour, minute and second components. The
// accepted forms are "<N>h <N>m", "<N>m" and "<N>s", each optionally
// followed by a seconds component; hours never appear without minutes.
var durationRE = regexp.MustCompile(`^(?:(\d+)h)?\s*(?:(\d+)m)?\s*(?:(\d+)s)?$`)

// ParseDuration converts a duration string into whole minutes.
// A seconds component of 31 or more rounds up to the next minute;
// smaller remainders are truncated. The asymmetry is intentional and
// matches the descriptor format.
func ParseDuration(text string) (int, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return 0, fmt.Errorf("empty duration")
	}

	m := durationRE.FindStringSubmatch(trimmed)
	if m == nil || (m[1] == "" && m[2] == "" && m[3] == "") || (m[1] != "" && m[2] == "") {
		return 0, fmt.Errorf("malformed duration %q", text)
	}

	minutes := 0
	if m[1] != "" {
		hours, err := strconv.Atoi(m[1])
		if err != nil {
			return 0, fmt.Errorf("malformed duration %q", text)
		}
		minutes += hours * 60
	}
	if m[2] != "" {
		mins, err := strconv.Atoi(m[2])
		if err != nil {
			return 0, fmt.Errorf("malformed duration %q", text)
		}
		minutes += mins
	}
	if m[3] != "" {
		secs, err := strconv.Atoi(m[3])
		if err != nil {
			return 0, fmt.Errorf("malformed duration %q", text)
		}
		if secs >= 31 {
			minutes++
		}
	}

	return minutes, nil
}

// FormatDuration renders minutes in the canonical "<H>h <MM>m" form,
// or "<M>m" for durations under an hour.
func FormatDuration(minutes int) string {
	if minutes >= 60 {
		return fmt.Sprintf("%dh %02dm", minutes/60, minutes%60)
	}
	return fmt.Sprintf("%dm", minutes)
}

// releasedRE matches YYYY, YYYY/MM and YYYY/MM/DD.
var releasedRE = regexp.MustCompile(`^(\d{4})(?:/(\d{2})(?:/(\d{2}))?)?$`)

// ValidateReleased checks a release date string against the accepted
// forms and a sane year range.
func ValidateReleased(text string) error {
	m := releasedRE.FindStringSubmatch(text)
	if m == nil {
		return fmt.Errorf("malformed release date %q", text)
	}

	year, _ := strconv.Atoi(m[1])
	if year < 1900 || year > 2100 {
		return fmt.Errorf("release year %d out of range", year)
	}
	if m[2] != "" {
		month, _ := strconv.Atoi(m[2])
		if month < 1 || month > 12 {
			return fmt.Errorf("release month %d out of range", month)
		}
	}
	if m[3] != "" {
		day, _ := strconv.Atoi(m[3])
		if day < 1 || day > 31 {
			return fmt.Errorf("release day %d out of range", day)
		}
	}
	return nil
}
