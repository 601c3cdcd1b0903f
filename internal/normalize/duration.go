package normalize

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	hoursRe   = regexp.MustCompile(`(\d+)\s*h`)
	minutesRe = regexp.MustCompile(`(\d+)\s*m`)
	secondsRe = regexp.MustCompile(`(\d+)\s*s`)
)

// ParseSeconds reduces any provider duration representation to integer
// seconds. Providers hand back integers, floats, time.Duration values and
// free text like "17m 16s" or "1:02:34"; anything unparseable yields zero
// rather than an error.
func ParseSeconds(v any) int {
	switch d := v.(type) {
	case nil:
		return 0
	case int:
		return positive(d)
	case int32:
		return positive(int(d))
	case int64:
		return positive(int(d))
	case float32:
		return positive(int(d))
	case float64:
		return positive(int(d))
	case time.Duration:
		return positive(int(d / time.Second))
	case string:
		return parseTextSeconds(d)
	}
	return 0
}

func parseTextSeconds(s string) int {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return 0
	}

	if strings.Contains(s, ":") {
		return parseClockSeconds(s)
	}

	if hoursRe.MatchString(s) || minutesRe.MatchString(s) || secondsRe.MatchString(s) {
		total := 0
		if m := hoursRe.FindStringSubmatch(s); m != nil {
			n, _ := strconv.Atoi(m[1])
			total += n * 3600
		}
		if m := minutesRe.FindStringSubmatch(s); m != nil {
			n, _ := strconv.Atoi(m[1])
			total += n * 60
		}
		if m := secondsRe.FindStringSubmatch(s); m != nil {
			n, _ := strconv.Atoi(m[1])
			total += n
		}
		return total
	}

	if n, err := strconv.Atoi(s); err == nil {
		return positive(n)
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return positive(int(f))
	}
	return 0
}

// parseClockSeconds handles m:s and h:m:s clock forms.
func parseClockSeconds(s string) int {
	parts := strings.Split(s, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0
	}

	total := 0
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || n < 0 {
			return 0
		}
		total = total*60 + n
	}
	return total
}

func positive(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
