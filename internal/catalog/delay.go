package catalog

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// FormatDelay renders an incubation delay: "18h", "2j", "1j12h".
func FormatDelay(hours int) string {
	switch {
	case hours < 24:
		return fmt.Sprintf("%dh", hours)
	case hours%24 == 0:
		return fmt.Sprintf("%dj", hours/24)
	default:
		return fmt.Sprintf("%dj%dh", hours/24, hours%24)
	}
}

var delayRe = regexp.MustCompile(`^(?:(\d+)\s*[jd])?\s*(?:(\d+)\s*h)?$`)

// ParseDelay reads a label produced by FormatDelay back into hours.
// Plain hour labels such as "48h" and day labels using "d" are accepted too.
func ParseDelay(s string) (int, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return 0, false
	}
	m := delayRe.FindStringSubmatch(s)
	if m == nil || (m[1] == "" && m[2] == "") {
		return 0, false
	}
	hours := 0
	if m[1] != "" {
		d, err := strconv.Atoi(m[1])
		if err != nil {
			return 0, false
		}
		hours += d * 24
	}
	if m[2] != "" {
		h, err := strconv.Atoi(m[2])
		if err != nil {
			return 0, false
		}
		hours += h
	}
	if hours <= 0 {
		return 0, false
	}
	return hours, true
}
