package utils

import (
	"strconv"
	"strings"
	"time"
)

// ParseLooseDate parses the loosely formatted listing dates the site
// publishes: "2024.03.15", "2024-3-5", "2024. 3. 15" and similar. Returns
// false for "N/A", empty text, or anything that is not a calendar date.
func ParseLooseDate(text string) (time.Time, bool) {
	cleaned := NormalizeSpace(text)
	if cleaned == "" || cleaned == NA {
		return time.Time{}, false
	}

	cleaned = strings.ReplaceAll(cleaned, " ", "")
	cleaned = strings.ReplaceAll(cleaned, ".", "-")
	cleaned = strings.ReplaceAll(cleaned, "/", "-")
	cleaned = strings.Trim(cleaned, "-")

	parts := strings.Split(cleaned, "-")
	if len(parts) != 3 {
		return time.Time{}, false
	}

	year, err := strconv.Atoi(parts[0])
	if err != nil || year < 1900 || year > 2200 {
		return time.Time{}, false
	}
	month, err := strconv.Atoi(parts[1])
	if err != nil || month < 1 || month > 12 {
		return time.Time{}, false
	}
	day, err := strconv.Atoi(parts[2])
	if err != nil || day < 1 || day > 31 {
		return time.Time{}, false
	}

	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC), true
}
