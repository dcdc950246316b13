// Package utils provides text normalization helpers for ipowatch.
package utils

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
)

// NA is the sentinel for scraped values that could not be resolved.
const NA = "N/A"

var (
	intPattern    = regexp.MustCompile(`-?\d[\d,]*`)
	digitPattern  = regexp.MustCompile(`\d`)
	ratioPattern  = regexp.MustCompile(`([\d,]+(?:\.\d+)?)\s*:\s*([\d,]+(?:\.\d+)?)`)
	noneMarkers   = []string{"없음", "해당없음", "-"}
	corpSuffixes  = []string{"(주)", "(유)", "주식회사", "㈜"}
	spacePattern  = regexp.MustCompile(`\s+`)
)

// ParseInt extracts the first integer out of locale-formatted text such as
// "1,234", "4,500 원" or "12,000주". Thousands separators and surrounding
// decoration are dropped, a leading minus sign is kept. Returns nil on
// dashes, "N/A", empty text, or text without digits; the context string
// identifies the field in the debug log so bad source values can be traced.
func ParseInt(text, context string) *int64 {
	cleaned := NormalizeSpace(text)
	if cleaned == "" || cleaned == NA || cleaned == "-" {
		return nil
	}

	m := intPattern.FindString(cleaned)
	if m == "" {
		log.Debug().Str("field", context).Str("text", text).Msg("no integer in text")
		return nil
	}

	n, err := strconv.ParseInt(strings.ReplaceAll(m, ",", ""), 10, 64)
	if err != nil {
		log.Debug().Str("field", context).Str("text", text).Msg("unparseable integer")
		return nil
	}
	return &n
}

// ExtractShareCount parses an allotment share count. The site writes
// "없음" (none) or a dash when a group gets no allotment; those and any
// text without digits count as zero.
func ExtractShareCount(text string) int64 {
	cleaned := NormalizeSpace(text)
	for _, marker := range noneMarkers {
		if cleaned == marker {
			return 0
		}
	}
	if !digitPattern.MatchString(cleaned) {
		return 0
	}
	if n := ParseInt(cleaned, "share_count"); n != nil && *n > 0 {
		return *n
	}
	return 0
}

// FormatCompetitionRate normalizes oversubscription ratio text to a
// canonical "N:1" form: "1,048.5 : 1" becomes "1048.5:1". Text without a
// ratio separator passes through trimmed; empty input yields "N/A".
func FormatCompetitionRate(text string) string {
	cleaned := NormalizeSpace(text)
	if cleaned == "" || cleaned == NA {
		return NA
	}
	m := ratioPattern.FindStringSubmatch(cleaned)
	if m == nil {
		return cleaned
	}
	left := strings.ReplaceAll(m[1], ",", "")
	right := strings.ReplaceAll(m[2], ",", "")
	return left + ":" + right
}

// CleanTradableValues tidies the shareholder-float pair. The values stay
// display strings because the site's precision and formatting vary; only
// stray whitespace and unit suffixes are removed. Empty values become
// "N/A".
func CleanTradableValues(share, percent string) (string, string) {
	share = strings.TrimSuffix(NormalizeSpace(share), "주")
	share = strings.TrimSpace(share)

	percent = NormalizeSpace(percent)
	percent = strings.ReplaceAll(percent, " %", "%")
	percent = strings.TrimSpace(percent)

	if share == "" {
		share = NA
	}
	if percent == "" {
		percent = NA
	}
	return share, percent
}

// CleanCorpName strips corporate-suffix noise ("(주)", "주식회사") from a
// company name for ticker-resolution retries.
func CleanCorpName(name string) string {
	cleaned := name
	for _, suffix := range corpSuffixes {
		cleaned = strings.ReplaceAll(cleaned, suffix, "")
	}
	return NormalizeSpace(cleaned)
}

// NormalizeSpace converts non-breaking and full-width spaces to regular
// spaces, collapses runs of whitespace, and trims the ends.
func NormalizeSpace(text string) string {
	text = strings.ReplaceAll(text, " ", " ")
	text = strings.ReplaceAll(text, "　", " ")
	text = spacePattern.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}
