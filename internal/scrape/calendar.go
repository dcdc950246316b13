package scrape

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog/log"

	"github.com/hansol-dev/ipowatch/internal/browse"
	"github.com/hansol-dev/ipowatch/pkg/models"
	"github.com/hansol-dev/ipowatch/pkg/utils"
)

var (
	dayPattern     = regexp.MustCompile(`^(\d{1,2})`)
	bracketPattern = regexp.MustCompile(`^\[[^\]]*\]\s*`)
)

// spacMarkers identify special-purpose acquisition shells by name.
var spacMarkers = []string{"스팩", "기업인수목적"}

// Calendar scrapes the monthly subscription calendar for detail-page links.
type Calendar struct {
	fetcher    browse.Fetcher
	base       *url.URL
	pathFormat string // fmt template taking year, month
	linkMarker string // substring identifying detail hrefs
}

// NewCalendar creates a calendar scraper rooted at baseURL.
func NewCalendar(fetcher browse.Fetcher, baseURL, pathFormat, linkMarker string) (*Calendar, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url %q: %w", baseURL, err)
	}
	return &Calendar{
		fetcher:    fetcher,
		base:       base,
		pathFormat: pathFormat,
		linkMarker: linkMarker,
	}, nil
}

// Scrape collects the IPO entries for the given months of one year. The
// day limit bounds the final month only; earlier months are already in the
// past and scan in full. Entries naming a SPAC shell are filtered out and
// counted. A month page that fails to load is logged and skipped so one
// bad page cannot abort the sweep.
func (c *Calendar) Scrape(ctx context.Context, year, startMonth, endMonth, dayLimit int) (models.ScrapeReport, error) {
	var report models.ScrapeReport
	seen := make(map[string]bool)

	for month := startMonth; month <= endMonth; month++ {
		limit := 32
		if month == endMonth {
			limit = dayLimit
		}

		doc, err := c.fetcher.Fetch(ctx, c.MonthURL(year, month))
		if err != nil {
			if ctx.Err() != nil {
				return report, ctx.Err()
			}
			log.Warn().Err(err).Int("year", year).Int("month", month).
				Msg("calendar page failed, skipping month")
			continue
		}

		for _, entry := range c.entries(doc, limit) {
			if seen[entry.URL] {
				continue
			}
			seen[entry.URL] = true
			if isSpac(entry.Name) {
				report.SpacFiltered++
				continue
			}
			report.Entries = append(report.Entries, entry)
		}
	}

	report.StockCount = len(report.Entries)
	return report, nil
}

// MonthURL renders the calendar page URL for one month.
func (c *Calendar) MonthURL(year, month int) string {
	ref, err := url.Parse(fmt.Sprintf(c.pathFormat, year, month))
	if err != nil {
		return c.base.String()
	}
	return c.base.ResolveReference(ref).String()
}

// entries pulls (name, url) pairs out of one month page. Day cells start
// with the day number; cells beyond the day limit are skipped.
func (c *Calendar) entries(doc *goquery.Document, dayLimit int) []models.CalendarEntry {
	var out []models.CalendarEntry

	doc.Find("td").Each(func(_ int, cell *goquery.Selection) {
		if cell.Find("td").Length() > 0 {
			return // layout wrapper around the actual day cells
		}
		day, ok := cellDay(cell)
		if !ok || day > dayLimit {
			return
		}

		cell.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
			href, _ := a.Attr("href")
			if !strings.Contains(href, c.linkMarker) {
				return
			}
			name := cleanEntryName(a.Text())
			if name == "" {
				return
			}
			out = append(out, models.CalendarEntry{
				Name: name,
				URL:  c.absoluteURL(href),
			})
		})
	})

	return out
}

// cellDay parses the leading day number of a calendar cell.
func cellDay(cell *goquery.Selection) (int, bool) {
	text := utils.NormalizeSpace(cell.Text())
	m := dayPattern.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	day, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return day, true
}

// cleanEntryName strips the bracketed event-type prefixes the calendar
// prepends to company names, e.g. "[청약] 회사명".
func cleanEntryName(name string) string {
	name = utils.NormalizeSpace(name)
	for {
		stripped := bracketPattern.ReplaceAllString(name, "")
		if stripped == name {
			return name
		}
		name = stripped
	}
}

func (c *Calendar) absoluteURL(href string) string {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return href
	}
	return c.base.ResolveReference(ref).String()
}

func isSpac(name string) bool {
	return containsAny(name, spacMarkers)
}
