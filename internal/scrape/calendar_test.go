package scrape

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

// fakeFetcher serves canned month pages keyed by URL.
type fakeFetcher struct {
	pages map[string]string
	fails map[string]bool
	calls []string
}

func (f *fakeFetcher) Fetch(_ context.Context, url string) (*goquery.Document, error) {
	f.calls = append(f.calls, url)
	if f.fails[url] {
		return nil, errors.New("boom")
	}
	html, ok := f.pages[url]
	if !ok {
		return nil, fmt.Errorf("no page for %s", url)
	}
	return goquery.NewDocumentFromReader(strings.NewReader(html))
}

func (f *fakeFetcher) Close() error { return nil }

const monthPage = `<html><body><table>
<tr>
	<td>5<br><a href="/view_pg?no=1">[청약] 알파테크</a></td>
	<td>12<br><a href="/view_pg?no=2">베타바이오</a><br><a href="/view_pg?no=3">하나스팩9호</a></td>
	<td>20<br><a href="/view_pg?no=1">[상장] 알파테크</a></td>
	<td>25<br><a href="/view_pg?no=4">델타푸드</a></td>
	<td><a href="/notice/42">공지사항</a></td>
</tr>
</table></body></html>`

func newTestCalendar(t *testing.T, fetcher *fakeFetcher) *Calendar {
	t.Helper()
	cal, err := NewCalendar(fetcher, "http://example.com", "/cal?y=%d&m=%02d", "view_pg")
	if err != nil {
		t.Fatalf("NewCalendar() error: %v", err)
	}
	return cal
}

func TestCalendarMonthURL(t *testing.T) {
	cal := newTestCalendar(t, &fakeFetcher{})
	got := cal.MonthURL(2024, 3)
	want := "http://example.com/cal?y=2024&m=03"
	if got != want {
		t.Errorf("MonthURL(2024, 3) = %q, want %q", got, want)
	}
}

func TestCalendarScrapeSingleMonth(t *testing.T) {
	fetcher := &fakeFetcher{pages: map[string]string{
		"http://example.com/cal?y=2024&m=03": monthPage,
	}}
	cal := newTestCalendar(t, fetcher)

	report, err := cal.Scrape(context.Background(), 2024, 3, 3, 32)
	if err != nil {
		t.Fatalf("Scrape() error: %v", err)
	}

	if report.StockCount != 3 {
		t.Errorf("StockCount = %d, want 3", report.StockCount)
	}
	if report.SpacFiltered != 1 {
		t.Errorf("SpacFiltered = %d, want 1", report.SpacFiltered)
	}

	names := make([]string, 0, len(report.Entries))
	for _, e := range report.Entries {
		names = append(names, e.Name)
	}
	want := []string{"알파테크", "베타바이오", "델타푸드"}
	if len(names) != len(want) {
		t.Fatalf("entries = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("entry[%d] = %q, want %q", i, names[i], want[i])
		}
	}

	// The duplicate day-20 listing event resolves to one entry with an
	// absolute URL.
	if report.Entries[0].URL != "http://example.com/view_pg?no=1" {
		t.Errorf("entry URL = %q", report.Entries[0].URL)
	}
}

func TestCalendarScrapeDayLimit(t *testing.T) {
	fetcher := &fakeFetcher{pages: map[string]string{
		"http://example.com/cal?y=2024&m=03": monthPage,
	}}
	cal := newTestCalendar(t, fetcher)

	report, err := cal.Scrape(context.Background(), 2024, 3, 3, 15)
	if err != nil {
		t.Fatalf("Scrape() error: %v", err)
	}

	// Day cells 20 and 25 fall past the limit: no duplicate for 알파테크,
	// no 델타푸드 at all.
	if report.StockCount != 2 {
		t.Errorf("StockCount = %d, want 2", report.StockCount)
	}
	if report.SpacFiltered != 1 {
		t.Errorf("SpacFiltered = %d, want 1", report.SpacFiltered)
	}
	for _, e := range report.Entries {
		if e.Name == "델타푸드" {
			t.Error("entry past the day limit must be skipped")
		}
	}
}

func TestCalendarScrapeDayLimitOnlyBoundsFinalMonth(t *testing.T) {
	marchOnly := `<html><body><table><tr>
		<td>28<br><a href="/view_pg?no=10">감마로직스</a></td>
	</tr></table></body></html>`
	aprilOnly := `<html><body><table><tr>
		<td>3<br><a href="/view_pg?no=11">[청약] 에타케미칼</a></td>
		<td>28<br><a href="/view_pg?no=12">세타모빌리티</a></td>
	</tr></table></body></html>`

	fetcher := &fakeFetcher{pages: map[string]string{
		"http://example.com/cal?y=2024&m=03": marchOnly,
		"http://example.com/cal?y=2024&m=04": aprilOnly,
	}}
	cal := newTestCalendar(t, fetcher)

	report, err := cal.Scrape(context.Background(), 2024, 3, 4, 10)
	if err != nil {
		t.Fatalf("Scrape() error: %v", err)
	}

	// March scans in full (day 28 kept); April is bounded to day 10.
	names := make(map[string]bool)
	for _, e := range report.Entries {
		names[e.Name] = true
	}
	if !names["감마로직스"] {
		t.Error("entry in an earlier month must not be bounded by the day limit")
	}
	if !names["에타케미칼"] {
		t.Error("entry within the final month's limit must be kept")
	}
	if names["세타모빌리티"] {
		t.Error("entry past the final month's limit must be skipped")
	}
}

func TestCalendarScrapeSkipsFailedMonth(t *testing.T) {
	fetcher := &fakeFetcher{
		pages: map[string]string{
			"http://example.com/cal?y=2024&m=04": monthPage,
		},
		fails: map[string]bool{
			"http://example.com/cal?y=2024&m=03": true,
		},
	}
	cal := newTestCalendar(t, fetcher)

	report, err := cal.Scrape(context.Background(), 2024, 3, 4, 32)
	if err != nil {
		t.Fatalf("Scrape() after one failed month should not error: %v", err)
	}
	if report.StockCount != 3 {
		t.Errorf("StockCount = %d, want 3 from the surviving month", report.StockCount)
	}
	if len(fetcher.calls) != 2 {
		t.Errorf("fetch calls = %d, want 2", len(fetcher.calls))
	}
}

func TestCalendarScrapeCancelled(t *testing.T) {
	fetcher := &fakeFetcher{fails: map[string]bool{
		"http://example.com/cal?y=2024&m=03": true,
	}}
	cal := newTestCalendar(t, fetcher)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := cal.Scrape(ctx, 2024, 3, 6, 32); err == nil {
		t.Error("Scrape() with cancelled context should return an error")
	}
}

func TestCleanEntryName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"[청약] 알파테크", "알파테크"},
		{"[유가][상장] 베타바이오", "베타바이오"},
		{"  감마로직스  ", "감마로직스"},
		{"델타푸드", "델타푸드"},
	}
	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := cleanEntryName(tt.input); got != tt.expected {
				t.Errorf("cleanEntryName(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestIsSpac(t *testing.T) {
	tests := []struct {
		name     string
		expected bool
	}{
		{"하나스팩9호", true},
		{"미래에셋기업인수목적1호", true},
		{"알파테크", false},
	}
	for _, tt := range tests {
		if got := isSpac(tt.name); got != tt.expected {
			t.Errorf("isSpac(%q) = %v, want %v", tt.name, got, tt.expected)
		}
	}
}
