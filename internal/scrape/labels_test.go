package scrape

import (
	"reflect"
	"testing"
)

func TestWithExtrasAppendsAlternates(t *testing.T) {
	labels := DefaultLabels().WithExtras(map[string][]string{
		"listing_date":    {"상장예정일"},
		"percent_columns": {"유통비율"},
	})

	want := []string{"신규상장일", "(상장일", "상장예정일"}
	if !reflect.DeepEqual(labels.ListingDate, want) {
		t.Errorf("ListingDate = %v, want %v", labels.ListingDate, want)
	}
	wantPct := []string{"비율", "지분율", "유통비율"}
	if !reflect.DeepEqual(labels.Shareholder.PercentColumns, wantPct) {
		t.Errorf("PercentColumns = %v, want %v", labels.Shareholder.PercentColumns, wantPct)
	}
	// The defaults themselves stay untouched.
	if got := DefaultLabels().ListingDate; len(got) != 2 {
		t.Errorf("DefaultLabels().ListingDate = %v, want the 2 built-ins", got)
	}
}

func TestWithExtrasUnknownKey(t *testing.T) {
	labels := DefaultLabels().WithExtras(map[string][]string{
		"listing_dtae": {"오타"},
	})
	if !reflect.DeepEqual(labels, DefaultLabels()) {
		t.Error("unknown key must leave the label set unchanged")
	}
}

func TestWithExtrasNilMap(t *testing.T) {
	if !reflect.DeepEqual(DefaultLabels().WithExtras(nil), DefaultLabels()) {
		t.Error("nil extras must be a no-op")
	}
}
