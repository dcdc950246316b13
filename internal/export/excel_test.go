package export

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/hansol-dev/ipowatch/pkg/models"
)

func int64p(v int64) *int64       { return &v }
func float64p(v float64) *float64 { return &v }

func sample(name, listingDate string) models.StockInfo {
	return models.StockInfo{
		Name:                name,
		URL:                 "http://example.com/view_pg?no=1",
		MarketSegment:       "코스닥",
		Sector:              "소프트웨어 개발",
		Revenue:             int64p(12345),
		ProfitPreTax:        int64p(2345),
		NetProfit:           int64p(1234),
		Capital:             int64p(1000),
		TotalShares:         int64p(1000000),
		ParValue:            int64p(500),
		PriceRange:          "15,000 ~ 18,000 원",
		ConfirmedPrice:      int64p(18000),
		OfferingAmount:      int64p(18000),
		Underwriter:         "한국투자증권",
		ListingDate:         listingDate,
		CompetitionRate:     "1048.5:1",
		EmployeeShares:      100000,
		InstitutionalShares: 700000,
		RetailShares:        200000,
		TradableShares:      "3,500,000",
		TradablePercent:     "35.5%",
	}
}

func tempPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "ipo_data_all_years.xlsx")
}

func mustWrite(t *testing.T, path string, yearly map[int][]models.StockInfo) {
	t.Helper()
	if err := Write(path, yearly); err != nil {
		t.Fatalf("Write() error: %v", err)
	}
}

func mustRead(t *testing.T, path string) map[int][]models.StockInfo {
	t.Helper()
	yearly, err := Read(path)
	if err != nil {
		t.Fatalf("Read() error: %v", err)
	}
	return yearly
}

// ── Round trip ──

func TestWriteReadRoundTrip(t *testing.T) {
	path := tempPath(t)
	enriched := sample("알파테크", "2024.03.22").WithMarketData(
		models.OHLC{Open: 19000, High: 21000, Low: 18500, Close: 20000},
		float64p(11.11),
	)
	mustWrite(t, path, map[int][]models.StockInfo{
		2024: {enriched, sample("베타바이오", "2024.01.05")},
	})

	yearly := mustRead(t, path)
	records, ok := yearly[2024]
	if !ok {
		t.Fatalf("Read() years = %v, want 2024 present", yearly)
	}
	if len(records) != 2 {
		t.Fatalf("len(records) = %d, want 2", len(records))
	}

	// Sorted by listing date, so 베타바이오 (January) comes first.
	if records[0].Name != "베타바이오" || records[1].Name != "알파테크" {
		t.Errorf("order = [%s, %s], want [베타바이오, 알파테크]", records[0].Name, records[1].Name)
	}

	got := records[1]
	if got.MarketSegment != "코스닥" {
		t.Errorf("MarketSegment = %q, want 코스닥", got.MarketSegment)
	}
	if got.Revenue == nil || *got.Revenue != 12345 {
		t.Errorf("Revenue = %v, want 12345", got.Revenue)
	}
	if got.PriceRange != "15,000 ~ 18,000 원" {
		t.Errorf("PriceRange = %q, want original text", got.PriceRange)
	}
	if got.ConfirmedPrice == nil || *got.ConfirmedPrice != 18000 {
		t.Errorf("ConfirmedPrice = %v, want 18000", got.ConfirmedPrice)
	}
	if got.CompetitionRate != "1048.5:1" {
		t.Errorf("CompetitionRate = %q, want 1048.5:1", got.CompetitionRate)
	}
	if got.EmployeeShares != 100000 {
		t.Errorf("EmployeeShares = %d, want 100000", got.EmployeeShares)
	}
	// Plain counts are written as numbers, so the commas do not survive.
	if got.TradableShares != "3500000" {
		t.Errorf("TradableShares = %q, want 3500000", got.TradableShares)
	}
	if got.TradablePercent != "35.5%" {
		t.Errorf("TradablePercent = %q, want 35.5%%", got.TradablePercent)
	}
	if !got.Enriched() || *got.Close != 20000 {
		t.Errorf("Close = %v, want 20000", got.Close)
	}
	if got.GrowthRate == nil || *got.GrowthRate != 11.11 {
		t.Errorf("GrowthRate = %v, want 11.11", got.GrowthRate)
	}

	// Non-enriched row keeps nil market data.
	if records[0].Enriched() {
		t.Errorf("베타바이오 Enriched() = true, want false")
	}
}

func TestWriteSortsMissingDatesLast(t *testing.T) {
	path := tempPath(t)
	unknown := sample("감마소재", "N/A")
	mustWrite(t, path, map[int][]models.StockInfo{
		2024: {unknown, sample("알파테크", "2024.03.22"), sample("베타바이오", "2024.01.05")},
	})

	records := mustRead(t, path)[2024]
	names := []string{records[0].Name, records[1].Name, records[2].Name}
	want := []string{"베타바이오", "알파테크", "감마소재"}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("order = %v, want %v", names, want)
		}
	}
}

// ── Merge ──

func TestWritePreservesUntouchedYears(t *testing.T) {
	path := tempPath(t)
	mustWrite(t, path, map[int][]models.StockInfo{
		2023: {sample("알파테크", "2023.06.15")},
	})
	mustWrite(t, path, map[int][]models.StockInfo{
		2024: {sample("베타바이오", "2024.01.05")},
	})

	yearly := mustRead(t, path)
	if len(yearly) != 2 {
		t.Fatalf("len(years) = %d, want 2", len(yearly))
	}
	if len(yearly[2023]) != 1 || yearly[2023][0].Name != "알파테크" {
		t.Errorf("2023 sheet = %v, want the original 알파테크 row", yearly[2023])
	}
	if len(yearly[2024]) != 1 || yearly[2024][0].Name != "베타바이오" {
		t.Errorf("2024 sheet = %v, want 베타바이오", yearly[2024])
	}
}

func TestWriteDedupeKeepsNewest(t *testing.T) {
	path := tempPath(t)
	old := sample("알파테크", "2024.03.22")
	old.Revenue = int64p(100)
	mustWrite(t, path, map[int][]models.StockInfo{2024: {old, sample("베타바이오", "2024.01.05")}})

	fresh := sample("알파테크", "2024.03.22")
	fresh.Revenue = int64p(200)
	mustWrite(t, path, map[int][]models.StockInfo{2024: {fresh}})

	records := mustRead(t, path)[2024]
	if len(records) != 2 {
		t.Fatalf("len(records) = %d, want 2 (no stacked duplicates)", len(records))
	}
	for _, rec := range records {
		if rec.Name == "알파테크" {
			if rec.Revenue == nil || *rec.Revenue != 200 {
				t.Errorf("알파테크 Revenue = %v, want the newer 200", rec.Revenue)
			}
			return
		}
	}
	t.Fatalf("알파테크 missing from %v", records)
}

func TestWriteTwiceIsIdempotent(t *testing.T) {
	path := tempPath(t)
	batch := map[int][]models.StockInfo{
		2024: {sample("알파테크", "2024.03.22"), sample("베타바이오", "2024.01.05")},
	}
	mustWrite(t, path, batch)
	first := mustRead(t, path)[2024]
	mustWrite(t, path, batch)
	second := mustRead(t, path)[2024]

	if len(second) != len(first) {
		t.Fatalf("len after rerun = %d, want %d", len(second), len(first))
	}
	for i := range first {
		if second[i].Name != first[i].Name {
			t.Errorf("row %d = %q, want %q", i, second[i].Name, first[i].Name)
		}
	}
}

// ── Read ──

func TestReadBareYearSheetName(t *testing.T) {
	path := tempPath(t)
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", "2024"); err != nil {
		t.Fatalf("SetSheetName: %v", err)
	}
	hdr := Headers()
	if err := f.SetSheetRow("2024", "A1", &hdr); err != nil {
		t.Fatalf("SetSheetRow: %v", err)
	}
	row := Row(sample("알파테크", "2024.03.22"))
	if err := f.SetSheetRow("2024", "A2", &row); err != nil {
		t.Fatalf("SetSheetRow: %v", err)
	}
	if _, err := f.NewSheet("Summary"); err != nil {
		t.Fatalf("NewSheet: %v", err)
	}
	if err := f.SetCellValue("Summary", "A1", "memo"); err != nil {
		t.Fatalf("SetCellValue: %v", err)
	}
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("SaveAs: %v", err)
	}
	f.Close()

	yearly := mustRead(t, path)
	if len(yearly) != 1 {
		t.Fatalf("len(years) = %d, want 1 (Summary skipped)", len(yearly))
	}
	if len(yearly[2024]) != 1 || yearly[2024][0].Name != "알파테크" {
		t.Errorf("yearly[2024] = %v, want one 알파테크 row", yearly[2024])
	}
}

func TestReadMissingFile(t *testing.T) {
	if _, err := Read(filepath.Join(t.TempDir(), "absent.xlsx")); err == nil {
		t.Errorf("Read() error = nil, want open failure")
	}
}

// ── Exporter ──

func TestExporterCreatesOutputDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "reports")
	exp := NewExporter(dir, "out.xlsx")
	err := exp.Export(map[int][]models.StockInfo{2024: {sample("알파테크", "2024.03.22")}})
	if err != nil {
		t.Fatalf("Export() error: %v", err)
	}
	if _, err := os.Stat(exp.Path()); err != nil {
		t.Errorf("workbook not written: %v", err)
	}
}

func TestExporterEmptyBatch(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "reports")
	exp := NewExporter(dir, "out.xlsx")
	if err := exp.Export(nil); err != nil {
		t.Fatalf("Export(nil) error: %v", err)
	}
	if _, err := os.Stat(exp.Path()); !os.IsNotExist(err) {
		t.Errorf("empty batch wrote a file, stat err = %v", err)
	}
}

// ── Row / FromRow ──

func TestRowMatchesHeaderWidth(t *testing.T) {
	row := Row(models.StockInfo{Name: "알파테크"})
	if len(row) != len(Headers()) {
		t.Fatalf("len(Row()) = %d, want %d", len(row), len(Headers()))
	}
	if row[3] != nil {
		t.Errorf("revenue cell = %v, want nil for missing value", row[3])
	}
	if row[24] != nil {
		t.Errorf("growth rate cell = %v, want nil", row[24])
	}
}

func TestRowKeepsSentinelShareText(t *testing.T) {
	info := models.StockInfo{Name: "알파테크", TradableShares: "N/A"}
	if got := Row(info)[18]; got != "N/A" {
		t.Errorf("tradable share cell = %v, want N/A passthrough", got)
	}
	info.TradableShares = "3,500,000"
	if got := Row(info)[18]; got != int64(3500000) {
		t.Errorf("tradable share cell = %v, want 3500000", got)
	}
}

func TestFromRowShortRow(t *testing.T) {
	got := FromRow([]string{"알파테크"})
	if got.Name != "알파테크" {
		t.Errorf("Name = %q, want 알파테크", got.Name)
	}
	if got.MarketSegment != "N/A" {
		t.Errorf("MarketSegment = %q, want N/A", got.MarketSegment)
	}
	if got.Revenue != nil {
		t.Errorf("Revenue = %v, want nil", got.Revenue)
	}
	if got.EmployeeShares != 0 {
		t.Errorf("EmployeeShares = %d, want 0", got.EmployeeShares)
	}
	if got.GrowthRate != nil {
		t.Errorf("GrowthRate = %v, want nil", got.GrowthRate)
	}
	if got.Enriched() {
		t.Errorf("Enriched() = true, want false")
	}
}
