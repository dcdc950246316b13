// Package export persists yearly batches of IPO records into a single
// Excel workbook, one sheet per year. Writing merges with whatever the
// workbook already holds: years missing from the batch are preserved,
// years present in both are combined and deduplicated by company name
// with the newest record winning.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog/log"
	"github.com/xuri/excelize/v2"

	"github.com/hansol-dev/ipowatch/pkg/models"
)

const firstSheet = "Sheet1"

// Exporter writes record batches into one workbook under a fixed
// directory, creating the directory on first use.
type Exporter struct {
	dir      string
	filename string
}

func NewExporter(dir, filename string) *Exporter {
	return &Exporter{dir: dir, filename: filename}
}

// Path returns the workbook location.
func (e *Exporter) Path() string {
	return filepath.Join(e.dir, e.filename)
}

// Export merges the batch into the workbook at Path. An empty batch is a
// no-op so a dry run never truncates existing data.
func (e *Exporter) Export(yearly map[int][]models.StockInfo) error {
	if len(yearly) == 0 {
		log.Warn().Msg("no records to export")
		return nil
	}
	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return fmt.Errorf("creating output dir %s: %w", e.dir, err)
	}
	return Write(e.Path(), yearly)
}

// Write merges yearly into the workbook at path and saves it. Sheets are
// named "2024년" and ordered by ascending year; rows within a sheet are
// sorted by listing date ascending, with "N/A" dates sorting last.
func Write(path string, yearly map[int][]models.StockInfo) error {
	if len(yearly) == 0 {
		return nil
	}

	merged := make(map[int][]models.StockInfo, len(yearly))
	for year, records := range yearly {
		merged[year] = records
	}

	if _, err := os.Stat(path); err == nil {
		existing, err := Read(path)
		if err != nil {
			log.Warn().Err(err).Str("path", path).Msg("existing workbook unreadable, rewriting")
		} else {
			log.Info().Str("path", path).Msg("merging into existing workbook")
			for year, old := range existing {
				fresh, ok := merged[year]
				if !ok {
					merged[year] = old
					continue
				}
				merged[year] = dedupeByName(append(old, fresh...))
				log.Debug().
					Int("year", year).
					Int("existing", len(old)).
					Int("new", len(fresh)).
					Int("total", len(merged[year])).
					Msg("year merged")
			}
		}
	}

	years := make([]int, 0, len(merged))
	for year := range merged {
		sortByListingDate(merged[year])
		years = append(years, year)
	}
	sort.Ints(years)

	f := excelize.NewFile()
	defer f.Close()

	for i, year := range years {
		sheet := fmt.Sprintf("%d년", year)
		if i == 0 {
			if err := f.SetSheetName(firstSheet, sheet); err != nil {
				return fmt.Errorf("renaming sheet %s: %w", sheet, err)
			}
		} else if _, err := f.NewSheet(sheet); err != nil {
			return fmt.Errorf("creating sheet %s: %w", sheet, err)
		}
		if err := writeSheet(f, sheet, merged[year]); err != nil {
			return err
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("saving workbook %s: %w", path, err)
	}
	log.Info().Str("path", path).Int("years", len(years)).Msg("workbook saved")
	return nil
}

// Read loads every yearly sheet of the workbook at path. Sheet names may
// carry the "년" suffix or be a bare year; anything else is skipped.
func Read(path string) (map[int][]models.StockInfo, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening workbook %s: %w", path, err)
	}
	defer f.Close()

	yearly := make(map[int][]models.StockInfo)
	for _, sheet := range f.GetSheetList() {
		year, err := strconv.Atoi(strings.TrimSuffix(sheet, "년"))
		if err != nil {
			log.Debug().Str("sheet", sheet).Msg("skipping non-year sheet")
			continue
		}
		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("reading sheet %s: %w", sheet, err)
		}
		records := make([]models.StockInfo, 0, len(rows))
		for i, row := range rows {
			if i == 0 || emptyRow(row) {
				continue
			}
			records = append(records, FromRow(row))
		}
		yearly[year] = records
	}
	return yearly, nil
}

func writeSheet(f *excelize.File, sheet string, records []models.StockInfo) error {
	hdr := Headers()
	if err := f.SetSheetRow(sheet, "A1", &hdr); err != nil {
		return fmt.Errorf("writing header of %s: %w", sheet, err)
	}

	widths := make([]int, len(hdr))
	for i, h := range hdr {
		widths[i] = utf8.RuneCountInString(h)
	}

	for r, rec := range records {
		row := Row(rec)
		anchor, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return fmt.Errorf("row %d of %s: %w", r+2, sheet, err)
		}
		if err := f.SetSheetRow(sheet, anchor, &row); err != nil {
			return fmt.Errorf("writing row %d of %s: %w", r+2, sheet, err)
		}
		for i, v := range row {
			if v == nil {
				continue
			}
			// Hangul is double width in most viewers, the UTF-8 byte
			// count scaled down approximates that well enough.
			if w := int(float64(len(fmt.Sprint(v))) * 0.8); w > widths[i] {
				widths[i] = w
			}
		}
	}

	for i := range hdr {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return fmt.Errorf("column %d of %s: %w", i+1, sheet, err)
		}
		width := float64(min(max(widths[i]+2, 10), 50))
		if err := f.SetColWidth(sheet, col, col, width); err != nil {
			return fmt.Errorf("sizing column %s of %s: %w", col, sheet, err)
		}
	}
	return nil
}

// dedupeByName keeps one record per company name. A later duplicate
// replaces the earlier record's data in place, so reruns refresh rows
// instead of stacking them.
func dedupeByName(records []models.StockInfo) []models.StockInfo {
	out := make([]models.StockInfo, 0, len(records))
	slot := make(map[string]int, len(records))
	for _, rec := range records {
		if i, ok := slot[rec.Name]; ok {
			out[i] = rec
			continue
		}
		slot[rec.Name] = len(out)
		out = append(out, rec)
	}
	return out
}

// sortByListingDate orders records by the raw "YYYY.MM.DD" text, which
// sorts chronologically because the site zero-pads. "N/A" sorts after
// every date.
func sortByListingDate(records []models.StockInfo) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].ListingDate < records[j].ListingDate
	})
}

func emptyRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
