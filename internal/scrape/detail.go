package scrape

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/hansol-dev/ipowatch/pkg/models"
	"github.com/hansol-dev/ipowatch/pkg/utils"
)

// Extractor turns one detail page into a normalized StockInfo record.
type Extractor struct {
	labels  Labels
	finders *FinderChain
}

// NewExtractor creates an extractor for the given label set.
func NewExtractor(labels Labels) *Extractor {
	return &Extractor{
		labels:  labels,
		finders: NewFinderChain(labels.Shareholder),
	}
}

// Extract parses the three labeled sub-tables and the shareholder float
// from a fetched detail page. Extraction is best-effort field by field:
// a missing sub-table or label yields "N/A" (or nil for numeric fields)
// and never aborts the record.
func (e *Extractor) Extract(doc *goquery.Document, name, url string) models.StockInfo {
	overview := doc.Find(e.labels.OverviewTable).First()
	offering := doc.Find(e.labels.OfferingTable).First()
	schedule := doc.Find(e.labels.ScheduleTable).First()

	shares, percent := e.shareholderFloat(doc)

	return models.StockInfo{
		Name: name,
		URL:  url,

		MarketSegment: tableValue(overview, e.labels.MarketSegment...),
		Sector:        tableValue(overview, e.labels.Sector...),
		Revenue:       utils.ParseInt(tableValue(overview, e.labels.Revenue...), name+" - revenue"),
		ProfitPreTax:  utils.ParseInt(tableValue(overview, e.labels.ProfitPreTax...), name+" - profit_pre_tax"),
		NetProfit:     utils.ParseInt(tableValue(overview, e.labels.NetProfit...), name+" - net_profit"),
		Capital:       utils.ParseInt(tableValue(overview, e.labels.Capital...), name+" - capital"),

		TotalShares:    utils.ParseInt(tableValue(offering, e.labels.TotalShares...), name+" - total_shares"),
		ParValue:       utils.ParseInt(tableValue(offering, e.labels.ParValue...), name+" - par_value"),
		PriceRange:     tableValue(offering, e.labels.PriceRange...),
		ConfirmedPrice: utils.ParseInt(tableValue(offering, e.labels.ConfirmedPrice...), name+" - confirmed_price"),
		OfferingAmount: utils.ParseInt(tableValue(offering, e.labels.OfferingAmount...), name+" - offering_amount"),
		Underwriter:    tableValue(offering, e.labels.Underwriter...),

		ListingDate:         tableValue(schedule, e.labels.ListingDate...),
		CompetitionRate:     utils.FormatCompetitionRate(tableValue(schedule, e.labels.CompetitionRate...)),
		EmployeeShares:      utils.ExtractShareCount(tableValue(schedule, e.labels.EmployeeShares...)),
		InstitutionalShares: utils.ExtractShareCount(tableValue(schedule, e.labels.InstitutionalShares...)),
		RetailShares:        utils.ExtractShareCount(tableValue(schedule, e.labels.RetailShares...)),

		TradableShares:  shares,
		TradablePercent: percent,
	}
}

// tableValue finds the first cell in table whose text contains one of the
// labels and returns the text of the next td in the same row. Labels are
// tried in order. Cells wrapping a nested table are skipped so layout
// wrappers cannot shadow the actual label cell. Returns "N/A" when no
// label matches or the label cell has no following td.
func tableValue(table *goquery.Selection, labels ...string) string {
	for _, label := range labels {
		value := utils.NA
		table.Find("td, th").EachWithBreak(func(_ int, cell *goquery.Selection) bool {
			if cell.Find("table").Length() > 0 {
				return true
			}
			if !strings.Contains(utils.NormalizeSpace(cell.Text()), label) {
				return true
			}
			next := cell.NextAllFiltered("td").First()
			if next.Length() == 0 {
				return true
			}
			value = utils.NormalizeSpace(next.Text())
			return false
		})
		if value != utils.NA {
			return value
		}
	}
	return utils.NA
}

// shareholderFloat extracts (tradable share count, tradable percent) as
// display strings via the finder chain and the cell grid. Both values are
// "N/A" when the table or its tradable columns cannot be located.
func (e *Extractor) shareholderFloat(doc *goquery.Document) (string, string) {
	table := e.finders.Find(doc)
	if table == nil {
		return utils.NA, utils.NA
	}

	grid := BuildGrid(table)
	if len(grid) == 0 {
		return utils.NA, utils.NA
	}

	shareCol, percentCol, ok := e.tradableColumns(grid)
	if !ok {
		return utils.NA, utils.NA
	}
	return extractTradableValues(grid, shareCol, percentCol)
}

// tradableColumns locates the share-count and percent column indexes under
// the merged "tradable volume" header cell.
func (e *Extractor) tradableColumns(grid [][]string) (int, int, bool) {
	keywords := e.labels.Shareholder.HeaderKeywords
	for rowIdx := 0; rowIdx < len(grid) && rowIdx < headerRowLimit; rowIdx++ {
		for colIdx, text := range grid[rowIdx] {
			if containsAll(text, keywords) {
				share, percent := e.subColumns(grid, rowIdx, colIdx)
				return share, percent, true
			}
		}
	}
	return 0, 0, false
}

// subColumns resolves the two sub-header columns beneath the merged header
// at (rowIdx, colIdx). The merged span shows up in the grid as consecutive
// columns holding the same text. Falls back to the header column and its
// right neighbor when the sub-headers are not labeled.
func (e *Extractor) subColumns(grid [][]string, rowIdx, colIdx int) (int, int) {
	end := colIdx
	row := grid[rowIdx]
	for end < len(row)-1 && row[end+1] == row[colIdx] {
		end++
	}

	next := rowIdx + 1
	if next >= len(grid) {
		return colIdx, colIdx + 1
	}

	share, percent := -1, -1
	for c := colIdx; c <= end && c < len(grid[next]); c++ {
		text := grid[next][c]
		if strings.Contains(text, e.labels.Shareholder.ShareColumn) {
			share = c
		} else if containsAny(text, e.labels.Shareholder.PercentColumns) {
			percent = c
		}
	}
	if share != -1 && percent != -1 {
		return share, percent
	}
	return colIdx, colIdx + 1
}

// extractTradableValues scans rows bottom-up (the totals row sits last) for
// the first row whose share cell holds an actual number.
func extractTradableValues(grid [][]string, shareCol, percentCol int) (string, string) {
	for rowIdx := len(grid) - 1; rowIdx >= 0; rowIdx-- {
		row := grid[rowIdx]
		if len(row) <= shareCol || len(row) <= percentCol {
			continue
		}

		shareVal := strings.TrimSpace(row[shareCol])
		percentVal := strings.TrimSpace(row[percentCol])

		if shareVal != "" && shareVal != "-" && strings.ContainsAny(shareVal, "0123456789") {
			return utils.CleanTradableValues(shareVal, percentVal)
		}
	}
	return utils.NA, utils.NA
}
