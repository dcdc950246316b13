// Package models defines the core data structures used throughout ipowatch.
package models

// StockInfo is one normalized IPO record, keyed by (Name, URL).
// It is treated as an immutable value: scraping produces a fully populated
// record except for the market-data fields, and enrichment produces a new
// record via WithMarketData instead of mutating in place.
//
// String fields that could not be scraped hold the "N/A" sentinel; numeric
// pointer fields hold nil. Monetary amounts are in million won, matching
// the source site's tables.
type StockInfo struct {
	Name string `json:"name"`
	URL  string `json:"url"`

	// Company overview
	MarketSegment string `json:"market_segment"` // "코스닥", "유가증권" etc.
	Sector        string `json:"sector"`
	Revenue       *int64 `json:"revenue,omitempty"`
	ProfitPreTax  *int64 `json:"profit_pre_tax,omitempty"`
	NetProfit     *int64 `json:"net_profit,omitempty"`
	Capital       *int64 `json:"capital,omitempty"`

	// Offering terms
	TotalShares    *int64 `json:"total_shares,omitempty"`
	ParValue       *int64 `json:"par_value,omitempty"`
	PriceRange     string `json:"price_range"` // free text, e.g. "10,000 ~ 12,000"
	ConfirmedPrice *int64 `json:"confirmed_price,omitempty"`
	OfferingAmount *int64 `json:"offering_amount,omitempty"`
	Underwriter    string `json:"underwriter"`

	// Schedule
	ListingDate         string `json:"listing_date"` // loose "YYYY.MM.DD" text
	CompetitionRate     string `json:"competition_rate"`
	EmployeeShares      int64  `json:"employee_shares"`
	InstitutionalShares int64  `json:"institutional_shares"`
	RetailShares        int64  `json:"retail_shares"`

	// Shareholder float, kept as display strings since the source
	// formatting varies.
	TradableShares  string `json:"tradable_shares"`
	TradablePercent string `json:"tradable_percent"`

	// Market data, set together by WithMarketData or not at all.
	Open       *int64   `json:"open,omitempty"`
	High       *int64   `json:"high,omitempty"`
	Low        *int64   `json:"low,omitempty"`
	Close      *int64   `json:"close,omitempty"`
	GrowthRate *float64 `json:"growth_rate,omitempty"`
}

// WithMarketData returns a copy of the record with all five market-data
// fields set in one step. rate may be nil when the confirmed price was
// missing or zero; the prices are still attached as a group.
func (s StockInfo) WithMarketData(ohlc OHLC, rate *float64) StockInfo {
	open, high, low, closing := ohlc.Open, ohlc.High, ohlc.Low, ohlc.Close
	s.Open = &open
	s.High = &high
	s.Low = &low
	s.Close = &closing
	s.GrowthRate = rate
	return s
}

// Enriched reports whether market data has been attached.
func (s StockInfo) Enriched() bool {
	return s.Close != nil
}

// OHLC is a single trading day's price summary, in whole won.
type OHLC struct {
	Open  int64 `json:"open"`
	High  int64 `json:"high"`
	Low   int64 `json:"low"`
	Close int64 `json:"close"`
}

// CalendarEntry is one (company, detail page) pair found on a calendar page.
type CalendarEntry struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// ScrapeReport summarizes one calendar sweep: how many stocks were kept,
// how many were dropped as SPAC shells, and the entries to visit.
type ScrapeReport struct {
	StockCount   int             `json:"stock_count"`
	SpacFiltered int             `json:"spac_filtered"`
	Entries      []CalendarEntry `json:"entries"`
}

// DateRange describes how much of one calendar year to scan. The current
// year is bounded by today's month and day; past years span months 1..12
// with DayLimit 32 so no day is filtered.
type DateRange struct {
	Year       int `json:"year"`
	StartMonth int `json:"start_month"`
	EndMonth   int `json:"end_month"`
	DayLimit   int `json:"day_limit"`
}
