// Package scrape extracts structured offering records from the calendar
// site's HTML. The detail pages share no stable schema: field labels move
// between layouts, tables nest inside layout tables, and merged cells shift
// column positions. The package deals with that through a cell grid builder
// that resolves merged spans, a strategy chain that locates the shareholder
// table, and label-driven key/value lookup over the summary sub-tables.
package scrape

import "github.com/rs/zerolog/log"

// Labels holds the Korean label variants used to locate fields on a detail
// page. Matching is substring-based and tries alternates in order; the site
// words a few labels differently between layouts, so the lists are data,
// not a fixed enum.
type Labels struct {
	// Sub-table selectors, keyed off the summary attribute.
	OverviewTable string
	OfferingTable string
	ScheduleTable string

	// Company overview fields.
	MarketSegment []string
	Sector        []string
	Revenue       []string
	ProfitPreTax  []string
	NetProfit     []string
	Capital       []string

	// Offering terms.
	TotalShares    []string
	ParValue       []string
	PriceRange     []string
	ConfirmedPrice []string
	OfferingAmount []string
	Underwriter    []string

	// Subscription schedule.
	ListingDate         []string
	CompetitionRate     []string
	EmployeeShares      []string
	InstitutionalShares []string
	RetailShares        []string

	Shareholder ShareholderLabels
}

// ShareholderLabels drives the shareholder-table finder chain and the
// tradable-float column lookup.
type ShareholderLabels struct {
	Title          string   // section heading near the table
	HeaderKeywords []string // all must appear in one header cell
	RowKeywords    []string // any marks a data row of this table
	ShareColumn    string   // sub-header of the share count column
	PercentColumns []string // sub-header variants of the percent column
}

// DefaultLabels returns the label set matching the site's known layouts.
func DefaultLabels() Labels {
	return Labels{
		OverviewTable: `table[summary='기업개요']`,
		OfferingTable: `table[summary='공모정보']`,
		ScheduleTable: `table[summary='공모청약일정']`,

		MarketSegment: []string{"시장구분"},
		Sector:        []string{"업종"},
		Revenue:       []string{"매출액"},
		ProfitPreTax:  []string{"법인세비용차감전"},
		NetProfit:     []string{"순이익"},
		Capital:       []string{"자본금"},

		TotalShares:    []string{"총공모주식수"},
		ParValue:       []string{"액면가"},
		PriceRange:     []string{"희망공모가액"},
		ConfirmedPrice: []string{"확정공모가"},
		OfferingAmount: []string{"공모금액"},
		Underwriter:    []string{"주간사"},

		// Older layouts label the listing date "(상장일)" inside a
		// combined schedule row.
		ListingDate:         []string{"신규상장일", "(상장일"},
		CompetitionRate:     []string{"기관경쟁률"},
		EmployeeShares:      []string{"우리사주조합"},
		InstitutionalShares: []string{"기관투자자등"},
		RetailShares:        []string{"일반청약자"},

		Shareholder: ShareholderLabels{
			Title:          "주주현황",
			HeaderKeywords: []string{"유통가능", "물량"},
			RowKeywords:    []string{"보호예수", "최대주주"},
			ShareColumn:    "주식수",
			PercentColumns: []string{"비율", "지분율"},
		},
	}
}

// WithExtras appends alternate labels from config, keyed by field name in
// snake case ("listing_date", "percent_columns"). Unknown keys are logged
// and skipped. HeaderKeywords is a match-all set, so appending to it would
// narrow the match; it is not extensible this way.
func (l Labels) WithExtras(extras map[string][]string) Labels {
	for key, alts := range extras {
		switch key {
		case "market_segment":
			l.MarketSegment = append(l.MarketSegment, alts...)
		case "sector":
			l.Sector = append(l.Sector, alts...)
		case "revenue":
			l.Revenue = append(l.Revenue, alts...)
		case "profit_pre_tax":
			l.ProfitPreTax = append(l.ProfitPreTax, alts...)
		case "net_profit":
			l.NetProfit = append(l.NetProfit, alts...)
		case "capital":
			l.Capital = append(l.Capital, alts...)
		case "total_shares":
			l.TotalShares = append(l.TotalShares, alts...)
		case "par_value":
			l.ParValue = append(l.ParValue, alts...)
		case "price_range":
			l.PriceRange = append(l.PriceRange, alts...)
		case "confirmed_price":
			l.ConfirmedPrice = append(l.ConfirmedPrice, alts...)
		case "offering_amount":
			l.OfferingAmount = append(l.OfferingAmount, alts...)
		case "underwriter":
			l.Underwriter = append(l.Underwriter, alts...)
		case "listing_date":
			l.ListingDate = append(l.ListingDate, alts...)
		case "competition_rate":
			l.CompetitionRate = append(l.CompetitionRate, alts...)
		case "employee_shares":
			l.EmployeeShares = append(l.EmployeeShares, alts...)
		case "institutional_shares":
			l.InstitutionalShares = append(l.InstitutionalShares, alts...)
		case "retail_shares":
			l.RetailShares = append(l.RetailShares, alts...)
		case "row_keywords":
			l.Shareholder.RowKeywords = append(l.Shareholder.RowKeywords, alts...)
		case "percent_columns":
			l.Shareholder.PercentColumns = append(l.Shareholder.PercentColumns, alts...)
		default:
			log.Warn().Str("key", key).Msg("unknown label key in scrape.label_extras")
		}
	}
	return l
}
