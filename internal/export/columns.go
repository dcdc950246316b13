package export

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/hansol-dev/ipowatch/pkg/models"
	"github.com/hansol-dev/ipowatch/pkg/utils"
)

// headers lists the workbook columns in their fixed order. The reader side
// indexes into rows by this order, so new columns go at the end.
var headers = []string{
	"종목명",
	"시장구분",
	"업종",
	"매출액(백만원)",
	"법인세비용차감전(백만원)",
	"순이익(백만원)",
	"자본금(백만원)",
	"총공모주식수",
	"액면가",
	"희망공모가액",
	"확정공모가",
	"공모금액(백만원)",
	"주간사",
	"상장일",
	"기관경쟁률",
	"우리사주조합",
	"기관투자자",
	"일반청약자",
	"유통가능물량(주)",
	"유통가능물량(%)",
	"시가",
	"고가",
	"저가",
	"종가",
	"수익률(%)",
}

// Headers returns the column names of a yearly sheet in write order.
func Headers() []string {
	out := make([]string, len(headers))
	copy(out, headers)
	return out
}

// Row flattens one record into worksheet cell values following Headers
// order. Nil numeric fields become empty cells so sheets show blanks
// rather than zeroes.
func Row(info models.StockInfo) []any {
	return []any{
		info.Name,
		info.MarketSegment,
		info.Sector,
		intCell(info.Revenue),
		intCell(info.ProfitPreTax),
		intCell(info.NetProfit),
		intCell(info.Capital),
		intCell(info.TotalShares),
		intCell(info.ParValue),
		info.PriceRange,
		intCell(info.ConfirmedPrice),
		intCell(info.OfferingAmount),
		info.Underwriter,
		info.ListingDate,
		info.CompetitionRate,
		info.EmployeeShares,
		info.InstitutionalShares,
		info.RetailShares,
		shareCell(info.TradableShares),
		info.TradablePercent,
		intCell(info.Open),
		intCell(info.High),
		intCell(info.Low),
		intCell(info.Close),
		rateCell(info.GrowthRate),
	}
}

// FromRow rebuilds a record from one worksheet row. Rows may be shorter
// than the header because the reader trims trailing empty cells; missing
// cells map to "N/A" or nil like a failed scrape. The workbook does not
// store detail-page URLs, so URL stays empty.
func FromRow(cells []string) models.StockInfo {
	cell := func(i int) string {
		if i >= len(cells) {
			return ""
		}
		return strings.TrimSpace(cells[i])
	}
	name := cell(0)
	parse := func(i int, field string) *int64 {
		return utils.ParseInt(cell(i), name+" - "+field)
	}

	return models.StockInfo{
		Name:                name,
		MarketSegment:       textOrNA(cell(1)),
		Sector:              textOrNA(cell(2)),
		Revenue:             parse(3, "revenue"),
		ProfitPreTax:        parse(4, "profit_pre_tax"),
		NetProfit:           parse(5, "net_profit"),
		Capital:             parse(6, "capital"),
		TotalShares:         parse(7, "total_shares"),
		ParValue:            parse(8, "par_value"),
		PriceRange:          textOrNA(cell(9)),
		ConfirmedPrice:      parse(10, "confirmed_price"),
		OfferingAmount:      parse(11, "offering_amount"),
		Underwriter:         textOrNA(cell(12)),
		ListingDate:         textOrNA(cell(13)),
		CompetitionRate:     textOrNA(cell(14)),
		EmployeeShares:      utils.ExtractShareCount(cell(15)),
		InstitutionalShares: utils.ExtractShareCount(cell(16)),
		RetailShares:        utils.ExtractShareCount(cell(17)),
		TradableShares:      textOrNA(cell(18)),
		TradablePercent:     textOrNA(cell(19)),
		Open:                parse(20, "open"),
		High:                parse(21, "high"),
		Low:                 parse(22, "low"),
		Close:               parse(23, "close"),
		GrowthRate:          parseRate(cell(24)),
	}
}

var plainNumber = regexp.MustCompile(`^-?\d[\d,]*$`)

// shareCell writes the tradable share count as a number when the text is
// a plain locale-formatted count; annotated or sentinel text stays as is.
func shareCell(s string) any {
	if plainNumber.MatchString(s) {
		if n := utils.ParseInt(s, "tradable_shares"); n != nil {
			return *n
		}
	}
	return s
}

func intCell(v *int64) any {
	if v == nil {
		return nil
	}
	return *v
}

func rateCell(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

func textOrNA(s string) string {
	if s == "" {
		return utils.NA
	}
	return s
}

func parseRate(s string) *float64 {
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil {
		return nil
	}
	return &v
}
