// Package crawler orchestrates the crawl pipeline: calendar sweep,
// detail-page extraction, market-data enrichment, workbook export. One
// detail page failing drops that record and nothing else; only
// cancellation stops a run.
package crawler

import (
	"context"
	"fmt"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hansol-dev/ipowatch/internal/browse"
	"github.com/hansol-dev/ipowatch/internal/export"
	"github.com/hansol-dev/ipowatch/pkg/models"
)

// CalendarScraper walks monthly listing-calendar pages.
type CalendarScraper interface {
	Scrape(ctx context.Context, year, startMonth, endMonth, dayLimit int) (models.ScrapeReport, error)
}

// DetailExtractor turns one fetched detail page into a record.
type DetailExtractor interface {
	Extract(doc *goquery.Document, name, url string) models.StockInfo
}

// Enricher attaches listing-day market data to a scraped record.
type Enricher interface {
	Enrich(ctx context.Context, info models.StockInfo) models.StockInfo
}

// Exporter persists yearly record batches.
type Exporter interface {
	Export(yearly map[int][]models.StockInfo) error
}

// Service wires the pipeline stages together.
type Service struct {
	fetcher  browse.Fetcher
	calendar CalendarScraper
	detail   DetailExtractor
	enricher Enricher
	exporter Exporter
}

func New(fetcher browse.Fetcher, calendar CalendarScraper, detail DetailExtractor, enricher Enricher, exporter Exporter) *Service {
	return &Service{
		fetcher:  fetcher,
		calendar: calendar,
		detail:   detail,
		enricher: enricher,
		exporter: exporter,
	}
}

// Run crawls every year from startYear through today, enriches each
// record as it is scraped, and saves one merged workbook at the end.
// Returns the yearly batches that were exported.
func (s *Service) Run(ctx context.Context, startYear int) (map[int][]models.StockInfo, error) {
	logger := log.With().Str("run_id", uuid.New().String()).Logger()
	logger.Info().Int("start_year", startYear).Msg("full crawl started")

	yearly := make(map[int][]models.StockInfo)
	for _, r := range Ranges(startYear, time.Now()) {
		records, err := s.crawlRange(ctx, logger, r)
		if err != nil {
			return nil, err
		}
		if len(records) > 0 {
			yearly[r.Year] = records
			logger.Info().Int("year", r.Year).Int("count", len(records)).Msg("year collected")
		}
	}

	if len(yearly) == 0 {
		logger.Warn().Msg("nothing to save")
		return yearly, nil
	}
	if err := s.exporter.Export(yearly); err != nil {
		return nil, err
	}
	logger.Info().Msg("full crawl saved")
	return yearly, nil
}

// RunDaily crawls one month of the calendar up to and including date's
// day and merges any findings into the workbook immediately. Days later
// in the month stay untouched until their date comes.
func (s *Service) RunDaily(ctx context.Context, date time.Time) (map[int][]models.StockInfo, error) {
	logger := log.With().Str("run_id", uuid.New().String()).Logger()
	logger.Info().Str("date", date.Format("2006-01-02")).Msg("daily update started")

	r := models.DateRange{
		Year:       date.Year(),
		StartMonth: int(date.Month()),
		EndMonth:   int(date.Month()),
		DayLimit:   date.Day(),
	}
	records, err := s.crawlRange(ctx, logger, r)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		logger.Info().Msg("no listings scheduled")
		return map[int][]models.StockInfo{}, nil
	}

	yearly := map[int][]models.StockInfo{date.Year(): records}
	if err := s.exporter.Export(yearly); err != nil {
		return nil, err
	}
	logger.Info().Int("count", len(records)).Msg("daily update saved")
	return yearly, nil
}

// EnrichWorkbook reloads the workbook at path, fills in market data for
// rows that still lack it, and writes the result back in place. Returns
// how many rows gained data.
func (s *Service) EnrichWorkbook(ctx context.Context, path string) (int, error) {
	yearly, err := export.Read(path)
	if err != nil {
		return 0, err
	}
	if len(yearly) == 0 {
		return 0, fmt.Errorf("workbook %s has no yearly sheets", path)
	}

	enriched := 0
	for year, records := range yearly {
		for i, rec := range records {
			if ctx.Err() != nil {
				return enriched, ctx.Err()
			}
			if rec.Enriched() {
				continue
			}
			updated := s.enricher.Enrich(ctx, rec)
			if updated.Enriched() {
				records[i] = updated
				enriched++
			}
		}
		yearly[year] = records
	}

	if err := export.Write(path, yearly); err != nil {
		return enriched, err
	}
	log.Info().Str("path", path).Int("enriched", enriched).Msg("workbook enriched")
	return enriched, nil
}

func (s *Service) crawlRange(ctx context.Context, logger zerolog.Logger, r models.DateRange) ([]models.StockInfo, error) {
	report, err := s.calendar.Scrape(ctx, r.Year, r.StartMonth, r.EndMonth, r.DayLimit)
	if err != nil {
		return nil, fmt.Errorf("calendar %d: %w", r.Year, err)
	}
	logger.Info().
		Int("year", r.Year).
		Int("stocks", report.StockCount).
		Int("spac_filtered", report.SpacFiltered).
		Msg("calendar swept")

	records := make([]models.StockInfo, 0, len(report.Entries))
	for _, entry := range report.Entries {
		doc, err := s.fetcher.Fetch(ctx, entry.URL)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			logger.Warn().Err(err).Str("name", entry.Name).Str("url", entry.URL).Msg("detail page skipped")
			continue
		}
		info := s.detail.Extract(doc, entry.Name, entry.URL)
		records = append(records, s.enricher.Enrich(ctx, info))
	}
	return records, nil
}
