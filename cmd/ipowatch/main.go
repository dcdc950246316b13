// ipowatch crawls Korean IPO listings from ipostock.co.kr.
//
// Main CLI entrypoint using cobra command framework.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/hansol-dev/ipowatch/internal/browse"
	"github.com/hansol-dev/ipowatch/internal/config"
	"github.com/hansol-dev/ipowatch/internal/crawler"
	"github.com/hansol-dev/ipowatch/internal/enrich"
	"github.com/hansol-dev/ipowatch/internal/export"
	"github.com/hansol-dev/ipowatch/internal/feed"
	"github.com/hansol-dev/ipowatch/internal/market"
	"github.com/hansol-dev/ipowatch/internal/scrape"
	"github.com/hansol-dev/ipowatch/internal/storage"
)

// Build-time variables (set via -ldflags).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Global config
var cfg *config.Config

func main() {
	// Load environment variables
	godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "ipowatch",
	Short: "ipowatch - Korean IPO listing crawler",
	Long: `ipowatch crawls the ipostock listing calendar, extracts offering
details from each company's page, enriches listed companies with
first-day market prices, and maintains a yearly Excel workbook that can
be synced to Google Drive.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		configFile, _ := cmd.Flags().GetString("config")
		if configFile != "" {
			cfg, err = config.LoadFromFile(configFile)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		level, _ := cmd.Flags().GetString("log-level")
		setupLogging(cfg, level)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./config/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level override (debug, info, warn, error)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(fullCmd)
	rootCmd.AddCommand(dailyCmd)
	rootCmd.AddCommand(enrichCmd)
	rootCmd.AddCommand(newsCmd)
	rootCmd.AddCommand(authCmd)
}

// setupLogging configures the global logger. The --log-level flag wins over
// the config file.
func setupLogging(cfg *config.Config, override string) {
	name := cfg.Logging.Level
	if override != "" {
		name = override
	}
	level, err := zerolog.ParseLevel(name)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	if cfg.Logging.Format != "json" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
}

// signalContext returns a context cancelled on Ctrl-C or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// finishRun folds an interrupt into a clean exit; other errors pass through.
func finishRun(err error) error {
	if errors.Is(err, context.Canceled) {
		log.Warn().Msg("interrupted, stopping")
		return nil
	}
	return err
}

// buildPipeline wires the fetcher, scrapers, enricher, and exporter into a
// crawl service. The returned cleanup releases the fetcher's connections.
func buildPipeline() (*crawler.Service, *export.Exporter, func(), error) {
	fetcher, err := browse.NewClient(browse.Options{
		UserAgent: cfg.Scrape.UserAgent,
		Delay:     time.Duration(cfg.Scrape.DelayMS) * time.Millisecond,
		Timeout:   time.Duration(cfg.Scrape.TimeoutSec) * time.Second,
	})
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to build fetcher: %w", err)
	}
	calendar, err := scrape.NewCalendar(fetcher, cfg.Scrape.BaseURL, cfg.Scrape.CalendarPath, cfg.Scrape.DetailLinkMarker)
	if err != nil {
		fetcher.Close()
		return nil, nil, nil, fmt.Errorf("failed to build calendar scraper: %w", err)
	}
	labels := scrape.DefaultLabels().WithExtras(cfg.Scrape.LabelExtras)
	if cfg.Scrape.ShareholderTitle != "" {
		labels.Shareholder.Title = cfg.Scrape.ShareholderTitle
	}
	exporter := export.NewExporter(cfg.Export.Dir, cfg.Export.Filename)
	svc := crawler.New(fetcher, calendar, scrape.NewExtractor(labels), buildEnricher(), exporter)
	return svc, exporter, func() { fetcher.Close() }, nil
}

// buildEnricher assembles the quote lookup chain. Yahoo resolves tickers and
// serves candles; Naver is the candle fallback.
func buildEnricher() *enrich.Enricher {
	ttl := time.Duration(cfg.Market.CacheTTL) * time.Second
	yahoo := market.NewYahoo(ttl, cfg.Market.RateLimit)
	naver := market.NewNaver(ttl, cfg.Market.RateLimit)
	return enrich.New(yahoo, market.NewChain(yahoo, naver))
}

// syncToDrive uploads the workbook and removes the local copy. The local
// copy goes away whether or not the upload succeeds.
func syncToDrive(ctx context.Context, path string) error {
	defer os.Remove(path)

	d, err := storage.NewDrive(ctx, cfg.Drive.CredentialsFile, cfg.Drive.FolderID)
	if err != nil {
		return err
	}
	id, err := d.Upload(ctx, path, cfg.Export.Filename)
	if err != nil {
		return err
	}
	log.Info().Str("file_id", id).Str("name", cfg.Export.Filename).Msg("workbook uploaded to drive")
	return nil
}

// --- Version Command ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("ipowatch %s\n", version)
		fmt.Printf("  commit:  %s\n", commit)
		fmt.Printf("  built:   %s\n", date)
	},
}

// --- Full Command ---

var fullCmd = &cobra.Command{
	Use:   "full",
	Short: "Crawl every year from the start year and save the workbook",
	Long: `Sweep the listing calendar from the start year through today, extract
every company's offering details, look up first-day prices, and write the
yearly workbook. Existing sheets for untouched years are preserved.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		startYear, _ := cmd.Flags().GetInt("start-year")
		if startYear == 0 {
			startYear = cfg.Scrape.StartYear
		}
		toDrive, _ := cmd.Flags().GetBool("drive")

		ctx, stop := signalContext()
		defer stop()

		svc, exporter, cleanup, err := buildPipeline()
		if err != nil {
			return err
		}
		defer cleanup()

		yearly, err := svc.Run(ctx, startYear)
		if err != nil {
			return finishRun(err)
		}
		if toDrive && len(yearly) > 0 {
			return syncToDrive(ctx, exporter.Path())
		}
		return nil
	},
}

func init() {
	fullCmd.Flags().IntP("start-year", "s", 0, "first year to crawl (default from config)")
	fullCmd.Flags().Bool("drive", false, "upload the workbook to Google Drive and remove the local copy")
}

// --- Daily Command ---

var dailyCmd = &cobra.Command{
	Use:   "daily",
	Short: "Crawl one day's listings (default today)",
	RunE: func(cmd *cobra.Command, args []string) error {
		dateStr, _ := cmd.Flags().GetString("date")
		day := time.Now()
		if dateStr != "" {
			var err error
			day, err = time.Parse("2006-01-02", dateStr)
			if err != nil {
				return fmt.Errorf("invalid --date %q, want YYYY-MM-DD: %w", dateStr, err)
			}
		}
		toDrive, _ := cmd.Flags().GetBool("drive")

		ctx, stop := signalContext()
		defer stop()

		svc, exporter, cleanup, err := buildPipeline()
		if err != nil {
			return err
		}
		defer cleanup()

		yearly, err := svc.RunDaily(ctx, day)
		if err != nil {
			return finishRun(err)
		}
		if toDrive && len(yearly) > 0 {
			return syncToDrive(ctx, exporter.Path())
		}
		return nil
	},
}

func init() {
	dailyCmd.Flags().StringP("date", "d", "", "target date (YYYY-MM-DD, default today)")
	dailyCmd.Flags().Bool("drive", false, "upload the workbook to Google Drive and remove the local copy")
}

// --- Enrich Command ---

var enrichCmd = &cobra.Command{
	Use:   "enrich",
	Short: "Fill first-day prices into an existing workbook",
	Long: `Re-read a saved workbook and fill in open/high/low/close and growth
rate for rows that are still missing them. With --drive the canonical
workbook is downloaded, enriched, and uploaded back.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		fromDrive, _ := cmd.Flags().GetBool("drive")
		file, _ := cmd.Flags().GetString("file")

		ctx, stop := signalContext()
		defer stop()

		svc, _, cleanup, err := buildPipeline()
		if err != nil {
			return err
		}
		defer cleanup()

		if fromDrive {
			return finishRun(enrichOnDrive(ctx, svc))
		}

		if file == "" {
			file, err = newestWorkbook(cfg.Export.Dir)
			if err != nil {
				return err
			}
		}
		count, err := svc.EnrichWorkbook(ctx, file)
		if err != nil {
			return finishRun(err)
		}
		fmt.Printf("✅ %d rows newly enriched in %s\n", count, file)
		return nil
	},
}

func init() {
	enrichCmd.Flags().StringP("file", "f", "", "workbook path (default: newest workbook in the export dir)")
	enrichCmd.Flags().Bool("drive", false, "enrich the canonical workbook on Google Drive")
}

// enrichOnDrive pulls the canonical workbook from Drive, enriches it, and
// pushes it back. The temp copy is removed in all cases.
func enrichOnDrive(ctx context.Context, svc *crawler.Service) error {
	d, err := storage.NewDrive(ctx, cfg.Drive.CredentialsFile, cfg.Drive.FolderID)
	if err != nil {
		return err
	}
	remote, err := d.FindByName(ctx, cfg.Export.Filename)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp("", "ipowatch-*.xlsx")
	if err != nil {
		return fmt.Errorf("failed to create temp workbook: %w", err)
	}
	tmp.Close()
	defer os.Remove(tmp.Name())

	if err := d.Download(ctx, remote.ID, tmp.Name()); err != nil {
		return err
	}
	count, err := svc.EnrichWorkbook(ctx, tmp.Name())
	if err != nil {
		return err
	}
	if _, err := d.Upload(ctx, tmp.Name(), cfg.Export.Filename); err != nil {
		return err
	}
	fmt.Printf("✅ %d rows newly enriched in drive workbook %s\n", count, cfg.Export.Filename)
	return nil
}

// newestWorkbook returns the most recently modified .xlsx under dir.
func newestWorkbook(dir string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.xlsx"))
	if err != nil || len(matches) == 0 {
		return "", fmt.Errorf("no workbook found in %s, pass --file", dir)
	}
	newest := matches[0]
	var newestMod time.Time
	for _, m := range matches {
		info, err := os.Stat(m)
		if err != nil {
			continue
		}
		if info.ModTime().After(newestMod) {
			newest, newestMod = m, info.ModTime()
		}
	}
	return newest, nil
}

// --- News Command ---

var newsCmd = &cobra.Command{
	Use:   "news",
	Short: "Print the latest IPO headlines",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		if limit == 0 {
			limit = cfg.Feed.Limit
		}

		ctx, stop := signalContext()
		defer stop()

		items, err := feed.NewNews(cfg.Feed.Queries).Headlines(ctx, limit)
		if err != nil {
			return finishRun(err)
		}
		if len(items) == 0 {
			fmt.Println("No IPO headlines right now.")
			return nil
		}

		fmt.Printf("📰 Latest IPO headlines (%d)\n\n", len(items))
		for _, item := range items {
			fmt.Printf("  %s  [%s] %s\n", item.Published.Format("01-02 15:04"), item.Source, item.Title)
			fmt.Printf("      %s\n", item.Link)
		}
		return nil
	},
}

func init() {
	newsCmd.Flags().IntP("limit", "n", 0, "maximum headlines to print (default from config)")
}

// --- Auth Command ---

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Check Google Drive credentials and connectivity",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("═══════════════════════════════════════")
		fmt.Println("  ipowatch - Google Drive Access")
		fmt.Println("═══════════════════════════════════════")

		creds := config.CheckDriveCredentials(cfg)
		for _, c := range creds {
			status := "❌ not set"
			switch {
			case c.IsSet && c.Name == "Drive Credentials File" && !c.Exists:
				status = fmt.Sprintf("❌ set but missing on disk (%s)", c.Masked)
			case c.IsSet:
				status = fmt.Sprintf("✅ set (%s: %s)", c.Source, c.Masked)
			}
			fmt.Printf("  %-25s %s\n", c.Name+":", status)
		}

		file := creds[0]
		if !file.IsSet || !file.Exists {
			fmt.Println("═══════════════════════════════════════")
			return fmt.Errorf("drive credentials not configured, set IPOWATCH_DRIVE_CREDENTIALS_FILE")
		}

		ctx, stop := signalContext()
		defer stop()

		d, err := storage.NewDrive(ctx, cfg.Drive.CredentialsFile, cfg.Drive.FolderID)
		if err != nil {
			return err
		}
		if err := d.Ping(ctx); err != nil {
			fmt.Printf("  %-25s ❌ %v\n", "Connectivity:", err)
			fmt.Println("═══════════════════════════════════════")
			return fmt.Errorf("drive ping failed: %w", err)
		}
		fmt.Printf("  %-25s ✅ ok\n", "Connectivity:")
		fmt.Println("═══════════════════════════════════════")
		return nil
	},
}
