// Package browse fetches pages from the listing calendar site and hands
// them to the scrape layer as parsed documents. The site serves EUC-KR
// encoded ASP pages, so the fetcher transcodes responses before parsing.
package browse

import (
	"context"

	"github.com/PuerkitoBio/goquery"
)

// Fetcher retrieves a page and returns it as a parsed document.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*goquery.Document, error)
	Close() error
}
