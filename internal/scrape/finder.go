package scrape

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/hansol-dev/ipowatch/pkg/utils"
)

// TableFinder locates the shareholder status table on a detail page.
// Implementations return nil when their heuristic finds nothing.
type TableFinder interface {
	Find(doc *goquery.Document) *goquery.Selection
}

// FinderChain tries finders in priority order and returns the first hit.
type FinderChain struct {
	finders []TableFinder
}

// NewFinderChain builds the default strategy order: title sibling, title
// following, header content, row content.
func NewFinderChain(labels ShareholderLabels) *FinderChain {
	return &FinderChain{
		finders: []TableFinder{
			titleSiblingFinder{title: labels.Title},
			titleFollowingFinder{title: labels.Title},
			headerContentFinder{keywords: labels.HeaderKeywords},
			rowContentFinder{keywords: labels.RowKeywords},
		},
	}
}

// Find runs the chain. Returns nil when every strategy misses.
func (fc *FinderChain) Find(doc *goquery.Document) *goquery.Selection {
	for _, f := range fc.finders {
		if table := f.Find(doc); table != nil && table.Length() > 0 {
			return table
		}
	}
	return nil
}

// titleSiblingFinder matches a section heading by its own text and takes
// the immediately following sibling when it is a table.
type titleSiblingFinder struct {
	title string
}

func (f titleSiblingFinder) Find(doc *goquery.Document) *goquery.Selection {
	var found *goquery.Selection
	titleElements(doc, f.title).EachWithBreak(func(_ int, el *goquery.Selection) bool {
		next := el.Next()
		if next.Is("table") {
			found = next
			return false
		}
		return true
	})
	return found
}

// titleFollowingFinder walks the document in order and returns the first
// table appearing after the section heading, regardless of nesting.
type titleFollowingFinder struct {
	title string
}

func (f titleFollowingFinder) Find(doc *goquery.Document) *goquery.Selection {
	titles := titleElements(doc, f.title)
	if titles.Length() == 0 {
		return nil
	}
	titleNode := titles.Nodes[0]

	var found *html.Node
	seen := false
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if found != nil {
			return
		}
		if n == titleNode {
			seen = true
		} else if seen && n.Type == html.ElementNode && n.Data == "table" {
			found = n
			return
		}
		for c := n.FirstChild; c != nil && found == nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, root := range doc.Nodes {
		walk(root)
	}
	if found == nil {
		return nil
	}
	return doc.FindNodes(found)
}

// headerContentFinder picks the table whose header rows carry all of the
// expected column keywords in a single cell.
type headerContentFinder struct {
	keywords []string
}

func (f headerContentFinder) Find(doc *goquery.Document) *goquery.Selection {
	return scanTables(doc, headerRowLimit, func(text string) bool {
		return containsAll(text, f.keywords)
	})
}

// rowContentFinder is the last resort: any table with a body cell holding
// one of the keywords found only in shareholder data rows.
type rowContentFinder struct {
	keywords []string
}

func (f rowContentFinder) Find(doc *goquery.Document) *goquery.Selection {
	return scanTables(doc, 0, func(text string) bool {
		return containsAny(text, f.keywords)
	})
}

// headerRowLimit bounds how deep into a table header keywords are expected.
const headerRowLimit = 5

// scanTables returns the first table with a cell matching the predicate
// within the first rowLimit of its own rows (0 means all rows). Cells that
// wrap a nested table are skipped so an outer layout table cannot shadow
// the table actually holding the data.
func scanTables(doc *goquery.Document, rowLimit int, match func(string) bool) *goquery.Selection {
	var found *goquery.Selection
	doc.Find("table").EachWithBreak(func(_ int, table *goquery.Selection) bool {
		hit := false
		ownRows(table).EachWithBreak(func(rowIdx int, tr *goquery.Selection) bool {
			if rowLimit > 0 && rowIdx >= rowLimit {
				return false
			}
			tr.ChildrenFiltered("td, th").EachWithBreak(func(_ int, cell *goquery.Selection) bool {
				if cell.Find("table").Length() > 0 {
					return true
				}
				if match(utils.NormalizeSpace(cell.Text())) {
					hit = true
					return false
				}
				return true
			})
			return !hit
		})
		if hit {
			found = table
			return false
		}
		return true
	})
	return found
}

// titleElements returns elements whose direct text nodes contain the title,
// ignoring text of nested elements so the smallest enclosing element wins.
func titleElements(doc *goquery.Document, title string) *goquery.Selection {
	return doc.Find("*").FilterFunction(func(_ int, el *goquery.Selection) bool {
		return strings.Contains(utils.NormalizeSpace(directText(el)), title)
	})
}

func directText(el *goquery.Selection) string {
	var b strings.Builder
	for _, n := range el.Nodes {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.TextNode {
				b.WriteString(c.Data)
			}
		}
	}
	return b.String()
}

func containsAll(text string, keywords []string) bool {
	for _, kw := range keywords {
		if !strings.Contains(text, kw) {
			return false
		}
	}
	return len(keywords) > 0
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
