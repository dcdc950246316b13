package scrape

import (
	"strconv"

	"github.com/PuerkitoBio/goquery"

	"github.com/hansol-dev/ipowatch/pkg/utils"
)

// carry tracks a cell whose rowspan extends past the current row.
type carry struct {
	remaining int
	text      string
}

// BuildGrid expands a table into a row-major grid of cell strings with
// colspan and rowspan resolved, so every logical cell has a concrete
// row/column position. A cell spanning n columns and m rows appears at all
// n*m covered positions. Rows belonging to tables nested inside the target
// table are ignored.
func BuildGrid(table *goquery.Selection) [][]string {
	if table == nil || table.Length() == 0 {
		return nil
	}

	var grid [][]string
	carries := make(map[int]carry)

	ownRows(table).Each(func(_ int, tr *goquery.Selection) {
		var row []string
		col := 0

		// consume consecutive carried-over cells starting at col
		advance := func() {
			for {
				c, ok := carries[col]
				if !ok {
					break
				}
				row = append(row, c.text)
				c.remaining--
				if c.remaining <= 0 {
					delete(carries, col)
				} else {
					carries[col] = c
				}
				col++
			}
		}

		tr.ChildrenFiltered("td, th").Each(func(_ int, cell *goquery.Selection) {
			advance()

			text := utils.NormalizeSpace(cell.Text())
			colspan := spanAttr(cell, "colspan")
			rowspan := spanAttr(cell, "rowspan")

			for i := 0; i < colspan; i++ {
				row = append(row, text)
				if rowspan > 1 {
					carries[col] = carry{remaining: rowspan - 1, text: text}
				}
				col++
			}
		})
		advance()

		grid = append(grid, row)
	})

	return grid
}

// ownRows returns the tr elements that belong to table itself, skipping
// rows of any nested table.
func ownRows(table *goquery.Selection) *goquery.Selection {
	self := table.Nodes[0]
	return table.Find("tr").FilterFunction(func(_ int, tr *goquery.Selection) bool {
		closest := tr.Closest("table")
		return closest.Length() > 0 && closest.Nodes[0] == self
	})
}

func spanAttr(cell *goquery.Selection, name string) int {
	n, err := strconv.Atoi(cell.AttrOr(name, "1"))
	if err != nil || n < 1 {
		return 1
	}
	return n
}
