package scrape

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"idxlens/pkg/contracts/domain"
)

// Element ids of the two tables on the reference page.
const (
	constituentsTableID = "constituents"
	changesTableID      = "changes"
)

// footnoteRe strips reference markers like "[4]" that the page appends to
// cell text.
var footnoteRe = regexp.MustCompile(`\[\d+\]`)

// Change-log dates appear as "January 2, 2024"; snapshot date-added cells
// use plain ISO dates. Both are accepted everywhere.
var dateLayouts = []string{"January 2, 2006", "2006-01-02"}

// ParseDocument parses raw page HTML into a goquery document
func ParseDocument(html []byte) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return doc, nil
}

// ParseConstituents extracts the current-membership table, located by its
// element id. Column positions are mapped from the header row, in case the
// page reorders them.
func ParseConstituents(doc *goquery.Document) ([]domain.Constituent, error) {
	table := doc.Find("table#" + constituentsTableID)
	if table.Length() == 0 {
		return nil, fmt.Errorf("table #%s not found in document", constituentsTableID)
	}

	colIdx := make(map[string]int)
	table.Find("thead tr, tr").First().Find("th").Each(func(i int, th *goquery.Selection) {
		header := strings.ToLower(cleanCell(th.Text()))
		switch {
		case strings.Contains(header, "symbol") || strings.Contains(header, "ticker"):
			colIdx["symbol"] = i
		case strings.Contains(header, "security") || strings.Contains(header, "company") || strings.Contains(header, "name"):
			colIdx["name"] = i
		case strings.Contains(header, "sub-industry") || strings.Contains(header, "sub sector"):
			colIdx["subsector"] = i
		case strings.Contains(header, "sector"):
			colIdx["sector"] = i
		case strings.Contains(header, "date"):
			colIdx["dateadded"] = i
		}
	})

	if _, ok := colIdx["symbol"]; !ok {
		return nil, fmt.Errorf("table #%s: no symbol column in header", constituentsTableID)
	}

	var constituents []domain.Constituent
	var parseErr error

	table.Find("tbody tr").EachWithBreak(func(_ int, tr *goquery.Selection) bool {
		cells := tr.Find("td")
		if cells.Length() == 0 {
			return true // header row
		}

		cell := func(name string) string {
			i, ok := colIdx[name]
			if !ok || i >= cells.Length() {
				return ""
			}
			return cleanCell(cells.Eq(i).Text())
		}

		c := domain.Constituent{
			Symbol:    cell("symbol"),
			Name:      cell("name"),
			Sector:    cell("sector"),
			SubSector: cell("subsector"),
		}
		if c.Symbol == "" {
			return true
		}

		if s := cell("dateadded"); s != "" {
			t, err := parseDate(s)
			if err != nil {
				parseErr = fmt.Errorf("constituent %s: %w", c.Symbol, err)
				return false
			}
			c.DateAdded = &t
		}

		constituents = append(constituents, c)
		return true
	})

	if parseErr != nil {
		return nil, parseErr
	}
	if len(constituents) == 0 {
		return nil, fmt.Errorf("table #%s: no constituent rows parsed", constituentsTableID)
	}

	return constituents, nil
}

// ParseChanges extracts the historical-changes table, located by its element
// id. The table has a two-level header (Added/Removed each split into
// Ticker and Security), so data cells are read positionally:
// date, added ticker, added name, removed ticker, removed name, reason.
func ParseChanges(doc *goquery.Document) ([]domain.ChangeRecord, error) {
	table := doc.Find("table#" + changesTableID)
	if table.Length() == 0 {
		return nil, fmt.Errorf("table #%s not found in document", changesTableID)
	}

	var changes []domain.ChangeRecord
	var parseErr error
	lastDate := time.Time{}

	table.Find("tbody tr").EachWithBreak(func(_ int, tr *goquery.Selection) bool {
		cells := tr.Find("td")
		if cells.Length() == 0 {
			return true // header rows carry only th cells
		}

		texts := make([]string, cells.Length())
		for i := range texts {
			texts[i] = cleanCell(cells.Eq(i).Text())
		}

		// Rows sharing a date use rowspan on the date cell, leaving five
		// cells; those rows reuse the previous row's date.
		var rec domain.ChangeRecord
		switch {
		case len(texts) >= 6:
			date, err := parseDate(texts[0])
			if err != nil {
				parseErr = fmt.Errorf("change row %q: %w", texts[0], err)
				return false
			}
			lastDate = date
			rec = domain.ChangeRecord{
				EffectiveDate: date,
				AddedSymbol:   texts[1], AddedName: texts[2],
				RemovedSymbol: texts[3], RemovedName: texts[4],
				Reason: texts[5],
			}
		case len(texts) == 5 && !lastDate.IsZero():
			rec = domain.ChangeRecord{
				EffectiveDate: lastDate,
				AddedSymbol:   texts[0], AddedName: texts[1],
				RemovedSymbol: texts[2], RemovedName: texts[3],
				Reason: texts[4],
			}
		default:
			return true // malformed row, skipped rather than validated
		}

		changes = append(changes, rec)
		return true
	})

	if parseErr != nil {
		return nil, parseErr
	}
	if len(changes) == 0 {
		return nil, fmt.Errorf("table #%s: no change rows parsed", changesTableID)
	}

	return changes, nil
}

// cleanCell normalizes one table cell: footnote markers dropped, whitespace
// collapsed.
func cleanCell(s string) string {
	s = footnoteRe.ReplaceAllString(s, "")
	return strings.Join(strings.Fields(s), " ")
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}
