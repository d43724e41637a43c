package scrape

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fixtureHTML = `
<html><body>
<table id="constituents" class="wikitable">
<thead><tr><th>Symbol</th><th>Security</th><th>GICS Sector</th><th>GICS Sub-Industry</th><th>Date added</th></tr></thead>
<tbody>
<tr><td>MMM</td><td>3M</td><td>Industrials</td><td>Industrial Conglomerates</td><td>1957-03-04</td></tr>
<tr><td>AOS[1]</td><td>A. O. Smith</td><td>Industrials</td><td>Building Products</td><td>July 26, 2017</td></tr>
<tr><td>ABT</td><td>Abbott</td><td>Health Care</td><td>Health Care Equipment</td><td></td></tr>
</tbody>
</table>
<table id="changes" class="wikitable">
<tbody>
<tr><th rowspan="2">Date</th><th colspan="2">Added</th><th colspan="2">Removed</th><th rowspan="2">Reason</th></tr>
<tr><th>Ticker</th><th>Security</th><th>Ticker</th><th>Security</th></tr>
<tr><td rowspan="2">March 4, 2024</td><td>NEW</td><td>New Co</td><td>OLD</td><td>Old Co</td><td>Market cap change.[2]</td></tr>
<tr><td>NEW2</td><td>Second Co</td><td></td><td></td><td>S&amp;P 400 promotion</td></tr>
<tr><td>January 2, 2024</td><td></td><td></td><td>GONE</td><td>Gone Corp</td><td>Acquired</td></tr>
</tbody>
</table>
</body></html>`

func TestParseConstituents(t *testing.T) {
	doc, err := ParseDocument([]byte(fixtureHTML))
	require.NoError(t, err)

	constituents, err := ParseConstituents(doc)
	require.NoError(t, err)
	require.Len(t, constituents, 3)

	assert.Equal(t, "MMM", constituents[0].Symbol)
	assert.Equal(t, "3M", constituents[0].Name)
	assert.Equal(t, "Industrials", constituents[0].Sector)
	assert.Equal(t, "Industrial Conglomerates", constituents[0].SubSector)
	require.NotNil(t, constituents[0].DateAdded)
	assert.Equal(t, time.Date(1957, 3, 4, 0, 0, 0, 0, time.UTC), *constituents[0].DateAdded)

	// Footnote markers are stripped; month-word dates parse.
	assert.Equal(t, "AOS", constituents[1].Symbol)
	require.NotNil(t, constituents[1].DateAdded)
	assert.Equal(t, time.Date(2017, 7, 26, 0, 0, 0, 0, time.UTC), *constituents[1].DateAdded)

	// Missing date-added cell stays nil.
	assert.Nil(t, constituents[2].DateAdded)
}

func TestParseChanges(t *testing.T) {
	doc, err := ParseDocument([]byte(fixtureHTML))
	require.NoError(t, err)

	changes, err := ParseChanges(doc)
	require.NoError(t, err)
	require.Len(t, changes, 3)

	march := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, march, changes[0].EffectiveDate)
	assert.Equal(t, "NEW", changes[0].AddedSymbol)
	assert.Equal(t, "New Co", changes[0].AddedName)
	assert.Equal(t, "OLD", changes[0].RemovedSymbol)
	assert.Equal(t, "Old Co", changes[0].RemovedName)
	assert.Equal(t, "Market cap change.", changes[0].Reason)

	// Rowspan row inherits the previous date.
	assert.Equal(t, march, changes[1].EffectiveDate)
	assert.Equal(t, "NEW2", changes[1].AddedSymbol)
	assert.False(t, changes[1].IsRemoval())

	assert.Equal(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), changes[2].EffectiveDate)
	assert.False(t, changes[2].IsAddition())
	assert.Equal(t, "GONE", changes[2].RemovedSymbol)
}

func TestParseConstituentsMissingTable(t *testing.T) {
	doc, err := ParseDocument([]byte("<html><body><p>nothing here</p></body></html>"))
	require.NoError(t, err)

	_, err = ParseConstituents(doc)
	assert.ErrorContains(t, err, "table #constituents not found")

	_, err = ParseChanges(doc)
	assert.ErrorContains(t, err, "table #changes not found")
}

func TestParseConstituentsNoSymbolColumn(t *testing.T) {
	html := `<table id="constituents"><tr><th>Foo</th></tr><tbody><tr><td>x</td></tr></tbody></table>`
	doc, err := ParseDocument([]byte(html))
	require.NoError(t, err)

	_, err = ParseConstituents(doc)
	assert.ErrorContains(t, err, "no symbol column")
}

func TestParseChangesMalformedDate(t *testing.T) {
	html := `<table id="changes"><tbody>
<tr><td>sometime 2024</td><td>A</td><td>A Co</td><td></td><td></td><td>r</td></tr>
</tbody></table>`
	doc, err := ParseDocument([]byte(html))
	require.NoError(t, err)

	_, err = ParseChanges(doc)
	assert.ErrorContains(t, err, "unrecognized date")
}

func TestCleanCell(t *testing.T) {
	assert.Equal(t, "3M Company", cleanCell("  3M \n Company[12] "))
	assert.Equal(t, "", cleanCell("[1]"))
}
