package constituents

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"idxlens/pkg/contracts/domain"
)

func writeFixture(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadSnapshot(t *testing.T) {
	path := writeFixture(t, "constituents.csv",
		"Symbol,Name,Sector,SubSector,DateAdded\n"+
			"MMM,3M,Industrials,Industrial Conglomerates,1957-03-04\n"+
			"AOS,A. O. Smith,Industrials,Building Products,2017-07-26\n"+
			",ignored blank symbol,,,\n")

	snapshot, err := LoadSnapshot(path)
	require.NoError(t, err)
	require.Len(t, snapshot, 2)

	assert.Equal(t, "MMM", snapshot[0].Symbol)
	assert.Equal(t, "3M", snapshot[0].Name)
	assert.Equal(t, "Industrials", snapshot[0].Sector)
	require.NotNil(t, snapshot[0].DateAdded)
	assert.Equal(t, time.Date(1957, 3, 4, 0, 0, 0, 0, time.UTC), *snapshot[0].DateAdded)
}

func TestLoadSnapshotReorderedColumns(t *testing.T) {
	path := writeFixture(t, "constituents.csv",
		"Name,Symbol\nApple,AAPL\n")

	snapshot, err := LoadSnapshot(path)
	require.NoError(t, err)
	require.Len(t, snapshot, 1)
	assert.Equal(t, "AAPL", snapshot[0].Symbol)
	assert.Equal(t, "Apple", snapshot[0].Name)
}

func TestLoadSnapshotMissingColumn(t *testing.T) {
	path := writeFixture(t, "constituents.csv", "Ticker,Company\nAAPL,Apple\n")

	_, err := LoadSnapshot(path)
	assert.ErrorContains(t, err, `missing required column "Symbol"`)
}

func TestLoadSnapshotMalformedDate(t *testing.T) {
	path := writeFixture(t, "constituents.csv",
		"Symbol,Name,DateAdded\nAAPL,Apple,not-a-date\n")

	_, err := LoadSnapshot(path)
	assert.ErrorContains(t, err, "invalid DateAdded")
}

func TestLoadChanges(t *testing.T) {
	path := writeFixture(t, "changes.csv",
		"Date,AddedSymbol,AddedName,RemovedSymbol,RemovedName,Reason\n"+
			"2024-03-04,NEW,New Co,OLD,Old Co,Market cap change\n"+
			"2024-05-15,SOLO,Solo Inc,,,S&P 400 promotion\n")

	changes, err := LoadChanges(path)
	require.NoError(t, err)
	require.Len(t, changes, 2)

	assert.Equal(t, time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC), changes[0].EffectiveDate)
	assert.True(t, changes[0].IsAddition())
	assert.True(t, changes[0].IsRemoval())
	assert.Equal(t, "Market cap change", changes[0].Reason)

	assert.True(t, changes[1].IsAddition())
	assert.False(t, changes[1].IsRemoval())
}

func TestLoadChangesMalformedDate(t *testing.T) {
	path := writeFixture(t, "changes.csv", "Date,AddedSymbol\n03/04/2024,NEW\n")

	_, err := LoadChanges(path)
	assert.ErrorContains(t, err, "invalid date")
}

func TestLoadChangesBOM(t *testing.T) {
	path := writeFixture(t, "changes.csv", "\uFEFFDate,AddedSymbol\n2024-01-02,A\n")

	changes, err := LoadChanges(path)
	require.NoError(t, err)
	require.Len(t, changes, 1)
	assert.Equal(t, "A", changes[0].AddedSymbol)
}

func TestMembershipRoundTrip(t *testing.T) {
	memberships := []domain.MembershipRecord{
		{EffectiveDate: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), Symbol: "A", Name: "A Inc"},
		{EffectiveDate: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), Symbol: "B", Name: "B Inc"},
	}

	headers, records := MembershipRecords(memberships)
	assert.Equal(t, []string{"Date", "Symbol", "Name"}, headers)
	require.Len(t, records, 2)
	assert.Equal(t, []string{"2024-06-01", "A", "A Inc"}, records[0])

	// Persist by hand and load back.
	content := "Date,Symbol,Name\n"
	for _, rec := range records {
		content += rec[0] + "," + rec[1] + "," + rec[2] + "\n"
	}
	path := writeFixture(t, "memberships.csv", content)

	loaded, err := LoadMemberships(path)
	require.NoError(t, err)
	assert.Equal(t, memberships, loaded)
}

func TestSnapshotRecords(t *testing.T) {
	added := time.Date(2017, 7, 26, 0, 0, 0, 0, time.UTC)
	headers, records := SnapshotRecords([]domain.Constituent{
		{Symbol: "AOS", Name: "A. O. Smith", Sector: "Industrials", DateAdded: &added},
		{Symbol: "X", Name: "X Corp"},
	})

	assert.Equal(t, []string{"Symbol", "Name", "Sector", "SubSector", "DateAdded"}, headers)
	assert.Equal(t, []string{"AOS", "A. O. Smith", "Industrials", "", "2017-07-26"}, records[0])
	assert.Equal(t, []string{"X", "X Corp", "", "", ""}, records[1])
}

func TestChangeRecords(t *testing.T) {
	_, records := ChangeRecords([]domain.ChangeRecord{
		{
			EffectiveDate: time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC),
			AddedSymbol:   "NEW", AddedName: "New Co",
			RemovedSymbol: "OLD", RemovedName: "Old Co",
			Reason:        "Reconstitution",
		},
	})

	require.Len(t, records, 1)
	assert.Equal(t, []string{"2024-03-04", "NEW", "New Co", "OLD", "Old Co", "Reconstitution"}, records[0])
}

func TestLoadMissingFile(t *testing.T) {
	_, err := LoadSnapshot(filepath.Join(t.TempDir(), "nope.csv"))
	assert.Error(t, err)

	_, err = LoadChanges(filepath.Join(t.TempDir(), "nope.csv"))
	assert.Error(t, err)

	_, err = LoadMemberships(filepath.Join(t.TempDir(), "nope.csv"))
	assert.Error(t, err)
}
