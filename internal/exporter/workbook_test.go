package exporter

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"idxlens/pkg/contracts/domain"
)

func TestWriteMembershipWorkbook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reports", "memberships.xlsx")

	memberships := []domain.MembershipRecord{
		{EffectiveDate: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), Symbol: "A", Name: "A Inc"},
		{EffectiveDate: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), Symbol: "B", Name: "B Inc"},
		{EffectiveDate: time.Date(2023, 12, 1, 0, 0, 0, 0, time.UTC), Symbol: "C", Name: "C Inc"},
	}

	require.NoError(t, WriteMembershipWorkbook(path, memberships))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	// One sheet per year, newest first.
	sheets := f.GetSheetList()
	assert.Equal(t, []string{"2024", "2023"}, sheets)

	rows, err := f.GetRows("2024")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Date", "Symbol", "Name"}, rows[0])
	assert.Equal(t, []string{"2024-06-01", "A", "A Inc"}, rows[1])

	rows, err = f.GetRows("2023")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"2023-12-01", "C", "C Inc"}, rows[1])
}

func TestWriteMembershipWorkbookEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "memberships.xlsx")

	require.NoError(t, WriteMembershipWorkbook(path, nil))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{"Sheet1"}, f.GetSheetList())
}
