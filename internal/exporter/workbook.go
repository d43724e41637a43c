package exporter

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/xuri/excelize/v2"

	"idxlens/pkg/contracts/domain"
)

// WriteMembershipWorkbook writes the membership table to an Excel workbook,
// one sheet per calendar year, newest year first. Analysts working from
// spreadsheets get the same data as the CSV artifact.
func WriteMembershipWorkbook(path string, memberships []domain.MembershipRecord) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	byYear := make(map[int][]domain.MembershipRecord)
	for _, m := range memberships {
		byYear[m.EffectiveDate.Year()] = append(byYear[m.EffectiveDate.Year()], m)
	}

	years := make([]int, 0, len(byYear))
	for y := range byYear {
		years = append(years, y)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(years)))

	f := excelize.NewFile()
	defer f.Close()

	for i, year := range years {
		sheet := fmt.Sprintf("%d", year)
		if i == 0 {
			// Rename the default sheet instead of leaving it empty.
			if err := f.SetSheetName("Sheet1", sheet); err != nil {
				return fmt.Errorf("failed to rename sheet: %w", err)
			}
		} else {
			if _, err := f.NewSheet(sheet); err != nil {
				return fmt.Errorf("failed to create sheet %s: %w", sheet, err)
			}
		}

		if err := f.SetSheetRow(sheet, "A1", &[]interface{}{"Date", "Symbol", "Name"}); err != nil {
			return fmt.Errorf("failed to write header on sheet %s: %w", sheet, err)
		}

		for row, m := range byYear[year] {
			cell := fmt.Sprintf("A%d", row+2)
			values := []interface{}{m.EffectiveDate.Format("2006-01-02"), m.Symbol, m.Name}
			if err := f.SetSheetRow(sheet, cell, &values); err != nil {
				return fmt.Errorf("failed to write row %d on sheet %s: %w", row+2, sheet, err)
			}
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}

	slog.Info("Wrote membership workbook",
		slog.String("path", path),
		slog.Int("years", len(years)),
		slog.Int("records", len(memberships)))

	return nil
}
