package constituents

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"idxlens/pkg/contracts/domain"
)

const dateLayout = "2006-01-02"

// Column headers for the persisted artifacts. Loaders map columns by header
// name rather than position, so reordered files still parse.
var (
	constituentHeaders = []string{"Symbol", "Name", "Sector", "SubSector", "DateAdded"}
	changeHeaders      = []string{"Date", "AddedSymbol", "AddedName", "RemovedSymbol", "RemovedName", "Reason"}
	membershipHeaders  = []string{"Date", "Symbol", "Name"}
)

// columnIndex maps required header names to their positions, failing fast
// when one is missing.
func columnIndex(header []string, required ...string) (map[string]int, error) {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.TrimSpace(h)] = i
	}

	for _, name := range required {
		if _, ok := idx[name]; !ok {
			return nil, fmt.Errorf("missing required column %q", name)
		}
	}
	return idx, nil
}

func field(row []string, idx map[string]int, name string) string {
	i, ok := idx[name]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// LoadSnapshot reads a constituents snapshot CSV
func LoadSnapshot(path string) ([]domain.Constituent, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot header: %w", err)
	}

	idx, err := columnIndex(stripBOM(header), "Symbol", "Name")
	if err != nil {
		return nil, fmt.Errorf("snapshot %s: %w", path, err)
	}

	var out []domain.Constituent
	for line := 2; ; line++ {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("snapshot %s line %d: %w", path, line, err)
		}

		c := domain.Constituent{
			Symbol:    field(row, idx, "Symbol"),
			Name:      field(row, idx, "Name"),
			Sector:    field(row, idx, "Sector"),
			SubSector: field(row, idx, "SubSector"),
		}
		if c.Symbol == "" {
			continue
		}

		if s := field(row, idx, "DateAdded"); s != "" {
			t, err := time.Parse(dateLayout, s)
			if err != nil {
				return nil, fmt.Errorf("snapshot %s line %d: invalid DateAdded %q: %w", path, line, s, err)
			}
			c.DateAdded = &t
		}

		out = append(out, c)
	}

	return out, nil
}

// LoadChanges reads a reconstitution change log CSV. Rows are returned in
// file order; the reconstruction relies on that order for its
// last-write-wins behavior.
func LoadChanges(path string) ([]domain.ChangeRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open change log: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read change log header: %w", err)
	}

	idx, err := columnIndex(stripBOM(header), "Date")
	if err != nil {
		return nil, fmt.Errorf("change log %s: %w", path, err)
	}

	var out []domain.ChangeRecord
	for line := 2; ; line++ {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("change log %s line %d: %w", path, line, err)
		}

		dateStr := field(row, idx, "Date")
		if dateStr == "" {
			continue
		}
		date, err := time.Parse(dateLayout, dateStr)
		if err != nil {
			return nil, fmt.Errorf("change log %s line %d: invalid date %q: %w", path, line, dateStr, err)
		}

		out = append(out, domain.ChangeRecord{
			EffectiveDate: date,
			AddedSymbol:   field(row, idx, "AddedSymbol"),
			AddedName:     field(row, idx, "AddedName"),
			RemovedSymbol: field(row, idx, "RemovedSymbol"),
			RemovedName:   field(row, idx, "RemovedName"),
			Reason:        field(row, idx, "Reason"),
		})
	}

	return out, nil
}

// LoadMemberships reads a previously persisted membership table
func LoadMemberships(path string) ([]domain.MembershipRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open memberships: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read memberships header: %w", err)
	}

	idx, err := columnIndex(stripBOM(header), "Date", "Symbol")
	if err != nil {
		return nil, fmt.Errorf("memberships %s: %w", path, err)
	}

	var out []domain.MembershipRecord
	for line := 2; ; line++ {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("memberships %s line %d: %w", path, line, err)
		}

		dateStr := field(row, idx, "Date")
		date, err := time.Parse(dateLayout, dateStr)
		if err != nil {
			return nil, fmt.Errorf("memberships %s line %d: invalid date %q: %w", path, line, dateStr, err)
		}

		out = append(out, domain.MembershipRecord{
			EffectiveDate: date,
			Symbol:        field(row, idx, "Symbol"),
			Name:          field(row, idx, "Name"),
		})
	}

	return out, nil
}

// SnapshotRecords converts constituents to CSV rows for the exporter
func SnapshotRecords(snapshot []domain.Constituent) ([]string, [][]string) {
	records := make([][]string, 0, len(snapshot))
	for _, c := range snapshot {
		dateAdded := ""
		if c.DateAdded != nil {
			dateAdded = c.DateAdded.Format(dateLayout)
		}
		records = append(records, []string{c.Symbol, c.Name, c.Sector, c.SubSector, dateAdded})
	}
	return constituentHeaders, records
}

// ChangeRecords converts change events to CSV rows for the exporter
func ChangeRecords(log []domain.ChangeRecord) ([]string, [][]string) {
	records := make([][]string, 0, len(log))
	for _, c := range log {
		records = append(records, []string{
			c.EffectiveDate.Format(dateLayout),
			c.AddedSymbol, c.AddedName,
			c.RemovedSymbol, c.RemovedName,
			c.Reason,
		})
	}
	return changeHeaders, records
}

// MembershipRecords converts membership rows to CSV rows for the exporter
func MembershipRecords(memberships []domain.MembershipRecord) ([]string, [][]string) {
	records := make([][]string, 0, len(memberships))
	for _, m := range memberships {
		records = append(records, []string{m.EffectiveDate.Format(dateLayout), m.Symbol, m.Name})
	}
	return membershipHeaders, records
}

// stripBOM removes a UTF-8 BOM from the first header cell if present
func stripBOM(header []string) []string {
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\uFEFF")
	}
	return header
}
