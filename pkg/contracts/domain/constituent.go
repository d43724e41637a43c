package domain

import (
	"time"
)

// Constituent represents one member of the current index snapshot as
// published on the reference page.
type Constituent struct {
	Symbol    string     `json:"symbol" validate:"required,min=1,max=10"`
	Name      string     `json:"name" validate:"required"`
	Sector    string     `json:"sector,omitempty"`
	SubSector string     `json:"sub_sector,omitempty"`
	DateAdded *time.Time `json:"date_added,omitempty"`
}

// MembershipRecord represents one constituent's presence in the index for
// one monthly snapshot.
type MembershipRecord struct {
	EffectiveDate time.Time `json:"effective_date" validate:"required"`
	Symbol        string    `json:"symbol" validate:"required"`
	Name          string    `json:"name"`
}

// ChangeRecord represents one index reconstitution event. Either side may
// be empty: a pure addition has no removed symbol and vice versa.
type ChangeRecord struct {
	EffectiveDate time.Time `json:"effective_date" validate:"required"`
	AddedSymbol   string    `json:"added_symbol,omitempty"`
	AddedName     string    `json:"added_name,omitempty"`
	RemovedSymbol string    `json:"removed_symbol,omitempty"`
	RemovedName   string    `json:"removed_name,omitempty"`
	Reason        string    `json:"reason,omitempty"`
}

// Month returns the change's effective year and month, which is the
// granularity the reconstruction operates at.
func (c ChangeRecord) Month() (int, time.Month) {
	return c.EffectiveDate.Year(), c.EffectiveDate.Month()
}

// IsAddition reports whether the event records a symbol joining the index.
func (c ChangeRecord) IsAddition() bool {
	return c.AddedSymbol != ""
}

// IsRemoval reports whether the event records a symbol leaving the index.
func (c ChangeRecord) IsRemoval() bool {
	return c.RemovedSymbol != ""
}
