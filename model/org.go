package model

import "time"

// CompanyProfile holds the employing entity's registration details and
// the states it employs in.
type CompanyProfile struct {
	LegalName     string   `json:"legal_name"`
	TradingName   string   `json:"trading_name,omitempty"`
	ABN           string   `json:"abn"`
	States        []string `json:"states"`
	EmployeeCount int      `json:"employee_count,omitempty"`
}

// Footprint derives the state footprint used to scope evidence
// discovery.
func (p CompanyProfile) Footprint() StateFootprint {
	return StateFootprint{States: append([]string(nil), p.States...)}
}

// Person is one entry in the organisation's people list.
type Person struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

// TimetableEntry schedules one recurring compliance activity.
type TimetableEntry struct {
	ControlRef string    `json:"control_ref"`
	Frequency  string    `json:"frequency"`
	NextDue    time.Time `json:"next_due"`
}
