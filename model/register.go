package model

import "time"

// Supplier risk ratings.
const (
	RiskLow    = "low"
	RiskMedium = "medium"
	RiskHigh   = "high"
)

// Supplier is one entry in the supplier evaluation register.
type Supplier struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Service      string     `json:"service,omitempty"`
	RiskRating   string     `json:"risk_rating"`
	LastReviewed *time.Time `json:"last_reviewed,omitempty"`
	Notes        string     `json:"notes,omitempty"`
}

// Nonconformity statuses.
const (
	NCOpen   = "open"
	NCClosed = "closed"
)

// Nonconformity records a compliance failure and its corrective
// actions. It stays open until every action is done and it is
// explicitly closed.
type Nonconformity struct {
	ID          string             `json:"id"`
	Title       string             `json:"title"`
	Description string             `json:"description,omitempty"`
	ControlRef  string             `json:"control_ref,omitempty"`
	Severity    string             `json:"severity"`
	Status      string             `json:"status"`
	RaisedAt    time.Time          `json:"raised_at"`
	ClosedAt    *time.Time         `json:"closed_at,omitempty"`
	Actions     []CorrectiveAction `json:"actions,omitempty"`
}

// CorrectiveAction is one CAPA item attached to a nonconformity.
type CorrectiveAction struct {
	ID          string     `json:"id"`
	Description string     `json:"description"`
	Owner       string     `json:"owner,omitempty"`
	DueDate     time.Time  `json:"due_date"`
	DoneAt      *time.Time `json:"done_at,omitempty"`
}
