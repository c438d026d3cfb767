package model

// Obligation is a compliance requirement record. The matcher treats
// obligations as read-only input; the register owns their lifecycle.
type Obligation struct {
	ID         string   `json:"id"`
	Title      string   `json:"title"`
	ControlRef string   `json:"control_ref,omitempty"`
	Tags       []string `json:"tags"`
}
