package model

// StepKey identifies a setup wizard step.
type StepKey string

// The 8 fixed setup steps, in wizard order. Review is a terminal manual
// action and never counts as complete.
const (
	StepIntegrations      StepKey = "integrations"
	StepCompanyProfile    StepKey = "companyProfile"
	StepPeople            StepKey = "people"
	StepRASCI             StepKey = "rasci"
	StepObligationsSeed   StepKey = "obligationsSeed"
	StepTimetable         StepKey = "timetable"
	StepEvidenceDiscovery StepKey = "evidenceDiscovery"
	StepReview            StepKey = "review"
)
