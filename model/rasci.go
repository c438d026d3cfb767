package model

// RoleKey is an abstract organizational role that the key-personnel
// directory maps to a concrete person.
type RoleKey string

// The 13 fixed role keys.
const (
	RoleCEO              RoleKey = "CEO"
	RoleCFO              RoleKey = "CFO"
	RoleBoardChair       RoleKey = "BoardChair"
	RoleCompanySecretary RoleKey = "CompanySecretary"
	RoleComplianceOwner  RoleKey = "ComplianceOwner"
	RolePayrollManager   RoleKey = "PayrollManager"
	RolePayrollOfficer   RoleKey = "PayrollOfficer"
	RoleHRManager        RoleKey = "HRManager"
	RoleFinanceManager   RoleKey = "FinanceManager"
	RoleITManager        RoleKey = "ITManager"
	RoleLineManager      RoleKey = "LineManager"
	RoleInternalAudit    RoleKey = "InternalAudit"
	RoleExternalAdvisor  RoleKey = "ExternalAdvisor"
)

// AllRoleKeys lists every role key in directory display order.
var AllRoleKeys = []RoleKey{
	RoleCEO, RoleCFO, RoleBoardChair, RoleCompanySecretary,
	RoleComplianceOwner, RolePayrollManager, RolePayrollOfficer,
	RoleHRManager, RoleFinanceManager, RoleITManager, RoleLineManager,
	RoleInternalAudit, RoleExternalAdvisor,
}

// RoleDirectory maps role keys to person identifiers. A missing key and
// an empty value both mean the role is unassigned.
type RoleDirectory map[RoleKey]string

// Person returns the assigned person identifier for the role, and
// whether the role is assigned at all.
func (d RoleDirectory) Person(key RoleKey) (string, bool) {
	p, ok := d[key]
	if !ok || p == "" {
		return "", false
	}
	return p, true
}

// RASCILetter is one of the five responsibility-assignment letters.
type RASCILetter string

const (
	Responsible RASCILetter = "R"
	Accountable RASCILetter = "A"
	Support     RASCILetter = "S"
	Consulted   RASCILetter = "C"
	Informed    RASCILetter = "I"
)

// ControlDomain is one of the fixed business areas that default
// responsibility templates are grouped by.
type ControlDomain string

// The 12 fixed control domains.
const (
	DomainGovernance     ControlDomain = "governance"
	DomainPayroll        ControlDomain = "payroll-processing"
	DomainAwards         ControlDomain = "award-interpretation"
	DomainSuperannuation ControlDomain = "superannuation"
	DomainTaxReporting   ControlDomain = "tax-reporting"
	DomainRecordKeeping  ControlDomain = "record-keeping"
	DomainWorkersComp    ControlDomain = "workers-compensation"
	DomainLeave          ControlDomain = "leave-management"
	DomainImmigration    ControlDomain = "immigration-compliance"
	DomainSuppliers      ControlDomain = "supplier-management"
	DomainIncidentCAPA   ControlDomain = "incident-capa"
	DomainTraining       ControlDomain = "training-awareness"
)

// AllControlDomains lists every control domain. Adoption always emits an
// entry for each of these, even when the entry is empty.
var AllControlDomains = []ControlDomain{
	DomainGovernance, DomainPayroll, DomainAwards, DomainSuperannuation,
	DomainTaxReporting, DomainRecordKeeping, DomainWorkersComp,
	DomainLeave, DomainImmigration, DomainSuppliers, DomainIncidentCAPA,
	DomainTraining,
}

// RASCIAssignment binds a role (and the person currently holding it) to
// a responsibility letter within one control domain.
type RASCIAssignment struct {
	Role   RoleKey     `json:"role"`
	Person string      `json:"person"`
	Letter RASCILetter `json:"letter"`
}

// GroupedAssignments is the read shape for a single domain: the stored
// assignment list grouped by letter. Letters with no assignments hold
// empty slices, never nil.
type GroupedAssignments struct {
	R []RASCIAssignment `json:"R"`
	A []RASCIAssignment `json:"A"`
	S []RASCIAssignment `json:"S"`
	C []RASCIAssignment `json:"C"`
	I []RASCIAssignment `json:"I"`
}

// EmptyGroupedAssignments returns a GroupedAssignments with all five
// letters present and empty.
func EmptyGroupedAssignments() GroupedAssignments {
	return GroupedAssignments{
		R: []RASCIAssignment{},
		A: []RASCIAssignment{},
		S: []RASCIAssignment{},
		C: []RASCIAssignment{},
		I: []RASCIAssignment{},
	}
}
