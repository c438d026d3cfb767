// Package rasci expands the per-domain responsibility templates against
// the key-personnel directory and serves the adopted assignment map.
package rasci

import "github.com/corecomply/corecomply/model"

// TemplateEntry requests one or more RASCI letters for a role within a
// domain. Each requested letter becomes its own assignment when the
// role is filled.
type TemplateEntry struct {
	Role    model.RoleKey
	Letters []model.RASCILetter
}

// defaultTemplates holds the hard-coded responsibility template for
// each of the 12 control domains. Entry order is the order assignments
// are emitted in.
var defaultTemplates = map[model.ControlDomain][]TemplateEntry{
	model.DomainGovernance: {
		{Role: model.RoleComplianceOwner, Letters: []model.RASCILetter{model.Responsible}},
		{Role: model.RoleCEO, Letters: []model.RASCILetter{model.Accountable}},
		{Role: model.RoleBoardChair, Letters: []model.RASCILetter{model.Consulted}},
		{Role: model.RoleInternalAudit, Letters: []model.RASCILetter{model.Informed}},
	},
	model.DomainPayroll: {
		{Role: model.RolePayrollManager, Letters: []model.RASCILetter{model.Responsible, model.Accountable}},
		{Role: model.RolePayrollOfficer, Letters: []model.RASCILetter{model.Support}},
		{Role: model.RoleFinanceManager, Letters: []model.RASCILetter{model.Consulted}},
		{Role: model.RoleComplianceOwner, Letters: []model.RASCILetter{model.Informed}},
	},
	model.DomainAwards: {
		{Role: model.RoleHRManager, Letters: []model.RASCILetter{model.Responsible}},
		{Role: model.RolePayrollManager, Letters: []model.RASCILetter{model.Accountable}},
		{Role: model.RoleExternalAdvisor, Letters: []model.RASCILetter{model.Consulted}},
		{Role: model.RoleLineManager, Letters: []model.RASCILetter{model.Informed}},
	},
	model.DomainSuperannuation: {
		{Role: model.RolePayrollManager, Letters: []model.RASCILetter{model.Responsible}},
		{Role: model.RoleCFO, Letters: []model.RASCILetter{model.Accountable}},
		{Role: model.RolePayrollOfficer, Letters: []model.RASCILetter{model.Support}},
		{Role: model.RoleComplianceOwner, Letters: []model.RASCILetter{model.Informed}},
	},
	model.DomainTaxReporting: {
		{Role: model.RoleFinanceManager, Letters: []model.RASCILetter{model.Responsible}},
		{Role: model.RoleCFO, Letters: []model.RASCILetter{model.Accountable}},
		{Role: model.RoleExternalAdvisor, Letters: []model.RASCILetter{model.Consulted}},
		{Role: model.RolePayrollManager, Letters: []model.RASCILetter{model.Support}},
	},
	model.DomainRecordKeeping: {
		{Role: model.RolePayrollOfficer, Letters: []model.RASCILetter{model.Responsible}},
		{Role: model.RolePayrollManager, Letters: []model.RASCILetter{model.Accountable}},
		{Role: model.RoleITManager, Letters: []model.RASCILetter{model.Support}},
		{Role: model.RoleInternalAudit, Letters: []model.RASCILetter{model.Informed}},
	},
	model.DomainWorkersComp: {
		{Role: model.RoleHRManager, Letters: []model.RASCILetter{model.Responsible}},
		{Role: model.RoleCFO, Letters: []model.RASCILetter{model.Accountable}},
		{Role: model.RoleLineManager, Letters: []model.RASCILetter{model.Support}},
		{Role: model.RoleComplianceOwner, Letters: []model.RASCILetter{model.Informed}},
	},
	model.DomainLeave: {
		{Role: model.RoleHRManager, Letters: []model.RASCILetter{model.Responsible, model.Accountable}},
		{Role: model.RolePayrollOfficer, Letters: []model.RASCILetter{model.Support}},
		{Role: model.RoleLineManager, Letters: []model.RASCILetter{model.Consulted}},
	},
	model.DomainImmigration: {
		{Role: model.RoleHRManager, Letters: []model.RASCILetter{model.Responsible}},
		{Role: model.RoleCEO, Letters: []model.RASCILetter{model.Accountable}},
		{Role: model.RoleExternalAdvisor, Letters: []model.RASCILetter{model.Consulted}},
		{Role: model.RoleLineManager, Letters: []model.RASCILetter{model.Informed}},
	},
	model.DomainSuppliers: {
		{Role: model.RoleFinanceManager, Letters: []model.RASCILetter{model.Responsible}},
		{Role: model.RoleCFO, Letters: []model.RASCILetter{model.Accountable}},
		{Role: model.RoleComplianceOwner, Letters: []model.RASCILetter{model.Consulted}},
		{Role: model.RoleITManager, Letters: []model.RASCILetter{model.Informed}},
	},
	model.DomainIncidentCAPA: {
		{Role: model.RoleComplianceOwner, Letters: []model.RASCILetter{model.Responsible}},
		{Role: model.RoleCEO, Letters: []model.RASCILetter{model.Accountable}},
		{Role: model.RoleInternalAudit, Letters: []model.RASCILetter{model.Consulted}},
		{Role: model.RoleCompanySecretary, Letters: []model.RASCILetter{model.Informed}},
	},
	model.DomainTraining: {
		{Role: model.RoleHRManager, Letters: []model.RASCILetter{model.Responsible}},
		{Role: model.RoleComplianceOwner, Letters: []model.RASCILetter{model.Accountable}},
		{Role: model.RoleLineManager, Letters: []model.RASCILetter{model.Support}},
		{Role: model.RoleCompanySecretary, Letters: []model.RASCILetter{model.Informed}},
	},
}

// Template returns the template entries for a domain.
func Template(domain model.ControlDomain) []TemplateEntry {
	return defaultTemplates[domain]
}
