package discovery

import (
	"context"
	"fmt"

	"github.com/corecomply/corecomply/model"
)

// DefaultAdapters returns the fixed registry of the nine integration
// adapters. Until the real feed connectors land, these synthesize the
// records each feed would return for the requested period, with the
// reference formats the matcher's relevance table keys off.
func DefaultAdapters() []Adapter {
	return []Adapter{
		NewAdapterFunc(model.SourceSTP, fetchSTP),
		NewAdapterFunc(model.SourceSuperStream, fetchSuperStream),
		NewAdapterFunc(model.SourceBAS, fetchBAS),
		NewAdapterFunc(model.SourcePayrollTax, fetchPayrollTax),
		NewAdapterFunc(model.SourceWorkersComp, fetchWorkersComp),
		NewAdapterFunc(model.SourceLSL, fetchLSL),
		NewAdapterFunc(model.SourceVEVO, fetchVEVO),
		NewAdapterFunc(model.SourceStapled, fetchStapled),
		NewAdapterFunc(model.SourcePayslip, fetchPayslip),
	}
}

func periodLabel(p model.Period) string {
	return p.End.Format("2006-01")
}

func quarterLabel(p model.Period) string {
	q := (int(p.End.Month())-1)/3 + 1
	return fmt.Sprintf("Q%d-%d", q, p.End.Year())
}

func fetchSTP(_ context.Context, period model.Period, _ model.StateFootprint) ([]model.SourceRecord, error) {
	label := periodLabel(period)
	return []model.SourceRecord{
		{
			Title:          "STP pay event submission " + label,
			Period:         period,
			Tags:           []string{"STP", "payroll", "wages", "ATO"},
			IntegrationRef: "STP-" + label,
		},
		{
			Title:          "STP finalisation declaration " + label,
			Period:         period,
			Tags:           []string{"STP", "payroll", "finalisation", "ATO"},
			IntegrationRef: "STP-FINAL-" + label,
		},
	}, nil
}

func fetchSuperStream(_ context.Context, period model.Period, _ model.StateFootprint) ([]model.SourceRecord, error) {
	label := quarterLabel(period)
	return []model.SourceRecord{
		{
			Title:          "SuperStream contribution batch " + label,
			Period:         period,
			Tags:           []string{"super", "superannuation", "SG", "SuperStream"},
			IntegrationRef: "SUPER-" + label,
		},
	}, nil
}

func fetchBAS(_ context.Context, period model.Period, _ model.StateFootprint) ([]model.SourceRecord, error) {
	label := quarterLabel(period)
	return []model.SourceRecord{
		{
			Title:          "BAS lodgement " + label,
			Period:         period,
			Tags:           []string{"BAS", "tax", "GST", "PAYG", "ATO"},
			IntegrationRef: "BAS-" + label,
		},
	}, nil
}

func fetchPayrollTax(_ context.Context, period model.Period, footprint model.StateFootprint) ([]model.SourceRecord, error) {
	label := periodLabel(period)
	records := make([]model.SourceRecord, 0, len(footprint.States))
	for _, state := range footprint.States {
		records = append(records, model.SourceRecord{
			Title:          fmt.Sprintf("Payroll tax return %s %s", state, label),
			Period:         period,
			Tags:           []string{"payroll tax", "state revenue", state},
			IntegrationRef: fmt.Sprintf("PRT-%s-%s", state, label),
		})
	}
	return records, nil
}

func fetchWorkersComp(_ context.Context, period model.Period, footprint model.StateFootprint) ([]model.SourceRecord, error) {
	records := make([]model.SourceRecord, 0, len(footprint.States))
	for _, state := range footprint.States {
		records = append(records, model.SourceRecord{
			Title:          fmt.Sprintf("Workers compensation policy certificate %s", state),
			Period:         period,
			Tags:           []string{"workers compensation", "premium", state},
			IntegrationRef: fmt.Sprintf("WC-%s-%d", state, period.End.Year()),
		})
	}
	return records, nil
}

func fetchLSL(_ context.Context, period model.Period, footprint model.StateFootprint) ([]model.SourceRecord, error) {
	records := make([]model.SourceRecord, 0, len(footprint.States))
	for _, state := range footprint.States {
		records = append(records, model.SourceRecord{
			Title:          fmt.Sprintf("Long service leave levy return %s", state),
			Period:         period,
			Tags:           []string{"long service leave", "LSL", state},
			IntegrationRef: fmt.Sprintf("LSL-%s-%d", state, period.End.Year()),
		})
	}
	return records, nil
}

func fetchVEVO(_ context.Context, period model.Period, _ model.StateFootprint) ([]model.SourceRecord, error) {
	label := periodLabel(period)
	return []model.SourceRecord{
		{
			Title:          "VEVO work rights check batch " + label,
			Period:         period,
			Tags:           []string{"VEVO", "visa", "work rights", "immigration"},
			IntegrationRef: "VEVO-" + label,
		},
	}, nil
}

func fetchStapled(_ context.Context, period model.Period, _ model.StateFootprint) ([]model.SourceRecord, error) {
	label := periodLabel(period)
	return []model.SourceRecord{
		{
			Title:          "Stapled super fund requests " + label,
			Period:         period,
			Tags:           []string{"stapled", "choice of fund", "super"},
			IntegrationRef: "STAPLED-" + label,
		},
	}, nil
}

func fetchPayslip(_ context.Context, period model.Period, _ model.StateFootprint) ([]model.SourceRecord, error) {
	label := periodLabel(period)
	return []model.SourceRecord{
		{
			Title:          "Payslip distribution log " + label,
			Period:         period,
			Tags:           []string{"payslip", "wages", "record keeping"},
			IntegrationRef: "PAYSLIP-" + label,
		},
	}, nil
}
