package transport

import (
	"net/http"
	"time"

	"github.com/corecomply/corecomply/model"
)

// discoveryRunRequest optionally overrides the evidence period. When the
// period is omitted the configured lookback window ending now is used.
type discoveryRunRequest struct {
	Period *model.Period `json:"period,omitempty"`
}

func (a *API) handleDiscoveryRun(w http.ResponseWriter, r *http.Request) {
	var req discoveryRunRequest
	if r.ContentLength > 0 {
		if err := decodeJSON(r, &req); err != nil {
			WriteError(w, err)
			return
		}
	}

	var period model.Period
	if req.Period != nil {
		if !req.Period.End.After(req.Period.Start) {
			WriteValidationError(w, []model.FieldError{
				{Field: "period", Code: "invalid", Message: "period end must be after start"},
			})
			return
		}
		period = *req.Period
	} else {
		end := time.Now().UTC()
		period = model.Period{
			Start: end.AddDate(0, -a.Discovery.LookbackMonths, 0),
			End:   end,
		}
	}

	obs := a.Obligations.List(r.Context())
	if len(obs) == 0 {
		WriteError(w, model.NewConflictError(
			"obligation register is empty; seed obligations before running discovery"))
		return
	}

	result := a.Orchestrator.Run(r.Context(), period, a.Org.Footprint(), obs)
	WriteJSON(w, http.StatusOK, result)
}
