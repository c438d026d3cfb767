package transport

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/corecomply/corecomply/internal/config"
	"github.com/corecomply/corecomply/internal/discovery"
	"github.com/corecomply/corecomply/internal/evidence"
	"github.com/corecomply/corecomply/internal/obligations"
	"github.com/corecomply/corecomply/internal/org"
	"github.com/corecomply/corecomply/internal/rasci"
	"github.com/corecomply/corecomply/internal/register"
	"github.com/corecomply/corecomply/internal/setup"
	"github.com/corecomply/corecomply/model"
)

// maxBodyBytes bounds request body reads.
const maxBodyBytes = 1 << 20

// API aggregates the domain stores behind the HTTP handlers.
type API struct {
	Evidence     *evidence.Store
	Orchestrator *discovery.Orchestrator
	Obligations  *obligations.Store
	RASCI        *rasci.Store
	Setup        *setup.Calculator
	Org          *org.Store
	Registers    *register.Store
	Discovery    config.DiscoveryConfig
}

// decodeJSON reads and decodes a JSON request body into dst. Unknown
// fields are rejected so typos surface as 400s instead of silent drops.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return model.NewBadRequestError("invalid JSON body: " + err.Error())
	}
	return nil
}
