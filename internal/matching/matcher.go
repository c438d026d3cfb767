// Package matching scores raw evidence records against the obligation
// register and assembles evidence artifacts from the retained matches.
package matching

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/corecomply/corecomply/model"
)

// Scoring weights. All signals are additive-only; the final score is
// clamped to 1.0.
const (
	weightControlRef  = 0.50
	weightTagOverlap  = 0.05
	tagOverlapCap     = 0.20
	weightRecencyYear = 0.15
	weightIntegration = 0.10
	weightRecencyQtr  = 0.05
)

// RetentionThreshold is the minimum score for a match to be attached to
// an artifact.
const RetentionThreshold = 0.50

// maxObligationRefs caps how many retained matches an artifact carries.
const maxObligationRefs = 3

// integrationKeywords maps an integration-reference prefix (the text
// before the first dash, matched case-sensitively) to the keywords that
// indicate the feed is relevant to an obligation. An unrecognized
// prefix simply earns no bonus.
var integrationKeywords = map[string][]string{
	"STP":     {"stp", "payroll", "wages", "ato"},
	"SUPER":   {"super", "superannuation", "sg", "superstream"},
	"BAS":     {"bas", "gst", "payg", "tax", "ato"},
	"PRT":     {"payroll tax", "prt", "state revenue"},
	"WC":      {"workers compensation", "workcover", "premium"},
	"LSL":     {"long service leave", "lsl", "portable leave"},
	"VEVO":    {"vevo", "visa", "work rights", "immigration"},
	"STAPLED": {"stapled", "choice of fund", "super"},
	"PAYSLIP": {"payslip", "wages", "record keeping"},
}

// Match pairs an obligation with the confidence the matcher assigned.
type Match struct {
	ObligationID string  `json:"obligation_id"`
	Score        float64 `json:"score"`
}

// Matcher scores evidence records against obligations. It is stateless
// and safe for concurrent use.
type Matcher struct{}

// NewMatcher creates a Matcher.
func NewMatcher() *Matcher {
	return &Matcher{}
}

// Score computes the confidence in [0, 1] that the record evidences the
// obligation, evaluated relative to now.
func (m *Matcher) Score(now time.Time, rec model.SourceRecord, ob model.Obligation) float64 {
	score := 0.0

	tags := loweredNonEmpty(rec.Tags)

	// Control-reference containment: any evidence tag appearing inside
	// the obligation's control reference.
	if ref := strings.ToLower(ob.ControlRef); ref != "" {
		for _, t := range tags {
			if strings.Contains(ref, t) {
				score += weightControlRef
				break
			}
		}
	}

	// Tag overlap against the obligation's tag set and title.
	obTags := loweredSet(ob.Tags)
	obTitle := strings.ToLower(ob.Title)
	overlap := 0.0
	for _, t := range tags {
		if obTags[t] || (obTitle != "" && strings.Contains(obTitle, t)) {
			overlap += weightTagOverlap
			if overlap >= tagOverlapCap {
				overlap = tagOverlapCap
				break
			}
		}
	}
	score += overlap

	// Recency of the covered period's end date.
	end := rec.Period.End
	if !end.Before(now.AddDate(-1, 0, 0)) {
		score += weightRecencyYear
	}
	if !end.Before(now.AddDate(0, -3, 0)) {
		score += weightRecencyQtr
	}

	// Integration-type relevance via the reference prefix.
	if keywords, ok := integrationKeywords[refPrefix(rec.IntegrationRef)]; ok {
		evTags := loweredSet(rec.Tags)
		for _, kw := range keywords {
			if evTags[kw] || obTags[kw] {
				score += weightIntegration
				break
			}
		}
	}

	if score > 1.0 {
		score = 1.0
	}
	return score
}

// MatchRecord scores one record against every obligation and returns
// the retained matches sorted by descending score. Ties keep input
// order.
func (m *Matcher) MatchRecord(now time.Time, rec model.SourceRecord, obligations []model.Obligation) []Match {
	var matches []Match
	for _, ob := range obligations {
		s := m.Score(now, rec, ob)
		if s >= RetentionThreshold {
			matches = append(matches, Match{ObligationID: ob.ID, Score: s})
		}
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	return matches
}

// MatchBatch scores each record against the full obligation list and
// assembles an artifact per record. Records with no retained match
// still produce an artifact with empty obligation refs and no
// confidence. The artifact's source is a placeholder for the caller to
// stamp.
func (m *Matcher) MatchBatch(now time.Time, recs []model.SourceRecord, obligations []model.Obligation) []model.EvidenceArtifact {
	artifacts := make([]model.EvidenceArtifact, 0, len(recs))
	for _, rec := range recs {
		matches := m.MatchRecord(now, rec, obligations)
		if len(matches) > maxObligationRefs {
			matches = matches[:maxObligationRefs]
		}

		refs := make([]string, 0, len(matches))
		for _, match := range matches {
			refs = append(refs, match.ObligationID)
		}

		artifact := model.EvidenceArtifact{
			ID:             uuid.New().String(),
			Title:          rec.Title,
			Source:         model.SourceManual,
			Period:         rec.Period,
			UploadedAt:     now,
			IntegrationRef: rec.IntegrationRef,
			ObligationRefs: refs,
			Tags:           append([]string(nil), rec.Tags...),
		}
		if len(matches) > 0 {
			top := matches[0].Score
			artifact.Confidence = &top
		}
		artifacts = append(artifacts, artifact)
	}
	return artifacts
}

// refPrefix returns the integration reference up to the first dash, or
// the whole reference when it has none.
func refPrefix(ref string) string {
	if i := strings.IndexByte(ref, '-'); i >= 0 {
		return ref[:i]
	}
	return ref
}

func loweredNonEmpty(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

func loweredSet(tags []string) map[string]bool {
	set := make(map[string]bool, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t != "" {
			set[t] = true
		}
	}
	return set
}
