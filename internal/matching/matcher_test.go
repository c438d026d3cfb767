package matching

import (
	"testing"
	"time"

	"github.com/corecomply/corecomply/model"
)

var testNow = time.Date(2024, 10, 15, 12, 0, 0, 0, time.UTC)

func quarterRecord() model.SourceRecord {
	return model.SourceRecord{
		Title:          "BAS lodgement Q3 2024",
		Period:         periodEnding(testNow.AddDate(0, 0, -10)),
		Tags:           []string{"BAS", "tax", "GST", "PAYG", "ATO"},
		IntegrationRef: "BAS-Q3-2024",
	}
}

func basObligation() model.Obligation {
	return model.Obligation{
		ID:         "ob-bas",
		Title:      "Lodge quarterly Business Activity Statement",
		ControlRef: "BAS-001",
		Tags:       []string{"BAS", "tax", "GST", "PAYG", "ATO"},
	}
}

func periodEnding(end time.Time) model.Period {
	return model.Period{Start: end.AddDate(0, -3, 0), End: end}
}

func TestScore_allSignalsClampToOne(t *testing.T) {
	m := NewMatcher()

	// Control ref (+0.50), full tag overlap (+0.20 capped), recency
	// within a year (+0.15), integration relevance (+0.10), recency
	// within a quarter (+0.05) = 1.05, clamped.
	got := m.Score(testNow, quarterRecord(), basObligation())
	if got != 1.0 {
		t.Errorf("Score = %v, want 1.0", got)
	}
}

func TestScore_noSignals(t *testing.T) {
	m := NewMatcher()

	rec := model.SourceRecord{
		Title:          "Archived report",
		Period:         periodEnding(testNow.AddDate(-2, 0, 0)),
		Tags:           []string{"archive"},
		IntegrationRef: "UNKNOWN-1",
	}
	ob := model.Obligation{ID: "ob-1", Title: "Superannuation guarantee", Tags: []string{"super"}}

	if got := m.Score(testNow, rec, ob); got != 0.0 {
		t.Errorf("Score = %v, want 0.0", got)
	}
}

func TestScore_bounded(t *testing.T) {
	m := NewMatcher()

	records := []model.SourceRecord{
		quarterRecord(),
		{Title: "x", Period: periodEnding(testNow), Tags: nil, IntegrationRef: ""},
		{Title: "y", Period: periodEnding(testNow.AddDate(-5, 0, 0)), Tags: []string{"BAS", "BAS", "tax"}, IntegrationRef: "BAS"},
	}
	obligations := []model.Obligation{
		basObligation(),
		{ID: "ob-2", Title: "", Tags: nil},
	}

	for _, rec := range records {
		for _, ob := range obligations {
			s := m.Score(testNow, rec, ob)
			if s < 0 || s > 1 {
				t.Errorf("Score(%q, %q) = %v, out of [0,1]", rec.Title, ob.ID, s)
			}
		}
	}
}

func TestScore_monotonicUnderAddedSignals(t *testing.T) {
	m := NewMatcher()

	base := model.SourceRecord{
		Title:          "Payment summary",
		Period:         periodEnding(testNow.AddDate(-2, 0, 0)),
		Tags:           []string{"unrelated"},
		IntegrationRef: "NONE",
	}
	ob := basObligation()
	baseScore := m.Score(testNow, base, ob)

	withTag := base
	withTag.Tags = append([]string{"tax"}, base.Tags...)
	if got := m.Score(testNow, withTag, ob); got < baseScore {
		t.Errorf("adding a tag overlap decreased score: %v < %v", got, baseScore)
	}

	withRecency := base
	withRecency.Period = periodEnding(testNow.AddDate(0, -1, 0))
	if got := m.Score(testNow, withRecency, ob); got < baseScore {
		t.Errorf("satisfying recency decreased score: %v < %v", got, baseScore)
	}

	withControlRef := base
	withControlRef.Tags = append([]string{"bas"}, base.Tags...)
	if got := m.Score(testNow, withControlRef, ob); got < baseScore {
		t.Errorf("control-ref hit decreased score: %v < %v", got, baseScore)
	}
}

func TestScore_tagOverlapCapped(t *testing.T) {
	m := NewMatcher()

	// Six overlapping tags, no other signal: capped at 0.20.
	rec := model.SourceRecord{
		Title:  "old record",
		Period: periodEnding(testNow.AddDate(-3, 0, 0)),
		Tags:   []string{"a", "b", "c", "d", "e", "f"},
	}
	ob := model.Obligation{ID: "ob-1", Title: "t", Tags: []string{"a", "b", "c", "d", "e", "f"}}

	if got := m.Score(testNow, rec, ob); got != tagOverlapCap {
		t.Errorf("Score = %v, want %v", got, tagOverlapCap)
	}
}

func TestScore_prefixLookupIsCaseSensitive(t *testing.T) {
	m := NewMatcher()

	rec := model.SourceRecord{
		Title:          "stp feed",
		Period:         periodEnding(testNow.AddDate(-3, 0, 0)),
		Tags:           []string{"stp"},
		IntegrationRef: "stp-2024-10",
	}
	ob := model.Obligation{ID: "ob-1", Title: "other", Tags: []string{"nothing"}}

	// Lower-case prefix is not in the table, so only the recency signals
	// can fire here, and the period is too old for those.
	if got := m.Score(testNow, rec, ob); got != 0.0 {
		t.Errorf("Score = %v, want 0.0 for unrecognized prefix", got)
	}

	rec.IntegrationRef = "STP-2024-10"
	if got := m.Score(testNow, rec, ob); got != weightIntegration {
		t.Errorf("Score = %v, want %v for recognized prefix", got, weightIntegration)
	}
}

func TestMatchRecord_thresholdAndOrder(t *testing.T) {
	m := NewMatcher()

	rec := quarterRecord()
	obligations := []model.Obligation{
		{ID: "ob-low", Title: "Unrelated duty", Tags: []string{"other"}},
		basObligation(),
		{ID: "ob-mid", Title: "PAYG withholding remittance", ControlRef: "PAYG-004", Tags: []string{"PAYG", "tax", "ATO"}},
	}

	matches := m.MatchRecord(testNow, rec, obligations)
	for _, match := range matches {
		if match.Score < RetentionThreshold {
			t.Errorf("retained match %q below threshold: %v", match.ObligationID, match.Score)
		}
	}
	if len(matches) == 0 || matches[0].ObligationID != "ob-bas" {
		t.Fatalf("matches[0] = %+v, want ob-bas first", matches)
	}
	for i := 1; i < len(matches); i++ {
		if matches[i].Score > matches[i-1].Score {
			t.Errorf("matches not sorted descending at %d", i)
		}
	}
}

func TestMatchRecord_tiesKeepInputOrder(t *testing.T) {
	m := NewMatcher()

	rec := quarterRecord()
	twin := basObligation()
	twin.ID = "ob-bas-2"

	matches := m.MatchRecord(testNow, rec, []model.Obligation{basObligation(), twin})
	if len(matches) != 2 {
		t.Fatalf("len(matches) = %d, want 2", len(matches))
	}
	if matches[0].ObligationID != "ob-bas" || matches[1].ObligationID != "ob-bas-2" {
		t.Errorf("tie order = %q, %q; want input order", matches[0].ObligationID, matches[1].ObligationID)
	}
}

func TestMatchBatch_topThreeCap(t *testing.T) {
	m := NewMatcher()

	obligations := make([]model.Obligation, 0, 5)
	for _, id := range []string{"ob-1", "ob-2", "ob-3", "ob-4", "ob-5"} {
		ob := basObligation()
		ob.ID = id
		obligations = append(obligations, ob)
	}

	artifacts := m.MatchBatch(testNow, []model.SourceRecord{quarterRecord()}, obligations)
	if len(artifacts) != 1 {
		t.Fatalf("len(artifacts) = %d, want 1", len(artifacts))
	}
	a := artifacts[0]
	if len(a.ObligationRefs) != 3 {
		t.Errorf("len(ObligationRefs) = %d, want 3", len(a.ObligationRefs))
	}
	if a.ObligationRefs[0] != "ob-1" {
		t.Errorf("ObligationRefs[0] = %q, want ob-1 (tie broken by input order)", a.ObligationRefs[0])
	}
	if a.Confidence == nil || *a.Confidence != 1.0 {
		t.Errorf("Confidence = %v, want 1.0", a.Confidence)
	}
	if a.ID == "" {
		t.Error("artifact ID not assigned")
	}
	if !a.UploadedAt.Equal(testNow) {
		t.Errorf("UploadedAt = %v, want %v", a.UploadedAt, testNow)
	}
}

func TestMatchBatch_noMatches(t *testing.T) {
	m := NewMatcher()

	rec := model.SourceRecord{
		Title:          "Stale payslip archive",
		Period:         periodEnding(testNow.AddDate(-2, 0, 0)),
		Tags:           []string{"archive"},
		IntegrationRef: "PAYSLIP-2022-01",
	}

	artifacts := m.MatchBatch(testNow, []model.SourceRecord{rec}, []model.Obligation{basObligation()})
	if len(artifacts) != 1 {
		t.Fatalf("len(artifacts) = %d, want 1", len(artifacts))
	}
	a := artifacts[0]
	if len(a.ObligationRefs) != 0 {
		t.Errorf("ObligationRefs = %v, want empty", a.ObligationRefs)
	}
	if a.Confidence != nil {
		t.Errorf("Confidence = %v, want nil", *a.Confidence)
	}
}

func TestMatchBatch_emptyObligationList(t *testing.T) {
	m := NewMatcher()

	artifacts := m.MatchBatch(testNow, []model.SourceRecord{quarterRecord()}, nil)
	if len(artifacts) != 1 {
		t.Fatalf("len(artifacts) = %d, want 1", len(artifacts))
	}
	if got := artifacts[0]; len(got.ObligationRefs) != 0 || got.Confidence != nil {
		t.Errorf("artifact = %+v, want no matches and nil confidence", got)
	}
}

func TestScore_emptyTagListOnlyRecencyAndControlRef(t *testing.T) {
	m := NewMatcher()

	rec := model.SourceRecord{
		Title:          "no tags",
		Period:         periodEnding(testNow.AddDate(0, -1, 0)),
		Tags:           nil,
		IntegrationRef: "BAS-Q3-2024",
	}

	// With no evidence tags the control-ref signal cannot fire, but the
	// integration-relevance keyword can still hit the obligation tags.
	got := m.Score(testNow, rec, basObligation())
	want := weightRecencyYear + weightRecencyQtr + weightIntegration
	if got != want {
		t.Errorf("Score = %v, want %v", got, want)
	}
}
