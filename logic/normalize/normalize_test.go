package normalize

import (
	"encoding/json"
	"testing"

	"earnings-digest/logic/schema"
	"earnings-digest/types"
)

func decode(t *testing.T, s string) types.RawSummary {
	t.Helper()
	var m types.RawSummary
	if err := json.Unmarshal([]byte(s), &m); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return m
}

func TestNormalizeToneOnly(t *testing.T) {
	got, defaulted := Normalize(decode(t, `{"tone":"optimistic"}`))

	if got.Tone != types.ToneOptimistic {
		t.Errorf("tone = %q", got.Tone)
	}
	if got.Confidence != types.ConfidenceUnknown {
		t.Errorf("confidence = %q", got.Confidence)
	}
	if got.KeyPositives == nil || len(got.KeyPositives) != 0 {
		t.Errorf("key_positives = %#v", got.KeyPositives)
	}
	if got.KeyConcerns == nil || len(got.KeyConcerns) != 0 {
		t.Errorf("key_concerns = %#v", got.KeyConcerns)
	}
	if got.GrowthInitiatives == nil || len(got.GrowthInitiatives) != 0 {
		t.Errorf("growth_initiatives = %#v", got.GrowthInitiatives)
	}
	fg := got.ForwardGuidance
	if fg.Revenue != nil || fg.Margin != nil || fg.Capex != nil || fg.Other != nil {
		t.Errorf("forward_guidance = %+v", fg)
	}
	if got.CapacityUtilization != nil || got.ToneRationale != nil || got.RawNotes != nil {
		t.Error("nullable scalars should be nil")
	}
	if len(defaulted) == 0 {
		t.Error("expected defaulted fields to be reported")
	}

	// 序列化后的形状
	b, err := json.Marshal(got)
	if err != nil {
		t.Fatal(err)
	}
	var shape map[string]any
	if err := json.Unmarshal(b, &shape); err != nil {
		t.Fatal(err)
	}
	for _, k := range schema.RequiredKeys {
		if _, ok := shape[k]; !ok {
			t.Errorf("serialized output missing %q", k)
		}
	}
	if _, ok := shape[schema.FieldRawNotes]; ok {
		t.Error("raw_notes should be omitted when the model did not provide it")
	}
	if string(mustJSON(t, shape["key_positives"])) != "[]" {
		t.Errorf("key_positives serialized as %s", mustJSON(t, shape["key_positives"]))
	}
	wantFG := `{"capex":null,"margin":null,"other":null,"revenue":null}`
	if string(mustJSON(t, shape["forward_guidance"])) != wantFG {
		t.Errorf("forward_guidance serialized as %s", mustJSON(t, shape["forward_guidance"]))
	}
	if shape["confidence"] != "unknown" || shape["tone_rationale"] != nil || shape["capacity_utilization"] != nil {
		t.Errorf("unexpected defaults: %v", shape)
	}
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	return b
}

func TestNormalizeKeepsProvidedValues(t *testing.T) {
	raw := decode(t, `{
		"tone": "cautious",
		"confidence": "medium",
		"tone_rationale": "Demand softened in Q3.",
		"key_positives": [{"summary": "Backlog grew", "supporting_quote": "our backlog is at a record"}],
		"key_concerns": [{"summary": "FX headwinds", "supporting_quote": null}],
		"growth_initiatives": [],
		"forward_guidance": {"revenue": "flat", "margin": "down 50bps", "capex": null, "other": null},
		"capacity_utilization": "82% in the quarter",
		"raw_notes": "CFO transition announced"
	}`)
	got, defaulted := Normalize(raw)

	if len(defaulted) != 0 {
		t.Errorf("nothing should be defaulted, got %v", defaulted)
	}
	if got.Tone != types.ToneCautious || got.Confidence != types.ConfidenceMedium {
		t.Errorf("enums = %q/%q", got.Tone, got.Confidence)
	}
	if got.ToneRationale == nil || *got.ToneRationale != "Demand softened in Q3." {
		t.Errorf("tone_rationale = %v", got.ToneRationale)
	}
	if len(got.KeyPositives) != 1 || *got.KeyPositives[0].SupportingQuote != "our backlog is at a record" {
		t.Errorf("key_positives = %+v", got.KeyPositives)
	}
	if len(got.KeyConcerns) != 1 || got.KeyConcerns[0].SupportingQuote != nil {
		t.Errorf("key_concerns = %+v", got.KeyConcerns)
	}
	if *got.ForwardGuidance.Revenue != "flat" || *got.ForwardGuidance.Margin != "down 50bps" {
		t.Errorf("forward_guidance = %+v", got.ForwardGuidance)
	}
	if got.CapacityUtilization == nil || *got.CapacityUtilization != "82% in the quarter" {
		t.Errorf("capacity_utilization = %v", got.CapacityUtilization)
	}
	if got.RawNotes == nil || *got.RawNotes != "CFO transition announced" {
		t.Errorf("raw_notes = %v", got.RawNotes)
	}
}

func TestNormalizeIsTotal(t *testing.T) {
	inputs := []string{
		`{}`,
		`{"tone": 7, "confidence": ["high"], "key_positives": "lots"}`,
		`{"tone": "Bullish", "forward_guidance": "raised"}`,
		`{"key_concerns": [1, "x", {"summary": ""}, {"summary": "Churn", "supporting_quote": "  "}]}`,
		`{"forward_guidance": {"revenue": 12, "margin": ""}}`,
		`{"ticker": "ACME", "tone": "NEUTRAL"}`,
	}
	for _, in := range inputs {
		got, _ := Normalize(decode(t, in))
		if got.KeyPositives == nil || got.KeyConcerns == nil || got.GrowthInitiatives == nil {
			t.Errorf("%s: list fields must never be nil", in)
		}
		if !types.IsTone(string(got.Tone)) || !types.IsConfidence(string(got.Confidence)) {
			t.Errorf("%s: enums out of range: %q/%q", in, got.Tone, got.Confidence)
		}
	}
}

func TestNormalizeCoercions(t *testing.T) {
	got, _ := Normalize(decode(t, `{
		"tone": " NEUTRAL ",
		"key_concerns": [1, {"summary": ""}, {"summary": "Churn", "supporting_quote": "  "}],
		"forward_guidance": {"revenue": 12, "margin": "", "capex": "maintained"}
	}`))
	if got.Tone != types.ToneNeutral {
		t.Errorf("tone = %q", got.Tone)
	}
	if len(got.KeyConcerns) != 1 || got.KeyConcerns[0].Summary != "Churn" || got.KeyConcerns[0].SupportingQuote != nil {
		t.Errorf("key_concerns = %+v", got.KeyConcerns)
	}
	fg := got.ForwardGuidance
	if fg.Revenue != nil || fg.Margin != nil || fg.Other != nil {
		t.Errorf("forward_guidance = %+v", fg)
	}
	if fg.Capex == nil || *fg.Capex != "maintained" {
		t.Errorf("capex = %v", fg.Capex)
	}
}

func TestNormalizeNilMap(t *testing.T) {
	got, _ := Normalize(nil)
	if got.Tone != types.ToneUnknown || got.KeyPositives == nil {
		t.Errorf("got %+v", got)
	}
}

func TestNormalizeKeepsStringsVerbatim(t *testing.T) {
	quote := "  we expect margins to recover,\n  as noted last quarter "
	got, _ := Normalize(types.RawSummary{
		"tone_rationale": " Guidance was reaffirmed. ",
		"key_positives": []any{
			map[string]any{"summary": "Margin recovery ", "supporting_quote": quote},
		},
		"forward_guidance": map[string]any{"capex": "\t$1.2B\t", "other": "   "},
		"raw_notes":        "\nCFO transition\n",
	})

	if got.ToneRationale == nil || *got.ToneRationale != " Guidance was reaffirmed. " {
		t.Errorf("tone_rationale = %q", deref(got.ToneRationale))
	}
	if len(got.KeyPositives) != 1 {
		t.Fatalf("key_positives = %+v", got.KeyPositives)
	}
	bp := got.KeyPositives[0]
	if bp.Summary != "Margin recovery " {
		t.Errorf("summary = %q", bp.Summary)
	}
	if bp.SupportingQuote == nil || *bp.SupportingQuote != quote {
		t.Errorf("supporting_quote = %q, want %q", deref(bp.SupportingQuote), quote)
	}
	if got.ForwardGuidance.Capex == nil || *got.ForwardGuidance.Capex != "\t$1.2B\t" {
		t.Errorf("capex = %q", deref(got.ForwardGuidance.Capex))
	}
	if got.ForwardGuidance.Other != nil {
		t.Errorf("blank other should be null, got %q", *got.ForwardGuidance.Other)
	}
	if got.RawNotes == nil || *got.RawNotes != "\nCFO transition\n" {
		t.Errorf("raw_notes = %q", deref(got.RawNotes))
	}
}

func deref(s *string) string {
	if s == nil {
		return "<nil>"
	}
	return *s
}
