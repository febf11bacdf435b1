package schema

import (
	"bytes"
	"encoding/json"
	"fmt"

	"earnings-digest/types"

	einojsonschema "github.com/eino-contrib/jsonschema"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

const (
	FieldTone                = "tone"
	FieldConfidence          = "confidence"
	FieldToneRationale       = "tone_rationale"
	FieldKeyPositives        = "key_positives"
	FieldKeyConcerns         = "key_concerns"
	FieldGrowthInitiatives   = "growth_initiatives"
	FieldForwardGuidance     = "forward_guidance"
	FieldCapacityUtilization = "capacity_utilization"
	FieldRawNotes            = "raw_notes"

	FieldSummary         = "summary"
	FieldSupportingQuote = "supporting_quote"

	GuidanceRevenue = "revenue"
	GuidanceMargin  = "margin"
	GuidanceCapex   = "capex"
	GuidanceOther   = "other"
)

// RequiredKeys 最终输出中必须存在的字段
var RequiredKeys = []string{
	FieldTone, FieldConfidence, FieldToneRationale,
	FieldKeyPositives, FieldKeyConcerns, FieldGrowthInitiatives,
	FieldForwardGuidance, FieldCapacityUtilization,
}

var GuidanceKeys = []string{GuidanceRevenue, GuidanceMargin, GuidanceCapex, GuidanceOther}

// Build 返回 EarningsSummary 的 JSON Schema。
// OpenAI strict 模式要求所有属性都出现在 required 里，可空字段用 anyOf + null 表达，
// 所以 raw_notes 在这里也是 required，但归一化后的输出中它是可选的。
func Build() map[string]any {
	bullets := map[string]any{
		"type": "array",
		"items": map[string]any{
			"type":                 "object",
			"additionalProperties": false,
			"properties": map[string]any{
				FieldSummary:         map[string]any{"type": "string", "description": "One-sentence summary of the point."},
				FieldSupportingQuote: nullableString("Verbatim quote from the document, or null."),
			},
			"required": []string{FieldSummary, FieldSupportingQuote},
		},
	}

	guidanceProps := map[string]any{}
	for _, k := range GuidanceKeys {
		guidanceProps[k] = nullableString("Management guidance on " + k + ", or null if not stated.")
	}
	guidance := map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties":           guidanceProps,
		"required":             GuidanceKeys,
	}

	props := map[string]any{
		FieldTone:                enumProp(tones()),
		FieldConfidence:          enumProp(confidences()),
		FieldToneRationale:       nullableString("Why the tone was chosen, grounded in the document."),
		FieldKeyPositives:        bullets,
		FieldKeyConcerns:         bullets,
		FieldGrowthInitiatives:   bullets,
		FieldForwardGuidance:     guidance,
		FieldCapacityUtilization: nullableString("Capacity or utilization commentary, or null."),
		FieldRawNotes:            nullableString("Any other noteworthy remarks, or null."),
	}

	required := append(append([]string{}, RequiredKeys...), FieldRawNotes)
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties":           props,
		"required":             required,
	}
}

func nullableString(desc string) map[string]any {
	return map[string]any{
		"description": desc,
		"anyOf": []any{
			map[string]any{"type": "string"},
			map[string]any{"type": "null"},
		},
	}
}

func enumProp(values []string) map[string]any {
	return map[string]any{"type": "string", "enum": values}
}

func tones() []string {
	out := make([]string, 0, len(types.Tones))
	for _, t := range types.Tones {
		out = append(out, string(t))
	}
	return out
}

func confidences() []string {
	out := make([]string, 0, len(types.Confidences))
	for _, c := range types.Confidences {
		out = append(out, string(c))
	}
	return out
}

// Contract 编译好的 schema，只读，可在并发请求间共享
type Contract struct {
	raw      []byte
	compiled *jsonschema.Schema
	upstream *einojsonschema.Schema
}

func New() (*Contract, error) {
	raw, err := json.Marshal(Build())
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("earnings_summary.json", bytes.NewReader(raw)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	compiled, err := compiler.Compile("earnings_summary.json")
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}

	var upstream einojsonschema.Schema
	if err := json.Unmarshal(raw, &upstream); err != nil {
		return nil, fmt.Errorf("decode schema for model: %w", err)
	}

	return &Contract{raw: raw, compiled: compiled, upstream: &upstream}, nil
}

// MustNew 用于测试和启动阶段
func MustNew() *Contract {
	c, err := New()
	if err != nil {
		panic(err)
	}
	return c
}

// JSON 原始 schema 文本
func (c *Contract) JSON() json.RawMessage {
	return append(json.RawMessage(nil), c.raw...)
}

// Upstream 交给 eino 模型组件的 schema
func (c *Contract) Upstream() *einojsonschema.Schema {
	return c.upstream
}

// Validate 校验已解码的模型输出，返回的错误列出所有违规项
func (c *Contract) Validate(v any) error {
	if err := c.compiled.Validate(v); err != nil {
		return fmt.Errorf("json does not match schema: %w", err)
	}
	return nil
}
