package normalize

import (
	"strings"

	"earnings-digest/logic/schema"
	"earnings-digest/types"
)

// Normalize 把模型原始输出补齐为完整的 EarningsSummary。
// 缺失、类型不对或不在枚举内的字段替换为默认值；多余字段丢弃。不会失败。
// 第二个返回值列出被替换为默认值的字段，仅用于日志。
func Normalize(raw types.RawSummary) (types.EarningsSummary, []string) {
	var defaulted []string
	note := func(field string) {
		defaulted = append(defaulted, field)
	}

	out := types.EarningsSummary{
		Tone:       types.ToneUnknown,
		Confidence: types.ConfidenceUnknown,
	}

	if s, ok := raw[schema.FieldTone].(string); ok && types.IsTone(strings.ToLower(strings.TrimSpace(s))) {
		out.Tone = types.Tone(strings.ToLower(strings.TrimSpace(s)))
	} else {
		note(schema.FieldTone)
	}

	if s, ok := raw[schema.FieldConfidence].(string); ok && types.IsConfidence(strings.ToLower(strings.TrimSpace(s))) {
		out.Confidence = types.Confidence(strings.ToLower(strings.TrimSpace(s)))
	} else {
		note(schema.FieldConfidence)
	}

	out.ToneRationale = nullableString(raw, schema.FieldToneRationale, note)
	out.KeyPositives = bullets(raw, schema.FieldKeyPositives, note)
	out.KeyConcerns = bullets(raw, schema.FieldKeyConcerns, note)
	out.GrowthInitiatives = bullets(raw, schema.FieldGrowthInitiatives, note)
	out.ForwardGuidance = guidance(raw[schema.FieldForwardGuidance], note)
	out.CapacityUtilization = nullableString(raw, schema.FieldCapacityUtilization, note)

	// raw_notes 可选：只有模型给了字符串才输出
	if s, ok := raw[schema.FieldRawNotes].(string); ok && !isBlank(s) {
		out.RawNotes = &s
	}

	return out, defaulted
}

// isBlank 模型给的字符串原样保留，只有全空白才当作缺失
func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// nullableString 缺失、null 或空串都视为 null；只有类型错误才记一笔
func nullableString(m map[string]any, key string, note func(string)) *string {
	v, ok := m[key]
	if !ok {
		note(key)
		return nil
	}
	switch t := v.(type) {
	case nil:
		return nil
	case string:
		if isBlank(t) {
			return nil
		}
		return &t
	default:
		note(key)
		return nil
	}
}

func bullets(m map[string]any, key string, note func(string)) []types.BulletPoint {
	out := []types.BulletPoint{}
	v, ok := m[key]
	if !ok || v == nil {
		note(key)
		return out
	}
	items, ok := v.([]any)
	if !ok {
		note(key)
		return out
	}
	for _, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			note(key + "[]")
			continue
		}
		summary, _ := obj[schema.FieldSummary].(string)
		if isBlank(summary) {
			note(key + "[].summary")
			continue
		}
		bp := types.BulletPoint{Summary: summary}
		// 引用必须逐字保留，只有全空白才视为 null
		if q, ok := obj[schema.FieldSupportingQuote].(string); ok && !isBlank(q) {
			bp.SupportingQuote = &q
		}
		out = append(out, bp)
	}
	return out
}

func guidance(v any, note func(string)) types.ForwardGuidance {
	var fg types.ForwardGuidance
	obj, ok := v.(map[string]any)
	if !ok {
		note(schema.FieldForwardGuidance)
		return fg
	}
	field := func(k string) *string {
		return nullableString(obj, k, func(string) { note(schema.FieldForwardGuidance + "." + k) })
	}
	fg.Revenue = field(schema.GuidanceRevenue)
	fg.Margin = field(schema.GuidanceMargin)
	fg.Capex = field(schema.GuidanceCapex)
	fg.Other = field(schema.GuidanceOther)
	return fg
}
