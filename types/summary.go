package types

// Tone 管理层语气
type Tone string

const (
	ToneOptimistic  Tone = "optimistic"
	ToneCautious    Tone = "cautious"
	ToneNeutral     Tone = "neutral"
	TonePessimistic Tone = "pessimistic"
	ToneUnknown     Tone = "unknown"
)

// Tones 全部合法取值，顺序即 schema 中 enum 的顺序
var Tones = []Tone{ToneOptimistic, ToneCautious, ToneNeutral, TonePessimistic, ToneUnknown}

// Confidence 信息可信度
type Confidence string

const (
	ConfidenceHigh    Confidence = "high"
	ConfidenceMedium  Confidence = "medium"
	ConfidenceLow     Confidence = "low"
	ConfidenceUnknown Confidence = "unknown"
)

var Confidences = []Confidence{ConfidenceHigh, ConfidenceMedium, ConfidenceLow, ConfidenceUnknown}

// BulletPoint 一条要点，SupportingQuote 必须是原文逐字引用，没有则为 null
type BulletPoint struct {
	Summary         string  `json:"summary"`
	SupportingQuote *string `json:"supporting_quote"`
}

// ForwardGuidance 管理层的前瞻指引
type ForwardGuidance struct {
	Revenue *string `json:"revenue"`
	Margin  *string `json:"margin"`
	Capex   *string `json:"capex"`
	Other   *string `json:"other"`
}

// EarningsSummary 是返回给前端的最终结构，字段顺序与 schema 保持一致
type EarningsSummary struct {
	Tone                Tone            `json:"tone"`
	Confidence          Confidence      `json:"confidence"`
	ToneRationale       *string         `json:"tone_rationale"`
	KeyPositives        []BulletPoint   `json:"key_positives"`
	KeyConcerns         []BulletPoint   `json:"key_concerns"`
	GrowthInitiatives   []BulletPoint   `json:"growth_initiatives"`
	ForwardGuidance     ForwardGuidance `json:"forward_guidance"`
	CapacityUtilization *string         `json:"capacity_utilization"`
	RawNotes            *string         `json:"raw_notes,omitempty"`
}

// RawSummary 模型原始输出（已解码，未归一化）
type RawSummary map[string]any

func IsTone(s string) bool {
	for _, t := range Tones {
		if string(t) == s {
			return true
		}
	}
	return false
}

func IsConfidence(s string) bool {
	for _, c := range Confidences {
		if string(c) == s {
			return true
		}
	}
	return false
}
