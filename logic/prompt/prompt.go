package prompt

import (
	"strings"
	"unicode/utf8"

	"earnings-digest/types"
	"earnings-digest/vars"
)

// Builder 组装发给模型的指令和用户消息，不做任何 I/O
type Builder struct {
	MaxChars int
}

func NewBuilder(maxChars int) *Builder {
	if maxChars <= 0 {
		maxChars = vars.MaxTextChars
	}
	return &Builder{MaxChars: maxChars}
}

func (b *Builder) Build(content *types.ExtractedContent) types.PromptContext {
	pc := types.PromptContext{Instruction: vars.INSTRUCTION}

	switch content.Mode {
	case types.ModeBinary:
		pc.Parts = []types.MessagePart{
			types.TextPart{Text: vars.ATTACHMENT_NOTE},
			types.BinaryPart{
				MediaType: content.MediaType,
				FileName:  content.FileName,
				Data:      content.Data,
			},
		}
	default:
		var sb strings.Builder
		sb.WriteString(vars.TRANSCRIPT_OPEN)
		sb.WriteString("\n")
		sb.WriteString(Truncate(content.Text, b.MaxChars))
		sb.WriteString("\n")
		sb.WriteString(vars.TRANSCRIPT_CLOSE)
		pc.Parts = []types.MessagePart{types.TextPart{Text: sb.String()}}
	}
	return pc
}

// Truncate 按字符截取前 limit 个，长度不超过 limit 时原样返回
func Truncate(text string, limit int) string {
	if limit < 0 {
		limit = 0
	}
	if len(text) <= limit {
		return text
	}
	if utf8.RuneCountInString(text) <= limit {
		return text
	}
	n := 0
	for i := range text {
		if n == limit {
			return text[:i]
		}
		n++
	}
	return text
}
