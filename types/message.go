package types

// MessagePart 是发给模型的一段内容，只有 TextPart 和 BinaryPart 两种实现
type MessagePart interface {
	isMessagePart()
}

type TextPart struct {
	Text string
}

// BinaryPart 原始附件，传输时再做 base64
type BinaryPart struct {
	MediaType string
	FileName  string
	Data      []byte
}

func (TextPart) isMessagePart()   {}
func (BinaryPart) isMessagePart() {}

// PromptContext 一次请求的完整上下文：系统指令 + 有序的用户消息片段
type PromptContext struct {
	Instruction string
	Parts       []MessagePart
}
