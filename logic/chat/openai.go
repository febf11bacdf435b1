package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	contract "earnings-digest/logic/schema"
	"earnings-digest/vars"

	"github.com/cloudwego/eino-ext/components/model/openai"
	aclopenai "github.com/cloudwego/eino-ext/libs/acl/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// OpenAIFactory 每次请求创建一个开启 strict json_schema 的 OpenAI 模型
type OpenAIFactory struct {
	cfg vars.LLMConfig
}

func NewOpenAIFactory(cfg vars.LLMConfig) *OpenAIFactory {
	return &OpenAIFactory{cfg: cfg}
}

func (f *OpenAIFactory) NewChatModel(ctx context.Context, c *contract.Contract) (model.BaseChatModel, error) {
	temperature := f.cfg.Temperature
	chatModel, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
		APIKey:      f.cfg.APIKey,
		BaseURL:     f.cfg.BaseURL, // 为空时走官方地址
		Model:       f.cfg.Model,
		Temperature: &temperature,
		Timeout:     f.cfg.Timeout,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:        vars.SchemaName,
				Description: "Structured summary of an earnings call or commentary document",
				JSONSchema:  c.Upstream(),
				Strict:      true,
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create openai chat model failed: %w", err)
	}
	return &fileInputModel{inner: chatModel}, nil
}

// fileInputModel eino 的 openai 组件不认 file_url 片段，
// 这里先把附件从消息里摘出来，序列化之后再以 {"type":"file"} 片段写回请求体
type fileInputModel struct {
	inner model.BaseChatModel
}

func (m *fileInputModel) Generate(ctx context.Context, in []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	msgs, files := splitFileParts(in)
	if len(files) > 0 {
		opts = append(opts, aclopenai.WithRequestPayloadModifier(injectFileParts(files)))
	}
	return m.inner.Generate(ctx, msgs, opts...)
}

func (m *fileInputModel) Stream(ctx context.Context, in []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	msgs, files := splitFileParts(in)
	if len(files) > 0 {
		opts = append(opts, aclopenai.WithRequestPayloadModifier(injectFileParts(files)))
	}
	return m.inner.Stream(ctx, msgs, opts...)
}

// splitFileParts 返回去掉附件后的消息，以及按消息下标归组的附件
func splitFileParts(in []*schema.Message) ([]*schema.Message, map[int][]*schema.MessageInputFile) {
	var files map[int][]*schema.MessageInputFile
	out := make([]*schema.Message, len(in))
	for i, msg := range in {
		out[i] = msg
		if msg == nil || len(msg.UserInputMultiContent) == 0 {
			continue
		}

		var kept []schema.MessageInputPart
		var found []*schema.MessageInputFile
		for _, part := range msg.UserInputMultiContent {
			if part.Type == schema.ChatMessagePartTypeFileURL && part.File != nil {
				found = append(found, part.File)
				continue
			}
			kept = append(kept, part)
		}
		if len(found) == 0 {
			continue
		}

		cp := *msg
		cp.UserInputMultiContent = kept
		out[i] = &cp
		if files == nil {
			files = make(map[int][]*schema.MessageInputFile)
		}
		files[i] = found
	}
	return out, files
}

// injectFileParts 请求体里 messages 与输入消息一一对应
func injectFileParts(files map[int][]*schema.MessageInputFile) aclopenai.RequestPayloadModifier {
	return func(_ context.Context, _ []*schema.Message, rawBody []byte) ([]byte, error) {
		var body map[string]json.RawMessage
		if err := json.Unmarshal(rawBody, &body); err != nil {
			return nil, fmt.Errorf("decode request body: %w", err)
		}
		var messages []map[string]any
		if err := json.Unmarshal(body["messages"], &messages); err != nil {
			return nil, fmt.Errorf("decode request messages: %w", err)
		}

		for idx, parts := range files {
			if idx >= len(messages) {
				return nil, fmt.Errorf("attachment for message %d, request has %d", idx, len(messages))
			}
			content := contentParts(messages[idx]["content"])
			for _, f := range parts {
				part, err := filePart(f)
				if err != nil {
					return nil, err
				}
				content = append(content, part)
			}
			messages[idx]["content"] = content
		}

		encoded, err := json.Marshal(messages)
		if err != nil {
			return nil, err
		}
		body["messages"] = encoded
		return json.Marshal(body)
	}
}

func contentParts(v any) []any {
	switch c := v.(type) {
	case []any:
		return c
	case string:
		if c == "" {
			return []any{}
		}
		return []any{map[string]any{"type": "text", "text": c}}
	default:
		return []any{}
	}
}

// filePart OpenAI chat 接口的文件输入只接受内联 data URL
func filePart(f *schema.MessageInputFile) (map[string]any, error) {
	if f.Base64Data == nil {
		return nil, errors.New("file attachment must carry base64 data")
	}
	mimeType := f.MIMEType
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	file := map[string]any{
		"file_data": "data:" + mimeType + ";base64," + *f.Base64Data,
	}
	if f.Name != "" {
		file["filename"] = f.Name
	}
	return map[string]any{"type": "file", "file": file}, nil
}
