package extract

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	contract "earnings-digest/logic/schema"
	"earnings-digest/pkg/logger"
	"earnings-digest/types"
	"earnings-digest/vars"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// ModelFactory 按请求创建模型实例
type ModelFactory interface {
	NewChatModel(ctx context.Context, c *contract.Contract) (model.BaseChatModel, error)
}

type Config struct {
	Provider string
	APIKey   string
	Timeout  time.Duration
}

// Client 把 PromptContext 发给模型，拿回满足 schema 的 JSON 对象
type Client struct {
	cfg      Config
	factory  ModelFactory
	contract *contract.Contract
}

func NewClient(cfg Config, factory ModelFactory, c *contract.Contract) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	return &Client{cfg: cfg, factory: factory, contract: c}
}

// Extract 单次调用，不重试。
// 凭据缺失在发请求前返回 ConfigMissing；调用失败或超时为 UpstreamModelError；
// 返回内容不是 JSON 对象为 SchemaParseError。
func (c *Client) Extract(ctx context.Context, pc types.PromptContext) (types.RawSummary, error) {
	log := logger.WithContext(ctx)

	if c.cfg.Provider != vars.ProviderOllama && c.cfg.APIKey == "" {
		return nil, types.ConfigMissing("model API key is not configured")
	}
	if c.factory == nil {
		return nil, types.ConfigMissing("model provider is not configured")
	}

	messages, binary, err := ToMessages(pc)
	if err != nil {
		return nil, types.Unexpected(err)
	}
	if binary && c.cfg.Provider == vars.ProviderOllama {
		return nil, types.UpstreamModel(errors.New("ollama provider does not accept file attachments"))
	}

	chatModel, err := c.factory.NewChatModel(ctx, c.contract)
	if err != nil {
		return nil, types.UpstreamModel(err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	start := time.Now()
	log.Info("llm.extract.start", "provider", c.cfg.Provider, "binary", binary, "parts", len(pc.Parts))

	resp, err := chatModel.Generate(ctx, messages)
	if err != nil {
		log.Error("llm.extract.http_error", "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return nil, types.UpstreamModel(err)
	}
	if resp == nil || strings.TrimSpace(resp.Content) == "" {
		log.Error("llm.extract.empty_response", "elapsed_ms", time.Since(start).Milliseconds())
		return nil, types.UpstreamModel(errors.New("model returned empty content"))
	}

	raw, err := Decode(resp.Content)
	if err != nil {
		log.Error("llm.extract.parse_error", "error", err, "bytes", len(resp.Content))
		return nil, types.SchemaParse(err)
	}

	// 不符合 schema 不算失败，交给归一化补齐
	if c.contract != nil {
		if verr := c.contract.Validate(map[string]any(raw)); verr != nil {
			log.Warn("llm.extract.schema_violations", "error", verr)
		}
	}

	log.Info("llm.extract.ok", "elapsed_ms", time.Since(start).Milliseconds(), "keys", len(raw))
	return raw, nil
}

// Decode 去掉 markdown 代码块后解析，顶层必须是对象
func Decode(content string) (types.RawSummary, error) {
	jsonStr := strings.TrimSpace(content)
	jsonStr = strings.TrimPrefix(jsonStr, "```json")
	jsonStr = strings.TrimPrefix(jsonStr, "```")
	jsonStr = strings.TrimSuffix(jsonStr, "```")
	jsonStr = strings.TrimSpace(jsonStr)

	var v any
	if err := json.Unmarshal([]byte(jsonStr), &v); err != nil {
		return nil, fmt.Errorf("json unmarshal failed: %w", err)
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("expected a JSON object, got %T", v)
	}
	return types.RawSummary(obj), nil
}

// ToMessages 转成 eino 消息：一条 system 指令 + 一条 user 消息。
// 第二个返回值表示是否带附件
func ToMessages(pc types.PromptContext) ([]*schema.Message, bool, error) {
	if len(pc.Parts) == 0 {
		return nil, false, errors.New("prompt has no content")
	}

	var (
		parts  []schema.MessageInputPart
		binary bool
	)
	for _, p := range pc.Parts {
		switch part := p.(type) {
		case types.TextPart:
			parts = append(parts, schema.MessageInputPart{
				Type: schema.ChatMessagePartTypeText,
				Text: part.Text,
			})
		case types.BinaryPart:
			binary = true
			b64 := base64.StdEncoding.EncodeToString(part.Data)
			parts = append(parts, schema.MessageInputPart{
				Type: schema.ChatMessagePartTypeFileURL,
				File: &schema.MessageInputFile{
					MessagePartCommon: schema.MessagePartCommon{
						Base64Data: &b64,
						MIMEType:   part.MediaType,
					},
					Name: part.FileName,
				},
			})
		default:
			return nil, false, fmt.Errorf("unsupported message part %T", p)
		}
	}

	system := schema.SystemMessage(pc.Instruction)

	// 纯文本走 Content，兼容不支持多模态的模型
	if !binary {
		var sb strings.Builder
		for i, p := range parts {
			if i > 0 {
				sb.WriteString("\n\n")
			}
			sb.WriteString(p.Text)
		}
		return []*schema.Message{system, schema.UserMessage(sb.String())}, false, nil
	}

	user := &schema.Message{
		Role:                  schema.User,
		UserInputMultiContent: parts,
	}
	return []*schema.Message{system, user}, true, nil
}
