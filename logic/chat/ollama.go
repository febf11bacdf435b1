package chat

import (
	"context"
	"fmt"

	contract "earnings-digest/logic/schema"
	"earnings-digest/vars"

	"github.com/cloudwego/eino-ext/components/model/ollama"
	"github.com/cloudwego/eino/components/model"
)

// OllamaFactory 本地模型，用 format 字段约束输出结构。不支持附件
type OllamaFactory struct {
	cfg vars.LLMConfig
}

func NewOllamaFactory(cfg vars.LLMConfig) *OllamaFactory {
	return &OllamaFactory{cfg: cfg}
}

func (f *OllamaFactory) NewChatModel(ctx context.Context, c *contract.Contract) (model.BaseChatModel, error) {
	chatModel, err := ollama.NewChatModel(ctx, &ollama.ChatModelConfig{
		BaseURL: f.cfg.BaseURL, // Ollama 服务地址
		Model:   f.cfg.Model,   // 模型名称
		Timeout: f.cfg.Timeout,
		Format:  c.JSON(),
	})
	if err != nil {
		return nil, fmt.Errorf("create ollama chat model failed: %w", err)
	}
	return chatModel, nil
}
