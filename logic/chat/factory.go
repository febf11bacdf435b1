package chat

import (
	"context"
	"fmt"

	contract "earnings-digest/logic/schema"
	"earnings-digest/vars"

	"github.com/cloudwego/eino/components/model"
)

// Factory 按请求创建模型实例，schema 在创建时绑定
type Factory interface {
	NewChatModel(ctx context.Context, c *contract.Contract) (model.BaseChatModel, error)
}

// NewFactory 根据 llm.provider 选择实现
func NewFactory(cfg vars.LLMConfig) (Factory, error) {
	switch cfg.Provider {
	case vars.ProviderOpenAI:
		return NewOpenAIFactory(cfg), nil
	case vars.ProviderOllama:
		return NewOllamaFactory(cfg), nil
	default:
		return nil, fmt.Errorf("unsupported llm provider %q", cfg.Provider)
	}
}
