package vars

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config 进程启动时加载一次，之后显式传给各组件
type Config struct {
	Server ServerConfig `mapstructure:"server"`
	Log    LogConfig    `mapstructure:"log"`
	LLM    LLMConfig    `mapstructure:"llm"`
	Ingest IngestConfig `mapstructure:"ingest"`
	Ledger LedgerConfig `mapstructure:"ledger"`
}

type ServerConfig struct {
	Addr           string `mapstructure:"addr"`
	MaxUploadBytes int64  `mapstructure:"max_upload_bytes"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type LLMConfig struct {
	Provider    string        `mapstructure:"provider"`
	APIKey      string        `mapstructure:"api_key"`
	BaseURL     string        `mapstructure:"base_url"`
	Model       string        `mapstructure:"model"`
	Temperature float32       `mapstructure:"temperature"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

type IngestConfig struct {
	MaxTextChars     int `mapstructure:"max_text_chars"`
	ScannedThreshold int `mapstructure:"scanned_threshold"`
}

// LedgerConfig DSN 为空时不记录运行流水
type LedgerConfig struct {
	DSN       string        `mapstructure:"dsn"`
	Retention time.Duration `mapstructure:"retention"`
	PruneCron string        `mapstructure:"prune_cron"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8081")
	v.SetDefault("server.max_upload_bytes", MaxUploadBytes)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("llm.provider", ProviderOpenAI)
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.base_url", "")
	v.SetDefault("llm.model", "")
	v.SetDefault("llm.temperature", 0.0)
	v.SetDefault("llm.timeout", 60*time.Second)
	v.SetDefault("ingest.max_text_chars", MaxTextChars)
	v.SetDefault("ingest.scanned_threshold", ScannedThreshold)
	v.SetDefault("ledger.dsn", "")
	v.SetDefault("ledger.retention", 30*24*time.Hour)
	v.SetDefault("ledger.prune_cron", "0 2 * * *")
}

// Load 读取配置：默认值 < 配置文件 < 环境变量（EARNINGS_ 前缀，如 EARNINGS_LLM_API_KEY）。
// path 为空时只在当前目录找 config.yaml，找不到不算错误。
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("EARNINGS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// 兼容通用的 OPENAI_API_KEY
	if err := v.BindEnv("llm.api_key", "EARNINGS_LLM_API_KEY", "OPENAI_API_KEY"); err != nil {
		return nil, fmt.Errorf("bind env: %w", err)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.fillDefaults()
	return &cfg, nil
}

func (c *Config) fillDefaults() {
	c.LLM.Provider = strings.ToLower(strings.TrimSpace(c.LLM.Provider))
	c.LLM.APIKey = strings.TrimSpace(c.LLM.APIKey)
	if c.LLM.Model == "" {
		switch c.LLM.Provider {
		case ProviderOllama:
			c.LLM.Model = DefaultOllamaModel
		default:
			c.LLM.Model = DefaultOpenAIModel
		}
	}
	if c.LLM.Provider == ProviderOllama && c.LLM.BaseURL == "" {
		c.LLM.BaseURL = DefaultOllamaURL
	}
	if c.Server.MaxUploadBytes <= 0 {
		c.Server.MaxUploadBytes = MaxUploadBytes
	}
	if c.Ingest.MaxTextChars <= 0 {
		c.Ingest.MaxTextChars = MaxTextChars
	}
	if c.Ingest.ScannedThreshold <= 0 {
		c.Ingest.ScannedThreshold = ScannedThreshold
	}
}

// Validate 只检查会导致进程无法启动的配置；缺少 API Key 不在这里报错，
// 而是在每次请求时返回 ConfigMissing
func (c *Config) Validate() error {
	switch c.LLM.Provider {
	case ProviderOpenAI, ProviderOllama:
	default:
		return fmt.Errorf("unsupported llm.provider %q", c.LLM.Provider)
	}
	if c.LLM.Timeout <= 0 {
		return fmt.Errorf("llm.timeout must be positive")
	}
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}
	return nil
}
