package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"
)

// Config 聚合整个服务的配置项。
type Config struct {
	Server  ServerConfig
	AI      AIConfig
	Debate  DebateConfig
	Gateway GatewayConfig
	Log     LogConfig
	Metrics MetricsConfig
}

// Load 从环境变量加载配置。
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	ai, err := loadAIConfig()
	if err != nil {
		return nil, err
	}

	debate, err := loadDebateConfig()
	if err != nil {
		return nil, err
	}

	gateway, err := loadGatewayConfig()
	if err != nil {
		return nil, err
	}

	metrics, err := loadMetricsConfig()
	if err != nil {
		return nil, err
	}

	return &Config{
		Server:  server,
		AI:      ai,
		Debate:  debate,
		Gateway: gateway,
		Log:     loadLogConfig(),
		Metrics: metrics,
	}, nil
}

// ServerConfig 描述 HTTP 服务配置。
type ServerConfig struct {
	Addr           string
	AllowedOrigins []string
	RateLimitRPS   float64
	RateLimitBurst int
}

// defaultAllowedOrigins 对应前端开发服务器与本地静态服务。
var defaultAllowedOrigins = []string{
	"http://localhost:5173",
	"http://127.0.0.1:5173",
	"http://localhost:5000",
	"http://127.0.0.1:5000",
}

// loadServerConfig 解析服务器监听地址、CORS 与限流配置。
func loadServerConfig() (ServerConfig, error) {
	addr, err := parseAddr(strings.TrimSpace(os.Getenv("PORT")))
	if err != nil {
		return ServerConfig{}, err
	}

	origins := defaultAllowedOrigins
	if raw := strings.TrimSpace(os.Getenv("CORS_ALLOWED_ORIGINS")); raw != "" {
		origins = splitList(raw)
	}

	rps := 20.0
	if override, err := parseOptionalFloatEnv("RATE_LIMIT_RPS"); err != nil {
		return ServerConfig{}, err
	} else if override != nil {
		rps = *override
	}

	burst := 40
	if override, err := parseOptionalIntEnv("RATE_LIMIT_BURST"); err != nil {
		return ServerConfig{}, err
	} else if override != nil {
		burst = *override
	}

	return ServerConfig{
		Addr:           addr,
		AllowedOrigins: origins,
		RateLimitRPS:   rps,
		RateLimitBurst: burst,
	}, nil
}

func parseAddr(port string) (string, error) {
	if port == "" {
		port = "5000"
	}

	if strings.Contains(port, ":") {
		// 允许用户直接传入 ":5000" 或 "127.0.0.1:5000"。
		return port, nil
	}

	if strings.Contains(port, " ") {
		return "", fmt.Errorf("invalid PORT value: %q", port)
	}

	return ":" + port, nil
}

// AIConfig 描述大模型相关配置。
type AIConfig struct {
	APIKey      string
	AccessKey   string
	SecretKey   string
	Model       string
	BaseURL     string
	Region      string
	Temperature *float64
	TopP        *float64
	MaxTokens   *int
}

// Enabled 表示是否提供了必需的密钥。
func (c AIConfig) Enabled() bool {
	return c.Model != "" && (c.APIKey != "" || (c.AccessKey != "" && c.SecretKey != ""))
}

// ForModel 返回替换了模型 ID（以及可选温度）的配置副本，空值沿用默认。
func (c AIConfig) ForModel(modelID string, temperature *float64) AIConfig {
	out := c
	if id := strings.TrimSpace(modelID); id != "" {
		out.Model = id
	}
	if temperature != nil {
		val := *temperature
		out.Temperature = &val
	}
	return out
}

// NewChatModel 使用配置创建一个模型实例。
func (c AIConfig) NewChatModel(ctx context.Context) (model.ChatModel, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("Ark 凭证或模型配置缺失，至少提供 ARK_API_KEY + Model 或 AK/SK 组合")
	}

	var temperature *float32
	if c.Temperature != nil {
		val := float32(*c.Temperature)
		temperature = &val
	}

	var topP *float32
	if c.TopP != nil {
		val := float32(*c.TopP)
		topP = &val
	}

	var maxTokens *int
	if c.MaxTokens != nil {
		val := *c.MaxTokens
		maxTokens = &val
	}

	cfg := &ark.ChatModelConfig{
		BaseURL:     c.BaseURL,
		Region:      c.Region,
		APIKey:      c.APIKey,
		AccessKey:   c.AccessKey,
		SecretKey:   c.SecretKey,
		Model:       c.Model,
		MaxTokens:   maxTokens,
		Temperature: temperature,
		TopP:        topP,
	}

	return ark.NewChatModel(ctx, cfg)
}

func loadAIConfig() (AIConfig, error) {
	temperature, err := parseOptionalFloatEnv("ARK_TEMPERATURE")
	if err != nil {
		return AIConfig{}, err
	}

	topP, err := parseOptionalFloatEnv("ARK_TOP_P")
	if err != nil {
		return AIConfig{}, err
	}

	maxTokens, err := parseOptionalIntEnv("ARK_MAX_TOKENS")
	if err != nil {
		return AIConfig{}, err
	}

	modelID := strings.TrimSpace(os.Getenv("ARK_MODEL"))
	if modelID == "" {
		// 兼容旧的 Model 变量名
		modelID = strings.TrimSpace(os.Getenv("Model"))
	}

	return AIConfig{
		APIKey:      strings.TrimSpace(os.Getenv("ARK_API_KEY")),
		AccessKey:   strings.TrimSpace(os.Getenv("ARK_ACCESS_KEY")),
		SecretKey:   strings.TrimSpace(os.Getenv("ARK_SECRET_KEY")),
		Model:       modelID,
		BaseURL:     getEnvOrDefault("ARK_BASE_URL", "https://ark.cn-beijing.volces.com/api/v3"),
		Region:      getEnvOrDefault("ARK_REGION", "cn-beijing"),
		Temperature: temperature,
		TopP:        topP,
		MaxTokens:   maxTokens,
	}, nil
}

// DebateConfig 描述辩论引擎的边界。
type DebateConfig struct {
	MaxRounds    int
	TurnDelay    time.Duration
	TurnTimeout  time.Duration
	ContextLimit int
	Prompt       string
	CatalogPath  string
}

func loadDebateConfig() (DebateConfig, error) {
	cfg := DebateConfig{
		MaxRounds:    4,
		TurnDelay:    time.Second,
		TurnTimeout:  2 * time.Minute,
		ContextLimit: 24,
		Prompt:       getEnvOrDefault("DEBATE_PROMPT", "it is now your turn to speak"),
		CatalogPath:  strings.TrimSpace(os.Getenv("DEBATE_CATALOG_PATH")),
	}

	if rounds, err := parseOptionalIntEnv("DEBATE_MAX_ROUNDS"); err != nil {
		return DebateConfig{}, err
	} else if rounds != nil {
		if *rounds < 1 {
			return DebateConfig{}, fmt.Errorf("invalid DEBATE_MAX_ROUNDS value %d: must be at least 1", *rounds)
		}
		cfg.MaxRounds = *rounds
	}

	delay, err := parseOptionalDurationEnv("DEBATE_TURN_DELAY")
	if err != nil {
		return DebateConfig{}, err
	}
	if delay != nil {
		cfg.TurnDelay = *delay
	}

	timeout, err := parseOptionalDurationEnv("DEBATE_TURN_TIMEOUT")
	if err != nil {
		return DebateConfig{}, err
	}
	if timeout != nil {
		cfg.TurnTimeout = *timeout
	}

	if limit, err := parseOptionalIntEnv("DEBATE_CONTEXT_LIMIT"); err != nil {
		return DebateConfig{}, err
	} else if limit != nil {
		if *limit < 1 {
			cfg.ContextLimit = 1
		} else {
			cfg.ContextLimit = *limit
		}
	}

	return cfg, nil
}

// GatewayConfig 描述远程编排网关，URL 为空表示只使用本地引擎。
type GatewayConfig struct {
	URL       string
	AgentName string
	Timeout   time.Duration
}

func loadGatewayConfig() (GatewayConfig, error) {
	timeout := 5 * time.Minute
	override, err := parseOptionalDurationEnv("GATEWAY_TIMEOUT")
	if err != nil {
		return GatewayConfig{}, err
	}
	if override != nil {
		timeout = *override
	}

	return GatewayConfig{
		URL:       strings.TrimRight(strings.TrimSpace(os.Getenv("GATEWAY_URL")), "/"),
		AgentName: getEnvOrDefault("GATEWAY_AGENT_NAME", "DebateOrchestrator"),
		Timeout:   timeout,
	}, nil
}

// LogConfig 描述日志级别与输出格式。
type LogConfig struct {
	Level  string
	Format string
}

func loadLogConfig() LogConfig {
	return LogConfig{
		Level:  strings.ToLower(getEnvOrDefault("LOG_LEVEL", "info")),
		Format: strings.ToLower(getEnvOrDefault("LOG_FORMAT", "console")),
	}
}

// MetricsConfig 描述 Prometheus 指标端点。
type MetricsConfig struct {
	Enabled bool
	Path    string
}

func loadMetricsConfig() (MetricsConfig, error) {
	enabled, err := parseBoolEnv("METRICS_ENABLED", true)
	if err != nil {
		return MetricsConfig{}, err
	}
	return MetricsConfig{
		Enabled: enabled,
		Path:    getEnvOrDefault("METRICS_PATH", "/metrics"),
	}, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func parseBoolEnv(key string, defaultValue bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return val, nil
}

func parseOptionalFloatEnv(key string) (*float64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

// parseOptionalDurationEnv 接受 "1s"、"500ms" 这类时长，纯数字按秒处理。
func parseOptionalDurationEnv(key string) (*time.Duration, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	if seconds, err := strconv.ParseFloat(value, 64); err == nil {
		if seconds < 0 {
			return nil, fmt.Errorf("invalid %s value %q: must not be negative", key, value)
		}
		d := time.Duration(seconds * float64(time.Second))
		return &d, nil
	}

	d, err := time.ParseDuration(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	if d < 0 {
		return nil, fmt.Errorf("invalid %s value %q: must not be negative", key, value)
	}
	return &d, nil
}
