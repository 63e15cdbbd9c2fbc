package config

import (
	"os"
	"strconv"
	"time"
)

// DBConfig 数据库配置
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
}

// MQConfig 消息队列配置，URL 为空时不发布事件
type MQConfig struct {
	URL string `yaml:"url"`
}

// RedisConfig Redis配置，Addr 为空时使用进程内锁
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// JWTConfig JWT配置，Secret 为空时 API 不鉴权
type JWTConfig struct {
	Secret string `yaml:"secret"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Port string `yaml:"port"`
}

// GmailConfig Gmail 客户端配置
type GmailConfig struct {
	CredentialsFile string        `yaml:"credentials_file"`
	TokenFile       string        `yaml:"token_file"`
	User            string        `yaml:"user"`
	Timeout         time.Duration `yaml:"timeout"`
}

// SummarizerConfig 摘要模型配置
type SummarizerConfig struct {
	// Backend: http 或 bedrock
	Backend   string        `yaml:"backend"`
	BaseURL   string        `yaml:"base_url"`
	Model     string        `yaml:"model"`
	APIToken  string        `yaml:"api_token"`
	MinLength int           `yaml:"min_length"`
	MaxLength int           `yaml:"max_length"`
	Timeout   time.Duration `yaml:"timeout"`
	Region    string        `yaml:"region"`
}

// TriageConfig 分拣流程配置
type TriageConfig struct {
	DefaultMaxResults int           `yaml:"default_max_results"`
	LockTTL           time.Duration `yaml:"lock_ttl"`
}

// OverrideDBFromEnv 从环境变量覆盖数据库配置
func OverrideDBFromEnv(cfg *DBConfig) {
	if host := os.Getenv("DB_HOST"); host != "" {
		cfg.Host = host
	}
	if port := os.Getenv("DB_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.Port = p
		}
	}
	if user := os.Getenv("DB_USER"); user != "" {
		cfg.User = user
	}
	if password := os.Getenv("DB_PASSWORD"); password != "" {
		cfg.Password = password
	}
	if name := os.Getenv("DB_NAME"); name != "" {
		cfg.Name = name
	}
}

// OverrideMQFromEnv 从环境变量覆盖MQ配置
func OverrideMQFromEnv(cfg *MQConfig) {
	if url := os.Getenv("MQ_URL"); url != "" {
		cfg.URL = url
	}
}

// OverrideRedisFromEnv 从环境变量覆盖Redis配置
func OverrideRedisFromEnv(cfg *RedisConfig) {
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		cfg.Addr = addr
	}
	if password := os.Getenv("REDIS_PASSWORD"); password != "" {
		cfg.Password = password
	}
}

// OverrideJWTFromEnv 从环境变量覆盖JWT配置
func OverrideJWTFromEnv(cfg *JWTConfig) {
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		cfg.Secret = secret
	}
}

// OverrideServerFromEnv 从环境变量覆盖服务器配置
func OverrideServerFromEnv(cfg *ServerConfig) {
	if port := os.Getenv("SERVER_PORT"); port != "" {
		cfg.Port = port
	}
}

// OverrideGmailFromEnv 从环境变量覆盖 Gmail 配置
func OverrideGmailFromEnv(cfg *GmailConfig) {
	if path := os.Getenv("GMAIL_CREDENTIALS_FILE"); path != "" {
		cfg.CredentialsFile = path
	}
	if path := os.Getenv("GMAIL_TOKEN_FILE"); path != "" {
		cfg.TokenFile = path
	}
}

// OverrideSummarizerFromEnv 从环境变量覆盖摘要模型配置
func OverrideSummarizerFromEnv(cfg *SummarizerConfig) {
	if backend := os.Getenv("SUMMARIZER_BACKEND"); backend != "" {
		cfg.Backend = backend
	}
	if url := os.Getenv("SUMMARIZER_BASE_URL"); url != "" {
		cfg.BaseURL = url
	}
	if model := os.Getenv("SUMMARIZER_MODEL"); model != "" {
		cfg.Model = model
	}
	if token := os.Getenv("SUMMARIZER_API_TOKEN"); token != "" {
		cfg.APIToken = token
	}
	if region := os.Getenv("AWS_REGION"); region != "" {
		cfg.Region = region
	}
}
