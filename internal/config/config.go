package config

import (
	"fmt"
	"time"

	"mailtriage/pkg/config"
)

type Config struct {
	Debug      bool                    `yaml:"debug"`
	Server     config.ServerConfig     `yaml:"server"`
	DB         config.DBConfig         `yaml:"db"`
	Redis      config.RedisConfig      `yaml:"redis"`
	MQ         config.MQConfig         `yaml:"mq"`
	JWT        config.JWTConfig        `yaml:"jwt"`
	Gmail      config.GmailConfig      `yaml:"gmail"`
	Summarizer config.SummarizerConfig `yaml:"summarizer"`
	Triage     config.TriageConfig     `yaml:"triage"`
}

// Load 读取 CONFIG_DIR 下的 base.yaml 与 CONFIG_ENV 对应的环境配置，再用环境变量覆盖
func Load() (*Config, error) {
	return LoadFrom(config.GetConfigEnv(), config.GetEnv("CONFIG_DIR", "config"))
}

func LoadFrom(env, dir string) (*Config, error) {
	cfgMap, err := config.LoadConfig(env, dir)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := config.Decode(cfgMap, &cfg); err != nil {
		return nil, err
	}

	// 环境变量覆盖
	config.OverrideDBFromEnv(&cfg.DB)
	config.OverrideRedisFromEnv(&cfg.Redis)
	config.OverrideMQFromEnv(&cfg.MQ)
	config.OverrideJWTFromEnv(&cfg.JWT)
	config.OverrideServerFromEnv(&cfg.Server)
	config.OverrideGmailFromEnv(&cfg.Gmail)
	config.OverrideSummarizerFromEnv(&cfg.Summarizer)

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == "" {
		c.Server.Port = ":8080"
	}
	if c.Gmail.User == "" {
		c.Gmail.User = "me"
	}
	if c.Gmail.Timeout == 0 {
		c.Gmail.Timeout = 30 * time.Second
	}
	if c.Gmail.TokenFile == "" {
		c.Gmail.TokenFile = "token.json"
	}
	if c.Gmail.CredentialsFile == "" {
		c.Gmail.CredentialsFile = "credentials.json"
	}
	if c.Triage.DefaultMaxResults == 0 {
		c.Triage.DefaultMaxResults = 5
	}
	if c.Triage.LockTTL == 0 {
		c.Triage.LockTTL = 30 * time.Second
	}
}

func (c *Config) validate() error {
	if c.Triage.DefaultMaxResults < 1 || c.Triage.DefaultMaxResults > 500 {
		return fmt.Errorf("triage.default_max_results must be between 1 and 500, got %d", c.Triage.DefaultMaxResults)
	}
	if c.Summarizer.MinLength > 0 && c.Summarizer.MaxLength > 0 && c.Summarizer.MinLength > c.Summarizer.MaxLength {
		return fmt.Errorf("summarizer.min_length (%d) exceeds max_length (%d)", c.Summarizer.MinLength, c.Summarizer.MaxLength)
	}
	return nil
}
