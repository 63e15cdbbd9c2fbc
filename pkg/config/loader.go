package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadConfig 加载配置，支持多环境
// env: local, production, 或其他环境名称
// configDir: 配置文件目录，默认为 "config"
func LoadConfig(env string, configDir string) (map[string]interface{}, error) {
	if configDir == "" {
		configDir = "config"
	}

	baseConfig, err := loadYAMLFile(filepath.Join(configDir, "base.yaml"))
	if err != nil {
		return nil, fmt.Errorf("failed to load base.yaml: %w", err)
	}

	// 环境配置可选
	envConfig := make(map[string]interface{})
	if env != "" && env != "base" {
		envFile := filepath.Join(configDir, fmt.Sprintf("%s.yaml", env))
		if _, err := os.Stat(envFile); err == nil {
			envConfig, err = loadYAMLFile(envFile)
			if err != nil {
				return nil, fmt.Errorf("failed to load %s.yaml: %w", env, err)
			}
		}
	}

	merged := mergeMaps(baseConfig, envConfig)

	secretsFile := filepath.Join(configDir, "secrets.env")
	if _, err := os.Stat(secretsFile); err == nil {
		secrets, err := loadEnvFile(secretsFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load secrets.env: %w", err)
		}
		merged = substituteEnvVars(merged, secrets)
	}

	return merged, nil
}

// Decode 将合并后的配置解码到结构体
func Decode(cfgMap map[string]interface{}, out interface{}) error {
	data, err := yaml.Marshal(cfgMap)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return nil
}

func loadYAMLFile(path string) (map[string]interface{}, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var config map[string]interface{}
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, err
	}
	if config == nil {
		config = make(map[string]interface{})
	}

	return config, nil
}

// loadEnvFile 加载 .env 文件，支持 # 注释和引号
func loadEnvFile(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	env := make(map[string]string)
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)
		value = strings.Trim(value, `"`)
		value = strings.Trim(value, `'`)
		env[strings.TrimSpace(key)] = value
	}

	return env, nil
}

// mergeMaps 合并两个 map，src 覆盖 dst，嵌套 map 递归合并
func mergeMaps(dst, src map[string]interface{}) map[string]interface{} {
	result := make(map[string]interface{}, len(dst))
	for k, v := range dst {
		result[k] = v
	}

	for k, v := range src {
		dstMap, dstOK := result[k].(map[string]interface{})
		srcMap, srcOK := v.(map[string]interface{})
		if dstOK && srcOK {
			result[k] = mergeMaps(dstMap, srcMap)
			continue
		}
		result[k] = v
	}

	return result
}

// substituteEnvVars 替换配置中的 ${VAR_NAME} 占位符
func substituteEnvVars(config map[string]interface{}, env map[string]string) map[string]interface{} {
	result := make(map[string]interface{}, len(config))
	for k, v := range config {
		switch val := v.(type) {
		case string:
			result[k] = substituteString(val, env)
		case map[string]interface{}:
			result[k] = substituteEnvVars(val, env)
		default:
			result[k] = v
		}
	}
	return result
}

func substituteString(s string, env map[string]string) string {
	if !strings.Contains(s, "${") {
		return s
	}

	result := s
	for key, value := range env {
		result = strings.ReplaceAll(result, "${"+key+"}", value)
	}
	return result
}

// GetEnv 获取环境变量，如果未设置则返回默认值
func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// GetConfigEnv 获取配置环境（从环境变量 CONFIG_ENV，默认为 local）
func GetConfigEnv() string {
	return GetEnv("CONFIG_ENV", "local")
}
