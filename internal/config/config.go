// Package config 负责加载和管理应用程序的配置。
package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// 全局配置变量，存储从配置文件加载的所有设置。
var Conf Config

// Config 是整个应用程序的配置结构体，与 config.yaml 文件结构对应。
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Log      LogConfig      `mapstructure:"log"`
	LLM      LLMConfig      `mapstructure:"llm"`
	Chat     ChatConfig     `mapstructure:"chat"`
	Image    ImageConfig    `mapstructure:"image"`
}

// ServerConfig 存储服务器相关的配置。
type ServerConfig struct {
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

// DatabaseConfig 存储存储后端的配置。
type DatabaseConfig struct {
	Redis RedisConfig `mapstructure:"redis"`
}

// RedisConfig 存储 Redis 的配置。Addr 为空时使用进程内存储。
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// LogConfig 存储日志相关的配置。
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// LLMConfig 存储大语言模型后端的配置。
type LLMConfig struct {
	APIKey     string              `mapstructure:"api_key"`
	BaseURL    string              `mapstructure:"base_url"`
	Model      string              `mapstructure:"model"`
	Generation LLMGenerationConfig `mapstructure:"generation"`
	Retry      LLMRetryConfig      `mapstructure:"retry"`
}

// LLMGenerationConfig 配置生成相关参数。
type LLMGenerationConfig struct {
	Temperature     float64 `mapstructure:"temperature"`
	MaxOutputTokens int     `mapstructure:"max_output_tokens"`
}

// LLMRetryConfig 配置连接级瞬时失败（429/503/网络错误）的重试策略。
type LLMRetryConfig struct {
	MaxRetries      int `mapstructure:"max_retries"`
	BaseDelayMillis int `mapstructure:"base_delay_millis"`
}

// ChatConfig 配置会话行为。
type ChatConfig struct {
	HistoryLimit int `mapstructure:"history_limit"` // 发给后端的最大上下文消息数
}

// ImageConfig 配置图片压缩参数。
type ImageConfig struct {
	MaxDimension   int `mapstructure:"max_dimension"`   // 聊天图最大边长
	ThumbDimension int `mapstructure:"thumb_dimension"` // 酒窖缩略图最大边长
	Quality        int `mapstructure:"quality"`         // JPEG 初始质量
	MaxBytes       int `mapstructure:"max_bytes"`       // 压缩目标上限
	MemoryQuota    int `mapstructure:"memory_quota"`    // 进程内存储的配额
}

// Init 初始化配置加载，从指定的路径读取 YAML 文件并解析到 Conf 变量中。
func Init(configPath string) {
	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		panic(fmt.Errorf("读取配置文件失败: %w", err))
	}

	if err := viper.Unmarshal(&Conf); err != nil {
		panic(fmt.Errorf("无法将配置解析到结构体中: %w", err))
	}
}

func setDefaults() {
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.mode", "debug")
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "console")
	viper.SetDefault("llm.base_url", "https://generativelanguage.googleapis.com/v1beta")
	viper.SetDefault("llm.model", "gemini-2.5-pro")
	viper.SetDefault("llm.generation.temperature", 0.8)
	viper.SetDefault("llm.generation.max_output_tokens", 8192)
	viper.SetDefault("llm.retry.max_retries", 3)
	viper.SetDefault("llm.retry.base_delay_millis", 500)
	viper.SetDefault("chat.history_limit", 20)
	viper.SetDefault("image.max_dimension", 1024)
	viper.SetDefault("image.thumb_dimension", 256)
	viper.SetDefault("image.quality", 70)
	viper.SetDefault("image.max_bytes", 1<<20)
	viper.SetDefault("image.memory_quota", 8<<20)
}
