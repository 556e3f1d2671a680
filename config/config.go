package config

import (
	"fmt"
	"strings"

	"discord-guardian/models"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// LoadConfig 从多个源加载配置：.env 文件、config.yaml、以及 ./config/ 目录下的 JSON 文件。
// 配置加载顺序:
// 1. .env 文件 (用于环境变量)
// 2. config.yaml (基础配置)
// 3. config/moderation_config.json (合并到主配置)
// 环境变量会覆盖配置文件中的同名设置。
func LoadConfig() {
	// 1. 从 .env 文件加载环境变量，如果文件不存在则忽略。
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("未找到 .env 文件，将跳过加载。")
	}

	// 2. 设置并读取基础配置文件 (config.yaml)。
	viper.SetConfigName("config")                          // 配置文件名 (无扩展名)
	viper.SetConfigType("yaml")                            // 配置文件类型
	viper.AddConfigPath(".")                               // 在当前工作目录中查找
	viper.AutomaticEnv()                                   // 自动读取匹配的环境变量
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_")) // 将配置键中的'.'替换为'_'以匹配环境变量

	// 读取基础配置。
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// 配置文件未找到是正常情况，可以继续。
			log.Warn().Msg("未找到基础配置文件 (config.yaml)，将仅使用环境变量和后续合并的配置。")
		} else {
			// 如果找到配置文件但解析出错，则终止程序。
			panic(fmt.Errorf("解析基础配置文件时发生致命错误: %w", err))
		}
	}

	// 3. 合并审核策略配置文件 (config/moderation_config.json)。
	// MergeInConfig 会将配置合并到现有的 viper 配置中。
	viper.SetConfigName("moderation_config")
	viper.SetConfigType("json")
	viper.AddConfigPath("./config")

	if err := viper.MergeInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Warn().Msg("未找到审核策略配置文件 (config/moderation_config.json)，将使用缺省策略。")
		} else {
			panic(fmt.Errorf("合并审核策略配置文件时发生致命错误: %w", err))
		}
	}
}

// Moderation returns the moderation policy: the documented defaults
// overridden by whatever the merged configuration provides under the
// "moderation" key.
func Moderation() models.ModerationConfig {
	cfg := models.DefaultModerationConfig()
	if err := viper.UnmarshalKey("moderation", &cfg); err != nil {
		log.Error().Err(err).Msg("无法解析审核策略配置，使用缺省策略")
		return models.DefaultModerationConfig()
	}
	if cfg.AdminChannelID == "" {
		cfg.AdminChannelID = viper.GetString("bot.adminChannelId")
	}
	return cfg
}
