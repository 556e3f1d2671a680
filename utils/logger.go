package utils

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// InitLogger configures the global zerolog logger.
// 日志级别可通过 bot.logLevel 配置，缺省 info。
func InitLogger() {
	level, err := zerolog.ParseLevel(viper.GetString("bot.logLevel"))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if viper.GetBool("bot.prettyLog") {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	log.Info().Str("level", level.String()).Msg("logger initialized")
}
