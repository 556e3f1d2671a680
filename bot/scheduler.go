package bot

import (
	"context"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

var c *cron.Cron

// startScheduler starts the periodic sweep.
// 每分钟触发一次；任务本身按天/周闸门保证只执行一次。
func startScheduler(b *Bot) {
	log.Info().Msg("Initializing scheduler...")
	c = cron.New()
	_, err := c.AddFunc("@every 1m", func() {
		b.Sweeper.Tick(context.Background())
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Could not set up cron job")
	}
	c.Start()
	log.Info().Msg("Sweep scheduled to run every minute.")
}

// stopScheduler stops the cron jobs.
func stopScheduler() {
	if c != nil {
		c.Stop()
		log.Info().Msg("Scheduler stopped.")
	}
}
