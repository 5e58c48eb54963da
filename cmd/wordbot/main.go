// Command wordbot runs the vocabulary Telegram bot.
package main

import (
	"log"

	"github.com/m3rciful/wordbot/core/bootstrap"
	corecmd "github.com/m3rciful/wordbot/core/cmd"
	"github.com/m3rciful/wordbot/internal/app"
	"github.com/m3rciful/wordbot/internal/config"
	"github.com/m3rciful/wordbot/migrations"
)

func main() {
	err := corecmd.Run(corecmd.Options{
		ConfigEnvVar:      "CONFIG_PATH",
		DefaultConfigPath: "config.yaml",
		LoadConfig: func(path string) (corecmd.ConfigCarrier, error) {
			return config.Load(path)
		},
		Bootstrap: func(c corecmd.ConfigCarrier) (corecmd.TelegramApp, error) {
			cfg := c.(*config.Config)
			infra, err := bootstrap.Run(bootstrap.Options{
				Config:     cfg.CoreConfig(),
				Database:   cfg.Database,
				Migrations: migrations.FS,
			})
			if err != nil {
				return nil, err
			}
			return app.New(cfg, infra)
		},
	})
	if err != nil {
		log.Fatal(err)
	}
}
