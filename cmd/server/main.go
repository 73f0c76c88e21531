// Command server exposes archived diagnostic runs over HTTP.
package main

import (
	"flag"
	"os"

	"mintpy/adapters/postgres"
	"mintpy/internal/config"
	"mintpy/internal/logging"
	"mintpy/ports"
	"mintpy/ui"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fallback := logging.Setup("info", true)
		fallback.Fatal().Err(err).Msg("failed to load configuration")
	}
	log := logging.Setup(cfg.Logging.Level, cfg.Logging.Pretty)

	var ledger ports.ResultLedger
	if cfg.Database.URL != "" {
		pg, err := postgres.Open(cfg.Database.URL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to open result ledger")
		}
		defer pg.Close()
		ledger = pg
		log.Info().Msg("result ledger connected")
	} else {
		log.Warn().Msg("no DATABASE_URL set; archive endpoints disabled")
	}

	server := ui.NewServer(nil, ledger, log, cfg.Server.GinMode)
	addr := ":" + cfg.Server.Port
	log.Info().Str("addr", addr).Msg("listening")
	if err := server.Run(addr); err != nil {
		log.Error().Err(err).Msg("server stopped")
		os.Exit(1)
	}
}
