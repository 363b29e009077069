package worker

// rates_cron.go
// Background goroutine that periodically refreshes reference rates from the
// external feed. Uses the Circuit Breaker to avoid hammering a downed
// provider; buy/sell spreads are never touched.

import (
	"context"
	"time"

	"github.com/kassemKu/sibai-transactions-sub000/internal/infra"
	"github.com/kassemKu/sibai-transactions-sub000/internal/service"

	"github.com/rs/zerolog/log"
)

// RatesCronConfig holds all dependencies for the sync goroutine.
type RatesCronConfig struct {
	Registry service.RegistryService
	CB       *infra.CircuitBreaker
	Interval time.Duration
}

// StartRatesCron launches a background goroutine that ticks on the configured
// interval and syncs reference rates through the circuit breaker.
// It respects the context for graceful shutdown.
func StartRatesCron(ctx context.Context, cfg RatesCronConfig) {
	if cfg.Interval <= 0 {
		cfg.Interval = 5 * time.Minute
	}
	go func() {
		ticker := time.NewTicker(cfg.Interval)
		defer ticker.Stop()

		log.Info().Dur("interval", cfg.Interval).Msg("rates_cron: started")

		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("rates_cron: shutting down")
				return
			case <-ticker.C:
				syncRates(ctx, cfg)
			}
		}
	}()
}

func syncRates(ctx context.Context, cfg RatesCronConfig) {
	if cfg.CB.State() == infra.CBOpen {
		log.Debug().Msg("rates_cron: circuit breaker is open, skipping tick")
		return
	}

	err := cfg.CB.Execute(func() error {
		return cfg.Registry.SyncRates(ctx)
	})
	if err != nil {
		log.Warn().Err(err).Msg("rates_cron: sync failed")
		return
	}
	log.Debug().Msg("rates_cron: reference rates synced")
}
