package worker

// reconcile_cron.go
// Background goroutine that periodically reconciles stale PENDING orders with
// the payment provider. Covers the case where the customer paid but the
// storefront never posted the confirmation (closed tab, lost redirect).
// Uses the Circuit Breaker to avoid hammering a downed provider.

import (
	"context"
	"errors"
	"time"

	"beewear/internal/dto"
	"beewear/internal/infra"
	"beewear/internal/repository"

	"github.com/rs/zerolog/log"
)

const (
	reconcileTickInterval = 60 * time.Second
	reconcileBatchSize    = 10
	reconcileMinAge       = 10 * time.Minute
)

// OrderConfirmer is the slice of the order service the cron needs. Declared
// here so the cron does not import the service package (which imports this
// one for the Dispatcher).
type OrderConfirmer interface {
	Confirm(ctx context.Context, sessionID string) (*dto.OrderResponse, error)
}

// PaymentVerifier mirrors the provider's session lookup.
type PaymentVerifier interface {
	VerifySession(ctx context.Context, sessionID string) (*infra.SessionStatus, error)
}

// ReconcileCronConfig holds all dependencies for the reconcile goroutine.
type ReconcileCronConfig struct {
	OrderRepo repository.OrderRepository
	Orders    OrderConfirmer
	Gateway   PaymentVerifier
	CB        *infra.CircuitBreaker
	NotPaid   error // sentinel returned by Confirm when the session is unpaid
}

// StartReconcileCron launches a background goroutine that ticks every 60s,
// queries stale pending orders, and checks their sessions through the CB.
// It respects the context for graceful shutdown.
func StartReconcileCron(ctx context.Context, cfg ReconcileCronConfig) {
	go func() {
		ticker := time.NewTicker(reconcileTickInterval)
		defer ticker.Stop()

		log.Info().Msg("reconcile_cron: started")

		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("reconcile_cron: shutting down")
				return
			case <-ticker.C:
				reconcilePending(ctx, cfg)
			}
		}
	}()
}

func reconcilePending(ctx context.Context, cfg ReconcileCronConfig) {
	// If CB is open, skip entirely — don't hammer a downed provider
	if cfg.CB.State() == infra.CBOpen {
		log.Debug().Msg("reconcile_cron: circuit breaker is open, skipping tick")
		return
	}

	cutoff := time.Now().Add(-reconcileMinAge)
	orders, err := cfg.OrderRepo.ListStalePending(ctx, cutoff, reconcileBatchSize)
	if err != nil {
		log.Error().Err(err).Msg("reconcile_cron: failed to query stale pending orders")
		return
	}
	if len(orders) == 0 {
		return
	}

	log.Info().Int("count", len(orders)).Msg("reconcile_cron: checking stale pending orders")

	for i := range orders {
		order := &orders[i]
		if order.CheckoutSessionID == nil {
			continue
		}

		// Check CB state before each call — it may have tripped mid-batch
		if cfg.CB.State() == infra.CBOpen {
			log.Debug().Msg("reconcile_cron: circuit breaker opened mid-batch, stopping")
			return
		}

		var status *infra.SessionStatus
		cbErr := cfg.CB.Execute(func() error {
			s, err := cfg.Gateway.VerifySession(ctx, *order.CheckoutSessionID)
			if err != nil {
				return err
			}
			status = s
			return nil
		})
		if cbErr != nil {
			log.Warn().Err(cbErr).Int64("order", order.Number).Msg("reconcile_cron: session check failed")
			continue
		}
		if !status.Paid {
			continue
		}

		// Paid but never confirmed — run the regular confirmation flow.
		if _, err := cfg.Orders.Confirm(ctx, *order.CheckoutSessionID); err != nil {
			if cfg.NotPaid != nil && errors.Is(err, cfg.NotPaid) {
				continue
			}
			log.Error().Err(err).Int64("order", order.Number).Msg("reconcile_cron: confirmation failed")
			continue
		}
		log.Info().Int64("order", order.Number).Msg("reconcile_cron: stale paid order confirmed")
	}
}
