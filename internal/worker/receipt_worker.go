package worker

// receipt_worker.go
// Processes receipt jobs from QueueReceipts.
// Generates the PDF receipt for a confirmed order and enqueues the
// confirmation email. Implements exponential backoff (max 3 retries).

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"beewear/internal/infra"
	"beewear/internal/repository"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// ReceiptJobPayload is the job envelope sent to QueueReceipts.
type ReceiptJobPayload struct {
	OrderID       string `json:"order_id"`
	CustomerEmail string `json:"customer_email,omitempty"`
}

// ReceiptWorker processes receipt jobs from QueueReceipts.
type ReceiptWorker struct {
	orderRepo   repository.OrderRepository
	dispatcher  *Dispatcher
	rdb         *redis.Client
	storagePath string
	storeName   string
}

func NewReceiptWorker(
	orderRepo repository.OrderRepository,
	dispatcher *Dispatcher,
	rdb *redis.Client,
	storagePath string,
	storeName string,
) *ReceiptWorker {
	return &ReceiptWorker{
		orderRepo:   orderRepo,
		dispatcher:  dispatcher,
		rdb:         rdb,
		storagePath: storagePath,
		storeName:   storeName,
	}
}

// Process handles a single receipt job:
//  1. Parse ReceiptJobPayload from the job envelope
//  2. Fetch the order (with items and catalog preloads) from DB
//  3. Generate the PDF receipt with backoff (max 3 attempts)
//  4. Enqueue the confirmation email with the PDF attached
//
// Repeated failure moves the job to the DLQ instead of dropping it.
func (w *ReceiptWorker) Process(ctx context.Context, raw json.RawMessage) {
	var payload ReceiptJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Error().Err(err).Msg("receipt_worker: invalid payload")
		return
	}

	orderID, err := uuid.Parse(payload.OrderID)
	if err != nil {
		log.Error().Str("order_id", payload.OrderID).Msg("receipt_worker: invalid order_id")
		return
	}

	order, err := w.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		log.Error().Err(err).Str("order_id", payload.OrderID).Msg("receipt_worker: order not found")
		SendToDLQ(ctx, w.rdb, QueueReceipts, "receipt", raw, "order not found: "+err.Error(), 1)
		return
	}

	var pdfPath string
	genErr := withRetry(ctx, 3, func(attempt int) error {
		path, err := infra.GenerateReceiptPDF(order, w.storeName, w.storagePath)
		if err != nil {
			log.Warn().
				Err(err).
				Int("attempt", attempt+1).
				Int64("order", order.Number).
				Msg("receipt_worker: PDF attempt failed, retrying")
			return err
		}
		pdfPath = path
		return nil
	})
	if genErr != nil {
		log.Error().Err(genErr).Int64("order", order.Number).Msg("receipt_worker: PDF generation failed after all retries")
		SendToDLQ(ctx, w.rdb, QueueReceipts, "receipt", raw, genErr.Error(), 3)
		return
	}
	log.Info().Str("pdf", pdfPath).Int64("order", order.Number).Msg("receipt_worker: PDF generated")

	to := payload.CustomerEmail
	if to == "" {
		to = order.CustomerEmail
	}
	if to == "" {
		return
	}

	emailJob := EmailJobPayload{
		ToEmail: to,
		Subject: fmt.Sprintf("%s — order #%d confirmed", w.storeName, order.Number),
		Body: fmt.Sprintf("Thank you for your order!\nYour receipt is attached.\nTotal: €%s",
			order.Total.StringFixed(2)),
		PDFPath: pdfPath,
	}
	if err := w.dispatcher.EnqueueEmail(ctx, emailJob); err != nil {
		log.Warn().Err(err).Str("email", to).Msg("receipt_worker: failed to enqueue email")
	} else {
		log.Info().Str("email", to).Msg("receipt_worker: email job enqueued")
	}
}

// withRetry calls fn up to maxAttempts times with exponential backoff.
// Backoff schedule: attempt 1 = immediate, 2 = 1s, 3 = 2s.
// Returns nil if any attempt succeeds; last error otherwise.
func withRetry(ctx context.Context, maxAttempts int, fn func(attempt int) error) error {
	var lastErr error
	for i := 0; i < maxAttempts; i++ {
		if i > 0 {
			wait := time.Duration(1<<uint(i-1)) * time.Second
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
		}
		if err := fn(i); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	return lastErr
}
