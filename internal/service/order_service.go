package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"beewear/internal/dto"
	"beewear/internal/infra"
	"beewear/internal/model"
	"beewear/internal/repository"
	"beewear/internal/worker"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PaymentGateway abstracts the hosted-checkout provider so the order service
// can be unit-tested without HTTP.
type PaymentGateway interface {
	CreateSession(ctx context.Context, orderNumber int64, amount decimal.Decimal, customerEmail string) (*infra.CheckoutSession, error)
	VerifySession(ctx context.Context, sessionID string) (*infra.SessionStatus, error)
}

type OrderService interface {
	// Create validates the request, snapshots unit prices, reserves stock and
	// persists the order — all inside one transaction. Any insufficient line
	// rolls back every reservation of the attempt.
	Create(ctx context.Context, req dto.CreateOrderRequest) (*dto.OrderResponse, error)

	// Confirm resolves the order by its checkout session, verifies payment
	// with the provider and moves PENDING → CONFIRMED / payment → PAID.
	// Stock is untouched: it was already reserved at creation.
	Confirm(ctx context.Context, sessionID string) (*dto.OrderResponse, error)

	MarkShipped(ctx context.Context, userID uuid.UUID, id uuid.UUID, notes string) (*dto.OrderResponse, error)
	MarkDelivered(ctx context.Context, userID uuid.UUID, id uuid.UUID) (*dto.OrderResponse, error)

	// Cancel moves PENDING|CONFIRMED → CANCELLED, releases the reserved stock
	// (one IN movement per line, exactly once) and refunds a PAID payment.
	Cancel(ctx context.Context, userID *uuid.UUID, id uuid.UUID, notes string) (*dto.OrderResponse, error)

	Get(ctx context.Context, id uuid.UUID) (*dto.OrderResponse, error)
	List(ctx context.Context, filter dto.OrderFilter) (*dto.OrderListResponse, error)
}

type orderService struct {
	repo       repository.OrderRepository
	catalog    repository.CatalogRepository
	stock      StockService
	gateway    PaymentGateway
	dispatcher *worker.Dispatcher
}

func NewOrderService(
	repo repository.OrderRepository,
	catalog repository.CatalogRepository,
	stock StockService,
	gateway PaymentGateway,
	dispatcher *worker.Dispatcher,
) OrderService {
	return &orderService{
		repo:       repo,
		catalog:    catalog,
		stock:      stock,
		gateway:    gateway,
		dispatcher: dispatcher,
	}
}

// ── Create ────────────────────────────────────────────────────────────────────
// 1. Resolve every line outside the transaction: variation size, price snapshot
// 2. BEGIN TX: next order number, create order + items, reserve stock per line
//    (row-locked OUT movement "order reservation")
// 3. COMMIT — any failed line rolls back the whole attempt
// 4. (best effort) open a hosted checkout session for the total

func (s *orderService) Create(ctx context.Context, req dto.CreateOrderRequest) (*dto.OrderResponse, error) {
	type resolvedLine struct {
		variationSizeID uuid.UUID
		stockItemID     uuid.UUID
		product         string
		color           string
		size            string
		unitPrice       decimal.Decimal
		quantity        int
	}

	var resolved []resolvedLine
	total := decimal.Zero

	for _, item := range req.Items {
		vsID, err := uuid.Parse(item.VariationSizeID)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid variation_size_id %q", ErrValidation, item.VariationSizeID)
		}
		vs, err := s.catalog.FindVariationSize(ctx, vsID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("%w: %s", ErrVariationNotFound, item.VariationSizeID)
			}
			return nil, err
		}
		if vs.ProductVariation == nil || vs.StockItem == nil {
			return nil, fmt.Errorf("%w: variation size %s has no sellable stock", ErrValidation, vsID)
		}

		line := resolvedLine{
			variationSizeID: vs.ID,
			stockItemID:     vs.StockItem.ID,
			color:           vs.ProductVariation.Color,
			size:            vs.Size,
			unitPrice:       vs.ProductVariation.Price,
			quantity:        item.Quantity,
		}
		if vs.ProductVariation.Product != nil {
			line.product = vs.ProductVariation.Product.Name
		}
		resolved = append(resolved, line)
		total = total.Add(line.unitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}

	var order model.Order
	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		number, err := s.repo.NextOrderNumber(ctx, tx)
		if err != nil {
			return err
		}

		order = model.Order{
			Number:        number,
			Status:        model.OrderPending,
			PaymentStatus: model.PaymentPending,
			CustomerName:  req.CustomerName,
			CustomerEmail: req.CustomerEmail,
			AddressLine:   req.AddressLine,
			City:          req.City,
			PostalCode:    req.PostalCode,
			Country:       req.Country,
			Total:         total,
		}
		for _, line := range resolved {
			order.Items = append(order.Items, model.OrderItem{
				VariationSizeID: line.variationSizeID,
				Quantity:        line.quantity,
				UnitPrice:       line.unitPrice,
			})
		}
		if err := s.repo.CreateTx(tx, &order); err != nil {
			return err
		}

		// Reserve stock per line. The row lock inside RecordMovementTx makes
		// the availability check race-free; one failing line aborts the tx and
		// rolls back every reservation created above.
		for _, line := range resolved {
			ref := order.ID
			if _, err := s.stock.RecordMovementTx(tx, line.stockItemID, model.MovementOut, line.quantity, "order reservation", &ref, nil); err != nil {
				return fmt.Errorf("reserving %s %s/%s: %w", line.product, line.color, line.size, err)
			}
		}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	resp := orderToResponse(&order)
	for i, line := range resolved {
		resp.Items[i].Product = line.product
		resp.Items[i].Color = line.color
		resp.Items[i].Size = line.size
	}

	// Open checkout session — best effort. A provider outage must not undo
	// the order; the storefront can re-request a session later.
	if s.gateway != nil {
		session, err := s.gateway.CreateSession(ctx, order.Number, order.Total, order.CustomerEmail)
		if err != nil {
			log.Warn().Err(err).Int64("order", order.Number).Msg("checkout session creation failed")
		} else {
			if err := s.repo.UpdateCheckoutSession(ctx, order.ID, session.ID); err != nil {
				log.Error().Err(err).Int64("order", order.Number).Msg("failed to store checkout session")
			} else {
				resp.CheckoutURL = session.URL
			}
		}
	}

	return resp, nil
}

// ── Confirm ───────────────────────────────────────────────────────────────────

func (s *orderService) Confirm(ctx context.Context, sessionID string) (*dto.OrderResponse, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, ErrValidation
	}

	order, err := s.repo.FindByCheckoutSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}

	if !order.Status.CanTransition(model.OrderConfirmed) {
		return nil, fmt.Errorf("%w: %s -> CONFIRMED", ErrInvalidOrderTransition, order.Status)
	}

	status, err := s.gateway.VerifySession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("payment provider: %w", err)
	}
	if !status.Paid {
		return nil, ErrPaymentNotCompleted
	}

	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		if err := s.repo.UpdateStatusTx(tx, order.ID, order.Status, model.OrderConfirmed, model.PaymentPaid, nil); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: %s -> CONFIRMED", ErrInvalidOrderTransition, order.Status)
			}
			return err
		}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}
	order.Status = model.OrderConfirmed
	order.PaymentStatus = model.PaymentPaid

	// Receipt generation and the confirmation email run async — fire & forget.
	if s.dispatcher != nil {
		_ = s.dispatcher.EnqueueReceipt(ctx, worker.ReceiptJobPayload{
			OrderID:       order.ID.String(),
			CustomerEmail: order.CustomerEmail,
		})
	}

	log.Info().Int64("order", order.Number).Msg("order confirmed")
	return orderToResponse(order), nil
}

// ── Shipment / delivery ───────────────────────────────────────────────────────

func (s *orderService) MarkShipped(ctx context.Context, userID uuid.UUID, id uuid.UUID, notes string) (*dto.OrderResponse, error) {
	if strings.TrimSpace(notes) == "" {
		return nil, fmt.Errorf("%w: shipment notes are required", ErrValidation)
	}

	order, err := s.findOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if !order.Status.CanTransition(model.OrderShipped) {
		return nil, fmt.Errorf("%w: %s -> SHIPPED", ErrInvalidOrderTransition, order.Status)
	}

	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		if err := s.repo.UpdateStatusTx(tx, order.ID, order.Status, model.OrderShipped, order.PaymentStatus, &notes); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: %s -> SHIPPED", ErrInvalidOrderTransition, order.Status)
			}
			return err
		}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}
	order.Status = model.OrderShipped
	order.Notes = &notes

	log.Info().Int64("order", order.Number).Str("by", userID.String()).Msg("order shipped")
	return orderToResponse(order), nil
}

func (s *orderService) MarkDelivered(ctx context.Context, userID uuid.UUID, id uuid.UUID) (*dto.OrderResponse, error) {
	order, err := s.findOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if !order.Status.CanTransition(model.OrderDelivered) {
		return nil, fmt.Errorf("%w: %s -> DELIVERED", ErrInvalidOrderTransition, order.Status)
	}

	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		if err := s.repo.UpdateStatusTx(tx, order.ID, order.Status, model.OrderDelivered, order.PaymentStatus, nil); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: %s -> DELIVERED", ErrInvalidOrderTransition, order.Status)
			}
			return err
		}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}
	order.Status = model.OrderDelivered

	log.Info().Int64("order", order.Number).Str("by", userID.String()).Msg("order delivered")
	return orderToResponse(order), nil
}

// ── Cancel ────────────────────────────────────────────────────────────────────

func (s *orderService) Cancel(ctx context.Context, userID *uuid.UUID, id uuid.UUID, notes string) (*dto.OrderResponse, error) {
	if strings.TrimSpace(notes) == "" {
		return nil, fmt.Errorf("%w: cancellation notes are required", ErrValidation)
	}

	order, err := s.findOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if !order.Status.CanTransition(model.OrderCancelled) {
		return nil, fmt.Errorf("%w: %s -> CANCELLED", ErrInvalidOrderTransition, order.Status)
	}

	payment := order.PaymentStatus
	if payment == model.PaymentPaid {
		payment = model.PaymentRefunded
	}

	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		// Claim the transition first. When two cancellations race, the CAS
		// lets exactly one through, so the release below runs exactly once.
		if err := s.repo.UpdateStatusTx(tx, order.ID, order.Status, model.OrderCancelled, payment, &notes); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: %s -> CANCELLED", ErrInvalidOrderTransition, order.Status)
			}
			return err
		}

		// Release the reservation: one IN movement per line.
		for _, item := range order.Items {
			if item.VariationSize == nil || item.VariationSize.StockItem == nil {
				return fmt.Errorf("order item %s has no stock item", item.ID)
			}
			ref := order.ID
			if _, err := s.stock.RecordMovementTx(tx, item.VariationSize.StockItem.ID, model.MovementIn, item.Quantity, "order cancelled", &ref, userID); err != nil {
				return err
			}
		}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}
	order.Status = model.OrderCancelled
	order.PaymentStatus = payment
	order.Notes = &notes

	log.Info().Int64("order", order.Number).Msg("order cancelled, stock released")
	return orderToResponse(order), nil
}

// ── Reads ─────────────────────────────────────────────────────────────────────

func (s *orderService) Get(ctx context.Context, id uuid.UUID) (*dto.OrderResponse, error) {
	order, err := s.findOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	return orderToResponse(order), nil
}

func (s *orderService) List(ctx context.Context, filter dto.OrderFilter) (*dto.OrderListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 50
	}
	orders, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	items := make([]dto.OrderResponse, 0, len(orders))
	for i := range orders {
		items = append(items, *orderToResponse(&orders[i]))
	}
	return &dto.OrderListResponse{
		Data:  items,
		Total: total,
		Page:  filter.Page,
		Limit: filter.Limit,
	}, nil
}

func (s *orderService) findOrder(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return order, nil
}

func orderToResponse(o *model.Order) *dto.OrderResponse {
	items := make([]dto.OrderItemResponse, 0, len(o.Items))
	for _, item := range o.Items {
		line := dto.OrderItemResponse{
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		}
		if vs := item.VariationSize; vs != nil {
			line.Size = vs.Size
			if pv := vs.ProductVariation; pv != nil {
				line.Color = pv.Color
				if pv.Product != nil {
					line.Product = pv.Product.Name
				}
			}
		}
		items = append(items, line)
	}
	return &dto.OrderResponse{
		ID:            o.ID.String(),
		Number:        o.Number,
		Status:        string(o.Status),
		PaymentStatus: string(o.PaymentStatus),
		CustomerName:  o.CustomerName,
		CustomerEmail: o.CustomerEmail,
		AddressLine:   o.AddressLine,
		City:          o.City,
		PostalCode:    o.PostalCode,
		Country:       o.Country,
		Notes:         o.Notes,
		Total:         o.Total,
		Items:         items,
		CreatedAt:     o.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}
}
