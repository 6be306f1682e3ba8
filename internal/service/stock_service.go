package service

import (
	"context"
	"errors"

	"beewear/internal/dto"
	"beewear/internal/model"
	"beewear/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// StockService owns every quantity change. The ledger invariant: each change
// updates StockItem.Quantity and appends exactly one StockMovement in the same
// transaction, so the movement log and the counter never diverge.
type StockService interface {
	// Adjust applies a signed delta to a stock item: positive restocks (IN),
	// negative removes (OUT) with quantity = abs(delta).
	Adjust(ctx context.Context, userID *uuid.UUID, stockItemID uuid.UUID, delta int, description string) (*dto.StockMovementResponse, error)

	ListMovements(ctx context.Context, stockItemID uuid.UUID, filter dto.MovementFilter) (*dto.MovementListResponse, error)
	LowStockAlerts(ctx context.Context) ([]dto.LowStockAlertResponse, error)

	// RecordMovementTx applies one guarded movement inside an existing
	// transaction — used by the order service for reservations and releases.
	// It locks the stock item row, validates the quantity, updates the counter
	// and appends the ledger entry.
	RecordMovementTx(tx *gorm.DB, stockItemID uuid.UUID, movementType string, quantity int, description string, referenceID, userID *uuid.UUID) (*model.StockMovement, error)
}

type stockService struct {
	repo repository.StockRepository
}

func NewStockService(repo repository.StockRepository) StockService {
	return &stockService{repo: repo}
}

func (s *stockService) Adjust(ctx context.Context, userID *uuid.UUID, stockItemID uuid.UUID, delta int, description string) (*dto.StockMovementResponse, error) {
	if delta == 0 {
		return nil, ErrInvalidQuantity
	}

	movementType := model.MovementIn
	quantity := delta
	if delta < 0 {
		movementType = model.MovementOut
		quantity = -delta
	}

	var movement *model.StockMovement
	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		var err error
		movement, err = s.RecordMovementTx(tx, stockItemID, movementType, quantity, description, nil, userID)
		return err
	})
	if txErr != nil {
		return nil, txErr
	}
	return movementToResponse(movement), nil
}

func (s *stockService) RecordMovementTx(tx *gorm.DB, stockItemID uuid.UUID, movementType string, quantity int, description string, referenceID, userID *uuid.UUID) (*model.StockMovement, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	item, err := s.repo.FindItemForUpdateTx(tx, stockItemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStockItemNotFound
		}
		return nil, err
	}

	previous := item.Quantity
	var next int
	switch movementType {
	case model.MovementIn:
		next = previous + quantity
	case model.MovementOut:
		next = previous - quantity
		if next < 0 {
			return nil, ErrInsufficientStock
		}
	default:
		return nil, ErrValidation
	}

	if err := s.repo.UpdateItemQuantityTx(tx, item.ID, next); err != nil {
		return nil, err
	}

	movement := &model.StockMovement{
		StockItemID:      item.ID,
		Type:             movementType,
		Quantity:         quantity,
		PreviousQuantity: previous,
		NewQuantity:      next,
		Description:      description,
		ReferenceID:      referenceID,
		CreatedBy:        userID,
	}
	if err := s.repo.CreateMovementTx(tx, movement); err != nil {
		return nil, err
	}
	return movement, nil
}

func (s *stockService) ListMovements(ctx context.Context, stockItemID uuid.UUID, filter dto.MovementFilter) (*dto.MovementListResponse, error) {
	if _, err := s.repo.FindItemByID(ctx, stockItemID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStockItemNotFound
		}
		return nil, err
	}

	movements, total, err := s.repo.ListMovements(ctx, stockItemID, filter)
	if err != nil {
		return nil, err
	}

	items := make([]dto.StockMovementResponse, 0, len(movements))
	for i := range movements {
		items = append(items, *movementToResponse(&movements[i]))
	}
	return &dto.MovementListResponse{
		Data:  items,
		Total: total,
		Page:  filter.Page,
		Limit: filter.Limit,
	}, nil
}

func (s *stockService) LowStockAlerts(ctx context.Context) ([]dto.LowStockAlertResponse, error) {
	items, err := s.repo.ListLowStock(ctx)
	if err != nil {
		return nil, err
	}

	alerts := make([]dto.LowStockAlertResponse, 0, len(items))
	for i := range items {
		item := &items[i]
		alert := dto.LowStockAlertResponse{
			StockItemID:  item.ID.String(),
			Quantity:     item.Quantity,
			MinimumStock: item.MinimumStock,
		}
		if vs := item.VariationSize; vs != nil {
			alert.Size = vs.Size
			if pv := vs.ProductVariation; pv != nil {
				alert.Color = pv.Color
				if pv.Product != nil {
					alert.Product = pv.Product.Name
				}
			}
		}
		alerts = append(alerts, alert)
	}
	return alerts, nil
}

func movementToResponse(m *model.StockMovement) *dto.StockMovementResponse {
	resp := &dto.StockMovementResponse{
		ID:               m.ID.String(),
		StockItemID:      m.StockItemID.String(),
		Type:             m.Type,
		Quantity:         m.Quantity,
		PreviousQuantity: m.PreviousQuantity,
		NewQuantity:      m.NewQuantity,
		Description:      m.Description,
		CreatedAt:        m.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}
	if m.ReferenceID != nil {
		ref := m.ReferenceID.String()
		resp.ReferenceID = &ref
	}
	return resp
}
