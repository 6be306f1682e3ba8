package handler

import (
	"net/http"

	"beewear/internal/dto"
	"beewear/internal/middleware"
	"beewear/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type StockHandler struct{ svc service.StockService }

func NewStockHandler(svc service.StockService) *StockHandler { return &StockHandler{svc: svc} }

// Adjust godoc
// @Summary      Adjust a stock item by a signed delta
// @Description  Positive delta restocks (IN), negative removes (OUT). The counter update and the ledger entry commit atomically.
// @Tags         stock
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path string                 true "Stock item UUID"
// @Param        body body dto.AdjustStockRequest true "Signed delta and reason"
// @Success      200  {object} dto.StockMovementResponse
// @Failure      400  {object} apierror.APIError
// @Failure      409  {object} apierror.APIError
// @Router       /v1/stock/{id}/adjust [post]
func (h *StockHandler) Adjust(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req dto.AdjustStockRequest
	if !bindAndValidate(c, &req) {
		return
	}

	var userID *uuid.UUID
	if claims := middleware.GetClaims(c); claims != nil {
		if uid, err := uuid.Parse(claims.UserID); err == nil {
			userID = &uid
		}
	}

	resp, err := h.svc.Adjust(c.Request.Context(), userID, id, req.Delta, req.Description)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ListMovements godoc
// @Summary      Movement history for a stock item, newest first
// @Tags         stock
// @Produce      json
// @Security     BearerAuth
// @Param        id    path  string true  "Stock item UUID"
// @Param        type  query string false "IN | OUT"
// @Param        page  query int    false "Page (default 1)"
// @Param        limit query int    false "Page size (default 50)"
// @Success      200   {object} dto.MovementListResponse
// @Router       /v1/stock/{id}/movements [get]
func (h *StockHandler) ListMovements(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var filter dto.MovementFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		writeServiceError(c, service.ErrValidation)
		return
	}
	resp, err := h.svc.ListMovements(c.Request.Context(), id, filter)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// LowStockAlerts godoc
// @Summary      Stock items at or below their minimum threshold
// @Tags         stock
// @Produce      json
// @Security     BearerAuth
// @Success      200 {array} dto.LowStockAlertResponse
// @Router       /v1/stock/alerts [get]
func (h *StockHandler) LowStockAlerts(c *gin.Context) {
	resp, err := h.svc.LowStockAlerts(c.Request.Context())
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
