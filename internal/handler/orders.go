package handler

import (
	"net/http"

	"beewear/internal/apierror"
	"beewear/internal/dto"
	"beewear/internal/middleware"
	"beewear/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type OrdersHandler struct{ svc service.OrderService }

func NewOrdersHandler(svc service.OrderService) *OrdersHandler { return &OrdersHandler{svc: svc} }

// Create godoc
// @Summary      Place an order
// @Description  Reserves stock for every line atomically; any insufficient line rejects the whole order. Returns the hosted checkout URL when the payment provider is reachable.
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        body body dto.CreateOrderRequest true "Order lines and shipping data"
// @Success      201  {object} dto.OrderResponse
// @Failure      409  {object} apierror.APIError
// @Failure      422  {object} apierror.ValidationError
// @Router       /v1/orders [post]
func (h *OrdersHandler) Create(c *gin.Context) {
	var req dto.CreateOrderRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Create(c.Request.Context(), req)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Confirm godoc
// @Summary      Confirm an order after checkout
// @Description  Resolves the order by its checkout session, verifies the payment with the provider and moves PENDING → CONFIRMED.
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        body body dto.ConfirmOrderRequest true "Checkout session id"
// @Success      200  {object} dto.OrderResponse
// @Failure      402  {object} apierror.APIError
// @Failure      409  {object} apierror.APIError
// @Router       /v1/orders/confirm [post]
func (h *OrdersHandler) Confirm(c *gin.Context) {
	var req dto.ConfirmOrderRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Confirm(c.Request.Context(), req.SessionID)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Ship godoc
// @Summary      Mark a confirmed order as shipped
// @Tags         orders
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path string               true "Order UUID"
// @Param        body body dto.ShipOrderRequest true "Shipment notes"
// @Success      200  {object} dto.OrderResponse
// @Failure      409  {object} apierror.APIError
// @Router       /v1/orders/{id}/ship [post]
func (h *OrdersHandler) Ship(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req dto.ShipOrderRequest
	if !bindAndValidate(c, &req) {
		return
	}
	claims := middleware.GetClaims(c)
	userID, _ := uuid.Parse(claims.UserID)

	resp, err := h.svc.MarkShipped(c.Request.Context(), userID, id, req.Notes)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Deliver godoc
// @Summary      Mark a shipped order as delivered
// @Tags         orders
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Order UUID"
// @Success      200 {object} dto.OrderResponse
// @Failure      409 {object} apierror.APIError
// @Router       /v1/orders/{id}/deliver [post]
func (h *OrdersHandler) Deliver(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	claims := middleware.GetClaims(c)
	userID, _ := uuid.Parse(claims.UserID)

	resp, err := h.svc.MarkDelivered(c.Request.Context(), userID, id)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Cancel godoc
// @Summary      Cancel an order
// @Description  Releases the reserved stock (one IN movement per line) and refunds a PAID payment. Only PENDING and CONFIRMED orders can be cancelled.
// @Tags         orders
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path string                 true "Order UUID"
// @Param        body body dto.CancelOrderRequest true "Cancellation notes"
// @Success      200  {object} dto.OrderResponse
// @Failure      409  {object} apierror.APIError
// @Router       /v1/orders/{id}/cancel [post]
func (h *OrdersHandler) Cancel(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req dto.CancelOrderRequest
	if !bindAndValidate(c, &req) {
		return
	}

	var userID *uuid.UUID
	if claims := middleware.GetClaims(c); claims != nil {
		if uid, err := uuid.Parse(claims.UserID); err == nil {
			userID = &uid
		}
	}

	resp, err := h.svc.Cancel(c.Request.Context(), userID, id, req.Notes)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *OrdersHandler) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	resp, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// List returns a paginated, filtered list of orders.
func (h *OrdersHandler) List(c *gin.Context) {
	var filter dto.OrderFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	resp, err := h.svc.List(c.Request.Context(), filter)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
