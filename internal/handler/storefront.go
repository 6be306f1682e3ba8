package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"beewear/internal/apierror"
	"beewear/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

const productCacheTTL = 15 * time.Minute

// StorefrontHandler serves the public, unauthenticated read endpoints that
// back the shop frontend. No side effects whatsoever; product reads go
// through a Redis cache-aside layer.
type StorefrontHandler struct {
	catalog service.CatalogService
	rdb     *redis.Client
}

func NewStorefrontHandler(catalog service.CatalogService, rdb *redis.Client) *StorefrontHandler {
	return &StorefrontHandler{catalog: catalog, rdb: rdb}
}

// ListCollections returns the active collections for the shop navigation.
func (h *StorefrontHandler) ListCollections(c *gin.Context) {
	resp, err := h.catalog.ListCollections(c.Request.Context())
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GetProduct godoc
// @Summary      Public product page data (no authentication)
// @Tags         storefront
// @Produce      json
// @Param        id path string true "Product UUID"
// @Success      200 {object} dto.ProductResponse
// @Failure      404 {object} apierror.APIError
// @Router       /v1/shop/products/{id} [get]
func (h *StorefrontHandler) GetProduct(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	cacheKey := "storefront:product:" + id.String()

	// 1. Try Redis cache
	if cached, err := h.rdb.Get(ctx, cacheKey).Bytes(); err == nil {
		c.Data(http.StatusOK, "application/json", cached)
		return
	}

	// 2. Cache miss — query DB
	resp, err := h.catalog.GetProduct(ctx, id)
	if err != nil {
		c.JSON(http.StatusNotFound, apierror.New("Product not found"))
		return
	}
	if !resp.Active {
		c.JSON(http.StatusNotFound, apierror.New("Product not found"))
		return
	}

	// 3. Populate cache — best effort, ignore errors
	if b, jsonErr := json.Marshal(resp); jsonErr == nil {
		_ = h.rdb.Set(context.Background(), cacheKey, b, productCacheTTL).Err()
	}

	c.JSON(http.StatusOK, resp)
}
