package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/warehub/stocktrack/internal/core/domain"
	"github.com/warehub/stocktrack/internal/core/service"
	"github.com/warehub/stocktrack/internal/port"
)

const healthPingTimeout = 2 * time.Second

// HTTPHandler is the thin transport layer: request parsing, error-to-status
// mapping, and the response envelope. All behavior lives in the services.
type HTTPHandler struct {
	inventory *service.InventoryService
	oee       *service.OEEService
	alerts    *service.AlertService
	storage   port.Pinger
}

func NewHTTPHandler(
	inventory *service.InventoryService,
	oee *service.OEEService,
	alerts *service.AlertService,
	storage port.Pinger,
) *HTTPHandler {
	return &HTTPHandler{
		inventory: inventory,
		oee:       oee,
		alerts:    alerts,
		storage:   storage,
	}
}

// Register mounts all routes on the echo instance.
func (h *HTTPHandler) Register(e *echo.Echo) {
	e.POST("/add-stock", h.AddStock)
	e.POST("/remove-stock", h.RemoveStock)
	e.GET("/products", h.ListProducts)
	e.GET("/product/:sku", h.GetProduct)
	e.GET("/low-stock", h.ListLowStock)
	e.GET("/oee/:sku", h.Score)
	e.GET("/oee", h.ScoreAll)
	e.GET("/oee-history/:sku", h.History)
	e.GET("/alerts", h.Alerts)
	e.GET("/health", h.Health)
}

type addStockRequest struct {
	SKU      string                  `json:"sku"`
	Quantity int64                   `json:"quantity"`
	Product  *domain.ProductDefaults `json:"productData,omitempty"`
}

type removeStockRequest struct {
	SKU      string `json:"sku"`
	Quantity int64  `json:"quantity"`
	Reason   string `json:"reason,omitempty"`
}

func (h *HTTPHandler) AddStock(c echo.Context) error {
	var req addStockRequest
	if err := c.Bind(&req); err != nil {
		return respondMessage(c, http.StatusBadRequest, "invalid request body")
	}
	if req.SKU == "" || req.Quantity == 0 {
		return respondMessage(c, http.StatusBadRequest, "sku and quantity are required")
	}

	var defaults domain.ProductDefaults
	if req.Product != nil {
		defaults = *req.Product
	}

	result, err := h.inventory.AddStock(c.Request().Context(), req.SKU, req.Quantity, defaults)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, http.StatusOK, result)
}

func (h *HTTPHandler) RemoveStock(c echo.Context) error {
	var req removeStockRequest
	if err := c.Bind(&req); err != nil {
		return respondMessage(c, http.StatusBadRequest, "invalid request body")
	}
	if req.SKU == "" || req.Quantity == 0 {
		return respondMessage(c, http.StatusBadRequest, "sku and quantity are required")
	}

	result, err := h.inventory.RemoveStock(c.Request().Context(), req.SKU, req.Quantity, req.Reason)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, http.StatusOK, result)
}

func (h *HTTPHandler) ListProducts(c echo.Context) error {
	products, err := h.inventory.ListProducts(c.Request().Context())
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, http.StatusOK, products)
}

func (h *HTTPHandler) GetProduct(c echo.Context) error {
	product, err := h.inventory.GetProduct(c.Request().Context(), c.Param("sku"))
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, http.StatusOK, product)
}

func (h *HTTPHandler) ListLowStock(c echo.Context) error {
	limit := queryInt(c, "limit", service.DefaultLowStockLimit)
	products, err := h.inventory.ListLowStock(c.Request().Context(), limit)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, http.StatusOK, products)
}

func (h *HTTPHandler) Score(c echo.Context) error {
	score, err := h.oee.Score(c.Request().Context(), c.Param("sku"))
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, http.StatusOK, score)
}

func (h *HTTPHandler) ScoreAll(c echo.Context) error {
	scored, err := h.oee.ScoreAll(c.Request().Context())
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, http.StatusOK, scored)
}

func (h *HTTPHandler) History(c echo.Context) error {
	hours := int(queryInt(c, "hours", service.DefaultHistoryHours))
	points, err := h.oee.History(c.Request().Context(), c.Param("sku"), hours)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, http.StatusOK, points)
}

func (h *HTTPHandler) Alerts(c echo.Context) error {
	alerts, err := h.alerts.All(c.Request().Context())
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, http.StatusOK, alerts)
}

func (h *HTTPHandler) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), healthPingTimeout)
	defer cancel()

	if err := h.storage.Ping(ctx); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"success": false,
			"status":  "error",
			"storage": "disconnected",
		})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"status":  "ok",
		"storage": "connected",
	})
}

func queryInt(c echo.Context, name string, defaultValue int64) int64 {
	raw := c.QueryParam(name)
	if raw == "" {
		return defaultValue
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v <= 0 {
		return defaultValue
	}
	return v
}

func respond(c echo.Context, status int, data interface{}) error {
	return c.JSON(status, echo.Map{"success": true, "data": data})
}

func respondMessage(c echo.Context, status int, message string) error {
	return c.JSON(status, echo.Map{"success": false, "error": message})
}

// respondError maps the domain error taxonomy onto HTTP statuses. Internal
// detail never reaches the client; anything unmapped reads as a generic
// internal error.
func respondError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, domain.ErrInvalidQuantity):
		return respondMessage(c, http.StatusBadRequest, domain.ErrInvalidQuantity.Error())
	case errors.Is(err, domain.ErrProductNotFound):
		return respondMessage(c, http.StatusNotFound, domain.ErrProductNotFound.Error())
	case errors.Is(err, domain.ErrInsufficientStock):
		return respondMessage(c, http.StatusConflict, domain.ErrInsufficientStock.Error())
	case errors.Is(err, domain.ErrStorageUnavailable):
		return respondMessage(c, http.StatusInternalServerError, domain.ErrStorageUnavailable.Error())
	default:
		return respondMessage(c, http.StatusInternalServerError, "internal server error")
	}
}
