package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"pos-service/internal/ledger"
	"pos-service/internal/service"
	"pos-service/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
)

// Handler contains HTTP handlers
type Handler struct {
	orderService *service.OrderService
	menuService  *service.MenuService
}

// NewHandler creates a new HTTP handler
func NewHandler(orderService *service.OrderService, menuService *service.MenuService) *Handler {
	return &Handler{
		orderService: orderService,
		menuService:  menuService,
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.GET("/menu/:userId", h.getMenu)
		v1.GET("/users/:userId/orders", h.listOrders)
		v1.POST("/orders", h.openOrder)
		v1.GET("/orders/:id", h.getOrder)
		v1.POST("/orders/:id/lines", h.addLine)
		v1.PATCH("/orders/:id/lines/:lineId", h.setLineQuantity)
		v1.POST("/orders/:id/payments", h.recordPayment)
		v1.POST("/orders/:id/close", h.closeOrder)
		v1.POST("/orders/:id/cancel", h.cancelOrder)
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck handles readiness check requests
func (h *Handler) readinessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

// getMenu returns a tenant's menu priced at this instant
func (h *Handler) getMenu(c *gin.Context) {
	menu, err := h.menuService.GetMenu(c.Request.Context(), c.Param("userId"))
	if err != nil {
		respondError(c, err, "Failed to load menu")
		return
	}

	c.JSON(http.StatusOK, menu)
}

// listOrders returns a tenant's orders
func (h *Handler) listOrders(c *gin.Context) {
	orders, err := h.orderService.ListOrders(c.Request.Context(), c.Param("userId"))
	if err != nil {
		respondError(c, err, "Failed to list orders")
		return
	}

	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

// openOrder handles order creation
func (h *Handler) openOrder(c *gin.Context) {
	var req service.OpenOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	order, err := h.orderService.OpenOrder(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err, "Failed to open order")
		return
	}

	c.JSON(http.StatusCreated, order)
}

// getOrder handles get order by ID
func (h *Handler) getOrder(c *gin.Context) {
	order, lines, err := h.orderService.GetOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "Failed to load order")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"order":     order,
		"lines":     lines,
		"remaining": order.Remaining(),
	})
}

type addLineRequest struct {
	ProductID string `json:"product_id" binding:"required"`
}

// addLine snapshots a product into an order
func (h *Handler) addLine(c *gin.Context) {
	var req addLineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	line, err := h.orderService.AddLine(c.Request.Context(), c.Param("id"), req.ProductID)
	if err != nil {
		respondError(c, err, "Failed to add line")
		return
	}

	c.JSON(http.StatusCreated, line)
}

type setQuantityRequest struct {
	Quantity int `json:"quantity"`
}

// setLineQuantity updates a line's quantity; zero or less removes it
func (h *Handler) setLineQuantity(c *gin.Context) {
	var req setQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	order, err := h.orderService.SetLineQuantity(c.Request.Context(), c.Param("id"), c.Param("lineId"), req.Quantity)
	if err != nil {
		respondError(c, err, "Failed to update line")
		return
	}

	c.JSON(http.StatusOK, order)
}

type paymentRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

// recordPayment applies a payment to an order
func (h *Handler) recordPayment(c *gin.Context) {
	var req paymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	order, err := h.orderService.RecordPayment(c.Request.Context(), c.Param("id"), req.Amount)
	if err != nil {
		respondError(c, err, "Failed to record payment")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"order":     order,
		"remaining": order.Remaining(),
	})
}

// closeOrder finalizes an order
func (h *Handler) closeOrder(c *gin.Context) {
	order, err := h.orderService.CloseOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "Failed to close order")
		return
	}

	c.JSON(http.StatusOK, order)
}

type cancelRequest struct {
	Reason string `json:"reason"`
}

// cancelOrder cancels an order administratively
func (h *Handler) cancelOrder(c *gin.Context) {
	var req cancelRequest
	_ = c.ShouldBindJSON(&req)

	order, err := h.orderService.CancelOrder(c.Request.Context(), c.Param("id"), req.Reason)
	if err != nil {
		respondError(c, err, "Failed to cancel order")
		return
	}

	c.JSON(http.StatusOK, order)
}

// respondError maps domain errors to HTTP status codes
func respondError(c *gin.Context, err error, msg string) {
	status := http.StatusInternalServerError

	switch {
	case errors.Is(err, ledger.ErrOrderNotOpen):
		status = http.StatusConflict
	case errors.Is(err, ledger.ErrInactiveProduct):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, ledger.ErrInvalidPayment):
		status = http.StatusBadRequest
	case errors.Is(err, ledger.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrFeatureNotAllowed):
		status = http.StatusForbidden
	}

	c.JSON(status, gin.H{
		"error":   msg,
		"details": err.Error(),
	})
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}
