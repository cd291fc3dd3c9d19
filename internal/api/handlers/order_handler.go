// server/internal/api/handlers/order_handler.go
package handlers

import (
	"net/http"
	"time"

	"tilapia-hub-api-server/internal/ledger"
	"tilapia-hub-api-server/internal/models"

	"github.com/gin-gonic/gin"
)

type OrderHandler struct {
	Ledger *ledger.Ledger
}

type PlaceOrderRequest struct {
	ListingID  string  `json:"listingId" binding:"required"`
	QuantityKg float64 `json:"quantityKg"`
}

type UpdateStatusRequest struct {
	Status models.OrderStatus `json:"status" binding:"required"`
}

type SchedulePickupRequest struct {
	PickupDate time.Time `json:"pickupDate" binding:"required"`
}

// OrderResponse adds the statuses the caller may move the order to.
type OrderResponse struct {
	models.OrderView
	AllowedActions []models.OrderStatus `json:"allowedActions"`
}

func orderResponse(actor ledger.Actor, v models.OrderView) OrderResponse {
	actions := ledger.AllowedActions(actor, &v.Order)
	if actions == nil {
		actions = []models.OrderStatus{}
	}
	return OrderResponse{OrderView: v, AllowedActions: actions}
}

// PlaceOrder: buyer đặt mua một lượng cá (kg) từ listing.
func (h *OrderHandler) PlaceOrder(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	var req PlaceOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	order, err := h.Ledger.PlaceOrder(c.Request.Context(), actor, req.ListingID, req.QuantityKg)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, order)
}

// ListOrders trả về đơn hàng của buyer hoặc farmer đang đăng nhập.
func (h *OrderHandler) ListOrders(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	views, err := collect(h.Ledger.ListOrdersForActor(c.Request.Context(), actor))
	if err != nil {
		respondError(c, err)
		return
	}
	out := make([]OrderResponse, 0, len(views))
	for _, v := range views {
		out = append(out, orderResponse(actor, v))
	}
	c.JSON(http.StatusOK, out)
}

func (h *OrderHandler) GetOrder(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	view, err := h.Ledger.GetOrder(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, orderResponse(actor, *view))
}

// UpdateStatus chuyển trạng thái đơn hàng: {"status": "confirmed"}
func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	order, err := h.Ledger.Transition(c.Request.Context(), actor, c.Param("id"), req.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) SchedulePickup(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	var req SchedulePickupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	order, err := h.Ledger.SchedulePickup(c.Request.Context(), actor, c.Param("id"), req.PickupDate)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}
