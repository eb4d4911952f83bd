package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/shoply/marketplace-api/internal/dto"
	"github.com/shoply/marketplace-api/internal/middleware"
	"github.com/shoply/marketplace-api/internal/model"
	"github.com/shoply/marketplace-api/internal/service"
)

type OrderHandler struct {
	checkoutSvc *service.CheckoutService
	orderSvc    *service.OrderService
}

func NewOrderHandler(checkoutSvc *service.CheckoutService, orderSvc *service.OrderService) *OrderHandler {
	return &OrderHandler{checkoutSvc: checkoutSvc, orderSvc: orderSvc}
}

func (h *OrderHandler) Checkout(c *gin.Context) {
	var req dto.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	order, err := h.checkoutSvc.Checkout(c.Request.Context(), middleware.GetUserID(c), req.ShippingAddress, req.ContactPhone)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmptyCart):
			c.JSON(http.StatusBadRequest, gin.H{"error": "cart is empty"})
		case errors.Is(err, service.ErrShippingAddressMissing):
			c.JSON(http.StatusBadRequest, gin.H{"error": "shipping address is required"})
		case errors.Is(err, service.ErrInsufficientStock):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		}
		return
	}
	c.JSON(http.StatusCreated, toOrderResponse(order))
}

func (h *OrderHandler) ListOrders(c *gin.Context) {
	orders, err := h.orderSvc.ListByUserID(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	items := make([]dto.OrderResponse, 0, len(orders))
	for i := range orders {
		items = append(items, toOrderResponse(&orders[i]))
	}
	c.JSON(http.StatusOK, dto.OrderListResponse{Orders: items, Total: len(items)})
}

func (h *OrderHandler) GetOrder(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order ID"})
		return
	}

	order, err := h.orderSvc.GetByID(c.Request.Context(), orderID, middleware.GetUserID(c))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrOrderNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
		case errors.Is(err, service.ErrOrderAccessDenied):
			c.JSON(http.StatusForbidden, gin.H{"error": "access denied"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		}
		return
	}
	c.JSON(http.StatusOK, toOrderResponse(order))
}

func toOrderResponse(order *model.Order) dto.OrderResponse {
	items := make([]dto.OrderItemResponse, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, dto.OrderItemResponse{
			ID:               item.ID,
			ProductID:        item.ProductID,
			ProductName:      item.ProductName,
			Price:            item.Price,
			PurchaseQuantity: item.PurchaseQuantity,
		})
	}
	return dto.OrderResponse{
		ID:              order.ID,
		UserID:          order.UserID,
		ShippingAddress: order.ShippingAddress,
		ContactPhone:    order.ContactPhone,
		TotalAmount:     order.TotalAmount,
		Status:          order.Status,
		Items:           items,
		CreatedAt:       order.CreatedAt,
	}
}
