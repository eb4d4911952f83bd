package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/shoply/marketplace-api/internal/dto"
	"github.com/shoply/marketplace-api/internal/middleware"
	"github.com/shoply/marketplace-api/internal/model"
	"github.com/shoply/marketplace-api/internal/service"
)

type ProfileHandler struct {
	userSvc    *service.UserService
	productSvc *service.ProductService
	orderSvc   *service.OrderService
}

func NewProfileHandler(userSvc *service.UserService, productSvc *service.ProductService, orderSvc *service.OrderService) *ProfileHandler {
	return &ProfileHandler{userSvc: userSvc, productSvc: productSvc, orderSvc: orderSvc}
}

// Show returns the caller's profile with their listings and order
// history.
func (h *ProfileHandler) Show(c *gin.Context) {
	ctx := c.Request.Context()
	userID := middleware.GetUserID(c)

	user, err := h.userSvc.GetByID(ctx, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	products, err := h.productSvc.ListBySeller(ctx, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	orders, err := h.orderSvc.ListByUserID(ctx, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	orderItems := make([]dto.OrderResponse, 0, len(orders))
	for i := range orders {
		orderItems = append(orderItems, toOrderResponse(&orders[i]))
	}

	c.JSON(http.StatusOK, dto.ProfileResponse{
		User:     toProfileUser(user),
		Products: products,
		Orders:   orderItems,
	})
}

func (h *ProfileHandler) Update(c *gin.Context) {
	var req dto.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.userSvc.UpdateProfile(c.Request.Context(), middleware.GetUserID(c), req.Email, req.Phone, req.Address)
	if err != nil {
		if errors.Is(err, service.ErrEmailTaken) {
			c.JSON(http.StatusConflict, gin.H{"error": "email already in use"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(http.StatusOK, toProfileUser(user))
}

func toProfileUser(user *model.User) dto.UserResponse {
	return dto.UserResponse{
		ID:      user.ID,
		Email:   user.Email,
		Name:    user.Name,
		Phone:   user.Phone,
		Address: user.Address,
		IsAdmin: user.IsAdmin,
	}
}
