package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shoply/marketplace-api/internal/model"
)

func newOrderRepoWith(order *model.Order) *mockOrderRepo {
	productRepo := newMockProductRepo()
	repo := newMockOrderRepo(productRepo, newMockCartRepo(productRepo))
	if order != nil {
		repo.orders[order.ID] = order
	}
	return repo
}

func TestOrderService_GetByID(t *testing.T) {
	userID := uuid.New()
	orderID := uuid.New()
	repo := newOrderRepoWith(&model.Order{
		ID: orderID, UserID: userID, Status: model.OrderStatusPending,
		TotalAmount: decimal.NewFromFloat(99.99), CreatedAt: time.Now(),
	})
	svc := NewOrderService(repo)

	order, err := svc.GetByID(context.Background(), orderID, userID)
	require.NoError(t, err)
	assert.Equal(t, orderID, order.ID)
}

func TestOrderService_GetByID_NotFound(t *testing.T) {
	svc := NewOrderService(newOrderRepoWith(nil))
	_, err := svc.GetByID(context.Background(), uuid.New(), uuid.New())
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestOrderService_GetByID_AccessDenied(t *testing.T) {
	orderID := uuid.New()
	repo := newOrderRepoWith(&model.Order{ID: orderID, UserID: uuid.New(), Status: model.OrderStatusPending})
	svc := NewOrderService(repo)

	_, err := svc.GetByID(context.Background(), orderID, uuid.New())
	assert.ErrorIs(t, err, ErrOrderAccessDenied)
}

func TestOrderService_UpdateStatus(t *testing.T) {
	orderID := uuid.New()
	repo := newOrderRepoWith(&model.Order{ID: orderID, UserID: uuid.New(), Status: model.OrderStatusPending})
	svc := NewOrderService(repo)

	require.NoError(t, svc.UpdateStatus(context.Background(), orderID, model.OrderStatusShipped))
	assert.Equal(t, model.OrderStatusShipped, repo.orders[orderID].Status)
}

func TestOrderService_UpdateStatus_Invalid(t *testing.T) {
	svc := NewOrderService(newOrderRepoWith(nil))
	err := svc.UpdateStatus(context.Background(), uuid.New(), model.OrderStatus("refunded"))
	assert.ErrorIs(t, err, ErrInvalidOrderStatus)
}

func TestOrderService_UpdateStatus_NotFound(t *testing.T) {
	svc := NewOrderService(newOrderRepoWith(nil))
	err := svc.UpdateStatus(context.Background(), uuid.New(), model.OrderStatusShipped)
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestOrderService_Delete_NotFound(t *testing.T) {
	svc := NewOrderService(newOrderRepoWith(nil))
	err := svc.Delete(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrOrderNotFound)
}
