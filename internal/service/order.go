package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/shoply/marketplace-api/internal/model"
	"github.com/shoply/marketplace-api/internal/repository"
)

var (
	ErrOrderNotFound      = errors.New("order not found")
	ErrOrderAccessDenied  = errors.New("access denied")
	ErrInvalidOrderStatus = errors.New("invalid order status")
)

type OrderService struct {
	orderRepo repository.OrderRepository
}

func NewOrderService(orderRepo repository.OrderRepository) *OrderService {
	return &OrderService{orderRepo: orderRepo}
}

func (s *OrderService) GetByID(ctx context.Context, orderID, userID uuid.UUID) (*model.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if order.UserID != userID {
		return nil, ErrOrderAccessDenied
	}
	return order, nil
}

func (s *OrderService) ListByUserID(ctx context.Context, userID uuid.UUID) ([]model.Order, error) {
	return s.orderRepo.ListByUserID(ctx, userID)
}

// --- Admin back-office ---

func (s *OrderService) ListAll(ctx context.Context) ([]model.Order, error) {
	return s.orderRepo.ListAll(ctx)
}

func (s *OrderService) UpdateStatus(ctx context.Context, orderID uuid.UUID, status model.OrderStatus) error {
	if !model.ValidOrderStatus(status) {
		return ErrInvalidOrderStatus
	}
	err := s.orderRepo.UpdateStatus(ctx, orderID, status)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrOrderNotFound
	}
	return err
}

func (s *OrderService) Delete(ctx context.Context, orderID uuid.UUID) error {
	err := s.orderRepo.Delete(ctx, orderID)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrOrderNotFound
	}
	return err
}
