package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/shoply/marketplace-api/internal/model"
	"github.com/shoply/marketplace-api/internal/notify"
	"github.com/shoply/marketplace-api/internal/repository"
)

var (
	ErrEmptyCart              = errors.New("cart is empty")
	ErrShippingAddressMissing = errors.New("shipping address is required")
)

const maxShippingAddressLen = 1024

// CheckoutService converts a cart into a durable order. The database
// work is one transaction: order header, frozen lines, conditional
// stock decrements, and cart clearing commit together or roll back
// together.
type CheckoutService struct {
	orderRepo   repository.OrderRepository
	cartRepo    repository.CartRepository
	publisher   notify.Publisher
	redisClient *redis.Client
	log         *slog.Logger
}

func NewCheckoutService(
	orderRepo repository.OrderRepository,
	cartRepo repository.CartRepository,
	publisher notify.Publisher,
	redisClient *redis.Client,
	log *slog.Logger,
) *CheckoutService {
	if log == nil {
		log = slog.Default()
	}
	return &CheckoutService{
		orderRepo:   orderRepo,
		cartRepo:    cartRepo,
		publisher:   publisher,
		redisClient: redisClient,
		log:         log,
	}
}

func (s *CheckoutService) Checkout(ctx context.Context, userID uuid.UUID, shippingAddress, contactPhone string) (*model.Order, error) {
	shippingAddress = strings.TrimSpace(shippingAddress)
	if shippingAddress == "" || len(shippingAddress) > maxShippingAddressLen {
		return nil, ErrShippingAddressMissing
	}

	cart, err := s.cartRepo.GetOrCreateCart(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get cart: %w", err)
	}
	lines, err := s.cartRepo.GetLines(ctx, cart.ID)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, ErrEmptyCart
	}

	// The current catalog price becomes the frozen line price; the
	// total is fixed here and never recomputed from live products.
	total := decimal.Zero
	items := make([]model.OrderItem, 0, len(lines))
	for _, line := range lines {
		total = total.Add(line.Subtotal())
		items = append(items, model.OrderItem{
			ProductID:        line.Product.ID,
			ProductName:      line.Product.Name,
			Price:            line.Product.Price,
			PurchaseQuantity: line.Item.Quantity,
		})
	}

	order := &model.Order{
		UserID:          userID,
		ShippingAddress: shippingAddress,
		ContactPhone:    contactPhone,
		TotalAmount:     total,
		Status:          model.OrderStatusPending,
		Items:           items,
	}

	if err := s.orderRepo.Checkout(ctx, order, cart.ID); err != nil {
		if errors.Is(err, repository.ErrInsufficientStock) {
			return nil, fmt.Errorf("%w: %s", ErrInsufficientStock, err)
		}
		return nil, fmt.Errorf("checkout: %w", err)
	}

	s.afterCommit(ctx, order)
	return order, nil
}

// afterCommit runs the observational side effects. Failures are logged
// and swallowed: the order is already durable.
func (s *CheckoutService) afterCommit(ctx context.Context, order *model.Order) {
	if s.publisher != nil {
		err := s.publisher.OrderPlaced(ctx, model.OrderPlaced{
			OrderID:     order.ID,
			UserID:      order.UserID,
			TotalAmount: order.TotalAmount,
			PlacedAt:    time.Now(),
		})
		if err != nil {
			s.log.Error("publish order placed", "order_id", order.ID, "error", err)
		}
	}

	if s.redisClient != nil {
		for _, item := range order.Items {
			s.redisClient.Del(ctx, productCacheKey(item.ProductID))
		}
	}
}
