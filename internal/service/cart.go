package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/shoply/marketplace-api/internal/model"
	"github.com/shoply/marketplace-api/internal/repository"
)

var (
	ErrWrongCart         = errors.New("item does not belong to this cart")
	ErrInsufficientStock = errors.New("insufficient stock")
)

type CartService struct {
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
}

func NewCartService(cartRepo repository.CartRepository, productRepo repository.ProductRepository) *CartService {
	return &CartService{cartRepo: cartRepo, productRepo: productRepo}
}

// GetCart returns the user's cart (created lazily) with its lines
// joined to current product snapshots.
func (s *CartService) GetCart(ctx context.Context, userID uuid.UUID) (*model.Cart, []model.CartLine, error) {
	cart, err := s.cartRepo.GetOrCreateCart(ctx, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("get or create cart: %w", err)
	}
	lines, err := s.cartRepo.GetLines(ctx, cart.ID)
	if err != nil {
		return nil, nil, err
	}
	return cart, lines, nil
}

// AddItem merges quantity into any existing line for the product. The
// merged quantity is what gets validated against current stock, so
// repeated adds cannot creep past the ceiling.
func (s *CartService) AddItem(ctx context.Context, userID, productID uuid.UUID, quantity int) error {
	product, err := s.productRepo.GetByID(ctx, productID)
	if err != nil {
		return fmt.Errorf("get product: %w", err)
	}
	if product == nil {
		return ErrProductNotFound
	}

	cart, err := s.cartRepo.GetOrCreateCart(ctx, userID)
	if err != nil {
		return fmt.Errorf("get or create cart: %w", err)
	}

	merged := quantity
	existing, err := s.cartRepo.GetItemByProduct(ctx, cart.ID, productID)
	if err != nil {
		return err
	}
	if existing != nil {
		merged += existing.Quantity
	}
	if merged > product.Stock {
		return fmt.Errorf("%w: only %d available", ErrInsufficientStock, product.Stock)
	}

	return s.cartRepo.AddItem(ctx, &model.CartItem{
		CartID:    cart.ID,
		ProductID: productID,
		Quantity:  quantity,
	})
}

func (s *CartService) UpdateItem(ctx context.Context, userID, itemID uuid.UUID, quantity int) error {
	item, err := s.ownedItem(ctx, userID, itemID)
	if err != nil {
		return err
	}

	product, err := s.productRepo.GetByID(ctx, item.ProductID)
	if err != nil {
		return fmt.Errorf("get product: %w", err)
	}
	if product == nil {
		return ErrProductNotFound
	}
	if quantity > product.Stock {
		return fmt.Errorf("%w: only %d available", ErrInsufficientStock, product.Stock)
	}

	return s.cartRepo.UpdateItemQuantity(ctx, itemID, quantity)
}

func (s *CartService) DeleteItem(ctx context.Context, userID, itemID uuid.UUID) error {
	if _, err := s.ownedItem(ctx, userID, itemID); err != nil {
		return err
	}
	return s.cartRepo.DeleteItem(ctx, itemID)
}

// ownedItem resolves itemID and verifies it sits in userID's cart. A
// missing item gets the same rejection as somebody else's item, so the
// caller learns nothing about other carts.
func (s *CartService) ownedItem(ctx context.Context, userID, itemID uuid.UUID) (*model.CartItem, error) {
	cart, err := s.cartRepo.GetOrCreateCart(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get or create cart: %w", err)
	}
	item, err := s.cartRepo.GetItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item == nil || item.CartID != cart.ID {
		return nil, ErrWrongCart
	}
	return item, nil
}
