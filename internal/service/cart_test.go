package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shoply/marketplace-api/internal/model"
)

type mockCartRepo struct {
	carts    map[uuid.UUID]*model.Cart
	items    map[uuid.UUID]*model.CartItem
	products *mockProductRepo
}

func newMockCartRepo(products *mockProductRepo) *mockCartRepo {
	return &mockCartRepo{
		carts:    make(map[uuid.UUID]*model.Cart),
		items:    make(map[uuid.UUID]*model.CartItem),
		products: products,
	}
}

func (m *mockCartRepo) GetOrCreateCart(_ context.Context, userID uuid.UUID) (*model.Cart, error) {
	for _, c := range m.carts {
		if c.UserID == userID {
			return c, nil
		}
	}
	cart := &model.Cart{ID: uuid.New(), UserID: userID}
	m.carts[cart.ID] = cart
	return cart, nil
}

func (m *mockCartRepo) GetLines(_ context.Context, cartID uuid.UUID) ([]model.CartLine, error) {
	var lines []model.CartLine
	for _, item := range m.items {
		if item.CartID != cartID {
			continue
		}
		product, ok := m.products.products[item.ProductID]
		if !ok {
			continue
		}
		lines = append(lines, model.CartLine{Item: *item, Product: *product})
	}
	return lines, nil
}

func (m *mockCartRepo) GetItem(_ context.Context, itemID uuid.UUID) (*model.CartItem, error) {
	item, ok := m.items[itemID]
	if !ok {
		return nil, nil
	}
	found := *item
	return &found, nil
}

func (m *mockCartRepo) GetItemByProduct(_ context.Context, cartID, productID uuid.UUID) (*model.CartItem, error) {
	for _, item := range m.items {
		if item.CartID == cartID && item.ProductID == productID {
			found := *item
			return &found, nil
		}
	}
	return nil, nil
}

func (m *mockCartRepo) AddItem(_ context.Context, item *model.CartItem) error {
	for _, existing := range m.items {
		if existing.CartID == item.CartID && existing.ProductID == item.ProductID {
			existing.Quantity += item.Quantity
			*item = *existing
			return nil
		}
	}
	item.ID = uuid.New()
	stored := *item
	m.items[item.ID] = &stored
	return nil
}

func (m *mockCartRepo) UpdateItemQuantity(_ context.Context, itemID uuid.UUID, quantity int) error {
	item, ok := m.items[itemID]
	if !ok {
		return pgx.ErrNoRows
	}
	item.Quantity = quantity
	return nil
}

func (m *mockCartRepo) DeleteItem(_ context.Context, itemID uuid.UUID) error {
	if _, ok := m.items[itemID]; !ok {
		return pgx.ErrNoRows
	}
	delete(m.items, itemID)
	return nil
}

func (m *mockCartRepo) ClearCart(_ context.Context, cartID uuid.UUID) error {
	for id, item := range m.items {
		if item.CartID == cartID {
			delete(m.items, id)
		}
	}
	return nil
}

func TestCartService_AddItem_MergesDuplicates(t *testing.T) {
	productRepo := newMockProductRepo()
	pid := productRepo.add(uuid.New(), decimal.NewFromInt(10), 100)
	cartRepo := newMockCartRepo(productRepo)
	svc := NewCartService(cartRepo, productRepo)
	userID := uuid.New()

	require.NoError(t, svc.AddItem(context.Background(), userID, pid, 2))
	require.NoError(t, svc.AddItem(context.Background(), userID, pid, 3))

	require.Len(t, cartRepo.items, 1)
	for _, item := range cartRepo.items {
		assert.Equal(t, 5, item.Quantity)
	}
}

func TestCartService_AddItem_ProductNotFound(t *testing.T) {
	productRepo := newMockProductRepo()
	svc := NewCartService(newMockCartRepo(productRepo), productRepo)
	err := svc.AddItem(context.Background(), uuid.New(), uuid.New(), 2)
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestCartService_AddItem_MergedQuantityExceedsStock(t *testing.T) {
	productRepo := newMockProductRepo()
	pid := productRepo.add(uuid.New(), decimal.NewFromInt(10), 5)
	cartRepo := newMockCartRepo(productRepo)
	svc := NewCartService(cartRepo, productRepo)
	userID := uuid.New()

	require.NoError(t, svc.AddItem(context.Background(), userID, pid, 4))

	// 4 already in the cart, 2 more would merge to 6 against stock 5.
	err := svc.AddItem(context.Background(), userID, pid, 2)
	assert.ErrorIs(t, err, ErrInsufficientStock)
	for _, item := range cartRepo.items {
		assert.Equal(t, 4, item.Quantity)
	}
}

func TestCartService_UpdateItem_ExceedsStock(t *testing.T) {
	productRepo := newMockProductRepo()
	pid := productRepo.add(uuid.New(), decimal.NewFromInt(10), 5)
	cartRepo := newMockCartRepo(productRepo)
	svc := NewCartService(cartRepo, productRepo)
	userID := uuid.New()

	require.NoError(t, svc.AddItem(context.Background(), userID, pid, 2))
	var itemID uuid.UUID
	for id := range cartRepo.items {
		itemID = id
	}

	err := svc.UpdateItem(context.Background(), userID, itemID, 6)
	assert.ErrorIs(t, err, ErrInsufficientStock)
	assert.Equal(t, 2, cartRepo.items[itemID].Quantity)
}

func TestCartService_DeleteItem_OtherUsersItem(t *testing.T) {
	productRepo := newMockProductRepo()
	pid := productRepo.add(uuid.New(), decimal.NewFromInt(10), 100)
	cartRepo := newMockCartRepo(productRepo)
	svc := NewCartService(cartRepo, productRepo)
	owner := uuid.New()

	require.NoError(t, svc.AddItem(context.Background(), owner, pid, 1))
	var itemID uuid.UUID
	for id := range cartRepo.items {
		itemID = id
	}

	err := svc.DeleteItem(context.Background(), uuid.New(), itemID)
	assert.ErrorIs(t, err, ErrWrongCart)
	assert.Len(t, cartRepo.items, 1)
}

func TestCartService_UpdateItem_MissingItemLooksUnauthorized(t *testing.T) {
	productRepo := newMockProductRepo()
	svc := NewCartService(newMockCartRepo(productRepo), productRepo)

	err := svc.UpdateItem(context.Background(), uuid.New(), uuid.New(), 1)
	assert.ErrorIs(t, err, ErrWrongCart)
}

func TestCartService_GetCart_ComputesSubtotals(t *testing.T) {
	productRepo := newMockProductRepo()
	pid := productRepo.add(uuid.New(), decimal.NewFromFloat(10.50), 100)
	cartRepo := newMockCartRepo(productRepo)
	svc := NewCartService(cartRepo, productRepo)
	userID := uuid.New()

	require.NoError(t, svc.AddItem(context.Background(), userID, pid, 3))

	_, lines, err := svc.GetCart(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.True(t, lines[0].Subtotal().Equal(decimal.NewFromFloat(31.50)))
}
