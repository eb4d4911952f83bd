package repository

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shoply/marketplace-api/internal/model"
)

func allTables() []string {
	return []string{"order_items", "orders", "cart_items", "carts", "products", "users"}
}

func createTestUser(t *testing.T, email string) *model.User {
	t.Helper()
	user := &model.User{Email: email, PasswordHash: "h", Name: "Test User"}
	require.NoError(t, NewUserRepository(testPool).Create(context.Background(), user))
	return user
}

func createTestProduct(t *testing.T, sellerID uuid.UUID, sku string, price decimal.Decimal, stock int) *model.Product {
	t.Helper()
	product := &model.Product{
		SKU: sku, Name: "Test Product", Description: "Desc",
		Price: price, Stock: stock, SellerID: sellerID,
	}
	require.NoError(t, NewProductRepository(testPool).Create(context.Background(), product))
	return product
}

func TestUserRepo_CreateAndGetByEmail(t *testing.T) {
	cleanupTable(t, allTables()...)

	repo := NewUserRepository(testPool)
	ctx := context.Background()

	user := createTestUser(t, "test@example.com")
	assert.NotEqual(t, uuid.Nil, user.ID)

	found, err := repo.GetByEmail(ctx, "test@example.com")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, user.ID, found.ID)
}

func TestProductRepo_CRUD(t *testing.T) {
	cleanupTable(t, allTables()...)

	repo := NewProductRepository(testPool)
	ctx := context.Background()

	seller := createTestUser(t, "seller@example.com")
	product := createTestProduct(t, seller.ID, "SKU-CRUD", decimal.NewFromFloat(29.99), 100)

	found, err := repo.GetByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, "Test Product", found.Name)
	assert.Equal(t, seller.ID, found.SellerID)

	product.Name = "Updated"
	require.NoError(t, repo.Update(ctx, product))

	found, _ = repo.GetByID(ctx, product.ID)
	assert.Equal(t, "Updated", found.Name)

	require.NoError(t, repo.Delete(ctx, product.ID))
	found, _ = repo.GetByID(ctx, product.ID)
	assert.Nil(t, found)
}

func TestProductRepo_List_ExcludesSeller(t *testing.T) {
	cleanupTable(t, allTables()...)

	repo := NewProductRepository(testPool)
	ctx := context.Background()

	seller := createTestUser(t, "seller@example.com")
	buyer := createTestUser(t, "buyer@example.com")
	createTestProduct(t, seller.ID, "SKU-MINE", decimal.NewFromInt(10), 5)
	createTestProduct(t, buyer.ID, "SKU-THEIRS", decimal.NewFromInt(20), 5)

	products, total, err := repo.List(ctx, seller.ID, 20, 0, "", "created_at", "desc")
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, products, 1)
	assert.Equal(t, "SKU-THEIRS", products[0].SKU)
}

func TestCartRepo_AddItemMergesDuplicates(t *testing.T) {
	cleanupTable(t, allTables()...)

	cartRepo := NewCartRepository(testPool)
	ctx := context.Background()

	user := createTestUser(t, "cart@example.com")
	product := createTestProduct(t, user.ID, "SKU-CART", decimal.NewFromFloat(15), 10)

	cart, err := cartRepo.GetOrCreateCart(ctx, user.ID)
	require.NoError(t, err)

	require.NoError(t, cartRepo.AddItem(ctx, &model.CartItem{
		CartID: cart.ID, ProductID: product.ID, Quantity: 2,
	}))
	require.NoError(t, cartRepo.AddItem(ctx, &model.CartItem{
		CartID: cart.ID, ProductID: product.ID, Quantity: 3,
	}))

	lines, err := cartRepo.GetLines(ctx, cart.ID)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, 5, lines[0].Item.Quantity)
}

func TestOrderRepo_Checkout(t *testing.T) {
	cleanupTable(t, allTables()...)

	cartRepo := NewCartRepository(testPool)
	productRepo := NewProductRepository(testPool)
	orderRepo := NewOrderRepository(testPool)
	ctx := context.Background()

	seller := createTestUser(t, "seller@example.com")
	buyer := createTestUser(t, "buyer@example.com")
	p1 := createTestProduct(t, seller.ID, "SKU-P1", decimal.NewFromFloat(10.00), 10)
	p2 := createTestProduct(t, seller.ID, "SKU-P2", decimal.NewFromFloat(5.00), 10)

	cart, err := cartRepo.GetOrCreateCart(ctx, buyer.ID)
	require.NoError(t, err)
	require.NoError(t, cartRepo.AddItem(ctx, &model.CartItem{CartID: cart.ID, ProductID: p1.ID, Quantity: 2}))
	require.NoError(t, cartRepo.AddItem(ctx, &model.CartItem{CartID: cart.ID, ProductID: p2.ID, Quantity: 1}))

	order := &model.Order{
		UserID:          buyer.ID,
		ShippingAddress: "1 Main St",
		TotalAmount:     decimal.NewFromFloat(25.00),
		Status:          model.OrderStatusPending,
		Items: []model.OrderItem{
			{ProductID: p1.ID, Price: p1.Price, PurchaseQuantity: 2},
			{ProductID: p2.ID, Price: p2.Price, PurchaseQuantity: 1},
		},
	}
	require.NoError(t, orderRepo.Checkout(ctx, order, cart.ID))

	found, err := orderRepo.GetByID(ctx, order.ID)
	require.NoError(t, err)
	assert.True(t, found.TotalAmount.Equal(decimal.NewFromFloat(25.00)))
	require.Len(t, found.Items, 2)

	stock1, _ := productRepo.GetByID(ctx, p1.ID)
	stock2, _ := productRepo.GetByID(ctx, p2.ID)
	assert.Equal(t, 8, stock1.Stock)
	assert.Equal(t, 9, stock2.Stock)

	lines, err := cartRepo.GetLines(ctx, cart.ID)
	require.NoError(t, err)
	assert.Empty(t, lines)
}

func TestOrderRepo_Checkout_InsufficientStockRollsBack(t *testing.T) {
	cleanupTable(t, allTables()...)

	cartRepo := NewCartRepository(testPool)
	productRepo := NewProductRepository(testPool)
	orderRepo := NewOrderRepository(testPool)
	ctx := context.Background()

	seller := createTestUser(t, "seller@example.com")
	buyer := createTestUser(t, "buyer@example.com")
	p1 := createTestProduct(t, seller.ID, "SKU-OK", decimal.NewFromFloat(10.00), 10)
	p2 := createTestProduct(t, seller.ID, "SKU-LOW", decimal.NewFromFloat(5.00), 1)

	cart, err := cartRepo.GetOrCreateCart(ctx, buyer.ID)
	require.NoError(t, err)
	require.NoError(t, cartRepo.AddItem(ctx, &model.CartItem{CartID: cart.ID, ProductID: p1.ID, Quantity: 2}))
	require.NoError(t, cartRepo.AddItem(ctx, &model.CartItem{CartID: cart.ID, ProductID: p2.ID, Quantity: 5}))

	order := &model.Order{
		UserID:          buyer.ID,
		ShippingAddress: "1 Main St",
		TotalAmount:     decimal.NewFromFloat(45.00),
		Status:          model.OrderStatusPending,
		Items: []model.OrderItem{
			{ProductID: p1.ID, Price: p1.Price, PurchaseQuantity: 2},
			{ProductID: p2.ID, Price: p2.Price, PurchaseQuantity: 5},
		},
	}
	err = orderRepo.Checkout(ctx, order, cart.ID)
	require.ErrorIs(t, err, ErrInsufficientStock)

	// Nothing from the failed checkout is visible: no order, stock
	// untouched (including the line that would have succeeded), cart
	// still full.
	orders, err := orderRepo.ListByUserID(ctx, buyer.ID)
	require.NoError(t, err)
	assert.Empty(t, orders)

	stock1, _ := productRepo.GetByID(ctx, p1.ID)
	stock2, _ := productRepo.GetByID(ctx, p2.ID)
	assert.Equal(t, 10, stock1.Stock)
	assert.Equal(t, 1, stock2.Stock)

	lines, err := cartRepo.GetLines(ctx, cart.ID)
	require.NoError(t, err)
	assert.Len(t, lines, 2)
}

func TestOrderRepo_UpdateStatusAndDelete(t *testing.T) {
	cleanupTable(t, allTables()...)

	cartRepo := NewCartRepository(testPool)
	orderRepo := NewOrderRepository(testPool)
	ctx := context.Background()

	seller := createTestUser(t, "seller@example.com")
	buyer := createTestUser(t, "buyer@example.com")
	product := createTestProduct(t, seller.ID, "SKU-ST", decimal.NewFromFloat(10.00), 10)

	cart, err := cartRepo.GetOrCreateCart(ctx, buyer.ID)
	require.NoError(t, err)
	require.NoError(t, cartRepo.AddItem(ctx, &model.CartItem{CartID: cart.ID, ProductID: product.ID, Quantity: 1}))

	order := &model.Order{
		UserID: buyer.ID, ShippingAddress: "1 Main St",
		TotalAmount: decimal.NewFromFloat(10.00), Status: model.OrderStatusPending,
		Items: []model.OrderItem{{ProductID: product.ID, Price: product.Price, PurchaseQuantity: 1}},
	}
	require.NoError(t, orderRepo.Checkout(ctx, order, cart.ID))

	require.NoError(t, orderRepo.UpdateStatus(ctx, order.ID, model.OrderStatusShipped))
	found, err := orderRepo.GetByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusShipped, found.Status)

	require.NoError(t, orderRepo.Delete(ctx, order.ID))
	found, err = orderRepo.GetByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Nil(t, found)
}
