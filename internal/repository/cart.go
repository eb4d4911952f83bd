package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shoply/marketplace-api/internal/model"
)

type CartRepository interface {
	GetOrCreateCart(ctx context.Context, userID uuid.UUID) (*model.Cart, error)
	// GetLines returns the cart items joined with their current product
	// snapshots, in insertion order.
	GetLines(ctx context.Context, cartID uuid.UUID) ([]model.CartLine, error)
	GetItem(ctx context.Context, itemID uuid.UUID) (*model.CartItem, error)
	GetItemByProduct(ctx context.Context, cartID, productID uuid.UUID) (*model.CartItem, error)
	AddItem(ctx context.Context, item *model.CartItem) error
	UpdateItemQuantity(ctx context.Context, itemID uuid.UUID, quantity int) error
	DeleteItem(ctx context.Context, itemID uuid.UUID) error
	ClearCart(ctx context.Context, cartID uuid.UUID) error
}

type pgCartRepo struct{ pool *pgxpool.Pool }

func NewCartRepository(pool *pgxpool.Pool) CartRepository {
	return &pgCartRepo{pool: pool}
}

func (r *pgCartRepo) GetOrCreateCart(ctx context.Context, userID uuid.UUID) (*model.Cart, error) {
	cart := &model.Cart{}
	err := r.pool.QueryRow(ctx,
		`SELECT cart_id, user_id, created_at, updated_at FROM carts WHERE user_id = $1`, userID,
	).Scan(&cart.ID, &cart.UserID, &cart.CreatedAt, &cart.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			cart.ID = uuid.New()
			cart.UserID = userID
			err = r.pool.QueryRow(ctx,
				`INSERT INTO carts (cart_id, user_id, created_at, updated_at) VALUES ($1, $2, NOW(), NOW())
				 ON CONFLICT (user_id) DO UPDATE SET updated_at = carts.updated_at
				 RETURNING cart_id, created_at, updated_at`,
				cart.ID, cart.UserID,
			).Scan(&cart.ID, &cart.CreatedAt, &cart.UpdatedAt)
			if err != nil {
				return nil, fmt.Errorf("create cart: %w", err)
			}
			return cart, nil
		}
		return nil, fmt.Errorf("get cart: %w", err)
	}
	return cart, nil
}

func (r *pgCartRepo) GetLines(ctx context.Context, cartID uuid.UUID) ([]model.CartLine, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT ci.cart_item_id, ci.cart_id, ci.product_id, ci.quantity, ci.created_at, ci.updated_at,
				p.product_id, p.sku, p.name, p.description, p.price, p.image_url, p.category,
				p.stock_quantity, p.seller_id, p.created_at, p.updated_at
		 FROM cart_items ci
		 JOIN products p ON p.product_id = ci.product_id
		 WHERE ci.cart_id = $1
		 ORDER BY ci.created_at`, cartID,
	)
	if err != nil {
		return nil, fmt.Errorf("get cart lines: %w", err)
	}
	defer rows.Close()

	var lines []model.CartLine
	for rows.Next() {
		var l model.CartLine
		err := rows.Scan(
			&l.Item.ID, &l.Item.CartID, &l.Item.ProductID, &l.Item.Quantity, &l.Item.CreatedAt, &l.Item.UpdatedAt,
			&l.Product.ID, &l.Product.SKU, &l.Product.Name, &l.Product.Description, &l.Product.Price,
			&l.Product.ImageURL, &l.Product.Category, &l.Product.Stock, &l.Product.SellerID,
			&l.Product.CreatedAt, &l.Product.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan cart line: %w", err)
		}
		lines = append(lines, l)
	}
	return lines, nil
}

func (r *pgCartRepo) GetItem(ctx context.Context, itemID uuid.UUID) (*model.CartItem, error) {
	item := &model.CartItem{}
	err := r.pool.QueryRow(ctx,
		`SELECT cart_item_id, cart_id, product_id, quantity, created_at, updated_at
		 FROM cart_items WHERE cart_item_id = $1`, itemID,
	).Scan(&item.ID, &item.CartID, &item.ProductID, &item.Quantity, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get cart item: %w", err)
	}
	return item, nil
}

func (r *pgCartRepo) GetItemByProduct(ctx context.Context, cartID, productID uuid.UUID) (*model.CartItem, error) {
	item := &model.CartItem{}
	err := r.pool.QueryRow(ctx,
		`SELECT cart_item_id, cart_id, product_id, quantity, created_at, updated_at
		 FROM cart_items WHERE cart_id = $1 AND product_id = $2`, cartID, productID,
	).Scan(&item.ID, &item.CartID, &item.ProductID, &item.Quantity, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get cart item by product: %w", err)
	}
	return item, nil
}

// AddItem inserts a line or merges into the existing (cart, product)
// line by incrementing its quantity. The unique constraint keeps at
// most one row per pair.
func (r *pgCartRepo) AddItem(ctx context.Context, item *model.CartItem) error {
	item.ID = uuid.New()
	query := `INSERT INTO cart_items (cart_item_id, cart_id, product_id, quantity, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, NOW(), NOW())
			  ON CONFLICT (cart_id, product_id) DO UPDATE SET quantity = cart_items.quantity + $4, updated_at = NOW()
			  RETURNING cart_item_id, quantity, created_at, updated_at`
	err := r.pool.QueryRow(ctx, query, item.ID, item.CartID, item.ProductID, item.Quantity).
		Scan(&item.ID, &item.Quantity, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return fmt.Errorf("add cart item: %w", err)
	}
	return nil
}

func (r *pgCartRepo) UpdateItemQuantity(ctx context.Context, itemID uuid.UUID, quantity int) error {
	ct, err := r.pool.Exec(ctx,
		`UPDATE cart_items SET quantity = $2, updated_at = NOW() WHERE cart_item_id = $1`,
		itemID, quantity,
	)
	if err != nil {
		return fmt.Errorf("update cart item: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *pgCartRepo) DeleteItem(ctx context.Context, itemID uuid.UUID) error {
	ct, err := r.pool.Exec(ctx, `DELETE FROM cart_items WHERE cart_item_id = $1`, itemID)
	if err != nil {
		return fmt.Errorf("delete cart item: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *pgCartRepo) ClearCart(ctx context.Context, cartID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, cartID)
	if err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}
