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

type OrderRepository interface {
	// Checkout materializes the order in a single transaction: header,
	// frozen order lines, conditional stock decrements, and cart
	// clearing all commit together or not at all. order.Items must
	// carry the frozen prices; on success the order and item IDs and
	// timestamps are filled in.
	Checkout(ctx context.Context, order *model.Order, cartID uuid.UUID) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error)
	ListByUserID(ctx context.Context, userID uuid.UUID) ([]model.Order, error)
	ListAll(ctx context.Context) ([]model.Order, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.OrderStatus) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type pgOrderRepo struct{ pool *pgxpool.Pool }

func NewOrderRepository(pool *pgxpool.Pool) OrderRepository {
	return &pgOrderRepo{pool: pool}
}

func (r *pgOrderRepo) Checkout(ctx context.Context, order *model.Order, cartID uuid.UUID) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	order.ID = uuid.New()
	err = tx.QueryRow(ctx,
		`INSERT INTO orders (order_id, user_id, shipping_address, contact_phone, total_amount, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW()) RETURNING created_at, updated_at`,
		order.ID, order.UserID, order.ShippingAddress, order.ContactPhone, order.TotalAmount, order.Status,
	).Scan(&order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	for i := range order.Items {
		order.Items[i].ID = uuid.New()
		order.Items[i].OrderID = order.ID
		_, err = tx.Exec(ctx,
			`INSERT INTO order_items (order_item_id, order_id, product_id, price, purchase_quantity, created_at)
			 VALUES ($1, $2, $3, $4, $5, NOW())`,
			order.Items[i].ID, order.ID, order.Items[i].ProductID,
			order.Items[i].Price, order.Items[i].PurchaseQuantity,
		)
		if err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}

		// Re-validate stock at commit time: the guard fails the whole
		// checkout if a concurrent purchase drained this product since
		// the cart was filled.
		if err = decrementStock(ctx, tx, order.Items[i].ProductID, order.Items[i].PurchaseQuantity); err != nil {
			return err
		}
	}

	if _, err = tx.Exec(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, cartID); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}

	return tx.Commit(ctx)
}

func (r *pgOrderRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	order := &model.Order{}
	err := r.pool.QueryRow(ctx,
		`SELECT order_id, user_id, shipping_address, contact_phone, total_amount, status, created_at, updated_at
		 FROM orders WHERE order_id = $1`, id,
	).Scan(&order.ID, &order.UserID, &order.ShippingAddress, &order.ContactPhone,
		&order.TotalAmount, &order.Status, &order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get order: %w", err)
	}

	itemsByOrder, err := r.loadItems(ctx, []uuid.UUID{order.ID})
	if err != nil {
		return nil, err
	}
	order.Items = itemsByOrder[order.ID]
	return order, nil
}

func (r *pgOrderRepo) ListByUserID(ctx context.Context, userID uuid.UUID) ([]model.Order, error) {
	return r.list(ctx, `WHERE user_id = $1`, userID)
}

func (r *pgOrderRepo) ListAll(ctx context.Context) ([]model.Order, error) {
	return r.list(ctx, ``)
}

func (r *pgOrderRepo) list(ctx context.Context, where string, args ...any) ([]model.Order, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT order_id, user_id, shipping_address, contact_phone, total_amount, status, created_at, updated_at
		 FROM orders `+where+` ORDER BY created_at DESC`, args...,
	)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var orders []model.Order
	var ids []uuid.UUID
	for rows.Next() {
		var o model.Order
		err := rows.Scan(&o.ID, &o.UserID, &o.ShippingAddress, &o.ContactPhone,
			&o.TotalAmount, &o.Status, &o.CreatedAt, &o.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, o)
		ids = append(ids, o.ID)
	}
	if len(orders) == 0 {
		return orders, nil
	}

	itemsByOrder, err := r.loadItems(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		orders[i].Items = itemsByOrder[orders[i].ID]
	}
	return orders, nil
}

// loadItems fetches the lines for a set of orders, with the product
// name joined in for display. The price comes from the order line, not
// the product row.
func (r *pgOrderRepo) loadItems(ctx context.Context, orderIDs []uuid.UUID) (map[uuid.UUID][]model.OrderItem, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT oi.order_item_id, oi.order_id, oi.product_id, COALESCE(p.name, ''), oi.price, oi.purchase_quantity
		 FROM order_items oi
		 LEFT JOIN products p ON p.product_id = oi.product_id
		 WHERE oi.order_id = ANY($1)
		 ORDER BY oi.created_at`, orderIDs,
	)
	if err != nil {
		return nil, fmt.Errorf("get order items: %w", err)
	}
	defer rows.Close()

	items := make(map[uuid.UUID][]model.OrderItem)
	for rows.Next() {
		var item model.OrderItem
		err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.ProductName,
			&item.Price, &item.PurchaseQuantity)
		if err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		items[item.OrderID] = append(items[item.OrderID], item)
	}
	return items, nil
}

func (r *pgOrderRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status model.OrderStatus) error {
	ct, err := r.pool.Exec(ctx,
		`UPDATE orders SET status = $2, updated_at = NOW() WHERE order_id = $1`, id, status,
	)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *pgOrderRepo) Delete(ctx context.Context, id uuid.UUID) error {
	ct, err := r.pool.Exec(ctx, `DELETE FROM orders WHERE order_id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete order: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
