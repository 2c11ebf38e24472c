package store

import (
	models "order-management/model"
)

// Store is the relational collaborator behind the order service. Each write
// operation runs as a single transaction: stock adjustments and order rows
// commit together or not at all.
type Store interface {
	OrderExists(id int64) (bool, error)
	InsertOrder(o models.Order) (int64, error)
	UpdateOrder(o models.Order) (bool, error)
	DeleteOrder(id int64) (bool, error)

	FindOrder(id int64) (OrderRow, []OrderLineRow, error)
	ListOrders() ([]OrderRow, map[int64][]OrderLineRow, error)

	ListProducts() ([]ProductRow, error)
	GetStock(productID int64) (int, error)

	Close() error
}
