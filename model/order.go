package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID          int64           `json:"id"`
	Description string          `json:"description"`
	Stock       int             `json:"stock"`
	Price       decimal.Decimal `json:"price"`
}

type Order struct {
	ID           int64           `json:"id"`
	Date         time.Time       `json:"date"`
	CustomerName string          `json:"customer_name"`
	Total        decimal.Decimal `json:"total"`
	Lines        []OrderLine     `json:"lines"`
}

type OrderLine struct {
	ID        int64           `json:"id"`
	OrderID   int64           `json:"order_id"`
	ProductID int64           `json:"product_id"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}
