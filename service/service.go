package service

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	models "order-management/model"
	"order-management/store"
)

type Service struct {
	store store.Store
}

func NewService(s store.Store) *Service {
	return &Service{store: s}
}

func (s *Service) Exists(id int64) (bool, error) {
	return s.store.OrderExists(id)
}

// Insert persists a new order and decreases stock by each line's quantity.
// The assigned order id is returned.
func (s *Service) Insert(o OrderDTO) (int64, error) {
	if err := validateOrder(o); err != nil {
		return 0, err
	}
	if o.Date.IsZero() {
		o.Date = time.Now()
	}
	return s.store.InsertOrder(orderToModel(o))
}

// Modify replaces a persisted order's fields and line collection with the
// given values, compensating stock for the swap. Returns false (no error)
// when the order id does not exist.
func (s *Service) Modify(o OrderDTO) (bool, error) {
	if err := validateOrder(o); err != nil {
		return false, err
	}
	if o.Date.IsZero() {
		o.Date = time.Now()
	}
	return s.store.UpdateOrder(orderToModel(o))
}

// Delete removes an order and restores the stock its lines consumed.
// Returns false (no error) when the order id does not exist.
func (s *Service) Delete(id int64) (bool, error) {
	return s.store.DeleteOrder(id)
}

// Save dispatches to Insert or Modify on an existence check. The check and
// the write are not atomic: two concurrent Saves for the same id can race.
// Acceptable under the single-writer assumption this service is built on.
func (s *Service) Save(o OrderDTO) (int64, bool, error) {
	exists, err := s.Exists(o.ID)
	if err != nil {
		return 0, false, err
	}
	if !exists {
		id, err := s.Insert(o)
		if err != nil {
			return 0, false, err
		}
		return id, true, nil
	}
	ok, err := s.Modify(o)
	return o.ID, ok, err
}

// FindByID returns nil (no error) when the order does not exist.
func (s *Service) FindByID(id int64) (*OrderDTO, error) {
	row, lines, err := s.store.FindOrder(id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	dto := orderToDTO(row, lines)
	return &dto, nil
}

// List returns every order matching the filter, nil meaning all. Results are
// value snapshots: mutating them affects nothing persisted.
func (s *Service) List(filter func(OrderDTO) bool) ([]OrderDTO, error) {
	rows, lines, err := s.store.ListOrders()
	if err != nil {
		return nil, err
	}
	out := make([]OrderDTO, 0, len(rows))
	for _, r := range rows {
		dto := orderToDTO(r, lines[r.ID])
		if filter == nil || filter(dto) {
			out = append(out, dto)
		}
	}
	return out, nil
}

func (s *Service) ListProducts() ([]ProductDTO, error) {
	rows, err := s.store.ListProducts()
	if err != nil {
		return nil, err
	}
	out := make([]ProductDTO, 0, len(rows))
	for _, r := range rows {
		p := ProductDTO{
			ID:    r.ID,
			Stock: r.Stock,
			Price: r.Price,
		}
		if r.Description.Valid {
			p.Description = r.Description.String
		}
		out = append(out, p)
	}
	return out, nil
}

func validateOrder(o OrderDTO) error {
	if o.CustomerName == "" {
		return errors.New("customer name required")
	}
	if !o.Total.IsPositive() {
		return errors.New("total must be > 0")
	}
	for _, ln := range o.Lines {
		if ln.Quantity <= 0 {
			return fmt.Errorf("product %d: quantity must be > 0", ln.ProductID)
		}
		if !ln.Price.IsPositive() {
			return fmt.Errorf("product %d: price must be > 0", ln.ProductID)
		}
	}
	return nil
}

func orderToModel(o OrderDTO) models.Order {
	m := models.Order{
		ID:           o.ID,
		Date:         o.Date,
		CustomerName: o.CustomerName,
		Total:        o.Total,
		Lines:        make([]models.OrderLine, 0, len(o.Lines)),
	}
	for _, ln := range o.Lines {
		m.Lines = append(m.Lines, models.OrderLine{
			ID:        ln.ID,
			OrderID:   o.ID,
			ProductID: ln.ProductID,
			Quantity:  ln.Quantity,
			Price:     ln.Price,
		})
	}
	return m
}

func orderToDTO(row store.OrderRow, lines []store.OrderLineRow) OrderDTO {
	dto := OrderDTO{
		ID:           row.ID,
		Date:         row.Date,
		CustomerName: row.CustomerName,
		Total:        row.Total,
		Lines:        make([]OrderLineDTO, 0, len(lines)),
	}
	for _, ln := range lines {
		dto.Lines = append(dto.Lines, OrderLineDTO{
			ID:        ln.ID,
			ProductID: ln.ProductID,
			Quantity:  ln.Quantity,
			Price:     ln.Price,
		})
	}
	return dto
}

// DTOs
type ProductDTO struct {
	ID          int64           `json:"id"`
	Description string          `json:"description"`
	Stock       int             `json:"stock"`
	Price       decimal.Decimal `json:"price"`
}

type OrderLineDTO struct {
	ID        int64           `json:"id,omitempty"`
	ProductID int64           `json:"product_id"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

type OrderDTO struct {
	ID           int64           `json:"id"`
	Date         time.Time       `json:"date"`
	CustomerName string          `json:"customer_name"`
	Total        decimal.Decimal `json:"total"`
	Lines        []OrderLineDTO  `json:"lines"`
}
