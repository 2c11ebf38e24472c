package store

import (
	"database/sql"
	"time"

	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"

	models "order-management/model"
)

// ProductRow, OrderRow, OrderLineRow are simple structs representing DB rows.
// They are value snapshots: nothing returned from a read keeps a link back to
// live store state.
type ProductRow struct {
	ID          int64
	Description sql.NullString
	Stock       int
	Price       decimal.Decimal
}

type OrderRow struct {
	ID           int64
	Date         time.Time
	CustomerName string
	Total        decimal.Decimal
}

type OrderLineRow struct {
	ID        int64
	OrderID   int64
	ProductID int64
	Quantity  int
	Price     decimal.Decimal
}

// PostgresStore is a Store backed by Postgres.
type PostgresStore struct {
	DB *sql.DB
}

func NewPostgresStore(dsn string) (*PostgresStore, error) {
	DB, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	if err := DB.Ping(); err != nil {
		return nil, err
	}
	return &PostgresStore{DB: DB}, nil
}

func (s *PostgresStore) Close() error { return s.DB.Close() }

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	Query(query string, args ...interface{}) (*sql.Rows, error)
}

func (s *PostgresStore) OrderExists(id int64) (bool, error) {
	var exists bool
	err := s.DB.QueryRow(`SELECT EXISTS(SELECT 1 FROM orders WHERE id = $1)`, id).Scan(&exists)
	return exists, err
}

// InsertOrder decreases stock for every line, then persists the order with
// its lines. Everything commits in one transaction.
func (s *PostgresStore) InsertOrder(o models.Order) (int64, error) {
	tx, err := s.DB.Begin()
	if err != nil {
		return 0, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := applyStockDeltas(tx, lineDeltas(o.Lines, stockDecrease)); err != nil {
		return 0, err
	}

	var id int64
	if err := tx.QueryRow(
		`INSERT INTO orders (order_date, customer_name, total) VALUES ($1, $2, $3) RETURNING id`,
		o.Date, o.CustomerName, o.Total,
	).Scan(&id); err != nil {
		return 0, err
	}

	if err := insertLines(tx, id, o.Lines); err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	committed = true
	return id, nil
}

// UpdateOrder replaces an existing order wholesale: reverse the original
// lines' stock effect, drop the lines, apply the new lines' effect, rewrite
// the order row, insert the new lines. One transaction, so a failure anywhere
// in the sequence cannot leave stock double-compensated.
func (s *PostgresStore) UpdateOrder(o models.Order) (bool, error) {
	tx, err := s.DB.Begin()
	if err != nil {
		return false, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	// lock the order row for the duration of the rewrite
	var lockedID int64
	err = tx.QueryRow(`SELECT id FROM orders WHERE id = $1 FOR UPDATE`, o.ID).Scan(&lockedID)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	original, err := readOrderLines(tx, o.ID)
	if err != nil {
		return false, err
	}

	if err := applyStockDeltas(tx, rowDeltas(original, stockIncrease)); err != nil {
		return false, err
	}

	if _, err := tx.Exec(`DELETE FROM order_lines WHERE order_id = $1`, o.ID); err != nil {
		return false, err
	}

	if err := applyStockDeltas(tx, lineDeltas(o.Lines, stockDecrease)); err != nil {
		return false, err
	}

	if _, err := tx.Exec(
		`UPDATE orders SET order_date = $1, customer_name = $2, total = $3 WHERE id = $4`,
		o.Date, o.CustomerName, o.Total, o.ID,
	); err != nil {
		return false, err
	}

	if err := insertLines(tx, o.ID, o.Lines); err != nil {
		return false, err
	}

	if err := tx.Commit(); err != nil {
		return false, err
	}
	committed = true
	return true, nil
}

// DeleteOrder reverses the order's stock effect and removes the order with
// its lines, atomically.
func (s *PostgresStore) DeleteOrder(id int64) (bool, error) {
	tx, err := s.DB.Begin()
	if err != nil {
		return false, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var lockedID int64
	err = tx.QueryRow(`SELECT id FROM orders WHERE id = $1 FOR UPDATE`, id).Scan(&lockedID)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	lines, err := readOrderLines(tx, id)
	if err != nil {
		return false, err
	}

	if err := applyStockDeltas(tx, rowDeltas(lines, stockIncrease)); err != nil {
		return false, err
	}

	if _, err := tx.Exec(`DELETE FROM order_lines WHERE order_id = $1`, id); err != nil {
		return false, err
	}
	if _, err := tx.Exec(`DELETE FROM orders WHERE id = $1`, id); err != nil {
		return false, err
	}

	if err := tx.Commit(); err != nil {
		return false, err
	}
	committed = true
	return true, nil
}

// FindOrder returns the order row with its lines. Absence surfaces as
// sql.ErrNoRows; the service maps that to a nil result.
func (s *PostgresStore) FindOrder(id int64) (OrderRow, []OrderLineRow, error) {
	var o OrderRow
	err := s.DB.QueryRow(
		`SELECT id, order_date, customer_name, total FROM orders WHERE id = $1`, id,
	).Scan(&o.ID, &o.Date, &o.CustomerName, &o.Total)
	if err != nil {
		return OrderRow{}, nil, err
	}
	lines, err := readOrderLines(s.DB, id)
	if err != nil {
		return OrderRow{}, nil, err
	}
	return o, lines, nil
}

func (s *PostgresStore) ListOrders() ([]OrderRow, map[int64][]OrderLineRow, error) {
	rows, err := s.DB.Query(`SELECT id, order_date, customer_name, total FROM orders ORDER BY id`)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	orders := []OrderRow{}
	for rows.Next() {
		var o OrderRow
		if err := rows.Scan(&o.ID, &o.Date, &o.CustomerName, &o.Total); err != nil {
			return nil, nil, err
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	lineRows, err := s.DB.Query(`SELECT id, order_id, product_id, quantity, price FROM order_lines`)
	if err != nil {
		return nil, nil, err
	}
	defer lineRows.Close()

	lines := map[int64][]OrderLineRow{}
	for lineRows.Next() {
		var ln OrderLineRow
		if err := lineRows.Scan(&ln.ID, &ln.OrderID, &ln.ProductID, &ln.Quantity, &ln.Price); err != nil {
			return nil, nil, err
		}
		lines[ln.OrderID] = append(lines[ln.OrderID], ln)
	}
	if err := lineRows.Err(); err != nil {
		return nil, nil, err
	}
	return orders, lines, nil
}

func (s *PostgresStore) ListProducts() ([]ProductRow, error) {
	rows, err := s.DB.Query(`SELECT id, description, stock, price FROM products ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []ProductRow{}
	for rows.Next() {
		var p ProductRow
		if err := rows.Scan(&p.ID, &p.Description, &p.Stock, &p.Price); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func readOrderLines(q querier, orderID int64) ([]OrderLineRow, error) {
	rows, err := q.Query(
		`SELECT id, order_id, product_id, quantity, price FROM order_lines WHERE order_id = $1`, orderID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []OrderLineRow{}
	for rows.Next() {
		var ln OrderLineRow
		if err := rows.Scan(&ln.ID, &ln.OrderID, &ln.ProductID, &ln.Quantity, &ln.Price); err != nil {
			return nil, err
		}
		out = append(out, ln)
	}
	return out, rows.Err()
}

func insertLines(tx *sql.Tx, orderID int64, lines []models.OrderLine) error {
	if len(lines) == 0 {
		return nil
	}
	stmt, err := tx.Prepare(`INSERT INTO order_lines (order_id, product_id, quantity, price) VALUES ($1, $2, $3, $4)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, ln := range lines {
		if _, err := stmt.Exec(orderID, ln.ProductID, ln.Quantity, ln.Price); err != nil {
			return err
		}
	}
	return nil
}
