package store

import (
	"database/sql"
	"errors"
	"fmt"
	"sort"

	models "order-management/model"
)

// ErrProductNotFound is returned when an order line references a product id
// that is not in the catalog. Adjustments fail loudly rather than skip the
// line: skipping would silently drift stock away from the persisted orders.
var ErrProductNotFound = errors.New("product not found")

type stockDirection int

const (
	stockIncrease stockDirection = iota + 1
	stockDecrease
)

// lineDeltas aggregates per-product stock deltas for a batch of order lines.
// Deltas are computed up front so each product gets exactly one update, even
// when several lines reference it.
func lineDeltas(lines []models.OrderLine, dir stockDirection) map[int64]int {
	deltas := make(map[int64]int, len(lines))
	for _, ln := range lines {
		if dir == stockIncrease {
			deltas[ln.ProductID] += ln.Quantity
		} else {
			deltas[ln.ProductID] -= ln.Quantity
		}
	}
	return deltas
}

func rowDeltas(lines []OrderLineRow, dir stockDirection) map[int64]int {
	deltas := make(map[int64]int, len(lines))
	for _, ln := range lines {
		if dir == stockIncrease {
			deltas[ln.ProductID] += ln.Quantity
		} else {
			deltas[ln.ProductID] -= ln.Quantity
		}
	}
	return deltas
}

// applyStockDeltas applies aggregated deltas inside the caller's transaction,
// in ascending product-id order so overlapping operations take product locks
// in the same order.
func applyStockDeltas(tx *sql.Tx, deltas map[int64]int) error {
	ids := make([]int64, 0, len(deltas))
	for id := range deltas {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		res, err := tx.Exec(`UPDATE products SET stock = stock + $1 WHERE id = $2`, deltas[id], id)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("product %d: %w", id, ErrProductNotFound)
		}
	}
	return nil
}

// GetStock returns current stock for a product.
func (s *PostgresStore) GetStock(productID int64) (int, error) {
	var stock int
	if err := s.DB.QueryRow(`SELECT stock FROM products WHERE id = $1`, productID).Scan(&stock); err != nil {
		return 0, err
	}
	return stock, nil
}
