package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"order-management/service"
	"order-management/store"
)

// Handler is the HTTP layer that talks to service.Service
type Handler struct {
	svc service.ServiceInterface
	log *zap.Logger
}

// NewHandler returns a Handler instance
func NewHandler(s service.ServiceInterface, log *zap.Logger) *Handler {
	return &Handler{svc: s, log: log}
}

// RegisterRoutes registers all routes on the provided router
func (h *Handler) RegisterRoutes(r *mux.Router) {
	// Orders
	r.HandleFunc("/orders", h.SaveOrder).Methods("POST")
	r.HandleFunc("/orders/list", h.ListOrders).Methods("GET")
	r.HandleFunc("/orders/{id:[0-9]+}", h.GetOrder).Methods("GET")
	r.HandleFunc("/orders/{id:[0-9]+}", h.DeleteOrder).Methods("DELETE")

	// Catalog
	r.HandleFunc("/products/list", h.ListProducts).Methods("GET")
}

// --- request / response shapes ---
type orderLineReq struct {
	ID        int64           `json:"id,omitempty"`
	ProductID int64           `json:"product_id"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

type saveOrderReq struct {
	ID           int64           `json:"id,omitempty"`
	Date         time.Time       `json:"date,omitempty"`
	CustomerName string          `json:"customer_name"`
	Total        decimal.Decimal `json:"total"`
	Lines        []orderLineReq  `json:"lines"`
}

// --- helpers ---
func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

func pathID(r *http.Request) int64 {
	id, _ := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	return id
}

// --- Handler ---

// SaveOrder handles POST /orders. An order with an unknown id is inserted,
// a known id is modified wholesale.
// body: { "id": 0, "customer_name": "...", "total": "140", "lines": [ { "product_id": 2, "quantity": 2, "price": "70" } ] }
func (h *Handler) SaveOrder(w http.ResponseWriter, r *http.Request) {
	var req saveOrderReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid json")
		return
	}

	dto := service.OrderDTO{
		ID:           req.ID,
		Date:         req.Date,
		CustomerName: req.CustomerName,
		Total:        req.Total,
		Lines:        make([]service.OrderLineDTO, 0, len(req.Lines)),
	}
	for _, ln := range req.Lines {
		dto.Lines = append(dto.Lines, service.OrderLineDTO{
			ID:        ln.ID,
			ProductID: ln.ProductID,
			Quantity:  ln.Quantity,
			Price:     ln.Price,
		})
	}

	inserting := req.ID == 0
	id, ok, err := h.svc.Save(dto)
	if err != nil {
		if errors.Is(err, store.ErrProductNotFound) {
			writeErr(w, http.StatusConflict, err.Error())
			return
		}
		writeErr(w, http.StatusBadRequest, err.Error())
		return
	}
	if !ok {
		writeErr(w, http.StatusNotFound, "order not found")
		return
	}
	code := http.StatusOK
	if inserting {
		code = http.StatusCreated
	}
	writeJSON(w, code, map[string]int64{"id": id})
}

// GetOrder handles GET /orders/{id}
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.svc.FindByID(pathID(r))
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err.Error())
		return
	}
	if o == nil {
		writeErr(w, http.StatusNotFound, "order not found")
		return
	}
	writeJSON(w, http.StatusOK, o)
}

// DeleteOrder handles DELETE /orders/{id}
func (h *Handler) DeleteOrder(w http.ResponseWriter, r *http.Request) {
	ok, err := h.svc.Delete(pathID(r))
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !ok {
		writeErr(w, http.StatusNotFound, "order not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// ListOrders handles GET /orders/list?customer=...
// The optional customer parameter filters by exact customer name.
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	var filter func(service.OrderDTO) bool
	if customer := r.URL.Query().Get("customer"); customer != "" {
		filter = func(o service.OrderDTO) bool { return o.CustomerName == customer }
	}
	orders, err := h.svc.List(filter)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

// ListProducts handles GET /products/list
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	ps, err := h.svc.ListProducts()
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, ps)
}
