package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"ordersheet/internal/app"
	"ordersheet/internal/core"
)

// Handler holds the service bundle and the chi router.
type Handler struct {
	svc       *app.Services
	router    chi.Router
	jwtSecret string
	jwtTTL    time.Duration
}

// NewHandler creates and wires the chi router with all routes.
func NewHandler(svc *app.Services, allowedOrigins, jwtSecret string, jwtTTL time.Duration) http.Handler {
	h := &Handler{
		svc:       svc,
		jwtSecret: jwtSecret,
		jwtTTL:    jwtTTL,
	}

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(Logger)
	r.Use(Recoverer)
	r.Use(CORS(allowedOrigins))

	// ── Health (public) ───────────────────────────────────────────────────────
	r.Get("/api/health", h.health)

	// ── Auth (public) ─────────────────────────────────────────────────────────
	r.Group(func(r chi.Router) {
		r.Use(RequestBodyLimit(1 << 20)) // 1 MB
		r.Post("/api/auth/login", h.login)
		r.Post("/api/auth/verify", h.verifyToken)
		r.Post("/api/auth/init-accounts", h.initAccounts)
	})

	// ── Protected API routes ──────────────────────────────────────────────────
	r.Group(func(r chi.Router) {
		r.Use(h.RequireAuth)

		// Image upload: multipart body, limit managed inside the handler.
		r.Post("/api/images", h.uploadImage)

		r.Group(func(r chi.Router) {
			r.Use(RequestBodyLimit(1 << 20)) // 1 MB

			// ── Order partitions ──────────────────────────────────────────────
			r.Get("/api/sheets", h.listSheet)
			r.Post("/api/sheets", h.createOrder)
			r.Put("/api/sheets/status", h.updateOrderStatus)
			r.Put("/api/sheets/{rowIndex}", h.updateOrder)
			r.Delete("/api/sheets/{rowIndex}", h.deleteOrder)
			r.Get("/api/sheets/export", h.exportSheet)

			// ── Product catalog ───────────────────────────────────────────────
			r.Get("/api/sheets/products", h.listProducts)
			r.Get("/api/sheets/products/search/{productCode}", h.searchProduct)
			r.Post("/api/sheets/products", h.createProduct)

			// ── Customer directory ────────────────────────────────────────────
			r.Get("/api/sheets/customers", h.listCustomers)

			// ── Reporting and imports ─────────────────────────────────────────
			r.Post("/api/sheets/revenue", h.revenue)
			r.Post("/api/sheets/ordchina", h.createImport)

			// ── Shipment bills, legacy layout (two header rows) ───────────────
			r.Get("/api/sheets/ordviet/bills", h.legacyListBills)
			r.Post("/api/sheets/ordviet/bills", h.legacyCreateBill)
			r.Put("/api/sheets/ordviet/bills/{billCode}", h.legacyUpdateBill)
			r.Get("/api/sheets/ordviet/hang-viet-orders", h.legacyAwaitingOrders)
			r.Post("/api/sheets/ordviet/process-orders", h.legacyProcessOrders)

			// ── Shipment bills, current layout ────────────────────────────────
			r.Get("/api/ordviet/bills", h.listBills)
			r.Post("/api/ordviet/bills", h.createBill)
			r.Put("/api/ordviet/bills/{billCode}", h.updateBill)
			r.Get("/api/ordviet/hang-viet-orders", h.domesticOrders)
			r.Post("/api/ordviet/process-orders", h.processOrders)
		})
	})

	h.router = r
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

// decodeJSON decodes the request body into v, writing a 400/413 on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeError(w, r, "request body too large", "REQUEST_TOO_LARGE", http.StatusRequestEntityTooLarge)
			return false
		}
		writeError(w, r, "invalid JSON body: "+err.Error(), "BAD_REQUEST", http.StatusBadRequest)
		return false
	}
	return true
}

// writeCoreError maps service-layer errors onto the HTTP error surface.
func writeCoreError(w http.ResponseWriter, r *http.Request, err error) {
	var validation *core.ValidationError
	if errors.As(err, &validation) {
		writeError(w, r, validation.Message, "VALIDATION_ERROR", http.StatusBadRequest)
		return
	}
	var notFound *core.NotFoundError
	if errors.As(err, &notFound) {
		writeError(w, r, notFound.Message, "NOT_FOUND", http.StatusNotFound)
		return
	}
	writeError(w, r, err.Error(), "INTERNAL_ERROR", http.StatusInternalServerError)
}

// monthYearQuery reads year= and month=, defaulting to the current month
// when either is absent.
func monthYearQuery(r *http.Request) (year, month int) {
	now := time.Now()
	year, month = now.Year(), int(now.Month())
	if y, err := strconv.Atoi(r.URL.Query().Get("year")); err == nil {
		if m, err := strconv.Atoi(r.URL.Query().Get("month")); err == nil {
			year, month = y, m
		}
	}
	return year, month
}
