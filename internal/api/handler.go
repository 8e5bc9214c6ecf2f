package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"

	"dokanhisab/m/domain"
)

type ctxKey string

const ctxUserID ctxKey = "userID"

// Handler bundles dependencies for HTTP handlers.
type Handler struct {
	db     *sqlx.DB
	secret string
}

// New constructs a Handler.
func New(db *sqlx.DB, secret string) *Handler {
	return &Handler{db: db, secret: secret}
}

// Router wires up the HTTP API.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", h.health)

	r.Post("/api/users", h.register)
	r.Post("/api/users/login", h.login)

	r.Group(func(pr chi.Router) {
		pr.Use(h.authMiddleware)

		pr.Get("/api/users/{username}", h.userByUsername)
		pr.Get("/api/dashboard/{userID}", h.dashboard)

		pr.Route("/api/customers/{userID}", func(r chi.Router) {
			r.Get("/", h.listCustomers)
			r.Post("/", h.createCustomer)
		})

		pr.Route("/api/products/{userID}", func(r chi.Router) {
			r.Get("/", h.listProducts)
			r.Post("/", h.createProduct)
			r.Get("/low-stock", h.lowStockProducts)
			r.Put("/{id}", h.updateProduct)
		})

		pr.Route("/api/sales/{userID}", func(r chi.Router) {
			r.Get("/", h.listSales)
			r.Post("/", h.createSale)
			r.Get("/today", h.todaySales)
		})

		pr.Route("/api/expenses/{userID}", func(r chi.Router) {
			r.Get("/", h.listExpenses)
			r.Post("/", h.createExpense)
		})

		pr.Route("/api/collections/{userID}", func(r chi.Router) {
			r.Get("/", h.listCollections)
			r.Post("/", h.createCollection)
		})
	})

	return r
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Authentication

type authClaims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

func (h *Handler) generateToken(userID string) (string, error) {
	claims := authClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(h.secret))
}

func (h *Handler) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" || !strings.HasPrefix(strings.ToLower(header), "bearer ") {
			respondError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		tokenString := strings.TrimSpace(header[len("Bearer "):])
		token, err := jwt.ParseWithClaims(tokenString, &authClaims{}, func(token *jwt.Token) (interface{}, error) {
			if token.Method != jwt.SigningMethodHS256 {
				return nil, errors.New("unexpected signing method")
			}
			return []byte(h.secret), nil
		})
		if err != nil || !token.Valid {
			respondError(w, http.StatusUnauthorized, "invalid token")
			return
		}
		claims, ok := token.Claims.(*authClaims)
		if !ok {
			respondError(w, http.StatusUnauthorized, "invalid token claims")
			return
		}
		ctx := context.WithValue(r.Context(), ctxUserID, claims.UserID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireOwner checks that the path's userID matches the token's subject.
func (h *Handler) requireOwner(w http.ResponseWriter, r *http.Request) (string, bool) {
	owner := chi.URLParam(r, "userID")
	if owner == "" {
		respondError(w, http.StatusBadRequest, "user id is required")
		return "", false
	}
	if uid, _ := r.Context().Value(ctxUserID).(string); uid != owner {
		respondError(w, http.StatusForbidden, "token does not match user")
		return "", false
	}
	return owner, true
}

// User handlers

type registerRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	ShopName string `json:"shop_name"`
}

type authResponse struct {
	Token string      `json:"token"`
	User  domain.User `json:"user"`
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Username == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, "username and password are required")
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to secure password")
		return
	}

	user := domain.User{
		ID:        uuid.NewString(),
		Username:  strings.ToLower(req.Username),
		ShopName:  req.ShopName,
		CreatedAt: time.Now().UTC(),
	}
	_, err = h.db.Exec(`INSERT INTO users (id, username, password, shop_name, created_at) VALUES ($1, $2, $3, $4, $5)`,
		user.ID, user.Username, string(hashed), user.ShopName, fmtTime(user.CreatedAt))
	if err != nil {
		respondError(w, http.StatusConflict, "username already exists")
		return
	}

	token, err := h.generateToken(user.ID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to generate token")
		return
	}
	respondJSON(w, http.StatusCreated, authResponse{Token: token, User: user})
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var row userRow
	err := h.db.Get(&row, `SELECT id, username, password, shop_name, created_at FROM users WHERE username = $1`, strings.ToLower(req.Username))
	if err != nil {
		respondError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(row.Password), []byte(req.Password)) != nil {
		respondError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, err := h.generateToken(row.ID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to generate token")
		return
	}
	respondJSON(w, http.StatusOK, authResponse{Token: token, User: row.toDomain()})
}

func (h *Handler) userByUsername(w http.ResponseWriter, r *http.Request) {
	username := strings.ToLower(chi.URLParam(r, "username"))
	var row userRow
	err := h.db.Get(&row, `SELECT id, username, password, shop_name, created_at FROM users WHERE username = $1`, username)
	if err != nil {
		respondError(w, http.StatusNotFound, "user not found")
		return
	}
	respondJSON(w, http.StatusOK, row.toDomain())
}

// Dashboard

func (h *Handler) dashboard(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.requireOwner(w, r)
	if !ok {
		return
	}
	customers, err := h.selectCustomers(owner)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to compute dashboard")
		return
	}
	sales, err := h.selectSales(owner, 0, false)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to compute dashboard")
		return
	}
	expenses, err := h.selectExpenses(owner, 0)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to compute dashboard")
		return
	}
	collections, err := h.selectCollections(owner, 0)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to compute dashboard")
		return
	}
	respondJSON(w, http.StatusOK, domain.ComputeStats(time.Now().UTC(), customers, sales, expenses, collections))
}

// Customer handlers

func (h *Handler) listCustomers(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.requireOwner(w, r)
	if !ok {
		return
	}
	customers, err := h.selectCustomers(owner)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to list customers")
		return
	}
	respondJSON(w, http.StatusOK, customers)
}

func (h *Handler) createCustomer(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.requireOwner(w, r)
	if !ok {
		return
	}
	var req domain.Customer
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		respondError(w, http.StatusBadRequest, "name is required")
		return
	}
	if req.CreditBalance < 0 {
		respondError(w, http.StatusBadRequest, "credit_balance must not be negative")
		return
	}

	customer := domain.Customer{
		ID:            uuid.NewString(),
		UserID:        owner,
		Name:          req.Name,
		Phone:         req.Phone,
		Address:       req.Address,
		CreditBalance: req.CreditBalance,
		CreatedAt:     time.Now().UTC(),
		SyncStatus:    domain.SyncSynced,
	}
	_, err := h.db.Exec(`INSERT INTO customers (id, user_id, name, phone, address, credit_balance, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		customer.ID, customer.UserID, customer.Name, customer.Phone, customer.Address,
		customer.CreditBalance, fmtTime(customer.CreatedAt))
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to create customer")
		return
	}
	respondJSON(w, http.StatusCreated, customer)
}

// Product handlers

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.requireOwner(w, r)
	if !ok {
		return
	}
	products, err := h.selectProducts(owner, false)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to list products")
		return
	}
	respondJSON(w, http.StatusOK, products)
}

func (h *Handler) lowStockProducts(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.requireOwner(w, r)
	if !ok {
		return
	}
	products, err := h.selectProducts(owner, true)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to list products")
		return
	}
	respondJSON(w, http.StatusOK, products)
}

func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.requireOwner(w, r)
	if !ok {
		return
	}
	var req domain.Product
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		respondError(w, http.StatusBadRequest, "name is required")
		return
	}
	if req.BuyingPrice < 0 || req.SellingPrice < 0 || req.CurrentStock < 0 || req.MinStockLevel < 0 {
		respondError(w, http.StatusBadRequest, "prices and stock must not be negative")
		return
	}

	product := domain.Product{
		ID:            uuid.NewString(),
		UserID:        owner,
		Name:          req.Name,
		Category:      req.Category,
		Unit:          req.Unit,
		BuyingPrice:   req.BuyingPrice,
		SellingPrice:  req.SellingPrice,
		CurrentStock:  req.CurrentStock,
		MinStockLevel: req.MinStockLevel,
		CreatedAt:     time.Now().UTC(),
		SyncStatus:    domain.SyncSynced,
	}
	_, err := h.db.Exec(`INSERT INTO products
		(id, user_id, name, category, unit, buying_price, selling_price, current_stock, min_stock_level, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		product.ID, product.UserID, product.Name, product.Category, product.Unit,
		product.BuyingPrice, product.SellingPrice, product.CurrentStock, product.MinStockLevel,
		fmtTime(product.CreatedAt))
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to create product")
		return
	}
	respondJSON(w, http.StatusCreated, product)
}

func (h *Handler) updateProduct(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.requireOwner(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")
	var partial struct {
		CurrentStock *float64 `json:"current_stock"`
		SellingPrice *float64 `json:"selling_price"`
		BuyingPrice  *float64 `json:"buying_price"`
	}
	if err := decodeJSON(r, &partial); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var row productRow
	if err := h.db.Get(&row, `SELECT * FROM products WHERE id = $1 AND user_id = $2`, id, owner); err != nil {
		respondError(w, http.StatusNotFound, "product not found")
		return
	}
	if partial.CurrentStock != nil {
		if *partial.CurrentStock < 0 {
			respondError(w, http.StatusBadRequest, "current_stock must not be negative")
			return
		}
		row.CurrentStock = *partial.CurrentStock
	}
	if partial.SellingPrice != nil {
		row.SellingPrice = *partial.SellingPrice
	}
	if partial.BuyingPrice != nil {
		row.BuyingPrice = *partial.BuyingPrice
	}

	_, err := h.db.Exec(`UPDATE products SET current_stock = $1, selling_price = $2, buying_price = $3 WHERE id = $4 AND user_id = $5`,
		row.CurrentStock, row.SellingPrice, row.BuyingPrice, id, owner)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to update product")
		return
	}
	respondJSON(w, http.StatusOK, row.toDomain())
}

// Sale handlers

func (h *Handler) listSales(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.requireOwner(w, r)
	if !ok {
		return
	}
	sales, err := h.selectSales(owner, parseLimit(r), false)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to list sales")
		return
	}
	respondJSON(w, http.StatusOK, sales)
}

func (h *Handler) todaySales(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.requireOwner(w, r)
	if !ok {
		return
	}
	sales, err := h.selectSales(owner, 0, true)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to list sales")
		return
	}
	respondJSON(w, http.StatusOK, sales)
}

func (h *Handler) createSale(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.requireOwner(w, r)
	if !ok {
		return
	}
	var req domain.Sale
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.TotalAmount <= 0 {
		respondError(w, http.StatusBadRequest, "total_amount must be greater than zero")
		return
	}
	if req.PaidAmount < 0 || req.DueAmount < 0 {
		respondError(w, http.StatusBadRequest, "paid_amount and due_amount must not be negative")
		return
	}
	switch req.PaymentMethod {
	case "", domain.PaymentCash, domain.PaymentCredit, domain.PaymentMixed:
	default:
		respondError(w, http.StatusBadRequest, "invalid payment_method")
		return
	}

	now := time.Now().UTC()
	if req.SaleDate.IsZero() {
		req.SaleDate = now
	}
	if req.PaymentMethod == "" {
		req.PaymentMethod = domain.PaymentCash
	}
	items, err := json.Marshal(req.Items)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid items")
		return
	}

	sale := req
	sale.ID = uuid.NewString()
	sale.UserID = owner
	sale.CreatedAt = now
	sale.SyncStatus = domain.SyncSynced
	_, err = h.db.Exec(`INSERT INTO sales
		(id, user_id, customer_id, customer_name, items, total_amount, paid_amount, due_amount, payment_method, sale_date, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		sale.ID, sale.UserID, sale.CustomerID, sale.CustomerName, string(items),
		sale.TotalAmount, sale.PaidAmount, sale.DueAmount, sale.PaymentMethod,
		fmtTime(sale.SaleDate), fmtTime(sale.CreatedAt))
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to create sale")
		return
	}
	respondJSON(w, http.StatusCreated, sale)
}

// Expense handlers

func (h *Handler) listExpenses(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.requireOwner(w, r)
	if !ok {
		return
	}
	expenses, err := h.selectExpenses(owner, parseLimit(r))
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to list expenses")
		return
	}
	respondJSON(w, http.StatusOK, expenses)
}

func (h *Handler) createExpense(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.requireOwner(w, r)
	if !ok {
		return
	}
	var req domain.Expense
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Category) == "" {
		respondError(w, http.StatusBadRequest, "category is required")
		return
	}
	if req.Amount <= 0 {
		respondError(w, http.StatusBadRequest, "amount must be greater than zero")
		return
	}

	now := time.Now().UTC()
	if req.ExpenseDate.IsZero() {
		req.ExpenseDate = now
	}
	expense := req
	expense.ID = uuid.NewString()
	expense.UserID = owner
	expense.CreatedAt = now
	expense.SyncStatus = domain.SyncSynced
	_, err := h.db.Exec(`INSERT INTO expenses (id, user_id, category, amount, description, expense_date, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		expense.ID, expense.UserID, expense.Category, expense.Amount, expense.Description,
		fmtTime(expense.ExpenseDate), fmtTime(expense.CreatedAt))
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to create expense")
		return
	}
	respondJSON(w, http.StatusCreated, expense)
}

// Collection handlers

func (h *Handler) listCollections(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.requireOwner(w, r)
	if !ok {
		return
	}
	collections, err := h.selectCollections(owner, parseLimit(r))
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to list collections")
		return
	}
	respondJSON(w, http.StatusOK, collections)
}

func (h *Handler) createCollection(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.requireOwner(w, r)
	if !ok {
		return
	}
	var req domain.Collection
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.CustomerID == "" {
		respondError(w, http.StatusBadRequest, "customer_id is required")
		return
	}
	if req.Amount <= 0 {
		respondError(w, http.StatusBadRequest, "amount must be greater than zero")
		return
	}

	now := time.Now().UTC()
	if req.CollectionDate.IsZero() {
		req.CollectionDate = now
	}
	col := req
	col.ID = uuid.NewString()
	col.UserID = owner
	col.CreatedAt = now
	col.SyncStatus = domain.SyncSynced
	_, err := h.db.Exec(`INSERT INTO collections (id, user_id, customer_id, amount, collection_date, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		col.ID, col.UserID, col.CustomerID, col.Amount, fmtTime(col.CollectionDate), fmtTime(col.CreatedAt))
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to create collection")
		return
	}
	respondJSON(w, http.StatusCreated, col)
}

// Helpers

func parseLimit(r *http.Request) int {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit < 0 {
		return 0
	}
	return limit
}

func decodeJSON(r *http.Request, dest interface{}) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dest)
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	encoder := json.NewEncoder(w)
	encoder.SetEscapeHTML(false)
	_ = encoder.Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
