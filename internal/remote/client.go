// Package remote wraps the hosted bookkeeping service's REST API.
//
// The wrapper is stateless: one method per endpoint, owner id always passed
// explicitly. Non-2xx responses come back wrapping a StatusError so callers
// can tell a rejected request from an unreachable service.
package remote

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"
	"resty.dev/v3"

	"dokanhisab/m/domain"
)

// apiError mirrors the service's {"error": "..."} failure body.
type apiError struct {
	Message string `json:"error"`
}

// StatusError is a non-2xx response from the service. Transport failures
// never produce one; they mean the service was not reached at all.
type StatusError struct {
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s (status %d)", e.Message, e.Status)
}

// IsRejected reports whether err is a 4xx response, meaning the service
// received the request and refused it. A rejected write must not be retried
// as-is; a transport failure or 5xx may be.
func IsRejected(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Status >= 400 && se.Status < 500
}

// Client performs CRUD calls against the remote service.
type Client struct {
	http   *resty.Client
	logger *zap.Logger
}

// New creates a Client for the service at baseURL.
func New(baseURL string, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(15 * time.Second)
	return &Client{http: c, logger: logger}
}

// SetToken attaches a bearer token to all subsequent requests.
func (c *Client) SetToken(token string) {
	c.http.SetAuthToken(token)
}

// Close releases the underlying transport.
func (c *Client) Close() error {
	return c.http.Close()
}

func (c *Client) get(ctx context.Context, path string, limit int, out any) error {
	req := c.http.R().SetContext(ctx).SetResult(out).SetError(&apiError{})
	if limit > 0 {
		req.SetQueryParam("limit", strconv.Itoa(limit))
	}
	resp, err := req.Get(path)
	return c.check(resp, err, "GET", path)
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	resp, err := c.http.R().SetContext(ctx).SetBody(body).SetResult(out).SetError(&apiError{}).Post(path)
	return c.check(resp, err, "POST", path)
}

func (c *Client) put(ctx context.Context, path string, body, out any) error {
	resp, err := c.http.R().SetContext(ctx).SetBody(body).SetResult(out).SetError(&apiError{}).Put(path)
	return c.check(resp, err, "PUT", path)
}

func (c *Client) check(resp *resty.Response, err error, method, path string) error {
	if err != nil {
		c.logger.Warn("remote request failed",
			zap.String("method", method), zap.String("path", path), zap.Error(err))
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	if resp.IsError() {
		msg := "request failed"
		if apiErr, ok := resp.Error().(*apiError); ok && apiErr.Message != "" {
			msg = apiErr.Message
		}
		c.logger.Warn("remote request rejected",
			zap.String("method", method), zap.String("path", path),
			zap.Int("status", resp.StatusCode()), zap.String("message", msg))
		return fmt.Errorf("%s %s: %w", method, path, &StatusError{Status: resp.StatusCode(), Message: msg})
	}
	return nil
}

// Customers

func (c *Client) Customers(ctx context.Context, owner string) ([]domain.Customer, error) {
	var out []domain.Customer
	if err := c.get(ctx, "/api/customers/"+owner, 0, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateCustomer(ctx context.Context, owner string, customer domain.Customer) (domain.Customer, error) {
	var out domain.Customer
	if err := c.post(ctx, "/api/customers/"+owner, customer, &out); err != nil {
		return domain.Customer{}, err
	}
	return out, nil
}

// Products

func (c *Client) Products(ctx context.Context, owner string) ([]domain.Product, error) {
	var out []domain.Product
	if err := c.get(ctx, "/api/products/"+owner, 0, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateProduct(ctx context.Context, owner string, product domain.Product) (domain.Product, error) {
	var out domain.Product
	if err := c.post(ctx, "/api/products/"+owner, product, &out); err != nil {
		return domain.Product{}, err
	}
	return out, nil
}

func (c *Client) UpdateProduct(ctx context.Context, owner, id string, partial map[string]any) (domain.Product, error) {
	var out domain.Product
	if err := c.put(ctx, "/api/products/"+owner+"/"+id, partial, &out); err != nil {
		return domain.Product{}, err
	}
	return out, nil
}

func (c *Client) LowStockProducts(ctx context.Context, owner string) ([]domain.Product, error) {
	var out []domain.Product
	if err := c.get(ctx, "/api/products/"+owner+"/low-stock", 0, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Sales

func (c *Client) Sales(ctx context.Context, owner string, limit int) ([]domain.Sale, error) {
	var out []domain.Sale
	if err := c.get(ctx, "/api/sales/"+owner, limit, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateSale(ctx context.Context, owner string, sale domain.Sale) (domain.Sale, error) {
	var out domain.Sale
	if err := c.post(ctx, "/api/sales/"+owner, sale, &out); err != nil {
		return domain.Sale{}, err
	}
	return out, nil
}

func (c *Client) TodaySales(ctx context.Context, owner string) ([]domain.Sale, error) {
	var out []domain.Sale
	if err := c.get(ctx, "/api/sales/"+owner+"/today", 0, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Expenses

func (c *Client) Expenses(ctx context.Context, owner string, limit int) ([]domain.Expense, error) {
	var out []domain.Expense
	if err := c.get(ctx, "/api/expenses/"+owner, limit, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateExpense(ctx context.Context, owner string, expense domain.Expense) (domain.Expense, error) {
	var out domain.Expense
	if err := c.post(ctx, "/api/expenses/"+owner, expense, &out); err != nil {
		return domain.Expense{}, err
	}
	return out, nil
}

// Collections

func (c *Client) Collections(ctx context.Context, owner string, limit int) ([]domain.Collection, error) {
	var out []domain.Collection
	if err := c.get(ctx, "/api/collections/"+owner, limit, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateCollection(ctx context.Context, owner string, collection domain.Collection) (domain.Collection, error) {
	var out domain.Collection
	if err := c.post(ctx, "/api/collections/"+owner, collection, &out); err != nil {
		return domain.Collection{}, err
	}
	return out, nil
}

// Stats

func (c *Client) Stats(ctx context.Context, owner string) (domain.Stats, error) {
	var out domain.Stats
	if err := c.get(ctx, "/api/dashboard/"+owner, 0, &out); err != nil {
		return domain.Stats{}, err
	}
	return out, nil
}

// Users

// AuthResponse is returned by Register and Login.
type AuthResponse struct {
	Token string      `json:"token"`
	User  domain.User `json:"user"`
}

type registerRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	ShopName string `json:"shop_name"`
}

func (c *Client) Register(ctx context.Context, username, password, shopName string) (AuthResponse, error) {
	var out AuthResponse
	err := c.post(ctx, "/api/users", registerRequest{Username: username, Password: password, ShopName: shopName}, &out)
	if err != nil {
		return AuthResponse{}, err
	}
	return out, nil
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (c *Client) Login(ctx context.Context, username, password string) (AuthResponse, error) {
	var out AuthResponse
	err := c.post(ctx, "/api/users/login", loginRequest{Username: username, Password: password}, &out)
	if err != nil {
		return AuthResponse{}, err
	}
	return out, nil
}

func (c *Client) UserByUsername(ctx context.Context, username string) (domain.User, error) {
	var out domain.User
	if err := c.get(ctx, "/api/users/"+username, 0, &out); err != nil {
		return domain.User{}, err
	}
	return out, nil
}
