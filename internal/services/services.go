package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"

	"storefront/internal/config"
	"storefront/internal/models"
	"storefront/internal/resilience"
	"storefront/internal/telemetry"
)

const maxResponseBytes = 4 << 20

// Gateway is the set of storefront API operations the client relies on.
type Gateway interface {
	Login(ctx context.Context, req models.LoginRequest) (*models.User, error)
	Signup(ctx context.Context, req models.SignupRequest) error
	ListMenu(ctx context.Context, category string) ([]models.MenuItem, error)
	AddCartLine(ctx context.Context, req models.AddCartLineRequest) error
	GetCart(ctx context.Context, userID int64) (*models.Cart, error)
	UpdateCartLine(ctx context.Context, userID int64, req models.UpdateCartLineRequest) error
	PlaceOrder(ctx context.Context, req models.PlaceOrderRequest) (int64, error)
	GetUser(ctx context.Context, userID int64) (*models.User, error)
	GetOrders(ctx context.Context, userID int64) ([]models.Order, error)
	AdminListMenu(ctx context.Context) ([]models.MenuItem, error)
	AdminGetMenuItem(ctx context.Context, itemID int64) (*models.MenuItem, error)
	AdminAddMenuItem(ctx context.Context, item models.MenuItemInput) (int64, error)
	AdminUpdateMenuItem(ctx context.Context, itemID int64, item models.MenuItemInput) error
	AdminDeleteMenuItem(ctx context.Context, itemID int64) error
}

type ServiceClient struct {
	baseURL       string
	client        *http.Client
	breaker       *resilience.CircuitBreaker
	retryAttempts int
	retryDelay    time.Duration
}

var _ Gateway = (*ServiceClient)(nil)

func NewServiceClient(cfg *config.Config) *ServiceClient {
	return &ServiceClient{
		baseURL: strings.TrimRight(cfg.APIBaseURL, "/"),
		client: &http.Client{
			Timeout:   cfg.HTTPTimeout,
			Transport: telemetry.Transport(http.DefaultTransport),
		},
		breaker:       resilience.NewCircuitBreaker(cfg.BreakerThreshold, cfg.BreakerTimeout),
		retryAttempts: cfg.RetryAttempts,
		retryDelay:    cfg.RetryDelay,
	}
}

type rawResponse struct {
	statusCode int
	body       []byte
}

// call performs one API operation. route is the path template used for
// metrics and errors; path is the concrete path. A non-nil target receives
// the decoded body once the envelope reports success.
func (s *ServiceClient) call(ctx context.Context, method, route, path string, body, target any) error {
	op := method + " " + route

	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return &RemoteError{Op: op, Message: "could not encode request", Err: err}
		}
	}

	attempts := 1
	if method == http.MethodGet {
		attempts = s.retryAttempts
	}

	var resp *rawResponse
	err := resilience.Retry(ctx, attempts, s.retryDelay, func() error {
		result, err := s.breaker.Execute(func() (any, error) {
			return s.roundTrip(ctx, method, route, path, payload)
		})
		if err != nil {
			var remote *RemoteError
			if errors.Is(err, resilience.ErrCircuitOpen) || errors.As(err, &remote) {
				return resilience.Permanent(err)
			}
			return err
		}
		resp = result.(*rawResponse)
		return nil
	})
	if err != nil {
		var remote *RemoteError
		if errors.As(err, &remote) {
			return remote
		}
		if errors.Is(err, resilience.ErrCircuitOpen) {
			return &RemoteError{Op: op, Message: "The service is temporarily unavailable. Please try again later.", Err: err}
		}
		return &RemoteError{Op: op, Message: "Could not reach the server. Please try again.", Err: err}
	}

	return decodeEnvelope(op, resp, target)
}

// roundTrip sends one request. Transport errors and 5xx replies are returned
// as errors so the circuit breaker counts them.
func (s *ServiceClient) roundTrip(ctx context.Context, method, route, path string, payload []byte) (*rawResponse, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(telemetry.WithRoute(ctx, route), method, s.baseURL+path, reader)
	if err != nil {
		return nil, resilience.Permanent(err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	raw := &rawResponse{statusCode: resp.StatusCode, body: data}
	if resp.StatusCode >= 500 {
		if err := envelopeError(method+" "+route, raw); err != nil {
			return nil, err
		}
		return nil, &RemoteError{Op: method + " " + route, StatusCode: resp.StatusCode, Message: fmt.Sprintf("server error: %d", resp.StatusCode)}
	}
	return raw, nil
}

func decodeEnvelope(op string, resp *rawResponse, target any) error {
	if err := envelopeError(op, resp); err != nil {
		return err
	}
	if target == nil {
		return nil
	}
	if err := json.Unmarshal(resp.body, target); err != nil {
		return &RemoteError{Op: op, StatusCode: resp.statusCode, Message: "The server sent an unexpected response.", Err: err}
	}
	return nil
}

// envelopeError inspects the {status, message} envelope every reply carries.
func envelopeError(op string, resp *rawResponse) error {
	if !gjson.ValidBytes(resp.body) {
		msg := "The server sent an unexpected response."
		if resp.statusCode < 200 || resp.statusCode >= 300 {
			msg = fmt.Sprintf("bad status code: %d", resp.statusCode)
		}
		return &RemoteError{Op: op, StatusCode: resp.statusCode, Message: msg}
	}

	status := gjson.GetBytes(resp.body, "status").String()
	if status == statusSuccess {
		return nil
	}

	msg := gjson.GetBytes(resp.body, "message").String()
	if msg == "" {
		msg = "The request failed. Please try again."
	}
	return &RemoteError{Op: op, StatusCode: resp.statusCode, Status: status, Message: msg}
}

func (s *ServiceClient) Login(ctx context.Context, req models.LoginRequest) (*models.User, error) {
	var reply struct {
		User json.RawMessage `json:"user"`
	}
	if err := s.call(ctx, http.MethodPost, "/login", "/login", req, &reply); err != nil {
		return nil, err
	}
	user, err := models.ParseUser(reply.User)
	if err != nil {
		return nil, &RemoteError{Op: "POST /login", Message: "The server returned an incomplete user record.", Err: err}
	}
	return user, nil
}

func (s *ServiceClient) Signup(ctx context.Context, req models.SignupRequest) error {
	return s.call(ctx, http.MethodPost, "/signup", "/signup", req, nil)
}

func (s *ServiceClient) ListMenu(ctx context.Context, category string) ([]models.MenuItem, error) {
	if category == "" {
		category = "all"
	}
	var reply struct {
		Items []models.MenuItem `json:"items"`
	}
	path := "/menu?category=" + url.QueryEscape(category)
	if err := s.call(ctx, http.MethodGet, "/menu", path, nil, &reply); err != nil {
		return nil, err
	}
	return reply.Items, nil
}

func (s *ServiceClient) AddCartLine(ctx context.Context, req models.AddCartLineRequest) error {
	return s.call(ctx, http.MethodPost, "/cart", "/cart", req, nil)
}

func (s *ServiceClient) GetCart(ctx context.Context, userID int64) (*models.Cart, error) {
	var cart models.Cart
	path := fmt.Sprintf("/cart/%d", userID)
	if err := s.call(ctx, http.MethodGet, "/cart/{userId}", path, nil, &cart); err != nil {
		return nil, err
	}
	return &cart, nil
}

func (s *ServiceClient) UpdateCartLine(ctx context.Context, userID int64, req models.UpdateCartLineRequest) error {
	path := fmt.Sprintf("/cart/%d/update", userID)
	return s.call(ctx, http.MethodPost, "/cart/{userId}/update", path, req, nil)
}

func (s *ServiceClient) PlaceOrder(ctx context.Context, req models.PlaceOrderRequest) (int64, error) {
	var reply struct {
		OrderID int64 `json:"order_id"`
	}
	if err := s.call(ctx, http.MethodPost, "/orders", "/orders", req, &reply); err != nil {
		return 0, err
	}
	return reply.OrderID, nil
}

func (s *ServiceClient) GetUser(ctx context.Context, userID int64) (*models.User, error) {
	var reply struct {
		User json.RawMessage `json:"user"`
	}
	path := fmt.Sprintf("/user/%d", userID)
	if err := s.call(ctx, http.MethodGet, "/user/{userId}", path, nil, &reply); err != nil {
		return nil, err
	}
	user, err := models.ParseUser(reply.User)
	if err != nil {
		return nil, &RemoteError{Op: "GET /user/{userId}", Message: "The server returned an incomplete user record.", Err: err}
	}
	return user, nil
}

func (s *ServiceClient) GetOrders(ctx context.Context, userID int64) ([]models.Order, error) {
	var reply struct {
		Orders []models.Order `json:"orders"`
	}
	path := fmt.Sprintf("/orders/%d", userID)
	if err := s.call(ctx, http.MethodGet, "/orders/{userId}", path, nil, &reply); err != nil {
		return nil, err
	}
	return reply.Orders, nil
}

func (s *ServiceClient) AdminListMenu(ctx context.Context) ([]models.MenuItem, error) {
	var reply struct {
		Items []models.MenuItem `json:"items"`
	}
	if err := s.call(ctx, http.MethodGet, "/menu", "/menu", nil, &reply); err != nil {
		return nil, err
	}
	return reply.Items, nil
}

func (s *ServiceClient) AdminGetMenuItem(ctx context.Context, itemID int64) (*models.MenuItem, error) {
	var reply struct {
		Item models.MenuItem `json:"item"`
	}
	path := fmt.Sprintf("/admin/menu/%d", itemID)
	if err := s.call(ctx, http.MethodGet, "/admin/menu/{itemId}", path, nil, &reply); err != nil {
		return nil, err
	}
	return &reply.Item, nil
}

func (s *ServiceClient) AdminAddMenuItem(ctx context.Context, item models.MenuItemInput) (int64, error) {
	var reply struct {
		ItemID int64 `json:"item_id"`
	}
	if err := s.call(ctx, http.MethodPost, "/admin/menu", "/admin/menu", item, &reply); err != nil {
		return 0, err
	}
	return reply.ItemID, nil
}

func (s *ServiceClient) AdminUpdateMenuItem(ctx context.Context, itemID int64, item models.MenuItemInput) error {
	path := fmt.Sprintf("/admin/menu/%d", itemID)
	return s.call(ctx, http.MethodPut, "/admin/menu/{itemId}", path, item, nil)
}

func (s *ServiceClient) AdminDeleteMenuItem(ctx context.Context, itemID int64) error {
	path := fmt.Sprintf("/admin/menu/%d", itemID)
	return s.call(ctx, http.MethodDelete, "/admin/menu/{itemId}", path, nil, nil)
}
