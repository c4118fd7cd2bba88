// Package fakeapi is an in-memory stand-in for the storefront REST API. It
// speaks the same routes and envelopes as the real backend and is meant for
// tests and local demos.
package fakeapi

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

type user struct {
	ID       int64
	Name     string
	Email    string
	Phone    string
	Password string
	Address  string
	Type     string
}

type menuItem struct {
	ID          int64
	Name        string
	Description string
	Category    string
	Price       float64
	Image       string
}

type orderItem struct {
	ItemID   int64
	Quantity int
	Subtotal float64
}

type order struct {
	ID      int64
	UserID  int64
	Date    time.Time
	Total   float64
	Payment string
	Status  string
	Items   []orderItem
}

type failure struct {
	status  int
	message string
}

// Server holds the fake backend state. The zero value is not usable; use New.
type Server struct {
	mu       sync.Mutex
	users    map[int64]*user
	menu     map[int64]*menuItem
	carts    map[int64]map[int64]int
	orders   []*order
	nextID   int64
	calls    map[string]int
	failures map[string]failure
	mux      *http.ServeMux
}

func New() *Server {
	s := &Server{
		users:    make(map[int64]*user),
		menu:     make(map[int64]*menuItem),
		carts:    make(map[int64]map[int64]int),
		calls:    make(map[string]int),
		failures: make(map[string]failure),
		nextID:   100,
		mux:      http.NewServeMux(),
	}
	s.routes()
	return s
}

// Seeded returns a server with one customer, one admin and a small menu.
func Seeded() *Server {
	s := New()
	s.AddUser(1, "Ravi Kumar", "ravi@example.com", "secret", "customer", "221B Park Street")
	s.AddUser(2, "Admin", "admin@example.com", "admin", "admin", "HQ")
	s.AddMenuItem(5, "Gobi Manchurian", "Starters & Indo-Chinese Specials", 150)
	s.AddMenuItem(9, "Paneer 65", "Starters & Indo-Chinese Specials", 180)
	s.AddMenuItem(2, "Manchow Soup", "Soups", 90)
	return s
}

func (s *Server) AddUser(id int64, name, email, password, userType, address string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[id] = &user{ID: id, Name: name, Email: email, Password: password, Type: userType, Address: address, Phone: "9000000000"}
}

func (s *Server) AddMenuItem(id int64, name, category string, price float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.menu[id] = &menuItem{ID: id, Name: name, Category: category, Price: price, Description: name, Image: strings.ToLower(strings.ReplaceAll(name, " ", "_")) + ".jpg"}
}

// Fail makes the next request matching pattern (e.g. "GET /cart/{userId}")
// answer with an error envelope.
func (s *Server) Fail(pattern string, status int, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[pattern] = failure{status: status, message: message}
}

// Calls reports how many requests matched pattern.
func (s *Server) Calls(pattern string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[pattern]
}

// CartQuantity reports the stored quantity of itemID in the user's cart.
func (s *Server) CartQuantity(userID, itemID int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.carts[userID][itemID]
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) handle(pattern string, fn func(w http.ResponseWriter, r *http.Request)) {
	s.mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.calls[pattern]++
		f, failing := s.failures[pattern]
		delete(s.failures, pattern)
		s.mu.Unlock()

		if failing {
			writeError(w, f.status, f.message)
			return
		}
		fn(w, r)
	})
}

func (s *Server) routes() {
	s.handle("POST /login", s.login)
	s.handle("POST /signup", s.signup)
	s.handle("GET /menu", s.listMenu)
	s.handle("POST /cart", s.addToCart)
	s.handle("GET /cart/{userId}", s.getCart)
	s.handle("POST /cart/{userId}/update", s.updateCart)
	s.handle("POST /orders", s.placeOrder)
	s.handle("GET /orders/{userId}", s.getOrders)
	s.handle("GET /user/{userId}", s.getUser)
	s.handle("POST /admin/menu", s.addMenuItem)
	s.handle("GET /admin/menu/{itemId}", s.getMenuItem)
	s.handle("PUT /admin/menu/{itemId}", s.updateMenuItem)
	s.handle("DELETE /admin/menu/{itemId}", s.deleteMenuItem)
}

func writeJSON(w http.ResponseWriter, status int, body map[string]any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("Failed to encode fake API response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"status": "error", "message": message})
}

func decimal(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	return id, err == nil
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		UserType string `json:"userType"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Email and password are required")
		return
	}
	if req.UserType == "" {
		req.UserType = "customer"
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == req.Email && u.Password == req.Password && u.Type == req.UserType {
			writeJSON(w, http.StatusOK, map[string]any{"status": "success", "user": userJSON(u)})
			return
		}
	}
	writeError(w, http.StatusUnauthorized, "Invalid credentials")
}

func userJSON(u *user) map[string]any {
	return map[string]any{
		"user_id":      u.ID,
		"name":         u.Name,
		"email":        u.Email,
		"phone_number": u.Phone,
		"address":      u.Address,
		"user_type":    u.Type,
	}
}

func (s *Server) signup(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Phone    string `json:"phone"`
		Password string `json:"password"`
		Address  string `json:"address"`
		UserType string `json:"userType"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil ||
		req.Name == "" || req.Email == "" || req.Phone == "" || req.Password == "" || req.Address == "" {
		writeError(w, http.StatusBadRequest, "All fields are required")
		return
	}
	if req.UserType == "" {
		req.UserType = "customer"
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == req.Email {
			writeError(w, http.StatusConflict, "Email already registered")
			return
		}
	}
	s.nextID++
	s.users[s.nextID] = &user{ID: s.nextID, Name: req.Name, Email: req.Email, Phone: req.Phone, Password: req.Password, Address: req.Address, Type: req.UserType}
	writeJSON(w, http.StatusOK, map[string]any{"status": "success", "message": "Registration successful", "user_id": s.nextID})
}

func (s *Server) sortedMenu(category string) []map[string]any {
	ids := make([]int64, 0, len(s.menu))
	for id, item := range s.menu {
		if category == "" || category == "all" || strings.Contains(item.Category, category) {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	items := make([]map[string]any, 0, len(ids))
	for _, id := range ids {
		items = append(items, menuJSON(s.menu[id]))
	}
	return items
}

func menuJSON(m *menuItem) map[string]any {
	return map[string]any{
		"item_id":      m.ID,
		"item_name":    m.Name,
		"description":  m.Description,
		"category":     m.Category,
		"price":        decimal(m.Price),
		"image":        m.Image,
		"availability": true,
	}
}

func (s *Server) listMenu(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"status": "success", "items": s.sortedMenu(r.URL.Query().Get("category"))})
}

func (s *Server) addToCart(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID   int64 `json:"user_id"`
		ItemID   int64 `json:"item_id"`
		Quantity *int  `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == 0 || req.ItemID == 0 {
		writeError(w, http.StatusBadRequest, "User ID and Item ID are required")
		return
	}
	qty := 1
	if req.Quantity != nil {
		qty = *req.Quantity
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.carts[req.UserID] == nil {
		s.carts[req.UserID] = make(map[int64]int)
	}
	s.carts[req.UserID][req.ItemID] += qty
	writeJSON(w, http.StatusOK, map[string]any{"status": "success", "message": "Item added to cart"})
}

func (s *Server) getCart(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(r, "userId")
	if !ok {
		writeError(w, http.StatusNotFound, "Not found")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]int64, 0, len(s.carts[userID]))
	for id := range s.carts[userID] {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	items := make([]map[string]any, 0, len(ids))
	var total float64
	for _, id := range ids {
		m, ok := s.menu[id]
		if !ok {
			continue
		}
		qty := s.carts[userID][id]
		subtotal := m.Price * float64(qty)
		total += subtotal
		items = append(items, map[string]any{
			"item_id":  id,
			"name":     m.Name,
			"category": m.Category,
			"price":    decimal(m.Price),
			"quantity": qty,
			"subtotal": decimal(subtotal),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "success", "items": items, "total": decimal(total)})
}

func (s *Server) updateCart(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(r, "userId")
	var req struct {
		ItemID   int64 `json:"item_id"`
		Quantity *int  `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || !ok || req.ItemID == 0 || req.Quantity == nil {
		writeError(w, http.StatusBadRequest, "Item ID and quantity are required")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if *req.Quantity > 0 {
		if s.carts[userID] == nil {
			s.carts[userID] = make(map[int64]int)
		}
		s.carts[userID][req.ItemID] = *req.Quantity
	} else {
		delete(s.carts[userID], req.ItemID)
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "success", "message": "Cart updated"})
}

func (s *Server) placeOrder(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID          int64  `json:"user_id"`
		DeliveryAddress string `json:"deliveryAddress"`
		PaymentMethod   string `json:"paymentMethod"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == 0 || req.DeliveryAddress == "" || req.PaymentMethod == "" {
		writeError(w, http.StatusBadRequest, "All fields are required")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	cart := s.carts[req.UserID]
	if len(cart) == 0 {
		writeError(w, http.StatusBadRequest, "Cart is empty")
		return
	}

	s.nextID++
	o := &order{ID: s.nextID, UserID: req.UserID, Date: time.Now().UTC(), Payment: req.PaymentMethod, Status: "pending"}
	for id, qty := range cart {
		if m, ok := s.menu[id]; ok {
			sub := m.Price * float64(qty)
			o.Items = append(o.Items, orderItem{ItemID: id, Quantity: qty, Subtotal: sub})
			o.Total += sub
		}
	}
	sort.Slice(o.Items, func(i, j int) bool { return o.Items[i].ItemID < o.Items[j].ItemID })
	s.orders = append(s.orders, o)
	delete(s.carts, req.UserID)

	writeJSON(w, http.StatusOK, map[string]any{"status": "success", "message": "Order placed successfully", "order_id": o.ID})
}

func (s *Server) getOrders(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(r, "userId")
	if !ok {
		writeError(w, http.StatusNotFound, "Not found")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	orders := make([]map[string]any, 0)
	for i := len(s.orders) - 1; i >= 0; i-- {
		o := s.orders[i]
		if o.UserID != userID {
			continue
		}
		items := make([]map[string]any, 0, len(o.Items))
		for _, it := range o.Items {
			name := ""
			if m, ok := s.menu[it.ItemID]; ok {
				name = m.Name
			}
			items = append(items, map[string]any{"item_id": it.ItemID, "item_name": name, "quantity": it.Quantity, "subtotal": decimal(it.Subtotal)})
		}
		orders = append(orders, map[string]any{
			"order_id":     o.ID,
			"order_date":   o.Date.Format(http.TimeFormat),
			"total_price":  decimal(o.Total),
			"payment_mode": o.Payment,
			"status":       o.Status,
			"items":        items,
			"payment":      map[string]any{"payment_method": o.Payment, "transaction_status": "pending"},
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "success", "orders": orders})
}

func (s *Server) getUser(w http.ResponseWriter, r *http.Request) {
	userID, _ := pathID(r, "userId")

	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "success", "user": userJSON(u)})
}

type menuInput struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Price       json.RawMessage `json:"price"`
	Image       string          `json:"image"`
}

func (in menuInput) price() (float64, error) {
	raw := strings.Trim(string(in.Price), `"`)
	return strconv.ParseFloat(raw, 64)
}

func (s *Server) addMenuItem(w http.ResponseWriter, r *http.Request) {
	var in menuInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.Name == "" || in.Description == "" || in.Category == "" {
		writeError(w, http.StatusBadRequest, "All fields are required")
		return
	}
	price, err := in.price()
	if err != nil || price == 0 {
		writeError(w, http.StatusBadRequest, "All fields are required")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	s.menu[s.nextID] = &menuItem{ID: s.nextID, Name: in.Name, Description: in.Description, Category: in.Category, Price: price, Image: in.Image}
	writeJSON(w, http.StatusOK, map[string]any{"status": "success", "message": "Menu item added successfully", "item_id": s.nextID})
}

func (s *Server) getMenuItem(w http.ResponseWriter, r *http.Request) {
	itemID, _ := pathID(r, "itemId")

	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.menu[itemID]
	if !ok {
		writeError(w, http.StatusNotFound, "Item not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "success", "item": menuJSON(m)})
}

func (s *Server) updateMenuItem(w http.ResponseWriter, r *http.Request) {
	itemID, _ := pathID(r, "itemId")
	var in menuInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	price, err := in.price()
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid price: %v", err))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if m, ok := s.menu[itemID]; ok {
		m.Name, m.Description, m.Category, m.Price, m.Image = in.Name, in.Description, in.Category, price, in.Image
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "success", "message": "Menu item updated successfully"})
}

func (s *Server) deleteMenuItem(w http.ResponseWriter, r *http.Request) {
	itemID, _ := pathID(r, "itemId")

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.menu, itemID)
	writeJSON(w, http.StatusOK, map[string]any{"status": "success", "message": "Menu item deleted successfully"})
}
