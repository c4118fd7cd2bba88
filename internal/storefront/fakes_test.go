package storefront

import (
	"context"
	"sync"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"storefront/internal/eventloop"
	"storefront/internal/models"
	"storefront/internal/services"
	"storefront/internal/session"
)

func customer() *models.User {
	return &models.User{
		UserID:   1,
		UserType: models.UserTypeCustomer,
		Name:     "Ravi Kumar",
		Email:    "ravi@example.com",
		Address:  "221B Park Street",
	}
}

func admin() *models.User {
	return &models.User{UserID: 2, UserType: models.UserTypeAdmin, Name: "Admin", Email: "admin@example.com"}
}

func remoteErr(op, msg string) error {
	return &services.RemoteError{Op: op, StatusCode: 400, Status: "error", Message: msg}
}

// fakeGateway is an in-process Gateway. Its cart behaves like the server's:
// adds coalesce by item and subtotals are computed on its side.
type fakeGateway struct {
	mu    sync.Mutex
	calls map[string]int
	errs  map[string]error

	users    map[string]*models.User
	prices   map[int64]models.Amount
	cart     []models.CartLine
	menu     []models.MenuItem
	orders   []models.Order
	orderID  int64
	gates    map[string]chan struct{}

	lastOrder  models.PlaceOrderRequest
	lastUpdate models.MenuItemInput
	lastQty    int
}

var _ services.Gateway = (*fakeGateway)(nil)

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		calls:   make(map[string]int),
		errs:    make(map[string]error),
		gates:   make(map[string]chan struct{}),
		users:   map[string]*models.User{"ravi@example.com": customer(), "admin@example.com": admin()},
		prices:  map[int64]models.Amount{5: 150, 9: 180, 2: 90},
		orderID: 42,
		menu: []models.MenuItem{
			{ItemID: 5, Name: "Gobi Manchurian", Category: "Starters", Price: 150},
			{ItemID: 2, Name: "Manchow Soup", Category: "Soups", Price: 90},
		},
	}
}

func (g *fakeGateway) record(op string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls[op]++
	return g.errs[op]
}

// hold makes calls to op block until the returned channel is closed.
func (g *fakeGateway) hold(op string) chan struct{} {
	g.mu.Lock()
	defer g.mu.Unlock()
	gate := make(chan struct{})
	g.gates[op] = gate
	return gate
}

func (g *fakeGateway) wait(op string) {
	g.mu.Lock()
	gate := g.gates[op]
	g.mu.Unlock()
	if gate != nil {
		<-gate
	}
}

func (g *fakeGateway) resetCalls() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = make(map[string]int)
}

func (g *fakeGateway) count(op string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls[op]
}

func (g *fakeGateway) total() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	n := 0
	for _, c := range g.calls {
		n += c
	}
	return n
}

func (g *fakeGateway) fail(op string, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.errs[op] = err
}

func (g *fakeGateway) setCart(lines ...models.CartLine) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.cart = lines
}

func (g *fakeGateway) Login(_ context.Context, req models.LoginRequest) (*models.User, error) {
	if err := g.record("Login"); err != nil {
		return nil, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	u, ok := g.users[req.Email]
	if !ok {
		return nil, remoteErr("POST /login", "Invalid credentials")
	}
	cp := *u
	return &cp, nil
}

func (g *fakeGateway) Signup(_ context.Context, _ models.SignupRequest) error {
	return g.record("Signup")
}

func (g *fakeGateway) ListMenu(_ context.Context, category string) ([]models.MenuItem, error) {
	g.wait("ListMenu")
	if err := g.record("ListMenu"); err != nil {
		return nil, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.errs["ListMenu "+category]; err != nil {
		return nil, err
	}
	var out []models.MenuItem
	for _, m := range g.menu {
		if category == "all" || m.Category == category {
			out = append(out, m)
		}
	}
	return out, nil
}

func (g *fakeGateway) AddCartLine(_ context.Context, req models.AddCartLineRequest) error {
	if err := g.record("AddCartLine"); err != nil {
		return err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	price := g.prices[req.ItemID]
	for i := range g.cart {
		if g.cart[i].ItemID == req.ItemID {
			g.cart[i].Quantity += req.Quantity
			g.cart[i].Subtotal = price * models.Amount(g.cart[i].Quantity)
			return nil
		}
	}
	g.cart = append(g.cart, models.CartLine{
		ItemID:   req.ItemID,
		Price:    price,
		Quantity: req.Quantity,
		Subtotal: price * models.Amount(req.Quantity),
	})
	return nil
}

func (g *fakeGateway) GetCart(_ context.Context, _ int64) (*models.Cart, error) {
	g.wait("GetCart")
	if err := g.record("GetCart"); err != nil {
		return nil, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	lines := append([]models.CartLine(nil), g.cart...)
	return &models.Cart{Lines: lines, Total: models.Subtotal(lines)}, nil
}

func (g *fakeGateway) UpdateCartLine(_ context.Context, _ int64, req models.UpdateCartLineRequest) error {
	if err := g.record("UpdateCartLine"); err != nil {
		return err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.lastQty = req.Quantity
	kept := g.cart[:0]
	for _, l := range g.cart {
		if l.ItemID == req.ItemID {
			if req.Quantity <= 0 {
				continue
			}
			l.Quantity = req.Quantity
			l.Subtotal = l.Price * models.Amount(req.Quantity)
		}
		kept = append(kept, l)
	}
	g.cart = kept
	return nil
}

func (g *fakeGateway) PlaceOrder(_ context.Context, req models.PlaceOrderRequest) (int64, error) {
	g.wait("PlaceOrder")
	if err := g.record("PlaceOrder"); err != nil {
		return 0, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.lastOrder = req
	g.cart = nil
	return g.orderID, nil
}

func (g *fakeGateway) GetUser(_ context.Context, userID int64) (*models.User, error) {
	if err := g.record("GetUser"); err != nil {
		return nil, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, u := range g.users {
		if u.UserID == userID {
			cp := *u
			return &cp, nil
		}
	}
	return nil, remoteErr("GET /user/{userId}", "User not found")
}

func (g *fakeGateway) GetOrders(_ context.Context, _ int64) ([]models.Order, error) {
	if err := g.record("GetOrders"); err != nil {
		return nil, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]models.Order(nil), g.orders...), nil
}

func (g *fakeGateway) AdminListMenu(_ context.Context) ([]models.MenuItem, error) {
	if err := g.record("AdminListMenu"); err != nil {
		return nil, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]models.MenuItem(nil), g.menu...), nil
}

func (g *fakeGateway) AdminGetMenuItem(_ context.Context, itemID int64) (*models.MenuItem, error) {
	if err := g.record("AdminGetMenuItem"); err != nil {
		return nil, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, m := range g.menu {
		if m.ItemID == itemID {
			cp := m
			return &cp, nil
		}
	}
	return nil, remoteErr("GET /admin/menu/{itemId}", "Menu item not found")
}

func (g *fakeGateway) AdminAddMenuItem(_ context.Context, in models.MenuItemInput) (int64, error) {
	if err := g.record("AdminAddMenuItem"); err != nil {
		return 0, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	id := int64(100 + len(g.menu))
	g.menu = append(g.menu, models.MenuItem{ItemID: id, Name: in.Name, Category: in.Category, Price: in.Price, Description: in.Description})
	return id, nil
}

func (g *fakeGateway) AdminUpdateMenuItem(_ context.Context, _ int64, in models.MenuItemInput) error {
	if err := g.record("AdminUpdateMenuItem"); err != nil {
		return err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.lastUpdate = in
	return nil
}

func (g *fakeGateway) AdminDeleteMenuItem(_ context.Context, itemID int64) error {
	if err := g.record("AdminDeleteMenuItem"); err != nil {
		return err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	kept := g.menu[:0]
	for _, m := range g.menu {
		if m.ItemID != itemID {
			kept = append(kept, m)
		}
	}
	g.menu = kept
	return nil
}

type notice struct {
	level   Level
	message string
}

// recordingView keeps what was rendered. It is only written from the loop;
// tests read it after App.Do or Loop.Wait returned.
type recordingView struct {
	pages    []Page
	notices  []notice
	loading  []Region
	failures map[Region]string

	auth        *models.User
	authRenders int

	badge        int
	badgeVisible bool

	menuCategory string
	menu         []models.MenuItem
	menuRenders  int

	cart        *CartView
	cartRenders int
	checkout    *CheckoutView

	confirmation        *Confirmation
	badgeAtConfirmation int

	profile      *models.User
	orders       []models.Order
	adminMenu    []models.MenuItem
	adminRenders int
	item         *models.MenuItem
}

func newRecordingView() *recordingView {
	return &recordingView{failures: make(map[Region]string)}
}

func (v *recordingView) ShowPage(p Page) { v.pages = append(v.pages, p) }

func (v *recordingView) Notify(level Level, message string) {
	v.notices = append(v.notices, notice{level: level, message: message})
}

func (v *recordingView) RenderAuth(u *models.User) {
	v.auth = u
	v.authRenders++
}

func (v *recordingView) RenderBadge(count int, visible bool) {
	v.badge = count
	v.badgeVisible = visible
}

func (v *recordingView) RenderLoading(r Region) {
	v.loading = append(v.loading, r)
	delete(v.failures, r)
}

func (v *recordingView) RenderFailure(r Region, message string) { v.failures[r] = message }

func (v *recordingView) RenderMenu(category string, items []models.MenuItem) {
	v.menuCategory = category
	v.menu = items
	v.menuRenders++
}

func (v *recordingView) RenderCart(c CartView) {
	v.cart = &c
	v.cartRenders++
}

func (v *recordingView) RenderCheckout(c CheckoutView) { v.checkout = &c }

func (v *recordingView) RenderConfirmation(c Confirmation) {
	v.confirmation = &c
	v.badgeAtConfirmation = v.badge
}

func (v *recordingView) RenderProfile(u *models.User) { v.profile = u }
func (v *recordingView) RenderOrders(orders []models.Order) { v.orders = orders }

func (v *recordingView) RenderAdminMenu(items []models.MenuItem) {
	v.adminMenu = items
	v.adminRenders++
}

func (v *recordingView) RenderMenuItem(item *models.MenuItem) { v.item = item }

func (v *recordingView) lastNotice() notice {
	if len(v.notices) == 0 {
		return notice{}
	}
	return v.notices[len(v.notices)-1]
}

func (v *recordingView) noticed(message string) bool {
	for _, n := range v.notices {
		if n.message == message {
			return true
		}
	}
	return false
}

type harness struct {
	app  *App
	gw   *fakeGateway
	view *recordingView
	fs   afero.Fs
	ctx  context.Context
}

const sessionDir = "/state"

// newHarness starts an App on a running loop. A non-nil user is persisted
// first, so Start restores it. Calls made by Start are not counted.
func newHarness(t *testing.T, user *models.User) *harness {
	t.Helper()
	fs := afero.NewMemMapFs()
	if user != nil {
		persistSession(t, fs, user)
	}
	h := startHarness(t, fs, newFakeGateway())
	h.gw.resetCalls()
	return h
}

func persistSession(t *testing.T, fs afero.Fs, user *models.User) {
	t.Helper()
	store := session.NewStore(session.NewFileStorage(fs, sessionDir), nil)
	require.NoError(t, store.Set(context.Background(), user))
}

func startHarness(t *testing.T, fs afero.Fs, gw services.Gateway) *harness {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	loop := eventloop.New()
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = loop.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	h := &harness{
		view: newRecordingView(),
		fs:   fs,
		ctx:  ctx,
	}
	if fg, ok := gw.(*fakeGateway); ok {
		h.gw = fg
	}
	store := session.NewStore(session.NewFileStorage(fs, sessionDir), nil)
	h.app = New(loop, gw, store, h.view)
	h.run(t, func() error {
		h.app.Start(ctx)
		return nil
	})
	return h
}

// run executes fn on the loop and waits for everything it started.
func (h *harness) run(t *testing.T, fn func() error) error {
	t.Helper()
	return h.app.Do(fn)
}

func (h *harness) goTo(t *testing.T, p Page) Page {
	t.Helper()
	var got Page
	_ = h.run(t, func() error {
		got = h.app.Nav.Goto(h.ctx, p)
		return nil
	})
	return got
}
