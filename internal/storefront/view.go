package storefront

import "storefront/internal/models"

type Level int

const (
	LevelInfo Level = iota
	LevelSuccess
	LevelWarning
	LevelError
)

// Region is a page area that can show loading or failure states.
type Region string

const (
	RegionMenu     Region = "menu"
	RegionCart     Region = "cart"
	RegionCheckout Region = "checkout"
	RegionProfile  Region = "profile"
	RegionOrders   Region = "orders"
	RegionAdmin    Region = "admin"
)

type CartView struct {
	Lines    []models.CartLine
	Subtotal models.Amount
	Total    models.Amount
}

type CheckoutView struct {
	Address  string
	Lines    []models.CartLine
	Subtotal models.Amount
	Total    models.Amount
}

type Confirmation struct {
	OrderNumber   string
	PaymentMethod models.PaymentMethod
	Lines         []models.CartLine
	Total         models.Amount
}

// View is the rendering surface. Implementations receive view-model data and
// are only called from the event loop.
type View interface {
	ShowPage(page Page)
	Notify(level Level, message string)
	RenderAuth(user *models.User)
	RenderBadge(count int, visible bool)
	RenderLoading(region Region)
	RenderFailure(region Region, message string)
	RenderMenu(category string, items []models.MenuItem)
	RenderCart(cart CartView)
	RenderCheckout(checkout CheckoutView)
	RenderConfirmation(c Confirmation)
	RenderProfile(user *models.User)
	RenderOrders(orders []models.Order)
	RenderAdminMenu(items []models.MenuItem)
	RenderMenuItem(item *models.MenuItem)
}
