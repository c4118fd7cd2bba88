package storefront

import (
	"context"
	"log/slog"

	"storefront/internal/models"
)

// CartSync keeps a local snapshot of the server cart. The snapshot is only
// ever replaced by a fresh server read, never patched after a mutation.
type CartSync struct {
	app   *App
	lines []models.CartLine
}

// Snapshot returns a copy of the cached cart lines.
func (c *CartSync) Snapshot() []models.CartLine {
	return append([]models.CartLine(nil), c.lines...)
}

func (c *CartSync) BadgeCount() int {
	return models.ItemCount(c.lines)
}

// Reset drops the snapshot, as on logout.
func (c *CartSync) Reset() {
	c.lines = nil
	c.renderBadge()
}

func (c *CartSync) requireSession(ctx context.Context, notice string) (*models.User, error) {
	u := c.app.sessions.Current()
	if u == nil {
		c.app.view.Notify(LevelWarning, notice)
		c.app.Nav.Goto(ctx, PageLogin)
		return nil, ErrUnauthenticated
	}
	return u, nil
}

// AddLine asks the server to add quantity of itemID, then reloads the cart.
func (c *CartSync) AddLine(ctx context.Context, itemID int64, quantity int) error {
	u, err := c.requireSession(ctx, "Please login to add items to cart")
	if err != nil {
		return err
	}
	if quantity < 1 {
		c.app.view.Notify(LevelWarning, "Quantity must be at least 1")
		return ErrInvalidInput
	}

	req := models.AddCartLineRequest{UserID: u.UserID, ItemID: itemID, Quantity: quantity}
	c.app.async(func() func() {
		err := c.app.gw.AddCartLine(ctx, req)
		return func() {
			if err != nil {
				c.app.failAction("Add to cart", err)
				return
			}
			c.app.view.Notify(LevelSuccess, "Item added to cart!")
			c.Reload(ctx)
		}
	})
	return nil
}

// SetLineQuantity sets the quantity of an existing line. Zero or less removes
// the line; the server decides.
func (c *CartSync) SetLineQuantity(ctx context.Context, itemID int64, quantity int) error {
	u, err := c.requireSession(ctx, "Please login to update your cart")
	if err != nil {
		return err
	}

	req := models.UpdateCartLineRequest{ItemID: itemID, Quantity: quantity}
	c.app.async(func() func() {
		err := c.app.gw.UpdateCartLine(ctx, u.UserID, req)
		return func() {
			if err != nil {
				c.app.failAction("Update cart", err)
				return
			}
			c.Reload(ctx)
		}
	})
	return nil
}

// Reload replaces the snapshot with the server's cart. It is a no-op without
// a session. On failure the previous snapshot is kept.
func (c *CartSync) Reload(ctx context.Context) {
	u := c.app.sessions.Current()
	if u == nil {
		return
	}
	if c.app.Nav.Current() == PageCart {
		c.app.view.RenderLoading(RegionCart)
	}

	c.app.async(func() func() {
		cart, err := c.app.gw.GetCart(ctx, u.UserID)
		return func() {
			if !c.app.sameUser(u) {
				slog.Debug("Dropping cart for a session that has ended", "user_id", u.UserID)
				return
			}
			if err != nil {
				c.failReload(err)
				return
			}
			c.lines = cart.Lines
			c.renderBadge()
			switch c.app.Nav.Current() {
			case PageCart:
				c.renderCart()
			case PageCheckout:
				c.renderCheckout()
			}
		}
	})
}

// PlaceOrder submits the cached cart as an order paid with method.
func (c *CartSync) PlaceOrder(ctx context.Context, method models.PaymentMethod) error {
	u, err := c.requireSession(ctx, "Please login to place an order")
	if err != nil {
		return err
	}
	if len(c.lines) == 0 {
		c.app.view.Notify(LevelWarning, "Your cart is empty. Please add items before placing an order.")
		c.app.Nav.Goto(ctx, PageMenu)
		return ErrEmptyCart
	}

	lines := c.Snapshot()
	req := models.PlaceOrderRequest{
		UserID:          u.UserID,
		DeliveryAddress: u.Address,
		PaymentMethod:   method,
	}
	c.app.async(func() func() {
		orderID, err := c.app.gw.PlaceOrder(ctx, req)
		return func() {
			if err != nil {
				c.app.failAction("Place order", err)
				return
			}
			slog.Info("Order placed", "order_id", orderID, "user_id", u.UserID, "payment_method", method)
			if !c.app.sameUser(u) {
				return
			}
			c.lines = nil
			c.renderBadge()
			c.app.view.RenderConfirmation(Confirmation{
				OrderNumber:   models.OrderNumber(orderID),
				PaymentMethod: method,
				Lines:         lines,
				Total:         models.TotalWithDelivery(lines),
			})
			c.app.Nav.Goto(ctx, PageOrderConfirmation)
		}
	})
	return nil
}

// failReload reports a failed reload on whichever cart page is shown.
func (c *CartSync) failReload(err error) {
	if c.app.Nav.Current() == PageCheckout {
		c.app.failRegion(PageCheckout, RegionCheckout, err)
		return
	}
	c.app.failRegion(PageCart, RegionCart, err)
}

func (c *CartSync) renderBadge() {
	n := c.BadgeCount()
	c.app.view.RenderBadge(n, n > 0)
}

func (c *CartSync) renderCart() {
	c.app.view.RenderCart(CartView{
		Lines:    c.Snapshot(),
		Subtotal: models.Subtotal(c.lines),
		Total:    models.TotalWithDelivery(c.lines),
	})
}

func (c *CartSync) renderCheckout() {
	u := c.app.sessions.Current()
	if u == nil {
		return
	}
	c.app.view.RenderCheckout(CheckoutView{
		Address:  u.Address,
		Lines:    c.Snapshot(),
		Subtotal: models.Subtotal(c.lines),
		Total:    models.TotalWithDelivery(c.lines),
	})
}
