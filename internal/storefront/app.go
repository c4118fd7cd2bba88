// Package storefront holds the client-side state of the storefront: the live
// session, the current page and the cached cart, and the operations that
// change them in response to user actions.
//
// Every exported method that touches state must run on the App's event loop.
// UI code reaches it through App.Exec.
package storefront

import (
	"context"
	"log/slog"

	"storefront/internal/eventloop"
	"storefront/internal/models"
	"storefront/internal/services"
	"storefront/internal/session"
)

type App struct {
	loop     *eventloop.Loop
	gw       services.Gateway
	sessions *session.Store
	view     View

	Nav     *Navigator
	Cart    *CartSync
	Catalog *Catalog
	Account *Account
	Admin   *Admin
}

func New(loop *eventloop.Loop, gw services.Gateway, sessions *session.Store, view View) *App {
	a := &App{
		loop:     loop,
		gw:       gw,
		sessions: sessions,
		view:     view,
	}
	a.Cart = &CartSync{app: a}
	a.Catalog = &Catalog{app: a, category: "all"}
	a.Account = &Account{app: a}
	a.Admin = &Admin{app: a}
	a.Nav = newNavigator(a)
	return a
}

// Start restores the persisted session and opens the first page. The session
// is loaded before navigating so the access guard sees it.
func (a *App) Start(ctx context.Context) Page {
	u := a.sessions.Load(ctx)
	a.view.RenderAuth(u)
	a.Cart.renderBadge()

	if u == nil {
		return a.Nav.Goto(ctx, PageLogin)
	}
	slog.Info("Restored session", "user_id", u.UserID, "user_type", u.UserType)
	page := a.Nav.Goto(ctx, PageHome)
	a.Cart.Reload(ctx)
	return page
}

// Session returns the live session or nil.
func (a *App) Session() *models.User {
	return a.sessions.Current()
}

// Exec runs fn on the event loop and returns its error. Requests fn starts
// keep running and apply their results on the loop as they arrive. It must
// not be called from the loop.
func (a *App) Exec(fn func() error) error {
	var err error
	a.loop.Call(func() { err = fn() })
	return err
}

// Do is Exec followed by Settle.
func (a *App) Do(fn func() error) error {
	err := a.Exec(fn)
	a.Settle()
	return err
}

// Settle blocks until all pending requests and their results have been
// applied.
func (a *App) Settle() {
	a.loop.Wait()
}

// async runs call off the loop and applies its outcome on the loop.
func (a *App) async(call func() func()) {
	a.loop.Go(call)
}

// failAction reports a failed user action as a notice.
func (a *App) failAction(action string, err error) {
	slog.Error(action+" failed", "error", err)
	a.view.Notify(LevelError, services.UserMessage(err))
}

// failRegion reports a failed page load inline, if the page is still shown.
func (a *App) failRegion(page Page, region Region, err error) {
	slog.Error("Failed to load page data", "page", page, "region", region, "error", err)
	if a.Nav.Current() == page {
		a.view.RenderFailure(region, services.UserMessage(err))
	}
}

// sameUser reports whether u is still the live session.
func (a *App) sameUser(u *models.User) bool {
	cur := a.sessions.Current()
	return cur != nil && u != nil && cur.UserID == u.UserID
}
