package storefront

import (
	"context"
	"log/slog"

	"storefront/internal/telemetry"
)

// Navigator is the only owner of the current page.
type Navigator struct {
	app     *App
	current Page
	entry   map[Page]func(ctx context.Context)
}

func newNavigator(a *App) *Navigator {
	n := &Navigator{app: a}
	n.entry = map[Page]func(ctx context.Context){
		PageMenu:     func(ctx context.Context) { a.Catalog.load(ctx) },
		PageCart:     a.Cart.Reload,
		PageCheckout: func(context.Context) { a.Cart.renderCheckout() },
		PageAdmin:    a.Admin.Load,
		PageProfile: func(ctx context.Context) {
			a.Account.LoadProfile(ctx)
			a.Account.LoadOrders(ctx)
		},
	}
	return n
}

func (n *Navigator) Current() Page {
	return n.current
}

// Goto moves to requested, or to the page the access rules redirect it to,
// and returns the page actually shown. The page's entry action is started
// after the page is committed and never delays the commit.
func (n *Navigator) Goto(ctx context.Context, requested Page) Page {
	target := requested
	user := n.app.sessions.Current()

	switch {
	case target.Protected() && user == nil:
		n.app.view.Notify(LevelWarning, "Please login to access this page")
		target = PageLogin
	case target == PageAdmin && !user.IsAdmin():
		n.app.view.Notify(LevelWarning, "You do not have permission to access the admin page")
		target = PageHome
	}

	n.current = target
	n.app.view.ShowPage(target)
	telemetry.RecordNavigation(string(requested), string(target))
	slog.Debug("Page changed", "requested", requested, "page", target)

	if enter, ok := n.entry[target]; ok {
		enter(ctx)
	}
	return target
}
