package storefront

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"storefront/internal/models"
)

type Account struct {
	app *App
}

// Login authenticates against the API and, on success, persists the session
// and opens the home page.
func (a *Account) Login(ctx context.Context, req models.LoginRequest) error {
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		a.app.view.Notify(LevelWarning, "Please enter your email and password")
		return ErrInvalidInput
	}
	if req.UserType == "" {
		req.UserType = models.UserTypeCustomer
	}

	a.app.async(func() func() {
		u, err := a.app.gw.Login(ctx, req)
		return func() {
			if err != nil {
				a.app.failAction("Login", err)
				return
			}
			if err := a.app.sessions.Set(ctx, u); err != nil {
				if errors.Is(err, models.ErrNoIdentity) {
					a.app.failAction("Login", err)
					return
				}
				slog.Warn("Session is live but was not persisted", "error", err)
			}
			slog.Info("User logged in", "user_id", u.UserID, "user_type", u.UserType)
			a.app.view.RenderAuth(a.app.sessions.Current())
			a.app.Cart.Reset()
			a.app.Nav.Goto(ctx, PageHome)
			a.app.view.Notify(LevelSuccess, "Login successful!")
			a.app.Cart.Reload(ctx)
		}
	})
	return nil
}

// Signup registers a new account. The user still has to log in afterwards.
func (a *Account) Signup(ctx context.Context, req models.SignupRequest) error {
	req.Email = strings.TrimSpace(req.Email)
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" || req.Email == "" || req.Password == "" {
		a.app.view.Notify(LevelWarning, "Please fill in all required fields")
		return ErrInvalidInput
	}
	if req.UserType == "" {
		req.UserType = models.UserTypeCustomer
	}

	a.app.async(func() func() {
		err := a.app.gw.Signup(ctx, req)
		return func() {
			if err != nil {
				a.app.failAction("Signup", err)
				return
			}
			a.app.Nav.Goto(ctx, PageLogin)
			a.app.view.Notify(LevelSuccess, "Registration successful! Please login.")
		}
	})
	return nil
}

// Logout ends the session locally. There is no server call.
func (a *Account) Logout(ctx context.Context) {
	if err := a.app.sessions.Clear(ctx); err != nil {
		slog.Warn("Failed to remove persisted session", "error", err)
	}
	a.app.Cart.Reset()
	a.app.view.RenderAuth(nil)
	a.app.Nav.Goto(ctx, PageLogin)
	a.app.view.Notify(LevelSuccess, "Logout successful!")
}

func (a *Account) LoadProfile(ctx context.Context) {
	u := a.app.sessions.Current()
	if u == nil {
		return
	}
	a.app.view.RenderLoading(RegionProfile)

	a.app.async(func() func() {
		profile, err := a.app.gw.GetUser(ctx, u.UserID)
		return func() {
			if err != nil {
				a.app.failRegion(PageProfile, RegionProfile, err)
				return
			}
			if a.app.Nav.Current() == PageProfile && a.app.sameUser(u) {
				a.app.view.RenderProfile(profile)
			}
		}
	})
}

func (a *Account) LoadOrders(ctx context.Context) {
	u := a.app.sessions.Current()
	if u == nil {
		return
	}
	a.app.view.RenderLoading(RegionOrders)

	a.app.async(func() func() {
		orders, err := a.app.gw.GetOrders(ctx, u.UserID)
		return func() {
			if err != nil {
				a.app.failRegion(PageProfile, RegionOrders, err)
				return
			}
			if a.app.Nav.Current() == PageProfile && a.app.sameUser(u) {
				a.app.view.RenderOrders(orders)
			}
		}
	})
}
