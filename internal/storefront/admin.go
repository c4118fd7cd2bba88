package storefront

import (
	"context"
	"strings"

	"storefront/internal/models"
)

// Admin manages the catalog. The role check here is a client-side gate only;
// the API is expected to enforce its own.
type Admin struct {
	app *App
}

// MenuPatch lists the fields of an update. Nil fields keep their current value.
type MenuPatch struct {
	Name        *string
	Category    *string
	Price       *models.Amount
	Image       *string
	Description *string
}

func (p MenuPatch) apply(item *models.MenuItem) models.MenuItemInput {
	in := models.MenuItemInput{
		Name:        item.Name,
		Category:    item.Category,
		Price:       item.Price,
		Image:       item.Image,
		Description: item.Description,
	}
	if p.Name != nil {
		in.Name = *p.Name
	}
	if p.Category != nil {
		in.Category = *p.Category
	}
	if p.Price != nil {
		in.Price = *p.Price
	}
	if p.Image != nil {
		in.Image = *p.Image
	}
	if p.Description != nil {
		in.Description = *p.Description
	}
	return in
}

func (a *Admin) authorize(ctx context.Context, action string) error {
	u := a.app.sessions.Current()
	if u == nil {
		a.app.view.Notify(LevelWarning, "Please login to access this page")
		a.app.Nav.Goto(ctx, PageLogin)
		return ErrUnauthenticated
	}
	if !u.IsAdmin() {
		a.app.view.Notify(LevelWarning, "You do not have permission to "+action)
		return ErrUnauthorized
	}
	return nil
}

// Load fetches the admin catalog. It does nothing for non-admin sessions.
func (a *Admin) Load(ctx context.Context) {
	if !a.app.sessions.Current().IsAdmin() {
		return
	}
	a.app.view.RenderLoading(RegionAdmin)

	a.app.async(func() func() {
		items, err := a.app.gw.AdminListMenu(ctx)
		return func() {
			if err != nil {
				a.app.failRegion(PageAdmin, RegionAdmin, err)
				return
			}
			if a.app.Nav.Current() != PageAdmin {
				return
			}
			if len(items) == 0 {
				a.app.view.RenderFailure(RegionAdmin, "No menu items found.")
				return
			}
			a.app.view.RenderAdminMenu(items)
		}
	})
}

func (a *Admin) Show(ctx context.Context, itemID int64) error {
	if err := a.authorize(ctx, "view menu items"); err != nil {
		return err
	}
	a.app.async(func() func() {
		item, err := a.app.gw.AdminGetMenuItem(ctx, itemID)
		return func() {
			if err != nil {
				a.app.failAction("Get menu item", err)
				return
			}
			a.app.view.RenderMenuItem(item)
		}
	})
	return nil
}

func (a *Admin) AddItem(ctx context.Context, in models.MenuItemInput) error {
	if err := a.authorize(ctx, "add menu items"); err != nil {
		return err
	}
	in.Name = strings.TrimSpace(in.Name)
	in.Category = strings.TrimSpace(in.Category)
	in.Description = strings.TrimSpace(in.Description)
	if in.Name == "" || in.Category == "" || in.Price <= 0 || in.Description == "" {
		a.app.view.Notify(LevelWarning, "Please fill in all required fields")
		return ErrInvalidInput
	}

	a.app.async(func() func() {
		_, err := a.app.gw.AdminAddMenuItem(ctx, in)
		return func() {
			if err != nil {
				a.app.failAction("Add menu item", err)
				return
			}
			a.app.view.Notify(LevelSuccess, "Menu item added successfully!")
			a.Load(ctx)
		}
	})
	return nil
}

// UpdateItem reads the current item, overlays patch and writes it back. The
// two calls run back to back on one worker.
func (a *Admin) UpdateItem(ctx context.Context, itemID int64, patch MenuPatch) error {
	if err := a.authorize(ctx, "update menu items"); err != nil {
		return err
	}
	if patch.Price != nil && *patch.Price <= 0 {
		a.app.view.Notify(LevelWarning, "Price must be greater than zero")
		return ErrInvalidInput
	}

	a.app.async(func() func() {
		item, err := a.app.gw.AdminGetMenuItem(ctx, itemID)
		if err == nil {
			err = a.app.gw.AdminUpdateMenuItem(ctx, itemID, patch.apply(item))
		}
		return func() {
			if err != nil {
				a.app.failAction("Update menu item", err)
				return
			}
			a.app.view.Notify(LevelSuccess, "Menu item updated successfully!")
			a.Load(ctx)
		}
	})
	return nil
}

func (a *Admin) DeleteItem(ctx context.Context, itemID int64) error {
	if err := a.authorize(ctx, "delete menu items"); err != nil {
		return err
	}
	a.app.async(func() func() {
		err := a.app.gw.AdminDeleteMenuItem(ctx, itemID)
		return func() {
			if err != nil {
				a.app.failAction("Delete menu item", err)
				return
			}
			a.app.view.Notify(LevelSuccess, "Menu item deleted successfully!")
			a.Load(ctx)
		}
	})
	return nil
}
