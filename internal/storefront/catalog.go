package storefront

import (
	"context"
	"strings"

	"storefront/internal/models"
)

type Catalog struct {
	app      *App
	category string
	items    []models.MenuItem
}

func (c *Catalog) Category() string {
	return c.category
}

// Items returns the last listing received for the active category.
func (c *Catalog) Items() []models.MenuItem {
	return append([]models.MenuItem(nil), c.items...)
}

// Filter selects category and shows the menu page for it. An empty category
// means all of them.
func (c *Catalog) Filter(ctx context.Context, category string) {
	category = strings.TrimSpace(category)
	if category == "" {
		category = "all"
	}
	c.category = category
	if c.app.Nav.Current() != PageMenu {
		c.app.Nav.Goto(ctx, PageMenu)
		return
	}
	c.load(ctx)
}

func (c *Catalog) load(ctx context.Context) {
	category := c.category
	c.app.view.RenderLoading(RegionMenu)

	c.app.async(func() func() {
		items, err := c.app.gw.ListMenu(ctx, category)
		return func() {
			if c.category != category {
				return
			}
			if err != nil {
				c.app.failRegion(PageMenu, RegionMenu, err)
				return
			}
			c.items = items
			if c.app.Nav.Current() != PageMenu {
				return
			}
			if len(items) == 0 {
				c.app.view.RenderFailure(RegionMenu, "No menu items found.")
				return
			}
			c.app.view.RenderMenu(category, items)
		}
	})
}
