// Package ui is the interactive terminal front end: a View that prints pages
// as tables and a shell that maps typed commands onto App operations.
package ui

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"storefront/internal/models"
	"storefront/internal/storefront"
)

var (
	bold   = color.New(color.Bold).SprintFunc()
	green  = color.New(color.FgGreen).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	cyan   = color.New(color.FgCyan).SprintFunc()
	faint  = color.New(color.Faint).SprintFunc()
)

var pageTitles = map[storefront.Page]string{
	storefront.PageHome:              "Home",
	storefront.PageMenu:              "Menu",
	storefront.PageCart:              "Your Cart",
	storefront.PageCheckout:          "Checkout",
	storefront.PageProfile:           "My Profile",
	storefront.PageAdmin:             "Admin Dashboard",
	storefront.PageOrderConfirmation: "Order Confirmed",
	storefront.PageLogin:             "Login",
	storefront.PageSignup:            "Sign Up",
}

var pageHints = map[storefront.Page]string{
	storefront.PageHome:     "Type 'menu' to browse dishes or 'help' for all commands.",
	storefront.PageLogin:    "login <email> <password> [customer|admin]",
	storefront.PageSignup:   "signup --name NAME --email EMAIL --password PASSWORD [--phone PHONE] [--address ADDRESS]",
	storefront.PageCheckout: "order [cod|online|upi]",
}

// Terminal renders the storefront to a writer. The prompt reflects the last
// rendered session and cart badge.
type Terminal struct {
	mu       sync.Mutex
	out      io.Writer
	user     *models.User
	badge    int
	page     storefront.Page
	onChange func()
}

var _ storefront.View = (*Terminal)(nil)

func NewTerminal(out io.Writer) *Terminal {
	return &Terminal{out: out}
}

// OnChange registers fn to be called whenever the prompt state changes.
func (t *Terminal) OnChange(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onChange = fn
}

func (t *Terminal) changed() {
	t.mu.Lock()
	fn := t.onChange
	t.mu.Unlock()
	if fn != nil {
		fn()
	}
}

func (t *Terminal) printf(format string, args ...any) {
	fmt.Fprintf(t.out, format, args...)
}

func (t *Terminal) render(tw table.Writer) {
	tw.SetStyle(table.StyleLight)
	t.printf("%s\n", tw.Render())
}

// Prompt returns the shell prompt for the current state.
func (t *Terminal) Prompt() string {
	t.mu.Lock()
	defer t.mu.Unlock()

	var b strings.Builder
	b.WriteString("storefront")
	if t.page != "" {
		b.WriteString(":" + string(t.page))
	}
	if t.user != nil {
		b.WriteString(" " + t.user.Email)
	}
	if t.badge > 0 {
		fmt.Fprintf(&b, " [cart %d]", t.badge)
	}
	return bold(b.String()) + "> "
}

func (t *Terminal) ShowPage(p storefront.Page) {
	t.mu.Lock()
	t.page = p
	t.mu.Unlock()
	t.changed()

	title, ok := pageTitles[p]
	if !ok {
		title = string(p)
	}
	t.printf("\n%s\n", bold("== "+title+" =="))
	if hint, ok := pageHints[p]; ok {
		t.printf("%s\n", faint(hint))
	}
}

func (t *Terminal) Notify(level storefront.Level, message string) {
	switch level {
	case storefront.LevelSuccess:
		t.printf("%s %s\n", green("✔"), message)
	case storefront.LevelWarning:
		t.printf("%s %s\n", yellow("!"), message)
	case storefront.LevelError:
		t.printf("%s %s\n", red("✘"), message)
	default:
		t.printf("%s %s\n", cyan("i"), message)
	}
}

func (t *Terminal) RenderAuth(u *models.User) {
	t.mu.Lock()
	t.user = u
	t.mu.Unlock()
	t.changed()

	if u == nil {
		t.printf("%s\n", faint("Not logged in."))
		return
	}
	role := ""
	if u.IsAdmin() {
		role = " " + yellow("(admin)")
	}
	t.printf("Logged in as %s%s\n", bold(u.Name), role)
}

func (t *Terminal) RenderBadge(count int, visible bool) {
	if !visible {
		count = 0
	}
	t.mu.Lock()
	t.badge = count
	t.mu.Unlock()
	t.changed()
}

func (t *Terminal) RenderLoading(r storefront.Region) {
	t.printf("%s\n", faint("Loading "+string(r)+"..."))
}

func (t *Terminal) RenderFailure(r storefront.Region, message string) {
	t.printf("%s %s\n", red("["+string(r)+"]"), message)
}

func (t *Terminal) RenderMenu(category string, items []models.MenuItem) {
	tw := table.NewWriter()
	tw.SetTitle("Category: " + category)
	tw.AppendHeader(table.Row{"ID", "Dish", "Category", "Price"})
	for _, it := range items {
		tw.AppendRow(table.Row{it.ItemID, it.Name, it.Category, it.Price.String()})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{{Number: 4, Align: text.AlignRight}})
	t.render(tw)
	t.printf("%s\n", faint("add <id> [quantity] to add a dish to your cart"))
}

func (t *Terminal) cartTable(lines []models.CartLine, subtotal, total models.Amount) table.Writer {
	tw := table.NewWriter()
	tw.AppendHeader(table.Row{"ID", "Item", "Price", "Qty", "Subtotal"})
	for _, l := range lines {
		tw.AppendRow(table.Row{l.ItemID, l.Name, l.Price.String(), l.Quantity, l.Subtotal.String()})
	}
	tw.AppendFooter(table.Row{"", "", "", "Subtotal", subtotal.String()})
	tw.AppendFooter(table.Row{"", "", "", "Delivery", models.DeliveryFee.String()})
	tw.AppendFooter(table.Row{"", "", "", "Total", total.String()})
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
		{Number: 5, Align: text.AlignRight},
	})
	return tw
}

func (t *Terminal) RenderCart(c storefront.CartView) {
	if len(c.Lines) == 0 {
		t.printf("Your cart is empty.\n")
		return
	}
	t.render(t.cartTable(c.Lines, c.Subtotal, c.Total))
	t.printf("%s\n", faint("qty <id> <quantity> to change a line, checkout when ready"))
}

func (t *Terminal) RenderCheckout(c storefront.CheckoutView) {
	t.printf("Deliver to: %s\n", c.Address)
	if len(c.Lines) == 0 {
		t.printf("Your cart is empty.\n")
		return
	}
	t.render(t.cartTable(c.Lines, c.Subtotal, c.Total))
}

func (t *Terminal) RenderConfirmation(c storefront.Confirmation) {
	t.printf("%s Order %s placed\n", green("✔"), bold(c.OrderNumber))
	t.printf("Payment: %s\n", c.PaymentMethod.Label())

	tw := table.NewWriter()
	tw.AppendHeader(table.Row{"Item", "Qty", "Subtotal"})
	for _, l := range c.Lines {
		tw.AppendRow(table.Row{l.Name, l.Quantity, l.Subtotal.String()})
	}
	tw.AppendFooter(table.Row{"", "Delivery", models.DeliveryFee.String()})
	tw.AppendFooter(table.Row{"", "Total", c.Total.String()})
	t.render(tw)
}

func (t *Terminal) RenderProfile(u *models.User) {
	tw := table.NewWriter()
	tw.AppendRows([]table.Row{
		{"Name", u.Name},
		{"Email", u.Email},
		{"Phone", u.Phone},
		{"Address", u.Address},
	})
	t.render(tw)
}

func (t *Terminal) RenderOrders(orders []models.Order) {
	if len(orders) == 0 {
		t.printf("You have no orders yet.\n")
		return
	}
	tw := table.NewWriter()
	tw.SetTitle("Order History")
	tw.AppendHeader(table.Row{"Order", "Date", "Items", "Total", "Payment", "Status"})
	for _, o := range orders {
		items := make([]string, 0, len(o.Items))
		for _, it := range o.Items {
			items = append(items, fmt.Sprintf("%s x%d", it.Name, it.Quantity))
		}
		method, err := models.ParsePaymentMethod(o.PaymentMethod())
		payment := o.PaymentMethod()
		if err == nil {
			payment = method.Label()
		}
		tw.AppendRow(table.Row{
			models.OrderNumber(o.OrderID),
			o.OrderDate,
			strings.Join(items, ", "),
			o.TotalPrice.String(),
			payment,
			o.Status,
		})
	}
	t.render(tw)
}

func (t *Terminal) RenderAdminMenu(items []models.MenuItem) {
	tw := table.NewWriter()
	tw.SetTitle("Menu Items")
	tw.AppendHeader(table.Row{"ID", "Name", "Category", "Price"})
	for _, it := range items {
		tw.AppendRow(table.Row{it.ItemID, it.Name, it.Category, it.Price.String()})
	}
	t.render(tw)
}

func (t *Terminal) RenderMenuItem(it *models.MenuItem) {
	tw := table.NewWriter()
	tw.AppendRows([]table.Row{
		{"ID", it.ItemID},
		{"Name", it.Name},
		{"Category", it.Category},
		{"Price", it.Price.String()},
		{"Image", it.Image},
		{"Description", it.Description},
	})
	t.render(tw)
}
