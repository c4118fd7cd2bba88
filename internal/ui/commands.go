package ui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/pflag"

	"storefront/internal/models"
	"storefront/internal/storefront"
)

// ErrUsage is matched by errors caused by malformed command arguments.
var ErrUsage = errors.New("invalid usage")

type usageError struct {
	cmd    *Command
	reason string
}

func (e *usageError) Error() string {
	if e.reason != "" {
		return fmt.Sprintf("%s (usage: %s)", e.reason, e.cmd.Synopsis())
	}
	return "usage: " + e.cmd.Synopsis()
}

func (e *usageError) Is(target error) bool { return target == ErrUsage }

// Command binds one shell command to an App operation. Run is executed on the
// App's event loop.
type Command struct {
	Name string
	Args string
	Help string
	Run  func(ctx context.Context, app *storefront.App, args []string) error
}

func (c *Command) Synopsis() string {
	if c.Args == "" {
		return c.Name
	}
	return c.Name + " " + c.Args
}

// Commands returns the command table in display order.
func Commands() []*Command {
	return []*Command{
		pageCommand("home", storefront.PageHome, "Go to the home page"),
		{Name: "menu", Args: "[category]", Help: "Browse the menu, optionally filtered by category", Run: runMenu},
		pageCommand("cart", storefront.PageCart, "Show your cart"),
		pageCommand("checkout", storefront.PageCheckout, "Review your order before placing it"),
		pageCommand("profile", storefront.PageProfile, "Show your profile and order history"),
		pageCommand("admin", storefront.PageAdmin, "Open the admin dashboard"),
		{Name: "goto", Args: "<page>", Help: "Open any page by name", Run: runGoto},
		{Name: "login", Args: "<email> <password> [customer|admin]", Help: "Log in", Run: runLogin},
		{Name: "signup", Args: "--name NAME --email EMAIL --password PASSWORD [--phone PHONE] [--address ADDRESS] [--type customer|admin]", Help: "Create an account", Run: runSignup},
		{Name: "logout", Help: "Log out", Run: runLogout},
		{Name: "add", Args: "<item-id> [quantity]", Help: "Add a dish to your cart", Run: runAdd},
		{Name: "qty", Args: "<item-id> <quantity>", Help: "Change the quantity of a cart line; 0 removes it", Run: runQty},
		{Name: "order", Args: "[cod|online|upi]", Help: "Place the order for your cart", Run: runOrder},
		{Name: "admin-show", Args: "<item-id>", Help: "Show one menu item", Run: runAdminShow},
		{Name: "admin-add", Args: "--name NAME --category CATEGORY --price PRICE --description TEXT [--image URL]", Help: "Add a menu item", Run: runAdminAdd},
		{Name: "admin-update", Args: "<item-id> [--name NAME] [--category CATEGORY] [--price PRICE] [--description TEXT] [--image URL]", Help: "Update a menu item", Run: runAdminUpdate},
		{Name: "admin-delete", Args: "<item-id>", Help: "Delete a menu item", Run: runAdminDelete},
	}
}

// Dispatch runs the named command on the App's event loop. It returns once
// the command itself has run; the requests it started render when they
// complete.
func Dispatch(ctx context.Context, app *storefront.App, cmds []*Command, name string, args []string) error {
	for _, c := range cmds {
		if c.Name == name {
			return app.Exec(func() error {
				return c.Run(withCommand(ctx, c), app, args)
			})
		}
	}
	return fmt.Errorf("unknown command %q", name)
}

type commandKey struct{}

func withCommand(ctx context.Context, c *Command) context.Context {
	return context.WithValue(ctx, commandKey{}, c)
}

func usage(ctx context.Context, reason string) error {
	if c, ok := ctx.Value(commandKey{}).(*Command); ok {
		return &usageError{cmd: c, reason: reason}
	}
	return fmt.Errorf("%w: %s", ErrUsage, reason)
}

func pageCommand(name string, page storefront.Page, help string) *Command {
	return &Command{
		Name: name,
		Help: help,
		Run: func(ctx context.Context, app *storefront.App, args []string) error {
			if len(args) != 0 {
				return usage(ctx, "")
			}
			app.Nav.Goto(ctx, page)
			return nil
		},
	}
}

func runMenu(ctx context.Context, app *storefront.App, args []string) error {
	app.Catalog.Filter(ctx, strings.Join(args, " "))
	return nil
}

func runGoto(ctx context.Context, app *storefront.App, args []string) error {
	if len(args) != 1 {
		return usage(ctx, "")
	}
	page, err := storefront.ParsePage(args[0])
	if err != nil {
		return usage(ctx, err.Error())
	}
	app.Nav.Goto(ctx, page)
	return nil
}

func parseUserType(s string) (models.UserType, error) {
	switch t := models.UserType(strings.ToLower(s)); t {
	case "", models.UserTypeCustomer:
		return models.UserTypeCustomer, nil
	case models.UserTypeAdmin:
		return t, nil
	default:
		return "", fmt.Errorf("unknown user type %q", s)
	}
}

func runLogin(ctx context.Context, app *storefront.App, args []string) error {
	if len(args) < 2 || len(args) > 3 {
		return usage(ctx, "")
	}
	req := models.LoginRequest{Email: args[0], Password: args[1]}
	if len(args) == 3 {
		t, err := parseUserType(args[2])
		if err != nil {
			return usage(ctx, err.Error())
		}
		req.UserType = t
	}
	return app.Account.Login(ctx, req)
}

func newFlagSet(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func runSignup(ctx context.Context, app *storefront.App, args []string) error {
	var req models.SignupRequest
	var userType string
	fs := newFlagSet("signup")
	fs.StringVar(&req.Name, "name", "", "Full name")
	fs.StringVar(&req.Email, "email", "", "Email address")
	fs.StringVar(&req.Password, "password", "", "Password")
	fs.StringVar(&req.Phone, "phone", "", "Phone number")
	fs.StringVar(&req.Address, "address", "", "Delivery address")
	fs.StringVar(&userType, "type", "customer", "Account type")
	if err := fs.Parse(args); err != nil {
		return usage(ctx, err.Error())
	}
	if fs.NArg() != 0 {
		return usage(ctx, "unexpected arguments")
	}
	t, err := parseUserType(userType)
	if err != nil {
		return usage(ctx, err.Error())
	}
	req.UserType = t
	return app.Account.Signup(ctx, req)
}

func runLogout(ctx context.Context, app *storefront.App, args []string) error {
	if len(args) != 0 {
		return usage(ctx, "")
	}
	app.Account.Logout(ctx)
	return nil
}

func parseID(ctx context.Context, s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, usage(ctx, fmt.Sprintf("invalid item id %q", s))
	}
	return id, nil
}

func runAdd(ctx context.Context, app *storefront.App, args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return usage(ctx, "")
	}
	id, err := parseID(ctx, args[0])
	if err != nil {
		return err
	}
	qty := 1
	if len(args) == 2 {
		if qty, err = strconv.Atoi(args[1]); err != nil {
			return usage(ctx, fmt.Sprintf("invalid quantity %q", args[1]))
		}
	}
	return app.Cart.AddLine(ctx, id, qty)
}

func runQty(ctx context.Context, app *storefront.App, args []string) error {
	if len(args) != 2 {
		return usage(ctx, "")
	}
	id, err := parseID(ctx, args[0])
	if err != nil {
		return err
	}
	qty, err := strconv.Atoi(args[1])
	if err != nil {
		return usage(ctx, fmt.Sprintf("invalid quantity %q", args[1]))
	}
	return app.Cart.SetLineQuantity(ctx, id, qty)
}

func runOrder(ctx context.Context, app *storefront.App, args []string) error {
	if len(args) > 1 {
		return usage(ctx, "")
	}
	method := models.PaymentCOD
	if len(args) == 1 {
		m, err := models.ParsePaymentMethod(args[0])
		if err != nil {
			return usage(ctx, err.Error())
		}
		method = m
	}
	return app.Cart.PlaceOrder(ctx, method)
}

func runAdminShow(ctx context.Context, app *storefront.App, args []string) error {
	if len(args) != 1 {
		return usage(ctx, "")
	}
	id, err := parseID(ctx, args[0])
	if err != nil {
		return err
	}
	return app.Admin.Show(ctx, id)
}

func runAdminDelete(ctx context.Context, app *storefront.App, args []string) error {
	if len(args) != 1 {
		return usage(ctx, "")
	}
	id, err := parseID(ctx, args[0])
	if err != nil {
		return err
	}
	return app.Admin.DeleteItem(ctx, id)
}

type itemFlags struct {
	fs          *pflag.FlagSet
	name        string
	category    string
	price       float64
	image       string
	description string
}

func newItemFlags(cmd string) *itemFlags {
	f := &itemFlags{fs: newFlagSet(cmd)}
	f.fs.StringVar(&f.name, "name", "", "Dish name")
	f.fs.StringVar(&f.category, "category", "", "Menu category")
	f.fs.Float64Var(&f.price, "price", 0, "Price")
	f.fs.StringVar(&f.image, "image", "", "Image URL")
	f.fs.StringVar(&f.description, "description", "", "Description")
	return f
}

func runAdminAdd(ctx context.Context, app *storefront.App, args []string) error {
	f := newItemFlags("admin-add")
	if err := f.fs.Parse(args); err != nil {
		return usage(ctx, err.Error())
	}
	if f.fs.NArg() != 0 {
		return usage(ctx, "unexpected arguments")
	}
	return app.Admin.AddItem(ctx, models.MenuItemInput{
		Name:        f.name,
		Category:    f.category,
		Price:       models.Amount(f.price),
		Image:       f.image,
		Description: f.description,
	})
}

func runAdminUpdate(ctx context.Context, app *storefront.App, args []string) error {
	f := newItemFlags("admin-update")
	if err := f.fs.Parse(args); err != nil {
		return usage(ctx, err.Error())
	}
	if f.fs.NArg() != 1 {
		return usage(ctx, "")
	}
	id, err := parseID(ctx, f.fs.Arg(0))
	if err != nil {
		return err
	}

	var patch storefront.MenuPatch
	if f.fs.Changed("name") {
		patch.Name = &f.name
	}
	if f.fs.Changed("category") {
		patch.Category = &f.category
	}
	if f.fs.Changed("price") {
		price := models.Amount(f.price)
		patch.Price = &price
	}
	if f.fs.Changed("image") {
		patch.Image = &f.image
	}
	if f.fs.Changed("description") {
		patch.Description = &f.description
	}
	if patch == (storefront.MenuPatch{}) {
		return usage(ctx, "nothing to update")
	}
	return app.Admin.UpdateItem(ctx, id, patch)
}
