package storefront

import "fmt"

type Page string

const (
	PageHome              Page = "home"
	PageMenu              Page = "menu"
	PageCart              Page = "cart"
	PageCheckout          Page = "checkout"
	PageProfile           Page = "profile"
	PageAdmin             Page = "admin"
	PageOrderConfirmation Page = "order-confirmation"
	PageLogin             Page = "login"
	PageSignup            Page = "signup"
)

var pages = []Page{
	PageHome, PageMenu, PageCart, PageCheckout, PageProfile,
	PageAdmin, PageOrderConfirmation, PageLogin, PageSignup,
}

func Pages() []Page {
	return append([]Page(nil), pages...)
}

func ParsePage(s string) (Page, error) {
	for _, p := range pages {
		if string(p) == s {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown page %q", s)
}

// Protected pages require a live session.
func (p Page) Protected() bool {
	switch p {
	case PageCart, PageCheckout, PageProfile, PageAdmin:
		return true
	}
	return false
}
