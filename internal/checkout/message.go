package checkout

import (
	"errors"
	"net/url"
	"strings"

	"github.com/example/jewel-storefront/internal/cart"
	"github.com/example/jewel-storefront/internal/catalog"
	"github.com/shopspring/decimal"
)

const (
	DefaultPreamble = "Hi! I am interested in"
	closing         = "Could you please provide more details?"
	whatsAppBase    = "https://wa.me/"
)

var ErrMissingPhoneNumber = errors.New("whatsapp phone number is not configured")

// Item is one line of an enquiry. ProductID is optional.
type Item struct {
	Name      string
	Price     decimal.Decimal
	ProductID string
}

// ItemsFromCart keeps cart order. Quantities are not part of the message.
func ItemsFromCart(lines []cart.Line) []Item {
	items := make([]Item, 0, len(lines))
	for _, l := range lines {
		items = append(items, Item{Name: l.Name, Price: l.Price, ProductID: l.ProductID})
	}
	return items
}

func ItemFromProduct(p catalog.Product) Item {
	return Item{Name: p.Name, Price: p.Price, ProductID: p.ID}
}

// Composer builds WhatsApp enquiry messages and deep links.
type Composer struct {
	phone    string
	preamble string
	baseURL  string
}

// NewComposer returns a Composer for the given business number. An empty
// preamble uses DefaultPreamble. baseURL is the storefront origin used for
// product links and may be empty.
func NewComposer(phone, preamble, baseURL string) *Composer {
	if strings.TrimSpace(preamble) == "" {
		preamble = DefaultPreamble
	}
	return &Composer{
		phone:    strings.TrimPrefix(strings.TrimSpace(phone), "+"),
		preamble: preamble,
		baseURL:  strings.TrimRight(baseURL, "/"),
	}
}

// Message lists every item with its unit price. It never adds a total.
func (c *Composer) Message(items []Item) string {
	var b strings.Builder
	b.WriteString(c.preamble)
	b.WriteString("\n\n")

	for _, it := range items {
		b.WriteString("• ")
		b.WriteString(it.Name)
		b.WriteString(" - ₹")
		b.WriteString(it.Price.String())
		if it.ProductID != "" && c.baseURL != "" {
			b.WriteString("\n  ")
			b.WriteString(c.baseURL)
			b.WriteString("/product/")
			b.WriteString(it.ProductID)
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(closing)
	return b.String()
}

// Link returns the wa.me deep link carrying the composed message.
func (c *Composer) Link(items []Item) (string, error) {
	if c.phone == "" {
		return "", ErrMissingPhoneNumber
	}
	return whatsAppBase + c.phone + "?text=" + EncodeURIComponent(c.Message(items)), nil
}

// BuyNow is the deep link for enquiring about a single product.
func (c *Composer) BuyNow(p catalog.Product) (string, error) {
	return c.Link([]Item{ItemFromProduct(p)})
}

var uriComponentFixups = strings.NewReplacer(
	"+", "%20",
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)

// EncodeURIComponent percent-encodes s leaving only A-Z a-z 0-9 and - _ . ! ~ * ' ( ) as is.
func EncodeURIComponent(s string) string {
	return uriComponentFixups.Replace(url.QueryEscape(s))
}
