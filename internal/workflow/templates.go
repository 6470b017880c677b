package workflow

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/jaybesin/logistics-console/internal/models"
	"github.com/jaybesin/logistics-console/internal/shipment"
)

const (
	whatsAppBase     = "https://wa.me/"
	receiptRule      = "--------------------------------"
	receiptHeader    = "*NEW ORDER - JAYBESIN MART*"
	receiptClosing   = "Please confirm availability and shipping costs."
	fallbackShopLine = "233553065304"
)

// ShipmentNotice is sent to the consignee when a shipment is received.
func ShipmentNotice(s models.Shipment, domain string) string {
	if domain = strings.TrimSpace(domain); domain == "" {
		domain = models.DefaultSettings().TrackingDomain
	}
	return fmt.Sprintf("Hello, your shipment %s has been received. Status: %s. Total Due: $%.2f. Track at: %s",
		s.TrackingNumber, s.Status, s.Totals().TotalCost, domain)
}

// StatusUpdate is the admin's manual progress message.
func StatusUpdate(s models.Shipment) string {
	return fmt.Sprintf("Hello %s, update on shipment %s. Current Status: %s. Total: $%.2f.",
		s.ConsigneeName, s.TrackingNumber, s.Status, s.Totals().TotalCost)
}

// CartLine is one product in a shop checkout.
type CartLine struct {
	Name     string          `json:"name"`
	Price    shipment.Number `json:"price"`
	Quantity int             `json:"quantity"`
}

func (l CartLine) qty() int {
	if l.Quantity < 1 {
		return 1
	}
	return l.Quantity
}

func (l CartLine) total() float64 {
	return l.Price.NonNegative() * float64(l.qty())
}

// CheckoutReceipt renders the WhatsApp order message and the cart total.
func CheckoutReceipt(cart []CartLine) (string, float64, error) {
	if len(cart) == 0 {
		return "", 0, ErrEmptyCart
	}
	var (
		b     strings.Builder
		total float64
	)
	b.WriteString(receiptHeader + "\n" + receiptRule + "\n")
	for i, l := range cart {
		fmt.Fprintf(&b, "%d. %s (x%d) - $%.2f\n", i+1, strings.TrimSpace(l.Name), l.qty(), l.total())
		total += l.total()
	}
	b.WriteString(receiptRule + "\n")
	fmt.Fprintf(&b, "*TOTAL VALUE: $%.2f*\n\n", total)
	b.WriteString(receiptClosing)
	return b.String(), total, nil
}

// WhatsAppLink builds a wa.me deep link. Non-digits are stripped from phone.
func WhatsAppLink(phone, text string) string {
	return whatsAppBase + digitsOnly(phone) + "?text=" + encodeComponent(text)
}

// encodeComponent escapes like a browser's encodeURIComponent for the
// characters that matter here: spaces become %20, not '+'.
func encodeComponent(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// CheckoutResult is the shop order ready to hand to WhatsApp.
type CheckoutResult struct {
	Message     string  `json:"message"`
	Total       float64 `json:"total"`
	WhatsAppURL string  `json:"whatsapp_url"`
}

// Checkout builds the order receipt addressed to the shop line, falling back
// to the general WhatsApp number.
func (c *Controller) Checkout(cart []CartLine) (*CheckoutResult, error) {
	msg, total, err := CheckoutReceipt(cart)
	if err != nil {
		return nil, err
	}
	settings := c.settings.Settings()
	phone := settings.ShopWhatsapp
	if digitsOnly(phone) == "" {
		phone = settings.WhatsappNumber
	}
	if digitsOnly(phone) == "" {
		phone = fallbackShopLine
	}
	return &CheckoutResult{Message: msg, Total: total, WhatsAppURL: WhatsAppLink(phone, msg)}, nil
}
