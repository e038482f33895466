package model

// Notification is a purchase-confirmation message handed to the outbound
// senders (email, WhatsApp relay). Senders are black boxes; delivery is
// fire-and-forget.
type Notification struct {
	Email      string
	Phone      string
	Product    ProductSKU
	Subject    string
	Body       string
	MeetingURL string
}
